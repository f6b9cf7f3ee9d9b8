package labapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"testing"
	"time"

	"environovalab/labapi"
	"environovalab/labapi/labapitest"
	"environovalab/log"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/publicsuffix"
)

func newClient(t *testing.T, server *labapitest.Server) *labapi.Client {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	require.NoError(t, err)
	client, err := labapi.New(server.URL, jar, 5*time.Second, &log.TaskLogger{Component: "test"})
	require.NoError(t, err)
	return client
}

func loggedIn(t *testing.T, server *labapitest.Server, username string, isAdmin bool) *labapi.Client {
	server.AddAccount(username, "secret", isAdmin)
	client := newClient(t, server)
	_, err := client.Login(context.Background(), labapi.Credentials{Username: username, Password: "secret"})
	require.NoError(t, err)
	server.ClearRequests()
	return client
}

func TestNewValidatesArguments(t *testing.T) {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	logger := &log.TaskLogger{Component: "test"}

	_, err = labapi.New("ftp://example.com", jar, time.Second, logger)
	require.Error(t, err)
	_, err = labapi.New("http://example.com", nil, time.Second, logger)
	require.Error(t, err)
	client, err := labapi.New("http://example.com/", jar, time.Second, logger)
	require.NoError(t, err)
	require.Equal(t, "http://example.com", client.BaseUrl())
}

func TestLoginPrimesAndEchoesToken(t *testing.T) {
	server := labapitest.New(t)
	server.AddAccount("ana", "secret", true)
	client := newClient(t, server)

	result, err := client.Login(context.Background(), labapi.Credentials{Username: "ana", Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, "ana", result.Username)
	require.True(t, result.IsAdmin)
	require.True(t, result.Session().IsAdmin())

	requests := server.Requests()
	require.Len(t, requests, 2)
	require.Equal(t, http.MethodGet, requests[0].Method)
	require.Equal(t, "/api/csrf/", requests[0].Path)
	require.Equal(t, http.MethodPost, requests[1].Method)
	require.Equal(t, "/api/login/", requests[1].Path)
	require.NotEmpty(t, requests[1].Token)
	require.Equal(t, client.CSRFToken(), requests[1].Token)
}

func TestLoginRejected(t *testing.T) {
	type Test struct {
		Description     string
		Password        string
		Deactivate      bool
		ExpectedStatus  int
		ExpectedMessage string
	}
	tests := []Test{
		{
			Description:     "wrong password",
			Password:        "wrong",
			ExpectedStatus:  http.StatusBadRequest,
			ExpectedMessage: "Credenciales incorrectas",
		},
		{
			Description:     "inactive account",
			Password:        "secret",
			Deactivate:      true,
			ExpectedStatus:  http.StatusForbidden,
			ExpectedMessage: "Cuenta inactiva. Contacta con el administrador.",
		},
	}

	for _, tc := range tests {
		server := labapitest.New(t)
		server.AddAccount("ana", "secret", false)
		if tc.Deactivate {
			admin := loggedIn(t, server, "root", true)
			_, err := admin.Users().ToggleActive(context.Background(), server.Account("ana").Id)
			require.NoError(t, err, tc.Description)
		}
		client := newClient(t, server)

		_, err := client.Login(context.Background(), labapi.Credentials{Username: "ana", Password: tc.Password})
		require.Error(t, err, tc.Description)
		require.Equal(t, labapi.ReasonRejected, labapi.Reason(err), tc.Description)
		var rejectedErr *labapi.RejectedError
		require.True(t, errors.As(err, &rejectedErr), tc.Description)
		require.Equal(t, tc.ExpectedStatus, rejectedErr.Status, tc.Description)
		require.Equal(t, tc.ExpectedMessage, labapi.UserMessage(err), tc.Description)
	}
}

func TestMissingTokenSendsNothing(t *testing.T) {
	server := labapitest.New(t)
	server.AddAccount("ana", "secret", false)
	server.SetIssueTokens(false)
	client := newClient(t, server)

	_, err := client.Login(context.Background(), labapi.Credentials{Username: "ana", Password: "secret"})
	require.ErrorIs(t, err, labapi.ErrMissingToken)
	require.Equal(t, labapi.ReasonMissingToken, labapi.Reason(err))
	require.Equal(t, "No se pudo obtener el token CSRF", labapi.UserMessage(err))
	require.Empty(t, server.Mutations())
}

func TestNetworkError(t *testing.T) {
	server := labapitest.New(t)
	client := newClient(t, server)
	server.Close()

	_, err := client.SampleTypes().List(context.Background())
	require.Error(t, err)
	require.Equal(t, labapi.ReasonNetwork, labapi.Reason(err))
	require.Equal(t, "No se pudo conectar con el servidor", labapi.UserMessage(err))
}

func TestDecodeError(t *testing.T) {
	server := labapitest.New(t)
	client := loggedIn(t, server, "ana", false)
	server.Override(http.MethodGet, "/api/tipos-muestra/", http.StatusOK, "<html>oops</html>")

	_, err := client.SampleTypes().List(context.Background())
	require.Error(t, err)
	require.Equal(t, labapi.ReasonDecode, labapi.Reason(err))
	require.Equal(t, "Respuesta inesperada del servidor", labapi.UserMessage(err))
}

func TestEmptyWriteAnswer(t *testing.T) {
	server := labapitest.New(t)
	client := loggedIn(t, server, "ana", true)
	server.Override(http.MethodPost, "/api/tipos-muestra/", http.StatusCreated, "")
	server.Override(http.MethodGet, "/api/tipos-muestra/", http.StatusOK, "")

	created, err := client.SampleTypes().Create(context.Background(), labapi.SampleType{
		Type: "agua", Parameter: "pH", Unit: "U pH", Method: "SM 4500", Technique: "Electrometría", Price: 1250,
	})
	require.NoError(t, err)
	require.Equal(t, labapi.ObjectId(""), created.Id)

	_, err = client.SampleTypes().List(context.Background())
	require.Equal(t, labapi.ReasonDecode, labapi.Reason(err))
}

func TestCallStats(t *testing.T) {
	server := labapitest.New(t)
	client := loggedIn(t, server, "ana", false)
	server.Override(http.MethodGet, "/api/tipos-muestra/", http.StatusServiceUnavailable, `{"error":"mantenimiento"}`)

	_, err := client.SampleTypes().List(context.Background())
	require.Error(t, err)
	require.Equal(t, labapi.CallStats{}, labapi.GetCallStats(context.Background())) //nolint:exhaustruct

	ctx := labapi.WithCallStats(context.Background())
	server.Override(http.MethodGet, "/api/tipos-muestra/", http.StatusServiceUnavailable, `{"error":"mantenimiento"}`)
	_, err = client.SampleTypes().List(ctx)
	require.Error(t, err)
	_, err = client.SampleTypes().List(ctx)
	require.NoError(t, err)

	stats := labapi.GetCallStats(ctx)
	require.Equal(t, 2, stats.Calls)
	require.Equal(t, 1, stats.Failures)
	require.Positive(t, stats.Duration)
}

func TestUnauthorizedRead(t *testing.T) {
	server := labapitest.New(t)
	client := loggedIn(t, server, "ana", false)
	server.ExpireSessions()

	_, err := client.Proformas().List(context.Background())
	require.True(t, labapi.IsUnauthorized(err))
}

func TestFetchSkipsPriming(t *testing.T) {
	server := labapitest.New(t)
	client := loggedIn(t, server, "ana", false)
	server.AddSampleType(labapi.SampleType{Type: "agua", Parameter: "pH", Unit: "U pH", Method: "SM 4500", Technique: "Electrometría", Price: 1250})

	items, err := client.SampleTypes().List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, labapi.Price(1250), items[0].Price)

	requests := server.Requests()
	require.Len(t, requests, 1)
	require.Equal(t, "/api/tipos-muestra/", requests[0].Path)
	require.Empty(t, requests[0].Token)
}

func TestSampleTypeLifecycle(t *testing.T) {
	server := labapitest.New(t)
	client := loggedIn(t, server, "ana", true)
	ctx := context.Background()
	sampleTypes := client.SampleTypes()

	created, err := sampleTypes.Create(ctx, labapi.SampleType{
		Type: "agua", Parameter: "Coliformes", Unit: "NMP/100 ml", Method: "SM 9221", Technique: "Tubos múltiples", Price: 2500,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.Id)

	created.Price = 3000
	updated, err := sampleTypes.Update(ctx, created.Id, created)
	require.NoError(t, err)
	require.Equal(t, labapi.Price(3000), updated.Price)

	found, err := sampleTypes.Search(ctx, "colif")
	require.NoError(t, err)
	require.Len(t, found, 1)

	require.NoError(t, sampleTypes.Delete(ctx, created.Id))
	items, err := sampleTypes.List(ctx)
	require.NoError(t, err)
	require.Empty(t, items)

	for _, request := range server.Mutations() {
		require.NotEmpty(t, request.Token, request.Path)
	}
}

func TestFieldErrorsBecomeMessage(t *testing.T) {
	server := labapitest.New(t)
	client := loggedIn(t, server, "ana", true)

	_, err := client.SampleTypes().Create(context.Background(), labapi.SampleType{Type: "agua", Unit: "mg/l", Method: "m", Technique: "t"})
	require.Error(t, err)
	require.Equal(t, "parametro: Este campo es requerido.", labapi.UserMessage(err))
}

func TestShortSearchSendsNothing(t *testing.T) {
	server := labapitest.New(t)
	client := loggedIn(t, server, "ana", false)

	items, err := client.LabClients().Search(context.Background(), "a")
	require.NoError(t, err)
	require.Empty(t, items)
	require.Empty(t, server.Requests())
}

func TestProformaFlow(t *testing.T) {
	server := labapitest.New(t)
	client := loggedIn(t, server, "ana", false)
	ctx := context.Background()
	labClient := server.AddLabClient(labapi.LabClient{Name: "Hidro Andes", Ruc: "1790012345001"})

	proforma, err := client.Proformas().Create(ctx, labapi.NewProforma{
		ClientId:  labClient.Id,
		Date:      time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
		Status:    labapi.ProformaDraft,
		CreatedBy: "ana",
		AnalysisData: []labapi.AnalysisInput{
			{Parameter: "pH", Unit: "U pH", Method: "SM 4500", Technique: "Electrometría", UnitPrice: 1000, Quantity: 2},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "PRF-0001", proforma.Number)
	require.Equal(t, labapi.Price(2000), proforma.Subtotal)
	require.Equal(t, labapi.Price(240), proforma.TaxAmount)
	require.Equal(t, labapi.Price(2240), proforma.Total)
	require.Equal(t, "Borrador", proforma.StatusLabel())

	proforma, err = client.Proformas().AddAnalysis(ctx, proforma.Id, labapi.AnalysisInput{
		Parameter: "DBO5", Unit: "mg/l", Method: "SM 5210", Technique: "Incubación", UnitPrice: 1550, Quantity: 1,
	})
	require.NoError(t, err)
	require.Len(t, proforma.Analyses, 2)

	proforma, err = client.Proformas().RemoveAnalysis(ctx, proforma.Id, proforma.Analyses[0].Id)
	require.NoError(t, err)
	require.Len(t, proforma.Analyses, 1)
	require.Equal(t, "DBO5", proforma.Analyses[0].Parameter)

	data, err := client.Proformas().InformeData(ctx, proforma.Id)
	require.NoError(t, err)
	require.Equal(t, "Hidro Andes", data.ClientName)
	require.Len(t, data.AnalysisData, 1)

	file, err := client.Proformas().PDF(ctx, proforma.Id)
	require.NoError(t, err)
	require.Equal(t, "PRF-0001.pdf", file.Filename)
	require.Equal(t, "application/pdf", file.ContentType)
}

func TestUserAdministration(t *testing.T) {
	server := labapitest.New(t)
	client := loggedIn(t, server, "root", true)
	ctx := context.Background()
	users := client.Users()

	message, err := users.Create(ctx, labapi.NewUser{Username: "luis", Email: "luis@example.com", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, "Usuario creado correctamente", message)

	luis := server.Account("luis")
	_, err = users.UpdateRole(ctx, luis.Id, true)
	require.NoError(t, err)
	message, err = users.ToggleActive(ctx, luis.Id)
	require.NoError(t, err)
	require.Equal(t, "Usuario ahora está inactivo", message)

	list, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.True(t, list[1].IsAdmin)
	require.False(t, list[1].Active)
}

func TestPasswordReset(t *testing.T) {
	server := labapitest.New(t)
	account := server.AddAccount("ana", "old", false)
	client := newClient(t, server)
	ctx := context.Background()

	_, err := client.ForgotPassword(ctx, account.Email)
	require.NoError(t, err)
	token := server.ResetToken(account.Email)
	require.NotEmpty(t, token)

	message, err := client.ResetPassword(ctx, token, "new")
	require.NoError(t, err)
	require.Equal(t, "Contraseña actualizada correctamente", message)

	_, err = client.Login(ctx, labapi.Credentials{Username: "ana", Password: "new"})
	require.NoError(t, err)
}
