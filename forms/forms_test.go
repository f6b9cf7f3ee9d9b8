package forms

import (
	"net/url"
	"testing"

	"environovalab/labapi"

	"github.com/stretchr/testify/require"
)

func TestSampleType(t *testing.T) {
	valid := func() url.Values {
		return url.Values{
			"tipo":      {"agua"},
			"parametro": {"Coliformes fecales"},
			"unidad":    {"NMP/100 ml"},
			"metodo":    {"SM 9221 E"},
			"tecnica":   {"Tubos múltiples"},
			"precio":    {"25,50"},
		}
	}

	type Test struct {
		Description    string
		Change         func(url.Values)
		ExpectedFields []string
	}
	tests := []Test{
		{Description: "valid", Change: func(url.Values) {}, ExpectedFields: nil},
		{
			Description:    "missing parameter",
			Change:         func(v url.Values) { v.Set("parametro", "  ") },
			ExpectedFields: []string{"parametro"},
		},
		{
			Description:    "zero price",
			Change:         func(v url.Values) { v.Set("precio", "0") },
			ExpectedFields: []string{"precio"},
		},
		{
			Description:    "text price",
			Change:         func(v url.Values) { v.Set("precio", "barato") },
			ExpectedFields: []string{"precio"},
		},
		{
			Description:    "unknown kind",
			Change:         func(v url.Values) { v.Set("tipo", "suelo") },
			ExpectedFields: []string{"tipo"},
		},
		{
			Description: "errors in field order",
			Change: func(v url.Values) {
				v.Del("tecnica")
				v.Del("tipo")
				v.Set("unidad", "kg")
			},
			ExpectedFields: []string{"tipo", "tecnica", "unidad"},
		},
	}

	for _, tc := range tests {
		values := valid()
		tc.Change(values)
		sampleType, errs := SampleType(values)
		require.Equal(t, tc.ExpectedFields, errs.Fields(), tc.Description)
		if tc.ExpectedFields == nil {
			require.False(t, errs.Any(), tc.Description)
			require.Equal(t, labapi.Price(2550), sampleType.Price, tc.Description)
		}
	}
}

func TestLogin(t *testing.T) {
	credentials, errs := Login(url.Values{"username": {" ana "}, "password": {" pw "}})
	require.False(t, errs.Any())
	require.Equal(t, "ana", credentials.Username)
	require.Equal(t, " pw ", credentials.Password)

	_, errs = Login(url.Values{})
	require.Equal(t, []string{"username", "password"}, errs.Fields())
	require.Equal(t, MsgRequired, errs.First())
}

func TestResetPassword(t *testing.T) {
	_, errs := ResetPassword(url.Values{"password": {"a"}, "password_confirmation": {"b"}})
	require.Equal(t, MsgPasswordMismatch, errs.Get("password_confirmation"))

	password, errs := ResetPassword(url.Values{"password": {"a"}, "password_confirmation": {"a"}})
	require.False(t, errs.Any())
	require.Equal(t, "a", password)
}

func TestNewUser(t *testing.T) {
	user, errs := NewUser(url.Values{
		"username": {"luis"},
		"email":    {"luis@example.com"},
		"password": {"pw"},
		"is_admin": {"on"},
	})
	require.False(t, errs.Any())
	require.True(t, user.IsAdmin)

	_, errs = NewUser(url.Values{"username": {"luis"}, "email": {"no es correo"}})
	require.Equal(t, []string{"email", "password"}, errs.Fields())
	require.Equal(t, MsgInvalidEmail, errs.Get("email"))
}

func TestParseProforma(t *testing.T) {
	values := url.Values{
		"nombre":    {"Hidro Andes"},
		"ruc":       {"1790012345001"},
		"fecha":     {"2024-05-02"},
		"parametro": {"pH", "", "DBO5"},
		"unidad":    {"U pH", "", "mg/l"},
		"metodo":    {"SM 4500", "", "SM 5210"},
		"tecnica":   {"Electrometría", "", "Incubación"},
		"precio":    {"10", "", "15.5"},
		"cantidad":  {"2", "1", "1"},
	}
	proforma, errs := ParseProforma(values)
	require.False(t, errs.Any(), errs.String())
	require.Equal(t, "Hidro Andes", proforma.Client.Name)
	require.Len(t, proforma.Lines, 2)
	require.Equal(t, labapi.Price(1000), proforma.Lines[0].UnitPrice)
	require.Equal(t, 2, proforma.Lines[0].Quantity)
	require.Equal(t, labapi.Price(1550), proforma.Lines[1].UnitPrice)

	payload := proforma.Payload("7", "ana")
	require.Equal(t, "2024-05-02T00:00:00Z", payload.Date)
	require.Equal(t, labapi.ProformaDraft, payload.Status)
}

func TestParseProformaErrors(t *testing.T) {
	_, errs := ParseProforma(url.Values{"fecha": {"02/05/2024"}})
	require.Equal(t, []string{"nombre", "fecha", "analisis"}, errs.Fields())
	require.Equal(t, MsgInvalidDate, errs.Get("fecha"))

	_, errs = ParseProforma(url.Values{
		"nombre":    {"Hidro Andes"},
		"fecha":     {"2024-05-02"},
		"parametro": {"pH"},
		"metodo":    {"SM 4500"},
		"tecnica":   {"Electrometría"},
		"precio":    {"10"},
		"cantidad":  {"-1"},
	})
	require.Equal(t, []string{"cantidad[0]"}, errs.Fields())
	require.Equal(t, MsgInvalidQuantity, errs.First())
}

func TestParseInforme(t *testing.T) {
	informe, errs := ParseInforme(url.Values{
		"proforma":      {"3"},
		"fecha_emision": {"2024-06-01"},
		"tomado_por":    {"Técnico"},
		"procedimiento": {"PEE-01"},
		"analizado_por": {"ana"},
		"parametro":     {"pH"},
		"unidad":        {"U pH"},
		"metodo":        {"SM 4500"},
		"resultados":    {"7.2"},
		"limite":        {"6-9"},
		"incertidumbre": {"0.1"},
	})
	require.False(t, errs.Any())
	require.Equal(t, labapi.ObjectId("3"), informe.ProformaId)
	require.Len(t, informe.Results, 1)
	require.Equal(t, "7.2", informe.Results[0].Value)

	_, errs = ParseInforme(url.Values{})
	require.Equal(t, []string{"proforma", "tomado_por", "procedimiento", "analizado_por", "fecha_emision"}, errs.Fields())
}

func TestCatalogLines(t *testing.T) {
	catalog := []labapi.SampleType{
		{Id: "7", Type: "agua", Parameter: "pH", Unit: "U pH", Method: "SM 4500", Technique: "Electrométrico", Price: 1250},
		{Id: "8", Type: "agua", Parameter: "DBO5", Unit: "mg/l", Method: "SM 5210 B", Technique: "Incubación", Price: 3000},
	}
	values := url.Values{
		"nombre":   {"Hidro S.A."},
		"fecha":    {"2024-03-01"},
		"muestra":  {"8", "", "7"},
		"cantidad": {"2", "1", "3"},
	}

	filled, errs := CatalogLines(values, catalog)
	require.False(t, errs.Any())
	require.Equal(t, []string{"DBO5", "", "pH"}, filled["parametro"])
	require.Equal(t, []string{"30.00", "", "12.50"}, filled["precio"])
	require.Nil(t, values["parametro"])

	proforma, errs := ParseProforma(filled)
	require.False(t, errs.Any(), errs.String())
	require.Len(t, proforma.Lines, 2)
	require.Equal(t, "DBO5", proforma.Lines[0].Parameter)
	require.Equal(t, labapi.Price(6000), proforma.Lines[0].Subtotal())
	require.Equal(t, 3, proforma.Lines[1].Quantity)
}

func TestCatalogLinesUnknownPick(t *testing.T) {
	values := url.Values{
		"muestra":  {"99"},
		"cantidad": {"1"},
	}
	_, errs := CatalogLines(values, nil)
	require.Equal(t, MsgUnknownSampleType, errs.Get("muestra[0]"))

	other := NewErrors()
	other.Add("nombre", MsgRequired)
	other.Merge(errs)
	require.Equal(t, []string{"nombre", "muestra[0]"}, other.Fields())
}
