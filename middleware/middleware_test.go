package middleware

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"environovalab/config"
	"environovalab/oops"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestCSRFTokenRoundTrip(t *testing.T) {
	secret := make([]byte, config.AuthTokenLength)
	_, err := rand.Read(secret)
	require.NoError(t, err)
	otherSecret := make([]byte, config.AuthTokenLength)
	_, err = rand.Read(otherSecret)
	require.NoError(t, err)

	token := mustMaskCSRFToken(secret)
	require.True(t, validateCSRFToken(token, secret))
	require.False(t, validateCSRFToken(token, otherSecret))

	// Every page gets a differently masked token for the same secret
	require.NotEqual(t, token, mustMaskCSRFToken(secret))
	require.True(t, validateCSRFToken(mustMaskCSRFToken(secret), secret))
}

func TestCSRFTokenMalformed(t *testing.T) {
	secret := make([]byte, config.AuthTokenLength)

	tests := []string{"", "not base64!", "c2hvcnQ"}
	for _, token := range tests {
		require.False(t, validateCSRFToken(token, secret), token)
	}
}

func TestRedirectSlashes(t *testing.T) {
	type Test struct {
		Description      string
		Method           string
		Target           string
		ExpectedStatus   int
		ExpectedLocation string
	}

	tests := []Test{
		{
			Description:      "trailing slash",
			Method:           http.MethodGet,
			Target:           "/proformas/",
			ExpectedStatus:   http.StatusMovedPermanently,
			ExpectedLocation: "/proformas",
		},
		{
			Description:      "query is kept",
			Method:           http.MethodGet,
			Target:           "/proformas/new/?q=ph",
			ExpectedStatus:   http.StatusMovedPermanently,
			ExpectedLocation: "/proformas/new?q=ph",
		},
		{
			Description:      "leading slashes collapse",
			Method:           http.MethodGet,
			Target:           "//evil.example/",
			ExpectedStatus:   http.StatusMovedPermanently,
			ExpectedLocation: "/evil.example",
		},
		{
			Description:      "root stays",
			Method:           http.MethodGet,
			Target:           "/",
			ExpectedStatus:   http.StatusOK,
			ExpectedLocation: "",
		},
		{
			Description:      "post is not redirected",
			Method:           http.MethodPost,
			Target:           "/proformas/",
			ExpectedStatus:   http.StatusOK,
			ExpectedLocation: "",
		},
		{
			Description:      "excluded prefix",
			Method:           http.MethodGet,
			Target:           "/static/files/",
			ExpectedStatus:   http.StatusOK,
			ExpectedLocation: "",
		},
	}

	handler := RedirectSlashes("/static")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	for _, test := range tests {
		t.Run(test.Description, func(t *testing.T) {
			req := httptest.NewRequest(test.Method, "http://localhost"+test.Target, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, test.ExpectedStatus, rec.Code)
			require.Equal(t, test.ExpectedLocation, rec.Header().Get("Location"))
		})
	}
}

func TestQuietStatus(t *testing.T) {
	type Test struct {
		Description string
		Status      int
		Err         *oops.Error
		Expected    bool
	}

	tests := []Test{
		{Description: "ok", Status: http.StatusOK, Err: nil, Expected: true},
		{Description: "redirect", Status: http.StatusSeeOther, Err: nil, Expected: true},
		{Description: "not found", Status: http.StatusNotFound, Err: nil, Expected: true},
		{Description: "validation", Status: http.StatusUnprocessableEntity, Err: nil, Expected: true},
		{
			Description: "csrf rejection",
			Status:      http.StatusForbidden,
			Err:         oops.Wrap(csrfValidationFailed).(*oops.Error),
			Expected:    true,
		},
		{Description: "other forbidden", Status: http.StatusForbidden, Err: nil, Expected: false},
		{Description: "server error", Status: http.StatusInternalServerError, Err: nil, Expected: false},
	}

	for _, test := range tests {
		t.Run(test.Description, func(t *testing.T) {
			require.Equal(t, test.Expected, isQuietStatus(test.Status, test.Err))
		})
	}
}

func TestRequestFieldsHidePasswords(t *testing.T) {
	form := url.Values{
		"username":           {"ana"},
		"password":           {"secreto"},
		"authenticity_token": {"abc123"},
		"muestra":            {"1", "2"},
	}
	r := httptest.NewRequest(http.MethodPost, "/login?next=%2Fproformas", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	logger.Info().Func(newRequestFields(r).apply).Msg("started")

	var line struct {
		Method        string         `json:"method"`
		Path          string         `json:"path"`
		Form          map[string]any `json:"form"`
		SessionCookie bool           `json:"session_cookie"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, http.MethodPost, line.Method)
	require.Equal(t, "/login?next=%2Fproformas", line.Path)
	require.Equal(t, "ana", line.Form["username"])
	require.Equal(t, "*******", line.Form["password"])
	require.Equal(t, "*******", line.Form["authenticity_token"])
	require.Equal(t, []any{"1", "2"}, line.Form["muestra"])
	require.False(t, line.SessionCookie)
	require.NotContains(t, buf.String(), "secreto")
}
