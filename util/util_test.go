package util

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeRedirect(t *testing.T) {
	type Test struct {
		Description string
		Redirect    string
		Expected    string
	}
	tests := []Test{
		{Description: "empty", Redirect: "", Expected: DashboardPath},
		{Description: "local path", Redirect: "/proformas?page=2", Expected: "/proformas?page=2"},
		{Description: "absolute url", Redirect: "https://evil.example.com/", Expected: DashboardPath},
		{Description: "protocol relative", Redirect: "//evil.example.com/", Expected: DashboardPath},
		{Description: "backslash trick", Redirect: "/\\evil.example.com", Expected: DashboardPath},
	}

	for _, tc := range tests {
		require.Equal(t, tc.Expected, SafeRedirect(tc.Redirect), tc.Description)
	}
}

func TestLoginPathWithRedirect(t *testing.T) {
	r := httptest.NewRequest("GET", "/informes/new?proforma=3", nil)
	require.Equal(t, "/login?redirect=%2Finformes%2Fnew%3Fproforma%3D3", LoginPathWithRedirect(r))
}

func TestUserIp(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5000"
	require.Equal(t, "10.0.0.1:5000", UserIp(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.2")
	require.Equal(t, "203.0.113.7", UserIp(r))
}

func TestProformaPaths(t *testing.T) {
	require.Equal(t, "/proformas/a%2Fb/analyses/7/delete", ProformaRemoveAnalysisPath("a/b", "7"))
	require.Equal(t, "/informes/new?proforma=p+1", NewInformePath("p 1"))
}
