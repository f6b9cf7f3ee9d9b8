package util

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
)

const LoginPath = "/login"
const RegisterPath = "/register"
const DashboardPath = "/dashboard"

// Used by the guard; only same-site paths survive as a redirect target
func LoginPathWithRedirect(r *http.Request) string {
	target := r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	return fmt.Sprintf("%s?redirect=%s", LoginPath, url.QueryEscape(target))
}

// SafeRedirect keeps local absolute paths and falls back to the dashboard for anything else
func SafeRedirect(redirect string) string {
	if redirect == "" || !strings.HasPrefix(redirect, "/") || strings.HasPrefix(redirect, "//") ||
		strings.HasPrefix(redirect, "/\\") {
		return DashboardPath
	}
	return redirect
}

// Session is what every page template gets to know about the visitor
type Session struct {
	CSRFToken   string
	CSRFField   template.HTML
	IsLoggedIn  bool
	IsAdmin     bool
	DisplayName string
	Role        string
	CurrentPath string
}

func DecorateTitle(title string) string {
	return title + " · Environovalab"
}
