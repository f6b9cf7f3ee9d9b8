package rutil

import (
	"fmt"
	"html/template"
	"net/http"

	"environovalab/jarstore"
	"environovalab/labapi"
	"environovalab/middleware"
	"environovalab/session"
	"environovalab/util"
)

// This file wraps calls to the middleware package so that the routes don't have to reference it

func CurrentSession(r *http.Request) session.Session {
	return middleware.GetSession(r)
}

// Session is the view of the current session that page templates get
func Session(r *http.Request) *util.Session {
	s := middleware.GetSession(r)
	csrfToken := middleware.GetCSRFToken(r)
	return &util.Session{
		CSRFToken:   csrfToken,
		CSRFField:   CSRFField(r),
		IsLoggedIn:  s.Authenticated,
		IsAdmin:     session.Allows(s, session.CapabilityAdmin),
		DisplayName: s.DisplayName,
		Role:        string(s.Role),
		CurrentPath: r.URL.Path,
	}
}

func CSRFField(r *http.Request) template.HTML {
	return template.HTML(fmt.Sprintf(
		"<input type=\"hidden\" name=\"%s\" value=\"%s\">",
		middleware.CSRFFormKey, template.HTMLEscapeString(middleware.GetCSRFToken(r)),
	))
}

func Logger(r *http.Request) *middleware.WebLogger {
	return middleware.GetLogger(r)
}

func ApiClient(r *http.Request) *labapi.Client {
	return middleware.GetApiClient(r)
}

func Jar(r *http.Request) *jarstore.Jar {
	return middleware.GetJar(r)
}

func MustSignIn(w http.ResponseWriter, r *http.Request, s session.Session) {
	middleware.MustSignIn(w, r, s)
}

// MustSignOut drops the API cookies along with the session
func MustSignOut(w http.ResponseWriter, r *http.Request) {
	if err := Jar(r).Clear(); err != nil {
		Logger(r).Warn().Err(err).Msg("Couldn't clear API cookie jar")
	}
	middleware.MustSignOut(w, r)
}
