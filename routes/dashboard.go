package routes

import (
	"net/http"

	"environovalab/labapi"
	"environovalab/listsync"
	"environovalab/routes/rutil"
	"environovalab/templates"
	"environovalab/util"
)

func Root(w http.ResponseWriter, r *http.Request) {
	if rutil.CurrentSession(r).Authenticated {
		http.Redirect(w, r, util.DashboardPath, http.StatusFound)
		return
	}
	http.Redirect(w, r, util.LoginPath, http.StatusFound)
}

func Dashboard(w http.ResponseWriter, r *http.Request) {
	type Result struct {
		Title    string
		Session  *util.Session
		Notice   listsync.Notice
		Settings *labapi.CompanySettings
	}

	result := Result{
		Title:    util.DecorateTitle("Inicio"),
		Session:  rutil.Session(r),
		Notice:   listsync.Notice{},
		Settings: nil,
	}
	settings, err := rutil.ApiClient(r).CompanySettings(r.Context())
	if err != nil {
		if rutil.SessionExpired(w, r, err) {
			return
		}
		result.Notice = listsync.Failure(err)
	} else {
		result.Settings = &settings
	}
	templates.MustWrite(w, "dashboard/index", result)
}
