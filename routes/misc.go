package routes

import (
	"net/http"

	"environovalab/routes/rutil"
	"environovalab/templates"
	"environovalab/util"
)

func Misc_NotFound(w http.ResponseWriter, r *http.Request) {
	type Result struct {
		Title   string
		Session *util.Session
	}
	templates.MustWriteStatus(w, http.StatusNotFound, "misc/404", Result{
		Title:   util.DecorateTitle("No encontrado"),
		Session: rutil.Session(r),
	})
}
