package rutil

import (
	"fmt"
	"mime"
	"net/http"

	"environovalab/labapi"
	"environovalab/listsync"
	"environovalab/templates"
	"environovalab/util"

	"github.com/go-chi/chi/v5"
)

// SessionExpired handles the API saying the user is no longer signed in: the local session is
// dropped and the visitor is sent to log in again. Returns true if the response has been written.
func SessionExpired(w http.ResponseWriter, r *http.Request, err error) bool {
	if !labapi.IsUnauthorized(err) || !CurrentSession(r).Authenticated {
		return false
	}

	Logger(r).Info().Err(err).Msg("API session expired, signing out")
	MustSignOut(w, r)
	redirect := util.LoginPath
	if r.Method == http.MethodGet {
		redirect = util.LoginPathWithRedirect(r)
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
	return true
}

// MustApiResult is for reads a page can't render without. It returns false if the response has
// already been written: missing documents are a 404, and any other failure is shown as a notice in
// place of the page, with a link back to backPath.
func MustApiResult(w http.ResponseWriter, r *http.Request, err error, backPath string) bool {
	return MustApiResultAfter(w, r, err, listsync.Notice{}, backPath)
}

// MustApiResultAfter is MustApiResult for a read that follows an action. A notice from that action
// is what the user gets shown if the read fails too.
func MustApiResultAfter(
	w http.ResponseWriter, r *http.Request, err error, prior listsync.Notice, backPath string,
) bool {
	if err == nil {
		return true
	}
	if SessionExpired(w, r, err) {
		return false
	}
	if labapi.IsNotFound(err) {
		panic(util.HttpError{Status: http.StatusNotFound, Inner: err})
	}

	Logger(r).Warn().Err(err).Str("reason", labapi.Reason(err).String()).Msg("Page read failed")
	notice := prior
	if notice.IsZero() {
		notice = listsync.Failure(err)
	}
	templates.MustWrite(w, "misc/unavailable", unavailableResult{
		Title:    util.DecorateTitle("No disponible"),
		Session:  Session(r),
		Notice:   notice,
		BackPath: backPath,
	})
	return false
}

type unavailableResult struct {
	Title    string
	Session  *util.Session
	Notice   listsync.Notice
	BackPath string
}

func IdParam(r *http.Request, name string) labapi.ObjectId {
	id := chi.URLParam(r, name)
	if id == "" {
		util.HttpPanic(http.StatusBadRequest, fmt.Sprintf("missing url param: %s", name))
	}
	return labapi.ObjectId(id)
}

func MustWriteFile(w http.ResponseWriter, file *labapi.File, fallbackName string) {
	filename := file.Filename
	if filename == "" {
		filename = fallbackName
	}
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": filename,
	}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Content); err != nil {
		panic(err)
	}
}
