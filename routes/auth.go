package routes

import (
	"net/http"

	"environovalab/forms"
	"environovalab/labapi"
	"environovalab/listsync"
	"environovalab/routes/rutil"
	"environovalab/templates"
	"environovalab/util"

	"github.com/go-chi/chi/v5"
)

type loginResult struct {
	Title    string
	Session  *util.Session
	Notice   listsync.Notice
	Errors   forms.Errors
	Username string
	Redirect string
}

func newLoginResult(r *http.Request, redirect string) loginResult {
	return loginResult{
		Title:    util.DecorateTitle("Iniciar sesión"),
		Session:  rutil.Session(r),
		Notice:   listsync.Notice{},
		Errors:   forms.NewErrors(),
		Username: "",
		Redirect: redirect,
	}
}

func Login_Page(w http.ResponseWriter, r *http.Request) {
	if rutil.CurrentSession(r).Authenticated {
		http.Redirect(w, r, util.DashboardPath, http.StatusFound)
		return
	}

	result := newLoginResult(r, r.URL.Query().Get("redirect"))
	templates.MustWrite(w, "auth/login", result)
}

func Login(w http.ResponseWriter, r *http.Request) {
	if rutil.CurrentSession(r).Authenticated {
		http.Redirect(w, r, util.DashboardPath, http.StatusFound)
		return
	}

	logger := rutil.Logger(r)
	credentials, errs := forms.Login(r.PostForm)
	result := newLoginResult(r, r.PostForm.Get("redirect"))
	result.Username = credentials.Username
	if errs.Any() {
		result.Errors = errs
		templates.MustWriteStatus(w, http.StatusUnprocessableEntity, "auth/login", result)
		return
	}

	signedIn, err := rutil.ApiClient(r).Login(r.Context(), credentials)
	if err != nil {
		logger.Info().Str("reason", labapi.Reason(err).String()).Err(err).Msg("Login rejected")
		result.Notice = listsync.Failure(err)
		templates.MustWrite(w, "auth/login", result)
		return
	}

	rutil.MustSignIn(w, r, signedIn.Session())
	http.Redirect(w, r, util.SafeRedirect(result.Redirect), http.StatusSeeOther)
}

func Logout(w http.ResponseWriter, r *http.Request) {
	if rutil.CurrentSession(r).Authenticated {
		if err := rutil.ApiClient(r).Logout(r.Context()); err != nil {
			rutil.Logger(r).Info().Err(err).Msg("API logout failed, signing out locally")
		}
	}
	rutil.MustSignOut(w, r)
	http.Redirect(w, r, util.LoginPath, http.StatusSeeOther)
}

type registerResult struct {
	Title    string
	Session  *util.Session
	Notice   listsync.Notice
	Errors   forms.Errors
	Username string
	Email    string
}

func Register_Page(w http.ResponseWriter, r *http.Request) {
	if rutil.CurrentSession(r).Authenticated {
		http.Redirect(w, r, util.DashboardPath, http.StatusFound)
		return
	}

	templates.MustWrite(w, "auth/register", registerResult{
		Title:    util.DecorateTitle("Crear cuenta"),
		Session:  rutil.Session(r),
		Notice:   listsync.Notice{},
		Errors:   forms.NewErrors(),
		Username: "",
		Email:    "",
	})
}

func Register(w http.ResponseWriter, r *http.Request) {
	if rutil.CurrentSession(r).Authenticated {
		http.Redirect(w, r, util.DashboardPath, http.StatusFound)
		return
	}

	registration, errs := forms.Register(r.PostForm)
	result := registerResult{
		Title:    util.DecorateTitle("Crear cuenta"),
		Session:  rutil.Session(r),
		Notice:   listsync.Notice{},
		Errors:   errs,
		Username: registration.Username,
		Email:    registration.Email,
	}
	if errs.Any() {
		templates.MustWriteStatus(w, http.StatusUnprocessableEntity, "auth/register", result)
		return
	}

	message, err := rutil.ApiClient(r).Register(r.Context(), registration)
	if err != nil {
		result.Notice = listsync.Failure(err)
		templates.MustWrite(w, "auth/register", result)
		return
	}

	if message == "" {
		message = "Cuenta creada. Ya puede iniciar sesión."
	}
	next := newLoginResult(r, "")
	next.Username = registration.Username
	next.Notice = listsync.Success(message)
	templates.MustWrite(w, "auth/login", next)
}

type forgotPasswordResult struct {
	Title   string
	Session *util.Session
	Notice  listsync.Notice
	Errors  forms.Errors
	Email   string
}

func ForgotPassword_Page(w http.ResponseWriter, r *http.Request) {
	templates.MustWrite(w, "auth/forgot_password", forgotPasswordResult{
		Title:   util.DecorateTitle("Recuperar contraseña"),
		Session: rutil.Session(r),
		Notice:  listsync.Notice{},
		Errors:  forms.NewErrors(),
		Email:   "",
	})
}

func ForgotPassword(w http.ResponseWriter, r *http.Request) {
	email, errs := forms.ForgotPassword(r.PostForm)
	result := forgotPasswordResult{
		Title:   util.DecorateTitle("Recuperar contraseña"),
		Session: rutil.Session(r),
		Notice:  listsync.Notice{},
		Errors:  errs,
		Email:   email,
	}
	if errs.Any() {
		templates.MustWriteStatus(w, http.StatusUnprocessableEntity, "auth/forgot_password", result)
		return
	}

	message, err := rutil.ApiClient(r).ForgotPassword(r.Context(), email)
	if err != nil {
		result.Notice = listsync.Failure(err)
	} else {
		if message == "" {
			message = "Revise su correo para continuar"
		}
		result.Notice = listsync.Success(message)
	}
	templates.MustWrite(w, "auth/forgot_password", result)
}

type resetPasswordResult struct {
	Title   string
	Session *util.Session
	Notice  listsync.Notice
	Errors  forms.Errors
	Token   string
}

func ResetPassword_Page(w http.ResponseWriter, r *http.Request) {
	templates.MustWrite(w, "auth/reset_password", resetPasswordResult{
		Title:   util.DecorateTitle("Nueva contraseña"),
		Session: rutil.Session(r),
		Notice:  listsync.Notice{},
		Errors:  forms.NewErrors(),
		Token:   chi.URLParam(r, "token"),
	})
}

func ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	password, errs := forms.ResetPassword(r.PostForm)
	result := resetPasswordResult{
		Title:   util.DecorateTitle("Nueva contraseña"),
		Session: rutil.Session(r),
		Notice:  listsync.Notice{},
		Errors:  errs,
		Token:   token,
	}
	if errs.Any() {
		templates.MustWriteStatus(w, http.StatusUnprocessableEntity, "auth/reset_password", result)
		return
	}

	message, err := rutil.ApiClient(r).ResetPassword(r.Context(), token, password)
	if err != nil {
		result.Notice = listsync.Failure(err)
		templates.MustWrite(w, "auth/reset_password", result)
		return
	}

	next := newLoginResult(r, "")
	next.Notice = listsync.Success(message)
	templates.MustWrite(w, "auth/login", next)
}
