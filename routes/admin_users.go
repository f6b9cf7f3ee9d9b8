package routes

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"environovalab/forms"
	"environovalab/labapi"
	"environovalab/listsync"
	"environovalab/routes/rutil"
	"environovalab/templates"
	"environovalab/util"
)

type userRow struct {
	User   labapi.User
	IsSelf bool
}

type usersResult struct {
	Title   string
	Session *util.Session
	Notice  listsync.Notice
	Errors  forms.Errors
	Users   []userRow
	Form    labapi.NewUser
}

func newUsersResult(r *http.Request, users *listsync.Collection[labapi.User]) usersResult {
	current := rutil.CurrentSession(r)
	var rows []userRow
	for _, user := range users.Items {
		rows = append(rows, userRow{
			User:   user,
			IsSelf: current.IsSelf(user.Username),
		})
	}
	return usersResult{
		Title:   util.DecorateTitle("Usuarios"),
		Session: rutil.Session(r),
		Notice:  users.Notice,
		Errors:  forms.NewErrors(),
		Users:   rows,
		Form:    labapi.NewUser{}, //nolint:exhaustruct
	}
}

func Admin_Users(w http.ResponseWriter, r *http.Request) {
	users := listsync.New(rutil.ApiClient(r).Users().List, rutil.Logger(r))
	if err := users.Load(r.Context()); rutil.SessionExpired(w, r, err) {
		return
	}
	templates.MustWrite(w, "admin/users", newUsersResult(r, users))
}

func Admin_CreateUser(w http.ResponseWriter, r *http.Request) {
	client := rutil.ApiClient(r)
	users := listsync.New(client.Users().List, rutil.Logger(r))

	user, errs := forms.NewUser(r.PostForm)
	if errs.Any() {
		if err := users.Load(r.Context()); rutil.SessionExpired(w, r, err) {
			return
		}
		result := newUsersResult(r, users)
		result.Errors = errs
		result.Form = user
		result.Form.Password = ""
		templates.MustWriteStatus(w, http.StatusUnprocessableEntity, "admin/users", result)
		return
	}

	err := users.ApplyMessage(r.Context(), func(ctx context.Context) (string, error) {
		return client.Users().Create(ctx, user)
	}, "Usuario creado correctamente")
	if rutil.SessionExpired(w, r, users.Err) {
		return
	}
	if err != nil {
		notice := users.Notice
		if err := users.Load(r.Context()); rutil.SessionExpired(w, r, err) {
			return
		}
		users.Notice = notice
		result := newUsersResult(r, users)
		result.Form = user
		result.Form.Password = ""
		templates.MustWrite(w, "admin/users", result)
		return
	}
	templates.MustWrite(w, "admin/users", newUsersResult(r, users))
}

// mustRejectSelfChange keeps admins from changing their own role or status. The target is the user
// the url id names in a fresh read of the list, so this is decided before any write is sent.
func mustRejectSelfChange(
	w http.ResponseWriter, r *http.Request, users *listsync.Collection[labapi.User], userId labapi.ObjectId,
) bool {
	err := users.Load(r.Context())
	if rutil.SessionExpired(w, r, err) {
		return true
	}
	if err != nil {
		templates.MustWrite(w, "admin/users", newUsersResult(r, users))
		return true
	}

	var target *labapi.User
	for i := range users.Items {
		if users.Items[i].Id == userId {
			target = &users.Items[i]
			break
		}
	}
	if target == nil {
		util.HttpPanic(http.StatusNotFound, fmt.Sprintf("unknown user: %s", userId))
	}

	current := rutil.CurrentSession(r)
	if !current.IsSelf(target.Username) {
		return false
	}

	rutil.Logger(r).Info().Str("target", target.Username).Msg("Rejected change to own account")
	users.Reject("No puede modificar su propio usuario")
	templates.MustWrite(w, "admin/users", newUsersResult(r, users))
	return true
}

func Admin_UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	client := rutil.ApiClient(r)
	userId := rutil.IdParam(r, "id")
	users := listsync.New(client.Users().List, rutil.Logger(r))
	if mustRejectSelfChange(w, r, users, userId) {
		return
	}

	isAdmin, err := strconv.ParseBool(util.EnsureParam(r, "is_admin"))
	if err != nil {
		util.HttpPanic(http.StatusBadRequest, "is_admin must be a boolean")
	}

	_ = users.ApplyMessage(r.Context(), func(ctx context.Context) (string, error) {
		return client.Users().UpdateRole(ctx, userId, isAdmin)
	}, "Rol actualizado correctamente")
	if rutil.SessionExpired(w, r, users.Err) {
		return
	}
	renderUsersAfterChange(w, r, users)
}

func Admin_ToggleUserActive(w http.ResponseWriter, r *http.Request) {
	client := rutil.ApiClient(r)
	userId := rutil.IdParam(r, "id")
	users := listsync.New(client.Users().List, rutil.Logger(r))
	if mustRejectSelfChange(w, r, users, userId) {
		return
	}

	_ = users.ApplyMessage(r.Context(), func(ctx context.Context) (string, error) {
		return client.Users().ToggleActive(ctx, userId)
	}, "Estado actualizado")
	if rutil.SessionExpired(w, r, users.Err) {
		return
	}
	renderUsersAfterChange(w, r, users)
}

// A failed write leaves the list as it was read before the write
func renderUsersAfterChange(w http.ResponseWriter, r *http.Request, users *listsync.Collection[labapi.User]) {
	templates.MustWrite(w, "admin/users", newUsersResult(r, users))
}
