package middleware

import (
	"net/http"

	"environovalab/session"
	"environovalab/util"
)

// Authorize turns the session guard's decision into a redirect. Nothing behind it runs unless the
// guard says render.
func Authorize(capability session.Capability) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			switch session.Guard(GetSession(r), capability) {
			case session.RedirectLogin:
				http.Redirect(w, r, util.LoginPathWithRedirect(r), http.StatusSeeOther)
				return
			case session.RedirectDashboard:
				http.Redirect(w, r, util.DashboardPath, http.StatusSeeOther)
				return
			case session.Render:
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

var AuthorizeSignedIn = Authorize(session.CapabilityNone)
