package middleware

import (
	"net/http"
)

// CurrentUser tags the request log with whoever is signed in. It should come after Session.
func CurrentUser(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		s := GetSession(r)
		if s.Authenticated {
			setLoggerUsername(r, s.DisplayName)
		}
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}
