package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// RedirectSlashes sends /proformas/ to /proformas. Paths under any of excludePrefixes are left
// alone. Only GET and HEAD are redirected, a POST would lose its body.
func RedirectSlashes(excludePrefixes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			var path string
			rctx := chi.RouteContext(r.Context())
			if rctx != nil && rctx.RoutePath != "" {
				path = rctx.RoutePath
			} else {
				path = r.URL.Path
			}

			isExcluded := false
			for _, prefix := range excludePrefixes {
				if strings.HasPrefix(path, prefix) {
					isExcluded = true
					break
				}
			}

			if len(path) > 1 && path[len(path)-1] == '/' && !isExcluded &&
				(r.Method == http.MethodGet || r.Method == http.MethodHead) {

				// Collapse leading slashes so the target can't become a protocol-relative url
				target := "/" + strings.TrimLeft(strings.TrimRight(path, "/"), "/")
				if r.URL.RawQuery != "" {
					target += "?" + r.URL.RawQuery
				}
				http.Redirect(w, r, target, http.StatusMovedPermanently)
				return
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
