package middleware

import (
	"net/http"
	"strings"

	"environovalab/static"
)

func DefaultHeaders(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")                      // Disallow embedding by <iframe> and such
		w.Header().Set("X-Content-Type-Options", "nosniff")                  // Disable guessing mime types
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin") // Safe referrers
		w.Header().Set("Content-Security-Policy", "default-src 'self'; form-action 'self'; frame-ancestors 'self'")
		if !strings.HasPrefix(r.URL.Path, static.UrlPrefix) {
			// Pages show lab data that shouldn't outlive the session in a shared browser
			w.Header().Set("Cache-Control", "no-store")
		}
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}
