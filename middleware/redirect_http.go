package middleware

import (
	"net/http"

	"environovalab/config"
)

// Heroku terminates TLS and reports the original scheme in X-Forwarded-Proto
func RedirectHttpToHttps(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		if config.Cfg.Env == config.EnvProduction && config.Cfg.IsHeroku &&
			r.Header.Get("X-Forwarded-Proto") != "https" {
			sslUrl := "https://" + r.Host + r.RequestURI
			http.Redirect(w, r, sslUrl, http.StatusPermanentRedirect)
			return
		}

		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}
