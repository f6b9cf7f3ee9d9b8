package middleware

import (
	"net/http"
	"reflect"
	"runtime"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

var handlerNamesOnce sync.Once
var handlerNames = map[string]string{}

// LogAction leaves an audit line naming the handler for every state-changing request, after it ran
func LogAction(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)

		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			return
		}

		rCtx := chi.RouteContext(r.Context())
		if rCtx == nil {
			return
		}
		handlerNamesOnce.Do(func() {
			_ = chi.Walk(
				rCtx.Routes,
				func(
					method, route string, handler http.Handler,
					middlewares ...func(http.Handler) http.Handler,
				) error {
					route = strings.ReplaceAll(route, "/*/", "/")
					route = strings.TrimSuffix(route, "//")
					route = strings.TrimSuffix(route, "/")
					fullName := runtime.FuncForPC(reflect.ValueOf(handler).Pointer()).Name()
					nameStart := strings.LastIndex(fullName, "/") + 1
					handlerNames[method+" "+route] = fullName[nameStart:]
					return nil
				},
			)
		})

		logger := GetLogger(r)
		route := strings.TrimSuffix(rCtx.RoutePattern(), "/")
		key := r.Method + " " + route
		handlerName, ok := handlerNames[key]
		if !ok {
			handlerName = "N/A"
			logger.Warn().Msgf("Couldn't find handler name for key %q", key)
		}
		logger.Info().
			Str("action", handlerName).
			Str("route", route).
			Str("referer", r.Referer()).
			Msg("action")
	}
	return http.HandlerFunc(fn)
}
