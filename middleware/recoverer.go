package middleware

import (
	"fmt"
	"net/http"

	"environovalab/config"
	"environovalab/oops"
	"environovalab/templates"
	"environovalab/util"
)

type errorPageResult struct {
	Title   string
	Session *util.Session
	Detail  string
}

func Recoverer(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil && rvr != http.ErrAbortHandler {
				err, ok := rvr.(error)
				if !ok {
					err = fmt.Errorf("%v", rvr)
				}

				status := http.StatusInternalServerError
				if httpErr, ok := err.(util.HttpError); ok {
					status = httpErr.Status
					err = httpErr.Inner
				}

				if r.Header.Get("Connection") != "Upgrade" {
					switch status {
					case http.StatusInternalServerError:
						var detail string
						if config.Cfg.Env.IsDevOrTest() {
							detail = err.Error()
						}
						templates.MustWriteStatus(w, status, "misc/500", errorPageResult{
							Title:   util.DecorateTitle("Error"),
							Session: nil,
							Detail:  detail,
						})
					case http.StatusNotFound:
						templates.MustWriteStatus(w, status, "misc/404", errorPageResult{
							Title:   util.DecorateTitle("No encontrado"),
							Session: nil,
							Detail:  "",
						})
					default:
						w.WriteHeader(status)
					}
				}

				sterr, ok := err.(*oops.Error)
				if !ok {
					sterr = oops.Wrap(err).(*oops.Error)
				}
				setError(r, sterr)
			}
		}()

		next.ServeHTTP(w, r)
	}

	return http.HandlerFunc(fn)
}
