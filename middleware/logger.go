package middleware

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"time"

	"environovalab/jarstore"
	"environovalab/labapi"
	"environovalab/log"
	"environovalab/oops"
	"environovalab/static"
	"environovalab/util"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/mileusna/useragent"
	"github.com/rs/zerolog"
)

// Form fields whose values never reach the log
var secretField = regexp.MustCompile(`(?i)(password|contrasena|token|secret)`)

const slowStoreDuration = time.Second
const slowApiDuration = 3 * time.Second

// requestFields is what every line logged for a request starts with
type requestFields struct {
	method    string
	path      string
	formErr   error
	formKeys  []string
	form      map[string][]string
	hasCookie bool
}

func newRequestFields(r *http.Request) *requestFields {
	fields := &requestFields{
		method:    r.Method,
		path:      r.URL.Path,
		formErr:   nil,
		formKeys:  nil,
		form:      nil,
		hasCookie: false,
	}
	if r.URL.RawQuery != "" {
		fields.path += "?" + r.URL.RawQuery
	}
	if err := r.ParseForm(); err != nil {
		fields.formErr = err
	} else if len(r.PostForm) > 0 {
		fields.form = r.PostForm
		for key := range r.PostForm {
			fields.formKeys = append(fields.formKeys, key)
		}
		slices.Sort(fields.formKeys)
	}
	for _, cookie := range r.Cookies() {
		if cookie.Name == SessionCookieName {
			fields.hasCookie = true
		}
	}
	return fields
}

func (f *requestFields) apply(event *zerolog.Event) {
	event.Str("method", f.method).Str("path", f.path)
	if f.formErr != nil {
		event.Str("form_err", f.formErr.Error())
	}
	if len(f.formKeys) > 0 {
		form := zerolog.Dict()
		for _, key := range f.formKeys {
			values := f.form[key]
			switch {
			case secretField.MatchString(key):
				form.Str(key, "*******")
			case len(values) == 1:
				form.Str(key, values[0])
			default:
				form.Strs(key, values)
			}
		}
		event.Dict("form", form)
	}
	event.Bool("session_cookie", f.hasCookie)
}

// Statuses that are an expected answer to the visitor rather than a failure of ours
func isQuietStatus(status int, err *oops.Error) bool {
	switch status {
	case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusUnprocessableEntity:
		return true
	case http.StatusForbidden:
		return err != nil && errors.Is(err, csrfValidationFailed)
	}
	return status < 400
}

// Logger writes a "started" and a "completed" or "failed" line per request, with the time spent
// in the jar store and in the lab API.
//
// Logger should come before Recoverer
func Logger(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		t1 := time.Now()
		fields := newRequestFields(r)

		requestId := r.Header.Get("X-Request-ID")
		if requestId == "" {
			requestId = uuid.NewString()
		}
		logger := &WebLogger{
			Username:  "", // To be set by CurrentUser middleware
			RequestId: requestId,
		}

		isStaticFile := strings.HasPrefix(r.URL.Path, static.UrlPrefix)
		if !isStaticFile {
			ua := useragent.Parse(r.UserAgent())
			logger.Info().
				Func(fields.apply).
				Str("ip", util.UserIp(r)).
				Str("referrer", r.Referer()).
				Str("browser", ua.Name).
				Str("os", ua.OS).
				Bool("bot", ua.Bot).
				Msg("started")
		}

		var errorWrapper errorWrapper
		r = withLogger(withErrorWrapper(r, &errorWrapper), logger)
		r = jarstore.WithStoreDuration(r.WithContext(labapi.WithCallStats(r.Context())))

		defer func() {
			status := ww.Status()
			storeDuration := jarstore.StoreDuration(r.Context())
			apiStats := labapi.GetCallStats(r.Context())
			if storeDuration > slowStoreDuration {
				logger.Warn().Func(fields.apply).Msgf("Long jar store duration: %v", storeDuration)
			}
			if apiStats.Duration > slowApiDuration {
				logger.Warn().Func(fields.apply).Int("api_calls", apiStats.Calls).
					Msgf("Long API duration: %v", apiStats.Duration)
			}

			timings := func(event *zerolog.Event) {
				event.
					Int("status", status).
					TimeDiff("duration", time.Now(), t1).
					Dur("store_duration", storeDuration).
					Int("api_calls", apiStats.Calls).
					Int("api_failures", apiStats.Failures).
					Dur("api_duration", apiStats.Duration)
			}

			if !isQuietStatus(status, errorWrapper.err) {
				event := logger.Error().Func(fields.apply).Func(timings)
				if errorWrapper.err != nil {
					event.Err(errorWrapper.err)
				}
				event.Msg("failed")
				return
			}
			if isStaticFile {
				return
			}
			event := logger.Info().Func(fields.apply).Func(timings)
			if errorWrapper.err != nil {
				event.Str("omitted_error", errorWrapper.err.Error())
			}
			event.Msg("completed")
		}()
		next.ServeHTTP(ww, r)
	}
	return http.HandlerFunc(fn)
}

type errorWrapperKeyType struct{}

var errorWrapperKey = &errorWrapperKeyType{}

// errorWrapper carries the error Recoverer caught back up to Logger
type errorWrapper struct {
	err *oops.Error
}

func withErrorWrapper(r *http.Request, wrapper *errorWrapper) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), errorWrapperKey, wrapper))
}

func setError(r *http.Request, err *oops.Error) {
	if wrapper, _ := r.Context().Value(errorWrapperKey).(*errorWrapper); wrapper != nil {
		wrapper.err = err
	}
}

type loggerKeyType struct{}

var loggerKey = &loggerKeyType{}

func withLogger(r *http.Request, logger *WebLogger) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), loggerKey, logger))
}

func GetLogger(r *http.Request) *WebLogger {
	return r.Context().Value(loggerKey).(*WebLogger)
}

func setLoggerUsername(r *http.Request, username string) {
	GetLogger(r).Username = username
}

// WebLogger tags every event with the request id and, once known, the signed-in user
type WebLogger struct {
	Username  string
	RequestId string
}

func (l *WebLogger) Info() *zerolog.Event {
	return l.tag(log.Base.Info())
}

func (l *WebLogger) Warn() *zerolog.Event {
	return l.tag(log.Base.Warn())
}

func (l *WebLogger) Error() *zerolog.Event {
	return l.tag(log.Base.Error())
}

func (l *WebLogger) tag(event *zerolog.Event) *zerolog.Event {
	event = event.Timestamp()
	if l.Username != "" {
		event = event.Str("username", l.Username)
	}
	return event.Str("request_id", l.RequestId)
}

var _ log.Logger = (*WebLogger)(nil)
