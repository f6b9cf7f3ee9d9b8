package middleware

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"environovalab/config"
	"environovalab/session"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

var secureCookie *securecookie.SecureCookie

func init() {
	secureCookie = securecookie.New(config.Cfg.SessionHashKey, config.Cfg.SessionBlockKey)
	secureCookie.SetSerializer(securecookie.JSONEncoder{})
}

// sessionData is the persisted client session. Sid names the API cookie jar, Csrf is the secret
// behind this site's own form tokens.
type sessionData struct {
	Auth     string `json:"auth,omitempty"`
	User     string `json:"user,omitempty"`
	UserRole string `json:"userRole,omitempty"`
	Sid      string `json:"sid,omitempty"`
	Csrf     string `json:"csrf,omitempty"`
}

const SessionCookieName = "environovalab_session"

// Session should come after Logger
func Session(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		var data sessionData
		cookie, err := r.Cookie(SessionCookieName)
		if err == nil {
			err := secureCookie.Decode(SessionCookieName, cookie.Value, &data)
			if err != nil {
				GetLogger(r).Info().Err(err).Msg("Couldn't decode session cookie")
				data = sessionData{} //nolint:exhaustruct
			}
		}

		if data.Sid == "" || data.Csrf == "" {
			if data.Sid == "" {
				data.Sid = uuid.NewString()
			}
			if data.Csrf == "" {
				data.Csrf = mustNewCSRFSecret()
			}
			mustSetCookie(w, &data)
		}

		next.ServeHTTP(w, withSession(r, &data))
	}
	return http.HandlerFunc(fn)
}

type sessionKeyType struct{}

var sessionKey = &sessionKeyType{}

func withSession(r *http.Request, data *sessionData) *http.Request {
	r = r.WithContext(context.WithValue(r.Context(), sessionKey, data))
	return r
}

func getSessionData(r *http.Request) *sessionData {
	return r.Context().Value(sessionKey).(*sessionData)
}

// GetSession is the only way handlers learn who is signed in
func GetSession(r *http.Request) session.Session {
	data := getSessionData(r)
	if data.Auth != "true" {
		return session.Anonymous()
	}
	return session.SignedIn(data.User, session.ParseRole(data.UserRole))
}

func getSessionId(r *http.Request) string {
	return getSessionData(r).Sid
}

func getSessionCSRFSecret(r *http.Request) string {
	return getSessionData(r).Csrf
}

// MustSignIn keeps the jar id (the API session cookie already lives there) and rotates the form
// token secret
func MustSignIn(w http.ResponseWriter, r *http.Request, s session.Session) {
	data := getSessionData(r)
	data.Auth = "true"
	data.User = s.DisplayName
	data.UserRole = string(s.Role)
	data.Csrf = mustNewCSRFSecret()
	mustSetCookie(w, data)
	setLoggerUsername(r, s.DisplayName)
}

// MustSignOut forgets the user and points the session at a fresh, empty jar
func MustSignOut(w http.ResponseWriter, r *http.Request) {
	data := getSessionData(r)
	data.Auth = ""
	data.User = ""
	data.UserRole = ""
	data.Sid = uuid.NewString()
	data.Csrf = mustNewCSRFSecret()
	mustSetCookie(w, data)
	setLoggerUsername(r, "")
}

func mustNewCSRFSecret() string {
	secret := make([]byte, config.AuthTokenLength)
	_, err := rand.Read(secret)
	if err != nil {
		panic(err)
	}
	return base64.RawStdEncoding.EncodeToString(secret)
}

func mustSetCookie(w http.ResponseWriter, data *sessionData) {
	encoded, err := secureCookie.Encode(SessionCookieName, data)
	if err != nil {
		panic(err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   config.Cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().UTC().AddDate(0, 1, 0),
	})
}
