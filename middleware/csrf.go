package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"environovalab/config"
	"environovalab/util"
)

const CSRFFormKey = "authenticity_token"
const CSRFHeaderName = "X-CSRF-Token"

var csrfValidationFailed = errors.New("CSRF validation failed")

// CSRF protects this site's own forms. It is unrelated to the API's csrftoken cookie, which lives
// in the API jar and never reaches the browser.
//
// CSRF should come after Session
func CSRF(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		rawSecret, err := base64.RawStdEncoding.DecodeString(getSessionCSRFSecret(r))
		if err != nil {
			panic(err)
		}
		if len(rawSecret) != config.AuthTokenLength {
			panic(fmt.Errorf("Unexpected csrf secret length: %d", len(rawSecret)))
		}

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			var incomingToken string
			err := r.ParseForm()
			if err == nil {
				incomingToken = r.PostFormValue(CSRFFormKey)
			}
			if incomingToken == "" {
				incomingToken = r.Header.Get(CSRFHeaderName)
			}

			if !validateCSRFToken(incomingToken, rawSecret) {
				if GetSession(r).Authenticated &&
					(r.URL.Path == util.LoginPath || r.URL.Path == util.RegisterPath) {
					// Stale login form from before signing in elsewhere
					http.Redirect(w, r, util.DashboardPath, http.StatusFound)
					return
				}

				panic(util.HttpError{
					Status: http.StatusForbidden,
					Inner:  csrfValidationFailed,
				})
			}
		}

		csrfToken := mustMaskCSRFToken(rawSecret)
		next.ServeHTTP(w, withCSRFToken(r, csrfToken))
	}
	return http.HandlerFunc(fn)
}

func validateCSRFToken(csrfToken string, secret []byte) bool {
	maskedCSRFToken, err := base64.RawStdEncoding.DecodeString(csrfToken)
	if err != nil {
		return false
	}

	if len(maskedCSRFToken) != config.AuthTokenLength*2 {
		return false
	}

	oneTimePad := maskedCSRFToken[:config.AuthTokenLength]
	encryptedCSRFToken := maskedCSRFToken[config.AuthTokenLength:]
	decodedCSRFToken := make([]byte, config.AuthTokenLength)
	for i := 0; i < config.AuthTokenLength; i++ {
		decodedCSRFToken[i] = oneTimePad[i] ^ encryptedCSRFToken[i]
	}

	return subtle.ConstantTimeCompare(decodedCSRFToken, secret) == 1
}

func mustMaskCSRFToken(secret []byte) string {
	oneTimePad := make([]byte, config.AuthTokenLength)
	_, err := rand.Read(oneTimePad)
	if err != nil {
		panic(err)
	}

	encryptedCSRFToken := make([]byte, config.AuthTokenLength)
	for i := 0; i < config.AuthTokenLength; i++ {
		encryptedCSRFToken[i] = oneTimePad[i] ^ secret[i]
	}
	maskedCSRFToken := append(oneTimePad, encryptedCSRFToken...)

	return base64.RawStdEncoding.EncodeToString(maskedCSRFToken)
}

type csrfTokenKeyType struct{}

var csrfTokenKey = &csrfTokenKeyType{}

func withCSRFToken(r *http.Request, csrfToken string) *http.Request {
	r = r.WithContext(context.WithValue(r.Context(), csrfTokenKey, csrfToken))
	return r
}

func GetCSRFToken(r *http.Request) string {
	return r.Context().Value(csrfTokenKey).(string)
}
