package middleware

import (
	"context"
	"net/http"

	"environovalab/config"
	"environovalab/jarstore"
	"environovalab/labapi"
)

// ApiClient gives each request a lab API client backed by the session's persisted cookie jar. The
// jar is only loaded when a handler asks for the client.
//
// ApiClient should come after Session
func ApiClient(store jarstore.Store) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			data := &apiClientData{ //nolint:exhaustruct
				store: store,
			}
			next.ServeHTTP(w, withApiClientData(r, data))
		}
		return http.HandlerFunc(fn)
	}
}

type apiClientData struct {
	store  jarstore.Store
	sid    string
	jar    *jarstore.Jar
	client *labapi.Client
}

type apiClientKeyType struct{}

var apiClientKey = &apiClientKeyType{}

func withApiClientData(r *http.Request, data *apiClientData) *http.Request {
	r = r.WithContext(context.WithValue(r.Context(), apiClientKey, data))
	return r
}

func mustGetApiClientData(r *http.Request) *apiClientData {
	data := r.Context().Value(apiClientKey).(*apiClientData)
	sid := getSessionId(r)
	if data.client != nil && data.sid == sid {
		return data
	}

	// Signing out switches the session to a new jar
	logger := GetLogger(r)
	jar, err := jarstore.NewJar(r.Context(), data.store, sid, config.Cfg.ApiBaseUrl, logger)
	if err != nil {
		panic(err)
	}
	client, err := labapi.New(config.Cfg.ApiBaseUrl, jar, config.Cfg.ApiTimeout, logger)
	if err != nil {
		panic(err)
	}
	data.sid = sid
	data.jar = jar
	data.client = client
	return data
}

func GetApiClient(r *http.Request) *labapi.Client {
	return mustGetApiClientData(r).client
}

func GetJar(r *http.Request) *jarstore.Jar {
	return mustGetApiClientData(r).jar
}
