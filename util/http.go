package util

import (
	"fmt"
	"net/http"
	"strings"
)

func EnsureParam(r *http.Request, name string) string {
	if r.Form == nil {
		panic("call r.ParseForm() before util.EnsureParam()")
	}

	value, ok := r.Form[name]
	if !ok {
		panic(HttpError{
			Status: http.StatusBadRequest,
			Inner:  fmt.Errorf("missing in form: %s", name),
		})
	}

	return value[0]
}

func UserIp(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	return r.RemoteAddr
}
