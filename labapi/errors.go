package labapi

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	om "github.com/wk8/go-ordered-map/v2"
)

// ErrMissingToken is returned by Send when the jar holds no csrftoken cookie. Nothing is sent.
var ErrMissingToken = errors.New("anti-forgery token is missing")

// Transport failure: the request may or may not have reached the server
type NetworkError struct {
	Method string
	Path   string
	Inner  error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Method, e.Path, e.Inner)
}

func (e *NetworkError) Unwrap() error {
	return e.Inner
}

// Non-2xx response. Message is extracted from the body when the server sent one.
type RejectedError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s %s: rejected with HTTP %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// 2xx response whose body isn't the expected JSON
type DecodeError struct {
	Method string
	Path   string
	Inner  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s %s: malformed response: %v", e.Method, e.Path, e.Inner)
}

func (e *DecodeError) Unwrap() error {
	return e.Inner
}

type FailureReason int

const (
	ReasonNone FailureReason = iota
	ReasonMissingToken
	ReasonNetwork
	ReasonRejected
	ReasonDecode
	ReasonOther
)

func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonMissingToken:
		return "missing_token"
	case ReasonNetwork:
		return "network"
	case ReasonRejected:
		return "rejected"
	case ReasonDecode:
		return "decode"
	default:
		return "other"
	}
}

func Reason(err error) FailureReason {
	if err == nil {
		return ReasonNone
	}
	var networkErr *NetworkError
	var rejectedErr *RejectedError
	var decodeErr *DecodeError
	switch {
	case errors.Is(err, ErrMissingToken):
		return ReasonMissingToken
	case errors.As(err, &networkErr):
		return ReasonNetwork
	case errors.As(err, &rejectedErr):
		return ReasonRejected
	case errors.As(err, &decodeErr):
		return ReasonDecode
	default:
		return ReasonOther
	}
}

// UserMessage turns an API failure into the text shown to the user. Server-provided messages are
// passed through as is.
func UserMessage(err error) string {
	switch Reason(err) {
	case ReasonNone:
		return ""
	case ReasonMissingToken:
		return "No se pudo obtener el token CSRF"
	case ReasonNetwork:
		return "No se pudo conectar con el servidor"
	case ReasonRejected:
		var rejectedErr *RejectedError
		errors.As(err, &rejectedErr)
		if rejectedErr.Message != "" {
			return rejectedErr.Message
		}
		return fmt.Sprintf("El servidor rechazó la solicitud (HTTP %d)", rejectedErr.Status)
	case ReasonDecode:
		return "Respuesta inesperada del servidor"
	default:
		return "Error inesperado"
	}
}

func IsUnauthorized(err error) bool {
	var rejectedErr *RejectedError
	return errors.As(err, &rejectedErr) && rejectedErr.Status == http.StatusUnauthorized
}

func IsNotFound(err error) bool {
	var rejectedErr *RejectedError
	return errors.As(err, &rejectedErr) && rejectedErr.Status == http.StatusNotFound
}

// Pulls a human-readable message out of the usual error bodies: {"error": ...}, {"detail": ...},
// {"msg": ...}, serializer field errors {"field": ["..."]} or a bare list of strings.
func rejectionMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var list []any
	if err := json.Unmarshal(body, &list); err == nil {
		return joinMessages(list)
	}

	fields := om.New[string, any]()
	if err := json.Unmarshal(body, fields); err != nil {
		return ""
	}
	for _, key := range []string{"error", "detail", "msg", "message"} {
		if value, ok := fields.Get(key); ok {
			if text := messageText(value); text != "" {
				return text
			}
		}
	}

	var parts []string
	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		text := messageText(pair.Value)
		if text == "" {
			continue
		}
		if pair.Key == "non_field_errors" {
			parts = append(parts, text)
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", pair.Key, text))
		}
	}
	return strings.Join(parts, "; ")
}

func messageText(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []any:
		return joinMessages(v)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var parts []string
		for _, key := range keys {
			if text := messageText(v[key]); text != "" {
				parts = append(parts, fmt.Sprintf("%s: %s", key, text))
			}
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}

func joinMessages(values []any) string {
	var parts []string
	for _, value := range values {
		if text := messageText(value); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
