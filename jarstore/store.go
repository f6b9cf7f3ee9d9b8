// Package jarstore persists the laboratory API cookies (session and anti-forgery) between
// requests. Each browser session owns one jar, keyed by the session id.
package jarstore

import (
	"context"
	"net/http"
	"time"

	"environovalab/config"
	"environovalab/oops"
)

type Cookie struct {
	Name     string    `json:"name" yaml:"name"`
	Value    string    `json:"value" yaml:"value"`
	Path     string    `json:"path,omitempty" yaml:"path,omitempty"`
	Expires  time.Time `json:"expires,omitempty" yaml:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty" yaml:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty" yaml:"http_only,omitempty"`
}

func (c Cookie) expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

func (c Cookie) httpCookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Expires:  c.Expires,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
	}
}

type Store interface {
	Load(ctx context.Context, key string) ([]Cookie, error)
	Save(ctx context.Context, key string, cookies []Cookie) error
	Delete(ctx context.Context, key string) error
	// Prune drops jars not written since before
	Prune(ctx context.Context, before time.Time) (int64, error)
	Migrate(ctx context.Context) error
	Close() error
}

func NewStore(ctx context.Context, cfg config.JarStoreConfig) (Store, error) {
	switch cfg.Kind {
	case config.JarStoreSqlite:
		return NewSqliteStore(ctx, cfg.DSN)
	case config.JarStorePostgres:
		return NewPostgresStore(ctx, cfg.DSN)
	default:
		return nil, oops.Newf("unknown jar store kind: %q", cfg.Kind)
	}
}

type storeDurationKeyType struct{}

var storeDurationKey = &storeDurationKeyType{}

func addDuration(ctx context.Context, t1 time.Time) func() {
	return func() {
		t2 := time.Now()
		storeDurationAny := ctx.Value(storeDurationKey)
		if storeDurationAny != nil {
			storeDuration := storeDurationAny.(*time.Duration)
			*storeDuration += t2.Sub(t1)
		}
	}
}

// StoreDuration is the time the request has spent in the store so far
func StoreDuration(ctx context.Context) time.Duration {
	storeDuration := ctx.Value(storeDurationKey)
	if storeDuration == nil {
		return 0
	}

	return *storeDuration.(*time.Duration)
}

func WithStoreDuration(r *http.Request) *http.Request {
	storeDuration := time.Duration(0)
	r = r.WithContext(context.WithValue(r.Context(), storeDurationKey, &storeDuration))
	return r
}
