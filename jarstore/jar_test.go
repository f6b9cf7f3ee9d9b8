package jarstore

import (
	"context"
	"net/http"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"environovalab/log"

	"github.com/stretchr/testify/require"
)

func newSqliteStore(t *testing.T) Store {
	ctx := context.Background()
	store, err := NewSqliteStore(ctx, filepath.Join(t.TempDir(), "jars.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(ctx))
	return store
}

func newFileStore(t *testing.T) Store {
	return NewFileStore(filepath.Join(t.TempDir(), "cookies.yaml"))
}

func TestJarPersistsApiCookies(t *testing.T) {
	type Test struct {
		Description string
		NewStore    func(t *testing.T) Store
	}
	tests := []Test{
		{Description: "sqlite", NewStore: newSqliteStore},
		{Description: "yaml file", NewStore: newFileStore},
	}

	apiUrl, err := url.Parse("http://api.example.com/api/login/")
	require.NoError(t, err)
	otherUrl, err := url.Parse("http://other.example.org/")
	require.NoError(t, err)
	logger := &log.TaskLogger{Component: "test"}

	for _, tc := range tests {
		ctx := context.Background()
		store := tc.NewStore(t)

		jar, err := NewJar(ctx, store, "sid-1", "http://api.example.com", logger)
		require.NoError(t, err, tc.Description)
		jar.SetCookies(apiUrl, []*http.Cookie{
			{Name: "csrftoken", Value: "tok", Path: "/"},
			{Name: "sessionid", Value: "sess", Path: "/", HttpOnly: true},
		})
		jar.SetCookies(otherUrl, []*http.Cookie{{Name: "tracking", Value: "x", Path: "/"}})

		reopened, err := NewJar(ctx, store, "sid-1", "http://api.example.com", logger)
		require.NoError(t, err, tc.Description)
		names := map[string]string{}
		for _, cookie := range reopened.Cookies(apiUrl) {
			names[cookie.Name] = cookie.Value
		}
		require.Equal(t, map[string]string{"csrftoken": "tok", "sessionid": "sess"}, names, tc.Description)
		require.Empty(t, reopened.Cookies(otherUrl), tc.Description)

		reopened.SetCookies(apiUrl, []*http.Cookie{{Name: "sessionid", Value: "", Path: "/", MaxAge: -1}})
		snapshot := reopened.Snapshot()
		require.Len(t, snapshot, 1, tc.Description)
		require.Equal(t, "csrftoken", snapshot[0].Name, tc.Description)

		other, err := NewJar(ctx, store, "sid-2", "http://api.example.com", logger)
		require.NoError(t, err, tc.Description)
		require.Empty(t, other.Cookies(apiUrl), tc.Description)

		require.NoError(t, reopened.Clear(), tc.Description)
		stored, err := store.Load(ctx, "sid-1")
		require.NoError(t, err, tc.Description)
		require.Empty(t, stored, tc.Description)
	}
}

func TestExpiredCookiesAreDropped(t *testing.T) {
	ctx := context.Background()
	store := newSqliteStore(t)
	require.NoError(t, store.Save(ctx, "sid", []Cookie{
		{Name: "old", Value: "1", Path: "/", Expires: time.Now().Add(-time.Hour)},
		{Name: "fresh", Value: "2", Path: "/", Expires: time.Now().Add(time.Hour)},
	}))

	jar, err := NewJar(ctx, store, "sid", "http://api.example.com", &log.TaskLogger{Component: "test"})
	require.NoError(t, err)
	snapshot := jar.Snapshot()
	require.Len(t, snapshot, 1)
	require.Equal(t, "fresh", snapshot[0].Name)
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)
	require.NoError(t, store.Save(ctx, "a", []Cookie{{Name: "x", Value: "1"}}))

	count, err := store.Prune(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(0), count)

	count, err = store.Prune(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestStoreDuration(t *testing.T) {
	r, err := http.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, err)
	require.Equal(t, time.Duration(0), StoreDuration(r.Context()))

	r = WithStoreDuration(r)
	store := newSqliteStore(t)
	_, err = store.Load(r.Context(), "missing")
	require.NoError(t, err)
	require.Greater(t, StoreDuration(r.Context()), time.Duration(0))
}

func TestCleanup(t *testing.T) {
	ctx := context.Background()
	store := newSqliteStore(t)
	logger := &log.TaskLogger{Component: "test"}
	require.NoError(t, store.Save(ctx, "a", []Cookie{{Name: "x", Value: "1"}}))

	pruned, err := Cleanup(ctx, store, DefaultMaxAge, logger)
	require.NoError(t, err)
	require.Equal(t, int64(0), pruned)

	pruned, err = Cleanup(ctx, store, -time.Hour, logger)
	require.NoError(t, err)
	require.Equal(t, int64(1), pruned)

	cookies, err := store.Load(ctx, "a")
	require.NoError(t, err)
	require.Empty(t, cookies)

	canceledCtx, cancel := context.WithCancel(ctx)
	cancel()
	require.NoError(t, RunCleanup(canceledCtx, store, time.Hour, DefaultMaxAge, logger))
}
