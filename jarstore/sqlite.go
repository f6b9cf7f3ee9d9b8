package jarstore

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"environovalab/oops"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"
)

type SqliteStore struct {
	db *sql.DB
}

func NewSqliteStore(ctx context.Context, path string) (*SqliteStore, error) {
	if !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, oops.Wrap(err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, oops.Wrapf(err, "open sqlite jar store")
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, oops.Wrapf(err, "ping sqlite jar store")
	}
	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) Migrate(ctx context.Context) error {
	t1 := time.Now()
	defer addDuration(ctx, t1)()

	_, err := s.db.ExecContext(ctx, `
		create table if not exists api_cookie_jars (
			session_key text primary key,
			cookies text not null,
			updated_at integer not null
		)
	`)
	return oops.Wrapf(err, "migrate sqlite jar store")
}

func (s *SqliteStore) Load(ctx context.Context, key string) ([]Cookie, error) {
	t1 := time.Now()
	defer addDuration(ctx, t1)()

	row := s.db.QueryRowContext(ctx, "select cookies from api_cookie_jars where session_key = ?", key)
	var cookiesJson string
	err := row.Scan(&cookiesJson)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, oops.Wrap(err)
	}

	var cookies []Cookie
	if err := json.Unmarshal([]byte(cookiesJson), &cookies); err != nil {
		return nil, oops.Wrapf(err, "decode stored cookies")
	}
	return cookies, nil
}

func (s *SqliteStore) Save(ctx context.Context, key string, cookies []Cookie) error {
	t1 := time.Now()
	defer addDuration(ctx, t1)()

	cookiesJson, err := json.Marshal(cookies)
	if err != nil {
		return oops.Wrap(err)
	}
	_, err = s.db.ExecContext(ctx, `
		insert into api_cookie_jars (session_key, cookies, updated_at) values (?, ?, ?)
		on conflict (session_key) do update set cookies = excluded.cookies, updated_at = excluded.updated_at
	`, key, string(cookiesJson), time.Now().Unix())
	return oops.Wrapf(err, "save cookie jar")
}

func (s *SqliteStore) Delete(ctx context.Context, key string) error {
	t1 := time.Now()
	defer addDuration(ctx, t1)()

	_, err := s.db.ExecContext(ctx, "delete from api_cookie_jars where session_key = ?", key)
	return oops.Wrapf(err, "delete cookie jar")
}

func (s *SqliteStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	t1 := time.Now()
	defer addDuration(ctx, t1)()

	result, err := s.db.ExecContext(ctx, "delete from api_cookie_jars where updated_at < ?", before.Unix())
	if err != nil {
		return 0, oops.Wrap(err)
	}
	count, err := result.RowsAffected()
	return count, oops.Wrapf(err, "count pruned jars")
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SqliteStore)(nil)
