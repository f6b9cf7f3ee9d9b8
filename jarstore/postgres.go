package jarstore

import (
	"context"
	"errors"
	"time"

	"environovalab/oops"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps jars in the app database so that several dynos share them
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, oops.Wrapf(err, "connect postgres jar store")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	t1 := time.Now()
	defer addDuration(ctx, t1)()

	_, err := s.pool.Exec(ctx, `
		create table if not exists api_cookie_jars (
			session_key text primary key,
			cookies jsonb not null,
			updated_at timestamptz not null default now()
		)
	`)
	return oops.Wrapf(err, "migrate postgres jar store")
}

func (s *PostgresStore) Load(ctx context.Context, key string) ([]Cookie, error) {
	t1 := time.Now()
	defer addDuration(ctx, t1)()

	row := s.pool.QueryRow(ctx, "select cookies from api_cookie_jars where session_key = $1", key)
	var cookies []Cookie
	err := row.Scan(&cookies)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, oops.Wrap(err)
	}
	return cookies, nil
}

func (s *PostgresStore) Save(ctx context.Context, key string, cookies []Cookie) error {
	t1 := time.Now()
	defer addDuration(ctx, t1)()

	if cookies == nil {
		cookies = []Cookie{}
	}
	_, err := s.pool.Exec(ctx, `
		insert into api_cookie_jars (session_key, cookies, updated_at) values ($1, $2, now())
		on conflict (session_key) do update set cookies = excluded.cookies, updated_at = excluded.updated_at
	`, key, cookies)
	return oops.Wrapf(err, "save cookie jar")
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	t1 := time.Now()
	defer addDuration(ctx, t1)()

	_, err := s.pool.Exec(ctx, "delete from api_cookie_jars where session_key = $1", key)
	return oops.Wrapf(err, "delete cookie jar")
}

func (s *PostgresStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	t1 := time.Now()
	defer addDuration(ctx, t1)()

	tag, err := s.pool.Exec(ctx, "delete from api_cookie_jars where updated_at < $1", before)
	if err != nil {
		return 0, oops.Wrap(err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var _ Store = (*PostgresStore)(nil)
