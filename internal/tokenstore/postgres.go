package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Postgres keeps tokens in the portal_tokens table created by the migrations.
type Postgres struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

func (p *Postgres) Get(ctx context.Context, key string) (string, error) {
	var tok string
	err := p.db.QueryRowContext(ctx,
		`select token from portal_tokens where storage_key = $1`, key).Scan(&tok)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return tok, nil
}

func (p *Postgres) Set(ctx context.Context, key, token string) error {
	_, err := p.db.ExecContext(ctx, `
		insert into portal_tokens(storage_key, token, updated_at)
		values ($1, $2, $3)
		on conflict (storage_key) do update set token = excluded.token, updated_at = excluded.updated_at`,
		key, token, p.now().UTC())
	return err
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	_, err := p.db.ExecContext(ctx, `delete from portal_tokens where storage_key = $1`, key)
	return err
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
