package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS web_session_kv (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresBackend stores the session rows in the web_session_kv table.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

var _ Backend = (*PostgresBackend)(nil)

func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

// EnsureSchema creates the session table when it does not exist.
func (p *PostgresBackend) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("creating web_session_kv: %w", err)
	}
	return nil
}

func (p *PostgresBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.pool.QueryRow(ctx, `SELECT value FROM web_session_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return value, nil
}

func (p *PostgresBackend) Commit(ctx context.Context, puts map[string][]byte, deletes []string) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		for k, v := range puts {
			_, err := tx.Exec(ctx,
				`INSERT INTO web_session_kv (key, value, updated_at)
				 VALUES ($1, $2, now())
				 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
				k, v)
			if err != nil {
				return fmt.Errorf("upsert %s: %w", k, err)
			}
		}
		if len(deletes) > 0 {
			if _, err := tx.Exec(ctx, `DELETE FROM web_session_kv WHERE key = ANY($1)`, deletes); err != nil {
				return fmt.Errorf("delete keys: %w", err)
			}
		}
		return nil
	})
}

func (p *PostgresBackend) Close() error {
	p.pool.Close()
	return nil
}
