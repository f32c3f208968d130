package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS clothing_items (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	image_uri TEXT NOT NULL,
	image_key TEXT NOT NULL,
	bg_image_uri TEXT NOT NULL DEFAULT '',
	bg_image_key TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	subcategory TEXT NOT NULL DEFAULT '',
	tags JSONB NOT NULL DEFAULT '[]'::jsonb,
	color JSONB NOT NULL DEFAULT '[]'::jsonb,
	season JSONB NOT NULL DEFAULT '[]'::jsonb,
	occasion JSONB NOT NULL DEFAULT '[]'::jsonb,
	brand TEXT NOT NULL DEFAULT '',
	purchase_date TEXT NOT NULL DEFAULT '',
	price DOUBLE PRECISION NOT NULL DEFAULT 0,
	bg_status TEXT NOT NULL,
	bg_error TEXT NOT NULL DEFAULT '',
	cat_status TEXT NOT NULL,
	cat_error TEXT NOT NULL DEFAULT '',
	last_worn TIMESTAMPTZ,
	wear_count INTEGER NOT NULL DEFAULT 0,
	last_washed TIMESTAMPTZ,
	wash_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_clothing_items_user_created ON clothing_items(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS outfits (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	image_uri TEXT NOT NULL DEFAULT '',
	image_key TEXT NOT NULL DEFAULT '',
	clothing_items JSONB NOT NULL DEFAULT '[]'::jsonb,
	tags JSONB NOT NULL DEFAULT '[]'::jsonb,
	season JSONB NOT NULL DEFAULT '[]'::jsonb,
	occasion JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_outfits_user_created ON outfits(user_id, created_at DESC);
`

// EnsureSchema creates the closet tables when they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}
	if _, err := tx.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func marshalList[T any](values []T) ([]byte, error) {
	if values == nil {
		values = []T{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("marshal list: %w", err)
	}
	return raw, nil
}

func unmarshalList[T any](raw []byte, dst *[]T) error {
	*dst = []T{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("unmarshal list: %w", err)
	}
	if *dst == nil {
		*dst = []T{}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}
