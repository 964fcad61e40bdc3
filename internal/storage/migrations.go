package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Ordered DDL, applied exactly once each at startup. Runtime code assumes
// the final schema; nothing probes or alters tables per request.
var migrations = []string{
	// 1: base articles table
	`CREATE TABLE IF NOT EXISTS articles (
		id         BIGSERIAL PRIMARY KEY,
		title      TEXT        NOT NULL,
		content    TEXT        NOT NULL,
		image_url  TEXT        NOT NULL DEFAULT '',
		source_ref TEXT        NOT NULL,
		origin     TEXT        NOT NULL DEFAULT 'rss',
		pub_date   TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted    BOOLEAN     NOT NULL DEFAULT FALSE
	)`,
	// 2: listing order
	`CREATE INDEX IF NOT EXISTS idx_articles_pub_date ON articles (pub_date DESC)`,
	// 3: raw imports carry a genuine uniqueness guarantee; generated
	// variants deliberately do not (forced refresh may duplicate them)
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_articles_rss_ref
		ON articles (source_ref) WHERE origin = 'rss'`,
	// 4: dedup existence checks scan by ref across all origins
	`CREATE INDEX IF NOT EXISTS idx_articles_source_ref ON articles (source_ref)`,
}

// Migrate brings the schema up to date, tracking progress in
// schema_migrations so each step runs once.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	err = db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i, stmt := range migrations {
		version := i + 1
		if version <= current {
			continue
		}

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", version, err)
		}
	}

	return nil
}
