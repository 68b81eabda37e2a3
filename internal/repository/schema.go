package repository

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		current_stock INTEGER NOT NULL DEFAULT 0,
		base_price    TEXT NOT NULL DEFAULT '0',
		price_tiers   TEXT NOT NULL DEFAULT '[]',
		updated_at    TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS offers (
		id                   TEXT PRIMARY KEY,
		product_id           TEXT NOT NULL REFERENCES products(id),
		requester_id         TEXT NOT NULL,
		requester_name       TEXT NOT NULL DEFAULT '',
		fulfiller_id         TEXT NOT NULL,
		fulfiller_name       TEXT NOT NULL DEFAULT '',
		status               TEXT NOT NULL DEFAULT 'pending',
		quantity             INTEGER NOT NULL,
		unit_price           TEXT NOT NULL,
		reason               TEXT NOT NULL DEFAULT '',
		created_at           TIMESTAMP NOT NULL,
		updated_at           TIMESTAMP NOT NULL,
		expires_at           TIMESTAMP NULL,
		purchase_deadline    TIMESTAMP NULL,
		deleted_by_requester BOOLEAN NOT NULL DEFAULT FALSE,
		deleted_by_fulfiller BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_offers_requester ON offers (requester_id)`,
	`CREATE INDEX IF NOT EXISTS idx_offers_fulfiller ON offers (fulfiller_id)`,
}

// Migrate creates the tables when they do not exist yet. The DDL is kept to
// types both postgres and sqlite accept.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "schema migration")
		}
	}
	return nil
}
