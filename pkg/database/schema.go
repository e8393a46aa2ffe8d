package database

import (
	"context"
	"fmt"
)

// schema lists the DDL applied at startup, in order. Statements are
// idempotent so restarts are safe.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id          UUID PRIMARY KEY,
		name        TEXT NOT NULL,
		price_cents BIGINT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS rooms (
		id          UUID PRIMARY KEY,
		category_id UUID NOT NULL REFERENCES categories(id),
		room_number TEXT NOT NULL UNIQUE,
		images      TEXT[] NOT NULL DEFAULT '{}',
		status      TEXT NOT NULL DEFAULT 'available'
			CHECK (status IN ('available', 'occupied', 'maintenance')),
		version     BIGINT NOT NULL DEFAULT 1,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		is_active     BOOLEAN NOT NULL DEFAULT true,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rooms_category_id ON rooms(category_id)`,
}

// Migrate applies the schema to the connected database
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := cp.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	cp.logger.Info("database schema up to date")
	return nil
}
