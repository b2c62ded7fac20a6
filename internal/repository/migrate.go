package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// records.user_id and records.shoe_ids deliberately have no foreign keys:
// deleting a user or listing must neither cascade to nor be blocked by records.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		user_name TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		push_token TEXT,
		record_refs TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_phone_number_unique_idx ON users (phone_number);`,
	`CREATE TABLE IF NOT EXISTS shoes (
		id TEXT PRIMARY KEY,
		price NUMERIC(12,2) NOT NULL CHECK (price > 0),
		category TEXT NOT NULL CHECK (category IN ('sneakers', 'sandals', 'classic')),
		sub_category TEXT NOT NULL CHECK (sub_category IN ('male', 'female', 'child')),
		sizes DOUBLE PRECISION[] NOT NULL CHECK (cardinality(sizes) > 0),
		image_ref TEXT NOT NULL,
		record_refs TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS shoes_category_idx ON shoes (category, sub_category);`,
	`CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		delivered BOOLEAN NOT NULL DEFAULT FALSE,
		user_id TEXT NOT NULL,
		shoe_ids TEXT[] NOT NULL CHECK (cardinality(shoe_ids) > 0)
	);`,
	`CREATE INDEX IF NOT EXISTS records_user_id_idx ON records (user_id);`,
	`CREATE INDEX IF NOT EXISTS records_shoe_ids_idx ON records USING GIN (shoe_ids);`,
}

// Migrate creates the tables and indexes if they do not exist
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range migrations {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}
	return nil
}
