package db

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		phone TEXT UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name VARCHAR(100) NOT NULL,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		speed DOUBLE PRECISION,
		altitude DOUBLE PRECISION,
		weight DOUBLE PRECISION,
		last_updated TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vehicles_owner ON vehicles (owner_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS vehicle_history (
		id BIGSERIAL PRIMARY KEY,
		vehicle_id TEXT NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		speed DOUBLE PRECISION,
		altitude DOUBLE PRECISION,
		weight DOUBLE PRECISION,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vehicle_history_vehicle_time ON vehicle_history (vehicle_id, recorded_at)`,
	`CREATE INDEX IF NOT EXISTS idx_vehicle_history_time ON vehicle_history (recorded_at)`,
}

// Migrate creates the tables the service needs. Every statement is
// idempotent so it runs on each start.
func Migrate(ctx context.Context, q Querier) error {
	for i, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	return nil
}
