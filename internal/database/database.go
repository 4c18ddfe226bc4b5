package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/config"
)

func Connect() (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", config.DBDSN())
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// EnsureSchema creates the tables when they do not exist yet. Cascading
// deletes and the (owner, name) uniqueness live in the schema itself.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id          BIGSERIAL PRIMARY KEY,
		username    VARCHAR(50) NOT NULL UNIQUE,
		password    VARCHAR(255) NOT NULL,
		date_joined TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS systems (
		id          BIGSERIAL PRIMARY KEY,
		owner_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name        VARCHAR(100) NOT NULL,
		description TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT systems_owner_name_key UNIQUE (owner_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS sensors (
		id          BIGSERIAL PRIMARY KEY,
		system_id   BIGINT NOT NULL REFERENCES systems(id) ON DELETE CASCADE,
		sensor_type VARCHAR(11) NOT NULL CHECK (sensor_type IN ('ph', 'temperature', 'tds')),
		description VARCHAR(255)
	)`,
	`CREATE TABLE IF NOT EXISTS measurements (
		id          BIGSERIAL PRIMARY KEY,
		sensor_id   BIGINT NOT NULL REFERENCES sensors(id) ON DELETE CASCADE,
		value       NUMERIC(5, 2) NOT NULL,
		measured_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS sensors_system_id_idx ON sensors (system_id)`,
	`CREATE INDEX IF NOT EXISTS measurements_sensor_measured_at_idx ON measurements (sensor_id, measured_at)`,
}
