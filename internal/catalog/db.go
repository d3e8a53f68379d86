package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Open connects to the catalog database and verifies the connection.
// Drivers are registered by the importing binary (lib/pq, go-sqlite3).
func Open(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog database: %w", err)
	}

	return db, nil
}

// Schema is the catalog table DDL, portable across Postgres and SQLite.
const Schema = `
CREATE TABLE IF NOT EXISTS catalog_entries (
	id          INTEGER PRIMARY KEY,
	make        TEXT NOT NULL,
	model       TEXT NOT NULL,
	year        INTEGER NOT NULL,
	price       REAL,
	currency    TEXT NOT NULL DEFAULT 'AED',
	rating      REAL NOT NULL DEFAULT 0,
	reviews     INTEGER NOT NULL DEFAULT 0,
	specs       TEXT,
	engines     TEXT,
	statistics  TEXT,
	provenance  TEXT,
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_catalog_make_model ON catalog_entries (make, model);
CREATE INDEX IF NOT EXISTS idx_catalog_year ON catalog_entries (year);
CREATE INDEX IF NOT EXISTS idx_catalog_price ON catalog_entries (price);
`

// EnsureSchema creates the catalog table if it does not exist.
func EnsureSchema(ctx context.Context, db DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure catalog schema: %w", err)
	}
	return nil
}
