package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var schemaStatements = []string{
	`
	CREATE TABLE IF NOT EXISTS route_cache (
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		geometry TEXT NOT NULL,
		distance_meters DOUBLE PRECISION NOT NULL,
		duration_seconds DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (origin, destination)
	);
	`,
	`
	CREATE INDEX IF NOT EXISTS idx_route_cache_created_at
	ON route_cache(created_at);
	`,
}

// Initialize the Postgres schema used by the route cache.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Delete cache rows created before cutoff. Returns the number removed.
func PurgeRouteCache(ctx context.Context, db *sql.DB, cutoff string) (int64, error) {
	if db == nil {
		return 0, errors.New("purge route cache: DB is nil")
	}

	res, err := db.ExecContext(ctx, `DELETE FROM route_cache WHERE created_at < now() - $1::interval;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge route cache: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge route cache: rows affected: %w", err)
	}
	return n, nil
}
