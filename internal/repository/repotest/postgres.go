// Package repotest provides in-memory repositories and a Postgres fixture for tests.
package repotest

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trailbliss/trailbliss-api/internal/migrations"
)

// Pool connects to TEST_DATABASE_URL, migrates it and empties every table.
// The test is skipped when the variable is unset.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Fatalf("connecting to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrations.Run(pool); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	const truncate = `TRUNCATE accounts, spots, guide_profiles, bookings, feedback RESTART IDENTITY`
	if _, err := pool.Exec(context.Background(), truncate); err != nil {
		t.Fatalf("truncating tables: %v", err)
	}
	return pool
}
