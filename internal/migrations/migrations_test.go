package migrations_test

import (
	"context"
	"testing"

	"github.com/trailbliss/trailbliss-api/internal/migrations"
	"github.com/trailbliss/trailbliss-api/internal/repository/repotest"
)

func TestMigrations(t *testing.T) {
	pool := repotest.Pool(t)

	want := []string{"accounts", "spots", "guide_profiles", "bookings", "feedback"}
	for _, table := range want {
		var name *string
		err := pool.QueryRow(context.Background(), "SELECT to_regclass($1)::text", table).Scan(&name)
		if err != nil || name == nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	pool := repotest.Pool(t)

	if err := migrations.Run(pool); err != nil {
		t.Fatalf("second run (should be no-op): %v", err)
	}
}
