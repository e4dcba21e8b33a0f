// Package testdb provides database helpers for integration tests. Tests
// that need a real database skip themselves unless a test database URL is
// configured.
package testdb

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"

	"github.com/tasktrack/tasktrack-api/migrations"
)

// urlEnvVars are checked in order for the test database URL.
var urlEnvVars = []string{"TASKTRACK_TEST_DATABASE_URL", "DATABASE_URL"}

// URL returns the configured test database URL, or "" when none is set.
func URL() string {
	for _, name := range urlEnvVars {
		if url := os.Getenv(name); url != "" {
			return url
		}
	}
	return ""
}

// MustOpen opens the test database and applies migrations, skipping the
// test when no test database is configured. The connection is closed when
// the test finishes.
func MustOpen(t *testing.T) *sql.DB {
	t.Helper()

	url := URL()
	if url == "" {
		t.Skip("no test database configured, set TASKTRACK_TEST_DATABASE_URL to run")
	}

	db, err := sql.Open("pgx", url)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	ctx := context.Background()
	require.NoError(t, db.PingContext(ctx))
	require.NoError(t, migrations.Up(ctx, db))

	return db
}

// Reset truncates all application tables so a test starts from a clean
// database.
func Reset(t *testing.T, db *sql.DB) {
	t.Helper()

	_, err := db.Exec(`TRUNCATE delivery_queue, idempotency, tasks, profiles CASCADE`)
	require.NoError(t, err)
}
