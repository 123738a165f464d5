// Package testdb provides helpers for tests that need a real PostgreSQL
// database. Tests using it skip automatically when no database URL is
// configured, so the default test run has no external dependencies.
package testdb

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// envVars are checked in order for the test database connection string.
var envVars = []string{"DATABASE_URL", "NASK_TEST_DB_URL"}

// schema mirrors the tasks table created by the server's migrations.
const schema = `
CREATE TABLE IF NOT EXISTS tasks (
    seq            BIGSERIAL PRIMARY KEY,
    id             TEXT        NOT NULL UNIQUE,
    type           TEXT        NOT NULL,
    payload_input  BIGINT      NOT NULL,
    status         TEXT        NOT NULL,
    result         JSONB,
    notify_url     TEXT        NOT NULL,
    queue_position INTEGER     NOT NULL DEFAULT 0,
    percent_done   INTEGER     NOT NULL DEFAULT 0,
    created_at     TIMESTAMPTZ NOT NULL,
    updated_at     TIMESTAMPTZ NOT NULL
)`

// URL returns the configured test database URL, or an empty string.
func URL() string {
	for _, name := range envVars {
		if url := os.Getenv(name); url != "" {
			return url
		}
	}
	return ""
}

// Get opens a connection to the test database, ensures the schema exists,
// and truncates the tasks table so the test starts clean. The test is
// skipped when no database URL is configured.
func Get(t *testing.T) *sql.DB {
	t.Helper()

	url := URL()
	if url == "" {
		t.Skip("DATABASE_URL or NASK_TEST_DB_URL not set - skipping database test")
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("failed to ping test database: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		t.Fatalf("failed to ensure tasks schema: %v", err)
	}
	if _, err := db.ExecContext(ctx, `TRUNCATE tasks`); err != nil {
		t.Fatalf("failed to truncate tasks table: %v", err)
	}

	return db
}
