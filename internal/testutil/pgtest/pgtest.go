// Package pgtest provides a migrated PostgreSQL database for integration tests.
package pgtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/wonny/tradelens/backend/pkg/config"
	"github.com/wonny/tradelens/backend/pkg/database"
)

// NewDB returns a migrated database. DATABASE_URL is used when set;
// otherwise a disposable postgres container is started. The test is
// skipped in -short mode or when no container runtime is available.
func NewDB(t *testing.T) *database.DB {
	t.Helper()

	ctx := context.Background()
	dsn := os.Getenv("DATABASE_URL")

	if dsn == "" {
		if testing.Short() {
			t.Skip("skipping postgres integration test in short mode")
		}

		container, err := postgres.Run(ctx, "postgres:15-alpine",
			postgres.WithDatabase("tradelens"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			t.Skipf("postgres container unavailable: %v", err)
		}
		t.Cleanup(func() {
			if err := container.Terminate(ctx); err != nil {
				t.Logf("failed to terminate container: %v", err)
			}
		})

		dsn, err = container.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err, "failed to get connection string")
	}

	db, err := database.New(ctx, config.DatabaseConfig{URL: dsn, MaxConns: 4})
	require.NoError(t, err, "failed to connect")
	t.Cleanup(db.Close)

	_, err = db.Migrate(ctx)
	require.NoError(t, err, "failed to migrate")

	Truncate(t, db)
	return db
}

// Truncate empties every application table
func Truncate(t *testing.T, db *database.DB) {
	t.Helper()

	_, err := db.Pool.Exec(context.Background(), `
		TRUNCATE analytics.setup_attributions, analytics.performance_reports,
			journal.trades, journal.setups RESTART IDENTITY CASCADE
	`)
	require.NoError(t, err, "failed to truncate tables")
}
