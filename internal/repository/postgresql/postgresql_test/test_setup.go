//go:build integration

package postgresql_test

import (
	"context"
	"fmt"
	"os"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/postgresql"
)

// TestDatabaseSetup holds a migrated database for repository tests.
type TestDatabaseSetup struct {
	DB        *database.DB
	container testcontainers.Container
}

// NewTestDatabase connects to TEST_DATABASE_URL when set, otherwise starts a
// throwaway PostgreSQL container. The schema is applied either way.
func NewTestDatabase(ctx context.Context) (*TestDatabaseSetup, error) {
	setup := &TestDatabaseSetup{}

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
			tcpostgres.WithDatabase("attendance_test"),
			tcpostgres.WithUsername("postgres"),
			tcpostgres.WithPassword("postgres"),
			tcpostgres.BasicWaitStrategies(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to start postgres container: %w", err)
		}
		setup.container = ctr

		dsn, err = ctr.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			setup.Close()
			return nil, fmt.Errorf("failed to get postgres connection string: %w", err)
		}
	}

	db, err := database.NewPostgreSQLDB(ctx, dsn)
	if err != nil {
		setup.Close()
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	setup.DB = db

	if err := postgresql.Migrate(ctx, db); err != nil {
		setup.Close()
		return nil, err
	}
	return setup, nil
}

// TruncateAllTables removes all rows between tests.
func (t *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	_, err := t.DB.Exec(ctx, `
		TRUNCATE TABLE
			attendance_corrections,
			attendance_events,
			attendance_records,
			attendance_policies,
			persons,
			identifier_sequences,
			tenants
		CASCADE
	`)
	return err
}

// Close releases the pool and the container, if one was started.
func (t *TestDatabaseSetup) Close() {
	if t.DB != nil {
		t.DB.Close()
	}
	if t.container != nil {
		_ = t.container.Terminate(context.Background())
	}
}
