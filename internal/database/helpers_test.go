package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// forEachDB runs fn against a migrated SQLite database and, when
// CINECK_POSTGRES_TESTS is set, against PostgreSQL in a container.
func forEachDB(t *testing.T, fn func(t *testing.T, db *DB)) {
	t.Run("sqlite", func(t *testing.T) {
		db := setupSQLiteDB(t)
		fn(t, db)
	})

	t.Run("postgres", func(t *testing.T) {
		if os.Getenv("CINECK_POSTGRES_TESTS") == "" {
			t.Skip("Skipping PostgreSQL tests: CINECK_POSTGRES_TESTS not set")
		}
		db := setupPostgresDB(t)
		fn(t, db)
	})
}

func setupSQLiteDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(Config{
		Type:       TypeSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func setupPostgresDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("cineck_test"),
		postgres.WithUsername("cineck_test"),
		postgres.WithPassword("cineck_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	db, err := NewDB(Config{
		Type:     TypePostgres,
		Host:     host,
		Port:     port.Int(),
		User:     "cineck_test",
		Password: "cineck_test_password",
		Name:     "cineck_test",
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}
