// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// store_test.go provides the shared database helpers for the store tests.
// Every test runs against a fresh SQLite file; when a PostgreSQL server is
// reachable the same test also runs against it.
package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"promptvault/internal/database"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testPostgresDSN returns the PostgreSQL connection string for testing.
func testPostgresDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "promptvault")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "promptvault")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable&connect_timeout=2"
}

// testSQLiteDB opens a migrated SQLite database in a temp dir.
func testSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.Connect(database.DriverSQLite,
		database.SQLiteDSN(filepath.Join(t.TempDir(), "store.db")))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, database.DriverSQLite))

	t.Cleanup(func() { db.Close() })
	return db
}

// testPostgresDB opens the test PostgreSQL database, or returns nil if it
// is unavailable. The prompts table is emptied before and after use.
func testPostgresDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.Connect(database.DriverPostgres, testPostgresDSN())
	if err != nil {
		return nil
	}
	if err := database.Migrate(db, database.DriverPostgres); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	cleanPrompts(t, db)
	t.Cleanup(func() {
		cleanPrompts(t, db)
		db.Close()
	})
	return db
}

// cleanPrompts removes every prompt.
func cleanPrompts(t *testing.T, db *sqlx.DB) {
	t.Helper()
	db.Exec("DELETE FROM prompts")
}

// eachEngine runs fn against SQLite and, when reachable, PostgreSQL.
func eachEngine(t *testing.T, fn func(t *testing.T, s *PromptStore)) {
	t.Helper()

	t.Run("sqlite", func(t *testing.T) {
		fn(t, NewPromptStore(testSQLiteDB(t)))
	})
	t.Run("postgres", func(t *testing.T) {
		db := testPostgresDB(t)
		if db == nil {
			t.Skip("skipping integration test: PostgreSQL not reachable")
		}
		fn(t, NewPromptStore(db))
	})
}
