// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package database handles connection management for the two supported
// engines (PostgreSQL via pgx, SQLite via modernc) and migration execution
// using goose. Connect returns a ready-to-use *sqlx.DB whose bind style
// matches the engine, and Migrate applies the embedded schema for it.
package database

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var embedMigrations embed.FS

// Driver names a supported database engine.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// ParseDriver validates a driver name from configuration.
func ParseDriver(name string) (Driver, error) {
	switch Driver(name) {
	case DriverPostgres, DriverSQLite:
		return Driver(name), nil
	}
	return "", fmt.Errorf("unsupported database driver %q (want postgres or sqlite)", name)
}

// sqlDriver returns the database/sql driver name registered for d.
func (d Driver) sqlDriver() string {
	if d == DriverPostgres {
		return "pgx"
	}
	return "sqlite"
}

// gooseDialect returns the goose dialect for d.
func (d Driver) gooseDialect() string {
	if d == DriverPostgres {
		return "postgres"
	}
	return "sqlite3"
}

// SQLiteDSN builds a modernc DSN for the given file path. Timestamps are
// written in SQLite's own format so DATETIME columns scan into time.Time.
func SQLiteDSN(path string) string {
	return path + "?_time_format=sqlite&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// Connect opens a connection pool for the driver and verifies it with a
// ping before returning.
func Connect(driver Driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver.sqlDriver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("database open: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}

	slog.Info("database connected", "driver", string(driver))
	return db, nil
}

// Migrate runs all pending goose migrations for the driver from the
// embedded SQL files.
func Migrate(db *sqlx.DB, driver Driver) error {
	goose.SetBaseFS(embedMigrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(driver.gooseDialect()); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}

	if err := goose.Up(db.DB, "migrations/"+string(driver)); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	slog.Info("database migrations applied", "driver", string(driver))
	return nil
}
