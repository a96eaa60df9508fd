// Package database opens the connection pool and carries transactions through context.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config holds database configuration settings.
type Config struct {
	Driver             string
	ConnectionString   string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// Connect opens the pool for cfg.Driver and pings it before returning.
// MySQL connections always scan DATETIME columns into time.Time.
func Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	dsn, err := DriverDSN(cfg.Driver, cfg.ConnectionString)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// DriverDSN returns the connection string database/sql expects for driver. A MySQL DSN may be
// given with or without the mysql:// prefix used by migrations.
func DriverDSN(driver, connectionString string) (string, error) {
	switch driver {
	case DriverPostgres:
		return connectionString, nil
	case DriverMySQL:
		cfg, err := mysql.ParseDSN(strings.TrimPrefix(connectionString, "mysql://"))
		if err != nil {
			return "", fmt.Errorf("invalid mysql connection string: %w", err)
		}
		cfg.ParseTime = true
		return cfg.FormatDSN(), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// MigrateURL returns the connection string in the URL form golang-migrate expects for driver.
func MigrateURL(driver, connectionString string) string {
	if driver == DriverMySQL && !strings.HasPrefix(connectionString, "mysql://") {
		return "mysql://" + connectionString
	}
	return connectionString
}
