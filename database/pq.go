package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Storage defines the interface that all database implementations must satisfy
type Storage interface {
	// Lifecycle methods
	Init() error
	Close() error
	HealthCheck(ctx context.Context) error

	DB() *gorm.DB
}

var _ Storage = (*GORMStore)(nil)

// EnsureDatabase connects to the maintenance database with lib/pq and creates
// name when it does not exist yet. It returns true when the database was created.
func EnsureDatabase(ctx context.Context, maintenanceDSN, name string) (bool, error) {
	if name == "" {
		return false, fmt.Errorf("ensure database: empty database name")
	}

	db, err := sql.Open("postgres", maintenanceDSN)
	if err != nil {
		return false, fmt.Errorf("ensure database: open: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return false, fmt.Errorf("ensure database: ping: %w", err)
	}

	var exists bool
	err = db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ensure database: lookup %q: %w", name, err)
	}
	if exists {
		return false, nil
	}

	// CREATE DATABASE cannot take bind parameters
	if _, err := db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name)); err != nil {
		var pqErr *pq.Error
		// 42P04 duplicate_database: another process won the race
		if errors.As(err, &pqErr) && pqErr.Code == "42P04" {
			return false, nil
		}
		return false, fmt.Errorf("ensure database: create %q: %w", name, err)
	}

	log.Infof("Created database %q", name)
	return true, nil
}
