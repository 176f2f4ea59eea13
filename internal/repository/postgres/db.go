package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/sync/semaphore"

	"github.com/andresuchdata/salesflow-analytics/internal/config"
)

const defaultMaxConcurrent = 10

type DB struct {
	*sqlx.DB
	sem *semaphore.Weighted
}

// DSN renders the lib/pq keyword connection string.
func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// NewDB opens a connection pool and bounds concurrent queries to
// cfg.MaxConns.
func NewDB(cfg config.DatabaseConfig) (*DB, error) {
	db, err := sqlx.Connect("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect ledger database: %w", err)
	}

	limit := cfg.MaxConns
	if limit <= 0 {
		limit = defaultMaxConcurrent
	}
	db.SetMaxOpenConns(limit)
	db.SetMaxIdleConns(min(limit, 5))
	db.SetConnMaxLifetime(5 * time.Minute)

	return Wrap(db, limit), nil
}

// Wrap adopts an existing pool.
func Wrap(db *sqlx.DB, maxConcurrent int) *DB {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &DB{DB: db, sem: semaphore.NewWeighted(int64(maxConcurrent))}
}

// withSlot runs fn while holding one of the concurrency slots.
func (db *DB) withSlot(ctx context.Context, fn func() error) error {
	if err := db.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("could not acquire semaphore: %w", err)
	}
	defer db.sem.Release(1)
	return fn()
}
