package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite driver for local development

	"github.com/arasverel/tgpanel/pkg/observability"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// Config holds database connection configuration
type Config struct {
	Driver   string
	URL      string
	MaxConns int
	MinConns int
	Timeout  time.Duration
}

// Store provides access to all panel persistence
type Store struct {
	db     *sql.DB
	driver string
	logger *observability.Logger
}

// Open connects to the database, configures the pool, and ensures the schema
func Open(ctx context.Context, cfg Config, logger *observability.Logger) (*Store, error) {
	db, err := sql.Open(cfg.Driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := New(db, cfg.Driver, logger)
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return s, nil
}

// New wraps an existing database handle (used by tests with sqlmock)
func New(db *sql.DB, driver string, logger *observability.Logger) *Store {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Store{db: db, driver: driver, logger: logger}
}

// DB exposes the underlying handle for health checks
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// notFound maps sql.ErrNoRows to the package sentinel
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
