// Package docstore provides a partitioned document store backed by
// PostgreSQL. Records are stored as JSONB documents addressed by an
// (id, partition key) pair, mirroring the addressing model of hosted
// document databases.
package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Common errors for document store operations.
var (
	ErrNilItem           = errors.New("item must not be nil")
	ErrEmptyID           = errors.New("id must not be empty")
	ErrEmptyPartitionKey = errors.New("partition key must not be empty")
	ErrEmptyQuery        = errors.New("query must not be empty")
	ErrConflict          = errors.New("document already exists")
)

// Document is implemented by payload types stored in a collection.
// ID derives the document identity from the payload; String renders the
// payload for span attributes.
type Document interface {
	ID() string
	fmt.Stringer
}

// Store wraps a PostgreSQL connection pool for document collections.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new Store with a connection pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Pool returns the underlying connection pool.
// Use sparingly - prefer going through a Collection.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}
