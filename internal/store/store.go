package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB holds the pgx connection pool shared by all fleet repositories.
type DB struct {
	pool *pgxpool.Pool
}

// New opens a connection pool against the given database URL and verifies it
// with a ping before handing it out.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close releases the pool and all of its connections.
func (db *DB) Close() {
	db.pool.Close()
}

// Ping reports whether the database is still reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Pool exposes the raw pool for the repository constructors.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}
