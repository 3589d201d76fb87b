// Package database provides the PostgreSQL-backed ent client used by every
// other package. Schema migrations are out of scope for this repository
// (see DESIGN.md Non-goals) — the ent schema definitions under ent/schema
// are the source of truth, and this package assumes the schema has already
// been applied out-of-band (ent's own `migrate` tooling, or a deploy-time
// migration job). What remains, adapted from the teacher's
// pkg/database/client.go, is connection-pool construction, health checks,
// and the GIN full-text-search index bootstrap.
package database

import (
	"context"
	stdsql "database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx driver for database/sql
	"github.com/reflector-core/reflector/ent"
)

// Client wraps the generated ent client and exposes the underlying
// database/sql handle for health checks and raw SQL (GIN index creation).
type Client struct {
	*ent.Client
	db  *stdsql.DB
	drv *entsql.Driver
}

// DB returns the underlying *sql.DB for health checks and direct queries.
func (c *Client) DB() *stdsql.DB {
	return c.db
}

// Driver returns the ent dialect/sql driver backing this client, for
// callers that need raw SQL not expressible in the ent schema DSL (see
// EnsureSearchIndexes).
func (c *Client) Driver() *entsql.Driver {
	return c.drv
}

// NewClientFromEnt wraps an existing ent client, useful for tests that
// construct their own client against a testcontainers-backed Postgres.
func NewClientFromEnt(entClient *ent.Client, db *stdsql.DB) *Client {
	return &Client{Client: entClient, db: db}
}

// NewClient opens a pooled connection to Postgres and wraps it in an ent
// client. It does not run migrations; callers that need the GIN search
// indexes bootstrapped call EnsureSearchIndexes explicitly once the schema
// is known to be up to date.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := stdsql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	drv := entsql.OpenDB(dialect.Postgres, db)
	entClient := ent.NewClient(ent.Driver(drv))

	return &Client{Client: entClient, db: db, drv: drv}, nil
}
