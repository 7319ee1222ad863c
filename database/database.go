// Package database provides the connection context, transactional sessions,
// SQL dialects, schema bootstrap, and table introspection for the ormkit
// core. The ORM never owns connection lifecycle policy: a Context is built
// once at process start and passed to every component that needs it.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/ormkit/ormkit/utils"
)

// Context holds one database handle plus its dialect. It replaces the usual
// module-global engine singleton: construct it once, inject it everywhere,
// and call Close on shutdown.
type Context struct {
	db      *sql.DB
	dialect Dialect
	log     *slog.Logger
}

// Open connects to the database named by driver ("postgres" or "sqlite")
// and dsn and verifies the connection.
func Open(driver, dsn string) (*Context, error) {
	dialect, err := ByName(driver)
	if err != nil {
		return nil, err
	}

	driverName := "pgx"
	if dialect == SQLite {
		driverName = "sqlite"
		registerRegexp()
		if isMemoryDSN(dsn) {
			dsn = memoryDSN()
		}
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	c := &Context{db: db, dialect: dialect, log: slog.Default()}
	c.log.Debug("database opened", "dialect", dialect.Name())
	return c, nil
}

// OpenFromEnv loads .env if present and connects using DATABASE_URL. The URL
// scheme selects the backend: postgres://... or sqlite://path.
func OpenFromEnv() (*Context, error) {
	utils.LoadEnv()
	raw, err := utils.DatabaseURL()
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	switch {
	case strings.HasPrefix(u.Scheme, "postgres"):
		return Open("postgres", raw)
	case strings.HasPrefix(u.Scheme, "sqlite"):
		path := strings.TrimPrefix(raw, u.Scheme+"://")
		return Open("sqlite", path)
	}
	return nil, fmt.Errorf("database: unsupported DATABASE_URL scheme %q", u.Scheme)
}

// NewContext wraps an existing handle; used by tests and callers that manage
// their own sql.DB.
func NewContext(db *sql.DB, dialect Dialect) *Context {
	return &Context{db: db, dialect: dialect, log: slog.Default()}
}

// DB exposes the underlying handle.
func (c *Context) DB() *sql.DB { return c.db }

// Dialect returns the active SQL dialect.
func (c *Context) Dialect() Dialect { return c.dialect }

// Close releases the connection pool.
func (c *Context) Close() error {
	if c.db == nil {
		return nil
	}
	c.log.Debug("database closed", "dialect", c.dialect.Name())
	return c.db.Close()
}

// Exec runs a statement outside any session.
func (c *Context) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

// Query runs a query outside any session. Callers close the rows.
func (c *Context) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

// QueryRow runs a single-row query outside any session.
func (c *Context) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.db.QueryRowContext(ctx, query, args...)
}
