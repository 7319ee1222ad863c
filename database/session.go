package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Session is one transactional unit of work. The discipline is scoped
// acquisition: open, use, commit or roll back, close, on every exit path.
type Session struct {
	tx   *sql.Tx
	done bool
}

// Begin opens a new session.
func (c *Context) Begin(ctx context.Context) (*Session, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin session: %w", err)
	}
	return &Session{tx: tx}, nil
}

// Exec runs a statement inside the session.
func (s *Session) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.tx.ExecContext(ctx, query, args...)
}

// Query runs a query inside the session. Callers close the rows.
func (s *Session) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.tx.QueryContext(ctx, query, args...)
}

// QueryRow runs a single-row query inside the session.
func (s *Session) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.tx.QueryRowContext(ctx, query, args...)
}

// Commit finalizes the session's work.
func (s *Session) Commit() error {
	s.done = true
	return s.tx.Commit()
}

// Rollback discards the session's work.
func (s *Session) Rollback() error {
	s.done = true
	return s.tx.Rollback()
}

// Close rolls back when neither Commit nor Rollback ran; safe to defer.
func (s *Session) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	return s.tx.Rollback()
}

// WithSession runs fn inside a session, committing on success and rolling
// back on error or panic.
func WithSession(ctx context.Context, c *Context, fn func(*Session) error) error {
	s, err := c.Begin(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := fn(s); err != nil {
		return err
	}
	return s.Commit()
}
