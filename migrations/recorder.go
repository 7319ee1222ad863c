package migrations

import (
	"context"
	"fmt"
	"time"

	"github.com/ormkit/ormkit/database"
	"github.com/ormkit/ormkit/schema"
)

// Record is one row of the migration ledger. Presence of a row is the sole
// source of truth for "this migration is applied".
type Record struct {
	ID        int64
	App       string
	Name      string
	AppliedAt time.Time
}

// Recorder owns the ledger table, creating it on first use.
type Recorder struct {
	c *database.Context
}

func NewRecorder(c *database.Context) *Recorder {
	return &Recorder{c: c}
}

func (r *Recorder) ensure(ctx context.Context) error {
	d := r.c.Dialect()
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  %s %s,
  %s VARCHAR(255) NOT NULL,
  %s VARCHAR(255) NOT NULL,
  %s %s NOT NULL DEFAULT %s,
  UNIQUE (%s, %s)
)`,
		d.Quote(schema.LedgerTable),
		d.Quote("id"), d.AutoPK(),
		d.Quote("app_label"),
		d.Quote("name"),
		d.Quote("applied_at"), d.ColumnType("TIMESTAMP"), d.CurrentTimestamp(),
		d.Quote("app_label"), d.Quote("name"))
	if _, err := r.c.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("ensuring migration ledger: %w", err)
	}
	return nil
}

// RecordApplied inserts a ledger row for the migration.
func (r *Recorder) RecordApplied(ctx context.Context, app, name string) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}
	d := r.c.Dialect()
	stmt := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (%s, %s)",
		d.Quote(schema.LedgerTable), d.Quote("app_label"), d.Quote("name"),
		d.Placeholder(1), d.Placeholder(2))
	if _, err := r.c.Exec(ctx, stmt, app, name); err != nil {
		return fmt.Errorf("recording %s/%s: %w", app, name, err)
	}
	return nil
}

// RecordUnapplied removes the ledger row for the migration.
func (r *Recorder) RecordUnapplied(ctx context.Context, app, name string) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}
	d := r.c.Dialect()
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = %s AND %s = %s",
		d.Quote(schema.LedgerTable),
		d.Quote("app_label"), d.Placeholder(1),
		d.Quote("name"), d.Placeholder(2))
	if _, err := r.c.Exec(ctx, stmt, app, name); err != nil {
		return fmt.Errorf("unrecording %s/%s: %w", app, name, err)
	}
	return nil
}

// Applied returns every ledger row ordered by application time.
func (r *Recorder) Applied(ctx context.Context) ([]Record, error) {
	if err := r.ensure(ctx); err != nil {
		return nil, err
	}
	d := r.c.Dialect()
	query := fmt.Sprintf("SELECT %s, %s, %s, %s FROM %s ORDER BY %s, %s",
		d.Quote("id"), d.Quote("app_label"), d.Quote("name"), d.Quote("applied_at"),
		d.Quote(schema.LedgerTable), d.Quote("id"), d.Quote("applied_at"))

	rows, err := r.c.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("reading migration ledger: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var applied any
		if err := rows.Scan(&rec.ID, &rec.App, &rec.Name, &applied); err != nil {
			return nil, fmt.Errorf("scanning migration ledger: %w", err)
		}
		switch t := applied.(type) {
		case time.Time:
			rec.AppliedAt = t
		case string:
			rec.AppliedAt, _ = time.Parse("2006-01-02 15:04:05", t)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// AppliedSet returns the applied migrations keyed by "app/name".
func (r *Recorder) AppliedSet(ctx context.Context) (map[string]bool, error) {
	records, err := r.Applied(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(records))
	for _, rec := range records {
		set[rec.App+"/"+rec.Name] = true
	}
	return set, nil
}
