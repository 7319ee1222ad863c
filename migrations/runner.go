package migrations

import (
	"context"
	"log/slog"

	"github.com/ormkit/ormkit/database"
)

// Apply runs every not-yet-applied migration in the given order and records
// each in the ledger only after its forward pass succeeds. Migrations are
// expected to run single-writer; no cross-process lock is taken. Returns the
// migrations actually applied.
func Apply(ctx context.Context, c *database.Context, ms []*Migration) ([]*Migration, error) {
	rec := NewRecorder(c)
	applied, err := rec.AppliedSet(ctx)
	if err != nil {
		return nil, err
	}

	var ran []*Migration
	for _, m := range ms {
		if applied[m.Key()] {
			slog.Debug("migration already applied", "migration", m.Key())
			continue
		}
		if err := m.Apply(ctx, c); err != nil {
			return ran, err
		}
		if err := rec.RecordApplied(ctx, m.App, m.Name); err != nil {
			return ran, err
		}
		slog.Info("migration applied", "migration", m.Key(), "operations", len(m.Operations))
		ran = append(ran, m)
	}
	return ran, nil
}

// Unapply reverses applied migrations in strictly reverse order, removing
// each ledger record only after its reverse pass succeeds. Migrations not
// present in the ledger are skipped. Returns the migrations actually
// reversed.
func Unapply(ctx context.Context, c *database.Context, ms []*Migration) ([]*Migration, error) {
	rec := NewRecorder(c)
	applied, err := rec.AppliedSet(ctx)
	if err != nil {
		return nil, err
	}

	var ran []*Migration
	for i := len(ms) - 1; i >= 0; i-- {
		m := ms[i]
		if !applied[m.Key()] {
			slog.Debug("migration not applied, skipping", "migration", m.Key())
			continue
		}
		if err := m.Unapply(ctx, c); err != nil {
			return ran, err
		}
		if err := rec.RecordUnapplied(ctx, m.App, m.Name); err != nil {
			return ran, err
		}
		slog.Info("migration reversed", "migration", m.Key())
		ran = append(ran, m)
	}
	return ran, nil
}
