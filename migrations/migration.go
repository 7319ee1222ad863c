package migrations

import (
	"context"
	"fmt"

	"github.com/ormkit/ormkit/database"
)

// Migration is a named, ordered list of operations scoped to one app label.
// Dependencies name migrations (as "app/name") that must be applied first;
// the loader returns files in lexicographic order and callers are expected
// to number files so that order satisfies the dependencies.
type Migration struct {
	App          string
	Name         string
	Dependencies []string
	Operations   []Operation
}

// Key identifies the migration in the ledger.
func (m *Migration) Key() string {
	return m.App + "/" + m.Name
}

// Apply runs every operation's Forward in order, stopping at the first
// failure. Operations already executed in this migration are not rolled
// back; a failed migration requires manual inspection.
func (m *Migration) Apply(ctx context.Context, c *database.Context) error {
	for _, op := range m.Operations {
		if err := op.Forward(ctx, c); err != nil {
			return fmt.Errorf("%s: %s: %w", m.Key(), op.Describe(), err)
		}
	}
	return nil
}

// Unapply runs every operation's Reverse in strictly reverse order,
// stopping at the first failure.
func (m *Migration) Unapply(ctx context.Context, c *database.Context) error {
	for i := len(m.Operations) - 1; i >= 0; i-- {
		op := m.Operations[i]
		if err := op.Reverse(ctx, c); err != nil {
			return fmt.Errorf("%s: %s: %w", m.Key(), op.Describe(), err)
		}
	}
	return nil
}
