package migrations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormkit/ormkit/schema"
)

func testMigrations() []*Migration {
	return []*Migration{
		{
			App:        "shop",
			Name:       "0001_initial",
			Operations: []Operation{widgetsTable()},
		},
		{
			App:          "shop",
			Name:         "0002_add_notes",
			Dependencies: []string{"shop/0001_initial"},
			Operations: []Operation{
				AddColumn{Table: "widgets", Column: ColumnDef{Name: "notes", Type: "TEXT", Nullable: true}},
			},
		},
	}
}

func TestApplyRunsPendingInOrder(t *testing.T) {
	c := testContext(t)
	ctx := context.Background()

	ran, err := Apply(ctx, c, testMigrations())
	require.NoError(t, err)
	require.Len(t, ran, 2)
	assert.Equal(t, "shop/0001_initial", ran[0].Key())
	assert.Equal(t, "shop/0002_add_notes", ran[1].Key())

	exists, err := c.TableExists(ctx, "widgets")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = c.TableExists(ctx, schema.LedgerTable)
	require.NoError(t, err)
	assert.True(t, exists)

	cols, err := c.Columns(ctx, "widgets")
	require.NoError(t, err)
	assert.Len(t, cols, 4)
}

func TestApplyIsIdempotent(t *testing.T) {
	c := testContext(t)
	ctx := context.Background()
	ms := testMigrations()

	_, err := Apply(ctx, c, ms)
	require.NoError(t, err)

	ran, err := Apply(ctx, c, ms)
	require.NoError(t, err)
	assert.Empty(t, ran)
}

func TestApplyStopsOnFirstFailure(t *testing.T) {
	c := testContext(t)
	ctx := context.Background()

	ms := []*Migration{
		testMigrations()[0],
		{
			App:  "shop",
			Name: "0002_broken",
			Operations: []Operation{
				AddColumn{Table: "no_such_table", Column: ColumnDef{Name: "x", Type: "TEXT", Nullable: true}},
			},
		},
	}

	ran, err := Apply(ctx, c, ms)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shop/0002_broken")
	require.Len(t, ran, 1)

	// only the successful migration is in the ledger, so a fixed retry
	// picks up where it stopped
	applied, err := NewRecorder(c).AppliedSet(ctx)
	require.NoError(t, err)
	assert.True(t, applied["shop/0001_initial"])
	assert.False(t, applied["shop/0002_broken"])
}

func TestUnapplyReversesInReverseOrder(t *testing.T) {
	c := testContext(t)
	ctx := context.Background()
	ms := testMigrations()

	_, err := Apply(ctx, c, ms)
	require.NoError(t, err)

	ran, err := Unapply(ctx, c, ms)
	require.NoError(t, err)
	require.Len(t, ran, 2)
	assert.Equal(t, "shop/0002_add_notes", ran[0].Key())
	assert.Equal(t, "shop/0001_initial", ran[1].Key())

	exists, err := c.TableExists(ctx, "widgets")
	require.NoError(t, err)
	assert.False(t, exists)

	applied, err := NewRecorder(c).AppliedSet(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestUnapplySkipsUnapplied(t *testing.T) {
	c := testContext(t)
	ctx := context.Background()
	ms := testMigrations()

	_, err := Apply(ctx, c, ms[:1])
	require.NoError(t, err)

	ran, err := Unapply(ctx, c, ms)
	require.NoError(t, err)
	require.Len(t, ran, 1)
	assert.Equal(t, "shop/0001_initial", ran[0].Key())
}

func TestUnapplyIrreversibleKeepsRecord(t *testing.T) {
	c := testContext(t)
	ctx := context.Background()

	ms := []*Migration{
		{
			App:  "shop",
			Name: "0001_initial",
			Operations: []Operation{
				widgetsTable(),
				DropColumn{Table: "widgets", Name: "price"},
			},
		},
	}
	_, err := Apply(ctx, c, ms)
	require.NoError(t, err)

	_, err = Unapply(ctx, c, ms)
	assert.ErrorIs(t, err, ErrIrreversible)

	applied, err := NewRecorder(c).AppliedSet(ctx)
	require.NoError(t, err)
	assert.True(t, applied["shop/0001_initial"])
}

func TestRecorderTracksHistory(t *testing.T) {
	c := testContext(t)
	ctx := context.Background()
	rec := NewRecorder(c)

	require.NoError(t, rec.RecordApplied(ctx, "shop", "0001_initial"))
	require.NoError(t, rec.RecordApplied(ctx, "crm", "0001_initial"))

	records, err := rec.Applied(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "shop", records[0].App)
	assert.Equal(t, "crm", records[1].App)
	assert.False(t, records[0].AppliedAt.IsZero())

	require.NoError(t, rec.RecordUnapplied(ctx, "shop", "0001_initial"))
	set, err := rec.AppliedSet(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"crm/0001_initial": true}, set)
}
