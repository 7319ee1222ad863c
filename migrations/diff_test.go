package migrations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormkit/ormkit/database"
	"github.com/ormkit/ormkit/fields"
	"github.com/ormkit/ormkit/schema"
)

func TestDiffCreatesMissingTables(t *testing.T) {
	c := testContext(t)

	products := schema.MustNew("products",
		fields.Char("name", 50),
		fields.Decimal("price", 10, 2),
	)
	ops, err := Diff(context.Background(), c, []*schema.Schema{products})
	require.NoError(t, err)
	require.Len(t, ops, 1)

	ct, ok := ops[0].(CreateTable)
	require.True(t, ok)
	assert.Equal(t, "products", ct.Table)
	require.Len(t, ct.Columns, 3)
	assert.Equal(t, "id", ct.Columns[0].Name)
	assert.Equal(t, "SERIAL", ct.Columns[0].Type)
	assert.True(t, ct.Columns[0].PrimaryKey)
	assert.Equal(t, "NUMERIC(10,2)", ct.Columns[2].Type)
}

func TestDiffAddsAndDropsColumns(t *testing.T) {
	c := testContext(t)
	ctx := context.Background()

	v1 := schema.MustNew("products",
		fields.Char("name", 50),
		fields.Char("legacy_code", 20),
	)
	require.NoError(t, database.CreateTables(ctx, c, []*schema.Schema{v1}))

	v2 := schema.MustNew("products",
		fields.Char("name", 50),
		fields.Decimal("price", 10, 2, fields.Null()),
	)
	ops, err := Diff(ctx, c, []*schema.Schema{v2})
	require.NoError(t, err)
	require.Len(t, ops, 2)

	add, ok := ops[0].(AddColumn)
	require.True(t, ok)
	assert.Equal(t, "price", add.Column.Name)
	assert.True(t, add.Column.Nullable)

	drop, ok := ops[1].(DropColumn)
	require.True(t, ok)
	assert.Equal(t, "legacy_code", drop.Name)
}

func TestDiffDropsExtraTablesButNotLedger(t *testing.T) {
	c := testContext(t)
	ctx := context.Background()

	keep := schema.MustNew("products", fields.Char("name", 50))
	stale := schema.MustNew("orphans", fields.Char("name", 50))
	require.NoError(t, database.CreateTables(ctx, c, []*schema.Schema{keep, stale}))
	require.NoError(t, NewRecorder(c).RecordApplied(ctx, "shop", "0001_initial"))

	ops, err := Diff(ctx, c, []*schema.Schema{keep})
	require.NoError(t, err)
	require.Len(t, ops, 1)

	dt, ok := ops[0].(DropTable)
	require.True(t, ok)
	assert.Equal(t, "orphans", dt.Table)
}

func TestDiffCreatesJoinTables(t *testing.T) {
	c := testContext(t)

	tags := schema.MustNew("tags", fields.Char("name", 30))
	products := schema.MustNew("products",
		fields.Char("name", 50),
		fields.ManyToMany("tags", "tags"),
	)
	require.NoError(t, schema.ValidateAll([]*schema.Schema{products, tags}))

	ops, err := Diff(context.Background(), c, []*schema.Schema{products, tags})
	require.NoError(t, err)
	require.Len(t, ops, 3)

	var join *CreateTable
	for i := range ops {
		if ct, ok := ops[i].(CreateTable); ok && ct.Table == "products_tags" {
			join = &ct
		}
	}
	require.NotNil(t, join)
	require.Len(t, join.Columns, 3)
	assert.Equal(t, "products_id", join.Columns[1].Name)
	assert.Equal(t, "products", join.Columns[1].References)
	assert.Equal(t, "CASCADE", join.Columns[1].OnDelete)
	assert.Equal(t, "tags_id", join.Columns[2].Name)
}

func TestDiffOfAppliedSchemaIsEmpty(t *testing.T) {
	c := testContext(t)
	ctx := context.Background()

	products := schema.MustNew("products",
		fields.Char("name", 50),
		fields.Decimal("price", 10, 2),
	)
	require.NoError(t, database.CreateTables(ctx, c, []*schema.Schema{products}))

	ops, err := Diff(ctx, c, []*schema.Schema{products})
	require.NoError(t, err)
	assert.Empty(t, ops)
}
