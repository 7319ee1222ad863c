package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormkit/ormkit/fields"
	"github.com/ormkit/ormkit/schema"
)

func openTest(t *testing.T) *Context {
	t.Helper()
	c, err := Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func testSchemas(t *testing.T) []*schema.Schema {
	t.Helper()
	products, err := schema.New("products",
		fields.Char("name", 50, fields.Index()),
		fields.Decimal("price", 10, 2),
		fields.Boolean("in_stock", fields.Default(true)),
		fields.ManyToMany("tags", "tags"),
	)
	require.NoError(t, err)

	tags, err := schema.New("tags", fields.Char("name", 30, fields.Unique()))
	require.NoError(t, err)

	reviews, err := schema.New("reviews",
		fields.ForeignKey("product", "products", fields.Cascade),
		fields.SmallInteger("rating"),
		fields.Text("body", fields.Null()),
	)
	require.NoError(t, err)

	return []*schema.Schema{products, tags, reviews}
}

func TestCreateTables(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	require.NoError(t, CreateTables(ctx, c, testSchemas(t)))

	tables, err := c.Tables(ctx)
	require.NoError(t, err)
	assert.Contains(t, tables, "products")
	assert.Contains(t, tables, "tags")
	assert.Contains(t, tables, "reviews")
	assert.Contains(t, tables, "products_tags")

	cols, err := c.Columns(ctx, "products")
	require.NoError(t, err)
	byName := map[string]Column{}
	for _, col := range cols {
		byName[col.Name] = col
	}
	assert.True(t, byName["id"].PrimaryKey)
	assert.False(t, byName["name"].Nullable)
	require.NotNil(t, byName["in_stock"].Default)

	// the review body column allows NULL
	cols, err = c.Columns(ctx, "reviews")
	require.NoError(t, err)
	for _, col := range cols {
		if col.Name == "body" {
			assert.True(t, col.Nullable)
		}
	}

	exists, err := c.IndexExists(ctx, "idx_products_name")
	require.NoError(t, err)
	assert.True(t, exists)

	// bootstrap is idempotent
	require.NoError(t, CreateTables(ctx, c, testSchemas(t)))
}

func TestCreateTablesRejectsUnknownTarget(t *testing.T) {
	c := openTest(t)
	orphan := schema.MustNew("reviews", fields.ForeignKey("product", "products", fields.Cascade))
	err := CreateTables(context.Background(), c, []*schema.Schema{orphan})
	require.Error(t, err)
}

func TestDropTables(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()
	schemas := testSchemas(t)

	require.NoError(t, CreateTables(ctx, c, schemas))
	require.NoError(t, DropTables(ctx, c, schemas))

	exists, err := c.TableExists(ctx, "products")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSessionCommitAndRollback(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	_, err := c.Exec(ctx, `CREATE TABLE items (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT)`)
	require.NoError(t, err)

	s, err := c.Begin(ctx)
	require.NoError(t, err)
	_, err = s.Exec(ctx, `INSERT INTO items (name) VALUES (?)`, "kept")
	require.NoError(t, err)
	require.NoError(t, s.Commit())
	require.NoError(t, s.Close())

	s, err = c.Begin(ctx)
	require.NoError(t, err)
	_, err = s.Exec(ctx, `INSERT INTO items (name) VALUES (?)`, "discarded")
	require.NoError(t, err)
	require.NoError(t, s.Close()) // close without commit rolls back

	var n int
	require.NoError(t, c.QueryRow(ctx, `SELECT COUNT(*) FROM items`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestWithSession(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	_, err := c.Exec(ctx, `CREATE TABLE items (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT)`)
	require.NoError(t, err)

	err = WithSession(ctx, c, func(s *Session) error {
		_, err := s.Exec(ctx, `INSERT INTO items (name) VALUES (?)`, "a")
		return err
	})
	require.NoError(t, err)

	err = WithSession(ctx, c, func(s *Session) error {
		if _, err := s.Exec(ctx, `INSERT INTO items (name) VALUES (?)`, "b"); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	var n int
	require.NoError(t, c.QueryRow(ctx, `SELECT COUNT(*) FROM items`).Scan(&n))
	assert.Equal(t, 1, n)
}
