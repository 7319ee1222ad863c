package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDatabaseSharedAcrossPool(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	require.NoError(t, CreateTables(ctx, c, testSchemas(t)))

	// Hold a session open so further work is forced onto other pooled
	// connections; they must still see the same in-memory database.
	s, err := c.Begin(ctx)
	require.NoError(t, err)
	defer s.Close()

	var n int
	require.NoError(t, c.QueryRow(ctx, "SELECT COUNT(*) FROM products").Scan(&n))
	assert.Equal(t, 0, n)

	var m int
	require.NoError(t, s.QueryRow(ctx, "SELECT COUNT(*) FROM tags").Scan(&m))
	assert.Equal(t, 0, m)
}

func TestMemoryDatabasesIsolatedPerOpen(t *testing.T) {
	ctx := context.Background()

	a := openTest(t)
	require.NoError(t, CreateTables(ctx, a, testSchemas(t)))

	b := openTest(t)
	tables, err := b.Tables(ctx)
	require.NoError(t, err)
	assert.NotContains(t, tables, "products")
}

func TestRegexpFunction(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	cases := []struct {
		expr string
		want int
	}{
		{"'Widget' REGEXP '^Wid'", 1},
		{"'Widget' REGEXP '^wid'", 0},
		{"'Widget' REGEXP '(?i)^wid'", 1},
	}
	for _, tc := range cases {
		var got int
		require.NoError(t, c.QueryRow(ctx, "SELECT "+tc.expr).Scan(&got), tc.expr)
		assert.Equal(t, tc.want, got, tc.expr)
	}

	var null *int
	require.NoError(t, c.QueryRow(ctx, "SELECT NULL REGEXP '^Wid'").Scan(&null))
	assert.Nil(t, null)

	err := c.QueryRow(ctx, "SELECT 'Widget' REGEXP '['").Scan(new(int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid regexp")
}
