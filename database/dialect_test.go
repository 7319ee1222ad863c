package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"postgres", "postgresql", "pgx"} {
		d, err := ByName(name)
		require.NoError(t, err)
		assert.Equal(t, "postgres", d.Name())
	}
	for _, name := range []string{"sqlite", "sqlite3"} {
		d, err := ByName(name)
		require.NoError(t, err)
		assert.Equal(t, "sqlite", d.Name())
	}

	_, err := ByName("oracle")
	require.Error(t, err)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$1", Postgres.Placeholder(1))
	assert.Equal(t, "$3", Postgres.Placeholder(3))
	assert.Equal(t, "?", SQLite.Placeholder(1))
	assert.Equal(t, "?", SQLite.Placeholder(3))
}

func TestColumnTypeMapping(t *testing.T) {
	assert.Equal(t, "BYTEA", Postgres.ColumnType("BLOB"))
	assert.Equal(t, "UUID", Postgres.ColumnType("UUID"))
	assert.Equal(t, "TEXT", SQLite.ColumnType("UUID"))
	assert.Equal(t, "REAL", SQLite.ColumnType("DOUBLE PRECISION"))
	assert.Equal(t, "INTEGER", SQLite.ColumnType("SERIAL"))
	assert.Equal(t, "VARCHAR(50)", SQLite.ColumnType("VARCHAR(50)"))
}

func TestLimitRendering(t *testing.T) {
	assert.Equal(t, "", Postgres.Limit(-1, 0))
	assert.Equal(t, " LIMIT 5", Postgres.Limit(5, 0))
	assert.Equal(t, " LIMIT 5 OFFSET 10", Postgres.Limit(5, 10))
	assert.Equal(t, " OFFSET 10", Postgres.Limit(-1, 10))

	// sqlite requires a LIMIT clause to use OFFSET
	assert.Equal(t, " LIMIT -1 OFFSET 10", SQLite.Limit(-1, 10))
	assert.Equal(t, " LIMIT 5 OFFSET 10", SQLite.Limit(5, 10))
	assert.Equal(t, "", SQLite.Limit(-1, 0))
}

func TestExtractRendering(t *testing.T) {
	assert.Equal(t, `EXTRACT(YEAR FROM "created_at")`, Postgres.Extract("year", `"created_at"`))
	assert.Equal(t, `EXTRACT(DOW FROM "created_at")`, Postgres.Extract("week_day", `"created_at"`))
	assert.Equal(t, `CAST(strftime('%Y', "created_at") AS INTEGER)`, SQLite.Extract("year", `"created_at"`))
	assert.Equal(t, `((CAST(strftime('%m', "created_at") AS INTEGER) + 2) / 3)`, SQLite.Extract("quarter", `"created_at"`))
}

func TestRegexpOperators(t *testing.T) {
	assert.Equal(t, "~", Postgres.Regexp(false))
	assert.Equal(t, "~*", Postgres.Regexp(true))
	assert.Equal(t, "REGEXP", SQLite.Regexp(false))
}
