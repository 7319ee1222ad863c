package database

import (
	"context"
	"fmt"
)

// Column is one introspected table column.
type Column struct {
	Name       string
	DataType   string
	Nullable   bool
	Default    *string
	PrimaryKey bool
}

// Tables lists the user tables present in the connected database.
func (c *Context) Tables(ctx context.Context) ([]string, error) {
	var query string
	switch c.dialect.Name() {
	case "postgres":
		query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name`
	default:
		query = `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`
	}

	rows, err := c.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// TableExists reports whether the named table exists.
func (c *Context) TableExists(ctx context.Context, table string) (bool, error) {
	names, err := c.Tables(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == table {
			return true, nil
		}
	}
	return false, nil
}

// Columns introspects the named table's columns.
func (c *Context) Columns(ctx context.Context, table string) ([]Column, error) {
	if c.dialect.Name() == "postgres" {
		return c.postgresColumns(ctx, table)
	}
	return c.sqliteColumns(ctx, table)
}

func (c *Context) postgresColumns(ctx context.Context, table string) ([]Column, error) {
	query := `
	SELECT
		c.column_name,
		c.data_type,
		(c.is_nullable = 'YES') AS is_nullable,
		c.column_default,
		COALESCE(tc.constraint_type = 'PRIMARY KEY', false) AS is_primary
	FROM information_schema.columns c
	LEFT JOIN information_schema.key_column_usage kcu
		ON kcu.table_name = c.table_name AND kcu.column_name = c.column_name
	LEFT JOIN information_schema.table_constraints tc
		ON tc.constraint_name = kcu.constraint_name
		AND tc.constraint_type = 'PRIMARY KEY'
	WHERE c.table_schema = 'public' AND c.table_name = $1
	ORDER BY c.ordinal_position`

	rows, err := c.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("querying columns for %s: %w", table, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.DataType, &col.Nullable, &col.Default, &col.PrimaryKey); err != nil {
			return nil, fmt.Errorf("scanning column for %s: %w", table, err)
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (c *Context) sqliteColumns(ctx context.Context, table string) ([]Column, error) {
	rows, err := c.Query(ctx, fmt.Sprintf("PRAGMA table_info(%s)", c.dialect.Quote(table)))
	if err != nil {
		return nil, fmt.Errorf("querying columns for %s: %w", table, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			cid     int
			notNull int
			pk      int
			col     Column
		)
		if err := rows.Scan(&cid, &col.Name, &col.DataType, &notNull, &col.Default, &pk); err != nil {
			return nil, fmt.Errorf("scanning column for %s: %w", table, err)
		}
		col.Nullable = notNull == 0
		col.PrimaryKey = pk > 0
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// IndexExists reports whether the named index exists.
func (c *Context) IndexExists(ctx context.Context, name string) (bool, error) {
	var query string
	switch c.dialect.Name() {
	case "postgres":
		query = `SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = $1)`
	default:
		query = `SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'index' AND name = ?)`
	}
	var exists bool
	if err := c.QueryRow(ctx, query, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking index %s: %w", name, err)
	}
	return exists, nil
}
