// Package migrations implements schema evolution: declarative operations
// with forward and reverse DDL, ordered migrations grouped by app label, a
// ledger recorder, a YAML loader/writer, and a schema differ that authors
// new migrations.
package migrations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ormkit/ormkit/database"
)

// ErrIrreversible marks operations whose reverse would need information the
// operation no longer carries (dropped data, prior column definitions).
var ErrIrreversible = errors.New("operation is not reversible")

// ColumnDef is a declarative column inside a migration operation. Type is
// the generic storage type; dialects map it at execution time.
type ColumnDef struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	PrimaryKey bool   `yaml:"primary_key,omitempty"`
	Nullable   bool   `yaml:"nullable,omitempty"`
	Unique     bool   `yaml:"unique,omitempty"`
	Default    any    `yaml:"default,omitempty"`
	References string `yaml:"references,omitempty"` // target table
	RefColumn  string `yaml:"ref_column,omitempty"`
	OnDelete   string `yaml:"on_delete,omitempty"`
}

func (c ColumnDef) ddl(d database.Dialect) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", d.Quote(c.Name), d.ColumnType(c.Type))
	if c.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
	} else if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	if c.Unique && !c.PrimaryKey {
		b.WriteString(" UNIQUE")
	}
	if c.Default != nil {
		fmt.Fprintf(&b, " DEFAULT %s", literal(c.Default))
	}
	if c.References != "" {
		ref := c.RefColumn
		if ref == "" {
			ref = "id"
		}
		fmt.Fprintf(&b, " REFERENCES %s(%s)", d.Quote(c.References), d.Quote(ref))
		if c.OnDelete != "" {
			fmt.Fprintf(&b, " ON DELETE %s", c.OnDelete)
		}
	}
	return b.String()
}

func literal(v any) string {
	switch n := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(n, "'", "''") + "'"
	case bool:
		if n {
			return "TRUE"
		}
		return "FALSE"
	}
	return fmt.Sprintf("%v", v)
}

// Operation is one reversible unit of DDL. Forward and Reverse issue their
// statements through the connection context and report errors unchanged.
type Operation interface {
	Forward(ctx context.Context, c *database.Context) error
	Reverse(ctx context.Context, c *database.Context) error
	Describe() string

	// kind is the YAML tag identifying the operation; it also seals the
	// interface to this package's variants.
	kind() string
}

// CreateTable creates a table with the given columns.
type CreateTable struct {
	Table   string      `yaml:"table"`
	Columns []ColumnDef `yaml:"columns"`
}

func (op CreateTable) Forward(ctx context.Context, c *database.Context) error {
	d := c.Dialect()
	cols := make([]string, len(op.Columns))
	for i, col := range op.Columns {
		cols[i] = col.ddl(d)
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (\n  %s\n)",
		d.Quote(op.Table), strings.Join(cols, ",\n  "))
	_, err := c.Exec(ctx, stmt)
	return err
}

func (op CreateTable) Reverse(ctx context.Context, c *database.Context) error {
	_, err := c.Exec(ctx, fmt.Sprintf("DROP TABLE %s", c.Dialect().Quote(op.Table)))
	return err
}

func (op CreateTable) Describe() string {
	return fmt.Sprintf("create table %s", op.Table)
}

// DropTable removes a table. Reversing would need the dropped definition
// and data, so it is irreversible.
type DropTable struct {
	Table string `yaml:"table"`
}

func (op DropTable) Forward(ctx context.Context, c *database.Context) error {
	_, err := c.Exec(ctx, fmt.Sprintf("DROP TABLE %s", c.Dialect().Quote(op.Table)))
	return err
}

func (op DropTable) Reverse(ctx context.Context, c *database.Context) error {
	return fmt.Errorf("drop table %s: %w", op.Table, ErrIrreversible)
}

func (op DropTable) Describe() string {
	return fmt.Sprintf("drop table %s", op.Table)
}

// AddColumn adds one column to an existing table.
type AddColumn struct {
	Table  string    `yaml:"table"`
	Column ColumnDef `yaml:"column"`
}

func (op AddColumn) Forward(ctx context.Context, c *database.Context) error {
	d := c.Dialect()
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s",
		d.Quote(op.Table), op.Column.ddl(d))
	_, err := c.Exec(ctx, stmt)
	return err
}

func (op AddColumn) Reverse(ctx context.Context, c *database.Context) error {
	d := c.Dialect()
	stmt := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s",
		d.Quote(op.Table), d.Quote(op.Column.Name))
	_, err := c.Exec(ctx, stmt)
	return err
}

func (op AddColumn) Describe() string {
	return fmt.Sprintf("add column %s.%s", op.Table, op.Column.Name)
}

// DropColumn removes a column and its data; irreversible.
type DropColumn struct {
	Table string `yaml:"table"`
	Name  string `yaml:"name"`
}

func (op DropColumn) Forward(ctx context.Context, c *database.Context) error {
	d := c.Dialect()
	stmt := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s",
		d.Quote(op.Table), d.Quote(op.Name))
	_, err := c.Exec(ctx, stmt)
	return err
}

func (op DropColumn) Reverse(ctx context.Context, c *database.Context) error {
	return fmt.Errorf("drop column %s.%s: %w", op.Table, op.Name, ErrIrreversible)
}

func (op DropColumn) Describe() string {
	return fmt.Sprintf("drop column %s.%s", op.Table, op.Name)
}

// AlterColumn changes a column's type and null constraint. It does not
// retain the previous definition, so it is irreversible. SQLite cannot
// alter column types in place.
type AlterColumn struct {
	Table  string    `yaml:"table"`
	Column ColumnDef `yaml:"column"`
}

func (op AlterColumn) Forward(ctx context.Context, c *database.Context) error {
	d := c.Dialect()
	if d.Name() != "postgres" {
		return fmt.Errorf("alter column %s.%s: %s does not support altering column types",
			op.Table, op.Column.Name, d.Name())
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s",
		d.Quote(op.Table), d.Quote(op.Column.Name), d.ColumnType(op.Column.Type))
	if _, err := c.Exec(ctx, stmt); err != nil {
		return err
	}
	nullability := "SET NOT NULL"
	if op.Column.Nullable {
		nullability = "DROP NOT NULL"
	}
	stmt = fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s",
		d.Quote(op.Table), d.Quote(op.Column.Name), nullability)
	_, err := c.Exec(ctx, stmt)
	return err
}

func (op AlterColumn) Reverse(ctx context.Context, c *database.Context) error {
	return fmt.Errorf("alter column %s.%s: %w", op.Table, op.Column.Name, ErrIrreversible)
}

func (op AlterColumn) Describe() string {
	return fmt.Sprintf("alter column %s.%s", op.Table, op.Column.Name)
}

// CreateIndex creates an index over one or more columns.
type CreateIndex struct {
	Table   string   `yaml:"table"`
	Columns []string `yaml:"columns"`
	Name    string   `yaml:"index_name,omitempty"`
	Unique  bool     `yaml:"unique,omitempty"`
}

func (op CreateIndex) indexName() string {
	if op.Name != "" {
		return op.Name
	}
	return fmt.Sprintf("idx_%s_%s", op.Table, strings.Join(op.Columns, "_"))
}

func (op CreateIndex) Forward(ctx context.Context, c *database.Context) error {
	d := c.Dialect()
	cols := make([]string, len(op.Columns))
	for i, col := range op.Columns {
		cols[i] = d.Quote(col)
	}
	unique := ""
	if op.Unique {
		unique = "UNIQUE "
	}
	stmt := fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
		unique, d.Quote(op.indexName()), d.Quote(op.Table), strings.Join(cols, ", "))
	_, err := c.Exec(ctx, stmt)
	return err
}

func (op CreateIndex) Reverse(ctx context.Context, c *database.Context) error {
	_, err := c.Exec(ctx, fmt.Sprintf("DROP INDEX %s", c.Dialect().Quote(op.indexName())))
	return err
}

func (op CreateIndex) Describe() string {
	return fmt.Sprintf("create index %s", op.indexName())
}

// DropIndex removes an index. Reversing recreates it from the recorded
// definition when the table and columns are present, and is irreversible
// otherwise.
type DropIndex struct {
	Name    string   `yaml:"index_name"`
	Table   string   `yaml:"table,omitempty"`
	Columns []string `yaml:"columns,omitempty"`
	Unique  bool     `yaml:"unique,omitempty"`
}

func (op DropIndex) Forward(ctx context.Context, c *database.Context) error {
	_, err := c.Exec(ctx, fmt.Sprintf("DROP INDEX %s", c.Dialect().Quote(op.Name)))
	return err
}

func (op DropIndex) Reverse(ctx context.Context, c *database.Context) error {
	if op.Table == "" || len(op.Columns) == 0 {
		return fmt.Errorf("drop index %s: %w", op.Name, ErrIrreversible)
	}
	return CreateIndex{
		Table:   op.Table,
		Columns: op.Columns,
		Name:    op.Name,
		Unique:  op.Unique,
	}.Forward(ctx, c)
}

func (op DropIndex) Describe() string {
	return fmt.Sprintf("drop index %s", op.Name)
}

func (CreateTable) kind() string { return "create_table" }
func (DropTable) kind() string   { return "drop_table" }
func (AddColumn) kind() string   { return "add_column" }
func (DropColumn) kind() string  { return "drop_column" }
func (AlterColumn) kind() string { return "alter_column" }
func (CreateIndex) kind() string { return "create_index" }
func (DropIndex) kind() string   { return "drop_index" }
