package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/ormkit/ormkit/fields"
	"github.com/ormkit/ormkit/schema"
)

// CreateTables issues CREATE TABLE IF NOT EXISTS for every schema, then the
// many-to-many join tables, then the secondary indexes. Tables are created in
// the order given, so schemas with foreign keys must follow their targets.
func CreateTables(ctx context.Context, c *Context, schemas []*schema.Schema) error {
	if err := schema.ValidateAll(schemas); err != nil {
		return err
	}

	pks := pkColumns(schemas)
	for _, s := range schemas {
		stmt := createTableSQL(c.dialect, s, pks)
		if _, err := c.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create table %s: %w", s.Table, err)
		}
		c.log.Debug("table created", "table", s.Table)
	}

	for _, join := range joinTables(schemas) {
		stmt := createJoinTableSQL(c.dialect, join, pks)
		if _, err := c.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create join table %s: %w", join.Name, err)
		}
		c.log.Debug("join table created", "table", join.Name)
	}

	for _, s := range schemas {
		for _, f := range s.ColumnFields() {
			if !f.Options().Index {
				continue
			}
			stmt := createIndexSQL(c.dialect, s.Table, f.ColumnName())
			if _, err := c.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("create index on %s.%s: %w", s.Table, f.ColumnName(), err)
			}
		}
	}
	return nil
}

// DropTables drops every schema table plus join tables, in reverse order so
// referencing tables go before their targets.
func DropTables(ctx context.Context, c *Context, schemas []*schema.Schema) error {
	joins := joinTables(schemas)
	for i := len(joins) - 1; i >= 0; i-- {
		stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s", c.dialect.Quote(joins[i].Name))
		if _, err := c.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("drop join table %s: %w", joins[i].Name, err)
		}
	}
	for i := len(schemas) - 1; i >= 0; i-- {
		stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s", c.dialect.Quote(schemas[i].Table))
		if _, err := c.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("drop table %s: %w", schemas[i].Table, err)
		}
	}
	return nil
}

// pkColumn is what a foreign key needs to know about its target.
type pkColumn struct {
	Column string
	Type   string // generic storage type, pre-dialect
}

func pkColumns(schemas []*schema.Schema) map[string]pkColumn {
	out := make(map[string]pkColumn, len(schemas))
	for _, s := range schemas {
		pk := s.PKField()
		out[s.Table] = pkColumn{Column: pk.ColumnName(), Type: pk.StorageType()}
	}
	return out
}

func createTableSQL(d Dialect, s *schema.Schema, pks map[string]pkColumn) string {
	var cols []string
	for _, f := range s.ColumnFields() {
		cols = append(cols, columnDDL(d, f, pks))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n  ", d.Quote(s.Table))
	b.WriteString(strings.Join(cols, ",\n  "))
	b.WriteString("\n)")
	return b.String()
}

// columnDDL renders one column definition. Foreign keys inline their
// REFERENCES clause, matching the target primary key's type.
func columnDDL(d Dialect, f fields.Field, pks map[string]pkColumn) string {
	opts := f.Options()

	if af, ok := f.(*fields.IntegerField); ok && af.AutoIncrement() {
		return fmt.Sprintf("%s %s", d.Quote(f.ColumnName()), d.AutoPK())
	}

	colType := d.ColumnType(f.StorageType())
	var refs string
	if fk, ok := f.(*fields.ForeignKeyField); ok {
		target, known := pks[fk.To]
		if known {
			colType = d.ColumnType(target.Type)
			refs = fmt.Sprintf(" REFERENCES %s(%s) ON DELETE %s",
				d.Quote(fk.To), d.Quote(target.Column), fk.OnDelete)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", d.Quote(f.ColumnName()), colType)
	if opts.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
	} else if !opts.Null {
		b.WriteString(" NOT NULL")
	}
	if opts.Unique && !opts.PrimaryKey {
		b.WriteString(" UNIQUE")
	}
	switch {
	case opts.HasDefault:
		fmt.Fprintf(&b, " DEFAULT %s", defaultLiteral(opts.Default))
	case autoTimestamp(f):
		fmt.Fprintf(&b, " DEFAULT %s", d.CurrentTimestamp())
	}
	b.WriteString(refs)
	return b.String()
}

func autoTimestamp(f fields.Field) bool {
	dt, ok := f.(*fields.DateTimeField)
	return ok && (dt.IsAutoNow() || dt.IsAutoNowAdd())
}

func defaultLiteral(v any) string {
	switch n := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(n, "'", "''") + "'"
	case bool:
		if n {
			return "TRUE"
		}
		return "FALSE"
	case nil:
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func createIndexSQL(d Dialect, table, column string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
		d.Quote(fmt.Sprintf("idx_%s_%s", table, column)),
		d.Quote(table), d.Quote(column))
}

// joinTable is a materialized many-to-many link.
type joinTable struct {
	Name  string
	Left  string // owning table
	Right string // target table
}

func joinTables(schemas []*schema.Schema) []joinTable {
	var out []joinTable
	seen := make(map[string]bool)
	for _, s := range schemas {
		for _, rel := range s.Relations {
			if rel.Kind != schema.ManyToMany || seen[rel.JoinTable] {
				continue
			}
			seen[rel.JoinTable] = true
			out = append(out, joinTable{Name: rel.JoinTable, Left: s.Table, Right: rel.Target})
		}
	}
	return out
}

func createJoinTableSQL(d Dialect, j joinTable, pks map[string]pkColumn) string {
	left := pks[j.Left]
	right := pks[j.Right]
	leftCol := j.Left + "_id"
	rightCol := j.Right + "_id"

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n  ", d.Quote(j.Name))
	fmt.Fprintf(&b, "%s %s,\n  ", d.Quote("id"), d.AutoPK())
	fmt.Fprintf(&b, "%s %s NOT NULL REFERENCES %s(%s) ON DELETE CASCADE,\n  ",
		d.Quote(leftCol), d.ColumnType(left.Type), d.Quote(j.Left), d.Quote(left.Column))
	fmt.Fprintf(&b, "%s %s NOT NULL REFERENCES %s(%s) ON DELETE CASCADE,\n  ",
		d.Quote(rightCol), d.ColumnType(right.Type), d.Quote(j.Right), d.Quote(right.Column))
	fmt.Fprintf(&b, "UNIQUE (%s, %s)\n)", d.Quote(leftCol), d.Quote(rightCol))
	return b.String()
}
