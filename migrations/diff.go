package migrations

import (
	"context"
	"fmt"

	"github.com/ormkit/ormkit/database"
	"github.com/ormkit/ormkit/fields"
	"github.com/ormkit/ormkit/schema"
)

// Diff compares the desired schemas against the connected database and
// returns the operations that would bring the database in line: creates
// first in declaration order, then column additions and drops, then table
// drops. The migration ledger and backend-internal tables are never
// touched. Column type changes are not detected; altering types is authored
// by hand with AlterColumn.
func Diff(ctx context.Context, c *database.Context, desired []*schema.Schema) ([]Operation, error) {
	existing, err := c.Tables(ctx)
	if err != nil {
		return nil, err
	}
	existingSet := make(map[string]bool, len(existing))
	for _, t := range existing {
		existingSet[t] = true
	}

	wanted := make(map[string]*schema.Schema, len(desired))
	joinOwner := make(map[string]bool)
	for _, s := range desired {
		wanted[s.Table] = s
		for _, rel := range s.Relations {
			if rel.Kind == schema.ManyToMany {
				joinOwner[rel.JoinTable] = true
			}
		}
	}

	var creates, changes, drops []Operation

	for _, s := range desired {
		if !existingSet[s.Table] {
			creates = append(creates, CreateTable{Table: s.Table, Columns: columnDefs(s)})
			continue
		}
		tableChanges, err := diffColumns(ctx, c, s)
		if err != nil {
			return nil, err
		}
		changes = append(changes, tableChanges...)
	}

	for _, s := range desired {
		for _, rel := range s.Relations {
			if rel.Kind != schema.ManyToMany || existingSet[rel.JoinTable] {
				continue
			}
			creates = append(creates, CreateTable{Table: rel.JoinTable, Columns: []ColumnDef{
				{Name: "id", Type: "SERIAL", PrimaryKey: true},
				{Name: s.Table + "_id", Type: "INTEGER", References: s.Table, OnDelete: "CASCADE"},
				{Name: rel.Target + "_id", Type: "INTEGER", References: rel.Target, OnDelete: "CASCADE"},
			}})
			existingSet[rel.JoinTable] = true
		}
	}

	for _, t := range existing {
		if t == schema.LedgerTable || wanted[t] != nil || joinOwner[t] {
			continue
		}
		drops = append(drops, DropTable{Table: t})
	}

	return append(append(creates, changes...), drops...), nil
}

func diffColumns(ctx context.Context, c *database.Context, s *schema.Schema) ([]Operation, error) {
	cols, err := c.Columns(ctx, s.Table)
	if err != nil {
		return nil, fmt.Errorf("introspecting %s: %w", s.Table, err)
	}
	existing := make(map[string]bool, len(cols))
	for _, col := range cols {
		existing[col.Name] = true
	}
	declared := make(map[string]bool)

	var ops []Operation
	for _, f := range s.ColumnFields() {
		declared[f.ColumnName()] = true
		if !existing[f.ColumnName()] {
			ops = append(ops, AddColumn{Table: s.Table, Column: columnDef(s, f)})
		}
	}
	for _, col := range cols {
		if !declared[col.Name] {
			ops = append(ops, DropColumn{Table: s.Table, Name: col.Name})
		}
	}
	return ops, nil
}

func columnDefs(s *schema.Schema) []ColumnDef {
	flds := s.ColumnFields()
	defs := make([]ColumnDef, len(flds))
	for i, f := range flds {
		defs[i] = columnDef(s, f)
	}
	return defs
}

func columnDef(s *schema.Schema, f fields.Field) ColumnDef {
	opts := f.Options()
	def := ColumnDef{
		Name:       f.ColumnName(),
		Type:       f.StorageType(),
		PrimaryKey: opts.PrimaryKey,
		Nullable:   opts.Null,
		Unique:     opts.Unique && !opts.PrimaryKey,
	}
	if opts.HasDefault {
		def.Default = opts.Default
	}
	if af, ok := f.(*fields.IntegerField); ok && af.AutoIncrement() {
		def.Type = "SERIAL"
	}
	if fk, ok := f.(*fields.ForeignKeyField); ok {
		def.References = fk.To
		def.OnDelete = string(fk.OnDelete)
	}
	return def
}
