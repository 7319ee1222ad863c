package schema

import (
	"errors"
	"fmt"
)

// LedgerTable is reserved for the migration recorder and may not be used by
// a model schema.
const LedgerTable = "ormkit_migrations"

// validate runs the structural checks applied to every schema at build time.
func validate(s *Schema) error {
	var errs []error
	if s.Table == LedgerTable {
		errs = append(errs, fmt.Errorf("schema %s: table name is reserved for the migration ledger", s.Table))
	}
	for _, f := range s.fields {
		opts := f.Options()
		if opts.PrimaryKey && opts.Null {
			errs = append(errs, fmt.Errorf("schema %s: primary key %s cannot be nullable", s.Table, f.Name()))
		}
	}
	return errors.Join(errs...)
}

// ValidateAll checks cross-schema constraints for a set of schemas declared
// together: every relation target must resolve to a known table.
func ValidateAll(schemas []*Schema) error {
	tables := make(map[string]*Schema, len(schemas))
	for _, s := range schemas {
		if _, dup := tables[s.Table]; dup {
			return fmt.Errorf("schema %s: duplicate table name", s.Table)
		}
		tables[s.Table] = s
	}

	var errs []error
	for _, s := range schemas {
		for _, rel := range s.Relations {
			if _, ok := tables[rel.Target]; !ok {
				errs = append(errs, fmt.Errorf("schema %s: field %s references unknown table %s",
					s.Table, rel.FieldName, rel.Target))
			}
		}
	}
	return errors.Join(errs...)
}
