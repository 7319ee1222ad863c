// Package schema collects a model's declared fields into an ordered,
// immutable schema: table name, column list, primary key, and relationship
// descriptors. A Schema is built once per model type and never mutated.
package schema

import (
	"fmt"

	"github.com/ormkit/ormkit/fields"
)

// RelationKind classifies a declared relationship.
type RelationKind int

const (
	ForeignKey RelationKind = iota + 1
	OneToOne
	ManyToMany
)

// Relation describes a foreign-key or many-to-many link declared on a schema.
type Relation struct {
	Kind      RelationKind
	FieldName string
	Target    string // target table name
	OnDelete  fields.ReferentialAction
	JoinTable string // many-to-many only
}

// Schema is the ordered field set plus table metadata for one model type.
type Schema struct {
	Table     string
	PK        string
	Relations []Relation

	fields []fields.Field
	byName map[string]fields.Field
}

// New builds a Schema from declared fields. Exactly one primary key is
// required; when none is declared an auto-incrementing "id" integer key is
// injected as the first field. Many-to-many fields contribute a relation
// descriptor and no column.
func New(table string, fs ...fields.Field) (*Schema, error) {
	if table == "" {
		return nil, fmt.Errorf("schema: table name is required")
	}

	var pk string
	for _, f := range fs {
		if !f.Options().PrimaryKey {
			continue
		}
		if pk != "" {
			return nil, fmt.Errorf("schema %s: multiple primary keys (%s, %s)", table, pk, f.Name())
		}
		pk = f.Name()
	}
	if pk == "" {
		fs = append([]fields.Field{fields.Auto("id")}, fs...)
		pk = "id"
	}

	s := &Schema{
		Table:  table,
		PK:     pk,
		fields: fs,
		byName: make(map[string]fields.Field, len(fs)),
	}
	for _, f := range fs {
		if _, dup := s.byName[f.Name()]; dup {
			return nil, fmt.Errorf("schema %s: duplicate field %s", table, f.Name())
		}
		s.byName[f.Name()] = f

		switch rf := f.(type) {
		case *fields.ForeignKeyField:
			kind := ForeignKey
			if rf.OneToOneRelation() {
				kind = OneToOne
			}
			s.Relations = append(s.Relations, Relation{
				Kind:      kind,
				FieldName: rf.Name(),
				Target:    rf.To,
				OnDelete:  rf.OnDelete,
			})
		case *fields.ManyToManyField:
			join := rf.JoinTable()
			if join == "" {
				join = fmt.Sprintf("%s_%s", table, rf.To)
			}
			s.Relations = append(s.Relations, Relation{
				Kind:      ManyToMany,
				FieldName: rf.Name(),
				Target:    rf.To,
				JoinTable: join,
			})
		}
	}

	if err := validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// MustNew is New for package-level model declarations; it panics on error.
func MustNew(table string, fs ...fields.Field) *Schema {
	s, err := New(table, fs...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns the declared fields in order, including the primary key and
// excluding nothing; many-to-many fields are present but carry no column.
func (s *Schema) Fields() []fields.Field {
	return s.fields
}

// ColumnFields returns the fields that materialize as table columns, in
// declaration order.
func (s *Schema) ColumnFields() []fields.Field {
	out := make([]fields.Field, 0, len(s.fields))
	for _, f := range s.fields {
		if f.StorageType() != "" {
			out = append(out, f)
		}
	}
	return out
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (fields.Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// PKField returns the primary key field.
func (s *Schema) PKField() fields.Field {
	return s.byName[s.PK]
}

// FieldNames returns the declared field names in order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name()
	}
	return names
}
