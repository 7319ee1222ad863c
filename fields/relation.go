package fields

import "fmt"

// ReferentialAction is the delete policy attached to a foreign key.
type ReferentialAction string

const (
	Cascade    ReferentialAction = "CASCADE"
	SetNull    ReferentialAction = "SET NULL"
	SetDefault ReferentialAction = "SET DEFAULT"
	Protect    ReferentialAction = "RESTRICT"
)

// ForeignKeyField stores the primary key of a row in another table.
type ForeignKeyField struct {
	base
	To       string // target table name
	OnDelete ReferentialAction
	unique   bool
}

// ForeignKey declares a relation column referencing the target table's
// primary key.
func ForeignKey(name, to string, onDelete ReferentialAction, opts ...Option) *ForeignKeyField {
	if onDelete == "" {
		onDelete = Cascade
	}
	return &ForeignKeyField{base: newBase(name, opts), To: to, OnDelete: onDelete}
}

// OneToOne declares a unique foreign key.
func OneToOne(name, to string, onDelete ReferentialAction, opts ...Option) *ForeignKeyField {
	f := ForeignKey(name, to, onDelete, opts...)
	f.opts.Unique = true
	f.unique = true
	return f
}

// OneToOneRelation reports whether the foreign key carries a uniqueness
// constraint making it one-to-one.
func (f *ForeignKeyField) OneToOneRelation() bool { return f.unique }

func (f *ForeignKeyField) Validate(v any) (any, error) {
	if done, err := f.checkNull(v); done {
		return nil, err
	}
	n, ok := intFrom(v)
	if !ok {
		return nil, newError(f.name, "%s must reference a %s primary key", f.name, f.To)
	}
	return n, nil
}

func (f *ForeignKeyField) ToStorage(v any) (any, error) { return v, nil }

func (f *ForeignKeyField) FromStorage(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	n, ok := intFrom(v)
	if !ok {
		return nil, fmt.Errorf("%s: cannot load %T as foreign key", f.name, v)
	}
	return n, nil
}

// StorageType matches the target primary key's storage; the schema builder
// substitutes the target's actual PK type when it differs.
func (f *ForeignKeyField) StorageType() string { return "INTEGER" }

// ManyToManyField declares a relation materialized as a join table rather
// than a column on the owning table.
type ManyToManyField struct {
	base
	To      string
	through string
}

// ManyToMany declares a many-to-many relation to the target table.
func ManyToMany(name, to string, opts ...Option) *ManyToManyField {
	return &ManyToManyField{base: newBase(name, opts), To: to}
}

// Through sets an explicit join table name instead of the auto-generated
// "{table}_{target}" one.
func (f *ManyToManyField) Through(table string) *ManyToManyField {
	f.through = table
	return f
}

// JoinTable returns the explicit join table name, or "" when auto-named.
func (f *ManyToManyField) JoinTable() string { return f.through }

func (f *ManyToManyField) Validate(v any) (any, error) {
	return nil, newError(f.name, "%s is a many-to-many relation and does not hold a column value", f.name)
}

func (f *ManyToManyField) ToStorage(v any) (any, error) {
	return nil, fmt.Errorf("%s: many-to-many fields have no storage column", f.name)
}

func (f *ManyToManyField) FromStorage(v any) (any, error) {
	return nil, fmt.Errorf("%s: many-to-many fields have no storage column", f.name)
}

// StorageType is empty: the relation lives in the join table.
func (f *ManyToManyField) StorageType() string { return "" }
