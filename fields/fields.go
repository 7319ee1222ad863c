// Package fields provides the typed column descriptors of the ormkit schema
// system. A Field knows its validation rules, its physical storage type, and
// how values round-trip through the database driver. Fields are pure: they
// never touch the database and never read the clock.
package fields

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Options holds the configuration shared by every field kind.
type Options struct {
	PrimaryKey bool
	Null       bool
	Blank      bool
	Unique     bool
	Index      bool
	Default    any
	HasDefault bool
	Column     string // database column name override
	Choices    []any
}

// Option configures a field at construction time.
type Option func(*Options)

// PrimaryKey marks the field as the schema's primary key.
func PrimaryKey() Option {
	return func(o *Options) { o.PrimaryKey = true }
}

// Null allows NULL values in the database.
func Null() Option {
	return func(o *Options) { o.Null = true }
}

// Blank allows empty values at the form/API layer. The ORM core stores the
// flag but does not enforce it; consumers of the validation surface do.
func Blank() Option {
	return func(o *Options) { o.Blank = true }
}

// Unique adds a UNIQUE constraint.
func Unique() Option {
	return func(o *Options) { o.Unique = true }
}

// Index creates a database index on the column.
func Index() Option {
	return func(o *Options) { o.Index = true }
}

// Default sets the value used when no value is supplied.
func Default(v any) Option {
	return func(o *Options) {
		o.Default = v
		o.HasDefault = true
	}
}

// Column overrides the database column name.
func Column(name string) Option {
	return func(o *Options) { o.Column = name }
}

// Choices restricts validated values to the given set.
func Choices(vs ...any) Option {
	return func(o *Options) { o.Choices = vs }
}

// Field is the contract every column descriptor satisfies.
//
// Validate coerces raw input to the field's canonical Go type (string, int64,
// float64, bool, decimal.Decimal, time.Time, time.Duration, []byte,
// uuid.UUID) or returns a *ValidationError. ToStorage and FromStorage convert
// between the canonical type and driver values; StorageType reports the
// generic SQL column type consumed by schema bootstrap and migrations.
type Field interface {
	Name() string
	ColumnName() string
	Options() Options
	Validate(v any) (any, error)
	ToStorage(v any) (any, error)
	FromStorage(v any) (any, error)
	StorageType() string
}

// ValidationError maps field names to one or more human-readable messages.
// The sentinel key "__all__" carries whole-object errors from the model-level
// clean hook.
type ValidationError struct {
	Errors map[string][]string
}

// NonFieldErrors is the key under which model-level errors are collected.
const NonFieldErrors = "__all__"

func newError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Errors: map[string][]string{
		field: {fmt.Sprintf(format, args...)},
	}}
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, message string) *ValidationError {
	return newError(field, "%s", message)
}

// Add appends a message for a field.
func (e *ValidationError) Add(field, message string) {
	if e.Errors == nil {
		e.Errors = make(map[string][]string)
	}
	e.Errors[field] = append(e.Errors[field], message)
}

// Merge folds another validation error into this one.
func (e *ValidationError) Merge(other *ValidationError) {
	for field, msgs := range other.Errors {
		for _, m := range msgs {
			e.Add(field, m)
		}
	}
}

// Empty reports whether no messages have been recorded.
func (e *ValidationError) Empty() bool {
	return len(e.Errors) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Errors))
	for k := range e.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Errors[k], ", ")))
	}
	return strings.Join(parts, "; ")
}

// base carries the name and options shared by all field kinds.
type base struct {
	name string
	opts Options
}

func newBase(name string, opts []Option) base {
	b := base{name: name}
	for _, opt := range opts {
		opt(&b.opts)
	}
	return b
}

func (b *base) Name() string { return b.name }

func (b *base) ColumnName() string {
	if b.opts.Column != "" {
		return b.opts.Column
	}
	return b.name
}

func (b *base) Options() Options { return b.opts }

// checkNull handles the shared null contract: nil is accepted only when the
// field is nullable. The bool result reports whether validation is finished.
func (b *base) checkNull(v any) (bool, error) {
	if v != nil {
		return false, nil
	}
	if !b.opts.Null {
		return true, newError(b.name, "%s cannot be null", b.name)
	}
	return true, nil
}

func (b *base) checkChoices(v any) error {
	if len(b.opts.Choices) == 0 {
		return nil
	}
	for _, c := range b.opts.Choices {
		if c == v {
			return nil
		}
	}
	return newError(b.name, "%s must be one of the declared choices", b.name)
}

// intFrom coerces common integer representations to int64.
func intFrom(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
		return 0, false
	case float32:
		if float64(n) == float64(int64(n)) {
			return int64(n), true
		}
		return 0, false
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// floatFrom coerces common numeric representations to float64.
func floatFrom(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
