// Package orm is the query and persistence core: managers bound to a schema
// hand out lazy QuerySets, QuerySets compile typed predicates to dialect SQL
// at their terminal methods, and instances carry validated field values
// through save, delete, and refresh.
package orm

import (
	"errors"
	"fmt"
)

var (
	// ErrDoesNotExist is returned by Get when no row matches.
	ErrDoesNotExist = errors.New("object does not exist")

	// ErrMultipleObjectsReturned is returned by Get when more than one row
	// matches.
	ErrMultipleObjectsReturned = errors.New("multiple objects returned")

	// ErrUnsaved is returned by instance operations that require a primary
	// key, called on an instance that was never saved.
	ErrUnsaved = errors.New("instance has no primary key")

	// ErrSliced is returned by bulk Update and Delete on a queryset that has
	// a limit or offset applied.
	ErrSliced = errors.New("cannot update or delete once a slice has been taken")
)

// UnknownLookupError reports an unrecognized lookup suffix in a filter key.
// It is raised at queryset construction, before any SQL is issued.
type UnknownLookupError struct {
	Field  string
	Lookup string
}

func (e *UnknownLookupError) Error() string {
	return fmt.Sprintf("unknown lookup %q for field %q", e.Lookup, e.Field)
}

// UnknownFieldError reports a filter, ordering, or projection referencing a
// field the schema does not declare.
type UnknownFieldError struct {
	Table string
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("table %q has no field %q", e.Table, e.Field)
}
