package orm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ormkit/ormkit/fields"
)

// Values carries field values keyed by field name, used for construction,
// bulk updates, and raw projections.
type Values map[string]any

// Instance is one row of a model, held as validated canonical field values.
type Instance struct {
	mgr  *Manager
	vals map[string]any
}

// Get returns the value of a field and whether the field holds one.
func (inst *Instance) Get(name string) (any, bool) {
	v, ok := inst.vals[name]
	return v, ok
}

// Set validates and assigns a single field value.
func (inst *Instance) Set(name string, v any) error {
	f, ok := inst.mgr.schema.Field(name)
	if !ok {
		return &UnknownFieldError{Table: inst.mgr.schema.Table, Field: name}
	}
	canonical, err := f.Validate(v)
	if err != nil {
		return err
	}
	inst.vals[name] = canonical
	return nil
}

// PK returns the primary key value, or nil when the instance was never
// saved.
func (inst *Instance) PK() any {
	return inst.vals[inst.mgr.schema.PK]
}

func (inst *Instance) saved() bool {
	return inst.vals[inst.mgr.schema.PK] != nil
}

// String renders the table name and primary key for logs.
func (inst *Instance) String() string {
	return fmt.Sprintf("%s(%v)", inst.mgr.schema.Table, inst.PK())
}

// FullClean validates every field and the model-level clean hook, returning
// one aggregated ValidationError keyed by field name. Missing values take
// the field default when one is declared, become explicit NULL when the
// field is nullable, and are an error otherwise; database-populated fields
// (auto-increment keys, auto timestamps) are exempt. Validation always
// completes before persistence: Save never writes a partially valid row.
func (inst *Instance) FullClean() error {
	verr := &fields.ValidationError{}
	for _, f := range inst.mgr.schema.ColumnFields() {
		name := f.Name()
		v, present := inst.vals[name]
		if !present || v == nil {
			opts := f.Options()
			switch {
			case opts.HasDefault:
				inst.applyValue(f, opts.Default, verr)
			case autoIncrement(f), autoTemporal(f):
				// populated by the database or at save time
			case opts.Null:
				inst.vals[name] = nil
			default:
				verr.Add(name, fmt.Sprintf("%s cannot be null", name))
			}
			continue
		}
		inst.applyValue(f, v, verr)
	}

	if inst.mgr.clean != nil {
		if err := inst.mgr.clean(inst); err != nil {
			var ve *fields.ValidationError
			if errors.As(err, &ve) {
				verr.Merge(ve)
			} else {
				verr.Add(fields.NonFieldErrors, err.Error())
			}
		}
	}

	if !verr.Empty() {
		return verr
	}
	return nil
}

func (inst *Instance) applyValue(f fields.Field, v any, verr *fields.ValidationError) {
	canonical, err := f.Validate(v)
	if err != nil {
		var ve *fields.ValidationError
		if errors.As(err, &ve) {
			verr.Merge(ve)
		} else {
			verr.Add(f.Name(), err.Error())
		}
		return
	}
	inst.vals[f.Name()] = canonical
}

// Save validates, stamps auto timestamps from the manager's clock, and then
// inserts or updates depending on primary-key presence.
func (inst *Instance) Save(ctx context.Context) error {
	if err := inst.FullClean(); err != nil {
		return err
	}

	now := inst.mgr.now()
	for _, f := range inst.mgr.schema.ColumnFields() {
		dt, ok := f.(*fields.DateTimeField)
		if !ok {
			continue
		}
		switch {
		case dt.IsAutoNow():
			inst.vals[f.Name()] = now
		case dt.IsAutoNowAdd():
			if _, set := inst.vals[f.Name()]; !set {
				inst.vals[f.Name()] = now
			}
		}
	}

	if inst.saved() {
		return inst.update(ctx)
	}
	return inst.insert(ctx)
}

func (inst *Instance) insert(ctx context.Context) error {
	s := inst.mgr.schema
	d := inst.mgr.db.Dialect()
	pk := s.PKField()

	var (
		cols []string
		phs  []string
		args []any
	)
	for _, f := range s.ColumnFields() {
		if autoIncrement(f) && inst.vals[f.Name()] == nil {
			continue
		}
		v, present := inst.vals[f.Name()]
		if !present {
			continue
		}
		stored, err := f.ToStorage(v)
		if err != nil {
			return err
		}
		args = append(args, stored)
		cols = append(cols, d.Quote(f.ColumnName()))
		phs = append(phs, d.Placeholder(len(args)))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.Quote(s.Table), strings.Join(cols, ", "), strings.Join(phs, ", "))

	if inst.vals[s.PK] == nil && d.SupportsReturning() {
		query += " RETURNING " + d.Quote(pk.ColumnName())
		var raw any
		if err := inst.mgr.db.QueryRow(ctx, query, args...).Scan(&raw); err != nil {
			return fmt.Errorf("inserting into %s: %w", s.Table, err)
		}
		id, err := pk.FromStorage(raw)
		if err != nil {
			return err
		}
		inst.vals[s.PK] = id
		return nil
	}

	res, err := inst.mgr.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("inserting into %s: %w", s.Table, err)
	}
	if inst.vals[s.PK] == nil && autoIncrement(pk) {
		if id, err := res.LastInsertId(); err == nil {
			inst.vals[s.PK] = id
		}
	}
	return nil
}

func (inst *Instance) update(ctx context.Context) error {
	s := inst.mgr.schema
	d := inst.mgr.db.Dialect()

	var (
		sets []string
		args []any
	)
	for _, f := range s.ColumnFields() {
		if f.Name() == s.PK {
			continue
		}
		v, present := inst.vals[f.Name()]
		if !present {
			continue
		}
		stored, err := f.ToStorage(v)
		if err != nil {
			return err
		}
		args = append(args, stored)
		sets = append(sets, fmt.Sprintf("%s = %s", d.Quote(f.ColumnName()), d.Placeholder(len(args))))
	}

	pkStored, err := s.PKField().ToStorage(inst.vals[s.PK])
	if err != nil {
		return err
	}
	args = append(args, pkStored)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		d.Quote(s.Table), strings.Join(sets, ", "),
		d.Quote(s.PKField().ColumnName()), d.Placeholder(len(args)))
	if _, err := inst.mgr.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("updating %s: %w", s.Table, err)
	}
	return nil
}

// Delete removes the row by primary key. Deleting a never-saved instance is
// an error.
func (inst *Instance) Delete(ctx context.Context) error {
	if !inst.saved() {
		return fmt.Errorf("delete from %s: %w", inst.mgr.schema.Table, ErrUnsaved)
	}
	s := inst.mgr.schema
	d := inst.mgr.db.Dialect()

	pkStored, err := s.PKField().ToStorage(inst.vals[s.PK])
	if err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		d.Quote(s.Table), d.Quote(s.PKField().ColumnName()), d.Placeholder(1))
	if _, err := inst.mgr.db.Exec(ctx, query, pkStored); err != nil {
		return fmt.Errorf("deleting from %s: %w", s.Table, err)
	}
	delete(inst.vals, s.PK)
	return nil
}

// Refresh reloads every field from the database by primary key.
func (inst *Instance) Refresh(ctx context.Context) error {
	if !inst.saved() {
		return fmt.Errorf("refresh from %s: %w", inst.mgr.schema.Table, ErrUnsaved)
	}
	fresh, err := inst.mgr.Filter(Q{inst.mgr.schema.PK: inst.PK()}).Get(ctx)
	if err != nil {
		return err
	}
	inst.vals = fresh.vals
	return nil
}

func autoIncrement(f fields.Field) bool {
	af, ok := f.(*fields.IntegerField)
	return ok && af.AutoIncrement()
}

func autoTemporal(f fields.Field) bool {
	dt, ok := f.(*fields.DateTimeField)
	return ok && (dt.IsAutoNow() || dt.IsAutoNowAdd())
}
