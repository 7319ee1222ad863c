package orm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ormkit/ormkit/database"
	"github.com/ormkit/ormkit/fields"
	"github.com/ormkit/ormkit/schema"
)

// defaultBatchSize is the chunk size for BulkCreate when none is given.
const defaultBatchSize = 100

// ManagerOption configures a manager at construction time.
type ManagerOption func(*Manager)

// WithClock injects the time source used for auto timestamps; tests pin it.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithClean installs a model-level clean hook run by FullClean after field
// validation. Returned ValidationErrors merge into the aggregate; any other
// error is recorded under the whole-object key.
func WithClean(clean func(*Instance) error) ManagerOption {
	return func(m *Manager) { m.clean = clean }
}

// Manager binds a schema to a database context and hands out querysets and
// instances. It is the model type's single entry point to persistence.
type Manager struct {
	schema *schema.Schema
	db     *database.Context
	now    func() time.Time
	clean  func(*Instance) error
}

// NewManager builds a manager for one model schema.
func NewManager(db *database.Context, s *schema.Schema, opts ...ManagerOption) *Manager {
	m := &Manager{schema: s, db: db, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Schema returns the bound schema.
func (m *Manager) Schema() *schema.Schema { return m.schema }

// New constructs an unsaved instance, validating every given value against
// its field. Unknown field names are a construction-time error. Fields with
// auto_now_add semantics are stamped from the manager's clock when unset.
func (m *Manager) New(vals Values) (*Instance, error) {
	inst := &Instance{mgr: m, vals: make(map[string]any, len(vals))}
	for name, v := range vals {
		if err := inst.Set(name, v); err != nil {
			return nil, err
		}
	}
	now := m.now()
	for _, f := range m.schema.ColumnFields() {
		dt, ok := f.(*fields.DateTimeField)
		if !ok || !dt.IsAutoNowAdd() {
			continue
		}
		if _, set := inst.vals[f.Name()]; !set {
			inst.vals[f.Name()] = now
		}
	}
	return inst, nil
}

// load wraps already-decoded storage values without re-validating.
func (m *Manager) load(vals Values) *Instance {
	return &Instance{mgr: m, vals: vals}
}

// All returns an unfiltered queryset.
func (m *Manager) All() *QuerySet { return newQuerySet(m) }

// Filter returns a queryset filtered by the string DSL.
func (m *Manager) Filter(q Q) *QuerySet { return newQuerySet(m).Filter(q) }

// Exclude returns a queryset excluding the given condition set.
func (m *Manager) Exclude(q Q) *QuerySet { return newQuerySet(m).Exclude(q) }

// Where returns a queryset filtered by typed predicates.
func (m *Manager) Where(preds ...Predicate) *QuerySet {
	return newQuerySet(m).Where(preds...)
}

// Get returns the single instance matching q.
func (m *Manager) Get(ctx context.Context, q Q) (*Instance, error) {
	return m.Filter(q).Get(ctx)
}

// Create constructs and saves an instance in one step.
func (m *Manager) Create(ctx context.Context, vals Values) (*Instance, error) {
	inst, err := m.New(vals)
	if err != nil {
		return nil, err
	}
	if err := inst.Save(ctx); err != nil {
		return nil, err
	}
	return inst, nil
}

// GetOrCreate fetches the instance matching q, creating it from q plus
// defaults when absent. The second result reports whether a row was
// created. The get and the create are two separate statements: concurrent
// callers can race between them, so uniqueness must come from a database
// constraint when it matters.
func (m *Manager) GetOrCreate(ctx context.Context, q Q, defaults Values) (*Instance, bool, error) {
	inst, err := m.Filter(q).Get(ctx)
	if err == nil {
		return inst, false, nil
	}
	if !errors.Is(err, ErrDoesNotExist) {
		return nil, false, err
	}

	vals, err := createValues(m.schema, q, defaults)
	if err != nil {
		return nil, false, err
	}
	inst, err = m.Create(ctx, vals)
	if err != nil {
		return nil, false, err
	}
	return inst, true, nil
}

// UpdateOrCreate fetches the instance matching q and applies defaults to
// it, creating it from q plus defaults when absent. Subject to the same
// get-then-write race as GetOrCreate.
func (m *Manager) UpdateOrCreate(ctx context.Context, q Q, defaults Values) (*Instance, bool, error) {
	inst, err := m.Filter(q).Get(ctx)
	if err == nil {
		for name, v := range defaults {
			if err := inst.Set(name, v); err != nil {
				return nil, false, err
			}
		}
		if err := inst.Save(ctx); err != nil {
			return nil, false, err
		}
		return inst, false, nil
	}
	if !errors.Is(err, ErrDoesNotExist) {
		return nil, false, err
	}

	vals, err := createValues(m.schema, q, defaults)
	if err != nil {
		return nil, false, err
	}
	inst, err = m.Create(ctx, vals)
	if err != nil {
		return nil, false, err
	}
	return inst, true, nil
}

// createValues folds a lookup map plus defaults into construction values.
// Only exact lookups can seed a new row.
func createValues(s *schema.Schema, q Q, defaults Values) (Values, error) {
	vals := make(Values, len(q)+len(defaults))
	for key, v := range q {
		p, err := parseKey(s, key, v)
		if err != nil {
			return nil, err
		}
		if p.Lookup != Exact {
			return nil, fmt.Errorf("cannot create %s from non-exact lookup %q", s.Table, key)
		}
		vals[p.Field] = v
	}
	for name, v := range defaults {
		vals[name] = v
	}
	return vals, nil
}

// BulkCreate inserts rows in chunks of batchSize (default 100) using
// multi-row INSERT statements. It bypasses FullClean and the model clean
// hook entirely; only per-field construction validation applies. On
// backends with RETURNING the new primary keys are set on the returned
// instances, elsewhere they stay unset.
func (m *Manager) BulkCreate(ctx context.Context, rows []Values, batchSize int) ([]*Instance, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	instances := make([]*Instance, len(rows))
	now := m.now()
	for i, vals := range rows {
		inst, err := m.New(vals)
		if err != nil {
			return nil, err
		}
		for _, f := range m.schema.ColumnFields() {
			name := f.Name()
			if dt, ok := f.(*fields.DateTimeField); ok && dt.IsAutoNow() {
				inst.vals[name] = now
				continue
			}
			if _, set := inst.vals[name]; !set && f.Options().HasDefault {
				inst.vals[name] = f.Options().Default
			}
		}
		instances[i] = inst
	}

	for start := 0; start < len(instances); start += batchSize {
		end := start + batchSize
		if end > len(instances) {
			end = len(instances)
		}
		if err := m.insertBatch(ctx, instances[start:end]); err != nil {
			return nil, err
		}
	}
	return instances, nil
}

func (m *Manager) insertBatch(ctx context.Context, batch []*Instance) error {
	s := m.schema
	d := m.db.Dialect()
	pk := s.PKField()

	var cols []fields.Field
	for _, f := range s.ColumnFields() {
		if autoIncrement(f) {
			continue
		}
		cols = append(cols, f)
	}

	quoted := make([]string, len(cols))
	for i, f := range cols {
		quoted[i] = d.Quote(f.ColumnName())
	}

	var (
		args   []any
		tuples []string
	)
	for _, inst := range batch {
		phs := make([]string, len(cols))
		for i, f := range cols {
			stored, err := f.ToStorage(inst.vals[f.Name()])
			if err != nil {
				return err
			}
			args = append(args, stored)
			phs[i] = d.Placeholder(len(args))
		}
		tuples = append(tuples, "("+strings.Join(phs, ", ")+")")
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		d.Quote(s.Table), strings.Join(quoted, ", "), strings.Join(tuples, ", "))

	if d.SupportsReturning() && autoIncrement(pk) {
		query += " RETURNING " + d.Quote(pk.ColumnName())
		rows, err := m.db.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("bulk inserting into %s: %w", s.Table, err)
		}
		defer rows.Close()
		for _, inst := range batch {
			if !rows.Next() {
				break
			}
			var raw any
			if err := rows.Scan(&raw); err != nil {
				return err
			}
			id, err := pk.FromStorage(raw)
			if err != nil {
				return err
			}
			inst.vals[s.PK] = id
		}
		return rows.Err()
	}

	if _, err := m.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("bulk inserting into %s: %w", s.Table, err)
	}
	return nil
}

// Count is shorthand for All().Count.
func (m *Manager) Count(ctx context.Context) (int64, error) {
	return m.All().Count(ctx)
}

// First is shorthand for All().First.
func (m *Manager) First(ctx context.Context) (*Instance, error) {
	return m.All().First(ctx)
}

// Last is shorthand for All().Last.
func (m *Manager) Last(ctx context.Context) (*Instance, error) {
	return m.All().Last(ctx)
}

// Exists is shorthand for All().Exists.
func (m *Manager) Exists(ctx context.Context) (bool, error) {
	return m.All().Exists(ctx)
}
