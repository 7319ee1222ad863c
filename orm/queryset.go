package orm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ormkit/ormkit/fields"
)

type orderTerm struct {
	field string
	desc  bool
}

// QuerySet is a lazy, immutable query description bound to a manager. Chain
// methods clone the receiver and append state; nothing touches the database
// until a terminal method runs. A construction-time error (bad lookup,
// unknown field) is carried on the clone and surfaced by the first terminal
// call, always before any SQL is issued.
type QuerySet struct {
	mgr      *Manager
	filters  []Predicate
	excludes [][]Predicate
	ordering []orderTerm
	limit    int // -1 means no limit
	offset   int
	distinct bool
	err      error
}

func newQuerySet(m *Manager) *QuerySet {
	return &QuerySet{mgr: m, limit: -1}
}

func (qs *QuerySet) clone() *QuerySet {
	dup := *qs
	dup.filters = append([]Predicate(nil), qs.filters...)
	dup.excludes = append([][]Predicate(nil), qs.excludes...)
	dup.ordering = append([]orderTerm(nil), qs.ordering...)
	return &dup
}

func (qs *QuerySet) fail(err error) *QuerySet {
	dup := qs.clone()
	if dup.err == nil {
		dup.err = err
	}
	return dup
}

// Filter appends conditions from the string DSL; all conditions are
// conjoined with any already present.
func (qs *QuerySet) Filter(q Q) *QuerySet {
	preds, err := parseQ(qs.mgr.schema, q)
	if err != nil {
		return qs.fail(err)
	}
	return qs.Where(preds...)
}

// Where appends typed predicate conditions.
func (qs *QuerySet) Where(preds ...Predicate) *QuerySet {
	dup := qs.clone()
	dup.filters = append(dup.filters, preds...)
	return dup
}

// Exclude appends the negation of the given condition set. Each Exclude call
// is independently negated and conjoined: q.Exclude(a).Exclude(b) means
// NOT a AND NOT b, not NOT (a OR b).
func (qs *QuerySet) Exclude(q Q) *QuerySet {
	preds, err := parseQ(qs.mgr.schema, q)
	if err != nil {
		return qs.fail(err)
	}
	return qs.WhereNot(preds...)
}

// WhereNot appends the negation of the given typed predicate set.
func (qs *QuerySet) WhereNot(preds ...Predicate) *QuerySet {
	dup := qs.clone()
	dup.excludes = append(dup.excludes, preds)
	return dup
}

// OrderBy appends ordering terms; "field" sorts ascending, "-field"
// descending. Later calls extend the ordering as additional sort keys.
func (qs *QuerySet) OrderBy(names ...string) *QuerySet {
	dup := qs.clone()
	for _, name := range names {
		term := orderTerm{field: name}
		if strings.HasPrefix(name, "-") {
			term = orderTerm{field: name[1:], desc: true}
		}
		if _, ok := qs.mgr.schema.Field(term.field); !ok {
			return qs.fail(&UnknownFieldError{Table: qs.mgr.schema.Table, Field: term.field})
		}
		dup.ordering = append(dup.ordering, term)
	}
	return dup
}

// Limit caps the number of returned rows.
func (qs *QuerySet) Limit(n int) *QuerySet {
	dup := qs.clone()
	dup.limit = n
	return dup
}

// Offset skips the first n rows.
func (qs *QuerySet) Offset(n int) *QuerySet {
	dup := qs.clone()
	dup.offset = n
	return dup
}

// Distinct eliminates duplicate rows from the result.
func (qs *QuerySet) Distinct() *QuerySet {
	dup := qs.clone()
	dup.distinct = true
	return dup
}

// ordered returns the queryset with a primary-key ordering injected when the
// caller never specified one, so First and Last are deterministic.
func (qs *QuerySet) ordered(desc bool) *QuerySet {
	if len(qs.ordering) > 0 {
		if !desc {
			return qs
		}
		dup := qs.clone()
		for i := range dup.ordering {
			dup.ordering[i].desc = !dup.ordering[i].desc
		}
		return dup
	}
	dup := qs.clone()
	dup.ordering = []orderTerm{{field: qs.mgr.schema.PK, desc: desc}}
	return dup
}

func (qs *QuerySet) orderSQL() string {
	if len(qs.ordering) == 0 {
		return ""
	}
	d := qs.mgr.db.Dialect()
	terms := make([]string, len(qs.ordering))
	for i, t := range qs.ordering {
		f, _ := qs.mgr.schema.Field(t.field)
		dir := " ASC"
		if t.desc {
			dir = " DESC"
		}
		terms[i] = d.Quote(f.ColumnName()) + dir
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}

// buildSelect compiles the full SELECT for the given projection.
func (qs *QuerySet) buildSelect(c *compiler, projection string) (string, error) {
	where, err := c.where(qs.filters, qs.excludes)
	if err != nil {
		return "", err
	}
	d := qs.mgr.db.Dialect()

	var b strings.Builder
	b.WriteString("SELECT ")
	if qs.distinct {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(projection)
	b.WriteString(" FROM ")
	b.WriteString(d.Quote(qs.mgr.schema.Table))
	b.WriteString(where)
	b.WriteString(qs.orderSQL())
	b.WriteString(d.Limit(qs.limit, qs.offset))
	return b.String(), nil
}

// fetch executes the select for the given field names and returns decoded
// rows keyed by field name.
func (qs *QuerySet) fetch(ctx context.Context, names []string) ([]Values, error) {
	if qs.err != nil {
		return nil, qs.err
	}
	s := qs.mgr.schema
	d := qs.mgr.db.Dialect()

	flds := make([]projectedField, 0, len(names))
	cols := make([]string, 0, len(names))
	for _, name := range names {
		f, ok := s.Field(name)
		if !ok || f.StorageType() == "" {
			return nil, &UnknownFieldError{Table: s.Table, Field: name}
		}
		flds = append(flds, projectedField{name: name, field: f})
		cols = append(cols, d.Quote(f.ColumnName()))
	}

	c := newCompiler(d, s)
	query, err := qs.buildSelect(c, strings.Join(cols, ", "))
	if err != nil {
		return nil, err
	}

	rows, err := qs.mgr.db.Query(ctx, query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.Table, err)
	}
	defer rows.Close()

	var out []Values
	for rows.Next() {
		raw := make([]any, len(flds))
		ptrs := make([]any, len(flds))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", s.Table, err)
		}
		vals := make(Values, len(flds))
		for i, pf := range flds {
			v, err := pf.field.FromStorage(raw[i])
			if err != nil {
				return nil, err
			}
			vals[pf.name] = v
		}
		out = append(out, vals)
	}
	return out, rows.Err()
}

type projectedField struct {
	name  string
	field fields.Field
}

func (qs *QuerySet) columnNames() []string {
	cols := qs.mgr.schema.ColumnFields()
	names := make([]string, len(cols))
	for i, f := range cols {
		names[i] = f.Name()
	}
	return names
}

// All materializes every matching row as a model instance.
func (qs *QuerySet) All(ctx context.Context) ([]*Instance, error) {
	rows, err := qs.fetch(ctx, qs.columnNames())
	if err != nil {
		return nil, err
	}
	out := make([]*Instance, len(rows))
	for i, vals := range rows {
		out[i] = qs.mgr.load(vals)
	}
	return out, nil
}

// First returns the first matching row, ordering by primary key when no
// ordering was specified. No match is ErrDoesNotExist.
func (qs *QuerySet) First(ctx context.Context) (*Instance, error) {
	rows, err := qs.ordered(false).Limit(1).All(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrDoesNotExist
	}
	return rows[0], nil
}

// Last returns the last matching row under the queryset's ordering, by
// inverting every ordering term.
func (qs *QuerySet) Last(ctx context.Context) (*Instance, error) {
	rows, err := qs.ordered(true).Limit(1).All(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrDoesNotExist
	}
	return rows[0], nil
}

// Get returns the single matching row: zero matches is ErrDoesNotExist, two
// or more is ErrMultipleObjectsReturned.
func (qs *QuerySet) Get(ctx context.Context) (*Instance, error) {
	rows, err := qs.Limit(2).All(ctx)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, ErrDoesNotExist
	case 1:
		return rows[0], nil
	}
	return nil, ErrMultipleObjectsReturned
}

// Count returns the number of matching rows. Limit and offset are honored
// by counting over the sliced row set.
func (qs *QuerySet) Count(ctx context.Context) (int64, error) {
	if qs.err != nil {
		return 0, qs.err
	}
	s := qs.mgr.schema
	d := qs.mgr.db.Dialect()
	pk := d.Quote(s.PKField().ColumnName())

	c := newCompiler(d, s)
	var query string
	switch {
	case qs.limit >= 0 || qs.offset > 0:
		inner, err := qs.buildSelect(c, pk)
		if err != nil {
			return 0, err
		}
		query = fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS sliced", inner)
	case qs.distinct:
		where, err := c.where(qs.filters, qs.excludes)
		if err != nil {
			return 0, err
		}
		query = fmt.Sprintf("SELECT COUNT(DISTINCT %s) FROM %s%s", pk, d.Quote(s.Table), where)
	default:
		where, err := c.where(qs.filters, qs.excludes)
		if err != nil {
			return 0, err
		}
		query = fmt.Sprintf("SELECT COUNT(*) FROM %s%s", d.Quote(s.Table), where)
	}

	var n int64
	if err := qs.mgr.db.QueryRow(ctx, query, c.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", s.Table, err)
	}
	return n, nil
}

// Exists reports whether at least one row matches.
func (qs *QuerySet) Exists(ctx context.Context) (bool, error) {
	if qs.err != nil {
		return false, qs.err
	}
	s := qs.mgr.schema
	d := qs.mgr.db.Dialect()

	c := newCompiler(d, s)
	inner, err := qs.Limit(1).buildSelect(c, "1")
	if err != nil {
		return false, err
	}
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS (%s)", inner)
	if err := qs.mgr.db.QueryRow(ctx, query, c.args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking existence in %s: %w", s.Table, err)
	}
	return exists, nil
}

// Values returns raw projected rows keyed by field name, bypassing instance
// construction. With no names it projects every column field.
func (qs *QuerySet) Values(ctx context.Context, names ...string) ([]Values, error) {
	if len(names) == 0 {
		names = qs.columnNames()
	}
	return qs.fetch(ctx, names)
}

// ValuesList returns raw projected rows as slices ordered like names.
func (qs *QuerySet) ValuesList(ctx context.Context, names ...string) ([][]any, error) {
	if len(names) == 0 {
		names = qs.columnNames()
	}
	rows, err := qs.fetch(ctx, names)
	if err != nil {
		return nil, err
	}
	out := make([][]any, len(rows))
	for i, vals := range rows {
		row := make([]any, len(names))
		for j, name := range names {
			row[j] = vals[name]
		}
		out[i] = row
	}
	return out, nil
}

// ValuesFlat returns one projected column as a flat slice.
func (qs *QuerySet) ValuesFlat(ctx context.Context, name string) ([]any, error) {
	rows, err := qs.ValuesList(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(rows))
	for i, row := range rows {
		out[i] = row[0]
	}
	return out, nil
}

// Update writes the given values to every matching row in one statement and
// returns the affected-row count. It executes directly against the filtered
// row set: no instances are loaded and no model validation runs.
func (qs *QuerySet) Update(ctx context.Context, vals Values) (int64, error) {
	if qs.err != nil {
		return 0, qs.err
	}
	if qs.limit >= 0 || qs.offset > 0 {
		return 0, ErrSliced
	}
	s := qs.mgr.schema
	d := qs.mgr.db.Dialect()

	names := make([]string, 0, len(vals))
	for name := range vals {
		names = append(names, name)
	}
	sort.Strings(names)

	c := newCompiler(d, s)
	sets := make([]string, 0, len(names))
	for _, name := range names {
		f, ok := s.Field(name)
		if !ok || f.StorageType() == "" {
			return 0, &UnknownFieldError{Table: s.Table, Field: name}
		}
		sets = append(sets, fmt.Sprintf("%s = %s",
			d.Quote(f.ColumnName()), c.bind(storageValue(f, vals[name]))))
	}
	where, err := c.where(qs.filters, qs.excludes)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf("UPDATE %s SET %s%s",
		d.Quote(s.Table), strings.Join(sets, ", "), where)
	res, err := qs.mgr.db.Exec(ctx, query, c.args...)
	if err != nil {
		return 0, fmt.Errorf("updating %s: %w", s.Table, err)
	}
	return res.RowsAffected()
}

// Delete removes every matching row in one statement and returns the
// affected-row count. Like Update, it bypasses instance loading.
func (qs *QuerySet) Delete(ctx context.Context) (int64, error) {
	if qs.err != nil {
		return 0, qs.err
	}
	if qs.limit >= 0 || qs.offset > 0 {
		return 0, ErrSliced
	}
	s := qs.mgr.schema
	d := qs.mgr.db.Dialect()

	c := newCompiler(d, s)
	where, err := c.where(qs.filters, qs.excludes)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf("DELETE FROM %s%s", d.Quote(s.Table), where)
	res, err := qs.mgr.db.Exec(ctx, query, c.args...)
	if err != nil {
		return 0, fmt.Errorf("deleting from %s: %w", s.Table, err)
	}
	return res.RowsAffected()
}
