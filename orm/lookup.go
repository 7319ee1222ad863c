package orm

import (
	"sort"
	"strings"

	"github.com/ormkit/ormkit/schema"
)

// Lookup is a typed comparison operator applied to a field in a predicate.
// The SQL compiler switches over this set exhaustively; the string DSL in Q
// parses onto it and is the only place an unknown lookup can appear.
type Lookup string

const (
	Exact       Lookup = "exact"
	IExact      Lookup = "iexact"
	Contains    Lookup = "contains"
	IContains   Lookup = "icontains"
	In          Lookup = "in"
	Gt          Lookup = "gt"
	Gte         Lookup = "gte"
	Lt          Lookup = "lt"
	Lte         Lookup = "lte"
	StartsWith  Lookup = "startswith"
	IStartsWith Lookup = "istartswith"
	EndsWith    Lookup = "endswith"
	IEndsWith   Lookup = "iendswith"
	Range       Lookup = "range"
	IsNull      Lookup = "isnull"
	Regex       Lookup = "regex"
	IRegex      Lookup = "iregex"

	// Temporal decomposition lookups compare one extracted date part.
	Year    Lookup = "year"
	Month   Lookup = "month"
	Day     Lookup = "day"
	Week    Lookup = "week"
	WeekDay Lookup = "week_day"
	Quarter Lookup = "quarter"
	Hour    Lookup = "hour"
	Minute  Lookup = "minute"
	Second  Lookup = "second"
)

var lookups = map[string]Lookup{}

func init() {
	for _, l := range []Lookup{
		Exact, IExact, Contains, IContains, In, Gt, Gte, Lt, Lte,
		StartsWith, IStartsWith, EndsWith, IEndsWith, Range, IsNull,
		Regex, IRegex,
		Year, Month, Day, Week, WeekDay, Quarter, Hour, Minute, Second,
	} {
		lookups[string(l)] = l
	}
}

// Predicate is one compiled-ready filter condition.
type Predicate struct {
	Field  string
	Lookup Lookup
	Value  any
}

// FieldRef is the typed entry point of the predicate builder: F("price").Gte(v).
type FieldRef struct {
	name string
}

// F references a schema field by name for predicate building.
func F(name string) FieldRef { return FieldRef{name: name} }

func (f FieldRef) pred(l Lookup, v any) Predicate {
	return Predicate{Field: f.name, Lookup: l, Value: v}
}

func (f FieldRef) Exact(v any) Predicate       { return f.pred(Exact, v) }
func (f FieldRef) IExact(v any) Predicate      { return f.pred(IExact, v) }
func (f FieldRef) Contains(v any) Predicate    { return f.pred(Contains, v) }
func (f FieldRef) IContains(v any) Predicate   { return f.pred(IContains, v) }
func (f FieldRef) In(vs ...any) Predicate      { return f.pred(In, vs) }
func (f FieldRef) Gt(v any) Predicate          { return f.pred(Gt, v) }
func (f FieldRef) Gte(v any) Predicate         { return f.pred(Gte, v) }
func (f FieldRef) Lt(v any) Predicate          { return f.pred(Lt, v) }
func (f FieldRef) Lte(v any) Predicate         { return f.pred(Lte, v) }
func (f FieldRef) StartsWith(v any) Predicate  { return f.pred(StartsWith, v) }
func (f FieldRef) IStartsWith(v any) Predicate { return f.pred(IStartsWith, v) }
func (f FieldRef) EndsWith(v any) Predicate    { return f.pred(EndsWith, v) }
func (f FieldRef) IEndsWith(v any) Predicate   { return f.pred(IEndsWith, v) }
func (f FieldRef) Between(lo, hi any) Predicate {
	return f.pred(Range, []any{lo, hi})
}
func (f FieldRef) IsNull(null bool) Predicate  { return f.pred(IsNull, null) }
func (f FieldRef) Regex(pat string) Predicate  { return f.pred(Regex, pat) }
func (f FieldRef) IRegex(pat string) Predicate { return f.pred(IRegex, pat) }

func (f FieldRef) Year(n int) Predicate    { return f.pred(Year, n) }
func (f FieldRef) Month(n int) Predicate   { return f.pred(Month, n) }
func (f FieldRef) Day(n int) Predicate     { return f.pred(Day, n) }
func (f FieldRef) Week(n int) Predicate    { return f.pred(Week, n) }
func (f FieldRef) WeekDay(n int) Predicate { return f.pred(WeekDay, n) }
func (f FieldRef) Quarter(n int) Predicate { return f.pred(Quarter, n) }
func (f FieldRef) Hour(n int) Predicate    { return f.pred(Hour, n) }
func (f FieldRef) Minute(n int) Predicate  { return f.pred(Minute, n) }
func (f FieldRef) Second(n int) Predicate  { return f.pred(Second, n) }

// Q is the string-keyed filter surface: keys are "field" or "field__lookup".
type Q map[string]any

// parseQ resolves a Q map into predicates. Keys are processed in sorted
// order so the compiled SQL is deterministic. An unknown field or lookup
// suffix is a hard error.
func parseQ(s *schema.Schema, q Q) ([]Predicate, error) {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	preds := make([]Predicate, 0, len(keys))
	for _, key := range keys {
		p, err := parseKey(s, key, q[key])
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}

func parseKey(s *schema.Schema, key string, value any) (Predicate, error) {
	// A bare field name is an exact match, even when it contains "__".
	if _, ok := s.Field(key); ok {
		return Predicate{Field: key, Lookup: Exact, Value: value}, nil
	}

	i := strings.Index(key, "__")
	if i < 0 {
		return Predicate{}, &UnknownFieldError{Table: s.Table, Field: key}
	}
	field, suffix := key[:i], key[i+2:]
	if _, ok := s.Field(field); !ok {
		return Predicate{}, &UnknownFieldError{Table: s.Table, Field: field}
	}
	l, ok := lookups[suffix]
	if !ok {
		return Predicate{}, &UnknownLookupError{Field: field, Lookup: suffix}
	}
	return Predicate{Field: field, Lookup: l, Value: value}, nil
}
