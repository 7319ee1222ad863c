package orm

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/ormkit/ormkit/database"
	"github.com/ormkit/ormkit/fields"
	"github.com/ormkit/ormkit/schema"
)

// compiler accumulates bind arguments while rendering predicates for one
// statement. A fresh compiler is built per terminal operation.
type compiler struct {
	d    database.Dialect
	s    *schema.Schema
	args []any
}

func newCompiler(d database.Dialect, s *schema.Schema) *compiler {
	return &compiler{d: d, s: s}
}

func (c *compiler) bind(v any) string {
	c.args = append(c.args, v)
	return c.d.Placeholder(len(c.args))
}

// where renders the conjunction of every filter predicate plus every exclude
// group, each group independently negated: A AND B AND NOT (C AND D) AND
// NOT (E). Returns "" when nothing filters.
func (c *compiler) where(filters []Predicate, excludes [][]Predicate) (string, error) {
	var parts []string
	for _, p := range filters {
		sql, err := c.predicate(p)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}
	for _, group := range excludes {
		if len(group) == 0 {
			continue
		}
		sub := make([]string, 0, len(group))
		for _, p := range group {
			sql, err := c.predicate(p)
			if err != nil {
				return "", err
			}
			sub = append(sub, sql)
		}
		parts = append(parts, "NOT ("+strings.Join(sub, " AND ")+")")
	}
	if len(parts) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(parts, " AND "), nil
}

func (c *compiler) predicate(p Predicate) (string, error) {
	f, ok := c.s.Field(p.Field)
	if !ok {
		return "", &UnknownFieldError{Table: c.s.Table, Field: p.Field}
	}
	col := c.d.Quote(f.ColumnName())

	switch p.Lookup {
	case Exact:
		if p.Value == nil {
			return col + " IS NULL", nil
		}
		return fmt.Sprintf("%s = %s", col, c.bind(storageValue(f, p.Value))), nil

	case IExact:
		return fmt.Sprintf("LOWER(%s) = LOWER(%s)", col, c.bind(stringOf(p.Value))), nil

	case Gt, Gte, Lt, Lte:
		return fmt.Sprintf("%s %s %s", col, comparisons[p.Lookup], c.bind(storageValue(f, p.Value))), nil

	case Contains:
		return c.like(col, "%"+escapeLike(stringOf(p.Value))+"%", false), nil
	case IContains:
		return c.like(col, "%"+escapeLike(stringOf(p.Value))+"%", true), nil
	case StartsWith:
		return c.like(col, escapeLike(stringOf(p.Value))+"%", false), nil
	case IStartsWith:
		return c.like(col, escapeLike(stringOf(p.Value))+"%", true), nil
	case EndsWith:
		return c.like(col, "%"+escapeLike(stringOf(p.Value)), false), nil
	case IEndsWith:
		return c.like(col, "%"+escapeLike(stringOf(p.Value)), true), nil

	case In:
		items, ok := sliceOf(p.Value)
		if !ok {
			return "", fmt.Errorf("in lookup on %s requires a slice, got %T", p.Field, p.Value)
		}
		if len(items) == 0 {
			// An empty set matches nothing.
			return "1 = 0", nil
		}
		phs := make([]string, len(items))
		for i, item := range items {
			phs[i] = c.bind(storageValue(f, item))
		}
		return fmt.Sprintf("%s IN (%s)", col, strings.Join(phs, ", ")), nil

	case Range:
		items, ok := sliceOf(p.Value)
		if !ok || len(items) != 2 {
			return "", fmt.Errorf("range lookup on %s requires exactly two values", p.Field)
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s",
			col, c.bind(storageValue(f, items[0])), c.bind(storageValue(f, items[1]))), nil

	case IsNull:
		null, ok := p.Value.(bool)
		if !ok {
			return "", fmt.Errorf("isnull lookup on %s requires a bool, got %T", p.Field, p.Value)
		}
		if null {
			return col + " IS NULL", nil
		}
		return col + " IS NOT NULL", nil

	case Regex:
		return fmt.Sprintf("%s %s %s", col, c.d.Regexp(false), c.bind(stringOf(p.Value))), nil
	case IRegex:
		op := c.d.Regexp(true)
		pat := stringOf(p.Value)
		if op == c.d.Regexp(false) {
			// no case-insensitive operator on this backend; fold via the pattern
			pat = "(?i)" + pat
		}
		return fmt.Sprintf("%s %s %s", col, op, c.bind(pat)), nil

	case Year, Month, Day, Week, WeekDay, Quarter, Hour, Minute, Second:
		return fmt.Sprintf("%s = %s", c.d.Extract(string(p.Lookup), col), c.bind(p.Value)), nil
	}

	return "", &UnknownLookupError{Field: p.Field, Lookup: string(p.Lookup)}
}

var comparisons = map[Lookup]string{
	Gt:  ">",
	Gte: ">=",
	Lt:  "<",
	Lte: "<=",
}

// like renders a LIKE predicate with an explicit backslash escape so %, _
// and \ in user input match literally on every backend.
func (c *compiler) like(col, pattern string, insensitive bool) string {
	ph := c.bind(pattern)
	if insensitive {
		return fmt.Sprintf("LOWER(%s) LIKE LOWER(%s) ESCAPE '\\'", col, ph)
	}
	return fmt.Sprintf("%s LIKE %s ESCAPE '\\'", col, ph)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// storageValue converts a filter value to its driver representation via the
// field's coercion rules; values the field rejects pass through unchanged so
// comparisons stay permissive.
func storageValue(f fields.Field, v any) any {
	canonical, err := f.Validate(v)
	if err != nil {
		return v
	}
	stored, err := f.ToStorage(canonical)
	if err != nil {
		return v
	}
	return stored
}

func stringOf(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func sliceOf(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}
