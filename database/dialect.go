package database

import (
	"fmt"
	"strings"
)

// Dialect abstracts the SQL differences between supported backends. The ORM
// core compiles against this interface only; nothing outside this package
// mentions a concrete backend.
type Dialect interface {
	Name() string
	// Placeholder returns the bind-parameter marker for the 1-based position.
	Placeholder(n int) string
	// Quote wraps an identifier in the dialect's quoting characters.
	Quote(ident string) string
	// ColumnType maps a generic storage type to the backend's column type.
	ColumnType(generic string) string
	// AutoPK is the full column definition for an auto-incrementing
	// integer primary key.
	AutoPK() string
	// SupportsReturning reports whether INSERT ... RETURNING works.
	SupportsReturning() bool
	// Regexp returns the regular-expression match operator.
	Regexp(caseInsensitive bool) string
	// Extract returns the SQL extracting a date part from an expression.
	// Supported parts: year, month, day, week, week_day, quarter, hour,
	// minute, second.
	Extract(part, expr string) string
	// Limit renders the LIMIT/OFFSET clause; -1 means absent.
	Limit(limit, offset int) string
	// CurrentTimestamp is the DDL default expression for "now".
	CurrentTimestamp() string
}

// ByName resolves a dialect from a driver name.
func ByName(name string) (Dialect, error) {
	switch name {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return nil, fmt.Errorf("database: unsupported driver %q", name)
}

var (
	Postgres Dialect = postgresDialect{}
	SQLite   Dialect = sqliteDialect{}
)

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgresDialect) Quote(ident string) string { return `"` + ident + `"` }

func (postgresDialect) ColumnType(generic string) string {
	switch generic {
	case "BLOB":
		return "BYTEA"
	}
	return generic
}

func (postgresDialect) AutoPK() string { return "SERIAL PRIMARY KEY" }

func (postgresDialect) SupportsReturning() bool { return true }

func (postgresDialect) Regexp(caseInsensitive bool) string {
	if caseInsensitive {
		return "~*"
	}
	return "~"
}

func (postgresDialect) Extract(part, expr string) string {
	if part == "week_day" {
		part = "dow"
	}
	return fmt.Sprintf("EXTRACT(%s FROM %s)", strings.ToUpper(part), expr)
}

func (postgresDialect) Limit(limit, offset int) string {
	var b strings.Builder
	if limit >= 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}
	if offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", offset)
	}
	return b.String()
}

func (postgresDialect) CurrentTimestamp() string { return "now()" }

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) Placeholder(n int) string { return "?" }

func (sqliteDialect) Quote(ident string) string { return `"` + ident + `"` }

func (sqliteDialect) ColumnType(generic string) string {
	switch generic {
	case "UUID":
		return "TEXT"
	case "DOUBLE PRECISION":
		return "REAL"
	case "SERIAL":
		// INTEGER PRIMARY KEY aliases the rowid and auto-assigns.
		return "INTEGER"
	}
	return generic
}

func (sqliteDialect) AutoPK() string { return "INTEGER PRIMARY KEY AUTOINCREMENT" }

func (sqliteDialect) SupportsReturning() bool { return false }

// Regexp relies on the REGEXP function Open registers with the driver.
// There is no case-insensitive variant; callers fold case in the pattern.
func (sqliteDialect) Regexp(caseInsensitive bool) string { return "REGEXP" }

func (sqliteDialect) Extract(part, expr string) string {
	switch part {
	case "quarter":
		return fmt.Sprintf("((CAST(strftime('%%m', %s) AS INTEGER) + 2) / 3)", expr)
	case "week":
		return fmt.Sprintf("CAST(strftime('%%W', %s) AS INTEGER)", expr)
	case "week_day":
		return fmt.Sprintf("CAST(strftime('%%w', %s) AS INTEGER)", expr)
	}
	formats := map[string]string{
		"year":   "%Y",
		"month":  "%m",
		"day":    "%d",
		"hour":   "%H",
		"minute": "%M",
		"second": "%S",
	}
	return fmt.Sprintf("CAST(strftime('%s', %s) AS INTEGER)", formats[part], expr)
}

func (sqliteDialect) Limit(limit, offset int) string {
	if limit < 0 && offset <= 0 {
		return ""
	}
	if limit < 0 {
		// sqlite requires a LIMIT before OFFSET
		return fmt.Sprintf(" LIMIT -1 OFFSET %d", offset)
	}
	var b strings.Builder
	fmt.Fprintf(&b, " LIMIT %d", limit)
	if offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", offset)
	}
	return b.String()
}

func (sqliteDialect) CurrentTimestamp() string { return "CURRENT_TIMESTAMP" }
