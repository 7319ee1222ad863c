package database

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"

	"modernc.org/sqlite"
)

// memorySeq names private in-memory databases so each Open gets a fresh one.
var memorySeq atomic.Int64

// isMemoryDSN reports whether the DSN asks for a private in-memory database.
func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || dsn == "file::memory:"
}

// memoryDSN returns a shared-cache DSN for a fresh in-memory database.
// A plain ":memory:" gives every pooled database/sql connection its own
// empty database; a named shared-cache URI keeps the whole pool on one
// database while separate Open calls stay isolated from each other.
func memoryDSN() string {
	return fmt.Sprintf("file:ormkitmem%d?mode=memory&cache=shared", memorySeq.Add(1))
}

var regexpOnce sync.Once

// registerRegexp installs a REGEXP implementation backed by Go's regexp
// package. sqlite parses the REGEXP operator but ships no function behind
// it, so without this every regex lookup fails at execution.
func registerRegexp() {
	regexpOnce.Do(func() {
		sqlite.MustRegisterDeterministicScalarFunction("regexp", 2, regexpImpl)
	})
}

// regexpImpl evaluates "X REGEXP Y", which sqlite rewrites to regexp(Y, X).
func regexpImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	pattern, err := textArg(args[0])
	if err != nil {
		return nil, fmt.Errorf("regexp pattern: %w", err)
	}
	input, err := textArg(args[1])
	if err != nil {
		return nil, fmt.Errorf("regexp input: %w", err)
	}
	if pattern == nil || input == nil {
		return nil, nil
	}
	re, err := regexp.Compile(*pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regexp %q: %w", *pattern, err)
	}
	if re.MatchString(*input) {
		return int64(1), nil
	}
	return int64(0), nil
}

func textArg(v driver.Value) (*string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return &t, nil
	case []byte:
		s := string(t)
		return &s, nil
	}
	return nil, fmt.Errorf("expected text, got %T", v)
}
