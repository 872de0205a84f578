package store

import (
	"strconv"
	"strings"
)

// Dialect covers the SQL differences between Postgres and SQLite that the
// content repository and migrations care about.
type Dialect interface {
	Name() string
	// DriverName is the database/sql driver: "pgx" or "sqlite".
	DriverName() string
	GooseDialect() string
	// MigrationsDir is relative to the embedded migrations FS.
	MigrationsDir() string
	NewParamBuilder() ParamBuilder
	NowExpr() string
	InExpr(field string, pb ParamBuilder, values []any) string
	// LikeOperator is the case-insensitive match operator.
	LikeOperator() string
	// MapError wraps unique violations with ErrUniqueViolation.
	MapError(err error) error
	// NeedsBoolFix is true when booleans are read back as integers.
	NeedsBoolFix() bool
}

// ParamBuilder collects positional arguments while a statement is built.
type ParamBuilder interface {
	// Add records v and returns its placeholder.
	Add(v any) string
	Params() []any
}

// NewDialect returns the SQLite dialect for "sqlite" and Postgres otherwise.
func NewDialect(driver string) Dialect {
	if driver == "sqlite" {
		return &SQLiteDialect{}
	}
	return &PostgresDialect{}
}

// numberedParams renders placeholders as prefix followed by the 1-based
// argument index: $1 for Postgres, ?1 for SQLite.
type numberedParams struct {
	prefix string
	args   []any
}

func (p *numberedParams) Add(v any) string {
	p.args = append(p.args, v)
	return p.prefix + strconv.Itoa(len(p.args))
}

func (p *numberedParams) Params() []any { return p.args }

// expandIn renders field IN (...). An empty list matches nothing.
func expandIn(field string, pb ParamBuilder, values []any) string {
	if len(values) == 0 {
		return "1=0"
	}
	phs := make([]string, len(values))
	for i, v := range values {
		phs[i] = pb.Add(v)
	}
	return field + " IN (" + strings.Join(phs, ", ") + ")"
}

// wrapUnique marks err as a unique violation when matches reports one.
func wrapUnique(err error, matches func(error) bool) error {
	if err == nil || !matches(err) {
		return err
	}
	return &uniqueError{err: err}
}

type uniqueError struct{ err error }

func (e *uniqueError) Error() string   { return ErrUniqueViolation.Error() + ": " + e.err.Error() }
func (e *uniqueError) Unwrap() []error { return []error{ErrUniqueViolation, e.err} }
