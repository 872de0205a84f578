package store

import "strings"

// SQLiteDialect uses the pure-Go modernc.org/sqlite driver.
type SQLiteDialect struct{}

func (*SQLiteDialect) Name() string                  { return "sqlite" }
func (*SQLiteDialect) DriverName() string            { return "sqlite" }
func (*SQLiteDialect) GooseDialect() string          { return "sqlite3" }
func (*SQLiteDialect) MigrationsDir() string         { return "migrations/sqlite" }
func (*SQLiteDialect) NewParamBuilder() ParamBuilder { return &numberedParams{prefix: "?"} }
func (*SQLiteDialect) NowExpr() string               { return "datetime('now')" }
func (*SQLiteDialect) LikeOperator() string          { return "LIKE" }
func (*SQLiteDialect) NeedsBoolFix() bool            { return true }

func (*SQLiteDialect) InExpr(field string, pb ParamBuilder, values []any) string {
	return expandIn(field, pb, values)
}

func (*SQLiteDialect) MapError(err error) error {
	return wrapUnique(err, func(err error) bool {
		return strings.Contains(err.Error(), "UNIQUE constraint failed")
	})
}
