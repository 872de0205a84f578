package store

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// PostgresDialect talks to Postgres through pgx's database/sql driver.
type PostgresDialect struct{}

func (*PostgresDialect) Name() string                  { return "postgres" }
func (*PostgresDialect) DriverName() string            { return "pgx" }
func (*PostgresDialect) GooseDialect() string          { return "postgres" }
func (*PostgresDialect) MigrationsDir() string         { return "migrations/postgres" }
func (*PostgresDialect) NewParamBuilder() ParamBuilder { return &numberedParams{prefix: "$"} }
func (*PostgresDialect) NowExpr() string               { return "NOW()" }
func (*PostgresDialect) LikeOperator() string          { return "ILIKE" }
func (*PostgresDialect) NeedsBoolFix() bool            { return false }

func (*PostgresDialect) InExpr(field string, pb ParamBuilder, values []any) string {
	return expandIn(field, pb, values)
}

func (*PostgresDialect) MapError(err error) error {
	return wrapUnique(err, func(err error) bool {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return pgErr.Code == pgUniqueViolation
		}
		return strings.Contains(err.Error(), "duplicate key")
	})
}
