package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver "pgx"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // database/sql driver "sqlite"

	"agency-cms/internal/config"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUniqueViolation = errors.New("unique constraint violation")
)

// Querier is satisfied by *sqlx.DB and *sqlx.Tx.
type Querier interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

// Store is the content database: one connection pool and its SQL dialect.
type Store struct {
	DB      *sqlx.DB
	Dialect Dialect
}

// sqlitePragmas are applied once per connection. SQLite gets a single
// connection so an in-memory database is shared by every query.
var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
}

// New opens the configured database and brings its schema up to date.
func New(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	if cfg.Driver == "" {
		cfg.Driver = "postgres"
	}
	dialect := NewDialect(cfg.Driver)

	db, err := sqlx.Open(dialect.DriverName(), cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	s := &Store{DB: db, Dialect: dialect}
	if err := s.prepare(ctx, cfg); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) prepare(ctx context.Context, cfg config.DatabaseConfig) error {
	switch {
	case cfg.IsSQLite():
		s.DB.SetMaxOpenConns(1)
		for _, pragma := range sqlitePragmas {
			if _, err := s.DB.ExecContext(ctx, pragma); err != nil {
				return fmt.Errorf("%s: %w", pragma, err)
			}
		}
	case cfg.PoolSize > 0:
		s.DB.SetMaxOpenConns(cfg.PoolSize)
		s.DB.SetMaxIdleConns(cfg.PoolSize)
	}

	if err := s.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return s.Migrate(ctx)
}

func (s *Store) Close() {
	if err := s.DB.Close(); err != nil {
		log.Printf("WARN: close database: %v", err)
	}
}

// Ping is used by the health check.
func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Rebind rewrites '?' placeholders for the dialect.
func (s *Store) Rebind(query string) string {
	return s.DB.Rebind(query)
}

// QueryRows runs a query and returns every row as a column map. Text
// timestamps become time.Time; booleans are left to NormalizeBooleans.
func QueryRows(ctx context.Context, q Querier, query string, args ...any) ([]map[string]any, error) {
	rows, err := q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		for col, v := range row {
			row[col] = normalizeValue(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// QueryRow returns the first row or ErrNotFound.
func QueryRow(ctx context.Context, q Querier, query string, args ...any) (map[string]any, error) {
	rows, err := QueryRows(ctx, q, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// Exec runs a statement and returns the affected row count.
func Exec(ctx context.Context, q Querier, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// MapError translates driver errors into ErrUniqueViolation where possible.
func MapError(dialect Dialect, err error) error {
	if err == nil {
		return nil
	}
	return dialect.MapError(err)
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return normalizeText(string(val))
	case string:
		return normalizeText(val)
	case [16]byte:
		return fmt.Sprintf("%x-%x-%x-%x-%x", val[0:4], val[4:6], val[6:8], val[8:10], val[10:16])
	default:
		return val
	}
}

var timestampLayouts = []string{"2006-01-02 15:04:05", time.RFC3339Nano}

// normalizeText turns SQLite text timestamps into time.Time.
func normalizeText(s string) any {
	if len(s) < 19 || s[4] != '-' || (s[10] != ' ' && s[10] != 'T') {
		return s
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return s
}

// NormalizeBooleans converts SQLite 0/1 integers to bool for the named columns.
func NormalizeBooleans(rows []map[string]any, boolFields []string) {
	for _, row := range rows {
		for _, f := range boolFields {
			switch val := row[f].(type) {
			case int64:
				row[f] = val != 0
			case int:
				row[f] = val != 0
			case float64:
				row[f] = val != 0
			}
		}
	}
}

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
