package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"agency-cms/internal/metadata"
	"agency-cms/internal/store"
)

// Repository executes row operations against registry entities. It is the
// single place where JSON columns are encoded and booleans are normalised.
type Repository struct {
	store    *store.Store
	registry *metadata.Registry
}

func NewRepository(s *store.Store, reg *metadata.Registry) *Repository {
	return &Repository{store: s, registry: reg}
}

// Registry exposes the entity catalogue the repository serves.
func (r *Repository) Registry() *metadata.Registry { return r.registry }

// Ping checks that the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// Entity resolves an entity by name.
func (r *Repository) Entity(name string) (*metadata.Entity, error) {
	entity := r.registry.GetEntity(name)
	if entity == nil {
		return nil, UnknownEntityError(name)
	}
	return entity, nil
}

// Find runs the plan and returns decoded rows (never nil).
func (r *Repository) Find(ctx context.Context, plan *QueryPlan) ([]map[string]any, error) {
	qr := BuildSelectSQL(plan, r.store.Dialect)
	rows, err := store.QueryRows(ctx, r.store.DB, qr.SQL, qr.Params...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", plan.Entity.Name, err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	r.decodeRows(plan.Entity, rows)
	return rows, nil
}

// Count returns the number of rows matching the plan's filters.
func (r *Repository) Count(ctx context.Context, plan *QueryPlan) (int64, error) {
	cr := BuildCountSQL(plan, r.store.Dialect)
	row, err := store.QueryRow(ctx, r.store.DB, cr.SQL, cr.Params...)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", plan.Entity.Name, err)
	}
	n, _ := toFloat64(row["count"])
	return int64(n), nil
}

// List is a convenience wrapper for Find by entity name.
func (r *Repository) List(ctx context.Context, entityName string, filters ...WhereClause) ([]map[string]any, error) {
	entity, err := r.Entity(entityName)
	if err != nil {
		return nil, err
	}
	return r.Find(ctx, &QueryPlan{Entity: entity, Filters: filters})
}

// Get fetches one row by primary key.
func (r *Repository) Get(ctx context.Context, entityName, id string) (map[string]any, error) {
	entity, err := r.Entity(entityName)
	if err != nil {
		return nil, err
	}
	return r.fetch(ctx, entity, id)
}

func (r *Repository) fetch(ctx context.Context, entity *metadata.Entity, id string) (map[string]any, error) {
	pb := r.store.Dialect.NewParamBuilder()
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		strings.Join(entity.FieldNames(), ", "), entity.Table, entity.PrimaryKey.Field, pb.Add(id))
	row, err := store.QueryRow(ctx, r.store.DB, sql, pb.Params()...)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, NotFoundError(entity.Name, id)
		}
		return nil, fmt.Errorf("get %s/%s: %w", entity.Name, id, err)
	}
	r.decodeRows(entity, []map[string]any{row})
	return row, nil
}

// Insert validates body and inserts a new row with a generated id.
func (r *Repository) Insert(ctx context.Context, entityName string, body map[string]any) (map[string]any, error) {
	entity, err := r.Entity(entityName)
	if err != nil {
		return nil, err
	}

	fields, details := PlanWrite(entity, body, true)
	id := uuid.New().String()
	fields[entity.PrimaryKey.Field] = id
	details = append(details, EvaluateRules(r.registry, entity.Name, fields, nil, true)...)
	if len(details) > 0 {
		return nil, ValidationError(details)
	}

	pb := r.store.Dialect.NewParamBuilder()
	cols := make([]string, 0, len(fields))
	phs := make([]string, 0, len(fields))
	for _, f := range entity.Fields {
		v, ok := fields[f.Name]
		if !ok {
			continue
		}
		cols = append(cols, f.Name)
		phs = append(phs, pb.Add(encodeValue(f, v)))
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", entity.Table, strings.Join(cols, ", "), strings.Join(phs, ", "))
	if _, err := store.Exec(ctx, r.store.DB, sql, pb.Params()...); err != nil {
		return nil, r.mapWriteError(entity, err)
	}
	return r.fetch(ctx, entity, id)
}

// Update writes the updatable fields present in body and stamps updated_at
// with the database clock.
func (r *Repository) Update(ctx context.Context, entityName, id string, body map[string]any) (map[string]any, error) {
	entity, err := r.Entity(entityName)
	if err != nil {
		return nil, err
	}

	current, err := r.fetch(ctx, entity, id)
	if err != nil {
		return nil, err
	}

	fields, details := PlanWrite(entity, body, false)
	merged := make(map[string]any, len(current)+len(fields))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	details = append(details, EvaluateRules(r.registry, entity.Name, merged, current, false)...)
	if len(details) > 0 {
		return nil, ValidationError(details)
	}

	pb := r.store.Dialect.NewParamBuilder()
	var sets []string
	for _, f := range entity.UpdatableFields() {
		v, ok := fields[f.Name]
		if !ok {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = %s", f.Name, pb.Add(encodeValue(f, v))))
	}
	if entity.HasField("updated_at") {
		sets = append(sets, "updated_at = "+r.store.Dialect.NowExpr())
	}
	if len(sets) == 0 {
		return current, nil
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		entity.Table, strings.Join(sets, ", "), entity.PrimaryKey.Field, pb.Add(id))
	affected, err := store.Exec(ctx, r.store.DB, sql, pb.Params()...)
	if err != nil {
		return nil, r.mapWriteError(entity, err)
	}
	if affected == 0 {
		return nil, NotFoundError(entity.Name, id)
	}
	return r.fetch(ctx, entity, id)
}

// Delete removes one row by primary key.
func (r *Repository) Delete(ctx context.Context, entityName, id string) error {
	entity, err := r.Entity(entityName)
	if err != nil {
		return err
	}
	pb := r.store.Dialect.NewParamBuilder()
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", entity.Table, entity.PrimaryKey.Field, pb.Add(id))
	affected, err := store.Exec(ctx, r.store.DB, sql, pb.Params()...)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", entity.Name, id, err)
	}
	if affected == 0 {
		return NotFoundError(entity.Name, id)
	}
	return nil
}

func (r *Repository) mapWriteError(entity *metadata.Entity, err error) error {
	mapped := store.MapError(r.store.Dialect, err)
	if errors.Is(mapped, store.ErrUniqueViolation) {
		return ConflictError(fmt.Sprintf("A %s record with this value already exists", entity.Name))
	}
	return fmt.Errorf("write %s: %w", entity.Name, mapped)
}

func (r *Repository) decodeRows(entity *metadata.Entity, rows []map[string]any) {
	if r.store.Dialect.NeedsBoolFix() {
		store.NormalizeBooleans(rows, entity.BoolFields())
	}
	for _, f := range entity.Fields {
		if !f.IsJSON() {
			continue
		}
		for _, row := range rows {
			row[f.Name] = decodeJSON(row[f.Name])
		}
	}
}

// PlanWrite picks the client-settable fields out of body and coerces them to
// the column types. Keys the entity does not know, and generated columns,
// are ignored so a full row read from the API can be written back as-is.
func PlanWrite(entity *metadata.Entity, body map[string]any, isCreate bool) (map[string]any, []ErrorDetail) {
	candidates := entity.UpdatableFields()
	if isCreate {
		candidates = entity.WritableFields()
	}

	fields := make(map[string]any)
	var errs []ErrorDetail
	for _, f := range candidates {
		raw, present := body[f.Name]
		if !present {
			if isCreate && f.Required {
				errs = append(errs, ErrorDetail{Field: f.Name, Rule: "required", Message: fmt.Sprintf("%s is required", f.Name)})
			}
			continue
		}
		v, err := coerceBodyValue(f, raw)
		if err != nil {
			errs = append(errs, ErrorDetail{Field: f.Name, Rule: "type", Message: err.Error()})
			continue
		}
		if f.Required && isBlank(v) {
			errs = append(errs, ErrorDetail{Field: f.Name, Rule: "required", Message: fmt.Sprintf("%s is required", f.Name)})
			continue
		}
		fields[f.Name] = v
	}
	return fields, errs
}

func coerceBodyValue(f metadata.Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f.Type {
	case "int", "bigint":
		switch n := v.(type) {
		case string:
			if n == "" {
				return nil, nil
			}
			i, err := strconv.ParseInt(n, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%s must be an integer", f.Name)
			}
			return i, nil
		default:
			num, ok := toFloat64(v)
			if !ok {
				return nil, fmt.Errorf("%s must be an integer", f.Name)
			}
			return int64(num), nil
		}
	case "boolean":
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return nil, fmt.Errorf("%s must be a boolean", f.Name)
			}
			return parsed, nil
		default:
			num, ok := toFloat64(v)
			if !ok {
				return nil, fmt.Errorf("%s must be a boolean", f.Name)
			}
			return num != 0, nil
		}
	case "uuid":
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a uuid string", f.Name)
		}
		if s == "" {
			return nil, nil
		}
		if _, err := uuid.Parse(s); err != nil {
			return nil, fmt.Errorf("%s must be a valid uuid", f.Name)
		}
		return s, nil
	case "json":
		return v, nil
	default:
		switch s := v.(type) {
		case string:
			return s, nil
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64), nil
		case bool:
			return strconv.FormatBool(s), nil
		default:
			return nil, fmt.Errorf("%s must be a string", f.Name)
		}
	}
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// encodeValue converts a coerced value into a driver argument.
func encodeValue(f metadata.Field, v any) any {
	if v == nil || !f.IsJSON() {
		return v
	}
	if s, ok := v.(string); ok && json.Valid([]byte(s)) {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("WARN: encode %s: %v", f.Name, err)
		return nil
	}
	return string(b)
}

func decodeJSON(v any) any {
	var raw []byte
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		raw = []byte(val)
	case []byte:
		raw = val
	default:
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return string(raw)
	}
	return out
}
