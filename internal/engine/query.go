package engine

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"agency-cms/internal/metadata"
	"agency-cms/internal/store"
)

const maxPerPage = 500

type QueryPlan struct {
	Entity  *metadata.Entity
	Filters []WhereClause
	Sorts   []OrderClause
	Limit   int // 0 means no limit
	Offset  int
}

type WhereClause struct {
	Field    string
	Operator string
	Value    any
}

type OrderClause struct {
	Field string
	Dir   string // ASC or DESC
}

type QueryResult struct {
	SQL    string
	Params []any
}

// Eq is shorthand for an equality filter.
func Eq(field string, value any) WhereClause {
	return WhereClause{Field: field, Operator: "eq", Value: value}
}

// IsNull matches rows where field is NULL.
func IsNull(field string) WhereClause {
	return WhereClause{Field: field, Operator: "is", Value: nil}
}

// ParseQueryParams reads a table listing request.
//
//	filter[field]=v, filter[field.op]=v   eq, neq, gt, gte, lt, lte, in, not_in, like, is
//	order=display_order.asc,created_at.desc
//	sort=-created_at,title
//	limit=n&offset=n  or  page=n&per_page=n
func ParseQueryParams(c *fiber.Ctx, entity *metadata.Entity) (*QueryPlan, error) {
	plan := &QueryPlan{Entity: entity}

	for key, val := range c.Queries() {
		inner, ok := strings.CutPrefix(key, "filter[")
		if !ok || !strings.HasSuffix(inner, "]") {
			continue
		}
		name, op, found := strings.Cut(strings.TrimSuffix(inner, "]"), ".")
		if !found {
			op = "eq"
		}
		field := entity.GetField(name)
		if field == nil {
			return nil, unknownField("filter", name)
		}
		value, err := coerceValue(field, val, op)
		if err != nil {
			return nil, InvalidPayloadError(fmt.Sprintf("Invalid filter value for %s: %v", name, err))
		}
		plan.Filters = append(plan.Filters, WhereClause{Field: name, Operator: op, Value: value})
	}

	for _, part := range splitList(c.Query("order")) {
		name, dir, _ := strings.Cut(part, ".")
		dir = strings.ToUpper(cmp.Or(dir, "asc"))
		if dir != "ASC" && dir != "DESC" {
			return nil, InvalidPayloadError(fmt.Sprintf("Invalid order direction: %s", part))
		}
		if err := plan.addSort(name, dir, "order"); err != nil {
			return nil, err
		}
	}
	for _, part := range splitList(c.Query("sort")) {
		name, desc := strings.CutPrefix(part, "-")
		dir := "ASC"
		if desc {
			dir = "DESC"
		}
		if err := plan.addSort(name, dir, "sort"); err != nil {
			return nil, err
		}
	}

	if v := positive(c.Query("limit")); v > 0 {
		plan.Limit = min(v, maxPerPage)
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v >= 0 {
		plan.Offset = v
	}
	if v := positive(c.Query("per_page")); v > 0 {
		plan.Limit = min(v, maxPerPage)
		page := max(positive(c.Query("page")), 1)
		plan.Offset = (page - 1) * plan.Limit
	}
	return plan, nil
}

func (p *QueryPlan) addSort(field, dir, param string) error {
	if !p.Entity.HasField(field) {
		return unknownField(param, field)
	}
	p.Sorts = append(p.Sorts, OrderClause{Field: field, Dir: dir})
	return nil
}

func unknownField(param, field string) *AppError {
	return NewAppError("UNKNOWN_FIELD", fiber.StatusBadRequest, fmt.Sprintf("Unknown %s field: %s", param, field))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// positive returns 0 unless s is a non-negative integer.
func positive(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// BuildSelectSQL builds a parameterized SELECT statement from the query plan.
func BuildSelectSQL(plan *QueryPlan, dialect store.Dialect) QueryResult {
	pb := dialect.NewParamBuilder()
	entity := plan.Entity

	columns := strings.Join(entity.FieldNames(), ", ")
	sql := fmt.Sprintf("SELECT %s FROM %s", columns, entity.Table)
	if where := buildWhere(plan.Filters, pb, dialect); where != "" {
		sql += " WHERE " + where
	}

	if len(plan.Sorts) > 0 {
		orderParts := make([]string, 0, len(plan.Sorts))
		for _, s := range plan.Sorts {
			orderParts = append(orderParts, fmt.Sprintf("%s %s", s.Field, s.Dir))
		}
		sql += " ORDER BY " + strings.Join(orderParts, ", ")
	} else {
		sql += " ORDER BY " + entity.DefaultOrder()
	}

	if plan.Limit > 0 {
		limit := pb.Add(plan.Limit)
		offset := pb.Add(plan.Offset)
		sql += fmt.Sprintf(" LIMIT %s OFFSET %s", limit, offset)
	}

	return QueryResult{SQL: sql, Params: pb.Params()}
}

// BuildCountSQL builds a COUNT query with the same filters as the select.
func BuildCountSQL(plan *QueryPlan, dialect store.Dialect) QueryResult {
	pb := dialect.NewParamBuilder()
	sql := fmt.Sprintf("SELECT COUNT(*) AS count FROM %s", plan.Entity.Table)
	if where := buildWhere(plan.Filters, pb, dialect); where != "" {
		sql += " WHERE " + where
	}
	return QueryResult{SQL: sql, Params: pb.Params()}
}

func buildWhere(filters []WhereClause, pb store.ParamBuilder, dialect store.Dialect) string {
	if len(filters) == 0 {
		return ""
	}
	clauses := make([]string, 0, len(filters))
	for _, f := range filters {
		clauses = append(clauses, buildWhereClause(f, pb, dialect))
	}
	return strings.Join(clauses, " AND ")
}

var comparisons = map[string]string{
	"eq": "=", "": "=", "neq": "!=",
	"gt": ">", "gte": ">=", "lt": "<", "lte": "<=",
}

func buildWhereClause(f WhereClause, pb store.ParamBuilder, dialect store.Dialect) string {
	switch f.Operator {
	case "in":
		values, _ := f.Value.([]any)
		return dialect.InExpr(f.Field, pb, values)
	case "not_in":
		values, _ := f.Value.([]any)
		return "NOT (" + dialect.InExpr(f.Field, pb, values) + ")"
	case "like":
		return f.Field + " " + dialect.LikeOperator() + " " + pb.Add(f.Value)
	case "is":
		if f.Value == nil {
			return f.Field + " IS NULL"
		}
		return f.Field + " IS NOT NULL"
	}
	op, ok := comparisons[f.Operator]
	if !ok {
		op = "="
	}
	if f.Value == nil && op == "=" {
		return f.Field + " IS NULL"
	}
	return f.Field + " " + op + " " + pb.Add(f.Value)
}

// coerceValue converts a query string value to the field's column type.
func coerceValue(field *metadata.Field, val string, op string) (any, error) {
	if op == "in" || op == "not_in" {
		parts := strings.Split(val, ",")
		coerced := make([]any, len(parts))
		for i, p := range parts {
			v, err := coerceSingleValue(field, strings.TrimSpace(p))
			if err != nil {
				return nil, err
			}
			coerced[i] = v
		}
		return coerced, nil
	}

	// filter[parent_id.is]=null / filter[parent_id.is]=not.null
	if op == "is" {
		if val == "null" {
			return nil, nil
		}
		return true, nil
	}

	return coerceSingleValue(field, val)
}

func coerceSingleValue(field *metadata.Field, val string) (any, error) {
	switch field.Type {
	case "int":
		return strconv.Atoi(val)
	case "bigint":
		return strconv.ParseInt(val, 10, 64)
	case "boolean":
		return strconv.ParseBool(val)
	default:
		return val, nil
	}
}
