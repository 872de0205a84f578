package engine

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"agency-cms/internal/metadata"
)

// EvaluateRules checks a content row before it is written. Field rules run
// before expression rules. Expressions see the merged row as "record", the
// stored row as "old" and "create" or "update" as "action".
func EvaluateRules(reg *metadata.Registry, entityName string, fields map[string]any, old map[string]any, isCreate bool) []ErrorDetail {
	rules := reg.GetRulesForEntity(entityName, metadata.HookBeforeWrite)
	if len(rules) == 0 {
		return nil
	}

	env := map[string]any{"record": fields, "old": old, "action": "update"}
	if isCreate {
		env["action"] = "create"
	}

	var errs []ErrorDetail
	for _, pass := range []string{"field", "expression"} {
		for _, r := range rules {
			if r.Type != pass {
				continue
			}
			var detail *ErrorDetail
			if pass == "field" {
				detail = EvaluateFieldRule(r, fields)
			} else {
				detail = EvaluateExpressionRule(r, env)
			}
			if detail == nil {
				continue
			}
			errs = append(errs, *detail)
			if r.Definition.StopOnFail {
				return errs
			}
		}
	}
	return errs
}

// fieldCheck reports whether val satisfies the rule argument. ok is false
// when the value or argument has the wrong type; such rules are skipped.
type fieldCheck func(val, arg any) (pass, ok bool)

var fieldChecks = map[string]fieldCheck{
	"min":        numeric(func(n, limit float64) bool { return n >= limit }),
	"max":        numeric(func(n, limit float64) bool { return n <= limit }),
	"min_length": length(func(n, limit int) bool { return n >= limit }),
	"max_length": length(func(n, limit int) bool { return n <= limit }),
	"pattern": func(val, arg any) (bool, bool) {
		s, ok := val.(string)
		pattern, okp := arg.(string)
		if !ok || !okp {
			return false, false
		}
		re, err := compilePattern(pattern)
		if err != nil {
			return false, true
		}
		return re.MatchString(s), true
	},
}

func numeric(cmp func(n, limit float64) bool) fieldCheck {
	return func(val, arg any) (bool, bool) {
		n, ok := toFloat64(val)
		limit, okl := toFloat64(arg)
		if !ok || !okl {
			return false, false
		}
		return cmp(n, limit), true
	}
}

func length(cmp func(n, limit int) bool) fieldCheck {
	return func(val, arg any) (bool, bool) {
		s, ok := val.(string)
		limit, okl := toFloat64(arg)
		if !ok || !okl {
			return false, false
		}
		return cmp(len([]rune(s)), int(limit)), true
	}
}

var patterns sync.Map // pattern string -> *regexp.Regexp

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if re, ok := patterns.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patterns.Store(pattern, re)
	return re, nil
}

// EvaluateFieldRule returns nil when the row passes the rule. Missing or null
// fields pass; presence is enforced by the field's Required flag instead.
func EvaluateFieldRule(rule *metadata.Rule, record map[string]any) *ErrorDetail {
	def := rule.Definition
	val := record[def.Field]
	check, known := fieldChecks[def.Operator]
	if val == nil || !known {
		return nil
	}
	pass, ok := check(val, def.Value)
	if !ok || pass {
		return nil
	}
	msg := def.Message
	if msg == "" {
		msg = fmt.Sprintf("field %s failed %s validation", def.Field, def.Operator)
	}
	return &ErrorDetail{Field: def.Field, Rule: def.Operator, Message: msg}
}

// CompileExpression compiles a boolean rule expression.
func CompileExpression(expression string) (*vm.Program, error) {
	prog, err := expr.Compile(expression, expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile expression: %w", err)
	}
	return prog, nil
}

// EvaluateExpressionRule reports a violation when the expression is true.
// The program is compiled on first use and cached on the rule.
func EvaluateExpressionRule(rule *metadata.Rule, env map[string]any) *ErrorDetail {
	prog, _ := rule.Compiled.(*vm.Program)
	if prog == nil {
		var err error
		if prog, err = CompileExpression(rule.Definition.Expression); err != nil {
			return &ErrorDetail{Rule: "expression", Message: err.Error()}
		}
		rule.Compiled = prog
	}

	out, err := expr.Run(prog, env)
	if err != nil {
		return &ErrorDetail{Rule: "expression", Message: fmt.Sprintf("evaluate %s: %v", rule.ID, err)}
	}
	if violated, _ := out.(bool); !violated {
		return nil
	}
	msg := rule.Definition.Message
	if msg == "" {
		msg = fmt.Sprintf("rule %s violated", rule.ID)
	}
	return &ErrorDetail{Rule: "expression", Message: msg}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
