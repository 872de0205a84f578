package metadata

// RuleDefinition is the content of a validation rule.
type RuleDefinition struct {
	// Field rules
	Field    string `json:"field,omitempty"`
	Operator string `json:"operator,omitempty"` // min, max, min_length, max_length, pattern
	Value    any    `json:"value,omitempty"`

	// Expression rules: a violation is reported when the expression is true.
	Expression string `json:"expression,omitempty"`

	Message    string `json:"message,omitempty"`
	StopOnFail bool   `json:"stop_on_fail,omitempty"`
}

// Rule is a validation rule attached to an entity write.
type Rule struct {
	ID         string         `json:"id"`
	Entity     string         `json:"entity"`
	Hook       string         `json:"hook"`
	Type       string         `json:"type"` // "field" or "expression"
	Definition RuleDefinition `json:"definition"`
	Priority   int            `json:"priority"`
	Active     bool           `json:"active"`

	// Compiled holds the compiled expression program (set lazily, not serialized).
	Compiled any `json:"-"`
}

const HookBeforeWrite = "before_write"
