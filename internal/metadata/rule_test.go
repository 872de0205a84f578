package metadata

import (
	"encoding/json"
	"testing"
)

func TestRuleParsing_FieldRule(t *testing.T) {
	raw := `{
		"field": "rating",
		"operator": "max",
		"value": 5,
		"message": "Rating must be between 1 and 5"
	}`
	var def RuleDefinition
	if err := json.Unmarshal([]byte(raw), &def); err != nil {
		t.Fatalf("parse field rule: %v", err)
	}
	if def.Field != "rating" {
		t.Fatalf("expected field=rating, got %s", def.Field)
	}
	if def.Operator != "max" {
		t.Fatalf("expected operator=max, got %s", def.Operator)
	}
	if def.Value != float64(5) {
		t.Fatalf("expected value=5, got %v", def.Value)
	}
}

func TestRuleParsing_ExpressionRule(t *testing.T) {
	raw := `{
		"expression": "record.category == 'colors' && record.setting_value == nil",
		"message": "Color value is required",
		"stop_on_fail": true
	}`
	var def RuleDefinition
	if err := json.Unmarshal([]byte(raw), &def); err != nil {
		t.Fatalf("parse expression rule: %v", err)
	}
	if def.Expression != "record.category == 'colors' && record.setting_value == nil" {
		t.Fatalf("expression mismatch: %s", def.Expression)
	}
	if !def.StopOnFail {
		t.Fatal("expected stop_on_fail=true")
	}
}

func TestRegistryGetRulesForEntity(t *testing.T) {
	reg := NewRegistry()
	rules := []*Rule{
		{ID: "1", Entity: "testimonials", Hook: HookBeforeWrite, Type: "field", Active: true, Priority: 5},
		{ID: "2", Entity: "testimonials", Hook: HookBeforeWrite, Type: "expression", Active: true, Priority: 1},
		{ID: "3", Entity: "testimonials", Hook: "before_delete", Type: "expression", Active: true},
		{ID: "4", Entity: "services", Hook: HookBeforeWrite, Type: "field", Active: true},
		{ID: "5", Entity: "testimonials", Hook: HookBeforeWrite, Type: "field", Active: false},
	}
	reg.Load(nil, rules)

	beforeWrite := reg.GetRulesForEntity("testimonials", HookBeforeWrite)
	if len(beforeWrite) != 2 {
		t.Fatalf("expected 2 active before_write rules, got %d", len(beforeWrite))
	}
	if beforeWrite[0].ID != "2" {
		t.Fatalf("expected rules in priority order, got %s first", beforeWrite[0].ID)
	}

	if n := len(reg.GetRulesForEntity("testimonials", "before_delete")); n != 1 {
		t.Fatalf("expected 1 before_delete rule, got %d", n)
	}
	if n := len(reg.GetRulesForEntity("nonexistent", HookBeforeWrite)); n != 0 {
		t.Fatalf("expected 0 rules for nonexistent, got %d", n)
	}
}
