package domain

import (
	"context"
	"errors"
	"testing"
)

type staticView struct{ params map[string]Parameter }

func (v staticView) ListParameters() []Parameter {
	out := make([]Parameter, 0, len(v.params))
	for _, p := range v.params {
		out = append(out, p)
	}
	return out
}

func (v staticView) FindParameter(id string) (Parameter, bool) {
	p, ok := v.params[id]
	return p, ok
}

func (staticView) Series(string) []Measurement { return nil }

type blockRule struct{}

func (blockRule) Name() string { return "block_all" }

func (blockRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return Result{Violations: []Violation{{Rule: "block_all", Severity: SeverityBlock}}}, nil
}

type failingRule struct{}

func (failingRule) Name() string { return "fails" }

func (failingRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return Result{}, errors.New("rule failed")
}

func TestNormalRangeRuleWarnsOnOutOfRange(t *testing.T) {
	view := staticView{params: map[string]Parameter{
		"glucose": {ID: "glucose", Name: "Glucose", Unit: "mmol/L", NormalRange: NormalRange{Min: 3.3, Max: 5.5}},
	}}
	changes := []Change{
		{Entity: EntityMeasurement, Action: ActionCreate, After: Measurement{ParameterID: "glucose", Value: 5.5}},
		{Entity: EntityMeasurement, Action: ActionCreate, After: Measurement{ParameterID: "glucose", Value: 7.1}},
		{Entity: EntityMeasurement, Action: ActionCreate, After: Measurement{ParameterID: "missing", Value: 99}},
		{Entity: EntityParameter, Action: ActionCreate, After: view.params["glucose"]},
	}
	res, err := NewDefaultRulesEngine().Evaluate(context.Background(), view, changes)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 1 {
		t.Fatalf("expected one violation, got %+v", res.Violations)
	}
	v := res.Violations[0]
	if v.Rule != "normal_range" || v.Severity != SeverityWarn || v.EntityID != "glucose" {
		t.Fatalf("unexpected violation %+v", v)
	}
	if res.HasBlocking() {
		t.Fatalf("warnings must not block")
	}
}

func TestRulesEngineMergesAndPropagatesErrors(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(blockRule{})
	engine.Register(NormalRangeRule())
	res, err := engine.Evaluate(context.Background(), staticView{}, nil)
	if err != nil || !res.HasBlocking() {
		t.Fatalf("expected blocking result, got %+v %v", res, err)
	}
	engine.Register(failingRule{})
	if _, err := engine.Evaluate(context.Background(), staticView{}, nil); err == nil {
		t.Fatalf("expected rule error")
	}
	if (RuleViolationError{Result: res}).Error() == "" {
		t.Fatalf("expected message")
	}
}
