package domain

import (
	"context"
	"fmt"
)

// RuleView provides read-only access to transaction state for rule evaluation.
type RuleView interface {
	ListParameters() []Parameter
	FindParameter(id string) (Parameter, bool)
	Series(parameterID string) []Measurement
}

// Rule defines an evaluation executed within a transaction boundary.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// NewDefaultRulesEngine returns an engine with the built-in rules registered.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NormalRangeRule())
	return engine
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}

type normalRangeRule struct{}

// NormalRangeRule warns about newly recorded measurements outside their
// parameter's normal range.
func NormalRangeRule() Rule { return normalRangeRule{} }

func (normalRangeRule) Name() string { return "normal_range" }

func (r normalRangeRule) Evaluate(_ context.Context, view RuleView, changes []Change) (Result, error) {
	var res Result
	for _, change := range changes {
		if change.Entity != EntityMeasurement {
			continue
		}
		m, ok := change.After.(Measurement)
		if !ok {
			continue
		}
		param, ok := view.FindParameter(m.ParameterID)
		if !ok {
			continue
		}
		if Classify(m.Value, param.NormalRange) == StatusInRange {
			continue
		}
		res.Violations = append(res.Violations, Violation{
			Rule:     r.Name(),
			Severity: SeverityWarn,
			Message: fmt.Sprintf("%s %g %s outside normal range %g-%g",
				param.Name, m.Value, param.Unit, param.NormalRange.Min, param.NormalRange.Max),
			Entity:   EntityMeasurement,
			EntityID: param.ID,
		})
	}
	return res, nil
}
