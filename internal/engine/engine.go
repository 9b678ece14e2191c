package engine

import (
	"log/slog"

	"github.com/roach88/scopecard/internal/compliance"
	"github.com/roach88/scopecard/internal/ir"
)

// RuleSource supplies the current session configuration.
// Implemented by overrides.Store (production) and StaticRules (tests).
type RuleSource interface {
	Rules() []ir.SessionRule
}

// StaticRules is a fixed RuleSource.
type StaticRules []ir.SessionRule

// Rules implements RuleSource.
func (r StaticRules) Rules() []ir.SessionRule {
	return ir.CloneRules(r)
}

// Engine resolves session applicability.
//
// INVARIANTS:
//   - One output session per configured rule, in configuration order
//   - A manual override short-circuits all rule evaluation for its session
//   - required_when is first-match-wins
//   - Calculate never panics and never returns not-applicable on its own
type Engine struct {
	rules     RuleSource
	table     *compliance.Table
	evaluator Evaluator
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithEvaluator replaces the condition evaluator.
// Tests use it to count or script evaluations.
func WithEvaluator(ev Evaluator) EngineOption {
	return func(e *Engine) {
		e.evaluator = ev
	}
}

// New creates an Engine reading rules from src and enriching work items
// from table. Either may be nil; the engine degrades to an empty result or
// unenriched work items respectively.
func New(src RuleSource, table *compliance.Table, opts ...EngineOption) *Engine {
	e := &Engine{
		rules:     src,
		table:     table,
		evaluator: ScopeEvaluator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Calculate returns one Session per configured rule, in configuration order.
// The result is rebuilt from scratch on every call.
func (e *Engine) Calculate(scope ir.ScopeAnswers, risk ir.RiskAssessment) []ir.Session {
	if e == nil || e.rules == nil {
		return []ir.Session{}
	}

	rules := e.rules.Rules()
	sessions := make([]ir.Session, 0, len(rules))
	for _, rule := range rules {
		sessions = append(sessions, e.resolve(rule, scope, risk))
	}
	return sessions
}

// resolve applies, in priority order: manual override, always required,
// first matching required_when rule, optional.
func (e *Engine) resolve(rule ir.SessionRule, scope ir.ScopeAnswers, risk ir.RiskAssessment) ir.Session {
	s := ir.Session{
		ID:        rule.ID,
		Title:     rule.Title,
		Focus:     rule.Focus,
		WorkItems: e.workItems(rule),
		Status:    ir.StatusOptional,
		Reason:    rule.Applicability.ReasonWhenOptional,
		Source:    ir.SourceRule,
	}

	if ov := rule.ManualOverride; ov != nil {
		s.Status = ov.Status
		s.Reason = ov.Reason
		s.Source = ir.SourceOverride
		return s
	}

	app := rule.Applicability
	if app.AlwaysRequired {
		s.Status = ir.StatusRequired
		s.Reason = app.ReasonWhenRequired
		return s
	}

	for _, r := range app.RequiredWhen {
		cond, err := ParseCondition(r.Condition)
		if err != nil {
			slog.Debug("unresolved condition evaluates to false",
				"session", rule.ID,
				"condition", r.Condition,
			)
		}
		if e.evaluator.Evaluate(cond, scope, risk) {
			s.Status = ir.StatusRequired
			s.Reason = r.Reason
			return s
		}
	}

	return s
}

func (e *Engine) workItems(rule ir.SessionRule) []ir.WorkItem {
	items := make([]ir.WorkItem, 0, len(rule.WorkItems))
	for _, tmpl := range rule.WorkItems {
		items = append(items, e.table.Enrich(rule.ID, tmpl))
	}
	return items
}
