package testutil

import "github.com/roach88/scopecard/internal/ir"

// Scope returns default scope answers with mutate applied.
func Scope(mutate ...func(*ir.ScopeAnswers)) ir.ScopeAnswers {
	s := ir.NewScopeAnswers()
	for _, m := range mutate {
		m(&s)
	}
	return s
}

// Rules returns a small session configuration that covers every resolution
// path: always required ("00"), a two-rule first-match list ("01"), a
// risk-driven rule ("02"), and a field:value rule ("03").
func Rules() []ir.SessionRule {
	return []ir.SessionRule{
		{
			ID:    "00",
			Title: "Objective",
			Focus: "What is being built and why",
			WorkItems: []ir.WorkItemTemplate{
				{Key: "problem", Text: "Problem to solve"},
				{Key: "audience", Text: "Target audience"},
			},
			Applicability: ir.Applicability{
				AlwaysRequired:     true,
				ReasonWhenRequired: "Foundational session",
			},
		},
		{
			ID:    "01",
			Title: "Data involved",
			Focus: "Which data the product uses",
			WorkItems: []ir.WorkItemTemplate{
				{Key: "collected", Text: "Collected data"},
			},
			Applicability: ir.Applicability{
				RequiredWhen: []ir.ConditionRule{
					{Condition: "hasPersonalData", Reason: "Personal data must be mapped"},
					{Condition: "hasPersistentData", Reason: "Stored data must be inventoried"},
				},
				ReasonWhenOptional: "No personal or stored data",
			},
		},
		{
			ID:    "02",
			Title: "Decisions",
			Focus: "Record deliberate decisions",
			WorkItems: []ir.WorkItemTemplate{
				{Key: "tradeoffs", Text: "Accepted trade-offs"},
			},
			Applicability: ir.Applicability{
				RequiredWhen: []ir.ConditionRule{
					{Condition: "isHighRisk", Reason: "High risk needs a decision log"},
				},
				ReasonWhenOptional: "Recommended for traceability",
			},
		},
		{
			ID:    "03",
			Title: "Rules and limits",
			Focus: "Usage limits and restrictions",
			Applicability: ir.Applicability{
				RequiredWhen: []ir.ConditionRule{
					{Condition: "accessModel:authenticated-permissions", Reason: "Permission model in place"},
				},
				ReasonWhenOptional: "No authorization requirements",
			},
		},
	}
}
