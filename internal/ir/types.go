package ir

import "time"

// RiskLabel is the coarse risk classification of a change.
type RiskLabel string

const (
	RiskLow    RiskLabel = "low"
	RiskMedium RiskLabel = "medium"
	RiskHigh   RiskLabel = "high"
)

// RiskAssessment is derived from ScopeAnswers and never persisted.
type RiskAssessment struct {
	Score   int64     `json:"score"`
	Label   RiskLabel `json:"label"`
	Drivers []string  `json:"drivers"`
}

// Status is the applicability of a session to a change.
type Status string

const (
	StatusRequired      Status = "required"
	StatusOptional      Status = "optional"
	StatusNotApplicable Status = "not-applicable"
)

// ValidStatuses defines allowed session statuses.
var ValidStatuses = map[Status]bool{
	StatusRequired:      true,
	StatusOptional:      true,
	StatusNotApplicable: true,
}

// Source records whether a status came from rules or a manual override.
type Source string

const (
	SourceRule     Source = "rule"
	SourceOverride Source = "override"
)

// SessionRule is one configured session with its applicability rules.
// Read-only at runtime except for override attachment.
type SessionRule struct {
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	Focus          string             `json:"focus"`
	WorkItems      []WorkItemTemplate `json:"work_items"`
	Applicability  Applicability      `json:"applicability_rules"`
	ManualOverride *Override          `json:"manual_override,omitempty"`
}

// WorkItemTemplate is one recommended task within a session.
// Key is assigned at authoring time and survives reordering.
type WorkItemTemplate struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Applicability holds the declarative rules for a session.
type Applicability struct {
	AlwaysRequired     bool            `json:"always_required,omitempty"`
	RequiredWhen       []ConditionRule `json:"required_when,omitempty"`
	ReasonWhenRequired string          `json:"reason_when_required,omitempty"`
	ReasonWhenOptional string          `json:"reason_when_optional,omitempty"`
}

// ConditionRule pairs a condition name with the reason reported when it holds.
type ConditionRule struct {
	Condition string `json:"condition"`
	Reason    string `json:"reason"`
}

// Override is an administrator-supplied status that supersedes rules.
type Override struct {
	Status    Status    `json:"status"`
	Reason    string    `json:"reason"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// OverrideInput is the caller-supplied part of an Override.
type OverrideInput struct {
	Status Status `json:"status"`
	Reason string `json:"reason"`
}

// OverrideRecord is an Override bound to its session, as persisted.
type OverrideRecord struct {
	SessionID string `json:"session_id"`
	Override
}

// Session is a computed, fully materialized session for renderers.
type Session struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Focus     string     `json:"focus"`
	WorkItems []WorkItem `json:"work_items"`
	Status    Status     `json:"status"`
	Reason    string     `json:"reason"`
	Source    Source     `json:"source"`
}

// WorkItem is a template enriched with compliance references.
// Absent entries are empty slices, never nil.
type WorkItem struct {
	Key             string   `json:"key"`
	Text            string   `json:"text"`
	DocumentTypes   []string `json:"document_types"`
	ISO9001         []string `json:"iso_9001"`
	ISO27001Clauses []string `json:"iso_27001_clauses"`
	ISO27001AnnexA  []string `json:"iso_27001_annex_a"`
	ISO27701        []string `json:"iso_27701"`
}

// Clone returns a deep copy so callers can never mutate shared configuration.
func (r SessionRule) Clone() SessionRule {
	out := r
	out.WorkItems = append([]WorkItemTemplate(nil), r.WorkItems...)
	out.Applicability.RequiredWhen = append([]ConditionRule(nil), r.Applicability.RequiredWhen...)
	if r.ManualOverride != nil {
		ov := *r.ManualOverride
		out.ManualOverride = &ov
	}
	return out
}

// CloneRules deep-copies a rule list.
func CloneRules(rules []SessionRule) []SessionRule {
	out := make([]SessionRule, len(rules))
	for i, r := range rules {
		out[i] = r.Clone()
	}
	return out
}
