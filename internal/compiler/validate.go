package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/scopecard/internal/engine"
	"github.com/roach88/scopecard/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrNoSessions = "E100" // configuration defines no sessions

	// Session errors (E101-E109)
	ErrSessionIDEmpty    = "E101" // id is required
	ErrDuplicateSession  = "E102" // duplicate session id
	ErrSessionTitleEmpty = "E103" // title is required
	ErrWorkItemKeyEmpty  = "E104" // work item key is required
	ErrDuplicateWorkItem = "E105" // duplicate work item key within a session
	ErrInvalidOverride   = "E106" // manual override status not recognized
	ErrEmptyCondition    = "E107" // required_when rule without a condition

	// Compliance errors (E110-E119)
	ErrIndexOutOfRange = "E110" // legacy index outside the declared work items

	// Configuration errors (E120-E129)
	ErrUnsupportedVersion = "E120" // version outside the supported range
)

// Warning codes (W200-W299). Warnings never fail a load.
const (
	ErrUnknownCondition = "W201" // condition name outside the vocabulary; evaluates to false
	ErrMalformedSection = "W202" // compliance section or entry skipped
	ErrUnknownSession   = "W203" // compliance entries for an undeclared session
	ErrUnknownWorkItem  = "W204" // compliance entry for an undeclared work item key
	ErrUnknownStandard  = "W205" // clause list for an unrecognized standard
)

// ValidationError represents a schema validation error or warning.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// IsWarning reports whether the entry is advisory.
func (e ValidationError) IsWarning() bool {
	return strings.HasPrefix(e.Code, "W")
}

// ValidationErrors is returned when a configuration fails validation.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d validation errors:\n  %s", len(errs), strings.Join(msgs, "\n  "))
}

// ValidateRules validates a session configuration.
// Returns all errors found (does not fail-fast) and, separately, warnings.
func ValidateRules(rules []ir.SessionRule) (errs, warnings []ValidationError) {
	// E100: at least one session
	if len(rules) == 0 {
		errs = append(errs, ValidationError{
			Field:   "sessions",
			Message: "at least one session is required",
			Code:    ErrNoSessions,
		})
		return errs, nil
	}

	seen := make(map[string]bool, len(rules))
	for i, rule := range rules {
		field := fmt.Sprintf("sessions[%d]", i)

		// E101/E102: unique non-empty id
		if strings.TrimSpace(rule.ID) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".id",
				Message: "id is required and must be non-empty",
				Code:    ErrSessionIDEmpty,
			})
		} else if seen[rule.ID] {
			errs = append(errs, ValidationError{
				Field:   field + ".id",
				Message: fmt.Sprintf("duplicate session id: %q", rule.ID),
				Code:    ErrDuplicateSession,
			})
		}
		seen[rule.ID] = true

		// E103: title is required
		if strings.TrimSpace(rule.Title) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".title",
				Message: fmt.Sprintf("session %q: title is required", rule.ID),
				Code:    ErrSessionTitleEmpty,
			})
		}

		errs = append(errs, validateWorkItems(field, rule)...)

		// E106: override status
		if ov := rule.ManualOverride; ov != nil && !ir.ValidStatuses[ov.Status] {
			errs = append(errs, ValidationError{
				Field:   field + ".manual_override.status",
				Message: fmt.Sprintf("invalid status %q: must be required, optional or not-applicable", ov.Status),
				Code:    ErrInvalidOverride,
			})
		}

		for j, cr := range rule.Applicability.RequiredWhen {
			condField := fmt.Sprintf("%s.applicability_rules.required_when[%d].condition", field, j)
			if strings.TrimSpace(cr.Condition) == "" {
				errs = append(errs, ValidationError{
					Field:   condField,
					Message: "condition is required",
					Code:    ErrEmptyCondition,
				})
				continue
			}
			// W201: unknown conditions are tolerated at runtime
			if _, err := engine.ParseCondition(cr.Condition); err != nil {
				warnings = append(warnings, ValidationError{
					Field:   condField,
					Message: err.Error() + "; it always evaluates to false",
					Code:    ErrUnknownCondition,
				})
			}
		}
	}

	return errs, warnings
}

func validateWorkItems(field string, rule ir.SessionRule) []ValidationError {
	var errs []ValidationError
	keys := make(map[string]bool, len(rule.WorkItems))

	for i, it := range rule.WorkItems {
		itemField := fmt.Sprintf("%s.work_items[%d].key", field, i)
		if strings.TrimSpace(it.Key) == "" {
			errs = append(errs, ValidationError{
				Field:   itemField,
				Message: "work item key is required",
				Code:    ErrWorkItemKeyEmpty,
			})
			continue
		}
		if keys[it.Key] {
			errs = append(errs, ValidationError{
				Field:   itemField,
				Message: fmt.Sprintf("session %q: duplicate work item key %q", rule.ID, it.Key),
				Code:    ErrDuplicateWorkItem,
			})
		}
		keys[it.Key] = true
	}
	return errs
}
