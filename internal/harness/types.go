package harness

import (
	"github.com/roach88/scopecard/internal/assess"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every override applied and every assertion held.
	Pass bool `json:"pass"`

	// Assessment is the final assessment after all overrides.
	Assessment assess.Assessment `json:"assessment"`

	// Applied holds one result per override step, in scenario order.
	Applied []assess.ApplyResult `json:"applied"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Applied: []assess.ApplyResult{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
