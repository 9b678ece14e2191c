package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/scopecard/internal/assess"
	"github.com/roach88/scopecard/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Sessions []ir.Session // Resolved sessions for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Sessions) > 0 {
		fmt.Fprintf(&buf, "\nSessions:\n")
		for _, s := range e.Sessions {
			fmt.Fprintf(&buf, "  [%s] %s (%s)\n", s.ID, s.Status, s.Source)
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion and returns one message per
// failure, in assertion order.
func EvaluateAssertions(a assess.Assessment, assertions []Assertion) []string {
	var errs []string
	for i, assertion := range assertions {
		if err := evaluate(a, assertion); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %s", i, err.Error()))
		}
	}
	return errs
}

func evaluate(a assess.Assessment, assertion Assertion) error {
	switch assertion.Type {
	case AssertRiskLabel:
		return assertRiskLabel(a.Risk, assertion)
	case AssertRiskScore:
		return assertRiskScore(a.Risk, assertion)
	case AssertScoreAtLeast:
		return assertScoreAtLeast(a.Risk, assertion)
	case AssertDriverContains:
		return assertDriverContains(a.Risk, assertion)
	case AssertSessionStatus:
		return assertSessionStatus(a.Sessions, assertion)
	case AssertSessionSource:
		return assertSessionSource(a.Sessions, assertion)
	case AssertSessionOrder:
		return assertSessionOrder(a.Sessions, assertion)
	default:
		return fmt.Errorf("unknown assertion type %q", assertion.Type)
	}
}

func assertRiskLabel(risk ir.RiskAssessment, assertion Assertion) error {
	if risk.Label != assertion.Label {
		return &AssertionError{
			Type:     AssertRiskLabel,
			Expected: string(assertion.Label),
			Actual:   fmt.Sprintf("%s (score %d)", risk.Label, risk.Score),
		}
	}
	return nil
}

func assertRiskScore(risk ir.RiskAssessment, assertion Assertion) error {
	if risk.Score != *assertion.Score {
		return &AssertionError{
			Type:     AssertRiskScore,
			Expected: fmt.Sprintf("score %d", *assertion.Score),
			Actual:   fmt.Sprintf("score %d", risk.Score),
		}
	}
	return nil
}

func assertScoreAtLeast(risk ir.RiskAssessment, assertion Assertion) error {
	if risk.Score < *assertion.Score {
		return &AssertionError{
			Type:     AssertScoreAtLeast,
			Expected: fmt.Sprintf("score >= %d", *assertion.Score),
			Actual:   fmt.Sprintf("score %d", risk.Score),
		}
	}
	return nil
}

func assertDriverContains(risk ir.RiskAssessment, assertion Assertion) error {
	for _, d := range risk.Drivers {
		if strings.Contains(d, assertion.Driver) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertDriverContains,
		Expected: fmt.Sprintf("a driver containing %q", assertion.Driver),
		Actual:   fmt.Sprintf("drivers %q", risk.Drivers),
	}
}

// findSession returns the session with id, or false.
func findSession(sessions []ir.Session, id string) (ir.Session, bool) {
	i := slices.IndexFunc(sessions, func(s ir.Session) bool { return s.ID == id })
	if i < 0 {
		return ir.Session{}, false
	}
	return sessions[i], true
}

func assertSessionStatus(sessions []ir.Session, assertion Assertion) error {
	s, ok := findSession(sessions, assertion.Session)
	if !ok {
		return &AssertionError{
			Type:     AssertSessionStatus,
			Expected: fmt.Sprintf("session %s", assertion.Session),
			Actual:   "session not found",
			Sessions: sessions,
		}
	}
	if s.Status != assertion.Status {
		return &AssertionError{
			Type:     AssertSessionStatus,
			Expected: fmt.Sprintf("session %s %s", assertion.Session, assertion.Status),
			Actual:   fmt.Sprintf("session %s %s (%s)", s.ID, s.Status, s.Reason),
			Sessions: sessions,
		}
	}
	if assertion.Reason != "" && s.Reason != assertion.Reason {
		return &AssertionError{
			Type:     AssertSessionStatus,
			Expected: fmt.Sprintf("session %s reason %q", assertion.Session, assertion.Reason),
			Actual:   fmt.Sprintf("reason %q", s.Reason),
		}
	}
	return nil
}

func assertSessionSource(sessions []ir.Session, assertion Assertion) error {
	s, ok := findSession(sessions, assertion.Session)
	if !ok {
		return &AssertionError{
			Type:     AssertSessionSource,
			Expected: fmt.Sprintf("session %s", assertion.Session),
			Actual:   "session not found",
			Sessions: sessions,
		}
	}
	if s.Source != assertion.Source {
		return &AssertionError{
			Type:     AssertSessionSource,
			Expected: fmt.Sprintf("session %s source %s", assertion.Session, assertion.Source),
			Actual:   fmt.Sprintf("source %s", s.Source),
			Sessions: sessions,
		}
	}
	return nil
}

// assertSessionOrder checks that the listed sessions appear in this order.
// Sessions don't need to be consecutive.
func assertSessionOrder(sessions []ir.Session, assertion Assertion) error {
	positions := make(map[string]int, len(sessions))
	for i, s := range sessions {
		if _, seen := positions[s.ID]; !seen {
			positions[s.ID] = i + 1 // 1-indexed for readability
		}
	}

	for _, id := range assertion.Sessions {
		if positions[id] == 0 {
			return &AssertionError{
				Type:     AssertSessionOrder,
				Expected: fmt.Sprintf("all sessions present: %v", assertion.Sessions),
				Actual:   fmt.Sprintf("missing session: %s", id),
				Sessions: sessions,
			}
		}
	}

	for i := 1; i < len(assertion.Sessions); i++ {
		prev := assertion.Sessions[i-1]
		curr := assertion.Sessions[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertSessionOrder,
				Expected: fmt.Sprintf("sessions in order: %v", assertion.Sessions),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Sessions: sessions,
			}
		}
	}
	return nil
}
