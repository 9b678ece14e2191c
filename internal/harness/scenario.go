package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/scopecard/internal/ir"
)

// Scenario defines one assessment to run and the expectations on it.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is a configuration directory. Empty means the embedded catalog.
	// Relative paths are resolved by LoadScenarioWithBasePath.
	Config string `yaml:"config,omitempty"`

	// Scope holds scope answers in their YAML form. Omitted fields keep
	// their defaults.
	Scope map[string]any `yaml:"scope"`

	// Overrides are applied in order before the final assessment.
	Overrides []OverrideStep `yaml:"overrides,omitempty"`

	// Assertions validate the final assessment.
	Assertions []Assertion `yaml:"assertions"`
}

// OverrideStep sets or clears one manual override.
type OverrideStep struct {
	Session string    `yaml:"session"`
	Status  ir.Status `yaml:"status,omitempty"`
	Reason  string    `yaml:"reason,omitempty"`

	// Clear removes the override instead of setting one.
	Clear bool `yaml:"clear,omitempty"`
}

// Assertion validates part of the final assessment.
type Assertion struct {
	// Type specifies the assertion type; see the Assert constants.
	Type string `yaml:"type"`

	// Label is the expected risk label (risk_label).
	Label ir.RiskLabel `yaml:"label,omitempty"`

	// Score is the expected or minimum risk score (risk_score, score_at_least).
	Score *int64 `yaml:"score,omitempty"`

	// Driver is a substring one driver must contain (driver_contains).
	Driver string `yaml:"driver,omitempty"`

	// Session is the session id (session_status, session_source).
	Session string `yaml:"session,omitempty"`

	// Status is the expected session status (session_status).
	Status ir.Status `yaml:"status,omitempty"`

	// Reason, when set, must equal the session reason (session_status).
	Reason string `yaml:"reason,omitempty"`

	// Source is the expected session source (session_source).
	Source ir.Source `yaml:"source,omitempty"`

	// Sessions is the expected relative order of session ids (session_order).
	Sessions []string `yaml:"sessions,omitempty"`
}

// Assertion type constants.
const (
	AssertRiskLabel      = "risk_label"
	AssertRiskScore      = "risk_score"
	AssertScoreAtLeast   = "score_at_least"
	AssertDriverContains = "driver_contains"
	AssertSessionStatus  = "session_status"
	AssertSessionSource  = "session_source"
	AssertSessionOrder   = "session_order"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, "")
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving a relative config path against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Config != "" && !filepath.IsAbs(scenario.Config) && basePath != "" {
		scenario.Config = filepath.Join(basePath, scenario.Config)
	}
	if scenario.Config != "" {
		if _, err := os.Stat(scenario.Config); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: config directory not found: %s", scenario.Config)
		}
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// ScopeAnswers decodes the scenario scope on top of the defaults.
// Unknown scope fields are rejected so typos never silently pass.
func (s *Scenario) ScopeAnswers() (ir.ScopeAnswers, error) {
	scope := ir.NewScopeAnswers()
	if len(s.Scope) == 0 {
		return scope, nil
	}

	data, err := yaml.Marshal(s.Scope)
	if err != nil {
		return ir.ScopeAnswers{}, fmt.Errorf("scope: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scope); err != nil {
		return ir.ScopeAnswers{}, fmt.Errorf("scope: %w", err)
	}
	if err := scope.Validate(); err != nil {
		return ir.ScopeAnswers{}, fmt.Errorf("scope: %w", err)
	}
	return scope, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if _, err := s.ScopeAnswers(); err != nil {
		return err
	}

	for i, step := range s.Overrides {
		if step.Session == "" {
			return fmt.Errorf("overrides[%d]: session is required", i)
		}
		if step.Clear {
			if step.Status != "" {
				return fmt.Errorf("overrides[%d]: clear and status are mutually exclusive", i)
			}
			continue
		}
		if !ir.ValidStatuses[step.Status] {
			return fmt.Errorf("overrides[%d]: invalid status %q", i, step.Status)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRiskLabel:
		if a.Label == "" {
			return fmt.Errorf("assertions[%d]: label is required for risk_label", index)
		}
	case AssertRiskScore, AssertScoreAtLeast:
		if a.Score == nil {
			return fmt.Errorf("assertions[%d]: score is required for %s", index, a.Type)
		}
		if *a.Score < 0 {
			return fmt.Errorf("assertions[%d]: score must be non-negative for %s", index, a.Type)
		}
	case AssertDriverContains:
		if a.Driver == "" {
			return fmt.Errorf("assertions[%d]: driver is required for driver_contains", index)
		}
	case AssertSessionStatus:
		if a.Session == "" || a.Status == "" {
			return fmt.Errorf("assertions[%d]: session and status are required for session_status", index)
		}
	case AssertSessionSource:
		if a.Session == "" || a.Source == "" {
			return fmt.Errorf("assertions[%d]: session and source are required for session_source", index)
		}
	case AssertSessionOrder:
		if len(a.Sessions) < 2 {
			return fmt.Errorf("assertions[%d]: at least two sessions are required for session_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
