package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/scopecard/internal/ir"
)

// Snapshot captures the stable part of a scenario outcome. Work item
// enrichment and the config hash are left out so catalog wording changes
// do not churn every golden file.
type Snapshot struct {
	ScenarioName string            `json:"scenario_name"`
	Risk         ir.RiskAssessment `json:"risk"`
	Sessions     []SessionSummary  `json:"sessions"`
}

// SessionSummary is the resolved status of one session.
type SessionSummary struct {
	ID     string    `json:"id"`
	Status ir.Status `json:"status"`
	Source ir.Source `json:"source"`
	Reason string    `json:"reason"`
}

// NewSnapshot builds the golden snapshot for a result.
func NewSnapshot(name string, result *Result) Snapshot {
	sessions := make([]SessionSummary, 0, len(result.Assessment.Sessions))
	for _, s := range result.Assessment.Sessions {
		sessions = append(sessions, SessionSummary{ID: s.ID, Status: s.Status, Source: s.Source, Reason: s.Reason})
	}
	return Snapshot{ScenarioName: name, Risk: result.Assessment.Risk, Sessions: sessions}
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := ir.MarshalCanonical(NewSnapshot(scenarioName, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
