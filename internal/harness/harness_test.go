package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scopecard/internal/ir"
)

// TestScenarios runs every scenario under testdata/scenarios and compares
// it with its golden snapshot.
func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_OverridesArePersisted(t *testing.T) {
	scenario := &Scenario{
		Name:        "persisted",
		Description: "overrides go through the SQLite writer",
		Overrides: []OverrideStep{
			{Session: "02", Status: ir.StatusNotApplicable, Reason: "N/A"},
			{Session: "02", Clear: true},
			{Session: "07", Status: ir.StatusRequired, Reason: "Partner API"},
		},
		Assertions: []Assertion{
			{Type: AssertSessionSource, Session: "02", Source: ir.SourceRule},
			{Type: AssertSessionStatus, Session: "07", Status: ir.StatusRequired, Reason: "Partner API"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Applied, 3)
	for _, res := range result.Applied {
		assert.True(t, res.OK, res.Message)
		assert.True(t, res.Recomputed)
	}
	assert.Equal(t, "1 override change(s) saved to database", result.Applied[0].Message)
}

func TestRun_FailingAssertionMarksResult(t *testing.T) {
	scenario := &Scenario{
		Name:        "failing",
		Description: "expects the wrong label",
		Assertions:  []Assertion{{Type: AssertRiskLabel, Label: ir.RiskHigh}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Expected: high")
}

func TestRun_UnknownOverrideSession(t *testing.T) {
	scenario := &Scenario{
		Name:        "unknown",
		Description: "override for a session that does not exist",
		Overrides:   []OverrideStep{{Session: "99", Status: ir.StatusOptional}},
		Assertions:  []Assertion{{Type: AssertRiskLabel, Label: ir.RiskLow}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "override step 0")
}

func TestRun_CustomConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sessions-config.json"), []byte(`{
	  "sessions": [
	    {"id": "A", "title": "Always", "applicability_rules": {"always_required": true}},
	    {"id": "B", "title": "Public", "applicability_rules": {
	      "required_when": [{"condition": "accessModel:public", "reason": "Public surface"}]
	    }}
	  ]
	}`), 0644))

	scenario := &Scenario{
		Name:        "custom",
		Description: "runs against a configuration directory",
		Config:      dir,
		Scope:       map[string]any{"access_model": "public"},
		Assertions: []Assertion{
			{Type: AssertSessionStatus, Session: "B", Status: ir.StatusRequired, Reason: "Public surface"},
			{Type: AssertSessionOrder, Sessions: []string{"A", "B"}},
			{Type: AssertRiskScore, Score: int64Ptr(20)},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Assessment.Sessions, 2)
}

func TestRun_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.json"), []byte(`{"sessions": []}`), 0644))

	_, err := Run(&Scenario{
		Name:        "empty",
		Description: "no sessions",
		Config:      dir,
		Assertions:  []Assertion{{Type: AssertRiskLabel, Label: ir.RiskLow}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestRunIsDeterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/scenario_d_override.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Assessment, second.Assessment)
	assert.Equal(t, first.Assessment.ConfigHash, second.Assessment.ConfigHash, "deterministic clock stamps identical overrides")
}
