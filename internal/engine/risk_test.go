package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/scopecard/internal/ir"
	"github.com/roach88/scopecard/internal/testutil"
)

func TestScore_AllDefaults(t *testing.T) {
	risk := Score(testutil.Scope())

	assert.Equal(t, int64(0), risk.Score)
	assert.Equal(t, ir.RiskLow, risk.Label)
	assert.Empty(t, risk.Drivers)
	assert.NotNil(t, risk.Drivers, "drivers serialize as []")
}

func TestBaseScore(t *testing.T) {
	tests := map[ir.DeliveryType]int64{
		ir.DeliveryUnset:                 0,
		ir.DeliveryNewProduct:            10,
		ir.DeliveryFunctionalEvolution:   5,
		ir.DeliveryVisualAdjustment:      0,
		ir.DeliveryBugfix:                0,
		ir.DeliveryRefactoring:           0,
		ir.DeliveryThirdPartyIntegration: 5,
		ir.DeliveryDiscontinuation:       5,
	}
	for d, want := range tests {
		assert.Equal(t, want, BaseScore(d), d)
	}
	assert.Len(t, tests, len(ir.DeliveryTypes)+1, "every delivery type covered")
}

func TestScore_NewProductIsLow(t *testing.T) {
	risk := Score(testutil.Scope(func(s *ir.ScopeAnswers) {
		s.DeliveryType = ir.DeliveryNewProduct
	}))

	assert.Equal(t, int64(10), risk.Score)
	assert.Equal(t, ir.RiskLow, risk.Label)
	assert.Empty(t, risk.Drivers, "base score adds no driver")
}

func TestScore_ChildrenDataForcesHigh(t *testing.T) {
	risk := Score(testutil.Scope(func(s *ir.ScopeAnswers) {
		s.DataInvolved = ir.DataChildren
	}))

	assert.Equal(t, ir.RiskHigh, risk.Label)
	assert.Equal(t, int64(45), risk.Score)
	assert.Contains(t, risk.Drivers, "Handles children's data (high impact and legal compliance)")
}

func TestScore_DeleteAndIrreversible(t *testing.T) {
	risk := Score(testutil.Scope(func(s *ir.ScopeAnswers) {
		s.HasDeleteAction = true
		s.HasIrreversibleAction = true
	}))

	assert.Equal(t, int64(12+20), risk.Score)
	assert.Equal(t, ir.RiskHigh, risk.Label, "irreversible forces high below threshold")
	assert.Equal(t, []string{
		"Deletion requires confirmation, soft delete and auditing",
		"Irreversible actions require double confirmation and full logging",
	}, risk.Drivers)
}

func TestScore_ForcedHighRules(t *testing.T) {
	tests := []struct {
		name string
		set  func(*ir.ScopeAnswers)
		want ir.RiskLabel
	}{
		{"sensitive", func(s *ir.ScopeAnswers) { s.DataInvolved = ir.DataPersonalSensitive }, ir.RiskHigh},
		{"financial data", func(s *ir.ScopeAnswers) { s.DataInvolved = ir.DataFinancial }, ir.RiskHigh},
		{"public with non-personal data", func(s *ir.ScopeAnswers) {
			s.AccessModel = ir.AccessPublic
			s.DataInvolved = ir.DataNonPersonal
		}, ir.RiskHigh},
		{"public without data", func(s *ir.ScopeAnswers) {
			s.AccessModel = ir.AccessPublic
			s.DataInvolved = ir.DataNone
		}, ir.RiskMedium},
		{"public with data unset", func(s *ir.ScopeAnswers) {
			s.AccessModel = ir.AccessPublic
		}, ir.RiskMedium},
		{"share personal data", func(s *ir.ScopeAnswers) {
			s.HasShareAction = true
			s.DataInvolved = ir.DataPersonalCommon
		}, ir.RiskHigh},
		{"share non-personal data", func(s *ir.ScopeAnswers) {
			s.HasShareAction = true
			s.DataInvolved = ir.DataNonPersonal
		}, ir.RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(testutil.Scope(tt.set)).Label)
		})
	}
}

func TestScore_Thresholds(t *testing.T) {
	tests := []struct {
		name  string
		set   func(*ir.ScopeAnswers)
		score int64
		want  ir.RiskLabel
	}{
		// 15 + 5 = 20
		{"exactly medium", func(s *ir.ScopeAnswers) {
			s.HasApprovalAction = true
			s.HasCreateAction = true
		}, 20, ir.RiskMedium},
		// 15 + 3 = 18
		{"just below medium", func(s *ir.ScopeAnswers) {
			s.HasApprovalAction = true
			s.HasInternalIntegrations = true
		}, 18, ir.RiskLow},
		// 10 + 15 + 15 = 40
		{"exactly high", func(s *ir.ScopeAnswers) {
			s.DeliveryType = ir.DeliveryNewProduct
			s.HasApprovalAction = true
			s.HasNewDataPurpose = true
		}, 40, ir.RiskHigh},
		// 15 + 15 + 8 = 38
		{"just below high", func(s *ir.ScopeAnswers) {
			s.HasApprovalAction = true
			s.HasNewDataPurpose = true
			s.HasAuditLogs = true
		}, 38, ir.RiskMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			risk := Score(testutil.Scope(tt.set))
			assert.Equal(t, tt.score, risk.Score)
			assert.Equal(t, tt.want, risk.Label)
		})
	}
}

func TestScore_DriversInEvaluationOrder(t *testing.T) {
	risk := Score(testutil.Scope(func(s *ir.ScopeAnswers) {
		s.HasAffectedExistingUsers = true
		s.DataInvolved = ir.DataPersonalCommon
		s.HasCreateAction = true
	}))

	assert.Equal(t, []string{
		"Handles common personal data",
		"Creating data requires input validation and auditing",
		"Impact on existing users requires reviewing user flows and feedback",
	}, risk.Drivers)
}

func TestScore_Deterministic(t *testing.T) {
	scope := testutil.Scope(func(s *ir.ScopeAnswers) {
		s.DeliveryType = ir.DeliveryThirdPartyIntegration
		s.AccessModel = ir.AccessAPIAutomation
		s.HasWebhooks = true
		s.HasExternalIntegrations = true
	})

	first := Score(scope)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(scope))
	}
}

func TestContributionWeightsNonNegative(t *testing.T) {
	for _, c := range contributions {
		assert.GreaterOrEqual(t, c.weight, int64(0), c.driver)
		assert.NotEmpty(t, c.driver)
	}
}
