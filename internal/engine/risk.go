package engine

import "github.com/roach88/scopecard/internal/ir"

// Label thresholds applied when no override rule forces the label.
const (
	HighThreshold   int64 = 40
	MediumThreshold int64 = 20
)

// contribution is one additive risk factor. Weights are non-negative, so
// the total can only grow as more factors fire.
type contribution struct {
	weight int64
	driver string
	active func(ir.ScopeAnswers) bool
}

// contributions is evaluated in order; drivers are reported in this order.
var contributions = []contribution{
	// Data
	{15, "Handles common personal data", func(s ir.ScopeAnswers) bool { return s.DataInvolved == ir.DataPersonalCommon }},
	{40, "Handles sensitive personal data (high impact)", func(s ir.ScopeAnswers) bool { return s.DataInvolved == ir.DataPersonalSensitive }},
	{35, "Handles financial data (high impact)", func(s ir.ScopeAnswers) bool { return s.DataInvolved == ir.DataFinancial }},
	{45, "Handles children's data (high impact and legal compliance)", func(s ir.ScopeAnswers) bool { return s.DataInvolved == ir.DataChildren }},

	// Access model
	{20, "Public access widens the exposure surface", func(s ir.ScopeAnswers) bool { return s.AccessModel == ir.AccessPublic }},
	{15, "Third-party access requires authentication and audit controls", func(s ir.ScopeAnswers) bool { return s.AccessModel == ir.AccessThirdParty }},
	{18, "Unsupervised API automation requires validation and rate limiting", func(s ir.ScopeAnswers) bool { return s.AccessModel == ir.AccessAPIAutomation }},

	// Sensitive actions
	{5, "Creating data requires input validation and auditing", func(s ir.ScopeAnswers) bool { return s.HasCreateAction }},
	{8, "Editing data requires version control and auditing", func(s ir.ScopeAnswers) bool { return s.HasEditAction }},
	{12, "Deletion requires confirmation, soft delete and auditing", func(s ir.ScopeAnswers) bool { return s.HasDeleteAction }},
	{15, "Approval flows require careful design and traceability", func(s ir.ScopeAnswers) bool { return s.HasApprovalAction }},
	{10, "Export can expose data outside the system", func(s ir.ScopeAnswers) bool { return s.HasExportAction }},
	{15, "Sharing increases the risk of leaks and unauthorized access", func(s ir.ScopeAnswers) bool { return s.HasShareAction }},
	{20, "Irreversible actions require double confirmation and full logging", func(s ir.ScopeAnswers) bool { return s.HasIrreversibleAction }},

	// Financial transactions
	{20, "Financial transactions require maximum security", func(s ir.ScopeAnswers) bool { return s.HasFinancial }},

	// Persistence and lifecycle
	{5, "Retention policies require automation and clear communication", func(s ir.ScopeAnswers) bool { return s.HasRetentionPolicy }},
	{8, "On-demand deletion must honor the right to erasure", func(s ir.ScopeAnswers) bool { return s.HasOnDemandDeletion }},
	{5, "Versioning requires history and audit design", func(s ir.ScopeAnswers) bool { return s.HasVersioning }},

	// Sharing and integrations
	{3, "Internal integrations require authenticated service-to-service calls", func(s ir.ScopeAnswers) bool { return s.HasInternalIntegrations }},
	{10, "External integrations require OAuth, rate limiting and failure handling", func(s ir.ScopeAnswers) bool { return s.HasExternalIntegrations }},
	{15, "International transfer requires adequate safeguards", func(s ir.ScopeAnswers) bool { return s.HasInternationalTransfer }},
	{8, "Webhooks require signature validation, retries and idempotency", func(s ir.ScopeAnswers) bool { return s.HasWebhooks }},

	// Security and reliability
	{5, "Authorization adds permission management complexity", func(s ir.ScopeAnswers) bool { return s.HasAuthorizationReq }},
	{3, "Encryption at rest requires key management", func(s ir.ScopeAnswers) bool { return s.HasEncryptionAtRest }},
	{8, "Audit logs require end-to-end traceability design", func(s ir.ScopeAnswers) bool { return s.HasAuditLogs }},
	{5, "Usage monitoring requires dashboards and anomaly detection", func(s ir.ScopeAnswers) bool { return s.HasUsageMonitoring }},

	// Change impact
	{8, "Changed behavior requires reviewing user flows and feedback", func(s ir.ScopeAnswers) bool { return s.HasChangedBehavior }},
	{15, "A new data purpose requires privacy policy and consent review", func(s ir.ScopeAnswers) bool { return s.HasNewDataPurpose }},
	{12, "Changed data collection requires privacy policy and consent review", func(s ir.ScopeAnswers) bool { return s.HasChangedDataCollection }},
	{10, "Changed integrations require security and authentication review", func(s ir.ScopeAnswers) bool { return s.HasChangedIntegrations }},
	{10, "Impact on existing users requires reviewing user flows and feedback", func(s ir.ScopeAnswers) bool { return s.HasAffectedExistingUsers }},
}

// BaseScore returns the delivery-type base score.
func BaseScore(d ir.DeliveryType) int64 {
	switch d {
	case ir.DeliveryNewProduct:
		return 10
	case ir.DeliveryFunctionalEvolution, ir.DeliveryThirdPartyIntegration, ir.DeliveryDiscontinuation:
		return 5
	case ir.DeliveryVisualAdjustment, ir.DeliveryBugfix, ir.DeliveryRefactoring, ir.DeliveryUnset:
		return 0
	}
	return 0
}

// Score computes the risk assessment for a scope. It is a pure function:
// identical input yields identical score, label and driver order.
func Score(scope ir.ScopeAnswers) ir.RiskAssessment {
	score := BaseScore(scope.DeliveryType)
	drivers := []string{}

	for _, c := range contributions {
		if c.active(scope) {
			score += c.weight
			drivers = append(drivers, c.driver)
		}
	}

	return ir.RiskAssessment{
		Score:   score,
		Label:   labelFor(scope, score),
		Drivers: drivers,
	}
}

// labelFor applies the override rules first, then the thresholds.
func labelFor(scope ir.ScopeAnswers, score int64) ir.RiskLabel {
	if forcedHigh(scope) {
		return ir.RiskHigh
	}
	switch {
	case score >= HighThreshold:
		return ir.RiskHigh
	case score >= MediumThreshold:
		return ir.RiskMedium
	default:
		return ir.RiskLow
	}
}

// forcedHigh reports whether the scope is high risk regardless of score.
func forcedHigh(scope ir.ScopeAnswers) bool {
	data := scope.DataInvolved
	switch {
	case data.IsSensitive():
		return true
	case scope.HasIrreversibleAction:
		return true
	case scope.AccessModel == ir.AccessPublic && data.Involved():
		return true
	case scope.HasShareAction && data.IsPersonal():
		return true
	}
	return false
}
