package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scopecard/internal/ir"
)

func TestConsiderationsDefaultsYieldGenericLines(t *testing.T) {
	got := ConsiderationsFor(ir.NewScopeAnswers())
	require.Len(t, got, 3)

	assert.Equal(t, "ISO 9001", got[0].Standard)
	assert.Len(t, got[0].Items, 2)
	assert.Equal(t, []string{"Apply information security principles in the design"}, got[1].Items)
	assert.Equal(t, []string{"Apply privacy principles in the design"}, got[2].Items)
}

func TestConsiderationsHonorToggles(t *testing.T) {
	scope := ir.NewScopeAnswers()
	scope.ComplianceISO9001 = false
	scope.ComplianceISO27701 = false

	got := ConsiderationsFor(scope)
	require.Len(t, got, 1)
	assert.Equal(t, "ISO/IEC 27001", got[0].Standard)

	scope.ComplianceISO27001 = false
	assert.Empty(t, ConsiderationsFor(scope))
}

func TestConsiderationsSensitiveSharing(t *testing.T) {
	scope := ir.NewScopeAnswers()
	scope.DataInvolved = ir.DataChildren
	scope.HasShareAction = true
	scope.AccessModel = ir.AccessPublic

	got := ConsiderationsFor(scope)
	require.Len(t, got, 3)

	assert.Contains(t, got[1].Items, "Protect sensitive data at rest and in transit (ISO 27001: A.8.2.3)")
	assert.Contains(t, got[2].Items, "Obtain explicit consent for processing sensitive data (ISO 27701: 7.3.2)")
	assert.Contains(t, got[2].Items, "Document transfers of data to third parties (ISO 27701: 7.5.1)")
	assert.Contains(t, got[2].Items, "Inform clearly about data collection and use (ISO 27701: 7.3.1)")
}

func TestConsiderationsChangeWork(t *testing.T) {
	scope := ir.NewScopeAnswers()
	scope.DeliveryType = ir.DeliveryFunctionalEvolution

	items := ConsiderationsFor(scope)[0].Items
	assert.Equal(t, []string{
		"Document design processes and decisions traceably (ISO 9001: 7.5)",
		"Validate requirements with stakeholders before design starts (ISO 9001: 8.2.3)",
		"Control design changes with an impact analysis (ISO 9001: 8.3.6)",
	}, items)
}
