package compliance

import "github.com/roach88/scopecard/internal/ir"

// Considerations lists design guidance for one enabled standard.
type Considerations struct {
	Standard string   `json:"standard"`
	Items    []string `json:"items"`
}

// ConsiderationsFor returns guidance for each standard toggled on in scope,
// in the order ISO 9001, ISO 27001, ISO 27701. Each standard always yields
// at least one line.
func ConsiderationsFor(scope ir.ScopeAnswers) []Considerations {
	var out []Considerations
	if scope.ComplianceISO9001 {
		out = append(out, Considerations{Standard: "ISO 9001", Items: iso9001(scope)})
	}
	if scope.ComplianceISO27001 {
		out = append(out, Considerations{Standard: "ISO/IEC 27001", Items: iso27001(scope)})
	}
	if scope.ComplianceISO27701 {
		out = append(out, Considerations{Standard: "ISO/IEC 27701", Items: iso27701(scope)})
	}
	return out
}

func iso9001(s ir.ScopeAnswers) []string {
	items := []string{"Document design processes and decisions traceably (ISO 9001: 7.5)"}

	switch s.DeliveryType {
	case ir.DeliveryNewProduct, ir.DeliveryFunctionalEvolution:
		items = append(items, "Validate requirements with stakeholders before design starts (ISO 9001: 8.2.3)")
	}
	if s.HasApprovalAction {
		items = append(items, "Run a documented review and approval process (ISO 9001: 8.3.4)")
	}
	switch s.DeliveryType {
	case ir.DeliveryFunctionalEvolution, ir.DeliveryVisualAdjustment, ir.DeliveryBugfix:
		items = append(items, "Control design changes with an impact analysis (ISO 9001: 8.3.6)")
	}

	if len(items) == 1 {
		items = append(items, "Keep design deliverables traceable and quality-checked")
	}
	return items
}

func iso27001(s ir.ScopeAnswers) []string {
	var items []string
	data := s.DataInvolved

	if data.Involved() {
		items = append(items, "Classify information assets and apply matching controls (ISO 27001: A.8.2)")
	}
	if s.AccessModel == ir.AccessPublic {
		items = append(items, "Control public access and require authentication where needed (ISO 27001: A.9.1)")
	}
	if s.HasDeleteAction || s.HasIrreversibleAction {
		items = append(items, "Keep audit logs for critical actions (ISO 27001: A.12.4)")
	}
	if s.HasShareAction || s.HasExportAction {
		items = append(items, "Control information transfer and prevent leakage (ISO 27001: A.13.2)")
	}
	if s.HasFinancial {
		items = append(items, "Apply cryptographic controls to financial data (ISO 27001: A.10)")
	}
	if data.IsSensitive() {
		items = append(items, "Protect sensitive data at rest and in transit (ISO 27001: A.8.2.3)")
	}

	if len(items) == 0 {
		items = append(items, "Apply information security principles in the design")
	}
	return items
}

func iso27701(s ir.ScopeAnswers) []string {
	var items []string
	data := s.DataInvolved

	if data.IsPersonal() {
		items = append(items,
			"Apply privacy by design from the start (ISO 27701: 6.1.1)",
			"Minimize personal data collection to what is strictly needed (ISO 27701: 7.2.2)")
	}
	if data == ir.DataPersonalSensitive || data == ir.DataChildren {
		items = append(items,
			"Obtain explicit consent for processing sensitive data (ISO 27701: 7.3.2)",
			"Apply strict controls to sensitive data (ISO 27701: 7.2.8)")
	}
	if s.HasDeleteAction && data.Involved() {
		items = append(items, "Guarantee the right to erasure of personal data (ISO 27701: 7.3.4)")
	}
	if s.HasExportAction && data.Involved() {
		items = append(items, "Provide data portability in a structured format (ISO 27701: 7.3.5)")
	}
	if s.HasShareAction && data.Involved() {
		items = append(items,
			"Obtain consent before sharing personal data (ISO 27701: 7.3.3)",
			"Document transfers of data to third parties (ISO 27701: 7.5.1)")
	}
	if s.AccessModel == ir.AccessPublic && data.Involved() {
		items = append(items, "Inform clearly about data collection and use (ISO 27701: 7.3.1)")
	}
	if data.Involved() {
		items = append(items, "Provide transparency and control mechanisms to data subjects (ISO 27701: 7.3)")
	}

	if len(items) == 0 {
		items = append(items, "Apply privacy principles in the design")
	}
	return items
}
