// Package harness runs scopecard scenarios: a scope, optional overrides and
// a list of assertions about the resulting assessment.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	config: path/to/config-dir   # optional; embedded catalog when empty
//	scope:
//	  delivery_type: new-product
//	  has_delete_action: true
//	overrides:
//	  - session: "02"
//	    status: not-applicable
//	    reason: "N/A for this org"
//	assertions:
//	  - type: risk_label
//	    label: high
//	  - type: session_status
//	    session: "02"
//	    status: not-applicable
//
// # Assertion Types
//
//   - risk_label: the risk label equals label
//   - risk_score: the risk score equals score
//   - score_at_least: the risk score is at least score
//   - driver_contains: some driver contains the driver substring
//   - session_status: session has status (and reason, when given)
//   - session_source: session has source (rule or override)
//   - session_order: sessions appear in this relative order
//
// # Deterministic Testing
//
// Every scenario runs with a fresh override store, a deterministic clock
// (testutil.DeterministicClock) and an in-memory SQLite database, so the
// same scenario always yields byte-identical canonical JSON for golden
// comparison.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/children.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
