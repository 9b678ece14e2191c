package ir

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// DeliveryType classifies the kind of change being delivered.
type DeliveryType string

const (
	DeliveryUnset                 DeliveryType = ""
	DeliveryNewProduct            DeliveryType = "new-product"
	DeliveryFunctionalEvolution   DeliveryType = "functional-evolution"
	DeliveryVisualAdjustment      DeliveryType = "visual-ux-adjustment"
	DeliveryBugfix                DeliveryType = "technical-bugfix"
	DeliveryRefactoring           DeliveryType = "technical-refactoring"
	DeliveryThirdPartyIntegration DeliveryType = "third-party-integration"
	DeliveryDiscontinuation       DeliveryType = "discontinuation"
)

// DeliveryTypes lists every set value in declaration order.
var DeliveryTypes = []DeliveryType{
	DeliveryNewProduct,
	DeliveryFunctionalEvolution,
	DeliveryVisualAdjustment,
	DeliveryBugfix,
	DeliveryRefactoring,
	DeliveryThirdPartyIntegration,
	DeliveryDiscontinuation,
}

// DataCategory classifies the most sensitive data the change touches.
type DataCategory string

const (
	DataUnset             DataCategory = ""
	DataNone              DataCategory = "none"
	DataNonPersonal       DataCategory = "non-personal"
	DataPersonalCommon    DataCategory = "personal-common"
	DataPersonalSensitive DataCategory = "personal-sensitive"
	DataFinancial         DataCategory = "financial"
	DataChildren          DataCategory = "children"
)

// DataCategories lists every set value in declaration order.
var DataCategories = []DataCategory{
	DataNone,
	DataNonPersonal,
	DataPersonalCommon,
	DataPersonalSensitive,
	DataFinancial,
	DataChildren,
}

// AccessModel describes who can reach the changed functionality.
type AccessModel string

const (
	AccessUnset                    AccessModel = ""
	AccessPublic                   AccessModel = "public"
	AccessAuthenticated            AccessModel = "authenticated"
	AccessAuthenticatedPermissions AccessModel = "authenticated-permissions"
	AccessAdministrative           AccessModel = "administrative"
	AccessThirdParty               AccessModel = "third-party"
	AccessAPIAutomation            AccessModel = "api-automation"
)

// AccessModels lists every set value in declaration order.
var AccessModels = []AccessModel{
	AccessPublic,
	AccessAuthenticated,
	AccessAuthenticatedPermissions,
	AccessAdministrative,
	AccessThirdParty,
	AccessAPIAutomation,
}

// UserCapability describes the most capable actor using the change.
type UserCapability string

const (
	CapabilityUnset            UserCapability = ""
	CapabilityEndUser          UserCapability = "end-user"
	CapabilityAdvancedUser     UserCapability = "advanced-user"
	CapabilityInternalOperator UserCapability = "internal-operator"
	CapabilityAdministrator    UserCapability = "administrator"
	CapabilityAutomatedSystem  UserCapability = "automated-system"
)

// UserCapabilities lists every set value in declaration order.
var UserCapabilities = []UserCapability{
	CapabilityEndUser,
	CapabilityAdvancedUser,
	CapabilityInternalOperator,
	CapabilityAdministrator,
	CapabilityAutomatedSystem,
}

// IsPersonal reports whether the category identifies people or their money.
func (d DataCategory) IsPersonal() bool {
	switch d {
	case DataPersonalCommon, DataPersonalSensitive, DataFinancial, DataChildren:
		return true
	default:
		return false
	}
}

// IsSensitive reports whether the category carries elevated legal protection.
func (d DataCategory) IsSensitive() bool {
	switch d {
	case DataPersonalSensitive, DataFinancial, DataChildren:
		return true
	default:
		return false
	}
}

// Involved reports whether any data is handled at all. Unset counts as none,
// so an unanswered data question never triggers hasPersonalData or the
// public-access high-risk rule. Interactive forms require an answer before
// assessing, so the two readings only differ for partial scope files.
func (d DataCategory) Involved() bool {
	return d != DataUnset && d != DataNone
}

// ScopeAnswers is the structured description of a proposed change.
//
// Categorical fields hold exactly one enumeration value or "" (unset).
// Booleans default to false except the three compliance toggles; use
// NewScopeAnswers or ParseScopeAnswers to get those defaults.
type ScopeAnswers struct {
	DeliveryType   DeliveryType   `json:"delivery_type" yaml:"delivery_type"`
	DataInvolved   DataCategory   `json:"data_involved" yaml:"data_involved"`
	AccessModel    AccessModel    `json:"access_model" yaml:"access_model"`
	UserCapability UserCapability `json:"user_capability" yaml:"user_capability"`

	// Sensitive actions
	HasCreateAction       bool `json:"has_create_action" yaml:"has_create_action"`
	HasEditAction         bool `json:"has_edit_action" yaml:"has_edit_action"`
	HasDeleteAction       bool `json:"has_delete_action" yaml:"has_delete_action"`
	HasApprovalAction     bool `json:"has_approval_action" yaml:"has_approval_action"`
	HasExportAction       bool `json:"has_export_action" yaml:"has_export_action"`
	HasShareAction        bool `json:"has_share_action" yaml:"has_share_action"`
	HasIrreversibleAction bool `json:"has_irreversible_action" yaml:"has_irreversible_action"`

	// Persistence and lifecycle
	HasTemporaryData    bool `json:"has_temporary_data" yaml:"has_temporary_data"`
	HasPersistentData   bool `json:"has_persistent_data" yaml:"has_persistent_data"`
	HasRetentionPolicy  bool `json:"has_retention_policy" yaml:"has_retention_policy"`
	HasOnDemandDeletion bool `json:"has_on_demand_deletion" yaml:"has_on_demand_deletion"`
	HasVersioning       bool `json:"has_versioning" yaml:"has_versioning"`

	// Sharing and integrations
	HasNoSharing             bool `json:"has_no_sharing" yaml:"has_no_sharing"`
	HasInternalIntegrations  bool `json:"has_internal_integrations" yaml:"has_internal_integrations"`
	HasExternalIntegrations  bool `json:"has_external_integrations" yaml:"has_external_integrations"`
	HasInternationalTransfer bool `json:"has_international_transfer" yaml:"has_international_transfer"`
	HasWebhooks              bool `json:"has_webhooks" yaml:"has_webhooks"`

	// Security and reliability
	HasAuthenticationReq   bool `json:"has_authentication_req" yaml:"has_authentication_req"`
	HasAuthorizationReq    bool `json:"has_authorization_req" yaml:"has_authorization_req"`
	HasEncryptionInTransit bool `json:"has_encryption_in_transit" yaml:"has_encryption_in_transit"`
	HasEncryptionAtRest    bool `json:"has_encryption_at_rest" yaml:"has_encryption_at_rest"`
	HasAuditLogs           bool `json:"has_audit_logs" yaml:"has_audit_logs"`
	HasUsageMonitoring     bool `json:"has_usage_monitoring" yaml:"has_usage_monitoring"`

	// Change impact
	HasNoImpact              bool `json:"has_no_impact" yaml:"has_no_impact"`
	HasChangedBehavior       bool `json:"has_changed_behavior" yaml:"has_changed_behavior"`
	HasNewDataPurpose        bool `json:"has_new_data_purpose" yaml:"has_new_data_purpose"`
	HasChangedDataCollection bool `json:"has_changed_data_collection" yaml:"has_changed_data_collection"`
	HasChangedIntegrations   bool `json:"has_changed_integrations" yaml:"has_changed_integrations"`
	HasAffectedExistingUsers bool `json:"has_affected_existing_users" yaml:"has_affected_existing_users"`

	// Financial transactions
	HasFinancial bool `json:"has_financial" yaml:"has_financial"`

	// Compliance standards (default true)
	ComplianceISO9001  bool `json:"compliance_iso_9001" yaml:"compliance_iso_9001"`
	ComplianceISO27001 bool `json:"compliance_iso_27001" yaml:"compliance_iso_27001"`
	ComplianceISO27701 bool `json:"compliance_iso_27701" yaml:"compliance_iso_27701"`
}

// NewScopeAnswers returns answers with every field at its default.
func NewScopeAnswers() ScopeAnswers {
	return ScopeAnswers{
		ComplianceISO9001:  true,
		ComplianceISO27001: true,
		ComplianceISO27701: true,
	}
}

// ParseScopeAnswers decodes YAML (or JSON, which is valid YAML) on top of
// the defaults, so omitted compliance toggles stay true.
func ParseScopeAnswers(data []byte) (ScopeAnswers, error) {
	scope := NewScopeAnswers()
	if err := yaml.Unmarshal(data, &scope); err != nil {
		return ScopeAnswers{}, fmt.Errorf("parse scope answers: %w", err)
	}
	if err := scope.Validate(); err != nil {
		return ScopeAnswers{}, err
	}
	return scope, nil
}

// Validate checks that every categorical field holds a known value or unset.
func (s ScopeAnswers) Validate() error {
	if s.DeliveryType != DeliveryUnset && !slices.Contains(DeliveryTypes, s.DeliveryType) {
		return fmt.Errorf("invalid delivery_type %q", s.DeliveryType)
	}
	if s.DataInvolved != DataUnset && !slices.Contains(DataCategories, s.DataInvolved) {
		return fmt.Errorf("invalid data_involved %q", s.DataInvolved)
	}
	if s.AccessModel != AccessUnset && !slices.Contains(AccessModels, s.AccessModel) {
		return fmt.Errorf("invalid access_model %q", s.AccessModel)
	}
	if s.UserCapability != CapabilityUnset && !slices.Contains(UserCapabilities, s.UserCapability) {
		return fmt.Errorf("invalid user_capability %q", s.UserCapability)
	}
	return nil
}
