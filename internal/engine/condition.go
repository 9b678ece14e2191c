package engine

import (
	"fmt"
	"strings"

	"github.com/roach88/scopecard/internal/ir"
)

// ConditionKind enumerates every predicate a session rule may reference.
// Adding a kind means adding a case to Evaluate; the switch has no default
// that silently absorbs new kinds.
type ConditionKind int

const (
	// ConditionUnknown is produced for names outside the vocabulary.
	// It always evaluates to false.
	ConditionUnknown ConditionKind = iota
	ConditionHasPersonalData
	ConditionHasSensitiveData
	ConditionHasPersistentData
	ConditionHasCriticalActions
	ConditionHasSharing
	ConditionHasAuthorizationReq
	ConditionHasAuthenticationReq
	ConditionHasAffectedExistingUsers
	ConditionHasChangedBehavior
	ConditionHasNewDataPurpose
	ConditionHasInternationalTransfer
	ConditionIsHighRisk
	// ConditionFieldEquals compares a categorical field to a value ("field:value").
	ConditionFieldEquals
)

// ScopeField names a categorical ScopeAnswers field usable in field:value conditions.
type ScopeField string

const (
	FieldDeliveryType   ScopeField = "deliveryType"
	FieldDataInvolved   ScopeField = "dataInvolved"
	FieldAccessModel    ScopeField = "accessModel"
	FieldUserCapability ScopeField = "userCapability"
)

var namedConditions = map[string]ConditionKind{
	"hasPersonalData":          ConditionHasPersonalData,
	"hasSensitiveData":         ConditionHasSensitiveData,
	"hasPersistentData":        ConditionHasPersistentData,
	"hasCriticalActions":       ConditionHasCriticalActions,
	"hasSharing":               ConditionHasSharing,
	"hasAuthorizationReq":      ConditionHasAuthorizationReq,
	"hasAuthenticationReq":     ConditionHasAuthenticationReq,
	"hasAffectedExistingUsers": ConditionHasAffectedExistingUsers,
	"hasChangedBehavior":       ConditionHasChangedBehavior,
	"hasNewDataPurpose":        ConditionHasNewDataPurpose,
	"hasInternationalTransfer": ConditionHasInternationalTransfer,
	"isHighRisk":               ConditionIsHighRisk,
}

// Condition is a parsed predicate.
type Condition struct {
	Kind  ConditionKind
	Name  string     // source text, kept for diagnostics
	Field ScopeField // ConditionFieldEquals only
	Value string     // ConditionFieldEquals only
}

// ParseCondition maps a configuration string to a Condition.
// Unrecognized names return a ConditionUnknown together with an error the
// caller may report; the returned condition is still safe to evaluate.
func ParseCondition(name string) (Condition, error) {
	if kind, ok := namedConditions[name]; ok {
		return Condition{Kind: kind, Name: name}, nil
	}

	field, value, ok := strings.Cut(name, ":")
	if !ok {
		return Condition{Kind: ConditionUnknown, Name: name}, fmt.Errorf("unknown condition %q", name)
	}

	f := ScopeField(field)
	if !validFieldValue(f, value) {
		return Condition{Kind: ConditionUnknown, Name: name},
			fmt.Errorf("condition %q: unknown field or value", name)
	}
	return Condition{Kind: ConditionFieldEquals, Name: name, Field: f, Value: value}, nil
}

func validFieldValue(f ScopeField, value string) bool {
	switch f {
	case FieldDeliveryType:
		for _, v := range ir.DeliveryTypes {
			if string(v) == value {
				return true
			}
		}
	case FieldDataInvolved:
		for _, v := range ir.DataCategories {
			if string(v) == value {
				return true
			}
		}
	case FieldAccessModel:
		for _, v := range ir.AccessModels {
			if string(v) == value {
				return true
			}
		}
	case FieldUserCapability:
		for _, v := range ir.UserCapabilities {
			if string(v) == value {
				return true
			}
		}
	}
	return false
}

// Evaluator decides whether a condition holds for a scope and risk.
type Evaluator interface {
	Evaluate(cond Condition, scope ir.ScopeAnswers, risk ir.RiskAssessment) bool
}

// ScopeEvaluator is the production Evaluator. It is pure and stateless.
type ScopeEvaluator struct{}

// Evaluate implements Evaluator.
func (ScopeEvaluator) Evaluate(cond Condition, scope ir.ScopeAnswers, risk ir.RiskAssessment) bool {
	switch cond.Kind {
	case ConditionUnknown:
		return false
	case ConditionHasPersonalData:
		return scope.DataInvolved.Involved() && scope.DataInvolved != ir.DataNonPersonal
	case ConditionHasSensitiveData:
		return scope.DataInvolved.IsSensitive()
	case ConditionHasPersistentData:
		return scope.HasPersistentData
	case ConditionHasCriticalActions:
		return scope.HasDeleteAction || scope.HasIrreversibleAction || scope.HasApprovalAction
	case ConditionHasSharing:
		return scope.HasShareAction || scope.HasExportAction ||
			scope.HasExternalIntegrations || scope.HasInternalIntegrations
	case ConditionHasAuthorizationReq:
		return scope.HasAuthorizationReq
	case ConditionHasAuthenticationReq:
		return scope.HasAuthenticationReq
	case ConditionHasAffectedExistingUsers:
		return scope.HasAffectedExistingUsers
	case ConditionHasChangedBehavior:
		return scope.HasChangedBehavior
	case ConditionHasNewDataPurpose:
		return scope.HasNewDataPurpose
	case ConditionHasInternationalTransfer:
		return scope.HasInternationalTransfer
	case ConditionIsHighRisk:
		return risk.Label == ir.RiskHigh
	case ConditionFieldEquals:
		return fieldValue(scope, cond.Field) == cond.Value
	}
	return false
}

func fieldValue(scope ir.ScopeAnswers, f ScopeField) string {
	switch f {
	case FieldDeliveryType:
		return string(scope.DeliveryType)
	case FieldDataInvolved:
		return string(scope.DataInvolved)
	case FieldAccessModel:
		return string(scope.AccessModel)
	case FieldUserCapability:
		return string(scope.UserCapability)
	}
	return ""
}
