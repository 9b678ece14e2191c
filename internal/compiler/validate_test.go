package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scopecard/internal/ir"
)

func validRule(id string) ir.SessionRule {
	return ir.SessionRule{
		ID:        id,
		Title:     "Session " + id,
		WorkItems: []ir.WorkItemTemplate{{Key: "a", Text: "A"}, {Key: "b", Text: "B"}},
		Applicability: ir.Applicability{
			RequiredWhen: []ir.ConditionRule{{Condition: "hasSharing", Reason: "Sharing"}},
		},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestValidateRulesValid(t *testing.T) {
	errs, warnings := ValidateRules([]ir.SessionRule{validRule("00"), validRule("01")})
	assert.Empty(t, errs)
	assert.Empty(t, warnings)
}

func TestValidateRulesEmpty(t *testing.T) {
	errs, _ := ValidateRules(nil)
	assert.Equal(t, []string{ErrNoSessions}, codes(errs))
}

func TestValidateRulesCollectsAll(t *testing.T) {
	noID := validRule("")
	noTitle := validRule("02")
	noTitle.Title = " "
	dupItems := validRule("03")
	dupItems.WorkItems = append(dupItems.WorkItems, ir.WorkItemTemplate{Key: "a"}, ir.WorkItemTemplate{Key: ""})
	badOverride := validRule("04")
	badOverride.ManualOverride = &ir.Override{Status: "maybe"}
	emptyCond := validRule("05")
	emptyCond.Applicability.RequiredWhen = []ir.ConditionRule{{Condition: "", Reason: "?"}}

	rules := []ir.SessionRule{
		validRule("01"),
		validRule("01"),
		noID,
		noTitle,
		dupItems,
		badOverride,
		emptyCond,
	}

	errs, _ := ValidateRules(rules)
	assert.ElementsMatch(t, []string{
		ErrDuplicateSession,
		ErrSessionIDEmpty,
		ErrSessionTitleEmpty,
		ErrDuplicateWorkItem,
		ErrWorkItemKeyEmpty,
		ErrInvalidOverride,
		ErrEmptyCondition,
	}, codes(errs))
}

func TestValidateRulesUnknownConditionWarns(t *testing.T) {
	r := validRule("00")
	r.Applicability.RequiredWhen = append(r.Applicability.RequiredWhen,
		ir.ConditionRule{Condition: "hasTelepathy", Reason: "?"},
		ir.ConditionRule{Condition: "accessModel:everyone", Reason: "?"},
		ir.ConditionRule{Condition: "accessModel:public", Reason: "ok"},
	)

	errs, warnings := ValidateRules([]ir.SessionRule{r})
	assert.Empty(t, errs)
	require.Len(t, warnings, 2)
	for _, w := range warnings {
		assert.Equal(t, ErrUnknownCondition, w.Code)
		assert.True(t, w.IsWarning())
	}
	assert.Equal(t, "sessions[0].applicability_rules.required_when[1].condition", warnings[0].Field)
}

func TestValidationErrorFormat(t *testing.T) {
	e := ValidationError{Field: "sessions[0].id", Message: "id is required", Code: ErrSessionIDEmpty}
	assert.Equal(t, "[E101] sessions[0].id: id is required", e.Error())
	assert.False(t, e.IsWarning())

	e.Line = 7
	assert.Equal(t, "[E101] line 7: sessions[0].id: id is required", e.Error())

	errs := ValidationErrors{e, {Field: "f", Message: "m", Code: "E102"}}
	assert.Contains(t, errs.Error(), "2 validation errors")
}
