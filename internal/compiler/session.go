package compiler

import (
	"fmt"
	"strconv"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/scopecard/internal/ir"
)

// CompileSession parses a CUE value into a SessionRule.
// The value should be one element of the top-level sessions list, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`sessions: [{id: "00", title: "Objective"}]`)
//	iter, _ := v.LookupPath(cue.ParsePath("sessions")).List()
//	iter.Next()
//	rule, err := CompileSession(iter.Value())
func CompileSession(v cue.Value) (*ir.SessionRule, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	rule := &ir.SessionRule{}

	// id and title are required
	var err error
	if rule.ID, err = requiredString(v, "id"); err != nil {
		return nil, err
	}
	if rule.Title, err = requiredString(v, "title"); err != nil {
		return nil, err
	}
	if rule.Focus, err = optionalString(v, "focus"); err != nil {
		return nil, err
	}

	rule.WorkItems, err = parseWorkItems(v)
	if err != nil {
		return nil, err
	}

	appVal := v.LookupPath(cue.ParsePath("applicability_rules"))
	if appVal.Exists() {
		if err := appVal.Decode(&rule.Applicability); err != nil {
			return nil, &CompileError{
				Field:   "applicability_rules",
				Message: err.Error(),
				Pos:     appVal.Pos(),
			}
		}
	}

	ovVal := v.LookupPath(cue.ParsePath("manual_override"))
	if ovVal.Exists() {
		ov, err := parseOverride(ovVal)
		if err != nil {
			return nil, err
		}
		rule.ManualOverride = ov
	}

	return rule, nil
}

// parseWorkItems accepts both keyed objects and bare strings.
// A bare string gets its position as key, so legacy index-based
// compliance entries still resolve.
func parseWorkItems(v cue.Value) ([]ir.WorkItemTemplate, error) {
	itemsVal := v.LookupPath(cue.ParsePath("work_items"))
	if !itemsVal.Exists() {
		return []ir.WorkItemTemplate{}, nil
	}

	iter, err := itemsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	items := []ir.WorkItemTemplate{}
	for i := 0; iter.Next(); i++ {
		item := iter.Value()

		if text, err := item.String(); err == nil {
			items = append(items, ir.WorkItemTemplate{Key: strconv.Itoa(i), Text: text})
			continue
		}

		key, err := requiredString(item, "key")
		if err != nil {
			return nil, err
		}
		text, err := optionalString(item, "text")
		if err != nil {
			return nil, err
		}
		items = append(items, ir.WorkItemTemplate{Key: key, Text: text})
	}
	return items, nil
}

func parseOverride(v cue.Value) (*ir.Override, error) {
	status, err := requiredString(v, "status")
	if err != nil {
		return nil, err
	}
	reason, err := optionalString(v, "reason")
	if err != nil {
		return nil, err
	}

	ov := &ir.Override{Status: ir.Status(status), Reason: reason}

	updated, err := optionalString(v, "updatedAt")
	if err != nil {
		return nil, err
	}
	if updated != "" {
		ts, err := time.Parse(time.RFC3339, updated)
		if err != nil {
			return nil, &CompileError{
				Field:   "manual_override.updatedAt",
				Message: fmt.Sprintf("invalid timestamp %q: want RFC 3339", updated),
				Pos:     v.Pos(),
			}
		}
		ov.UpdatedAt = ts.UTC()
	}
	return ov, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
