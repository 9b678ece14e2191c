package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/scopecard/internal/compliance"
	"github.com/roach88/scopecard/internal/ir"
)

// complianceResult collects the table plus everything noticed while building it.
type complianceResult struct {
	table    *compliance.Table
	errs     []ValidationError
	warnings []ValidationError
}

// CompileCompliance builds the compliance table from the work_item_compliance
// and work_item_documentation sections of v.
//
// Entries are matched to work items by "key". Legacy entries carrying an
// "index" are translated to the key at that position in the session's
// declared work item list; an index outside that list is an error.
// Malformed sections and entries are skipped with a warning.
func CompileCompliance(v cue.Value, rules []ir.SessionRule) (*compliance.Table, []ValidationError, []ValidationError) {
	res := &complianceResult{table: compliance.NewTable()}

	itemKeys := make(map[string][]string, len(rules))
	for _, r := range rules {
		keys := make([]string, 0, len(r.WorkItems))
		for _, it := range r.WorkItems {
			keys = append(keys, it.Key)
		}
		itemKeys[r.ID] = keys
	}

	res.walkSection(v, "work_item_compliance", itemKeys, res.addClauses)
	res.walkSection(v, "work_item_documentation", itemKeys, res.addDocuments)

	return res.table, res.errs, res.warnings
}

type entryFunc func(field, sessionID, itemKey string, entry cue.Value)

func (r *complianceResult) walkSection(v cue.Value, section string, itemKeys map[string][]string, add entryFunc) {
	secVal := v.LookupPath(cue.ParsePath(section))
	if !secVal.Exists() {
		return
	}

	iter, err := secVal.Fields()
	if err != nil {
		r.warn(section, ErrMalformedSection, fmt.Sprintf("not an object: %v", err))
		return
	}

	for iter.Next() {
		sessionID := iter.Label()
		field := fmt.Sprintf("%s.%s", section, sessionID)
		entries := iter.Value()

		keys, known := itemKeys[sessionID]
		if !known {
			r.warn(field, ErrUnknownSession, fmt.Sprintf("no session with id %q", sessionID))
			continue
		}

		if entries.Kind() != cue.ListKind {
			r.warn(field, ErrMalformedSection, "expected a list of entries, section skipped")
			continue
		}

		list, err := entries.List()
		if err != nil {
			r.warn(field, ErrMalformedSection, err.Error())
			continue
		}

		for i := 0; list.Next(); i++ {
			entryField := fmt.Sprintf("%s[%d]", field, i)
			entry := list.Value()
			key, ok := r.resolveKey(entryField, entry, keys)
			if !ok {
				continue
			}
			add(entryField, sessionID, key, entry)
		}
	}
}

// resolveKey returns the stable work item key an entry refers to.
func (r *complianceResult) resolveKey(field string, entry cue.Value, keys []string) (string, bool) {
	if entry.Kind() != cue.StructKind {
		r.warn(field, ErrMalformedSection, "expected an object, entry skipped")
		return "", false
	}

	if keyVal := entry.LookupPath(cue.ParsePath("key")); keyVal.Exists() {
		key, err := keyVal.String()
		if err != nil {
			r.warn(field+".key", ErrMalformedSection, "key must be a string, entry skipped")
			return "", false
		}
		for _, k := range keys {
			if k == key {
				return key, true
			}
		}
		r.warn(field+".key", ErrUnknownWorkItem, fmt.Sprintf("no work item with key %q", key))
		return "", false
	}

	if idxVal := entry.LookupPath(cue.ParsePath("index")); idxVal.Exists() {
		idx, err := idxVal.Int64()
		if err != nil {
			r.warn(field+".index", ErrMalformedSection, "index must be an integer, entry skipped")
			return "", false
		}
		if idx < 0 || idx >= int64(len(keys)) {
			r.errs = append(r.errs, ValidationError{
				Field:   field + ".index",
				Message: fmt.Sprintf("index %d out of range: session declares %d work items", idx, len(keys)),
				Code:    ErrIndexOutOfRange,
			})
			return "", false
		}
		return keys[idx], true
	}

	r.warn(field, ErrMalformedSection, "entry has neither key nor index, skipped")
	return "", false
}

func (r *complianceResult) addClauses(field, sessionID, itemKey string, entry cue.Value) {
	iter, err := entry.Fields()
	if err != nil {
		return
	}
	for iter.Next() {
		label := iter.Label()
		if label == "key" || label == "index" {
			continue
		}
		std := compliance.Standard(label)
		if !std.IsKnown() {
			r.warn(field+"."+label, ErrUnknownStandard, fmt.Sprintf("unknown standard %q ignored", label))
			continue
		}
		var clauses []string
		if err := iter.Value().Decode(&clauses); err != nil {
			r.warn(field+"."+label, ErrMalformedSection, "expected a list of strings, ignored")
			continue
		}
		r.table.SetClauses(sessionID, itemKey, std, clauses)
	}
}

func (r *complianceResult) addDocuments(field, sessionID, itemKey string, entry cue.Value) {
	docVal := entry.LookupPath(cue.ParsePath("document_types"))
	if !docVal.Exists() {
		return
	}
	var docs []string
	if err := docVal.Decode(&docs); err != nil {
		r.warn(field+".document_types", ErrMalformedSection, "expected a list of strings, ignored")
		return
	}
	r.table.SetDocuments(sessionID, itemKey, docs)
}

func (r *complianceResult) warn(field, code, msg string) {
	r.warnings = append(r.warnings, ValidationError{Field: field, Message: msg, Code: code})
}
