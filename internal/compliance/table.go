package compliance

import (
	"slices"

	"github.com/roach88/scopecard/internal/ir"
)

// Standard identifies one clause column of the compliance table.
type Standard string

const (
	ISO9001         Standard = "iso_9001_2015"
	ISO27001Clauses Standard = "iso_iec_27001_2022_clauses"
	ISO27001AnnexA  Standard = "iso_iec_27001_2022_annexA"
	ISO27701        Standard = "iso_iec_27701_2019_clauses"
)

// Standards lists every clause column in output order.
var Standards = []Standard{ISO9001, ISO27001Clauses, ISO27001AnnexA, ISO27701}

// IsKnown reports whether s is one of the supported clause columns.
func (s Standard) IsKnown() bool {
	switch s {
	case ISO9001, ISO27001Clauses, ISO27001AnnexA, ISO27701:
		return true
	default:
		return false
	}
}

type entry struct {
	clauses   map[Standard][]string
	documents []string
}

// Table holds clause references and document hints per (session, item key).
type Table struct {
	entries map[string]map[string]*entry
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string]map[string]*entry)}
}

func (t *Table) entry(sessionID, itemKey string) *entry {
	items, ok := t.entries[sessionID]
	if !ok {
		items = make(map[string]*entry)
		t.entries[sessionID] = items
	}
	e, ok := items[itemKey]
	if !ok {
		e = &entry{clauses: make(map[Standard][]string)}
		items[itemKey] = e
	}
	return e
}

// SetClauses records the clause ids of one standard for a work item.
// Intended for table construction only.
func (t *Table) SetClauses(sessionID, itemKey string, std Standard, clauses []string) {
	t.entry(sessionID, itemKey).clauses[std] = nonNil(slices.Clone(clauses))
}

// SetDocuments records suggested artifact names for a work item.
// Intended for table construction only.
func (t *Table) SetDocuments(sessionID, itemKey string, docs []string) {
	t.entry(sessionID, itemKey).documents = slices.Clone(docs)
}

func (t *Table) lookup(sessionID, itemKey string) *entry {
	if t == nil {
		return nil
	}
	return t.entries[sessionID][itemKey]
}

// Lookup returns the clause ids for (session, item, standard).
// The boolean is false when no entry exists; that is not an error.
func (t *Table) Lookup(sessionID, itemKey string, std Standard) ([]string, bool) {
	e := t.lookup(sessionID, itemKey)
	if e == nil {
		return nil, false
	}
	clauses, ok := e.clauses[std]
	if !ok {
		return nil, false
	}
	return slices.Clone(clauses), true
}

// Documents returns suggested artifact names for a work item, or nil.
func (t *Table) Documents(sessionID, itemKey string) []string {
	e := t.lookup(sessionID, itemKey)
	if e == nil {
		return nil
	}
	return slices.Clone(e.documents)
}

// Sessions returns the number of sessions with at least one entry.
func (t *Table) Sessions() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Enrich builds the output work item for a template. Missing entries leave
// the reference lists empty.
func (t *Table) Enrich(sessionID string, tmpl ir.WorkItemTemplate) ir.WorkItem {
	clauses := func(std Standard) []string {
		c, _ := t.Lookup(sessionID, tmpl.Key, std)
		return nonNil(c)
	}
	return ir.WorkItem{
		Key:             tmpl.Key,
		Text:            tmpl.Text,
		DocumentTypes:   nonNil(t.Documents(sessionID, tmpl.Key)),
		ISO9001:         clauses(ISO9001),
		ISO27001Clauses: clauses(ISO27001Clauses),
		ISO27001AnnexA:  clauses(ISO27001AnnexA),
		ISO27701:        clauses(ISO27701),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
