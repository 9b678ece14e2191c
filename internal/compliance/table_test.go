package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scopecard/internal/ir"
)

func TestTableLookup(t *testing.T) {
	tbl := NewTable()
	tbl.SetClauses("00", "problem", ISO9001, []string{"4.1", "4.2"})
	tbl.SetDocuments("00", "problem", []string{"PRD"})

	clauses, ok := tbl.Lookup("00", "problem", ISO9001)
	require.True(t, ok)
	assert.Equal(t, []string{"4.1", "4.2"}, clauses)

	_, ok = tbl.Lookup("00", "problem", ISO27701)
	assert.False(t, ok, "standard without entry")

	_, ok = tbl.Lookup("00", "audience", ISO9001)
	assert.False(t, ok, "item without entry")

	_, ok = tbl.Lookup("99", "problem", ISO9001)
	assert.False(t, ok, "session without entry")

	assert.Equal(t, []string{"PRD"}, tbl.Documents("00", "problem"))
	assert.Nil(t, tbl.Documents("00", "audience"))
}

func TestTableLookupReturnsCopy(t *testing.T) {
	tbl := NewTable()
	tbl.SetClauses("00", "problem", ISO9001, []string{"4.1"})

	clauses, _ := tbl.Lookup("00", "problem", ISO9001)
	clauses[0] = "mutated"

	again, _ := tbl.Lookup("00", "problem", ISO9001)
	assert.Equal(t, []string{"4.1"}, again)
}

func TestNilTableDegrades(t *testing.T) {
	var tbl *Table

	_, ok := tbl.Lookup("00", "problem", ISO9001)
	assert.False(t, ok)
	assert.Nil(t, tbl.Documents("00", "problem"))
	assert.Equal(t, 0, tbl.Sessions())

	item := tbl.Enrich("00", ir.WorkItemTemplate{Key: "problem", Text: "Problem"})
	assert.Equal(t, "problem", item.Key)
	assert.Equal(t, "Problem", item.Text)
	assert.Empty(t, item.ISO9001)
	assert.NotNil(t, item.ISO9001, "empty lists must serialize as []")
	assert.NotNil(t, item.DocumentTypes)
}

func TestEnrichFollowsKeysNotPositions(t *testing.T) {
	tbl := NewTable()
	tbl.SetClauses("00", "problem", ISO9001, []string{"4.1"})
	tbl.SetClauses("00", "audience", ISO9001, []string{"4.2"})

	// Templates declared in reverse order still get their own references.
	items := []ir.WorkItemTemplate{
		{Key: "audience", Text: "Target audience"},
		{Key: "problem", Text: "Problem"},
	}
	assert.Equal(t, []string{"4.2"}, tbl.Enrich("00", items[0]).ISO9001)
	assert.Equal(t, []string{"4.1"}, tbl.Enrich("00", items[1]).ISO9001)
}

func TestStandardIsKnown(t *testing.T) {
	for _, s := range Standards {
		assert.True(t, s.IsKnown(), s)
	}
	assert.False(t, Standard("iso_14001").IsKnown())
}
