package overrides

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scopecard/internal/ir"
	"github.com/roach88/scopecard/internal/testutil"
)

func newTestStore(opts ...StoreOption) (*Store, *testutil.DeterministicClock) {
	clock := testutil.NewDeterministicClock()
	opts = append([]StoreOption{WithClock(clock)}, opts...)
	return New(testutil.Rules(), opts...), clock
}

func TestNewCopiesRules(t *testing.T) {
	rules := testutil.Rules()
	s := New(rules)

	rules[0].Title = "mutated"
	assert.Equal(t, "Objective", s.Rules()[0].Title)
}

func TestRulesReturnsDeepCopy(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.Set("02", ir.OverrideInput{Status: ir.StatusOptional, Reason: "x"}))

	got := s.Rules()
	got[0].WorkItems[0].Text = "mutated"
	got[2].ManualOverride.Reason = "mutated"

	again := s.Rules()
	assert.Equal(t, "Problem to solve", again[0].WorkItems[0].Text)
	assert.Equal(t, "x", again[2].ManualOverride.Reason)
}

func TestSetStampsAndReplaces(t *testing.T) {
	s, clock := newTestStore()

	require.NoError(t, s.Set("02", ir.OverrideInput{Status: ir.StatusOptional, Reason: "first"}))
	require.NoError(t, s.Set("02", ir.OverrideInput{Status: ir.StatusNotApplicable, Reason: "N/A for this org"}))

	ov := s.Rules()[2].ManualOverride
	require.NotNil(t, ov)
	assert.Equal(t, ir.StatusNotApplicable, ov.Status)
	assert.Equal(t, "N/A for this org", ov.Reason)
	assert.Equal(t, testutil.Epoch.Add(1e9), ov.UpdatedAt, "second Set takes the second tick")
	assert.Equal(t, int64(2), clock.Ticks())
}

func TestSetRejects(t *testing.T) {
	s, clock := newTestStore()

	err := s.Set("99", ir.OverrideInput{Status: ir.StatusOptional})
	assert.ErrorIs(t, err, ErrUnknownSession)

	err = s.Set("02", ir.OverrideInput{Status: "maybe"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	assert.Empty(t, s.Overrides())
	assert.Equal(t, int64(0), clock.Ticks(), "rejected writes are not stamped")
}

func TestClear(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.Set("01", ir.OverrideInput{Status: ir.StatusRequired, Reason: "x"}))

	had, err := s.Clear("01")
	require.NoError(t, err)
	assert.True(t, had)
	assert.Nil(t, s.Rules()[1].ManualOverride)

	had, err = s.Clear("01")
	require.NoError(t, err)
	assert.False(t, had)

	_, err = s.Clear("99")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestAttachKeepsTimestampsAndSkipsUnknown(t *testing.T) {
	s, clock := newTestStore()

	rec := ir.OverrideRecord{SessionID: "03", Override: ir.Override{Status: ir.StatusOptional, Reason: "stored", UpdatedAt: testutil.Epoch}}
	gone := ir.OverrideRecord{SessionID: "42", Override: ir.Override{Status: ir.StatusOptional}}

	skipped := s.Attach([]ir.OverrideRecord{rec, gone})
	assert.Equal(t, []ir.OverrideRecord{gone}, skipped)
	assert.Equal(t, []ir.OverrideRecord{rec}, s.Overrides())
	assert.Equal(t, int64(0), clock.Ticks())
}

func TestRetract(t *testing.T) {
	rules := testutil.Rules()
	rules[2].ManualOverride = &ir.Override{Status: ir.StatusNotApplicable, Reason: "declared"}
	s := New(rules)

	unknown := s.Retract([]string{"02", "42"})
	assert.Equal(t, []string{"42"}, unknown)
	assert.Empty(t, s.Overrides())
	assert.NotNil(t, rules[2].ManualOverride, "caller's rules are untouched")
}

func TestOverridesConfigurationOrderAndEmpty(t *testing.T) {
	s, _ := newTestStore()
	assert.NotNil(t, s.Overrides())
	assert.Empty(t, s.Overrides())

	require.NoError(t, s.Set("03", ir.OverrideInput{Status: ir.StatusOptional}))
	require.NoError(t, s.Set("00", ir.OverrideInput{Status: ir.StatusOptional}))

	recs := s.Overrides()
	require.Len(t, recs, 2)
	assert.Equal(t, "00", recs[0].SessionID)
	assert.Equal(t, "03", recs[1].SessionID)
}

func TestPersistWithoutPersister(t *testing.T) {
	s, _ := newTestStore()
	res := s.Persist(context.Background())
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Message)
}

func TestStoreConcurrentAccess(t *testing.T) {
	s, _ := newTestStore()
	ids := []string{"00", "01", "02", "03"}

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			id := ids[i%len(ids)]
			_ = s.Set(id, ir.OverrideInput{Status: ir.StatusOptional, Reason: fmt.Sprint(i)})
		}(i)
		go func() {
			defer wg.Done()
			assert.Len(t, s.Rules(), len(ids))
		}()
	}
	wg.Wait()

	assert.Len(t, s.Overrides(), len(ids))
}
