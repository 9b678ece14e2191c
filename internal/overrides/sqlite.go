package overrides

import (
	"context"
	"fmt"

	"github.com/roach88/scopecard/internal/ir"
	"github.com/roach88/scopecard/internal/store"
)

// SQLiteWriter keeps overrides in a SQLite database with an append-only
// history. Only overrides are stored; sessions stay in configuration files.
//
// Declared lists the sessions whose override comes from a configuration
// file. Clearing one of them is recorded in the database, since deleting
// a row alone would let the file bring it back.
type SQLiteWriter struct {
	Store    *store.Store
	Clock    Clock
	Declared []string
}

// Persist implements Persister.
func (w SQLiteWriter) Persist(ctx context.Context, rules []ir.SessionRule) (string, error) {
	if w.Store == nil {
		return "", fmt.Errorf("sqlite writer: no database configured")
	}
	clock := w.Clock
	if clock == nil {
		clock = systemClock{}
	}

	recs := overridesOf(rules)
	has := make(map[string]bool, len(recs))
	for _, rec := range recs {
		has[rec.SessionID] = true
	}
	var cleared []string
	for _, id := range w.Declared {
		if !has[id] {
			cleared = append(cleared, id)
		}
	}

	changed, err := w.Store.SyncOverrides(ctx, recs, cleared, clock.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("sqlite writer: %w", err)
	}
	return fmt.Sprintf("%d override change(s) saved to database", changed), nil
}

// Declared returns the ids of sessions that carry an override in rules,
// in configuration order.
func Declared(rules []ir.SessionRule) []string {
	ids := []string{}
	for _, r := range rules {
		if r.ManualOverride != nil {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
