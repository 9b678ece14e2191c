package overrides

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/scopecard/internal/ir"
)

var (
	// ErrUnknownSession is returned when an override names a session that
	// is not configured.
	ErrUnknownSession = errors.New("unknown session")

	// ErrInvalidStatus is returned for a status outside the Status enumeration.
	ErrInvalidStatus = errors.New("invalid status")
)

// Clock supplies override timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Store is the process-wide session configuration cache.
// It implements engine.RuleSource.
//
// Thread-safety: All methods are safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	rules     []ir.SessionRule
	index     map[string]int
	clock     Clock
	persister Persister
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock sets the clock used to stamp overrides.
func WithClock(c Clock) StoreOption {
	return func(s *Store) {
		s.clock = c
	}
}

// WithPersister sets the strategy used by Persist.
func WithPersister(p Persister) StoreOption {
	return func(s *Store) {
		s.persister = p
	}
}

// New creates a Store holding a private copy of rules.
func New(rules []ir.SessionRule, opts ...StoreOption) *Store {
	s := &Store{
		rules: ir.CloneRules(rules),
		index: make(map[string]int, len(rules)),
		clock: systemClock{},
	}
	for i, r := range s.rules {
		if _, dup := s.index[r.ID]; !dup {
			s.index[r.ID] = i
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rules returns a deep copy of the current configuration.
func (s *Store) Rules() []ir.SessionRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ir.CloneRules(s.rules)
}

// Set replaces the override for sessionID and stamps UpdatedAt.
func (s *Store) Set(sessionID string, in ir.OverrideInput) error {
	if !ir.ValidStatuses[in.Status] {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[sessionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	s.rules[i].ManualOverride = &ir.Override{
		Status:    in.Status,
		Reason:    in.Reason,
		UpdatedAt: s.clock.Now().UTC(),
	}
	slog.Debug("override set", "session", sessionID, "status", in.Status)
	return nil
}

// Clear removes the override for sessionID. It reports whether one existed.
func (s *Store) Clear(sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[sessionID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	had := s.rules[i].ManualOverride != nil
	s.rules[i].ManualOverride = nil
	slog.Debug("override cleared", "session", sessionID, "existed", had)
	return had, nil
}

// Attach installs previously persisted overrides, keeping their timestamps.
// Records for sessions that are no longer configured are skipped and
// returned so callers can report them.
func (s *Store) Attach(recs []ir.OverrideRecord) []ir.OverrideRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var skipped []ir.OverrideRecord
	for _, rec := range recs {
		i, ok := s.index[rec.SessionID]
		if !ok || !ir.ValidStatuses[rec.Status] {
			slog.Warn("stored override skipped", "session", rec.SessionID, "status", rec.Status)
			skipped = append(skipped, rec)
			continue
		}
		ov := rec.Override
		s.rules[i].ManualOverride = &ov
	}
	return skipped
}

// Retract removes the overrides of sessionIDs without persisting anything.
// It is used on load to honour clears recorded in the database. Unknown
// sessions are returned.
func (s *Store) Retract(sessionIDs []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var unknown []string
	for _, id := range sessionIDs {
		i, ok := s.index[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		s.rules[i].ManualOverride = nil
	}
	return unknown
}

// Overrides returns the attached overrides in configuration order.
func (s *Store) Overrides() []ir.OverrideRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return overridesOf(s.rules)
}

// Persist writes the current snapshot through the configured Persister.
// Every outcome, including a missing persister, is reported as a PersistResult.
func (s *Store) Persist(ctx context.Context) PersistResult {
	s.mu.RLock()
	p := s.persister
	s.mu.RUnlock()

	if p == nil {
		return PersistResult{OK: false, Message: "no persistence strategy configured"}
	}
	return Run(ctx, p, s.Rules())
}

func overridesOf(rules []ir.SessionRule) []ir.OverrideRecord {
	recs := []ir.OverrideRecord{}
	for _, r := range rules {
		if r.ManualOverride != nil {
			recs = append(recs, ir.OverrideRecord{SessionID: r.ID, Override: *r.ManualOverride})
		}
	}
	return recs
}
