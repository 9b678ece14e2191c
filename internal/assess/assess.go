// Package assess wires the risk scorer, the session rules engine and the
// override store into the operations the CLI and harness call.
package assess

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/scopecard/internal/compliance"
	"github.com/roach88/scopecard/internal/engine"
	"github.com/roach88/scopecard/internal/ir"
	"github.com/roach88/scopecard/internal/overrides"
)

// Assessment is the full classification of one change.
type Assessment struct {
	Risk           ir.RiskAssessment           `json:"risk"`
	Sessions       []ir.Session                `json:"sessions"`
	Considerations []compliance.Considerations `json:"considerations"`
	ConfigHash     string                      `json:"config_hash"`
}

// ApplyResult reports the two independent outcomes of an override write:
// whether sessions were recomputed and whether the change was saved.
type ApplyResult struct {
	OK         bool         `json:"ok"`
	Abandoned  bool         `json:"abandoned,omitempty"`
	Message    string       `json:"message,omitempty"`
	Recomputed bool         `json:"recomputed"`
	Sessions   []ir.Session `json:"sessions,omitempty"`
}

// Service evaluates scopes against an override store.
type Service struct {
	store      *overrides.Store
	table      *compliance.Table
	engineOpts []engine.EngineOption
}

// New creates a Service. engineOpts are passed to every engine it builds.
func New(store *overrides.Store, table *compliance.Table, engineOpts ...engine.EngineOption) *Service {
	return &Service{store: store, table: table, engineOpts: engineOpts}
}

// Store returns the override store the service reads from.
func (s *Service) Store() *overrides.Store {
	return s.store
}

// Assess scores scope and resolves every session. Only invalid categorical
// answers are an error.
func (s *Service) Assess(scope ir.ScopeAnswers) (Assessment, error) {
	if err := scope.Validate(); err != nil {
		return Assessment{}, err
	}

	rules := s.store.Rules()
	hash, err := ir.ConfigHash(rules)
	if err != nil {
		return Assessment{}, fmt.Errorf("hash configuration: %w", err)
	}

	risk := engine.Score(scope)
	considerations := compliance.ConsiderationsFor(scope)
	if considerations == nil {
		considerations = []compliance.Considerations{}
	}

	return Assessment{
		Risk:           risk,
		Sessions:       s.calculate(rules, scope, risk),
		Considerations: considerations,
		ConfigHash:     hash,
	}, nil
}

// ApplyOverride sets an override, recomputes sessions for scope, then
// persists. A persistence failure leaves the in-memory override in place;
// the result reports it with OK false and Recomputed true.
func (s *Service) ApplyOverride(ctx context.Context, scope ir.ScopeAnswers, sessionID string, in ir.OverrideInput) (ApplyResult, error) {
	if err := s.store.Set(sessionID, in); err != nil {
		return ApplyResult{OK: false, Message: err.Error()}, err
	}
	slog.Info("override applied", "session", sessionID, "status", in.Status)
	return s.recomputeAndPersist(ctx, scope), nil
}

// ClearOverride removes an override and otherwise behaves like ApplyOverride.
func (s *Service) ClearOverride(ctx context.Context, scope ir.ScopeAnswers, sessionID string) (ApplyResult, error) {
	had, err := s.store.Clear(sessionID)
	if err != nil {
		return ApplyResult{OK: false, Message: err.Error()}, err
	}
	slog.Info("override cleared", "session", sessionID, "existed", had)
	return s.recomputeAndPersist(ctx, scope), nil
}

func (s *Service) recomputeAndPersist(ctx context.Context, scope ir.ScopeAnswers) ApplyResult {
	rules := s.store.Rules()
	sessions := s.calculate(rules, scope, engine.Score(scope))

	res := s.store.Persist(ctx)
	if !res.OK {
		slog.Warn("override kept in memory only", "message", res.Message)
	}
	return ApplyResult{
		OK:         res.OK,
		Abandoned:  res.Abandoned,
		Message:    res.Message,
		Recomputed: true,
		Sessions:   sessions,
	}
}

// calculate runs one engine over a single rules snapshot, so the sessions
// and the config hash always describe the same configuration.
func (s *Service) calculate(rules []ir.SessionRule, scope ir.ScopeAnswers, risk ir.RiskAssessment) []ir.Session {
	return engine.New(engine.StaticRules(rules), s.table, s.engineOpts...).Calculate(scope, risk)
}
