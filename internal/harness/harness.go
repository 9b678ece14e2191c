package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/scopecard/internal/assess"
	"github.com/roach88/scopecard/internal/compiler"
	"github.com/roach88/scopecard/internal/ir"
	"github.com/roach88/scopecard/internal/overrides"
	"github.com/roach88/scopecard/internal/store"
	"github.com/roach88/scopecard/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios against a fresh service with a deterministic clock.
type Harness struct {
	store   *store.Store
	service *assess.Service
	clock   *testutil.DeterministicClock
	logger  *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Compile the configuration (embedded catalog or scenario.Config)
// 2. Create an override store persisting to in-memory SQLite
// 3. Apply override steps in order
// 4. Assess the scope and evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	scope, err := scenario.ScopeAnswers()
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig(scenario.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	clock := testutil.NewDeterministicClock()
	ovs := overrides.New(cfg.Rules,
		overrides.WithClock(clock),
		overrides.WithPersister(overrides.SQLiteWriter{Store: st, Clock: clock, Declared: overrides.Declared(cfg.Rules)}),
	)

	h := &Harness{
		store:   st,
		service: assess.New(ovs, cfg.Table),
		clock:   clock,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	ctx := context.Background()
	result := NewResult()

	if err := h.applyOverrides(ctx, scope, scenario.Overrides, result); err != nil {
		return nil, err
	}

	assessment, err := h.service.Assess(scope)
	if err != nil {
		return nil, fmt.Errorf("failed to assess scope: %w", err)
	}
	result.Assessment = assessment

	for _, msg := range EvaluateAssertions(assessment, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

func loadConfig(dir string) (*compiler.Config, error) {
	var (
		cfg *compiler.Config
		err error
	)
	if dir == "" {
		cfg, err = compiler.Default()
	} else {
		cfg, err = compiler.LoadDir(dir)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyOverrides runs every override step. A step naming an unknown
// session is a scenario failure; a failed save is recorded as an error.
func (h *Harness) applyOverrides(ctx context.Context, scope ir.ScopeAnswers, steps []OverrideStep, result *Result) error {
	for i, step := range steps {
		var (
			res assess.ApplyResult
			err error
		)
		if step.Clear {
			res, err = h.service.ClearOverride(ctx, scope, step.Session)
		} else {
			res, err = h.service.ApplyOverride(ctx, scope, step.Session, ir.OverrideInput{
				Status: step.Status,
				Reason: step.Reason,
			})
		}
		if err != nil {
			return fmt.Errorf("override step %d: %w", i, err)
		}
		if !res.OK {
			result.AddError(fmt.Sprintf("override step %d: not persisted: %s", i, res.Message))
		}
		result.Applied = append(result.Applied, res)

		h.logger.Info("override step completed",
			"step", i,
			"session", step.Session,
			"clear", step.Clear,
			"persisted", res.OK,
		)
	}
	return nil
}
