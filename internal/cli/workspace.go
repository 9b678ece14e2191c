package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/scopecard/internal/assess"
	"github.com/roach88/scopecard/internal/compiler"
	"github.com/roach88/scopecard/internal/ir"
	"github.com/roach88/scopecard/internal/overrides"
	"github.com/roach88/scopecard/internal/store"
)

// Workspace is a loaded configuration with its override store and,
// when --db is set, the database that backs it.
type Workspace struct {
	Config  *compiler.Config
	Service *assess.Service
	DB      *store.Store
}

// Close releases the database, if any.
func (w *Workspace) Close() error {
	if w.DB == nil {
		return nil
	}
	return w.DB.Close()
}

// openWorkspace compiles the configuration, attaches stored overrides and
// selects the persistence strategy named by opts.Persist. Save prompts are
// read from in and written to prompt.
func openWorkspace(ctx context.Context, opts *RootOptions, in io.Reader, prompt io.Writer) (*Workspace, error) {
	cfg, err := loadConfig(opts.ConfigDir)
	if err != nil {
		return nil, err
	}
	slog.Debug("configuration loaded", "files", cfg.Files, "sessions", len(cfg.Rules), "hash", cfg.Hash())

	ws := &Workspace{Config: cfg}
	if opts.DB != "" {
		ws.DB, err = store.Open(opts.DB)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		if v, err := ws.DB.SchemaVersion(ctx); err == nil {
			slog.Debug("database opened", "path", ws.DB.Path(), "schema_version", v)
		}
	}

	env := overrides.Environment{
		SnapshotDir: opts.SnapshotDir,
		DB:          ws.DB,
		Declared:    overrides.Declared(cfg.Rules),
		In:          in,
		Out:         prompt,
	}
	if opts.ConfigDir != "" {
		// Overrides go back into the file that declares the sessions.
		name, err := cfg.SessionsFile()
		if err != nil {
			slog.Debug("configuration is not writable", "reason", err)
			env.ConfigPathErr = err
		} else {
			env.ConfigPath = filepath.Join(opts.ConfigDir, name)
		}
	}

	mode := overrides.Mode(opts.Persist)
	if (mode == overrides.ModeAuto || mode == "") && ws.DB != nil {
		mode = overrides.ModeSQLite
	}
	persister, err := overrides.SelectPersister(mode, env)
	if err != nil {
		ws.Close()
		return nil, WrapExitError(ExitCommandError, "invalid persistence mode", err)
	}

	ovs := overrides.New(cfg.Rules, overrides.WithPersister(persister))
	if ws.DB != nil {
		if err := attachStored(ctx, ws.DB, ovs); err != nil {
			ws.Close()
			return nil, WrapExitError(ExitCommandError, "failed to load stored overrides", err)
		}
	}

	ws.Service = assess.New(ovs, cfg.Table)
	return ws, nil
}

// attachStored applies the database state on top of the configuration:
// clears of file-declared overrides first, then the stored overrides.
func attachStored(ctx context.Context, db *store.Store, ovs *overrides.Store) error {
	cleared, err := db.LoadCleared(ctx)
	if err != nil {
		return err
	}
	if unknown := ovs.Retract(cleared); len(unknown) > 0 {
		slog.Warn("cleared overrides skipped", "sessions", unknown)
	}

	recs, err := db.LoadOverrides(ctx)
	if err != nil {
		return err
	}
	if skipped := ovs.Attach(recs); len(skipped) > 0 {
		slog.Warn("stored overrides skipped", "count", len(skipped))
	}
	return nil
}

// loadConfig compiles dir, or the embedded catalog when dir is empty.
// Load errors are command errors; validation errors are failures.
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
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if err := cfg.Err(); err != nil {
		return nil, WrapExitError(ExitFailure, "invalid configuration", err)
	}
	return cfg, nil
}

// readScope parses a scope answers file, or returns the defaults for "".
func readScope(path string) (ir.ScopeAnswers, error) {
	if path == "" {
		return ir.NewScopeAnswers(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ir.ScopeAnswers{}, WrapExitError(ExitCommandError, "failed to read scope file", err)
	}
	scope, err := ir.ParseScopeAnswers(data)
	if err != nil {
		return ir.ScopeAnswers{}, WrapExitError(ExitCommandError, fmt.Sprintf("invalid scope file %s", path), err)
	}
	return scope, nil
}
