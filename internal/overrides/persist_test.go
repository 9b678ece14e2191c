package overrides

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scopecard/internal/compiler"
	"github.com/roach88/scopecard/internal/ir"
	"github.com/roach88/scopecard/internal/store"
	"github.com/roach88/scopecard/internal/testutil"
)

type persisterFunc func(ctx context.Context, rules []ir.SessionRule) (string, error)

func (f persisterFunc) Persist(ctx context.Context, rules []ir.SessionRule) (string, error) {
	return f(ctx, rules)
}

func TestRunOutcomes(t *testing.T) {
	ctx := context.Background()

	ok := Run(ctx, persisterFunc(func(context.Context, []ir.SessionRule) (string, error) {
		return "saved", nil
	}), nil)
	assert.Equal(t, PersistResult{OK: true, Message: "saved"}, ok)

	failed := Run(ctx, persisterFunc(func(context.Context, []ir.SessionRule) (string, error) {
		return "", errors.New("disk full")
	}), nil)
	assert.Equal(t, PersistResult{OK: false, Message: "disk full"}, failed)

	abandoned := Run(ctx, persisterFunc(func(context.Context, []ir.SessionRule) (string, error) {
		return "", ErrAbandoned
	}), nil)
	assert.False(t, abandoned.OK)
	assert.True(t, abandoned.Abandoned)
	assert.Contains(t, abandoned.Message, "abandoned")
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	res := Run(ctx, persisterFunc(func(context.Context, []ir.SessionRule) (string, error) {
		called = true
		return "", nil
	}), nil)
	assert.False(t, res.OK)
	assert.False(t, called)
}

func TestFileWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions-config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
	  "version": "1.0.0",
	  "work_item_documentation": {"00": [{"key": "problem", "document_types": ["Brief"]}]},
	  "sessions": []
	}`), 0o644))

	s, _ := newTestStore(WithPersister(FileWriter{Path: path}))
	require.NoError(t, s.Set("02", ir.OverrideInput{Status: ir.StatusNotApplicable, Reason: "N/A for this org"}))

	res := s.Persist(context.Background())
	require.True(t, res.OK, res.Message)
	assert.Contains(t, res.Message, path)

	cfg, err := compiler.LoadDir(dir)
	require.NoError(t, err)
	require.NoError(t, cfg.Err())

	assert.Equal(t, "1.0.0", cfg.Version)
	assert.Equal(t, []string{"Brief"}, cfg.Table.Documents("00", "problem"), "other sections are preserved")
	require.Len(t, cfg.Rules, 4)
	require.NotNil(t, cfg.Rules[2].ManualOverride)
	assert.Equal(t, ir.StatusNotApplicable, cfg.Rules[2].ManualOverride.Status)
	assert.Equal(t, testutil.Epoch, cfg.Rules[2].ManualOverride.UpdatedAt)
	assert.Empty(t, cfg.Rules[3].WorkItems)
}

func TestFileWriterCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.json")

	msg, err := FileWriter{Path: path}.Persist(context.Background(), testutil.Rules())
	require.NoError(t, err)
	assert.Contains(t, msg, path)

	var doc map[string]json.RawMessage
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "sessions")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileWriterRejectsNonObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`[1, 2]`), 0o644))

	_, err := FileWriter{Path: path}.Persist(context.Background(), testutil.Rules())
	assert.Error(t, err)
}

func TestSnapshotWriter(t *testing.T) {
	dir := t.TempDir()
	w := SnapshotWriter{Dir: dir, Clock: testutil.NewDeterministicClock()}

	msg, err := w.Persist(context.Background(), testutil.Rules())
	require.NoError(t, err)

	want := filepath.Join(dir, "sessions-config-20250101T000000Z.json")
	assert.Equal(t, "snapshot written to "+want+"; replace sessions-config.json manually", msg)
	assert.FileExists(t, want)
}

func TestPromptWriter(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name      string
		input     string
		def       string
		wantFile  string
		abandoned bool
	}{
		{name: "eof", input: "", abandoned: true},
		{name: "cancel", input: "cancel\n", def: filepath.Join(dir, "d.json"), abandoned: true},
		{name: "cancel mixed case", input: "  Cancel \n", abandoned: true},
		{name: "empty without default", input: "\n", abandoned: true},
		{name: "default", input: "\n", def: filepath.Join(dir, "default.json"), wantFile: filepath.Join(dir, "default.json")},
		{name: "explicit", input: filepath.Join(dir, "chosen.json") + "\n", wantFile: filepath.Join(dir, "chosen.json")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			w := PromptWriter{In: strings.NewReader(tt.input), Out: &out, Default: tt.def}

			_, err := w.Persist(ctx, testutil.Rules())
			assert.Contains(t, out.String(), "Save sessions configuration")
			if tt.abandoned {
				assert.ErrorIs(t, err, ErrAbandoned)
				return
			}
			require.NoError(t, err)
			assert.FileExists(t, tt.wantFile)
		})
	}
}

func TestPromptWriterAbandonedIsNonFatal(t *testing.T) {
	s, _ := newTestStore(WithPersister(PromptWriter{In: strings.NewReader("")}))
	require.NoError(t, s.Set("02", ir.OverrideInput{Status: ir.StatusOptional, Reason: "x"}))

	res := s.Persist(context.Background())
	assert.False(t, res.OK)
	assert.Contains(t, res.Message, "abandoned")
	assert.NotNil(t, s.Rules()[2].ManualOverride, "in-memory change is kept")
}

func TestSQLiteWriterSurvivesReload(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(filepath.Join(t.TempDir(), "overrides.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := testutil.NewDeterministicClock()
	s := New(testutil.Rules(), WithClock(clock), WithPersister(SQLiteWriter{Store: db, Clock: clock}))
	require.NoError(t, s.Set("02", ir.OverrideInput{Status: ir.StatusNotApplicable, Reason: "N/A for this org"}))

	res := s.Persist(ctx)
	require.True(t, res.OK, res.Message)
	assert.Equal(t, "1 override change(s) saved to database", res.Message)

	stored, err := db.LoadOverrides(ctx)
	require.NoError(t, err)

	reloaded := New(testutil.Rules())
	assert.Empty(t, reloaded.Attach(stored))
	assert.Equal(t, s.Overrides(), reloaded.Overrides())

	_, err = s.Clear("02")
	require.NoError(t, err)
	res = s.Persist(ctx)
	require.True(t, res.OK, res.Message)

	history, err := db.History(ctx, "02")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ir.EventClear, history[1].Action)
}

func TestSQLiteWriterClearsDeclaredOverride(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(filepath.Join(t.TempDir(), "overrides.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// "02" carries an override in the configuration file, not the database.
	rules := testutil.Rules()
	rules[2].ManualOverride = &ir.Override{Status: ir.StatusNotApplicable, Reason: "N/A", UpdatedAt: testutil.Epoch}
	assert.Equal(t, []string{"02"}, Declared(rules))

	clock := testutil.NewDeterministicClock()
	writer := SQLiteWriter{Store: db, Clock: clock, Declared: Declared(rules)}
	s := New(rules, WithClock(clock), WithPersister(writer))

	had, err := s.Clear("02")
	require.NoError(t, err)
	require.True(t, had)

	res := s.Persist(ctx)
	require.True(t, res.OK, res.Message)
	assert.Equal(t, "1 override change(s) saved to database", res.Message)

	// Reload the way the command line does: file rules, then database state.
	cleared, err := db.LoadCleared(ctx)
	require.NoError(t, err)
	stored, err := db.LoadOverrides(ctx)
	require.NoError(t, err)

	reloaded := New(rules)
	assert.Empty(t, reloaded.Retract(cleared))
	assert.Empty(t, reloaded.Attach(stored))
	assert.Empty(t, reloaded.Overrides(), "cleared override stays cleared")
}

func TestSelectPersister(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions-config.json")
	db, err := store.Open(filepath.Join(dir, "o.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := Environment{ConfigPath: path, SnapshotDir: dir, DB: db, In: strings.NewReader("")}

	p, err := SelectPersister(ModeAuto, env)
	require.NoError(t, err)
	assert.IsType(t, FileWriter{}, p, "writable config path")

	p, err = SelectPersister(ModeAuto, Environment{SnapshotDir: dir})
	require.NoError(t, err)
	assert.IsType(t, SnapshotWriter{}, p, "no config path")

	p, err = SelectPersister(ModeAuto, Environment{ConfigPath: filepath.Join(dir, "missing", "c.json"), SnapshotDir: dir})
	require.NoError(t, err)
	assert.IsType(t, SnapshotWriter{}, p, "unwritable directory")

	p, err = SelectPersister(ModeSQLite, env)
	require.NoError(t, err)
	assert.IsType(t, SQLiteWriter{}, p)

	p, err = SelectPersister(ModePrompt, env)
	require.NoError(t, err)
	assert.IsType(t, PromptWriter{}, p)

	p, err = SelectPersister(ModeSnapshot, env)
	require.NoError(t, err)
	assert.IsType(t, SnapshotWriter{}, p)

	_, err = SelectPersister(ModeFile, Environment{})
	assert.Error(t, err)

	split := Environment{ConfigPath: path, ConfigPathErr: errors.New("sessions are declared in 2 files"), SnapshotDir: dir}
	p, err = SelectPersister(ModeAuto, split)
	require.NoError(t, err)
	assert.IsType(t, SnapshotWriter{}, p, "unwritable configuration falls back to a snapshot")

	p, err = SelectPersister(ModeFile, split)
	require.NoError(t, err)
	res := Run(context.Background(), p, testutil.Rules())
	assert.False(t, res.OK)
	assert.False(t, res.Abandoned)
	assert.Contains(t, res.Message, "declared in 2 files")
	assert.NoFileExists(t, path)

	p, err = SelectPersister(ModePrompt, split)
	require.NoError(t, err)
	assert.Empty(t, p.(PromptWriter).Default)
	_, err = SelectPersister(ModeSQLite, Environment{})
	assert.Error(t, err)
	_, err = SelectPersister("carrier-pigeon", env)
	assert.Error(t, err)
}
