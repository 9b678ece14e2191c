package overrides

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/scopecard/internal/ir"
)

// ErrAbandoned is returned by a Persister when the user walks away from an
// interactive save. Run reports it as a non-fatal failure.
var ErrAbandoned = errors.New("save abandoned")

// Persister writes a configuration snapshot to durable storage and returns
// a human-readable message describing where it went.
type Persister interface {
	Persist(ctx context.Context, rules []ir.SessionRule) (string, error)
}

// PersistResult is the uniform outcome of a persistence attempt.
// Abandoned is set only when the user walked away from an interactive save.
type PersistResult struct {
	OK        bool   `json:"ok"`
	Abandoned bool   `json:"abandoned,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Run invokes p and folds its outcome into a PersistResult.
func Run(ctx context.Context, p Persister, rules []ir.SessionRule) PersistResult {
	if err := ctx.Err(); err != nil {
		return PersistResult{OK: false, Message: err.Error()}
	}

	msg, err := p.Persist(ctx, rules)
	switch {
	case errors.Is(err, ErrAbandoned):
		slog.Info("override save abandoned; changes kept in memory")
		return PersistResult{OK: false, Abandoned: true, Message: "save abandoned; changes are kept in memory only"}
	case err != nil:
		slog.Error("override persistence failed", "error", err)
		return PersistResult{OK: false, Message: err.Error()}
	}
	return PersistResult{OK: true, Message: msg}
}

// FileWriter writes the sessions section to Path atomically. Other top-level
// sections already in the file (version, compliance tables) are preserved.
type FileWriter struct {
	Path string
}

// Persist implements Persister.
func (w FileWriter) Persist(ctx context.Context, rules []ir.SessionRule) (string, error) {
	if w.Path == "" {
		return "", fmt.Errorf("file writer: no path configured")
	}

	doc := map[string]json.RawMessage{}
	existing, err := os.ReadFile(w.Path)
	switch {
	case err == nil:
		if err := json.Unmarshal(existing, &doc); err != nil {
			return "", fmt.Errorf("file writer: existing %s is not a JSON object: %w", w.Path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("file writer: %w", err)
	}

	sessions, err := json.Marshal(fileRules(rules))
	if err != nil {
		return "", fmt.Errorf("file writer: %w", err)
	}
	doc["sessions"] = sessions

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("file writer: %w", err)
	}
	if err := writeFileAtomic(w.Path, append(data, '\n')); err != nil {
		return "", fmt.Errorf("file writer: %w", err)
	}
	return fmt.Sprintf("saved to %s", w.Path), nil
}

// fileRules normalizes nil work item lists, which the schema rejects as null.
func fileRules(rules []ir.SessionRule) []ir.SessionRule {
	out := ir.CloneRules(rules)
	for i := range out {
		if out[i].WorkItems == nil {
			out[i].WorkItems = []ir.WorkItemTemplate{}
		}
	}
	return out
}

// writeFileAtomic writes to a temp file in the target directory and renames
// it over path, so readers never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// SnapshotWriter writes a timestamped copy of the sessions section into Dir
// for the operator to install by hand.
type SnapshotWriter struct {
	Dir   string
	Clock Clock
}

// Persist implements Persister.
func (w SnapshotWriter) Persist(ctx context.Context, rules []ir.SessionRule) (string, error) {
	dir := w.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	clock := w.Clock
	if clock == nil {
		clock = systemClock{}
	}

	name := fmt.Sprintf("sessions-config-%s.json", clock.Now().UTC().Format("20060102T150405Z"))
	path := filepath.Join(dir, name)
	if _, err := (FileWriter{Path: path}).Persist(ctx, rules); err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}
	return fmt.Sprintf("snapshot written to %s; replace sessions-config.json manually", path), nil
}
