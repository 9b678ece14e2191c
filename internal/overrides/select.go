package overrides

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/roach88/scopecard/internal/ir"
	"github.com/roach88/scopecard/internal/store"
)

// Mode names a persistence strategy.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeFile     Mode = "file"
	ModeSQLite   Mode = "sqlite"
	ModePrompt   Mode = "prompt"
	ModeSnapshot Mode = "snapshot"
)

// Modes lists the accepted values for SelectPersister.
var Modes = []Mode{ModeAuto, ModeFile, ModeSQLite, ModePrompt, ModeSnapshot}

// Environment carries what each strategy may need.
//
// ConfigPathErr explains why no configuration file can be written back,
// for example when sessions are spread over several files. ConfigPath is
// ignored when it is set. Declared is passed to SQLiteWriter.
type Environment struct {
	ConfigPath    string
	ConfigPathErr error
	SnapshotDir   string
	DB            *store.Store
	Declared      []string
	In            io.Reader
	Out           io.Writer
	Clock         Clock
}

// SelectPersister picks a Persister for mode. ModeAuto writes the config
// file directly when it is writable and falls back to a snapshot otherwise.
func SelectPersister(mode Mode, env Environment) (Persister, error) {
	configPath := env.ConfigPath
	if env.ConfigPathErr != nil {
		configPath = ""
	}

	switch mode {
	case ModeAuto, "":
		if configPath != "" && writable(configPath) {
			return FileWriter{Path: configPath}, nil
		}
		return SnapshotWriter{Dir: env.SnapshotDir, Clock: env.Clock}, nil
	case ModeFile:
		if env.ConfigPathErr != nil {
			return refusingWriter{err: env.ConfigPathErr}, nil
		}
		if configPath == "" {
			return nil, fmt.Errorf("persist mode %q requires a config path", mode)
		}
		return FileWriter{Path: configPath}, nil
	case ModeSQLite:
		if env.DB == nil {
			return nil, fmt.Errorf("persist mode %q requires a database", mode)
		}
		return SQLiteWriter{Store: env.DB, Clock: env.Clock, Declared: env.Declared}, nil
	case ModePrompt:
		return PromptWriter{In: env.In, Out: env.Out, Default: configPath}, nil
	case ModeSnapshot:
		return SnapshotWriter{Dir: env.SnapshotDir, Clock: env.Clock}, nil
	default:
		return nil, fmt.Errorf("unknown persist mode %q (want one of %v)", mode, Modes)
	}
}

// refusingWriter fails every save with err.
type refusingWriter struct {
	err error
}

// Persist implements Persister.
func (w refusingWriter) Persist(context.Context, []ir.SessionRule) (string, error) {
	return "", fmt.Errorf("file writer: %w", w.err)
}

// writable reports whether path can be replaced: the file must be writable
// if it exists and its directory must accept new files for the atomic rename.
func writable(path string) bool {
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return false
		}
		f, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			return false
		}
		f.Close()
	}

	probe, err := os.CreateTemp(filepath.Dir(path), ".scopecard-probe-*")
	if err != nil {
		return false
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)
	return true
}
