package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/scopecard/internal/compiler"
)

const testSessionsJSON = `{
  "version": "1.0.0",
  "sessions": [
    {
      "id": "00",
      "title": "Objective",
      "work_items": [{"key": "problem", "text": "Problem to solve"}],
      "applicability_rules": {"always_required": true, "reason_when_required": "Foundational"}
    },
    {
      "id": "01",
      "title": "Data",
      "work_items": [{"key": "collected", "text": "Collected data"}],
      "applicability_rules": {
        "required_when": [{"condition": "hasPersonalData", "reason": "Personal data"}],
        "reason_when_optional": "No data"
      }
    }
  ]
}
`

// writeConfigDir creates a configuration directory holding sessions-config.json.
func writeConfigDir(t *testing.T, sessionsJSON string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, compiler.DefaultSessionsFile), []byte(sessionsJSON), 0644))
	return dir
}

// writeScopeFile writes scope answers to a temp file.
func writeScopeFile(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scope.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	return path
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

// executeWithInput is execute with stdin reading from input.
func executeWithInput(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(bytes.NewBufferString(input))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
