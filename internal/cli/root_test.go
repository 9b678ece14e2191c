package cli

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "scopecard", cmd.Use)
	assert.Contains(t, cmd.Long, "analysis sessions")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"assess"},
		{"validate"},
		{"test"},
		{"override"},
		{"override", "set"},
		{"override", "clear"},
		{"override", "list"},
		{"override", "history"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "db", "persist", "snapshot-dir"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("SCOPECARD_CONFIG_DIR", "/etc/scopecard")
	t.Setenv("SCOPECARD_DB", "/var/lib/scopecard.db")
	t.Setenv("SCOPECARD_PERSIST", "sqlite")
	t.Setenv("SCOPECARD_SNAPSHOT_DIR", "/tmp/snapshots")

	cmd := NewRootCommand()
	assert.Equal(t, "/etc/scopecard", cmd.PersistentFlags().Lookup("config").DefValue)
	assert.Equal(t, "/var/lib/scopecard.db", cmd.PersistentFlags().Lookup("db").DefValue)
	assert.Equal(t, "sqlite", cmd.PersistentFlags().Lookup("persist").DefValue)
	assert.Equal(t, "/tmp/snapshots", cmd.PersistentFlags().Lookup("snapshot-dir").DefValue)
}

func TestLoadEnvDefaultsUnset(t *testing.T) {
	for _, key := range []string{"SCOPECARD_PERSIST", "SCOPECARD_SNAPSHOT_DIR"} {
		t.Setenv(key, "") // restored after the test
		require.NoError(t, os.Unsetenv(key))
	}

	d, err := LoadEnvDefaults()
	require.NoError(t, err)
	assert.Equal(t, "auto", d.Persist)
	assert.Equal(t, ".", d.SnapshotDir)
}

func TestOverrideSetFlags(t *testing.T) {
	cmd := NewRootCommand()
	setCmd, _, err := cmd.Find([]string{"override", "set"})
	require.NoError(t, err)

	for _, name := range []string{"status", "reason", "scope"} {
		assert.NotNil(t, setCmd.Flags().Lookup(name), name)
	}
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	updateFlag := testCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	assert.NotNil(t, testCmd.Flags().Lookup("filter"))
	assert.NotNil(t, testCmd.Flags().Lookup("golden-dir"))
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "validate", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.False(t, isValidFormat("yaml"))
	assert.False(t, isValidFormat(""))
}
