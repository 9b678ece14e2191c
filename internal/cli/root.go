package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	ConfigDir   string // empty means the embedded catalog
	DB          string // SQLite path for overrides and their history
	Persist     string // overrides.Mode
	SnapshotDir string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// EnvDefaults are the flag defaults read from the environment.
type EnvDefaults struct {
	ConfigDir   string `env:"SCOPECARD_CONFIG_DIR"`
	DB          string `env:"SCOPECARD_DB"`
	Persist     string `env:"SCOPECARD_PERSIST"      envDefault:"auto"`
	SnapshotDir string `env:"SCOPECARD_SNAPSHOT_DIR" envDefault:"."`
}

// LoadEnvDefaults parses EnvDefaults from the process environment.
func LoadEnvDefaults() (EnvDefaults, error) {
	var d EnvDefaults
	if err := env.Parse(&d); err != nil {
		return EnvDefaults{}, fmt.Errorf("parse env: %w", err)
	}
	return d, nil
}

// NewRootCommand creates the root command for the scopecard CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	defaults, err := LoadEnvDefaults()
	if err != nil {
		slog.Warn("ignoring environment defaults", "error", err)
		defaults = EnvDefaults{Persist: "auto", SnapshotDir: "."}
	}

	cmd := &cobra.Command{
		Use:   "scopecard",
		Short: "Scopecard - change risk and session planning",
		Long: `Classify the risk of a proposed product change and decide which
analysis sessions it needs, with ISO 9001, 27001 and 27701 references
for every work item.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			configureLogging(cmd, opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigDir, "config", defaults.ConfigDir, "configuration directory (default: embedded catalog)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", defaults.DB, "SQLite database for overrides")
	cmd.PersistentFlags().StringVar(&opts.Persist, "persist", defaults.Persist, "override persistence (auto|file|sqlite|prompt|snapshot)")
	cmd.PersistentFlags().StringVar(&opts.SnapshotDir, "snapshot-dir", defaults.SnapshotDir, "directory for configuration snapshots")

	// Add subcommands
	cmd.AddCommand(NewAssessCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewOverrideCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// configureLogging installs a text slog handler on stderr.
func configureLogging(cmd *cobra.Command, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
