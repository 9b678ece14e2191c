package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"cuelang.org/go/cue/token"
	"github.com/spf13/cobra"

	"github.com/roach88/scopecard/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool                       `json:"valid"`
	Version    string                     `json:"version,omitempty"`
	Sessions   int                        `json:"sessions"`
	ConfigHash string                     `json:"config_hash,omitempty"`
	Files      []string                   `json:"files,omitempty"`
	Errors     []compiler.ValidationError `json:"errors,omitempty"`
	Warnings   []compiler.ValidationError `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [config-dir]",
		Short: "Validate a session configuration",
		Long: `Load, unify and validate the .json and .cue files of a configuration
directory. Without an argument, --config is validated, or the embedded
catalog when --config is unset.

Errors (E1xx) fail validation. Warnings (W2xx) are reported but do not:
unknown conditions evaluate to false and malformed compliance entries
are skipped.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rootOpts.ConfigDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runValidate(rootOpts, dir, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts)

	cfg, err := ValidateConfigDir(dir)
	if err != nil {
		var le *compiler.LoadError
		if errors.As(err, &le) {
			return outputValidateError(formatter, le.Code, le.Message, nil)
		}
		var ce *compiler.CompileError
		if errors.As(err, &ce) {
			return outputValidationErrors(formatter, ValidationResult{
				Errors: []compiler.ValidationError{{
					Field:   ce.Field,
					Message: ce.Message,
					Code:    compileErrorCode(ce),
					Line:    getLineFromTokenPos(ce.Pos),
				}},
			})
		}
		return outputValidateError(formatter, compiler.ErrCodeGeneric, err.Error(), nil)
	}

	formatter.VerboseLog("Loaded %d file(s): %v", len(cfg.Files), cfg.Files)

	result := ValidationResult{
		Valid:      len(cfg.Errors) == 0,
		Version:    cfg.Version,
		Sessions:   len(cfg.Rules),
		ConfigHash: cfg.Hash(),
		Files:      cfg.Files,
		Errors:     cfg.Errors,
		Warnings:   cfg.Warnings,
	}
	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// compileErrorCode maps a structural compile error to a validation code.
func compileErrorCode(ce *compiler.CompileError) string {
	if ce.Field == "version" {
		return compiler.ErrUnsupportedVersion
	}
	return compiler.ErrCodeBuildFailed
}

// getLineFromTokenPos extracts line number from a cue token.Pos.
func getLineFromTokenPos(pos token.Pos) int {
	if pos.IsValid() {
		return pos.Line()
	}
	return 0
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Configuration valid (%d sessions, version %s)\n", result.Sessions, result.Version)
	writeWarnings(formatter.Writer, result.Warnings)
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Load errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}
	writeWarnings(formatter.Writer, result.Warnings)

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

func writeWarnings(w io.Writer, warnings []compiler.ValidationError) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "%d warning(s):\n", len(warnings))
	for _, warn := range warnings {
		fmt.Fprintf(w, "  %s: %s: %s\n", warn.Code, warn.Field, warn.Message)
	}
}

// ValidateConfigDir compiles the configuration in dir, or the embedded
// catalog when dir is empty. Validation problems are on the returned Config.
func ValidateConfigDir(dir string) (*compiler.Config, error) {
	if dir == "" {
		return compiler.Default()
	}
	return compiler.LoadDir(dir)
}
