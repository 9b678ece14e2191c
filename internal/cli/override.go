package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/scopecard/internal/assess"
	"github.com/roach88/scopecard/internal/compiler"
	"github.com/roach88/scopecard/internal/ir"
)

// OverrideOptions holds flags for the override set and clear commands.
type OverrideOptions struct {
	*RootOptions
	Status    string
	Reason    string
	ScopeFile string // sessions are recomputed for this scope
}

// OverrideOutput is the result of an override set or clear.
type OverrideOutput struct {
	Session string             `json:"session"`
	Action  ir.EventAction     `json:"action"`
	Result  assess.ApplyResult `json:"result"`
}

// NewOverrideCommand creates the override command group.
func NewOverrideCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Manage manual session overrides",
		Long: `Set, clear and inspect manual overrides. An override replaces the
computed status of one session with a fixed status and reason.

Changes are saved with the strategy selected by --persist:
  auto      write <config>/sessions-config.json when writable, else a snapshot
            (sqlite when --db is set)
  file      write <config>/sessions-config.json
  sqlite    store overrides and their history in --db
  prompt    ask where to save
  snapshot  write a timestamped copy into --snapshot-dir`,
	}

	cmd.AddCommand(newOverrideSetCommand(rootOpts))
	cmd.AddCommand(newOverrideClearCommand(rootOpts))
	cmd.AddCommand(newOverrideListCommand(rootOpts))
	cmd.AddCommand(newOverrideHistoryCommand(rootOpts))

	return cmd
}

func newOverrideSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OverrideOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set <session-id>",
		Short: "Set the override for a session",
		Example: `  scopecard override set 02 --status not-applicable --reason "N/A for this org"
  scopecard override set 05 --status required --reason "Audit finding" --db overrides.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOverride(opts, args[0], ir.EventSet, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", "", "override status (required|optional|not-applicable)")
	cmd.Flags().StringVar(&opts.Reason, "reason", "", "reason shown instead of the computed one")
	cmd.Flags().StringVar(&opts.ScopeFile, "scope", "", "scope answers file to recompute sessions for")
	_ = cmd.MarkFlagRequired("status")

	return cmd
}

func newOverrideClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OverrideOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "clear <session-id>",
		Short:         "Remove the override for a session",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOverride(opts, args[0], ir.EventClear, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ScopeFile, "scope", "", "scope answers file to recompute sessions for")

	return cmd
}

func runOverride(opts *OverrideOptions, sessionID string, action ir.EventAction, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	scope, err := readScope(opts.ScopeFile)
	if err != nil {
		return reportError(formatter, err)
	}

	ws, err := openWorkspace(cmd.Context(), opts.RootOptions, cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return reportError(formatter, err)
	}
	defer ws.Close()

	var res assess.ApplyResult
	if action == ir.EventClear {
		res, err = ws.Service.ClearOverride(cmd.Context(), scope, sessionID)
	} else {
		res, err = ws.Service.ApplyOverride(cmd.Context(), scope, sessionID, ir.OverrideInput{
			Status: ir.Status(opts.Status),
			Reason: opts.Reason,
		})
	}
	if err != nil {
		return reportError(formatter, WrapExitError(ExitCommandError, fmt.Sprintf("override %s failed", action), err))
	}

	out := OverrideOutput{Session: sessionID, Action: action, Result: res}
	if opts.Format == "json" {
		if err := formatter.Success(out); err != nil {
			return err
		}
	} else {
		writeOverrideOutput(formatter, out, opts.ScopeFile != "")
	}

	// A cancelled prompt is the operator's choice, not a failure.
	if !res.OK && !res.Abandoned {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: override not saved: %s", ErrCodeNotPersisted, res.Message))
	}
	return nil
}

func writeOverrideOutput(f *OutputFormatter, out OverrideOutput, showSessions bool) {
	w := f.Writer
	if out.Action == ir.EventClear {
		fmt.Fprintf(w, "Override cleared for session %s\n", out.Session)
	} else {
		for _, s := range out.Result.Sessions {
			if s.ID == out.Session {
				fmt.Fprintf(w, "Override set for session %s: %s\n", s.ID, s.Status)
			}
		}
	}

	if out.Result.OK {
		fmt.Fprintf(w, "Saved: %s\n", out.Result.Message)
	} else {
		fmt.Fprintf(w, "Not saved: %s\n", out.Result.Message)
	}

	if showSessions {
		fmt.Fprintln(w)
		for _, s := range out.Result.Sessions {
			fmt.Fprintf(w, "  %s %-15s %s (%s)\n", s.ID, s.Status, s.Reason, s.Source)
		}
	}
}

func newOverrideListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List the overrides in effect",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, rootOpts)

			ws, err := openWorkspace(cmd.Context(), rootOpts, cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return reportError(formatter, err)
			}
			defer ws.Close()

			recs := ws.Service.Store().Overrides()
			if rootOpts.Format == "json" {
				return formatter.Success(recs)
			}
			if len(recs) == 0 {
				fmt.Fprintln(formatter.Writer, "No overrides.")
				return nil
			}
			for _, rec := range recs {
				fmt.Fprintf(formatter.Writer, "%s %-15s %s", rec.SessionID, rec.Status, rec.Reason)
				if !rec.UpdatedAt.IsZero() {
					fmt.Fprintf(formatter.Writer, " (updated %s)", rec.UpdatedAt.Format(time.RFC3339))
				}
				fmt.Fprintln(formatter.Writer)
			}
			return nil
		},
	}
}

func newOverrideHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "history [session-id]",
		Short:         "Show the override history stored in --db",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, rootOpts)
			if rootOpts.DB == "" {
				_ = formatter.Error(compiler.ErrCodeGeneric, "history requires --db", nil)
				return NewExitError(ExitCommandError, "history requires --db")
			}

			ws, err := openWorkspace(cmd.Context(), rootOpts, cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return reportError(formatter, err)
			}
			defer ws.Close()

			sessionID := ""
			if len(args) == 1 {
				sessionID = args[0]
			}
			events, err := ws.DB.History(cmd.Context(), sessionID)
			if err != nil {
				return reportError(formatter, WrapExitError(ExitCommandError, "failed to read history", err))
			}

			if rootOpts.Format == "json" {
				return formatter.Success(events)
			}
			if len(events) == 0 {
				fmt.Fprintln(formatter.Writer, "No history.")
				return nil
			}
			for _, ev := range events {
				fmt.Fprintf(formatter.Writer, "%4d %s %s %-5s", ev.Seq, ev.RecordedAt.Format(time.RFC3339), ev.SessionID, ev.Action)
				if ev.Action == ir.EventSet {
					fmt.Fprintf(formatter.Writer, " %s %q", ev.Status, ev.Reason)
				}
				fmt.Fprintln(formatter.Writer)
			}
			return nil
		},
	}
}
