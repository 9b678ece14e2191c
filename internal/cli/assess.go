package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scopecard/internal/assess"
	"github.com/roach88/scopecard/internal/ir"
)

// AssessOptions holds flags for the assess command.
type AssessOptions struct {
	*RootOptions
	WorkItems bool // include work items and their references in text output
}

// NewAssessCommand creates the assess command.
func NewAssessCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AssessOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "assess <scope-file>",
		Short: "Score a change and list the sessions it needs",
		Long: `Read scope answers from a YAML or JSON file, score the change risk
and resolve every configured session to required, optional or not-applicable.

Overrides stored in --db are applied before sessions are resolved.

Examples:
  scopecard assess change.yaml
  scopecard assess change.yaml --work-items
  scopecard assess change.yaml --config ./config --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssess(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.WorkItems, "work-items", false, "show work items with compliance references")

	return cmd
}

func runAssess(opts *AssessOptions, scopeFile string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	scope, err := readScope(scopeFile)
	if err != nil {
		return reportError(formatter, err)
	}

	ws, err := openWorkspace(cmd.Context(), opts.RootOptions, cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return reportError(formatter, err)
	}
	defer ws.Close()

	result, err := ws.Service.Assess(scope)
	if err != nil {
		return reportError(formatter, WrapExitError(ExitCommandError, "assessment failed", err))
	}
	formatter.VerboseLog("Assessed %d session(s) with configuration %s", len(result.Sessions), result.ConfigHash)

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	writeAssessment(formatter.Writer, result, opts.WorkItems)
	return nil
}

// writeAssessment renders an assessment for a terminal.
func writeAssessment(w io.Writer, a assess.Assessment, workItems bool) {
	fmt.Fprintf(w, "Risk: %s (score %d)\n", a.Risk.Label, a.Risk.Score)
	for _, d := range a.Risk.Drivers {
		fmt.Fprintf(w, "  - %s\n", d)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Sessions:")
	for _, s := range a.Sessions {
		marker := ""
		if s.Source == ir.SourceOverride {
			marker = " [override]"
		}
		fmt.Fprintf(w, "  %s %-15s %s%s\n", s.ID, s.Status, s.Title, marker)
		fmt.Fprintf(w, "     %s\n", s.Reason)
		if workItems {
			writeWorkItems(w, s.WorkItems)
		}
	}

	if len(a.Considerations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Compliance considerations:")
		for _, c := range a.Considerations {
			fmt.Fprintf(w, "  %s\n", c.Standard)
			for _, item := range c.Items {
				fmt.Fprintf(w, "    - %s\n", item)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Configuration: %s\n", a.ConfigHash)
}

func writeWorkItems(w io.Writer, items []ir.WorkItem) {
	for _, item := range items {
		fmt.Fprintf(w, "       * %s\n", item.Text)
		refs := []struct {
			label   string
			clauses []string
		}{
			{"ISO 9001", item.ISO9001},
			{"ISO 27001", item.ISO27001Clauses},
			{"ISO 27001 Annex A", item.ISO27001AnnexA},
			{"ISO 27701", item.ISO27701},
			{"Documents", item.DocumentTypes},
		}
		for _, ref := range refs {
			if len(ref.clauses) > 0 {
				fmt.Fprintf(w, "         %s: %s\n", ref.label, strings.Join(ref.clauses, ", "))
			}
		}
	}
}
