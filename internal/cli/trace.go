package cli

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/focal/internal/harness"
	"github.com/roach88/focal/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Scenario string // optional - restrict to one scenario
}

// ScenarioTrace is one verdict of a stored run with its call records.
type ScenarioTrace struct {
	store.StoredVerdict
	Calls []store.Call `json:"calls"`
}

// TraceResult holds the trace output of a stored run.
type TraceResult struct {
	Run       store.Run       `json:"run"`
	Scenarios []ScenarioTrace `json:"scenarios"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <run-id>",
		Short: "Print the call records of a stored run",
		Long: `Print each scenario of a stored run with the calls it made against
the mocked channel, in recording order.

Examples:
  focal trace 0192c1d4-... --db focal.db
  focal trace 0192c1d4-... --db focal.db --scenario u32_short_read
  focal trace 0192c1d4-... --db focal.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the run history database (required)")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "only show this scenario")
	cmd.MarkFlagRequired("db")

	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, runID string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out := opts.formatter(cmd)

	st, err := openExisting(out, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	run, verdicts, err := st.ReadRun(ctx, runID)
	if err != nil {
		return traceError(out, err)
	}
	calls, err := st.ReadCalls(ctx, runID, opts.Scenario)
	if err != nil {
		return traceError(out, err)
	}

	byScenario := make(map[string][]store.Call)
	for _, c := range calls {
		byScenario[c.Scenario] = append(byScenario[c.Scenario], c)
	}

	result := TraceResult{Run: run, Scenarios: []ScenarioTrace{}}
	for _, v := range verdicts {
		if opts.Scenario != "" && v.Scenario != opts.Scenario {
			continue
		}
		sc := byScenario[v.Scenario]
		if sc == nil {
			sc = []store.Call{}
		}
		result.Scenarios = append(result.Scenarios, ScenarioTrace{StoredVerdict: v, Calls: sc})
	}

	return out.Success(result, func(w io.Writer) error {
		return writeTraceText(w, result)
	})
}

func traceError(out *OutputFormatter, err error) error {
	if errors.Is(err, store.ErrRunNotFound) || errors.Is(err, store.ErrScenarioNotFound) {
		out.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "trace", err)
	}
	out.Error(ErrCodeStore, err.Error(), nil)
	return WrapExitError(ExitCommandError, "trace", err)
}

func writeTraceText(w io.Writer, result TraceResult) error {
	fmt.Fprintf(w, "Run %s: %d/%d tests passed.\n", result.Run.ID, result.Run.Passed, result.Run.Total)
	for _, s := range result.Scenarios {
		v := harness.Verdict{Scenario: s.Scenario, Status: s.Status, Reasons: s.Reasons}
		fmt.Fprintf(w, "\n%s\n", v.Line())
		if len(s.Calls) == 0 {
			fmt.Fprintln(w, "  (no calls)")
			continue
		}
		for _, c := range s.Calls {
			line := "  " + c.CallRecord.String()
			if len(c.Payload) > 0 {
				line += " payload=" + hex.EncodeToString(c.Payload)
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}
