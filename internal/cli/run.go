package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/focal/internal/harness"
	"github.com/roach88/focal/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Filter   string // scenario filter (glob on the file name)
	Database string // optional run history database
	Golden   bool   // compare call traces with golden files
	Update   bool   // rewrite golden files

	now func() time.Time
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts, now: time.Now}

	cmd := &cobra.Command{
		Use:   "run <scenarios-dir>",
		Short: "Run scenario files and print the report",
		Long: `Run every scenario file under a directory and print one line per
scenario followed by a summary.

Exit codes:
  0 - All scenarios passed or were skipped
  1 - One or more scenarios failed
  2 - Command error (invalid paths, unwritable database, etc.)

Examples:
  focal run ./scenarios
  focal run ./scenarios --filter "u32_*"
  focal run ./scenarios --golden
  focal run ./scenarios --update
  focal run ./scenarios --db focal.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.Database, "db", "", "store the run in this SQLite database")
	cmd.Flags().BoolVar(&opts.Golden, "golden", false, "compare call traces with golden files")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")

	return cmd
}

func runScenarios(ctx context.Context, opts *RunOptions, dir string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out := opts.formatter(cmd)
	logger := opts.Logger()

	entries, err := harness.LoadSuite(dir, opts.Filter)
	if err != nil {
		return suiteError(out, err)
	}
	logger.Debug("scenarios found", "dir", dir, "count", len(entries))

	reportOpts := []harness.Option{harness.WithLogger(logger)}
	if opts.Golden || opts.Update {
		reportOpts = append(reportOpts, harness.WithVerdictCheck(goldenCheck(entries, opts.Update)))
	}

	report := harness.NewReport(reportOpts...)
	report.RunSuite(entries)
	doc := report.Document()

	if opts.Database != "" {
		if err := saveRun(ctx, opts.Database, doc, opts.now()); err != nil {
			out.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to store run", err)
		}
		logger.Debug("run stored", "run_id", doc.RunID, "db", opts.Database)
	}

	text := func(w io.Writer) error { return report.Render(w) }
	if doc.Summary.OK() {
		return out.Success(doc, text)
	}

	msg := fmt.Sprintf("%d scenario(s) failed", doc.Summary.Failed)
	if err := out.Failure(doc, ErrCodeScenarioFailed, msg, text); err != nil {
		return err
	}
	return NewExitError(ExitFailure, msg)
}

// suiteError reports a scenario directory that could not be walked.
func suiteError(out *OutputFormatter, err error) error {
	var notFound *harness.DirNotFoundError
	if errors.As(err, &notFound) {
		out.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot load scenarios", err)
	}
	out.Error(ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitCommandError, "cannot load scenarios", err)
}

// goldenCheck compares each verdict's snapshot with the golden file next
// to its scenario file, or rewrites the golden file when update is set.
func goldenCheck(entries []harness.SuiteEntry, update bool) harness.VerdictCheck {
	paths := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Err == nil {
			paths[e.File.Name] = e.Path
		}
	}

	return func(v harness.Verdict) error {
		path, ok := paths[v.Scenario]
		if !ok {
			return nil
		}
		golden := harness.GoldenPath(path)

		if update {
			return harness.WriteGolden(golden, v)
		}
		if _, err := os.Stat(golden); os.IsNotExist(err) {
			return fmt.Errorf("golden file missing: %s (run with --update to create it)", golden)
		}
		match, err := harness.CompareGolden(golden, v)
		if err != nil {
			return err
		}
		if !match {
			return errors.New("trace does not match golden file (run with --update to regenerate)")
		}
		return nil
	}
}

func saveRun(ctx context.Context, path string, doc harness.Document, at time.Time) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.WriteRun(ctx, doc, at)
}
