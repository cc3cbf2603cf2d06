package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/focal/internal/harness"
)

// FileValidation is the validation outcome of one scenario file.
type FileValidation struct {
	File       string                    `json:"file"`
	Scenario   string                    `json:"scenario,omitempty"`
	Valid      bool                      `json:"valid"`
	Violations []harness.SchemaViolation `json:"violations,omitempty"`
	Message    string                    `json:"message,omitempty"`
}

// ValidationResult holds validation results for a directory.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// Invalid counts the files that failed validation.
func (r ValidationResult) Invalid() int {
	n := 0
	for _, f := range r.Files {
		if !f.Valid {
			n++
		}
	}
	return n
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "validate <scenarios-dir>",
		Short: "Check scenario files without running them",
		Long: `Check every scenario file under a directory against the scenario
schema, the subject registry and the input/fault/expectation rules,
without running any scenario.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], filter, cmd)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runValidate(opts *RootOptions, dir, filter string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	logger := opts.Logger()

	entries, err := harness.LoadSuite(dir, filter)
	if err != nil {
		return suiteError(out, err)
	}

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(entries))}
	for _, e := range entries {
		fv := FileValidation{File: e.Path, Valid: e.Err == nil}
		if e.File != nil {
			fv.Scenario = e.File.Name
		}
		if e.Err != nil {
			result.Valid = false
			var schemaErr *harness.SchemaError
			if errors.As(e.Err, &schemaErr) {
				fv.Violations = schemaErr.Violations
			} else {
				fv.Message = e.Err.Error()
			}
		}
		logger.Debug("validated", "file", e.Path, "valid", fv.Valid)
		result.Files = append(result.Files, fv)
	}

	text := func(w io.Writer) error { return writeValidationText(w, result) }
	if result.Valid {
		return out.Success(result, text)
	}

	msg := fmt.Sprintf("%d of %d scenario file(s) invalid", result.Invalid(), len(result.Files))
	if err := out.Failure(result, ErrCodeSchema, msg, text); err != nil {
		return err
	}
	return NewExitError(ExitFailure, msg)
}

func writeValidationText(w io.Writer, result ValidationResult) error {
	for _, f := range result.Files {
		if f.Valid {
			fmt.Fprintf(w, "✓ %s\n", f.File)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", f.File)
		for _, v := range f.Violations {
			switch {
			case v.Line > 0 && v.Path != "":
				fmt.Fprintf(w, "  line %d: %s: %s\n", v.Line, v.Path, v.Message)
			case v.Path != "":
				fmt.Fprintf(w, "  %s: %s\n", v.Path, v.Message)
			default:
				fmt.Fprintf(w, "  %s\n", v.Message)
			}
		}
		if f.Message != "" {
			fmt.Fprintf(w, "  %s\n", f.Message)
		}
	}

	if len(result.Files) == 0 {
		_, err := fmt.Fprintln(w, "No scenarios found.")
		return err
	}
	if result.Valid {
		_, err := fmt.Fprintf(w, "%d scenario file(s) valid\n", len(result.Files))
		return err
	}
	_, err := fmt.Fprintf(w, "%d of %d scenario file(s) invalid\n", result.Invalid(), len(result.Files))
	return err
}
