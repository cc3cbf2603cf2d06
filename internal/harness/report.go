package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/focal/internal/recorder"
)

// Exit codes derived from a Summary.
const (
	ExitPass = 0
	ExitFail = 1
)

// RunIDGenerator produces the identifier stamped on a Report.
type RunIDGenerator interface {
	Generate() string
}

// uuidRunIDs generates time-ordered UUIDv7 run IDs.
type uuidRunIDs struct{}

func (uuidRunIDs) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Report runs scenarios in the order given and aggregates their verdicts.
// A Report is not safe for concurrent use; scenarios run one at a time.
type Report struct {
	runID    string
	logger   *slog.Logger
	shared   *recorder.Recorder
	checks   []VerdictCheck
	verdicts []Verdict
}

// VerdictCheck inspects a finished verdict before it is reported. A
// non-nil error fails the verdict with the error text as its reason.
type VerdictCheck func(v Verdict) error

// Option configures a Report.
type Option func(*reportConfig)

type reportConfig struct {
	logger *slog.Logger
	shared *recorder.Recorder
	runID  string
	ids    RunIDGenerator
	checks []VerdictCheck
}

// WithLogger sets the logger for scenario lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(c *reportConfig) { c.logger = l }
}

// WithRecorder makes every scenario record into rec. The report resets rec
// before each scenario.
func WithRecorder(rec *recorder.Recorder) Option {
	return func(c *reportConfig) { c.shared = rec }
}

// WithRunID fixes the report's run ID.
func WithRunID(id string) Option {
	return func(c *reportConfig) { c.runID = id }
}

// WithRunIDGenerator draws the run ID from g when WithRunID is not given.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(c *reportConfig) { c.ids = g }
}

// WithVerdictCheck adds a check run on every verdict that was not skipped,
// such as a golden trace comparison. Checks run in the order added.
func WithVerdictCheck(fn VerdictCheck) Option {
	return func(c *reportConfig) { c.checks = append(c.checks, fn) }
}

// NewReport returns an empty report.
func NewReport(opts ...Option) *Report {
	cfg := reportConfig{ids: uuidRunIDs{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.runID == "" {
		cfg.runID = cfg.ids.Generate()
	}
	return &Report{
		runID:    cfg.runID,
		logger:   cfg.logger,
		shared:   cfg.shared,
		checks:   cfg.checks,
		verdicts: []Verdict{},
	}
}

// RunID returns the report's run ID.
func (r *Report) RunID() string {
	return r.runID
}

// Run executes one scenario and appends its verdict. A failing or panicking
// scenario never stops the report.
func (r *Report) Run(s Scenario) Verdict {
	v := r.execute(s)
	if v.Status != StatusSkip {
		for _, check := range r.checks {
			snapshot := v
			contain(v.Scenario, PhaseEvaluated, func() error { return check(snapshot) }, &v)
		}
	}
	v.Phase = PhaseReported
	r.verdicts = append(r.verdicts, v)
	r.logger.Info("scenario reported",
		"scenario", v.Scenario,
		"status", string(v.Status),
		"calls", len(v.Calls),
		"run_id", r.runID,
	)
	return v
}

// RunAll executes the scenarios in order.
func (r *Report) RunAll(scenarios []Scenario) []Verdict {
	out := make([]Verdict, 0, len(scenarios))
	for _, s := range scenarios {
		out = append(out, r.Run(s))
	}
	return out
}

// Add appends a verdict produced elsewhere, such as a scenario file that
// failed to load. It is marked Reported.
func (r *Report) Add(v Verdict) {
	v.Phase = PhaseReported
	r.verdicts = append(r.verdicts, v)
}

// Verdicts returns the verdicts in run order.
func (r *Report) Verdicts() []Verdict {
	out := make([]Verdict, len(r.verdicts))
	copy(out, r.verdicts)
	return out
}

// Summary tallies a report. Skipped scenarios count toward Total but not
// toward Passed, and do not make the exit code non-zero.
type Summary struct {
	RunID    string   `json:"run_id"`
	Passed   int      `json:"passed"`
	Failed   int      `json:"failed"`
	Skipped  int      `json:"skipped"`
	Total    int      `json:"total"`
	Failures []string `json:"failures"`
	ExitCode int      `json:"exit_code"`
}

// OK reports whether no scenario failed. An empty report is OK.
func (s Summary) OK() bool {
	return s.Failed == 0
}

// Finalize tallies the verdicts gathered so far. It does not change the
// report, so repeated calls return identical summaries.
func (r *Report) Finalize() Summary {
	s := Summary{RunID: r.runID, Total: len(r.verdicts), Failures: []string{}}
	for _, v := range r.verdicts {
		switch v.Status {
		case StatusPass:
			s.Passed++
		case StatusSkip:
			s.Skipped++
		default:
			s.Failed++
			s.Failures = append(s.Failures, fmt.Sprintf("%s - %s", v.Scenario, v.Reason()))
		}
	}
	if s.Failed > 0 {
		s.ExitCode = ExitFail
	}
	return s
}

// Render writes one line per verdict followed by the summary line.
func (r *Report) Render(w io.Writer) error {
	for _, v := range r.verdicts {
		if _, err := fmt.Fprintln(w, v.Line()); err != nil {
			return err
		}
	}
	s := r.Finalize()
	_, err := fmt.Fprintf(w, "Summary: %d/%d tests passed.\n", s.Passed, s.Total)
	return err
}

// Document is the JSON form of a report.
type Document struct {
	RunID    string    `json:"run_id"`
	Verdicts []Verdict `json:"verdicts"`
	Summary  Summary   `json:"summary"`
}

// Document returns the report's verdicts and summary.
func (r *Report) Document() Document {
	return Document{RunID: r.runID, Verdicts: r.Verdicts(), Summary: r.Finalize()}
}
