package harness

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/roach88/focal/internal/builder"
	"github.com/roach88/focal/internal/mockchan"
	"github.com/roach88/focal/internal/recorder"
)

// Fault arms one channel fault before the scenario runs.
type Fault struct {
	Kind  mockchan.FaultKind
	Limit int // bytes let through by a short transfer
}

// Scenario is one self-contained test case.
type Scenario struct {
	Name        string
	Description string

	// Input is loaded into the channel first. Build, when set, appends to
	// it through a builder; a construction error fails the scenario before
	// Run is called.
	Input []byte
	Build func(b *builder.Builder)

	Faults []Fault

	// Run drives the function under test and asserts through env.
	Run func(env *Env)

	// AllowOutstanding disables the leak check for scenarios that assert on
	// outstanding allocations themselves.
	AllowOutstanding bool
}

// Env is what a scenario's run function works with.
type Env struct {
	*Checker

	Channel  *mockchan.Channel
	Recorder *recorder.Recorder
	Logger   *slog.Logger
	Scenario string
}

// ErrNoRun is the construction error for a scenario without a run function.
var ErrNoRun = errors.New("scenario has no run function")

// execute runs one scenario through its phases up to Evaluated. The caller
// moves it to Reported.
func (r *Report) execute(s Scenario) (v Verdict) {
	v = Verdict{Scenario: s.Name, Status: StatusPass, Phase: PhaseIdle}
	log := r.logger.With("scenario", s.Name, "run_id", r.runID)

	rec := r.shared
	if rec != nil {
		rec.Reset()
	} else {
		rec = recorder.New()
	}
	defer func() {
		v.Calls = rec.Records()
	}()

	if s.Name == "" {
		v.addReason("construction: scenario name is required")
		return v
	}
	if s.Run == nil {
		v.addReason("construction: " + ErrNoRun.Error())
		return v
	}

	// Armed
	var ch *mockchan.Channel
	if stop := contain(s.Name, PhaseArmed, func() error {
		data, err := buildInput(s)
		if err != nil {
			return err
		}
		ch = mockchan.New(data, mockchan.WithRecorder(rec), mockchan.WithLogger(log))
		for _, f := range s.Faults {
			if _, ok := mockchan.ParseFault(f.Kind.String()); !ok {
				return fmt.Errorf("unknown fault kind %d", int(f.Kind))
			}
			if f.Limit < 0 {
				return fmt.Errorf("fault %s: negative limit %d", f.Kind, f.Limit)
			}
			ch.ArmFaultLimit(f.Kind, f.Limit)
		}
		return nil
	}, &v); stop {
		return v
	}
	v.Phase = PhaseArmed
	log.Debug("scenario armed", "phase", v.Phase, "input_len", ch.Len(), "faults", len(s.Faults))

	// Running
	env := &Env{
		Checker:  &Checker{},
		Channel:  ch,
		Recorder: rec,
		Logger:   log,
		Scenario: s.Name,
	}
	v.Phase = PhaseRunning
	abortedRun := contain(s.Name, PhaseRunning, func() error {
		s.Run(env)
		return nil
	}, &v)
	if abortedRun {
		// Checks that ran before the panic are still reported, ahead of it.
		failures := make([]string, 0, len(env.failures)+len(v.Reasons))
		for _, f := range env.Failures() {
			failures = append(failures, f.Reason())
		}
		v.Reasons = append(failures, v.Reasons...)
		log.Warn("scenario aborted", "phase", v.Phase, "error", v.Abort.Message)
		return v
	}

	// Evaluated
	v.Phase = PhaseEvaluated
	for _, f := range env.Failures() {
		v.addReason(f.Reason())
		log.Debug("check failed", "check", f.Check, "description", f.Description)
	}
	if !s.AllowOutstanding {
		if ids := ch.Outstanding(); len(ids) > 0 {
			v.addReason(fmt.Sprintf("leaked allocations: %v", ids))
		}
	}
	if v.Status == StatusPass && env.Skipped() {
		v.Status = StatusSkip
		v.Reasons = []string{env.skipReason}
	}
	return v
}

func buildInput(s Scenario) ([]byte, error) {
	b := builder.New().AppendBytes(s.Input)
	if s.Build != nil {
		s.Build(b)
	}
	data, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("construction: %w", err)
	}
	return data, nil
}

// contain runs fn and converts both a returned error and a panic into a
// failed verdict. It reports whether the scenario must stop.
func contain(scenario string, phase Phase, fn func() error, v *Verdict) (stop bool) {
	defer func() {
		if p := recover(); p != nil {
			v.Abort = newAbortError(scenario, phase, p, debug.Stack())
			v.addReason("aborted: " + v.Abort.Message)
			stop = true
		}
	}()
	if err := fn(); err != nil {
		v.addReason(err.Error())
		return true
	}
	return false
}
