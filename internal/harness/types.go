package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/focal/internal/recorder"
)

// Status is the outcome of one scenario.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
	StatusSkip Status = "SKIP"
)

// Phase is a step of a scenario's lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseArmed
	PhaseRunning
	PhaseEvaluated
	PhaseReported
)

var phaseNames = [...]string{
	PhaseIdle:      "idle",
	PhaseArmed:     "armed",
	PhaseRunning:   "running",
	PhaseEvaluated: "evaluated",
	PhaseReported:  "reported",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range phaseNames {
		if name == string(text) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// Verdict is the result of running one scenario.
type Verdict struct {
	Scenario string `json:"scenario"`
	Status   Status `json:"status"`

	// Reasons holds one line per failed check, in the order the checks ran.
	// For a skipped scenario it holds the skip reason.
	Reasons []string `json:"reasons,omitempty"`

	// Phase is the last phase the scenario reached. A scenario that
	// completed normally ends in PhaseReported.
	Phase Phase `json:"phase"`

	// Calls is the scenario's call trace.
	Calls []recorder.CallRecord `json:"calls"`

	// Abort is set when the scenario panicked.
	Abort *AbortError `json:"abort,omitempty"`
}

// Passed reports whether the verdict is a pass.
func (v Verdict) Passed() bool {
	return v.Status == StatusPass
}

// Reason joins the verdict's reasons into one line.
func (v Verdict) Reason() string {
	return strings.Join(v.Reasons, "; ")
}

// Line renders the verdict as one report line.
func (v Verdict) Line() string {
	switch v.Status {
	case StatusPass:
		return fmt.Sprintf("[PASS] %s", v.Scenario)
	default:
		return fmt.Sprintf("[%s] %s - %s", v.Status, v.Scenario, v.Reason())
	}
}

func (v *Verdict) addReason(reason string) {
	v.Reasons = append(v.Reasons, reason)
	v.Status = StatusFail
}

// AbortError records a panic raised while a scenario ran.
type AbortError struct {
	Scenario string `json:"scenario"`
	Phase    Phase  `json:"phase"`
	Message  string `json:"message"`
	Stack    string `json:"stack,omitempty"`

	err error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("scenario %s aborted while %s: %s", e.Scenario, e.Phase, e.Message)
}

// Unwrap returns the panic value when it was an error.
func (e *AbortError) Unwrap() error {
	return e.err
}

func newAbortError(scenario string, phase Phase, value any, stack []byte) *AbortError {
	e := &AbortError{
		Scenario: scenario,
		Phase:    phase,
		Message:  fmt.Sprint(value),
		Stack:    string(stack),
	}
	if err, ok := value.(error); ok {
		e.err = err
	}
	return e
}
