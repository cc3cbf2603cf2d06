// Package harness runs focal scenarios and aggregates their verdicts.
//
// A Scenario pairs input bytes (literal or produced by a builder.Builder)
// with one-shot channel faults and a run function that drives the function
// under test through an Env. The run function asserts through the Env's
// Checker, whose checks never stop execution: every failed check is
// appended to the scenario's Verdict and the remaining checks still run.
//
// # Lifecycle
//
// Each scenario moves through a fixed sequence of phases and runs exactly
// once:
//
//	Idle -> Armed -> Running -> Evaluated -> Reported
//
// Armed means the input bytes are built and loaded into a fresh
// mockchan.Channel with the scenario's faults armed. Running is the call
// into the function under test. Evaluated collects check failures and the
// allocation leak check. Reported appends the Verdict to the Report.
//
// A panic inside the function under test (or inside the scenario's own
// code) is recovered and turned into a failed Verdict carrying an
// AbortError. The Report keeps going.
//
// # Isolation
//
// Every scenario gets its own channel. By default it also gets its own
// recorder. A Report created WithRecorder shares one recorder across
// scenarios and resets it before each one, so counts never leak from one
// scenario into the next.
//
// # Scenario files
//
// LoadScenarioFile reads a YAML scenario that names a registered subject
// (see package subject), validates it against an embedded CUE schema and
// compiles it into a Scenario. Golden snapshots of a verdict's call trace
// are canonical JSON (package canon).
//
// # Output
//
// Render writes the line-oriented report that downstream tooling scrapes:
//
//	[PASS] u32_full_read
//	[FAIL] frame_truncated - status: expected "ok", got "truncated"
//	[SKIP] slow_path - needs a seekable sink
//	Summary: 1/3 tests passed.
package harness
