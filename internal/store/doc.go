// Package store keeps a SQLite history of harness runs.
//
// Each run stores its summary counts, one row per verdict and one row per
// call record, so a past run's traces can be inspected without rerunning
// the scenarios:
//   - runs: run id, counts, exit code, creation time
//   - verdicts: scenario, status, phase, reasons (canonical JSON)
//   - calls: the CallRecords of each verdict, in seq order
//
// # Ordering
//
// Runs are listed newest first by insertion order (the runs.seq column),
// never by timestamp. Verdicts keep the order the report ran them in and
// calls keep their recorder seq.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: 5-second wait on lock contention
//   - foreign_keys=ON: verdicts and calls cascade with their run
//
// Schema version is tracked with PRAGMA user_version.
package store
