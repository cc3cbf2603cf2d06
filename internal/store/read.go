package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/focal/internal/harness"
	"github.com/roach88/focal/internal/recorder"
)

// ErrScenarioNotFound is returned by ReadCalls when the run has no verdict
// for the requested scenario.
var ErrScenarioNotFound = errors.New("scenario not found in run")

// Run is one stored report summary.
type Run struct {
	ID        string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Passed    int       `json:"passed"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	Total     int       `json:"total"`
	ExitCode  int       `json:"exit_code"`
}

// StoredVerdict is a verdict as read back from the store. Its call records
// are loaded separately with ReadCalls.
type StoredVerdict struct {
	Scenario string         `json:"scenario"`
	Status   harness.Status `json:"status"`
	Phase    harness.Phase  `json:"phase"`
	Reasons  []string       `json:"reasons,omitempty"`
	Aborted  bool           `json:"aborted,omitempty"`
}

// Call is a stored call record tagged with the scenario that made it.
type Call struct {
	Scenario string `json:"scenario"`
	recorder.CallRecord
}

// ListRuns returns stored runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, passed, failed, skipped, total, exit_code
		FROM runs
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns a stored run and its verdicts in report order.
// Returns ErrRunNotFound if the id is unknown.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, []StoredVerdict, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, passed, failed, skipped, total, exit_code
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT scenario, status, phase, reasons, aborted
		FROM verdicts
		WHERE run_id = ?
		ORDER BY ord ASC
	`, id)
	if err != nil {
		return Run{}, nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	verdicts := []StoredVerdict{}
	for rows.Next() {
		var (
			v       StoredVerdict
			status  string
			phase   string
			reasons string
		)
		if err := rows.Scan(&v.Scenario, &status, &phase, &reasons, &v.Aborted); err != nil {
			return Run{}, nil, fmt.Errorf("scan verdict: %w", err)
		}
		v.Status = harness.Status(status)
		if err := v.Phase.UnmarshalText([]byte(phase)); err != nil {
			return Run{}, nil, fmt.Errorf("verdict %s: %w", v.Scenario, err)
		}
		if err := json.Unmarshal([]byte(reasons), &v.Reasons); err != nil {
			return Run{}, nil, fmt.Errorf("verdict %s: unmarshal reasons: %w", v.Scenario, err)
		}
		if len(v.Reasons) == 0 {
			v.Reasons = nil
		}
		verdicts = append(verdicts, v)
	}
	if err := rows.Err(); err != nil {
		return Run{}, nil, fmt.Errorf("iterate verdicts: %w", err)
	}
	return run, verdicts, nil
}

// ReadCalls returns the call records of a run in report order, then seq
// order. A non-empty scenario restricts the result to that scenario.
func (s *Store) ReadCalls(ctx context.Context, runID, scenario string) ([]Call, error) {
	if err := s.requireRun(ctx, runID); err != nil {
		return nil, err
	}
	if scenario != "" {
		var n int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM verdicts WHERE run_id = ? AND scenario = ?`,
			runID, scenario,
		).Scan(&n)
		if err != nil {
			return nil, fmt.Errorf("query verdicts: %w", err)
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: %s in %s", ErrScenarioNotFound, scenario, runID)
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT v.scenario, c.seq, c.kind, c.name, c.requested, c.actual, c.payload, c.args
		FROM calls c
		JOIN verdicts v ON v.run_id = c.run_id AND v.ord = c.ord
		WHERE c.run_id = ? AND (? = '' OR v.scenario = ?)
		ORDER BY c.ord ASC, c.seq ASC
	`, runID, scenario, scenario)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	calls := []Call{}
	for rows.Next() {
		var (
			c    Call
			kind string
			args string
		)
		if err := rows.Scan(&c.Scenario, &c.Seq, &kind, &c.Name, &c.Requested, &c.Actual, &c.Payload, &args); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		c.Kind = recorder.ParseKind(kind)
		if c.Kind == recorder.KindInvalid {
			return nil, fmt.Errorf("call %d: unknown kind %q", c.Seq, kind)
		}
		var strArgs []string
		if err := json.Unmarshal([]byte(args), &strArgs); err != nil {
			return nil, fmt.Errorf("call %d: unmarshal args: %w", c.Seq, err)
		}
		for _, a := range strArgs {
			c.Args = append(c.Args, a)
		}
		if len(c.Payload) == 0 {
			c.Payload = nil
		}
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}
	return calls, nil
}

func (s *Store) requireRun(ctx context.Context, id string) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, id).Scan(&n); err != nil {
		return fmt.Errorf("query runs: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run     Run
		created string
	)
	err := row.Scan(&run.ID, &created, &run.Passed, &run.Failed, &run.Skipped, &run.Total, &run.ExitCode)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: parse created_at: %w", run.ID, err)
	}
	return run, nil
}
