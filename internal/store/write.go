package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/focal/internal/canon"
	"github.com/roach88/focal/internal/harness"
	"github.com/roach88/focal/internal/recorder"
)

// WriteRun stores a finished report: its summary, every verdict and every
// call record, in one transaction. A run id can be stored only once; a
// second write returns ErrRunExists and leaves the first untouched.
func (s *Store) WriteRun(ctx context.Context, doc harness.Document, createdAt time.Time) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	sum := doc.Summary
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, passed, failed, skipped, total, exit_code)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		doc.RunID,
		createdAt.UTC().Format(time.RFC3339Nano),
		sum.Passed,
		sum.Failed,
		sum.Skipped,
		sum.Total,
		sum.ExitCode,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("write run %s: %w", doc.RunID, ErrRunExists)
		}
		return fmt.Errorf("write run %s: %w", doc.RunID, err)
	}

	for i, v := range doc.Verdicts {
		if err = writeVerdict(ctx, tx, doc.RunID, i, v); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("write run %s: commit: %w", doc.RunID, err)
	}
	return nil
}

func writeVerdict(ctx context.Context, tx *sql.Tx, runID string, ord int, v harness.Verdict) error {
	reasons, err := canon.Marshal(v.Reasons)
	if err != nil {
		return fmt.Errorf("write verdict %s: marshal reasons: %w", v.Scenario, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO verdicts (run_id, ord, scenario, status, phase, reasons, aborted)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		ord,
		v.Scenario,
		string(v.Status),
		v.Phase.String(),
		string(reasons),
		v.Abort != nil,
	)
	if err != nil {
		return fmt.Errorf("write verdict %s: %w", v.Scenario, err)
	}

	for _, c := range v.Calls {
		if err := writeCall(ctx, tx, runID, ord, c); err != nil {
			return fmt.Errorf("write verdict %s: %w", v.Scenario, err)
		}
	}
	return nil
}

func writeCall(ctx context.Context, tx *sql.Tx, runID string, ord int, c recorder.CallRecord) error {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = fmt.Sprint(a)
	}
	argsJSON, err := canon.Marshal(args)
	if err != nil {
		return fmt.Errorf("call %d: marshal args: %w", c.Seq, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO calls (run_id, ord, seq, kind, name, requested, actual, payload, args)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		ord,
		c.Seq,
		c.Kind.String(),
		c.Name,
		c.Requested,
		c.Actual,
		c.Payload,
		string(argsJSON),
	)
	if err != nil {
		return fmt.Errorf("call %d: %w", c.Seq, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
