package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/focal/internal/canon"
	"github.com/roach88/focal/internal/recorder"
)

// Snapshot renders a verdict's outcome and call trace as indented
// canonical JSON. Abort stacks are left out; they depend on the build.
func Snapshot(v Verdict) ([]byte, error) {
	calls := make([]any, len(v.Calls))
	for i, c := range v.Calls {
		calls[i] = callObject(c)
	}
	reasons := make([]any, len(v.Reasons))
	for i, r := range v.Reasons {
		reasons[i] = r
	}
	return canon.MarshalIndent(canon.Object{
		"scenario": v.Scenario,
		"status":   string(v.Status),
		"reasons":  reasons,
		"calls":    calls,
	})
}

func callObject(c recorder.CallRecord) canon.Object {
	obj := canon.Object{
		"seq":       c.Seq,
		"kind":      c.Kind.String(),
		"requested": c.Requested,
		"actual":    c.Actual,
	}
	if len(c.Payload) > 0 {
		obj["payload"] = c.Payload
	}
	if c.Name != "" {
		obj["name"] = c.Name
	}
	if len(c.Args) > 0 {
		args := make([]any, len(c.Args))
		for i, a := range c.Args {
			args[i] = fmt.Sprint(a)
		}
		obj["args"] = args
	}
	return obj
}

// GoldenPath returns the golden file for a scenario file:
// <dir>/golden/<name>.golden.
func GoldenPath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// CompareGolden reports whether the verdict's snapshot matches the golden
// file at path.
func CompareGolden(path string, v Verdict) (bool, error) {
	want, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	got, err := Snapshot(v)
	if err != nil {
		return false, fmt.Errorf("failed to snapshot %s: %w", v.Scenario, err)
	}
	return bytes.Equal(want, got), nil
}

// WriteGolden writes the verdict's snapshot to path, creating the golden
// directory if needed.
func WriteGolden(path string, v Verdict) error {
	got, err := Snapshot(v)
	if err != nil {
		return fmt.Errorf("failed to snapshot %s: %w", v.Scenario, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, got, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// AssertGolden compares the verdict's snapshot with
// testdata/golden/<scenario>.golden. Regenerate with:
//
//	go test ./... -update
func AssertGolden(t *testing.T, v Verdict, opts ...goldie.Option) {
	t.Helper()

	data, err := Snapshot(v)
	if err != nil {
		t.Fatalf("snapshot %s: %v", v.Scenario, err)
	}

	g := goldie.New(t, append([]goldie.Option{
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	}, opts...)...)
	g.Assert(t, v.Scenario, data)
}
