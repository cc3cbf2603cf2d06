package harness

import (
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// AssertionError describes one failed check.
type AssertionError struct {
	Check       string // check kind: "check", "equal", "not_equal", ...
	Description string
	Expected    string
	Actual      string
	Diff        string // cmp.Diff output for equality checks, (-expected +actual)
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s (%s)\n", e.Description, e.Check)
	if e.Expected != "" || e.Actual != "" {
		fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
		fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	}
	if e.Diff != "" {
		fmt.Fprintf(&buf, "\nDiff (-expected +actual):\n%s", e.Diff)
	}
	return buf.String()
}

// Reason is the one-line form used in report lines.
func (e *AssertionError) Reason() string {
	switch {
	case e.Expected == "" && e.Actual == "":
		return e.Description
	case e.Check == "not_equal":
		return fmt.Sprintf("%s: expected a value other than %s", e.Description, e.Expected)
	default:
		return fmt.Sprintf("%s: expected %s, got %s", e.Description, e.Expected, e.Actual)
	}
}

// Checker collects check failures without stopping the caller. Every
// method reports whether its check held, so callers can guard follow-up
// checks that would be meaningless after a failure.
type Checker struct {
	failures   []*AssertionError
	skipReason string
}

// allFields lets cmp look into unexported struct fields, so CheckEqual
// works on any value a subject returns instead of panicking.
var allFields = cmp.Exporter(func(reflect.Type) bool { return true })

func (c *Checker) fail(e *AssertionError) bool {
	c.failures = append(c.failures, e)
	return false
}

// Check records a failure with the given description when cond is false.
func (c *Checker) Check(cond bool, description string) bool {
	if cond {
		return true
	}
	return c.fail(&AssertionError{Check: "check", Description: description})
}

// CheckEqual compares actual and expected with cmp.Equal.
func (c *Checker) CheckEqual(actual, expected any, description string) bool {
	if cmp.Equal(expected, actual, allFields) {
		return true
	}
	return c.fail(&AssertionError{
		Check:       "equal",
		Description: description,
		Expected:    formatValue(expected),
		Actual:      formatValue(actual),
		Diff:        cmp.Diff(expected, actual, allFields),
	})
}

// CheckNotEqual fails when actual equals unexpected.
func (c *Checker) CheckNotEqual(actual, unexpected any, description string) bool {
	if !cmp.Equal(unexpected, actual, allFields) {
		return true
	}
	return c.fail(&AssertionError{
		Check:       "not_equal",
		Description: description,
		Expected:    formatValue(unexpected),
		Actual:      formatValue(actual),
	})
}

// CheckNil fails unless v is nil or a nil pointer, slice, map, channel,
// func or interface.
func (c *Checker) CheckNil(v any, description string) bool {
	if isNil(v) {
		return true
	}
	return c.fail(&AssertionError{
		Check:       "nil",
		Description: description,
		Expected:    "nil",
		Actual:      formatValue(v),
	})
}

// CheckNotNil is the inverse of CheckNil.
func (c *Checker) CheckNotNil(v any, description string) bool {
	if !isNil(v) {
		return true
	}
	return c.fail(&AssertionError{
		Check:       "not_nil",
		Description: description,
		Expected:    "non-nil",
		Actual:      "nil",
	})
}

// CheckNoError fails when err is non-nil.
func (c *Checker) CheckNoError(err error, description string) bool {
	if err == nil {
		return true
	}
	return c.fail(&AssertionError{
		Check:       "no_error",
		Description: description,
		Expected:    "no error",
		Actual:      err.Error(),
	})
}

// CheckErrorIs fails unless errors.Is(err, target).
func (c *Checker) CheckErrorIs(err, target error, description string) bool {
	if errors.Is(err, target) {
		return true
	}
	actual := "no error"
	if err != nil {
		actual = err.Error()
	}
	return c.fail(&AssertionError{
		Check:       "error_is",
		Description: description,
		Expected:    fmt.Sprintf("error matching %q", target),
		Actual:      actual,
	})
}

// CheckBytes compares byte slices and reports both sides in hex. A nil and
// an empty slice are equal.
func (c *Checker) CheckBytes(actual, expected []byte, description string) bool {
	if len(actual) == 0 && len(expected) == 0 {
		return true
	}
	if string(actual) == string(expected) {
		return true
	}
	return c.fail(&AssertionError{
		Check:       "bytes",
		Description: description,
		Expected:    "[" + hex.EncodeToString(expected) + "]",
		Actual:      "[" + hex.EncodeToString(actual) + "]",
	})
}

// Skip marks the scenario as skipped. Checks that already failed still fail
// the scenario. The first skip reason wins.
func (c *Checker) Skip(reason string) {
	if c.skipReason == "" {
		if reason == "" {
			reason = "skipped"
		}
		c.skipReason = reason
	}
}

// Failed reports whether any check failed.
func (c *Checker) Failed() bool {
	return len(c.failures) > 0
}

// Skipped reports whether Skip was called.
func (c *Checker) Skipped() bool {
	return c.skipReason != ""
}

// Failures returns the failed checks in order.
func (c *Checker) Failures() []*AssertionError {
	out := make([]*AssertionError, len(c.failures))
	copy(out, c.failures)
	return out
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return fmt.Sprintf("%q", val)
	case fmt.Stringer:
		if isNil(val) {
			return "nil"
		}
		return fmt.Sprintf("%q", val.String())
	case []byte:
		return "[" + hex.EncodeToString(val) + "]"
	case nil:
		return "nil"
	default:
		return fmt.Sprintf("%v", val)
	}
}
