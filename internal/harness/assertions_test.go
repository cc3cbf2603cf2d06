package harness

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type header struct {
	Magic   uint32
	version int
}

func TestChecker_Check(t *testing.T) {
	var c Checker
	assert.True(t, c.Check(true, "holds"))
	assert.False(t, c.Failed())

	assert.False(t, c.Check(false, "does not hold"))
	require.Len(t, c.Failures(), 1)
	assert.Equal(t, "does not hold", c.Failures()[0].Reason())
}

func TestChecker_CheckEqual(t *testing.T) {
	var c Checker
	assert.True(t, c.CheckEqual([]byte{1, 2}, []byte{1, 2}, "bytes"))
	assert.True(t, c.CheckEqual(header{Magic: 1, version: 2}, header{Magic: 1, version: 2}, "unexported fields"))

	assert.False(t, c.CheckEqual(header{Magic: 1, version: 2}, header{Magic: 1, version: 3}, "header"))
	assert.False(t, c.CheckEqual("got", "want", "text"))
	assert.False(t, c.CheckEqual(int64(4), 4, "mixed types"))

	f := c.Failures()
	require.Len(t, f, 3)
	assert.Equal(t, "equal", f[0].Check)
	assert.Contains(t, f[0].Diff, "version")
	assert.Equal(t, `text: expected "want", got "got"`, f[1].Reason())
	assert.Equal(t, "mixed types: expected 4, got 4", f[2].Reason())
}

func TestChecker_CheckNotEqual(t *testing.T) {
	var c Checker
	assert.True(t, c.CheckNotEqual(1, 2, "differs"))
	assert.False(t, c.CheckNotEqual(0, 0, "count"))
	assert.Equal(t, "count: expected a value other than 0", c.Failures()[0].Reason())
}

func TestChecker_Nil(t *testing.T) {
	var c Checker
	var nilPtr *header
	var nilSlice []byte

	assert.True(t, c.CheckNil(nil, "untyped"))
	assert.True(t, c.CheckNil(nilPtr, "typed pointer"))
	assert.True(t, c.CheckNil(nilSlice, "slice"))
	assert.False(t, c.CheckNil(&header{}, "pointer"))

	assert.True(t, c.CheckNotNil(&header{}, "pointer"))
	assert.True(t, c.CheckNotNil(0, "zero int is not nil"))
	assert.False(t, c.CheckNotNil(nilPtr, "handle"))

	f := c.Failures()
	require.Len(t, f, 2)
	assert.Equal(t, "handle: expected non-nil, got nil", f[1].Reason())
}

func TestChecker_Errors(t *testing.T) {
	var c Checker
	wrapped := fmt.Errorf("read header: %w", io.ErrUnexpectedEOF)

	assert.True(t, c.CheckNoError(nil, "clean"))
	assert.True(t, c.CheckErrorIs(wrapped, io.ErrUnexpectedEOF, "wrapped"))
	assert.False(t, c.CheckNoError(errors.New("bad"), "open"))
	assert.False(t, c.CheckErrorIs(nil, io.EOF, "eof"))

	f := c.Failures()
	require.Len(t, f, 2)
	assert.Equal(t, "open: expected no error, got bad", f[0].Reason())
	assert.Equal(t, `eof: expected error matching "EOF", got no error`, f[1].Reason())
}

func TestChecker_CheckBytes(t *testing.T) {
	var c Checker
	assert.True(t, c.CheckBytes(nil, []byte{}, "nil equals empty"))
	assert.True(t, c.CheckBytes([]byte{0xca, 0xfe}, []byte{0xca, 0xfe}, "same"))
	assert.False(t, c.CheckBytes([]byte{0x01}, []byte{0x01, 0x02}, "written"))
	assert.Equal(t, "written: expected [0102], got [01]", c.Failures()[0].Reason())
}

func TestChecker_Skip(t *testing.T) {
	var c Checker
	assert.False(t, c.Skipped())
	c.Skip("first")
	c.Skip("second")
	assert.True(t, c.Skipped())
	assert.Equal(t, "first", c.skipReason)

	var empty Checker
	empty.Skip("")
	assert.Equal(t, "skipped", empty.skipReason)
}

func TestChecker_FailuresIsSnapshot(t *testing.T) {
	var c Checker
	c.Check(false, "one")
	f := c.Failures()
	f[0] = nil
	assert.NotNil(t, c.Failures()[0])
}

func TestAssertionError_Error(t *testing.T) {
	e := &AssertionError{Check: "equal", Description: "status", Expected: `"ok"`, Actual: `"truncated"`}
	assert.Equal(t, "Assertion failed: status (equal)\n  Expected: \"ok\"\n  Actual: \"truncated\"\n", e.Error())
}
