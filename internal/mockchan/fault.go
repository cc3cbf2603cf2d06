package mockchan

import "errors"

// FaultKind selects which operation an armed fault affects.
type FaultKind int

const (
	FaultShortRead  FaultKind = iota // FaultShortRead shortens the next read.
	FaultShortWrite                  // FaultShortWrite shortens the next write.
	FaultSeek                        // FaultSeek makes the next seek fail.

	numFaults
)

var faultNames = [numFaults]string{
	FaultShortRead:  "short_read",
	FaultShortWrite: "short_write",
	FaultSeek:       "seek",
}

// String returns the name used in scenario files.
func (k FaultKind) String() string {
	if k < 0 || k >= numFaults {
		return "invalid"
	}
	return faultNames[k]
}

// ParseFault converts a scenario-file name to a FaultKind.
func ParseFault(s string) (FaultKind, bool) {
	for k := FaultKind(0); k < numFaults; k++ {
		if faultNames[k] == s {
			return k, true
		}
	}
	return -1, false
}

// Errors returned through the io views.
var (
	ErrInjected     = errors.New("mockchan: injected fault")
	ErrSeekRange    = errors.New("mockchan: seek outside buffer")
	ErrWhence       = errors.New("mockchan: invalid whence")
	ErrUnknownAlloc = errors.New("mockchan: unknown allocation")
)

// fault is the armed state for one FaultKind.
type fault struct {
	armed bool
	limit int
}

// take disarms the fault and reports whether it was armed.
func (f *fault) take() (int, bool) {
	if !f.armed {
		return 0, false
	}
	f.armed = false
	return f.limit, true
}

// shorten caps n so that the transfer is strictly shorter than requested.
func shorten(n, requested, limit int) int {
	if limit < n {
		n = limit
	}
	if requested > 0 && n >= requested {
		n = requested - 1
	}
	if n < 0 {
		n = 0
	}
	return n
}
