// Package subject holds the functions under test that ship with focal and
// a registry that lets scenario files name them.
//
// Subjects consume a channel through the narrow contracts below, the same
// shape as a C library's IO handler: reads and writes report byte counts and
// never fail with an error of their own.
package subject

import "io"

// Source hands out up to max bytes per call.
type Source interface {
	Next(max int) []byte
}

// Sink accepts bytes and reports how many it kept.
type Sink interface {
	Put(data []byte) int
}

// Positioner exposes random access over a Source.
type Positioner interface {
	io.Seeker
	Tell() int64
	Len() int
}

// Allocator hands out tracked allocations. Every Alloc must be matched by a
// Free before the subject returns.
type Allocator interface {
	Alloc(n int) int
	Free(id int) error
}

// Status is the result code a subject returns.
type Status string

const (
	StatusOK         Status = "ok"
	StatusTruncated  Status = "truncated"
	StatusShortWrite Status = "short_write"
	StatusSeekFailed Status = "seek_failed"
	StatusInvalid    Status = "invalid"
)

// Statuses lists every status in a stable order.
func Statuses() []Status {
	return []Status{StatusOK, StatusTruncated, StatusShortWrite, StatusSeekFailed, StatusInvalid}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses() {
		if s == known {
			return true
		}
	}
	return false
}

// Outcome is what a subject returned. Value holds the primary scalar result
// and Data any decoded payload.
type Outcome struct {
	Status Status `json:"status"`
	Value  int64  `json:"value"`
	Data   []byte `json:"data,omitempty"`
}
