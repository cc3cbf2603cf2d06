package recorder

import (
	"fmt"
	"sync"

	"github.com/roach88/focal/internal/testutil"
)

// CallRecord is one observed call into a mocked dependency.
type CallRecord struct {
	// Seq is the 1-based position of the call within the recorder's lifetime
	// (or since the last Reset).
	Seq int64 `json:"seq"`

	Kind Kind `json:"kind"`

	// Name labels KindInvoke records with the wrapped callback's name.
	Name string `json:"name,omitempty"`

	// Requested is the byte count (or offset, for seeks) the caller asked for.
	Requested int `json:"requested"`

	// Actual is what the mock actually delivered. Actual < Requested marks a
	// short transfer.
	Actual int `json:"actual"`

	// Payload is a private copy of the bytes transferred, if any.
	Payload []byte `json:"payload,omitempty"`

	// Args holds the arguments of a KindInvoke record.
	Args []any `json:"args,omitempty"`
}

// Short reports whether fewer bytes were transferred than requested.
func (c CallRecord) Short() bool {
	return c.Actual < c.Requested
}

// String renders the record on one line for failure messages.
func (c CallRecord) String() string {
	if c.Kind == KindInvoke {
		return fmt.Sprintf("#%d %s %s%v", c.Seq, c.Kind, c.Name, c.Args)
	}
	return fmt.Sprintf("#%d %s requested=%d actual=%d", c.Seq, c.Kind, c.Requested, c.Actual)
}

// Recorder is an append-only log of CallRecords. It is safe for concurrent use,
// although scenarios drive it from a single goroutine.
type Recorder struct {
	mu      sync.Mutex
	clock   *testutil.DeterministicClock
	records []CallRecord
}

// New returns an empty recorder.
func New() *Recorder {
	return &Recorder{clock: testutil.NewDeterministicClock()}
}

// Record appends a record for a byte-oriented operation and returns it.
// The payload is copied, so callers may reuse their buffer.
//
// Record panics if kind is not valid; that is a bug in the mock, not in the
// function under test.
func (r *Recorder) Record(kind Kind, requested, actual int, payload []byte) CallRecord {
	if !kind.Valid() {
		panic(fmt.Sprintf("recorder: invalid kind %d", int(kind)))
	}

	rec := CallRecord{
		Kind:      kind,
		Requested: requested,
		Actual:    actual,
	}
	if len(payload) > 0 {
		rec.Payload = append([]byte(nil), payload...)
	}
	return r.append(rec)
}

// RecordInvoke appends a KindInvoke record for a call to the named callback.
func (r *Recorder) RecordInvoke(name string, args ...any) CallRecord {
	rec := CallRecord{Kind: KindInvoke, Name: name}
	if len(args) > 0 {
		rec.Args = append([]any(nil), args...)
	}
	return r.append(rec)
}

func (r *Recorder) append(rec CallRecord) CallRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec.Seq = r.clock.Next()
	r.records = append(r.records, rec)
	return rec
}

// Count returns how many records of the given kind exist.
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, rec := range r.records {
		if rec.Kind == kind {
			n++
		}
	}
	return n
}

// CountInvoke returns how many times the named callback was invoked.
func (r *Recorder) CountInvoke(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, rec := range r.records {
		if rec.Kind == KindInvoke && rec.Name == name {
			n++
		}
	}
	return n
}

// Last returns the most recent record of the given kind.
// The boolean is false if no such record exists.
func (r *Recorder) Last(kind Kind) (CallRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].Kind == kind {
			return r.records[i], true
		}
	}
	return CallRecord{}, false
}

// BytesTransferred sums Actual over all records of the given kind.
func (r *Recorder) BytesTransferred(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, rec := range r.records {
		if rec.Kind == kind {
			total += rec.Actual
		}
	}
	return total
}

// Records returns a copy of all records in call order.
func (r *Recorder) Records() []CallRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]CallRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Len returns the number of records.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Reset drops all records and rewinds the sequence clock.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = nil
	r.clock.Reset()
}
