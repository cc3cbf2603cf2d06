package mockchan

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/focal/internal/recorder"
)

// Channel is an in-memory byte channel with a read cursor, a write sink and
// one-shot fault injection. The cursor never exceeds the buffer length.
type Channel struct {
	mu     sync.Mutex
	buf    []byte
	pos    int
	sink   []byte
	faults [numFaults]fault
	rec    *recorder.Recorder
	logger *slog.Logger

	allocs    map[int]int
	nextAlloc int
}

// Option configures a Channel.
type Option func(*Channel)

// WithRecorder routes the channel's call records into r.
// Without it the channel keeps a private recorder (see Recorder).
func WithRecorder(r *recorder.Recorder) Option {
	return func(c *Channel) {
		if r != nil {
			c.rec = r
		}
	}
}

// WithLogger sets the logger used when faults fire.
func WithLogger(l *slog.Logger) Option {
	return func(c *Channel) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a channel whose readable content is a copy of data.
// The write sink starts empty and the cursor starts at 0.
func New(data []byte, opts ...Option) *Channel {
	c := &Channel{
		buf:    append([]byte(nil), data...),
		allocs: make(map[int]int),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rec == nil {
		c.rec = recorder.New()
	}
	return c
}

// Recorder returns the recorder this channel writes its call records to.
func (c *Channel) Recorder() *recorder.Recorder {
	return c.rec
}

// ArmFault arms a zero-byte fault for the next operation of the given kind.
func (c *Channel) ArmFault(kind FaultKind) {
	c.ArmFaultLimit(kind, 0)
}

// ArmFaultLimit arms a fault that lets at most limit bytes through. For
// FaultSeek the limit is ignored. Arming an already armed fault replaces its
// limit. ArmFaultLimit panics on an unknown kind or a negative limit.
func (c *Channel) ArmFaultLimit(kind FaultKind, limit int) {
	if kind < 0 || kind >= numFaults {
		panic(fmt.Sprintf("mockchan: invalid fault kind %d", int(kind)))
	}
	if limit < 0 {
		panic(fmt.Sprintf("mockchan: negative fault limit %d", limit))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.faults[kind] = fault{armed: true, limit: limit}
}

// Armed reports whether a fault of the given kind is waiting to fire.
func (c *Channel) Armed(kind FaultKind) bool {
	if kind < 0 || kind >= numFaults {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.faults[kind].armed
}

// Next reads up to max bytes from the cursor and advances it by the number of
// bytes returned. The count is len of the result: it is 0 at end of buffer,
// and strictly less than max when a short-read fault fires. A negative max is
// treated as 0. The returned slice is a copy.
func (c *Channel) Next(max int) []byte {
	out, _ := c.read(max)
	return out
}

// read implements Next and reports whether a fault shortened the transfer.
func (c *Channel) read(max int) ([]byte, bool) {
	if max < 0 {
		max = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.buf) - c.pos
	if n > max {
		n = max
	}

	limit, injected := c.faults[FaultShortRead].take()
	if injected {
		n = shorten(n, max, limit)
		c.logger.Debug("short read injected", "requested", max, "actual", n)
	}

	out := append([]byte(nil), c.buf[c.pos:c.pos+n]...)
	c.pos += n
	c.rec.Record(recorder.KindRead, max, n, out)
	return out, injected
}

// Read implements io.Reader. It returns io.EOF once the buffer is exhausted
// and ErrInjected when an armed fault lets no bytes through.
func (c *Channel) Read(p []byte) (int, error) {
	data, injected := c.read(len(p))
	n := copy(p, data)
	if n == 0 && len(p) > 0 {
		if injected {
			return 0, ErrInjected
		}
		return 0, io.EOF
	}
	return n, nil
}

// Put appends data to the write sink and returns the number of bytes kept.
// A short-write fault keeps strictly fewer bytes than len(data).
func (c *Channel) Put(data []byte) int {
	n, _ := c.write(data)
	return n
}

func (c *Channel) write(data []byte) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(data)
	limit, injected := c.faults[FaultShortWrite].take()
	if injected {
		n = shorten(n, len(data), limit)
		c.logger.Debug("short write injected", "requested", len(data), "actual", n)
	}

	c.sink = append(c.sink, data[:n]...)
	c.rec.Record(recorder.KindWrite, len(data), n, data[:n])
	return n, injected
}

// Write implements io.Writer. A short write returns io.ErrShortWrite.
func (c *Channel) Write(p []byte) (int, error) {
	n, _ := c.write(p)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// Seek implements io.Seeker. Targets outside [0, Len()] fail with ErrSeekRange
// and leave the cursor where it was. An armed FaultSeek makes the call fail
// with ErrInjected.
func (c *Channel) Seek(offset int64, whence int) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = int64(c.pos) + offset
	case io.SeekEnd:
		target = int64(len(c.buf)) + offset
	default:
		c.rec.Record(recorder.KindSeek, int(offset), c.pos, nil)
		return int64(c.pos), ErrWhence
	}

	if _, injected := c.faults[FaultSeek].take(); injected {
		c.logger.Debug("seek failure injected", "target", target)
		c.rec.Record(recorder.KindSeek, int(target), c.pos, nil)
		return int64(c.pos), ErrInjected
	}

	if target < 0 || target > int64(len(c.buf)) {
		c.rec.Record(recorder.KindSeek, int(target), c.pos, nil)
		return int64(c.pos), fmt.Errorf("%w: %d not in [0,%d]", ErrSeekRange, target, len(c.buf))
	}

	c.pos = int(target)
	c.rec.Record(recorder.KindSeek, int(target), c.pos, nil)
	return target, nil
}

// Tell returns the cursor position and records the query.
func (c *Channel) Tell() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rec.Record(recorder.KindTell, 0, c.pos, nil)
	return int64(c.pos)
}

// Offset returns the cursor position without recording a call.
func (c *Channel) Offset() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

// Remaining returns the number of unread bytes.
func (c *Channel) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buf) - c.pos
}

// Len returns the size of the readable buffer.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buf)
}

// Written returns a copy of everything written so far.
func (c *Channel) Written() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.sink...)
}
