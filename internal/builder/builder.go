// Package builder assembles the byte layouts that drive a function under
// test into a specific branch: binary headers, length prefixes, offset
// tables and deliberately truncated records.
//
// Builder methods chain. The first construction error is sticky: later
// appends become no-ops and Build returns that error. Build seals the
// builder; appends after sealing are rejected with ErrSealed, reported by
// Err, and never change the sealed bytes.
package builder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrWidth reports an integer width other than 1, 2, 4 or 8 bytes.
	ErrWidth = errors.New("unsupported width")

	// ErrSealed reports an append after Build.
	ErrSealed = errors.New("builder is sealed")

	// ErrNegativeLength reports a negative padding length.
	ErrNegativeLength = errors.New("negative length")
)

// ConstructionError is a scenario-authoring mistake caught while building
// input bytes.
type ConstructionError struct {
	Op    string
	Width int
	Err   error
}

func (e *ConstructionError) Error() string {
	if e.Width != 0 {
		return fmt.Sprintf("%s (width %d): %v", e.Op, e.Width, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// Builder accumulates a byte sequence. The zero value is ready to use.
type Builder struct {
	buf     []byte
	err     error
	sealed  bool
	lateErr error
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{}
}

// fail records the first error. Errors after sealing are kept apart so
// that Build keeps returning the sealed bytes.
func (b *Builder) fail(op string, width int, err error) {
	ce := &ConstructionError{Op: op, Width: width, Err: err}
	if b.sealed {
		if b.lateErr == nil {
			b.lateErr = ce
		}
		return
	}
	if b.err == nil {
		b.err = ce
	}
}

// writable reports whether an append named op may proceed.
func (b *Builder) writable(op string) bool {
	if b.sealed {
		b.fail(op, 0, ErrSealed)
		return false
	}
	return b.err == nil
}

// AppendLittleEndian appends the low width bytes of v, least significant
// first. Negative values wrap to their two's-complement form at that width.
func (b *Builder) AppendLittleEndian(width int, v int64) *Builder {
	return b.appendInt("AppendLittleEndian", binary.LittleEndian, width, uint64(v))
}

// AppendBigEndian is AppendLittleEndian with the most significant byte first.
func (b *Builder) AppendBigEndian(width int, v int64) *Builder {
	return b.appendInt("AppendBigEndian", binary.BigEndian, width, uint64(v))
}

// AppendUint64LittleEndian appends all eight bytes of v. It covers values
// above math.MaxInt64 that AppendLittleEndian cannot take.
func (b *Builder) AppendUint64LittleEndian(v uint64) *Builder {
	return b.appendInt("AppendUint64LittleEndian", binary.LittleEndian, 8, v)
}

func (b *Builder) appendInt(op string, order binary.AppendByteOrder, width int, v uint64) *Builder {
	if !b.writable(op) {
		return b
	}
	switch width {
	case 1:
		b.buf = append(b.buf, byte(v))
	case 2:
		b.buf = order.AppendUint16(b.buf, uint16(v))
	case 4:
		b.buf = order.AppendUint32(b.buf, uint32(v))
	case 8:
		b.buf = order.AppendUint64(b.buf, v)
	default:
		b.fail(op, width, ErrWidth)
	}
	return b
}

// AppendFloat32LittleEndian appends the IEEE-754 single-precision bits of v.
func (b *Builder) AppendFloat32LittleEndian(v float32) *Builder {
	if b.writable("AppendFloat32LittleEndian") {
		b.buf = binary.LittleEndian.AppendUint32(b.buf, math.Float32bits(v))
	}
	return b
}

// AppendFloat32BigEndian appends the single-precision bits of v, most significant byte first.
func (b *Builder) AppendFloat32BigEndian(v float32) *Builder {
	if b.writable("AppendFloat32BigEndian") {
		b.buf = binary.BigEndian.AppendUint32(b.buf, math.Float32bits(v))
	}
	return b
}

// AppendFloat64LittleEndian appends the IEEE-754 double-precision bits of v.
func (b *Builder) AppendFloat64LittleEndian(v float64) *Builder {
	if b.writable("AppendFloat64LittleEndian") {
		b.buf = binary.LittleEndian.AppendUint64(b.buf, math.Float64bits(v))
	}
	return b
}

// AppendFloat64BigEndian appends the double-precision bits of v, most significant byte first.
func (b *Builder) AppendFloat64BigEndian(v float64) *Builder {
	if b.writable("AppendFloat64BigEndian") {
		b.buf = binary.BigEndian.AppendUint64(b.buf, math.Float64bits(v))
	}
	return b
}

// AppendByte appends a single raw byte.
func (b *Builder) AppendByte(v byte) *Builder {
	if b.writable("AppendByte") {
		b.buf = append(b.buf, v)
	}
	return b
}

// AppendBytes appends p unchanged. A nil or empty p is a no-op.
func (b *Builder) AppendBytes(p []byte) *Builder {
	if b.writable("AppendBytes") {
		b.buf = append(b.buf, p...)
	}
	return b
}

// AppendString appends the raw bytes of s with no terminator.
func (b *Builder) AppendString(s string) *Builder {
	if b.writable("AppendString") {
		b.buf = append(b.buf, s...)
	}
	return b
}

// Pad appends n zero bytes.
func (b *Builder) Pad(n int) *Builder {
	if !b.writable("Pad") {
		return b
	}
	if n < 0 {
		b.fail("Pad", 0, ErrNegativeLength)
		return b
	}
	b.buf = append(b.buf, make([]byte, n)...)
	return b
}

// Len returns the number of bytes accumulated so far.
func (b *Builder) Len() int {
	return len(b.buf)
}

// Err returns the first construction error, including appends rejected
// after sealing.
func (b *Builder) Err() error {
	if b.err != nil {
		return b.err
	}
	return b.lateErr
}

// Sealed reports whether Build has been called.
func (b *Builder) Sealed() bool {
	return b.sealed
}

// Build seals the builder and returns a copy of its bytes. A truncated or
// otherwise malformed layout is not an error; only a construction error
// recorded before sealing is returned.
func (b *Builder) Build() ([]byte, error) {
	b.sealed = true
	if b.err != nil {
		return nil, b.err
	}
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	return out, nil
}

// MustBuild is Build for harness code where a construction error is a
// programming mistake. It panics on error.
func (b *Builder) MustBuild() []byte {
	out, err := b.Build()
	if err != nil {
		panic(err)
	}
	return out
}
