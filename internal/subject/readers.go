package subject

import (
	"encoding/binary"
	"io"
	"math"
)

// maxFloat32Magnitude bounds values accepted by ReadFloat32Array.
const maxFloat32Magnitude = 1e20

// ReadU32LE reads one little-endian uint32 with a single call to src.
func ReadU32LE(src Source) (uint32, Status) {
	b := src.Next(4)
	if len(b) < 4 {
		return 0, StatusTruncated
	}
	return binary.LittleEndian.Uint32(b), StatusOK
}

// ReadFloat32Array reads count little-endian float32 values. NaN, infinities,
// subnormals and magnitudes above 1e20 are rejected as invalid.
func ReadFloat32Array(src Source, count int) ([]float32, Status) {
	if count < 0 {
		return nil, StatusInvalid
	}
	// count comes from scenario files; the slice grows with what is read.
	var out []float32
	for i := 0; i < count; i++ {
		b := src.Next(4)
		if len(b) < 4 {
			return out, StatusTruncated
		}
		v := math.Float32frombits(binary.LittleEndian.Uint32(b))
		if !plausibleFloat32(v) {
			return out, StatusInvalid
		}
		out = append(out, v)
	}
	return out, StatusOK
}

func plausibleFloat32(v float32) bool {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	if f != 0 && math.Abs(f) < math.SmallestNonzeroFloat32*(1<<23) {
		return false
	}
	return math.Abs(f) <= maxFloat32Magnitude
}

// CopyStream moves bytes from src to dst in chunks until src is drained.
// It returns the number of bytes dst accepted.
func CopyStream(src Source, dst Sink, chunk int) (int, Status) {
	if chunk <= 0 {
		return 0, StatusInvalid
	}
	total := 0
	for {
		b := src.Next(chunk)
		if len(b) == 0 {
			return total, StatusOK
		}
		n := dst.Put(b)
		total += n
		if n < len(b) {
			return total, StatusShortWrite
		}
	}
}

// ReadFrame reads a uint16 little-endian length prefix followed by that many
// payload bytes.
func ReadFrame(src Source) ([]byte, Status) {
	hdr := src.Next(2)
	if len(hdr) < 2 {
		return nil, StatusTruncated
	}
	size := int(binary.LittleEndian.Uint16(hdr))
	payload := src.Next(size)
	if len(payload) < size {
		return payload, StatusTruncated
	}
	return payload, StatusOK
}

// PositionEntry is one element of a position table.
type PositionEntry struct {
	Offset uint32
	Size   uint32
	Data   []byte
}

// ReadPositionTable reads count big-endian (offset, size) pairs from the
// cursor, then seeks to base+offset for each element and reads size bytes.
// The scratch arrays come from alloc and are released on every return path.
func ReadPositionTable(ch interface {
	Source
	Positioner
}, alloc Allocator, count int, base int64) ([]PositionEntry, Status) {
	if count < 0 {
		return nil, StatusInvalid
	}
	if (int64(ch.Len())-ch.Tell())/8 < int64(count) {
		return nil, StatusTruncated
	}

	offsets := alloc.Alloc(count * 4)
	defer alloc.Free(offsets)
	sizes := alloc.Alloc(count * 4)
	defer alloc.Free(sizes)

	entries := make([]PositionEntry, count)
	for i := range entries {
		off := ch.Next(4)
		size := ch.Next(4)
		if len(off) < 4 || len(size) < 4 {
			return nil, StatusTruncated
		}
		entries[i].Offset = binary.BigEndian.Uint32(off)
		entries[i].Size = binary.BigEndian.Uint32(size)
	}

	for i := range entries {
		target := base + int64(entries[i].Offset)
		if _, err := ch.Seek(target, io.SeekStart); err != nil {
			return entries[:i], StatusSeekFailed
		}
		want := int(entries[i].Size)
		data := ch.Next(want)
		entries[i].Data = data
		if len(data) < want {
			return entries[:i+1], StatusTruncated
		}
	}
	return entries, StatusOK
}

// AllocLeak allocates size bytes and releases them only when free is set.
// It exists to exercise the outstanding-allocation check.
func AllocLeak(alloc Allocator, size int, free bool) (int, Status) {
	if size < 0 {
		return 0, StatusInvalid
	}
	id := alloc.Alloc(size)
	if free {
		if err := alloc.Free(id); err != nil {
			return id, StatusInvalid
		}
	}
	return id, StatusOK
}
