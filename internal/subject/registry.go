package subject

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/roach88/focal/internal/mockchan"
)

// Args are the integer arguments a scenario file passes to a subject.
type Args map[string]int64

// Int returns args[name], or def when it is absent.
func (a Args) Int(name string, def int64) int64 {
	if v, ok := a[name]; ok {
		return v
	}
	return def
}

// Func adapts a subject to a mock channel and scenario arguments.
type Func func(ch *mockchan.Channel, args Args) Outcome

// Entry is a registered subject.
type Entry struct {
	Name        string
	Description string
	Params      []string
	Run         Func
}

// CheckArgs rejects arguments the subject does not take.
func (e Entry) CheckArgs(args Args) error {
	var unknown []string
	for k := range args {
		if !e.takes(k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("subject %s: unknown args %s (takes: %s)",
		e.Name, strings.Join(unknown, ", "), strings.Join(e.Params, ", "))
}

func (e Entry) takes(name string) bool {
	for _, p := range e.Params {
		if p == name {
			return true
		}
	}
	return false
}

var registry = map[string]Entry{}

func register(e Entry) {
	if _, dup := registry[e.Name]; dup {
		panic("subject: duplicate registration of " + e.Name)
	}
	registry[e.Name] = e
}

// Lookup returns the subject registered under name.
func Lookup(name string) (Entry, bool) {
	e, ok := registry[name]
	return e, ok
}

// Names returns the registered subject names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every registered subject, sorted by name.
func All() []Entry {
	out := make([]Entry, 0, len(registry))
	for _, name := range Names() {
		out = append(out, registry[name])
	}
	return out
}

func init() {
	register(Entry{
		Name:        "read_u32_le",
		Description: "read one little-endian uint32 in a single read",
		Run: func(ch *mockchan.Channel, _ Args) Outcome {
			v, st := ReadU32LE(ch)
			return Outcome{Status: st, Value: int64(v)}
		},
	})
	register(Entry{
		Name:        "read_f32_array",
		Description: "read count little-endian float32 values, rejecting implausible ones",
		Params:      []string{"count"},
		Run: func(ch *mockchan.Channel, args Args) Outcome {
			vals, st := ReadFloat32Array(ch, int(args.Int("count", 1)))
			data := make([]byte, 0, 4*len(vals))
			for _, v := range vals {
				data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v))
			}
			return Outcome{Status: st, Value: int64(len(vals)), Data: data}
		},
	})
	register(Entry{
		Name:        "copy_stream",
		Description: "copy the readable content to the write sink in chunks",
		Params:      []string{"chunk"},
		Run: func(ch *mockchan.Channel, args Args) Outcome {
			n, st := CopyStream(ch, ch, int(args.Int("chunk", 16)))
			return Outcome{Status: st, Value: int64(n)}
		},
	})
	register(Entry{
		Name:        "read_frame",
		Description: "read a uint16 little-endian length prefix and its payload",
		Run: func(ch *mockchan.Channel, _ Args) Outcome {
			payload, st := ReadFrame(ch)
			return Outcome{Status: st, Value: int64(len(payload)), Data: payload}
		},
	})
	register(Entry{
		Name:        "read_position_table",
		Description: "read an offset/size table and the elements it points at",
		Params:      []string{"count", "base"},
		Run: func(ch *mockchan.Channel, args Args) Outcome {
			entries, st := ReadPositionTable(ch, ch, int(args.Int("count", 1)), args.Int("base", 0))
			var data []byte
			for _, e := range entries {
				data = append(data, e.Data...)
			}
			return Outcome{Status: st, Value: int64(len(entries)), Data: data}
		},
	})
	register(Entry{
		Name:        "alloc_leak",
		Description: "allocate size bytes and free them only when free is non-zero",
		Params:      []string{"size", "free"},
		Run: func(ch *mockchan.Channel, args Args) Outcome {
			id, st := AllocLeak(ch, int(args.Int("size", 16)), args.Int("free", 0) != 0)
			return Outcome{Status: st, Value: int64(id)}
		},
	})
}
