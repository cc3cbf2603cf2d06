package recorder

// Kind identifies the operation a CallRecord describes.
type Kind int

const (
	// KindInvalid is returned by ParseKind for unknown names.
	KindInvalid Kind = iota - 1

	KindRead   // KindRead is a read from a mocked channel.
	KindWrite  // KindWrite is a write into a mocked channel.
	KindSeek   // KindSeek repositions a mocked channel.
	KindTell   // KindTell queries a mocked channel's position.
	KindInvoke // KindInvoke is a call through a wrapped callback.
	KindAlloc  // KindAlloc is an allocation handed out by a mock.
	KindFree   // KindFree releases an allocation.

	// NumKinds is the number of valid kinds.
	NumKinds
)

var kindNames = map[Kind]string{
	KindRead:   "read",
	KindWrite:  "write",
	KindSeek:   "seek",
	KindTell:   "tell",
	KindInvoke: "invoke",
	KindAlloc:  "alloc",
	KindFree:   "free",
}

// String returns the lower-case name used in scenario files and traces.
func (k Kind) String() string {
	if !k.Valid() {
		return "invalid"
	}
	return kindNames[k]
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k >= 0 && k < NumKinds
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name. Unknown names decode to KindInvalid.
func (k *Kind) UnmarshalText(text []byte) error {
	*k = ParseKind(string(text))
	return nil
}

// ParseKind converts a name such as "read" to a Kind.
// It returns KindInvalid if the name is unknown.
func ParseKind(s string) Kind {
	for k := Kind(0); k < NumKinds; k++ {
		if kindNames[k] == s {
			return k
		}
	}
	return KindInvalid
}

// Kinds returns every valid kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, NumKinds)
	for k := Kind(0); k < NumKinds; k++ {
		out = append(out, k)
	}
	return out
}
