// Package intern deduplicates the names a registry stores and hands out
// preallocated strings for single-character short names
package intern

// Interner keeps one canonical copy of every name registered through it.
// It is owned by a single registry and is not safe for concurrent use.
type Interner struct {
	strings map[string]string
}

// New creates an interner with room for capacity names before it grows
func New(capacity int) *Interner {
	if capacity <= 0 {
		capacity = 64
	}
	return &Interner{strings: make(map[string]string, capacity)}
}

// Intern returns the canonical copy of s
func (in *Interner) Intern(s string) string {
	if canon, ok := in.strings[s]; ok {
		return canon
	}
	in.strings[s] = s
	return s
}

// Len returns the number of distinct names held
func (in *Interner) Len() int {
	return len(in.strings)
}

// Reset forgets every name without shrinking the map
func (in *Interner) Reset() {
	clear(in.strings)
}

// Preallocated one-byte strings and their dash-prefixed forms, indexed by byte
var (
	bytes  [256]string
	shorts [256]string
)

//nolint:gochecknoinits // tables are built once so lookups never allocate
func init() {
	for i := range bytes {
		bytes[i] = string([]byte{byte(i)})
		shorts[i] = "-" + bytes[i]
	}
}

// Byte returns b as a one-character string without allocating
func Byte(b byte) string {
	return bytes[b]
}

// Short returns the "-x" spelling of short name b without allocating
func Short(b byte) string {
	return shorts[b]
}
