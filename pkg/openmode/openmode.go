// Package openmode defines the bitset of file-open hints the pool and the
// underlying FileMapping capability negotiate over.
package openmode

import "strings"

// Mode is a bitset over the hints relevant to opening and mapping a file.
// Only Read, Write, RandomAccess, Sequential and NoCache participate in
// cache-identity / compatibility comparisons; any additional bits a caller
// sets are forwarded to FileMapping creation but otherwise ignored by the
// pool.
type Mode uint8

const (
	Read Mode = 1 << iota
	Write
	RandomAccess
	Sequential
	NoCache
)

// Has reports whether all bits of want are set in m.
func (m Mode) Has(want Mode) bool {
	return m&want == want
}

// Covers reports whether m is sufficient to satisfy a request for want,
// i.e. every relevant bit requested is already present in m. An entry
// cached without the Write bit does not cover a request that has it.
func (m Mode) Covers(want Mode) bool {
	const relevant = Read | Write | RandomAccess | Sequential | NoCache
	return m&relevant&want == want&relevant
}

// String renders the mode as a compact set, e.g. "read|write".
func (m Mode) String() string {
	if m == 0 {
		return "none"
	}

	var parts []string
	if m.Has(Read) {
		parts = append(parts, "read")
	}
	if m.Has(Write) {
		parts = append(parts, "write")
	}
	if m.Has(RandomAccess) {
		parts = append(parts, "random_access")
	}
	if m.Has(Sequential) {
		parts = append(parts, "sequential")
	}
	if m.Has(NoCache) {
		parts = append(parts, "no_cache")
	}
	return strings.Join(parts, "|")
}
