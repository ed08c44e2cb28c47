// Package capability defines the closed taxonomy of security-relevant
// capabilities and the set type used throughout the engine.
package capability

import "strings"

// Capability is one member of the closed taxonomy. Values are bit flags so
// a Set fits in a single machine word and lattice joins are a bitwise or.
type Capability uint16

const (
	Filesystem Capability = 1 << iota
	Network
	ProcessExec
	UnsafePointer
	FFI
	Environment
	ArbitraryMemory
	// Unanalyzed is the sentinel for "capability-relevance could not be
	// determined". It must never be silently dropped: an unresolved call,
	// an unmatched external function, or an unsupported construct all
	// surface as Unanalyzed rather than as an implicit "safe".
	Unanalyzed
)

// last marks the end of the taxonomy for iteration.
const last = Unanalyzed

var capNames = map[Capability]string{
	Filesystem:      "FILESYSTEM",
	Network:         "NETWORK",
	ProcessExec:     "PROCESS_EXEC",
	UnsafePointer:   "UNSAFE_POINTER",
	FFI:             "FFI",
	Environment:     "ENVIRONMENT",
	ArbitraryMemory: "ARBITRARY_MEMORY",
	Unanalyzed:      "UNANALYZED",
}

// String returns the wire name of the capability, e.g. "FILESYSTEM".
func (c Capability) String() string {
	if name, ok := capNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// ByName resolves a wire name back to its Capability.
func ByName(name string) (Capability, bool) {
	for c, n := range capNames {
		if n == name {
			return c, true
		}
	}
	return 0, false
}

// All returns every taxonomy member in declaration order. Declaration order
// is the canonical capability ordering for all rendered output.
func All() []Capability {
	out := make([]Capability, 0, 8)
	for c := Filesystem; c != 0 && c <= last; c <<= 1 {
		out = append(out, c)
	}
	return out
}

// Set is a bitmask over the taxonomy.
type Set uint16

func (s Set) Has(c Capability) bool { return Capability(s)&c != 0 }

func (s *Set) Add(c Capability) { *s |= Set(c) }

func (s *Set) Merge(other Set) { *s |= other }

func (s Set) Empty() bool { return s == 0 }

// Contains reports whether every capability in other is also in s.
func (s Set) Contains(other Set) bool { return s&other == other }

// List returns the members of the set in declaration order.
func (s Set) List() []Capability {
	var out []Capability
	for c := Filesystem; c != 0 && c <= last; c <<= 1 {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Names returns the wire names of the set members in declaration order.
func (s Set) Names() []string {
	caps := s.List()
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = c.String()
	}
	return out
}

func (s Set) String() string {
	return strings.Join(s.Names(), ", ")
}

// Of builds a Set from its arguments.
func Of(caps ...Capability) Set {
	var s Set
	for _, c := range caps {
		s.Add(c)
	}
	return s
}
