package capability

// Kind records how a capability was attributed to a function: directly (the
// function's own symbol matched a rule) or transitively (it reaches the
// capability through a callee). Direct dominates when both apply.
type Kind uint8

const (
	KindUnspecified Kind = iota
	KindTransitive
	KindDirect
)

func (k Kind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindTransitive:
		return "transitive"
	default:
		return "unspecified"
	}
}

// Max returns the dominant of two kinds.
func (k Kind) Max(other Kind) Kind {
	if other > k {
		return other
	}
	return k
}
