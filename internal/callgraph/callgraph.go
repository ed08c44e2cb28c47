// Package callgraph builds the whole-program call graph from loaded IR
// modules. Nodes are function arena indices; edges carry the call site that
// induced them. Indirect calls fan out to a conservative candidate set of
// signature-compatible functions: false positives are acceptable, missed
// targets are not.
package callgraph

import (
	"fmt"

	"github.com/rustfoundation/cargo-capslock/internal/ir"
)

// Edge is one resolved outgoing call edge. An indirect call site induces
// one Edge per candidate, all sharing the same site.
type Edge struct {
	Callee int
	Site   *ir.CallSite
}

// GapKind classifies recorded analysis gaps.
type GapKind uint8

const (
	// GapUnsupportedConstruct is a call record the model could not
	// interpret, carried over from the loader.
	GapUnsupportedConstruct GapKind = iota
	// GapUnresolvedCall is a direct call to a symbol absent from the
	// loaded closure. Distinct from a resolved externally-defined
	// function: here nothing at all is known about the target.
	GapUnresolvedCall
	// GapNoCandidates is an indirect call whose signature matches no
	// loaded function; the conservative union has no basis.
	GapNoCandidates
	// GapDuplicateSymbol is a second definition of an already-linked
	// symbol; the first definition wins, mirroring link semantics.
	GapDuplicateSymbol
)

func (k GapKind) String() string {
	switch k {
	case GapUnsupportedConstruct:
		return "unsupported_construct"
	case GapUnresolvedCall:
		return "unresolved_external_call"
	case GapNoCandidates:
		return "no_indirect_candidates"
	case GapDuplicateSymbol:
		return "duplicate_symbol"
	default:
		return "unknown"
	}
}

// Taints reports whether the gap must contribute UNANALYZED to its
// enclosing function. Everything that could hide a capability does;
// a shadowed duplicate definition does not.
func (k GapKind) Taints() bool { return k != GapDuplicateSymbol }

// Gap is a recorded hole in the analysis, attributed to the function whose
// body contains it.
type Gap struct {
	Kind   GapKind
	Fn     int
	Symbol string // callee or duplicate symbol, when applicable
	Detail string
	Site   *ir.Location
}

func (g Gap) String() string {
	return fmt.Sprintf("%s in %s: %s", g.Kind, g.Symbol, g.Detail)
}

// Graph is the immutable whole-program call graph. No method mutates it
// after Build returns, so concurrent reads need no locking.
type Graph struct {
	// Funcs is the node arena; a node's index is its identity.
	Funcs []*ir.Function

	// Succs holds the outgoing edges of each node, parallel to Funcs.
	// External functions have none: an absent body never propagates.
	Succs [][]Edge

	// Gaps are the recorded analysis holes, ordered by enclosing function.
	Gaps []Gap

	index map[string]int
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.Funcs) }

// Lookup resolves a mangled symbol to its node index.
func (g *Graph) Lookup(symbol string) (int, bool) {
	id, ok := g.index[symbol]
	return id, ok
}

// Func returns the function at node id.
func (g *Graph) Func(id int) *ir.Function { return g.Funcs[id] }

// TaintedFuncs returns the deduplicated node ids whose gaps require an
// UNANALYZED mark, in ascending order.
func (g *Graph) TaintedFuncs() []int {
	var out []int
	last := -1
	for _, gap := range g.Gaps {
		if !gap.Kind.Taints() {
			continue
		}
		if gap.Fn != last {
			out = append(out, gap.Fn)
			last = gap.Fn
		}
	}
	return out
}
