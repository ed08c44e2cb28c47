// Package propagate computes, for every function in the call graph, the
// set of capabilities reachable through its outgoing calls. The capability
// lattice is finite and joins are monotonic, so collapsing strongly
// connected components and sweeping the condensation once, callees first,
// yields the exact fixed point with each function's result computed exactly
// once.
package propagate

import (
	"context"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/rustfoundation/cargo-capslock/internal/callgraph"
	"github.com/rustfoundation/cargo-capslock/internal/capability"
)

// Result holds the memoized per-function capability tables. Indices are
// call-graph node ids. Immutable once Run returns.
type Result struct {
	// Intrinsic is each function's own capability set: rule matches plus
	// UNANALYZED marks for recorded gaps.
	Intrinsic []capability.Set

	// Reachable is the fixed point: intrinsic capabilities plus everything
	// transitively reachable through outgoing calls, indirect edges
	// fanning out over their whole candidate set.
	Reachable []capability.Set
}

// Kind reports how capability c is attributed to function id. Direct
// dominates transitive when both apply.
func (r *Result) Kind(id int, c capability.Capability) capability.Kind {
	var k capability.Kind
	if r.Reachable[id].Has(c) {
		k = capability.KindTransitive
	}
	if r.Intrinsic[id].Has(c) {
		k = k.Max(capability.KindDirect)
	}
	return k
}

// Run computes the fixed point over g. intrinsic must have one entry per
// graph node. Components on the same topological layer of the condensation
// are processed concurrently; a component never starts before every
// component it calls into has finished, and each node's result slot is
// written by exactly one task.
func Run(ctx context.Context, g *callgraph.Graph, intrinsic []capability.Set, log hclog.Logger) (*Result, error) {
	n := g.Len()

	adj := make([][]int, n)
	for v := 0; v < n; v++ {
		for _, e := range g.Succs[v] {
			adj[v] = append(adj[v], e.Callee)
		}
	}

	comp, comps := sccs(n, adj)

	// Condensation successors, deduplicated. comps is emitted callees
	// first, so a component's successors always have smaller ids.
	compSuccs := make([][]int, len(comps))
	for v := 0; v < n; v++ {
		for _, w := range adj[v] {
			if comp[w] != comp[v] {
				compSuccs[comp[v]] = append(compSuccs[comp[v]], comp[w])
			}
		}
	}
	for ci := range compSuccs {
		compSuccs[ci] = dedupe(compSuccs[ci])
	}

	// Layer components by longest path to a leaf. Everything a component
	// calls into sits on a strictly lower layer, so layers can run
	// concurrently while the sweep stays callees-first.
	depth := make([]int, len(comps))
	maxDepth := 0
	for ci := range comps {
		d := 0
		for _, s := range compSuccs[ci] {
			if depth[s]+1 > d {
				d = depth[s] + 1
			}
		}
		depth[ci] = d
		if d > maxDepth {
			maxDepth = d
		}
	}
	layers := make([][]int, maxDepth+1)
	for ci := range comps {
		layers[depth[ci]] = append(layers[depth[ci]], ci)
	}

	res := &Result{
		Intrinsic: intrinsic,
		Reachable: make([]capability.Set, n),
	}

	for d := 0; d <= maxDepth; d++ {
		grp, gctx := errgroup.WithContext(ctx)
		for _, ci := range layers[d] {
			ci := ci
			grp.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				// All members of a cycle reach each other, so the whole
				// component shares one capability set.
				var reach capability.Set
				for _, v := range comps[ci] {
					reach.Merge(intrinsic[v])
					for _, e := range g.Succs[v] {
						if comp[e.Callee] != ci {
							reach.Merge(res.Reachable[e.Callee])
						}
					}
				}
				for _, v := range comps[ci] {
					res.Reachable[v] = reach
				}
				return nil
			})
		}
		if err := grp.Wait(); err != nil {
			return nil, err
		}
	}

	log.Debug("propagation complete",
		"functions", n, "components", len(comps), "layers", maxDepth+1)

	return res, nil
}

func dedupe(ids []int) []int {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[int]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
