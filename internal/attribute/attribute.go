// Package attribute groups functions into library units, aggregates each
// unit's capability set over its declared entry points, and reconstructs a
// shortest justifying call path for every (unit, capability) pair.
package attribute

import (
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/rustfoundation/cargo-capslock/internal/callgraph"
	"github.com/rustfoundation/cargo-capslock/internal/capability"
	"github.com/rustfoundation/cargo-capslock/internal/ir"
	"github.com/rustfoundation/cargo-capslock/internal/propagate"
)

// PathStep is one hop of an evidence path. Site is the location of the
// call to the next step; nil on the final step.
type PathStep struct {
	Symbol      string
	DisplayName string
	Site        *ir.Location
}

// Finding justifies one capability of a unit with a concrete call path
// from an entry point to a function whose intrinsic set carries the
// capability.
type Finding struct {
	Capability capability.Capability
	Kind       capability.Kind
	Path       []PathStep
}

// Unit is the attribution grouping: a named source dependency, its
// aggregate capability set, and one finding per capability.
type Unit struct {
	Name         string
	Capabilities capability.Set
	Findings     []Finding

	entries []int
}

// Attribute produces the per-unit capability findings, deterministically
// ordered: units lexicographic by name, findings in taxonomy declaration
// order, ties between entry points broken by the lexicographically
// smallest entry symbol.
func Attribute(g *callgraph.Graph, res *propagate.Result, log hclog.Logger) []*Unit {
	byName := make(map[string]*Unit)
	for id, fn := range g.Funcs {
		name := unitOf(fn)
		u := byName[name]
		if u == nil {
			u = &Unit{Name: name}
			byName[name] = u
		}
		if fn.Entry {
			u.entries = append(u.entries, id)
		}
	}

	units := make([]*Unit, 0, len(byName))
	for _, u := range byName {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].Name < units[j].Name })

	for _, u := range units {
		sort.Slice(u.entries, func(i, j int) bool {
			return g.Func(u.entries[i]).Symbol < g.Func(u.entries[j]).Symbol
		})

		for _, e := range u.entries {
			u.Capabilities.Merge(res.Reachable[e])
		}

		for _, c := range u.Capabilities.List() {
			f := buildFinding(g, res, u, c)
			u.Findings = append(u.Findings, f)
		}

		log.Debug("unit attributed", "unit", u.Name,
			"entries", len(u.entries), "capabilities", u.Capabilities.String())
	}

	return units
}

// unitOf applies the provenance heuristic: a declared unit wins, then the
// leading namespace segment of the display name, then the defining module.
func unitOf(fn *ir.Function) string {
	if fn.Module.UnitDeclared {
		return fn.Module.Unit
	}
	if ns, _, ok := strings.Cut(fn.Name(), "::"); ok && ns != "" {
		return ns
	}
	return fn.Module.Unit
}

// buildFinding reconstructs the shortest evidence path for (u, c) by
// breadth-first search from each entry point, preferring fewer hops and
// then the smaller entry symbol.
func buildFinding(g *callgraph.Graph, res *propagate.Result, u *Unit, c capability.Capability) Finding {
	var best []PathStep
	var bestEntry int

	for _, e := range u.entries {
		if !res.Reachable[e].Has(c) {
			continue
		}
		path := shortestPath(g, res, e, c)
		if path == nil {
			continue
		}
		if best == nil || len(path) < len(best) {
			best = path
			bestEntry = e
		}
	}

	f := Finding{Capability: c, Path: best}
	if best != nil {
		f.Kind = res.Kind(bestEntry, c)
	}
	return f
}

// shortestPath walks forward from entry to the nearest function whose
// intrinsic set contains c. The search stays inside the region that can
// still reach c, so it never dead-ends. Neighbor order follows the graph's
// deterministic edge order.
func shortestPath(g *callgraph.Graph, res *propagate.Result, entry int, c capability.Capability) []PathStep {
	visited := map[int]hop{entry: {prev: -1}}
	queue := []int{entry}

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]

		if res.Intrinsic[v].Has(c) {
			return unwind(g, visited, v)
		}

		for _, e := range g.Succs[v] {
			if _, seen := visited[e.Callee]; seen {
				continue
			}
			if !res.Reachable[e.Callee].Has(c) {
				continue
			}
			visited[e.Callee] = hop{prev: v, site: e.Site}
			queue = append(queue, e.Callee)
		}
	}

	return nil
}

type hop struct {
	prev int
	site *ir.CallSite
}

// unwind rebuilds the sink-to-entry parent chain into an entry-first path.
// The call site recorded on a hop is attached to the step that makes the
// call, one position earlier.
func unwind(g *callgraph.Graph, visited map[int]hop, sink int) []PathStep {
	var ids []int
	var sites []*ir.CallSite
	for id := sink; id != -1; {
		h := visited[id]
		ids = append(ids, id)
		sites = append(sites, h.site)
		id = h.prev
	}

	n := len(ids)
	steps := make([]PathStep, n)
	for i := 0; i < n; i++ {
		fn := g.Func(ids[n-1-i])
		steps[i] = PathStep{Symbol: fn.Symbol, DisplayName: fn.DisplayName}
		if site := sites[n-1-i]; site != nil && i > 0 {
			steps[i-1].Site = site.Site
		}
	}
	return steps
}
