package callgraph

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/rustfoundation/cargo-capslock/internal/ir"
)

// Build constructs the whole-program call graph from the loaded closure.
// Module scans are sharded across workers: each module's instruction walk
// is read-only with respect to other modules and writes only its own
// nodes' edge slots, so the only synchronization point is the final merge.
func Build(ctx context.Context, mods []*ir.Module, log hclog.Logger) (*Graph, error) {
	g := &Graph{index: make(map[string]int)}

	// Arena pass: one node per linked symbol. A definition replaces an
	// earlier declaration of the same symbol; a second definition is
	// shadowed and recorded.
	var dupGaps []Gap
	for _, mod := range mods {
		for _, fn := range mod.Functions {
			id, ok := g.index[fn.Symbol]
			if !ok {
				g.index[fn.Symbol] = len(g.Funcs)
				g.Funcs = append(g.Funcs, fn)
				continue
			}
			existing := g.Funcs[id]
			switch {
			case existing.External && !fn.External:
				g.Funcs[id] = fn
			case !existing.External && !fn.External:
				dupGaps = append(dupGaps, Gap{
					Kind:   GapDuplicateSymbol,
					Fn:     id,
					Symbol: fn.Symbol,
					Detail: fmt.Sprintf("definition in module %s shadowed by module %s", mod.Name, existing.Module.Name),
					Site:   fn.Location,
				})
			}
		}
	}

	// Signature index for indirect candidate scans; node ids ascend, so
	// candidate sets come out in deterministic order.
	sigIndex := make(map[string][]int)
	for id, fn := range g.Funcs {
		if fn.Signature != "" {
			sigIndex[fn.Signature] = append(sigIndex[fn.Signature], id)
		}
	}

	// Group surviving nodes by defining module for the sharded scan.
	modPos := make(map[*ir.Module]int, len(mods))
	for i, mod := range mods {
		modPos[mod] = i
	}
	byModule := make([][]int, len(mods))
	for id, fn := range g.Funcs {
		pos := modPos[fn.Module]
		byModule[pos] = append(byModule[pos], id)
	}

	g.Succs = make([][]Edge, len(g.Funcs))
	gapsByModule := make([][]Gap, len(mods))

	grp, ctx := errgroup.WithContext(ctx)
	for pos := range mods {
		pos := pos
		grp.Go(func() error {
			for _, id := range byModule[pos] {
				if err := ctx.Err(); err != nil {
					return err
				}
				gapsByModule[pos] = append(gapsByModule[pos], resolveFunc(g, sigIndex, id)...)
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	g.Gaps = dupGaps
	for _, gaps := range gapsByModule {
		g.Gaps = append(g.Gaps, gaps...)
	}
	sort.SliceStable(g.Gaps, func(i, j int) bool { return g.Gaps[i].Fn < g.Gaps[j].Fn })

	edges := 0
	for _, succs := range g.Succs {
		edges += len(succs)
	}
	log.Debug("call graph built",
		"modules", len(mods), "functions", g.Len(), "edges", edges, "gaps", len(g.Gaps))

	return g, nil
}

// resolveFunc fills in Succs[id] and returns the gaps found in the body.
func resolveFunc(g *Graph, sigIndex map[string][]int, id int) []Gap {
	fn := g.Funcs[id]
	var gaps []Gap

	for _, lg := range fn.Gaps {
		gaps = append(gaps, Gap{
			Kind:   GapUnsupportedConstruct,
			Fn:     id,
			Symbol: fn.Symbol,
			Detail: lg.Detail,
			Site:   lg.Site,
		})
	}

	for i := range fn.Calls {
		site := &fn.Calls[i]
		switch site.Kind {
		case ir.CallDirect:
			target, ok := g.index[site.Callee]
			if !ok {
				gaps = append(gaps, Gap{
					Kind:   GapUnresolvedCall,
					Fn:     id,
					Symbol: site.Callee,
					Detail: "call to symbol absent from the loaded closure",
					Site:   site.Site,
				})
				continue
			}
			g.Succs[id] = append(g.Succs[id], Edge{Callee: target, Site: site})

		case ir.CallIndirect:
			if len(site.Candidates) > 0 {
				for _, cand := range site.Candidates {
					target, ok := g.index[cand]
					if !ok {
						gaps = append(gaps, Gap{
							Kind:   GapUnresolvedCall,
							Fn:     id,
							Symbol: cand,
							Detail: "enumerated indirect candidate absent from the loaded closure",
							Site:   site.Site,
						})
						continue
					}
					g.Succs[id] = append(g.Succs[id], Edge{Callee: target, Site: site})
				}
				continue
			}
			cands := sigIndex[site.Signature]
			if len(cands) == 0 {
				gaps = append(gaps, Gap{
					Kind:   GapNoCandidates,
					Fn:     id,
					Symbol: fn.Symbol,
					Detail: fmt.Sprintf("no loaded function matches signature %q", site.Signature),
					Site:   site.Site,
				})
				continue
			}
			for _, target := range cands {
				g.Succs[id] = append(g.Succs[id], Edge{Callee: target, Site: site})
			}
		}
	}

	return gaps
}
