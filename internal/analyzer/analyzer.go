// Package analyzer runs the full inference pipeline: load IR artifacts,
// build the call graph, match intrinsic capabilities against the rule
// table, propagate to a fixed point, and attribute the result to library
// units. The run is all-or-nothing: a cancelled or failed stage returns an
// error and no partial report.
package analyzer

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/rustfoundation/cargo-capslock/internal/attribute"
	"github.com/rustfoundation/cargo-capslock/internal/callgraph"
	"github.com/rustfoundation/cargo-capslock/internal/capability"
	"github.com/rustfoundation/cargo-capslock/internal/ir"
	"github.com/rustfoundation/cargo-capslock/internal/propagate"
	"github.com/rustfoundation/cargo-capslock/internal/report"
	"github.com/rustfoundation/cargo-capslock/internal/rules"
)

// Config carries the run's explicit inputs.
type Config struct {
	// Rules is the capability rule table; nil selects the embedded default.
	Rules *rules.Table

	// Full includes the per-function capability dump in the report.
	Full bool

	Logger hclog.Logger
}

// AnalyzeArtifacts loads IR module artifacts from disk and analyzes them.
func AnalyzeArtifacts(ctx context.Context, paths []string, cfg Config) (*report.Report, error) {
	mods, err := ir.LoadModules(paths)
	if err != nil {
		return nil, err
	}
	return Analyze(ctx, mods, cfg)
}

// Analyze runs the pipeline over already-loaded modules.
func Analyze(ctx context.Context, mods []*ir.Module, cfg Config) (*report.Report, error) {
	log := cfg.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	tbl := cfg.Rules
	if tbl == nil {
		var err error
		if tbl, err = rules.Default(); err != nil {
			return nil, err
		}
	}

	g, err := callgraph.Build(ctx, mods, log)
	if err != nil {
		return nil, err
	}
	log.Debug("call graph built", "functions", g.Len(), "gaps", len(g.Gaps))

	intrinsic := make([]capability.Set, g.Len())
	var warnings []report.Warning
	for id, fn := range g.Funcs {
		caps, amb := tbl.Intrinsic(fn)
		intrinsic[id] = caps
		if amb != nil {
			warnings = append(warnings, report.Warning{
				Kind:     "rule_ambiguity",
				Symbol:   amb.Symbol,
				Patterns: amb.Patterns,
			})
			log.Warn("ambiguous rule match", "symbol", amb.Symbol, "patterns", amb.Patterns)
		}
	}
	// Every recorded gap taints its enclosing function: absence of
	// information surfaces as UNANALYZED, never as an implicit "safe".
	for _, id := range g.TaintedFuncs() {
		intrinsic[id].Add(capability.Unanalyzed)
	}
	sort.Slice(warnings, func(i, j int) bool { return warnings[i].Symbol < warnings[j].Symbol })

	res, err := propagate.Run(ctx, g, intrinsic, log)
	if err != nil {
		return nil, err
	}

	units := attribute.Attribute(g, res, log)

	r := &report.Report{
		RunID:            runID(mods, tbl.Version),
		RuleTableVersion: tbl.Version,
		Units:            make([]report.Unit, 0, len(units)),
		Warnings:         warnings,
		Gaps:             convertGaps(g),
	}
	for _, u := range units {
		r.Units = append(r.Units, convertUnit(u))
	}
	if cfg.Full {
		r.Functions = dumpFunctions(g, res)
	}

	log.Info("analysis complete",
		"run", r.RunID, "units", len(r.Units),
		"warnings", len(r.Warnings), "gaps", len(r.Gaps))
	return r, nil
}

// runNamespace scopes the name-based run ids to this tool.
var runNamespace = uuid.MustParse("9f2c1f7e-5d24-4c41-8a6b-3e0f6b6f1c55")

// runID derives the report identifier from the analyzed input and the rule
// table version. Identical runs share an id, so reports stay byte-identical
// end to end.
func runID(mods []*ir.Module, version string) string {
	h := sha256.New()
	fmt.Fprintf(h, "rules %s\n", version)
	for _, mod := range mods {
		fmt.Fprintf(h, "module %s unit %s\n", mod.Name, mod.Unit)
		for _, fn := range mod.Functions {
			fmt.Fprintf(h, "fn %s sig %s ext %v entry %v\n",
				fn.Symbol, fn.Signature, fn.External, fn.Entry)
			for i := range fn.Calls {
				c := &fn.Calls[i]
				fmt.Fprintf(h, "call %d %s %s %v\n", c.Kind, c.Callee, c.Signature, c.Candidates)
			}
		}
	}
	return uuid.NewSHA1(runNamespace, h.Sum(nil)).String()
}

func convertUnit(u *attribute.Unit) report.Unit {
	out := report.Unit{
		Name:         u.Name,
		Capabilities: u.Capabilities.Names(),
	}
	for _, f := range u.Findings {
		out.Findings = append(out.Findings, report.Finding{
			Capability: f.Capability.String(),
			Kind:       f.Kind.String(),
			Path:       convertPath(f.Path),
		})
	}
	return out
}

func convertPath(path []attribute.PathStep) []report.PathStep {
	out := make([]report.PathStep, len(path))
	for i, s := range path {
		out[i] = report.PathStep{Symbol: s.Symbol, DisplayName: s.DisplayName}
		if s.Site != nil {
			out[i].Site = s.Site.String()
		}
	}
	return out
}

func convertGaps(g *callgraph.Graph) []report.Gap {
	out := make([]report.Gap, 0, len(g.Gaps))
	for _, gap := range g.Gaps {
		rg := report.Gap{
			Kind:     gap.Kind.String(),
			Function: g.Func(gap.Fn).Symbol,
			Symbol:   gap.Symbol,
			Detail:   gap.Detail,
		}
		if gap.Site != nil {
			rg.Site = gap.Site.String()
		}
		out = append(out, rg)
	}
	return out
}

// dumpFunctions emits the whole arena in symbol order with per-capability
// attribution kinds.
func dumpFunctions(g *callgraph.Graph, res *propagate.Result) []report.Function {
	out := make([]report.Function, 0, g.Len())
	for id, fn := range g.Funcs {
		rf := report.Function{
			Symbol:      fn.Symbol,
			DisplayName: fn.DisplayName,
			Unit:        fn.Module.Unit,
			External:    fn.External,
			Entry:       fn.Entry,
		}
		for _, c := range res.Reachable[id].List() {
			rf.Capabilities = append(rf.Capabilities, report.FunctionCap{
				Capability: c.String(),
				Kind:       res.Kind(id, c).String(),
			})
		}
		out = append(out, rf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
