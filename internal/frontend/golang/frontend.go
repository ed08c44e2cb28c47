// Package golang lowers a Go build into IR modules by building SSA for the
// whole program and recording one call site per SSA call instruction.
// Static callees become direct calls; everything else is an indirect call
// carrying the callee signature for conservative fan-out.
package golang

import (
	"context"
	"fmt"
	"go/token"
	"go/types"
	"sort"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/rustfoundation/cargo-capslock/internal/ir"
)

// Load builds the Go packages rooted at dir and lowers them to IR modules,
// one per package. A build failure is a MalformedInputError: the engine
// requires a complete closure or nothing.
func Load(ctx context.Context, dir string, log hclog.Logger) ([]*ir.Module, error) {
	cfg := &packages.Config{
		Context: ctx,
		Dir:     dir,
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedCompiledGoFiles |
			packages.NeedImports |
			packages.NeedDeps |
			packages.NeedTypes |
			packages.NeedSyntax |
			packages.NeedTypesInfo |
			packages.NeedModule,
		Fset: token.NewFileSet(),
	}

	pkgs, err := packages.Load(cfg, "./...")
	if err != nil {
		return nil, &ir.MalformedInputError{Path: dir, Reason: "cannot load Go packages", Err: err}
	}
	if n := packages.PrintErrors(pkgs); n > 0 {
		return nil, &ir.MalformedInputError{
			Path:   dir,
			Reason: fmt.Sprintf("%d package load errors", n),
		}
	}

	prog, _ := ssautil.AllPackages(pkgs, ssa.InstantiateGenerics)
	prog.Build()

	// Module path per package path, for unit attribution.
	unitOf := make(map[string]string)
	packages.Visit(pkgs, func(p *packages.Package) bool {
		if p.Module != nil {
			unitOf[p.PkgPath] = p.Module.Path
		}
		return true
	}, nil)

	byPkg := make(map[string]*ir.Module)
	for fn := range ssautil.AllFunctions(prog) {
		if fn.Pkg == nil {
			continue
		}
		path := fn.Pkg.Pkg.Path()
		mod := byPkg[path]
		if mod == nil {
			mod = &ir.Module{Name: path, Unit: path, Path: dir}
			if unit, ok := unitOf[path]; ok {
				mod.Unit = unit
				mod.UnitDeclared = true
			}
			byPkg[path] = mod
		}
		mod.Functions = append(mod.Functions, lowerFunc(prog.Fset, fn))
	}

	mods := make([]*ir.Module, 0, len(byPkg))
	for _, mod := range byPkg {
		for _, fn := range mod.Functions {
			fn.Module = mod
		}
		sort.Slice(mod.Functions, func(i, j int) bool {
			return mod.Functions[i].Symbol < mod.Functions[j].Symbol
		})
		mods = append(mods, mod)
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].Name < mods[j].Name })

	total := 0
	for _, mod := range mods {
		total += len(mod.Functions)
	}
	log.Debug("lowered Go build", "dir", dir, "packages", len(mods), "functions", total)
	return mods, nil
}

func lowerFunc(fset *token.FileSet, fn *ssa.Function) *ir.Function {
	out := &ir.Function{
		Symbol:      symbolFor(fn),
		DisplayName: fn.RelString(nil),
		External:    len(fn.Blocks) == 0,
		Entry:       isEntry(fn),
		Signature:   fn.Signature.String(),
		Location:    location(fset, fn.Pos()),
	}

	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			call, ok := instr.(ssa.CallInstruction)
			if !ok {
				continue
			}
			common := call.Common()
			if common.IsInvoke() {
				// Interface dispatch: fan out over signature.
				out.Calls = append(out.Calls, ir.CallSite{
					Kind:      ir.CallIndirect,
					Signature: common.Method.Type().String(),
					Site:      location(fset, instr.Pos()),
				})
				continue
			}
			if callee := common.StaticCallee(); callee != nil {
				out.Calls = append(out.Calls, ir.CallSite{
					Kind:   ir.CallDirect,
					Callee: symbolFor(callee),
					Site:   location(fset, instr.Pos()),
				})
				continue
			}
			out.Calls = append(out.Calls, ir.CallSite{
				Kind:      ir.CallIndirect,
				Signature: common.Signature().String(),
				Site:      location(fset, instr.Pos()),
			})
		}
	}
	return out
}

// symbolFor renders a function name the way the embedded Go ruleset spells
// its symbols: "os.Open", "os/exec.(*Cmd).Run", "pkg.fn$1" for closures.
func symbolFor(fn *ssa.Function) string {
	if fn.Parent() != nil || fn.Pkg == nil {
		return fn.String()
	}
	if recv := fn.Signature.Recv(); recv != nil {
		t := recv.Type()
		ptr := ""
		if p, ok := t.(*types.Pointer); ok {
			ptr = "*"
			t = p.Elem()
		}
		if named, ok := t.(*types.Named); ok {
			return fmt.Sprintf("%s.(%s%s).%s", fn.Pkg.Pkg.Path(), ptr, named.Obj().Name(), fn.Name())
		}
		return fn.String()
	}
	return fn.Pkg.Pkg.Path() + "." + fn.Name()
}

// isEntry marks the analysis roots: main and init of package main, and
// every exported function or method elsewhere.
func isEntry(fn *ssa.Function) bool {
	if fn.Parent() != nil || fn.Pkg == nil {
		return false
	}
	if fn.Pkg.Pkg.Name() == "main" {
		return fn.Name() == "main" || fn.Name() == "init"
	}
	obj := fn.Object()
	return obj != nil && obj.Exported()
}

func location(fset *token.FileSet, pos token.Pos) *ir.Location {
	if !pos.IsValid() {
		return nil
	}
	p := fset.Position(pos)
	return &ir.Location{File: p.Filename, Line: p.Line, Column: p.Column}
}
