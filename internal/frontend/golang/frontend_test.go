package golang

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/rustfoundation/cargo-capslock/internal/ir"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func load(t *testing.T, dir string) []*ir.Module {
	t.Helper()
	mods, err := Load(context.Background(), dir, hclog.NewNullLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return mods
}

func findFunc(mods []*ir.Module, symbol string) *ir.Function {
	for _, mod := range mods {
		for _, fn := range mod.Functions {
			if fn.Symbol == symbol {
				return fn
			}
		}
	}
	return nil
}

func TestLowerMainPackage(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dir := writeProject(t, map[string]string{
		"go.mod": "module test\ngo 1.21\n",
		"main.go": `package main

import "os/exec"

func main() {
	run()
}

func run() {
	exec.Command("ls").Run()
}
`,
	})

	mods := load(t, dir)

	main := findFunc(mods, "test.main")
	if main == nil {
		t.Fatal("test.main not lowered")
	}
	if !main.Entry {
		t.Error("main must be an entry point")
	}

	found := false
	for _, c := range main.Calls {
		if c.Kind == ir.CallDirect && c.Callee == "test.run" {
			found = true
			if c.Site == nil || c.Site.Line == 0 {
				t.Error("direct call carries no location")
			}
		}
	}
	if !found {
		t.Errorf("main -> run call missing: %+v", main.Calls)
	}

	run := findFunc(mods, "test.run")
	if run == nil {
		t.Fatal("test.run not lowered")
	}
	if run.Entry {
		t.Error("unexported run must not be an entry point")
	}
	wantCallee := "os/exec.(*Cmd).Run"
	found = false
	for _, c := range run.Calls {
		if c.Kind == ir.CallDirect && c.Callee == wantCallee {
			found = true
		}
	}
	if !found {
		t.Errorf("run must call %s directly: %+v", wantCallee, run.Calls)
	}
}

func TestIndirectCallCarriesSignature(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dir := writeProject(t, map[string]string{
		"go.mod": "module test\ngo 1.21\n",
		"main.go": `package main

func main() {
	f := pick()
	f(1)
}

func pick() func(int) int {
	return func(x int) int { return x }
}
`,
	})

	mods := load(t, dir)
	main := findFunc(mods, "test.main")
	if main == nil {
		t.Fatal("test.main not lowered")
	}

	found := false
	for _, c := range main.Calls {
		if c.Kind == ir.CallIndirect {
			found = true
			if c.Signature == "" {
				t.Error("indirect call carries no signature")
			}
		}
	}
	if !found {
		t.Errorf("dynamic call not recorded as indirect: %+v", main.Calls)
	}
}

func TestUnitComesFromModulePath(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dir := writeProject(t, map[string]string{
		"go.mod": "module example.com/demo\ngo 1.21\n",
		"lib.go": `package demo

func Exported() {}
`,
	})

	mods := load(t, dir)
	if len(mods) == 0 {
		t.Fatal("no modules lowered")
	}

	var demo *ir.Module
	for _, mod := range mods {
		if mod.Name == "example.com/demo" {
			demo = mod
		}
	}
	if demo == nil {
		t.Fatal("package example.com/demo not lowered")
	}
	if !demo.UnitDeclared || demo.Unit != "example.com/demo" {
		t.Errorf("unit = %q (declared=%v), want module path", demo.Unit, demo.UnitDeclared)
	}

	fn := findFunc(mods, "example.com/demo.Exported")
	if fn == nil {
		t.Fatal("Exported not lowered")
	}
	if !fn.Entry {
		t.Error("exported function of a library package must be an entry point")
	}
}

func TestLoadFailsOnBrokenBuild(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dir := writeProject(t, map[string]string{
		"go.mod":  "module test\ngo 1.21\n",
		"main.go": "package main\n\nfunc main() { undefined() }\n",
	})

	_, err := Load(context.Background(), dir, hclog.NewNullLogger())
	if err == nil {
		t.Fatal("broken build must be a fatal load error")
	}
	var malformed *ir.MalformedInputError
	if !errors.As(err, &malformed) {
		t.Errorf("error = %T, want MalformedInputError", err)
	}
}
