// Package ir models the low-level intermediate representation consumed by
// the engine: modules, functions, and call sites, parsed from serialized
// artifacts. The model is immutable after load.
package ir

import "fmt"

// Location is a source-level position token used for diagnostics and
// evidence paths.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

func (l *Location) String() string {
	if l == nil {
		return "<unknown>"
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// CallKind discriminates the two call site variants.
type CallKind uint8

const (
	// CallDirect names its callee by mangled symbol.
	CallDirect CallKind = iota
	// CallIndirect goes through a function pointer, dispatch table, or
	// first-class function value; only its static signature is known.
	CallIndirect
)

// CallSite is a single call instruction inside a function body.
type CallSite struct {
	Kind CallKind

	// Callee is the mangled symbol of the target. Set for direct calls.
	Callee string

	// Signature is the static signature descriptor of the target. Set for
	// indirect calls and used to form the conservative candidate set.
	Signature string

	// Candidates optionally enumerates targets the producer could prove
	// have their address taken. When empty, the builder scans the whole
	// program for signature-compatible functions instead.
	Candidates []string

	Site *Location
}

// Gap records a construct inside a function body that the model cannot
// interpret. Gaps are never dropped: the enclosing function is tagged
// UNANALYZED during graph construction.
type Gap struct {
	Detail string
	Site   *Location
}

// Function is a single function or declaration, identified by its mangled
// symbol.
type Function struct {
	Symbol      string
	DisplayName string

	// External marks a declaration with no body available, e.g. a symbol
	// linked from a system library. External functions have no call sites
	// and contribute capabilities only through direct rule matches.
	External bool

	// Entry marks a function the owning unit exposes as public API.
	Entry bool

	Signature string
	Location  *Location
	Calls     []CallSite
	Gaps      []Gap

	// Module is the defining module, set by the loader.
	Module *Module
}

// Name returns the best human-readable name for the function.
func (f *Function) Name() string {
	if f.DisplayName != "" {
		return f.DisplayName
	}
	return f.Symbol
}

// Module is the parsed intermediate representation of one compiled library
// or binary. It owns the functions it defines.
type Module struct {
	Name string

	// Unit is the library unit the module's functions are attributed to.
	// Defaults to Name when the artifact does not declare one.
	Unit string

	// UnitDeclared is true when the artifact named the unit explicitly.
	// A declared unit overrides the symbol-namespace provenance heuristic.
	UnitDeclared bool

	// Path is the artifact the module was loaded from.
	Path string

	Functions []*Function
}
