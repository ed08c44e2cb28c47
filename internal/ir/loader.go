package ir

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// FormatVersion is the artifact format this loader understands.
const FormatVersion = 1

// rawModule mirrors the serialized artifact before validation.
type rawModule struct {
	FormatVersion int           `json:"format_version"`
	Module        string        `json:"module"`
	Unit          string        `json:"unit"`
	Functions     []rawFunction `json:"functions"`
}

type rawFunction struct {
	Symbol      string    `json:"symbol"`
	DisplayName string    `json:"display_name"`
	External    bool      `json:"external"`
	Entry       bool      `json:"entry"`
	Signature   string    `json:"signature"`
	Location    *Location `json:"location"`
	Calls       []rawCall `json:"calls"`
}

type rawCall struct {
	Kind       string    `json:"kind"`
	Callee     string    `json:"callee"`
	Signature  string    `json:"signature"`
	Candidates []string  `json:"candidates"`
	Location   *Location `json:"location"`
}

// LoadModules loads one artifact per path. Any failure is fatal for the
// whole run: the engine requires the complete closure or nothing.
func LoadModules(paths []string) ([]*Module, error) {
	mods := make([]*Module, 0, len(paths))
	for _, path := range paths {
		mod, err := LoadModule(path)
		if err != nil {
			return nil, err
		}
		mods = append(mods, mod)
	}
	return mods, nil
}

// LoadModule parses a single serialized artifact into a Module.
func LoadModule(path string) (*Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &MalformedInputError{Path: path, Reason: "cannot open artifact", Err: err}
	}
	defer f.Close()
	return Decode(f, path)
}

// Decode parses an artifact from r. Structural corruption is a fatal
// MalformedInputError; an individual call record the model cannot interpret
// becomes a Gap on its enclosing function so the analysis can continue with
// the site surfaced as UNANALYZED instead of silently dropped.
func Decode(r io.Reader, path string) (*Module, error) {
	var raw rawModule
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, &MalformedInputError{Path: path, Reason: "cannot parse artifact", Err: err}
	}

	if raw.FormatVersion != FormatVersion {
		return nil, &MalformedInputError{
			Path:   path,
			Reason: fmt.Sprintf("unsupported format version %d (want %d)", raw.FormatVersion, FormatVersion),
		}
	}
	if raw.Module == "" {
		return nil, &MalformedInputError{Path: path, Reason: "artifact declares no module name"}
	}

	mod := &Module{
		Name:         raw.Module,
		Unit:         raw.Unit,
		UnitDeclared: raw.Unit != "",
		Path:         path,
	}
	if mod.Unit == "" {
		mod.Unit = mod.Name
	}

	seen := make(map[string]bool, len(raw.Functions))
	for i, rf := range raw.Functions {
		if rf.Symbol == "" {
			return nil, &MalformedInputError{
				Path:   path,
				Reason: fmt.Sprintf("function %d has no symbol", i),
			}
		}
		if seen[rf.Symbol] {
			return nil, &MalformedInputError{
				Path:   path,
				Reason: fmt.Sprintf("duplicate symbol %q", rf.Symbol),
			}
		}
		seen[rf.Symbol] = true

		fn := &Function{
			Symbol:      rf.Symbol,
			DisplayName: rf.DisplayName,
			External:    rf.External,
			Entry:       rf.Entry,
			Signature:   rf.Signature,
			Location:    rf.Location,
			Module:      mod,
		}

		if fn.External && len(rf.Calls) > 0 {
			// A body-less declaration cannot carry call sites; keep the
			// record as a gap rather than trusting it.
			fn.Gaps = append(fn.Gaps, Gap{
				Detail: "call sites recorded on body-less declaration",
				Site:   rf.Location,
			})
		} else {
			for _, rc := range rf.Calls {
				site, gap := convertCall(rc)
				if gap != nil {
					fn.Gaps = append(fn.Gaps, *gap)
					continue
				}
				fn.Calls = append(fn.Calls, site)
			}
		}

		mod.Functions = append(mod.Functions, fn)
	}

	return mod, nil
}

// convertCall validates one call record. A malformed record yields a Gap
// instead of aborting the load.
func convertCall(rc rawCall) (CallSite, *Gap) {
	switch rc.Kind {
	case "direct":
		if rc.Callee == "" {
			return CallSite{}, &Gap{Detail: "direct call without callee operand", Site: rc.Location}
		}
		return CallSite{Kind: CallDirect, Callee: rc.Callee, Site: rc.Location}, nil
	case "indirect":
		if rc.Signature == "" {
			return CallSite{}, &Gap{Detail: "indirect call without signature", Site: rc.Location}
		}
		return CallSite{
			Kind:       CallIndirect,
			Signature:  rc.Signature,
			Candidates: rc.Candidates,
			Site:       rc.Location,
		}, nil
	default:
		return CallSite{}, &Gap{
			Detail: fmt.Sprintf("unrecognized call kind %q", rc.Kind),
			Site:   rc.Location,
		}
	}
}
