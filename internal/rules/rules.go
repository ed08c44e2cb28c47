// Package rules loads and matches the capability-taxonomy rule table: an
// externally supplied, versioned mapping from symbol patterns to capability
// tags. The table is an explicit, immutable input threaded through every
// stage; the engine never invents rules of its own.
package rules

import (
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/rustfoundation/cargo-capslock/internal/capability"
	"github.com/rustfoundation/cargo-capslock/rulesets"
)

// Rule is one entry of the table. Exactly one of Symbol, Prefix, or
// External is set.
type Rule struct {
	// Symbol matches a mangled or display name exactly.
	Symbol string
	// Prefix matches any name starting with the given namespace prefix.
	Prefix string
	// External matches any externally-defined function regardless of name.
	External bool

	Capabilities capability.Set

	// index is the declaration position, used to break ambiguity ties.
	index int
}

// Pattern returns a printable form of the rule's pattern for diagnostics.
func (r *Rule) Pattern() string {
	switch {
	case r.Symbol != "":
		return r.Symbol
	case r.Prefix != "":
		return r.Prefix + "*"
	default:
		return "<external>"
	}
}

// Table is the parsed, immutable rule table.
type Table struct {
	Version string

	rules    []*Rule
	exact    map[string][]*Rule
	prefixes []*Rule // sorted by descending prefix length, then declaration order
	external []*Rule
}

// Len returns the number of rules in the table.
func (t *Table) Len() int { return len(t.rules) }

// rawTable mirrors the YAML structure before capability names are resolved.
type rawTable struct {
	Version string    `yaml:"version"`
	Rules   []rawRule `yaml:"rules"`
}

type rawRule struct {
	Symbol       string   `yaml:"symbol,omitempty"`
	Prefix       string   `yaml:"prefix,omitempty"`
	External     bool     `yaml:"external,omitempty"`
	Capabilities []string `yaml:"capabilities"`
}

// LoadFile reads and validates a rule table from disk. A missing or invalid
// table is a fatal ConfigurationError, never a soundness gap to paper over.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigurationError{Source: path, Reason: "cannot open rule table", Err: err}
	}
	defer f.Close()
	return Load(f, path)
}

// Default returns the embedded default rule table.
func Default() (*Table, error) {
	return Embedded("default.yaml")
}

// Embedded loads one of the rule tables compiled into the binary.
func Embedded(name string) (*Table, error) {
	data, err := rulesets.FS.ReadFile(name)
	if err != nil {
		return nil, &ConfigurationError{Source: name, Reason: "no such embedded ruleset", Err: err}
	}
	t, err := parse(data, name)
	if err != nil {
		// The embedded tables are validated by tests; failing here means
		// the binary itself is broken.
		return nil, err
	}
	return t, nil
}

// Load parses and validates a rule table from r. source names the origin
// for diagnostics.
func Load(r io.Reader, source string) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ConfigurationError{Source: source, Reason: "cannot read rule table", Err: err}
	}
	return parse(data, source)
}

func parse(data []byte, source string) (*Table, error) {
	var raw rawTable
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigurationError{Source: source, Reason: "cannot parse rule table", Err: err}
	}

	if !semver.IsValid(raw.Version) {
		return nil, &ConfigurationError{
			Source: source,
			Reason: fmt.Sprintf("version %q is not valid semver", raw.Version),
		}
	}
	if len(raw.Rules) == 0 {
		return nil, &ConfigurationError{Source: source, Reason: "rule table declares no rules"}
	}

	t := &Table{
		Version: raw.Version,
		exact:   make(map[string][]*Rule),
	}

	for i, rr := range raw.Rules {
		kinds := 0
		if rr.Symbol != "" {
			kinds++
		}
		if rr.Prefix != "" {
			kinds++
		}
		if rr.External {
			kinds++
		}
		if kinds != 1 {
			return nil, &ConfigurationError{
				Source: source,
				Reason: fmt.Sprintf("rule %d must set exactly one of symbol, prefix, external", i),
			}
		}
		if len(rr.Capabilities) == 0 {
			return nil, &ConfigurationError{
				Source: source,
				Reason: fmt.Sprintf("rule %d declares no capabilities", i),
			}
		}

		var caps capability.Set
		for _, name := range rr.Capabilities {
			c, ok := capability.ByName(name)
			if !ok {
				return nil, &ConfigurationError{
					Source: source,
					Reason: fmt.Sprintf("rule %d names unknown capability %q", i, name),
				}
			}
			caps.Add(c)
		}

		rule := &Rule{
			Symbol:       rr.Symbol,
			Prefix:       rr.Prefix,
			External:     rr.External,
			Capabilities: caps,
			index:        i,
		}
		t.rules = append(t.rules, rule)

		switch {
		case rule.Symbol != "":
			t.exact[rule.Symbol] = append(t.exact[rule.Symbol], rule)
		case rule.Prefix != "":
			t.prefixes = append(t.prefixes, rule)
		default:
			t.external = append(t.external, rule)
		}
	}

	sort.SliceStable(t.prefixes, func(i, j int) bool {
		return len(t.prefixes[i].Prefix) > len(t.prefixes[j].Prefix)
	})

	return t, nil
}
