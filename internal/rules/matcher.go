package rules

import (
	"github.com/rustfoundation/cargo-capslock/internal/capability"
	"github.com/rustfoundation/cargo-capslock/internal/ir"
)

// Match is the outcome of looking up one function against the table.
type Match struct {
	Capabilities capability.Set

	// Rule is the winning rule, nil when nothing matched.
	Rule *Rule

	// Competing holds equal-specificity rules that also matched. Non-empty
	// Competing is an input-data error surfaced as a RuleAmbiguity warning;
	// the winner is the first match in declaration order.
	Competing []*Rule
}

// Ambiguity records a symbol matched by several equal-specificity rules.
type Ambiguity struct {
	Symbol   string
	Patterns []string // winner first
}

// Intrinsic computes the intrinsic capability set of fn.
//
// Matching order: an exact name match beats a namespace-prefix match beats
// the catch-all external rule; among prefix rules the longest prefix wins.
// Both the mangled symbol and the display name are consulted. An
// externally-defined function matching no rule at all is tagged UNANALYZED:
// absence of information propagates as such, never as an implicit "safe".
func (t *Table) Intrinsic(fn *ir.Function) (capability.Set, *Ambiguity) {
	names := []string{fn.Symbol}
	if fn.DisplayName != "" && fn.DisplayName != fn.Symbol {
		names = append(names, fn.DisplayName)
	}

	m := t.match(names, fn.External)
	if m.Rule == nil {
		if fn.External {
			return capability.Of(capability.Unanalyzed), nil
		}
		return 0, nil
	}

	var amb *Ambiguity
	if len(m.Competing) > 0 {
		amb = &Ambiguity{Symbol: fn.Symbol}
		amb.Patterns = append(amb.Patterns, m.Rule.Pattern())
		for _, r := range m.Competing {
			amb.Patterns = append(amb.Patterns, r.Pattern())
		}
	}
	return m.Capabilities, amb
}

// match resolves names against the table, most specific tier first.
func (t *Table) match(names []string, external bool) Match {
	// Exact tier.
	var hits []*Rule
	seen := make(map[*Rule]bool)
	for _, name := range names {
		for _, r := range t.exact[name] {
			if !seen[r] {
				seen[r] = true
				hits = append(hits, r)
			}
		}
	}
	if len(hits) > 0 {
		return pick(hits)
	}

	// Prefix tier: t.prefixes is sorted by descending length with
	// declaration order preserved within a length, so the first matching
	// length is the most specific and the first rule at it is the winner.
	bestLen := -1
	for _, r := range t.prefixes {
		if bestLen >= 0 && len(r.Prefix) < bestLen {
			break
		}
		for _, name := range names {
			if hasPrefix(name, r.Prefix) {
				bestLen = len(r.Prefix)
				hits = append(hits, r)
				break
			}
		}
	}
	if len(hits) > 0 {
		return pick(hits)
	}

	// Catch-all tier, external functions only.
	if external && len(t.external) > 0 {
		return pick(t.external)
	}

	return Match{}
}

// pick selects the declaration-order winner from equal-specificity hits.
func pick(hits []*Rule) Match {
	winner := hits[0]
	for _, r := range hits[1:] {
		if r.index < winner.index {
			winner = r
		}
	}
	m := Match{Capabilities: winner.Capabilities, Rule: winner}
	for _, r := range hits {
		if r != winner {
			m.Competing = append(m.Competing, r)
		}
	}
	return m
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
