// Package report defines the engine's output contract and its renderers.
// Unit, capability, gap, and warning ordering is fully deterministic, and
// the run id is derived from the analyzed input, so repeated runs on
// identical input are byte-identical.
package report

// Report is the complete result of one analysis run.
type Report struct {
	// RunID identifies the (input, rule table) combination that produced
	// the report; identical runs share an id.
	RunID            string `json:"run_id"`
	RuleTableVersion string `json:"rule_table_version"`

	// Units are ordered lexicographically by name.
	Units []Unit `json:"units"`

	// Warnings are non-fatal configuration findings, e.g. rule ambiguity.
	Warnings []Warning `json:"warnings,omitempty"`

	// Gaps are the recorded analysis holes. A report with gaps is still
	// complete: every gap already contributed UNANALYZED where it sits.
	Gaps []Gap `json:"gaps,omitempty"`

	// Functions optionally dumps the whole per-function arena.
	Functions []Function `json:"functions,omitempty"`
}

// Unit is one library unit with its aggregate capability set.
type Unit struct {
	Name string `json:"name"`

	// Capabilities are wire names in taxonomy declaration order.
	Capabilities []string `json:"capabilities"`

	// Findings hold one evidence path per capability, in the same order.
	Findings []Finding `json:"findings,omitempty"`
}

// Finding justifies one capability with a concrete call path.
type Finding struct {
	Capability string     `json:"capability"`
	Kind       string     `json:"kind"`
	Path       []PathStep `json:"path"`
}

// PathStep is one hop of an evidence path.
type PathStep struct {
	Symbol      string `json:"symbol"`
	DisplayName string `json:"display_name,omitempty"`
	Site        string `json:"site,omitempty"`
}

// Warning is a non-fatal finding about the run's configuration.
type Warning struct {
	Kind     string   `json:"kind"`
	Symbol   string   `json:"symbol"`
	Patterns []string `json:"patterns,omitempty"`
}

// Gap records one analysis hole.
type Gap struct {
	Kind     string `json:"kind"`
	Function string `json:"function"`
	Symbol   string `json:"symbol,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Site     string `json:"site,omitempty"`
}

// Function is one arena entry of the optional full dump.
type Function struct {
	Symbol       string        `json:"symbol"`
	DisplayName  string        `json:"display_name,omitempty"`
	Unit         string        `json:"unit"`
	External     bool          `json:"external,omitempty"`
	Entry        bool          `json:"entry,omitempty"`
	Capabilities []FunctionCap `json:"capabilities,omitempty"`
}

// FunctionCap is one capability of a function with its attribution kind.
type FunctionCap struct {
	Capability string `json:"capability"`
	Kind       string `json:"kind"`
}

// HasUnanalyzed reports whether any unit carries the UNANALYZED sentinel.
// Renderers surface it prominently; it must never be dropped.
func (r *Report) HasUnanalyzed() bool {
	for _, u := range r.Units {
		for _, c := range u.Capabilities {
			if c == "UNANALYZED" {
				return true
			}
		}
	}
	return false
}
