package report

import (
	"fmt"
	"io"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorBold   = "\033[1m"
	colorCyan   = "\033[36m"
)

func capColor(name string) string {
	switch name {
	case "UNANALYZED":
		return colorRed
	case "PROCESS_EXEC", "ARBITRARY_MEMORY", "UNSAFE_POINTER":
		return colorYellow
	default:
		return colorGreen
	}
}

// WriteText renders the human-readable report.
func WriteText(w io.Writer, r *Report) {
	fmt.Fprintf(w, "%s%s=== Capability Report ===%s\n", colorBold, colorCyan, colorReset)
	fmt.Fprintf(w, "rule table %s, run %s\n\n", r.RuleTableVersion, r.RunID)

	for _, u := range r.Units {
		fmt.Fprintf(w, "%s%-50s%s", colorBold, u.Name, colorReset)
		if len(u.Capabilities) == 0 {
			fmt.Fprintf(w, " %s(no capabilities)%s\n", colorGreen, colorReset)
			continue
		}
		fmt.Fprintln(w)
		for _, f := range u.Findings {
			color := capColor(f.Capability)
			fmt.Fprintf(w, "  %s%-18s%s (%s)\n", color, f.Capability, colorReset, f.Kind)
			for i, step := range f.Path {
				name := step.Symbol
				if step.DisplayName != "" {
					name = step.DisplayName
				}
				prefix := "      "
				if i > 0 {
					prefix = "    → "
				}
				if step.Site != "" {
					fmt.Fprintf(w, "%s%s (%s)\n", prefix, name, step.Site)
				} else {
					fmt.Fprintf(w, "%s%s\n", prefix, name)
				}
			}
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "\n%sWarnings:%s\n", colorBold, colorReset)
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  %s[%s]%s %s matched by %v\n",
				colorYellow, warn.Kind, colorReset, warn.Symbol, warn.Patterns)
		}
	}

	if len(r.Gaps) > 0 {
		fmt.Fprintf(w, "\n%sAnalysis gaps (surfaced as UNANALYZED):%s\n", colorBold, colorReset)
		for _, g := range r.Gaps {
			fmt.Fprintf(w, "  %s[%s]%s %s", colorRed, g.Kind, colorReset, g.Function)
			if g.Symbol != "" && g.Symbol != g.Function {
				fmt.Fprintf(w, " → %s", g.Symbol)
			}
			if g.Site != "" {
				fmt.Fprintf(w, " at %s", g.Site)
			}
			fmt.Fprintln(w)
		}
	}
}
