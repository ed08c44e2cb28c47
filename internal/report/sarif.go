package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"
)

const informationURI = "https://github.com/rustfoundation/cargo-capslock"

// WriteSARIF renders the report as SARIF 2.1.0 with one rule per
// capability tag and the evidence path attached as a code flow.
func WriteSARIF(w io.Writer, r *Report) error {
	out, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("create sarif report: %w", err)
	}

	run := sarif.NewRunWithInformationURI("capslock", informationURI)

	for _, u := range r.Units {
		for _, f := range u.Findings {
			ruleID := "CAPSLOCK_" + f.Capability
			level := "note"
			if f.Capability == "UNANALYZED" {
				level = "warning"
			}

			run.AddRule(ruleID).
				WithDescription(fmt.Sprintf("Unit requires the %s capability", f.Capability)).
				WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: level})

			result := sarif.NewRuleResult(ruleID).
				WithLevel(level).
				WithMessage(sarif.NewTextMessage(findingMessage(u, f)))

			if flow := evidenceFlow(f); flow != nil {
				result.CodeFlows = append(result.CodeFlows, flow)
			}
			if loc := stepLocation(firstSited(f)); loc != nil {
				result.WithLocations([]*sarif.Location{loc})
			}
			run.AddResult(result)
		}
	}

	for _, warn := range r.Warnings {
		ruleID := "CAPSLOCK_" + strings.ToUpper(warn.Kind)
		run.AddRule(ruleID).
			WithDescription("Capability rule table issue").
			WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: "warning"})
		run.AddResult(sarif.NewRuleResult(ruleID).
			WithLevel("warning").
			WithMessage(sarif.NewTextMessage(fmt.Sprintf(
				"symbol %s matched by multiple equal-specificity rules: %s",
				warn.Symbol, strings.Join(warn.Patterns, ", ")))))
	}

	out.AddRun(run)
	return out.PrettyWrite(w)
}

func findingMessage(u Unit, f Finding) string {
	if len(f.Path) == 0 {
		return fmt.Sprintf("%s requires %s (%s)", u.Name, f.Capability, f.Kind)
	}
	syms := make([]string, len(f.Path))
	for i, s := range f.Path {
		syms[i] = s.Symbol
	}
	return fmt.Sprintf("%s requires %s (%s) via %s",
		u.Name, f.Capability, f.Kind, strings.Join(syms, " → "))
}

func evidenceFlow(f Finding) *sarif.CodeFlow {
	if len(f.Path) == 0 {
		return nil
	}
	thread := &sarif.ThreadFlow{}
	for i := range f.Path {
		loc := stepLocation(&f.Path[i])
		if loc == nil {
			loc = &sarif.Location{Message: sarif.NewTextMessage(f.Path[i].Symbol)}
		}
		thread.Locations = append(thread.Locations, &sarif.ThreadFlowLocation{Location: loc})
	}
	return &sarif.CodeFlow{ThreadFlows: []*sarif.ThreadFlow{thread}}
}

func firstSited(f Finding) *PathStep {
	for i := range f.Path {
		if f.Path[i].Site != "" {
			return &f.Path[i]
		}
	}
	return nil
}

// stepLocation converts a "file:line[:col]" site token to a SARIF location.
func stepLocation(step *PathStep) *sarif.Location {
	if step == nil || step.Site == "" {
		return nil
	}
	file, line := splitSite(step.Site)
	phys := sarif.NewPhysicalLocation().
		WithArtifactLocation(sarif.NewArtifactLocation().WithUri(file))
	if line > 0 {
		phys = phys.WithRegion(sarif.NewRegion().WithStartLine(line))
	}
	loc := sarif.NewLocation().WithPhysicalLocation(phys)
	loc.Message = sarif.NewTextMessage(step.Symbol)
	return loc
}

func splitSite(site string) (string, int) {
	parts := strings.Split(site, ":")
	if len(parts) < 2 {
		return site, 0
	}
	var line int
	fmt.Sscanf(parts[1], "%d", &line)
	return parts[0], line
}
