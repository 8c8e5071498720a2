package tex2img

import (
	"fmt"
	"sort"
)

// Flow is an ordered chain of steps transforming the prepared TeX source
// into the target suffix. Adjacent steps chain: each step consumes the
// suffix its predecessor produces, the first step consumes SuffixTeX and
// the last produces Target.
type Flow struct {
	Target  string
	Variant string
	Steps   []Step
}

// flowDef names one candidate route in the flow table.
type flowDef struct {
	variant string
	steps   []string
}

// flowTable maps each supported output suffix to its candidate flows.
// Candidates are explicitly ranked: Resolve always picks the first entry,
// so selection is a fixed lookup rather than a run-time heuristic. The
// alternatives stay reachable through ResolveNamed.
var flowTable = map[string][]flowDef{
	SuffixPS:  {{variant: "dvips", steps: []string{"dvi", "ps"}}},
	SuffixEPS: {{variant: "dvips", steps: []string{"dvi", "eps"}}},
	SuffixPDF: {
		{variant: "ps2pdf", steps: []string{"dvi", "ps", "pdf"}},
		{variant: "pdflatex", steps: []string{"pdflatex"}},
	},
	SuffixSVG: {{variant: "dvisvgm", steps: []string{"dvi", "svg"}}},
	SuffixPNG: {
		{variant: "ghostscript", steps: []string{"dvi", "ps", "pdf", "png"}},
		{variant: "pdflatex", steps: []string{"pdflatex", "png"}},
	},
	SuffixJPG: {
		{variant: "ghostscript", steps: []string{"dvi", "ps", "pdf", "jpg"}},
		{variant: "pdflatex", steps: []string{"pdflatex", "jpg"}},
	},
	SuffixTIF: {
		{variant: "ghostscript", steps: []string{"dvi", "ps", "pdf", "tiff"}},
		{variant: "pdflatex", steps: []string{"pdflatex", "tiff"}},
	},
}

// SupportedSuffixes returns the output suffixes the flow table covers,
// sorted alphabetically.
func SupportedSuffixes() []string {
	out := make([]string, 0, len(flowTable))
	for suffix := range flowTable {
		out = append(out, suffix)
	}
	sort.Strings(out)
	return out
}

// Variants returns the named candidate flows for a suffix in rank order.
func Variants(suffix string) []string {
	defs := flowTable[suffix]
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.variant
	}
	return out
}

// Resolve returns the first-ranked flow for the requested output suffix,
// materialized from reg. The resolver operates purely on the static flow
// table; tool availability is the dependency checker's concern.
func Resolve(reg *Registry, suffix string) (Flow, error) {
	defs, ok := flowTable[suffix]
	if !ok {
		return Flow{}, fmt.Errorf("%w: %q (supported: %v)", ErrUnsupportedFormat, suffix, SupportedSuffixes())
	}
	return materialize(reg, suffix, defs[0])
}

// ResolveNamed returns the flow variant registered for suffix under the
// given name, for callers that want a non-default route (e.g. pdf via
// pdflatex instead of latex/dvips/ps2pdf).
func ResolveNamed(reg *Registry, suffix, variant string) (Flow, error) {
	defs, ok := flowTable[suffix]
	if !ok {
		return Flow{}, fmt.Errorf("%w: %q (supported: %v)", ErrUnsupportedFormat, suffix, SupportedSuffixes())
	}
	for _, d := range defs {
		if d.variant == variant {
			return materialize(reg, suffix, d)
		}
	}
	return Flow{}, fmt.Errorf("%w: %q for %q (have: %v)", ErrUnknownFlow, variant, suffix, Variants(suffix))
}

// materialize looks up every step of a flow definition and validates the
// chaining invariants.
func materialize(reg *Registry, suffix string, def flowDef) (Flow, error) {
	flow := Flow{Target: suffix, Variant: def.variant, Steps: make([]Step, 0, len(def.steps))}

	prev := SuffixTeX
	for _, name := range def.steps {
		step, err := reg.Lookup(name)
		if err != nil {
			return Flow{}, fmt.Errorf("flow %q for %q: %w", def.variant, suffix, err)
		}
		if step.Consumes != prev {
			return Flow{}, fmt.Errorf("%w: flow %q for %q: step %q consumes %q, previous produces %q",
				ErrFlowInvariant, def.variant, suffix, name, step.Consumes, prev)
		}
		flow.Steps = append(flow.Steps, step)
		prev = step.Produces
	}

	if prev != suffix {
		return Flow{}, fmt.Errorf("%w: flow %q produces %q, want %q", ErrFlowInvariant, def.variant, prev, suffix)
	}
	return flow, nil
}
