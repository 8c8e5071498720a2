package tex2img

import (
	"errors"
	"reflect"
	"testing"
)

func TestResolveEverySupportedSuffix(t *testing.T) {
	reg := DefaultRegistry()

	for _, suffix := range SupportedSuffixes() {
		flow, err := Resolve(reg, suffix)
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", suffix, err)
		}
		if len(flow.Steps) == 0 {
			t.Fatalf("Resolve(%q) returned empty flow", suffix)
		}
		// Chain continuity: first consumes tex, adjacent steps chain, last
		// produces the requested suffix.
		if flow.Steps[0].Consumes != SuffixTeX {
			t.Errorf("%q: first step consumes %q, want tex", suffix, flow.Steps[0].Consumes)
		}
		for i := 1; i < len(flow.Steps); i++ {
			if flow.Steps[i].Consumes != flow.Steps[i-1].Produces {
				t.Errorf("%q: step %q consumes %q but predecessor produces %q",
					suffix, flow.Steps[i].Name, flow.Steps[i].Consumes, flow.Steps[i-1].Produces)
			}
		}
		if last := flow.Steps[len(flow.Steps)-1]; last.Produces != suffix {
			t.Errorf("%q: final step produces %q", suffix, last.Produces)
		}
	}
}

func TestResolveDeterministic(t *testing.T) {
	reg := DefaultRegistry()
	for _, suffix := range SupportedSuffixes() {
		a, err := Resolve(reg, suffix)
		if err != nil {
			t.Fatal(err)
		}
		b, err := Resolve(reg, suffix)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(a, b) {
			t.Errorf("Resolve(%q) not deterministic: %v vs %v", suffix, a, b)
		}
	}
}

func TestResolveSVGShortestChain(t *testing.T) {
	flow, err := Resolve(DefaultRegistry(), SuffixSVG)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, s := range flow.Steps {
		names = append(names, s.Name)
	}
	if !reflect.DeepEqual(names, []string{"dvi", "svg"}) {
		t.Errorf("svg flow = %v, want [dvi svg]", names)
	}
}

func TestResolveUnsupported(t *testing.T) {
	reg := DefaultRegistry()
	for _, suffix := range []string{"xyz", "", "tex", "dvi"} {
		if _, err := Resolve(reg, suffix); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("Resolve(%q) error = %v, want ErrUnsupportedFormat", suffix, err)
		}
	}
}

func TestResolveNamed(t *testing.T) {
	reg := DefaultRegistry()

	flow, err := ResolveNamed(reg, SuffixPDF, "pdflatex")
	if err != nil {
		t.Fatalf("ResolveNamed(pdf, pdflatex) error = %v", err)
	}
	if len(flow.Steps) != 1 || flow.Steps[0].Name != "pdflatex" {
		t.Errorf("pdflatex flow steps = %v", flow.Steps)
	}

	if _, err := ResolveNamed(reg, SuffixPDF, "magic"); !errors.Is(err, ErrUnknownFlow) {
		t.Errorf("ResolveNamed(pdf, magic) error = %v, want ErrUnknownFlow", err)
	}
	if _, err := ResolveNamed(reg, "xyz", "pdflatex"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ResolveNamed(xyz) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestResolveDefaultVariantIsFirstRanked(t *testing.T) {
	reg := DefaultRegistry()
	flow, err := Resolve(reg, SuffixPDF)
	if err != nil {
		t.Fatal(err)
	}
	if flow.Variant != Variants(SuffixPDF)[0] {
		t.Errorf("default pdf variant = %q, want first-ranked %q", flow.Variant, Variants(SuffixPDF)[0])
	}
	if flow.Variant != "ps2pdf" {
		t.Errorf("default pdf variant = %q, want ps2pdf", flow.Variant)
	}
}

func TestMaterializeValidatesChain(t *testing.T) {
	// A registry whose "ps" step produces the wrong suffix breaks the
	// chaining invariant and must be rejected at resolution time.
	reg := DefaultRegistry()
	reg.Register(Step{Name: "ps", Executable: "dvips", Args: "{dvi_file}", Consumes: SuffixDVI, Produces: "psx"})

	if _, err := Resolve(reg, SuffixPDF); !errors.Is(err, ErrFlowInvariant) {
		t.Errorf("Resolve with broken chain error = %v, want ErrFlowInvariant", err)
	}
}

func TestResolveMissingStepDefinition(t *testing.T) {
	reg := NewRegistry()
	if _, err := Resolve(reg, SuffixSVG); !errors.Is(err, ErrUnknownStep) {
		t.Errorf("Resolve on empty registry error = %v, want ErrUnknownStep", err)
	}
}

func TestSupportedSuffixes(t *testing.T) {
	want := []string{"eps", "jpg", "pdf", "png", "ps", "svg", "tiff"}
	if got := SupportedSuffixes(); !reflect.DeepEqual(got, want) {
		t.Errorf("SupportedSuffixes() = %v, want %v", got, want)
	}
}
