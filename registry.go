package tex2img

import "fmt"

// Artifact suffixes used by the built-in toolchain. SuffixTeX is the
// initial source; it is never a valid render target.
const (
	SuffixTeX = "tex"
	SuffixDVI = "dvi"
	SuffixPS  = "ps"
	SuffixEPS = "eps"
	SuffixPDF = "pdf"
	SuffixSVG = "svg"
	SuffixPNG = "png"
	SuffixJPG = "jpg"
	SuffixTIF = "tiff"
)

// Step is one external-tool invocation in a conversion flow. Args is an
// argument template whose {placeholder}s are resolved against the request
// props at execution time; it must reference exactly the placeholders the
// executor provides (artifact paths, out_file, outdir, filename, prefix).
type Step struct {
	Name       string // logical name, e.g. "svg"
	Executable string // binary resolved on the search path, e.g. "dvisvgm"
	Args       string // argument template
	Consumes   string // input artifact suffix, SuffixTeX for entry steps
	Produces   string // output artifact suffix
}

// Command returns the unrendered command line for display purposes.
func (s Step) Command() string {
	return s.Executable + " " + s.Args
}

// Registry maps logical step names to Steps. It is safe for concurrent
// reads; mutations (Register, Override) must happen before the registry is
// shared, or on a request-local Clone.
type Registry struct {
	steps map[string]Step
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{steps: make(map[string]Step)}
}

// DefaultRegistry returns a registry populated with the built-in TeX
// toolchain: latex, pdflatex, dvips, ps2pdf, dvisvgm, ghostscript rasters,
// and scour for SVG optimization.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, s := range []Step{
		{
			Name:       "dvi",
			Executable: "latex",
			Args:       "-interaction nonstopmode -halt-on-error {tex_file}",
			Consumes:   SuffixTeX,
			Produces:   SuffixDVI,
		},
		{
			Name:       "pdflatex",
			Executable: "pdflatex",
			Args:       "-interaction nonstopmode -halt-on-error {tex_file}",
			Consumes:   SuffixTeX,
			Produces:   SuffixPDF,
		},
		{
			Name:       "ps",
			Executable: "dvips",
			Args:       "{dvi_file} -o {out_file}",
			Consumes:   SuffixDVI,
			Produces:   SuffixPS,
		},
		{
			Name:       "eps",
			Executable: "dvips",
			Args:       "-E {dvi_file} -o {out_file}",
			Consumes:   SuffixDVI,
			Produces:   SuffixEPS,
		},
		{
			Name:       "pdf",
			Executable: "ps2pdf",
			Args:       "{ps_file} {out_file}",
			Consumes:   SuffixPS,
			Produces:   SuffixPDF,
		},
		{
			Name:       "svg",
			Executable: "dvisvgm",
			Args:       "--exact-bbox --no-fonts {dvi_file} -o {out_file}",
			Consumes:   SuffixDVI,
			Produces:   SuffixSVG,
		},
		{
			Name:       "png",
			Executable: "gs",
			Args:       "-dNOPAUSE -sDEVICE=pngalpha -r600 -o {out_file} {pdf_file}",
			Consumes:   SuffixPDF,
			Produces:   SuffixPNG,
		},
		{
			Name:       "jpg",
			Executable: "gs",
			Args:       "-dNOPAUSE -sDEVICE=jpeg -dJPEGQ=95 -r600 -o {out_file} {pdf_file}",
			Consumes:   SuffixPDF,
			Produces:   SuffixJPG,
		},
		{
			Name:       "tiff",
			Executable: "gs",
			Args:       "-dNOPAUSE -sDEVICE=tiffg4 -r600 -o {out_file} {pdf_file}",
			Consumes:   SuffixPDF,
			Produces:   SuffixTIF,
		},
		{
			Name:       "optimize",
			Executable: "scour",
			Args:       "--shorten-ids --shorten-ids-prefix={prefix} --no-line-breaks --remove-metadata --enable-comment-stripping --strip-xml-prolog -i {svg_file} -o {out_file}",
			Consumes:   SuffixSVG,
			Produces:   SuffixSVG,
		},
	} {
		r.Register(s)
	}
	return r
}

// Register adds a step or replaces the step with the same name.
// Declaration order is preserved for reporting.
func (r *Registry) Register(s Step) {
	if _, exists := r.steps[s.Name]; !exists {
		r.order = append(r.order, s.Name)
	}
	r.steps[s.Name] = s
}

// Lookup returns the step registered under name.
func (r *Registry) Lookup(name string) (Step, error) {
	s, ok := r.steps[name]
	if !ok {
		return Step{}, fmt.Errorf("%w: %q", ErrUnknownStep, name)
	}
	return s, nil
}

// Override replaces only the argument template of an existing step. The
// executable and the produced suffix are fixed: changing them would break
// the flow table's chaining invariants.
func (r *Registry) Override(name, args string) error {
	s, ok := r.steps[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStep, name)
	}
	s.Args = args
	r.steps[name] = s
	return nil
}

// Names returns the step names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Steps returns all steps in declaration order.
func (r *Registry) Steps() []Step {
	out := make([]Step, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.steps[name])
	}
	return out
}

// Clone returns an independent copy, used for request-local overrides so
// the shared registry stays read-only under concurrent renders.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		steps: make(map[string]Step, len(r.steps)),
		order: make([]string, len(r.order)),
	}
	for k, v := range r.steps {
		c.steps[k] = v
	}
	copy(c.order, r.order)
	return c
}
