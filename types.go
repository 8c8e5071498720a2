package tex2img

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Input contains the parameters of one render request.
type Input struct {
	Body       string // TeX fragment to render (required)
	OutputPath string // destination path; its extension selects the flow

	// Document preparation overrides; empty values fall back to the
	// renderer's defaults.
	Template string
	Preamble string
	FontSize int
	Params   map[string]string // extra template parameters

	// Arguments overrides a step's command argument template for this
	// request only (step name -> replacement template). An unknown step
	// name fails the request.
	Arguments map[string]string

	Flow              string // named flow variant; "" = default route
	OptimizeSVG       bool   // append the scour step to an svg flow
	Verbose           bool   // log one structured line per completed step
	KeepIntermediates bool   // retain the working area after the request

	// WorkDir is the parent for the request's working area; each request
	// gets its own subdirectory so concurrent renders never share
	// artifact paths. "" = private temp dir.
	WorkDir string
}

// StepReport describes one completed pipeline step.
type StepReport struct {
	Step    string
	From    string // consumed suffix
	To      string // produced suffix
	Command string
	Elapsed time.Duration
}

// Result is the outcome of a successful render.
type Result struct {
	OutputPath string
	Suffix     string
	Variant    string
	Steps      []StepReport
	WorkDir    string // retained working area; "" unless KeepIntermediates
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithRegistry replaces the default tool registry.
func WithRegistry(reg *Registry) Option {
	if reg == nil {
		panic("tex2img: WithRegistry registry must not be nil")
	}
	return func(r *Renderer) { r.registry = reg }
}

// WithChecker replaces the default dependency checker.
func WithChecker(c *Checker) Option {
	if c == nil {
		panic("tex2img: WithChecker checker must not be nil")
	}
	return func(r *Renderer) { r.checker = c }
}

// WithRunner replaces the external process runner, mainly for tests.
func WithRunner(runner CommandRunner) Option {
	if runner == nil {
		panic("tex2img: WithRunner runner must not be nil")
	}
	return func(r *Renderer) { r.runner = runner }
}

// WithLogger replaces the default logger.
func WithLogger(l *logrus.Logger) Option {
	if l == nil {
		panic("tex2img: WithLogger logger must not be nil")
	}
	return func(r *Renderer) { r.logger = l }
}

// WithStepTimeout bounds each external tool invocation. Zero disables the
// limit (the default). Panics if d < 0.
func WithStepTimeout(d time.Duration) Option {
	if d < 0 {
		panic("tex2img: WithStepTimeout duration must not be negative")
	}
	return func(r *Renderer) { r.stepTimeout = d }
}

// WithTemplate sets the default document template.
func WithTemplate(template string) Option {
	return func(r *Renderer) { r.template = template }
}

// WithPreamble sets the default document preamble.
func WithPreamble(preamble string) Option {
	return func(r *Renderer) { r.preamble = preamble }
}

// WithFontSize sets the default document fontsize in points.
func WithFontSize(pt int) Option {
	if pt < 0 {
		panic("tex2img: WithFontSize must not be negative")
	}
	return func(r *Renderer) { r.fontsize = pt }
}

// WithParams sets default template parameters merged into every request
// (request params win on duplicate keys).
func WithParams(params map[string]string) Option {
	return func(r *Renderer) { r.params = params }
}
