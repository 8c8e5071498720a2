package tex2img

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v3"
	"github.com/sirupsen/logrus"

	"github.com/svinagrero/go-tex2img/internal/fileutil"
	"github.com/svinagrero/go-tex2img/internal/subst"
)

// Renderer drives the conversion pipeline: it prepares the TeX document,
// resolves the flow for the requested output suffix, gates on tool
// availability and executes the steps in order inside a request-scoped
// working area. A Renderer is safe for concurrent Render calls; its
// registry is read-only after construction and per-request overrides
// operate on a clone.
type Renderer struct {
	registry    *Registry
	checker     *Checker
	runner      CommandRunner
	logger      *logrus.Logger
	stepTimeout time.Duration

	template string
	preamble string
	fontsize int
	params   map[string]string
}

// NewRenderer creates a Renderer with the default toolchain registry.
// Use options to customize behavior (e.g. WithStepTimeout, WithTemplate).
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		registry: DefaultRegistry(),
		checker:  NewChecker(),
		runner:   ExecRunner{},
		logger:   newDefaultLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newDefaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	return l
}

// CheckDeps reports availability of every registered step's executable.
func (r *Renderer) CheckDeps() []Availability {
	return r.checker.CheckAll(r.registry.Steps())
}

// Render converts in.Body to the format selected by in.OutputPath's
// extension. The context cancels the in-flight external process; the
// working area is torn down on every path unless in.KeepIntermediates
// (or a caller-supplied in.WorkDir, which is never removed).
func (r *Renderer) Render(ctx context.Context, in Input) (*Result, error) {
	if in.Body == "" {
		return nil, ErrEmptyBody
	}
	if in.OutputPath == "" {
		return nil, fmt.Errorf("%w: output path is empty", ErrUnsupportedFormat)
	}

	suffix := fileutil.Suffix(in.OutputPath)
	if suffix == "" || suffix == SuffixTeX {
		return nil, fmt.Errorf("%w: %q is not a render target", ErrUnsupportedFormat, suffix)
	}
	// A dotfile like ".svg" has a suffix but no stem; intermediates would
	// land outside the working area.
	if fileutil.Stem(in.OutputPath) == "" {
		return nil, fmt.Errorf("%w: %q has no base name", ErrUnsupportedFormat, in.OutputPath)
	}

	reg := r.registry
	if len(in.Arguments) > 0 {
		reg = reg.Clone()
		for name, args := range in.Arguments {
			if err := reg.Override(name, args); err != nil {
				return nil, err
			}
		}
	}

	var flow Flow
	var err error
	if in.Flow != "" {
		flow, err = ResolveNamed(reg, suffix, in.Flow)
	} else {
		flow, err = Resolve(reg, suffix)
	}
	if err != nil {
		return nil, err
	}

	// Post-processing is just another registered step appended to the flow.
	if in.OptimizeSVG && suffix == SuffixSVG {
		opt, err := reg.Lookup("optimize")
		if err != nil {
			return nil, err
		}
		flow.Steps = append(flow.Steps, opt)
	}

	// Pre-flight gate: no process runs unless the whole chain is present.
	if missing := r.checker.Missing(flow.Steps); len(missing) > 0 {
		return nil, &MissingDependencyError{Executables: missing}
	}

	doc, err := r.prepareDocument(in)
	if err != nil {
		return nil, err
	}

	wd, cleanup, err := r.workingArea(in)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return r.execute(ctx, in, flow, doc, wd)
}

// prepareDocument applies the request overrides on top of the renderer
// defaults and renders the TeX source.
func (r *Renderer) prepareDocument(in Input) (string, error) {
	template := in.Template
	if template == "" {
		template = r.template
	}
	preamble := in.Preamble
	if preamble == "" {
		preamble = r.preamble
	}
	fontsize := in.FontSize
	if fontsize == 0 {
		fontsize = r.fontsize
	}

	params := make(map[string]string, len(r.params)+len(in.Params))
	for k, v := range r.params {
		params[k] = v
	}
	for k, v := range in.Params {
		params[k] = v
	}

	return PrepareDocument(template, preamble, in.Body, fontsize, params)
}

// workingArea creates the request-scoped directory for intermediate
// artifacts. A caller-supplied directory receives a unique subdirectory
// per request, so concurrent renders with the same stem never share
// artifact paths; those subdirectories are never removed. A temporary
// area is removed unless KeepIntermediates.
func (r *Renderer) workingArea(in Input) (string, func(), error) {
	if in.WorkDir != "" {
		wd := filepath.Join(in.WorkDir, "tex2img-"+shortuuid.New())
		if err := os.MkdirAll(wd, 0o750); err != nil {
			return "", nil, fmt.Errorf("creating working directory: %w", err)
		}
		return wd, func() {}, nil
	}

	wd, err := os.MkdirTemp("", "tex2img-"+shortuuid.New())
	if err != nil {
		return "", nil, fmt.Errorf("creating working directory: %w", err)
	}
	cleanup := func() {
		if !in.KeepIntermediates {
			_ = os.RemoveAll(wd)
		}
	}
	return wd, cleanup, nil
}

// execute runs the flow step by step. Intermediates are named
// <stem>.<suffix> inside the working area so each step finds its
// predecessor's output without extra bookkeeping; a step that produces the
// suffix it consumes (optimize) writes <stem>-<step>.<suffix> instead.
func (r *Renderer) execute(ctx context.Context, in Input, flow Flow, doc, wd string) (*Result, error) {
	absOut, err := filepath.Abs(in.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOutputWrite, in.OutputPath, err)
	}
	stem := fileutil.Stem(absOut)
	base := filepath.Join(wd, stem)

	texPath := base + "." + SuffixTeX
	if err := os.WriteFile(texPath, []byte(doc), 0o600); err != nil {
		return nil, fmt.Errorf("writing tex source: %w", err)
	}
	if in.Verbose {
		r.logger.WithField("file", texPath).Info("wrote tex source")
	}

	artifacts := map[string]string{SuffixTeX: texPath}
	prefix := idPrefix()
	result := &Result{OutputPath: absOut, Suffix: flow.Target, Variant: flow.Variant}

	for _, step := range flow.Steps {
		out := base + "." + step.Produces
		if step.Produces == step.Consumes {
			out = base + "-" + step.Name + "." + step.Produces
		}

		props := buildProps(artifacts, out, filepath.Dir(absOut), stem, prefix)
		argv, err := renderArgs(step.Args, props)
		if err != nil {
			return nil, fmt.Errorf("%w: step %q: %v", ErrTemplate, step.Name, err)
		}

		report, err := r.runStep(ctx, wd, step, argv, out)
		if err != nil {
			return nil, err
		}

		artifacts[step.Produces] = out
		result.Steps = append(result.Steps, *report)
		if in.Verbose {
			r.logger.WithFields(logrus.Fields{
				"step":    step.Name,
				"from":    report.From,
				"to":      report.To,
				"elapsed": report.Elapsed.String(),
			}).Info("step completed")
		}
	}

	if err := fileutil.CopyAtomic(artifacts[flow.Target], absOut); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOutputWrite, absOut, err)
	}

	if in.KeepIntermediates || in.WorkDir != "" {
		result.WorkDir = wd
	}
	return result, nil
}

// runStep invokes one external process and enforces the step contract:
// exit status zero and a non-empty artifact at the expected path.
func (r *Renderer) runStep(ctx context.Context, wd string, step Step, argv []string, out string) (*StepReport, error) {
	stepCtx := ctx
	cancel := func() {}
	if r.stepTimeout > 0 {
		stepCtx, cancel = context.WithTimeout(ctx, r.stepTimeout)
	}
	defer cancel()

	cmdline := step.Executable + " " + strings.Join(argv, " ")

	start := time.Now()
	stdout, stderr, err := r.runner.Run(stepCtx, wd, step.Executable, argv...)
	elapsed := time.Since(start)

	if err != nil {
		// Caller cancellation propagates as-is; a per-step deadline is a
		// step failure.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		se := &StepError{
			Step:     step.Name,
			Command:  cmdline,
			ExitCode: -1,
			Stdout:   stdout,
			Stderr:   stderr,
		}
		var exitErr *exec.ExitError
		switch {
		case errors.Is(stepCtx.Err(), context.DeadlineExceeded):
			se.Timeout = true
		case errors.As(err, &exitErr):
			se.ExitCode = exitErr.ExitCode()
		default:
			se.Reason = err.Error()
		}
		return nil, se
	}

	if !fileutil.NonEmpty(out) {
		return nil, &StepError{
			Step:    step.Name,
			Command: cmdline,
			Stdout:  stdout,
			Stderr:  stderr,
			Reason:  "produced no output artifact at " + out,
		}
	}

	return &StepReport{
		Step:    step.Name,
		From:    step.Consumes,
		To:      step.Produces,
		Command: cmdline,
		Elapsed: elapsed,
	}, nil
}

// buildProps assembles the placeholder set a step's template may
// reference: every artifact materialized so far as <suffix>_file, plus the
// step output path and request metadata.
func buildProps(artifacts map[string]string, out, outdir, stem, prefix string) map[string]string {
	props := map[string]string{
		"out_file": out,
		"outdir":   outdir,
		"filename": stem,
		"prefix":   prefix,
	}
	for suffix, path := range artifacts {
		props[suffix+"_file"] = path
	}
	return props
}

// renderArgs splits the argument template into tokens, then expands each
// token's placeholders. Splitting first means substituted values (paths
// with spaces included) never change the token structure.
func renderArgs(args string, props map[string]string) ([]string, error) {
	tokens, err := subst.SplitTokens(args)
	if err != nil {
		return nil, err
	}
	argv := make([]string, len(tokens))
	for i, tok := range tokens {
		expanded, err := subst.Brace(tok, props)
		if err != nil {
			return nil, err
		}
		argv[i] = expanded
	}
	return argv, nil
}

// idPrefix returns a request-unique prefix for scour's ID shortening.
func idPrefix() string {
	return shortuuid.New()[:5] + "_"
}
