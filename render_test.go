package tex2img

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// fakeCall records one invocation handed to the fake runner.
type fakeCall struct {
	Dir  string
	Name string
	Args []string
}

// stepFailure configures how the fake runner misbehaves for one executable.
type stepFailure struct {
	Err          error // returned from Run
	SkipArtifact bool  // succeed but leave no output file
	Block        bool  // wait for context cancellation
}

// fakeRunner mimics the toolchain: it records every call and materializes
// the artifact the real tool would produce, inferring the output path the
// same way the tools do (an -o flag, ps2pdf's positional output, or the
// implicit <stem>.<suffix> of latex and pdflatex).
type fakeRunner struct {
	Calls []fakeCall
	Fail  map[string]stepFailure
}

func (f *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	f.Calls = append(f.Calls, fakeCall{Dir: dir, Name: name, Args: args})

	if ctx.Err() != nil {
		return "", "", ctx.Err()
	}
	if fail, ok := f.Fail[name]; ok {
		if fail.Block {
			<-ctx.Done()
			return "", "", ctx.Err()
		}
		if fail.Err != nil {
			return "", "tool reported a problem", fail.Err
		}
		if fail.SkipArtifact {
			return "", "", nil
		}
	}

	out := ""
	switch {
	case name == "latex" || name == "pdflatex":
		produced := ".dvi"
		if name == "pdflatex" {
			produced = ".pdf"
		}
		out = strings.TrimSuffix(args[len(args)-1], ".tex") + produced
	case name == "ps2pdf":
		out = args[len(args)-1]
	default:
		for i, a := range args {
			if a == "-o" && i+1 < len(args) {
				out = args[i+1]
			}
		}
	}
	if out == "" {
		return "", "", errors.New("fake runner could not locate output argument")
	}
	return "", "", os.WriteFile(out, []byte(name), 0o600)
}

func newTestRenderer(runner CommandRunner, opts ...Option) *Renderer {
	base := []Option{
		WithRunner(runner),
		WithChecker(pathChecker("latex", "pdflatex", "dvips", "ps2pdf", "dvisvgm", "gs", "scour")),
		WithLogger(newQuietLogger()),
	}
	return NewRenderer(append(base, opts...)...)
}

func newQuietLogger() *logrus.Logger {
	l, _ := test.NewNullLogger()
	return l
}

func executables(calls []fakeCall) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Name
	}
	return out
}

func TestRenderSVG(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRenderer(runner)
	out := filepath.Join(t.TempDir(), "eq.svg")

	result, err := r.Render(context.Background(), Input{Body: `$\alpha$`, OutputPath: out})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if got := executables(runner.Calls); len(got) != 2 || got[0] != "latex" || got[1] != "dvisvgm" {
		t.Errorf("executables = %v, want [latex dvisvgm]", got)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not delivered: %v", err)
	}
	if string(data) != "dvisvgm" {
		t.Errorf("delivered artifact came from %q, want dvisvgm", data)
	}
	if result.Suffix != SuffixSVG || len(result.Steps) != 2 {
		t.Errorf("Result = %+v", result)
	}
	if result.WorkDir != "" {
		t.Errorf("WorkDir = %q, want empty without KeepIntermediates", result.WorkDir)
	}
	// The private working area must be gone.
	if _, err := os.Stat(runner.Calls[0].Dir); !os.IsNotExist(err) {
		t.Errorf("working area %q not removed", runner.Calls[0].Dir)
	}
}

func TestRenderPDFDefaultRoute(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRenderer(runner)
	out := filepath.Join(t.TempDir(), "doc.pdf")

	result, err := r.Render(context.Background(), Input{Body: "x", OutputPath: out})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := []string{"latex", "dvips", "ps2pdf"}
	got := executables(runner.Calls)
	if len(got) != len(want) {
		t.Fatalf("executables = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("executables = %v, want %v", got, want)
		}
	}
	if result.Variant != "ps2pdf" {
		t.Errorf("Variant = %q, want ps2pdf", result.Variant)
	}
}

func TestRenderNamedFlow(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRenderer(runner)
	out := filepath.Join(t.TempDir(), "doc.pdf")

	result, err := r.Render(context.Background(), Input{Body: "x", OutputPath: out, Flow: "pdflatex"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := executables(runner.Calls); len(got) != 1 || got[0] != "pdflatex" {
		t.Errorf("executables = %v, want [pdflatex]", got)
	}
	if result.Variant != "pdflatex" {
		t.Errorf("Variant = %q", result.Variant)
	}

	_, err = r.Render(context.Background(), Input{Body: "x", OutputPath: out, Flow: "magic"})
	if !errors.Is(err, ErrUnknownFlow) {
		t.Errorf("unknown flow error = %v, want ErrUnknownFlow", err)
	}
}

func TestRenderOptimizeSVG(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRenderer(runner)
	out := filepath.Join(t.TempDir(), "eq.svg")

	result, err := r.Render(context.Background(), Input{Body: "x", OutputPath: out, OptimizeSVG: true})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := executables(runner.Calls); len(got) != 3 || got[2] != "scour" {
		t.Fatalf("executables = %v, want scour last", got)
	}
	// The optimized artifact, not the raw dvisvgm output, must be delivered.
	data, _ := os.ReadFile(out)
	if string(data) != "scour" {
		t.Errorf("delivered artifact came from %q, want scour", data)
	}
	// scour consumes and produces svg, so its output gets a distinct name.
	scourArgs := strings.Join(runner.Calls[2].Args, " ")
	if !strings.Contains(scourArgs, "eq-optimize.svg") {
		t.Errorf("scour output not disambiguated: %v", scourArgs)
	}
	if len(result.Steps) != 3 || result.Steps[2].Step != "optimize" {
		t.Errorf("Steps = %+v", result.Steps)
	}
}

func TestRenderOptimizeIgnoredForNonSVG(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRenderer(runner)
	out := filepath.Join(t.TempDir(), "eq.ps")

	_, err := r.Render(context.Background(), Input{Body: "x", OutputPath: out, OptimizeSVG: true})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for _, name := range executables(runner.Calls) {
		if name == "scour" {
			t.Error("scour ran for a non-svg target")
		}
	}
}

func TestRenderMissingDependency(t *testing.T) {
	runner := &fakeRunner{}
	r := NewRenderer(
		WithRunner(runner),
		WithChecker(pathChecker("latex")), // dvisvgm absent
		WithLogger(newQuietLogger()),
	)
	out := filepath.Join(t.TempDir(), "eq.svg")

	_, err := r.Render(context.Background(), Input{Body: "x", OutputPath: out})
	if !errors.Is(err, ErrMissingDependency) {
		t.Fatalf("Render() error = %v, want ErrMissingDependency", err)
	}
	var mde *MissingDependencyError
	if !errors.As(err, &mde) {
		t.Fatalf("error %T does not expose MissingDependencyError", err)
	}
	if len(mde.Executables) != 1 || mde.Executables[0] != "dvisvgm" {
		t.Errorf("Executables = %v, want [dvisvgm]", mde.Executables)
	}
	// Pre-flight failure means no process ever ran.
	if len(runner.Calls) != 0 {
		t.Errorf("runner was invoked %d times before the gate", len(runner.Calls))
	}
}

func TestRenderInputValidation(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRenderer(runner)
	dir := t.TempDir()

	tests := []struct {
		name string
		in   Input
		want error
	}{
		{"empty body", Input{OutputPath: filepath.Join(dir, "a.svg")}, ErrEmptyBody},
		{"empty output", Input{Body: "x"}, ErrUnsupportedFormat},
		{"no extension", Input{Body: "x", OutputPath: filepath.Join(dir, "a")}, ErrUnsupportedFormat},
		{"tex target", Input{Body: "x", OutputPath: filepath.Join(dir, "a.tex")}, ErrUnsupportedFormat},
		{"unknown format", Input{Body: "x", OutputPath: filepath.Join(dir, "a.xyz")}, ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Render(context.Background(), tt.in); !errors.Is(err, tt.want) {
				t.Errorf("Render() error = %v, want %v", err, tt.want)
			}
		})
	}
	if len(runner.Calls) != 0 {
		t.Errorf("runner was invoked for invalid input")
	}
}

func TestRenderStepFailure(t *testing.T) {
	runner := &fakeRunner{Fail: map[string]stepFailure{
		"dvisvgm": {Err: errors.New("conversion exploded")},
	}}
	r := newTestRenderer(runner)
	out := filepath.Join(t.TempDir(), "eq.svg")

	_, err := r.Render(context.Background(), Input{Body: "x", OutputPath: out})
	if !errors.Is(err, ErrStepExecution) {
		t.Fatalf("Render() error = %v, want ErrStepExecution", err)
	}
	var se *StepError
	if !errors.As(err, &se) {
		t.Fatalf("error %T does not expose StepError", err)
	}
	if se.Step != "svg" {
		t.Errorf("failing step = %q, want svg", se.Step)
	}
	if se.Stderr != "tool reported a problem" {
		t.Errorf("Stderr = %q", se.Stderr)
	}
	// A failed pipeline must not touch the destination.
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("destination file exists after a failed render")
	}
	// The working area is torn down on failure too.
	if _, statErr := os.Stat(runner.Calls[0].Dir); !os.IsNotExist(statErr) {
		t.Errorf("working area %q not removed after a failed render", runner.Calls[0].Dir)
	}
}

func TestRenderOutputWithoutBaseName(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRenderer(runner)
	dir := t.TempDir()

	// A dotfile output has a suffix but an empty stem; accepting it would
	// place intermediates outside the working area.
	_, err := r.Render(context.Background(), Input{Body: "x", OutputPath: filepath.Join(dir, ".svg")})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Render() error = %v, want ErrUnsupportedFormat", err)
	}
	if len(runner.Calls) != 0 {
		t.Errorf("runner was invoked %d times for a rejected output path", len(runner.Calls))
	}
	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if len(entries) != 0 {
		t.Errorf("artifacts leaked into the output directory: %v", entries)
	}
}

func TestRenderEmptyArtifact(t *testing.T) {
	runner := &fakeRunner{Fail: map[string]stepFailure{
		"latex": {SkipArtifact: true},
	}}
	r := newTestRenderer(runner)
	out := filepath.Join(t.TempDir(), "eq.svg")

	_, err := r.Render(context.Background(), Input{Body: "x", OutputPath: out})
	var se *StepError
	if !errors.As(err, &se) {
		t.Fatalf("Render() error = %v, want StepError", err)
	}
	if !strings.Contains(se.Reason, "no output artifact") {
		t.Errorf("Reason = %q", se.Reason)
	}
}

func TestRenderStepTimeout(t *testing.T) {
	runner := &fakeRunner{Fail: map[string]stepFailure{
		"latex": {Block: true},
	}}
	r := newTestRenderer(runner, WithStepTimeout(10*time.Millisecond))
	out := filepath.Join(t.TempDir(), "eq.svg")

	_, err := r.Render(context.Background(), Input{Body: "x", OutputPath: out})
	var se *StepError
	if !errors.As(err, &se) {
		t.Fatalf("Render() error = %v, want StepError", err)
	}
	if !se.Timeout {
		t.Errorf("StepError.Timeout = false, want true: %v", se)
	}
}

func TestRenderCancelledContext(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRenderer(runner)
	out := filepath.Join(t.TempDir(), "eq.svg")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Render(ctx, Input{Body: "x", OutputPath: out})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
}

func TestRenderArgumentsOverride(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRenderer(runner)
	dir := t.TempDir()

	_, err := r.Render(context.Background(), Input{
		Body:       "x",
		OutputPath: filepath.Join(dir, "a.svg"),
		Arguments:  map[string]string{"svg": "--scale=2 {dvi_file} -o {out_file}"},
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	svgCall := runner.Calls[1]
	if svgCall.Args[0] != "--scale=2" {
		t.Errorf("override not applied: %v", svgCall.Args)
	}

	// The override is request-scoped: a second render uses the defaults.
	runner.Calls = nil
	if _, err := r.Render(context.Background(), Input{Body: "x", OutputPath: filepath.Join(dir, "b.svg")}); err != nil {
		t.Fatal(err)
	}
	if runner.Calls[1].Args[0] == "--scale=2" {
		t.Error("request-scoped override leaked into the shared registry")
	}

	_, err = r.Render(context.Background(), Input{
		Body:       "x",
		OutputPath: filepath.Join(dir, "c.svg"),
		Arguments:  map[string]string{"bogus": "-x"},
	})
	if !errors.Is(err, ErrUnknownStep) {
		t.Errorf("unknown override step error = %v, want ErrUnknownStep", err)
	}
}

func TestRenderOverwritesDestination(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRenderer(runner)
	out := filepath.Join(t.TempDir(), "eq.svg")
	if err := os.WriteFile(out, []byte("stale"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Render(context.Background(), Input{Body: "x", OutputPath: out}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	data, _ := os.ReadFile(out)
	if string(data) != "dvisvgm" {
		t.Errorf("destination not overwritten: %q", data)
	}
}

func TestRenderKeepIntermediates(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRenderer(runner)
	out := filepath.Join(t.TempDir(), "eq.svg")

	result, err := r.Render(context.Background(), Input{Body: "x", OutputPath: out, KeepIntermediates: true})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if result.WorkDir == "" {
		t.Fatal("WorkDir empty with KeepIntermediates")
	}
	defer os.RemoveAll(result.WorkDir)

	for _, name := range []string{"eq.tex", "eq.dvi", "eq.svg"} {
		if _, err := os.Stat(filepath.Join(result.WorkDir, name)); err != nil {
			t.Errorf("intermediate %s missing: %v", name, err)
		}
	}
}

func TestRenderCallerWorkDir(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRenderer(runner)
	wd := filepath.Join(t.TempDir(), "scratch")
	out := filepath.Join(t.TempDir(), "eq.svg")

	result, err := r.Render(context.Background(), Input{Body: "x", OutputPath: out, WorkDir: wd})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	// Each request gets its own subdirectory under the supplied parent.
	if filepath.Dir(result.WorkDir) != wd {
		t.Errorf("WorkDir = %q, want a subdirectory of %q", result.WorkDir, wd)
	}
	// A caller-supplied directory survives the request.
	if _, err := os.Stat(filepath.Join(result.WorkDir, "eq.tex")); err != nil {
		t.Errorf("caller working directory was cleaned: %v", err)
	}
}

func TestRenderCallerWorkDirIsolatedPerRequest(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRenderer(runner)
	wd := filepath.Join(t.TempDir(), "scratch")
	dir := t.TempDir()
	for _, sub := range []string{"a", "b"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o750); err != nil {
			t.Fatal(err)
		}
	}

	// Same stem, same WorkDir: the requests must not share artifact paths.
	first, err := r.Render(context.Background(), Input{Body: "x", OutputPath: filepath.Join(dir, "a", "eq.svg"), WorkDir: wd})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	second, err := r.Render(context.Background(), Input{Body: "y", OutputPath: filepath.Join(dir, "b", "eq.svg"), WorkDir: wd})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if first.WorkDir == second.WorkDir {
		t.Fatalf("both requests used working area %q", first.WorkDir)
	}
	for _, area := range []string{first.WorkDir, second.WorkDir} {
		if _, err := os.Stat(filepath.Join(area, "eq.tex")); err != nil {
			t.Errorf("intermediate missing in %q: %v", area, err)
		}
	}
}

func TestRenderReservedParamCollision(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRenderer(runner)
	out := filepath.Join(t.TempDir(), "eq.svg")

	_, err := r.Render(context.Background(), Input{
		Body:       "x",
		OutputPath: out,
		Params:     map[string]string{"body": "boom"},
	})
	if !errors.Is(err, ErrTemplate) {
		t.Errorf("Render() error = %v, want ErrTemplate", err)
	}
}

func TestRenderVerboseLogging(t *testing.T) {
	logger, hook := test.NewNullLogger()
	runner := &fakeRunner{}
	r := NewRenderer(
		WithRunner(runner),
		WithChecker(pathChecker("latex", "dvisvgm")),
		WithLogger(logger),
	)
	out := filepath.Join(t.TempDir(), "eq.svg")

	if _, err := r.Render(context.Background(), Input{Body: "x", OutputPath: out, Verbose: true}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	completed := 0
	for _, e := range hook.AllEntries() {
		if e.Message == "step completed" {
			completed++
			if _, ok := e.Data["step"]; !ok {
				t.Error("step completion entry missing step field")
			}
		}
	}
	if completed != 2 {
		t.Errorf("step completion entries = %d, want 2", completed)
	}
}

func TestRenderDefaultsFromOptions(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRenderer(runner, WithFontSize(20), WithPreamble(`\usepackage{bm}`))
	wd := filepath.Join(t.TempDir(), "wd")
	out := filepath.Join(t.TempDir(), "eq.svg")

	if _, err := r.Render(context.Background(), Input{Body: "x", OutputPath: out, WorkDir: wd}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	src, err := os.ReadFile(filepath.Join(wd, "eq.tex"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(src), "[20pt,preview]") {
		t.Error("renderer fontsize default not applied")
	}
	if !strings.Contains(string(src), `\usepackage{bm}`) {
		t.Error("renderer preamble default not applied")
	}
}
