package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	colors "gopkg.in/go-playground/colors.v1"

	tex2img "github.com/svinagrero/go-tex2img"
	"github.com/svinagrero/go-tex2img/internal/config"
	"github.com/svinagrero/go-tex2img/internal/fileutil"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrReadInput          = errors.New("failed to read input file")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrInvalidColor       = errors.New("invalid background color")
	ErrOutputConflict     = errors.New("output path conflicts with inputs")
)

// MaxWorkers bounds the batch concurrency; each worker drives a full
// toolchain process chain.
const MaxWorkers = 32

const dirPermissions = 0o750 // rwxr-x---: owner full, group read+execute

// renderJob is one fragment to render. An empty InputPath means stdin.
type renderJob struct {
	InputPath  string
	OutputPath string
}

// renderResult holds the outcome of a single render.
type renderResult struct {
	Job      renderJob
	Result   *tex2img.Result
	Err      error
	Duration time.Duration
}

// renderSettings bundles everything a render or watch session needs: the
// configured renderer and the request prototype shared by all jobs.
type renderSettings struct {
	renderer *tex2img.Renderer
	proto    tex2img.Input
	workers  int
	quiet    bool
	verbose  bool
}

// runRender orchestrates the render command.
func runRender(ctx context.Context, args []string, env *Environment) error {
	flags, files, err := parseRenderFlags(args)
	if err != nil {
		return err
	}

	settings, err := buildSettings(flags)
	if err != nil {
		return err
	}

	jobs, err := resolveJobs(files, flags.output, flags.format)
	if err != nil {
		return err
	}

	results := renderBatch(ctx, settings, jobs, env)

	failed := printResults(results, settings.quiet, settings.verbose, env)
	if failed > 0 {
		for _, r := range results {
			if r.Err != nil {
				return fmt.Errorf("%d render(s) failed: %w", failed, r.Err)
			}
		}
	}
	return nil
}

// buildSettings merges flags over the config profile and constructs the
// renderer. CLI values override config values; zero values defer to the
// library defaults.
func buildSettings(flags *renderFlags) (*renderSettings, error) {
	if err := validateWorkers(flags.workers); err != nil {
		return nil, err
	}

	cfg := config.Default()
	if flags.common.config != "" {
		loaded, err := config.Load(flags.common.config)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	mergeFlags(flags, cfg)

	template, err := readOptionalFile(cfg.TemplateFile)
	if err != nil {
		return nil, err
	}
	preamble, err := readOptionalFile(cfg.PreambleFile)
	if err != nil {
		return nil, err
	}

	timeout, err := cfg.StepTimeout()
	if err != nil {
		return nil, err
	}

	arguments, err := applyBackground(cfg.Arguments, flags.pipeline.bg)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	switch {
	case flags.common.quiet:
		logger.SetLevel(logrus.ErrorLevel)
	case flags.common.verbose:
		logger.SetLevel(logrus.DebugLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	opts := []tex2img.Option{
		tex2img.WithLogger(logger),
		tex2img.WithTemplate(template),
		tex2img.WithPreamble(preamble),
		tex2img.WithFontSize(cfg.FontSize),
		tex2img.WithParams(cfg.Params),
	}
	if timeout > 0 {
		opts = append(opts, tex2img.WithStepTimeout(timeout))
	}

	return &renderSettings{
		renderer: tex2img.NewRenderer(opts...),
		proto: tex2img.Input{
			Arguments:         arguments,
			Flow:              flags.pipeline.flow,
			OptimizeSVG:       cfg.Optimize,
			Verbose:           flags.common.verbose,
			KeepIntermediates: cfg.Keep,
			WorkDir:           cfg.WorkDir,
		},
		workers: resolveWorkers(flags.workers),
		quiet:   flags.common.quiet,
		verbose: flags.common.verbose,
	}, nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *renderFlags, cfg *config.Config) {
	if flags.document.templateFile != "" {
		cfg.TemplateFile = flags.document.templateFile
	}
	if flags.document.preambleFile != "" {
		cfg.PreambleFile = flags.document.preambleFile
	}
	if flags.document.fontsize != 0 {
		cfg.FontSize = flags.document.fontsize
	}
	for name, value := range flags.document.params {
		if cfg.Params == nil {
			cfg.Params = make(map[string]string)
		}
		cfg.Params[name] = value
	}
	for step, args := range flags.pipeline.arguments {
		if cfg.Arguments == nil {
			cfg.Arguments = make(map[string]string)
		}
		cfg.Arguments[step] = args
	}
	if flags.pipeline.optimize {
		cfg.Optimize = true
	}
	if flags.pipeline.keep {
		cfg.Keep = true
	}
	if flags.pipeline.workDir != "" {
		cfg.WorkDir = flags.pipeline.workDir
	}
	if flags.pipeline.timeout != "" {
		cfg.Timeout = flags.pipeline.timeout
	}
}

// applyBackground validates the --bg color and folds it into the svg step's
// argument template. An explicit svg override wins over the convenience flag.
func applyBackground(arguments map[string]string, bg string) (map[string]string, error) {
	if bg == "" {
		return arguments, nil
	}
	color, err := colors.Parse(bg)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidColor, bg, err)
	}
	if _, overridden := arguments["svg"]; overridden {
		return arguments, nil
	}

	merged := make(map[string]string, len(arguments)+1)
	for k, v := range arguments {
		merged[k] = v
	}
	merged["svg"] = "--exact-bbox --no-fonts --bgcolor=" + color.ToHEX().String() + " {dvi_file} -o {out_file}"
	return merged, nil
}

// readOptionalFile returns the file's content, or "" when path is empty.
func readOptionalFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided path
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrReadInput, path, err)
	}
	return string(data), nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > MaxWorkers {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, MaxWorkers)
	}
	return nil
}

// resolveWorkers determines the batch concurrency.
// Priority: explicit flag > GOMAXPROCS-based calculation, capped at 8.
func resolveWorkers(flagWorkers int) int {
	if flagWorkers > 0 {
		return flagWorkers
	}
	n := runtime.GOMAXPROCS(0) / 2
	if n < 1 {
		return 1
	}
	if n > 8 {
		return 8
	}
	return n
}

// resolveJobs pairs each input with its output path. With no inputs the
// fragment comes from stdin and --output must name the destination file.
// A multi-file batch writes either next to each input or into the --output
// directory, named <stem>.<format>; two inputs mapping to the same output
// path are rejected.
func resolveJobs(files []string, output, format string) ([]renderJob, error) {
	outputIsFile := isRenderTarget(output)

	if format == "" {
		format = tex2img.SuffixSVG
	}

	if len(files) == 0 {
		if !outputIsFile {
			return nil, fmt.Errorf("%w: reading stdin requires --output with a file extension", ErrNoInput)
		}
		return []renderJob{{OutputPath: output}}, nil
	}

	if len(files) == 1 && outputIsFile {
		return []renderJob{{InputPath: files[0], OutputPath: output}}, nil
	}
	if outputIsFile {
		return nil, fmt.Errorf("%w: %q names a single file but %d inputs were given", ErrOutputConflict, output, len(files))
	}

	jobs := make([]renderJob, len(files))
	seen := make(map[string]string, len(files))
	for i, in := range files {
		name := fileutil.Stem(in) + "." + format
		dir := output
		if dir == "" {
			dir = filepath.Dir(in)
		}
		out := filepath.Join(dir, name)
		if prev, dup := seen[out]; dup {
			return nil, fmt.Errorf("%w: %q and %q both write %q", ErrOutputConflict, prev, in, out)
		}
		seen[out] = in
		jobs[i] = renderJob{InputPath: in, OutputPath: out}
	}
	return jobs, nil
}

// isRenderTarget reports whether path ends in a supported output extension.
func isRenderTarget(path string) bool {
	suffix := fileutil.Suffix(path)
	if suffix == "" {
		return false
	}
	for _, s := range tex2img.SupportedSuffixes() {
		if s == suffix {
			return true
		}
	}
	return false
}

// renderBatch processes jobs concurrently, bounded by the worker count.
// Individual failures are collected rather than aborting the batch.
func renderBatch(ctx context.Context, settings *renderSettings, jobs []renderJob, env *Environment) []renderResult {
	results := make([]renderResult, len(jobs))

	var g errgroup.Group
	g.SetLimit(settings.workers)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = renderResult{Job: job, Err: ctx.Err()}
				return nil
			}
			results[i] = renderOne(ctx, settings, job, env)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// renderOne reads one fragment and runs it through the pipeline.
func renderOne(ctx context.Context, settings *renderSettings, job renderJob, env *Environment) renderResult {
	start := time.Now()
	result := renderResult{Job: job}

	body, err := readBody(job.InputPath, env)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	if dir := filepath.Dir(job.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			result.Err = fmt.Errorf("creating output directory: %w", err)
			result.Duration = time.Since(start)
			return result
		}
	}

	in := settings.proto
	in.Body = body
	in.OutputPath = job.OutputPath

	result.Result, result.Err = settings.renderer.Render(ctx, in)
	result.Duration = time.Since(start)
	return result
}

// readBody loads the TeX fragment from a file, or stdin when path is empty.
func readBody(path string, env *Environment) (string, error) {
	if path == "" {
		data, err := io.ReadAll(env.Stdin)
		if err != nil {
			return "", fmt.Errorf("%w: stdin: %v", ErrReadInput, err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided path
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadInput, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// printResults outputs render results and returns the failure count.
func printResults(results []renderResult, quiet, verbose bool, env *Environment) int {
	var succeeded, failed int

	for _, r := range results {
		if r.Err != nil {
			failed++
			name := r.Job.InputPath
			if name == "" {
				name = "<stdin>"
			}
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", name, r.Err)
			continue
		}

		succeeded++
		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s [%s] (%v)\n",
				displayName(r.Job.InputPath), r.Result.OutputPath, r.Result.Variant,
				r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.Result.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", succeeded, failed)
	}

	return failed
}

func displayName(inputPath string) string {
	if inputPath == "" {
		return "<stdin>"
	}
	return inputPath
}
