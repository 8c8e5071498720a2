package main

import (
	"os"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// documentFlags holds document preparation flags.
type documentFlags struct {
	templateFile string
	preambleFile string
	fontsize     int
	params       map[string]string
}

// pipelineFlags holds flow selection and execution flags.
type pipelineFlags struct {
	flow      string
	arguments map[string]string
	optimize  bool
	bg        string
	keep      bool
	workDir   string
	timeout   string
}

// renderFlags holds all flags for the render and watch commands.
type renderFlags struct {
	common   commonFlags
	output   string
	format   string
	workers  int
	document documentFlags
	pipeline pipelineFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "render profile file (YAML)")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show per-step timing")
}

// addDocumentFlags adds document preparation flags to a FlagSet.
func addDocumentFlags(fs *flag.FlagSet, f *documentFlags) {
	fs.StringVar(&f.templateFile, "template-file", "", "document template file")
	fs.StringVar(&f.preambleFile, "preamble-file", "", "document preamble file")
	fs.IntVar(&f.fontsize, "fontsize", 0, "document fontsize in points (0 = default)")
	fs.StringToStringVarP(&f.params, "param", "P", nil, "template parameter (name=value)")
}

// addPipelineFlags adds flow selection and execution flags to a FlagSet.
func addPipelineFlags(fs *flag.FlagSet, f *pipelineFlags) {
	fs.StringVar(&f.flow, "flow", "", "named flow variant (\"\" = default route)")
	fs.StringToStringVarP(&f.arguments, "arguments", "A", nil, "step argument override (step=args)")
	fs.BoolVar(&f.optimize, "optimize", false, "optimize SVG output with scour")
	fs.StringVar(&f.bg, "bg", "", "background color for SVG output (hex or named)")
	fs.BoolVar(&f.keep, "keep", false, "keep intermediate artifacts")
	fs.StringVar(&f.workDir, "dir", "", "parent directory for working areas (\"\" = private temp dir)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-step timeout (e.g. 30s, 2m)")
}

// parseRenderFlags parses render command flags and returns positional args.
func parseRenderFlags(args []string) (*renderFlags, []string, error) {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	f := &renderFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output file, or directory for batches")
	fs.StringVarP(&f.format, "format", "f", "", "output format when -o is not a file (default svg)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers for batches (0 = auto)")

	addCommonFlags(fs, &f.common)
	addDocumentFlags(fs, &f.document)
	addPipelineFlags(fs, &f.pipeline)

	fs.Usage = func() { printRenderUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
