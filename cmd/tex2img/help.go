package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tex2img <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  render      Render TeX fragments to images")
	fmt.Fprintln(w, "  watch       Re-render fragments when their files change")
	fmt.Fprintln(w, "  check-deps  Report toolchain availability")
	fmt.Fprintln(w, "  flow-graph  Print the conversion graph in DOT format")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'tex2img help <command>' for details on a specific command.")
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tex2img render [flags] [file...]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render TeX fragments to images. Each file holds one fragment; with no")
	fmt.Fprintln(w, "files the fragment is read from stdin. The output format is selected by")
	fmt.Fprintln(w, "the extension of --output, or by --format when --output is a directory.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Formats: ps, eps, pdf, svg, png, jpg, tiff")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>        Output file, or directory for batches")
	fmt.Fprintln(w, "  -f, --format <s>           Output format when -o is not a file (default svg)")
	fmt.Fprintln(w, "  -c, --config <path>        Render profile file (YAML)")
	fmt.Fprintln(w, "  -w, --workers <n>          Parallel workers for batches (0 = auto)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Document:")
	fmt.Fprintln(w, "      --template-file <path> Document template file")
	fmt.Fprintln(w, "      --preamble-file <path> Document preamble file")
	fmt.Fprintln(w, "      --fontsize <n>         Fontsize in points (0 = default)")
	fmt.Fprintln(w, "  -P, --param <name=value>   Extra template parameter (repeatable)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Pipeline:")
	fmt.Fprintln(w, "      --flow <name>          Named flow variant (e.g. pdflatex)")
	fmt.Fprintln(w, "  -A, --arguments <step=args> Override a step's command arguments")
	fmt.Fprintln(w, "      --optimize             Optimize SVG output with scour")
	fmt.Fprintln(w, "      --bg <color>           Background color for SVG output")
	fmt.Fprintln(w, "      --keep                 Keep intermediate artifacts")
	fmt.Fprintln(w, "      --dir <path>           Parent directory for working areas")
	fmt.Fprintln(w, "  -t, --timeout <d>          Per-step timeout (e.g. 30s, 2m)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet                Only show errors")
	fmt.Fprintln(w, "  -v, --verbose              Show per-step timing")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "render":
		printRenderUsage(env.Stdout)
	case "watch":
		fmt.Fprintln(env.Stdout, "Usage: tex2img watch [flags] <file...>")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Render the given fragment files, then re-render each one whenever it")
		fmt.Fprintln(env.Stdout, "changes. Accepts the same flags as render; stdin is not supported.")
	case "check-deps":
		fmt.Fprintln(env.Stdout, "Usage: tex2img check-deps [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Report which toolchain executables are installed, with the example")
		fmt.Fprintln(env.Stdout, "command line each pipeline step would run.")
	case "flow-graph":
		fmt.Fprintln(env.Stdout, "Usage: tex2img flow-graph [-o file]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Print the conversion graph in DOT format, suitable for Graphviz.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: tex2img version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: tex2img help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
