package main

import (
	"encoding/json"
	"fmt"
	"io"

	tex2img "github.com/svinagrero/go-tex2img"
)

// runCheckDeps reports toolchain availability and returns an exit code:
// 0 when every executable resolves, 4 otherwise.
func runCheckDeps(args []string, env *Environment) int {
	jsonOutput := false
	for _, arg := range args {
		if arg == "--json" {
			jsonOutput = true
		}
	}

	report := tex2img.NewChecker().CheckAll(tex2img.DefaultRegistry().Steps())

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
	} else {
		printDepsReport(env.Stdout, report)
	}

	for _, a := range report {
		if !a.Found {
			return ExitToolchain
		}
	}
	return ExitSuccess
}

// printDepsReport outputs the human-readable availability report.
func printDepsReport(w io.Writer, report []tex2img.Availability) {
	fmt.Fprintln(w, "tex2img check-deps")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Toolchain")
	missing := 0
	for _, a := range report {
		if a.Found {
			fmt.Fprintf(w, "  [OK] %s (%s): %s\n", a.Step, a.Executable, a.Path)
		} else {
			missing++
			fmt.Fprintf(w, "  [MISSING] %s (%s)\n", a.Step, a.Executable)
		}
		fmt.Fprintf(w, "       runs: %s\n", a.Command)
	}
	fmt.Fprintln(w)

	if missing == 0 {
		fmt.Fprintln(w, "Status: Ready to render")
	} else {
		fmt.Fprintf(w, "Status: Not ready (%d tool(s) missing)\n", missing)
	}
}
