package main

import (
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	tex2img "github.com/svinagrero/go-tex2img"
)

// runFlowGraph writes the conversion graph in DOT format.
func runFlowGraph(args []string, env *Environment) error {
	fs := flag.NewFlagSet("flow-graph", flag.ContinueOnError)
	output := fs.StringP("output", "o", "", "write DOT to a file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var w io.Writer = env.Stdout
	if *output != "" {
		f, err := os.Create(*output) // #nosec G304 -- user-provided path
		if err != nil {
			return fmt.Errorf("creating %s: %w", *output, err)
		}
		defer f.Close()
		w = f
	}

	return tex2img.WriteFlowGraph(tex2img.DefaultRegistry(), w)
}
