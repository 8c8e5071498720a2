package tex2img

import (
	"io"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"github.com/pkg/errors"
)

// FlowGraph builds a directed graph of the conversion routes a registry
// offers: vertices are artifact suffixes, edges are the registered steps
// labelled with the tool that performs them.
func FlowGraph(reg *Registry) (graph.Graph[string, string], error) {
	g := graph.New(graph.StringHash, graph.Directed())

	if err := g.AddVertex(SuffixTeX); err != nil {
		return nil, errors.Wrap(err, "unable to add source vertex")
	}

	for _, step := range reg.Steps() {
		if err := g.AddVertex(step.Consumes); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, errors.Wrapf(err, "unable to add vertex %s", step.Consumes)
		}
		if err := g.AddVertex(step.Produces); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, errors.Wrapf(err, "unable to add vertex %s", step.Produces)
		}

		err := g.AddEdge(step.Consumes, step.Produces,
			graph.EdgeAttribute("label", step.Name+" ("+step.Executable+")"),
		)
		if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return nil, errors.Wrapf(err, "unable to add edge from %s to %s", step.Consumes, step.Produces)
		}
	}

	return g, nil
}

// WriteFlowGraph renders the conversion graph in DOT format, suitable for
// Graphviz.
func WriteFlowGraph(reg *Registry, w io.Writer) error {
	g, err := FlowGraph(reg)
	if err != nil {
		return err
	}
	if err := draw.DOT(g, w); err != nil {
		return errors.Wrap(err, "unable to render dot output")
	}
	return nil
}
