package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/cargounify/cargounify/pkg/errors"
	"github.com/cargounify/cargounify/pkg/featgraph"
)

// renderDOT writes an SVG rendering of the given node-id path through g to
// outPath, via goccy/go-graphviz — the out-of-core-scope rendering
// collaborator used to visualize the graph.
func renderDOT(g *featgraph.Graph, path []int, outPath string) error {
	return renderNodes(g, path, outPath)
}

// renderTree writes an SVG rendering of every node id in nodes to outPath,
// connecting each node to its graph successors that are also in the set.
func renderTree(g *featgraph.Graph, nodes []int, outPath string) error {
	return renderNodes(g, nodes, outPath)
}

func renderNodes(g *featgraph.Graph, nodes []int, outPath string) error {
	include := make(map[int]bool, len(nodes))
	for _, id := range nodes {
		include[id] = true
	}

	var b strings.Builder
	b.WriteString("digraph unify {\n")
	b.WriteString("  rankdir=LR;\n")
	for _, id := range nodes {
		b.WriteString(fmt.Sprintf("  n%d [label=%q];\n", id, nodeLabel(g, id)))
	}
	for _, id := range nodes {
		for _, to := range g.Out(id) {
			if !include[to] {
				continue
			}
			b.WriteString(fmt.Sprintf("  n%d -> n%d;\n", id, to))
		}
	}
	b.WriteString("}\n")

	gv := graphviz.New()
	defer gv.Close()

	graph, err := graphviz.ParseBytes([]byte(b.String()))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "parse generated DOT source")
	}
	defer graph.Close()

	if err := gv.RenderFilename(graph, graphviz.SVG, outPath); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "render graph to %s", outPath)
	}
	return nil
}

func nodeLabel(g *featgraph.Graph, id int) string {
	if id == g.RootID() {
		return "Root"
	}
	return strconv.Itoa(id) + " " + g.NodeFID(id).String()
}
