package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cargounify/cargounify/pkg/errors"
	"github.com/cargounify/cargounify/pkg/featgraph"
)

// explainCommand prints the reachability path from Root to the requested
// FID.
func (c *CLI) explainCommand() *cobra.Command {
	var dotPath string

	cmd := &cobra.Command{
		Use:   "explain <crate> [feature] [version]",
		Short: "Print the reachability path from the workspace root to a (crate, feature) node",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			crate, feature, version := positional(args)

			m, g, err := c.loadGraph()
			if err != nil {
				return err
			}

			target, err := resolveFID(m, crate, feature, version)
			if err != nil {
				return err
			}
			targetID, ok := g.Lookup(target)
			if !ok {
				return errors.New(errors.ErrCodeInvalidPackage, "%s is never reachable in this workspace", target)
			}

			path, ok := shortestPath(g, g.RootID(), targetID)
			if !ok {
				printWarning("%s is not reachable from the workspace root", target)
				return nil
			}

			for i, id := range path {
				if id == g.RootID() {
					fmt.Println(StyleDim.Render("Root"))
					continue
				}
				fmt.Println(StyleDim.Render(fmt.Sprintf("%*s", i*2, "")) + StyleHighlight.Render(iconArrow+" ") + g.NodeFID(id).String())
			}

			if dotPath != "" {
				return renderDOT(g, path, dotPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dotPath, "dot", "", "also render the path as an SVG file (via Graphviz) at this path")
	return cmd
}

// shortestPath runs a breadth-first search from root to target over every
// edge regardless of mode, returning the node id path (inclusive of both
// ends) if one exists.
func shortestPath(g *featgraph.Graph, root, target int) ([]int, bool) {
	if root == target {
		return []int{root}, true
	}
	prev := map[int]int{root: -1}
	queue := []int{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, to := range g.Out(id) {
			if _, seen := prev[to]; seen {
				continue
			}
			prev[to] = id
			if to == target {
				var path []int
				for n := to; n != -1; n = prev[n] {
					path = append([]int{n}, path...)
				}
				return path, true
			}
			queue = append(queue, to)
		}
	}
	return nil, false
}
