package cli

import (
	"fmt"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cargounify/cargounify/pkg/errors"
	"github.com/cargounify/cargounify/pkg/featgraph"
)

// treeCommand prints the feature reachability subtree rooted at a crate,
// or the whole workspace if no crate is given.
func (c *CLI) treeCommand() *cobra.Command {
	var dotPath string
	var interactive bool

	cmd := &cobra.Command{
		Use:   "tree [crate] [feature] [version]",
		Short: "Print the feature reachability subtree rooted at a crate (or the whole workspace)",
		Args:  cobra.RangeArgs(0, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			crate, feature, version := positional(args)

			m, g, err := c.loadGraph()
			if err != nil {
				return err
			}

			root := g.RootID()
			if crate != "" {
				fid, err := resolveFID(m, crate, feature, version)
				if err != nil {
					return err
				}
				id, ok := g.Lookup(fid)
				if !ok {
					return errors.New(errors.ErrCodeInvalidPackage, "%s is never reachable in this workspace", fid)
				}
				root = id
			}

			nodes := reachableFrom(g, root)

			if interactive {
				model := newTreeModel(g, root, nodes)
				p := tea.NewProgram(model)
				_, err := p.Run()
				return err
			}

			printSubtree(g, root, nodes, map[int]bool{}, 0)

			if dotPath != "" {
				return renderTree(g, nodes, dotPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dotPath, "dot", "", "also render the subtree as an SVG file (via Graphviz) at this path")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "browse the subtree interactively instead of printing it")
	return cmd
}

// reachableFrom returns every node id reachable from root over any edge,
// including root itself, sorted.
func reachableFrom(g *featgraph.Graph, root int) []int {
	seen := map[int]bool{root: true}
	queue := []int{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, to := range g.Out(id) {
			if seen[to] {
				continue
			}
			seen[to] = true
			queue = append(queue, to)
		}
	}
	out := make([]int, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func printSubtree(g *featgraph.Graph, id int, include []int, printed map[int]bool, depth int) {
	if printed[id] {
		return
	}
	printed[id] = true

	label := "Root"
	if id != g.RootID() {
		label = g.NodeFID(id).String()
	}
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	fmt.Println(indent + StyleHighlight.Render(label))

	includeSet := make(map[int]bool, len(include))
	for _, n := range include {
		includeSet[n] = true
	}
	for _, to := range g.Out(id) {
		if includeSet[to] {
			printSubtree(g, to, include, printed, depth+1)
		}
	}
}
