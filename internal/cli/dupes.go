package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cargounify/cargounify/pkg/metadata"
)

// dupesCommand lists crate names with ≥2 distinct resolved versions
// reachable in the workspace, the same grouping Changeset computes for
// rename detection, exposed read-only.
func (c *CLI) dupesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dupes",
		Short: "List crate names with more than one resolved version in the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := c.loadGraph()
			if err != nil {
				return err
			}

			byName := map[string][]string{} // canonical name -> versions
			for _, pkg := range m.Packages() {
				key := metadata.CanonicalName(pkg.Name)
				byName[key] = append(byName[key], pkg.Version)
			}

			names := make([]string, 0, len(byName))
			for name, versions := range byName {
				if len(dedupe(versions)) >= 2 {
					names = append(names, name)
				}
			}
			sort.Strings(names)

			if len(names) == 0 {
				printInfo("no duplicate crate versions in this workspace")
				return nil
			}
			for _, name := range names {
				versions := dedupe(byName[name])
				sort.Strings(versions)
				fmt.Println(StyleHighlight.Render(name) + " " + StyleDim.Render(fmt.Sprintf("(%v)", versions)))
			}
			return nil
		},
	}
	return cmd
}

func dedupe(versions []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range versions {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
