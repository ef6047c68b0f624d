package cli

import (
	"github.com/spf13/cobra"

	"github.com/cargounify/cargounify/pkg/changeset"
	"github.com/cargounify/cargounify/pkg/errors"
	"github.com/cargounify/cargounify/pkg/manifest"
)

// hackCommand runs the "hack" entry point:
// Collector + Changeset + ManifestEditor run over every workspace member.
func (c *CLI) hackCommand() *cobra.Command {
	var dry, lock, noDev bool

	cmd := &cobra.Command{
		Use:   "hack",
		Short: "Unify per-member feature requests across the workspace and rewrite each member's Cargo.toml",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, g, err := c.loadGraph()
			if err != nil {
				return err
			}

			members, err := changeset.Compute(g, nativeTarget(), noDev)
			if err != nil {
				return err
			}

			anyChanged := false
			for _, mc := range members {
				if len(mc.Changes) == 0 {
					continue
				}
				pkg := m.Package(mc.Member)
				if dry {
					anyChanged = true
					printInfo("%s would change (%d dependency overrides)", pkg.Name, len(mc.Changes))
					continue
				}

				ed, err := manifest.Open(pkg.ManifestPath)
				if err != nil {
					return err
				}
				changed, err := ed.Apply(mc.Changes, lock)
				if err != nil {
					return err
				}
				if changed {
					if err := ed.Save(); err != nil {
						return err
					}
					anyChanged = true
					printSuccess("%s", pkg.Name)
					for _, fc := range mc.Changes {
						printDetail("%s %s %v", fc.Kind, fc.DepName, fc.Features)
					}
				}
			}

			if dry && anyChanged {
				return errors.New(errors.ErrCodeChangesRequired, "one or more members would change")
			}
			if !anyChanged {
				printInfo("workspace already unified, nothing to do")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dry, "dry", false, "compute changes without writing; exit 1 if any member would change")
	cmd.Flags().BoolVar(&lock, "lock", false, "write a checksum lock alongside each edit, for later `check`")
	cmd.Flags().BoolVar(&noDev, "no-dev", false, "skip dev-dependency feature unification")

	return cmd
}
