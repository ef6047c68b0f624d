package cli

import (
	"github.com/spf13/cobra"

	"github.com/cargounify/cargounify/pkg/changeset"
	"github.com/cargounify/cargounify/pkg/errors"
	"github.com/cargounify/cargounify/pkg/manifest"
)

// checkCommand recomputes the expected changeset and compares it against
// each member's current manifest without writing anything.
func (c *CLI) checkCommand() *cobra.Command {
	var noDev bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify every member's Cargo.toml already reflects the unified feature set",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, g, err := c.loadGraph()
			if err != nil {
				return err
			}

			members, err := changeset.Compute(g, nativeTarget(), noDev)
			if err != nil {
				return err
			}

			stale := false
			checksumBad := false
			for _, mc := range members {
				pkg := m.Package(mc.Member)

				ed, err := manifest.Open(pkg.ManifestPath)
				if err != nil {
					return err
				}
				if err := ed.Verify(); err != nil {
					if errors.GetCode(err) == errors.ErrCodeChecksumMismatch {
						printError("%s: %s", pkg.Name, errors.UserMessage(err))
						checksumBad = true
						continue
					}
					return err
				}

				changed, err := ed.Apply(mc.Changes, false)
				if err != nil {
					return err
				}
				if changed {
					printWarning("%s: stash does not match the current feature unification", pkg.Name)
					stale = true
					continue
				}
				printSuccess("%s", pkg.Name)
			}

			if checksumBad {
				return errors.New(errors.ErrCodeChecksumMismatch, "one or more members' locked dependency tables changed since `cargo-unify hack --lock`")
			}
			if stale {
				return errors.New(errors.ErrCodeChangesRequired, "one or more members need `cargo-unify hack`")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noDev, "no-dev", false, "skip dev-dependency feature unification")
	return cmd
}
