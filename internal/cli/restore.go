package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cargounify/cargounify/pkg/manifest"
)

// restoreCommand is the inverse of the hack edit. With no path arguments,
// every workspace member's manifest is restored.
func (c *CLI) restoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore [path...]",
		Short: "Undo cargo-unify's edits, restoring each manifest's pre-hack dependency tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			if len(paths) == 0 {
				m, err := c.loadModel()
				if err != nil {
					return err
				}
				for _, pid := range m.WorkspaceMembers() {
					paths = append(paths, m.Package(pid).ManifestPath)
				}
			}

			for _, p := range paths {
				if !filepath.IsAbs(p) {
					p = filepath.Join(c.workspaceRoot, p)
				}
				if err := c.restoreOne(p); err != nil {
					return err
				}
			}
			return nil
		},
	}
	return cmd
}

func (c *CLI) restoreOne(path string) error {
	ed, err := manifest.Open(path)
	if err != nil {
		return err
	}
	if !ed.Dirty() {
		printInfo("%s already restored", path)
		return nil
	}
	if err := ed.Restore(); err != nil {
		return err
	}
	if err := ed.Save(); err != nil {
		return err
	}
	printSuccess("%s", path)
	return nil
}
