package cli

import (
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/cargounify/cargounify/pkg/errors"
)

// mergeCommand is a git merge-driver
// shim. It restores all three inputs to their pre-hack form (so the
// three-way diff never fights cargo-unify's own synthetic entries) and
// shells out to `git merge-file`, the out-of-core-scope external
// collaborator the actual three-way merge is delegated to.
func (c *CLI) mergeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge BASE LOCAL REMOTE RESULT",
		Short: "Git merge driver: restore all three inputs, then delegate the three-way merge to git merge-file",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, local, remote, result := args[0], args[1], args[2], args[3]

			for _, p := range []string{base, local, remote} {
				if err := c.restoreOne(p); err != nil {
					return err
				}
			}

			merge := exec.Command("git", "merge-file", "-p", local, base, remote)
			out, err := merge.Output()

			writeErr := os.WriteFile(result, out, 0o644)
			if writeErr != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, writeErr, "write merge result to %s", result)
			}

			if err != nil {
				if exitErr, ok := err.(*exec.ExitError); ok {
					os.Exit(exitErr.ExitCode())
				}
				return errors.Wrap(errors.ErrCodeInternal, err, "git merge-file")
			}
			return nil
		},
	}
	return cmd
}
