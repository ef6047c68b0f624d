// Package cli implements the cargo-unify command-line interface.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cargounify/cargounify/pkg/buildinfo"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "cargo-unify"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	metadataFile  string
	workspaceRoot string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "cargo-unify",
		Short:        "cargo-unify unifies per-member feature requests across a cargo workspace",
		Long:         `cargo-unify reads a cargo metadata snapshot, computes each workspace member's feature-unification diff against the whole workspace, and writes (or verifies, or restores) the resulting dependency overrides in each member's Cargo.toml.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.metadataFile, "metadata-file", "", "path to a pre-captured `cargo metadata --format-version 1` JSON document (required; invoking cargo itself is out of scope)")
	root.PersistentFlags().StringVar(&c.workspaceRoot, "workspace-root", ".", "workspace root directory, used to resolve relative manifest paths")

	root.AddCommand(c.hackCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.restoreCommand())
	root.AddCommand(c.explainCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.dupesCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.mergeCommand())
	root.AddCommand(c.completionCommand())

	return root
}
