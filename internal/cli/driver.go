package cli

import (
	"os"

	"github.com/cargounify/cargounify/pkg/errors"
	"github.com/cargounify/cargounify/pkg/featgraph"
	"github.com/cargounify/cargounify/pkg/metadata"
	"github.com/cargounify/cargounify/pkg/target"
)

// nativeTarget describes the build this process is running on. cargo-unify
// never invokes rustc, so it assumes a linux/unix host; --metadata-file
// snapshots captured on other hosts should be paired with a future
// --target/--cfg flag (not yet needed by any caller).
func nativeTarget() target.Info {
	return target.Info{
		Triple: "x86_64-unknown-linux-gnu",
		Cfgs:   []string{"unix", `target_os="linux"`, `target_family="unix"`, `target_pointer_width="64"`, `target_endian="little"`},
	}
}

// loadModel reads the metadata snapshot named by --metadata-file.
func (c *CLI) loadModel() (*metadata.Model, error) {
	if c.metadataFile == "" {
		return nil, errors.New(errors.ErrCodeMetadataInvalid, "--metadata-file is required")
	}
	data, err := os.ReadFile(c.metadataFile)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read metadata file %s", c.metadataFile)
	}
	return metadata.LoadBytes(data)
}

// loadGraph loads the metadata snapshot and builds + optimises its
// FeatGraph, logging the elapsed time of each stage.
func (c *CLI) loadGraph() (*metadata.Model, *featgraph.Graph, error) {
	p := newProgress(c.Logger)
	m, err := c.loadModel()
	if err != nil {
		return nil, nil, err
	}
	p.done("loaded metadata")

	p = newProgress(c.Logger)
	g, err := featgraph.Build(m)
	if err != nil {
		return nil, nil, err
	}
	g.TrimUnusedFeatures()
	g.TransitiveReduce(c.Logger)
	p.done("built feature graph")

	return m, g, nil
}
