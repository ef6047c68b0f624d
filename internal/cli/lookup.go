package cli

import (
	"github.com/cargounify/cargounify/pkg/errors"
	"github.com/cargounify/cargounify/pkg/featgraph"
	"github.com/cargounify/cargounify/pkg/metadata"
)

// resolveFID resolves the <crate> [feature] [version] positional args used
// by `explain` and `tree` to a concrete FID: crate name (cargo
// name-equivalence rules apply), an optional feature name (Base node if
// omitted), and an optional version string to disambiguate a workspace
// with multiple resolved versions of the same crate name.
func resolveFID(m *metadata.Model, crate, feature, version string) (featgraph.FID, error) {
	candidates := m.PackagesByName(crate)
	if len(candidates) == 0 {
		return featgraph.FID{}, errors.New(errors.ErrCodeInvalidPackage, "no package named %q in this workspace", crate)
	}

	pid := candidates[0]
	if version != "" {
		found := false
		for _, c := range candidates {
			if m.Package(c).Version == version {
				pid, found = c, true
				break
			}
		}
		if !found {
			return featgraph.FID{}, errors.New(errors.ErrCodeInvalidPackage, "package %q has no resolved version %q", crate, version)
		}
	} else if len(candidates) > 1 {
		return featgraph.FID{}, errors.New(errors.ErrCodeInvalidPackage,
			"package %q has %d resolved versions in this workspace; pass a version to disambiguate", crate, len(candidates))
	}

	tag := featgraph.BaseTag()
	if feature != "" {
		tag = featgraph.NamedTag(feature)
	}
	return featgraph.FID{PID: pid, Tag: tag}, nil
}

// positional pulls up to 3 optional positional args (crate, feature,
// version), defaulting missing ones to "".
func positional(args []string) (crate, feature, version string) {
	if len(args) > 0 {
		crate = args[0]
	}
	if len(args) > 1 {
		feature = args[1]
	}
	if len(args) > 2 {
		version = args[2]
	}
	return
}
