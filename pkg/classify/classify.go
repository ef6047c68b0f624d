// Package classify implements the SourceClassifier: reducing a
// dependency edge to a (name, version, origin) triple, and the feature-list
// optimisation that drops requested features implied by other requested
// features.
package classify

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/cargounify/cargounify/pkg/errors"
	"github.com/cargounify/cargounify/pkg/metadata"
)

// OriginKind enumerates where a resolved package came from.
type OriginKind int

const (
	OriginRegistry OriginKind = iota
	OriginGit
	OriginPath
)

// Origin is the classified source of a dependency.
type Origin struct {
	Kind OriginKind

	Version string // OriginRegistry
	URL     string // OriginGit
	Ref     string // OriginGit, the fragment after '#', if any
	Path    string // OriginPath, relative to the importer's manifest dir when possible
}

// Classify reduces importee's source (as seen from importer) to an Origin.
// crates.io registries classify as OriginRegistry; "git+" sources as
// OriginGit; a "path+file:" source repr is rejected outright
// (UnsupportedSource); a nil source means a local path dependency, whose
// relative path is computed from importer's manifest directory.
func Classify(m *metadata.Model, importer, importee metadata.PID) (Origin, error) {
	importeePkg := m.Package(importee)

	if importeePkg.Source == nil {
		return classifyPath(m, importer, importee)
	}

	repr := *importeePkg.Source
	switch {
	case strings.Contains(repr, "crates.io"):
		return Origin{Kind: OriginRegistry, Version: importeePkg.Version}, nil
	case strings.HasPrefix(repr, "git+"):
		rest := strings.TrimPrefix(repr, "git+")
		url, ref, _ := strings.Cut(rest, "#")
		return Origin{Kind: OriginGit, URL: url, Ref: ref}, nil
	case strings.HasPrefix(repr, "path+file:"):
		return Origin{}, errors.New(errors.ErrCodeUnsupportedSource,
			"dependency %s has an unsupported path+file source", importeePkg.Name)
	default:
		return Origin{}, errors.New(errors.ErrCodeUnsupportedSource,
			"dependency %s has an unrecognised source %q", importeePkg.Name, repr)
	}
}

func classifyPath(m *metadata.Model, importer, importee metadata.PID) (Origin, error) {
	importerPkg := m.Package(importer)
	importeePkg := m.Package(importee)

	rel, err := filepath.Rel(importerPkg.ManifestDir, importeePkg.ManifestDir)
	if err != nil {
		// Fall back to the absolute path.
		return Origin{Kind: OriginPath, Path: importeePkg.ManifestDir}, nil
	}
	return Origin{Kind: OriginPath, Path: filepath.ToSlash(rel)}, nil
}

// OptimizeFeatures implements the feature-list optimisation:
// drop any requested feature x that is transitively implied by another
// requested feature y through y's own declared feature-deps.
func OptimizeFeatures(importeeFeatures map[string][]string, requested []string) []string {
	implied := map[string]bool{}
	for _, y := range requested {
		seen := map[string]bool{y: true}
		stack := []string{y}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, dep := range importeeFeatures[cur] {
				if name, ok := namedFeatureDep(dep); ok && !seen[name] {
					seen[name] = true
					implied[name] = true
					stack = append(stack, name)
				}
			}
		}
	}

	out := make([]string, 0, len(requested))
	for _, f := range requested {
		if !implied[f] {
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

// namedFeatureDep reports whether raw (one entry of a feature's declared
// dependency list) is a plain `Named` feature-target — the only shape that
// can imply another requested feature.
func namedFeatureDep(raw string) (string, bool) {
	if strings.HasPrefix(raw, "dep:") {
		return "", false
	}
	if strings.Contains(raw, "/") {
		return "", false
	}
	return raw, true
}
