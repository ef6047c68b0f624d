package metadata

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/cargounify/cargounify/pkg/errors"
)

// PID is a stable small integer index into a Model's package list. Equality
// and ordering are by index; a PID never owns strings and is meaningless
// without the Model it was produced from.
type PID int

// Package is the model's view of one resolved crate: its identity plus the
// raw dependency and feature declarations needed to build the feature
// graph. Source is nil for local path dependencies.
type Package struct {
	PID          PID
	ID           string
	Name         string
	Version      string
	Source       *string
	ManifestDir  string
	ManifestPath string
	Features     map[string][]string
	Dependencies []Dependency
}

// HasDefaultFeature reports whether the package declares a "default"
// feature; FeatGraph construction uses this to decide a member's root FID.
func (p *Package) HasDefaultFeature() bool {
	_, ok := p.Features["default"]
	return ok
}

// Model wraps a decoded cargo metadata snapshot with stable PIDs,
// workspace-membership, and name-based lookup.
type Model struct {
	packages  []Package
	byID      map[string]PID
	byName    map[string][]PID // canonical name -> PIDs, all versions
	members   map[PID]bool
	resolve   map[string]resolveNode // package id -> resolve node
	rootID    string
}

// Load decodes a cargo metadata JSON document from r and builds a Model.
// Returns a *errors.Error with ErrCodeMetadataInvalid if "resolve" is
// missing: the model assumes resolve.nodes is always present (cargo always
// emits it unless --no-deps was passed upstream, which is not a supported
// mode here).
func Load(r io.Reader) (*Model, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMetadataInvalid, err, "decode cargo metadata")
	}
	return build(snap)
}

// LoadBytes is a convenience wrapper around Load for in-memory snapshots
// (used heavily by tests and by --metadata-file).
func LoadBytes(data []byte) (*Model, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMetadataInvalid, err, "decode cargo metadata")
	}
	return build(snap)
}

func build(snap Snapshot) (*Model, error) {
	if snap.Resolve == nil {
		return nil, errors.New(errors.ErrCodeMetadataInvalid, "metadata snapshot has no resolve graph")
	}

	m := &Model{
		byID:    make(map[string]PID, len(snap.Packages)),
		byName:  make(map[string][]PID),
		members: make(map[PID]bool, len(snap.WorkspaceMembers)),
		resolve: make(map[string]resolveNode, len(snap.Resolve.Nodes)),
	}

	m.packages = make([]Package, len(snap.Packages))
	for i, rp := range snap.Packages {
		pid := PID(i)
		m.packages[i] = Package{
			PID:          pid,
			ID:           rp.ID,
			Name:         rp.Name,
			Version:      rp.Version,
			Source:       rp.Source,
			ManifestDir:  manifestDir(rp.ManifestPath),
			ManifestPath: rp.ManifestPath,
			Features:     rp.Features,
			Dependencies: rp.Dependencies,
		}
		m.byID[rp.ID] = pid
		key := CanonicalName(rp.Name)
		m.byName[key] = append(m.byName[key], pid)
	}

	for _, id := range snap.WorkspaceMembers {
		if pid, ok := m.byID[id]; ok {
			m.members[pid] = true
		}
	}

	for _, n := range snap.Resolve.Nodes {
		m.resolve[n.ID] = n
	}
	if snap.Resolve.Root != nil {
		m.rootID = *snap.Resolve.Root
	}

	return m, nil
}

func manifestDir(manifestPath string) string {
	idx := strings.LastIndexAny(manifestPath, `/\`)
	if idx < 0 {
		return "."
	}
	return manifestPath[:idx]
}

// Packages returns every package in the snapshot, indexed by PID.
func (m *Model) Packages() []Package { return m.packages }

// Package returns the package at pid. Panics if pid is out of range, since
// a PID is only ever produced by this Model and should never be invalid.
func (m *Model) Package(pid PID) *Package { return &m.packages[pid] }

// PackageByID resolves a cargo package id string (the "id" field of the
// metadata snapshot) to a PID.
func (m *Model) PackageByID(id string) (PID, bool) {
	pid, ok := m.byID[id]
	return pid, ok
}

// PackagesByName returns every PID whose crate name matches name under
// cargo's name-equivalence rule (case-insensitive, '-'/'_' interchangeable).
// A workspace with duplicate major versions of a crate returns >1 PID here.
func (m *Model) PackagesByName(name string) []PID {
	return m.byName[CanonicalName(name)]
}

// IsWorkspaceMember reports whether pid is a workspace member (as opposed
// to an external dependency).
func (m *Model) IsWorkspaceMember(pid PID) bool { return m.members[pid] }

// WorkspaceMembers returns the PIDs of every workspace member.
func (m *Model) WorkspaceMembers() []PID {
	out := make([]PID, 0, len(m.members))
	for pid := range m.members {
		out = append(out, pid)
	}
	return out
}

// ResolvedTarget looks up which package a dependency edge named edgeName,
// originating from owner, actually resolved to, using cargo's own resolve
// graph as the tie-breaker when SourceClassifier-style matching on
// (name, source) alone is ambiguous (duplicate major versions of a crate).
// Returns false if owner has no resolve node or no matching edge.
func (m *Model) ResolvedTarget(owner PID, edgeName string) (PID, bool) {
	node, ok := m.resolve[m.packages[owner].ID]
	if !ok {
		return 0, false
	}
	for _, d := range node.Deps {
		if d.Name == edgeName {
			if pid, ok := m.byID[d.Pkg]; ok {
				return pid, true
			}
		}
	}
	return 0, false
}
