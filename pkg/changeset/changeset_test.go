package changeset

import (
	"testing"

	"github.com/cargounify/cargounify/pkg/classify"
	"github.com/cargounify/cargounify/pkg/featgraph"
	"github.com/cargounify/cargounify/pkg/metadata"
	"github.com/cargounify/cargounify/pkg/target"
)

// Two workspace members, a and b, each depend on the same registry crate d
// but request a different feature on it ("x" and "y" respectively). Built in
// isolation, a would only get d/x and b would only get d/y; the full
// workspace build unifies both onto d. Compute should therefore emit one
// FeatChange per member adding the feature it's missing.
const twoMemberSnapshot = `{
  "packages": [
    {
      "id": "a 0.1.0",
      "name": "a",
      "version": "0.1.0",
      "source": null,
      "manifest_path": "/ws/a/Cargo.toml",
      "features": {},
      "dependencies": [
        {"name": "d", "req": "^1.0.0", "kind": null, "rename": "", "optional": false,
         "uses_default_features": true, "features": ["x"], "target": null,
         "source": "registry+https://github.com/rust-lang/crates.io-index"}
      ]
    },
    {
      "id": "b 0.2.0",
      "name": "b",
      "version": "0.2.0",
      "source": null,
      "manifest_path": "/ws/b/Cargo.toml",
      "features": {},
      "dependencies": [
        {"name": "d", "req": "^1.0.0", "kind": null, "rename": "", "optional": false,
         "uses_default_features": true, "features": ["y"], "target": null,
         "source": "registry+https://github.com/rust-lang/crates.io-index"}
      ]
    },
    {
      "id": "d 1.0.0",
      "name": "d",
      "version": "1.0.0",
      "source": "registry+https://github.com/rust-lang/crates.io-index",
      "manifest_path": "/home/.cargo/registry/src/d/Cargo.toml",
      "features": {"x": [], "y": []},
      "dependencies": []
    }
  ],
  "workspace_members": ["a 0.1.0", "b 0.2.0"],
  "resolve": {"root": null, "nodes": [
    {"id": "a 0.1.0", "deps": [{"name": "d", "pkg": "d 1.0.0"}]},
    {"id": "b 0.2.0", "deps": [{"name": "d", "pkg": "d 1.0.0"}]},
    {"id": "d 1.0.0", "deps": []}
  ]}
}`

func linuxInfo() target.Info {
	return target.Info{
		Triple: "x86_64-unknown-linux-gnu",
		Cfgs:   []string{"unix", `target_os="linux"`},
	}
}

func buildGraph(t *testing.T, snapshot string) (*metadata.Model, *featgraph.Graph) {
	t.Helper()
	m, err := metadata.LoadBytes([]byte(snapshot))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	g, err := featgraph.Build(m)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m, g
}

func findMember(t *testing.T, m *metadata.Model, out []MemberChangeset, id string) MemberChangeset {
	t.Helper()
	pid, ok := m.PackageByID(id)
	if !ok {
		t.Fatalf("package %s not found", id)
	}
	for _, mc := range out {
		if mc.Member == pid {
			return mc
		}
	}
	t.Fatalf("no changeset for member %s", id)
	return MemberChangeset{}
}

func TestComputeUnifiesSiblingFeatures(t *testing.T) {
	m, g := buildGraph(t, twoMemberSnapshot)

	out, err := Compute(g, linuxInfo(), true)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}

	a := findMember(t, m, out, "a 0.1.0")
	if len(a.Changes) != 1 {
		t.Fatalf("a.Changes = %+v, want exactly one FeatChange", a.Changes)
	}
	wantFeatures(t, a.Changes[0], []string{"x", "y"})

	b := findMember(t, m, out, "b 0.2.0")
	if len(b.Changes) != 1 {
		t.Fatalf("b.Changes = %+v, want exactly one FeatChange", b.Changes)
	}
	wantFeatures(t, b.Changes[0], []string{"x", "y"})

	dPID, _ := m.PackageByID("d 1.0.0")
	if a.Changes[0].DepPID != dPID || b.Changes[0].DepPID != dPID {
		t.Errorf("FeatChange.DepPID mismatch: a=%d b=%d want=%d", a.Changes[0].DepPID, b.Changes[0].DepPID, dPID)
	}
	if a.Changes[0].Rename || b.Changes[0].Rename {
		t.Error("single-version crate should never be flagged Rename")
	}
	if a.Changes[0].Kind != KindNormal || b.Changes[0].Kind != KindNormal {
		t.Error("both changes should be KindNormal, no dev-deps declared")
	}
	if a.Changes[0].Origin.Kind != classify.OriginRegistry || a.Changes[0].Origin.Version != "1.0.0" {
		t.Errorf("Origin = %+v, want registry 1.0.0", a.Changes[0].Origin)
	}
}

// TestComputeDoesNotLeakAcrossUnrelatedMembers guards the bug findable only
// by actually tracing the fixpoint: a second member c shares no dependency
// with a at all, and must come back with zero changes rather than
// picking up a synthetic dependency on d just because some sibling uses it.
const threeMemberSnapshot = `{
  "packages": [
    {
      "id": "a 0.1.0",
      "name": "a",
      "version": "0.1.0",
      "source": null,
      "manifest_path": "/ws/a/Cargo.toml",
      "features": {},
      "dependencies": [
        {"name": "d", "req": "^1.0.0", "kind": null, "rename": "", "optional": false,
         "uses_default_features": true, "features": [], "target": null,
         "source": "registry+https://github.com/rust-lang/crates.io-index"}
      ]
    },
    {
      "id": "c 0.3.0",
      "name": "c",
      "version": "0.3.0",
      "source": null,
      "manifest_path": "/ws/c/Cargo.toml",
      "features": {},
      "dependencies": []
    },
    {
      "id": "d 1.0.0",
      "name": "d",
      "version": "1.0.0",
      "source": "registry+https://github.com/rust-lang/crates.io-index",
      "manifest_path": "/home/.cargo/registry/src/d/Cargo.toml",
      "features": {},
      "dependencies": []
    }
  ],
  "workspace_members": ["a 0.1.0", "c 0.3.0"],
  "resolve": {"root": null, "nodes": [
    {"id": "a 0.1.0", "deps": [{"name": "d", "pkg": "d 1.0.0"}]},
    {"id": "c 0.3.0", "deps": []},
    {"id": "d 1.0.0", "deps": []}
  ]}
}`

func TestComputeDoesNotLeakAcrossUnrelatedMembers(t *testing.T) {
	m, g := buildGraph(t, threeMemberSnapshot)

	out, err := Compute(g, linuxInfo(), true)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	a := findMember(t, m, out, "a 0.1.0")
	if len(a.Changes) != 0 {
		t.Errorf("a.Changes = %+v, want none (a already has exactly what it declares)", a.Changes)
	}

	c := findMember(t, m, out, "c 0.3.0")
	if len(c.Changes) != 0 {
		t.Errorf("c.Changes = %+v, want none: c has no dependency on d at all", c.Changes)
	}
}

func wantFeatures(t *testing.T, fc FeatChange, want []string) {
	t.Helper()
	if len(fc.Features) != len(want) {
		t.Fatalf("Features = %v, want %v", fc.Features, want)
	}
	for i, f := range want {
		if fc.Features[i] != f {
			t.Fatalf("Features = %v, want %v", fc.Features, want)
		}
	}
}

// detectRenames is scoped per member: a member's change only gets flagged
// Rename when that member's own dependency closure genuinely reaches two
// distinct versions of the same crate name. a depends directly on both
// versions of d (and needs feature y on d 1.0.0, which its sibling b
// requests), so a's change is a Rename; b only ever touches
// d 1.0.0 and should not be.
const duplicateVersionSnapshot = `{
  "packages": [
    {
      "id": "a 0.1.0",
      "name": "a",
      "version": "0.1.0",
      "source": null,
      "manifest_path": "/ws/a/Cargo.toml",
      "features": {},
      "dependencies": [
        {"name": "d", "req": "^1.0.0", "kind": null, "rename": "", "optional": false,
         "uses_default_features": true, "features": ["x"], "target": null,
         "source": "registry+https://github.com/rust-lang/crates.io-index"},
        {"name": "d", "req": "2", "kind": null, "rename": "", "optional": false,
         "uses_default_features": true, "features": [], "target": null, "source": null}
      ]
    },
    {
      "id": "b 0.2.0",
      "name": "b",
      "version": "0.2.0",
      "source": null,
      "manifest_path": "/ws/b/Cargo.toml",
      "features": {},
      "dependencies": [
        {"name": "d", "req": "^1.0.0", "kind": null, "rename": "", "optional": false,
         "uses_default_features": true, "features": ["y"], "target": null,
         "source": "registry+https://github.com/rust-lang/crates.io-index"}
      ]
    },
    {
      "id": "d 1.0.0",
      "name": "d",
      "version": "1.0.0",
      "source": "registry+https://github.com/rust-lang/crates.io-index",
      "manifest_path": "/home/.cargo/registry/src/d/Cargo.toml",
      "features": {"x": [], "y": []},
      "dependencies": []
    },
    {
      "id": "d 2.0.0",
      "name": "d",
      "version": "2.0.0",
      "source": null,
      "manifest_path": "/ws/vendor/d/Cargo.toml",
      "features": {},
      "dependencies": []
    }
  ],
  "workspace_members": ["a 0.1.0", "b 0.2.0"],
  "resolve": {"root": null, "nodes": [
    {"id": "a 0.1.0", "deps": [{"name": "d", "pkg": "d 1.0.0"}, {"name": "d", "pkg": "d 2.0.0"}]},
    {"id": "b 0.2.0", "deps": [{"name": "d", "pkg": "d 1.0.0"}]},
    {"id": "d 1.0.0", "deps": []},
    {"id": "d 2.0.0", "deps": []}
  ]}
}`

func TestComputeFlagsRenameOnlyWhenMemberReachesBothVersions(t *testing.T) {
	m, g := buildGraph(t, duplicateVersionSnapshot)

	out, err := Compute(g, linuxInfo(), true)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	d1PID, _ := m.PackageByID("d 1.0.0")

	a := findMember(t, m, out, "a 0.1.0")
	if len(a.Changes) != 1 {
		t.Fatalf("a.Changes = %+v, want exactly one FeatChange (only d 1.0.0 is missing a feature)", a.Changes)
	}
	if a.Changes[0].DepPID != d1PID {
		t.Errorf("a.Changes[0].DepPID = %d, want d 1.0.0's PID %d", a.Changes[0].DepPID, d1PID)
	}
	wantFeatures(t, a.Changes[0], []string{"x", "y"})
	if !a.Changes[0].Rename {
		t.Error("a reaches both versions of d and should be flagged Rename")
	}

	b := findMember(t, m, out, "b 0.2.0")
	if len(b.Changes) != 1 {
		t.Fatalf("b.Changes = %+v, want exactly one FeatChange", b.Changes)
	}
	wantFeatures(t, b.Changes[0], []string{"x", "y"})
	if b.Changes[0].Rename {
		t.Error("b only ever reaches d 1.0.0 and should not be flagged Rename")
	}
}

// detectRenames only ever sees what Compute hands it as reachedBases. This
// exercises its crate-name grouping directly against the two shapes that
// set can take: bases reached through the normal pass alone, and bases
// reached through the union of the normal and dev passes. A member whose
// second version of a crate is only ever pulled in via [dev-dependencies]
// must still end up in the latter shape, or its change and its sibling's
// both resolve to the same unrenamed manifest key.
func TestDetectRenamesUnionsAcrossBothPasses(t *testing.T) {
	m, g := buildGraph(t, duplicateVersionSnapshot)

	d1PID, _ := m.PackageByID("d 1.0.0")
	d2PID, _ := m.PackageByID("d 2.0.0")
	d1Base := g.BaseID(d1PID)
	d2Base := g.BaseID(d2PID)

	normalOnly := map[int]bool{d1Base: true}
	if renames := detectRenames(g, m, normalOnly); renames["d"] {
		t.Fatal("a reached set missing d 2.0.0 entirely must not flag a rename")
	}

	unioned := map[int]bool{d1Base: true, d2Base: true}
	if renames := detectRenames(g, m, unioned); !renames["d"] {
		t.Fatal("a reached set covering both versions of d must flag a rename")
	}
}
