package classify

import (
	"testing"

	"github.com/cargounify/cargounify/pkg/errors"
	"github.com/cargounify/cargounify/pkg/metadata"
)

const snapshot = `{
  "packages": [
    {
      "id": "a 0.1.0",
      "name": "a",
      "version": "0.1.0",
      "source": null,
      "manifest_path": "/ws/a/Cargo.toml",
      "features": {},
      "dependencies": []
    },
    {
      "id": "serde 1.0.0",
      "name": "serde",
      "version": "1.0.0",
      "source": "registry+https://github.com/rust-lang/crates.io-index",
      "manifest_path": "/home/.cargo/registry/src/serde/Cargo.toml",
      "features": {},
      "dependencies": []
    },
    {
      "id": "b 0.2.0",
      "name": "b",
      "version": "0.2.0",
      "source": null,
      "manifest_path": "/ws/libs/b/Cargo.toml",
      "features": {},
      "dependencies": []
    },
    {
      "id": "quux 1.0.0",
      "name": "quux",
      "version": "1.0.0",
      "source": "git+https://github.com/example/quux.git?branch=main#abc123",
      "manifest_path": "/home/.cargo/git/checkouts/quux/Cargo.toml",
      "features": {},
      "dependencies": []
    },
    {
      "id": "weird 1.0.0",
      "name": "weird",
      "version": "1.0.0",
      "source": "path+file:///tmp/weird",
      "manifest_path": "/tmp/weird/Cargo.toml",
      "features": {},
      "dependencies": []
    }
  ],
  "workspace_members": ["a 0.1.0", "b 0.2.0"],
  "resolve": {"root": null, "nodes": [
    {"id": "a 0.1.0", "deps": []},
    {"id": "serde 1.0.0", "deps": []},
    {"id": "b 0.2.0", "deps": []},
    {"id": "quux 1.0.0", "deps": []},
    {"id": "weird 1.0.0", "deps": []}
  ]}
}`

func loadModel(t *testing.T) *metadata.Model {
	t.Helper()
	m, err := metadata.LoadBytes([]byte(snapshot))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	return m
}

func pidFor(t *testing.T, m *metadata.Model, id string) metadata.PID {
	t.Helper()
	pid, ok := m.PackageByID(id)
	if !ok {
		t.Fatalf("package %s not found", id)
	}
	return pid
}

func TestClassifyRegistry(t *testing.T) {
	m := loadModel(t)
	a := pidFor(t, m, "a 0.1.0")
	serde := pidFor(t, m, "serde 1.0.0")

	origin, err := Classify(m, a, serde)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if origin.Kind != OriginRegistry || origin.Version != "1.0.0" {
		t.Errorf("Classify = %+v, want registry 1.0.0", origin)
	}
}

func TestClassifyGit(t *testing.T) {
	m := loadModel(t)
	a := pidFor(t, m, "a 0.1.0")
	quux := pidFor(t, m, "quux 1.0.0")

	origin, err := Classify(m, a, quux)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if origin.Kind != OriginGit {
		t.Fatalf("Kind = %v, want OriginGit", origin.Kind)
	}
	if origin.URL != "https://github.com/example/quux.git?branch=main" {
		t.Errorf("URL = %q", origin.URL)
	}
	if origin.Ref != "abc123" {
		t.Errorf("Ref = %q, want abc123", origin.Ref)
	}
}

func TestClassifyPath(t *testing.T) {
	m := loadModel(t)
	a := pidFor(t, m, "a 0.1.0")
	b := pidFor(t, m, "b 0.2.0")

	origin, err := Classify(m, a, b)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if origin.Kind != OriginPath {
		t.Fatalf("Kind = %v, want OriginPath", origin.Kind)
	}
	if origin.Path != "../libs/b" {
		t.Errorf("Path = %q, want ../libs/b", origin.Path)
	}
}

func TestClassifyUnsupportedPathFile(t *testing.T) {
	m := loadModel(t)
	a := pidFor(t, m, "a 0.1.0")
	weird := pidFor(t, m, "weird 1.0.0")

	_, err := Classify(m, a, weird)
	if errors.GetCode(err) != errors.ErrCodeUnsupportedSource {
		t.Fatalf("GetCode = %v, want ErrCodeUnsupportedSource", errors.GetCode(err))
	}
}

func TestOptimizeFeatures(t *testing.T) {
	cases := []struct {
		name      string
		features  map[string][]string
		requested []string
		want      []string
	}{
		{
			name:      "no overlap",
			features:  map[string][]string{"a": {}, "b": {}},
			requested: []string{"a", "b"},
			want:      []string{"a", "b"},
		},
		{
			name:      "b implied by a",
			features:  map[string][]string{"a": {"b"}, "b": {}},
			requested: []string{"a", "b"},
			want:      []string{"a"},
		},
		{
			name:      "dep: prefix does not imply",
			features:  map[string][]string{"a": {"dep:b"}},
			requested: []string{"a", "b"},
			want:      []string{"a", "b"},
		},
		{
			name:      "remote krate/feat does not imply a local feature",
			features:  map[string][]string{"a": {"other/feat"}},
			requested: []string{"a", "feat"},
			want:      []string{"a", "feat"},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := OptimizeFeatures(c.features, c.requested)
			if len(got) != len(c.want) {
				t.Fatalf("OptimizeFeatures() = %v, want %v", got, c.want)
			}
			for i := range got {
				if got[i] != c.want[i] {
					t.Fatalf("OptimizeFeatures() = %v, want %v", got, c.want)
				}
			}
		})
	}
}
