package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml"

	"github.com/cargounify/cargounify/pkg/changeset"
	"github.com/cargounify/cargounify/pkg/classify"
	"github.com/cargounify/cargounify/pkg/errors"
)

const sampleManifest = `[package]
name = "a"
version = "0.1.0"

[dependencies]
widget = { version = "1.0.0" }
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "Cargo.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func widgetChange() []changeset.FeatChange {
	return []changeset.FeatChange{
		{
			Kind:     changeset.KindNormal,
			Features: []string{"bar", "foo"},
			Origin:   classify.Origin{Kind: classify.OriginRegistry, Version: "2.0.0"},
			DepName:  "widget",
		},
	}
}

func loadTree(t *testing.T, path string) *toml.Tree {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	tree, err := toml.Load(stripBanner(string(raw)))
	if err != nil {
		t.Fatalf("toml.Load: %v", err)
	}
	return tree
}

func TestApplyStashesDisplacedEntry(t *testing.T) {
	path := writeManifest(t, sampleManifest)

	e, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if e.HasTargetDependencies() {
		t.Fatal("sample manifest has no [target.…] table")
	}

	changed, err := e.Apply(widgetChange(), true)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !changed {
		t.Fatal("Apply should report a change")
	}
	if !e.Dirty() {
		t.Fatal("Dirty should be true right after Apply")
	}
	if err := e.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if err := e.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	tree := loadTree(t, path)
	if got := tree.Get("dependencies.widget.version"); got != "2.0.0" {
		t.Errorf("dependencies.widget.version = %v, want 2.0.0", got)
	}
	feats, _ := tree.Get("dependencies.widget.features").([]interface{})
	if len(feats) != 2 || feats[0] != "bar" || feats[1] != "foo" {
		t.Errorf("dependencies.widget.features = %v, want [bar foo]", feats)
	}
	if tree.Get("dependencies.widget.default-features") != false {
		t.Errorf("dependencies.widget.default-features = %v, want false", tree.Get("dependencies.widget.default-features"))
	}

	stashed := tree.Get("package.metadata.hackerman.stash.dependencies.widget")
	sub, ok := stashed.(*toml.Tree)
	if !ok {
		t.Fatalf("stash entry missing or wrong type: %v", stashed)
	}
	if sub.Get("version") != "1.0.0" {
		t.Errorf("stashed version = %v, want 1.0.0", sub.Get("version"))
	}

	if tree.Get("package.metadata.hackerman.lock.dependencies") == nil {
		t.Error("lock checksum should be present after Apply(lock=true)")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !hasBanner(string(raw)) {
		t.Error("saved manifest should carry the banner while dirty")
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	path := writeManifest(t, sampleManifest)

	e, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := e.Apply(widgetChange(), true); err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	if err := e.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	e2, err := Open(path)
	if err != nil {
		t.Fatalf("re-Open: %v", err)
	}
	changed, err := e2.Apply(widgetChange(), true)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if changed {
		t.Error("re-applying the same changes should report no change")
	}

	tree := loadTree(t, path)
	stashed := tree.Get("package.metadata.hackerman.stash.dependencies.widget").(*toml.Tree)
	if stashed.Get("version") != "1.0.0" {
		t.Errorf("second Apply must not re-stash: stashed version = %v, want original 1.0.0", stashed.Get("version"))
	}
}

func TestRestoreReversesApply(t *testing.T) {
	path := writeManifest(t, sampleManifest)

	e, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := e.Apply(widgetChange(), true); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := e.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	e2, err := Open(path)
	if err != nil {
		t.Fatalf("re-Open: %v", err)
	}
	if err := e2.Restore(); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if e2.Dirty() {
		t.Error("Dirty should be false after Restore")
	}
	if err := e2.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if hasBanner(string(raw)) {
		t.Error("restored manifest should not carry the banner")
	}

	tree := loadTree(t, path)
	if tree.Get("dependencies.widget.version") != "1.0.0" {
		t.Errorf("dependencies.widget.version = %v, want restored 1.0.0", tree.Get("dependencies.widget.version"))
	}
	if tree.Get("dependencies.widget.features") != nil {
		t.Error("restored widget entry should not carry the synthetic features key")
	}
	if tree.Get("package.metadata.hackerman.lock.dependencies") != nil {
		t.Error("lock checksum should be gone after Restore")
	}
	if tree.Get("package.metadata.hackerman.stash") != nil {
		t.Error("stash subtree should be gone after Restore")
	}
}

func TestVerifyDetectsChecksumDrift(t *testing.T) {
	path := writeManifest(t, sampleManifest)

	e, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := e.Apply(widgetChange(), true); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := e.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Hand-edit a locked section after the checksum was recorded.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	tampered := stripBanner(string(raw)) + "\n[dependencies.gremlin]\nversion = \"9.9.9\"\n"
	if err := os.WriteFile(path, []byte(tampered), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	e2, err := Open(path)
	if err != nil {
		t.Fatalf("re-Open: %v", err)
	}
	if err := e2.Verify(); errors.GetCode(err) != errors.ErrCodeChecksumMismatch {
		t.Fatalf("Verify = %v, want ErrCodeChecksumMismatch", err)
	}
}

func TestRestoreSortsDependencyTables(t *testing.T) {
	path := writeManifest(t, `[package]
name = "a"
version = "0.1.0"

[dependencies]
zeta = "1.0.0"
alpha = "1.0.0"
mango = "1.0.0"
`)

	e, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := e.Apply(widgetChange(), false); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := e.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	e2, err := Open(path)
	if err != nil {
		t.Fatalf("re-Open: %v", err)
	}
	if err := e2.Restore(); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if err := e2.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	tree := loadTree(t, path)
	sub, ok := tree.Get("dependencies").(*toml.Tree)
	if !ok {
		t.Fatalf("dependencies table missing after Restore")
	}
	got := sub.Keys()
	want := []string{"alpha", "mango", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("dependencies keys = %v, want %v", got, want)
	}
	for i, k := range want {
		if got[i] != k {
			t.Fatalf("dependencies keys = %v, want %v", got, want)
		}
	}
}

func TestHasTargetDependenciesRefusesEdit(t *testing.T) {
	path := writeManifest(t, sampleManifest+"\n[target.'cfg(windows)'.dependencies]\nwinapi = \"0.3\"\n")

	e, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !e.HasTargetDependencies() {
		t.Fatal("expected HasTargetDependencies to report true")
	}

	if _, err := e.Apply(widgetChange(), true); errors.GetCode(err) != errors.ErrCodeTargetDependenciesPresent {
		t.Fatalf("Apply = %v, want ErrCodeTargetDependenciesPresent", err)
	}
}
