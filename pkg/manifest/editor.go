// Package manifest implements the ManifestEditor: reading a
// Cargo.toml with a round-tripping TOML editor, applying a Changeset as
// dependency-table insertions, stashing displaced values, computing and
// verifying a checksum, and restoring everything back to its pre-edit state.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/pelletier/go-toml"

	"github.com/cargounify/cargounify/pkg/changeset"
	"github.com/cargounify/cargounify/pkg/classify"
	"github.com/cargounify/cargounify/pkg/errors"
)

// dependencyTables are the tables sortDependencyTables reorders during
// Restore, the same set checksum.go's lockedSections feeds the hasher with,
// minus "target" (a manifest carrying one is rejected long before Restore
// would ever run).
var dependencyTables = []string{"dependencies", "dev-dependencies", "build-dependencies"}

const (
	stashRoot = "package.metadata.hackerman.stash"
	lockKey   = "package.metadata.hackerman.lock.dependencies"
)

func tableKey(k changeset.Kind) string {
	if k == changeset.KindDev {
		return "dev-dependencies"
	}
	return "dependencies"
}

// Editor holds one parsed manifest and its path, ready to be mutated and
// written back.
type Editor struct {
	path          string
	tree          *toml.Tree
	hasTargetDeps bool
}

// Open reads and parses the manifest at path, stripping any banner this
// tool previously prepended so the TOML parser only ever sees the
// document's real content. It first runs a shallow BurntSushi/toml decode
// to settle HasTargetDependencies without needing the full Tree, then
// parses the same content with the round-tripping pelletier/go-toml Tree
// that Apply/Restore mutate.
func Open(path string) (*Editor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read manifest %s", path)
	}
	content := stripBanner(string(raw))

	hasTargetDeps, _, err := probe(content)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMetadataInvalid, err, "probe manifest %s", path)
	}

	tree, err := toml.Load(content)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMetadataInvalid, err, "parse manifest %s", path)
	}
	return &Editor{path: path, tree: tree, hasTargetDeps: hasTargetDeps}, nil
}

// HasTargetDependencies reports whether the manifest has a top-level
// [target.…] table, which the editor refuses to touch.
func (e *Editor) HasTargetDependencies() bool {
	return e.hasTargetDeps
}

// Apply inserts each FeatChange as a
// dependency-table entry, stashing whatever value previously lived at that
// key (only the first time a key is touched, so repeated runs never stash
// the tool's own output over the original), and (if lock is true) record a
// fresh checksum. Returns whether the manifest's content actually changed.
func (e *Editor) Apply(changes []changeset.FeatChange, lock bool) (bool, error) {
	if e.HasTargetDependencies() {
		return false, errors.New(errors.ErrCodeTargetDependenciesPresent,
			"%s has a [target.…] table; the editor cannot safely edit it", e.path)
	}

	before := e.tree.String()

	for _, c := range changes {
		table := tableKey(c.Kind)
		key, err := entryKey(c)
		if err != nil {
			return false, err
		}

		if !e.alreadyStashed(table, key) {
			e.stash(table, key, e.tree.Get(table+"."+key))
		}
		if err := e.setEntry(table, key, c); err != nil {
			return false, err
		}
	}

	if lock {
		e.tree.Set(lockKey, checksum(e.tree))
	}
	return e.tree.String() != before, nil
}

// entryKey picks the dependency-table key a FeatChange is inserted under:
// the crate's own name, or its rename key when the workspace resolves two
// distinct versions of the same crate name.
func entryKey(c changeset.FeatChange) (string, error) {
	if c.Origin.Kind != classify.OriginRegistry && c.Origin.Kind != classify.OriginGit && c.Origin.Kind != classify.OriginPath {
		return "", errors.New(errors.ErrCodeUnsupportedSource, "unclassified origin for %s", c.DepName)
	}
	if c.Rename {
		return renameKey(c.DepName, c.Origin), nil
	}
	return c.DepName, nil
}

// setEntry writes one FeatChange's fields under table.key in a fixed order
// (origin fields, then features, then default-features, then package),
// so the Tree's serialized key order is identical across runs for
// identical input — required for the checksum to be
// stable.
func (e *Editor) setEntry(table, key string, c changeset.FeatChange) error {
	prefix := table + "." + key

	switch c.Origin.Kind {
	case classify.OriginRegistry:
		e.tree.Set(prefix+".version", c.Origin.Version)
	case classify.OriginGit:
		e.tree.Set(prefix+".git", c.Origin.URL)
		if c.Origin.Ref != "" {
			e.tree.Set(prefix+".rev", c.Origin.Ref)
		}
	case classify.OriginPath:
		e.tree.Set(prefix+".path", c.Origin.Path)
	default:
		return errors.New(errors.ErrCodeUnsupportedSource, "unclassified origin for %s", c.DepName)
	}

	if feats := withoutDefault(c.Features); len(feats) > 0 {
		e.tree.Set(prefix+".features", feats)
	}
	if !hasDefault(c.Features) {
		e.tree.Set(prefix+".default-features", false)
	}
	if c.Rename {
		e.tree.Set(prefix+".package", c.DepName)
	}
	return nil
}

// alreadyStashed reports whether table.key has already been recorded in the
// stash subtree by an earlier Apply, so a later run doesn't clobber the
// original stashed value with the tool's own prior output.
func (e *Editor) alreadyStashed(table, key string) bool {
	return e.tree.Get(stashRoot+"."+table+"."+key) != nil
}

func withoutDefault(feats []string) []string {
	out := make([]string, 0, len(feats))
	for _, f := range feats {
		if f != "default" {
			out = append(out, f)
		}
	}
	return out
}

func hasDefault(feats []string) bool {
	for _, f := range feats {
		if f == "default" {
			return true
		}
	}
	return false
}

// renameKey builds the "hackerman-<name>-<hash16>" key used to disambiguate
// two distinct versions of the same crate under a single [dependencies]
// table.
func renameKey(name string, origin classify.Origin) string {
	h := xxhash.New()
	switch origin.Kind {
	case classify.OriginRegistry:
		fmt.Fprintf(h, "registry:%s", origin.Version)
	case classify.OriginGit:
		fmt.Fprintf(h, "git:%s#%s", origin.URL, origin.Ref)
	case classify.OriginPath:
		fmt.Fprintf(h, "path:%s", origin.Path)
	}
	return fmt.Sprintf("hackerman-%s-%016x", name, h.Sum64())
}

// stash records a displaced value under package.metadata.hackerman.stash, or
// the literal boolean false if the key had no prior value.
func (e *Editor) stash(table, key string, prior interface{}) {
	path := stashRoot + "." + table + "." + key
	if prior == nil {
		e.tree.Set(path, false)
		return
	}
	if sub, ok := prior.(*toml.Tree); ok {
		// Stash a copy: setEntry then edits the live sub-table in place.
		if copied, err := toml.TreeFromMap(sub.ToMap()); err == nil {
			prior = copied
		}
	}
	e.tree.Set(path, prior)
}

// Verify recomputes the checksum and reports ChecksumMismatch: if a lock
// checksum is present, recompute and compare.
func (e *Editor) Verify() error {
	recorded := e.tree.Get(lockKey)
	if recorded == nil {
		return nil
	}
	want, ok := toInt64(recorded)
	if !ok {
		return errors.New(errors.ErrCodeStashCorrupted, "%s: lock.dependencies is not an integer", e.path)
	}
	if got := checksum(e.tree); got != want {
		return errors.New(errors.ErrCodeChecksumMismatch, "%s: checksum drift (want %d, got %d)", e.path, want, got)
	}
	return nil
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

// Restore is the inverse of Apply. Every
// stashed entry is written back (or deleted, for the `false` sentinel), the
// lock is removed, the stash subtree is deleted, and the banner is stripped.
func (e *Editor) Restore() error {
	for _, table := range []string{"dependencies", "dev-dependencies"} {
		stashed, ok := e.tree.Get(stashRoot + "." + table).(*toml.Tree)
		if !ok {
			continue
		}
		for _, key := range stashed.Keys() {
			val := stashed.Get(key)
			if b, ok := val.(bool); ok && !b {
				if err := e.tree.Delete(table + "." + key); err != nil {
					return errors.Wrap(errors.ErrCodeStashCorrupted, err, "%s: restoring %s.%s", e.path, table, key)
				}
				continue
			}
			e.tree.Set(table+"."+key, val)
		}
	}

	if e.tree.Get(lockKey) != nil {
		_ = e.tree.Delete(lockKey)
	}
	if e.tree.Get(stashRoot) != nil {
		if err := e.tree.Delete(stashRoot); err != nil {
			return errors.Wrap(errors.ErrCodeStashCorrupted, err, "%s: deleting stash", e.path)
		}
	}

	sortDependencyTables(e.tree)
	return nil
}

// sortDependencyTables sorts the keys of each dependency-shaped table in
// place, by rebuilding it in key order: get, delete, re-set every key in
// sorted order (Set on a fresh key appends, so deleting first is what
// actually moves it).
func sortDependencyTables(tree *toml.Tree) {
	for _, table := range dependencyTables {
		sortTable(tree, table)
	}
}

func sortTable(tree *toml.Tree, path string) {
	sub, ok := tree.Get(path).(*toml.Tree)
	if !ok {
		return
	}
	keys := sub.Keys()
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	if sameOrder(keys, sorted) {
		return
	}

	values := make([]interface{}, len(sorted))
	for i, k := range sorted {
		values[i] = sub.Get(k)
	}
	for _, k := range keys {
		sub.Delete(k)
	}
	for i, k := range sorted {
		sub.Set(k, values[i])
	}
}

func sameOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Dirty reports whether the manifest currently carries a hackerman stash
// (i.e. has been hacked and not yet restored).
func (e *Editor) Dirty() bool {
	_, ok := e.tree.Get(stashRoot).(*toml.Tree)
	return ok
}

// Save atomically writes the manifest back to disk: render to a temp file
// in the same directory (named with a uuid suffix so a crash mid-write never
// corrupts the original) and rename it over the original path.
func (e *Editor) Save() error {
	content := e.tree.String()
	if e.Dirty() {
		content = addBanner(content)
	} else {
		content = stripBanner(content)
	}

	dir := filepath.Dir(e.path)
	tmp := filepath.Join(dir, fmt.Sprintf("%s.%s.tmp", filepath.Base(e.path), uuid.NewString()))
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write temp manifest for %s", e.path)
	}
	if err := os.Rename(tmp, e.path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "rename temp manifest onto %s", e.path)
	}
	return nil
}
