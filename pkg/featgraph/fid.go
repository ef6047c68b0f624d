// Package featgraph builds the feature dependency graph: a directed graph
// whose nodes are (package, feature) pairs rather than bare packages, so
// that "crate X present at all" and "crate X present with feature f" can be
// reasoned about as distinct reachability questions.
package featgraph

import (
	"fmt"

	"github.com/cargounify/cargounify/pkg/metadata"
)

// Tag distinguishes a package's Base node (the crate present at all,
// without any particular named feature selected) from one of its Named
// feature nodes.
type Tag struct {
	Named bool
	Name  string // meaningful only when Named is true
}

// BaseTag is the zero Tag, representing "the package, no named feature."
func BaseTag() Tag { return Tag{} }

// NamedTag builds a Tag for a specific named feature.
func NamedTag(name string) Tag { return Tag{Named: true, Name: name} }

// String renders the tag as Base or Named(f).
func (t Tag) String() string {
	if !t.Named {
		return "Base"
	}
	return fmt.Sprintf("Named(%s)", t.Name)
}

// FID is a (package, feature) pair — the atomic node identity of the
// feature graph.
type FID struct {
	PID metadata.PID
	Tag Tag
}

func (f FID) String() string { return fmt.Sprintf("%d/%s", f.PID, f.Tag) }

// Base returns the Base FID of the same package as f.
func (f FID) Base() FID { return FID{PID: f.PID, Tag: BaseTag()} }
