package featgraph

import "strings"

// TargetKind enumerates the four shapes a feature-dependency string can
// take.
type TargetKind int

const (
	// TargetNamed enables a local feature of the same crate.
	TargetNamed TargetKind = iota
	// TargetDependency (prefix "dep:") enables an optional dependency
	// itself without adding any of its features.
	TargetDependency
	// TargetRemote (syntax "krate/feat") always-enables feat on krate.
	TargetRemote
	// TargetCond (syntax "krate?/feat") is the weak form: enables feat on
	// krate only if krate is otherwise enabled.
	TargetCond
)

// FeatTarget is a parsed feature-dependency string.
type FeatTarget struct {
	Kind TargetKind
	// Name is the local feature name (TargetNamed) or the dependency
	// crate name (TargetDependency, TargetRemote, TargetCond).
	Name string
	// Feat is the feature enabled on Name's crate (TargetRemote, TargetCond).
	Feat string
}

// ParseFeatTarget parses one entry of a feature's dependency list, as it
// would appear on the right-hand side of a `[features]` table entry.
func ParseFeatTarget(raw string) FeatTarget {
	if strings.HasPrefix(raw, "dep:") {
		return FeatTarget{Kind: TargetDependency, Name: strings.TrimPrefix(raw, "dep:")}
	}
	if krate, feat, ok := strings.Cut(raw, "?/"); ok {
		return FeatTarget{Kind: TargetCond, Name: krate, Feat: feat}
	}
	if krate, feat, ok := strings.Cut(raw, "/"); ok {
		return FeatTarget{Kind: TargetRemote, Name: krate, Feat: feat}
	}
	return FeatTarget{Kind: TargetNamed, Name: raw}
}
