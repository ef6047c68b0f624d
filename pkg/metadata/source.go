package metadata

import "strings"

// SourceMatches implements the source-matching rule used while
// wiring dependency edges to their resolved package: both nil is a match
// (two local path packages); both non-nil matches on exact repr equality,
// or — for two git sources — if one repr is a prefix of the other (cargo's
// git source reprs carry a resolved commit sha as a trailing fragment that
// can differ between the dependency's declared source and the resolved
// package's source).
func SourceMatches(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if *a == *b {
		return true
	}
	if strings.HasPrefix(*a, "git") && strings.HasPrefix(*b, "git") {
		return strings.HasPrefix(*a, *b) || strings.HasPrefix(*b, *a)
	}
	return false
}
