package metadata

import "strings"

// CanonicalName normalizes a crate name the way cargo does when matching
// dependency entries against packages: '-' and '_' are interchangeable and
// comparison is case-insensitive.
func CanonicalName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", "-"))
}

// SameName reports whether a and b name the same crate under cargo's
// equivalence rule.
func SameName(a, b string) bool {
	return CanonicalName(a) == CanonicalName(b)
}
