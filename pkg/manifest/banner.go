package manifest

import "strings"

// banner is prepended to every manifest this tool edits, warning against
// hand edits while a stash is active. It is handled at the raw byte level
// rather than through the TOML tree, since it is pure decoration with no
// semantic content.
const banner = "# !\n# ! This Cargo.toml file has unified features, do not edit it directly.\n# ! Run `cargo unify restore` before making manual changes.\n# !\n\n"

// hasBanner reports whether content already begins with the banner.
func hasBanner(content string) bool {
	return strings.HasPrefix(content, banner)
}

// addBanner prepends the banner to content, idempotently.
func addBanner(content string) string {
	if hasBanner(content) {
		return content
	}
	return banner + content
}

// stripBanner removes a leading banner from content, if present.
func stripBanner(content string) string {
	return strings.TrimPrefix(content, banner)
}
