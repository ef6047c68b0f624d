package manifest

import (
	"github.com/cespare/xxhash/v2"
	"github.com/pelletier/go-toml"
)

// lockedSections are the top-level tables whose content the checksum covers,
// fed into the hasher in this fixed order so the result is deterministic
// regardless of the document's on-disk key order.
var lockedSections = []string{"dependencies", "dev-dependencies", "build-dependencies", "target"}

// checksum computes a stable hash over the manifest's
// dependency-shaped sections, masked to a positive 63-bit integer so it
// round-trips as a TOML integer.
func checksum(tree *toml.Tree) int64 {
	h := xxhash.New()
	for _, key := range lockedSections {
		h.Write([]byte(key))
		h.Write([]byte{0})
		if sub, ok := tree.Get(key).(*toml.Tree); ok {
			h.Write([]byte(sub.String()))
		}
		h.Write([]byte{0})
	}
	sum := h.Sum64()
	return int64(sum & 0x7fffffffffffffff)
}
