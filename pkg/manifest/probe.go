package manifest

import "github.com/BurntSushi/toml"

// probeDoc is a shallow, struct-shaped view of a Cargo.toml: just enough to
// answer cheap yes/no questions without building a full pelletier/go-toml
// Tree. Unknown keys are ignored by toml.Decode, so this never needs to
// track the whole document shape.
type probeDoc struct {
	Target  map[string]interface{} `toml:"target"`
	Package struct {
		Metadata struct {
			Hackerman struct {
				Lock struct {
					Dependencies *int64 `toml:"dependencies"`
				} `toml:"lock"`
			} `toml:"hackerman"`
		} `toml:"metadata"`
	} `toml:"package"`
}

// probe decodes content far enough to report whether it carries a top-level
// [target.…] table and whether it already has a recorded lock checksum.
func probe(content string) (hasTargetDeps, hasLock bool, err error) {
	var doc probeDoc
	if _, err := toml.Decode(content, &doc); err != nil {
		return false, false, err
	}
	return len(doc.Target) > 0, doc.Package.Metadata.Hackerman.Lock.Dependencies != nil, nil
}
