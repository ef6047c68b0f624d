package featgraph

import "testing"

// TestParseFeatTarget_Syntax checks the four feature-target string shapes.
func TestParseFeatTarget_Syntax(t *testing.T) {
	cases := []struct {
		raw  string
		want FeatTarget
	}{
		{"quote", FeatTarget{Kind: TargetNamed, Name: "quote"}},
		{"dep:serde_json", FeatTarget{Kind: TargetDependency, Name: "serde_json"}},
		{"syn/extra-tr", FeatTarget{Kind: TargetRemote, Name: "syn", Feat: "extra-tr"}},
		{"rgb?/serde", FeatTarget{Kind: TargetCond, Name: "rgb", Feat: "serde"}},
	}
	for _, c := range cases {
		got := ParseFeatTarget(c.raw)
		if got != c.want {
			t.Errorf("ParseFeatTarget(%q) = %+v, want %+v", c.raw, got, c.want)
		}
	}
}
