// Package changeset implements the Changeset algorithm: computing each workspace
// member's feature-unification diff by comparing a workspace-wide Collector
// run against a per-member one, iterating to a fixpoint via patch edges.
package changeset

import (
	"sort"

	"github.com/cargounify/cargounify/pkg/classify"
	"github.com/cargounify/cargounify/pkg/featgraph"
	"github.com/cargounify/cargounify/pkg/metadata"
	"github.com/cargounify/cargounify/pkg/target"
)

// Kind distinguishes a normal-dependency change from a dev-dependency one.
type Kind int

const (
	KindNormal Kind = iota
	KindDev
)

func (k Kind) String() string {
	if k == KindDev {
		return "dev"
	}
	return "normal"
}

// FeatChange is one synthetic dependency addition a workspace member needs,
// produced by the materialize step.
type FeatChange struct {
	DepPID   metadata.PID
	Kind     Kind
	Rename   bool
	Features []string // sorted, "default" pruning left to the manifest editor
	Origin   classify.Origin
	DepName  string
}

// MemberChangeset is every FeatChange recorded for one workspace member.
type MemberChangeset struct {
	Member  metadata.PID
	Changes []FeatChange
}

// Compute runs the full algorithm over an already-optimised
// Graph and returns one MemberChangeset per workspace member, in PID order.
func Compute(g *featgraph.Graph, info target.Info, noDev bool) ([]MemberChangeset, error) {
	m := g.Model()

	raw := featgraph.NewCollector(g, featgraph.ModeAllTargets(), info).Run(g.RootID())
	filtered := featgraph.NewCollector(g, featgraph.ModeTarget(), info).Run(g.RootID())
	ws := restrict(raw, filtered)

	members := m.WorkspaceMembers()
	sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })

	var out []MemberChangeset
	for _, member := range members {
		mc := MemberChangeset{Member: member}
		recorded := map[recordKey][]int{} // (kind, base) -> feats_set node ids

		memberNode := defaultRootNode(g, m, member)
		memberWant := restrictToReachable(g, info, memberNode, ws)

		depsCollector := featgraph.NewCollector(g, featgraph.ModeNoDev(), info)
		fixpoint(g, depsCollector, memberNode, memberWant, KindNormal, recorded)

		memberPkg := m.Package(member)
		hasDevDeps := false
		for _, d := range memberPkg.Dependencies {
			if d.DepKind() == metadata.Development {
				hasDevDeps = true
				break
			}
		}
		var devCollector *featgraph.Collector
		if !noDev && hasDevDeps {
			devWS := restrictToReachable(g, info, memberNode, restrictDev(ws, filtered))
			devCollector = featgraph.NewCollector(g, featgraph.ModeMemberDev(member), info)
			fixpoint(g, devCollector, memberNode, devWS, KindDev, recorded)
		}

		// reached feeds detectRenames's crate-name grouping with every base
		// the member reaches on either kind of edge, not just the
		// normal/no-dev ones, so a crate reached at two versions solely
		// through [dev-dependencies] still gets flagged.
		reached := map[int]bool{}
		for n := range depsCollector.Tree() {
			reached[n] = true
		}
		if devCollector != nil {
			for n := range devCollector.Tree() {
				reached[n] = true
			}
		}

		renames := detectRenames(g, m, reached)

		for key, nodeSet := range recorded {
			change, err := materialize(g, m, member, key, nodeSet, renames)
			if err != nil {
				return nil, err
			}
			mc.Changes = append(mc.Changes, change)
		}
		sort.Slice(mc.Changes, func(i, j int) bool {
			if mc.Changes[i].Kind != mc.Changes[j].Kind {
				return mc.Changes[i].Kind < mc.Changes[j].Kind
			}
			return mc.Changes[i].DepPID < mc.Changes[j].DepPID
		})

		out = append(out, mc)
	}
	return out, nil
}

// defaultRootNode returns the node a member's own collection should start
// from: its "default"/Base root FID, mirroring how Root -> member edges were
// wired during FeatGraph construction.
func defaultRootNode(g *featgraph.Graph, m *metadata.Model, member metadata.PID) int {
	pkg := m.Package(member)
	tag := featgraph.BaseTag()
	if pkg.HasDefaultFeature() {
		tag = featgraph.NamedTag("default")
	}
	id, ok := g.Lookup(featgraph.FID{PID: member, Tag: tag})
	if !ok {
		return g.BaseID(member)
	}
	return id
}

// restrictToReachable drops every base from want that member can never reach
// at all. Without this, ws (built by walking the whole workspace from Root)
// contains every other member's own root plus every crate any sibling
// depends on, and diffing that unrestricted set against one member's local
// tree would invent dependencies on packages the member has no edge to.
func restrictToReachable(g *featgraph.Graph, info target.Info, member int, want featgraph.DetachedDepTree) featgraph.DetachedDepTree {
	reachable := featgraph.NewCollector(g, featgraph.ModeAllTargets(), info).Run(member)
	out := featgraph.DetachedDepTree{}
	for base, nodes := range want {
		if _, ok := reachable[base]; ok {
			out[base] = nodes
		}
	}
	return out
}

type recordKey struct {
	kind Kind
	base int
}

// fixpoint implements the inner loop shared by both collection passes: run the
// collector, diff every reached base against want, and on any mismatch add a
// patch edge and resume, repeating until no member base disagrees with want.
func fixpoint(g *featgraph.Graph, c *featgraph.Collector, root int, want featgraph.DetachedDepTree, kind Kind, recorded map[recordKey][]int) {
	tree := c.Run(root)
	for {
		base, missing, ok := tree.Missing(want)
		if !ok {
			return
		}
		recorded[recordKey{kind: kind, base: base}] = nodeIDsOf(want[base])
		g.AddEdge(root, missing, featgraph.Kind{Dep: depKindFor(kind)}, false)
		tree = c.Run(missing)
	}
}

func nodeIDsOf(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func depKindFor(k Kind) metadata.DepKind {
	if k == KindDev {
		return metadata.Development
	}
	return metadata.Normal
}

// restrict keeps only the keys of raw that are also present in filtered:
// keep only bases present in filtered, and within each base only the node
// ids also present in filtered's set for that base.
func restrict(raw, filtered featgraph.DetachedDepTree) featgraph.DetachedDepTree {
	out := featgraph.DetachedDepTree{}
	for base, nodes := range filtered {
		rawNodes := raw[base]
		kept := map[int]bool{}
		for n := range nodes {
			if rawNodes[n] {
				kept[n] = true
			}
		}
		out[base] = kept
	}
	return out
}

// restrictDev intersects ws with filtered. Since ws is already restricted
// to filtered, the result equals ws. The dev collector's own tree is not
// intersected; fixpoint only looks for nodes of want missing from that
// tree, so entries of the tree outside want never affect the comparison.
func restrictDev(ws, filtered featgraph.DetachedDepTree) featgraph.DetachedDepTree {
	return restrict(ws, filtered)
}

// detectRenames groups every package PID the member reaches, on either the
// normal or the dev pass, by crate name, and flags any name with ≥2 distinct
// versions.
func detectRenames(g *featgraph.Graph, m *metadata.Model, reachedBases map[int]bool) map[string]bool {
	byName := map[string]map[string]bool{} // name -> set of versions
	for base := range reachedBases {
		fid := g.NodeFID(base)
		pkg := m.Package(fid.PID)
		if m.IsWorkspaceMember(fid.PID) {
			continue
		}
		key := metadata.CanonicalName(pkg.Name)
		if byName[key] == nil {
			byName[key] = map[string]bool{}
		}
		byName[key][pkg.Version] = true
	}
	renames := map[string]bool{}
	for name, versions := range byName {
		if len(versions) >= 2 {
			renames[name] = true
		}
	}
	return renames
}

// materialize turns the optimised feature sets into FeatChanges.
func materialize(g *featgraph.Graph, m *metadata.Model, member metadata.PID, key recordKey, nodeIDs []int, renames map[string]bool) (FeatChange, error) {
	base := key.base
	depFID := g.NodeFID(base)
	depPID := depFID.PID
	depPkg := m.Package(depPID)

	var feats []string
	for _, n := range nodeIDs {
		fid := g.NodeFID(n)
		if fid.Tag.Named {
			feats = append(feats, fid.Tag.Name)
		}
	}
	feats = classify.OptimizeFeatures(depPkg.Features, feats)

	origin, err := classify.Classify(m, member, depPID)
	if err != nil {
		return FeatChange{}, err
	}

	return FeatChange{
		DepPID:   depPID,
		Kind:     key.kind,
		Rename:   renames[metadata.CanonicalName(depPkg.Name)],
		Features: feats,
		Origin:   origin,
		DepName:  depPkg.Name,
	}, nil
}
