package featgraph

import (
	"sort"

	"github.com/cargounify/cargounify/pkg/errors"
	"github.com/cargounify/cargounify/pkg/metadata"
	"github.com/cargounify/cargounify/pkg/target"
)

// Origin distinguishes a workspace-member node from an external dependency
// node, so the Collector's dev-dependency check and TrimUnusedFeatures can
// treat them differently.
type Origin int

const (
	OriginWorkspace Origin = iota
	OriginExternal
)

type node struct {
	fid    FID
	isRoot bool
	origin Origin
}

// Trigger is a deferred activation for a weak (`krate?/feat`) feature-dep,
// fired once its owner feature and weak dependency are both reached.
type Trigger struct {
	Owner        metadata.PID
	OwnerFeature FID
	WeakBase     FID // base FID of the weak dependency
	WeakFeat     FID // the feature FID to enqueue once the trigger fires
}

// Graph is the feature dependency graph.
type Graph struct {
	model *metadata.Model

	nodes    []node // index 0 is always Root
	fidIndex map[FID]int

	adj     map[int]map[int]*Link // from -> to -> link
	rev     map[int]map[int]bool  // to -> set of from, for in-degree/trim
	triggers map[metadata.PID][]Trigger
}

const rootID = 0

// newGraph builds an empty graph with just the Root node.
func newGraph(m *metadata.Model) *Graph {
	g := &Graph{
		model:    m,
		nodes:    []node{{isRoot: true}},
		fidIndex: map[FID]int{},
		adj:      map[int]map[int]*Link{},
		rev:      map[int]map[int]bool{},
		triggers: map[metadata.PID][]Trigger{},
	}
	return g
}

// Model returns the metadata model this graph was built from.
func (g *Graph) Model() *metadata.Model { return g.model }

// RootID returns the synthetic Root node's id.
func (g *Graph) RootID() int { return rootID }

// NodeFID returns the FID of a non-root node.
func (g *Graph) NodeFID(id int) FID { return g.nodes[id].fid }

// NodeOrigin reports whether id is a workspace or external node.
func (g *Graph) NodeOrigin(id int) Origin { return g.nodes[id].origin }

// Triggers returns every Trigger registered during construction.
func (g *Graph) Triggers() []Trigger {
	var all []Trigger
	for _, pid := range sortedPIDs(g.triggers) {
		all = append(all, g.triggers[pid]...)
	}
	return all
}

func sortedPIDs(m map[metadata.PID][]Trigger) []metadata.PID {
	out := make([]metadata.PID, 0, len(m))
	for pid := range m {
		out = append(out, pid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ensureNode returns the node id for fid, creating it (and tagging its
// origin from the model) if it doesn't already exist. Per invariant I2, a
// FID never gets two node ids.
func (g *Graph) ensureNode(fid FID) int {
	if id, ok := g.fidIndex[fid]; ok {
		return id
	}
	origin := OriginExternal
	if g.model.IsWorkspaceMember(fid.PID) {
		origin = OriginWorkspace
	}
	id := len(g.nodes)
	g.nodes = append(g.nodes, node{fid: fid, origin: origin})
	g.fidIndex[fid] = id
	return id
}

// BaseID returns the node id of pid's Base FID, creating it if necessary.
func (g *Graph) BaseID(pid metadata.PID) int { return g.ensureNode(FID{PID: pid, Tag: BaseTag()}) }

// Lookup returns the existing node id for fid, if any.
func (g *Graph) Lookup(fid FID) (int, bool) {
	id, ok := g.fidIndex[fid]
	return id, ok
}

// AddEdge adds (or folds into an existing) edge from -> to with the given
// kind and optionality.
func (g *Graph) AddEdge(from, to int, k Kind, optional bool) {
	if from == to {
		return
	}
	bucket, ok := g.adj[from]
	if !ok {
		bucket = map[int]*Link{}
		g.adj[from] = bucket
	}
	link, ok := bucket[to]
	if !ok {
		link = &Link{Optional: optional, Kinds: []Kind{k}}
		bucket[to] = link
	} else {
		link.fold(Link{Optional: optional, Kinds: []Kind{k}})
	}
	if g.rev[to] == nil {
		g.rev[to] = map[int]bool{}
	}
	g.rev[to][from] = true
}

// RemoveEdge deletes the edge from -> to, if present.
func (g *Graph) RemoveEdge(from, to int) {
	if bucket, ok := g.adj[from]; ok {
		delete(bucket, to)
	}
	if froms, ok := g.rev[to]; ok {
		delete(froms, from)
	}
}

// HasEdge reports whether an edge from -> to exists.
func (g *Graph) HasEdge(from, to int) bool {
	_, ok := g.adj[from][to]
	return ok
}

// Out returns the sorted target node ids reachable directly from id.
func (g *Graph) Out(id int) []int {
	bucket := g.adj[id]
	out := make([]int, 0, len(bucket))
	for to := range bucket {
		out = append(out, to)
	}
	sort.Ints(out)
	return out
}

// InDegree returns the number of distinct edges into id.
func (g *Graph) InDegree(id int) int { return len(g.rev[id]) }

// NodeCount returns the total number of nodes, including Root.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// removeNode strips id out of the graph entirely: all outgoing and incoming
// edges, the fid index entry, but leaves a tombstone at its slot so other
// node ids remain stable.
func (g *Graph) removeNode(id int) {
	for to := range g.adj[id] {
		delete(g.rev[to], id)
	}
	delete(g.adj, id)
	for from := range g.rev[id] {
		delete(g.adj[from], id)
	}
	delete(g.rev, id)
	delete(g.fidIndex, g.nodes[id].fid)
	g.nodes[id] = node{}
}

func (g *Graph) removed(id int) bool {
	return id != rootID && g.nodes[id].fid == (FID{}) && !g.nodes[id].isRoot
}

// resolveDependency implements the package match: name +
// source, disambiguated via the model's resolve graph when more than one
// candidate shares (name, source).
func (g *Graph) resolveDependency(owner metadata.PID, dep metadata.Dependency) (metadata.PID, bool) {
	candidates := g.model.PackagesByName(dep.Name)
	var depSource *string
	if dep.Source != "" {
		s := dep.Source
		depSource = &s
	}
	var matched []metadata.PID
	for _, c := range candidates {
		if metadata.SourceMatches(depSource, g.model.Package(c).Source) {
			matched = append(matched, c)
		}
	}
	switch len(matched) {
	case 0:
		return 0, false
	case 1:
		return matched[0], true
	default:
		if pid, ok := g.model.ResolvedTarget(owner, dep.EffectiveName()); ok {
			return pid, true
		}
		return matched[0], true
	}
}

// findDependency returns the raw dependency declaration of owner whose
// effective (post-rename) name equals name, used to resolve dep:/krate/feat
// feature-target strings back to a concrete dependency edge.
func findDependency(pkg *metadata.Package, name string) (metadata.Dependency, bool) {
	for _, d := range pkg.Dependencies {
		if d.EffectiveName() == name {
			return d, true
		}
	}
	return metadata.Dependency{}, false
}

// Build constructs a FeatGraph from a metadata Model.
func Build(m *metadata.Model) (*Graph, error) {
	g := newGraph(m)

	for _, pkg := range m.Packages() {
		g.BaseID(pkg.PID)
	}

	for i := range m.Packages() {
		pkg := m.Package(metadata.PID(i))
		if m.IsWorkspaceMember(pkg.PID) {
			root := BaseTag()
			if pkg.HasDefaultFeature() {
				root = NamedTag("default")
			}
			rootFID := FID{PID: pkg.PID, Tag: root}
			rootNode := g.ensureNode(rootFID)
			g.AddEdge(rootID, rootNode, Kind{Dep: metadata.Normal}, false)
		}

		if err := g.addDependencyEdges(pkg); err != nil {
			return nil, err
		}
		if err := g.addFeatureEdges(pkg); err != nil {
			return nil, err
		}
	}

	return g, nil
}

func (g *Graph) addDependencyEdges(pkg *metadata.Package) error {
	for _, dep := range pkg.Dependencies {
		if !g.model.IsWorkspaceMember(pkg.PID) && dep.DepKind() == metadata.Development {
			continue
		}
		qpid, ok := g.resolveDependency(pkg.PID, dep)
		if !ok {
			continue // unmatched source/name: skipped; nothing is logged
		}

		var srcFID FID
		if dep.Optional {
			srcFID = FID{PID: pkg.PID, Tag: NamedTag(dep.EffectiveName())}
		} else {
			srcFID = FID{PID: pkg.PID, Tag: BaseTag()}
		}
		src := g.ensureNode(srcFID)

		qPkg := g.model.Package(qpid)
		var tgtFID FID
		if dep.UsesDefaultFeatures {
			tag := BaseTag()
			if qPkg.HasDefaultFeature() {
				tag = NamedTag("default")
			}
			tgtFID = FID{PID: qpid, Tag: tag}
		} else {
			tgtFID = FID{PID: qpid, Tag: BaseTag()}
		}
		tgt := g.ensureNode(tgtFID)

		pred, err := target.Parse(dep.Target)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPackage, err, "package %s: dependency %s", pkg.Name, dep.Name)
		}
		k := Kind{Dep: dep.DepKind(), TargetRaw: dep.Target, Pred: pred}
		g.AddEdge(src, tgt, k, false)

		for _, feat := range dep.Features {
			fFID := FID{PID: qpid, Tag: NamedTag(feat)}
			fnode := g.ensureNode(fFID)
			g.AddEdge(src, fnode, k, false)
		}
	}
	return nil
}

func (g *Graph) addFeatureEdges(pkg *metadata.Package) error {
	names := make([]string, 0, len(pkg.Features))
	for f := range pkg.Features {
		names = append(names, f)
	}
	sort.Strings(names)

	for _, fname := range names {
		deps := pkg.Features[fname]
		fFID := FID{PID: pkg.PID, Tag: NamedTag(fname)}
		fnode := g.ensureNode(fFID)
		base := g.BaseID(pkg.PID)
		localKind := Kind{Dep: metadata.Normal}
		g.AddEdge(fnode, base, localKind, false) // invariant I3

		for _, raw := range deps {
			ft := ParseFeatTarget(raw)
			switch ft.Kind {
			case TargetNamed:
				tgt := g.ensureNode(FID{PID: pkg.PID, Tag: NamedTag(ft.Name)})
				g.AddEdge(fnode, tgt, localKind, false)

			case TargetDependency:
				dep, ok := findDependency(pkg, ft.Name)
				if !ok || !dep.Optional {
					continue
				}
				tgt := g.ensureNode(FID{PID: pkg.PID, Tag: NamedTag(ft.Name)})
				g.AddEdge(fnode, tgt, localKind, false)

			case TargetRemote:
				dep, ok := findDependency(pkg, ft.Name)
				if !ok {
					continue
				}
				qpid, ok := g.resolveDependency(pkg.PID, dep)
				if !ok {
					continue
				}
				remoteTgt := g.ensureNode(FID{PID: qpid, Tag: NamedTag(ft.Feat)})
				g.AddEdge(fnode, remoteTgt, localKind, false)
				if dep.Optional {
					localTgt := g.ensureNode(FID{PID: pkg.PID, Tag: NamedTag(ft.Name)})
					g.AddEdge(fnode, localTgt, localKind, false)
				}

			case TargetCond:
				dep, ok := findDependency(pkg, ft.Name)
				if !ok {
					continue
				}
				qpid, ok := g.resolveDependency(pkg.PID, dep)
				if !ok {
					continue
				}
				weakFeat := g.ensureNode(FID{PID: qpid, Tag: NamedTag(ft.Feat)})
				g.triggers[pkg.PID] = append(g.triggers[pkg.PID], Trigger{
					Owner:        pkg.PID,
					OwnerFeature: fFID,
					WeakBase:     FID{PID: qpid, Tag: BaseTag()},
					WeakFeat:     g.nodes[weakFeat].fid,
				})
			}
		}
	}
	return nil
}
