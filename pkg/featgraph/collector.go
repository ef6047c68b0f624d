package featgraph

import (
	"sort"

	"github.com/cargounify/cargounify/pkg/metadata"
	"github.com/cargounify/cargounify/pkg/target"
)

// DetachedDepTree is the Collector's output: for every reached package (keyed
// by its Base node id) the set of node ids reached for that package's
// features.
type DetachedDepTree map[int]map[int]bool

// Features returns the named features seen for base, sorted, dropping the
// Base node itself out of the set.
func (t DetachedDepTree) Features(g *Graph, base int) []string {
	var names []string
	for n := range t[base] {
		fid := g.NodeFID(n)
		if fid.Tag.Named {
			names = append(names, fid.Tag.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Equal reports whether t and other reach exactly the same node ids for
// every base package, the same "feats_seen != ws_feats"
// comparison.
func (t DetachedDepTree) Equal(other DetachedDepTree) bool {
	if len(t) != len(other) {
		return false
	}
	for base, nodes := range t {
		o, ok := other[base]
		if !ok || len(o) != len(nodes) {
			return false
		}
		for n := range nodes {
			if !o[n] {
				return false
			}
		}
	}
	return true
}

// Missing returns one arbitrary node id present in want[base] but absent
// from t[base], for some base. ok is false if t already contains everything
// want does.
func (t DetachedDepTree) Missing(want DetachedDepTree) (base, missing int, ok bool) {
	bases := make([]int, 0, len(want))
	for b := range want {
		bases = append(bases, b)
	}
	sort.Ints(bases)
	for _, b := range bases {
		wantNodes := want[b]
		have := t[b]
		ids := make([]int, 0, len(wantNodes))
		for n := range wantNodes {
			ids = append(ids, n)
		}
		sort.Ints(ids)
		for _, n := range ids {
			if !have[n] {
				return b, n, true
			}
		}
	}
	return 0, 0, false
}

// Collector runs the parameterised DFS from a single root
// node, reusable across incremental re-runs (the Changeset algorithm mutates
// the graph with "patch" edges between runs and wants the visited set to
// persist rather than restart from scratch).
type Collector struct {
	g    *Graph
	mode Mode
	info target.Info

	visited map[int]bool
	tree    DetachedDepTree
}

// NewCollector creates a Collector for graph g under mode, evaluated against
// the given target Info.
func NewCollector(g *Graph, mode Mode, info target.Info) *Collector {
	return &Collector{
		g:       g,
		mode:    mode,
		info:    info,
		visited: map[int]bool{},
		tree:    DetachedDepTree{},
	}
}

// Tree returns the Collector's accumulated result.
func (c *Collector) Tree() DetachedDepTree { return c.tree }

// Run performs a full collection from root, including the post-DFS Trigger
// fixpoint, and returns the resulting tree. It may
// be called repeatedly on the same Collector (e.g. after patch edges are
// added) — already-visited nodes are not re-traversed.
func (c *Collector) Run(root int) DetachedDepTree {
	c.dfs(root)
	c.fireTriggers()
	return c.tree
}

// Visited reports whether node id has already been visited by this
// Collector.
func (c *Collector) Visited(id int) bool { return c.visited[id] }

func (c *Collector) dfs(id int) {
	if c.visited[id] {
		return
	}
	c.visited[id] = true
	c.record(id)

	for _, to := range c.g.Out(id) {
		link := c.g.adj[id][to]
		srcIsMember := id == c.g.RootID() || c.g.NodeOrigin(id) == OriginWorkspace
		var srcPID metadata.PID
		if id != c.g.RootID() {
			srcPID = c.g.NodeFID(id).PID
		}
		if !link.satisfies(c.mode, srcIsMember, srcPID, c.info) {
			continue
		}
		c.dfs(to)
	}
}

func (c *Collector) record(id int) {
	if id == c.g.RootID() {
		return
	}
	fid := c.g.NodeFID(id)
	base := c.g.BaseID(fid.PID)
	if c.tree[base] == nil {
		c.tree[base] = map[int]bool{}
	}
	c.tree[base][id] = true
}

// fireTriggers repeatedly scans every
// registered Trigger and, for any whose owner feature and weak dependency
// are both present in the tree, enqueue the weak feature as a new DFS root.
// Terminates when a full pass fires nothing new.
func (c *Collector) fireTriggers() {
	for {
		fired := false
		for _, t := range c.g.Triggers() {
			ownerBase := c.g.BaseID(t.Owner)
			ownerFeatID, ok := c.g.Lookup(t.OwnerFeature)
			if !ok || !c.tree[ownerBase][ownerFeatID] {
				continue
			}
			weakBaseID, ok := c.g.Lookup(t.WeakBase)
			if !ok {
				continue
			}
			if _, ok := c.tree[weakBaseID]; !ok {
				continue // weak dep not present in this same collection-mode DFS
			}
			weakFeatID, ok := c.g.Lookup(t.WeakFeat)
			if !ok {
				continue
			}
			if c.tree[weakBaseID][weakFeatID] {
				continue // already present
			}
			c.dfs(weakFeatID)
			fired = true
		}
		if !fired {
			return
		}
	}
}
