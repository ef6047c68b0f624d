package featgraph

import "github.com/charmbracelet/log"

// TrimUnusedFeatures repeatedly drops External nodes with no incoming
// edges, to fixpoint.
func (g *Graph) TrimUnusedFeatures() {
	for {
		changed := false
		for id, n := range g.nodes {
			if id == rootID || g.removed(id) {
				continue
			}
			if n.origin != OriginExternal {
				continue
			}
			if g.InDegree(id) == 0 {
				g.removeNode(id)
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

// TransitiveReduce removes edges a->b that are redundant because a->...->b
// already holds through some other path. Requires the graph to be acyclic;
// if a cycle is found, the pass is skipped with a logged warning and no
// edges are removed.
func (g *Graph) TransitiveReduce(logger *log.Logger) {
	order, ok := g.topoOrder()
	if !ok {
		if logger != nil {
			logger.Warn("cycle detected in feature graph, skipping transitive reduction")
		}
		return
	}

	// reach[v] = set of nodes reachable from v through edges NOT yet
	// identified as redundant, built in reverse topological order so that
	// by the time we process v every successor's reach set is final.
	reach := make(map[int]map[int]bool, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		v := order[i]
		set := map[int]bool{}
		reach[v] = set

		var toRemove []int
		for _, w := range g.Out(v) {
			if set[w] {
				// already reachable via an earlier sibling edge: redundant
				toRemove = append(toRemove, w)
				continue
			}
			set[w] = true
			for r := range reach[w] {
				set[r] = true
			}
		}
		for _, w := range toRemove {
			g.RemoveEdge(v, w)
		}
		// Second pass: now that set is complete, drop any direct edge v->w
		// where w is also reachable via some OTHER surviving edge.
		for _, w := range g.Out(v) {
			redundantVia := false
			for _, w2 := range g.Out(v) {
				if w2 == w {
					continue
				}
				if reach[w2][w] {
					redundantVia = true
					break
				}
			}
			if redundantVia {
				g.RemoveEdge(v, w)
			}
		}
	}
}

// topoOrder returns nodes in topological order (edges point from earlier to
// later), or ok=false if a cycle exists.
func (g *Graph) topoOrder() ([]int, bool) {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[int]int, len(g.nodes))
	order := make([]int, 0, len(g.nodes))
	ok := true

	var visit func(v int)
	visit = func(v int) {
		if !ok {
			return
		}
		switch state[v] {
		case done:
			return
		case visiting:
			ok = false
			return
		}
		state[v] = visiting
		for _, w := range g.Out(v) {
			visit(w)
			if !ok {
				return
			}
		}
		state[v] = done
		order = append(order, v)
	}

	for id := range g.nodes {
		if g.removed(id) {
			continue
		}
		visit(id)
		if !ok {
			return nil, false
		}
	}

	// order is currently postorder (children before parents);
	// reverse it so parents precede children.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, true
}
