package featgraph

import (
	"github.com/cargounify/cargounify/pkg/metadata"
	"github.com/cargounify/cargounify/pkg/target"
)

// Kind is one (DepKind, target predicate) pair an edge can be active under.
// TargetRaw is kept alongside the parsed Predicate purely so two Kinds can
// be compared for folding without needing Predicate to be comparable.
type Kind struct {
	Dep       metadata.DepKind
	TargetRaw string
	Pred      *target.Predicate
}

func (k Kind) equal(o Kind) bool { return k.Dep == o.Dep && k.TargetRaw == o.TargetRaw }

// Link is a FeatGraph edge weight.
type Link struct {
	Optional bool
	Kinds    []Kind
}

// fold merges other into l in place: folding parallel
// edges": union the kinds list by value, AND the optional flags.
func (l *Link) fold(other Link) {
	l.Optional = l.Optional && other.Optional
	for _, k := range other.Kinds {
		l.addKind(k)
	}
}

func (l *Link) addKind(k Kind) {
	for _, existing := range l.Kinds {
		if existing.equal(k) {
			return
		}
	}
	l.Kinds = append(l.Kinds, k)
}

// satisfies reports whether an edge is active under mode m, mode
// member (only meaningful for MemberDev), target info info, and the PID the
// edge originates from (srcPID) iff some kind in l.Kinds satisfies both the
// target predicate and the kind check.
func (l *Link) satisfies(m Mode, srcIsMember bool, srcPID metadata.PID, info target.Info) bool {
	for _, k := range l.Kinds {
		if !k.Pred.Satisfies(info) {
			continue
		}
		if m.acceptsKind(k.Dep, srcIsMember, srcPID) {
			return true
		}
	}
	return false
}
