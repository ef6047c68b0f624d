package featgraph

import "github.com/cargounify/cargounify/pkg/metadata"

// ModeKind enumerates the Collector's five traversal modes.
type ModeKind int

const (
	AllTargets ModeKind = iota
	TargetFiltered
	DevTargetFiltered
	NoDev
	MemberDevOnly
)

// Mode parameterises a Collector traversal. Member is only meaningful for
// MemberDevOnly.
type Mode struct {
	Kind   ModeKind
	Member metadata.PID
}

func ModeAllTargets() Mode            { return Mode{Kind: AllTargets} }
func ModeTarget() Mode                { return Mode{Kind: TargetFiltered} }
func ModeDevTarget() Mode             { return Mode{Kind: DevTargetFiltered} }
func ModeNoDev() Mode                 { return Mode{Kind: NoDev} }
func ModeMemberDev(m metadata.PID) Mode { return Mode{Kind: MemberDevOnly, Member: m} }

// acceptsKind implements the per-mode dependency-kind check.
func (m Mode) acceptsKind(dep metadata.DepKind, srcIsMember bool, srcPID metadata.PID) bool {
	switch m.Kind {
	case AllTargets:
		return true
	case TargetFiltered, DevTargetFiltered:
		if dep == metadata.Development {
			return srcIsMember
		}
		return true
	case NoDev:
		return dep != metadata.Development
	case MemberDevOnly:
		if dep == metadata.Development {
			return srcPID == m.Member
		}
		return true
	default:
		return false
	}
}
