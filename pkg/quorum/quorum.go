// Package quorum translates a consistency policy into concrete write-sets
// and read-sets over a resolved placement (spec §4.6), grounded on
// clusterQuorumPolicy/clusterPlanWrite/clusterPlanRead in the original C
// source.
package quorum

// Level is one of the six consistency levels spec §4.6 defines.
type Level int

const (
	One Level = iota
	Quorum
	All
	LocalOne
	LocalQuorum
	EachQuorum
)

func (l Level) String() string {
	switch l {
	case One:
		return "one"
	case Quorum:
		return "quorum"
	case All:
		return "all"
	case LocalOne:
		return "local_one"
	case LocalQuorum:
		return "local_quorum"
	case EachQuorum:
		return "each_quorum"
	default:
		return "unknown"
	}
}

// Policy is the caller-supplied shape governing quorum derivation (spec
// §4.6, §6). WriteQuorum/ReadQuorum, when non-zero, override Level
// entirely: this is the explicit Open Question resolution (spec §9 —
// "explicit fields win over the level").
type Policy struct {
	ReplicaCount int
	Level        Level
	WriteQuorum  int
	ReadQuorum   int
	LocalDC      uint32
	ReadRepair   bool
}

// Predefined policies matching common deployment postures (spec §9, and
// the strength/latency trade-offs the original C source's
// clusterQuorumPreset table names).
var (
	Strong     = Policy{Level: All}
	Balanced   = Policy{Level: Quorum, ReadRepair: true}
	Eventual   = Policy{Level: One}
	ReadHeavy  = Policy{Level: Quorum, ReadQuorum: 1}
	WriteHeavy = Policy{Level: Quorum, WriteQuorum: 1}
)

// WriteSet is the result of planning a write: replicas ordered
// primary-first, split into the acks required synchronously versus the
// remainder allowed to complete asynchronously (spec §4.6).
type WriteSet struct {
	Targets      []uint64
	SyncRequired int
	AsyncAllowed int
}

// ReadSet is the result of planning a read: replicas in decreasing read
// preference, the number of responses required, and whether read repair
// should run against the non-responding preference tail (spec §4.6).
type ReadSet struct {
	Targets           []uint64
	RequiredResponses int
	ReadRepair        bool
}
