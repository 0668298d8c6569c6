package quorum

import (
	"github.com/cuemby/ringplace/pkg/node"
	"github.com/cuemby/ringplace/pkg/ringerr"
)

// required computes the base consistency-level response count over n
// eligible targets, before any explicit override is applied (spec §4.6's
// table).
func required(level Level, n int) int {
	switch level {
	case One, LocalOne:
		return 1
	case All:
		return n
	default: // Quorum, LocalQuorum
		return n/2 + 1
	}
}

// localTargets returns the subset of targets whose owning node sits in dc.
func localTargets(targets []uint64, nodes map[uint64]*node.Node, dc uint32) []uint64 {
	out := make([]uint64, 0, len(targets))
	for _, id := range targets {
		if n, ok := nodes[id]; ok && n.Location.DCID == dc {
			out = append(out, id)
		}
	}
	return out
}

// eachQuorumRequired sums ⌊D_i/2⌋+1 across every distinct DC represented
// in targets (spec §4.6's EachQuorum row).
func eachQuorumRequired(targets []uint64, nodes map[uint64]*node.Node) int {
	perDC := make(map[uint32]int)
	for _, id := range targets {
		if n, ok := nodes[id]; ok {
			perDC[n.Location.DCID]++
		}
	}
	total := 0
	for _, count := range perDC {
		total += count/2 + 1
	}
	return total
}

// PlanWrite derives a WriteSet from an already-resolved, primary-first
// placement (spec §4.6). nodes supplies the Location lookups needed for
// the DC-scoped levels.
func PlanWrite(targets []uint64, nodes map[uint64]*node.Node, policy Policy) (*WriteSet, error) {
	scoped := targets
	switch policy.Level {
	case LocalOne, LocalQuorum:
		scoped = localTargets(targets, nodes, policy.LocalDC)
	}

	sync := required(policy.Level, len(scoped))
	if policy.Level == EachQuorum {
		sync = eachQuorumRequired(targets, nodes)
	}
	if policy.WriteQuorum > 0 {
		sync = policy.WriteQuorum
	}

	if sync > len(targets) {
		return nil, ringerr.New(ringerr.QuorumFailed, "quorum.PlanWrite", "fewer eligible targets than required sync acks")
	}

	return &WriteSet{
		Targets:      append([]uint64(nil), targets...),
		SyncRequired: sync,
		AsyncAllowed: len(targets) - sync,
	}, nil
}

// PlanRead derives a ReadSet from an already-resolved placement (spec
// §4.6). Targets keep the order they are given in; pkg/ring passes them
// in decreasing read preference.
func PlanRead(targets []uint64, nodes map[uint64]*node.Node, policy Policy) (*ReadSet, error) {
	scoped := targets
	switch policy.Level {
	case LocalOne, LocalQuorum:
		scoped = localTargets(targets, nodes, policy.LocalDC)
	}

	responses := required(policy.Level, len(scoped))
	if policy.Level == EachQuorum {
		responses = eachQuorumRequired(targets, nodes)
	}
	if policy.ReadQuorum > 0 {
		responses = policy.ReadQuorum
	}

	if responses > len(targets) {
		return nil, ringerr.New(ringerr.QuorumFailed, "quorum.PlanRead", "fewer eligible targets than required responses")
	}

	return &ReadSet{
		Targets:           append([]uint64(nil), targets...),
		RequiredResponses: responses,
		ReadRepair:        policy.ReadRepair,
	}, nil
}
