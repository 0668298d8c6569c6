package ring

import (
	"github.com/cuemby/ringplace/pkg/node"
	"github.com/cuemby/ringplace/pkg/rebalance"
)

// StateChangeCallback fires synchronously, post-commit, on every
// successful node state transition (spec §6).
type StateChangeCallback func(r *Ring, nodeID uint64, old, next node.State)

// RebalanceCallback fires synchronously, post-commit, whenever a new
// rebalance plan is installed or the active plan is extended with new
// moves (spec §6).
type RebalanceCallback func(r *Ring, plan *rebalance.Plan)

// OnStateChange installs the ring's state-change callback.
func (r *Ring) OnStateChange(fn StateChangeCallback) { r.onStateChange = fn }

// OnRebalancePlan installs the ring's rebalance callback.
func (r *Ring) OnRebalancePlan(fn RebalanceCallback) { r.onRebalancePlan = fn }
