// Package node defines the placement engine's node record: identity,
// capacity, topology location, lifecycle state, and the health/load
// samples strategies and the resolver read (spec §3, §4.3).
package node

import (
	"time"

	"github.com/cuemby/ringplace/pkg/topology"
)

// State is one of the seven lifecycle states a node can occupy (spec
// §4.3). Modeled as a small string enum the way the teacher's
// types.NodeStatus is, rather than an unexported int, so logs and
// serialized snapshots stay human-readable.
type State string

const (
	Up          State = "up"
	Joining     State = "joining"
	Leaving     State = "leaving"
	Down        State = "down"
	Suspect     State = "suspect"
	Recovering  State = "recovering"
	Maintenance State = "maintenance"
)

// transitions enumerates the legal State machine edges from spec §4.3.
var transitions = map[State]map[State]bool{
	Joining:     {Up: true, Leaving: true, Down: true},
	Up:          {Leaving: true, Down: true, Suspect: true, Maintenance: true},
	Suspect:     {Up: true, Down: true},
	Down:        {Recovering: true, Leaving: true},
	Recovering:  {Up: true, Down: true},
	Maintenance: {Up: true, Leaving: true},
	Leaving:     {Down: true},
}

// CanTransition reports whether moving from old to next is a legal edge.
// Moving to the same state is never legal; callers must treat it as a
// no-op or reject explicitly before calling CanTransition.
func CanTransition(old, next State) bool {
	return transitions[old][next]
}

// Eligible reports whether a node in this state is eligible for
// placement at all (spec §4.3: Up, Joining, Recovering, Suspect are;
// Leaving, Down, Maintenance are not).
func (s State) Eligible() bool {
	switch s {
	case Up, Joining, Recovering, Suspect:
		return true
	default:
		return false
	}
}

// ReceiveOnly reports whether the state restricts a node to receiving
// data rather than serving reads (Joining, Recovering).
func (s State) ReceiveOnly() bool {
	return s == Joining || s == Recovering
}

// Health is a point-in-time reachability/latency sample (spec §3).
type Health struct {
	Reachable bool
	LatencyMs uint32
	ErrorRate float64 // [0,1]
	At        time.Time
}

// Load is a point-in-time resource-utilization sample (spec §3).
type Load struct {
	CPU         float64 // [0,1]
	Memory      float64 // [0,1]
	Disk        float64 // [0,1]
	ActiveConns uint32
	QueueDepth  uint64
}

// Node is one cluster member. Name/Address are owned copies; callers may
// reuse or discard their own buffers after AddNode (spec §4.3).
type Node struct {
	ID       uint64
	Name     string
	Address  string
	Location topology.Location

	Weight        uint32
	CapacityBytes uint64
	UsedBytes     uint64

	State          State
	StateChangedAt time.Time
	FailureCount   uint32

	Health Health
	Load   Load

	// VnodeCount/VnodeStart are Ketama bookkeeping: how many vnodes this
	// node owns and where its contiguous run starts in the ring's sorted
	// vnode array (spec §3 "Virtual node"). Unused by strategies that
	// don't maintain vnodes.
	VnodeCount uint32
	VnodeStart uint32
}

// Config is the caller-supplied shape for creating a Node (spec §6).
type Config struct {
	ID            uint64
	Name          string
	Address       string
	Location      topology.Location
	Weight        uint32
	CapacityBytes uint64
	InitialState  State
}

// New builds a Node from a Config, defaulting Weight to 1 and
// InitialState to Joining the way the C source's clusterNodeConfig
// implies (spec §4.3: "Initial state is specified by the caller
// (typically Joining or Up)").
func New(cfg Config, now time.Time) *Node {
	weight := cfg.Weight
	if weight == 0 {
		weight = 1
	}
	state := cfg.InitialState
	if state == "" {
		state = Joining
	}
	return &Node{
		ID:             cfg.ID,
		Name:           cfg.Name,
		Address:        cfg.Address,
		Location:       cfg.Location,
		Weight:         weight,
		CapacityBytes:  cfg.CapacityBytes,
		State:          state,
		StateChangedAt: now,
	}
}

// String implements the idiomatic Go replacement for the C source's
// DATAKIT_TEST-gated clusterNodeRepr debug helper.
func (n *Node) String() string {
	return "node(" + n.Name + ")"
}
