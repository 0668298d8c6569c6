// Package rebalance computes and tracks hash-range moves triggered by
// node topology changes (spec §4.7), grounded on clusterRebalancePlan and
// clusterPlanRebalance in the original C source.
package rebalance

import (
	"time"

	"github.com/google/uuid"
)

// MoveState is a single move's lifecycle stage.
type MoveState int

const (
	MovePending MoveState = iota
	MoveInProgress
	MoveCompleted
	MoveFailed
)

func (s MoveState) String() string {
	switch s {
	case MovePending:
		return "pending"
	case MoveInProgress:
		return "in_progress"
	case MoveCompleted:
		return "completed"
	case MoveFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Move is one hash-range reassignment: the keyspace (RangeStart,
// RangeEnd] currently owned by SourceNodeID moves to TargetNodeID (spec
// §4.7). EstimatedBytes scales the source's usedBytes by the fraction of
// its keyspace being ceded.
type Move struct {
	RangeStart     uint64
	RangeEnd       uint64
	SourceNodeID   uint64
	TargetNodeID   uint64
	EstimatedBytes uint64
	State          MoveState
}

// Plan is an ordered set of moves plus lifecycle bookkeeping (spec §4.7).
type Plan struct {
	ID        uuid.UUID
	Moves     []Move
	CreatedAt time.Time
	Strategy  string // the strategy kind that produced this plan, for logging

	completed *bitmap
	failed    *bitmap
	started   bool
}

// NewPlan wraps moves into a fresh Plan with zeroed completion tracking.
func NewPlan(strategy string, moves []Move, now time.Time) *Plan {
	return &Plan{
		ID:        uuid.New(),
		Moves:     moves,
		CreatedAt: now,
		Strategy:  strategy,
		completed: newBitmap(len(moves)),
		failed:    newBitmap(len(moves)),
	}
}

// Counts reports (completed, total) moves.
func (p *Plan) Counts() (completed, total int) {
	if p == nil {
		return 0, 0
	}
	return p.completed.count(), len(p.Moves)
}

// Progress returns (completed+failed)/total, matching
// clusterRebalancePlanProgress verbatim.
func (p *Plan) Progress() float64 {
	if p == nil || len(p.Moves) == 0 {
		return 0
	}
	return float64(p.completed.count()+p.failed.count()) / float64(len(p.Moves))
}

// CompleteMove marks the move at index as completed as its data transfer
// finishes externally (spec §4.7: "completion is driven externally").
func (p *Plan) CompleteMove(index int) error {
	if index < 0 || index >= len(p.Moves) {
		return errIndexRange
	}
	p.started = true
	p.completed.set(index)
	p.Moves[index].State = MoveCompleted
	return nil
}

// FailMove marks the move at index as failed without touching the rest
// of the plan; the caller decides whether to retry or cancel.
func (p *Plan) FailMove(index int) error {
	if index < 0 || index >= len(p.Moves) {
		return errIndexRange
	}
	p.started = true
	p.failed.set(index)
	p.Moves[index].State = MoveFailed
	return nil
}

// Done reports whether every move has reached a terminal state.
func (p *Plan) Done() bool {
	for i := range p.Moves {
		if !p.completed.get(i) && !p.failed.get(i) {
			return false
		}
	}
	return true
}

// Started reports whether any move has been completed or failed yet; a
// plan that has not started can be rolled back cleanly on cancel (spec
// §4.7).
func (p *Plan) Started() bool { return p.started }

// Cancel marks every non-completed move as failed and reports whether no
// move had started (Ring.CancelRebalance marks its strategy dirty in that
// case).
func (p *Plan) Cancel() (rollback bool) {
	rollback = !p.started
	for i := range p.Moves {
		if !p.completed.get(i) {
			p.failed.set(i)
			p.Moves[i].State = MoveFailed
		}
	}
	return rollback
}
