// Package ringerr defines the result-code error taxonomy shared by every
// placement-engine package. Mutating operations never panic across a
// package boundary; they return one of these codes wrapped with context.
package ringerr

import (
	"errors"
	"fmt"
)

// Code classifies a failure the way the engine's callers need to branch on:
// caller mistakes, capacity exhaustion, or topology conditions that are not
// bugs (spec §7).
type Code int

const (
	// Ok is never actually returned as an error; it exists so Code has a
	// meaningful zero value for logging.
	Ok Code = iota
	Generic
	NotFound
	AlreadyExists
	NoNodes
	QuorumFailed
	InvalidState
	AllocFailed
	InvalidConfig
)

func (c Code) String() string {
	switch c {
	case Ok:
		return "ok"
	case NotFound:
		return "not-found"
	case AlreadyExists:
		return "already-exists"
	case NoNodes:
		return "no-nodes"
	case QuorumFailed:
		return "quorum-failed"
	case InvalidState:
		return "invalid-state"
	case AllocFailed:
		return "alloc-failed"
	case InvalidConfig:
		return "invalid-config"
	default:
		return "error"
	}
}

// Error is the concrete error type every package in this module returns for
// expected failure conditions.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with no wrapped cause.
func New(code Code, op, msg string) *Error {
	return &Error{Code: code, Op: op, Err: errors.New(msg)}
}

// Wrap attaches op/code context to an existing error.
func Wrap(code Code, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

// Is reports whether err carries the given code, unwrapping as needed.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
