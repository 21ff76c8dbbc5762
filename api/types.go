// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations and constants.

package api

// ConnState enumerates the lifecycle of an upgraded connection:
// PreUpgrade -> Upgrading -> Open -> Closing -> Closed.
type ConnState int32

const (
	StatePreUpgrade ConnState = iota
	StateUpgrading
	StateOpen
	StateClosing
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StatePreUpgrade:
		return "pre_upgrade"
	case StateUpgrading:
		return "upgrading"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ProcessResult is the outcome of one ProcessOne iteration.
type ProcessResult int

const (
	ResultNone ProcessResult = iota
	ResultDone
	ResultError
	ResultClosed
)
