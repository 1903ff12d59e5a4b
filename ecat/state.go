package ecat

import "strings"

// State represents the application-layer state of a slave, or of the whole
// group when read through slave position 0.
//
// The four base states form the bring-up ladder Init -> PreOp -> SafeOp ->
// Operational. The fifth bit is orthogonal: slaves report it as an error
// flag, and the master writes it back as an acknowledge to clear the error.
type State uint16

const (
	// StateNone indicates an unknown or unread state.
	StateNone State = 0x00
	// StateInit is the initial state after power-on or teardown.
	StateInit State = 0x01
	// StatePreOp allows mailbox communication but no process data.
	StatePreOp State = 0x02
	// StateSafeOp exchanges process data but keeps outputs in a safe state.
	StateSafeOp State = 0x04
	// StateOperational is the full cyclic data exchange state.
	StateOperational State = 0x08
	// StateAck acknowledges and clears a slave error when written.
	StateAck State = 0x10
	// StateError flags a fault condition when read from a slave.
	// It shares the bit with StateAck.
	StateError State = 0x10
)

// Base returns the state with the error/ack flag stripped.
func (s State) Base() State { return s &^ StateError }

// HasError returns whether the error flag is set.
func (s State) HasError() bool { return s&StateError != 0 }

// IsOperational returns whether the base state is Operational.
func (s State) IsOperational() bool { return s.Base() == StateOperational }

// String returns string representation of the state.
func (s State) String() string {
	var name string
	switch s.Base() {
	case StateInit:
		name = "init"
	case StatePreOp:
		name = "pre-op"
	case StateSafeOp:
		name = "safe-op"
	case StateOperational:
		name = "operational"
	case StateNone:
		name = "none"
	default:
		name = "unknown"
	}

	if s.HasError() {
		var sb strings.Builder
		sb.WriteString(name)
		sb.WriteString("+error")
		return sb.String()
	}

	return name
}
