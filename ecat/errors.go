package ecat

import "errors"

var (
	// ErrStackNil indicates that a nil Stack was provided.
	ErrStackNil = errors.New("stack is nil")

	// ErrInvalidArgument indicates a caller error such as a non-positive
	// buffer size or count. It is distinct from every protocol error.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrClosed indicates that the session or stack has been closed.
	ErrClosed = errors.New("session closed")

	// ErrSlaveIndex indicates that a slave position is outside the
	// 1..SlaveCount range.
	ErrSlaveIndex = errors.New("slave position out of range")

	// ErrAdapterBusy indicates that a live session already owns the
	// requested network adapter.
	ErrAdapterBusy = errors.New("adapter already owned by a live session")
)

var (
	// ErrNoSlaves indicates that bus discovery found no slaves.
	// Bring-up fails fatally; no partial session is returned.
	ErrNoSlaves = errors.New("no slaves found on bus")

	// ErrImageOverflow indicates that the mapped process image exceeds the
	// allocated bound. This is fatal and non-recoverable.
	ErrImageOverflow = errors.New("mapped process image exceeds allocated bound")

	// ErrRegionBounds indicates that a requested region does not fit inside
	// the process image.
	ErrRegionBounds = errors.New("region out of process image bounds")
)

var (
	// ErrSendFailed indicates that the frame transmit of one cycle failed.
	// No receive is attempted for that cycle.
	ErrSendFailed = errors.New("process data send failed")

	// ErrRecvFailed indicates that the frame receive of one cycle failed or
	// timed out at the transport level.
	ErrRecvFailed = errors.New("process data receive failed")

	// ErrWKCLow indicates that the observed working counter is below the
	// expected value, signalling a partial device dropout. It is distinct
	// from total communication loss and is the trigger for recovery.
	ErrWKCLow = errors.New("working counter below expected")

	// ErrNotOperational indicates that the bus, or at least one slave on it,
	// did not reach the Operational state within the allowed time.
	ErrNotOperational = errors.New("bus did not reach operational state")
)
