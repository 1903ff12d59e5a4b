package ecat

import "time"

// MaxNameLen is the maximum length of a slave device name in bytes.
// Longer names are truncated when scanned.
const MaxNameLen = 40

// Slave describes one physical device on the bus.
//
// Position is the 1-based, contiguous ordinal assigned during discovery.
// Inputs and Outputs are the device's regions of the shared process image;
// they are zero Regions until the image has been mapped.
type Slave struct {
	Position     int
	VendorID     uint32
	ProductCode  uint32
	Revision     uint32
	Name         string
	State        State
	ALStatusCode uint16
	Inputs       Region
	Outputs      Region
}

// SlaveInfo is the identity subset of Slave reported by a bus scan.
type SlaveInfo struct {
	Position    int
	VendorID    uint32
	ProductCode uint32
	Revision    uint32
	Name        string
}

// Info returns the identity subset of the slave descriptor.
func (s Slave) Info() SlaveInfo {
	return SlaveInfo{
		Position:    s.Position,
		VendorID:    s.VendorID,
		ProductCode: s.ProductCode,
		Revision:    s.Revision,
		Name:        s.Name,
	}
}

// Group describes the single process-data group combining all slaves' I/O
// into one contiguous process image.
type Group struct {
	// OutputBytes and InputBytes are the aggregate region sizes.
	OutputBytes int
	InputBytes  int

	// OutputsWKC and InputsWKC are the per-direction working counter
	// contributions derived from the mapping.
	OutputsWKC int
	InputsWKC  int

	// Outputs and Inputs are the aggregate regions of the process image.
	Outputs Region
	Inputs  Region
}

// ExpectedWKC returns the working counter value a fully healthy cycle
// produces: each output datagram counts twice, each input once.
func (g Group) ExpectedWKC() int {
	return 2*g.OutputsWKC + g.InputsWKC
}

// Stack is the interface to the external fieldbus protocol engine that owns
// the link layer, slave discovery and the datagram wire format.
//
// Positions follow the bus convention: 1..SlaveCount address individual
// slaves, position 0 addresses the whole group.
//
// A Stack, like the session built on it, is not safe for concurrent use
// without external serialization.
type Stack interface {
	// Open binds the stack to the named network adapter.
	Open(ifname string) error

	// Close releases the adapter. Always safe to call after a failed Open
	// sequence step.
	Close() error

	// Discover enumerates and configures the slaves, returning the count.
	// A count <= 0 means no usable bus.
	Discover() (int, error)

	// MapImage maps every slave's I/O regions into image and returns the
	// number of bytes actually used. The stack must not retain image beyond
	// the owning session's lifetime.
	MapImage(image []byte) (int, error)

	// EnableDC configures distributed clocks. Best-effort; an error does
	// not abort bring-up.
	EnableDC() error

	// SlaveCount returns the number of discovered slaves.
	SlaveCount() int

	// Slave returns the descriptor for the slave at the 1-based position,
	// reflecting the most recent ReadStates refresh.
	Slave(pos int) (Slave, error)

	// Group returns the process-data group descriptor. Valid after MapImage.
	Group() Group

	// ReadStates refreshes every slave's state from the bus, a blocking
	// round-trip, and returns the lowest state found.
	ReadStates() (State, error)

	// WriteState requests a state for the slave at pos (0 = whole group).
	WriteState(pos int, state State) error

	// AwaitState blocks until the slave at pos (0 = whole group) reports the
	// requested state or the timeout expires, and returns the state actually
	// reached.
	AwaitState(pos int, state State, timeout time.Duration) State

	// Send transmits one process data frame. A negative return is a send
	// failure.
	Send() (int, error)

	// Receive waits up to timeout for the cycle's frame to return and
	// reports the working counter. A negative return is a receive failure.
	Receive(timeout time.Duration) (int, error)

	// ErrorText drains and returns the stack's accumulated human-readable
	// error text, empty if none.
	ErrorText() string
}
