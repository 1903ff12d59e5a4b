package master

import (
	"fmt"
	"time"

	"github.com/arloliu/go-ecat/ecat"
)

// Recover restores the operational state after a detected desynchronization,
// typically after Exchange returned ecat.ErrWKCLow. It is never triggered
// automatically; the caller decides when to run it.
//
// The procedure: re-read all slave states, acknowledge every error-flagged
// slave by writing SafeOp+Ack, request Operational for the group, run three
// blind exchange cycles to let the bus settle, then wait up to timeout for
// the group to report Operational. Even when the group-level check passes,
// every individual slave is verified; a group read can appear satisfied
// while one device is still desynchronized. The per-slave check is exact:
// a slave reporting Operational with the error flag still raised has not
// recovered. ecat.ErrNotOperational is returned if either level fails.
func (s *Session) Recover(timeout time.Duration) error {
	if s.closed {
		return ecat.ErrClosed
	}

	if _, err := s.stack.ReadStates(); err != nil {
		s.log.Warn("state refresh before recovery failed", "error", err)
	}

	count := s.stack.SlaveCount()
	for pos := 1; pos <= count; pos++ {
		slave, err := s.stack.Slave(pos)
		if err != nil {
			continue
		}
		if slave.State.HasError() {
			s.log.Info("acknowledging slave error", "slave", pos, "state", slave.State)
			if err := s.stack.WriteState(pos, ecat.StateSafeOp|ecat.StateAck); err != nil {
				s.log.Warn("error acknowledge failed", "slave", pos, "error", err)
			}
		}
	}

	if err := s.stack.WriteState(0, ecat.StateOperational); err != nil {
		s.log.Warn("operational state request failed", "error", err)
	}

	// blind cycles; results intentionally ignored
	for k := 0; k < 3; k++ {
		_, _ = s.stack.Send()
		_, _ = s.stack.Receive(settleTimeout)
	}

	reached := s.stack.AwaitState(0, ecat.StateOperational, timeout)
	if !reached.IsOperational() {
		s.log.Warn("group failed to reach operational", "state", reached, "timeout", timeout)
		return fmt.Errorf("%w: group state %s", ecat.ErrNotOperational, reached)
	}

	if _, err := s.stack.ReadStates(); err != nil {
		s.log.Warn("state refresh after recovery failed", "error", err)
	}
	for pos := 1; pos <= count; pos++ {
		slave, err := s.stack.Slave(pos)
		if err != nil {
			return fmt.Errorf("%w: slave %d unreadable", ecat.ErrNotOperational, pos)
		}
		if slave.State != ecat.StateOperational {
			s.log.Warn("slave below operational after recovery", "slave", pos, "state", slave.State)
			return fmt.Errorf("%w: slave %d state %s", ecat.ErrNotOperational, pos, slave.State)
		}
	}

	s.log.Info("recovery complete", "slaves", count)

	return nil
}

// Health is a point-in-time diagnostic snapshot of the bus.
type Health struct {
	// SlavesFound is the slave count from discovery.
	SlavesFound int
	// SlavesOperational counts slaves reporting exactly the Operational
	// state; an error-flagged device does not count.
	SlavesOperational int
	// ExpectedWKC is the expectation applied by the most recent exchange,
	// seeded from the mapping at bring-up.
	ExpectedWKC int
	// LastWKC is the counter observed by the most recent exchange,
	// -1 before the first one.
	LastWKC int
	// OutputBytes and InputBytes are the aggregate process image sizes.
	OutputBytes int
	InputBytes  int
	// ALStatusCode is the first slave's last abort/status code, 0 if unknown.
	ALStatusCode uint16
}

// GetHealth re-reads all slave states, a blocking round-trip on the stack,
// and reports them together with the working counter observation and
// expectation cached by the most recent exchange. It has no side effect on
// bus state.
func (s *Session) GetHealth() (Health, error) {
	if s.closed {
		return Health{}, ecat.ErrClosed
	}

	group := s.stack.Group()
	health := Health{
		SlavesFound: s.stack.SlaveCount(),
		ExpectedWKC: s.lastExpectedWKC,
		LastWKC:     s.lastWKC,
		OutputBytes: group.OutputBytes,
		InputBytes:  group.InputBytes,
	}

	if _, err := s.stack.ReadStates(); err != nil {
		return health, fmt.Errorf("state refresh: %w", err)
	}

	for pos := 1; pos <= health.SlavesFound; pos++ {
		slave, err := s.stack.Slave(pos)
		if err != nil {
			continue
		}
		if slave.State == ecat.StateOperational {
			health.SlavesOperational++
		}
		if pos == 1 {
			health.ALStatusCode = slave.ALStatusCode
		}
	}

	return health, nil
}
