package master

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-ecat/ecat"
	"github.com/arloliu/go-ecat/pdo"
)

// Exchange performs one bounded-latency process data round: send one frame,
// wait up to timeout for it to return, validate the working counter. It
// returns the observed working counter.
//
// If outputs is non-nil, the shared output region is zeroed first and
// outputs copied in, truncated to the region length, so stale bytes from a
// previous cycle never leak past the caller's payload. If outputs is nil the
// region is transmitted as staged, e.g. by WriteCommand. If inputs is
// non-nil it is filled from the input region, truncated to the region
// length, after any successful receive regardless of the working counter
// outcome. A negative timeout is clamped to zero ("do not block").
//
// Errors are returned as distinct sentinels: ecat.ErrSendFailed (no receive
// attempted), ecat.ErrRecvFailed, and ecat.ErrWKCLow when the frame returned
// but fewer devices responded than the mapping expects. ErrWKCLow is the
// desync signal and should route the caller into Recover; it still reports
// the observed counter. A non-positive expected counter means a degenerate
// mapping: it is logged once and the observed counter is returned as a
// best-effort success.
func (s *Session) Exchange(outputs, inputs []byte, timeout time.Duration) (int, error) {
	if s.closed {
		return 0, ecat.ErrClosed
	}
	if timeout < 0 {
		timeout = 0
	}

	group := s.stack.Group()

	if len(outputs) > 0 && group.Outputs.Len() > 0 {
		group.Outputs.Zero()
		group.Outputs.CopyFrom(outputs)
	}

	expected := group.ExpectedWKC()

	rc, err := s.stack.Send()
	if err != nil || rc < 0 {
		s.log.Error("process data send failed", "rc", rc, "expectedWKC", expected, "error", err)
		if err != nil {
			return rc, fmt.Errorf("%w: %w", ecat.ErrSendFailed, err)
		}
		return rc, fmt.Errorf("%w: rc=%d", ecat.ErrSendFailed, rc)
	}

	wkc, err := s.stack.Receive(timeout)
	s.lastWKC = wkc
	s.lastExpectedWKC = expected

	if err != nil || wkc < 0 {
		s.log.Error("process data receive failed",
			"rc", wkc, "expectedWKC", expected, "timeout", timeout, "error", err)
		if err != nil {
			return wkc, fmt.Errorf("%w: %w", ecat.ErrRecvFailed, err)
		}
		return wkc, fmt.Errorf("%w: rc=%d", ecat.ErrRecvFailed, wkc)
	}

	// callers always see the latest frame contents, even on a low counter
	if len(inputs) > 0 && group.Inputs.Len() > 0 {
		group.Inputs.CopyTo(inputs)
	}

	if expected <= 0 {
		// degenerate mapping, don't false-trigger; log once
		if !s.wkcWarned {
			s.log.Warn("expected WKC is not positive, check mapping", "expected", expected, "wkc", wkc)
			s.wkcWarned = true
		}
		return wkc, nil
	}

	if wkc < expected {
		s.log.Error("WKC low", "wkc", wkc, "expected", expected,
			"outputBytes", group.OutputBytes, "inputBytes", group.InputBytes,
			"outputsWKC", group.OutputsWKC, "inputsWKC", group.InputsWKC)
		return wkc, fmt.Errorf("%w: got %d, expected %d", ecat.ErrWKCLow, wkc, expected)
	}

	return wkc, nil
}

// ReadStatus unpacks the status record from the slave's input region as of
// the most recent exchange. The region size is checked against
// pdo.StatusSize before every unpack.
func (s *Session) ReadStatus(pos int) (pdo.Status, error) {
	slave, err := s.slaveAt(pos)
	if err != nil {
		return pdo.Status{}, err
	}

	st, err := pdo.UnpackStatus(slave.Inputs.Bytes())
	if err != nil {
		s.log.Error("input region too small for status record",
			"slave", pos, "len", slave.Inputs.Len(), "need", pdo.StatusSize)
		return pdo.Status{}, fmt.Errorf("slave %d: %w", pos, err)
	}

	return st, nil
}

// WriteCommand packs the command record into the slave's output region,
// staging it for the next exchange. The region size is checked against
// pdo.CommandSize before every pack. Bytes beyond the record keep their
// previous value; see pdo.Command.
func (s *Session) WriteCommand(pos int, cmd pdo.Command) error {
	slave, err := s.slaveAt(pos)
	if err != nil {
		return err
	}

	if err := cmd.Pack(slave.Outputs.Bytes()); err != nil {
		if errors.Is(err, pdo.ErrShortBuffer) {
			s.log.Error("output region too small for command record",
				"slave", pos, "len", slave.Outputs.Len(), "need", pdo.CommandSize)
		}
		return fmt.Errorf("slave %d: %w", pos, err)
	}

	return nil
}
