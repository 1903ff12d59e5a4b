package master

import (
	"fmt"

	"github.com/arloliu/go-ecat/ecat"
	"github.com/arloliu/go-ecat/internal/util"
	"github.com/arloliu/go-ecat/logger"
	"github.com/arloliu/go-ecat/pdo"
)

// Session is the master-side handle for one fieldbus adapter. It owns the
// process image and exposes the session lifecycle, the cyclic exchange
// engine, recovery and diagnostics.
//
// A Session must be accessed from a single goroutine, or serialized
// externally. See the package documentation.
type Session struct {
	cfg    *Config
	stack  ecat.Stack
	ifname string
	log    logger.Logger

	// image is the process image buffer. It is allocated once, never
	// resized after mapping, and released at Close.
	image []byte

	outputLen int
	inputLen  int

	lastWKC         int
	lastExpectedWKC int
	wkcWarned       bool

	closed bool
}

// Open brings up the bus on the named adapter and returns a live session.
//
// The sequence is: open the adapter, discover the slaves (zero slaves is
// fatal), map the process image into a zeroed buffer bounded by the
// configured image size (a larger mapping aborts immediately), enable
// distributed clocks best-effort, stage a no-operation command into every
// slave's output region, run one diagnostic exchange cycle, then walk the
// group to SafeOp and request Operational with bounded waits.
//
// Bring-up does not fail merely because Operational is not reached within
// the wait; callers detect that through Health. Every fatal path releases
// everything it allocated and returns no session.
func Open(stack ecat.Stack, ifname string, opts ...Option) (*Session, error) {
	if stack == nil {
		return nil, ecat.ErrStackNil
	}

	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:     cfg,
		stack:   stack,
		ifname:  ifname,
		log:     cfg.logger.With("adapter", ifname),
		lastWKC: -1,
	}

	if !reserveAdapter(ifname, s) {
		return nil, fmt.Errorf("%w: %s", ecat.ErrAdapterBusy, ifname)
	}

	if err := s.bringUp(); err != nil {
		releaseAdapter(ifname, s)
		return nil, err
	}

	return s, nil
}

// bringUp runs the bus bring-up sequence. On error the stack is closed and
// the image released; the caller drops the adapter reservation.
func (s *Session) bringUp() error {
	if err := s.stack.Open(s.ifname); err != nil {
		return fmt.Errorf("open adapter %q: %w", s.ifname, err)
	}

	count, err := s.stack.Discover()
	if err != nil {
		_ = s.stack.Close()
		return fmt.Errorf("slave discovery: %w", err)
	}
	if count <= 0 {
		_ = s.stack.Close()
		s.log.Error("slave discovery found no slaves", "count", count)
		return ecat.ErrNoSlaves
	}

	s.image = make([]byte, s.cfg.imageSize)

	mapped, err := s.stack.MapImage(s.image)
	if err != nil || mapped <= 0 {
		s.image = nil
		_ = s.stack.Close()
		s.log.Error("process image mapping failed", "mapped", mapped, "error", err)
		if err != nil {
			return fmt.Errorf("map process image: %w", err)
		}
		return fmt.Errorf("map process image: mapped size %d", mapped)
	}
	if mapped > len(s.image) {
		// continuing would mean the stack has already scribbled past the
		// buffer; treat as fatal and tear down
		s.image = nil
		_ = s.stack.Close()
		s.log.Error("mapped process image exceeds allocated bound",
			"mapped", mapped, "bound", s.cfg.imageSize)
		return fmt.Errorf("%w: mapped=%d bound=%d", ecat.ErrImageOverflow, mapped, s.cfg.imageSize)
	}

	if err := s.stack.EnableDC(); err != nil {
		s.log.Warn("distributed clock configuration failed", "error", err)
	}

	// Stage a benign command in every output region so the transition to
	// operational does not command motion.
	for pos := 1; pos <= count; pos++ {
		if err := s.WriteCommand(pos, pdo.Nop()); err != nil {
			s.log.Error("staging no-op command failed", "slave", pos, "error", err)
		}
	}

	// One exchange cycle to flush the staged outputs and read initial
	// inputs. Diagnostic only.
	if _, err := s.Exchange(nil, nil, s.cfg.probeTimeout); err != nil {
		s.log.Error("probe exchange failed", "error", err)
	}
	for pos := 1; pos <= count; pos++ {
		if st, err := s.ReadStatus(pos); err == nil {
			s.log.Info("slave initial state", "slave", pos, "position", st.ActualPosition)
		}
	}

	s.stack.AwaitState(0, ecat.StateSafeOp, 4*s.cfg.stateTimeout)

	if err := s.stack.WriteState(0, ecat.StateOperational); err != nil {
		s.log.Warn("operational state request failed", "error", err)
	}
	reached := s.stack.AwaitState(0, ecat.StateOperational, s.cfg.stateTimeout)
	if !reached.IsOperational() {
		s.log.Warn("bus not operational after bring-up", "state", reached)
	}

	group := s.stack.Group()
	s.outputLen = group.OutputBytes
	s.inputLen = group.InputBytes
	s.lastExpectedWKC = group.ExpectedWKC()

	s.log.Info("bus up", "slaves", count,
		"outputBytes", s.outputLen, "inputBytes", s.inputLen,
		"expectedWKC", group.ExpectedWKC(), "state", reached)

	return nil
}

// Close tears the bus back to Init and releases the session. The Init write
// is unconditional and best-effort so the hardware is left in a safe state
// even after earlier failures. Closing an already closed session is a no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.stack.WriteState(0, ecat.StateInit); err != nil {
		s.log.Warn("init state write during teardown failed", "error", err)
	}

	err := s.stack.Close()
	releaseAdapter(s.ifname, s)
	s.image = nil

	return err
}

// SlaveCount returns the number of slaves discovered at bring-up.
func (s *Session) SlaveCount() int {
	if s.closed {
		return 0
	}
	return s.stack.SlaveCount()
}

// ProcessSizes returns the aggregate output and input byte counts of the
// mapped process image.
func (s *Session) ProcessSizes() (outputBytes, inputBytes int) {
	return s.outputLen, s.inputLen
}

// ScanSlaves returns the identity of up to max slaves, in bus order starting
// at position 1. Names are truncated to ecat.MaxNameLen.
func (s *Session) ScanSlaves(max int) ([]ecat.SlaveInfo, error) {
	if s.closed {
		return nil, ecat.ErrClosed
	}
	if max <= 0 {
		return nil, fmt.Errorf("%w: max count %d", ecat.ErrInvalidArgument, max)
	}

	count := s.stack.SlaveCount()
	if count > max {
		count = max
	}

	infos := make([]ecat.SlaveInfo, 0, count)
	for pos := 1; pos <= count; pos++ {
		slave, err := s.stack.Slave(pos)
		if err != nil {
			return nil, err
		}
		info := slave.Info()
		info.Name = util.TruncString(info.Name, ecat.MaxNameLen)
		infos = append(infos, info)
	}

	return infos, nil
}

// DrainErrors returns and clears the protocol stack's accumulated
// human-readable error text. The empty string means no pending errors.
func (s *Session) DrainErrors() (string, error) {
	if s.closed {
		return "", ecat.ErrClosed
	}

	text := s.stack.ErrorText()
	if text != "" {
		s.log.Error("drained bus error text", "text", text)
	}

	return text, nil
}

// slaveAt validates pos against the discovered slave range and returns the
// slave descriptor.
func (s *Session) slaveAt(pos int) (ecat.Slave, error) {
	if s.closed {
		return ecat.Slave{}, ecat.ErrClosed
	}
	if pos < 1 || pos > s.stack.SlaveCount() {
		return ecat.Slave{}, fmt.Errorf("%w: %d of %d", ecat.ErrSlaveIndex, pos, s.stack.SlaveCount())
	}

	return s.stack.Slave(pos)
}
