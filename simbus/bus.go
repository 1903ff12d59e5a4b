package simbus

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arloliu/go-ecat/ecat"
	"github.com/arloliu/go-ecat/internal/pool"
	"github.com/arloliu/go-ecat/pdo"
)

// alSyncError is the abort code a dropped slave reports.
const alSyncError = 0x001A

// pollInterval is the state poll granularity of AwaitState.
const pollInterval = 200 * time.Microsecond

// SlaveConfig describes one simulated drive.
type SlaveConfig struct {
	Name        string
	VendorID    uint32
	ProductCode uint32
	Revision    uint32

	// OutputBytes and InputBytes are the mapped region sizes.
	// Zero values default to the drive record sizes (20 out, 8 in).
	OutputBytes int
	InputBytes  int
}

// CycleHook generates a slave's input bytes from its output bytes once per
// received cycle, replacing the built-in drive model.
type CycleHook func(pos int, outputs, inputs []byte)

type simSlave struct {
	cfg      SlaveConfig
	state    ecat.State
	alStatus uint16

	// dropped marks a non-responding device: it stops following state
	// requests, contributes nothing to the working counter and raises the
	// error flag.
	dropped bool

	// holdAt caps the state the slave will reach. A held slave keeps
	// responding, but its lag is invisible to group-level state reads,
	// modelling a stale collective read.
	holdAt ecat.State

	outputs ecat.Region
	inputs  ecat.Region

	// built-in drive model
	position int32
	slot     uint8
}

// Bus is a simulated fieldbus stack. Like any ecat.Stack it is not safe for
// concurrent use without external serialization.
type Bus struct {
	ifname string
	opened bool
	mapped bool

	slaves []*simSlave
	group  ecat.Group

	failSend    int
	failReceive int
	errorTexts  []string
	cycleHook   CycleHook
}

var _ ecat.Stack = (*Bus)(nil)

// New creates a simulated bus carrying the given slaves, in bus order.
func New(slaveCfgs ...SlaveConfig) *Bus {
	bus := &Bus{}
	for i, cfg := range slaveCfgs {
		if cfg.Name == "" {
			cfg.Name = fmt.Sprintf("SimDrive %d", i+1)
		}
		if cfg.OutputBytes == 0 {
			cfg.OutputBytes = pdo.CommandSize
		}
		if cfg.InputBytes == 0 {
			cfg.InputBytes = pdo.StatusSize
		}
		bus.slaves = append(bus.slaves, &simSlave{
			cfg:   cfg,
			state: ecat.StateInit,
			slot:  uint8(i + 1),
		})
	}

	return bus
}

func (b *Bus) Open(ifname string) error {
	if b.opened {
		return fmt.Errorf("adapter %q already open", b.ifname)
	}
	b.ifname = ifname
	b.opened = true

	return nil
}

func (b *Bus) Close() error {
	if !b.opened {
		return nil
	}
	b.opened = false
	b.mapped = false
	for _, s := range b.slaves {
		s.state = ecat.StateInit
		s.outputs = ecat.Region{}
		s.inputs = ecat.Region{}
	}
	b.group = ecat.Group{}

	return nil
}

func (b *Bus) Discover() (int, error) {
	if !b.opened {
		return 0, errors.New("adapter not open")
	}
	for _, s := range b.slaves {
		if !s.dropped {
			s.state = ecat.StatePreOp
		}
	}

	return len(b.slaves), nil
}

// MapImage lays out all output regions first, then all input regions, and
// returns the total mapped size. When the mapping does not fit inside image
// the size is still returned, but nothing is mapped; the caller owns the
// bound check.
func (b *Bus) MapImage(image []byte) (int, error) {
	if !b.opened {
		return 0, errors.New("adapter not open")
	}

	used := 0
	for _, s := range b.slaves {
		used += s.cfg.OutputBytes + s.cfg.InputBytes
	}
	if used > len(image) {
		return used, nil
	}

	outTotal := 0
	for _, s := range b.slaves {
		outTotal += s.cfg.OutputBytes
	}

	off := 0
	for _, s := range b.slaves {
		region, err := ecat.NewRegion(image, off, s.cfg.OutputBytes)
		if err != nil {
			return 0, err
		}
		s.outputs = region
		off += s.cfg.OutputBytes
	}
	for _, s := range b.slaves {
		region, err := ecat.NewRegion(image, off, s.cfg.InputBytes)
		if err != nil {
			return 0, err
		}
		s.inputs = region
		off += s.cfg.InputBytes
	}

	b.group.OutputBytes = outTotal
	b.group.InputBytes = used - outTotal
	b.group.OutputsWKC = 0
	b.group.InputsWKC = 0
	for _, s := range b.slaves {
		if s.cfg.OutputBytes > 0 {
			b.group.OutputsWKC++
		}
		if s.cfg.InputBytes > 0 {
			b.group.InputsWKC++
		}
	}
	b.group.Outputs, _ = ecat.NewRegion(image, 0, outTotal)
	b.group.Inputs, _ = ecat.NewRegion(image, outTotal, used-outTotal)

	// mapping walks every slave through PreOp to SafeOp
	for _, s := range b.slaves {
		if !s.dropped {
			s.state = ecat.StateSafeOp
		}
	}
	b.mapped = true

	return used, nil
}

func (b *Bus) EnableDC() error {
	if !b.opened {
		return errors.New("adapter not open")
	}
	return nil
}

func (b *Bus) SlaveCount() int { return len(b.slaves) }

func (b *Bus) Slave(pos int) (ecat.Slave, error) {
	if pos < 1 || pos > len(b.slaves) {
		return ecat.Slave{}, fmt.Errorf("%w: %d of %d", ecat.ErrSlaveIndex, pos, len(b.slaves))
	}
	s := b.slaves[pos-1]

	return ecat.Slave{
		Position:     pos,
		VendorID:     s.cfg.VendorID,
		ProductCode:  s.cfg.ProductCode,
		Revision:     s.cfg.Revision,
		Name:         s.cfg.Name,
		State:        s.state,
		ALStatusCode: s.alStatus,
		Inputs:       s.inputs,
		Outputs:      s.outputs,
	}, nil
}

func (b *Bus) Group() ecat.Group { return b.group }

func (b *Bus) ReadStates() (ecat.State, error) {
	if !b.opened {
		return ecat.StateNone, errors.New("adapter not open")
	}

	lowest := ecat.StateNone
	for _, s := range b.slaves {
		if lowest == ecat.StateNone || s.state.Base() < lowest.Base() {
			lowest = s.state
		}
	}

	return lowest, nil
}

func (b *Bus) WriteState(pos int, state ecat.State) error {
	if !b.opened {
		return errors.New("adapter not open")
	}
	if pos == 0 {
		for _, s := range b.slaves {
			s.request(state)
		}
		return nil
	}
	if pos < 1 || pos > len(b.slaves) {
		return fmt.Errorf("%w: %d of %d", ecat.ErrSlaveIndex, pos, len(b.slaves))
	}
	b.slaves[pos-1].request(state)

	return nil
}

// request applies a master state request to the slave.
func (s *simSlave) request(state ecat.State) {
	if state.HasError() {
		// acknowledge: clears the error flag on a responding device
		if !s.dropped {
			s.state = state.Base()
			s.alStatus = 0
		}
		return
	}

	if s.dropped {
		return
	}

	target := state.Base()
	if s.holdAt != ecat.StateNone && target > s.holdAt {
		target = s.holdAt
	}
	s.state = target
}

// AwaitState polls until the requested state is reached or timeout expires.
// For pos 0 the collective read skips held slaves; their lag only shows in
// the individual state.
func (b *Bus) AwaitState(pos int, state ecat.State, timeout time.Duration) ecat.State {
	timer := pool.GetTimer(timeout)
	defer pool.PutTimer(timer)

	for {
		cur := b.stateAt(pos)
		if cur.Base() == state.Base() {
			return cur
		}
		select {
		case <-timer.C:
			return b.stateAt(pos)
		default:
			time.Sleep(pollInterval)
		}
	}
}

func (b *Bus) stateAt(pos int) ecat.State {
	if pos >= 1 && pos <= len(b.slaves) {
		return b.slaves[pos-1].state
	}

	lowest := ecat.StateNone
	for _, s := range b.slaves {
		if s.holdAt != ecat.StateNone {
			continue
		}
		if lowest == ecat.StateNone || s.state.Base() < lowest.Base() {
			lowest = s.state
		}
	}

	return lowest
}

func (b *Bus) Send() (int, error) {
	if !b.opened || !b.mapped {
		return -1, errors.New("bus not mapped")
	}
	if b.failSend > 0 {
		b.failSend--
		b.errorTexts = append(b.errorTexts, "send: link down")
		return -1, errors.New("send: link down")
	}

	return 0, nil
}

func (b *Bus) Receive(timeout time.Duration) (int, error) {
	if !b.opened || !b.mapped {
		return -1, errors.New("bus not mapped")
	}
	if b.failReceive > 0 {
		b.failReceive--
		b.errorTexts = append(b.errorTexts, "receive: frame lost")
		return -1, errors.New("receive: frame lost")
	}

	wkc := 0
	for i, s := range b.slaves {
		if s.dropped {
			continue
		}
		s.cycle(i+1, b.cycleHook)
		if s.cfg.OutputBytes > 0 {
			wkc += 2
		}
		if s.cfg.InputBytes > 0 {
			wkc++
		}
	}

	return wkc, nil
}

// cycle consumes the slave's staged outputs and produces its inputs.
func (s *simSlave) cycle(pos int, hook CycleHook) {
	if hook != nil {
		hook(pos, s.outputs.Bytes(), s.inputs.Bytes())
		return
	}

	if s.outputs.Len() >= pdo.CommandSize {
		if cmd, err := pdo.UnpackCommand(s.outputs.Bytes()); err == nil {
			s.execute(cmd)
		}
	}

	if s.inputs.Len() >= pdo.StatusSize {
		var flags pdo.Flags
		flags.Set(pdo.AmplifiersEnabled, true)
		flags.Set(pdo.MotorOn, true)
		flags.Set(pdo.ClosedLoop, true)
		flags.Set(pdo.EncoderValid, true)
		flags.Set(pdo.PositionReached, true)
		status := pdo.Status{
			ActualPosition: s.position,
			Flags:          flags,
			Slot:           s.slot,
		}
		_ = status.Pack(s.inputs.Bytes())
	}
}

// execute runs the minimal drive model: a DPOS command with the execute
// flag set jumps the axis to the target position.
func (s *simSlave) execute(cmd pdo.Command) {
	if cmd.Execute == 0 {
		return
	}
	switch cmd.Code {
	case "DPOS":
		s.position = cmd.Parameter
	case "STOP", "NOP":
		// position holds
	}
}

func (b *Bus) ErrorText() string {
	text := strings.Join(b.errorTexts, "\n")
	b.errorTexts = nil

	return text
}
