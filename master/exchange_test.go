package master

import (
	"strings"
	"testing"
	"time"

	"github.com/arloliu/go-ecat/ecat"
	"github.com/arloliu/go-ecat/internal/util"
	"github.com/arloliu/go-ecat/logger"
	"github.com/arloliu/go-ecat/pdo"
	"github.com/arloliu/go-ecat/simbus"
	"github.com/stretchr/testify/require"
)

func TestExchangeStagedWrite(t *testing.T) {
	require := require.New(t)

	s, bus := openSim(t, "stage0", 1)

	var onWire []byte
	bus.SetCycleHook(func(pos int, outputs, inputs []byte) {
		onWire = util.CloneSlice(outputs, 0)
	})

	cmd := pdo.Command{Code: "DPOS", Parameter: 1500, Velocity: 200, Execute: 1}
	require.NoError(s.WriteCommand(1, cmd))

	// nil outputs: the staged region goes out untouched
	wkc, err := s.Exchange(nil, nil, time.Millisecond)
	require.NoError(err)
	require.Equal(3, wkc)

	got, err := pdo.UnpackCommand(onWire)
	require.NoError(err)
	require.Equal(cmd, got)

	// the region survives the cycle for the next one
	slave, err := bus.Slave(1)
	require.NoError(err)
	again, err := pdo.UnpackCommand(slave.Outputs.Bytes())
	require.NoError(err)
	require.Equal(cmd, again)
}

func TestWriteCommandKeepsTail(t *testing.T) {
	require := require.New(t)

	s, bus := openSim(t, "tail0", 1)

	slave, err := bus.Slave(1)
	require.NoError(err)
	out := slave.Outputs.Bytes()
	out[17], out[18], out[19] = 0xDE, 0xAD, 0xBF

	require.NoError(s.WriteCommand(1, pdo.Command{Code: "STOP", Execute: 1}))
	require.Equal([]byte{0xDE, 0xAD, 0xBF}, out[17:20], "bytes past the record stay untouched")
}

func TestExchangeZeroThenCopy(t *testing.T) {
	require := require.New(t)

	s, bus := openSim(t, "zero0", 1)
	bus.SetCycleHook(func(pos int, outputs, inputs []byte) {})

	slave, err := bus.Slave(1)
	require.NoError(err)
	out := slave.Outputs.Bytes()
	for i := range out {
		out[i] = 0xFF
	}

	// a short payload: the rest of the region must be zero, not stale 0xFF
	payload := []byte{0xA1, 0xA2, 0xA3}
	_, err = s.Exchange(payload, nil, time.Millisecond)
	require.NoError(err)

	require.Equal(payload, out[:3])
	for i := 3; i < len(out); i++ {
		require.Zero(out[i], "stale byte at offset %d", i)
	}
}

func TestExchangeOversizedOutputsTruncated(t *testing.T) {
	require := require.New(t)

	s, bus := openSim(t, "trunc0", 1)
	bus.SetCycleHook(func(pos int, outputs, inputs []byte) {})

	big := make([]byte, 3*pdo.CommandSize)
	for i := range big {
		big[i] = byte(i)
	}
	_, err := s.Exchange(big, nil, time.Millisecond)
	require.NoError(err)

	slave, err := bus.Slave(1)
	require.NoError(err)
	require.Equal(big[:pdo.CommandSize], slave.Outputs.Bytes())
}

func TestExchangeWKCLow(t *testing.T) {
	require := require.New(t)

	s, bus := openSim(t, "wkc0", 2)

	wkc, err := s.Exchange(nil, nil, time.Millisecond)
	require.NoError(err)
	require.Equal(6, wkc)

	bus.DropSlave(2)

	inputs := make([]byte, 2*pdo.StatusSize)
	wkc, err = s.Exchange(nil, inputs, time.Millisecond)
	require.ErrorIs(err, ecat.ErrWKCLow)
	require.Equal(3, wkc, "observed counter reported alongside the error")

	// the frame came back, so the live slave's inputs are still delivered
	st, err := pdo.UnpackStatus(inputs[:pdo.StatusSize])
	require.NoError(err)
	require.Equal(uint8(1), st.Slot)
	require.True(st.Has(pdo.EncoderValid))
}

func TestExchangeSendReceiveFailures(t *testing.T) {
	require := require.New(t)

	s, bus := openSim(t, "fault0", 1)

	bus.FailNextSend(1)
	bus.FailNextReceive(1)

	_, err := s.Exchange(nil, nil, time.Millisecond)
	require.ErrorIs(err, ecat.ErrSendFailed)
	require.NotErrorIs(err, ecat.ErrRecvFailed)

	// the receive fault is still pending: the failed cycle never got that far
	_, err = s.Exchange(nil, nil, time.Millisecond)
	require.ErrorIs(err, ecat.ErrRecvFailed)

	wkc, err := s.Exchange(nil, nil, time.Millisecond)
	require.NoError(err)
	require.Equal(3, wkc)

	text, err := s.DrainErrors()
	require.NoError(err)
	require.Contains(text, "send: link down")
	require.Contains(text, "receive: frame lost")
}

func TestExchangeDegenerateExpectedWKC(t *testing.T) {
	require := require.New(t)

	var warns []string
	capture := logger.NewCallback(func(level logger.Level, message string) {
		if level == logger.WarnLevel {
			warns = append(warns, message)
		}
	})

	stack := ecat.NewMockStack()
	s := &Session{stack: stack, log: capture}

	stack.On("Group").Return(ecat.Group{}).Times(3)
	stack.On("Send").Return(0, nil)
	stack.On("Receive", time.Duration(0)).Return(4, nil)

	for i := 0; i < 3; i++ {
		wkc, err := s.Exchange(nil, nil, 0)
		require.NoError(err, "a degenerate mapping is best-effort, not an error")
		require.Equal(4, wkc)
	}

	count := 0
	for _, w := range warns {
		if strings.Contains(w, "expected WKC") {
			count++
		}
	}
	require.Equal(1, count, "warned exactly once")

	// the health snapshot carries the expectation the last exchange applied,
	// not a fresh recomputation from the mapping
	stack.On("Group").Return(ecat.Group{OutputsWKC: 1, InputsWKC: 1}).Once()
	stack.On("SlaveCount").Return(0)
	stack.On("ReadStates").Return(ecat.StateNone, nil)

	health, err := s.GetHealth()
	require.NoError(err)
	require.Equal(4, health.LastWKC)
	require.Zero(health.ExpectedWKC)
}

func TestShortRegions(t *testing.T) {
	require := require.New(t)

	// a device whose mapped regions are smaller than the drive records
	bus := simbus.New(simbus.SlaveConfig{OutputBytes: 10, InputBytes: 4})
	s, err := Open(bus, "short0", WithLogger(quiet()), WithStateTimeout(10*time.Millisecond))
	require.NoError(err)
	defer s.Close()

	_, err = s.ReadStatus(1)
	require.ErrorIs(err, pdo.ErrShortBuffer)

	err = s.WriteCommand(1, pdo.Nop())
	require.ErrorIs(err, pdo.ErrShortBuffer)
}
