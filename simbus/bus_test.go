package simbus

import (
	"testing"
	"time"

	"github.com/arloliu/go-ecat/ecat"
	"github.com/arloliu/go-ecat/internal/util"
	"github.com/arloliu/go-ecat/pdo"
	"github.com/stretchr/testify/require"
)

func mappedBus(t *testing.T, n int) (*Bus, []byte) {
	t.Helper()

	cfgs := make([]SlaveConfig, n)
	bus := New(cfgs...)
	require.NoError(t, bus.Open("sim0"))

	count, err := bus.Discover()
	require.NoError(t, err)
	require.Equal(t, n, count)

	image := make([]byte, 4096)
	used, err := bus.MapImage(image)
	require.NoError(t, err)
	require.Equal(t, n*(pdo.CommandSize+pdo.StatusSize), used)

	return bus, image
}

func TestBusBringUp(t *testing.T) {
	require := require.New(t)

	bus, _ := mappedBus(t, 2)

	// mapping walks slaves to SafeOp
	st, err := bus.ReadStates()
	require.NoError(err)
	require.Equal(ecat.StateSafeOp, st.Base())

	require.NoError(bus.WriteState(0, ecat.StateOperational))
	reached := bus.AwaitState(0, ecat.StateOperational, 10*time.Millisecond)
	require.True(reached.IsOperational())

	group := bus.Group()
	require.Equal(2*pdo.CommandSize, group.OutputBytes)
	require.Equal(2*pdo.StatusSize, group.InputBytes)
	require.Equal(2, group.OutputsWKC)
	require.Equal(2, group.InputsWKC)
	require.Equal(6, group.ExpectedWKC())
}

func TestBusMapTooSmall(t *testing.T) {
	require := require.New(t)

	bus := New(SlaveConfig{}, SlaveConfig{})
	require.NoError(bus.Open("sim0"))
	_, err := bus.Discover()
	require.NoError(err)

	image := make([]byte, 8)
	used, err := bus.MapImage(image)
	require.NoError(err)
	require.Greater(used, len(image))

	// nothing was mapped
	slave, err := bus.Slave(1)
	require.NoError(err)
	require.True(slave.Outputs.IsZero())
}

func TestBusCycleWKC(t *testing.T) {
	require := require.New(t)

	bus, _ := mappedBus(t, 3)

	rc, err := bus.Send()
	require.NoError(err)
	require.GreaterOrEqual(rc, 0)

	wkc, err := bus.Receive(time.Millisecond)
	require.NoError(err)
	require.Equal(9, wkc)

	// a dropped slave stops contributing
	bus.DropSlave(2)
	_, err = bus.Send()
	require.NoError(err)
	wkc, err = bus.Receive(time.Millisecond)
	require.NoError(err)
	require.Equal(6, wkc)

	slave, err := bus.Slave(2)
	require.NoError(err)
	require.True(slave.State.HasError())
	require.Equal(uint16(alSyncError), slave.ALStatusCode)
}

func TestBusDriveModel(t *testing.T) {
	require := require.New(t)

	bus, _ := mappedBus(t, 1)
	slave, err := bus.Slave(1)
	require.NoError(err)

	cmd := pdo.Command{Code: "DPOS", Parameter: 4200, Execute: 1}
	require.NoError(cmd.Pack(slave.Outputs.Bytes()))

	_, err = bus.Send()
	require.NoError(err)
	_, err = bus.Receive(time.Millisecond)
	require.NoError(err)

	st, err := pdo.UnpackStatus(slave.Inputs.Bytes())
	require.NoError(err)
	require.Equal(int32(4200), st.ActualPosition)
	require.True(st.Has(pdo.PositionReached))
	require.Equal(uint8(1), st.Slot)

	// execute flag clear: position holds
	cmd = pdo.Command{Code: "DPOS", Parameter: 1}
	require.NoError(cmd.Pack(slave.Outputs.Bytes()))
	_, _ = bus.Send()
	_, _ = bus.Receive(time.Millisecond)
	st, err = pdo.UnpackStatus(slave.Inputs.Bytes())
	require.NoError(err)
	require.Equal(int32(4200), st.ActualPosition)
}

func TestBusDropRestoreAck(t *testing.T) {
	require := require.New(t)

	bus, _ := mappedBus(t, 2)
	require.NoError(bus.WriteState(0, ecat.StateOperational))

	bus.DropSlave(1)

	// a dropped slave ignores state requests and acknowledges
	require.NoError(bus.WriteState(1, ecat.StateSafeOp|ecat.StateAck))
	slave, _ := bus.Slave(1)
	require.True(slave.State.HasError())

	bus.RestoreSlave(1)
	slave, _ = bus.Slave(1)
	require.True(slave.State.HasError(), "error flag persists until acked")

	require.NoError(bus.WriteState(1, ecat.StateSafeOp|ecat.StateAck))
	slave, _ = bus.Slave(1)
	require.False(slave.State.HasError())
	require.Equal(ecat.StateSafeOp, slave.State.Base())

	require.NoError(bus.WriteState(0, ecat.StateOperational))
	reached := bus.AwaitState(0, ecat.StateOperational, 10*time.Millisecond)
	require.True(reached.IsOperational())
}

func TestBusHoldState(t *testing.T) {
	require := require.New(t)

	bus, _ := mappedBus(t, 3)
	bus.HoldState(2, ecat.StateSafeOp)

	require.NoError(bus.WriteState(0, ecat.StateOperational))

	// the collective read hides the held slave
	reached := bus.AwaitState(0, ecat.StateOperational, 10*time.Millisecond)
	require.True(reached.IsOperational())

	// the individual read does not
	slave, err := bus.Slave(2)
	require.NoError(err)
	require.Equal(ecat.StateSafeOp, slave.State.Base())

	bus.HoldState(2, ecat.StateNone)
	require.NoError(bus.WriteState(0, ecat.StateOperational))
	slave, _ = bus.Slave(2)
	require.True(slave.State.IsOperational())
}

func TestBusTransportFaults(t *testing.T) {
	require := require.New(t)

	bus, _ := mappedBus(t, 1)

	bus.FailNextSend(1)
	rc, err := bus.Send()
	require.Error(err)
	require.Negative(rc)

	rc, err = bus.Send()
	require.NoError(err)
	require.GreaterOrEqual(rc, 0)

	bus.FailNextReceive(1)
	rc, err = bus.Receive(time.Millisecond)
	require.Error(err)
	require.Negative(rc)

	text := bus.ErrorText()
	require.Contains(text, "send: link down")
	require.Contains(text, "receive: frame lost")
	require.Empty(bus.ErrorText(), "drained on read")
}

func TestBusCycleHook(t *testing.T) {
	require := require.New(t)

	bus, _ := mappedBus(t, 1)
	var seen []byte
	bus.SetCycleHook(func(pos int, outputs, inputs []byte) {
		seen = util.CloneSlice(outputs, 0)
		inputs[0] = 0x5A
	})

	slave, _ := bus.Slave(1)
	slave.Outputs.Bytes()[0] = 0xA5

	_, _ = bus.Send()
	_, err := bus.Receive(time.Millisecond)
	require.NoError(err)

	require.Equal(byte(0xA5), seen[0])
	require.Equal(byte(0x5A), slave.Inputs.Bytes()[0])
}
