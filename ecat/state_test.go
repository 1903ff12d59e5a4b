package ecat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateFlags(t *testing.T) {
	require := require.New(t)

	require.True((StateSafeOp | StateError).HasError())
	require.False(StateSafeOp.HasError())
	require.Equal(StateSafeOp, (StateSafeOp | StateError).Base())
	require.True(StateOperational.IsOperational())
	require.True((StateOperational | StateError).IsOperational())
	require.False(StateSafeOp.IsOperational())

	// ack and error share the bit
	require.Equal(StateAck, StateError)
}

func TestStateString(t *testing.T) {
	require := require.New(t)

	tests := []struct {
		state State
		want  string
	}{
		{StateNone, "none"},
		{StateInit, "init"},
		{StatePreOp, "pre-op"},
		{StateSafeOp, "safe-op"},
		{StateOperational, "operational"},
		{StateSafeOp | StateError, "safe-op+error"},
		{State(0x03), "unknown"},
	}
	for _, tt := range tests {
		require.Equal(tt.want, tt.state.String())
	}
}

func TestGroupExpectedWKC(t *testing.T) {
	require := require.New(t)

	g := Group{OutputsWKC: 2, InputsWKC: 3}
	require.Equal(7, g.ExpectedWKC())

	require.Equal(0, Group{}.ExpectedWKC())
}
