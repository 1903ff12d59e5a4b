package ecat

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// MockStack implements the Stack interface for testing.
type MockStack struct {
	mock.Mock
}

var _ Stack = (*MockStack)(nil)

func NewMockStack() *MockStack {
	return &MockStack{}
}

func (m *MockStack) Open(ifname string) error {
	args := m.Called(ifname)
	return args.Error(0)
}

func (m *MockStack) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockStack) Discover() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

func (m *MockStack) MapImage(image []byte) (int, error) {
	args := m.Called(image)
	return args.Int(0), args.Error(1)
}

func (m *MockStack) EnableDC() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockStack) SlaveCount() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockStack) Slave(pos int) (Slave, error) {
	args := m.Called(pos)
	return args.Get(0).(Slave), args.Error(1)
}

func (m *MockStack) Group() Group {
	args := m.Called()
	return args.Get(0).(Group)
}

func (m *MockStack) ReadStates() (State, error) {
	args := m.Called()
	return args.Get(0).(State), args.Error(1)
}

func (m *MockStack) WriteState(pos int, state State) error {
	args := m.Called(pos, state)
	return args.Error(0)
}

func (m *MockStack) AwaitState(pos int, state State, timeout time.Duration) State {
	args := m.Called(pos, state, timeout)
	return args.Get(0).(State)
}

func (m *MockStack) Send() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

func (m *MockStack) Receive(timeout time.Duration) (int, error) {
	args := m.Called(timeout)
	return args.Int(0), args.Error(1)
}

func (m *MockStack) ErrorText() string {
	args := m.Called()
	return args.String(0)
}
