package simbus

import "github.com/arloliu/go-ecat/ecat"

// Fault injection. All methods follow the single-goroutine contract of the
// Bus itself: inject between cycles, not concurrently with them.

// DropSlave makes the slave at pos stop responding: it no longer follows
// state requests, contributes nothing to the working counter and raises its
// error flag. No-op for an out-of-range pos.
func (b *Bus) DropSlave(pos int) {
	if pos < 1 || pos > len(b.slaves) {
		return
	}
	s := b.slaves[pos-1]
	s.dropped = true
	s.state = ecat.StateSafeOp | ecat.StateError
	s.alStatus = alSyncError
}

// RestoreSlave brings a dropped slave back on the bus. Its error flag stays
// set until the master acknowledges it, as on real hardware.
func (b *Bus) RestoreSlave(pos int) {
	if pos < 1 || pos > len(b.slaves) {
		return
	}
	b.slaves[pos-1].dropped = false
}

// HoldState caps the state the slave at pos will reach while keeping it
// responsive. The lag is hidden from group-level state reads, modelling a
// stale collective read; only the individual slave state shows it. Pass
// ecat.StateNone to release the hold.
func (b *Bus) HoldState(pos int, max ecat.State) {
	if pos < 1 || pos > len(b.slaves) {
		return
	}
	s := b.slaves[pos-1]
	s.holdAt = max
	if max != ecat.StateNone && s.state.Base() > max {
		s.state = max
	}
}

// FailNextSend makes the next n Send calls fail.
func (b *Bus) FailNextSend(n int) { b.failSend = n }

// FailNextReceive makes the next n Receive calls fail.
func (b *Bus) FailNextReceive(n int) { b.failReceive = n }

// PushError queues a line of human-readable error text, drained by
// ErrorText.
func (b *Bus) PushError(text string) {
	b.errorTexts = append(b.errorTexts, text)
}

// SetCycleHook replaces the built-in drive model with hook for every slave.
// A nil hook restores the built-in model.
func (b *Bus) SetCycleHook(hook CycleHook) { b.cycleHook = hook }
