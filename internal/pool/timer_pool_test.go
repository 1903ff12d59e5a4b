package pool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimerPool(t *testing.T) {
	require := require.New(t)

	timer := GetTimer(time.Millisecond)
	select {
	case <-timer.C:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	PutTimer(timer)

	// A reused timer must fire again after reset.
	timer = GetTimer(time.Millisecond)
	select {
	case <-timer.C:
	case <-time.After(time.Second):
		t.Fatal("reused timer did not fire")
	}
	PutTimer(timer)

	// Returning an unexpired timer must not leave a stale tick behind.
	timer = GetTimer(time.Hour)
	PutTimer(timer)
	timer = GetTimer(50 * time.Millisecond)
	start := time.Now()
	<-timer.C
	require.GreaterOrEqual(time.Since(start), 40*time.Millisecond)
	PutTimer(timer)
}
