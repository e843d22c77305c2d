package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitAppliesJitterWithinBounds(t *testing.T) {
	var recorded []time.Duration
	l := &Limiter{
		Jitter: 0.2,
		Sleep:  func(d time.Duration) { recorded = append(recorded, d) },
	}

	base := 10 * time.Second
	for i := 0; i < 200; i++ {
		l.Wait(context.Background(), base)
	}

	require.Len(t, recorded, 200)
	for _, d := range recorded {
		assert.GreaterOrEqual(t, d, 8*time.Second)
		assert.LessOrEqual(t, d, 12*time.Second)
	}
}

func TestWaitZeroJitterIsExact(t *testing.T) {
	var got time.Duration
	l := &Limiter{Sleep: func(d time.Duration) { got = d }}
	l.Wait(context.Background(), 3*time.Second)
	assert.Equal(t, 3*time.Second, got)
}

func TestWaitSkipsNonPositiveBase(t *testing.T) {
	called := false
	l := &Limiter{Sleep: func(time.Duration) { called = true }}
	l.Wait(context.Background(), 0)
	l.Wait(context.Background(), -time.Second)
	assert.False(t, called)
}

func TestWaitReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := New(0)
	done := make(chan struct{})
	go func() {
		l.Wait(ctx, time.Hour)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after context cancellation")
	}
}
