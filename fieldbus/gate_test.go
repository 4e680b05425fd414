package fieldbus

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_SerializesSameDevice(t *testing.T) {
	gate := NewGate()
	ctx := context.Background()

	var inFlight, maxInFlight int32
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = gate.Do(ctx, 1001, func() error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					old := atomic.LoadInt32(&maxInFlight)
					if n <= old || atomic.CompareAndSwapInt32(&maxInFlight, old, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
		}()
	}

	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
}

func TestGate_DifferentDevicesRunConcurrently(t *testing.T) {
	gate := NewGate()
	ctx := context.Background()

	release := make(chan struct{})
	firstRunning := make(chan struct{})

	go func() {
		_ = gate.Do(ctx, 1, func() error {
			close(firstRunning)
			<-release
			return nil
		})
	}()

	<-firstRunning

	// A different device is not blocked by device 1's in-flight request
	done := make(chan struct{})
	go func() {
		_ = gate.Do(ctx, 2, func() error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("request to a different device blocked behind device 1")
	}

	close(release)
}

func TestGate_CancelledContext(t *testing.T) {
	gate := NewGate()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := gate.Do(ctx, 1, func() error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, called, "fn must not run for a cancelled caller")
}

func TestGate_PropagatesError(t *testing.T) {
	gate := NewGate()

	err := gate.Do(context.Background(), 1, func() error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
}
