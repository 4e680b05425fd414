package busclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// trackerAt builds a tracker whose clock the test controls.
func trackerAt(window time.Duration, start time.Time) (*flowTracker, *time.Time) {
	clock := start
	t := newFlowTracker(window)
	t.now = func() time.Time { return clock }
	t.mu.Lock()
	t.epoch = clock
	t.mu.Unlock()
	return t, &clock
}

func TestFlowTracker_ConnectingAtStart(t *testing.T) {
	tracker, _ := trackerAt(120*time.Second, time.Now())
	assert.Equal(t, StateConnecting, tracker.state())
}

func TestFlowTracker_ConnectedWithinWindow(t *testing.T) {
	start := time.Now()
	tracker, clock := trackerAt(120*time.Second, start)

	tracker.markFlow()
	assert.Equal(t, StateConnected, tracker.state())

	*clock = start.Add(119 * time.Second)
	assert.Equal(t, StateConnected, tracker.state())
}

func TestFlowTracker_DisconnectedAfterWindowExpires(t *testing.T) {
	start := time.Now()
	tracker, clock := trackerAt(120*time.Second, start)

	tracker.markFlow()
	*clock = start.Add(121 * time.Second)
	assert.Equal(t, StateDisconnected, tracker.state())
}

func TestFlowTracker_StartupWithNoFlowEverDisconnects(t *testing.T) {
	start := time.Now()
	tracker, clock := trackerAt(120*time.Second, start)

	*clock = start.Add(121 * time.Second)
	assert.Equal(t, StateDisconnected, tracker.state())
}

func TestFlowTracker_ResetForcesConnecting(t *testing.T) {
	start := time.Now()
	tracker, clock := trackerAt(120*time.Second, start)

	tracker.markFlow()
	assert.Equal(t, StateConnected, tracker.state())

	// reconfiguration restarts the clock: old flow no longer counts
	*clock = start.Add(10 * time.Second)
	tracker.reset()
	assert.Equal(t, StateConnecting, tracker.state())

	// and new flow restores Connected
	tracker.markFlow()
	assert.Equal(t, StateConnected, tracker.state())
}

func TestFlowTracker_ResetWindowExpires(t *testing.T) {
	start := time.Now()
	tracker, clock := trackerAt(120*time.Second, start)

	tracker.reset()
	*clock = start.Add(121 * time.Second)
	assert.Equal(t, StateDisconnected, tracker.state())
}

func TestFlowTracker_DefaultWindow(t *testing.T) {
	tracker := newFlowTracker(0)
	assert.Equal(t, DefaultStateWindow, tracker.window)
}

func TestConnState_String(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "unknown", ConnState(9).String())
}
