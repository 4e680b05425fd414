package busclient

import (
	"sync"
	"time"
)

// ConnState is the gateway's view of broker health. It is derived from
// observed data flow, not from transport-level callbacks: a TCP session
// that carries no traffic is not evidence the broker works.
type ConnState int

// Possible connection states
const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

// String returns the string representation of ConnState
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// DefaultStateWindow is the trailing window within which observed data
// flow counts as evidence of a live connection.
const DefaultStateWindow = 120 * time.Second

// flowTracker derives ConnState from two instants: the last successful
// publish or inbound delivery, and the last reset (startup or
// reconfiguration).
type flowTracker struct {
	window time.Duration

	mu       sync.Mutex
	lastFlow time.Time
	epoch    time.Time
	now      func() time.Time
}

func newFlowTracker(window time.Duration) *flowTracker {
	if window <= 0 {
		window = DefaultStateWindow
	}
	t := &flowTracker{window: window, now: time.Now}
	t.epoch = t.now()
	return t
}

// markFlow records a successful publish or an inbound delivery.
func (t *flowTracker) markFlow() {
	t.mu.Lock()
	t.lastFlow = t.now()
	t.mu.Unlock()
}

// reset restarts the window clock. Flow observed before the reset no
// longer counts, so the state reads Connecting until new data moves.
func (t *flowTracker) reset() {
	t.mu.Lock()
	t.epoch = t.now()
	t.lastFlow = time.Time{}
	t.mu.Unlock()
}

// state reports the connection state for the current instant.
func (t *flowTracker) state() ConnState {
	t.mu.Lock()
	defer t.mu.Unlock()

	// reset clears lastFlow, so a non-zero lastFlow is always within the
	// current epoch
	now := t.now()
	if !t.lastFlow.IsZero() && now.Sub(t.lastFlow) <= t.window {
		return StateConnected
	}
	if now.Sub(t.epoch) <= t.window {
		return StateConnecting
	}
	return StateDisconnected
}
