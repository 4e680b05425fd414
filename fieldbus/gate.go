package fieldbus

import (
	"context"
	"sync"
)

// Gate serializes field-bus requests per device. Embedded controllers
// commonly mishandle concurrent requests from one client, so reads and
// writes to the same device take turns while different devices proceed
// in parallel. Command writes and poll reads share the same gate.
type Gate struct {
	mu    sync.Mutex
	locks map[uint32]*sync.Mutex
}

// NewGate creates an empty gate.
func NewGate() *Gate {
	return &Gate{locks: make(map[uint32]*sync.Mutex)}
}

// lockFor returns the mutex for a device, creating it on first use.
func (g *Gate) lockFor(deviceID uint32) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()

	l, ok := g.locks[deviceID]
	if !ok {
		l = &sync.Mutex{}
		g.locks[deviceID] = l
	}
	return l
}

// Do runs fn while holding the device's lock. The context is checked
// before fn runs so a cancelled caller does not issue a stale request
// after a long wait for the lock.
func (g *Gate) Do(ctx context.Context, deviceID uint32, fn func() error) error {
	l := g.lockFor(deviceID)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}
