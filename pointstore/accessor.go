package pointstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/fieldbridge/errors"
)

// Accessor serves the current configuration snapshot to the poller and
// the command pipeline. The snapshot is refreshed from the store on a
// fixed interval and swapped atomically; readers never block on a
// refresh and never see a half-loaded view.
type Accessor struct {
	store    *Store
	interval time.Duration
	logger   *slog.Logger

	snapshot atomic.Pointer[Snapshot]

	// Lifecycle management
	mu       sync.Mutex
	running  atomic.Bool
	shutdown chan struct{}
	done     chan struct{}
}

// AccessorDeps holds runtime dependencies for the accessor
type AccessorDeps struct {
	Store           *Store
	RefreshInterval time.Duration
	Logger          *slog.Logger
}

// NewAccessor creates a snapshot accessor over the given store.
func NewAccessor(deps AccessorDeps) *Accessor {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "pointstore-accessor")
	}

	interval := deps.RefreshInterval
	if interval <= 0 {
		interval = 60 * time.Second
	}

	a := &Accessor{
		store:    deps.Store,
		interval: interval,
		logger:   logger,
	}
	a.snapshot.Store(emptySnapshot())
	return a
}

// Snapshot returns the current configuration snapshot. Never nil.
func (a *Accessor) Snapshot() *Snapshot {
	return a.snapshot.Load()
}

// Initialize performs the first snapshot load so dependent components
// start with real configuration.
func (a *Accessor) Initialize() error {
	if a.store == nil {
		return errors.WrapInvalid(fmt.Errorf("nil store"),
			"Accessor", "Initialize", "store validation")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snap, err := a.store.LoadSnapshot(ctx)
	if err != nil {
		return errors.Wrap(err, "Accessor", "Initialize", "initial snapshot load")
	}

	a.snapshot.Store(snap)
	a.logger.Info("Loaded point configuration",
		"devices", snap.DeviceCount(),
		"points", snap.PointCount())
	return nil
}

// Start begins the periodic snapshot refresh loop.
func (a *Accessor) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running.Load() {
		return nil // Already running, idempotent
	}

	a.shutdown = make(chan struct{})
	a.done = make(chan struct{})
	a.running.Store(true)

	go func() {
		defer close(a.done)
		a.refreshLoop(ctx)
	}()

	return nil
}

// Stop halts the refresh loop.
func (a *Accessor) Stop(timeout time.Duration) error {
	if !a.running.Load() {
		return nil
	}
	a.running.Store(false)

	a.mu.Lock()
	if a.shutdown != nil {
		select {
		case <-a.shutdown:
		default:
			close(a.shutdown)
		}
	}
	done := a.done
	a.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.WrapTransient(fmt.Errorf("stop timeout after %v", timeout),
			"Accessor", "Stop", "graceful shutdown")
	}
}

// refreshLoop reloads the snapshot on the configured interval. A failed
// refresh keeps the previous snapshot; the poller keeps running on the
// last known-good configuration.
func (a *Accessor) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.shutdown:
			return
		case <-ticker.C:
			a.refresh(ctx)
		}
	}
}

func (a *Accessor) refresh(ctx context.Context) {
	loadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	snap, err := a.store.LoadSnapshot(loadCtx)
	if err != nil {
		a.logger.Warn("Snapshot refresh failed, keeping previous configuration",
			"error", err)
		return
	}

	prev := a.snapshot.Swap(snap)
	if prev.PointCount() != snap.PointCount() || prev.DeviceCount() != snap.DeviceCount() {
		a.logger.Info("Point configuration changed",
			"devices", snap.DeviceCount(),
			"points", snap.PointCount())
	}
}
