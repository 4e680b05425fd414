package heartbeat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"

	"github.com/c360/fieldbridge/busclient"
	"github.com/c360/fieldbridge/errors"
	"github.com/c360/fieldbridge/message"
	"github.com/c360/fieldbridge/pkg/timestamp"
	"github.com/c360/fieldbridge/pointstore"
)

// DefaultInterval is the heartbeat publish interval.
const DefaultInterval = 60 * time.Second

// Transport is the slice of the bus client the publisher needs.
type Transport interface {
	Publish(ctx context.Context, topic string, qos byte, payload []byte) error
	State() busclient.ConnState
}

// SnapshotProvider serves the current point configuration counts.
type SnapshotProvider interface {
	Snapshot() *pointstore.Snapshot
}

// Publisher periodically announces gateway liveness on the bus:
// configuration counts, connection state, version and process stats.
type Publisher struct {
	bus      Transport
	accessor SnapshotProvider

	gatewayID string
	site      string
	version   string
	interval  time.Duration
	logger    *slog.Logger

	startedAt time.Time
	proc      *process.Process

	// Lifecycle management
	mu       sync.Mutex
	running  atomic.Bool
	shutdown chan struct{}
	done     chan struct{}
}

// Deps holds runtime dependencies for the heartbeat publisher.
type Deps struct {
	Bus      Transport
	Accessor SnapshotProvider

	GatewayID string
	Site      string
	Version   string
	Interval  time.Duration

	Logger *slog.Logger
}

// New creates a heartbeat publisher.
func New(deps Deps) *Publisher {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := deps.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	// process stats are best-effort; proc stays nil if the platform
	// does not support them
	proc, _ := process.NewProcess(int32(os.Getpid()))

	return &Publisher{
		bus:       deps.Bus,
		accessor:  deps.Accessor,
		gatewayID: deps.GatewayID,
		site:      deps.Site,
		version:   deps.Version,
		interval:  interval,
		logger:    logger.With("component", "heartbeat"),
		proc:      proc,
	}
}

// Initialize validates dependencies.
func (p *Publisher) Initialize() error {
	if p.bus == nil || p.accessor == nil {
		return errors.WrapInvalid(
			fmt.Errorf("bus and accessor are required"),
			"Heartbeat", "Initialize", "dependency validation")
	}
	return nil
}

// Start launches the periodic publish loop.
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running.Load() {
		return nil // Already running, idempotent
	}

	p.startedAt = time.Now()
	p.shutdown = make(chan struct{})
	p.done = make(chan struct{})
	p.running.Store(true)

	go func() {
		defer close(p.done)
		p.loop(ctx)
	}()

	return nil
}

// Stop halts the publish loop.
func (p *Publisher) Stop(timeout time.Duration) error {
	if !p.running.Load() {
		return nil
	}
	p.running.Store(false)

	p.mu.Lock()
	if p.shutdown != nil {
		select {
		case <-p.shutdown:
		default:
			close(p.shutdown)
		}
	}
	done := p.done
	p.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.WrapTransient(fmt.Errorf("stop timeout after %v", timeout),
			"Heartbeat", "Stop", "graceful shutdown")
	}
}

func (p *Publisher) loop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.publish(ctx)
		}
	}
}

func (p *Publisher) publish(ctx context.Context) {
	state := p.bus.State()
	if state == busclient.StateDisconnected {
		p.logger.Warn("skipping heartbeat, bus disconnected")
		return
	}

	payload, err := json.Marshal(p.build(state))
	if err != nil {
		p.logger.Error("marshal heartbeat", "error", err)
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.bus.Publish(pubCtx, message.TopicHeartbeat, message.QoSHeartbeat, payload); err != nil {
		p.logger.Warn("heartbeat publish failed", "error", err)
	}
}

func (p *Publisher) build(state busclient.ConnState) *message.Heartbeat {
	snap := p.accessor.Snapshot()

	hb := &message.Heartbeat{
		GatewayID:     p.gatewayID,
		Site:          p.site,
		Version:       p.version,
		Timestamp:     timestamp.Format(timestamp.Now()),
		DeviceCount:   snap.DeviceCount(),
		PointCount:    snap.PointCount(),
		BusState:      state.String(),
		UptimeSeconds: int64(time.Since(p.startedAt).Seconds()),
	}

	if p.proc != nil {
		if info, err := p.proc.MemoryInfo(); err == nil && info != nil {
			hb.MemoryRSS = info.RSS
		}
		if pct, err := p.proc.MemoryPercent(); err == nil {
			hb.MemoryPercent = float64(pct)
		}
	}
	return hb
}
