package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/fieldbridge/errors"
	"github.com/c360/fieldbridge/fieldbus"
	"github.com/c360/fieldbridge/message"
	"github.com/c360/fieldbridge/metric"
	"github.com/c360/fieldbridge/pkg/timestamp"
	"github.com/c360/fieldbridge/pkg/worker"
	"github.com/c360/fieldbridge/pointstore"
)

// DefaultTick is the scheduler tick interval.
const DefaultTick = 5 * time.Second

const defaultReadTimeout = 3 * time.Second

// pollTask is one scheduled read handed to the worker pool.
type pollTask struct {
	device *pointstore.Device
	point  *pointstore.Point
}

// pollState is the scheduler's per-point bookkeeping. lastPoll advances
// when a read is issued, not when it succeeds: a failed read is retried
// when the point's interval elapses again, never within the same tick.
type pollState struct {
	lastPoll   time.Time
	firstAfter time.Time
}

// Publisher receives successful readings.
type Publisher interface {
	Publish(ctx context.Context, reading *message.Reading)
}

// SnapshotProvider serves the current point configuration. Satisfied by
// pointstore.Accessor.
type SnapshotProvider interface {
	Snapshot() *pointstore.Snapshot
}

// Poller schedules field-bus reads. Every tick it walks the current
// configuration snapshot, selects the points whose interval has
// elapsed, and submits one read per point to a bounded worker pool.
// Reads go through the per-device gate so a slow device delays only its
// own points.
type Poller struct {
	accessor    SnapshotProvider
	client      fieldbus.Client
	gate        *fieldbus.Gate
	publisher   Publisher
	tick        time.Duration
	readTimeout time.Duration
	logger      *slog.Logger
	metrics     *metric.Metrics

	pool *worker.Pool[pollTask]

	// scheduler-owned, touched only from the tick loop
	state map[pointstore.PointKey]*pollState

	// Lifecycle management
	mu       sync.Mutex
	running  atomic.Bool
	shutdown chan struct{}
	done     chan struct{}
}

// Deps holds runtime dependencies for the poller.
type Deps struct {
	Accessor  SnapshotProvider
	Client    fieldbus.Client
	Gate      *fieldbus.Gate
	Publisher Publisher

	Tick        time.Duration
	ReadTimeout time.Duration
	Workers     int
	QueueSize   int

	Logger   *slog.Logger
	Metrics  *metric.Metrics
	Registry *metric.MetricsRegistry
}

// New creates a poller.
func New(deps Deps) *Poller {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tick := deps.Tick
	if tick <= 0 {
		tick = DefaultTick
	}
	readTimeout := deps.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}

	p := &Poller{
		accessor:    deps.Accessor,
		client:      deps.Client,
		gate:        deps.Gate,
		publisher:   deps.Publisher,
		tick:        tick,
		readTimeout: readTimeout,
		logger:      logger.With("component", "poller"),
		metrics:     deps.Metrics,
		state:       make(map[pointstore.PointKey]*pollState),
	}

	var opts []worker.Option[pollTask]
	if deps.Registry != nil {
		opts = append(opts, worker.WithMetricsRegistry[pollTask](deps.Registry, "poller"))
	}
	p.pool = worker.NewPool(deps.Workers, deps.QueueSize, p.process, opts...)

	return p
}

// Initialize validates dependencies.
func (p *Poller) Initialize() error {
	if p.accessor == nil || p.client == nil || p.gate == nil || p.publisher == nil {
		return errors.WrapInvalid(
			fmt.Errorf("accessor, client, gate and publisher are required"),
			"Poller", "Initialize", "dependency validation")
	}
	return nil
}

// Start launches the worker pool and the tick loop.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running.Load() {
		return nil // Already running, idempotent
	}

	if err := p.pool.Start(ctx); err != nil {
		return errors.Wrap(err, "Poller", "Start", "start worker pool")
	}

	p.shutdown = make(chan struct{})
	p.done = make(chan struct{})
	p.running.Store(true)

	go func() {
		defer close(p.done)
		p.tickLoop(ctx)
	}()

	p.logger.Info("Poller started", "tick", p.tick)
	return nil
}

// Stop halts scheduling, then drains the worker pool. In-flight reads
// complete or time out on their own deadlines.
func (p *Poller) Stop(timeout time.Duration) error {
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
	case <-time.After(timeout):
		return errors.WrapTransient(fmt.Errorf("stop timeout after %v", timeout),
			"Poller", "Stop", "graceful shutdown")
	}

	return p.pool.Stop(timeout)
}

func (p *Poller) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.schedule(time.Now().UTC())
		}
	}
}

// schedule submits a read for every due point in the current snapshot
// and prunes state for points that left the configuration.
func (p *Poller) schedule(now time.Time) {
	snap := p.accessor.Snapshot()

	for key, pt := range snap.Points {
		if !pt.PublishEnabled {
			continue
		}
		dev, ok := snap.Device(pt.DeviceID)
		if !ok || !dev.Enabled {
			continue
		}

		st, seen := p.state[key]
		if !seen {
			// first poll aligns to the next wall-clock minute so readings
			// across many points share comparable timestamps
			st = &pollState{firstAfter: timestamp.NextMinute(now)}
			p.state[key] = st
		}

		if !p.due(st, pt, now) {
			continue
		}

		st.lastPoll = now
		if err := p.pool.Submit(pollTask{device: dev, point: pt}); err != nil {
			p.logger.Warn("poll queue full, skipping point",
				"point", key.String(),
				"error", err)
		}
	}

	for key := range p.state {
		if _, ok := snap.Points[key]; !ok {
			delete(p.state, key)
		}
	}
}

func (p *Poller) due(st *pollState, pt *pointstore.Point, now time.Time) bool {
	if st.lastPoll.IsZero() {
		return !now.Before(st.firstAfter)
	}
	return now.Sub(st.lastPoll) >= pt.PollInterval
}

// process executes one read on a pool worker. Both the timestamp and
// the publish happen inside the device gate: two pool workers holding
// tasks for the same point cannot overtake each other between the read
// and the sinks, so readings reach the publisher in poll order with
// non-decreasing timestamps.
func (p *Poller) process(ctx context.Context, task pollTask) error {
	readCtx, cancel := context.WithTimeout(ctx, p.readTimeout)
	defer cancel()

	err := p.gate.Do(readCtx, task.device.ID, func() error {
		value, err := p.client.ReadPresentValue(readCtx, task.device, task.point.Object)
		if err != nil {
			return err
		}

		if p.metrics != nil {
			p.metrics.RecordPollRead(true)
		}
		p.publisher.Publish(ctx, &message.Reading{
			DeviceID:       task.point.DeviceID,
			ObjectType:     task.point.Object.Type,
			ObjectInstance: task.point.Object.Instance,
			SemanticName:   task.point.SemanticName,
			DisplayName:    task.point.DisplayName,
			Units:          task.point.Units,
			Value:          value,
			Quality:        message.QualityGood,
			Timestamp:      timestamp.Now(),
			QoS:            task.point.QoS,
			BusPublish:     task.point.PublishEnabled,
		})
		return nil
	})
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordPollRead(false)
		}
		p.logger.Warn("poll read failed",
			"device", task.device.ID,
			"object", task.point.Object.String(),
			"error", err)
		return err
	}
	return nil
}
