package command

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/fieldbridge/busclient"
	"github.com/c360/fieldbridge/errors"
	"github.com/c360/fieldbridge/fieldbus"
	"github.com/c360/fieldbridge/message"
	"github.com/c360/fieldbridge/metric"
	"github.com/c360/fieldbridge/pointstore"
)

const defaultQueueSize = 64

// SnapshotProvider serves the current point configuration. Satisfied by
// pointstore.Accessor.
type SnapshotProvider interface {
	Snapshot() *pointstore.Snapshot
}

// Transport is the slice of the bus client the command pipeline needs.
type Transport interface {
	Subscribe(topic string, qos byte, handler busclient.Handler) error
	Publish(ctx context.Context, topic string, qos byte, payload []byte) error
}

// Processor receives write commands from the bus, validates them,
// executes accepted ones on the field bus and publishes exactly one
// result per command. Delivery is at-least-once end to end: a command
// redelivered by the broker is validated and executed again, and the
// originator correlates results by correlation id.
type Processor struct {
	bus       Transport
	validator *Validator
	executor  *Executor
	logger    *slog.Logger
	metrics   *metric.Metrics

	queue   chan *message.WriteCommand
	dropped atomic.Int64

	// Lifecycle management
	mu       sync.Mutex
	running  atomic.Bool
	shutdown chan struct{}
	done     chan struct{}
}

// ProcessorDeps holds runtime dependencies for the processor.
type ProcessorDeps struct {
	Bus      Transport
	Accessor SnapshotProvider
	Client   fieldbus.Client
	Gate     *fieldbus.Gate

	QueueSize    int
	WriteTimeout time.Duration

	Logger  *slog.Logger
	Metrics *metric.Metrics
}

// NewProcessor creates the command processor.
func NewProcessor(deps ProcessorDeps) *Processor {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	queueSize := deps.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	return &Processor{
		bus:       deps.Bus,
		validator: NewValidator(deps.Accessor),
		executor:  NewExecutor(deps.Client, deps.Gate, deps.WriteTimeout),
		logger:    logger.With("component", "command-processor"),
		metrics:   deps.Metrics,
		queue:     make(chan *message.WriteCommand, queueSize),
	}
}

// Initialize subscribes to the command topic. Deliveries land on the
// processor's bounded queue; the bus transport's own handler queue
// stays free for other subscribers.
func (p *Processor) Initialize() error {
	if p.bus == nil {
		return errors.WrapInvalid(fmt.Errorf("nil bus transport"),
			"Processor", "Initialize", "dependency validation")
	}

	err := p.bus.Subscribe(message.TopicWriteCommand, message.QoSCommand, p.enqueue)
	if err != nil {
		return errors.Wrap(err, "Processor", "Initialize", "subscribe to command topic")
	}
	return nil
}

// enqueue parses and queues one inbound command without blocking the
// subscriber.
func (p *Processor) enqueue(_ string, payload []byte) {
	var cmd message.WriteCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		p.logger.Warn("discarding malformed command payload", "error", err)
		return
	}
	cmd.Normalize()

	if p.metrics != nil {
		p.metrics.RecordCommandReceived()
	}

	select {
	case p.queue <- &cmd:
	default:
		dropped := p.dropped.Add(1)
		p.logger.Error("command queue full, dropping command",
			"correlation_id", cmd.CorrelationID,
			"dropped_total", dropped)
	}
}

// Start launches the processing goroutine.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running.Load() {
		return nil // Already running, idempotent
	}

	p.shutdown = make(chan struct{})
	p.done = make(chan struct{})
	p.running.Store(true)

	go func() {
		defer close(p.done)
		p.processLoop(ctx)
	}()

	return nil
}

// Stop halts command processing. Queued commands that were not yet
// processed are dropped; the transport's persistent session lets the
// broker redeliver unacknowledged QoS 1 traffic on reconnect.
func (p *Processor) Stop(timeout time.Duration) error {
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
			"Processor", "Stop", "graceful shutdown")
	}
}

func (p *Processor) processLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case cmd := <-p.queue:
			p.handle(ctx, cmd)
		}
	}
}

// handle runs one command through validation and execution and always
// publishes exactly one result.
func (p *Processor) handle(ctx context.Context, cmd *message.WriteCommand) {
	start := time.Now()

	pt, dev, verrs := p.validator.Validate(cmd)
	if len(verrs) > 0 {
		if p.metrics != nil {
			p.metrics.RecordCommandRejected(verrs[0].Field)
		}
		p.logger.Info("command rejected",
			"correlation_id", cmd.CorrelationID,
			"target", cmd.ObjectID(),
			"errors", verrs.Error())
		p.publishResult(ctx, message.NewWriteResult(cmd, false, time.Since(start), verrs, verrs))
		return
	}

	err := p.executor.Execute(ctx, cmd, dev)
	if p.metrics != nil {
		p.metrics.RecordCommandExecuted(err == nil)
	}
	if err != nil {
		p.logger.Error("field-bus write failed",
			"correlation_id", cmd.CorrelationID,
			"device", dev.ID,
			"target", cmd.ObjectID(),
			"error", err)
		p.publishResult(ctx, message.NewWriteResult(cmd, false, time.Since(start), err, nil))
		return
	}

	p.logger.Info("write executed",
		"correlation_id", cmd.CorrelationID,
		"device", dev.ID,
		"target", cmd.ObjectID(),
		"point", pt.SemanticName,
		"value", cmd.Value,
		"priority", cmd.Priority,
		"release", cmd.Release)
	p.publishResult(ctx, message.NewWriteResult(cmd, true, time.Since(start), nil, nil))
}

func (p *Processor) publishResult(ctx context.Context, result *message.WriteResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		p.logger.Error("marshal write result", "error", err)
		return
	}
	if err := p.bus.Publish(ctx, message.TopicWriteResult, message.QoSResult, payload); err != nil {
		p.logger.Error("publish write result",
			"correlation_id", result.CorrelationID,
			"error", err)
	}
}
