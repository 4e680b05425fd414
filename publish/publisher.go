package publish

import (
	"context"
	"log/slog"
	"sync"

	"github.com/c360/fieldbridge/message"
	"github.com/c360/fieldbridge/metric"
)

// Publisher fans each reading out to every configured sink. A failing
// sink never blocks or fails the others, and errors never propagate
// back to the poll path: delivery problems surface through logs and
// counters, and the reading simply misses that destination until it
// recovers.
type Publisher struct {
	sinks   []Sink
	logger  *slog.Logger
	metrics *metric.Metrics

	// failure-edge tracking so a long outage logs once, not per reading
	mu      sync.Mutex
	failing map[string]bool
}

// PublisherDeps holds the dependencies for creating a Publisher.
type PublisherDeps struct {
	Sinks   []Sink
	Logger  *slog.Logger
	Metrics *metric.Metrics
}

// NewPublisher creates a publisher over the given sinks.
func NewPublisher(deps PublisherDeps) *Publisher {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		sinks:   deps.Sinks,
		logger:  logger.With("component", "publisher"),
		metrics: deps.Metrics,
		failing: make(map[string]bool),
	}
}

// Publish delivers the reading to every sink. It always returns; the
// caller does not see individual sink failures.
func (p *Publisher) Publish(ctx context.Context, reading *message.Reading) {
	for _, sink := range p.sinks {
		name := sink.Name()

		if err := sink.Deliver(ctx, reading); err != nil {
			if p.metrics != nil {
				p.metrics.RecordSinkFailure(name)
			}
			p.markFailure(name, err)
			continue
		}

		if p.metrics != nil {
			p.metrics.RecordReadingPublished(name)
		}
		p.markRecovery(name)
	}
}

func (p *Publisher) markFailure(name string, err error) {
	p.mu.Lock()
	wasFailing := p.failing[name]
	p.failing[name] = true
	p.mu.Unlock()

	if !wasFailing {
		p.logger.Error("sink delivery failing", "sink", name, "error", err)
	} else {
		p.logger.Debug("sink still failing", "sink", name, "error", err)
	}
}

func (p *Publisher) markRecovery(name string) {
	p.mu.Lock()
	wasFailing := p.failing[name]
	p.failing[name] = false
	p.mu.Unlock()

	if wasFailing {
		p.logger.Info("sink recovered", "sink", name)
	}
}
