package publish

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/c360/fieldbridge/message"
)

type recordingSink struct {
	name      string
	delivered []*message.Reading
	err       error
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Deliver(_ context.Context, r *message.Reading) error {
	if s.err != nil {
		return s.err
	}
	s.delivered = append(s.delivered, r)
	return nil
}

func testReading() *message.Reading {
	return &message.Reading{
		DeviceID:       1001,
		ObjectType:     "analogInput",
		ObjectInstance: 4,
		SemanticName:   "hvac.ahu-2.supplyTemp.sensor",
		Value:          21.5,
		Quality:        message.QualityGood,
		Timestamp:      time.Now().UTC(),
		BusPublish:     true,
	}
}

func TestPublisher_DeliversToAllSinks(t *testing.T) {
	a := &recordingSink{name: "latest"}
	b := &recordingSink{name: "timeseries"}

	p := NewPublisher(PublisherDeps{Sinks: []Sink{a, b}})
	p.Publish(context.Background(), testReading())

	assert.Len(t, a.delivered, 1)
	assert.Len(t, b.delivered, 1)
}

func TestPublisher_FailingSinkDoesNotBlockOthers(t *testing.T) {
	failing := &recordingSink{name: "timeseries", err: fmt.Errorf("connection refused")}
	healthy := &recordingSink{name: "bus"}

	p := NewPublisher(PublisherDeps{Sinks: []Sink{failing, healthy}})

	for i := 0; i < 5; i++ {
		p.Publish(context.Background(), testReading())
	}

	assert.Len(t, healthy.delivered, 5)
}

func TestPublisher_LogsFailureEdgeOnce(t *testing.T) {
	sink := &recordingSink{name: "timeseries", err: fmt.Errorf("down")}
	p := NewPublisher(PublisherDeps{Sinks: []Sink{sink}, Logger: slog.Default()})

	ctx := context.Background()
	p.Publish(ctx, testReading())
	p.Publish(ctx, testReading())

	p.mu.Lock()
	assert.True(t, p.failing["timeseries"])
	p.mu.Unlock()

	// recovery resets the edge
	sink.err = nil
	p.Publish(ctx, testReading())

	p.mu.Lock()
	assert.False(t, p.failing["timeseries"])
	p.mu.Unlock()
}

func TestPublisher_NoSinks(t *testing.T) {
	p := NewPublisher(PublisherDeps{})
	assert.NotPanics(t, func() {
		p.Publish(context.Background(), testReading())
	})
}
