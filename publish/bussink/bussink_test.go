package bussink

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/fieldbridge/errors"
	"github.com/c360/fieldbridge/message"
)

type fakeBus struct {
	topics   []string
	qos      []byte
	payloads [][]byte
	err      error
}

func (b *fakeBus) Publish(_ context.Context, topic string, qos byte, payload []byte) error {
	if b.err != nil {
		return b.err
	}
	b.topics = append(b.topics, topic)
	b.qos = append(b.qos, qos)
	b.payloads = append(b.payloads, payload)
	return nil
}

func reading() *message.Reading {
	return &message.Reading{
		DeviceID:       1001,
		ObjectType:     "analogInput",
		ObjectInstance: 4,
		SemanticName:   "hvac.ahu-2.supplyTemp.sensor",
		DisplayName:    "AHU-2 Supply Temp",
		Units:          "degreesCelsius",
		Value:          21.5,
		Quality:        message.QualityGood,
		Timestamp:      time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		QoS:            0,
		BusPublish:     true,
	}
}

func TestSink_DeliverTopicAndPayload(t *testing.T) {
	bus := &fakeBus{}
	sink := New(bus, "plant-a", -5)

	require.NoError(t, sink.Deliver(context.Background(), reading()))

	require.Len(t, bus.topics, 1)
	assert.Equal(t, "plant-a/ahu-2/analogInput-4/presentValue", bus.topics[0])
	assert.Equal(t, byte(0), bus.qos[0])

	var payload message.TelemetryPayload
	require.NoError(t, json.Unmarshal(bus.payloads[0], &payload))
	assert.Equal(t, 21.5, payload.Value)
	assert.Equal(t, "2026-03-14T09:26:53.000Z", payload.Timestamp)
	assert.Equal(t, -5, payload.UTCOffset)
	assert.Equal(t, "degreesCelsius", payload.Units)
	assert.Equal(t, message.QualityGood, payload.Quality)
	assert.Equal(t, "hvac.ahu-2.supplyTemp.sensor", payload.SemanticName)
}

func TestSink_DeliverUsesPointQoS(t *testing.T) {
	bus := &fakeBus{}
	sink := New(bus, "plant-a", 0)

	r := reading()
	r.QoS = 1
	require.NoError(t, sink.Deliver(context.Background(), r))
	assert.Equal(t, byte(1), bus.qos[0])
}

func TestSink_DeliverSkipsWhenBusPublishDisabled(t *testing.T) {
	bus := &fakeBus{}
	sink := New(bus, "plant-a", 0)

	r := reading()
	r.BusPublish = false
	require.NoError(t, sink.Deliver(context.Background(), r))
	assert.Empty(t, bus.topics)
}

func TestSink_DeliverTransportFailureIsSinkError(t *testing.T) {
	bus := &fakeBus{err: fmt.Errorf("not connected")}
	sink := New(bus, "plant-a", 0)

	err := sink.Deliver(context.Background(), reading())
	require.Error(t, err)
	assert.True(t, errors.IsSink(err))
}

func TestSink_Name(t *testing.T) {
	assert.Equal(t, "bus", New(nil, "s", 0).Name())
}
