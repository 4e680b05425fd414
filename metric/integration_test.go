package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSink simulates a publish sink that registers its own metrics
type mockSink struct {
	name    string
	metrics struct {
		readingsWritten prometheus.Counter
		queueDepth      prometheus.Gauge
	}
}

func newMockSink(name string) *mockSink {
	return &mockSink{name: name}
}

// RegisterMetrics registers sink-specific metrics
func (m *mockSink) RegisterMetrics(registrar MetricsRegistrar) error {
	m.metrics.readingsWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fieldbridge",
		Subsystem: "mock_sink",
		Name:      "readings_written_total",
		Help:      "Total number of readings written to the sink",
	})

	err := registrar.RegisterCounter(m.name, "readings_written_total", m.metrics.readingsWritten)
	if err != nil {
		return err
	}

	m.metrics.queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fieldbridge",
		Subsystem: "mock_sink",
		Name:      "queue_depth",
		Help:      "Current depth of the delivery queue",
	})

	return registrar.RegisterGauge(m.name, "queue_depth", m.metrics.queueDepth)
}

// Deliver simulates reading delivery and updates metrics
func (m *mockSink) Deliver(readings int, queueDepth int) {
	m.metrics.readingsWritten.Add(float64(readings))
	m.metrics.queueDepth.Set(float64(queueDepth))
}

func TestMetricsIntegration_SinkRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	sink := newMockSink("test-sink")

	err := sink.RegisterMetrics(registry)
	require.NoError(t, err)

	// Simulate some sink activity
	sink.Deliver(10, 5)

	// Verify metrics are registered and have values
	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	foundMetrics := make(map[string]bool)
	for _, mf := range metricFamilies {
		foundMetrics[mf.GetName()] = true
	}

	assert.True(t, foundMetrics["fieldbridge_mock_sink_readings_written_total"],
		"Custom readings written metric should be registered")
	assert.True(t, foundMetrics["fieldbridge_mock_sink_queue_depth"],
		"Custom queue_depth metric should be registered")
}

func TestMetricsIntegration_NoDuplicateRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	// Two sinks with the same name (this shouldn't happen in real usage)
	sink1 := newMockSink("duplicate-sink")
	sink2 := newMockSink("duplicate-sink")

	err := sink1.RegisterMetrics(registry)
	require.NoError(t, err)

	// Second registration with the same name should fail
	err = sink2.RegisterMetrics(registry)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestMetricsIntegration_CoreAndSinkMetricsSeparate(t *testing.T) {
	registry := NewMetricsRegistry()
	coreMetrics := registry.CoreMetrics()

	sink := newMockSink("separation-test")
	err := sink.RegisterMetrics(registry)
	require.NoError(t, err)

	// Use core metrics
	coreMetrics.RecordServiceStatus("separation-test", 2)
	coreMetrics.RecordReadingPublished("separation-test")

	// Use sink-specific metrics
	sink.Deliver(5, 3)

	// Verify both types of metrics are present
	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	foundMetrics := make(map[string]bool)
	for _, mf := range metricFamilies {
		foundMetrics[mf.GetName()] = true
	}

	assert.True(t, foundMetrics["fieldbridge_service_status"],
		"core service status metric should be present")
	assert.True(t, foundMetrics["fieldbridge_publish_readings_total"],
		"core readings published metric should be present")

	assert.True(t, foundMetrics["fieldbridge_mock_sink_readings_written_total"],
		"Sink-specific readings written metric should be present")
	assert.True(t, foundMetrics["fieldbridge_mock_sink_queue_depth"],
		"Sink-specific queue depth metric should be present")
}

func TestMetricsIntegration_MetricsUnregistration(t *testing.T) {
	registry := NewMetricsRegistry()

	sink := newMockSink("unregister-test")

	err := sink.RegisterMetrics(registry)
	require.NoError(t, err)

	// Deliver some readings to make metrics visible
	sink.Deliver(1, 1)

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	foundBefore := make(map[string]bool)
	for _, mf := range metricFamilies {
		foundBefore[mf.GetName()] = true
	}

	assert.True(t, foundBefore["fieldbridge_mock_sink_readings_written_total"],
		"Metric should be present before unregistration")

	success := registry.Unregister("unregister-test", "readings_written_total")
	assert.True(t, success, "Unregistration should succeed")

	metricFamilies, err = registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	foundAfter := make(map[string]bool)
	for _, mf := range metricFamilies {
		foundAfter[mf.GetName()] = true
	}

	assert.False(t, foundAfter["fieldbridge_mock_sink_readings_written_total"],
		"Metric should be absent after unregistration")
	assert.True(t, foundAfter["fieldbridge_mock_sink_queue_depth"],
		"Other sink metrics should remain")
}

func TestMetricsIntegration_MultipleSinksWithConflictingMetrics(t *testing.T) {
	registry := NewMetricsRegistry()

	// Two sinks with different names but identical Prometheus metric names
	sink1 := newMockSink("timeseries-sink")
	sink2 := newMockSink("latest-sink")

	err := sink1.RegisterMetrics(registry)
	require.NoError(t, err)

	// The second sink fails because it registers the same Prometheus metric names
	err = sink2.RegisterMetrics(registry)
	assert.Error(t, err, "Second sink should fail due to Prometheus metric name conflict")
	assert.Contains(t, err.Error(), "prometheus conflict")
}
