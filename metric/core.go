package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all gateway-level metrics (not component-specific)
type Metrics struct {
	// Service metrics
	ServiceStatus      *prometheus.GaugeVec
	ProcessingDuration *prometheus.HistogramVec
	ErrorsTotal        *prometheus.CounterVec
	HealthCheckStatus  *prometheus.GaugeVec

	// Telemetry path metrics
	PollReads         *prometheus.CounterVec
	ReadingsPublished *prometheus.CounterVec
	SinkFailures      *prometheus.CounterVec

	// Command path metrics
	CommandsReceived prometheus.Counter
	CommandsRejected *prometheus.CounterVec
	CommandsExecuted *prometheus.CounterVec

	// Bus metrics
	BusConnectionState prometheus.Gauge
	BusReconnects      prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all gateway metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Service metrics
		ServiceStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "fieldbridge",
				Subsystem: "service",
				Name:      "status",
				Help:      "Service status (0=stopped, 1=starting, 2=running, 3=stopping, 4=failed)",
			},
			[]string{"service"},
		),

		ProcessingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fieldbridge",
				Subsystem: "processing",
				Name:      "duration_seconds",
				Help:      "Operation processing duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "operation"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fieldbridge",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors",
			},
			[]string{"service", "type"},
		),

		HealthCheckStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "fieldbridge",
				Subsystem: "health",
				Name:      "status",
				Help:      "Health check status (0=unhealthy, 1=healthy)",
			},
			[]string{"service"},
		),

		// Telemetry path metrics
		PollReads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fieldbridge",
				Subsystem: "poll",
				Name:      "reads_total",
				Help:      "Total number of field-bus point reads attempted",
			},
			[]string{"status"},
		),

		ReadingsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fieldbridge",
				Subsystem: "publish",
				Name:      "readings_total",
				Help:      "Total number of readings delivered, per sink",
			},
			[]string{"sink"},
		),

		SinkFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fieldbridge",
				Subsystem: "publish",
				Name:      "sink_failures_total",
				Help:      "Total number of failed sink deliveries, per sink",
			},
			[]string{"sink"},
		),

		// Command path metrics
		CommandsReceived: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "fieldbridge",
				Subsystem: "command",
				Name:      "received_total",
				Help:      "Total number of write commands received from the bus",
			},
		),

		CommandsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fieldbridge",
				Subsystem: "command",
				Name:      "rejected_total",
				Help:      "Total number of write commands rejected by validation",
			},
			[]string{"reason"},
		),

		CommandsExecuted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fieldbridge",
				Subsystem: "command",
				Name:      "executed_total",
				Help:      "Total number of write commands executed against the field bus",
			},
			[]string{"status"},
		),

		// Bus metrics
		BusConnectionState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "fieldbridge",
				Subsystem: "bus",
				Name:      "connection_state",
				Help:      "Bus connection state (0=disconnected, 1=connecting, 2=connected)",
			},
		),

		BusReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "fieldbridge",
				Subsystem: "bus",
				Name:      "reconnects_total",
				Help:      "Total number of bus reconnections",
			},
		),
	}
}

// RecordServiceStatus updates service status metric
func (c *Metrics) RecordServiceStatus(service string, status int) {
	c.ServiceStatus.WithLabelValues(service).Set(float64(status))
}

// RecordProcessingDuration records processing time
func (c *Metrics) RecordProcessingDuration(service, operation string, duration time.Duration) {
	c.ProcessingDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordError increments error counter
func (c *Metrics) RecordError(service, errorType string) {
	c.ErrorsTotal.WithLabelValues(service, errorType).Inc()
}

// RecordHealthStatus updates health check status
func (c *Metrics) RecordHealthStatus(service string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	c.HealthCheckStatus.WithLabelValues(service).Set(value)
}

// RecordPollRead increments the poll read counter
func (c *Metrics) RecordPollRead(ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	c.PollReads.WithLabelValues(status).Inc()
}

// RecordReadingPublished increments the per-sink delivery counter
func (c *Metrics) RecordReadingPublished(sink string) {
	c.ReadingsPublished.WithLabelValues(sink).Inc()
}

// RecordSinkFailure increments the per-sink failure counter
func (c *Metrics) RecordSinkFailure(sink string) {
	c.SinkFailures.WithLabelValues(sink).Inc()
}

// RecordCommandReceived increments the received command counter
func (c *Metrics) RecordCommandReceived() {
	c.CommandsReceived.Inc()
}

// RecordCommandRejected increments the rejected command counter
func (c *Metrics) RecordCommandRejected(reason string) {
	c.CommandsRejected.WithLabelValues(reason).Inc()
}

// RecordCommandExecuted increments the executed command counter
func (c *Metrics) RecordCommandExecuted(ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	c.CommandsExecuted.WithLabelValues(status).Inc()
}

// RecordBusConnectionState updates the bus connection state gauge
func (c *Metrics) RecordBusConnectionState(state int) {
	c.BusConnectionState.Set(float64(state))
}

// RecordBusReconnect increments the bus reconnection counter
func (c *Metrics) RecordBusReconnect() {
	c.BusReconnects.Inc()
}
