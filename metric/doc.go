// Package metric provides Prometheus-based metrics collection and an HTTP
// server for gateway monitoring and observability.
//
// The package offers a centralized metrics registry managing both core
// gateway metrics (telemetry throughput, command pipeline counts, bus
// connection state) and custom component-specific metrics. It includes an
// HTTP server exposing metrics in Prometheus format.
//
// # Architecture
//
// The package follows a three-layer design:
//
//  1. Core Metrics: Gateway-level metrics automatically registered (Metrics type)
//  2. Component Registry: Extensible registration for component-specific metrics (MetricsRegistrar interface)
//  3. HTTP Server: Metrics endpoint with health checks (Server type)
//
// # Basic Usage
//
// Setting up metrics collection and HTTP server:
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        log.Printf("Metrics server error: %v", err)
//	    }
//	}()
//	defer server.Stop()
//
//	// Record core gateway metrics
//	coreMetrics := registry.CoreMetrics()
//	coreMetrics.RecordServiceStatus("poller", 2)
//	coreMetrics.RecordReadingPublished("timeseries")
//	coreMetrics.RecordBusConnectionState(2)
//
// # Core Metrics
//
// All core metrics use the namespace "fieldbridge" and appropriate subsystems:
//
//   - fieldbridge_service_status{service="..."}
//   - fieldbridge_poll_reads_total{status="..."}
//   - fieldbridge_publish_readings_total{sink="..."}
//   - fieldbridge_publish_sink_failures_total{sink="..."}
//   - fieldbridge_command_received_total
//   - fieldbridge_command_rejected_total{reason="..."}
//   - fieldbridge_command_executed_total{status="..."}
//   - fieldbridge_bus_connection_state
//
// # Component-Specific Metrics
//
// Components register custom metrics through the MetricsRegistrar interface,
// which enables testing with mock registrars and provides loose coupling:
//
//	counter := prometheus.NewCounter(prometheus.CounterOpts{
//	    Name: "operations_total",
//	    Help: "Total operations",
//	})
//	err := registry.RegisterCounter("my-component", "operations_total", counter)
//
// Registration methods return errors for duplicate registration and internal
// Prometheus conflicts. All registry operations are thread-safe.
package metric
