package busclient

import (
	"crypto/tls"
	"log/slog"
	"time"

	"github.com/c360/fieldbridge/metric"
)

// Option is a functional option for configuring the Client
type Option func(*Client) error

// WithClientID sets the MQTT client identifier
func WithClientID(id string) Option {
	return func(c *Client) error {
		c.clientID = id
		return nil
	}
}

// WithCredentials sets username and password for broker authentication
func WithCredentials(username, password string) Option {
	return func(c *Client) error {
		c.username = username
		c.password = password
		return nil
	}
}

// WithTLS sets the TLS configuration for the broker connection. A nil
// config keeps the connection plaintext.
func WithTLS(cfg *tls.Config) Option {
	return func(c *Client) error {
		c.tlsConfig = cfg
		return nil
	}
}

// WithKeepAlive sets the MQTT keep-alive interval
func WithKeepAlive(d time.Duration) Option {
	return func(c *Client) error {
		if d > 0 {
			c.keepAlive = d
		}
		return nil
	}
}

// WithConnectTimeout sets the timeout for one connection attempt
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d > 0 {
			c.connectTimeout = d
		}
		return nil
	}
}

// WithReconnectWait sets the fixed wait between connection attempts
func WithReconnectWait(d time.Duration) Option {
	return func(c *Client) error {
		if d > 0 {
			c.reconnectWait = d
		}
		return nil
	}
}

// WithStateWindow sets the trailing data-flow window used to derive the
// connection state
func WithStateWindow(d time.Duration) Option {
	return func(c *Client) error {
		if d > 0 {
			c.stateWindow = d
		}
		return nil
	}
}

// WithHandlerQueueSize bounds the per-subscription delivery queue.
// Deliveries beyond the bound are dropped and counted.
func WithHandlerQueueSize(n int) Option {
	return func(c *Client) error {
		if n > 0 {
			c.queueSize = n
		}
		return nil
	}
}

// WithLogger sets a custom logger for the client
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// WithMetrics wires connection state and reconnect counters into the
// provided registry's core metrics
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(c *Client) error {
		if registry != nil {
			c.metrics = registry.CoreMetrics()
		}
		return nil
	}
}
