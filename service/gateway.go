package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/fieldbridge/busclient"
	"github.com/c360/fieldbridge/command"
	"github.com/c360/fieldbridge/config"
	"github.com/c360/fieldbridge/errors"
	"github.com/c360/fieldbridge/fieldbus"
	"github.com/c360/fieldbridge/fieldbus/bacnetip"
	"github.com/c360/fieldbridge/heartbeat"
	"github.com/c360/fieldbridge/metric"
	"github.com/c360/fieldbridge/pkg/tlsutil"
	"github.com/c360/fieldbridge/pointstore"
	"github.com/c360/fieldbridge/poller"
	"github.com/c360/fieldbridge/publish"
	"github.com/c360/fieldbridge/publish/bussink"
	"github.com/c360/fieldbridge/publish/latest"
	"github.com/c360/fieldbridge/publish/timeseries"
)

// Status represents the current status of the gateway
type Status int

// Possible gateway statuses
const (
	StatusStopped Status = iota
	StatusStarting
	StatusRunning
	StatusStopping
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusStarting:
		return "starting"
	case StatusRunning:
		return "running"
	case StatusStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// component is the lifecycle every managed part of the gateway follows.
type component interface {
	Initialize() error
	Start(ctx context.Context) error
	Stop(timeout time.Duration) error
}

// namedComponent pairs a component with the name used in logs and errors.
type namedComponent struct {
	name string
	component
}

// Gateway assembles the stores, bus transport, field client and all
// processing components into one unit with a single lifecycle. Start
// brings components up in dependency order; Stop tears them down in
// reverse so nothing publishes into a closed transport.
type Gateway struct {
	cfg    *config.Config
	logger *slog.Logger

	store  *pointstore.Store
	bus    *busclient.Client
	tsSink *timeseries.Sink

	// components in start order
	components []namedComponent

	metricsServer *metric.Server
	eg            errgroup.Group

	status    atomic.Value // Status
	startTime atomic.Value // time.Time

	mu sync.Mutex
}

// GatewayDeps holds the externally supplied dependencies of the gateway.
type GatewayDeps struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *metric.MetricsRegistry
	// Version is stamped on heartbeats.
	Version string
}

// NewGateway wires every component from configuration. The point store
// is opened here; components are created but not started.
func NewGateway(deps GatewayDeps) (*Gateway, error) {
	cfg := deps.Config
	if cfg == nil {
		return nil, errors.WrapInvalid(fmt.Errorf("nil config"),
			"Gateway", "NewGateway", "dependency validation")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := deps.Registry
	if registry == nil {
		registry = metric.NewMetricsRegistry()
	}
	core := registry.CoreMetrics()

	g := &Gateway{
		cfg:    cfg,
		logger: logger.With("component", "gateway"),
	}
	g.status.Store(StatusStopped)

	store, err := pointstore.Open(cfg.Stores.SQLitePath)
	if err != nil {
		return nil, errors.WrapFatal(err, "Gateway", "NewGateway",
			fmt.Sprintf("open point store %s", cfg.Stores.SQLitePath))
	}
	g.store = store

	accessor := pointstore.NewAccessor(pointstore.AccessorDeps{
		Store:           store,
		RefreshInterval: cfg.Polling.SnapshotRefresh.Std(),
		Logger:          logger,
	})

	bus, err := g.buildBusClient(registry)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	g.bus = bus

	fieldClient := bacnetip.NewClient(bacnetip.ClientDeps{
		RequestTimeout: cfg.Polling.ReadTimeout.Std(),
		Logger:         logger,
	})
	gate := fieldbus.NewGate()

	publisher := publish.NewPublisher(publish.PublisherDeps{
		Sinks:   g.buildSinks(),
		Logger:  logger,
		Metrics: core,
	})

	pol := poller.New(poller.Deps{
		Accessor:    accessor,
		Client:      fieldClient,
		Gate:        gate,
		Publisher:   publisher,
		Tick:        cfg.Polling.Tick.Std(),
		ReadTimeout: cfg.Polling.ReadTimeout.Std(),
		Workers:     cfg.Polling.Workers,
		QueueSize:   cfg.Polling.QueueSize,
		Logger:      logger,
		Metrics:     core,
		Registry:    registry,
	})

	proc := command.NewProcessor(command.ProcessorDeps{
		Bus:          bus,
		Accessor:     accessor,
		Client:       fieldClient,
		Gate:         gate,
		QueueSize:    cfg.Command.QueueSize,
		WriteTimeout: cfg.Command.WriteTimeout.Std(),
		Logger:       logger,
		Metrics:      core,
	})

	hb := heartbeat.New(heartbeat.Deps{
		Bus:       bus,
		Accessor:  accessor,
		GatewayID: cfg.Gateway.ID,
		Site:      cfg.Gateway.Site,
		Version:   deps.Version,
		Interval:  cfg.Heartbeat.Interval.Std(),
		Logger:    logger,
	})

	// Start order is the dependency order: configuration first, then
	// the transport, then everything that publishes through it.
	g.components = []namedComponent{
		{"accessor", accessor},
		{"bus", busLifecycle{bus}},
		{"command-processor", proc},
		{"poller", pol},
		{"heartbeat", hb},
	}

	if cfg.Metrics.Enabled {
		g.metricsServer = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
	}

	return g, nil
}

// buildBusClient creates the bus transport from broker configuration.
func (g *Gateway) buildBusClient(registry *metric.MetricsRegistry) (*busclient.Client, error) {
	broker := g.cfg.Broker

	tlsConfig, err := tlsutil.Load(broker.TLS)
	if err != nil {
		return nil, errors.Wrap(err, "Gateway", "buildBusClient", "load broker TLS config")
	}

	opts := []busclient.Option{
		busclient.WithClientID(broker.ClientID),
		busclient.WithKeepAlive(broker.KeepAlive.Std()),
		busclient.WithConnectTimeout(broker.ConnectTimeout.Std()),
		busclient.WithReconnectWait(broker.ReconnectWait.Std()),
		busclient.WithStateWindow(broker.StateWindow.Std()),
		busclient.WithLogger(g.logger),
		busclient.WithMetrics(registry),
	}
	if broker.Username != "" {
		opts = append(opts, busclient.WithCredentials(broker.Username, broker.Password))
	}
	if tlsConfig != nil {
		opts = append(opts, busclient.WithTLS(tlsConfig))
	}

	bus, err := busclient.NewClient(broker.URL(), opts...)
	if err != nil {
		return nil, errors.Wrap(err, "Gateway", "buildBusClient", "create bus client")
	}
	return bus, nil
}

// buildSinks assembles the enabled publish sinks in delivery order.
func (g *Gateway) buildSinks() []publish.Sink {
	var sinks []publish.Sink
	if g.cfg.Sinks.Latest {
		sinks = append(sinks, latest.New(g.store))
	}
	if g.cfg.Sinks.Timeseries && g.cfg.Stores.PostgresDSN != "" {
		g.tsSink = timeseries.New(g.cfg.Stores.PostgresDSN, g.cfg.Stores.TimeseriesTable)
		sinks = append(sinks, g.tsSink)
	}
	if g.cfg.Sinks.Bus {
		sinks = append(sinks, bussink.New(g.bus, g.cfg.Gateway.Site, g.cfg.Gateway.UTCOffsetHours))
	}
	return sinks
}

// Initialize initializes every component in start order. The accessor
// performs its first snapshot load here and the command processor
// registers its bus subscription, so a failure surfaces before anything
// starts running.
func (g *Gateway) Initialize() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, c := range g.components {
		if err := c.Initialize(); err != nil {
			return errors.Wrap(err, "Gateway", "Initialize",
				fmt.Sprintf("initialize %s", c.name))
		}
	}
	return nil
}

// Start starts all components in dependency order and, when enabled,
// the metrics endpoint.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status.Load() == StatusRunning {
		return nil
	}
	g.status.Store(StatusStarting)

	for i, c := range g.components {
		if err := c.Start(ctx); err != nil {
			g.stopStarted(i)
			g.status.Store(StatusStopped)
			return errors.Wrap(err, "Gateway", "Start",
				fmt.Sprintf("start %s", c.name))
		}
		g.logger.Debug("component started", "name", c.name)
	}

	if g.metricsServer != nil {
		g.eg.Go(func() error {
			if err := g.metricsServer.Start(); err != nil {
				g.logger.Error("metrics server failed", "error", err)
				return err
			}
			return nil
		})
		g.logger.Info("metrics endpoint up", "address", g.metricsServer.Address())
	}

	g.status.Store(StatusRunning)
	g.startTime.Store(time.Now())
	g.logger.Info("gateway started",
		"site", g.cfg.Gateway.Site,
		"gateway_id", g.cfg.Gateway.ID,
		"broker", g.cfg.Broker.URL())
	return nil
}

// stopStarted stops components [0, n) in reverse after a partial start.
func (g *Gateway) stopStarted(n int) {
	for i := n - 1; i >= 0; i-- {
		c := g.components[i]
		if err := c.Stop(5 * time.Second); err != nil {
			g.logger.Warn("component stop during failed start", "name", c.name, "error", err)
		}
	}
}

// Stop stops all components in reverse start order, then closes the
// stores. The timeout applies per component; a slow component is
// reported but does not prevent the rest from stopping.
func (g *Gateway) Stop(timeout time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status.Load() == StatusStopped {
		return nil
	}
	g.status.Store(StatusStopping)

	var firstErr error
	for i := len(g.components) - 1; i >= 0; i-- {
		c := g.components[i]
		if err := c.Stop(timeout); err != nil {
			g.logger.Error("component stop failed", "name", c.name, "error", err)
			if firstErr == nil {
				firstErr = errors.Wrap(err, "Gateway", "Stop",
					fmt.Sprintf("stop %s", c.name))
			}
			continue
		}
		g.logger.Debug("component stopped", "name", c.name)
	}

	if g.metricsServer != nil {
		if err := g.metricsServer.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := g.eg.Wait(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if g.tsSink != nil {
		if err := g.tsSink.Close(); err != nil {
			g.logger.Warn("timeseries sink close", "error", err)
		}
	}
	if err := g.store.Close(); err != nil {
		g.logger.Warn("point store close", "error", err)
	}

	g.status.Store(StatusStopped)
	g.logger.Info("gateway stopped")
	return firstErr
}

// Status returns the current gateway status.
func (g *Gateway) Status() Status {
	return g.status.Load().(Status)
}

// Uptime returns how long the gateway has been running, zero when it
// has never started.
func (g *Gateway) Uptime() time.Duration {
	if t, ok := g.startTime.Load().(time.Time); ok {
		return time.Since(t)
	}
	return 0
}

// Bus exposes the bus transport, used by the entry point to report
// connection state.
func (g *Gateway) Bus() *busclient.Client { return g.bus }

// busLifecycle adapts the bus client to the component lifecycle. The
// client connects in the background and keeps retrying, so Start never
// blocks waiting for the broker.
type busLifecycle struct {
	client *busclient.Client
}

func (b busLifecycle) Initialize() error { return nil }

func (b busLifecycle) Start(ctx context.Context) error {
	return b.client.Connect(ctx)
}

func (b busLifecycle) Stop(timeout time.Duration) error {
	return b.client.Close(timeout)
}
