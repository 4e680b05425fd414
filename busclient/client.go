package busclient

import (
	"context"
	"crypto/tls"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/c360/fieldbridge/errors"
	"github.com/c360/fieldbridge/metric"
	"github.com/c360/fieldbridge/pkg/retry"
)

// ErrNotConnected is returned by Publish before the first successful
// broker connection.
var ErrNotConnected = stderrors.New("not connected to broker")

// Handler receives one delivery from a subscribed topic. Handlers run
// on the subscription's own dispatch goroutine, never on the transport
// callback, so a slow handler cannot stall the MQTT client.
type Handler func(topic string, payload []byte)

type delivery struct {
	topic   string
	payload []byte
}

type subscription struct {
	topic   string
	qos     byte
	handler Handler
	queue   chan delivery
	dropped atomic.Int64
}

// Client manages the MQTT broker connection. Connection state exposed
// through State() is derived from observed data flow within a trailing
// window; transport-level connect and connection-lost callbacks only
// log and count.
type Client struct {
	brokerURL string
	clientID  string
	username  string
	password  string
	tlsConfig *tls.Config

	keepAlive      time.Duration
	connectTimeout time.Duration
	reconnectWait  time.Duration
	stateWindow    time.Duration
	queueSize      int

	logger  *slog.Logger
	metrics *metric.Metrics
	tracker *flowTracker

	mu         sync.RWMutex
	paho       mqtt.Client
	subs       map[string]*subscription
	loopCancel context.CancelFunc
	baseCtx    context.Context

	// dispatch goroutines live for the client lifetime, independent of
	// the connection loop
	dispatchCtx    context.Context
	dispatchCancel context.CancelFunc

	everConnected atomic.Bool
	running       atomic.Bool
	closed        atomic.Bool
	wg            sync.WaitGroup
}

// NewClient creates a bus client for the given broker URL
// (tcp://host:port or ssl://host:port).
func NewClient(brokerURL string, opts ...Option) (*Client, error) {
	if brokerURL == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("broker URL is required"),
			"BusClient", "NewClient", "validate broker URL")
	}

	c := &Client{
		brokerURL:      brokerURL,
		clientID:       "fieldbridge",
		keepAlive:      30 * time.Second,
		connectTimeout: 10 * time.Second,
		reconnectWait:  5 * time.Second,
		stateWindow:    DefaultStateWindow,
		queueSize:      256,
		logger:         slog.Default(),
		subs:           make(map[string]*subscription),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, errors.WrapInvalid(err, "BusClient", "NewClient", "apply option")
		}
	}

	c.logger = c.logger.With("component", "bus-client")
	c.tracker = newFlowTracker(c.stateWindow)
	c.dispatchCtx, c.dispatchCancel = context.WithCancel(context.Background())

	return c, nil
}

// Connect launches the connection loop. Attempts repeat on a fixed wait
// until the broker accepts or ctx is cancelled; the loop never gives up
// on its own, so a broker outage at process start is survivable.
func (c *Client) Connect(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.baseCtx = ctx
	c.loopCancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.connectLoop(loopCtx)
	return nil
}

func (c *Client) connectLoop(ctx context.Context) {
	defer c.wg.Done()

	err := retry.Do(ctx, retry.Forever(c.reconnectWait), func() error {
		return c.tryConnect(ctx)
	})
	if err != nil && ctx.Err() == nil {
		c.logger.Error("connection loop exited", "error", err)
	}
}

func (c *Client) tryConnect(ctx context.Context) error {
	c.mu.RLock()
	url := c.brokerURL
	c.mu.RUnlock()

	client := mqtt.NewClient(c.buildOptions())

	token := client.Connect()
	if err := waitToken(ctx, token, c.connectTimeout); err != nil {
		client.Disconnect(0)
		c.logger.Warn("broker connection attempt failed",
			"broker", url,
			"error", err)
		return err
	}

	if err := c.installSession(ctx, client); err != nil {
		return err
	}

	c.logger.Info("connected to broker", "broker", url)
	return nil
}

// installSession makes a freshly connected session the active one.
// Reconfigure and Close cancel the loop context while holding the lock,
// so a connect attempt that was superseded mid-flight is detected here
// and its session discarded instead of resurrecting the old broker.
func (c *Client) installSession(ctx context.Context, client mqtt.Client) error {
	c.mu.Lock()
	if ctx.Err() != nil {
		c.mu.Unlock()
		client.Disconnect(0)
		return ctx.Err()
	}
	c.paho = client
	c.mu.Unlock()
	return nil
}

func (c *Client) buildOptions() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions().
		AddBroker(c.brokerURL).
		SetClientID(c.clientID).
		SetKeepAlive(c.keepAlive).
		SetConnectTimeout(c.connectTimeout).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(c.reconnectWait).
		// persistent session: the broker holds QoS 1 deliveries for this
		// client id across disconnects and replays them on reconnect
		SetCleanSession(false).
		SetOrderMatters(false).
		SetOnConnectHandler(c.handleConnect).
		SetConnectionLostHandler(c.handleConnectionLost)

	if c.username != "" {
		opts.SetUsername(c.username)
		opts.SetPassword(c.password)
	}
	if c.tlsConfig != nil {
		opts.SetTLSConfig(c.tlsConfig)
	}
	return opts
}

// handleConnect re-establishes subscriptions after every (re)connect.
// It contributes logging and counters only; State() stays driven by
// data flow.
func (c *Client) handleConnect(client mqtt.Client) {
	if c.everConnected.Swap(true) {
		c.logger.Info("reconnected to broker")
		if c.metrics != nil {
			c.metrics.RecordBusReconnect()
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, sub := range c.subs {
		c.subscribeOn(client, sub)
	}
}

func (c *Client) handleConnectionLost(_ mqtt.Client, err error) {
	c.logger.Warn("broker connection lost", "error", err)
}

// Subscribe registers a handler for a topic. Deliveries are routed onto
// the subscription's bounded queue and drained by a dedicated
// goroutine; when the queue is full the delivery is dropped and counted.
// Subscriptions registered before the first connect are established as
// soon as the broker accepts.
func (c *Client) Subscribe(topic string, qos byte, handler Handler) error {
	if handler == nil {
		return errors.WrapInvalid(
			fmt.Errorf("handler is required"),
			"BusClient", "Subscribe", "validate handler")
	}
	if c.closed.Load() {
		return errors.WrapInvalid(
			fmt.Errorf("client is closed"),
			"BusClient", "Subscribe", "check client state")
	}

	sub := &subscription{
		topic:   topic,
		qos:     qos,
		handler: handler,
		queue:   make(chan delivery, c.queueSize),
	}

	c.mu.Lock()
	if _, exists := c.subs[topic]; exists {
		c.mu.Unlock()
		return errors.WrapInvalid(
			fmt.Errorf("already subscribed to %s", topic),
			"BusClient", "Subscribe", "register subscription")
	}
	c.subs[topic] = sub
	client := c.paho
	c.mu.Unlock()

	c.wg.Add(1)
	go c.dispatch(c.dispatchCtx, sub)

	if client != nil && client.IsConnected() {
		c.subscribeOn(client, sub)
	}
	return nil
}

// subscribeOn attaches the paho-level handler, which marks data flow
// and enqueues without blocking.
func (c *Client) subscribeOn(client mqtt.Client, sub *subscription) {
	token := client.Subscribe(sub.topic, sub.qos, func(_ mqtt.Client, msg mqtt.Message) {
		c.tracker.markFlow()

		payload := append([]byte(nil), msg.Payload()...)
		select {
		case sub.queue <- delivery{topic: msg.Topic(), payload: payload}:
		default:
			dropped := sub.dropped.Add(1)
			c.logger.Warn("subscriber queue full, dropping delivery",
				"topic", sub.topic,
				"dropped_total", dropped)
		}
	})

	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			c.logger.Error("subscribe failed", "topic", sub.topic, "error", err)
		}
	}()
}

func (c *Client) dispatch(ctx context.Context, sub *subscription) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-sub.queue:
			sub.handler(d.topic, d.payload)
		}
	}
}

// Publish sends one message and waits for broker acknowledgement
// appropriate to the QoS level. A successful publish counts as data
// flow for the connection state.
func (c *Client) Publish(ctx context.Context, topic string, qos byte, payload []byte) error {
	c.mu.RLock()
	client := c.paho
	c.mu.RUnlock()

	if client == nil {
		return errors.NewTransportError(ErrNotConnected)
	}

	token := client.Publish(topic, qos, false, payload)
	if err := waitToken(ctx, token, c.connectTimeout); err != nil {
		return errors.NewTransportError(
			fmt.Errorf("publish to %s: %w", topic, err))
	}

	c.tracker.markFlow()
	return nil
}

// State reports the data-flow-derived connection state.
func (c *Client) State() ConnState {
	state := c.tracker.state()
	if c.metrics != nil {
		c.metrics.RecordBusConnectionState(int(state))
	}
	return state
}

// Dropped returns the total deliveries dropped for a topic's queue.
func (c *Client) Dropped(topic string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if sub, ok := c.subs[topic]; ok {
		return sub.dropped.Load()
	}
	return 0
}

// Reconfigure applies new broker settings, drops the current
// connection and starts a fresh connection loop. The state window
// restarts, so State() reads Connecting until data flows through the
// new connection. Registered subscriptions carry over.
func (c *Client) Reconfigure(brokerURL string, opts ...Option) error {
	if brokerURL == "" {
		return errors.WrapInvalid(
			fmt.Errorf("broker URL is required"),
			"BusClient", "Reconfigure", "validate broker URL")
	}
	if c.closed.Load() {
		return errors.WrapInvalid(
			fmt.Errorf("client is closed"),
			"BusClient", "Reconfigure", "check client state")
	}

	c.mu.Lock()
	c.brokerURL = brokerURL
	for _, opt := range opts {
		if err := opt(c); err != nil {
			c.mu.Unlock()
			return errors.WrapInvalid(err, "BusClient", "Reconfigure", "apply option")
		}
	}

	old := c.paho
	c.paho = nil

	if c.loopCancel != nil {
		c.loopCancel()
	}

	var loopCtx context.Context
	if c.running.Load() && c.baseCtx != nil {
		loopCtx, c.loopCancel = context.WithCancel(c.baseCtx)
	}
	c.mu.Unlock()

	if old != nil {
		old.Disconnect(250)
	}

	c.tracker.reset()
	c.logger.Info("broker reconfigured", "broker", brokerURL)

	if loopCtx != nil {
		c.wg.Add(1)
		go c.connectLoop(loopCtx)
	}
	return nil
}

// Close stops the connection loop, disconnects from the broker and
// waits up to timeout for dispatch goroutines to drain.
func (c *Client) Close(timeout time.Duration) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.mu.Lock()
	if c.loopCancel != nil {
		c.loopCancel()
	}
	client := c.paho
	c.paho = nil
	c.mu.Unlock()

	c.dispatchCancel()

	if client != nil {
		client.Disconnect(uint(timeout.Milliseconds()))
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.WrapTransient(
			fmt.Errorf("dispatchers still running after %v", timeout),
			"BusClient", "Close", "wait for shutdown")
	}
}

// waitToken waits for a paho token, bounded by both the context and a
// fallback timeout.
func waitToken(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("timeout after %v", timeout)
	}
}
