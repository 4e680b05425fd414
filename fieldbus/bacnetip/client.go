package bacnetip

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/c360/fieldbridge/errors"
	"github.com/c360/fieldbridge/fieldbus"
	"github.com/c360/fieldbridge/pointstore"
)

// DefaultPort is the well-known BACnet/IP UDP port.
const DefaultPort = 47808

const defaultRequestTimeout = 3 * time.Second

// Client speaks BACnet/IP over UDP. Each request opens an ephemeral
// socket to the target device; callers serialize per-device access
// through a fieldbus.Gate, so a request never races another on the
// same device.
type Client struct {
	timeout  time.Duration
	logger   *slog.Logger
	invokeID atomic.Uint32
}

// ClientDeps holds the dependencies for creating a Client.
type ClientDeps struct {
	// RequestTimeout bounds one request/response exchange when the
	// caller's context carries no earlier deadline. Defaults to 3s.
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// NewClient creates a BACnet/IP client.
func NewClient(deps ClientDeps) *Client {
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		timeout: timeout,
		logger:  logger.With("component", "bacnet-client"),
	}
}

var _ fieldbus.Client = (*Client)(nil)

// ReadPresentValue reads the presentValue property of one object and
// converts it to float64 regardless of its application encoding.
func (c *Client) ReadPresentValue(ctx context.Context, dev *pointstore.Device, obj pointstore.ObjectRef) (float64, error) {
	typeID, err := objectTypeID(obj.Type)
	if err != nil {
		return 0, errors.NewProtocolError("read", dev.ID, err)
	}

	invokeID := c.nextInvokeID()
	request := encodeReadProperty(invokeID, typeID, obj.Instance)

	resp, err := c.exchange(ctx, dev, invokeID, request)
	if err != nil {
		return 0, errors.NewProtocolError("read", dev.ID, err)
	}
	if !resp.hasValue {
		return 0, errors.NewProtocolError("read", dev.ID,
			fmt.Errorf("device acknowledged without a value"))
	}
	return resp.value, nil
}

// WritePresentValue writes the presentValue property of one object at
// the given priority. With release set the value is ignored and a NULL
// is written, relinquishing the slot in the device's priority array.
func (c *Client) WritePresentValue(ctx context.Context, dev *pointstore.Device, obj pointstore.ObjectRef, value float64, priority int, release bool) error {
	typeID, err := objectTypeID(obj.Type)
	if err != nil {
		return errors.NewProtocolError("write", dev.ID, err)
	}

	invokeID := c.nextInvokeID()
	request := encodeWriteProperty(invokeID, typeID, obj.Instance, value, priority, release)

	if _, err := c.exchange(ctx, dev, invokeID, request); err != nil {
		return errors.NewProtocolError("write", dev.ID, err)
	}
	return nil
}

// Close releases client resources. The client holds no persistent
// sockets, so this is a no-op kept for the fieldbus.Client contract.
func (c *Client) Close() error {
	return nil
}

// exchange sends one request frame and waits for the matching reply.
// Frames with a stale invoke ID are discarded and the read continues
// until the deadline.
func (c *Client) exchange(ctx context.Context, dev *pointstore.Device, invokeID byte, request []byte) (*response, error) {
	port := dev.Port
	if port <= 0 {
		port = DefaultPort
	}
	addr := net.JoinHostPort(dev.Address, fmt.Sprintf("%d", port))

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	dialer := net.Dialer{Deadline: deadline}
	conn, err := dialer.DialContext(ctx, "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	if _, err := conn.Write(request); err != nil {
		return nil, fmt.Errorf("send to %s: %w", addr, err)
	}

	buf := make([]byte, 1500)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := conn.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("receive from %s: %w", addr, err)
		}

		resp, err := decodeResponse(buf[:n])
		if err != nil {
			return nil, err
		}
		if resp.invokeID != invokeID {
			c.logger.Debug("discarding stale reply",
				"device", dev.ID,
				"expected_invoke_id", invokeID,
				"got_invoke_id", resp.invokeID)
			continue
		}
		return resp, nil
	}
}

func (c *Client) nextInvokeID() byte {
	return byte(c.invokeID.Add(1))
}
