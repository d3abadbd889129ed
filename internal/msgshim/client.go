// Package msgshim translates legacy message-queue calls into broker exchanges.
//
// Every key maps to the one queue the broker owns, so Get hands out a fixed id
// without contacting the broker. Send and Receive each open a fresh connection,
// exchange exactly one request (and, for Receive, one reply) and close it.
//
// Receive does not honor the legacy type selector: it always returns the
// oldest message regardless of its type.
package msgshim

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/shared/ipcerr"
)

// QueueID is returned by Get for every key.
const QueueID = 0

const defaultDialTimeout = 5 * time.Second

// Client talks to the broker at one socket path. It is safe for concurrent use.
type Client struct {
	socketPath string
	dialer     net.Dialer
	breaker    *resilience.Breaker
	logger     *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithDialTimeout bounds connection setup. Reads are never bounded by it.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.dialer.Timeout = d
		}
	}
}

// WithBreaker replaces the default dial circuit breaker.
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

// WithLogger sets the client logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for the broker listening on socketPath.
func NewClient(socketPath string, opts ...Option) *Client {
	c := &Client{
		socketPath: socketPath,
		dialer:     net.Dialer{Timeout: defaultDialTimeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = resilience.New("broker", resilience.Settings{
			Threshold: 5,
			Cooldown:  time.Second,
			OnStateChange: func(name string, from, to resilience.State) {
				c.logger.Warn("Broker circuit state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}
	return c
}

// SocketPath returns the broker endpoint.
func (c *Client) SocketPath() string {
	return c.socketPath
}

// Get returns the id of the shared queue. key and flags are not examined.
func (c *Client) Get(key, flags int) (int, error) {
	return QueueID, nil
}

// Send queues payload with msgType and returns once the broker confirms the
// message is queued, so sequential sends from one caller keep their order.
// Payloads longer than protocol.PayloadSize are rejected before anything is
// written; shorter ones are zero-padded.
func (c *Client) Send(ctx context.Context, id int, msgType int64, payload []byte, flags int) error {
	m, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		return fmt.Errorf("send: %w: %w", ipcerr.ErrInvalidArgument, err)
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	defer watch(ctx, conn)()

	if err := protocol.WriteSend(conn, m); err != nil {
		return ipcerr.IO("send", err)
	}
	// blocks while the queue is full
	if err := protocol.ReadAck(conn); err != nil {
		return ipcerr.IO("send", err)
	}
	c.logger.Debug("Message sent", zap.Int64("type", msgType), zap.Int("size", len(payload)))
	return nil
}

// Receive takes the oldest message from the broker, blocking until one is
// available, and copies up to len(buf) payload bytes into buf. It returns the
// number of bytes copied and the message type.
func (c *Client) Receive(ctx context.Context, id int, buf []byte, msgType int64, flags int) (int, int64, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer conn.Close()
	defer watch(ctx, conn)()

	if err := protocol.WriteRecv(conn); err != nil {
		return 0, 0, ipcerr.IO("receive", err)
	}
	m, err := protocol.ReadMessage(conn)
	if err != nil {
		return 0, 0, ipcerr.IO("receive", err)
	}

	n := copy(buf, m.Text[:])
	c.logger.Debug("Message received", zap.Int64("type", m.Type), zap.Int("copied", n))
	return n, m.Type, nil
}

// Control accepts every command and does nothing.
func (c *Client) Control(id, cmd int) error {
	return nil
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	var conn net.Conn
	err := c.breaker.Do(func() error {
		var err error
		conn, err = c.dialer.DialContext(ctx, "unix", c.socketPath)
		return err
	})
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Debug("Broker dial skipped, circuit open", zap.String("socket", c.socketPath))
		}
		return nil, ipcerr.IO("connect "+c.socketPath, err)
	}
	return conn, nil
}

// watch unblocks pending I/O on conn once ctx is done. The returned func
// stops watching.
func watch(ctx context.Context, conn net.Conn) func() {
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	return func() { stop() }
}
