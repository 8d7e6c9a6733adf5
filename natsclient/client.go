// Package natsclient manages the NATS connection used by the termgraph
// query service. It wraps connection lifecycle, reconnect behavior, and
// queue subscription for request/reply handling.
package natsclient

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
)

// ConnectionStatus describes the client's connection state.
type ConnectionStatus int

const (
	// StatusDisconnected means no connection is established.
	StatusDisconnected ConnectionStatus = iota
	// StatusConnected means the connection is healthy.
	StatusConnected
	// StatusReconnecting means the client is retrying after a drop.
	StatusReconnecting
)

// String returns the string representation of ConnectionStatus.
func (s ConnectionStatus) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// Client is a managed NATS connection.
type Client struct {
	url           string
	name          string
	maxReconnects int
	reconnectWait time.Duration
	timeout       time.Duration

	conn   *nats.Conn
	status atomic.Int32
	logger *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithName sets the connection name reported to the server.
func WithName(name string) ClientOption {
	return func(c *Client) { c.name = name }
}

// WithMaxReconnects sets the reconnect attempt cap. Negative means retry
// forever.
func WithMaxReconnects(n int) ClientOption {
	return func(c *Client) { c.maxReconnects = n }
}

// WithReconnectWait sets the delay between reconnect attempts.
func WithReconnectWait(d time.Duration) ClientOption {
	return func(c *Client) { c.reconnectWait = d }
}

// WithTimeout sets the connect timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates an unconnected client for the given server URL.
func NewClient(url string, opts ...ClientOption) (*Client, error) {
	if url == "" {
		return nil, fmt.Errorf("nats url must not be empty")
	}
	c := &Client{
		url:           url,
		name:          "termgraph",
		maxReconnects: -1,
		reconnectWait: 2 * time.Second,
		timeout:       5 * time.Second,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URL returns the configured server URL.
func (c *Client) URL() string {
	return c.url
}

// Status returns the current connection status.
func (c *Client) Status() ConnectionStatus {
	return ConnectionStatus(c.status.Load())
}

// IsHealthy reports whether the connection is up.
func (c *Client) IsHealthy() bool {
	return c.Status() == StatusConnected && c.conn != nil && c.conn.IsConnected()
}

// Conn returns the underlying NATS connection, or nil before Connect.
func (c *Client) Conn() *nats.Conn {
	return c.conn
}

// Connect establishes the connection, honoring ctx for the initial dial.
func (c *Client) Connect(ctx context.Context) error {
	opts := []nats.Option{
		nats.Name(c.name),
		nats.MaxReconnects(c.maxReconnects),
		nats.ReconnectWait(c.reconnectWait),
		nats.Timeout(c.timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			c.status.Store(int32(StatusReconnecting))
			c.logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			c.status.Store(int32(StatusConnected))
			c.logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			c.status.Store(int32(StatusDisconnected))
			c.logger.Info("nats connection closed")
		}),
	}

	type dialResult struct {
		conn *nats.Conn
		err  error
	}
	result := make(chan dialResult, 1)
	go func() {
		conn, err := nats.Connect(c.url, opts...)
		result <- dialResult{conn: conn, err: err}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case r := <-result:
		if r.err != nil {
			return fmt.Errorf("connecting to %s: %w", c.url, r.err)
		}
		c.conn = r.conn
		c.status.Store(int32(StatusConnected))
		c.logger.Info("nats connected", "url", c.conn.ConnectedUrl())
		return nil
	}
}

// QueueSubscribe registers a request handler on a subject within a queue
// group, so multiple service instances share the load.
func (c *Client) QueueSubscribe(subject, queue string, handler nats.MsgHandler) (*nats.Subscription, error) {
	if c.conn == nil {
		return nil, fmt.Errorf("not connected")
	}
	sub, err := c.conn.QueueSubscribe(subject, queue, handler)
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", subject, err)
	}
	return sub, nil
}

// Close drains in-flight messages and closes the connection.
func (c *Client) Close(ctx context.Context) error {
	if c.conn == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- c.conn.Drain() }()

	select {
	case <-ctx.Done():
		c.conn.Close()
		return ctx.Err()
	case err := <-done:
		c.status.Store(int32(StatusDisconnected))
		return err
	}
}
