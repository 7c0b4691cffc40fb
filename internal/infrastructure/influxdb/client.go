package influxdb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/remo-bridge/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second

	fallbackBatchSize   = 100
	fallbackFlushPeriod = 10 * time.Second
)

// Client wraps an InfluxDB v2 connection and its non-blocking write API.
// Points are batched in memory and sent by the library's own goroutine, so
// callers on the poll path never wait on the network. Safe for concurrent
// use.
type Client struct {
	conn   influxdb2.Client
	writer api.WriteAPI

	open     atomic.Bool
	closing  sync.Once
	failures atomic.Uint64

	mu      sync.RWMutex
	onError func(error)
}

// Connect opens a client for cfg and verifies the server answers a ping.
// A disabled configuration yields ErrDisabled.
func Connect(cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	conn := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, clientOptions(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := ping(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c := &Client{conn: conn, writer: conn.WriteAPI(cfg.Org, cfg.Bucket)}
	c.open.Store(true)
	go c.drainErrors()
	return c, nil
}

func clientOptions(cfg config.InfluxDBConfig) *influxdb2.Options {
	batch := uint(fallbackBatchSize)
	if cfg.BatchSize > 0 {
		batch = uint(cfg.BatchSize) // #nosec G115 -- checked positive
	}
	flush := fallbackFlushPeriod
	if cfg.FlushInterval > 0 {
		flush = time.Duration(cfg.FlushInterval) * time.Second
	}
	return influxdb2.DefaultOptions().
		SetBatchSize(batch).
		SetFlushInterval(uint(flush.Milliseconds())) // #nosec G115 -- positive duration
}

func ping(ctx context.Context, conn influxdb2.Client) error {
	ok, err := conn.Ping(ctx)
	switch {
	case err != nil:
		return fmt.Errorf("ping: %w", err)
	case !ok:
		return ErrUnhealthy
	}
	return nil
}

// drainErrors forwards asynchronous batch failures to the registered
// callback. The channel closes with the client.
func (c *Client) drainErrors() {
	for err := range c.writer.Errors() {
		c.failures.Add(1)
		c.mu.RLock()
		fn := c.onError
		c.mu.RUnlock()
		if fn != nil {
			fn(err)
		}
	}
}

// SetOnError registers fn for failed background writes. Pass nil to clear.
func (c *Client) SetOnError(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = fn
}

// Failures returns how many background batches were rejected.
func (c *Client) Failures() uint64 {
	return c.failures.Load()
}

// IsConnected reports whether the client is still open.
func (c *Client) IsConnected() bool {
	return c.open.Load()
}

// HealthCheck pings the server, bounded by a short timeout.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := ping(ctx, c.conn); err != nil {
		return fmt.Errorf("influxdb health: %w", err)
	}
	return nil
}

// Flush pushes buffered points immediately. Ignored once closed.
func (c *Client) Flush() {
	if c.IsConnected() {
		c.writer.Flush()
	}
}

// Close sends whatever is buffered and releases the connection. Calling it
// more than once is harmless.
func (c *Client) Close() error {
	c.closing.Do(func() {
		c.writer.Flush()
		c.open.Store(false)
		c.conn.Close()
	})
	return nil
}
