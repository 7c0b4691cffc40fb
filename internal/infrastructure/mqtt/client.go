package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/remo-bridge/internal/infrastructure/config"
)

// Logger receives handler failures and connection loss.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// MessageHandler handles one received message. A returned error is logged.
type MessageHandler func(topic string, payload []byte) error

type subscription struct {
	qos     byte
	handler MessageHandler
}

// Client is a broker connection that announces the bridge on the system
// status topic and re-subscribes after every reconnect. Safe for
// concurrent use.
type Client struct {
	paho   pahomqtt.Client
	cfg    config.MQTTConfig
	online atomic.Bool

	mu        sync.RWMutex
	subs      map[string]subscription
	onConnect func()
	logger    Logger
}

// Connect dials the broker, waiting at most the connect timeout.
func Connect(cfg config.MQTTConfig) (*Client, error) {
	c := &Client{cfg: cfg, subs: make(map[string]subscription)}

	opts := clientOptions(cfg).
		SetOnConnectHandler(func(pahomqtt.Client) { c.connected() }).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			c.online.Store(false)
			if l := c.log(); l != nil {
				l.Warn("MQTT connection lost", "error", err)
			}
		})
	c.paho = pahomqtt.NewClient(opts)

	if err := wait(c.paho.Connect(), connectTimeout); err != nil {
		// Stops the connect retry loop.
		c.paho.Disconnect(0)
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	// OnConnect fires on paho's goroutine and may not have run yet.
	c.online.Store(true)
	return c, nil
}

// connected runs after the initial connect and every reconnect.
func (c *Client) connected() {
	c.online.Store(true)

	c.mu.RLock()
	for topic, s := range c.subs {
		c.paho.Subscribe(topic, s.qos, c.deliver(s.handler))
	}
	hook := c.onConnect
	c.mu.RUnlock()

	c.paho.Publish(Topics{}.SystemStatus(), byte(c.cfg.QoS), true,
		statusPayload(c.cfg.Broker.ClientID, statusOnline, ""))
	if hook != nil {
		hook()
	}
}

// Close announces a graceful shutdown and disconnects.
func (c *Client) Close() error {
	if c.paho == nil {
		return nil
	}
	if c.IsConnected() {
		t := c.paho.Publish(Topics{}.SystemStatus(), byte(c.cfg.QoS), true,
			statusPayload(c.cfg.Broker.ClientID, statusOffline, "graceful_shutdown"))
		t.WaitTimeout(ackTimeout)
	}
	c.online.Store(false)
	c.paho.Disconnect(quiesceMillis)
	return nil
}

// HealthCheck fails when the broker link is down.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected reports whether the broker link is up right now.
func (c *Client) IsConnected() bool {
	return c.paho != nil && c.online.Load() && c.paho.IsConnected()
}

// SetOnConnect installs fn to run after every (re)connect.
func (c *Client) SetOnConnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnect = fn
}

func (c *Client) SetLogger(l Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = l
}

func (c *Client) log() Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger
}

// deliver adapts h to paho. Handler errors and panics are logged and never
// reach paho's router.
func (c *Client) deliver(h MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		topic := msg.Topic()
		defer func() {
			if r := recover(); r != nil {
				if l := c.log(); l != nil {
					l.Error("MQTT handler panic recovered", "topic", topic, "panic", r)
				}
			}
		}()
		err := h(topic, msg.Payload())
		if l := c.log(); err != nil && l != nil {
			l.Warn("MQTT handler returned error", "topic", topic, "error", err)
		}
	}
}

// wait blocks on t for at most d and returns its outcome.
func wait(t pahomqtt.Token, d time.Duration) error {
	if !t.WaitTimeout(d) {
		return fmt.Errorf("no acknowledgement after %v", d)
	}
	return t.Error()
}
