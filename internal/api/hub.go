package api

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"
)

// Channels a client can subscribe to. Each event carries the whole
// snapshot.
const (
	ChannelDevices    = "snapshot.devices"
	ChannelAppliances = "snapshot.appliances"
)

var channels = []string{ChannelDevices, ChannelAppliances}

// Hub tracks WebSocket clients and fans snapshot events out to them.
type Hub struct {
	logger Logger
	// replay returns the current payload of a channel, if there is one.
	replay func(channel string) (any, bool)

	mu      sync.Mutex
	clients map[*WSClient]struct{}
	closed  bool
}

// NewHub creates a hub. replay is consulted when a client subscribes so it
// starts from the current snapshot instead of waiting for the next poll.
func NewHub(logger Logger, replay func(channel string) (any, bool)) *Hub {
	return &Hub{
		logger:  logger,
		replay:  replay,
		clients: make(map[*WSClient]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[*WSClient]struct{})
	h.mu.Unlock()

	wsClients.Sub(float64(len(clients)))
	for c := range clients {
		c.shutdown()
	}
}

// Register adds a client. It reports false once the hub has shut down.
func (h *Hub) Register(c *WSClient) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	wsClients.Inc()

	h.logger.Debug("websocket client connected", "clients", n)
	return true
}

// Unregister removes a client and stops its writer. Safe to call more
// than once.
func (h *Hub) Unregister(c *WSClient) {
	h.mu.Lock()
	_, present := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if present {
		wsClients.Dec()
	}
	c.shutdown()
	h.logger.Debug("websocket client disconnected", "clients", n)
}

// Broadcast sends payload to every client subscribed to channel.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := encodeEvent(channel, payload)
	if err != nil {
		h.logger.Error("encoding broadcast failed", "channel", channel, "error", err)
		return
	}

	h.mu.Lock()
	targets := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	sent := 0
	for _, c := range targets {
		if c.subscribed(channel) && c.enqueue(data) {
			sent++
		}
	}
	if sent > 0 {
		h.logger.Debug("snapshot broadcast", "channel", channel, "recipients", sent)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// current returns the replay event for channel.
func (h *Hub) current(channel string) ([]byte, bool) {
	if h.replay == nil {
		return nil, false
	}
	payload, ok := h.replay(channel)
	if !ok {
		return nil, false
	}
	data, err := encodeEvent(channel, payload)
	if err != nil {
		h.logger.Error("encoding replay failed", "channel", channel, "error", err)
		return nil, false
	}
	return data, true
}

func knownChannel(name string) bool {
	return slices.Contains(channels, name)
}

func encodeEvent(channel string, payload any) ([]byte, error) {
	return json.Marshal(WSMessage{
		Type:      WSTypeEvent,
		EventType: channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
}
