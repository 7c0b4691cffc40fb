package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket message types.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"
)

const (
	wsQueueSize      = 64
	wsMaxMessageSize = 4096
	wsPingEvery      = 30 * time.Second
	wsWriteWait      = 10 * time.Second
	// wsReadWait allows one missed ping before the reader gives up.
	wsReadWait = wsPingEvery + wsWriteWait
)

// WSMessage is a message sent to or from a WebSocket client.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// WSSubscribePayload is the payload of subscribe and unsubscribe messages.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

// WSClient is one connected WebSocket client. Outgoing frames go through a
// bounded queue drained by a single writer goroutine; a slow client loses
// frames rather than stalling broadcasts.
type WSClient struct {
	hub  *Hub
	conn *websocket.Conn

	mu       sync.Mutex
	queue    chan []byte
	channels map[string]struct{}
	done     bool
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers on the LAN load the page from elsewhere; there is no
	// cookie-based session to protect.
	CheckOrigin: func(*http.Request) bool { return true },
}

func newWSClient(hub *Hub, conn *websocket.Conn) *WSClient {
	return &WSClient{
		hub:      hub,
		conn:     conn,
		queue:    make(chan []byte, wsQueueSize),
		channels: make(map[string]struct{}),
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := newWSClient(s.hub, conn)
	if !s.hub.Register(c) {
		conn.Close()
		return
	}
	go c.writeLoop()
	go c.readLoop()
}

// enqueue queues data unless the client is gone or its queue is full.
func (c *WSClient) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return false
	}
	select {
	case c.queue <- data:
		return true
	default:
		return false
	}
}

// shutdown closes the queue once; the writer then sends a close frame.
func (c *WSClient) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.done {
		c.done = true
		close(c.queue)
	}
}

func (c *WSClient) subscribed(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.channels[channel]
	return ok
}

func (c *WSClient) readLoop() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(wsMaxMessageSize)
	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(wsReadWait)) }
	//nolint:errcheck // Deadline errors surface on the next read
	extend()
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		//nolint:errcheck // Deadline errors surface on the next read
		extend()
		c.dispatch(data)
	}
}

func (c *WSClient) writeLoop() {
	ping := time.NewTicker(wsPingEvery)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	write := func(kind int, data []byte) error {
		//nolint:errcheck // A missed deadline fails the write below
		c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return c.conn.WriteMessage(kind, data)
	}

	for {
		select {
		case data, ok := <-c.queue:
			if !ok {
				//nolint:errcheck // Connection is closing anyway
				write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := write(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ping.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) dispatch(data []byte) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.reply("", WSTypeError, errorBody("invalid JSON message"))
		return
	}

	switch msg.Type {
	case WSTypeSubscribe:
		c.subscribe(msg)
	case WSTypeUnsubscribe:
		c.unsubscribe(msg)
	case WSTypePing:
		c.reply(msg.ID, WSTypePong, nil)
	default:
		c.reply(msg.ID, WSTypeError, errorBody("unknown message type: "+msg.Type))
	}
}

// subscribe acknowledges the request, then sends the current snapshot of
// each newly subscribed channel.
func (c *WSClient) subscribe(msg WSMessage) {
	names, err := channelList(msg.Payload)
	if err != nil {
		c.reply(msg.ID, WSTypeError, errorBody(err.Error()))
		return
	}

	c.mu.Lock()
	for _, name := range names {
		c.channels[name] = struct{}{}
	}
	c.mu.Unlock()

	c.reply(msg.ID, WSTypeResponse, map[string]any{"subscribed": names})
	for _, name := range names {
		if data, ok := c.hub.current(name); ok {
			c.enqueue(data)
		}
	}
}

func (c *WSClient) unsubscribe(msg WSMessage) {
	names, err := channelList(msg.Payload)
	if err != nil {
		c.reply(msg.ID, WSTypeError, errorBody(err.Error()))
		return
	}

	c.mu.Lock()
	for _, name := range names {
		delete(c.channels, name)
	}
	c.mu.Unlock()

	c.reply(msg.ID, WSTypeResponse, map[string]any{"unsubscribed": names})
}

func (c *WSClient) reply(id, msgType string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:      msgType,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		return
	}
	c.enqueue(data)
}

// channelList decodes a subscribe payload and rejects unknown channels.
func channelList(payload any) ([]string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid payload")
	}
	var sub WSSubscribePayload
	if err := json.Unmarshal(raw, &sub); err != nil || len(sub.Channels) == 0 {
		return nil, fmt.Errorf("payload must list channels")
	}
	for _, name := range sub.Channels {
		if !knownChannel(name) {
			return nil, fmt.Errorf("unknown channel: %s", name)
		}
	}
	return sub.Channels, nil
}

func errorBody(message string) map[string]string {
	return map[string]string{"message": message}
}
