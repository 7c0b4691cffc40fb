package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/remo-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/remo-bridge/internal/remo"
)

func dialWS(t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()
	url := "ws://" + strings.TrimPrefix(env.base, "http://") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	//nolint:errcheck // test deadline
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func subscribe(t *testing.T, conn *websocket.Conn, channels ...string) {
	t.Helper()
	err := conn.WriteJSON(WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "sub-1",
		Payload: WSSubscribePayload{Channels: channels},
	})
	if err != nil {
		t.Fatalf("write subscribe: %v", err)
	}
	if msg := readWS(t, conn); msg.Type != WSTypeResponse || msg.ID != "sub-1" {
		t.Fatalf("subscribe ack = %+v", msg)
	}
}

func devicesPayload(t *testing.T, msg WSMessage) []remo.Device {
	t.Helper()
	raw, err := json.Marshal(msg.Payload)
	if err != nil {
		t.Fatal(err)
	}
	var devices []remo.Device
	if err := json.Unmarshal(raw, &devices); err != nil {
		t.Fatalf("payload is not a device list: %v", err)
	}
	return devices
}

func TestWebSocket_SubscribeReplaysSnapshot(t *testing.T) {
	env := testServer(t, nil, nil)
	env.poller.Refresh(t.Context())
	conn := dialWS(t, env)

	subscribe(t, conn, ChannelDevices)

	msg := readWS(t, conn)
	if msg.Type != WSTypeEvent || msg.EventType != ChannelDevices {
		t.Fatalf("replay = %+v", msg)
	}
	if got := len(devicesPayload(t, msg)); got != 2 {
		t.Errorf("replayed %d devices, want 2", got)
	}
}

func TestWebSocket_BroadcastsNewSnapshots(t *testing.T) {
	env := testServer(t, nil, nil)
	conn := dialWS(t, env)

	// Nothing polled yet, so there is no replay.
	subscribe(t, conn, ChannelDevices)

	env.fixture.SetDevices(env.fixture.ListDevices(t.Context())[:1])
	env.poller.RefreshDevices(t.Context())

	msg := readWS(t, conn)
	if msg.EventType != ChannelDevices {
		t.Fatalf("event = %+v", msg)
	}
	if got := len(devicesPayload(t, msg)); got != 1 {
		t.Errorf("broadcast %d devices, want 1", got)
	}
}

func TestWebSocket_UnsubscribedChannelNotSent(t *testing.T) {
	env := testServer(t, nil, nil)
	conn := dialWS(t, env)

	subscribe(t, conn, ChannelAppliances)
	env.poller.RefreshDevices(t.Context())
	env.poller.RefreshAppliances(t.Context())

	// Aircons and IRs each trigger an appliances event; devices never do.
	for range 2 {
		if msg := readWS(t, conn); msg.EventType != ChannelAppliances {
			t.Fatalf("event_type = %q, want %q", msg.EventType, ChannelAppliances)
		}
	}
}

func TestWebSocket_PingAndUnknownType(t *testing.T) {
	env := testServer(t, nil, nil)
	conn := dialWS(t, env)

	if err := conn.WriteJSON(WSMessage{Type: WSTypePing, ID: "p1"}); err != nil {
		t.Fatal(err)
	}
	if msg := readWS(t, conn); msg.Type != WSTypePong || msg.ID != "p1" {
		t.Errorf("ping reply = %+v", msg)
	}

	if err := conn.WriteJSON(WSMessage{Type: "bogus", ID: "b1"}); err != nil {
		t.Fatal(err)
	}
	if msg := readWS(t, conn); msg.Type != WSTypeError || msg.ID != "b1" {
		t.Errorf("unknown type reply = %+v", msg)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	if msg := readWS(t, conn); msg.Type != WSTypeError {
		t.Errorf("invalid JSON reply = %+v", msg)
	}
}

func TestWebSocket_UnknownChannelRejected(t *testing.T) {
	env := testServer(t, nil, nil)
	conn := dialWS(t, env)

	err := conn.WriteJSON(WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "sub-x",
		Payload: WSSubscribePayload{Channels: []string{"device.state_changed"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if msg := readWS(t, conn); msg.Type != WSTypeError || msg.ID != "sub-x" {
		t.Errorf("reply = %+v, want error", msg)
	}
}

func TestHub_UnregisterTwice(t *testing.T) {
	hub := NewHub(logging.Discard(), nil)
	c := newWSClient(hub, nil)

	if !hub.Register(c) {
		t.Fatal("Register() = false on a running hub")
	}
	if hub.ClientCount() != 1 {
		t.Fatalf("ClientCount = %d, want 1", hub.ClientCount())
	}
	hub.Unregister(c)
	hub.Unregister(c)
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", hub.ClientCount())
	}

	// A broadcast racing with disconnect is dropped.
	if c.enqueue([]byte("late")) {
		t.Error("enqueue() after Unregister = true")
	}
}

func TestHub_RegisterAfterShutdown(t *testing.T) {
	hub := NewHub(logging.Discard(), nil)
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	if hub.Register(newWSClient(hub, nil)) {
		t.Error("Register() after shutdown = true")
	}
}

func TestHub_SlowClientDropsFrames(t *testing.T) {
	hub := NewHub(logging.Discard(), nil)
	c := newWSClient(hub, nil)
	hub.Register(c)
	c.channels[ChannelDevices] = struct{}{}

	for range wsQueueSize + 5 {
		hub.Broadcast(ChannelDevices, []remo.Device{})
	}
	if got := len(c.queue); got != wsQueueSize {
		t.Errorf("queued %d frames, want %d", got, wsQueueSize)
	}
}
