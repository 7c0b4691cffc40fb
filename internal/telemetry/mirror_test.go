package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/remo-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/remo-bridge/internal/poller"
	"github.com/nerrad567/remo-bridge/internal/remo"
)

type published struct {
	topic   string
	payload []byte
}

type mockPublisher struct {
	mu      sync.Mutex
	calls   []published
	failing bool
}

func (p *mockPublisher) PublishRetained(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failing {
		return mqtt.ErrNotConnected
	}
	p.calls = append(p.calls, published{topic, payload})
	return nil
}

func (p *mockPublisher) published() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.calls...)
}

type mockSubscriber struct {
	topic   string
	handler mqtt.MessageHandler
	err     error
}

func (s *mockSubscriber) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	s.topic, s.handler = topic, handler
	return s.err
}

func TestStateMirror_PublishesChangedDevices(t *testing.T) {
	pub := &mockPublisher{}
	m := NewStateMirror(pub)
	devices := remo.NewFixture().ListDevices(context.Background())

	m.PublishDevices(devices)
	m.PublishDevices(devices)

	got := pub.published()
	if len(got) != 2 {
		t.Fatalf("published %d documents, want 2 (unchanged snapshot is skipped)", len(got))
	}
	if got[0].topic != "remobridge/device/3386e747-5c21-4c8e-938e-faf9a521cec3/state" {
		t.Errorf("topic = %q", got[0].topic)
	}

	var doc DeviceState
	if err := json.Unmarshal(got[0].payload, &doc); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if doc.Name != "寝室" || doc.Temperature == nil || *doc.Temperature != 19.1 {
		t.Errorf("document = %+v", doc)
	}

	var mini map[string]any
	if err := json.Unmarshal(got[1].payload, &mini); err != nil {
		t.Fatal(err)
	}
	if _, ok := mini["humidity"]; ok {
		t.Error("mini document carries humidity")
	}

	devices[0].NewestEvents.Temperature = &remo.SensorValue{Val: 20}
	m.PublishDevices(devices)
	if n := len(pub.published()); n != 3 {
		t.Errorf("published %d documents after a change, want 3", n)
	}
}

func TestStateMirror_PublishesAircons(t *testing.T) {
	pub := &mockPublisher{}
	m := NewStateMirror(pub)
	aircons, _ := poller.SplitAppliances(remo.NewFixture().ListAppliances(context.Background()))
	aircons = append(aircons, remo.Appliance{ID: "no-settings", Type: remo.ApplianceTypeAC})

	m.PublishAircons(aircons)

	got := pub.published()
	if len(got) != 2 {
		t.Fatalf("published %d documents, want 2", len(got))
	}
	for _, p := range got {
		var doc AirconState
		if err := json.Unmarshal(p.payload, &doc); err != nil {
			t.Fatal(err)
		}
		if doc.ID == "aec5b55d-8561-41a5-bde7-07facddd713e" {
			if !doc.PoweredOff || doc.Mode != remo.ModeWarm || doc.Temperature != "18" {
				t.Errorf("bedroom document = %+v", doc)
			}
			if p.topic != "remobridge/aircon/aec5b55d-8561-41a5-bde7-07facddd713e/state" {
				t.Errorf("topic = %q", p.topic)
			}
		}
	}
}

func TestStateMirror_RetriesAfterFailure(t *testing.T) {
	pub := &mockPublisher{failing: true}
	m := NewStateMirror(pub)
	devices := remo.NewFixture().ListDevices(context.Background())

	m.PublishDevices(devices)
	pub.failing = false
	m.PublishDevices(devices)

	if n := len(pub.published()); n != 2 {
		t.Errorf("published %d documents, want 2 once the broker is back", n)
	}
}

func TestStateMirror_FollowsPoller(t *testing.T) {
	pub := &mockPublisher{}
	m := NewStateMirror(pub)
	p := poller.New(poller.Config{Gateway: remo.NewFixture(), DevicesInterval: time.Hour, AppliancesInterval: time.Hour})

	m.Start(p)
	p.Refresh(context.Background())
	m.Stop()

	if n := len(pub.published()); n != 4 {
		t.Errorf("published %d documents, want 2 devices and 2 aircons", n)
	}
	if p.Devices.Subscribers() != 0 || p.Aircons.Subscribers() != 0 {
		t.Error("Stop left subscriptions behind")
	}
}

func TestStateMirror_ListenCommands(t *testing.T) {
	m := NewStateMirror(&mockPublisher{})
	sub := &mockSubscriber{}
	refreshes := make(chan struct{}, 4)

	if err := m.ListenCommands(context.Background(), sub, func(context.Context) { refreshes <- struct{}{} }); err != nil {
		t.Fatalf("ListenCommands() error = %v", err)
	}
	if sub.topic != "remobridge/command/+" {
		t.Errorf("subscribed to %q", sub.topic)
	}

	sub.handler("remobridge/command/reboot", nil)  //nolint:errcheck // Always nil
	sub.handler("remobridge/command/refresh", nil) //nolint:errcheck // Always nil
	select {
	case <-refreshes:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh not run")
	}
	select {
	case <-refreshes:
		t.Error("unknown command triggered a refresh")
	case <-time.After(50 * time.Millisecond):
	}

	failing := &mockSubscriber{err: errors.New("not connected")}
	if err := m.ListenCommands(context.Background(), failing, func(context.Context) {}); err == nil {
		t.Error("ListenCommands() error = nil, want subscribe error")
	}
}

func TestStateMirror_RefreshDoesNotBlockHandler(t *testing.T) {
	m := NewStateMirror(&mockPublisher{})
	sub := &mockSubscriber{}
	started := make(chan struct{}, 4)
	release := make(chan struct{})

	err := m.ListenCommands(context.Background(), sub, func(context.Context) {
		started <- struct{}{}
		<-release
	})
	if err != nil {
		t.Fatalf("ListenCommands() error = %v", err)
	}

	returned := make(chan struct{})
	go func() {
		sub.handler("remobridge/command/refresh", nil) //nolint:errcheck // Always nil
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("handler blocked on the running refresh")
	}
	<-started

	// A second command while the first refresh runs is dropped.
	sub.handler("remobridge/command/refresh", nil) //nolint:errcheck // Always nil
	close(release)
	select {
	case <-started:
		t.Error("overlapping refresh started")
	case <-time.After(50 * time.Millisecond):
	}

	// Once the refresh finishes, commands are accepted again.
	deadline := time.After(2 * time.Second)
	for m.refreshing.Load() {
		select {
		case <-deadline:
			t.Fatal("refresh never finished")
		case <-time.After(time.Millisecond):
		}
	}
	sub.handler("remobridge/command/refresh", nil) //nolint:errcheck // Always nil
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh after completion not run")
	}
}
