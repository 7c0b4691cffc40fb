package telemetry

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/remo-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/remo-bridge/internal/poller"
	"github.com/nerrad567/remo-bridge/internal/remo"
)

// Publisher publishes retained messages. *mqtt.Client satisfies it.
type Publisher interface {
	PublishRetained(topic string, payload []byte) error
}

// Subscriber subscribes to topics. *mqtt.Client satisfies it.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// DeviceState is the document published for a Remo unit.
type DeviceState struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	FirmwareVersion string    `json:"firmware_version"`
	Temperature     *float64  `json:"temperature,omitempty"`
	Humidity        *float64  `json:"humidity,omitempty"`
	Illuminance     *float64  `json:"illuminance,omitempty"`
	Movement        *float64  `json:"movement,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AirconState is the document published for an air conditioner.
type AirconState struct {
	ID          string             `json:"id"`
	Nickname    string             `json:"nickname"`
	Mode        remo.OperationMode `json:"mode"`
	Temperature string             `json:"temperature"`
	Volume      string             `json:"volume"`
	PoweredOff  bool               `json:"powered_off"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// NewDeviceState builds the published document for d.
func NewDeviceState(d remo.Device) DeviceState {
	s := DeviceState{
		ID:              d.ID,
		Name:            d.Name,
		FirmwareVersion: d.FirmwareVersion,
		UpdatedAt:       d.UpdatedAt,
	}
	ev := d.NewestEvents
	s.Temperature = val(ev.Temperature)
	s.Humidity = val(ev.Humidity)
	s.Illuminance = val(ev.Illuminance)
	s.Movement = val(ev.Movement)
	return s
}

// NewAirconState builds the published document for an AC appliance. ok is
// false when the appliance carries no settings.
func NewAirconState(a remo.Appliance) (AirconState, bool) {
	if a.Settings == nil {
		return AirconState{}, false
	}
	return AirconState{
		ID:          a.ID,
		Nickname:    a.Nickname,
		Mode:        a.Settings.Mode,
		Temperature: a.Settings.Temp,
		Volume:      a.Settings.Vol,
		PoweredOff:  a.Settings.PoweredOff(),
		UpdatedAt:   a.Settings.UpdatedAt,
	}, true
}

func val(v *remo.SensorValue) *float64 {
	if v == nil {
		return nil
	}
	f := v.Val
	return &f
}

// StateMirror publishes vendor state to retained MQTT topics.
type StateMirror struct {
	pub    Publisher
	logger Logger

	mu   sync.Mutex
	last map[string]string // payload by topic

	unsubscribes []func()

	// refreshing is set while a command-triggered refresh runs.
	refreshing atomic.Bool
}

// NewStateMirror creates a StateMirror.
func NewStateMirror(pub Publisher) *StateMirror {
	return &StateMirror{
		pub:    pub,
		logger: noopLogger{},
		last:   make(map[string]string),
	}
}

// SetLogger sets the logger for the mirror.
func (m *StateMirror) SetLogger(logger Logger) {
	m.logger = logger
}

// Start subscribes to the poller's device and air conditioner subjects.
func (m *StateMirror) Start(source *poller.Poller) {
	m.unsubscribes = append(m.unsubscribes,
		source.Devices.Subscribe(m.PublishDevices),
		source.Aircons.Subscribe(m.PublishAircons),
	)
}

// Stop unsubscribes from the poller.
func (m *StateMirror) Stop() {
	for _, unsubscribe := range m.unsubscribes {
		unsubscribe()
	}
	m.unsubscribes = nil
}

// PublishDevices publishes the state of every device that changed.
func (m *StateMirror) PublishDevices(devices []remo.Device) {
	for _, d := range devices {
		m.publish("device", mqtt.Topics{}.DeviceState(d.ID), NewDeviceState(d))
	}
}

// PublishAircons publishes the state of every air conditioner that changed.
func (m *StateMirror) PublishAircons(appliances []remo.Appliance) {
	for _, a := range appliances {
		state, ok := NewAirconState(a)
		if !ok {
			continue
		}
		m.publish("aircon", mqtt.Topics{}.AirconState(a.ID), state)
	}
}

func (m *StateMirror) publish(kind, topic string, doc any) {
	payload, err := json.Marshal(doc)
	if err != nil {
		m.logger.Error("encoding state failed", "topic", topic, "error", err)
		return
	}

	m.mu.Lock()
	unchanged := m.last[topic] == string(payload)
	m.mu.Unlock()
	if unchanged {
		return
	}

	if err := m.pub.PublishRetained(topic, payload); err != nil {
		mirrorPublishTotal.WithLabelValues(kind, "error").Inc()
		m.logger.Warn("publishing state failed", "topic", topic, "error", err)
		return
	}
	mirrorPublishTotal.WithLabelValues(kind, "ok").Inc()

	m.mu.Lock()
	m.last[topic] = string(payload)
	m.mu.Unlock()
	m.logger.Debug("state published", "topic", topic)
}

// ListenCommands subscribes to the command topics. A refresh command
// starts refresh with ctx on its own goroutine and returns at once: the
// refresh republishes state through the same MQTT client, whose acks
// cannot arrive while its message handler is blocked. A refresh requested
// while one is running is dropped. Unknown commands are logged and ignored.
func (m *StateMirror) ListenCommands(ctx context.Context, sub Subscriber, refresh func(context.Context)) error {
	refreshTopic := mqtt.Topics{}.Command(mqtt.CommandRefresh)
	return sub.Subscribe(mqtt.Topics{}.AllCommands(), 1, func(topic string, _ []byte) error {
		if topic != refreshTopic {
			m.logger.Warn("unknown command", "topic", topic)
			return nil
		}
		if !m.refreshing.CompareAndSwap(false, true) {
			m.logger.Debug("refresh already running, command dropped")
			return nil
		}
		m.logger.Info("refresh requested over MQTT")
		go func() {
			defer m.refreshing.Store(false)
			refresh(ctx)
		}()
		return nil
	})
}
