package telemetry

import (
	"sync"
	"time"

	"github.com/nerrad567/remo-bridge/internal/poller"
	"github.com/nerrad567/remo-bridge/internal/remo"
)

// Writer queues sensor readings. *influxdb.Client satisfies it.
type Writer interface {
	WriteSensorReading(deviceID, deviceName string, fields map[string]float64, ts time.Time)
}

// Recorder writes each new device reading to a time-series store.
type Recorder struct {
	w      Writer
	logger Logger
	now    func() time.Time

	mu   sync.Mutex
	last map[string]time.Time // newest reading written, by device ID

	unsubscribe func()
}

// NewRecorder creates a Recorder.
func NewRecorder(w Writer) *Recorder {
	return &Recorder{
		w:      w,
		logger: noopLogger{},
		now:    time.Now,
		last:   make(map[string]time.Time),
	}
}

// SetLogger sets the logger for the recorder.
func (r *Recorder) SetLogger(logger Logger) {
	r.logger = logger
}

// Start subscribes to the poller's device subject.
func (r *Recorder) Start(source *poller.Poller) {
	r.unsubscribe = source.Devices.Subscribe(r.Record)
}

// Stop unsubscribes from the poller.
func (r *Recorder) Stop() {
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
}

// Record writes one point per device whose newest reading is newer than
// the last one written. The point is stamped with that reading's time.
func (r *Recorder) Record(devices []remo.Device) {
	for _, d := range devices {
		fields, ts := readings(d)
		if len(fields) == 0 {
			continue
		}
		if ts.IsZero() {
			ts = r.now()
		}

		r.mu.Lock()
		seen := !r.last[d.ID].Before(ts)
		if !seen {
			r.last[d.ID] = ts
		}
		r.mu.Unlock()
		if seen {
			continue
		}

		r.w.WriteSensorReading(d.ID, d.Name, fields, ts)
		recorderPointsTotal.Inc()
		r.logger.Debug("sensor reading recorded", "device_id", d.ID, "fields", len(fields))
	}
}

// readings returns the present sensor values keyed by their vendor names
// and the time of the newest one.
func readings(d remo.Device) (map[string]float64, time.Time) {
	fields := make(map[string]float64, 4)
	var newest time.Time
	for key, v := range map[string]*remo.SensorValue{
		"te": d.NewestEvents.Temperature,
		"hu": d.NewestEvents.Humidity,
		"il": d.NewestEvents.Illuminance,
		"mo": d.NewestEvents.Movement,
	} {
		if v == nil {
			continue
		}
		fields[key] = v.Val
		if v.CreatedAt.After(newest) {
			newest = v.CreatedAt
		}
	}
	return fields, newest
}
