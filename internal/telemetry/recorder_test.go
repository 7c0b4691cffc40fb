package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/remo-bridge/internal/remo"
)

type point struct {
	id, name string
	fields   map[string]float64
	ts       time.Time
}

type mockWriter struct {
	mu     sync.Mutex
	points []point
}

func (w *mockWriter) WriteSensorReading(id, name string, fields map[string]float64, ts time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = append(w.points, point{id, name, fields, ts})
}

func TestRecorder_WritesNewReadings(t *testing.T) {
	w := &mockWriter{}
	r := NewRecorder(w)
	devices := remo.NewFixture().ListDevices(context.Background())

	r.Record(devices)
	if len(w.points) != 2 {
		t.Fatalf("wrote %d points, want 2", len(w.points))
	}

	bedroom := w.points[0]
	if bedroom.name != "寝室" {
		t.Errorf("name = %q", bedroom.name)
	}
	want := map[string]float64{"te": 19.1, "hu": 52, "il": 0, "mo": 1}
	for k, v := range want {
		if bedroom.fields[k] != v {
			t.Errorf("field %s = %v, want %v", k, bedroom.fields[k], v)
		}
	}
	// Newest of the four readings.
	if !bedroom.ts.Equal(time.Date(2023, 3, 15, 9, 7, 0, 0, time.UTC)) {
		t.Errorf("ts = %v", bedroom.ts)
	}

	living := w.points[1]
	if len(living.fields) != 1 {
		t.Errorf("mini fields = %v, want te only", living.fields)
	}

	// Same readings again: nothing new.
	r.Record(devices)
	if len(w.points) != 2 {
		t.Errorf("wrote %d points after an unchanged snapshot, want 2", len(w.points))
	}

	devices[1].NewestEvents.Temperature = &remo.SensorValue{
		Val:       22.8,
		CreatedAt: time.Date(2023, 3, 15, 9, 20, 0, 0, time.UTC),
	}
	r.Record(devices)
	if len(w.points) != 3 || w.points[2].fields["te"] != 22.8 {
		t.Errorf("points = %+v, want the new living reading", w.points)
	}
}

func TestRecorder_SkipsDevicesWithoutReadings(t *testing.T) {
	w := &mockWriter{}
	r := NewRecorder(w)

	r.Record([]remo.Device{{ID: "empty", Name: "空"}})
	if len(w.points) != 0 {
		t.Errorf("wrote %v", w.points)
	}
}

func TestRecorder_UndatedReadingsUseNow(t *testing.T) {
	w := &mockWriter{}
	r := NewRecorder(w)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	r.Record([]remo.Device{{ID: "d", NewestEvents: remo.NewestEvents{Temperature: &remo.SensorValue{Val: 20}}}})
	if len(w.points) != 1 || !w.points[0].ts.Equal(now) {
		t.Errorf("points = %+v", w.points)
	}
}
