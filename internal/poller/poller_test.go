package poller

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nerrad567/remo-bridge/internal/remo"
)

func TestPoller_InitialEmptySnapshots(t *testing.T) {
	fixture := remo.NewFixture()
	fixture.SetFailing(true)
	p := New(Config{Gateway: fixture, DevicesInterval: time.Hour, AppliancesInterval: time.Hour})

	var first []remo.Device
	var called bool
	p.Devices.Subscribe(func(d []remo.Device) {
		if !called {
			first, called = d, true
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	if !called {
		t.Fatal("subscriber not called on Start")
	}
	if first == nil || len(first) != 0 {
		t.Errorf("initial snapshot = %v, want empty non-nil", first)
	}
	for name, s := range map[string]*Subject[[]remo.Appliance]{"aircons": p.Aircons, "irs": p.IRs} {
		v, ok := s.Value()
		if !ok || v == nil || len(v) != 0 {
			t.Errorf("%s initial value = %v, %v, want empty", name, v, ok)
		}
	}
}

func TestPoller_StalenessKeepsPreviousSnapshot(t *testing.T) {
	fixture := remo.NewFixture()
	p := New(Config{Gateway: fixture})
	ctx := context.Background()

	p.Refresh(ctx)
	devices, _ := p.Devices.Value()
	aircons, _ := p.Aircons.Value()
	if len(devices) != 2 || len(aircons) != 2 {
		t.Fatalf("after refresh: devices=%d aircons=%d, want 2 and 2", len(devices), len(aircons))
	}

	var notified int
	p.Devices.Subscribe(func([]remo.Device) { notified++ })
	notified = 0

	before := testutil.ToFloat64(staleTotal.WithLabelValues(ResourceDevices))
	fixture.SetFailing(true)
	p.RefreshDevices(ctx)
	p.RefreshAppliances(ctx)

	if notified != 0 {
		t.Errorf("subscriber notified %d times on failed fetch", notified)
	}
	after, _ := p.Devices.Value()
	if len(after) != 2 || after[0].ID != devices[0].ID {
		t.Errorf("devices after failure = %v, want previous snapshot", after)
	}
	afterAC, _ := p.Aircons.Value()
	if len(afterAC) != 2 {
		t.Errorf("aircons after failure = %d, want 2", len(afterAC))
	}
	if got := testutil.ToFloat64(staleTotal.WithLabelValues(ResourceDevices)) - before; got != 1 {
		t.Errorf("stale counter delta = %v, want 1", got)
	}

	fixture.SetFailing(false)
	fixture.SetDevices([]remo.Device{})
	p.RefreshDevices(ctx)
	empty, _ := p.Devices.Value()
	if empty == nil || len(empty) != 0 {
		t.Errorf("devices after successful empty fetch = %v, want empty", empty)
	}
	if notified != 1 {
		t.Errorf("notified = %d, want 1", notified)
	}
}

func TestPoller_OneFetchPerTickRegardlessOfSubscribers(t *testing.T) {
	fixture := remo.NewFixture()
	p := New(Config{Gateway: fixture})

	for range 5 {
		p.Devices.Subscribe(func([]remo.Device) {})
		p.IRs.Subscribe(func([]remo.Appliance) {})
		p.Aircons.Subscribe(func([]remo.Appliance) {})
	}

	p.RefreshDevices(context.Background())
	p.RefreshAppliances(context.Background())

	if got := fixture.ListCalls("devices"); got != 1 {
		t.Errorf("device fetches = %d, want 1", got)
	}
	if got := fixture.ListCalls("appliances"); got != 1 {
		t.Errorf("appliance fetches = %d, want 1", got)
	}
}

func TestPoller_TickerRefreshes(t *testing.T) {
	fixture := remo.NewFixture()
	p := New(Config{
		Gateway:            fixture,
		DevicesInterval:    10 * time.Millisecond,
		AppliancesInterval: time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for fixture.ListCalls("devices") < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	p.Stop()
	p.Stop()

	if got := fixture.ListCalls("devices"); got < 3 {
		t.Errorf("device fetches = %d, want >= 3", got)
	}
	if got := fixture.ListCalls("appliances"); got != 1 {
		t.Errorf("appliance fetches = %d, want 1 (immediate fetch only)", got)
	}

	stopped := fixture.ListCalls("devices")
	time.Sleep(30 * time.Millisecond)
	if got := fixture.ListCalls("devices"); got != stopped {
		t.Errorf("fetches after Stop: %d -> %d", stopped, got)
	}
}

func TestSplitAppliances(t *testing.T) {
	apps := []remo.Appliance{
		{ID: "ir-1", Type: remo.ApplianceTypeIR},
		{ID: "ac-1", Type: remo.ApplianceTypeAC},
		{ID: "lock", Type: remo.ApplianceTypeQrioLock},
		{ID: "odd", Type: remo.ApplianceType("LIGHT")},
		{ID: "ir-2", Type: remo.ApplianceTypeIR},
	}

	aircons, irs := SplitAppliances(apps)

	if len(aircons) != 1 || aircons[0].ID != "ac-1" {
		t.Errorf("aircons = %v", aircons)
	}
	if len(irs) != 2 || irs[0].ID != "ir-1" || irs[1].ID != "ir-2" {
		t.Errorf("irs = %v", irs)
	}

	a, i := SplitAppliances(nil)
	if a == nil || i == nil {
		t.Error("SplitAppliances(nil) returned nil slices")
	}
}
