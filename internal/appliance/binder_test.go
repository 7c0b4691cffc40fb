package appliance

import (
	"context"
	"testing"
	"time"

	"github.com/nerrad567/remo-bridge/internal/accessory"
	"github.com/nerrad567/remo-bridge/internal/platform"
	"github.com/nerrad567/remo-bridge/internal/poller"
	"github.com/nerrad567/remo-bridge/internal/remo"
)

type nopHost struct{}

func (nopHost) Register(context.Context, []*accessory.Shell) error   { return nil }
func (nopHost) Unregister(context.Context, []*accessory.Shell) error { return nil }

func TestBinder_WithPlatform(t *testing.T) {
	f := remo.NewFixture()
	src := poller.New(poller.Config{Gateway: f, DevicesInterval: time.Hour, AppliancesInterval: time.Hour})
	binder := NewBinder(BinderConfig{Gateway: f, Devices: src.Devices})
	p := platform.New(platform.Config{
		Host:   nopHost{},
		Binder: binder,
		TVs:    []platform.TVConfig{{Name: "プロジェクター寝室", Mapping: map[string]string{FuncActive: "電源"}}},
	})

	ctx := t.Context()
	p.Start(ctx, src)
	defer p.Stop()
	src.Refresh(ctx)

	counts := map[accessory.Category]int{}
	for _, b := range p.Bindings() {
		if !b.Bound {
			t.Errorf("%s not bound", b.DisplayName)
		}
		counts[b.Category]++
	}
	want := map[accessory.Category]int{
		accessory.CategorySensor:         2,
		accessory.CategoryAirConditioner: 2,
		accessory.CategoryTelevision:     1,
	}
	for c, n := range want {
		if counts[c] != n {
			t.Errorf("%s bindings = %d, want %d", c, counts[c], n)
		}
	}

	shell, ok := p.Shell(accessory.UUIDFor(bedroomAircon))
	if !ok {
		t.Fatal("bedroom aircon not bound")
	}
	svc, _ := shell.Service(accessory.ServiceThermostat)
	if got, _ := svc.Characteristic(accessory.CharCurrentTemperature).Float(); got != 19.1 {
		t.Errorf("aircon CurrentTemperature = %v, want 19.1 from the devices snapshot", got)
	}

	// Rebinding on the next snapshot must not leave extra device subscribers.
	before := src.Devices.Subscribers()
	src.RefreshAppliances(ctx)
	if after := src.Devices.Subscribers(); after != before {
		t.Errorf("device subscribers %d -> %d after rebind", before, after)
	}
}
