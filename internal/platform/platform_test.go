package platform

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/remo-bridge/internal/accessory"
	"github.com/nerrad567/remo-bridge/internal/poller"
	"github.com/nerrad567/remo-bridge/internal/remo"
)

// mockHost records Register and Unregister calls.
type mockHost struct {
	mu            sync.Mutex
	registered    [][]string
	unregistered  [][]string
	registerErr   error
	unregisterErr error
}

func (h *mockHost) Register(_ context.Context, shells []*accessory.Shell) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.registerErr != nil {
		return h.registerErr
	}
	h.registered = append(h.registered, externalIDs(shells))
	return nil
}

func (h *mockHost) Unregister(_ context.Context, shells []*accessory.Shell) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unregisterErr != nil {
		return h.unregisterErr
	}
	h.unregistered = append(h.unregistered, externalIDs(shells))
	return nil
}

func (h *mockHost) calls() (registers, unregisters int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.registered), len(h.unregistered)
}

func externalIDs(shells []*accessory.Shell) []string {
	out := make([]string, len(shells))
	for i, s := range shells {
		out[i] = s.ExternalID
	}
	return out
}

type mockAdapter struct {
	closed bool
}

func (a *mockAdapter) Close() { a.closed = true }

type bindCall struct {
	category accessory.Category
	id       string
	shell    *accessory.Shell
	adapter  *mockAdapter
	tv       TVConfig
}

// mockBinder records bind calls and hands out mockAdapters.
type mockBinder struct {
	mu      sync.Mutex
	calls   []bindCall
	failIDs map[string]bool
}

func (b *mockBinder) record(category accessory.Category, id string, shell *accessory.Shell, tv TVConfig) (Adapter, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failIDs[id] {
		return nil, errors.New("bind failed")
	}
	a := &mockAdapter{}
	b.calls = append(b.calls, bindCall{category: category, id: id, shell: shell, adapter: a, tv: tv})
	return a, nil
}

func (b *mockBinder) BindSensor(shell *accessory.Shell, d remo.Device) (Adapter, error) {
	return b.record(accessory.CategorySensor, d.ID, shell, TVConfig{})
}

func (b *mockBinder) BindAircon(shell *accessory.Shell, a remo.Appliance) (Adapter, error) {
	return b.record(accessory.CategoryAirConditioner, a.ID, shell, TVConfig{})
}

func (b *mockBinder) BindTV(shell *accessory.Shell, a remo.Appliance, tv TVConfig) (Adapter, error) {
	return b.record(accessory.CategoryTelevision, a.ID, shell, tv)
}

func (b *mockBinder) callsFor(id string) []bindCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []bindCall
	for _, c := range b.calls {
		if c.id == id {
			out = append(out, c)
		}
	}
	return out
}

func newTestPlatform(tvs ...TVConfig) (*Platform, *mockHost, *mockBinder) {
	host := &mockHost{}
	binder := &mockBinder{failIDs: map[string]bool{}}
	return New(Config{Host: host, Binder: binder, TVs: tvs}), host, binder
}

func devices(ids ...string) []remo.Device {
	out := make([]remo.Device, len(ids))
	for i, id := range ids {
		out[i] = remo.Device{ID: id, Name: "device " + id}
	}
	return out
}

func TestReconcile_CreatesAndRegistersInOneBatch(t *testing.T) {
	p, host, binder := newTestPlatform()

	p.ReconcileSensors(devices("A", "B", "C"))

	if len(host.registered) != 1 {
		t.Fatalf("Register calls = %d, want 1", len(host.registered))
	}
	if got := host.registered[0]; !slices.Equal(got, []string{"A", "B", "C"}) {
		t.Errorf("registered = %v, want [A B C]", got)
	}
	if len(binder.calls) != 3 {
		t.Errorf("bind calls = %d, want 3", len(binder.calls))
	}
	for _, b := range p.Bindings() {
		if !b.Bound || b.Category != accessory.CategorySensor {
			t.Errorf("binding %+v, want bound sensor", b)
		}
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	p, host, _ := newTestPlatform()
	snapshot := devices("A", "B")

	p.ReconcileSensors(snapshot)
	r1, u1 := host.calls()
	p.ReconcileSensors(snapshot)
	r2, u2 := host.calls()

	if r2 != r1 || u2 != u1 {
		t.Errorf("second pass made calls: register %d->%d, unregister %d->%d", r1, r2, u1, u2)
	}
	if len(p.Bindings()) != 2 {
		t.Errorf("bindings = %d, want 2", len(p.Bindings()))
	}
}

func TestReconcile_RetiresMissingAndRebindsRest(t *testing.T) {
	p, host, binder := newTestPlatform()

	p.ReconcileSensors(devices("A", "B", "C"))
	shellA := binder.callsFor("A")[0].shell
	adapterB := binder.callsFor("B")[0].adapter
	adapterC := binder.callsFor("C")[0].adapter

	p.ReconcileSensors(devices("A", "C"))

	if len(host.unregistered) != 1 || !slices.Equal(host.unregistered[0], []string{"B"}) {
		t.Errorf("unregistered = %v, want [[B]]", host.unregistered)
	}
	if len(host.registered) != 1 {
		t.Errorf("Register calls = %d, want 1 (no re-creation)", len(host.registered))
	}

	callsA := binder.callsFor("A")
	if len(callsA) != 2 || callsA[1].shell != shellA {
		t.Error("A was not rebound onto the same shell")
	}
	if !adapterB.closed {
		t.Error("retired adapter B not closed")
	}
	if !adapterC.closed {
		t.Error("previous adapter C not closed on rebind")
	}
	if binder.callsFor("C")[1].adapter.closed {
		t.Error("current adapter C closed")
	}

	if _, ok := p.Shell(accessory.UUIDFor("B")); ok {
		t.Error("B still in binding table")
	}
}

func TestReconcile_EmptySnapshotDoesNotRetire(t *testing.T) {
	p, host, _ := newTestPlatform()

	p.ReconcileSensors(devices("A"))
	p.ReconcileSensors([]remo.Device{})

	if _, u := host.calls(); u != 0 {
		t.Errorf("Unregister calls = %d, want 0", u)
	}
	if len(p.Bindings()) != 1 {
		t.Errorf("bindings = %d, want 1", len(p.Bindings()))
	}
}

func TestReconcile_CategoriesAreIndependent(t *testing.T) {
	p, host, _ := newTestPlatform()

	p.ReconcileSensors(devices("D1"))
	p.ReconcileAircons([]remo.Appliance{{ID: "AC1", Type: remo.ApplianceTypeAC, Nickname: "ac"}})
	p.ReconcileAircons([]remo.Appliance{{ID: "AC2", Type: remo.ApplianceTypeAC, Nickname: "ac2"}})

	if len(host.unregistered) != 1 || !slices.Equal(host.unregistered[0], []string{"AC1"}) {
		t.Errorf("unregistered = %v, want [[AC1]]", host.unregistered)
	}
	if _, ok := p.Shell(accessory.UUIDFor("D1")); !ok {
		t.Error("sensor retired by an aircon snapshot")
	}
}

func TestReconcile_RegisterFailureRetriesNextSnapshot(t *testing.T) {
	p, host, binder := newTestPlatform()
	host.registerErr = errors.New("host unavailable")

	p.ReconcileSensors(devices("A"))
	if len(p.Bindings()) != 0 {
		t.Fatalf("bindings = %d after failed register, want 0", len(p.Bindings()))
	}
	if !binder.callsFor("A")[0].adapter.closed {
		t.Error("adapter of failed registration not closed")
	}

	host.registerErr = nil
	p.ReconcileSensors(devices("A"))
	if len(host.registered) != 1 {
		t.Errorf("Register calls = %d, want 1", len(host.registered))
	}
	if len(p.Bindings()) != 1 {
		t.Errorf("bindings = %d, want 1", len(p.Bindings()))
	}
}

func TestReconcile_BindFailureSkipsOnlyThatEntity(t *testing.T) {
	p, host, binder := newTestPlatform()
	binder.failIDs["B"] = true

	p.ReconcileSensors(devices("A", "B", "C"))

	if got := host.registered[0]; !slices.Equal(got, []string{"A", "C"}) {
		t.Errorf("registered = %v, want [A C]", got)
	}
}

func TestReconcile_UnregisterFailureKeepsBindings(t *testing.T) {
	p, host, _ := newTestPlatform()
	p.ReconcileSensors(devices("A", "B"))

	host.unregisterErr = errors.New("nope")
	p.ReconcileSensors(devices("A"))

	if len(p.Bindings()) != 2 {
		t.Errorf("bindings = %d, want 2 after failed unregister", len(p.Bindings()))
	}
}

func TestReconcileTVs_OnlyConfiguredNames(t *testing.T) {
	tv := TVConfig{Name: "プロジェクター寝室", Mapping: map[string]string{"active": "電源"}}
	p, host, binder := newTestPlatform(tv)

	p.ReconcileTVs([]remo.Appliance{
		{ID: "ir-1", Type: remo.ApplianceTypeIR, Nickname: "プロジェクター寝室"},
		{ID: "ir-2", Type: remo.ApplianceTypeIR, Nickname: "プロジェクターリビング"},
	})

	if len(host.registered) != 1 || !slices.Equal(host.registered[0], []string{"ir-1"}) {
		t.Errorf("registered = %v, want [[ir-1]]", host.registered)
	}
	calls := binder.callsFor("ir-1")
	if len(calls) != 1 || calls[0].tv.Mapping["active"] != "電源" {
		t.Errorf("BindTV calls = %+v", calls)
	}
	if calls[0].shell.Category != accessory.CategoryTelevision {
		t.Errorf("category = %v, want TELEVISION", calls[0].shell.Category)
	}
}

func TestRestore_RebindsInsteadOfRegistering(t *testing.T) {
	p, host, binder := newTestPlatform()
	cached := accessory.NewShell("A", "cached name", accessory.CategorySensor)
	p.Restore([]*accessory.Shell{cached})

	if b := p.Bindings(); len(b) != 1 || b[0].Bound {
		t.Fatalf("Bindings() = %+v, want one unbound", b)
	}

	p.ReconcileSensors(devices("A"))

	if r, _ := host.calls(); r != 0 {
		t.Errorf("Register calls = %d, want 0 for a restored accessory", r)
	}
	if calls := binder.callsFor("A"); len(calls) != 1 || calls[0].shell != cached {
		t.Error("restored shell was not rebound")
	}
}

func TestRestore_StaleCachedAccessoryRetired(t *testing.T) {
	p, host, _ := newTestPlatform()
	p.Restore([]*accessory.Shell{
		accessory.NewShell("gone", "gone", accessory.CategorySensor),
	})

	p.ReconcileSensors(devices("A"))

	if len(host.unregistered) != 1 || !slices.Equal(host.unregistered[0], []string{"gone"}) {
		t.Errorf("unregistered = %v, want [[gone]]", host.unregistered)
	}
}

func TestPlatform_StartWithPoller(t *testing.T) {
	fixture := remo.NewFixture()
	src := poller.New(poller.Config{Gateway: fixture, DevicesInterval: time.Hour, AppliancesInterval: time.Hour})
	p, host, binder := newTestPlatform(TVConfig{Name: "プロジェクターリビング"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx, src)
	src.Refresh(ctx)

	r, u := host.calls()
	if r != 3 || u != 0 {
		t.Errorf("host calls = (%d, %d), want 3 registers and 0 unregisters", r, u)
	}
	if got := len(p.Bindings()); got != 5 {
		t.Errorf("bindings = %d, want 2 sensors + 2 aircons + 1 tv", got)
	}

	p.Stop()
	for _, c := range binder.calls {
		if !c.adapter.closed {
			t.Errorf("adapter for %s not closed by Stop", c.id)
		}
	}

	fixture.SetDevices(devices("new"))
	src.RefreshDevices(ctx)
	if len(binder.callsFor("new")) != 0 {
		t.Error("platform reconciled after Stop")
	}
}
