package platform

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/nerrad567/remo-bridge/internal/accessory"
	"github.com/nerrad567/remo-bridge/internal/poller"
	"github.com/nerrad567/remo-bridge/internal/remo"
)

// Logger is the logging interface used by the platform.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Host registers accessories with the framework that serves them.
type Host interface {
	Register(ctx context.Context, shells []*accessory.Shell) error
	Unregister(ctx context.Context, shells []*accessory.Shell) error
}

// Adapter is a bound accessory. Close releases its subscriptions and is
// called before the shell is rebound or retired.
type Adapter interface {
	Close()
}

// Binder wires a shell to an entity, one method per category. Binding an
// already bound shell must replace its handlers, not add to them.
type Binder interface {
	BindSensor(shell *accessory.Shell, device remo.Device) (Adapter, error)
	BindAircon(shell *accessory.Shell, appliance remo.Appliance) (Adapter, error)
	BindTV(shell *accessory.Shell, appliance remo.Appliance, tv TVConfig) (Adapter, error)
}

// TVConfig selects an IR appliance by nickname and maps logical functions
// to learned signal names.
type TVConfig struct {
	Name    string
	Mapping map[string]string
}

// Config configures a Platform.
type Config struct {
	Host   Host
	Binder Binder
	TVs    []TVConfig
}

// Binding describes one known accessory.
type Binding struct {
	UUID        string             `json:"uuid"`
	ExternalID  string             `json:"external_id"`
	DisplayName string             `json:"display_name"`
	Category    accessory.Category `json:"category"`
	Bound       bool               `json:"bound"`
}

type binding struct {
	shell   *accessory.Shell
	adapter Adapter
}

// item is one snapshot entity prepared for reconciliation.
type item struct {
	id   string
	name string
	bind func(*accessory.Shell) (Adapter, error)
}

// Platform keeps the accessory set in line with the snapshots.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Reconciliation passes are serialised.
type Platform struct {
	host   Host
	binder Binder
	tvs    []TVConfig

	mu       sync.Mutex
	bindings map[string]*binding // by accessory UUID

	ctx          context.Context
	unsubscribes []func()

	logger Logger
}

// New creates a Platform.
func New(cfg Config) *Platform {
	return &Platform{
		host:     cfg.Host,
		binder:   cfg.Binder,
		tvs:      slices.Clone(cfg.TVs),
		bindings: make(map[string]*binding),
		ctx:      context.Background(),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the platform.
func (p *Platform) SetLogger(logger Logger) {
	p.logger = logger
}

// Restore adds shells from the accessory cache to the binding table
// without registering them. They are rebound, not recreated, when their
// entity shows up in a snapshot. Call before Start.
func (p *Platform) Restore(shells []*accessory.Shell) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, shell := range shells {
		if _, ok := p.bindings[shell.UUID]; ok {
			continue
		}
		p.bindings[shell.UUID] = &binding{shell: shell}
		p.logger.Debug(accessory.Tag(shell.Category, shell.DisplayName(), "restored from cache"))
	}
	p.updateGauge()
}

// Start subscribes to the poller's subjects. Subjects that already hold a
// snapshot are reconciled before Start returns. ctx is passed to the Host.
func (p *Platform) Start(ctx context.Context, source *poller.Poller) {
	p.mu.Lock()
	p.ctx = ctx
	p.mu.Unlock()

	p.unsubscribes = append(p.unsubscribes,
		source.Devices.Subscribe(p.ReconcileSensors),
		source.Aircons.Subscribe(p.ReconcileAircons),
		source.IRs.Subscribe(p.ReconcileTVs),
	)
	p.logger.Info("platform started", "restored", len(p.Bindings()), "tvs", len(p.tvs))
}

// Stop unsubscribes from the poller and closes every adapter.
func (p *Platform) Stop() {
	for _, unsubscribe := range p.unsubscribes {
		unsubscribe()
	}
	p.unsubscribes = nil

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, b := range p.bindings {
		if b.adapter != nil {
			b.adapter.Close()
			b.adapter = nil
		}
	}
}

// ReconcileSensors reconciles the sensor accessories against devices.
func (p *Platform) ReconcileSensors(devices []remo.Device) {
	items := make([]item, 0, len(devices))
	for _, d := range devices {
		items = append(items, item{
			id:   d.ID,
			name: d.Name,
			bind: func(shell *accessory.Shell) (Adapter, error) {
				return p.binder.BindSensor(shell, d)
			},
		})
	}
	p.reconcile(accessory.CategorySensor, items)
}

// ReconcileAircons reconciles the air conditioner accessories against AC
// appliances.
func (p *Platform) ReconcileAircons(appliances []remo.Appliance) {
	items := make([]item, 0, len(appliances))
	for _, a := range appliances {
		if a.Type != remo.ApplianceTypeAC {
			continue
		}
		items = append(items, item{
			id:   a.ID,
			name: a.Nickname,
			bind: func(shell *accessory.Shell) (Adapter, error) {
				return p.binder.BindAircon(shell, a)
			},
		})
	}
	p.reconcile(accessory.CategoryAirConditioner, items)
}

// ReconcileTVs reconciles the television accessories against IR
// appliances. Only appliances whose nickname matches a configured TV are
// exposed.
func (p *Platform) ReconcileTVs(appliances []remo.Appliance) {
	items := make([]item, 0, len(appliances))
	for _, a := range appliances {
		if a.Type != remo.ApplianceTypeIR {
			continue
		}
		i := slices.IndexFunc(p.tvs, func(tv TVConfig) bool { return tv.Name == a.Nickname })
		if i < 0 {
			continue
		}
		tv := p.tvs[i]
		items = append(items, item{
			id:   a.ID,
			name: a.Nickname,
			bind: func(shell *accessory.Shell) (Adapter, error) {
				return p.binder.BindTV(shell, a, tv)
			},
		})
	}
	p.reconcile(accessory.CategoryTelevision, items)
}

// Bindings returns every known accessory ordered by category then name.
func (p *Platform) Bindings() []Binding {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Binding, 0, len(p.bindings))
	for uuid, b := range p.bindings {
		out = append(out, Binding{
			UUID:        uuid,
			ExternalID:  b.shell.ExternalID,
			DisplayName: b.shell.DisplayName(),
			Category:    b.shell.Category,
			Bound:       b.adapter != nil,
		})
	}
	slices.SortFunc(out, func(a, b Binding) int {
		return cmp.Or(cmp.Compare(a.Category, b.Category), cmp.Compare(a.DisplayName, b.DisplayName))
	})
	return out
}

// Shell returns the shell for an accessory UUID.
func (p *Platform) Shell(uuid string) (*accessory.Shell, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.bindings[uuid]
	if !ok {
		return nil, false
	}
	return b.shell, true
}

func (p *Platform) reconcile(category accessory.Category, items []item) {
	p.mu.Lock()
	defer p.mu.Unlock()

	label := category.String()
	ids := make(map[string]struct{}, len(items))
	var created []*binding

	for _, it := range items {
		uuid := accessory.UUIDFor(it.id)
		ids[uuid] = struct{}{}

		if b, ok := p.bindings[uuid]; ok {
			if b.shell.Category != category {
				p.logger.Warn(accessory.Tag(category, it.name, "uuid already bound to another category"),
					"uuid", uuid, "existing", b.shell.Category.String())
				continue
			}
			if b.adapter != nil {
				b.adapter.Close()
				b.adapter = nil
			}
			adapter, err := it.bind(b.shell)
			if err != nil {
				bindFailuresTotal.WithLabelValues(label).Inc()
				p.logger.Error(accessory.Tag(category, it.name, "rebind failed"), "error", err)
				continue
			}
			b.adapter = adapter
			reboundTotal.WithLabelValues(label).Inc()
			continue
		}

		shell := accessory.NewShell(it.id, it.name, category)
		adapter, err := it.bind(shell)
		if err != nil {
			bindFailuresTotal.WithLabelValues(label).Inc()
			p.logger.Error(accessory.Tag(category, it.name, "bind failed"), "error", err)
			continue
		}
		created = append(created, &binding{shell: shell, adapter: adapter})
	}

	p.register(category, created)
	if len(ids) > 0 {
		p.retire(category, ids)
	}
	p.updateGauge()
}

// register hands new shells to the host in one batch. On failure the
// shells stay unknown so the next snapshot retries them.
func (p *Platform) register(category accessory.Category, created []*binding) {
	if len(created) == 0 {
		return
	}

	shells := make([]*accessory.Shell, len(created))
	for i, b := range created {
		shells[i] = b.shell
	}

	if err := p.host.Register(p.ctx, shells); err != nil {
		bindFailuresTotal.WithLabelValues(category.String()).Add(float64(len(created)))
		p.logger.Error("registering accessories failed",
			"category", category.String(), "count", len(created), "error", err)
		for _, b := range created {
			b.adapter.Close()
		}
		return
	}

	for _, b := range created {
		p.bindings[b.shell.UUID] = b
	}
	registeredTotal.WithLabelValues(category.String()).Add(float64(len(created)))
	p.logger.Info("registered accessories",
		"category", category.String(), "names", names(shells))
}

// retire unregisters every shell of category whose UUID is not in ids.
func (p *Platform) retire(category accessory.Category, ids map[string]struct{}) {
	var stale []*binding
	for uuid, b := range p.bindings {
		if b.shell.Category != category {
			continue
		}
		if _, ok := ids[uuid]; !ok {
			stale = append(stale, b)
		}
	}
	if len(stale) == 0 {
		return
	}
	slices.SortFunc(stale, func(a, b *binding) int {
		return cmp.Compare(a.shell.DisplayName(), b.shell.DisplayName())
	})

	shells := make([]*accessory.Shell, len(stale))
	for i, b := range stale {
		shells[i] = b.shell
	}

	if err := p.host.Unregister(p.ctx, shells); err != nil {
		p.logger.Error("unregistering accessories failed",
			"category", category.String(), "count", len(stale), "error", err)
		return
	}

	for _, b := range stale {
		if b.adapter != nil {
			b.adapter.Close()
		}
		delete(p.bindings, b.shell.UUID)
	}
	unregisteredTotal.WithLabelValues(category.String()).Add(float64(len(stale)))
	p.logger.Info("unregistered accessories",
		"category", category.String(), "names", names(shells))
}

func (p *Platform) updateGauge() {
	counts := map[accessory.Category]int{
		accessory.CategorySensor:         0,
		accessory.CategoryAirConditioner: 0,
		accessory.CategoryTelevision:     0,
	}
	for _, b := range p.bindings {
		counts[b.shell.Category]++
	}
	for c, n := range counts {
		accessoriesGauge.WithLabelValues(c.String()).Set(float64(n))
	}
}

func names(shells []*accessory.Shell) []string {
	out := make([]string, len(shells))
	for i, s := range shells {
		out[i] = s.DisplayName()
	}
	return out
}
