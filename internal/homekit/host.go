package homekit

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/brutella/hap"
	hapaccessory "github.com/brutella/hap/accessory"
	"github.com/brutella/hap/service"

	"github.com/nerrad567/remo-bridge/internal/accessory"
	"github.com/nerrad567/remo-bridge/internal/platform"
)

// DefaultDebounce is the delay between an accessory set change and the
// server rebuild it triggers.
const DefaultDebounce = 2 * time.Second

// Logger is the logging interface used by the host.
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

// Config configures a Host.
type Config struct {
	// Name is the bridge accessory name shown during pairing.
	Name string
	// Pin is the eight digit setup code.
	Pin string
	// Port is the HAP listen port. Zero picks a free port.
	Port int
	// StoragePath holds the hap pairing state.
	StoragePath string
	// Store persists registered shells. Nil disables persistence.
	Store accessory.Store
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
	// Version is reported as the bridge firmware revision.
	Version string
}

// Host serves registered shells from a hap server.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Run must be called at most once.
type Host struct {
	cfg      Config
	debounce time.Duration
	logger   Logger

	mu     sync.Mutex
	shells map[string]*accessory.Shell // by UUID
	timer  *time.Timer

	rebuild chan struct{}
}

var _ platform.Host = (*Host)(nil)

// New creates a Host.
func New(cfg Config) *Host {
	return &Host{
		cfg:      cfg,
		debounce: cmp.Or(cfg.Debounce, DefaultDebounce),
		logger:   noopLogger{},
		shells:   make(map[string]*accessory.Shell),
		rebuild:  make(chan struct{}, 1),
	}
}

// SetLogger sets the logger for the host.
func (h *Host) SetLogger(logger Logger) {
	h.logger = logger
}

// Load reads the persisted shells and adds them to the served set. The
// shells are returned for the platform to restore; they have no services
// until they are rebound.
func (h *Host) Load(ctx context.Context) ([]*accessory.Shell, error) {
	if h.cfg.Store == nil {
		return nil, nil
	}
	shells, err := h.cfg.Store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading accessories: %w", err)
	}

	h.mu.Lock()
	for _, s := range shells {
		h.add(s)
	}
	h.mu.Unlock()

	h.logger.Info("accessories loaded", "count", len(shells))
	return shells, nil
}

// Register implements platform.Host. The batch is rejected as a whole if
// any shell's accessory ID is taken by a different UUID.
func (h *Host) Register(ctx context.Context, shells []*accessory.Shell) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.checkAIDs(shells); err != nil {
		return err
	}
	if h.cfg.Store != nil {
		if err := h.cfg.Store.Save(ctx, shells...); err != nil {
			return fmt.Errorf("saving accessories: %w", err)
		}
	}
	for _, s := range shells {
		h.add(s)
	}
	h.scheduleLocked()
	return nil
}

// Unregister implements platform.Host.
func (h *Host) Unregister(ctx context.Context, shells []*accessory.Shell) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	uuids := make([]string, len(shells))
	for i, s := range shells {
		uuids[i] = s.UUID
	}
	if h.cfg.Store != nil {
		if err := h.cfg.Store.Delete(ctx, uuids...); err != nil {
			return fmt.Errorf("deleting accessories: %w", err)
		}
	}
	for _, s := range shells {
		s.OnServicesChanged(nil)
		delete(h.shells, s.UUID)
	}
	h.scheduleLocked()
	return nil
}

// Shells returns the served shells ordered by accessory ID.
func (h *Host) Shells() []*accessory.Shell {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sortedLocked()
}

// Run serves the accessories until ctx is cancelled. The server is rebuilt
// whenever the accessory set changes.
func (h *Host) Run(ctx context.Context) error {
	bridge := hapaccessory.NewBridge(hapaccessory.Info{
		Name:         h.cfg.Name,
		Manufacturer: "Nature",
		Model:        "remo-bridge",
		Firmware:     h.cfg.Version,
	})
	bridge.A.Id = 1

	for {
		select {
		case <-h.rebuild:
		default:
		}

		served, unlink := h.build()
		server, err := hap.NewServer(hap.NewFsStore(h.cfg.StoragePath), bridge.A, served...)
		if err != nil {
			unlink()
			return fmt.Errorf("creating HAP server: %w", err)
		}
		server.Pin = h.cfg.Pin
		server.Addr = fmt.Sprintf(":%d", h.cfg.Port)

		serverBuildsTotal.Inc()
		servedAccessories.Set(float64(len(served)))
		h.logger.Info("HAP server starting", "accessories", len(served), "port", h.cfg.Port)

		serveCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- server.ListenAndServe(serveCtx) }()

		select {
		case <-ctx.Done():
			cancel()
			<-done
			unlink()
			return nil
		case err := <-done:
			cancel()
			unlink()
			if err == nil || errors.Is(err, context.Canceled) {
				err = errors.New("server stopped")
			}
			return fmt.Errorf("HAP server: %w", err)
		case <-h.rebuild:
			cancel()
			<-done
			unlink()
			h.logger.Info("HAP server rebuilding")
		}
	}
}

// add tracks s and hooks its service changes. Callers hold h.mu.
func (h *Host) add(s *accessory.Shell) {
	h.shells[s.UUID] = s
	s.OnServicesChanged(h.servicesChanged)
}

func (h *Host) servicesChanged(s *accessory.Shell) {
	h.logger.Debug(accessory.Tag(s.Category, s.DisplayName(), "services changed"))
	h.mu.Lock()
	h.scheduleLocked()
	h.mu.Unlock()
}

// scheduleLocked arms or pushes back the rebuild timer. Callers hold h.mu.
func (h *Host) scheduleLocked() {
	if h.timer != nil {
		h.timer.Reset(h.debounce)
		return
	}
	h.timer = time.AfterFunc(h.debounce, func() {
		select {
		case h.rebuild <- struct{}{}:
		default:
		}
	})
}

func (h *Host) checkAIDs(shells []*accessory.Shell) error {
	owners := make(map[uint64]string, len(h.shells)+len(shells))
	for uuid, s := range h.shells {
		owners[s.AID()] = uuid
	}
	for _, s := range shells {
		aid := s.AID()
		if owner, ok := owners[aid]; ok && owner != s.UUID {
			return fmt.Errorf("%w: aid %d for %s and %s", accessory.ErrAIDCollision, aid, owner, s.UUID)
		}
		owners[aid] = s.UUID
	}
	return nil
}

func (h *Host) sortedLocked() []*accessory.Shell {
	out := make([]*accessory.Shell, 0, len(h.shells))
	for _, s := range h.shells {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *accessory.Shell) int { return cmp.Compare(a.AID(), b.AID()) })
	return out
}

// build translates every shell into a hap accessory. unlink detaches the
// shells from the built accessories.
func (h *Host) build() (served []*hapaccessory.A, unlink func()) {
	h.mu.Lock()
	shells := h.sortedLocked()
	h.mu.Unlock()

	var links []*built
	for _, s := range shells {
		b := h.buildAccessory(s)
		links = append(links, b)
		served = append(served, b.a)
	}
	return served, func() {
		for _, b := range links {
			b.unlink()
		}
	}
}

// linked is one shell characteristic paired with its hap counterpart.
type linked struct {
	service accessory.ServiceKind
	kind    accessory.CharacteristicKind
	hap     hapChar
	// write is the handler installed for controller writes.
	write  func(any) error
	cancel func()
}

type built struct {
	a     *hapaccessory.A
	chars []*linked
}

func (b *built) unlink() {
	for _, l := range b.chars {
		l.cancel()
	}
}

func (h *Host) buildAccessory(s *accessory.Shell) *built {
	a := hapaccessory.New(hapaccessory.Info{Name: s.DisplayName()}, byte(s.Category))
	a.Id = s.AID()
	b := &built{a: a}
	byKind := make(map[accessory.ServiceKind]*service.S)

	infoChars := map[accessory.CharacteristicKind]hapChar{
		accessory.CharManufacturer:     stringChar(a.Info.Manufacturer.String),
		accessory.CharModel:            stringChar(a.Info.Model.String),
		accessory.CharSerialNumber:     stringChar(a.Info.SerialNumber.String),
		accessory.CharFirmwareRevision: stringChar(a.Info.FirmwareRevision.String),
	}

	for _, svc := range s.Services() {
		if svc.Kind == accessory.ServiceAccessoryInformation {
			for _, c := range svc.Characteristics() {
				if hc, ok := infoChars[c.Kind]; ok {
					b.chars = append(b.chars, h.link(s, svc.Kind, c, hc))
				}
			}
			continue
		}

		typ, ok := serviceTypes[svc.Kind]
		if !ok {
			h.logger.Warn(accessory.Tag(s.Category, s.DisplayName(), "unsupported service"), "service", string(svc.Kind))
			continue
		}
		hs := service.New(typ)
		for _, c := range svc.Characteristics() {
			hc, ok := newHAPChar(c.Kind)
			if !ok {
				h.logger.Warn(accessory.Tag(s.Category, s.DisplayName(), "unsupported characteristic"),
					"service", string(svc.Kind), "characteristic", string(c.Kind))
				continue
			}
			hc.props(c.Props())
			hs.AddC(hc.c)
			b.chars = append(b.chars, h.link(s, svc.Kind, c, hc))
		}
		a.AddS(hs)
		byKind[svc.Kind] = hs
	}

	// Controllers only show the speaker when the television links it.
	if tv, ok := byKind[accessory.ServiceTelevision]; ok {
		tv.Primary = true
		if speaker, ok := byKind[accessory.ServiceTelevisionSpeaker]; ok {
			tv.AddS(speaker)
		}
	}
	return b
}

// link pushes the shell value to hap now and on every update, and routes
// controller writes to the shell. A rejected write is reported to the
// controller, which keeps its previous value.
func (h *Host) link(s *accessory.Shell, svc accessory.ServiceKind, c *accessory.Characteristic, hc hapChar) *linked {
	if v := c.Value(); v != nil {
		hc.set(v)
	}
	l := &linked{
		service: svc,
		kind:    c.Kind,
		hap:     hc,
		cancel:  c.Observe(hc.set),
	}
	l.write = func(v any) error {
		if err := c.Set(v); err != nil {
			remoteWritesTotal.WithLabelValues(string(c.Kind), "error").Inc()
			h.logger.Warn(accessory.Tag(s.Category, s.DisplayName(), "write rejected"),
				"characteristic", string(c.Kind), "value", v, "error", err)
			return err
		}
		remoteWritesTotal.WithLabelValues(string(c.Kind), "ok").Inc()
		h.logger.Debug(accessory.Tag(s.Category, s.DisplayName(), "write"),
			"characteristic", string(c.Kind), "value", v)
		return nil
	}
	hc.onWrite(l.write)
	return l
}
