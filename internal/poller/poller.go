package poller

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/remo-bridge/internal/remo"
)

// Resource names used in logs and metrics.
const (
	ResourceDevices = "devices"
	ResourceAircons = "aircons"
	ResourceIRs     = "irs"
)

// DefaultInterval is used when an interval is not configured.
const DefaultInterval = 300 * time.Second

// Logger is the logging interface used by the poller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config configures a Poller.
type Config struct {
	// Gateway is the vendor API. Required.
	Gateway remo.Gateway

	// DevicesInterval is the device polling period. Default: 300s.
	DevicesInterval time.Duration

	// AppliancesInterval is the appliance polling period. Default: 300s.
	AppliancesInterval time.Duration
}

// Poller keeps the latest devices and appliances and publishes them to
// subscribers. Each resource is fetched once per tick regardless of how many
// subscribers it has. A failed fetch publishes nothing, so subscribers keep
// seeing the previous snapshot.
type Poller struct {
	gateway            remo.Gateway
	devicesInterval    time.Duration
	appliancesInterval time.Duration

	// Devices carries every Remo unit.
	Devices *Subject[[]remo.Device]
	// Aircons carries the AC appliances.
	Aircons *Subject[[]remo.Appliance]
	// IRs carries the IR appliances.
	IRs *Subject[[]remo.Appliance]

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

// New creates a Poller. Call Start to begin polling.
func New(cfg Config) *Poller {
	devicesInterval := cfg.DevicesInterval
	if devicesInterval <= 0 {
		devicesInterval = DefaultInterval
	}
	appliancesInterval := cfg.AppliancesInterval
	if appliancesInterval <= 0 {
		appliancesInterval = DefaultInterval
	}

	return &Poller{
		gateway:            cfg.Gateway,
		devicesInterval:    devicesInterval,
		appliancesInterval: appliancesInterval,
		Devices:            NewSubject[[]remo.Device](),
		Aircons:            NewSubject[[]remo.Appliance](),
		IRs:                NewSubject[[]remo.Appliance](),
		done:               make(chan struct{}),
	}
}

// SetLogger sets the logger for this poller.
func (p *Poller) SetLogger(logger Logger) {
	p.loggerMu.Lock()
	p.logger = logger
	p.loggerMu.Unlock()
}

// Start publishes empty snapshots so subscribers can bind straight away,
// then starts one polling loop per resource. Each loop fetches immediately
// and then once per interval until ctx is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) {
	p.Devices.Publish([]remo.Device{})
	p.Aircons.Publish([]remo.Appliance{})
	p.IRs.Publish([]remo.Appliance{})

	p.wg.Add(2)
	go p.loop(ctx, p.devicesInterval, p.RefreshDevices)
	go p.loop(ctx, p.appliancesInterval, p.RefreshAppliances)

	p.logInfo("polling started",
		"devices_interval", p.devicesInterval.String(),
		"appliances_interval", p.appliancesInterval.String(),
	)
}

// Stop ends both polling loops and waits for them. Safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
	})
}

// Refresh fetches both resources now, concurrently, with the same
// publish-on-success semantics as a tick.
func (p *Poller) Refresh(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p.RefreshDevices(gctx)
		return nil
	})
	g.Go(func() error {
		p.RefreshAppliances(gctx)
		return nil
	})
	_ = g.Wait() //nolint:errcheck // Refresh funcs never fail
}

// RefreshDevices fetches the device list and publishes it if the fetch
// succeeded.
func (p *Poller) RefreshDevices(ctx context.Context) {
	devices := p.gateway.ListDevices(ctx)
	if devices == nil {
		staleTotal.WithLabelValues(ResourceDevices).Inc()
		p.logDebug("device fetch failed, keeping previous snapshot")
		return
	}
	p.publish(ResourceDevices, len(devices), func() { p.Devices.Publish(devices) })
}

// RefreshAppliances fetches the appliance list, splits it into AC and IR
// snapshots and publishes both if the fetch succeeded. Other appliance
// types are dropped.
func (p *Poller) RefreshAppliances(ctx context.Context) {
	appliances := p.gateway.ListAppliances(ctx)
	if appliances == nil {
		staleTotal.WithLabelValues(ResourceAircons).Inc()
		staleTotal.WithLabelValues(ResourceIRs).Inc()
		p.logDebug("appliance fetch failed, keeping previous snapshot")
		return
	}

	aircons, irs := SplitAppliances(appliances)
	p.publish(ResourceAircons, len(aircons), func() { p.Aircons.Publish(aircons) })
	p.publish(ResourceIRs, len(irs), func() { p.IRs.Publish(irs) })
}

// SplitAppliances partitions appliances into AC and IR lists. Both results
// are non-nil.
func SplitAppliances(appliances []remo.Appliance) (aircons, irs []remo.Appliance) {
	aircons, irs = []remo.Appliance{}, []remo.Appliance{}
	for _, a := range appliances {
		switch a.Type {
		case remo.ApplianceTypeAC:
			aircons = append(aircons, a)
		case remo.ApplianceTypeIR:
			irs = append(irs, a)
		case remo.ApplianceTypeQrioLock:
		}
	}
	return aircons, irs
}

func (p *Poller) publish(resource string, n int, fn func()) {
	fn()
	publishTotal.WithLabelValues(resource).Inc()
	snapshotSize.WithLabelValues(resource).Set(float64(n))
	p.logDebug("snapshot published", "resource", resource, "items", n)
}

func (p *Poller) loop(ctx context.Context, interval time.Duration, refresh func(context.Context)) {
	defer p.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case <-ticker.C:
			refresh(ctx)
		}
	}
}

func (p *Poller) logInfo(msg string, args ...any) {
	p.loggerMu.RLock()
	logger := p.logger
	p.loggerMu.RUnlock()
	if logger != nil {
		logger.Info(msg, args...)
	}
}

func (p *Poller) logDebug(msg string, args ...any) {
	p.loggerMu.RLock()
	logger := p.logger
	p.loggerMu.RUnlock()
	if logger != nil {
		logger.Debug(msg, args...)
	}
}
