package appliance

import (
	"context"

	"github.com/nerrad567/remo-bridge/internal/accessory"
	"github.com/nerrad567/remo-bridge/internal/platform"
	"github.com/nerrad567/remo-bridge/internal/poller"
	"github.com/nerrad567/remo-bridge/internal/remo"
)

// Binder implements platform.Binder with the adapters of this package.
type Binder struct {
	gateway remo.Gateway
	devices *poller.Subject[[]remo.Device]
	logger  Logger
	ctx     context.Context
}

var _ platform.Binder = (*Binder)(nil)

// BinderConfig configures a Binder.
type BinderConfig struct {
	Gateway remo.Gateway
	// Devices feeds room readings to air conditioners.
	Devices *poller.Subject[[]remo.Device]
	Logger  Logger
	// Context is the parent of every gateway write. Defaults to Background.
	Context context.Context
}

// NewBinder creates a Binder.
func NewBinder(cfg BinderConfig) *Binder {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return &Binder{
		gateway: cfg.Gateway,
		devices: cfg.Devices,
		logger:  orNoop(cfg.Logger),
		ctx:     ctx,
	}
}

// BindSensor implements platform.Binder.
func (b *Binder) BindSensor(shell *accessory.Shell, device remo.Device) (platform.Adapter, error) {
	return BindSensor(shell, device, b.logger), nil
}

// BindAircon implements platform.Binder.
func (b *Binder) BindAircon(shell *accessory.Shell, appliance remo.Appliance) (platform.Adapter, error) {
	a, err := BindAircon(shell, appliance, AirconConfig{
		Gateway: b.gateway,
		Devices: b.devices,
		Logger:  b.logger,
		Context: b.ctx,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// BindTV implements platform.Binder.
func (b *Binder) BindTV(shell *accessory.Shell, appliance remo.Appliance, tv platform.TVConfig) (platform.Adapter, error) {
	return BindTV(shell, appliance, TVConfig{
		Gateway: b.gateway,
		Mapping: tv.Mapping,
		Logger:  b.logger,
		Context: b.ctx,
	}), nil
}
