package appliance

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/nerrad567/remo-bridge/internal/accessory"
	"github.com/nerrad567/remo-bridge/internal/poller"
	"github.com/nerrad567/remo-bridge/internal/remo"
)

const (
	// writeTimeout bounds one aircon_settings round trip.
	writeTimeout = 15 * time.Second

	// Bounds used when the range lists no usable temperature.
	defaultMinTemperature = 10
	defaultMaxTemperature = 38

	volumeAuto = "auto"
)

// volumePercent maps vendor fan volumes onto TargetRelativeHumidity, which
// stands in for a fan speed control.
var volumePercent = map[string]int{
	volumeAuto: 0,
	"1":        25,
	"2":        50,
	"3":        75,
	"4":        100,
}

// AirconState is the controller-facing view of an air conditioner.
type AirconState struct {
	TargetMode        int
	CurrentMode       int
	TargetTemperature float64
	TargetVolume      int
	TempUnit          int
}

// Aircon exposes an AC appliance as a thermostat.
//
// Thread Safety:
//   - Writes are serialised per adapter.
//   - State reads are safe from any goroutine.
type Aircon struct {
	shell       *accessory.Shell
	thermostat  *accessory.Service
	gateway     remo.Gateway
	logger      Logger
	ctx         context.Context
	applianceID string
	nickname    string
	deviceID    string
	tempUnit    string
	minTemp     float64
	maxTemp     float64

	writeMu sync.Mutex

	mu       sync.Mutex
	settings remo.AirconSettings
	state    AirconState

	unsubscribe func()
}

// AirconConfig carries the collaborators of an Aircon adapter.
type AirconConfig struct {
	Gateway remo.Gateway
	// Devices feeds current temperature and humidity. Optional.
	Devices *poller.Subject[[]remo.Device]
	Logger  Logger
	// Context is the parent of every gateway call. Defaults to Background.
	Context context.Context
}

// BindAircon fills shell with a thermostat for appliance and installs the
// write handlers. It fails if the appliance carries no settings or range.
func BindAircon(shell *accessory.Shell, appliance remo.Appliance, cfg AirconConfig) (*Aircon, error) {
	if appliance.Settings == nil || appliance.Aircon == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingSettings, appliance.ID)
	}

	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}

	a := &Aircon{
		shell:       shell,
		gateway:     cfg.Gateway,
		logger:      orNoop(cfg.Logger),
		ctx:         ctx,
		applianceID: appliance.ID,
		nickname:    appliance.Nickname,
		deviceID:    appliance.Device.ID,
		tempUnit:    appliance.Aircon.TempUnit,
		minTemp:     MinTemperature(appliance.Aircon.Range),
		maxTemp:     MaxTemperature(appliance.Aircon.Range),
		settings:    *appliance.Settings,
	}
	a.state = DeriveAirconState(a.settings, a.tempUnit, a.minTemp)

	info := accessory.Information{
		Manufacturer:     manufacturerNature,
		Model:            appliance.Device.Model(),
		FirmwareRevision: appliance.Device.FirmwareVersion,
	}
	if m := appliance.Model; m != nil {
		info.Manufacturer = m.Manufacturer
		info.Model = m.Name
		info.SerialNumber = m.Series
	}
	shell.SetInformation(info)

	a.thermostat = shell.EnsureService(accessory.ServiceThermostat, appliance.Nickname)
	a.thermostat.Characteristic(accessory.CharName).UpdateValue(appliance.Nickname)

	a.thermostat.Characteristic(accessory.CharTargetHeatingCoolingState).
		OnSet(a.handleTargetMode)
	a.thermostat.Characteristic(accessory.CharTargetTemperature).
		SetProps(accessory.Props{
			Min:  accessory.Ptr(a.minTemp),
			Max:  accessory.Ptr(a.maxTemp),
			Step: accessory.Ptr(1),
		}).
		OnSet(a.handleTargetTemperature)
	a.thermostat.Characteristic(accessory.CharTargetRelativeHumidity).
		SetProps(accessory.Props{
			Min:  accessory.Ptr(0),
			Max:  accessory.Ptr(100),
			Step: accessory.Ptr(25),
		}).
		OnSet(a.handleTargetVolume)
	a.thermostat.Characteristic(accessory.CharCurrentTemperature)
	a.push(a.state)

	if cfg.Devices != nil {
		a.unsubscribe = cfg.Devices.Subscribe(a.onDevices)
	}

	a.logger.Debug(accessory.Tag(shell.Category, a.nickname, "setup aircon"),
		"mode", string(a.settings.Mode), "temp", a.settings.Temp, "vol", a.settings.Vol)
	return a, nil
}

// Close implements platform.Adapter.
func (a *Aircon) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

// State returns the last derived state.
func (a *Aircon) State() AirconState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Settings returns the last vendor-reported settings.
func (a *Aircon) Settings() remo.AirconSettings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings
}

// SetTargetMode sends a mode change. OFF keeps the current vendor mode and
// adds the power-off button, since the vendor requires a mode on every
// write.
func (a *Aircon) SetTargetMode(mode int) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	current := a.Settings()
	params := remo.AirconSettingsParams{}
	switch mode {
	case TargetAuto:
		params.OperationMode = remo.ModeDry
	case TargetHeat:
		params.OperationMode = remo.ModeWarm
	case TargetCool:
		params.OperationMode = remo.ModeCool
	case TargetOff:
		params.OperationMode = current.Mode
		params.Button = remo.ButtonPowerOff
	default:
		return fmt.Errorf("%w: target mode %d", ErrInvalidValue, mode)
	}

	a.log("TargetHeatingCoolingState", "value", mode)
	return a.send(params)
}

// SetTargetTemperature sends a new target temperature along with the
// current mode, vanes and volume. The local target is updated before the
// call so reads reflect it until the vendor answers, and restored if the
// vendor rejects the write.
func (a *Aircon) SetTargetTemperature(celsius float64) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	current := a.Settings()
	target := a.thermostat.Characteristic(accessory.CharTargetTemperature)

	a.mu.Lock()
	previous := a.state.TargetTemperature
	a.state.TargetTemperature = celsius
	a.mu.Unlock()
	target.UpdateValue(celsius)

	a.log("TargetTemperature", "value", celsius)
	err := a.send(remo.AirconSettingsParams{
		Temperature:   strconv.Itoa(int(math.Round(celsius))),
		Dir:           current.Dir,
		DirH:          current.DirH,
		OperationMode: current.Mode,
		Volume:        current.Vol,
	})
	if err != nil {
		a.mu.Lock()
		restore := a.state.TargetTemperature == celsius
		if restore {
			a.state.TargetTemperature = previous
		}
		a.mu.Unlock()
		if restore {
			target.UpdateValue(previous)
		}
	}
	return err
}

// SetTargetVolume sends a fan volume given as a TargetRelativeHumidity
// percentage along with the current temperature, mode and vanes.
func (a *Aircon) SetTargetVolume(percent int) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	current := a.Settings()
	a.log("TargetRelativeHumidity", "value", percent)
	return a.send(remo.AirconSettingsParams{
		Temperature:   current.Temp,
		Dir:           current.Dir,
		DirH:          current.DirH,
		OperationMode: current.Mode,
		Volume:        VolumeFromPercent(percent),
	})
}

// send performs the write and, on success, replaces settings and state
// with what the vendor returned.
func (a *Aircon) send(params remo.AirconSettingsParams) error {
	ctx, cancel := context.WithTimeout(a.ctx, writeTimeout)
	defer cancel()

	settings := a.gateway.UpdateAirconSettings(ctx, a.applianceID, params)
	if settings == nil {
		a.logger.Warn(accessory.Tag(a.shell.Category, a.nickname, "aircon settings not applied"),
			"operation_mode", string(params.OperationMode), "button", params.Button)
		return ErrWriteFailed
	}

	state := DeriveAirconState(*settings, a.tempUnit, a.minTemp)
	a.mu.Lock()
	a.settings = *settings
	a.state = state
	a.mu.Unlock()

	a.push(state)
	return nil
}

// push publishes state onto the thermostat characteristics.
func (a *Aircon) push(s AirconState) {
	a.thermostat.Characteristic(accessory.CharTargetHeatingCoolingState).UpdateValue(s.TargetMode)
	a.thermostat.Characteristic(accessory.CharCurrentHeatingCoolingState).UpdateValue(s.CurrentMode)
	a.thermostat.Characteristic(accessory.CharTargetTemperature).UpdateValue(s.TargetTemperature)
	a.thermostat.Characteristic(accessory.CharTargetRelativeHumidity).UpdateValue(float64(s.TargetVolume))
	a.thermostat.Characteristic(accessory.CharTemperatureDisplayUnits).UpdateValue(s.TempUnit)
}

// onDevices pushes the room readings of the unit the AC is attached to.
func (a *Aircon) onDevices(devices []remo.Device) {
	for i := range devices {
		d := &devices[i]
		if d.ID != a.deviceID {
			continue
		}
		if te := d.NewestEvents.Temperature; te != nil {
			a.thermostat.Characteristic(accessory.CharCurrentTemperature).UpdateValue(te.Val)
		}
		if hu := d.NewestEvents.Humidity; hu != nil && !d.IsMini() {
			a.thermostat.Characteristic(accessory.CharCurrentRelativeHumidity).UpdateValue(hu.Val)
		}
		return
	}
}

func (a *Aircon) handleTargetMode(v any) error {
	mode, ok := accessory.Int(v)
	if !ok {
		return fmt.Errorf("%w: %v", ErrInvalidValue, v)
	}
	return a.SetTargetMode(mode)
}

func (a *Aircon) handleTargetTemperature(v any) error {
	t, ok := accessory.Float(v)
	if !ok {
		return fmt.Errorf("%w: %v", ErrInvalidValue, v)
	}
	return a.SetTargetTemperature(t)
}

func (a *Aircon) handleTargetVolume(v any) error {
	p, ok := accessory.Float(v)
	if !ok {
		return fmt.Errorf("%w: %v", ErrInvalidValue, v)
	}
	return a.SetTargetVolume(int(math.Round(p)))
}

func (a *Aircon) log(msg string, args ...any) {
	a.logger.Debug(accessory.Tag(a.shell.Category, a.nickname, msg), args...)
}

// DeriveAirconState computes the controller-facing state from vendor
// settings. dry has no HomeKit counterpart and is shown as AUTO. A temp of
// "0" is replaced by minTemp. tempUnit is the appliance's unit, used when
// the settings do not carry one.
func DeriveAirconState(s remo.AirconSettings, tempUnit string, minTemp float64) AirconState {
	state := AirconState{
		TargetTemperature: minTemp,
		TargetVolume:      VolumePercent(s.Vol),
		TempUnit:          UnitFahrenheit,
	}

	if s.Temp != "0" {
		if t, err := strconv.ParseFloat(s.Temp, 64); err == nil {
			state.TargetTemperature = t
		}
	}

	unit := s.TempUnit
	if unit == "" {
		unit = tempUnit
	}
	if unit == "c" {
		state.TempUnit = UnitCelsius
	}

	switch s.Mode {
	case remo.ModeWarm:
		state.TargetMode, state.CurrentMode = TargetHeat, CurrentHeat
	case remo.ModeCool:
		state.TargetMode, state.CurrentMode = TargetCool, CurrentCool
	case remo.ModeDry:
		state.TargetMode, state.CurrentMode = TargetAuto, CurrentCool
	default:
		state.TargetMode, state.CurrentMode = TargetAuto, CurrentOff
	}

	if s.Button == remo.ButtonPowerOff {
		state.TargetMode, state.CurrentMode = TargetOff, CurrentOff
	}
	return state
}

// MinTemperature returns the lowest temperature any mode accepts. "0"
// entries mean "no target" and are ignored.
func MinTemperature(r remo.AirconRange) float64 {
	lowest, found := math.Inf(1), false
	for _, mode := range r.Modes {
		for _, raw := range mode.Temp {
			t, err := strconv.ParseFloat(raw, 64)
			if err != nil || t == 0 {
				continue
			}
			lowest, found = min(lowest, t), true
		}
	}
	if !found {
		return defaultMinTemperature
	}
	return lowest
}

// MaxTemperature returns the highest temperature any mode accepts.
func MaxTemperature(r remo.AirconRange) float64 {
	highest, found := math.Inf(-1), false
	for _, mode := range r.Modes {
		for _, raw := range mode.Temp {
			t, err := strconv.ParseFloat(raw, 64)
			if err != nil || t == 0 {
				continue
			}
			highest, found = max(highest, t), true
		}
	}
	if !found {
		return defaultMaxTemperature
	}
	return highest
}

// VolumePercent maps a vendor volume to its percentage step. Unknown values
// map to 0 like auto.
func VolumePercent(vol string) int {
	return volumePercent[vol]
}

// VolumeFromPercent maps a percentage step back to a vendor volume. Values
// that are not an exact step map to auto.
func VolumeFromPercent(percent int) string {
	for vol, p := range volumePercent {
		if p == percent {
			return vol
		}
	}
	return volumeAuto
}
