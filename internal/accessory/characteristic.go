package accessory

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
)

// CharacteristicKind names a HAP characteristic type.
type CharacteristicKind string

// Characteristic kinds used by the bridge.
const (
	CharName                       CharacteristicKind = "Name"
	CharManufacturer               CharacteristicKind = "Manufacturer"
	CharModel                      CharacteristicKind = "Model"
	CharSerialNumber               CharacteristicKind = "SerialNumber"
	CharFirmwareRevision           CharacteristicKind = "FirmwareRevision"
	CharCurrentTemperature         CharacteristicKind = "CurrentTemperature"
	CharCurrentRelativeHumidity    CharacteristicKind = "CurrentRelativeHumidity"
	CharCurrentAmbientLightLevel   CharacteristicKind = "CurrentAmbientLightLevel"
	CharCurrentHeatingCoolingState CharacteristicKind = "CurrentHeatingCoolingState"
	CharTargetHeatingCoolingState  CharacteristicKind = "TargetHeatingCoolingState"
	CharTargetTemperature          CharacteristicKind = "TargetTemperature"
	CharTargetRelativeHumidity     CharacteristicKind = "TargetRelativeHumidity"
	CharTemperatureDisplayUnits    CharacteristicKind = "TemperatureDisplayUnits"
	CharActive                     CharacteristicKind = "Active"
	CharActiveIdentifier           CharacteristicKind = "ActiveIdentifier"
	CharConfiguredName             CharacteristicKind = "ConfiguredName"
	CharSleepDiscoveryMode         CharacteristicKind = "SleepDiscoveryMode"
	CharRemoteKey                  CharacteristicKind = "RemoteKey"
	CharMute                       CharacteristicKind = "Mute"
	CharVolumeControlType          CharacteristicKind = "VolumeControlType"
	CharVolumeSelector             CharacteristicKind = "VolumeSelector"
)

// Props bounds a numeric characteristic. Nil fields leave the HAP default.
type Props struct {
	Min  *float64
	Max  *float64
	Step *float64
}

// Characteristic is a single readable and possibly writable value of a
// Service.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Handlers and observers run without internal locks held.
type Characteristic struct {
	Kind CharacteristicKind

	mu        sync.Mutex
	value     any
	version   uint64
	props     Props
	onSet     func(any) error
	observers []*observer
}

type observer struct {
	fn     func(any)
	active atomic.Bool
}

func newCharacteristic(kind CharacteristicKind) *Characteristic {
	return &Characteristic{Kind: kind}
}

// Value returns the current value, or nil if none was ever set.
func (c *Characteristic) Value() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Float returns the current value as a float64.
func (c *Characteristic) Float() (float64, bool) {
	return Float(c.Value())
}

// Int returns the current value as an int.
func (c *Characteristic) Int() (int, bool) {
	return Int(c.Value())
}

// Props returns the numeric bounds.
func (c *Characteristic) Props() Props {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.props
}

// SetProps replaces the numeric bounds. Call before the shell is
// registered; the host reads props when it builds the accessory.
func (c *Characteristic) SetProps(p Props) *Characteristic {
	c.mu.Lock()
	c.props = p
	c.mu.Unlock()
	return c
}

// OnSet installs the handler run for controller writes, replacing any
// previous one. Rebinding an accessory installs fresh handlers this way.
func (c *Characteristic) OnSet(fn func(any) error) *Characteristic {
	c.mu.Lock()
	c.onSet = fn
	c.mu.Unlock()
	return c
}

// Writable reports whether a write handler is installed.
func (c *Characteristic) Writable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.onSet != nil
}

// UpdateValue stores v and notifies observers.
func (c *Characteristic) UpdateValue(v any) *Characteristic {
	c.mu.Lock()
	c.value = v
	c.version++
	obs := slices.Clone(c.observers)
	c.mu.Unlock()

	for _, o := range obs {
		if o.active.Load() {
			o.fn(v)
		}
	}
	return c
}

// Set applies a controller write. The handler runs first and its error is
// returned unchanged. On success v is stored unless the handler already
// pushed a value with UpdateValue. Observers are not notified since the
// controller already holds v.
func (c *Characteristic) Set(v any) error {
	c.mu.Lock()
	handler := c.onSet
	before := c.version
	c.mu.Unlock()

	if handler == nil {
		return fmt.Errorf("%w: %s", ErrReadOnly, c.Kind)
	}
	if err := handler(v); err != nil {
		return err
	}

	c.mu.Lock()
	if c.version == before {
		c.value = v
		c.version++
	}
	c.mu.Unlock()
	return nil
}

// Observe registers fn to be called with every UpdateValue. The returned
// func removes it.
func (c *Characteristic) Observe(fn func(any)) (cancel func()) {
	o := &observer{fn: fn}
	o.active.Store(true)

	c.mu.Lock()
	c.observers = append(c.observers, o)
	c.mu.Unlock()

	return func() {
		if !o.active.Swap(false) {
			return
		}
		c.mu.Lock()
		c.observers = slices.DeleteFunc(c.observers, func(x *observer) bool { return x == o })
		c.mu.Unlock()
	}
}

// Float converts a characteristic value to float64.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Int converts a characteristic value to int, truncating floats.
func Int(v any) (int, bool) {
	f, ok := Float(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Ptr returns a pointer to f, for Props literals.
func Ptr(f float64) *float64 {
	return &f
}
