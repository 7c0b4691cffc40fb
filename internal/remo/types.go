package remo

import (
	"slices"
	"strings"
	"time"
)

// ApplianceType discriminates the Appliance union.
type ApplianceType string

const (
	ApplianceTypeIR       ApplianceType = "IR"
	ApplianceTypeAC       ApplianceType = "AC"
	ApplianceTypeQrioLock ApplianceType = "QRIO_LOCK"
)

// OperationMode is an air conditioner mode as named by the vendor.
type OperationMode string

const (
	ModeCool OperationMode = "cool"
	ModeDry  OperationMode = "dry"
	ModeWarm OperationMode = "warm"
)

// ButtonPowerOff is the settings button value meaning the unit is off.
const ButtonPowerOff = "power-off"

// miniFirmwareMarker identifies the temperature-only Remo mini hardware.
const miniFirmwareMarker = "Remo-mini"

// SensorValue is one reading from a device's newest_events map.
type SensorValue struct {
	Val       float64   `json:"val"`
	CreatedAt time.Time `json:"created_at"`
}

// NewestEvents holds the latest reading per sensor. Temperature is reported
// by every device; the others only by full-size Remo hardware.
type NewestEvents struct {
	Temperature *SensorValue `json:"te,omitempty"`
	Humidity    *SensorValue `json:"hu,omitempty"`
	Illuminance *SensorValue `json:"il,omitempty"`
	Movement    *SensorValue `json:"mo,omitempty"`
}

// Device is a physical Remo unit.
type Device struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	FirmwareVersion   string       `json:"firmware_version"`
	MacAddress        string       `json:"mac_address"`
	BTMacAddress      string       `json:"bt_mac_address"`
	SerialNumber      string       `json:"serial_number"`
	TemperatureOffset float64      `json:"temperature_offset"`
	HumidityOffset    float64      `json:"humidity_offset"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
	NewestEvents      NewestEvents `json:"newest_events"`
}

// IsMini reports whether the device is a Remo mini, which only has a
// temperature sensor. A nil device is treated as mini so callers never
// publish readings they cannot vouch for.
func (d *Device) IsMini() bool {
	if d == nil {
		return true
	}
	return strings.Contains(d.FirmwareVersion, miniFirmwareMarker)
}

// Model returns the hardware name part of the firmware string,
// "Remo/1.12.1" -> "Remo".
func (d *Device) Model() string {
	if d == nil {
		return ""
	}
	model, _, _ := strings.Cut(d.FirmwareVersion, "/")
	return model
}

// Firmware returns the version part of the firmware string,
// "Remo/1.12.1" -> "1.12.1".
func (d *Device) Firmware() string {
	if d == nil {
		return ""
	}
	_, version, _ := strings.Cut(d.FirmwareVersion, "/")
	return version
}

// ApplianceModel is the vendor's catalogue entry for an appliance.
type ApplianceModel struct {
	ID           string `json:"id"`
	Country      string `json:"country"`
	Manufacturer string `json:"manufacturer"`
	RemoteName   string `json:"remote_name"`
	Series       string `json:"series"`
	Name         string `json:"name"`
	Image        string `json:"image"`
}

// AirconSettings is the full current state of an air conditioner. Temp is
// "0" when the mode has no target temperature (dry on most models).
type AirconSettings struct {
	Temp      string        `json:"temp"`
	TempUnit  string        `json:"temp_unit"`
	Mode      OperationMode `json:"mode"`
	Vol       string        `json:"vol"`
	Dir       string        `json:"dir"`
	DirH      string        `json:"dirh"`
	Button    string        `json:"button"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// PoweredOff reports whether the settings describe a unit that is off.
func (s *AirconSettings) PoweredOff() bool {
	return s != nil && s.Button == ButtonPowerOff
}

// AirconRangeMode lists the legal values for one operation mode.
type AirconRangeMode struct {
	Temp []string `json:"temp"`
	Dir  []string `json:"dir"`
	DirH []string `json:"dirh"`
	Vol  []string `json:"vol"`
}

// AirconRange enumerates the legal settings per mode.
type AirconRange struct {
	Modes        map[OperationMode]AirconRangeMode `json:"modes"`
	FixedButtons []string                          `json:"fixedButtons"`
}

// Aircon is the capability block of an AC appliance.
type Aircon struct {
	Range    AirconRange `json:"range"`
	TempUnit string      `json:"tempUnit"`
}

// Signal is a learned infrared command.
type Signal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// QrioLock is the lock block of a QRIO_LOCK appliance. Locks are listed but
// never exposed as accessories.
type QrioLock struct {
	BDAddress   string `json:"bd_address"`
	IsAvailable bool   `json:"is_available"`
}

// Appliance is a controllable entity attached to a Device.
type Appliance struct {
	ID       string          `json:"id"`
	Type     ApplianceType   `json:"type"`
	Nickname string          `json:"nickname"`
	Image    string          `json:"image"`
	Device   Device          `json:"device"`
	Model    *ApplianceModel `json:"model,omitempty"`

	// AC
	Settings *AirconSettings `json:"settings,omitempty"`
	Aircon   *Aircon         `json:"aircon,omitempty"`

	// IR
	Signals []Signal `json:"signals,omitempty"`

	// QRIO_LOCK
	QrioLock *QrioLock `json:"qrio_lock,omitempty"`
}

// SignalByName returns the learned signal with the given name.
func (a *Appliance) SignalByName(name string) (Signal, bool) {
	i := slices.IndexFunc(a.Signals, func(s Signal) bool { return s.Name == name })
	if i < 0 {
		return Signal{}, false
	}
	return a.Signals[i], true
}

// AirconSettingsParams is a partial settings update. Empty fields are not
// sent, except Button, whose empty value means "power on / no button".
type AirconSettingsParams struct {
	Button        string
	Dir           string
	DirH          string
	OperationMode OperationMode
	Temperature   string
	Volume        string
}
