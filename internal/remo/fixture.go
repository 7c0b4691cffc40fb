package remo

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"
)

// Fixture is an in-memory Gateway holding a canned account: two Remo units
// (a full-size Remo and a Remo mini), two projectors learned as IR
// appliances and two air conditioners. Aircon writes are applied to the
// stored settings so reads reflect them.
//
// It backs the --fixture run mode and doubles as a test gateway.
type Fixture struct {
	mu          sync.Mutex
	devices     []Device
	appliances  []Appliance
	failing     bool
	sent        []string
	settingsLog []SettingsCall
	listCalls   map[string]int
}

// SettingsCall records one UpdateAirconSettings invocation.
type SettingsCall struct {
	ApplianceID string
	Params      AirconSettingsParams
}

var _ Gateway = (*Fixture)(nil)

// NewFixture returns a Fixture seeded with the canned account.
func NewFixture() *Fixture {
	return NewFixtureWith(fixtureDevices(), fixtureAppliances())
}

// NewFixtureWith returns a Fixture serving the given lists.
func NewFixtureWith(devices []Device, appliances []Appliance) *Fixture {
	return &Fixture{
		devices:    devices,
		appliances: appliances,
		listCalls:  make(map[string]int),
	}
}

// SetFailing makes every call fail (nil / false) until cleared.
func (f *Fixture) SetFailing(failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = failing
}

// SetDevices replaces the device list served by ListDevices.
func (f *Fixture) SetDevices(devices []Device) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices = devices
}

// SetAppliances replaces the appliance list served by ListAppliances.
func (f *Fixture) SetAppliances(appliances []Appliance) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appliances = appliances
}

// SentSignals returns the signal IDs passed to SendSignal, in order.
func (f *Fixture) SentSignals() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.sent)
}

// SettingsCalls returns every UpdateAirconSettings call, in order.
func (f *Fixture) SettingsCalls() []SettingsCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.settingsLog)
}

// ListCalls returns how many times the named list endpoint
// ("devices" or "appliances") was called.
func (f *Fixture) ListCalls(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls[endpoint]
}

// SendSignal implements Gateway.
func (f *Fixture) SendSignal(_ context.Context, signalID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return false
	}
	f.sent = append(f.sent, signalID)
	return true
}

// UpdateAirconSettings implements Gateway. Non-empty params overwrite the
// stored settings; the button is always applied.
func (f *Fixture) UpdateAirconSettings(_ context.Context, applianceID string, params AirconSettingsParams) *AirconSettings {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settingsLog = append(f.settingsLog, SettingsCall{ApplianceID: applianceID, Params: params})
	if f.failing {
		return nil
	}

	i := slices.IndexFunc(f.appliances, func(a Appliance) bool { return a.ID == applianceID })
	if i < 0 || f.appliances[i].Settings == nil {
		return nil
	}

	next := *f.appliances[i].Settings
	next.Button = params.Button
	if params.OperationMode != "" {
		next.Mode = params.OperationMode
	}
	if params.Temperature != "" {
		next.Temp = params.Temperature
	}
	if params.Volume != "" {
		next.Vol = params.Volume
	}
	if params.Dir != "" {
		next.Dir = params.Dir
	}
	if params.DirH != "" {
		next.DirH = params.DirH
	}
	next.UpdatedAt = time.Now().UTC()

	f.appliances[i].Settings = &next
	result := next
	return &result
}

// ListDevices implements Gateway.
func (f *Fixture) ListDevices(_ context.Context) []Device {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls[endpointDevices]++
	if f.failing {
		return nil
	}
	out := slices.Clone(f.devices)
	if out == nil {
		out = []Device{}
	}
	return out
}

// ListAppliances implements Gateway.
func (f *Fixture) ListAppliances(_ context.Context) []Appliance {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls[endpointAppliances]++
	if f.failing {
		return nil
	}
	out := make([]Appliance, len(f.appliances))
	for i, a := range f.appliances {
		if a.Settings != nil {
			s := *a.Settings
			a.Settings = &s
		}
		out[i] = a
	}
	return out
}

func fixtureTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s) //nolint:errcheck // Literal timestamps
	return t
}

func fixtureDevices() []Device {
	return []Device{
		{
			ID:              "3386e747-5c21-4c8e-938e-faf9a521cec3",
			Name:            "寝室",
			FirmwareVersion: "Remo/1.12.1",
			MacAddress:      "e8:68:e7:27:c6:08",
			BTMacAddress:    "e8:68:e7:27:c6:0a",
			SerialNumber:    "1W321030001678",
			CreatedAt:       fixtureTime("2021-07-22T10:11:03Z"),
			UpdatedAt:       fixtureTime("2023-03-14T06:57:18Z"),
			NewestEvents: NewestEvents{
				Humidity:    &SensorValue{Val: 52, CreatedAt: fixtureTime("2023-03-15T08:55:59Z")},
				Illuminance: &SensorValue{Val: 0, CreatedAt: fixtureTime("2023-03-15T08:53:25Z")},
				Movement:    &SensorValue{Val: 1, CreatedAt: fixtureTime("2023-03-14T23:32:52Z")},
				Temperature: &SensorValue{Val: 19.1, CreatedAt: fixtureTime("2023-03-15T09:07:00Z")},
			},
		},
		{
			ID:              "7fb65610-3c4e-49c5-b5d9-916216acc7f2",
			Name:            "リビング",
			FirmwareVersion: "Remo-mini/1.11.2",
			MacAddress:      "30:83:98:40:a7:50",
			BTMacAddress:    "30:83:98:40:a7:52",
			SerialNumber:    "2W221050018002",
			CreatedAt:       fixtureTime("2021-06-25T02:22:36Z"),
			UpdatedAt:       fixtureTime("2023-03-13T04:46:02Z"),
			NewestEvents: NewestEvents{
				Temperature: &SensorValue{Val: 22.3, CreatedAt: fixtureTime("2023-03-15T08:54:34Z")},
			},
		},
	}
}

func fixtureAirconRange() *Aircon {
	temps := make([]string, 0, 17)
	for t := 16; t <= 32; t++ {
		temps = append(temps, strconv.Itoa(t))
	}
	vols := []string{"1", "2", "3", "4", "auto"}
	return &Aircon{
		Range: AirconRange{
			Modes: map[OperationMode]AirconRangeMode{
				ModeCool: {Temp: temps, Dir: []string{""}, DirH: []string{""}, Vol: vols},
				ModeDry:  {Temp: []string{"0"}, Dir: []string{""}, DirH: []string{""}, Vol: vols},
				ModeWarm: {Temp: slices.Clone(temps), Dir: []string{""}, DirH: []string{""}, Vol: vols},
			},
			FixedButtons: []string{ButtonPowerOff},
		},
		TempUnit: "c",
	}
}

func fixtureAppliances() []Appliance {
	devices := fixtureDevices()
	bedroom, living := devices[0], devices[1]
	bedroom.NewestEvents, living.NewestEvents = NewestEvents{}, NewestEvents{}

	hitachi := &ApplianceModel{
		ID:           "662B89B3-384D-41F6-90D7-91E2F7E4C2A1",
		Country:      "JP",
		Manufacturer: "hitachi",
		RemoteName:   "rar3b1",
		Series:       "Hitachi AC",
		Name:         "Hitachi AC 001",
		Image:        "ico_ac_1",
	}

	return []Appliance{
		{
			ID:       "95201d2a-370c-4b27-82d5-3b6fa46639cc",
			Type:     ApplianceTypeIR,
			Nickname: "プロジェクター寝室",
			Image:    "ico_tv",
			Device:   bedroom,
			Signals: []Signal{
				{ID: "71638b2f-a29d-411b-9261-78a670bade73", Name: "音量ー", Image: "ico_minus"},
				{ID: "05f7f80c-5d4a-422e-b788-096248c4d3c9", Name: "電源", Image: "ico_io"},
				{ID: "7115c35c-1f63-4e5d-9d11-eadad6f38f16", Name: "音量＋", Image: "ico_plus"},
				{ID: "4ce8a6b5-f67f-40d0-9635-1f6eb633002f", Name: "HDMI", Image: "ico_display"},
				{ID: "0db229d3-3cc2-4069-a7e8-e90270a63c68", Name: "フォーカス", Image: "ico_broadcast"},
			},
		},
		{
			ID:       "99de22f1-5ebc-4acb-8c0d-39676943f713",
			Type:     ApplianceTypeIR,
			Nickname: "プロジェクターリビング",
			Image:    "ico_tv",
			Device:   living,
			Signals: []Signal{
				{ID: "6d7c1349-00e4-460f-9b4f-8cc9f0712b72", Name: "音量ー", Image: "ico_minus"},
				{ID: "b8134480-532f-4bfc-9bae-b77ca02149a5", Name: "電源", Image: "ico_io"},
				{ID: "51c06224-35a5-42ee-9fb7-1ccffe968359", Name: "音量＋", Image: "ico_plus"},
				{ID: "cf1ff5aa-ef25-4ef7-8114-49b244fb32ba", Name: "HDMI", Image: "ico_display"},
				{ID: "d3060f95-c64e-425d-878d-0f9d7bfa20b8", Name: "フォーカス", Image: "ico_broadcast"},
			},
		},
		{
			ID:       "13739842-eebb-4520-b659-5cf362165199",
			Type:     ApplianceTypeAC,
			Nickname: "リビングのエアコン",
			Image:    "ico_ac_1",
			Device:   living,
			Model:    hitachi,
			Settings: &AirconSettings{
				Temp: "0", TempUnit: "c", Mode: ModeDry, Vol: "1",
				UpdatedAt: fixtureTime("2023-03-02T08:55:08Z"),
			},
			Aircon: fixtureAirconRange(),
		},
		{
			ID:       "aec5b55d-8561-41a5-bde7-07facddd713e",
			Type:     ApplianceTypeAC,
			Nickname: "寝室のエアコン",
			Image:    "ico_ac_1",
			Device:   bedroom,
			Model:    hitachi,
			Settings: &AirconSettings{
				Temp: "18", TempUnit: "c", Mode: ModeWarm, Vol: "auto", Button: ButtonPowerOff,
				UpdatedAt: fixtureTime("2023-01-25T12:36:31Z"),
			},
			Aircon: fixtureAirconRange(),
		},
	}
}
