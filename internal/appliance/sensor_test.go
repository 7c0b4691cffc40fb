package appliance

import (
	"testing"

	"github.com/nerrad567/remo-bridge/internal/accessory"
	"github.com/nerrad567/remo-bridge/internal/remo"
)

func reading(v float64) *remo.SensorValue {
	return &remo.SensorValue{Val: v}
}

func TestBindSensor_FullRemo(t *testing.T) {
	device := remo.Device{
		ID:              "d1",
		Name:            "寝室",
		FirmwareVersion: "Remo/1.12.1",
		SerialNumber:    "1W321030001678",
		NewestEvents: remo.NewestEvents{
			Temperature: reading(19.1),
			Humidity:    reading(52),
			Illuminance: reading(120),
		},
	}
	shell := accessory.NewShell(device.ID, device.Name, accessory.CategorySensor)
	BindSensor(shell, device, nil)

	checks := []struct {
		service accessory.ServiceKind
		name    string
		char    accessory.CharacteristicKind
		want    float64
	}{
		{accessory.ServiceTemperatureSensor, "寝室 温度計", accessory.CharCurrentTemperature, 19.1},
		{accessory.ServiceHumiditySensor, "寝室 湿度計", accessory.CharCurrentRelativeHumidity, 52},
		{accessory.ServiceLightSensor, "寝室 照度計", accessory.CharCurrentAmbientLightLevel, 120},
	}
	for _, c := range checks {
		svc, ok := shell.Service(c.service)
		if !ok {
			t.Errorf("missing service %s", c.service)
			continue
		}
		if svc.Name != c.name {
			t.Errorf("%s name = %q, want %q", c.service, svc.Name, c.name)
		}
		if got, _ := svc.Characteristic(c.char).Float(); got != c.want {
			t.Errorf("%s = %v, want %v", c.char, got, c.want)
		}
	}

	info := shell.Info()
	if got := info.Characteristic(accessory.CharManufacturer).Value(); got != "Nature" {
		t.Errorf("Manufacturer = %v, want Nature", got)
	}
	if got := info.Characteristic(accessory.CharModel).Value(); got != "Remo" {
		t.Errorf("Model = %v, want Remo", got)
	}
}

func TestBindSensor_IlluminanceClamp(t *testing.T) {
	device := remo.Device{
		ID:              "d1",
		Name:            "寝室",
		FirmwareVersion: "Remo/1.12.1",
		NewestEvents: remo.NewestEvents{
			Temperature: reading(19.1),
			Humidity:    reading(0),
			Illuminance: reading(0),
		},
	}
	shell := accessory.NewShell(device.ID, device.Name, accessory.CategorySensor)
	BindSensor(shell, device, nil)

	light, _ := shell.Service(accessory.ServiceLightSensor)
	got, _ := light.Characteristic(accessory.CharCurrentAmbientLightLevel).Float()
	if got <= 0 || got != minLightLevel {
		t.Errorf("light level = %v, want %v", got, minLightLevel)
	}

	humidity, _ := shell.Service(accessory.ServiceHumiditySensor)
	if v, _ := humidity.Characteristic(accessory.CharCurrentRelativeHumidity).Float(); v != 0 {
		t.Errorf("humidity = %v, want 0 passed through", v)
	}
}

func TestLightLevel(t *testing.T) {
	tests := map[float64]float64{0: minLightLevel, 0.5: 0.5, 100: 100}
	for in, want := range tests {
		if got := LightLevel(in); got != want {
			t.Errorf("LightLevel(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestBindSensor_MiniNeverGetsHumidityOrLight(t *testing.T) {
	// A malformed snapshot where a mini reports readings it has no sensor for.
	device := remo.Device{
		ID:              "d2",
		Name:            "リビング",
		FirmwareVersion: "Remo-mini/1.11.2",
		NewestEvents: remo.NewestEvents{
			Temperature: reading(22.3),
			Humidity:    reading(40),
			Illuminance: reading(80),
		},
	}
	shell := accessory.NewShell(device.ID, device.Name, accessory.CategorySensor)

	var updates []accessory.CharacteristicKind
	for range 2 {
		BindSensor(shell, device, nil)
		for _, svc := range shell.Services() {
			for _, c := range svc.Characteristics() {
				if c.Value() != nil {
					updates = append(updates, c.Kind)
				}
			}
		}
	}

	for _, kind := range updates {
		if kind == accessory.CharCurrentRelativeHumidity || kind == accessory.CharCurrentAmbientLightLevel {
			t.Errorf("mini received %s", kind)
		}
	}
	if _, ok := shell.Service(accessory.ServiceHumiditySensor); ok {
		t.Error("mini has a humidity service")
	}
	if _, ok := shell.Service(accessory.ServiceLightSensor); ok {
		t.Error("mini has a light service")
	}
	temp, _ := shell.Service(accessory.ServiceTemperatureSensor)
	if got, _ := temp.Characteristic(accessory.CharCurrentTemperature).Float(); got != 22.3 {
		t.Errorf("temperature = %v, want 22.3", got)
	}
}

func TestBindSensor_RebindUpdatesReadings(t *testing.T) {
	device := remo.Device{
		ID:              "d1",
		Name:            "寝室",
		FirmwareVersion: "Remo/1.12.1",
		NewestEvents:    remo.NewestEvents{Temperature: reading(19)},
	}
	shell := accessory.NewShell(device.ID, device.Name, accessory.CategorySensor)
	BindSensor(shell, device, nil).Close()

	temp, _ := shell.Service(accessory.ServiceTemperatureSensor)
	var pushed []any
	temp.Characteristic(accessory.CharCurrentTemperature).Observe(func(v any) { pushed = append(pushed, v) })

	device.NewestEvents.Temperature = reading(21.5)
	BindSensor(shell, device, nil)

	if len(pushed) != 1 || pushed[0] != 21.5 {
		t.Errorf("pushed = %v, want [21.5]", pushed)
	}
}
