package appliance

import (
	"github.com/nerrad567/remo-bridge/internal/accessory"
	"github.com/nerrad567/remo-bridge/internal/remo"
)

// Sensor publishes the readings of one Remo unit. It never writes.
type Sensor struct {
	shell  *accessory.Shell
	logger Logger
}

// BindSensor fills shell with the services for device and pushes its
// current readings. Humidity and light services are only created for
// hardware that reports them.
func BindSensor(shell *accessory.Shell, device remo.Device, logger Logger) *Sensor {
	s := &Sensor{shell: shell, logger: orNoop(logger)}
	s.logger.Debug(accessory.Tag(shell.Category, device.Name, "setup sensor"))

	shell.SetInformation(accessory.Information{
		Manufacturer:     manufacturerNature,
		Model:            device.Model(),
		SerialNumber:     device.SerialNumber,
		FirmwareRevision: device.FirmwareVersion,
	})

	temp := namedService(shell, accessory.ServiceTemperatureSensor, device.Name+" 温度計")
	if te := device.NewestEvents.Temperature; te != nil {
		temp.Characteristic(accessory.CharCurrentTemperature).UpdateValue(te.Val)
	}

	if device.IsMini() {
		return s
	}

	humidity := namedService(shell, accessory.ServiceHumiditySensor, device.Name+" 湿度計")
	if hu := device.NewestEvents.Humidity; hu != nil {
		humidity.Characteristic(accessory.CharCurrentRelativeHumidity).UpdateValue(hu.Val)
	}

	light := namedService(shell, accessory.ServiceLightSensor, device.Name+" 照度計")
	if il := device.NewestEvents.Illuminance; il != nil {
		light.Characteristic(accessory.CharCurrentAmbientLightLevel).UpdateValue(LightLevel(il.Val))
	}

	return s
}

// Close implements platform.Adapter. Sensors hold no subscriptions.
func (s *Sensor) Close() {}

// LightLevel maps a zero illuminance reading to the HAP minimum, since
// HomeKit rejects a literal 0 for ambient light. Other readings pass
// through.
func LightLevel(v float64) float64 {
	if v == 0 {
		return minLightLevel
	}
	return v
}
