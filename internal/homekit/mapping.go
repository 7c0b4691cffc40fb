package homekit

import (
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"

	"github.com/nerrad567/remo-bridge/internal/accessory"
)

// hapChar adapts one typed hap characteristic to untyped shell values.
type hapChar struct {
	c       *characteristic.C
	get     func() any
	set     func(any)
	onWrite func(func(any) error)
	props   func(accessory.Props)
}

var serviceTypes = map[accessory.ServiceKind]string{
	accessory.ServiceTemperatureSensor: service.TypeTemperatureSensor,
	accessory.ServiceHumiditySensor:    service.TypeHumiditySensor,
	accessory.ServiceLightSensor:       service.TypeLightSensor,
	accessory.ServiceThermostat:        service.TypeThermostat,
	accessory.ServiceTelevision:        service.TypeTelevision,
	accessory.ServiceTelevisionSpeaker: service.TypeSpeaker,
}

// newHAPChar creates the hap characteristic for kind. Information
// characteristics are not created here; they live on the accessory's own
// information service.
func newHAPChar(kind accessory.CharacteristicKind) (hapChar, bool) {
	switch kind {
	case accessory.CharName:
		return stringChar(characteristic.NewName().String), true
	case accessory.CharConfiguredName:
		return stringChar(characteristic.NewConfiguredName().String), true

	case accessory.CharCurrentTemperature:
		return floatChar(characteristic.NewCurrentTemperature().Float), true
	case accessory.CharCurrentRelativeHumidity:
		return floatChar(characteristic.NewCurrentRelativeHumidity().Float), true
	case accessory.CharCurrentAmbientLightLevel:
		return floatChar(characteristic.NewCurrentAmbientLightLevel().Float), true
	case accessory.CharTargetTemperature:
		return floatChar(characteristic.NewTargetTemperature().Float), true
	case accessory.CharTargetRelativeHumidity:
		return floatChar(characteristic.NewTargetRelativeHumidity().Float), true

	case accessory.CharCurrentHeatingCoolingState:
		return intChar(characteristic.NewCurrentHeatingCoolingState().Int), true
	case accessory.CharTargetHeatingCoolingState:
		return intChar(characteristic.NewTargetHeatingCoolingState().Int), true
	case accessory.CharTemperatureDisplayUnits:
		return intChar(characteristic.NewTemperatureDisplayUnits().Int), true
	case accessory.CharActive:
		return intChar(characteristic.NewActive().Int), true
	case accessory.CharActiveIdentifier:
		return intChar(characteristic.NewActiveIdentifier().Int), true
	case accessory.CharSleepDiscoveryMode:
		return intChar(characteristic.NewSleepDiscoveryMode().Int), true
	case accessory.CharRemoteKey:
		return intChar(characteristic.NewRemoteKey().Int), true
	case accessory.CharVolumeControlType:
		return intChar(characteristic.NewVolumeControlType().Int), true
	case accessory.CharVolumeSelector:
		return intChar(characteristic.NewVolumeSelector().Int), true

	case accessory.CharMute:
		return boolChar(characteristic.NewMute().Bool), true
	}
	return hapChar{}, false
}

func floatChar(f *characteristic.Float) hapChar {
	return hapChar{
		c:   f.C,
		get: func() any { return f.Value() },
		set: func(v any) {
			if n, ok := accessory.Float(v); ok {
				f.SetValue(n)
			}
		},
		onWrite: func(fn func(any) error) {
			f.OnSetRemoteValue(func(v float64) error { return fn(v) })
		},
		props: func(p accessory.Props) {
			if p.Min != nil {
				f.SetMinValue(*p.Min)
			}
			if p.Max != nil {
				f.SetMaxValue(*p.Max)
			}
			if p.Step != nil {
				f.SetStepValue(*p.Step)
			}
		},
	}
}

func intChar(i *characteristic.Int) hapChar {
	return hapChar{
		c:   i.C,
		get: func() any { return i.Value() },
		set: func(v any) {
			if n, ok := accessory.Int(v); ok {
				i.SetValue(n)
			}
		},
		onWrite: func(fn func(any) error) {
			i.OnSetRemoteValue(func(v int) error { return fn(v) })
		},
		props: func(p accessory.Props) {
			if p.Min != nil {
				i.SetMinValue(int(*p.Min))
			}
			if p.Max != nil {
				i.SetMaxValue(int(*p.Max))
			}
			if p.Step != nil {
				i.SetStepValue(int(*p.Step))
			}
		},
	}
}

func stringChar(s *characteristic.String) hapChar {
	return hapChar{
		c:   s.C,
		get: func() any { return s.Value() },
		set: func(v any) {
			if str, ok := v.(string); ok {
				s.SetValue(str)
			}
		},
		onWrite: func(fn func(any) error) {
			s.OnSetRemoteValue(func(v string) error { return fn(v) })
		},
		props: func(accessory.Props) {},
	}
}

func boolChar(b *characteristic.Bool) hapChar {
	return hapChar{
		c:   b.C,
		get: func() any { return b.Value() },
		set: func(v any) {
			switch x := v.(type) {
			case bool:
				b.SetValue(x)
			default:
				if n, ok := accessory.Float(v); ok {
					b.SetValue(n != 0)
				}
			}
		},
		onWrite: func(fn func(any) error) {
			b.OnSetRemoteValue(func(v bool) error { return fn(v) })
		},
		props: func(accessory.Props) {},
	}
}
