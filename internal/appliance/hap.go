package appliance

// HAP characteristic values used by the adapters.
const (
	// TargetHeatingCoolingState
	TargetOff  = 0
	TargetHeat = 1
	TargetCool = 2
	TargetAuto = 3

	// CurrentHeatingCoolingState
	CurrentOff  = 0
	CurrentHeat = 1
	CurrentCool = 2

	// TemperatureDisplayUnits
	UnitCelsius    = 0
	UnitFahrenheit = 1

	// Active
	Inactive = 0
	Active   = 1

	// SleepDiscoveryMode
	AlwaysDiscoverable = 1

	// VolumeControlType
	VolumeControlAbsolute = 3

	// VolumeSelector
	VolumeIncrement = 0
	VolumeDecrement = 1
)

// RemoteKey values.
const (
	KeyRewind        = 0
	KeyFastForward   = 1
	KeyNextTrack     = 2
	KeyPreviousTrack = 3
	KeyArrowUp       = 4
	KeyArrowDown     = 5
	KeyArrowLeft     = 6
	KeyArrowRight    = 7
	KeySelect        = 8
	KeyBack          = 9
	KeyExit          = 10
	KeyPlayPause     = 11
	KeyInformation   = 15
)

// minLightLevel is the smallest CurrentAmbientLightLevel HAP accepts.
const minLightLevel = 0.0001
