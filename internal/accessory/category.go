package accessory

import "strconv"

// Category is a HAP accessory category.
type Category int

// HAP accessory categories.
const (
	CategoryOther              Category = 1
	CategoryBridge             Category = 2
	CategoryFan                Category = 3
	CategoryGarageDoorOpener   Category = 4
	CategoryLightbulb          Category = 5
	CategoryDoorLock           Category = 6
	CategoryOutlet             Category = 7
	CategorySwitch             Category = 8
	CategoryThermostat         Category = 9
	CategorySensor             Category = 10
	CategorySecuritySystem     Category = 11
	CategoryDoor               Category = 12
	CategoryWindow             Category = 13
	CategoryWindowCovering     Category = 14
	CategoryProgrammableSwitch Category = 15
	CategoryRangeExtender      Category = 16
	CategoryIPCamera           Category = 17
	CategoryVideoDoorbell      Category = 18
	CategoryAirPurifier        Category = 19
	CategoryAirHeater          Category = 20
	CategoryAirConditioner     Category = 21
	CategoryAirHumidifier      Category = 22
	CategoryAirDehumidifier    Category = 23
	CategoryAppleTV            Category = 24
	CategoryHomePod            Category = 25
	CategorySpeaker            Category = 26
	CategoryAirport            Category = 27
	CategorySprinkler          Category = 28
	CategoryFaucet             Category = 29
	CategoryShowerHead         Category = 30
	CategoryTelevision         Category = 31
	CategoryTargetController   Category = 32
	CategoryRouter             Category = 33
	CategoryAudioReceiver      Category = 34
	CategoryTVSetTopBox        Category = 35
	CategoryTVStreamingStick   Category = 36
)

var categoryNames = map[Category]string{
	CategoryOther:              "OTHER",
	CategoryBridge:             "BRIDGE",
	CategoryFan:                "FAN",
	CategoryGarageDoorOpener:   "GARAGE_DOOR_OPENER",
	CategoryLightbulb:          "LIGHTBULB",
	CategoryDoorLock:           "DOOR_LOCK",
	CategoryOutlet:             "OUTLET",
	CategorySwitch:             "SWITCH",
	CategoryThermostat:         "THERMOSTAT",
	CategorySensor:             "SENSOR",
	CategorySecuritySystem:     "SECURITY_SYSTEM",
	CategoryDoor:               "DOOR",
	CategoryWindow:             "WINDOW",
	CategoryWindowCovering:     "WINDOW_COVERING",
	CategoryProgrammableSwitch: "PROGRAMMABLE_SWITCH",
	CategoryRangeExtender:      "RANGE_EXTENDER",
	CategoryIPCamera:           "IP_CAMERA",
	CategoryVideoDoorbell:      "VIDEO_DOORBELL",
	CategoryAirPurifier:        "AIR_PURIFIER",
	CategoryAirHeater:          "AIR_HEATER",
	CategoryAirConditioner:     "AIR_CONDITIONER",
	CategoryAirHumidifier:      "AIR_HUMIDIFIER",
	CategoryAirDehumidifier:    "AIR_DEHUMIDIFIER",
	CategoryAppleTV:            "APPLE_TV",
	CategoryHomePod:            "HOMEPOD",
	CategorySpeaker:            "SPEAKER",
	CategoryAirport:            "AIRPORT",
	CategorySprinkler:          "SPRINKLER",
	CategoryFaucet:             "FAUCET",
	CategoryShowerHead:         "SHOWER_HEAD",
	CategoryTelevision:         "TELEVISION",
	CategoryTargetController:   "TARGET_CONTROLLER",
	CategoryRouter:             "ROUTER",
	CategoryAudioReceiver:      "AUDIO_RECEIVER",
	CategoryTVSetTopBox:        "TV_SET_TOP_BOX",
	CategoryTVStreamingStick:   "TV_STREAMING_STICK",
}

// String returns the HAP name of the category, or the number for unknown
// values.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return strconv.Itoa(int(c))
}
