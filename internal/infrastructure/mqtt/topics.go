package mqtt

import "fmt"

// TopicPrefix is the root of every bridge topic.
const TopicPrefix = "remobridge"

// Command names accepted on the command topics.
const (
	// CommandRefresh asks the bridge to poll the vendor API immediately.
	CommandRefresh = "refresh"
)

// Topics builds bridge topic names.
//
//	topics := mqtt.Topics{}
//	topics.DeviceState("3386e747")
//	// remobridge/device/3386e747/state
type Topics struct{}

// SystemStatus is the retained online/offline status of the bridge.
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// DeviceState is the retained state of a Remo unit.
func (Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/state", TopicPrefix, deviceID)
}

// AirconState is the retained state of an air conditioner.
func (Topics) AirconState(applianceID string) string {
	return fmt.Sprintf("%s/aircon/%s/state", TopicPrefix, applianceID)
}

// Command is the topic for one named command.
func (Topics) Command(name string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefix, name)
}

// AllCommands matches every command topic.
func (Topics) AllCommands() string {
	return TopicPrefix + "/command/+"
}
