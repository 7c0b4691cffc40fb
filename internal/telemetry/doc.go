// Package telemetry mirrors the polled vendor state to secondary sinks.
//
// StateMirror publishes one retained JSON document per Remo unit and per air
// conditioner to MQTT, and listens on the command topics so other systems
// can request an immediate poll. Recorder writes sensor readings to
// InfluxDB. Both subscribe to the poller's subjects and only act on
// changes, so an unchanged snapshot costs nothing downstream.
package telemetry
