// Package mqtt connects the bridge to an MQTT broker.
//
// The client wraps paho.mqtt.golang with:
//   - auto-reconnect with backoff and subscription restore
//   - a retained online/offline status on remobridge/system/status, with a
//     Last Will so a crash is visible to subscribers
//   - panic recovery around message handlers
//
// Topic names are built with Topics:
//
//	remobridge/system/status
//	remobridge/device/{device_id}/state
//	remobridge/aircon/{appliance_id}/state
//	remobridge/command/{command}
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishRetained(mqtt.Topics{}.DeviceState(id), payload)
package mqtt
