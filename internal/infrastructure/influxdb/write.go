package influxdb

import (
	"maps"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementSensorReading holds Remo sensor readings.
const MeasurementSensorReading = "sensor_reading"

// WriteSensorReading queues one reading of a Remo unit. fields is keyed by
// sensor (te, hu, il, mo); an empty map writes nothing.
func (c *Client) WriteSensorReading(deviceID, deviceName string, fields map[string]float64, ts time.Time) {
	if len(fields) == 0 {
		return
	}
	tags := map[string]string{"device_id": deviceID, "device_name": deviceName}
	p := write.NewPointWithMeasurement(MeasurementSensorReading).SetTime(ts)
	for k, v := range tags {
		p.AddTag(k, v)
	}
	for k, v := range fields {
		p.AddField(k, v)
	}
	c.writePoint(p)
}

// WritePointWithTime queues an arbitrary point with an explicit timestamp.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, ts time.Time) {
	c.writePoint(write.NewPoint(measurement, maps.Clone(tags), fields, ts))
}

func (c *Client) writePoint(p *write.Point) {
	if !c.IsConnected() {
		return
	}
	c.writer.WritePoint(p)
}
