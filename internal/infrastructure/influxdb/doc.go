// Package influxdb writes sensor readings to InfluxDB v2.
//
// Writes go through the client's non-blocking write API: points are batched
// and flushed every FlushInterval seconds or when BatchSize points are
// buffered. Write failures are reported asynchronously through SetOnError.
//
// Readings land in the sensor_reading measurement:
//
//	sensor_reading,device_id=...,device_name=... te=19.1,hu=52,il=0,mo=1
package influxdb
