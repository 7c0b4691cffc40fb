package influxdb

import "errors"

var (
	// ErrDisabled is returned by Connect when the sink is switched off.
	ErrDisabled = errors.New("influxdb: disabled")

	// ErrConnectionFailed wraps the reason the initial ping failed.
	ErrConnectionFailed = errors.New("influxdb: cannot reach server")

	// ErrNotConnected is returned once the client has been closed.
	ErrNotConnected = errors.New("influxdb: client closed")

	// ErrUnhealthy means the server answered the ping but reported itself unready.
	ErrUnhealthy = errors.New("influxdb: server unhealthy")
)
