package mqtt

import "errors"

var (
	ErrNotConnected     = errors.New("mqtt: no broker connection")
	ErrConnectionFailed = errors.New("mqtt: cannot connect to broker")
	ErrPublishFailed    = errors.New("mqtt: publish not acknowledged")
	ErrSubscribeFailed  = errors.New("mqtt: subscribe not acknowledged")

	// ErrInvalidQoS rejects levels above 2.
	ErrInvalidQoS   = errors.New("mqtt: qos must be 0, 1 or 2")
	ErrInvalidTopic = errors.New("mqtt: empty topic")
)
