package appliance

import "errors"

var (
	// ErrWriteFailed is returned to the controller when the vendor did not
	// accept a write. The cause has already been logged by the gateway.
	ErrWriteFailed = errors.New("remote write failed")

	// ErrInvalidValue is returned for a write of the wrong type.
	ErrInvalidValue = errors.New("invalid characteristic value")

	// ErrMissingSettings is returned when an AC appliance has no settings
	// or range to bind.
	ErrMissingSettings = errors.New("aircon settings missing")
)
