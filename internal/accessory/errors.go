package accessory

import "errors"

var (
	// ErrReadOnly is returned when a controller writes a characteristic
	// that has no write handler.
	ErrReadOnly = errors.New("characteristic is read-only")

	// ErrShellNotFound is returned when a stored shell does not exist.
	ErrShellNotFound = errors.New("accessory not found")

	// ErrInvalidShell is returned when a shell is missing required fields.
	ErrInvalidShell = errors.New("invalid accessory")

	// ErrAIDCollision is returned when two accessories derive the same HAP
	// accessory ID.
	ErrAIDCollision = errors.New("accessory id collision")
)
