package remo

import "context"

// Gateway is the bridge's view of the Nature Remo API.
//
// Implementations never return errors. A nil slice or nil settings means the
// call failed (including rate limiting) and the caller must keep whatever
// state it already had. A successful empty list is a non-nil empty slice.
type Gateway interface {
	// SendSignal fires a learned infrared signal. It reports whether the
	// vendor accepted the request.
	SendSignal(ctx context.Context, signalID string) bool

	// UpdateAirconSettings applies a partial settings change and returns the
	// settings recomputed by the vendor.
	UpdateAirconSettings(ctx context.Context, applianceID string, params AirconSettingsParams) *AirconSettings

	// ListDevices returns every Remo unit on the account.
	ListDevices(ctx context.Context) []Device

	// ListAppliances returns every appliance on the account.
	ListAppliances(ctx context.Context) []Appliance
}

// Logger is the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
