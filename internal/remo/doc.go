// Package remo is the gateway to the Nature Remo cloud API
// (https://api.nature.global/1).
//
// The Gateway interface is deliberately lossy: every call either returns a
// result or nil/false, never an error. Callers treat nil as "keep what you
// had" and must not read it as "there is nothing". The Client logs the cause
// at warn level for HTTP 429 (with the x-rate-limit-* headers) and at error
// level for everything else.
//
// # Types
//
// Device mirrors GET /devices, Appliance mirrors GET /appliances. Appliance
// is a tagged union on Type; only the fields of the matching variant are
// populated (Signals for IR, Settings and Aircon for AC).
//
// # Usage
//
//	client := remo.NewClient(remo.ClientConfig{Token: cfg.Token}, logger)
//	devices := client.ListDevices(ctx)
//	if devices == nil {
//	    // fetch failed; keep the previous snapshot
//	}
package remo
