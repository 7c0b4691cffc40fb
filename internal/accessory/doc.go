// Package accessory models the accessories the bridge exposes, independent
// of the HomeKit library that finally serves them.
//
// A Shell is one accessory: a stable UUID derived from the vendor ID, a
// display name, a Category and a set of Services. Each Service holds typed
// Characteristics. Adapters in package appliance fill shells in; the
// homekit host mirrors them onto HAP objects.
//
// # Value flow
//
//   - UpdateValue pushes a value from the bridge to the controller side.
//     Observers (the host) are notified.
//   - Set applies a write from a controller. The OnSet handler runs first;
//     if it fails the stored value is left alone. If the handler itself
//     called UpdateValue, that value wins over the written one.
//
// # Persistence
//
// Store keeps registered shells in SQLite so a restart rebinds cached
// accessories instead of registering duplicates.
package accessory
