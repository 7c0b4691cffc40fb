// Package appliance binds Nature Remo entities to accessory shells.
//
// There is one adapter per category:
//
//   - Sensor: pushes te, hu and il readings of a Remo unit. Remo mini units
//     only report temperature, so they never get humidity or light updates.
//   - Aircon: a thermostat whose target mode, temperature and fan volume
//     round-trip through the vendor's aircon_settings endpoint. Local state
//     is always re-derived from the settings the vendor returns.
//   - TV: a television remote that maps HomeKit remote keys to learned IR
//     signals by name. Unmapped keys are logged and dropped.
//
// Binder implements platform.Binder over these adapters.
package appliance
