// Package homekit serves accessory shells over the HomeKit Accessory
// Protocol.
//
// A Host owns one brutella/hap server behind a bridge accessory. Shells are
// translated into hap accessories when the server is built: every shell
// characteristic gets a hap characteristic of the matching type, shell
// updates are pushed to hap and controller writes are routed back through
// the shell's write handlers.
//
// The hap server takes its accessory list at construction, so any change to
// the set (a registration, a retirement, or a restored shell gaining its
// services on rebind) schedules a debounced rebuild of the server.
//
// The Host implements platform.Host and persists registered shells through
// an accessory.Store so they survive a restart with stable accessory IDs.
package homekit
