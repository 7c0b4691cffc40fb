// Package platform reconciles the registered accessory set against the
// poller's snapshots.
//
// Each published snapshot is reconciled for its category only:
//
//  1. every entity ID maps to a UUID with accessory.UUIDFor
//  2. a known UUID is rebound: the old adapter is closed and the same
//     shell is bound again with the fresh entity
//  3. an unknown UUID gets a new shell, is bound, and all new shells of the
//     pass are registered with the Host in one call
//  4. registered shells of the category whose UUID is missing from the
//     snapshot are unregistered in one call
//
// Step 4 is skipped for an empty snapshot so the initial empty publish
// cannot retire accessories restored from the cache.
//
// Categories: Devices become sensors, AC appliances become air conditioners
// and IR appliances whose nickname matches a configured TV become
// televisions. Other appliances are ignored.
package platform
