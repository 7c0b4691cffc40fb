// Package api serves the bridge's status API.
//
// Endpoints:
//
//	GET  /health              component health checks
//	GET  /api/v1/accessories  accessories known to the platform
//	GET  /api/v1/accessories/{uuid}
//	GET  /api/v1/devices      last devices snapshot
//	GET  /api/v1/appliances   last appliances snapshot (aircons then IR)
//	POST /api/v1/refresh      poll the vendor API now
//	GET  /api/v1/ws           snapshot stream over WebSocket
//	GET  /metrics             Prometheus metrics
//
// WebSocket clients subscribe to the snapshot.devices and
// snapshot.appliances channels and receive the current snapshot
// immediately, then every new one as the poller publishes it.
//
// The server is read-mostly and has no authentication; bind it to a
// trusted interface.
package api
