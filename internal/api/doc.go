// Package api implements the HTTP and WebSocket surface of devicehub.
//
// This package provides:
//   - The device registration endpoints (POST /device/register, GET /devices)
//   - Operational endpoints (GET /time, GET /health, GET /metrics)
//   - WebSocket hub broadcasting registration events to dashboard clients
//   - Middleware stack (request ID, logging, recovery, CORS, body size limit)
//   - Embedded dashboard serving with SPA fallback
//
// # Architecture
//
// The server sits between the relay firmware (which registers itself over
// plain HTTP) and the in-memory device registry. Handlers call directly into
// the registry's synchronous operations; there is no queue or background
// processing between a request and its state change.
//
// When the optional MQTT announcer or InfluxDB telemetry clients are wired
// in, a successful registration additionally publishes the stored record to
// the broker and records a telemetry point. Both are fire-and-forget: their
// failure is logged and never surfaced to the registering device.
//
// # Response Contract
//
// Mutating endpoints and all error paths respond with the envelope the
// firmware expects: {"status":"success"|"error","message":"..."}.
// GET /devices returns the bare JSON array of stored records.
//
// # Graceful Degradation
//
// The server operates without MQTT and InfluxDB — registration, listing and
// the WebSocket stream all work with no external services running.
package api
