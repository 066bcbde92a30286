// Package influxdb provides the optional registration telemetry sink for devicehub.
//
// It wraps the official influxdb-client-go v2 library with the hub's patterns
// for connection management, non-blocking writes, and health monitoring.
//
// # Purpose
//
// Every successful device registration can be recorded as a time-series
// point (measurement "device_registration"), turning the hub's last-write-
// wins registry into a history: how often each device re-registers, how its
// free memory trends, when its WiFi link flaps. The registry itself stays
// purely in-memory; this sink is the only place registration data outlives
// the process, and it is disabled by default.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off; run without it
//	}
//	defer client.Close()
//
//	client.WriteRegistration("10.0.0.5", "relay", record)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered via the
// SetOnError callback. Connection and health check errors are returned
// directly. Writes while disconnected are silently dropped.
package influxdb
