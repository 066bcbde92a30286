package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// registrationMeasurement is the measurement name for registration events.
const registrationMeasurement = "device_registration"

// WriteRegistration records one device registration as a telemetry point.
//
// Tags carry the device identity (address, device_type) for indexing.
// Fields carry every numeric and boolean value from the submitted record
// (booleans lifted to 0/1 so they can be graphed), plus a constant
// registrations=1 counter so plain counts can be derived per window.
// String fields other than the identity tags are not written — free-form
// strings make poor time-series data and unbounded tag values would
// explode series cardinality.
//
// The write is non-blocking; data is batched and sent asynchronously.
// If the client is not connected the point is silently dropped.
//
// Parameters:
//   - address: The device's IP address (the registry key)
//   - deviceType: The record's device_type, or "unknown"
//   - record: The full registration record as stored
//
// Example:
//
//	client.WriteRegistration("10.0.0.5", "relay", record)
func (c *Client) WriteRegistration(address, deviceType string, record map[string]any) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		registrationMeasurement,
		map[string]string{
			"address":     address,
			"device_type": deviceType,
		},
		registrationFields(record),
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// registrationFields lifts the graphable values out of a registration record.
func registrationFields(record map[string]any) map[string]any {
	fields := map[string]any{
		"registrations": 1.0,
	}

	for key, val := range record {
		switch v := val.(type) {
		case float64:
			fields[key] = v
		case int:
			fields[key] = float64(v)
		case int64:
			fields[key] = float64(v)
		case bool:
			boolVal := 0.0
			if v {
				boolVal = 1.0
			}
			fields[key] = boolVal
		}
	}

	return fields
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit WriteRegistration.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
