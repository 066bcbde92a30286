package mqtt

import "fmt"

// TopicPrefix is the root of every topic the hub publishes.
const TopicPrefix = "devicehub"

// Topics provides builders for devicehub MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase
// and its external consumers.
//
//	topics := mqtt.Topics{}
//	topic := topics.DeviceRegistered("10.0.0.5")
//	// Returns: "devicehub/device/registered/10.0.0.5"
type Topics struct{}

// HubStatus returns the retained hub status topic.
// Carries {status:"online"|"offline", ...} payloads, including the LWT.
//
// Example: devicehub/hub/status
func (Topics) HubStatus() string {
	return fmt.Sprintf("%s/hub/status", TopicPrefix)
}

// DeviceRegistered returns the per-device registration event topic.
// The payload is the full stored record, as JSON.
//
// Example: devicehub/device/registered/10.0.0.5
func (Topics) DeviceRegistered(address string) string {
	return fmt.Sprintf("%s/device/registered/%s", TopicPrefix, address)
}

// AllDeviceRegistrations returns a subscription pattern matching every
// registration event. Intended for external consumers, not the hub itself.
//
// Pattern: devicehub/device/registered/+
func (Topics) AllDeviceRegistrations() string {
	return fmt.Sprintf("%s/device/registered/+", TopicPrefix)
}
