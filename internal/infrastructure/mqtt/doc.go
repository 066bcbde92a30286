// Package mqtt provides the optional MQTT registration announcer for devicehub.
//
// When enabled in configuration, the hub maintains a connection to an MQTT
// broker and publishes:
//   - A retained hub status message (online/offline) on devicehub/hub/status,
//     with a Last Will and Testament covering unexpected disconnects
//   - Every successful device registration, as the full stored record, on
//     devicehub/device/registered/<address>
//
// The announcer is publish-only: the hub subscribes to nothing, and nothing
// in the registration path ever blocks on the broker beyond the publish
// acknowledgment timeout. When disabled (the default), Connect returns
// ErrDisabled and no broker is ever contacted.
//
// # Architecture
//
//	relay firmware → devicehub → MQTT broker → anything listening
//	                   (HTTP)     (optional)    (Node-RED, recorders, ...)
//
// # Resilience
//
// The connection auto-reconnects with bounded exponential backoff. Publish
// failures while disconnected are reported to the caller, which logs and
// drops them — registration events are best-effort notifications, not a
// durable stream.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if errors.Is(err, mqtt.ErrDisabled) {
//	    // announcer off; run without it
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.DeviceRegistered("10.0.0.5")
//	err = client.Publish(topic, payload, client.DefaultQoS(), false)
package mqtt
