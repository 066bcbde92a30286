package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"devicehub/internal/infrastructure/mqtt"
	"devicehub/internal/registry"
)

// handleRegisterDevice stores the submitted device state in the registry.
//
// The body is an arbitrary JSON object that must carry a non-empty string
// ip_address field. The whole body is stored verbatim under that address,
// fully replacing any previous record, with registered_at stamped by the
// registry. Malformed or incomplete bodies leave the registry untouched.
func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var rec registry.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeBadRequest(w, "request body must be a JSON object")
		return
	}

	addr, err := s.registry.Upsert(rec)
	if err != nil {
		if errors.Is(err, registry.ErrMissingAddress) {
			writeBadRequest(w, "ip_address field is required")
			return
		}
		writeInternalError(w, "failed to register device")
		return
	}

	s.logger.Info("device registered",
		"address", addr,
		"device_name", rec["device_name"],
		"device_type", rec["device_type"],
	)

	// Fetch the stored copy so downstream consumers see the stamped record.
	stored, err := s.registry.Get(addr)
	if err == nil {
		s.hub.Broadcast(ChannelDeviceRegistered, stored)
		s.announceRegistration(addr, stored)
	}

	writeSuccess(w, "Device registered successfully")
}

// handleListDevices returns all stored device records as a bare JSON array.
//
// The firmware and the dashboard both consume this shape directly; there is
// no envelope, pagination, or ordering guarantee.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

// announceRegistration pushes a registration event to the optional MQTT and
// InfluxDB integrations. Both are fire-and-forget: failures are logged and
// never affect the HTTP response already owed to the device.
func (s *Server) announceRegistration(addr string, rec registry.Record) {
	if s.mqtt != nil && s.mqtt.IsConnected() {
		payload, err := json.Marshal(rec)
		if err == nil {
			topic := mqtt.Topics{}.DeviceRegistered(addr)
			if pubErr := s.mqtt.Publish(topic, payload, s.mqtt.DefaultQoS(), false); pubErr != nil {
				s.logger.Warn("registration announce failed", "address", addr, "error", pubErr)
			}
		}
	}

	if s.influx != nil {
		deviceType := "unknown"
		if v, ok := rec[registry.TypeField].(string); ok && v != "" {
			deviceType = v
		}
		s.influx.WriteRegistration(addr, deviceType, rec)
	}
}
