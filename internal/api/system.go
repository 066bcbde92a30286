package api

import (
	"net/http"
	"time"
)

// secondsPerMinute converts a zone offset in seconds to minutes.
const secondsPerMinute = 60

// TimeResponse is the payload for GET /time.
type TimeResponse struct {
	// ISO is the current instant in UTC, RFC3339 with millisecond precision.
	ISO string `json:"iso"`
	// Local is a human-readable rendering in the configured site timezone.
	Local string `json:"local"`
	// Timezone is the IANA name of the configured site timezone.
	Timezone string `json:"timezone"`
	// Timestamp is the current instant as epoch milliseconds.
	Timestamp int64 `json:"timestamp"`
	// Offset is the site timezone's UTC offset in minutes, east-positive.
	Offset int `json:"offset"`
}

// localTimeLayout renders a readable local time for the dashboard clock.
// Go carries no locale database, so the layout is fixed rather than
// locale-negotiated.
const localTimeLayout = "Mon, 02 Jan 2006 15:04:05"

// handleTime reports the hub's current time in several representations.
// No stored state is touched.
func (s *Server) handleTime(w http.ResponseWriter, _ *http.Request) {
	now := time.Now()
	local := now.In(s.location)
	_, offsetSeconds := local.Zone()

	writeJSON(w, http.StatusOK, TimeResponse{
		ISO:       now.UTC().Format("2006-01-02T15:04:05.000Z"),
		Local:     local.Format(localTimeLayout),
		Timezone:  s.location.String(),
		Timestamp: now.UnixMilli(),
		Offset:    offsetSeconds / secondsPerMinute,
	})
}

// HealthResponse is the payload for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Devices int    `json:"devices"`
}

// handleHealth returns liveness plus the current registry size.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: s.version,
		Devices: s.registry.Count(),
	})
}
