package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"devicehub/internal/dashboard"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Device registration surface. Paths are fixed by the relay firmware,
	// which posts to /device/register and polls /devices on port 80.
	r.Post("/device/register", s.handleRegisterDevice)
	r.Get("/devices", s.handleListDevices)
	r.Get("/time", s.handleTime)

	// Operational endpoints
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)

	// Real-time registration events for the dashboard
	r.Get("/ws", s.handleWebSocket)

	// Dashboard SPA: / serves index.html, unknown paths fall back to it.
	dash := dashboard.Handler(s.dashboardDir)
	r.Handle("/", dash)
	r.Handle("/*", dash)

	return r
}
