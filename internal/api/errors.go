package api

import (
	"encoding/json"
	"net/http"
)

// Response status values used in the JSON envelope.
//
// The relay firmware switches on the status string, so these values are
// part of the wire contract.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the envelope for mutating endpoints and all error paths.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeSuccess writes a 200 success envelope.
func writeSuccess(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, Response{
		Status:  StatusSuccess,
		Message: message,
	})
}

// writeError writes an error envelope with the given HTTP status.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{
		Status:  StatusError,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, message)
}
