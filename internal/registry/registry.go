package registry

import (
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry is the process-lifetime store of device records, keyed by
// IP address. It starts empty and holds nothing across restarts.
//
// Every operation is a single synchronous map access under a read-write
// mutex; there is no I/O anywhere in this package. Records never alias
// internal state: inputs are deep-copied on the way in and outputs are
// deep-copied on the way out.
//
// All public methods are thread-safe.
type Registry struct {
	devices map[string]Record
	mu      sync.RWMutex
	logger  Logger
}

// New creates an empty registry.
//
// The registry carries no persistence: construct one at startup and pass
// it to whatever needs it rather than sharing via package state.
func New() *Registry {
	return &Registry{
		devices: make(map[string]Record),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Upsert stores a record under its ip_address, fully replacing any
// existing record for that address. There is no field-level merge: fields
// present only in the previous record are gone after the call.
//
// The record must carry a non-empty string ip_address; otherwise
// ErrMissingAddress is returned and the registry is unchanged. No further
// validation is performed — the address format is the caller's business.
//
// The stored record is a deep copy of the input with registered_at
// stamped (RFC3339 UTC), so later caller-side mutation cannot reach the
// store. Returns the address the record was stored under.
func (r *Registry) Upsert(rec Record) (string, error) {
	addr, ok := rec.Address()
	if !ok {
		return "", ErrMissingAddress
	}

	stored := rec.DeepCopy()
	stored[RegisteredAtField] = time.Now().UTC().Format(time.RFC3339)

	r.mu.Lock()
	r.devices[addr] = stored
	r.mu.Unlock()

	r.logger.Debug("device upserted", "address", addr)
	return addr, nil
}

// Get retrieves the record for an address.
// Returns ErrNotFound if no record exists.
// The returned record is a deep copy; callers can safely modify it.
func (r *Registry) Get(address string) (Record, error) {
	r.mu.RLock()
	rec, ok := r.devices[address]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return rec.DeepCopy(), nil
}

// List retrieves all stored records, values only, in no particular order.
// The returned records are deep copies; callers can safely modify them.
func (r *Registry) List() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]Record, 0, len(r.devices))
	for _, rec := range r.devices {
		records = append(records, rec.DeepCopy())
	}
	return records
}

// Remove deletes the record for an address.
// Removing an address that was never registered is a silent no-op.
//
// Not reachable over HTTP: removal exists for in-process callers and
// tests only.
func (r *Registry) Remove(address string) {
	r.mu.Lock()
	_, existed := r.devices[address]
	delete(r.devices, address)
	r.mu.Unlock()

	if existed {
		r.logger.Info("device removed", "address", address)
	}
}

// Clear removes every record.
//
// Not reachable over HTTP: reset exists for in-process callers and
// tests only.
func (r *Registry) Clear() {
	r.mu.Lock()
	removed := len(r.devices)
	r.devices = make(map[string]Record)
	r.mu.Unlock()

	if removed > 0 {
		r.logger.Info("registry cleared", "removed", removed)
	}
}

// Count returns the number of stored records.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// GetStats returns current registry statistics.
// Records without a string device_type count under "unknown".
func (r *Registry) GetStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		Total:  len(r.devices),
		ByType: make(map[string]int),
	}

	for _, rec := range r.devices {
		deviceType := "unknown"
		if v, ok := rec[TypeField].(string); ok && v != "" {
			deviceType = v
		}
		stats.ByType[deviceType]++
	}

	return stats
}
