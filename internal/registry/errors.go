package registry

import "errors"

// Domain errors for the registry package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, registry.ErrNotFound) {
//	    // handle not found case
//	}
var (
	// ErrNotFound is returned when no record exists for an address.
	ErrNotFound = errors.New("registry: device not found")

	// ErrMissingAddress is returned when a record lacks a usable ip_address
	// field. The registry is left unchanged.
	ErrMissingAddress = errors.New("registry: missing ip_address field")
)
