package registry

// Field names the hub assigns meaning to. Everything else in a record is
// caller-supplied and stored verbatim.
const (
	// KeyField is the identifying field of every record. Its value is the
	// registry key: one record per address, last write wins.
	KeyField = "ip_address"

	// RegisteredAtField is stamped by the registry on every upsert with the
	// server's current UTC time in RFC3339 format.
	RegisteredAtField = "registered_at"

	// TypeField is an optional caller-supplied classification used only for
	// statistics bucketing.
	TypeField = "device_type"
)

// Record holds the last-known state of one device, exactly as submitted
// in its registration payload plus the server-stamped registration time.
//
// The hub imposes no schema beyond KeyField: the companion relay firmware
// sends device_name, device_type, relay_pin, relay_state, pin_value,
// wifi_connected, wifi_ssid, hub_registered and mem_free, but any
// JSON-shaped payload is accepted and preserved.
type Record map[string]any

// Address returns the record's identifying address.
// The second return is false when the field is absent, blank, or not a string.
func (rec Record) Address() (string, bool) {
	v, ok := rec[KeyField]
	if !ok {
		return "", false
	}
	addr, ok := v.(string)
	if !ok || addr == "" {
		return "", false
	}
	return addr, true
}

// DeepCopy creates a deep copy of the record.
// Nested maps and slices are recursively copied.
func (rec Record) DeepCopy() Record {
	if rec == nil {
		return nil
	}
	return Record(deepCopyMap(rec))
}

// deepCopyMap creates a deep copy of a map[string]any.
// Nested maps and slices are recursively copied.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

// deepCopyValue recursively copies a value, handling nested maps and slices.
func deepCopyValue(v any) any {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case Record:
		return Record(deepCopyMap(val))
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		// Primitives (string, bool, int, float64, etc.) are safe to copy by value
		return v
	}
}

// Stats holds registry statistics for monitoring.
type Stats struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"by_type"`
}
