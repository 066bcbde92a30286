// Package registry provides the in-memory device registry for devicehub.
//
// The registry is the hub's single mutable resource: a mapping from device
// IP address to the most recently submitted registration record. Devices
// running the companion firmware POST their full state on boot and
// re-register every few minutes; the hub keeps only the latest submission
// per address.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────┐
//	│                        Registry                           │
//	│                                                           │
//	│   map[address]Record guarded by sync.RWMutex              │
//	│                                                           │
//	│   • Upsert — insert-or-full-replace, stamps registered_at │
//	│   • Get / List — deep copies out, never aliases           │
//	│   • Remove / Clear — in-process only, no HTTP route       │
//	│   • Count / GetStats — monitoring                         │
//	└──────────────────────────────────────────────────────────┘
//	            ▲                         ▲
//	            │                         │
//	   POST /device/register        GET /devices
//
// # Key Types
//
//   - Record: one device's last-known state, schema-free beyond ip_address
//   - Registry: the mapping itself, safe for concurrent use
//   - Stats: totals and per-device-type counts
//
// # Usage
//
//	reg := registry.New()
//	reg.SetLogger(log)
//
//	addr, err := reg.Upsert(registry.Record{
//	    "ip_address":  "10.0.0.5",
//	    "device_name": "garage-relay",
//	    "device_type": "relay",
//	})
//	if err != nil {
//	    return err
//	}
//
//	rec, _ := reg.Get(addr)
//	all := reg.List()
//
// # Thread Safety
//
// The Registry is safe for concurrent use. Every operation is a single
// map access under a read-write mutex, and every record that crosses the
// boundary is a deep copy in both directions.
//
// # Lifetime
//
// The registry is purely in-memory. It is initialized empty at process
// start and its contents are discarded on exit — persistence is
// deliberately out of scope.
package registry
