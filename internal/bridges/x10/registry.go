package x10

import (
	"slices"
	"sync"
)

// DeviceRegistry is the set of every device the bridge has seen, either
// commanded over MQTT or observed in monitor output.
//
// The registry only grows. House-wide commands fan out to the devices it
// holds, so a device nobody has addressed yet gets no per-device status from
// an "all units" command.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type DeviceRegistry struct {
	mu      sync.RWMutex
	devices map[DeviceID]struct{}
}

// NewDeviceRegistry creates an empty registry.
func NewDeviceRegistry() *DeviceRegistry {
	return &DeviceRegistry{
		devices: make(map[DeviceID]struct{}),
	}
}

// Add records id. It returns true if the device was not already present.
// Zero-value ids are ignored.
func (r *DeviceRegistry) Add(id DeviceID) bool {
	if id.IsZero() {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[id]; ok {
		return false
	}
	r.devices[id] = struct{}{}
	return true
}

// Contains reports whether id has been recorded.
func (r *DeviceRegistry) Contains(id DeviceID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.devices[id]
	return ok
}

// InHouse returns the recorded devices of one house, ordered by unit.
func (r *DeviceRegistry) InHouse(h House) []DeviceID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []DeviceID
	for id := range r.devices {
		if id.house == h {
			out = append(out, id)
		}
	}
	sortDevices(out)
	return out
}

// List returns every recorded device, ordered by house then unit.
func (r *DeviceRegistry) List() []DeviceID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]DeviceID, 0, len(r.devices))
	for id := range r.devices {
		out = append(out, id)
	}
	sortDevices(out)
	return out
}

// Len returns the number of recorded devices.
func (r *DeviceRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

func sortDevices(ids []DeviceID) {
	slices.SortFunc(ids, func(a, b DeviceID) int {
		switch {
		case a.less(b):
			return -1
		case b.less(a):
			return 1
		default:
			return 0
		}
	})
}
