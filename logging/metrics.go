package logging

import "sync"

// Metrics is a process-local registry of named values. TelemetryAdd
// increments a value, TelemetryStore replaces it; both share one key space.
// The zero value is ready to use. The simulation writes from the tick
// goroutine while HTTP handlers snapshot concurrently, so access is guarded.
type Metrics struct {
	mu     sync.RWMutex
	values map[string]uint64
}

func NewMetrics() *Metrics {
	return &Metrics{values: make(map[string]uint64)}
}

// TelemetryAdd increments the named value by delta.
func (m *Metrics) TelemetryAdd(name string, delta uint64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	if m.values == nil {
		m.values = make(map[string]uint64)
	}
	m.values[name] += delta
	m.mu.Unlock()
}

// TelemetryStore sets the named value, replacing any prior value.
func (m *Metrics) TelemetryStore(name string, value uint64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	if m.values == nil {
		m.values = make(map[string]uint64)
	}
	m.values[name] = value
	m.mu.Unlock()
}

// Value returns the current value for name, zero when absent.
func (m *Metrics) Value(name string) uint64 {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[name]
}

// Snapshot copies every value into a fresh map.
func (m *Metrics) Snapshot() map[string]uint64 {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]uint64, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}
