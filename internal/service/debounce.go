package service

import (
	"sync"
	"time"
)

// Debouncer suppresses repeated events for the same key within a fixed
// cool-down window. Each dispatcher owns its own instance; there is no
// process-wide state, so tests can construct isolated debouncers.
type Debouncer struct {
	mu        sync.Mutex
	window    time.Duration
	lastFired map[string]time.Time
	now       func() time.Time
}

// NewDebouncer builds a debouncer with the given cool-down window.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = time.Minute
	}
	return &Debouncer{
		window:    window,
		lastFired: make(map[string]time.Time),
		now:       time.Now,
	}
}

// ShouldFire reports whether an event for the key may fire now, recording
// the fire time when it may. Suppressed events are dropped, not queued: the
// next allowed send computes its payload fresh, so collapsed events are
// represented by aggregate state rather than replayed individually.
func (d *Debouncer) ShouldFire(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if last, ok := d.lastFired[key]; ok && now.Sub(last) < d.window {
		return false
	}
	d.lastFired[key] = now

	// Opportunistic pruning keeps the map bounded by active keys.
	for k, t := range d.lastFired {
		if now.Sub(t) >= d.window {
			delete(d.lastFired, k)
		}
	}
	return true
}
