// Package ratelimit bounds how often editor callbacks run.
//
// Both policies take the current time as an argument instead of reading a
// clock or starting timers. The editor passes event timestamps in and
// polls pending debounces from its Tick, which keeps the engine free of
// background goroutines.
package ratelimit

import "time"

// Throttle admits at most one call per interval. The first call is always
// admitted.
type Throttle struct {
	interval time.Duration
	last     time.Time
	primed   bool
}

// NewThrottle creates a throttle. A non-positive interval admits every call.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Allow reports whether a call at now is admitted and, if so, records it.
func (t *Throttle) Allow(now time.Time) bool {
	if t.primed && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	t.primed = true
	return true
}

// Reset forgets the last admitted call.
func (t *Throttle) Reset() {
	t.primed = false
	t.last = time.Time{}
}

// Debounce runs an action once, delay after the last Schedule call.
type Debounce struct {
	delay    time.Duration
	deadline time.Time
	pending  bool
}

// NewDebounce creates a debounce with the given delay.
func NewDebounce(delay time.Duration) *Debounce {
	return &Debounce{delay: delay}
}

// Schedule (re)arms the debounce relative to now.
func (d *Debounce) Schedule(now time.Time) {
	d.deadline = now.Add(d.delay)
	d.pending = true
}

// Cancel disarms the debounce.
func (d *Debounce) Cancel() {
	d.pending = false
}

// Pending reports whether the debounce is armed.
func (d *Debounce) Pending() bool { return d.pending }

// Deadline returns when the armed debounce fires.
func (d *Debounce) Deadline() time.Time { return d.deadline }

// Fire reports whether the armed debounce is due at now and disarms it if so.
func (d *Debounce) Fire(now time.Time) bool {
	if !d.pending || now.Before(d.deadline) {
		return false
	}
	d.pending = false
	return true
}
