package ratelimit

import (
	"testing"
	"time"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestThrottle(t *testing.T) {
	th := NewThrottle(100 * time.Millisecond)

	steps := []struct {
		at   time.Duration
		want bool
	}{
		{0, true},
		{10 * time.Millisecond, false},
		{99 * time.Millisecond, false},
		{100 * time.Millisecond, true},
		{150 * time.Millisecond, false},
		{250 * time.Millisecond, true},
	}
	for _, s := range steps {
		if got := th.Allow(t0.Add(s.at)); got != s.want {
			t.Errorf("Allow(+%v) = %v, want %v", s.at, got, s.want)
		}
	}

	th.Reset()
	if !th.Allow(t0.Add(260 * time.Millisecond)) {
		t.Error("Allow() after Reset = false, want true")
	}
}

func TestThrottleZeroInterval(t *testing.T) {
	th := NewThrottle(0)
	for i := 0; i < 3; i++ {
		if !th.Allow(t0) {
			t.Fatal("zero-interval throttle should admit every call")
		}
	}
}

func TestDebounce(t *testing.T) {
	d := NewDebounce(200 * time.Millisecond)

	if d.Fire(t0) {
		t.Error("Fire() on idle debounce = true")
	}

	d.Schedule(t0)
	d.Schedule(t0.Add(100 * time.Millisecond))
	if !d.Pending() {
		t.Fatal("Pending() = false after Schedule")
	}
	if d.Fire(t0.Add(250 * time.Millisecond)) {
		t.Error("Fire() before rescheduled deadline = true")
	}
	if !d.Fire(t0.Add(300 * time.Millisecond)) {
		t.Error("Fire() at deadline = false")
	}
	if d.Fire(t0.Add(400 * time.Millisecond)) {
		t.Error("Fire() twice = true")
	}

	d.Schedule(t0)
	d.Cancel()
	if d.Fire(t0.Add(time.Second)) {
		t.Error("Fire() after Cancel = true")
	}
}
