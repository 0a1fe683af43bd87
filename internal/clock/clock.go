// Package clock provides the monotonic microsecond clock and blocking delay
// used by the control loop.
package clock

import "time"

// Clock is a monotonic microsecond time source with a blocking delay.
type Clock interface {
	// NowMicros returns microseconds since the clock was created.
	// The value never decreases. Wraparound is not handled.
	NowMicros() uint64

	// DelayMicros blocks the caller for at least us microseconds.
	DelayMicros(us uint64)
}

// Monotonic reads the Go runtime's monotonic clock.
type Monotonic struct {
	start time.Time
}

// NewMonotonic creates a clock whose epoch is the moment of the call.
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

// NowMicros returns microseconds elapsed since NewMonotonic.
func (m *Monotonic) NowMicros() uint64 {
	return uint64(time.Since(m.start).Microseconds())
}

// DelayMicros spins until the deadline has passed.
// time.Sleep is too coarse for pulse widths of tens of microseconds, so the
// calling goroutine does no other work for the whole delay.
func (m *Monotonic) DelayMicros(us uint64) {
	if us == 0 {
		return
	}
	d := time.Duration(us) * time.Microsecond
	t0 := time.Now()
	for time.Since(t0) < d {
	}
}
