package clock

import (
	"testing"
	"time"
)

func TestMonotonicNonDecreasing(t *testing.T) {
	c := NewMonotonic()
	prev := c.NowMicros()
	for i := 0; i < 1000; i++ {
		now := c.NowMicros()
		if now < prev {
			t.Fatalf("iteration %d: clock went backwards: %d < %d", i, now, prev)
		}
		prev = now
	}
}

func TestMonotonicDelayBlocksAtLeast(t *testing.T) {
	c := NewMonotonic()
	start := time.Now()
	c.DelayMicros(2000)
	if elapsed := time.Since(start); elapsed < 2*time.Millisecond {
		t.Errorf("delay returned after %v, want >= 2ms", elapsed)
	}
}

func TestMonotonicZeroDelay(t *testing.T) {
	c := NewMonotonic()
	before := c.NowMicros()
	c.DelayMicros(0)
	if after := c.NowMicros(); after < before {
		t.Errorf("clock went backwards across zero delay: %d < %d", after, before)
	}
}

func TestFakeDelayAdvances(t *testing.T) {
	f := NewFake(100)
	f.DelayMicros(50)
	f.DelayMicros(25)
	if f.NowMicros() != 175 {
		t.Errorf("NowMicros: got %d, want 175", f.NowMicros())
	}
	if len(f.Delays) != 2 {
		t.Fatalf("expected 2 recorded delays, got %d", len(f.Delays))
	}
	if f.Total() != 75 {
		t.Errorf("Total: got %d, want 75", f.Total())
	}
}

func TestFakeAdvanceNotRecorded(t *testing.T) {
	f := NewFake(0)
	f.Advance(1000)
	if f.NowMicros() != 1000 {
		t.Errorf("NowMicros: got %d, want 1000", f.NowMicros())
	}
	if len(f.Delays) != 0 {
		t.Errorf("Advance should not record a delay, got %v", f.Delays)
	}
}
