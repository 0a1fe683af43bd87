package logic

import (
	"testing"
	"time"
)

const (
	released = true
	pressed  = false
)

// start is well past the debounce window so the first press is accepted.
const start uint64 = 1_000_000

func TestNewDebouncer(t *testing.T) {
	d := NewDebouncer()
	en, sel := d.Channels()
	if en.LastActive || sel.LastActive {
		t.Error("new debouncer should start with both buttons released")
	}
	if en.LastToggle != 0 || sel.LastToggle != 0 {
		t.Error("new debouncer should start with zero toggle timestamps")
	}
}

func TestPressTogglesOnce(t *testing.T) {
	d := NewDebouncer()

	if tg := d.Poll(released, released, start); tg.Any() {
		t.Fatalf("expected no toggle while released, got %+v", tg)
	}

	tg := d.Poll(pressed, released, start+1000)
	if !tg.Enable || tg.Select {
		t.Fatalf("expected enable toggle only, got %+v", tg)
	}

	// Held well past the debounce window
	for i := uint64(1); i <= 50; i++ {
		tg := d.Poll(pressed, released, start+1000+i*100_000)
		if tg.Any() {
			t.Fatalf("poll %d: held button re-triggered: %+v", i, tg)
		}
	}
}

func TestReleaseNeverTriggers(t *testing.T) {
	d := NewDebouncer()
	d.Poll(pressed, pressed, start)

	tg := d.Poll(released, released, start+500_000)
	if tg.Any() {
		t.Errorf("release should not toggle, got %+v", tg)
	}
}

func TestBounceWithinWindowRejected(t *testing.T) {
	d := NewDebouncer()

	if tg := d.Poll(released, pressed, start); !tg.Select {
		t.Fatal("expected first press to toggle")
	}

	// Contact bounce: release and press again 5ms later
	d.Poll(released, released, start+2_000)
	if tg := d.Poll(released, pressed, start+5_000); tg.Select {
		t.Fatal("bounce inside window should be rejected")
	}

	_, sel := d.Channels()
	if sel.LastToggle != start {
		t.Errorf("rejected press moved LastToggle: got %d, want %d", sel.LastToggle, start)
	}
}

func TestWindowBoundaryIsExclusive(t *testing.T) {
	d := NewDebouncer()
	d.Poll(pressed, released, start)
	d.Poll(released, released, start+10)

	if tg := d.Poll(pressed, released, start+DebounceWindow); tg.Enable {
		t.Error("press exactly DebounceWindow after last toggle should be rejected")
	}

	d.Poll(released, released, start+DebounceWindow+10)
	if tg := d.Poll(pressed, released, start+DebounceWindow+11); !tg.Enable {
		t.Error("press after DebounceWindow should be accepted")
	}
}

func TestPressNearEpochRejected(t *testing.T) {
	d := NewDebouncer()
	if tg := d.Poll(pressed, pressed, 150_000); tg.Any() {
		t.Errorf("press inside the first window should be rejected, got %+v", tg)
	}
}

func TestHeldAfterRejectedPressNeverToggles(t *testing.T) {
	d := NewDebouncer()
	d.Poll(pressed, released, start)
	d.Poll(released, released, start+1_000)

	// Rejected press, then held far past the window
	d.Poll(pressed, released, start+50_000)
	if tg := d.Poll(pressed, released, start+900_000); tg.Enable {
		t.Error("button held since a rejected press should not toggle")
	}
}

func TestAcceptedTogglesSeparatedByWindow(t *testing.T) {
	d := NewDebouncer()
	var accepted []uint64

	// Press/release every 30ms for 2s of simulated time
	now := start
	for i := 0; i < 70; i++ {
		if tg := d.Poll(pressed, released, now); tg.Enable {
			accepted = append(accepted, now)
		}
		now += 15_000
		d.Poll(released, released, now)
		now += 15_000
	}

	if len(accepted) < 2 {
		t.Fatalf("expected several accepted toggles, got %d", len(accepted))
	}
	for i := 1; i < len(accepted); i++ {
		if gap := accepted[i] - accepted[i-1]; gap <= DebounceWindow {
			t.Errorf("toggles %d and %d only %dus apart", i-1, i, gap)
		}
	}
}

func TestChannelsIndependent(t *testing.T) {
	d := NewDebouncer()
	tg := d.Poll(pressed, pressed, start)
	if !tg.Enable || !tg.Select {
		t.Fatalf("expected both to toggle, got %+v", tg)
	}

	// Enable bounces, select is released and pressed properly later
	d.Poll(released, released, start+1_000)
	tg = d.Poll(pressed, released, start+2_000)
	if tg.Enable {
		t.Error("enable bounce should be rejected")
	}
	tg = d.Poll(pressed, pressed, start+300_000)
	if tg.Enable {
		t.Error("enable still held, should not toggle")
	}
	if !tg.Select {
		t.Error("select should toggle independently")
	}
}

func TestModeFlagsApply(t *testing.T) {
	ts := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var m ModeFlags

	events := m.Apply(Toggles{Enable: true}, ts)
	if !m.DataEnabled || m.Reversed {
		t.Fatalf("unexpected flags: %+v", m)
	}
	if len(events) != 1 || events[0].Type != EventDataEnabled {
		t.Fatalf("expected DATA_ENABLED, got %+v", events)
	}

	events = m.Apply(Toggles{Enable: true, Select: true}, ts)
	if m.DataEnabled || !m.Reversed {
		t.Fatalf("unexpected flags: %+v", m)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != EventDataDisabled {
		t.Errorf("event 0: got %s, want DATA_DISABLED", events[0].Type)
	}
	if events[1].Type != EventReversed {
		t.Errorf("event 1: got %s, want MODE_REVERSED", events[1].Type)
	}
	if events[1].DataEnabled || !events[1].Reversed {
		t.Errorf("event 1 should carry post-change flags, got %+v", events[1])
	}

	events = m.Apply(Toggles{Select: true}, ts)
	if len(events) != 1 || events[0].Type != EventForward {
		t.Errorf("expected MODE_FORWARD, got %+v", events)
	}

	if events := m.Apply(Toggles{}, ts); events != nil {
		t.Errorf("expected no events, got %+v", events)
	}
}

func TestHeartbeat(t *testing.T) {
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	h := NewHeartbeat(time.Minute, startTime)

	if hb := h.Check(startTime.Add(59*time.Second), Counts{}); hb != nil {
		t.Error("heartbeat should not fire before interval")
	}

	counts := Counts{EnableToggles: 2, Frames: 40}
	hb := h.Check(startTime.Add(time.Minute), counts)
	if hb == nil {
		t.Fatal("expected heartbeat at interval")
	}
	if hb.Uptime != time.Minute {
		t.Errorf("Uptime: got %v, want 1m", hb.Uptime)
	}
	if hb.Counts != counts {
		t.Errorf("Counts: got %+v, want %+v", hb.Counts, counts)
	}

	if hb := h.Check(startTime.Add(90*time.Second), counts); hb != nil {
		t.Error("heartbeat should reset after firing")
	}
}

func TestHeartbeatDisabled(t *testing.T) {
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	h := NewHeartbeat(0, startTime)
	if hb := h.Check(startTime.Add(24*time.Hour), Counts{}); hb != nil {
		t.Error("disabled heartbeat should never fire")
	}
}
