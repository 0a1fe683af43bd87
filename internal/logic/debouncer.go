package logic

import "time"

// Debouncer turns raw button levels into one-shot toggle events.
type Debouncer struct {
	enable ButtonChannel
	sel    ButtonChannel
}

// NewDebouncer creates a debouncer with both buttons released.
func NewDebouncer() *Debouncer {
	return &Debouncer{}
}

// Poll takes the raw levels of both inputs and the current clock reading in
// microseconds, and reports which buttons produced a qualified press.
// Inputs are active-low: a raw low level means pressed.
func (d *Debouncer) Poll(rawEnable, rawSelect bool, now uint64) Toggles {
	return Toggles{
		Enable: pollChannel(&d.enable, !rawEnable, now),
		Select: pollChannel(&d.sel, !rawSelect, now),
	}
}

// pollChannel accepts a press only on a released-to-pressed edge, and only
// when more than DebounceWindow has passed since the last accepted toggle.
// LastActive follows every sample so a held button cannot re-trigger.
func pollChannel(ch *ButtonChannel, active bool, now uint64) bool {
	toggled := active && !ch.LastActive && now-ch.LastToggle > DebounceWindow
	if toggled {
		ch.LastToggle = now
	}
	ch.LastActive = active
	return toggled
}

// Channels returns a copy of the debounce history for both buttons.
func (d *Debouncer) Channels() (enable, sel ButtonChannel) {
	return d.enable, d.sel
}

// Apply flips the flags named by t and returns one event per change,
// enable first.
func (m *ModeFlags) Apply(t Toggles, ts time.Time) []Event {
	var events []Event

	if t.Enable {
		m.DataEnabled = !m.DataEnabled
		typ := EventDataDisabled
		if m.DataEnabled {
			typ = EventDataEnabled
		}
		events = append(events, Event{Timestamp: ts, Type: typ, DataEnabled: m.DataEnabled, Reversed: m.Reversed})
	}

	if t.Select {
		m.Reversed = !m.Reversed
		typ := EventForward
		if m.Reversed {
			typ = EventReversed
		}
		events = append(events, Event{Timestamp: ts, Type: typ, DataEnabled: m.DataEnabled, Reversed: m.Reversed})
	}

	return events
}

// Heartbeat decides when a periodic heartbeat is due.
type Heartbeat struct {
	interval  time.Duration
	startTime time.Time
	last      time.Time
}

// NewHeartbeat creates a heartbeat timer. An interval <= 0 disables it.
func NewHeartbeat(interval time.Duration, startTime time.Time) *Heartbeat {
	return &Heartbeat{
		interval:  interval,
		startTime: startTime,
		last:      startTime,
	}
}

// Check returns heartbeat data if the interval has elapsed since the last
// heartbeat (or startup). Returns nil otherwise or when disabled.
func (h *Heartbeat) Check(now time.Time, counts Counts) *HeartbeatData {
	if h.interval <= 0 {
		return nil
	}

	if now.Sub(h.last) < h.interval {
		return nil
	}

	h.last = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(h.startTime),
		Counts:    counts,
	}
}
