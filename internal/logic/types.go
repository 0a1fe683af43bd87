// Package logic contains the pure button and mode-flag logic.
// This package has NO external dependencies (no GPIO, MQTT, OS, or sleeping).
// Time is always injected by the caller.
package logic

import "time"

// DebounceWindow is the minimum time in microseconds between two accepted
// toggles on one button.
const DebounceWindow uint64 = 200_000

// ModeFlags are the two persistent mode bits toggled by the buttons.
type ModeFlags struct {
	// DataEnabled gates the waveform generator.
	DataEnabled bool
	// Reversed selects descending pulse widths.
	Reversed bool
}

// ButtonChannel holds debounce history for one button.
type ButtonChannel struct {
	// LastActive is whether the button was pressed on the previous poll.
	LastActive bool
	// LastToggle is the clock reading of the last accepted toggle.
	LastToggle uint64
}

// Toggles reports which buttons produced a qualified press on one poll.
type Toggles struct {
	Enable bool
	Select bool
}

// Any reports whether either button toggled.
func (t Toggles) Any() bool {
	return t.Enable || t.Select
}

// EventType represents a mode flag change.
type EventType string

const (
	EventDataEnabled  EventType = "DATA_ENABLED"
	EventDataDisabled EventType = "DATA_DISABLED"
	EventReversed     EventType = "MODE_REVERSED"
	EventForward      EventType = "MODE_FORWARD"
)

// Event represents a mode change to be published.
type Event struct {
	Timestamp   time.Time
	Type        EventType
	DataEnabled bool
	Reversed    bool
}

// Counts tracks activity since startup.
type Counts struct {
	EnableToggles int
	SelectToggles int
	Frames        int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}
