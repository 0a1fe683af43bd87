// Package status provides a thread-safe status tracker for the pulse
// generator. The control loop is the only writer; HTTP handlers and the
// MQTT heartbeat read snapshots.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/pulse-generator/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	Chip        string
	PinEnable   int
	PinSelect   int
	PinData     int
	PinSync     int
	PinEnLED    int
	PinSelLED   int
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Flags         logic.ModeFlags
	Counts        logic.Counts
	StartTime     time.Time
	LastFrame     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update sets the mode flags and counts. Called by the control loop after
// every iteration.
func (t *Tracker) Update(flags logic.ModeFlags, counts logic.Counts) {
	t.mu.Lock()
	if counts.Frames != t.snap.Counts.Frames {
		t.snap.LastFrame = t.now()
	}
	t.snap.Flags = flags
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
