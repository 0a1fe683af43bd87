// Package mqtt publishes mode changes and lifecycle events to an MQTT broker,
// with an abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/pulse-generator/internal/logic"
	"github.com/sweeney/pulse-generator/internal/waveform"
)

// Topic is the MQTT topic for mode change events.
const Topic = "pulsegen/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "pulsegen/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a mode change event to the broker.
	// It must not block the control loop.
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close flushes pending messages and disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	PulseGen EventPayload `json:"pulsegen"`
}

// EventPayload contains the mode change details.
type EventPayload struct {
	Timestamp   string `json:"timestamp"`
	Event       string `json:"event"`
	DataEnabled bool   `json:"data_enabled"`
	Mode        string `json:"mode"`
}

// FormatPayload creates the JSON payload for a mode change event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		PulseGen: EventPayload{
			Timestamp:   event.Timestamp.UTC().Format(time.RFC3339),
			Event:       string(event.Type),
			DataEnabled: event.DataEnabled,
			Mode:        waveform.DirectionFor(event.Reversed).String(),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
