package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/pulse-generator/internal/waveform"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	DataEnabled   bool       `json:"data_enabled"`
	Mode          string     `json:"mode"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	LastFrame     string     `json:"last_frame,omitempty"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"counts"`
	Frame         FrameJSON  `json:"frame"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of activity counts.
type CountsJSON struct {
	EnableToggles int `json:"enable_toggles"`
	SelectToggles int `json:"select_toggles"`
	Frames        int `json:"frames"`
}

// FrameJSON describes the fixed frame timing.
type FrameJSON struct {
	Pulses     int      `json:"pulses"`
	OnTimesUs  []uint64 `json:"on_times_us"`
	OffTimeUs  uint64   `json:"off_time_us"`
	IdleUs     uint64   `json:"idle_us"`
	SyncUs     uint64   `json:"sync_us"`
	DurationUs uint64   `json:"duration_us"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Chip        string `json:"chip"`
	PinEnable   int    `json:"pin_enable"`
	PinSelect   int    `json:"pin_select"`
	PinData     int    `json:"pin_data"`
	PinSync     int    `json:"pin_sync"`
	PinEnLED    int    `json:"pin_enable_led"`
	PinSelLED   int    `json:"pin_select_led"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildFrame(dir waveform.Direction) FrameJSON {
	f := FrameJSON{
		Pulses:     waveform.PulseCount,
		OffTimeUs:  waveform.OffTime,
		IdleUs:     waveform.IdleGap,
		SyncUs:     waveform.SyncWidth,
		DurationUs: waveform.FrameDuration(),
	}
	for _, p := range waveform.Frame(dir) {
		f.OnTimesUs = append(f.OnTimesUs, p.OnTime)
	}
	return f
}

func buildInner(snap Snapshot) StatusInner {
	dir := waveform.DirectionFor(snap.Flags.Reversed)
	inner := StatusInner{
		DataEnabled:   snap.Flags.DataEnabled,
		Mode:          dir.String(),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			EnableToggles: snap.Counts.EnableToggles,
			SelectToggles: snap.Counts.SelectToggles,
			Frames:        snap.Counts.Frames,
		},
		Frame: buildFrame(dir),
		Config: ConfigJSON{
			Chip:        snap.Config.Chip,
			PinEnable:   snap.Config.PinEnable,
			PinSelect:   snap.Config.PinSelect,
			PinData:     snap.Config.PinData,
			PinSync:     snap.Config.PinSync,
			PinEnLED:    snap.Config.PinEnLED,
			PinSelLED:   snap.Config.PinSelLED,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
	if !snap.LastFrame.IsZero() {
		inner.LastFrame = snap.LastFrame.UTC().Format(time.RFC3339)
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
