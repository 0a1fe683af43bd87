package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/pulse-generator/internal/gpio"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pulse-generator.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if got := c.GPIOPins(); got != gpio.DefaultPins() {
		t.Errorf("GPIOPins: got %+v, want %+v", got, gpio.DefaultPins())
	}
	if c.Broker != "" {
		t.Errorf("MQTT should be disabled by default, got broker %q", c.Broker)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Chip != gpio.DefaultChip {
		t.Errorf("Chip: got %q, want %q", c.Chip, gpio.DefaultChip)
	}
}

func TestLoadExample(t *testing.T) {
	c, err := Load(writeConfig(t, Example))
	if err != nil {
		t.Fatalf("example config should load: %v", err)
	}
	if c.GPIOPins() != gpio.DefaultPins() {
		t.Errorf("example pins differ from defaults: %+v", c.GPIOPins())
	}
	if c.Heartbeat.Duration != 15*time.Minute {
		t.Errorf("Heartbeat: got %v, want 15m", c.Heartbeat.Duration)
	}
}

func TestLoadOverrides(t *testing.T) {
	c, err := Load(writeConfig(t, `
chip = "gpiochip4"
poll = "1ms"
broker = "tcp://broker:1883"
heartbeat = "30s"
log_level = "debug"

[pins]
enable = 5
select = 6
data = 13
sync = 19
enable_led = 20
select_led = 21
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := c.GPIOPins()
	want := gpio.Pins{Chip: "gpiochip4", Enable: 5, Select: 6, Data: 13, Sync: 19, EnableLED: 20, SelectLED: 21}
	if p != want {
		t.Errorf("GPIOPins: got %+v, want %+v", p, want)
	}
	if c.Poll.Duration != time.Millisecond {
		t.Errorf("Poll: got %v, want 1ms", c.Poll.Duration)
	}
	if c.Broker != "tcp://broker:1883" {
		t.Errorf("Broker: got %q", c.Broker)
	}
	if c.Level() != log.DebugLevel {
		t.Errorf("Level: got %v, want debug", c.Level())
	}
	// Unset keys keep their defaults
	if c.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr: got %q, want default :8080", c.HTTPAddr)
	}
}

func TestLoadUnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, "chip = \"gpiochip0\"\npulse_count = 20\n"))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "pulse_count") {
		t.Errorf("error should name the key, got %v", err)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", "chip = \n"},
		{"bad duration", "heartbeat = \"soon\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// Load only decodes; values are checked by Validate once command-line
// overrides have been applied.
func TestLoadDefersValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative poll", "poll = \"-1s\"\n"},
		{"bad level", "log_level = \"loud\"\n"},
		{"shared inputs", "[pins]\nenable = 18\nselect = 18\ndata = 23\nsync = 5\n"},
		{"led on input", "[pins]\nenable = 18\nselect = 19\ndata = 23\nsync = 5\nenable_led = 19\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Load(writeConfig(t, tt.body))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if err := c.Validate(); err == nil {
				t.Error("expected Validate error")
			}
		})
	}
}

func TestLoadThenOverrideValidates(t *testing.T) {
	c, err := Load(writeConfig(t, "[pins]\nenable = 18\nselect = 18\ndata = 23\nsync = 5\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c.Pins.Select = 19
	if err := c.Validate(); err != nil {
		t.Errorf("overridden config should be valid: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}
