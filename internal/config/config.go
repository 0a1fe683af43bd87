// Package config loads daemon settings from a TOML file. Frame timing is
// fixed at compile time and is not configurable here.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/pulse-generator/internal/gpio"
)

// DefaultPath is where the run command looks for a config file.
const DefaultPath = "/etc/pulse-generator.toml"

// Duration is a time.Duration that decodes from strings like "15m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Pins holds line offsets. The LED offsets are optional and default to the
// data and sync lines.
type Pins struct {
	Enable    int  `toml:"enable"`
	Select    int  `toml:"select"`
	Data      int  `toml:"data"`
	Sync      int  `toml:"sync"`
	EnableLED *int `toml:"enable_led"`
	SelectLED *int `toml:"select_led"`
}

// Config is the daemon configuration.
type Config struct {
	Chip      string   `toml:"chip"`
	Pins      Pins     `toml:"pins"`
	Poll      Duration `toml:"poll"`
	HTTPAddr  string   `toml:"http"`
	Broker    string   `toml:"broker"`
	Heartbeat Duration `toml:"heartbeat"`
	LogLevel  string   `toml:"log_level"`
}

// Default returns the stock configuration: default wiring, tight polling,
// status page on :8080 and MQTT disabled.
func Default() Config {
	return Config{
		Chip: gpio.DefaultChip,
		Pins: Pins{
			Enable: gpio.DefaultPinEnable,
			Select: gpio.DefaultPinSelect,
			Data:   gpio.DefaultPinData,
			Sync:   gpio.DefaultPinSync,
		},
		HTTPAddr:  ":8080",
		Heartbeat: Duration{15 * time.Minute},
		LogLevel:  "info",
	}
}

// Load returns Default overlaid with the file at path. An empty path skips
// the file. Unknown keys are an error.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return c, nil
}

// Validate checks pin mapping, durations and log level.
func (c Config) Validate() error {
	if err := c.GPIOPins().Validate(); err != nil {
		return fmt.Errorf("pins: %w", err)
	}
	if c.Poll.Duration < 0 {
		return fmt.Errorf("poll must not be negative")
	}
	if c.Heartbeat.Duration < 0 {
		return fmt.Errorf("heartbeat must not be negative")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// GPIOPins converts the pin table into a gpio.Pins mapping.
func (c Config) GPIOPins() gpio.Pins {
	p := gpio.Pins{
		Chip:      c.Chip,
		Enable:    c.Pins.Enable,
		Select:    c.Pins.Select,
		Data:      c.Pins.Data,
		Sync:      c.Pins.Sync,
		EnableLED: c.Pins.Data,
		SelectLED: c.Pins.Sync,
	}
	if c.Pins.EnableLED != nil {
		p.EnableLED = *c.Pins.EnableLED
	}
	if c.Pins.SelectLED != nil {
		p.SelectLED = *c.Pins.SelectLED
	}
	return p
}

// Level returns the parsed log level, falling back to info.
func (c Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Example is a commented config file with the default values.
const Example = `# pulse-generator configuration
# Line offsets are on the named GPIO chip (BCM numbering on a Raspberry Pi).

chip = "gpiochip0"

# Delay between button polls while data is disabled. 0 polls continuously.
poll = "0s"

# Status page address. Empty disables it.
http = ":8080"

# MQTT broker for mode change and lifecycle events. Empty disables it.
broker = ""
heartbeat = "15m"

# trace, debug, info, warn, error
log_level = "info"

[pins]
enable = 18
select = 19
data = 23
sync = 5
# Indicators default to the data and sync lines. Uncomment to give them
# their own LEDs so frames don't overwrite them.
# enable_led = 24
# select_led = 25
`
