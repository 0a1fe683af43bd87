// Command pulse-generator reads two toggle buttons on GPIO and, while enabled,
// emits a fixed pulse-train frame and sync pulse on two output lines.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sweeney/pulse-generator/internal/config"
	"github.com/sweeney/pulse-generator/internal/gpio"
	"github.com/sweeney/pulse-generator/internal/waveform"
)

var (
	configPath    string
	logLevel      string
	frameReversed bool
)

func newMainCmd() *cobra.Command {
	mainCmd := &cobra.Command{
		Use:           "pulse-generator",
		Short:         "Button-gated GPIO pulse-train generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Poll the buttons and emit frames until interrupted",
		RunE:  runGenerator,
	}
	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Print the current button levels and exit",
		RunE:  runState,
	}
	frameCmd := &cobra.Command{
		Use:   "frame",
		Short: "Print the frame schedule without touching GPIO",
		RunE:  runFrame,
	}
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print an example config file",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), config.Example)
		},
	}

	mainCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config path. Missing default file is ignored")
	mainCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides config)")
	mainCmd.PersistentFlags().String("chip", gpio.DefaultChip, "GPIO chip name")
	mainCmd.PersistentFlags().Int("pin-enable", gpio.DefaultPinEnable, "Enable button line offset")
	mainCmd.PersistentFlags().Int("pin-select", gpio.DefaultPinSelect, "Select button line offset")

	runCmd.Flags().Int("pin-data", gpio.DefaultPinData, "Data output line offset")
	runCmd.Flags().Int("pin-sync", gpio.DefaultPinSync, "Sync output line offset")
	runCmd.Flags().Int("pin-enable-led", -1, "Enable indicator line offset (default: data line)")
	runCmd.Flags().Int("pin-select-led", -1, "Select indicator line offset (default: sync line)")
	runCmd.Flags().String("http", "", `HTTP status address (overrides config, "off" disables)`)
	runCmd.Flags().String("broker", "", `MQTT broker address (overrides config, "off" disables)`)
	runCmd.Flags().Duration("heartbeat", 0, "Heartbeat interval (overrides config, 0 disables)")
	runCmd.Flags().Duration("poll", 0, "Poll interval while data is disabled (overrides config)")

	frameCmd.Flags().BoolVar(&frameReversed, "reversed", false, "Show the reversed frame")

	mainCmd.AddCommand(runCmd, stateCmd, frameCmd, configCmd)
	return mainCmd
}

func main() {
	if err := newMainCmd().Execute(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := configPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if err := applyFlags(cmd, &cfg); err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}

	log.SetLevel(cfg.Level())
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	var err error
	str := func(name string, dst *string) {
		if err == nil && flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, err = flags.GetString(name)
		}
	}
	num := func(name string, dst *int) {
		if err == nil && flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, err = flags.GetInt(name)
		}
	}
	optNum := func(name string, dst **int) {
		if err == nil && flags.Lookup(name) != nil && flags.Changed(name) {
			var v int
			v, err = flags.GetInt(name)
			*dst = &v
		}
	}
	dur := func(name string, dst *config.Duration) {
		if err == nil && flags.Lookup(name) != nil && flags.Changed(name) {
			dst.Duration, err = flags.GetDuration(name)
		}
	}

	str("chip", &cfg.Chip)
	num("pin-enable", &cfg.Pins.Enable)
	num("pin-select", &cfg.Pins.Select)
	num("pin-data", &cfg.Pins.Data)
	num("pin-sync", &cfg.Pins.Sync)
	optNum("pin-enable-led", &cfg.Pins.EnableLED)
	optNum("pin-select-led", &cfg.Pins.SelectLED)
	str("http", &cfg.HTTPAddr)
	str("broker", &cfg.Broker)
	dur("heartbeat", &cfg.Heartbeat)
	dur("poll", &cfg.Poll)
	if err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	if cfg.HTTPAddr == "off" {
		cfg.HTTPAddr = ""
	}
	if cfg.Broker == "off" {
		cfg.Broker = ""
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return nil
}

// openInputs opens the button lines for the state command without claiming
// the outputs.
var openInputs = func(pins gpio.Pins) (gpio.Reader, error) {
	dev, err := gpio.NewRealInputs(pins)
	if err != nil {
		return nil, err
	}
	return dev, nil
}

func runState(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dev, err := openInputs(cfg.GPIOPins())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer dev.Close()

	en, sel, err := dev.Read()
	if err != nil {
		return fmt.Errorf("read gpio: %w", err)
	}
	printState(cmd.OutOrStdout(), en, sel)
	return nil
}

func printState(w io.Writer, rawEnable, rawSelect bool) {
	fmt.Fprintf(w, "ENABLE: %s, SELECT: %s\n", levelString(rawEnable), levelString(rawSelect))
}

// levelString describes a raw active-low button level.
func levelString(raw bool) string {
	if raw {
		return "HIGH (released)"
	}
	return "LOW (pressed)"
}

func runFrame(cmd *cobra.Command, args []string) error {
	printFrame(cmd.OutOrStdout(), waveform.DirectionFor(frameReversed))
	return nil
}

func printFrame(w io.Writer, dir waveform.Direction) {
	fmt.Fprintf(w, "%s frame:\n", dir)
	for _, p := range waveform.Frame(dir) {
		fmt.Fprintf(w, "  pulse %2d: high %dus, low %dus\n", p.Index, p.OnTime, p.OffTime)
	}
	fmt.Fprintf(w, "  idle: %dus\n", waveform.IdleGap)
	fmt.Fprintf(w, "  sync: %dus\n", waveform.SyncWidth)
	fmt.Fprintf(w, "total: %dus\n", waveform.FrameDuration())
}
