// Package control runs the button/waveform loop. A Controller owns the mode
// flags and debounce history and must only be driven from one goroutine.
package control

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/pulse-generator/internal/clock"
	"github.com/sweeney/pulse-generator/internal/gpio"
	"github.com/sweeney/pulse-generator/internal/logic"
	"github.com/sweeney/pulse-generator/internal/mqtt"
	"github.com/sweeney/pulse-generator/internal/status"
	"github.com/sweeney/pulse-generator/internal/waveform"
)

// Controller polls the buttons, applies toggles and emits frames.
type Controller struct {
	in      gpio.Reader
	out     gpio.Writer
	clk     clock.Clock
	gen     *waveform.Generator
	pub     mqtt.Publisher
	tracker *status.Tracker
	now     func() time.Time

	debouncer *logic.Debouncer
	flags     logic.ModeFlags
	counts    logic.Counts

	readFailing bool

	log *log.Entry
}

// Option configures a Controller.
type Option func(*Controller)

// WithPublisher sends mode change events to p.
func WithPublisher(p mqtt.Publisher) Option {
	return func(c *Controller) { c.pub = p }
}

// WithTracker records flags and counts in t after every step.
func WithTracker(t *status.Tracker) Option {
	return func(c *Controller) { c.tracker = t }
}

// WithWallClock sets the source of event timestamps.
func WithWallClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates a Controller with both flags cleared.
func New(in gpio.Reader, out gpio.Writer, clk clock.Clock, opts ...Option) *Controller {
	c := &Controller{
		in:        in,
		out:       out,
		clk:       clk,
		gen:       waveform.NewGenerator(out, clk),
		pub:       mqtt.Discard{},
		now:       time.Now,
		debouncer: logic.NewDebouncer(),
		log:       log.WithField("component", "control"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Flags returns the current mode flags.
func (c *Controller) Flags() logic.ModeFlags {
	return c.flags
}

// Counts returns activity counts since New.
func (c *Controller) Counts() logic.Counts {
	return c.counts
}

// Step runs one loop iteration: poll the buttons, apply any toggles, and if
// data is enabled emit one full frame. Buttons are not read while the frame
// is being generated. Read errors are logged once per failing run and do not
// stop frames.
func (c *Controller) Step() error {
	// A failed read only skips button handling; frames keep running in the
	// current mode.
	rawEnable, rawSelect, err := c.in.Read()
	if err != nil {
		if !c.readFailing {
			c.log.WithError(err).Warn("gpio read error, holding current mode")
			c.readFailing = true
		}
	} else {
		if c.readFailing {
			c.log.Info("gpio read recovered")
			c.readFailing = false
		}
		toggles := c.debouncer.Poll(rawEnable, rawSelect, c.clk.NowMicros())
		if toggles.Any() {
			if err := c.applyToggles(toggles); err != nil {
				return err
			}
		}
	}

	if c.flags.DataEnabled {
		if err := c.gen.Generate(waveform.DirectionFor(c.flags.Reversed)); err != nil {
			return fmt.Errorf("generate frame: %w", err)
		}
		c.counts.Frames++
	}

	if c.tracker != nil {
		c.tracker.Update(c.flags, c.counts)
	}
	return nil
}

func (c *Controller) applyToggles(t logic.Toggles) error {
	events := c.flags.Apply(t, c.now())

	for _, e := range events {
		switch e.Type {
		case logic.EventDataEnabled, logic.EventDataDisabled:
			c.counts.EnableToggles++
			if err := c.out.Write(gpio.LineEnableLED, e.DataEnabled); err != nil {
				return fmt.Errorf("enable indicator: %w", err)
			}
		case logic.EventReversed, logic.EventForward:
			c.counts.SelectToggles++
			if err := c.out.Write(gpio.LineSelectLED, e.Reversed); err != nil {
				return fmt.Errorf("select indicator: %w", err)
			}
		}

		c.log.WithFields(log.Fields{
			"event":        e.Type,
			"data_enabled": e.DataEnabled,
			"mode":         waveform.DirectionFor(e.Reversed),
		}).Info("button toggled")

		if err := c.pub.Publish(e); err != nil {
			c.log.WithError(err).Warn("publish error")
			// Don't stop the loop on publish failure
		}
	}
	return nil
}
