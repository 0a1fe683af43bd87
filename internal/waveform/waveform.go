// Package waveform generates the fixed pulse-train frame on the data line
// followed by a sync pulse.
package waveform

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/pulse-generator/internal/clock"
	"github.com/sweeney/pulse-generator/internal/gpio"
)

// Frame timing in microseconds.
const (
	PulseCount = 13
	BaseOnTime = uint64(1200)
	OnTimeStep = uint64(50)
	OffTime    = uint64(600)
	IdleGap    = uint64(6000)
	SyncWidth  = uint64(50)
)

// Direction selects the order in which pulse widths are emitted.
type Direction int

const (
	// Forward emits pulses 1..13 with increasing on-times.
	Forward Direction = iota
	// Reversed emits pulses 13..1 with decreasing on-times.
	Reversed
)

func (d Direction) String() string {
	if d == Reversed {
		return "reversed"
	}
	return "normal"
}

// DirectionFor maps the reversed mode flag to a Direction.
func DirectionFor(reversed bool) Direction {
	if reversed {
		return Reversed
	}
	return Forward
}

// Pulse is one on/off cycle of the data line.
type Pulse struct {
	Index   int // 1-based pulse number
	OnTime  uint64
	OffTime uint64
}

// OnTime returns the high time of pulse n (1-based).
func OnTime(n int) uint64 {
	return BaseOnTime + uint64(n-1)*OnTimeStep
}

// Frame returns the pulse schedule for one frame in emission order.
func Frame(dir Direction) []Pulse {
	pulses := make([]Pulse, 0, PulseCount)
	for i := 0; i < PulseCount; i++ {
		n := i + 1
		if dir == Reversed {
			n = PulseCount - i
		}
		pulses = append(pulses, Pulse{Index: n, OnTime: OnTime(n), OffTime: OffTime})
	}
	return pulses
}

// FrameDuration returns the total blocking time of one Generate call.
// It is the same for both directions.
func FrameDuration() uint64 {
	var total uint64
	for _, p := range Frame(Forward) {
		total += p.OnTime + p.OffTime
	}
	return total + IdleGap + SyncWidth
}

// Generator drives one frame at a time onto the output lines.
type Generator struct {
	out gpio.Writer
	clk clock.Clock
	log *log.Entry
}

// NewGenerator creates a Generator writing to out and timing with clk.
func NewGenerator(out gpio.Writer, clk clock.Clock) *Generator {
	return &Generator{
		out: out,
		clk: clk,
		log: log.WithField("component", "waveform"),
	}
}

// Generate emits one full frame and returns when the sync pulse has ended.
// It blocks for FrameDuration microseconds and does not look at the inputs.
// A write error aborts the frame; the data line is then driven low on a best
// effort basis.
func (g *Generator) Generate(dir Direction) error {
	debug := g.log.Logger.IsLevelEnabled(log.DebugLevel)
	if debug {
		g.log.Debugf("generating %s waveform", dir)
	}

	for _, p := range Frame(dir) {
		if debug {
			g.log.Debugf("pulse %d: data high for %dus", p.Index, p.OnTime)
		}
		if err := g.out.Write(gpio.LineData, true); err != nil {
			return g.abort(fmt.Errorf("pulse %d high: %w", p.Index, err))
		}
		g.clk.DelayMicros(p.OnTime)
		if err := g.out.Write(gpio.LineData, false); err != nil {
			return g.abort(fmt.Errorf("pulse %d low: %w", p.Index, err))
		}
		g.clk.DelayMicros(p.OffTime)
	}

	// Data is already low from the last off phase.
	g.clk.DelayMicros(IdleGap)

	if err := g.out.Write(gpio.LineSync, true); err != nil {
		return fmt.Errorf("sync high: %w", err)
	}
	g.clk.DelayMicros(SyncWidth)
	if err := g.out.Write(gpio.LineSync, false); err != nil {
		return fmt.Errorf("sync low: %w", err)
	}
	return nil
}

func (g *Generator) abort(err error) error {
	if werr := g.out.Write(gpio.LineData, false); werr != nil {
		g.log.WithError(werr).Warn("could not drive data low after failed write")
	}
	return err
}
