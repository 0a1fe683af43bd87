//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

const consumer = "pulse-generator"

// RealIO drives GPIO lines on actual hardware using the Linux GPIO character
// device. It implements both Reader and Writer.
type RealIO struct {
	chip    *gpiocdev.Chip
	enable  *gpiocdev.Line
	sel     *gpiocdev.Line
	outputs map[int]*gpiocdev.Line
	pins    Pins
}

// NewRealIO requests the button inputs with pull-ups and the output lines
// driven low.
func NewRealIO(pins Pins) (*RealIO, error) {
	return open(pins, true)
}

// NewRealInputs requests only the button inputs. Output lines are left
// untouched and Write fails.
func NewRealInputs(pins Pins) (*RealIO, error) {
	return open(pins, false)
}

func open(pins Pins, withOutputs bool) (*RealIO, error) {
	if err := pins.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pins: %w", err)
	}

	chip, err := gpiocdev.NewChip(pins.Chip, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", pins.Chip, err)
	}

	r := &RealIO{
		chip:    chip,
		outputs: make(map[int]*gpiocdev.Line),
		pins:    pins,
	}

	// Buttons pull the line to ground when pressed.
	r.enable, err = chip.RequestLine(pins.Enable, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("request enable pin %d: %w", pins.Enable, err)
	}

	r.sel, err = chip.RequestLine(pins.Select, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("request select pin %d: %w", pins.Select, err)
	}

	if !withOutputs {
		return r, nil
	}
	for _, o := range pins.Outputs() {
		line, err := chip.RequestLine(o, gpiocdev.AsOutput(0))
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request output pin %d: %w", o, err)
		}
		r.outputs[o] = line
	}

	return r, nil
}

// Read returns the raw levels of the enable and select inputs.
func (r *RealIO) Read() (bool, bool, error) {
	enRaw, err := r.enable.Value()
	if err != nil {
		return false, false, fmt.Errorf("read enable pin: %w", err)
	}

	selRaw, err := r.sel.Value()
	if err != nil {
		return false, false, fmt.Errorf("read select pin: %w", err)
	}

	return enRaw != 0, selRaw != 0, nil
}

// Write sets the level of a logical output line.
func (r *RealIO) Write(l Line, high bool) error {
	line, ok := r.outputs[r.pins.Offset(l)]
	if !ok {
		return fmt.Errorf("write %s: line not requested", l)
	}
	v := 0
	if high {
		v = 1
	}
	if err := line.SetValue(v); err != nil {
		return fmt.Errorf("write %s: %w", l, err)
	}
	return nil
}

// Close releases GPIO resources.
// Every line is returned to input with pull-up so nothing is left driven
// after the daemon exits.
func (r *RealIO) Close() error {
	var errs []error

	release := func(name string, line *gpiocdev.Line) {
		if line == nil {
			return
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s: %w", name, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}

	release("enable pin", r.enable)
	release("select pin", r.sel)
	for o, line := range r.outputs {
		release(fmt.Sprintf("output pin %d", o), line)
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
