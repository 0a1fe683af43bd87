// Package gpio provides GPIO line access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

import "fmt"

// Reader reads the two button inputs.
type Reader interface {
	// Read returns the RAW levels of the enable and select inputs
	// (true = high). Buttons are wired active-low with pull-ups, so a
	// pressed button reads false.
	Read() (enable, sel bool, err error)

	// Close releases GPIO resources.
	Close() error
}

// Writer drives the output lines.
type Writer interface {
	// Write sets a logical output line high or low.
	Write(line Line, high bool) error
}

// Line names a logical output.
type Line int

const (
	LineData Line = iota
	LineSync
	LineEnableLED
	LineSelectLED
)

func (l Line) String() string {
	switch l {
	case LineData:
		return "DATA"
	case LineSync:
		return "SYNC"
	case LineEnableLED:
		return "ENABLE_LED"
	case LineSelectLED:
		return "SELECT_LED"
	}
	return fmt.Sprintf("Line(%d)", int(l))
}

// Default line offsets on gpiochip0 (BCM numbering).
const (
	DefaultChip      = "gpiochip0"
	DefaultPinEnable = 18
	DefaultPinSelect = 19
	DefaultPinData   = 23
	DefaultPinSync   = 5
)

// Pins maps logical lines to offsets on a GPIO chip.
type Pins struct {
	Chip      string
	Enable    int
	Select    int
	Data      int
	Sync      int
	EnableLED int
	SelectLED int
}

// DefaultPins returns the stock wiring. The indicator LEDs share the data
// and sync lines, so a frame overwrites their level.
func DefaultPins() Pins {
	return Pins{
		Chip:      DefaultChip,
		Enable:    DefaultPinEnable,
		Select:    DefaultPinSelect,
		Data:      DefaultPinData,
		Sync:      DefaultPinSync,
		EnableLED: DefaultPinData,
		SelectLED: DefaultPinSync,
	}
}

// Offset returns the chip offset for an output line.
func (p Pins) Offset(l Line) int {
	switch l {
	case LineData:
		return p.Data
	case LineSync:
		return p.Sync
	case LineEnableLED:
		return p.EnableLED
	case LineSelectLED:
		return p.SelectLED
	}
	return -1
}

// Outputs returns the distinct output offsets in line order.
func (p Pins) Outputs() []int {
	var offsets []int
	seen := make(map[int]bool)
	for _, l := range []Line{LineData, LineSync, LineEnableLED, LineSelectLED} {
		o := p.Offset(l)
		if seen[o] {
			continue
		}
		seen[o] = true
		offsets = append(offsets, o)
	}
	return offsets
}

// Validate checks that the mapping can be requested from one chip.
func (p Pins) Validate() error {
	if p.Chip == "" {
		return fmt.Errorf("chip name is empty")
	}
	for name, o := range map[string]int{
		"enable": p.Enable, "select": p.Select, "data": p.Data,
		"sync": p.Sync, "enable-led": p.EnableLED, "select-led": p.SelectLED,
	} {
		if o < 0 {
			return fmt.Errorf("%s pin %d is negative", name, o)
		}
	}
	if p.Enable == p.Select {
		return fmt.Errorf("enable and select share pin %d", p.Enable)
	}
	if p.Data == p.Sync {
		return fmt.Errorf("data and sync share pin %d", p.Data)
	}
	for _, o := range p.Outputs() {
		if o == p.Enable || o == p.Select {
			return fmt.Errorf("pin %d is both input and output", o)
		}
	}
	return nil
}
