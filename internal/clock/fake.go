package clock

// Fake is a test double whose time only advances through DelayMicros or
// Advance.
type Fake struct {
	// Now is the current simulated time in microseconds.
	Now uint64

	// Delays records every DelayMicros argument in call order.
	Delays []uint64
}

// NewFake creates a Fake starting at the given time.
func NewFake(start uint64) *Fake {
	return &Fake{Now: start}
}

// NowMicros returns the simulated time.
func (f *Fake) NowMicros() uint64 {
	return f.Now
}

// DelayMicros advances simulated time and records the delay.
func (f *Fake) DelayMicros(us uint64) {
	f.Delays = append(f.Delays, us)
	f.Now += us
}

// Advance moves simulated time forward without recording a delay.
func (f *Fake) Advance(us uint64) {
	f.Now += us
}

// Total returns the sum of all recorded delays.
func (f *Fake) Total() uint64 {
	var sum uint64
	for _, d := range f.Delays {
		sum += d
	}
	return sum
}
