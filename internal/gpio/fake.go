package gpio

import "errors"

// FakeReader is a test double that returns scripted GPIO values.
type FakeReader struct {
	// Samples contains scripted raw levels to return.
	// Each call to Read() consumes the next sample.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// Sample is a single raw reading of both inputs (true = high = released).
type Sample struct {
	Enable bool
	Select bool
}

// Released is the idle level of both pulled-up inputs.
var Released = Sample{Enable: true, Select: true}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []Sample) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (bool, bool, error) {
	if f.ReadError != nil {
		return false, false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample.Enable, sample.Select, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}

// WriteRecord is one recorded output write.
type WriteRecord struct {
	Line Line
	High bool
	At   uint64 // microseconds, from FakeWriter.Now
}

// FakeWriter records output writes for test assertions.
type FakeWriter struct {
	// Writes contains every write in call order.
	Writes []WriteRecord

	// Levels holds the last level written per line.
	Levels map[Line]bool

	// Now, if set, timestamps each write.
	Now func() uint64

	// WriteError, if set, is returned by Write and nothing is recorded.
	WriteError error

	// FailOn, if set, makes only writes to that line fail with WriteError.
	FailOn *Line
}

// NewFakeWriter creates a FakeWriter. now may be nil.
func NewFakeWriter(now func() uint64) *FakeWriter {
	return &FakeWriter{Levels: make(map[Line]bool), Now: now}
}

// Write records the write.
func (f *FakeWriter) Write(l Line, high bool) error {
	if f.WriteError != nil && (f.FailOn == nil || *f.FailOn == l) {
		return f.WriteError
	}
	var at uint64
	if f.Now != nil {
		at = f.Now()
	}
	f.Writes = append(f.Writes, WriteRecord{Line: l, High: high, At: at})
	f.Levels[l] = high
	return nil
}

// WritesTo returns the recorded writes for one line.
func (f *FakeWriter) WritesTo(l Line) []WriteRecord {
	var out []WriteRecord
	for _, w := range f.Writes {
		if w.Line == l {
			out = append(out, w)
		}
	}
	return out
}

// Reset clears recorded writes.
func (f *FakeWriter) Reset() {
	f.Writes = nil
	f.Levels = make(map[Line]bool)
}
