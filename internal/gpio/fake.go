package gpio

import (
	"context"
	"errors"
	"sync"
)

// FakePad is a test double that returns scripted capture levels.
type FakePad struct {
	mu sync.Mutex

	// Levels contains scripted elapsed counts to return.
	// Each call to Cycle() consumes the next level.
	Levels []uint16

	// index tracks current position in Levels
	index int

	// counter is the free-running counter; it keeps advancing so that
	// long scripts wrap it.
	counter uint16

	// Closed tracks if Close was called
	Closed bool

	// CycleError, if set, will be returned by Cycle()
	CycleError error
}

// NewFakePad creates a FakePad with the given levels.
func NewFakePad(levels []uint16) *FakePad {
	return &FakePad{Levels: levels}
}

// Cycle returns counter values whose difference is the next scripted level.
// If levels are exhausted, returns the last level repeatedly.
func (f *FakePad) Cycle(ctx context.Context) (uint16, uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.CycleError != nil {
		return 0, 0, f.CycleError
	}

	if len(f.Levels) == 0 {
		return 0, 0, errors.New("no levels configured")
	}

	level := f.Levels[f.index]
	if f.index < len(f.Levels)-1 {
		f.index++
	}

	start := f.counter
	end := start + level
	// Idle gap between cycles.
	f.counter = end + 4000

	return start, end, nil
}

// Close marks the pad as closed.
func (f *FakePad) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Reset resets the pad to the beginning of levels.
func (f *FakePad) Reset() {
	f.mu.Lock()
	f.index = 0
	f.Closed = false
	f.mu.Unlock()
}

// FakeLED records LED output for test assertions.
type FakeLED struct {
	mu     sync.Mutex
	on     bool
	states []bool

	// SetError, if set, will be returned by Set (the state is still recorded).
	SetError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeLED creates a FakeLED that starts off.
func NewFakeLED() *FakeLED {
	return &FakeLED{}
}

// Set records the requested state.
func (f *FakeLED) Set(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.on = on
	f.states = append(f.states, on)
	return f.SetError
}

// IsOn returns the last requested state.
func (f *FakeLED) IsOn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.on
}

// History returns a copy of every requested state.
func (f *FakeLED) History() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bool, len(f.states))
	copy(out, f.states)
	return out
}

// Close turns the LED off and marks it closed.
func (f *FakeLED) Close() error {
	f.mu.Lock()
	f.on = false
	f.Closed = true
	f.mu.Unlock()
	return nil
}
