package sequencer

import "github.com/sweeney/touchlight/internal/touch"

// Follower drives the LED directly from the touch decision.
type Follower struct {
	lit bool
}

// Step sets the LED to the current touch state.
func (f *Follower) Step(h touch.History, led LED) (Transition, error) {
	f.lit = h.Active()
	return None, led.Set(f.lit)
}

// Mode always returns ModeFollow.
func (f *Follower) Mode() Mode { return ModeFollow }

// Busy reports whether the LED is currently lit.
func (f *Follower) Busy() bool { return f.lit }

// HasLight reports whether the LED is currently lit.
func (f *Follower) HasLight() bool { return f.lit }

// Pattern is empty; a follower stores nothing.
func (f *Follower) Pattern() string { return "" }
