// Package sequencer records a touch-drawn light pattern and plays it back in a loop.
package sequencer

import (
	"strings"

	"github.com/sweeney/touchlight/internal/touch"
)

const (
	// Length is the number of steps in a sequence (10 seconds).
	Length = 100
	// Divider is the number of sample ticks per step.
	Divider = 2
	// CountdownTicks is the length of the blinking countdown before
	// recording starts.
	CountdownTicks = 30
)

// LED is the light output driven by the sequencer.
type LED interface {
	Set(on bool) error
}

// Mode is the externally visible sequencer state.
type Mode string

const (
	ModePlayback  Mode = "PLAYBACK"
	ModeCountdown Mode = "COUNTDOWN"
	ModeRecording Mode = "RECORDING"
	ModeFollow    Mode = "FOLLOW"
)

// Transition reports a mode change caused by a single step.
type Transition int

const (
	None Transition = iota
	CountdownStarted
	RecordingStarted
	RecordingCompleted
)

func (t Transition) String() string {
	switch t {
	case None:
		return "NONE"
	case CountdownStarted:
		return "COUNTDOWN_STARTED"
	case RecordingStarted:
		return "RECORDING_STARTED"
	case RecordingCompleted:
		return "RECORDING_COMPLETED"
	}
	return "UNKNOWN"
}

// Sequencer is the loop recorder. The zero value is not usable; call New.
type Sequencer struct {
	steps [Length]bool

	// writeIdx == Length means not recording.
	writeIdx int
	readIdx  int
	hasLight bool

	// divCnt and acc implement the majority vote over Divider ticks.
	divCnt int
	acc    int

	countdown int
}

// New returns a sequencer playing back an all-dark sequence.
func New() *Sequencer {
	return &Sequencer{writeIdx: Length}
}

// Step advances the sequencer by one sample tick.
//
// Exactly one of countdown, recording and playback is in effect. A touch
// START seen during playback begins a countdown; the LED is left untouched on
// that tick. The returned error is the LED output error, if any; the state
// machine has advanced regardless.
func (s *Sequencer) Step(h touch.History, led LED) (Transition, error) {
	switch {
	case s.countdown > 0:
		err := led.Set(s.countdown&1 == 1)
		s.countdown--
		if s.countdown == 0 {
			return RecordingStarted, err
		}
		return None, err

	case s.writeIdx < Length:
		active := h.Active()
		err := led.Set(active)
		if active {
			s.acc++
		}
		s.divCnt++
		if s.divCnt >= Divider {
			s.divCnt = 0
			on := s.acc > Divider/2
			s.steps[s.writeIdx] = on
			s.hasLight = s.hasLight || on
			s.writeIdx++
			s.acc = 0
			if s.writeIdx == Length {
				return RecordingCompleted, err
			}
		}
		return None, err

	case h == touch.Start:
		s.countdown = CountdownTicks
		s.writeIdx = 0
		s.readIdx = 0
		s.divCnt = 0
		s.acc = 0
		s.hasLight = false
		return CountdownStarted, nil

	default:
		err := led.Set(s.steps[s.readIdx])
		s.divCnt++
		if s.divCnt >= Divider {
			s.divCnt = 0
			s.readIdx++
			if s.readIdx >= Length {
				s.readIdx = 0
			}
		}
		return None, err
	}
}

// Mode returns the current state.
func (s *Sequencer) Mode() Mode {
	switch {
	case s.countdown > 0:
		return ModeCountdown
	case s.writeIdx < Length:
		return ModeRecording
	default:
		return ModePlayback
	}
}

// Busy reports whether a countdown or recording is in progress.
func (s *Sequencer) Busy() bool {
	return s.writeIdx < Length
}

// HasLight reports whether any recorded step is on.
func (s *Sequencer) HasLight() bool {
	return s.hasLight
}

// ReadIndex returns the playback cursor.
func (s *Sequencer) ReadIndex() int { return s.readIdx }

// WriteIndex returns the recording cursor; Length when not recording.
func (s *Sequencer) WriteIndex() int { return s.writeIdx }

// Countdown returns the ticks left in the countdown.
func (s *Sequencer) Countdown() int { return s.countdown }

// Steps returns a copy of the stored sequence.
func (s *Sequencer) Steps() []bool {
	out := make([]bool, Length)
	copy(out, s.steps[:])
	return out
}

// Pattern renders the stored sequence as '0' and '1' characters.
func (s *Sequencer) Pattern() string {
	return FormatPattern(s.steps[:])
}

// FormatPattern renders steps as '0' and '1' characters.
func FormatPattern(steps []bool) string {
	var b strings.Builder
	b.Grow(len(steps))
	for _, on := range steps {
		if on {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
