package sequencer

import (
	"errors"
	"testing"

	"github.com/sweeney/touchlight/internal/touch"
)

// ledLog records every Set call.
type ledLog struct {
	states []bool
	err    error
}

func (l *ledLog) Set(on bool) error {
	l.states = append(l.states, on)
	return l.err
}

func (l *ledLog) last() bool {
	return l.states[len(l.states)-1]
}

func hist(active bool) touch.History {
	if active {
		return touch.Held
	}
	return touch.Inactive
}

// startRecording drives a fresh START through the whole countdown.
func startRecording(t *testing.T, s *Sequencer, led *ledLog) {
	t.Helper()
	if tr, _ := s.Step(touch.Start, led); tr != CountdownStarted {
		t.Fatalf("START: got %s, want COUNTDOWN_STARTED", tr)
	}
	for i := 0; i < CountdownTicks; i++ {
		tr, _ := s.Step(touch.Inactive, led)
		if i < CountdownTicks-1 && tr != None {
			t.Fatalf("countdown tick %d: got %s, want NONE", i, tr)
		}
		if i == CountdownTicks-1 && tr != RecordingStarted {
			t.Fatalf("last countdown tick: got %s, want RECORDING_STARTED", tr)
		}
	}
}

// record feeds one tick per entry and returns the last transition.
func record(s *Sequencer, led *ledLog, ticks []bool) Transition {
	var tr Transition
	for _, a := range ticks {
		tr, _ = s.Step(hist(a), led)
	}
	return tr
}

func TestNewSequencer(t *testing.T) {
	s := New()

	if s.Mode() != ModePlayback {
		t.Errorf("mode: got %s, want PLAYBACK", s.Mode())
	}
	if s.Busy() {
		t.Error("new sequencer should not be busy")
	}
	if s.HasLight() {
		t.Error("new sequencer should be dark")
	}
	if s.WriteIndex() != Length {
		t.Errorf("write index: got %d, want %d", s.WriteIndex(), Length)
	}

	led := &ledLog{}
	for i := 0; i < 2*Length*Divider; i++ {
		s.Step(touch.Held, led)
		if led.last() {
			t.Fatalf("tick %d: dark sequence lit the LED", i)
		}
	}
}

func TestStartBeginsCountdown(t *testing.T) {
	s := New()
	led := &ledLog{}

	for i := 0; i < 7; i++ {
		s.Step(touch.Inactive, led)
	}
	n := len(led.states)

	tr, err := s.Step(touch.Start, led)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr != CountdownStarted {
		t.Errorf("transition: got %s, want COUNTDOWN_STARTED", tr)
	}
	if len(led.states) != n {
		t.Error("LED should not be driven on the START tick")
	}
	if s.Mode() != ModeCountdown {
		t.Errorf("mode: got %s, want COUNTDOWN", s.Mode())
	}
	if s.Countdown() != CountdownTicks {
		t.Errorf("countdown: got %d, want %d", s.Countdown(), CountdownTicks)
	}
	if s.WriteIndex() != 0 || s.ReadIndex() != 0 {
		t.Errorf("indices: write=%d read=%d, want 0 0", s.WriteIndex(), s.ReadIndex())
	}
	if !s.Busy() {
		t.Error("countdown should be busy")
	}
}

func TestCountdownBlinks(t *testing.T) {
	s := New()
	led := &ledLog{}
	s.Step(touch.Start, led)

	// Touch state is ignored during the countdown, including new STARTs.
	inputs := []touch.History{touch.Held, touch.Stop, touch.Start, touch.Inactive}
	for i := 0; i < CountdownTicks; i++ {
		remaining := CountdownTicks - i
		tr, _ := s.Step(inputs[i%len(inputs)], led)

		if want := remaining%2 == 1; led.last() != want {
			t.Errorf("tick %d: LED %v, want %v", i, led.last(), want)
		}
		if remaining > 1 && tr != None {
			t.Errorf("tick %d: transition %s, want NONE", i, tr)
		}
		if remaining == 1 && tr != RecordingStarted {
			t.Errorf("tick %d: transition %s, want RECORDING_STARTED", i, tr)
		}
	}

	if len(led.states) != CountdownTicks {
		t.Errorf("LED writes: got %d, want %d", len(led.states), CountdownTicks)
	}
	if s.Mode() != ModeRecording {
		t.Errorf("mode: got %s, want RECORDING", s.Mode())
	}
	if s.WriteIndex() != 0 {
		t.Errorf("write index: got %d, want 0", s.WriteIndex())
	}
}

func TestRecordingProducesLengthSteps(t *testing.T) {
	s := New()
	led := &ledLog{}
	startRecording(t, s, led)

	prev := s.WriteIndex()
	for i := 0; i < Length*Divider; i++ {
		tr, _ := s.Step(touch.Held, led)

		if !led.last() {
			t.Fatalf("tick %d: LED should mirror the active touch", i)
		}
		if s.WriteIndex() < prev {
			t.Fatalf("tick %d: write index went backwards %d -> %d", i, prev, s.WriteIndex())
		}
		prev = s.WriteIndex()

		if i < Length*Divider-1 && tr != None {
			t.Fatalf("tick %d: unexpected transition %s", i, tr)
		}
		if i == Length*Divider-1 && tr != RecordingCompleted {
			t.Fatalf("last tick: got %s, want RECORDING_COMPLETED", tr)
		}
	}

	if s.Mode() != ModePlayback {
		t.Errorf("mode: got %s, want PLAYBACK", s.Mode())
	}
	if !s.HasLight() {
		t.Error("expected HasLight after recording a held touch")
	}
	for i, on := range s.Steps() {
		if !on {
			t.Fatalf("step %d: want on", i)
		}
	}
}

func TestMajorityVote(t *testing.T) {
	pairs := []struct {
		a, b bool
		want bool
	}{
		{true, true, true},
		{true, false, false},
		{false, true, false},
		{false, false, false},
	}

	s := New()
	led := &ledLog{}
	startRecording(t, s, led)

	var ticks []bool
	var want []bool
	for i := 0; i < Length; i++ {
		p := pairs[i%len(pairs)]
		ticks = append(ticks, p.a, p.b)
		want = append(want, p.want)
	}

	if tr := record(s, led, ticks); tr != RecordingCompleted {
		t.Fatalf("last transition: got %s, want RECORDING_COMPLETED", tr)
	}

	got := s.Steps()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step %d: got %v, want %v", i, got[i], want[i])
		}
	}
	if !s.HasLight() {
		t.Error("expected HasLight")
	}
	if s.Pattern()[:4] != "1000" {
		t.Errorf("pattern prefix: got %q, want %q", s.Pattern()[:4], "1000")
	}
}

func TestRecordingDarkClearsHasLight(t *testing.T) {
	s := New()
	led := &ledLog{}
	startRecording(t, s, led)
	record(s, led, make([]bool, Length*Divider))
	startRecording(t, s, led)

	// Light first, then dark for the rest.
	ticks := make([]bool, Length*Divider)
	ticks[0], ticks[1] = true, true
	record(s, led, ticks)
	if !s.HasLight() {
		t.Fatal("expected HasLight after a lit step")
	}

	startRecording(t, s, led)
	if s.HasLight() {
		t.Error("HasLight should reset when a new recording starts")
	}
	record(s, led, make([]bool, Length*Divider))
	if s.HasLight() {
		t.Error("all-dark recording should leave HasLight false")
	}
}

func TestPlaybackIsCyclic(t *testing.T) {
	s := New()
	led := &ledLog{}
	startRecording(t, s, led)

	// Step i is on when i%3 == 0.
	var ticks []bool
	for i := 0; i < Length; i++ {
		on := i%3 == 0
		ticks = append(ticks, on, on)
	}
	record(s, led, ticks)
	steps := s.Steps()

	led.states = nil
	for i := 0; i < 2*Length*Divider; i++ {
		idx := s.ReadIndex()
		if want := (i / Divider) % Length; idx != want {
			t.Fatalf("tick %d: read index %d, want %d", i, idx, want)
		}
		s.Step(touch.Inactive, led)
		if led.last() != steps[idx] {
			t.Fatalf("tick %d: LED %v, want step %d = %v", i, led.last(), idx, steps[idx])
		}
	}
	if s.ReadIndex() != 0 {
		t.Errorf("read index after two periods: got %d, want 0", s.ReadIndex())
	}
}

func TestPlaybackIgnoresHeldAndStop(t *testing.T) {
	s := New()
	led := &ledLog{}

	for _, h := range []touch.History{touch.Held, touch.Stop, touch.Inactive, touch.Held} {
		if tr, _ := s.Step(h, led); tr != None {
			t.Errorf("%s: transition %s, want NONE", h, tr)
		}
		if s.Mode() != ModePlayback {
			t.Errorf("%s: mode %s, want PLAYBACK", h, s.Mode())
		}
	}
}

func TestStartPreemptsPlayback(t *testing.T) {
	s := New()
	led := &ledLog{}
	startRecording(t, s, led)
	all := make([]bool, Length*Divider)
	for i := range all {
		all[i] = true
	}
	record(s, led, all)

	for i := 0; i < 37; i++ {
		s.Step(touch.Inactive, led)
	}
	startRecording(t, s, led)

	// Old pattern is still stored for steps not yet overwritten.
	record(s, led, []bool{false, false})
	steps := s.Steps()
	if steps[0] {
		t.Error("step 0 should be overwritten")
	}
	if !steps[1] || !steps[Length-1] {
		t.Error("unwritten steps should keep the old pattern")
	}
	if s.Mode() != ModeRecording {
		t.Errorf("mode: got %s, want RECORDING", s.Mode())
	}
}

func TestLEDErrorDoesNotStallSequencer(t *testing.T) {
	s := New()
	led := &ledLog{err: errors.New("line busy")}

	s.Step(touch.Start, led)
	_, err := s.Step(touch.Inactive, led)
	if err == nil {
		t.Fatal("expected LED error to be returned")
	}
	if s.Countdown() != CountdownTicks-1 {
		t.Errorf("countdown: got %d, want %d", s.Countdown(), CountdownTicks-1)
	}
}

func TestFollower(t *testing.T) {
	f := &Follower{}
	led := &ledLog{}

	for _, h := range []touch.History{touch.Inactive, touch.Start, touch.Held, touch.Stop} {
		tr, err := f.Step(h, led)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tr != None {
			t.Errorf("%s: transition %s, want NONE", h, tr)
		}
		if led.last() != h.Active() {
			t.Errorf("%s: LED %v, want %v", h, led.last(), h.Active())
		}
		if f.HasLight() != h.Active() {
			t.Errorf("%s: HasLight %v", h, f.HasLight())
		}
	}
	if f.Mode() != ModeFollow {
		t.Errorf("mode: got %s, want FOLLOW", f.Mode())
	}
}
