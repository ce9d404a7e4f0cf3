package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/sweeney/touchlight/internal/capture"
	"github.com/sweeney/touchlight/internal/sequencer"
	"github.com/sweeney/touchlight/internal/touch"
)

// DepthFor picks the sleep depth: deep only when nothing is being recorded
// or counted down and the stored sequence is dark.
func DepthFor(c Controller) SleepDepth {
	if c.Busy() || c.HasLight() {
		return Shallow
	}
	return Deep
}

// Step runs one full pass: baseline filter, active-state detector and
// controller step, in that order.
func Step(ts *touch.State, c Controller, s capture.Sample, led sequencer.LED, now time.Time) Report {
	h := ts.Update(s.Elapsed())
	tr, ledErr := c.Step(h, led)

	r := Report{
		Time:      now,
		Sample:    s,
		Level:     ts.Level,
		Baseline:  ts.Baseline,
		Excursion: ts.Excursion(),
		Settled:   ts.Settled(),
		History:   h,
		Mode:      c.Mode(),
		HasLight:  c.HasLight(),
		Depth:     DepthFor(c),
		LEDErr:    ledErr,
	}

	event := func(t EventType) Event {
		return Event{Timestamp: now, Type: t, Level: ts.Level, Baseline: ts.Baseline}
	}

	switch h {
	case touch.Start:
		r.Events = append(r.Events, event(EventTouchStart))
	case touch.Stop:
		r.Events = append(r.Events, event(EventTouchStop))
	}

	switch tr {
	case sequencer.CountdownStarted:
		r.Events = append(r.Events, event(EventCountdown))
	case sequencer.RecordingStarted:
		r.Events = append(r.Events, event(EventRecording))
	case sequencer.RecordingCompleted:
		e := event(EventRecorded)
		e.Pattern = c.Pattern()
		r.Events = append(r.Events, e)
	}

	return r
}

// Scheduler owns the touch state and the controller and runs passes as
// samples arrive in the mailbox.
type Scheduler struct {
	touch   touch.State
	ctrl    Controller
	led     sequencer.LED
	mailbox *capture.Mailbox
	sleeper Sleeper
	now     func() time.Time

	startTime     time.Time
	lastHeartbeat time.Time
	passes        uint64
	counts        EventCounts
}

// New creates a Scheduler. The startTime for heartbeat uptime is taken from now.
func New(ctrl Controller, led sequencer.LED, mailbox *capture.Mailbox, sleeper Sleeper, now func() time.Time) *Scheduler {
	start := now()
	return &Scheduler{
		ctrl:          ctrl,
		led:           led,
		mailbox:       mailbox,
		sleeper:       sleeper,
		now:           now,
		startTime:     start,
		lastHeartbeat: start,
	}
}

// Depth returns the sleep depth for the next wait.
func (s *Scheduler) Depth() SleepDepth {
	return DepthFor(s.ctrl)
}

// Pass processes one sample.
func (s *Scheduler) Pass(sample capture.Sample) Report {
	r := Step(&s.touch, s.ctrl, sample, s.led, s.now())
	s.passes++

	if r.LEDErr != nil {
		log.Printf("scheduler: led output error: %v", r.LEDErr)
	}

	for _, e := range r.Events {
		switch e.Type {
		case EventTouchStart:
			s.counts.TouchStart++
		case EventTouchStop:
			s.counts.TouchStop++
		case EventCountdown:
			s.counts.Countdown++
		case EventRecorded:
			s.counts.Recorded++
		}
	}
	return r
}

// Run sleeps until a sample is delivered, runs a pass and hands the report
// to report (which may be nil). It returns when ctx is done.
func (s *Scheduler) Run(ctx context.Context, report func(Report)) error {
	for {
		if err := s.sleeper.Sleep(ctx, s.Depth()); err != nil {
			return err
		}
		sample, ok := s.mailbox.Take()
		if !ok {
			continue
		}
		r := s.Pass(sample)
		if report != nil {
			report(r)
		}
	}
}

// Touch returns a copy of the touch state.
func (s *Scheduler) Touch() touch.State {
	return s.touch
}

// Controller returns the light controller.
func (s *Scheduler) Controller() Controller {
	return s.ctrl
}

// Passes returns the number of completed passes.
func (s *Scheduler) Passes() uint64 {
	return s.passes
}

// EventCountsSnapshot returns a copy of the current event counts.
func (s *Scheduler) EventCountsSnapshot() EventCounts {
	return s.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil while the touch baseline is still
// settling, if the interval has not elapsed, or if interval is <= 0 (disabled).
func (s *Scheduler) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !s.touch.Settled() {
		return nil
	}

	if now.Sub(s.lastHeartbeat) < interval {
		return nil
	}

	s.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(s.startTime),
		Passes:    s.passes,
		Counts:    s.counts,
	}
}
