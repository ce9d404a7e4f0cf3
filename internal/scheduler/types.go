// Package scheduler runs one touch-and-light pass per completed capture cycle.
// Time is always injectable; the pass itself performs no I/O other than the
// LED output it is given.
package scheduler

import (
	"time"

	"github.com/sweeney/touchlight/internal/capture"
	"github.com/sweeney/touchlight/internal/sequencer"
	"github.com/sweeney/touchlight/internal/touch"
)

// TickInterval is the sample tick period: Length steps of Divider ticks
// each cover ten seconds.
const TickInterval = 50 * time.Millisecond

// SleepDepth is how deeply the platform may sleep between passes.
type SleepDepth int

const (
	// Shallow keeps the fast clock running for LED drive.
	Shallow SleepDepth = iota
	// Deep stops the fast clock; nothing needs the LED.
	Deep
)

func (d SleepDepth) String() string {
	if d == Deep {
		return "DEEP"
	}
	return "SHALLOW"
}

// Controller is the light logic driven by each pass: the loop recorder or
// the direct follower.
type Controller interface {
	Step(h touch.History, led sequencer.LED) (sequencer.Transition, error)
	Mode() sequencer.Mode
	Busy() bool
	HasLight() bool
	Pattern() string
}

// EventType identifies something worth reporting from a pass.
type EventType string

const (
	EventTouchStart EventType = "TOUCH_START"
	EventTouchStop  EventType = "TOUCH_STOP"
	EventCountdown  EventType = "COUNTDOWN"
	EventRecording  EventType = "RECORDING"
	EventRecorded   EventType = "RECORDED"
)

// Event is published when a touch edge or sequencer transition occurs.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Level     uint16
	Baseline  uint16
	// Pattern is set on RECORDED events.
	Pattern string
}

// Report describes one pass.
type Report struct {
	Time      time.Time
	Sample    capture.Sample
	Level     uint16
	Baseline  uint16
	Excursion int32
	Settled   bool
	History   touch.History
	Mode      sequencer.Mode
	HasLight  bool
	// Depth is the sleep depth chosen for the next wait.
	Depth  SleepDepth
	Events []Event
	// LEDErr is the LED output error from this pass, if any.
	LEDErr error
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	TouchStart int
	TouchStop  int
	Countdown  int
	Recorded   int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Passes    uint64
	Counts    EventCounts
}
