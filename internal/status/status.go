// Package status provides a thread-safe status tracker for the touchlight daemon.
// It is written by the scheduler pass and read by HTTP handlers and MQTT
// lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/touchlight/internal/capture"
	"github.com/sweeney/touchlight/internal/scheduler"
	"github.com/sweeney/touchlight/internal/sequencer"
	"github.com/sweeney/touchlight/internal/touch"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	TickMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	WSBroker    string // Websocket broker URL for browser MQTT (empty = disabled)
	Chip        string
	PinPad      int
	PinLED      int
	Calibrate   bool
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Level     uint16
	Baseline  uint16
	Excursion int32
	History   touch.History
	Settled   bool

	Mode     sequencer.Mode
	Pattern  string
	HasLight bool
	Depth    scheduler.SleepDepth

	Passes   uint64
	LastPass time.Time
	Counts   scheduler.EventCounts
	Capture  capture.Stats

	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records the outcome of a scheduler pass.
// Called from the scheduler goroutine after every pass.
func (t *Tracker) Update(r scheduler.Report, pattern string, passes uint64, counts scheduler.EventCounts) {
	t.mu.Lock()
	t.snap.Level = r.Level
	t.snap.Baseline = r.Baseline
	t.snap.Excursion = r.Excursion
	t.snap.History = r.History
	t.snap.Settled = r.Settled
	t.snap.Mode = r.Mode
	t.snap.Pattern = pattern
	t.snap.HasLight = r.HasLight
	t.snap.Depth = r.Depth
	t.snap.Passes = passes
	t.snap.LastPass = r.Time
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetCapture sets the capture counters.
func (t *Tracker) SetCapture(stats capture.Stats) {
	t.mu.Lock()
	t.snap.Capture = stats
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
