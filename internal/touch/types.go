// Package touch turns raw capture-cycle measurements into a debounced touch decision.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time).
// It runs once per sample tick, synchronously with the scheduler pass.
package touch

// Baseline filter and detection constants. They are compiled in; the
// decision semantics depend on their exact values.
const (
	// StartCycles is the number of passes during which the baseline
	// follows the level directly while the pad settles.
	StartCycles = 40

	// BaseFilterShift and BaseFilterMul give the inactive baseline
	// filter (alpha = 1/64).
	BaseFilterShift = 6
	BaseFilterMul   = 1<<BaseFilterShift - 1

	// BaseActiveShift and BaseActiveMul give the much slower filter used
	// while a touch is held (alpha = 1/1024).
	BaseActiveShift = 10
	BaseActiveMul   = 1<<BaseActiveShift - 1

	// Threshold and Hysteresis bound the excursion decision.
	Threshold  = 20
	Hysteresis = 5
)

// History is the last two active/inactive decisions. The numeric values
// match the two-bit encoding (previous<<1 | current).
type History uint8

const (
	Inactive History = iota // 00
	Start                   // 01: touch just began
	Stop                    // 10: touch just ended
	Held                    // 11
)

// Active reports whether the most recent decision was "touched".
func (h History) Active() bool {
	return h == Start || h == Held
}

// Next shifts a new decision into the history.
func (h History) Next(active bool) History {
	switch {
	case h.Active() && active:
		return Held
	case h.Active():
		return Stop
	case active:
		return Start
	default:
		return Inactive
	}
}

func (h History) String() string {
	switch h {
	case Inactive:
		return "INACTIVE"
	case Start:
		return "START"
	case Stop:
		return "STOP"
	case Held:
		return "HELD"
	}
	return "UNKNOWN"
}

// State is the persistent touch state owned by the scheduler.
type State struct {
	// Level is the current touch magnitude (capture elapsed time).
	Level uint16
	// Baseline is the adaptive no-touch reference.
	Baseline uint16
	// StartCycles counts passes since boot, capped at StartCycles.
	StartCycles int
	// Active is the decision history.
	Active History
}
