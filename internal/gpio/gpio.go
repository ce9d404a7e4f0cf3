// Package gpio provides the touch pad and LED hardware with abstraction for testing.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

import (
	"fmt"
	"time"
)

// Defaults for a Raspberry Pi (BCM numbering).
const (
	DefaultChip   = "gpiochip0"
	DefaultPinPad = 17 // touch pad, pull resistor toggled
	DefaultPinLED = 18 // LED, push-pull output
)

// CounterTick is the resolution of the free-running capture counter.
// Counter values are 16 bits wide and wrap.
const CounterTick = 125 * time.Nanosecond

// CounterWindow is the longest cycle the counter can represent before
// it wraps back onto itself.
const CounterWindow = (1 << 16) * CounterTick

// DefaultHalfCycleTimeout bounds the wait for a pad edge after a toggle.
const DefaultHalfCycleTimeout = 5 * time.Millisecond

// counterValue converts a monotonic timestamp into a counter reading.
func counterValue(d time.Duration) uint16 {
	return uint16(d / CounterTick)
}

// counterSpan converts the timestamps of a cycle's first toggle and final
// edge into counter readings. A cycle as long as CounterWindow would alias
// to a short one after wraparound, so it is rejected.
func counterSpan(begin, last time.Duration) (start, end uint16, err error) {
	if d := last - begin; d >= CounterWindow {
		return 0, 0, fmt.Errorf("cycle took %v, counter wraps at %v", d, CounterWindow)
	}
	return counterValue(begin), counterValue(last), nil
}
