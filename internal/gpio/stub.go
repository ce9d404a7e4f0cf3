//go:build !linux

package gpio

import (
	"context"
	"errors"
	"time"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealPad is not available on non-Linux platforms.
type RealPad struct{}

// NewRealPad returns an error on non-Linux platforms.
func NewRealPad(chipName string, offset int, timeout time.Duration) (*RealPad, error) {
	return nil, errUnsupported
}

// Cycle is not implemented on non-Linux platforms.
func (p *RealPad) Cycle(ctx context.Context) (uint16, uint16, error) {
	return 0, 0, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (p *RealPad) Close() error {
	return nil
}

// RealLED is not available on non-Linux platforms.
type RealLED struct{}

// NewRealLED returns an error on non-Linux platforms.
func NewRealLED(chipName string, offset int, toggle time.Duration) (*RealLED, error) {
	return nil, errUnsupported
}

// Set is not implemented on non-Linux platforms.
func (l *RealLED) Set(on bool) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (l *RealLED) Close() error {
	return nil
}
