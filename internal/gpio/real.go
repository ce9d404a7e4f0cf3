//go:build linux

package gpio

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sweeney/touchlight/internal/capture"
	"github.com/warthog618/go-gpiocdev"
	"golang.org/x/sys/unix"
)

const consumer = "touchlight"

// RealPad measures pad charge time on a Linux GPIO line.
//
// Each half-cycle flips the line's pull resistor and waits for the resulting
// edge. The pad capacitance slows the edge, so the time across all toggles
// grows when a finger rests on the pad. Edge timestamps come from the kernel
// (CLOCK_MONOTONIC), so scheduling jitter in this process does not enter the
// measurement except at the first toggle.
type RealPad struct {
	chip    *gpiocdev.Chip
	line    *gpiocdev.Line
	events  chan gpiocdev.LineEvent
	pullUp  bool
	timeout time.Duration
}

// NewRealPad requests the pad line on the given chip.
func NewRealPad(chipName string, offset int, timeout time.Duration) (*RealPad, error) {
	if timeout <= 0 {
		timeout = DefaultHalfCycleTimeout
	}

	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	p := &RealPad{
		chip:    chip,
		events:  make(chan gpiocdev.LineEvent, capture.CycleToggles),
		timeout: timeout,
	}

	line, err := chip.RequestLine(offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(p.handleEvent))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request pad pin %d: %w", offset, err)
	}
	p.line = line

	return p, nil
}

func (p *RealPad) handleEvent(evt gpiocdev.LineEvent) {
	select {
	case p.events <- evt:
	default:
	}
}

// Cycle runs capture.CycleToggles half-cycles and returns the counter values
// at the first toggle and at the final edge.
func (p *RealPad) Cycle(ctx context.Context) (uint16, uint16, error) {
	p.drain()

	begin, err := monotonic()
	if err != nil {
		return 0, 0, fmt.Errorf("read clock: %w", err)
	}

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	var last time.Duration
	for i := 0; i < capture.CycleToggles; i++ {
		if err := p.toggle(); err != nil {
			return 0, 0, fmt.Errorf("toggle %d: %w", i, err)
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(p.timeout)

		select {
		case evt := <-p.events:
			last = evt.Timestamp
		case <-timer.C:
			return 0, 0, fmt.Errorf("half-cycle %d: no edge within %v", i, p.timeout)
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		}
	}

	return counterSpan(begin, last)
}

func (p *RealPad) toggle() error {
	p.pullUp = !p.pullUp
	bias := gpiocdev.WithPullDown
	if p.pullUp {
		bias = gpiocdev.WithPullUp
	}
	return p.line.Reconfigure(gpiocdev.AsInput, bias, gpiocdev.WithBothEdges)
}

func (p *RealPad) drain() {
	for {
		select {
		case <-p.events:
		default:
			return
		}
	}
}

// Close releases the pad line, leaving it as an input with pull-down.
func (p *RealPad) Close() error {
	var errs []error

	if p.line != nil {
		if err := p.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pad pin: %w", err))
		}
		if err := p.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pad pin: %w", err))
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealLED drives the LED line. With a non-zero toggle period the line is
// toggled at that period while on, for LEDs behind a charge-pump boost.
type RealLED struct {
	mu     sync.Mutex
	chip   *gpiocdev.Chip
	line   *gpiocdev.Line
	toggle time.Duration
	on     bool
	stop   chan struct{}
	done   chan struct{}
}

// NewRealLED requests the LED line as an output, initially off.
func NewRealLED(chipName string, offset int, toggle time.Duration) (*RealLED, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request LED pin %d: %w", offset, err)
	}

	return &RealLED{
		chip:   chip,
		line:   line,
		toggle: toggle,
	}, nil
}

// Set turns the LED on or off. Safe for concurrent use.
func (l *RealLED) Set(on bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if on == l.on {
		return nil
	}
	l.on = on

	if l.toggle <= 0 {
		return l.line.SetValue(boolToValue(on))
	}

	if on {
		l.stop = make(chan struct{})
		l.done = make(chan struct{})
		go l.run(l.stop, l.done)
		return nil
	}

	close(l.stop)
	<-l.done
	return l.line.SetValue(0)
}

func (l *RealLED) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	v := 1
	if err := l.line.SetValue(v); err != nil {
		log.Printf("gpio: led on: %v", err)
	}

	ticker := time.NewTicker(l.toggle)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			v ^= 1
			if err := l.line.SetValue(v); err != nil {
				log.Printf("gpio: led toggle: %v", err)
			}
		}
	}
}

// Close turns the LED off and releases the line.
func (l *RealLED) Close() error {
	var errs []error

	if err := l.Set(false); err != nil {
		errs = append(errs, fmt.Errorf("turn LED off: %w", err))
	}
	if l.line != nil {
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close LED pin: %w", err))
		}
	}
	if l.chip != nil {
		if err := l.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func boolToValue(on bool) int {
	if on {
		return 1
	}
	return 0
}

// monotonic reads the clock gpiocdev uses for edge event timestamps.
func monotonic() (time.Duration, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0, err
	}
	return time.Duration(ts.Nano()), nil
}
