// Package capture runs touch pad capture cycles and hands the measurements to the scheduler.
//
// A tick starts exactly one cycle. The cycle runs to completion on its own
// goroutine, writes the finished Sample into a single-slot Mailbox and wakes
// the scheduler. The tick and cycle rates must be chosen so that a cycle
// always finishes well before the next tick; a violation is counted, logged
// and, in builds tagged touchdebug, panics.
package capture

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// CycleToggles is the number of pin toggles in one capture cycle.
const CycleToggles = 20

// ErrCycleInFlight is returned when a tick arrives before the previous
// cycle has completed.
var ErrCycleInFlight = errors.New("capture cycle already in flight")

// Driver runs one complete capture cycle on the sense pin and returns the
// free-running counter values at the first toggle and at the final edge.
type Driver interface {
	Cycle(ctx context.Context) (start, end uint16, err error)
}

// Blanker turns the LED off while a measurement runs.
type Blanker interface {
	Set(on bool) error
}

// Sample is one completed capture cycle.
type Sample struct {
	Start uint16
	End   uint16
}

// Elapsed returns the counter ticks between start and end. Counter
// wraparound is absorbed by the unsigned subtraction.
func (s Sample) Elapsed() uint16 {
	return s.End - s.Start
}

// Stats counts capture activity since startup.
type Stats struct {
	Cycles     uint64 // completed cycles
	Errors     uint64 // driver failures
	Rejected   uint64 // ticks that arrived while a cycle was in flight
	Overwrites uint64 // samples replaced before the scheduler consumed them
}

// Violations returns the number of timing assumption violations.
func (s Stats) Violations() uint64 {
	return s.Rejected + s.Overwrites
}

// Cycler starts capture cycles on ticks and delivers their results.
type Cycler struct {
	driver  Driver
	mailbox *Mailbox
	blank   Blanker

	inFlight atomic.Bool
	wg       sync.WaitGroup

	cycles   atomic.Uint64
	errors   atomic.Uint64
	rejected atomic.Uint64
}

// NewCycler creates a Cycler that delivers samples to mailbox.
// blank may be nil.
func NewCycler(driver Driver, mailbox *Mailbox, blank Blanker) *Cycler {
	return &Cycler{
		driver:  driver,
		mailbox: mailbox,
		blank:   blank,
	}
}

// OnTick starts one capture cycle. It never blocks.
func (c *Cycler) OnTick(ctx context.Context) error {
	if !c.inFlight.CompareAndSwap(false, true) {
		n := c.rejected.Add(1)
		log.Printf("capture: tick while cycle in flight (rejected=%d)", n)
		timingViolation("tick while cycle in flight")
		return ErrCycleInFlight
	}

	if c.blank != nil {
		if err := c.blank.Set(false); err != nil {
			log.Printf("capture: blank led: %v", err)
		}
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		start, end, err := c.driver.Cycle(ctx)
		c.complete(ctx, start, end, err)
	}()
	return nil
}

// complete ends the in-flight cycle and delivers its sample.
func (c *Cycler) complete(ctx context.Context, start, end uint16, err error) {
	// The cycle is over before its sample is visible to the scheduler.
	c.inFlight.Store(false)
	if err != nil {
		if ctx.Err() == nil {
			c.errors.Add(1)
			log.Printf("capture: cycle failed: %v", err)
		}
		return
	}
	c.cycles.Add(1)
	if c.mailbox.Put(Sample{Start: start, End: end}) {
		timingViolation("sample overwritten before it was consumed")
	}
}

// Run calls OnTick for every tick until ctx is done, then waits for the
// in-flight cycle to finish.
func (c *Cycler) Run(ctx context.Context, tick <-chan time.Time) error {
	defer c.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			c.OnTick(ctx)
		}
	}
}

// InFlight reports whether a cycle is currently running.
func (c *Cycler) InFlight() bool {
	return c.inFlight.Load()
}

// Wait blocks until the in-flight cycle, if any, has completed.
func (c *Cycler) Wait() {
	c.wg.Wait()
}

// Stats returns a snapshot of the capture counters.
func (c *Cycler) Stats() Stats {
	return Stats{
		Cycles:     c.cycles.Load(),
		Errors:     c.errors.Load(),
		Rejected:   c.rejected.Load(),
		Overwrites: c.mailbox.Overwrites(),
	}
}
