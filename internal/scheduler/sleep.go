package scheduler

import (
	"context"
	"log"
)

// Sleeper suspends the scheduler until the next capture completion.
type Sleeper interface {
	// Sleep blocks at the given depth until woken or ctx is done.
	Sleep(ctx context.Context, depth SleepDepth) error
}

// WakeSleeper waits on a wake channel, typically capture.Mailbox.Wake.
type WakeSleeper struct {
	wake    <-chan struct{}
	depth   SleepDepth
	entered bool
}

// NewWakeSleeper creates a Sleeper woken by wake.
func NewWakeSleeper(wake <-chan struct{}) *WakeSleeper {
	return &WakeSleeper{wake: wake}
}

// Sleep logs depth changes and blocks until wake fires or ctx is done.
func (w *WakeSleeper) Sleep(ctx context.Context, depth SleepDepth) error {
	if !w.entered || depth != w.depth {
		log.Printf("scheduler: sleep depth %s", depth)
		w.depth = depth
		w.entered = true
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.wake:
		return nil
	}
}

// Depth returns the most recently requested depth.
func (w *WakeSleeper) Depth() SleepDepth {
	return w.depth
}
