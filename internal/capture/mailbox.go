package capture

import (
	"log"
	"sync"
)

// Mailbox is a single-slot handoff between the capture goroutine and the
// scheduler pass. Put overwrites, Take reads and clears.
type Mailbox struct {
	mu         sync.Mutex
	sample     Sample
	full       bool
	overwrites uint64
	wake       chan struct{}
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{wake: make(chan struct{}, 1)}
}

// Put stores s and signals wake. It reports whether an unconsumed sample
// was overwritten.
func (m *Mailbox) Put(s Sample) bool {
	m.mu.Lock()
	overwrote := m.full
	if overwrote {
		m.overwrites++
		log.Printf("capture: sample overwritten before scheduler pass (overwrites=%d)", m.overwrites)
	}
	m.sample = s
	m.full = true
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return overwrote
}

// Take returns the stored sample and clears the slot. ok is false if the
// slot was empty.
func (m *Mailbox) Take() (s Sample, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.full {
		return Sample{}, false
	}
	s = m.sample
	m.full = false
	return s, true
}

// Wake is signalled after every Put.
func (m *Mailbox) Wake() <-chan struct{} {
	return m.wake
}

// Overwrites returns how many samples were replaced before being taken.
func (m *Mailbox) Overwrites() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overwrites
}
