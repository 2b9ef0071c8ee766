package service

import (
	"sync"
	"time"
)

// Clock is the time source for debounced persistence
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a scheduled callback that can be cancelled
type Timer interface {
	Stop() bool
}

type realClock struct{}

// RealClock returns the wall clock
func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer coalesces rapid triggers into one call of the most recent
// action, delay after the last trigger
type Debouncer struct {
	mu     sync.Mutex
	clock  Clock
	delay  time.Duration
	timer  Timer
	gen    uint64
	action func()
}

// NewDebouncer creates a debouncer with a default delay
func NewDebouncer(clock Clock, delay time.Duration) *Debouncer {
	return &Debouncer{clock: clock, delay: delay}
}

// Trigger schedules action after the default delay, replacing anything pending
func (d *Debouncer) Trigger(action func()) {
	d.TriggerAfter(d.delay, action)
}

// TriggerAfter schedules action after delay, replacing anything pending
func (d *Debouncer) TriggerAfter(delay time.Duration, action func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.action = action
	d.timer = d.clock.AfterFunc(delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	// a Stop that lost the race with the timer leaves a stale callback
	if gen != d.gen || d.action == nil {
		d.mu.Unlock()
		return
	}
	action := d.action
	d.action = nil
	d.timer = nil
	d.mu.Unlock()

	action()
}

// Cancel drops the pending action, if any
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.timer = nil
	d.action = nil
}

// Flush runs the pending action now, on the calling goroutine
func (d *Debouncer) Flush() {
	d.mu.Lock()
	action := d.action
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.timer = nil
	d.action = nil
	d.mu.Unlock()

	if action != nil {
		action()
	}
}

// Pending reports whether an action is scheduled
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.action != nil
}
