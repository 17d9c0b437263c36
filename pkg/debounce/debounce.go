package debounce

import (
	"sync"
	"time"
)

// Debouncer runs fn once calls have stopped arriving for the configured
// delay. It is safe for concurrent use.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	timer   *time.Timer
	pending bool
	// gen identifies the latest scheduled run. A timer that fires after a
	// newer Call, Flush or Stop carries an older gen and does nothing.
	gen uint64
}

func New(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Call schedules fn, pushing back any run already scheduled.
func (d *Debouncer) Call() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = true
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Flush runs a scheduled fn immediately. It does nothing if no run is
// pending.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	pending := d.pending
	d.pending = false
	d.gen++
	d.mu.Unlock()

	if pending {
		d.fn()
	}
}

// Stop cancels a scheduled run.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = false
	d.gen++
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	pending := d.pending
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	if pending {
		d.fn()
	}
}

// Debounce returns a function that delays calling fn until delay has passed
// since its last invocation.
func Debounce(delay time.Duration, fn func()) func() {
	return New(delay, fn).Call
}
