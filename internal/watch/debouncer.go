package watch

import (
	"log/slog"
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into a single callback invocation
// once the interval has passed without a new trigger.
type Debouncer struct {
	interval time.Duration
	callback func(reason string)

	mu         sync.Mutex
	timer      *time.Timer
	lastReason string
	generation uint64
	stopped    bool

	// inflight counts running callbacks so Stop can wait for them.
	inflight sync.WaitGroup
}

// NewDebouncer creates a debouncer that waits for interval of quiet before
// firing callback with the reason of the last trigger.
func NewDebouncer(interval time.Duration, callback func(reason string)) *Debouncer {
	return &Debouncer{
		interval: interval,
		callback: callback,
	}
}

// Trigger records a trigger, restarting the quiet window. reason is a changed
// path or a label such as "initial" or "rebuild".
func (d *Debouncer) Trigger(reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.lastReason = reason
	d.generation++
	gen := d.generation

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, func() { d.fire(gen) })
}

// fire runs the callback unless a later trigger superseded generation gen.
func (d *Debouncer) fire(gen uint64) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("debouncer callback panicked", slog.Any("error", r))
		}
	}()

	d.mu.Lock()
	if d.stopped || gen != d.generation {
		d.mu.Unlock()
		return
	}

	reason := d.lastReason
	d.inflight.Add(1)
	d.mu.Unlock()

	defer d.inflight.Done()

	d.callback(reason)
}

// Stop cancels any pending callback and waits for a running one to return.
// Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	d.inflight.Wait()
}
