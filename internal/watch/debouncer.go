package watch

import (
	"log/slog"
	"sync"
	"time"
)

// Debouncer coalesces bursts of file events. After interval passes without
// a new event, the callback receives every distinct path of the burst in
// the order first seen.
type Debouncer struct {
	interval time.Duration
	callback func(paths []string)

	mu      sync.Mutex
	timer   *time.Timer
	pending []string
	seen    map[string]bool
}

// NewDebouncer creates a debouncer firing callback after interval of quiet.
func NewDebouncer(interval time.Duration, callback func(paths []string)) *Debouncer {
	return &Debouncer{
		interval: interval,
		callback: callback,
		seen:     make(map[string]bool),
	}
}

// Trigger records an event for path and restarts the quiet period.
func (d *Debouncer) Trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.seen[path] {
		d.seen[path] = true
		d.pending = append(d.pending, path)
	}

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *Debouncer) fire() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("debouncer callback panicked", slog.Any("error", r))
		}
	}()

	d.mu.Lock()
	paths := d.pending
	d.pending = nil
	d.seen = make(map[string]bool)
	d.timer = nil
	d.mu.Unlock()

	if len(paths) > 0 {
		d.callback(paths)
	}
}

// Stop cancels any pending callback and forgets the pending paths.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	d.pending = nil
	d.seen = make(map[string]bool)
}
