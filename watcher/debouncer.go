package watcher

import (
	"sync"
	"time"
)

// EventOp is the kind of filesystem change.
type EventOp int

const (
	OpCreate EventOp = iota
	OpWrite
	OpRemove
	OpRename
)

// Event is one debounced filesystem change.
type Event struct {
	Path string // absolute path
	Op   EventOp
}

// Debouncer batches filesystem events: changes arriving within the quiet
// interval collapse per path (latest op wins) and flush together once the
// interval passes without new events. Editors that write-rename-chmod in
// quick succession produce one event instead of three.
type Debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	pending  map[string]Event
	timer    *time.Timer
	output   chan []Event
}

// NewDebouncer creates a debouncer with the given quiet interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		pending:  make(map[string]Event),
		output:   make(chan []Event, 16),
	}
}

// Output returns the channel receiving flushed batches.
func (d *Debouncer) Output() <-chan []Event {
	return d.output
}

// Add records an event and restarts the quiet timer.
func (d *Debouncer) Add(path string, op EventOp) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[path] = Event{Path: path, Op: op}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.flush)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.pending) == 0 {
		return
	}
	batch := make([]Event, 0, len(d.pending))
	for _, event := range d.pending {
		batch = append(batch, event)
	}
	d.pending = make(map[string]Event)
	d.output <- batch
}
