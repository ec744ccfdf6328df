package watch

import (
	"slices"
	"sync"
	"time"
)

// Debouncer collects file changes and triggers its callback once no new
// change has arrived for the configured duration.
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	files    map[string]struct{}
	mutex    sync.Mutex
	callback func([]string)
	stopped  bool
}

// NewDebouncer creates a debouncer that calls callback with the sorted set of
// changed files.
func NewDebouncer(duration time.Duration, callback func([]string)) *Debouncer {
	return &Debouncer{
		duration: duration,
		files:    make(map[string]struct{}),
		callback: callback,
	}
}

// Add records a changed file and restarts the quiet period.
func (d *Debouncer) Add(file string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.stopped {
		return
	}

	d.files[file] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, d.flush)
}

func (d *Debouncer) flush() {
	d.mutex.Lock()
	if d.stopped || len(d.files) == 0 {
		d.mutex.Unlock()
		return
	}
	files := make([]string, 0, len(d.files))
	for f := range d.files {
		files = append(files, f)
	}
	d.files = make(map[string]struct{})
	callback := d.callback
	d.mutex.Unlock()

	slices.Sort(files)
	if callback != nil {
		callback(files)
	}
}

// Stop cancels any pending flush. Later calls to Add are ignored.
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.stopped = true
}
