// Package dedup tracks recently seen correlation ids so redelivered
// events are discarded instead of re-filed. The window is process-local
// and reset on restart: a weak guarantee that is acceptable because
// redelivery duplicates arrive close together.
package dedup

import (
	"sync"
	"time"
)

// DefaultSize bounds the window to the most recent correlation ids kept.
const DefaultSize = 100

// Window is a bounded, insertion-ordered set of correlation ids. It is
// safe for concurrent use; the serialized check-then-insert in Seen keeps
// a redelivered duplicate from slipping through between check and insert.
type Window struct {
	mu    sync.Mutex
	size  int
	now   func() time.Time
	seen  map[string]time.Time
	order []string // insertion order, oldest first
}

// NewWindow creates a window holding at most size ids. A size of zero or
// less uses DefaultSize.
func NewWindow(size int) *Window {
	return NewWindowWithClock(size, time.Now)
}

// NewWindowWithClock creates a window with an injectable clock for tests.
func NewWindowWithClock(size int, now func() time.Time) *Window {
	if size <= 0 {
		size = DefaultSize
	}
	return &Window{
		size: size,
		now:  now,
		seen: make(map[string]time.Time, size),
	}
}

// Seen reports whether the id was already recorded, recording it if not.
// When the window exceeds its bound it is pruned to the newest entries.
func (w *Window) Seen(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.seen[id]; ok {
		return true
	}

	w.seen[id] = w.now()
	w.order = append(w.order, id)

	if len(w.order) > w.size {
		drop := len(w.order) - w.size
		for _, old := range w.order[:drop] {
			delete(w.seen, old)
		}
		w.order = w.order[drop:]
	}
	return false
}

// Len returns the number of ids currently held.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.order)
}
