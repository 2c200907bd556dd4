package fraud

import (
	"sync"
)

// DefaultCapacity is used when a non-positive capacity is requested
const DefaultCapacity = 1000

// Sink receives entries after they are buffered. Implementations must not
// block the caller.
type Sink interface {
	Accept(entry ActivityEntry)
}

// Recorder is a bounded, concurrency-safe ring buffer of suspicious activity.
// When full, the oldest entry is overwritten. It is an in-process audit aid
// and does not survive restarts.
type Recorder struct {
	mu      sync.RWMutex
	entries []ActivityEntry
	next    int
	size    int
	sinks   []Sink
}

// NewRecorder creates a recorder holding at most capacity entries
func NewRecorder(capacity int, sinks ...Sink) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{
		entries: make([]ActivityEntry, capacity),
		sinks:   sinks,
	}
}

// Record appends entry, evicting the oldest entry when full
func (r *Recorder) Record(entry ActivityEntry) {
	r.mu.Lock()
	r.entries[r.next] = entry
	r.next = (r.next + 1) % len(r.entries)
	if r.size < len(r.entries) {
		r.size++
	}
	r.mu.Unlock()

	for _, s := range r.sinks {
		s.Accept(entry)
	}
}

// List returns matching entries, newest first
func (r *Recorder) List(f Filter) []ActivityEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ActivityEntry, 0)
	for i := 0; i < r.size; i++ {
		idx := (r.next - 1 - i + len(r.entries)) % len(r.entries)
		e := r.entries[idx]
		if !f.matches(e) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// Len returns the number of buffered entries
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Capacity returns the maximum number of buffered entries
func (r *Recorder) Capacity() int {
	return len(r.entries)
}
