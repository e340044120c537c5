// Package inflight tracks operations that are still running, keyed by
// operation and document digest. It only holds state for the lifetime of the
// process and is used to refuse a second submission of a digest while the
// first one is still waiting for its receipt.
package inflight

import (
	"sort"
	"sync"
	"time"
)

// Entry describes one running operation.
type Entry struct {
	Operation     string
	Key           string
	CorrelationID string
	Started       time.Time
}

// Tracker is a concurrency-safe set of running operations.
type Tracker struct {
	mu sync.RWMutex
	// operation -> key -> entry
	data map[string]map[string]Entry
	now  func() time.Time
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{data: make(map[string]map[string]Entry), now: time.Now}
}

// TryStart marks (operation, key) as running. It returns false when the pair
// is already running or an argument is empty.
func (t *Tracker) TryStart(operation, key, correlationID string) bool {
	if operation == "" || key == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	m, ok := t.data[operation]
	if !ok {
		m = make(map[string]Entry)
		t.data[operation] = m
	}
	if _, exists := m[key]; exists {
		return false
	}
	m[key] = Entry{Operation: operation, Key: key, CorrelationID: correlationID, Started: t.now()}
	return true
}

// End removes (operation, key). Unknown pairs are a no-op.
func (t *Tracker) End(operation, key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if m, ok := t.data[operation]; ok {
		delete(m, key)
		if len(m) == 0 {
			delete(t.data, operation)
		}
	}
}

// Running reports whether (operation, key) is in flight.
func (t *Tracker) Running(operation, key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.data[operation][key]
	return ok
}

// Snapshot returns a copy of the running operations, oldest first.
func (t *Tracker) Snapshot() []Entry {
	t.mu.RLock()
	out := make([]Entry, 0)
	for _, m := range t.data {
		for _, e := range m {
			out = append(out, e)
		}
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Started.Equal(out[j].Started) {
			return out[i].Key < out[j].Key
		}
		return out[i].Started.Before(out[j].Started)
	})
	return out
}
