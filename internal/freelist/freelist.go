// Package freelist provides keyed free lists that reuse the oldest entry
// first.
//
// A List owns every entry ever inserted into it. Entries are never removed:
// releasing an entry only makes it available again to Acquire calls with the
// same key. The owner frees the underlying resources by walking the list with
// Each when it is torn down.
//
// List is not safe for concurrent use. Callers serialize access with their own
// lock.
package freelist

import (
	"errors"
	"fmt"

	"github.com/eapache/queue"
)

// ErrFull is returned by Insert when the list holds its maximum number of entries.
var ErrFull = errors.New("freelist: capacity reached")

// DefaultMaxEntries is the soft cap used when New is given a non-positive size.
const DefaultMaxEntries = 1024

// Entry is a single pooled value.
type Entry[K comparable, V any] struct {
	Key   K
	Value V

	inUse bool
	seq   int
}

// InUse reports whether the entry is checked out.
func (e *Entry[K, V]) InUse() bool { return e.inUse }

// Stats contains usage counters for a List.
type Stats struct {
	// Entries is the number of entries ever inserted.
	Entries int

	// InUse is the number of entries currently checked out.
	InUse int

	// Allocations counts successful Insert calls.
	Allocations uint64

	// Reuses counts Acquire calls that returned a released entry.
	Reuses uint64
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("FreeList[%d entries, %d in use, %d allocs, %d reuses]",
		s.Entries, s.InUse, s.Allocations, s.Reuses)
}

// List is a set of entries grouped by key. Each key's free queue is kept in
// insertion order, so Acquire hands out the oldest released entry.
type List[K comparable, V any] struct {
	max     int
	entries []*Entry[K, V]
	free    map[K]*queue.Queue
	inUse   int

	allocations uint64
	reuses      uint64
}

// New creates a list capped at maxEntries entries.
func New[K comparable, V any](maxEntries int) *List[K, V] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &List[K, V]{
		max:  maxEntries,
		free: make(map[K]*queue.Queue),
	}
}

// Acquire checks out the earliest inserted released entry for key.
// It returns false when no released entry exists for key.
func (l *List[K, V]) Acquire(key K) (*Entry[K, V], bool) {
	q, ok := l.free[key]
	if !ok || q.Length() == 0 {
		return nil, false
	}
	e := q.Remove().(*Entry[K, V])
	e.inUse = true
	l.inUse++
	l.reuses++
	return e, true
}

// Insert appends a new entry for key and checks it out.
func (l *List[K, V]) Insert(key K, v V) (*Entry[K, V], error) {
	if len(l.entries) >= l.max {
		return nil, fmt.Errorf("%w (%d entries)", ErrFull, l.max)
	}
	e := &Entry[K, V]{Key: key, Value: v, inUse: true, seq: len(l.entries)}
	l.entries = append(l.entries, e)
	l.inUse++
	l.allocations++
	return e, nil
}

// Release returns e to its key's free queue.
// Releasing an entry that is not checked out does nothing and returns false.
func (l *List[K, V]) Release(e *Entry[K, V]) bool {
	if e == nil || !e.inUse {
		return false
	}
	e.inUse = false
	l.inUse--
	q, ok := l.free[e.Key]
	if !ok {
		q = queue.New()
		l.free[e.Key] = q
	}
	if q.Length() == 0 || q.Get(-1).(*Entry[K, V]).seq < e.seq {
		q.Add(e)
		return true
	}

	// Out-of-order release: rebuild the queue with e in place.
	sorted := queue.New()
	pending := e
	for range q.Length() {
		x := q.Remove().(*Entry[K, V])
		if pending != nil && pending.seq < x.seq {
			sorted.Add(pending)
			pending = nil
		}
		sorted.Add(x)
	}
	l.free[e.Key] = sorted
	return true
}

// Full reports whether Insert would fail.
func (l *List[K, V]) Full() bool { return len(l.entries) >= l.max }

// Len returns the number of entries ever inserted.
func (l *List[K, V]) Len() int { return len(l.entries) }

// Free returns the number of released entries waiting under key.
func (l *List[K, V]) Free(key K) int {
	if q, ok := l.free[key]; ok {
		return q.Length()
	}
	return 0
}

// Each calls fn for every entry in insertion order.
func (l *List[K, V]) Each(fn func(*Entry[K, V])) {
	for _, e := range l.entries {
		fn(e)
	}
}

// Reset drops all entries. Callers free the values first.
func (l *List[K, V]) Reset() {
	l.entries = nil
	l.free = make(map[K]*queue.Queue)
	l.inUse = 0
}

// Stats returns current counters.
func (l *List[K, V]) Stats() Stats {
	return Stats{
		Entries:     len(l.entries),
		InUse:       l.inUse,
		Allocations: l.allocations,
		Reuses:      l.reuses,
	}
}
