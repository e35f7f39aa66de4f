package health

import "sync"

// Table is an ordered, append-only log of stage-output records. Writes go
// through Append; reads return a snapshot copy so callers can inspect a
// table at any time, including while a cycle is running.
//
// Entries are never removed or reordered. Tables grow without bound for the
// lifetime of the executor; no expiry is implemented, which is a known
// resource-growth risk for long-running processes with short policy
// intervals.
type Table[T any] struct {
	mu      sync.RWMutex
	entries []T
}

// Append adds entries to the end of the table, preserving their order.
func (t *Table[T]) Append(entries ...T) {
	if len(entries) == 0 {
		return
	}
	t.mu.Lock()
	t.entries = append(t.entries, entries...)
	t.mu.Unlock()
}

// Snapshot returns a copy of the table contents in append order. The copy
// reflects all appends completed before the call and is safe to retain.
func (t *Table[T]) Snapshot() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the current number of entries.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
