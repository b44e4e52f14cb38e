// Copyright 2025 Certen Protocol
//
// Bounded LRU set of 32-byte digests: container/list for recency order,
// a map for membership.

package ingest

import (
	"container/list"
	"sync"
)

// Dedup suppresses envelopes whose payload digest has already been
// observed, within a bounded capacity. Eviction is an observed event,
// not a correctness issue.
type Dedup struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[[32]byte]*list.Element
	onEvict  func()
}

// NewDedup builds a Dedup holding at most capacity digests. onEvict, if
// non-nil, is called once per eviction (wired to the
// lrucache_evictions_total counter by callers).
func NewDedup(capacity int, onEvict func()) *Dedup {
	return &Dedup{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[[32]byte]*list.Element),
		onEvict:  onEvict,
	}
}

// Seen reports whether digest was already recorded. If not, it records
// it, evicting the least-recently-used entry first if the cache is at
// capacity.
func (d *Dedup) Seen(digest [32]byte) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.items[digest]; ok {
		d.ll.MoveToFront(el)
		return true
	}

	el := d.ll.PushFront(digest)
	d.items[digest] = el

	if d.capacity > 0 && d.ll.Len() > d.capacity {
		oldest := d.ll.Back()
		if oldest != nil {
			d.ll.Remove(oldest)
			delete(d.items, oldest.Value.([32]byte))
			if d.onEvict != nil {
				d.onEvict()
			}
		}
	}
	return false
}

// Len reports the current number of tracked digests.
func (d *Dedup) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ll.Len()
}
