// Package idalloc allocates the stable element identifiers that asset
// tables key their rows by. Identifiers survive table migration: the same
// ElementRef names a row no matter which table currently holds it.
package idalloc

import "sync"

// ElementRef is a process-unique, stable identifier for a table row. The
// zero value never gets handed out by Alloc and is reserved to mean "no
// element" (e.g. an advisory index miss).
type ElementRef uint64

// IsSet reports whether the ref was ever allocated.
func (r ElementRef) IsSet() bool {
	return r != 0
}

// Allocator hands out fresh ElementRefs and accepts back ones that are no
// longer in use so they can be reused. Allocation is thread-safe: importer
// tasks running on separate workers may reserve identifiers concurrently
// (spec §5, "The stable-id allocator is thread-safe").
//
// Pending handles (spec §4.4) are released back to an Allocator by their
// owning task's destructor-equivalent cleanup when they are never claimed,
// which is why Release must be safe to call from arbitrary goroutines.
type Allocator struct {
	mu    sync.Mutex
	next  uint64
	free  []ElementRef
	count int // outstanding refs not yet released, for quiescence checks
}

// New constructs an empty Allocator.
func New() *Allocator {
	return &Allocator{}
}

// Alloc reserves and returns a fresh ElementRef. Ids are only reused from
// the free list once released by Release, never guessed or recycled
// implicitly.
func (a *Allocator) Alloc() ElementRef {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.count++
	if n := len(a.free); n > 0 {
		ref := a.free[n-1]
		a.free = a.free[:n-1]
		return ref
	}
	a.next++
	return ElementRef(a.next)
}

// Release returns ref to the allocator so it may be reused by a later
// Alloc. It must only be called once per ref returned by Alloc, and only
// after every table row and pending reservation referring to ref has gone
// away.
func (a *Allocator) Release(ref ElementRef) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.count--
	a.free = append(a.free, ref)
}

// Outstanding reports the number of ElementRefs currently allocated and not
// yet released. At quiescence (spec §8 property 6, "no outstanding
// reservations not owned by a table row") this should equal the number of
// rows across all tables.
func (a *Allocator) Outstanding() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}
