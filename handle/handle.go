// Package handle implements the stable AssetHandle / UsageTracker protocol
// described in spec.md §4.1: a handle is a stable reference to an asset
// that can be freely copied by consumers, backed by a shared UsageTracker
// whose live count drives garbage collection.
package handle

import (
	"sync/atomic"

	"github.com/loom-engine/loom/idalloc"
)

// LoadStep is the lifecycle state a handle's underlying asset can be
// observed in. Invalid is never stored — it is the verdict returned when
// an identifier resolves to no table row.
type LoadStep uint8

const (
	Requested LoadStep = iota
	Loading
	Succeeded
	Failed
	Invalid
)

func (s LoadStep) String() string {
	switch s {
	case Requested:
		return "Requested"
	case Loading:
		return "Loading"
	case Succeeded:
		return "Succeeded"
	case Failed:
		return "Failed"
	default:
		return "Invalid"
	}
}

// UsageTracker is a shared, reference-counted marker. The set of live
// trackers for an asset is exactly the set of outstanding consumer
// handles; a table row stores only a weak reference (a bare *UsageTracker
// that is never Acquire'd) so that ownership always flows consumer ->
// asset and never the reverse (spec §3).
//
// Go has no stable, non-experimental weak-pointer primitive the way C++
// has std::weak_ptr, so the strong/weak split is modeled explicitly: Acquire
// increments the live count, Release decrements it, and Expired reports
// whether the count has reached zero. A table row holding a *UsageTracker
// without ever calling Acquire is, by construction, a weak reference.
type UsageTracker struct {
	count atomic.Int64
}

// NewUsageTracker returns a tracker with one outstanding strong reference,
// matching requestLoad's immediate creation of the consumer's handle.
func NewUsageTracker() *UsageTracker {
	t := &UsageTracker{}
	t.count.Store(1)
	return t
}

// Acquire records an additional strong reference, returning the tracker
// for convenience at call sites that clone a handle.
func (t *UsageTracker) Acquire() *UsageTracker {
	if t != nil {
		t.count.Add(1)
	}
	return t
}

// Release drops one strong reference. Once released to zero the tracker is
// Expired; a later Acquire raises the count again, the same way a pending
// tracker (which starts at zero) gains its first strong reference.
func (t *UsageTracker) Release() {
	if t != nil {
		t.count.Add(-1)
	}
}

// Expired reports whether no strong references remain. garbage_collect
// polls this on the weak reference stored in each table row (spec §4.5).
func (t *UsageTracker) Expired() bool {
	return t == nil || t.count.Load() <= 0
}

// NewPendingTracker returns a tracker with no outstanding strong
// references, for a pending handle (spec §4.4) that is reserved but not
// yet claimed by any consumer. A caller that wants to keep a resolved
// pending handle alive -- e.g. a finished SceneAsset's resolved mesh and
// material arrays -- acquires a strong reference explicitly via
// Clone/Acquire once the row it points at is real.
func NewPendingTracker() *UsageTracker {
	return &UsageTracker{}
}

// AssetHandle is a stable, shareable reference to an asset: an element
// identifier plus a strong reference to its UsageTracker. Handle equality
// is identifier equality (spec §3).
type AssetHandle struct {
	Ref idalloc.ElementRef
	use *UsageTracker
}

// New wraps ref and use without acquiring a reference: the handle owns
// whatever strong reference the caller hands over. requestLoad passes a
// fresh NewUsageTracker, whose single strong reference the handle owns; a
// pending handle built on NewPendingTracker owns none.
func New(ref idalloc.ElementRef, use *UsageTracker) AssetHandle {
	return AssetHandle{Ref: ref, use: use}
}

// Clone returns a copy of h that shares its UsageTracker and holds its own
// strong reference, mirroring "handles are cheap to copy; each copy shares
// the same strong ref" (spec §4.1). Since Go has no destructors, Release
// must be called explicitly once a clone (or the original) is no longer
// needed; this module does not emulate scope-based drop via runtime
// finalizers.
func (h AssetHandle) Clone() AssetHandle {
	return AssetHandle{Ref: h.Ref, use: h.use.Acquire()}
}

// Release drops this handle's strong reference to its UsageTracker. Once
// every handle sharing a tracker has called Release, the tracker is
// Expired and garbage_collect will reclaim the row on its next pass.
func (h AssetHandle) Release() {
	h.use.Release()
}

// Equal reports identifier equality, the handle equality rule in spec §3.
func (h AssetHandle) Equal(other AssetHandle) bool {
	return h.Ref == other.Ref
}

// Tracker exposes the handle's UsageTracker so table rows can store a weak
// reference to it without acquiring a strong one.
func (h AssetHandle) Tracker() *UsageTracker {
	return h.use
}
