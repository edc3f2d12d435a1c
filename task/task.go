// Package task implements the AssetLoadTask chain described in spec.md
// §4.4: a singly-linked list of scheduled work, mutated only by the
// currently-running task within its own chain, that update_progress polls
// for completion without ever touching an incomplete task's payload.
//
// Grounded on original_source/dof/loader/src/AssetLoadTask.h/.cpp.
package task

import (
	"github.com/loom-engine/loom/asset"
	"github.com/loom-engine/loom/handle"
	"github.com/loom-engine/loom/idalloc"
	"github.com/loom-engine/loom/scheduler"
)

// AssetLoadTask is one node in the chain of work needed to resolve a
// single requestLoad. New elements are only added while earlier tasks
// are still in progress, so IsDone is safe to read from any goroutine
// without a lock -- the same reasoning AssetLoadTask.cpp's isDone relies
// on.
type AssetLoadTask struct {
	// Self is the handle this task resolves, whether it points at a real
	// row (the root task) or a speculative reservation (a subtask before
	// it is claimed).
	Self handle.AssetHandle
	// HasPendingHandle is true while Self's identifier is reserved but no
	// table row yet points at it.
	HasPendingHandle bool
	// Asset is written only by this task's own scheduled work, and read by
	// update_progress only after IsDone is true.
	Asset asset.Variant
	// Next is the rest of the chain. Mutated only by the task currently
	// running its own work.
	Next *AssetLoadTask

	work *scheduler.Task
}

// New constructs the root task for a request that already has a real
// table row. start_requests always builds the root task this way: the
// handle returned by requestLoad already points at a row (about to migrate
// from Requests to Loading), so HasPendingHandle starts false.
func New(self handle.AssetHandle) *AssetLoadTask {
	return &AssetLoadTask{Self: self}
}

// IsDone reports whether this task's own scheduled work, and the entire
// tail of its chain, has completed.
func (t *AssetLoadTask) IsDone() bool {
	if t.work != nil && !t.work.IsDone() {
		return false
	}
	return t.Next == nil || t.Next.IsDone()
}

// HasStorage reports whether Self points at a real table row rather than a
// speculative reservation.
func (t *AssetLoadTask) HasStorage() bool {
	return !t.HasPendingHandle
}

// Start submits t's own work to sched. Used exactly once, by start_requests
// immediately after New builds the root task: the root has no work of its
// own until an importer is selected and invoked, unlike AddTask's children
// whose work is known at creation time. Calling Start more than once
// replaces the previous work's completion tracking, so callers must not.
func (t *AssetLoadTask) Start(sched *scheduler.Scheduler, work func(self *AssetLoadTask)) {
	t.work = sched.Submit(func() { work(t) })
}

// Claim marks the task's pending handle as having been migrated into a
// real row, so a later Release is a no-op. Go has no destructor to fire
// this automatically the way original_source's ~AssetLoadTask does --
// every code path that finishes with a task (the success and failure
// branches of update_progress, or an importer abandoning a subtask it
// spawned) must explicitly call Claim or Release.
func (t *AssetLoadTask) Claim() {
	t.HasPendingHandle = false
}

// Release returns the task's reserved identifier to alloc if it was never
// claimed. Idempotent: calling it again after a claim, or after an earlier
// Release, has no effect.
func (t *AssetLoadTask) Release(alloc *idalloc.Allocator) {
	if t.HasPendingHandle {
		alloc.Release(t.Self.Ref)
		t.HasPendingHandle = false
	}
}

// AddTask allocates a child task with a freshly reserved pending handle,
// prepends it to this task's chain, and submits work to sched. Order
// within the chain does not matter (spec §4.4): the new child is simply
// pushed onto Next. The callback receives the child so it can write to
// child.Asset and recurse by calling AddTask on the child itself.
func (t *AssetLoadTask) AddTask(sched *scheduler.Scheduler, alloc *idalloc.Allocator, work func(child *AssetLoadTask)) *AssetLoadTask {
	child := &AssetLoadTask{
		Self:             handle.New(alloc.Alloc(), handle.NewPendingTracker()),
		HasPendingHandle: true,
	}
	child.Next = t.Next
	t.Next = child

	child.work = sched.Submit(func() { work(child) })
	return child
}

// Chain returns every task in this task's chain starting with t itself, in
// no particular order beyond "t first". Used by update_progress's
// classification pass and by chain-completeness checks.
func (t *AssetLoadTask) Chain() []*AssetLoadTask {
	var out []*AssetLoadTask
	for cur := t; cur != nil; cur = cur.Next {
		out = append(out, cur)
	}
	return out
}

// AwaitChildren blocks until every task in this task's own chain besides t
// itself has completed -- the "sub-await" primitive spec §4.4 describes
// for a composite importer that needs its children materialized before it
// can proceed (e.g. a scene deduplicating its meshes). t is never awaited
// from within itself.
func (t *AssetLoadTask) AwaitChildren() {
	for cur := t.Next; cur != nil; cur = cur.Next {
		if cur.work != nil {
			cur.work.Await()
		}
	}
}
