package task

import (
	"sync/atomic"
	"testing"

	"github.com/loom-engine/loom/asset"
	"github.com/loom-engine/loom/handle"
	"github.com/loom-engine/loom/idalloc"
	"github.com/loom-engine/loom/scheduler"
)

func newRootHandle(alloc *idalloc.Allocator) handle.AssetHandle {
	return handle.New(alloc.Alloc(), handle.NewUsageTracker())
}

func TestRootTaskIsDoneWithNoWork(t *testing.T) {
	alloc := idalloc.New()
	root := New(newRootHandle(alloc))
	if !root.IsDone() {
		t.Fatal("root task with no scheduled work and no children should be done")
	}
	if root.HasPendingHandle {
		t.Fatal("root task built by New should never start pending")
	}
}

func TestAddTaskBlocksIsDoneUntilWorkCompletes(t *testing.T) {
	alloc := idalloc.New()
	sched := scheduler.New(&scheduler.FixedWorkerPool{Workers: 1})
	root := New(newRootHandle(alloc))

	release := make(chan struct{})
	child := root.AddTask(sched, alloc, func(c *AssetLoadTask) {
		<-release
		c.Asset = asset.EmptyAsset{}
	})

	if root.IsDone() {
		t.Fatal("root should not be done while child work is blocked")
	}
	if !child.HasPendingHandle {
		t.Fatal("new child should start with a pending handle")
	}

	close(release)
	root.AwaitChildren()

	if !root.IsDone() {
		t.Fatal("root should be done once child work completes")
	}
	if _, ok := child.Asset.(asset.EmptyAsset); !ok {
		t.Fatalf("child.Asset = %#v, want EmptyAsset", child.Asset)
	}
}

func TestStartBlocksIsDoneUntilOwnWorkCompletes(t *testing.T) {
	alloc := idalloc.New()
	sched := scheduler.New(&scheduler.FixedWorkerPool{Workers: 1})
	root := New(newRootHandle(alloc))

	release := make(chan struct{})
	root.Start(sched, func(self *AssetLoadTask) {
		<-release
		self.Asset = asset.EmptyAsset{}
	})

	if root.IsDone() {
		t.Fatal("root should not be done while its own work is blocked")
	}
	close(release)
	root.work.Await()

	if !root.IsDone() {
		t.Fatal("root should be done once its own work completes")
	}
	if _, ok := root.Asset.(asset.EmptyAsset); !ok {
		t.Fatalf("root.Asset = %#v, want EmptyAsset", root.Asset)
	}
}

func TestClaimPreventsRelease(t *testing.T) {
	alloc := idalloc.New()
	sched := scheduler.New(&scheduler.FixedWorkerPool{Workers: 1})
	root := New(newRootHandle(alloc))
	child := root.AddTask(sched, alloc, func(c *AssetLoadTask) {})
	root.AwaitChildren()

	before := alloc.Outstanding()
	child.Claim()
	child.Release(alloc) // no-op: already claimed
	if alloc.Outstanding() != before {
		t.Fatalf("Outstanding() = %d after Release on a claimed task, want unchanged %d", alloc.Outstanding(), before)
	}
}

func TestReleaseReturnsUnclaimedIdentifier(t *testing.T) {
	alloc := idalloc.New()
	sched := scheduler.New(&scheduler.FixedWorkerPool{Workers: 1})
	root := New(newRootHandle(alloc))
	child := root.AddTask(sched, alloc, func(c *AssetLoadTask) {})
	root.AwaitChildren()

	before := alloc.Outstanding()
	child.Release(alloc)
	if alloc.Outstanding() != before-1 {
		t.Fatalf("Outstanding() = %d after releasing an unclaimed task, want %d", alloc.Outstanding(), before-1)
	}
	if child.HasPendingHandle {
		t.Fatal("HasPendingHandle should be false after Release")
	}

	// Idempotent: a second Release must not double-release.
	child.Release(alloc)
	if alloc.Outstanding() != before-1 {
		t.Fatalf("second Release changed Outstanding() to %d, want %d", alloc.Outstanding(), before-1)
	}
}

func TestChainIncludesSelfAndDescendants(t *testing.T) {
	alloc := idalloc.New()
	sched := scheduler.New(&scheduler.FixedWorkerPool{Workers: 2})
	root := New(newRootHandle(alloc))
	root.AddTask(sched, alloc, func(c *AssetLoadTask) {})
	root.AddTask(sched, alloc, func(c *AssetLoadTask) {})
	root.AwaitChildren()

	if len(root.Chain()) != 3 {
		t.Fatalf("len(Chain()) = %d, want 3 (root + 2 children)", len(root.Chain()))
	}
	if root.Chain()[0] != root {
		t.Fatal("Chain()[0] should be the root task itself")
	}
}

func TestAwaitChildrenWaitsForConcurrentWork(t *testing.T) {
	alloc := idalloc.New()
	sched := scheduler.New(&scheduler.DynamicWorkerPool{Workers: 4})
	root := New(newRootHandle(alloc))

	var completed atomic.Int32
	for i := 0; i < 5; i++ {
		root.AddTask(sched, alloc, func(c *AssetLoadTask) {
			completed.Add(1)
			c.Asset = asset.EmptyAsset{}
		})
	}
	root.AwaitChildren()

	if completed.Load() != 5 {
		t.Fatalf("completed = %d, want 5", completed.Load())
	}
	if !root.IsDone() {
		t.Fatal("root should be done once all children complete")
	}
}
