package table

import (
	"testing"

	"github.com/loom-engine/loom/handle"
	"github.com/loom-engine/loom/idalloc"
)

func TestAddAndAt(t *testing.T) {
	tab := New[string]()
	use := handle.NewUsageTracker()
	idx := tab.Add(idalloc.ElementRef(1), "hello", use)
	if idx != 0 {
		t.Fatalf("Add returned index %d, want 0", idx)
	}
	id, row, gotUse := tab.At(0)
	if id != idalloc.ElementRef(1) || row != "hello" || gotUse != use {
		t.Fatalf("At(0) = (%v, %q, %v), want (1, hello, %v)", id, row, gotUse, use)
	}
}

func TestDeleteSwapRemove(t *testing.T) {
	tab := New[int]()
	for i := 0; i < 4; i++ {
		tab.Add(idalloc.ElementRef(i+1), i, nil)
	}
	// Deleting index 1 (value 1) should swap in the last row (value 3).
	tab.Delete(1)
	if tab.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tab.Len())
	}
	_, row, _ := tab.At(1)
	if row != 3 {
		t.Fatalf("At(1) = %d after swap-remove, want 3", row)
	}
	// Rows below the deleted index are untouched.
	_, row0, _ := tab.At(0)
	if row0 != 0 {
		t.Fatalf("At(0) = %d, want 0", row0)
	}
}

func TestIndexOfMissing(t *testing.T) {
	tab := New[int]()
	tab.Add(idalloc.ElementRef(7), 42, nil)
	if got := tab.IndexOf(idalloc.ElementRef(7)); got != 0 {
		t.Fatalf("IndexOf(7) = %d, want 0", got)
	}
	if got := tab.IndexOf(idalloc.ElementRef(99)); got != -1 {
		t.Fatalf("IndexOf(99) = %d, want -1", got)
	}
}

func TestSweepRemovesOnlyFlagged(t *testing.T) {
	tab := New[int]()
	for i := 0; i < 5; i++ {
		tab.Add(idalloc.ElementRef(i+1), i, nil)
	}
	tab.SetDestroy(1) // value 1
	tab.SetDestroy(3) // value 3
	removed := tab.Sweep()
	if removed != 2 {
		t.Fatalf("Sweep() removed %d rows, want 2", removed)
	}
	if tab.Len() != 3 {
		t.Fatalf("Len() after sweep = %d, want 3", tab.Len())
	}
	seen := map[int]bool{}
	tab.ForEach(func(_ int, _ idalloc.ElementRef, row int, _ *handle.UsageTracker) {
		seen[row] = true
	})
	for _, want := range []int{0, 2, 4} {
		if !seen[want] {
			t.Fatalf("row %d missing after Sweep, remaining = %v", want, seen)
		}
	}
	for _, gone := range []int{1, 3} {
		if seen[gone] {
			t.Fatalf("row %d should have been swept away, remaining = %v", gone, seen)
		}
	}
}

func TestMigrateTransformsRow(t *testing.T) {
	src := New[string]()
	dst := New[int]()
	use := handle.NewUsageTracker()
	src.Add(idalloc.ElementRef(5), "abc", use)

	dstIdx := Migrate(src, 0, dst, func(id idalloc.ElementRef, row string) int {
		return len(row)
	})

	if src.Len() != 0 {
		t.Fatalf("src.Len() = %d after Migrate, want 0", src.Len())
	}
	id, row, gotUse := dst.At(dstIdx)
	if id != idalloc.ElementRef(5) || row != 3 || gotUse != use {
		t.Fatalf("dst.At(%d) = (%v, %d, %v), want (5, 3, %v)", dstIdx, id, row, gotUse, use)
	}
}

func TestMigrateWhileSizeLoopDrainsSource(t *testing.T) {
	src := New[int]()
	dst := New[int]()
	for i := 0; i < 10; i++ {
		src.Add(idalloc.ElementRef(i+1), i*i, nil)
	}

	for src.Len() > 0 {
		Migrate(src, 0, dst, func(id idalloc.ElementRef, row int) int { return row })
	}

	if src.Len() != 0 {
		t.Fatalf("src.Len() = %d, want 0", src.Len())
	}
	if dst.Len() != 10 {
		t.Fatalf("dst.Len() = %d, want 10", dst.Len())
	}
}

func TestCreateEventNotSetByMigrate(t *testing.T) {
	src := New[int]()
	dst := New[int]()
	src.Add(idalloc.ElementRef(1), 1, nil)

	dstIdx := Migrate(src, 0, dst, func(id idalloc.ElementRef, row int) int { return row })

	if dst.Events(dstIdx).Create {
		t.Fatalf("Migrate set Create event, want caller-controlled")
	}
	dst.SetCreate(dstIdx)
	if !dst.Events(dstIdx).Create {
		t.Fatalf("SetCreate did not stick")
	}
}
