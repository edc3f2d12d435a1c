// Package table implements the generic row-storage engine that every asset
// table (Requests, Loading, Failed, the per-type Succeeded tables) is built
// from: swap-remove deletion, row migration between differently-typed
// tables, and per-row Create/Destroy event markers (spec.md §3, §4.2).
//
// The original system modeled every table as rows of a single erased shape
// selected by a runtime tag, so one generic query could walk heterogeneous
// tables. Go's type system makes the erased-shape trick awkward and the
// typed alternative cheap: each logical table here is its own
// Table[Row] instantiation, and "query by tag" becomes "pick the Go value
// for that table" at the call site. See DESIGN.md, "table" for the full
// rationale.
package table

import (
	"sync"

	"github.com/loom-engine/loom/handle"
	"github.com/loom-engine/loom/idalloc"
)

// Events records the one-shot lifecycle markers a row has accumulated since
// it last moved. Migrate does not carry them over: the destination row
// starts with no markers set, and the caller sets Create itself.
type Events struct {
	Create  bool
	Destroy bool
}

// Table is a tagged row store for rows of type Row, keyed by
// idalloc.ElementRef. Every row additionally carries a weak reference to
// its asset's UsageTracker — never Acquire'd by the table itself — so that
// garbage_collect can poll Expired() without extending the asset's
// lifetime (spec §4.1).
type Table[Row any] struct {
	mu     sync.Mutex
	ids    []idalloc.ElementRef
	rows   []Row
	usage  []*handle.UsageTracker
	events []Events
}

// New constructs an empty table.
func New[Row any]() *Table[Row] {
	return &Table[Row]{}
}

// Len returns the current row count.
func (t *Table[Row]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ids)
}

// Add appends a new row and returns its index. The row's Create marker
// starts false: callers that want an observable creation event set it
// explicitly with SetCreate, matching moveSucceededAssets only flagging
// Create on the tables it actually publishes to.
func (t *Table[Row]) Add(id idalloc.ElementRef, row Row, usage *handle.UsageTracker) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ids = append(t.ids, id)
	t.rows = append(t.rows, row)
	t.usage = append(t.usage, usage)
	t.events = append(t.events, Events{})
	return len(t.ids) - 1
}

// At returns the identifier, row value, and weak usage reference stored at
// index. The index is only valid until the next mutating call on t.
func (t *Table[Row]) At(index int) (idalloc.ElementRef, Row, *handle.UsageTracker) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ids[index], t.rows[index], t.usage[index]
}

// SetRow overwrites the row payload at index in place, leaving identifier,
// usage tracker, and events untouched. No pass in this module calls it;
// the service passes migrate or delete rows instead.
func (t *Table[Row]) SetRow(index int, row Row) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[index] = row
}

// IndexOf does a linear scan for id's current row index, or -1 if id has no
// row in t. Tables are expected to stay small enough (bounded by in-flight
// load count, not total asset count) that this is not a hot-path concern,
// so no secondary id->index map is maintained here.
func (t *Table[Row]) IndexOf(id idalloc.ElementRef) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, v := range t.ids {
		if v == id {
			return i
		}
	}
	return -1
}

// SetCreate flags the row at index as having produced a Create event.
func (t *Table[Row]) SetCreate(index int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events[index].Create = true
}

// SetDestroy flags the row at index for removal on the next Sweep, and as
// having produced a Destroy event in the meantime.
func (t *Table[Row]) SetDestroy(index int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events[index].Destroy = true
}

// Events returns the event markers currently set for the row at index.
func (t *Table[Row]) Events(index int) Events {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.events[index]
}

// Delete swap-removes the row at index: the last row is moved into index's
// slot and the slice shrinks by one, so every index above index may change
// but every index below it is stable. This is the same policy list's
// SliceRemove uses for O(1) removal from an unordered collection.
func (t *Table[Row]) Delete(index int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeLocked(index)
}

// Sweep removes every row flagged for Destroy, in a single left-to-right
// pass that tolerates the set shrinking under it (each removal swaps a
// not-yet-visited row into the current slot, so the same index is
// re-checked rather than advanced). This is the table layer "consuming" a
// Destroy marker that garbage_collect set a moment earlier, rather than
// garbage_collect removing rows directly.
func (t *Table[Row]) Sweep() (removed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := 0; i < len(t.ids); {
		if t.events[i].Destroy {
			t.removeLocked(i)
			removed++
			continue
		}
		i++
	}
	return removed
}

func (t *Table[Row]) removeLocked(index int) {
	last := len(t.ids) - 1
	t.ids[index] = t.ids[last]
	t.rows[index] = t.rows[last]
	t.usage[index] = t.usage[last]
	t.events[index] = t.events[last]

	var zeroRow Row
	t.rows[last] = zeroRow
	t.usage[last] = nil

	t.ids = t.ids[:last]
	t.rows = t.rows[:last]
	t.usage = t.usage[:last]
	t.events = t.events[:last]
}

// ForEach visits every current row in index order. fn must not mutate t;
// passes that need to migrate or delete while scanning should instead use
// the while-size()-migrate(0) pattern (see Migrate) against a dedicated
// source table.
func (t *Table[Row]) ForEach(fn func(index int, id idalloc.ElementRef, row Row, usage *handle.UsageTracker)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.ids {
		fn(i, t.ids[i], t.rows[i], t.usage[i])
	}
}

// Migrate moves the row at srcIndex out of src and into dst, transforming
// its payload with transform. The identifier and weak usage reference carry
// over unchanged — migration is a move of row ownership between tables, not
// a new asset. srcIndex is removed via swap-remove before dst is touched, so
// the two tables are never both locked at once.
//
// Callers that migrate every row out of a table use the
//
//	for src.Len() > 0 { Migrate(src, 0, dst, transform) }
//
// pattern so the index passed is always 0 — mirroring the
// "while size() { migrate(0, ...) }" loop original_source's AssetService.cpp
// runs in startRequests, moveSucceededAssets, and moveFailedAssets.
func Migrate[Src, Dst any](src *Table[Src], srcIndex int, dst *Table[Dst], transform func(id idalloc.ElementRef, row Src) Dst) int {
	src.mu.Lock()
	id := src.ids[srcIndex]
	row := src.rows[srcIndex]
	usage := src.usage[srcIndex]
	src.removeLocked(srcIndex)
	src.mu.Unlock()

	return dst.Add(id, transform(id, row), usage)
}
