// Package location defines the user-facing asset key (AssetLocation) and
// the advisory location -> identifier index described in spec.md §3 and
// §4.1, and supplemented from original_source/dof/loader/src/AssetIndex.h.
package location

import (
	"sync"

	"github.com/loom-engine/loom/idalloc"
)

// AssetLocation identifies an asset source: a filename, plus whether the
// request carried its own in-memory bytes. It is equality-hashable so it
// can key the advisory Index.
type AssetLocation struct {
	Filename string
	// HasBytes distinguishes a location whose LoadRequest supplied bytes
	// directly from one that must be read by Filename. It participates in
	// equality so that "same name, supplied inline" and "same name, read
	// from disk" are tracked as distinct advisory entries -- they are not
	// guaranteed to produce the same bytes.
	HasBytes bool
}

// LoadRequest is the input to requestLoad: a location, and optionally the
// bytes to import instead of reading Filename from disk.
type LoadRequest struct {
	Location AssetLocation
	Contents []byte // nil unless HasBytes
}

// Index is an advisory location -> ElementRef lookup. It is advisory only
// (spec §3, §9 Open Questions): it exists to let callers notice that a
// location was already requested, but it never owns a row and is never
// consulted to short-circuit or merge a load (see DESIGN.md, "Location
// index authority").
//
// Guarded by a RWMutex rather than a single Mutex because lookups
// (Find) vastly outnumber mutations (Insert/Erase), matching
// AssetIndex.h's std::shared_mutex reader/writer split.
type Index struct {
	mu    sync.RWMutex
	byLoc map[AssetLocation]idalloc.ElementRef
}

// NewIndex constructs an empty advisory index.
func NewIndex() *Index {
	return &Index{byLoc: make(map[AssetLocation]idalloc.ElementRef)}
}

// Find returns the previously-recorded ElementRef for loc, if any.
func (idx *Index) Find(loc AssetLocation) (idalloc.ElementRef, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ref, ok := idx.byLoc[loc]
	return ref, ok
}

// Insert records that loc resolved to ref. Later inserts for the same loc
// overwrite the earlier entry -- the index tracks only the most recent
// request for a given location.
func (idx *Index) Insert(loc AssetLocation, ref idalloc.ElementRef) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.byLoc[loc] = ref
}

// Erase drops loc's entry. Provided for symmetry with Insert/Find; like
// AssetIndex::erase in the original source, nothing currently calls it --
// the original never wires it into its own garbage-collect pass either
// (grep the source: erase is defined but never invoked outside its own
// definition), so the index only ever grows. See DESIGN.md, "Location
// index authority".
func (idx *Index) Erase(loc AssetLocation) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.byLoc, loc)
}
