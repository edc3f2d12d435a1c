// Package service implements the three scheduled passes spec.md §4.5
// describes: start_requests migrates freshly-requested loads into Loading
// and submits their root task; update_progress drains finished chains into
// Succeeded<T> or Failed; garbage_collect reclaims rows whose usage
// tracker has expired.
//
// Grounded on original_source/dof/loader/src/AssetService.cpp.
package service

import (
	"github.com/loom-engine/loom/asset"
	"github.com/loom-engine/loom/diagnostics"
	"github.com/loom-engine/loom/handle"
	"github.com/loom-engine/loom/idalloc"
	"github.com/loom-engine/loom/importer"
	"github.com/loom-engine/loom/location"
	"github.com/loom-engine/loom/scheduler"
	"github.com/loom-engine/loom/table"
	"github.com/loom-engine/loom/task"
)

// Service owns every asset table and drives the three passes. Its methods
// are meant to be called from a single driving goroutine (spec §5's
// "system-graph thread") — concurrent workers only ever touch a task's own
// Asset field from inside that task's scheduled closure, never a table
// directly.
type Service struct {
	alloc     *idalloc.Allocator
	sched     *scheduler.Scheduler
	importers importer.Registry
	globals   *Globals

	requests  *table.Table[RequestRow]
	loading   *table.Table[LoadingRow]
	failed    *table.Table[FailedRow]
	materials *table.Table[asset.SucceededRow[asset.MaterialAsset]]
	meshes    *table.Table[asset.SucceededRow[asset.MeshAsset]]
	scenes    *table.Table[asset.SucceededRow[asset.SceneAsset]]
}

// New constructs an empty Service wired to alloc, sched, an ordered
// importer registry, and its Globals.
func New(alloc *idalloc.Allocator, sched *scheduler.Scheduler, importers importer.Registry, globals *Globals) *Service {
	return &Service{
		alloc:     alloc,
		sched:     sched,
		importers: importers,
		globals:   globals,

		requests:  table.New[RequestRow](),
		loading:   table.New[LoadingRow](),
		failed:    table.New[FailedRow](),
		materials: table.New[asset.SucceededRow[asset.MaterialAsset]](),
		meshes:    table.New[asset.SucceededRow[asset.MeshAsset]](),
		scenes:    table.New[asset.SucceededRow[asset.SceneAsset]](),
	}
}

// RequestLoad is spec §4.1's requestLoad: allocate an identifier, insert a
// Requests row, and return a handle owning a fresh strong reference. The
// advisory index records the location but is never consulted to merge or
// short-circuit this or any later request (spec §9 Open Questions,
// DESIGN.md "Location index authority").
func (s *Service) RequestLoad(req location.LoadRequest) handle.AssetHandle {
	ref := s.alloc.Alloc()
	tracker := handle.NewUsageTracker()
	s.requests.Add(ref, RequestRow{Request: req}, tracker)
	s.globals.Index.Insert(req.Location, ref)
	return handle.New(ref, tracker)
}

// GetLoadState is spec §4.1's getLoadState: lookup-only, priority order
// Succeeded, Loading, Requested, Failed, else Invalid -- matching
// original_source/dof/loader/src/AssetReader.cpp.
func (s *Service) GetLoadState(h handle.AssetHandle) handle.LoadStep {
	if s.materials.IndexOf(h.Ref) >= 0 || s.meshes.IndexOf(h.Ref) >= 0 || s.scenes.IndexOf(h.Ref) >= 0 {
		return handle.Succeeded
	}
	if s.loading.IndexOf(h.Ref) >= 0 {
		return handle.Loading
	}
	if s.requests.IndexOf(h.Ref) >= 0 {
		return handle.Requested
	}
	if s.failed.IndexOf(h.Ref) >= 0 {
		return handle.Failed
	}
	return handle.Invalid
}

// Material looks up a Succeeded<MaterialAsset> row by handle, supplementing
// spec §4.1's getLoadState with the data access a consumer actually needs
// once a handle reports Succeeded (original_source's AssetDatabase.cpp
// models row storage the same way: a lookup-by-identifier accessor per
// typed table).
func (s *Service) Material(h handle.AssetHandle) (asset.MaterialAsset, bool) {
	if idx := s.materials.IndexOf(h.Ref); idx >= 0 {
		_, row, _ := s.materials.At(idx)
		return row.Asset, true
	}
	return asset.MaterialAsset{}, false
}

// Mesh looks up a Succeeded<MeshAsset> row by handle.
func (s *Service) Mesh(h handle.AssetHandle) (asset.MeshAsset, bool) {
	if idx := s.meshes.IndexOf(h.Ref); idx >= 0 {
		_, row, _ := s.meshes.At(idx)
		return row.Asset, true
	}
	return asset.MeshAsset{}, false
}

// Scene looks up a Succeeded<SceneAsset> row by handle.
func (s *Service) Scene(h handle.AssetHandle) (asset.SceneAsset, bool) {
	if idx := s.scenes.IndexOf(h.Ref); idx >= 0 {
		_, row, _ := s.scenes.At(idx)
		return row.Asset, true
	}
	return asset.SceneAsset{}, false
}

// StartRequests drains every row out of Requests, migrating each into
// Loading and submitting its root task. Importer selection is first-match
// over s.importers by AssetLocation extension; an unmatched extension is
// logged and leaves the root's Asset at the initial empty variant, which
// classifies as a failure (spec §4.5).
func (s *Service) StartRequests() {
	for s.requests.Len() > 0 {
		id, row, usage := s.requests.At(0)
		s.requests.Delete(0)

		root := task.New(handle.New(id, usage))
		s.loading.Add(id, LoadingRow{Task: root}, usage)

		req := row.Request
		ctx := &importer.Context{Scheduler: s.sched, Alloc: s.alloc}
		root.Start(s.sched, func(self *task.AssetLoadTask) {
			ext := importer.Extension(req.Location.Filename)
			imp := s.importers.Select(ext)
			if imp == nil {
				diagnostics.Dump(map[string]string{
					"event":     "unmatched importer extension",
					"filename":  req.Location.Filename,
					"extension": ext,
				})
				return
			}
			imp.Load(self, req, ctx)
		})
	}
}

// UpdateProgress is spec §4.5's update_progress, gated by Globals'
// progress limiter. For every Loading row whose chain has completed, it
// classifies the chain and migrates it into Succeeded<T> or Failed.
func (s *Service) UpdateProgress() {
	if !s.globals.progress.Allow() {
		return
	}

	for i := 0; i < s.loading.Len(); {
		id, row, _ := s.loading.At(i)
		if !row.Task.IsDone() {
			i++
			continue
		}
		s.resolveChain(i, row.Task)
		// Resolving a failed chain, or one whose root has a Succeeded
		// destination, removes the row at i (swap-remove or migrate), so the
		// same index is re-examined. An EmptyAsset root stays in Loading
		// (see succeedChain), so i advances past it.
		if i < s.loading.Len() {
			if cur, _, _ := s.loading.At(i); cur == id {
				i++
			}
		}
	}
}

// resolveChain classifies every member of root's chain and migrates the
// Loading row at loadingIndex into Succeeded<T> or Failed accordingly.
func (s *Service) resolveChain(loadingIndex int, root *task.AssetLoadTask) {
	chain := root.Chain()

	failed := false
	for _, member := range chain {
		if asset.Classify(member.Asset).IsFailure {
			failed = true
			break
		}
	}

	if failed {
		s.failChain(loadingIndex, chain)
		return
	}
	s.succeedChain(loadingIndex, root, chain)
}

// succeedChain is spec §4.5 update_progress step 3: the root migrates from
// Loading into its Succeeded<T> table via table.Migrate (so its identifier
// and weak usage reference carry over unchanged); every other non-skipped
// chain member becomes a newly-inserted row keyed by its own reserved
// identifier, with a Create event emitted for each.
func (s *Service) succeedChain(loadingIndex int, root *task.AssetLoadTask, chain []*task.AssetLoadTask) {
	var children []handle.AssetHandle
	for _, member := range chain {
		if member == root {
			continue
		}
		if h, ok := s.publishChild(member); ok {
			children = append(children, h)
		}
	}

	ops := asset.Classify(root.Asset)
	if ops.HasDestination {
		s.publishRoot(loadingIndex, ops.Kind, children)
	}
	// Else: EmptyAsset (or a chain whose root produced nothing typed) --
	// spec's documented quirk (DESIGN.md, "EmptyAsset visibility to
	// consumers") -- the root is left in Loading rather than migrated
	// anywhere, exactly reproducing moveSucceededAssets' `continue` before
	// any root migration happens.
}

// publishRoot migrates the Loading row at loadingIndex into the Succeeded
// table matching kind, carrying forward the handles of any children
// published alongside it (spec §3's ChildListHead).
func (s *Service) publishRoot(loadingIndex int, kind asset.Kind, children []handle.AssetHandle) {
	switch kind {
	case asset.KindMaterial:
		idx := table.Migrate(s.loading, loadingIndex, s.materials, func(_ idalloc.ElementRef, row LoadingRow) asset.SucceededRow[asset.MaterialAsset] {
			return asset.SucceededRow[asset.MaterialAsset]{Asset: row.Task.Asset.(asset.MaterialAsset), Children: children}
		})
		s.materials.SetCreate(idx)
	case asset.KindMesh:
		idx := table.Migrate(s.loading, loadingIndex, s.meshes, func(_ idalloc.ElementRef, row LoadingRow) asset.SucceededRow[asset.MeshAsset] {
			return asset.SucceededRow[asset.MeshAsset]{Asset: row.Task.Asset.(asset.MeshAsset), Children: children}
		})
		s.meshes.SetCreate(idx)
	case asset.KindScene:
		idx := table.Migrate(s.loading, loadingIndex, s.scenes, func(_ idalloc.ElementRef, row LoadingRow) asset.SucceededRow[asset.SceneAsset] {
			return asset.SucceededRow[asset.SceneAsset]{Asset: row.Task.Asset.(asset.SceneAsset), Children: children}
		})
		s.scenes.SetCreate(idx)
	default:
		diagnostics.AssertTrue(false, "publishRoot called with a kind that has no Succeeded destination")
	}
}

// publishChild handles one non-root chain member once the whole chain has
// been classified as a success, returning the handle it was published
// under (if any) so the caller can record it on the root's Children list.
// A pending-handle child becomes a new row keyed by its own reserved
// identifier and tracker (never a table.Migrate, since it never had a
// source row); a child an importer gave real storage to (rare) is migrated
// out of whatever table it is currently sitting in, the same way the root
// is.
func (s *Service) publishChild(member *task.AssetLoadTask) (handle.AssetHandle, bool) {
	ops := asset.Classify(member.Asset)
	if !ops.HasDestination {
		// EmptyAsset or (already ruled out by the caller) a failure: spec
		// §4.2 "EmptyAsset ... no destination (skipped during move)".
		if member.HasPendingHandle {
			member.Release(s.alloc)
		}
		return handle.AssetHandle{}, false
	}

	if member.HasPendingHandle {
		ref := member.Self.Ref
		tracker := member.Self.Tracker()
		switch v := member.Asset.(type) {
		case asset.MaterialAsset:
			idx := s.materials.Add(ref, asset.SucceededRow[asset.MaterialAsset]{Asset: v}, tracker)
			s.materials.SetCreate(idx)
		case asset.MeshAsset:
			idx := s.meshes.Add(ref, asset.SucceededRow[asset.MeshAsset]{Asset: v}, tracker)
			s.meshes.SetCreate(idx)
		case asset.SceneAsset:
			idx := s.scenes.Add(ref, asset.SucceededRow[asset.SceneAsset]{Asset: v}, tracker)
			s.scenes.SetCreate(idx)
		}
		member.Claim()
		return member.Self, true
	}

	// HasStorage: the importer handed this child a real handle, meaning it
	// already has a row somewhere -- almost certainly still in Loading,
	// since nothing migrates a row out of Requests except start_requests.
	if idx := s.loading.IndexOf(member.Self.Ref); idx >= 0 {
		s.publishRoot(idx, ops.Kind, nil)
		return member.Self, true
	}
	return handle.AssetHandle{}, false
}

// failChain is spec §4.5 update_progress step 4: the root migrates from
// Loading to Failed, preserving its identifier; pending-handle children
// simply release their reservation, and a child with real storage is
// migrated to Failed independently.
func (s *Service) failChain(loadingIndex int, chain []*task.AssetLoadTask) {
	table.Migrate(s.loading, loadingIndex, s.failed, func(idalloc.ElementRef, LoadingRow) FailedRow {
		return FailedRow{}
	})

	for _, member := range chain[1:] {
		if member.HasPendingHandle {
			member.Release(s.alloc)
			continue
		}
		if idx := s.loading.IndexOf(member.Self.Ref); idx >= 0 {
			table.Migrate(s.loading, idx, s.failed, func(idalloc.ElementRef, LoadingRow) FailedRow {
				return FailedRow{}
			})
		}
	}
}

// GarbageCollect is spec §4.5's garbage_collect, gated by Globals' GC
// limiter: every table carrying a UsageTrackerWeakRef is scanned for
// expired trackers, which are flagged for removal and then swept.
func (s *Service) GarbageCollect() {
	if !s.globals.garbageCollect.Allow() {
		return
	}

	gcTable(s.requests)
	gcTable(s.loading)
	gcTable(s.failed)
	gcTable(s.materials)
	gcTable(s.meshes)
	gcTable(s.scenes)
}

// gcTable flags every row in t whose weak usage reference has expired for
// removal, then sweeps them out in one pass.
func gcTable[Row any](t *table.Table[Row]) {
	n := t.Len()
	for i := 0; i < n; i++ {
		_, _, usage := t.At(i)
		if usage.Expired() {
			t.SetDestroy(i)
		}
	}
	t.Sweep()
}
