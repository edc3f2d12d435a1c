// Package loom is the root facade: it wires idalloc, handle, location,
// scheduler, importer, and service together into the two contracts
// spec.md §4 names for an external caller — requesting a load and
// polling a handle's state — without exposing any of the table/task
// machinery underneath.
//
// Grounded on original_source/dof/loader/src/AssetLoader.cpp/AssetReader.cpp
// for the method contracts, and on row-manager.go for the convention of a
// single root-level type as the package's entry point rather than a deep
// subpackage a caller must know to reach into.
package loom

import (
	"golang.org/x/time/rate"

	"github.com/loom-engine/loom/asset"
	"github.com/loom-engine/loom/handle"
	"github.com/loom-engine/loom/idalloc"
	"github.com/loom-engine/loom/importer"
	"github.com/loom-engine/loom/location"
	"github.com/loom-engine/loom/scheduler"
	"github.com/loom-engine/loom/service"
)

// Config selects the knobs a caller sets up front: the worker pool backing
// every scheduled load, and how often the driving loop is allowed to run
// each maintenance pass.
type Config struct {
	// Pool backs every scheduled AssetLoadTask. A nil Pool defaults to
	// scheduler.New's own default (a FixedWorkerPool sized to the host's
	// CPU count).
	Pool scheduler.Pool
	// ProgressRate and GarbageCollectRate gate how often Loom.Update and
	// Loom.GarbageCollect actually do work when called repeatedly from a
	// driving loop. rate.Inf disables the corresponding gate.
	ProgressRate       rate.Limit
	GarbageCollectRate rate.Limit
	// Importers is consulted first-match by extension. A nil or empty
	// Importers falls back to DefaultImporters.
	Importers importer.Registry
}

// DefaultImporters is the registry New falls back to when Config.Importers
// is empty: the scene importer ahead of the general image importer, so a
// scene-format extension is never shadowed by the image importer's
// broader reach.
var DefaultImporters = importer.Registry{
	importer.SceneImporter{},
	importer.ImageImporter{},
}

// Loom is the assembled asset-loading system: the IAssetLoader and
// IAssetReader contracts spec.md §4 describes, backed by one Service.
type Loom struct {
	svc *service.Service
}

// New constructs a Loom ready to accept requests. Nothing is scheduled
// until RequestLoad is called and Update/GarbageCollect are driven by the
// caller's own loop (spec §5: there is no owned goroutine or timer here).
func New(cfg Config) *Loom {
	importers := cfg.Importers
	if len(importers) == 0 {
		importers = DefaultImporters
	}
	progressRate := cfg.ProgressRate
	if progressRate == 0 {
		progressRate = rate.Inf
	}
	gcRate := cfg.GarbageCollectRate
	if gcRate == 0 {
		gcRate = rate.Inf
	}

	alloc := idalloc.New()
	sched := scheduler.New(cfg.Pool)
	globals := service.NewGlobals(progressRate, gcRate)
	return &Loom{svc: service.New(alloc, sched, importers, globals)}
}

// RequestLoad is IAssetLoader.requestLoad: register a load for the named
// location and return a handle the caller owns. The load does not begin
// until the next Update call drains Requests into Loading.
func (l *Loom) RequestLoad(filename string) handle.AssetHandle {
	return l.svc.RequestLoad(location.LoadRequest{
		Location: location.AssetLocation{Filename: filename},
	})
}

// RequestLoadBytes is IAssetLoader.requestLoadBytes: register a load whose
// source bytes are supplied directly rather than read from disk. filename
// still selects the importer by extension.
func (l *Loom) RequestLoadBytes(filename string, contents []byte) handle.AssetHandle {
	return l.svc.RequestLoad(location.LoadRequest{
		Location: location.AssetLocation{Filename: filename, HasBytes: true},
		Contents: contents,
	})
}

// GetLoadState is IAssetReader.getLoadState: a synchronous, side-effect-free
// lookup of h's current lifecycle step.
func (l *Loom) GetLoadState(h handle.AssetHandle) handle.LoadStep {
	return l.svc.GetLoadState(h)
}

// Material returns the resolved MaterialAsset for a handle whose
// GetLoadState is Succeeded and whose load produced a material, ok==false
// otherwise.
func (l *Loom) Material(h handle.AssetHandle) (asset.MaterialAsset, bool) {
	return l.svc.Material(h)
}

// Mesh returns the resolved MeshAsset for a Succeeded mesh handle.
func (l *Loom) Mesh(h handle.AssetHandle) (asset.MeshAsset, bool) {
	return l.svc.Mesh(h)
}

// Scene returns the resolved SceneAsset for a Succeeded scene handle.
func (l *Loom) Scene(h handle.AssetHandle) (asset.SceneAsset, bool) {
	return l.svc.Scene(h)
}

// Update runs the start_requests and update_progress passes once. A
// caller drives this from its own frame or tick loop; Loom never spawns a
// background goroutine for it (spec §5).
func (l *Loom) Update() {
	l.svc.StartRequests()
	l.svc.UpdateProgress()
}

// GarbageCollect runs the garbage_collect pass once, reclaiming any row
// whose usage tracker has expired since the last call. Gated
// independently of Update by Config.GarbageCollectRate.
func (l *Loom) GarbageCollect() {
	l.svc.GarbageCollect()
}
