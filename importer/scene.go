package importer

import (
	"os"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/loom-engine/loom/asset"
	"github.com/loom-engine/loom/handle"
	"github.com/loom-engine/loom/location"
	"github.com/loom-engine/loom/remap"
	"github.com/loom-engine/loom/task"
)

// sceneDocument is the on-disk scene format this module defines in place
// of original_source's Assimp-parsed model files (Assimp is not part of
// this module's dependency surface -- see DESIGN.md). It names material
// sources by filename and carries mesh data inline, since nothing in
// SPEC_FULL.md requires meshes themselves to come from a separate file.
type sceneDocument struct {
	Materials []materialSource `yaml:"materials"`
	Meshes    []meshRecord     `yaml:"meshes"`
}

type materialSource struct {
	Filename string `yaml:"filename"`
}

type meshRecord struct {
	MaterialIndex uint32    `yaml:"material_index"`
	Vertices      []vec2Doc `yaml:"vertices"`
	TextureCoords []vec2Doc `yaml:"texture_coords"`
}

type vec2Doc struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (v vec2Doc) toVec2() asset.Vec2 { return asset.Vec2{X: v.X, Y: v.Y} }

func toVec2s(docs []vec2Doc) []asset.Vec2 {
	out := make([]asset.Vec2, len(docs))
	for i, d := range docs {
		out[i] = d.toVec2()
	}
	return out
}

// SceneImporter parses a YAML scene document, decodes the materials it
// references concurrently, deduplicates the resulting materials and
// meshes (package remap), and publishes a SceneAsset whose Meshes and
// Materials arrays name the canonical rows.
//
// Grounded on original_source/dof/loader/src/AssimpImporter.h for the
// shape of the job (load referenced sources, build a scene graph, hand the
// result to the remapper) and on spec §4.4's sub-await description ("scene
// needs meshes resolved so it can dedup them").
type SceneImporter struct{}

var _ Importer = SceneImporter{}

func (SceneImporter) SupportsExtension(ext string) bool {
	switch ext {
	case "scene", "yaml", "yml":
		return true
	default:
		return false
	}
}

func (si SceneImporter) Load(t *task.AssetLoadTask, req location.LoadRequest, ctx *Context) {
	data := req.Contents
	if len(data) == 0 {
		read, err := os.ReadFile(req.Location.Filename)
		if err != nil {
			t.Asset = asset.LoadFailure{}
			return
		}
		data = read
	}

	var doc sceneDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Asset = asset.LoadFailure{}
		return
	}

	loaded, locIndex := si.loadMaterials(doc.Materials)

	materials := make([]*asset.MaterialAsset, len(doc.Materials))
	for i := range doc.Materials {
		switch m := loaded[locIndex[i]].(type) {
		case asset.MaterialAsset:
			materials[i] = &m
		case asset.EmptyAsset:
			// A material deliberately produced no texture -- a real null
			// payload, not a failure (remap.Deduplicate's equalMaterial
			// treats it accordingly).
		default:
			// LoadFailure, or a decode that produced nothing at all: matches
			// original_source/dof/loader/src/MaterialImporter.cpp, where a
			// failed decode leaves the variant std::monostate and
			// getAssetOperations classifies it as isFailure, failing the
			// whole chain rather than silently publishing an empty material.
			t.Asset = asset.LoadFailure{}
			return
		}
	}

	meshes := make([]asset.MeshAsset, len(doc.Meshes))
	for i, rec := range doc.Meshes {
		meshes[i] = asset.MeshAsset{
			MaterialIndex: rec.MaterialIndex,
			Vertices:      toVec2s(rec.Vertices),
			TextureCoords: toVec2s(rec.TextureCoords),
		}
	}

	remapping := remap.Deduplicate(materials, meshes)

	scene := asset.SceneAsset{
		Meshes:    make([]handle.AssetHandle, len(meshes)),
		Materials: make([]handle.AssetHandle, len(remapping.Materials)),
	}

	// Every canonical mesh and material gets exactly one row, minted here
	// by a trivial addTask whose closure just stores the already-computed
	// canonical value -- the real work (loading, deduplicating) already
	// happened synchronously above, in this task. This is what keeps the
	// "asset field written only by its owning task" invariant intact
	// while still producing one Succeeded row per canonical element
	// rather than one per raw document entry (spec S3).
	meshRows := make([]*task.AssetLoadTask, len(remapping.Meshes))
	for i, canonical := range remapping.Meshes {
		canonical := canonical
		meshRows[i] = t.AddTask(ctx.Scheduler, ctx.Alloc, func(c *task.AssetLoadTask) {
			c.Asset = canonical
		})
	}
	materialRows := make([]*task.AssetLoadTask, len(remapping.Materials))
	for i, canonical := range remapping.Materials {
		canonical := canonical
		materialRows[i] = t.AddTask(ctx.Scheduler, ctx.Alloc, func(c *task.AssetLoadTask) {
			if canonical == nil {
				// A real (empty) material row rather than asset.EmptyAsset:
				// scene.Materials[i] below must name a live Succeeded row,
				// and EmptyAsset has no destination -- publishChild would
				// release this reserved id back to the allocator, leaving
				// the scene holding a handle to an id that could be
				// reassigned to an unrelated asset.
				c.Asset = asset.MaterialAsset{}
				return
			}
			c.Asset = *canonical
		})
	}

	// Every stored handle acquires its own strong reference: a pending
	// handle's tracker starts with zero (NewPendingTracker), so without this
	// the scene's mesh/material rows would already be Expired by the time
	// the first garbage_collect pass runs, even while the scene itself is
	// still held (spec §4.1, "a scene's handles keep its meshes alive").
	for i := range meshes {
		scene.Meshes[i] = meshRows[remapping.Remap(i).Index].Self.Clone()
	}
	for i, row := range materialRows {
		scene.Materials[i] = row.Self.Clone()
	}

	t.Asset = scene
}

// loadMaterials decodes every unique material file a scene document
// references, concurrently, and returns the decoded results plus a map
// from each document entry's index to its position in that result slice
// (duplicate filenames share one decode). This is the "start several
// concurrent sub-loads" step spec §4.4 describes, and the one place in
// this module where golang.org/x/sync/errgroup earns its keep: unlike
// task.AddTask (whose job is minting a table row, not running work off
// the scheduler pool), nothing here needs a reserved identifier or a
// Succeeded-row destination until after decoding and deduplication have
// already picked the canonical set.
func (si SceneImporter) loadMaterials(sources []materialSource) ([]asset.Variant, []int) {
	images := ImageImporter{}

	locations := make([]location.AssetLocation, 0, len(sources))
	locIndex := make([]int, len(sources))
	seen := make(map[location.AssetLocation]int, len(sources))
	for i, src := range sources {
		loc := location.AssetLocation{Filename: src.Filename}
		idx, ok := seen[loc]
		if !ok {
			idx = len(locations)
			seen[loc] = idx
			locations = append(locations, loc)
		}
		locIndex[i] = idx
	}

	results := make([]asset.Variant, len(locations))
	var g errgroup.Group
	for i, loc := range locations {
		i, loc := i, loc
		g.Go(func() error {
			results[i] = images.decode(location.LoadRequest{Location: loc})
			return nil
		})
	}
	g.Wait()

	return results, locIndex
}
