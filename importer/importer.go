// Package importer implements the IAssetImporter contract spec.md §6
// names: given a LoadRequest, produce the asset.Variant an AssetLoadTask
// should carry. Two importers are provided: an image-backed MaterialAsset
// importer and a YAML-backed scene importer that fans out sub-loads for
// the materials it references.
//
// Grounded on original_source/dof/loader/src/IAssetImporter.h,
// MaterialImporter.h/.cpp, and AssimpImporter.h (the composite importer
// whose job the scene importer here replaces, since Assimp itself is not
// part of this module's dependency surface — see DESIGN.md).
package importer

import (
	"path/filepath"
	"strings"

	"github.com/loom-engine/loom/idalloc"
	"github.com/loom-engine/loom/location"
	"github.com/loom-engine/loom/scheduler"
	"github.com/loom-engine/loom/task"
)

// Importer resolves a LoadRequest whose AssetLocation extension it claims
// to support, writing the result to t.Asset. Matching original_source's
// isSupportedExtension/loadAsset pair, with the C++ out-parameter
// `AssetVariant&` translated to Go's "write into the task you were given"
// convention.
type Importer interface {
	// SupportsExtension reports whether this importer can handle a
	// filename extension (without the leading dot, case-insensitive).
	SupportsExtension(ext string) bool
	// Load resolves req and writes the result into t.Asset. A composite
	// importer may call t.AddTask to spawn sub-loads and t.AwaitChildren
	// to block on them before writing its own result.
	Load(t *task.AssetLoadTask, req location.LoadRequest, ctx *Context)
}

// Context carries what a composite importer needs to spawn and await
// sub-loads: the scheduler work is submitted to, and the allocator new
// pending handles are reserved from. A leaf importer (the image importer)
// never uses it.
type Context struct {
	Scheduler *scheduler.Scheduler
	Alloc     *idalloc.Allocator
}

// Registry is an ordered list of importers, consulted first-match. A
// format-specific importer (the scene importer) is expected to sit ahead
// of a more general one in the list it is built from, though none of the
// importers here has overlapping extensions in practice.
type Registry []Importer

// Select returns the first importer in r that claims ext, or nil if none
// does.
func (r Registry) Select(ext string) Importer {
	for _, imp := range r {
		if imp.SupportsExtension(ext) {
			return imp
		}
	}
	return nil
}

// Extension returns filename's extension without the leading dot,
// lower-cased, matching the case-insensitive extension switch in
// MaterialImporter.cpp's isSupportedExtension. Exported so package
// service can compute the same key it uses to call Registry.Select.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
