// Package asset defines the payload types an AssetLoadTask resolves to —
// the AssetVariant tagged union and its per-variant AssetOperations
// classification — plus the concrete typed results (TextureAsset,
// MaterialAsset, MeshAsset, MeshIndex, SceneAsset) spec.md §3 and §6 name.
//
// original_source models the union as std::variant<...> with a
// getAssetOperations visitor returning a destination row and a StoreFN.
// Go has no closed sum type, so the union is an `any` (documented to hold
// only the listed concrete types) classified by a type switch; the StoreFN
// indirection collapses into Classify returning enough information for the
// caller (package service) to do the move itself with table.Migrate.
package asset

import "github.com/loom-engine/loom/handle"

// LoadFailure marks a chain member whose importer could not produce a
// result. A LoadFailure anywhere in a chain fails the whole chain.
type LoadFailure struct{}

// EmptyAsset marks a chain member that deliberately produced no typed
// output — e.g. a material with no texture. Unlike LoadFailure this is not
// an error: the member is simply skipped when results are published.
type EmptyAsset struct{}

// TextureSampleMode selects how a renderer should filter a texture when it
// is scaled.
type TextureSampleMode uint8

const (
	SnapToNearest TextureSampleMode = iota
	LinearInterpolation
)

// sampleGuessThreshold is the only magic constant in the texture path
// (spec §6): textures at or under this many texels default to nearest
// sampling, on the assumption that anything larger is meant to be
// minified smoothly. Traced to
// original_source/dof/loader/src/MaterialImporter.cpp's
// MaterialImportSampleMode::GuessFromSize.
const sampleGuessThreshold = 128 * 128

// GuessSampleMode picks a default TextureSampleMode from a texture's raw
// dimensions, for importers that have no explicit mode hint to go on.
func GuessSampleMode(width, height int) TextureSampleMode {
	if width*height <= sampleGuessThreshold {
		return SnapToNearest
	}
	return LinearInterpolation
}

// TextureFormat identifies the pixel layout of a TextureAsset's buffer.
type TextureFormat uint8

const (
	RGBA8 TextureFormat = iota
)

// TextureAsset is raw decoded pixel data plus the metadata a renderer needs
// to upload it.
type TextureAsset struct {
	Width      int
	Height     int
	SampleMode TextureSampleMode
	Format     TextureFormat
	Buffer     []byte
}

// MaterialAsset is the result of importing a material source. Scope is
// deliberately narrow (a single texture) to match
// original_source/dof/loader/include/loader/MaterialAsset.h. A scene that
// references a texture-less material (one whose import produced
// EmptyAsset) publishes it as a MaterialAsset with a zero TextureAsset, so
// the scene's handle names a live row (see importer.SceneImporter).
type MaterialAsset struct {
	Texture TextureAsset
}

// meshIndexSentinel marks an unset MeshIndex, mirroring
// original_source/dof/loader/include/loader/MeshAsset.h's
// `uint32_t index = numeric_limits<uint32_t>::max()`.
const meshIndexSentinel = ^uint32(0)

// MeshIndex is a lightweight reference to a mesh within a scene's resolved
// mesh list. It is not the original's compound (vertex/uv/material-index)
// identity — spec §6 names it as a bare sentinel-typed index, and the
// compound identity used for deduplication lives in MeshAsset itself.
type MeshIndex struct {
	Index uint32
}

// UnsetMeshIndex is the zero-value-equivalent "no mesh" reference.
var UnsetMeshIndex = MeshIndex{Index: meshIndexSentinel}

// IsSet reports whether m names an actual mesh slot.
func (m MeshIndex) IsSet() bool {
	return m.Index != meshIndexSentinel
}

// MeshAsset is the result of importing one mesh record: a parallel
// vertex/texture-coordinate buffer plus the index of the material it uses
// within the containing scene's (already deduplicated) material list.
type MeshAsset struct {
	MaterialIndex uint32
	Vertices      []Vec2
	TextureCoords []Vec2
}

// Vec2 is a 2D point or texture coordinate. A plain struct rather than an
// array so mesh equality (package remap) can compare by value directly.
type Vec2 struct {
	X, Y float64
}

// SceneAsset is the result of importing a composite scene source: the
// resolved handles of the scene's meshes and materials. Meshes has one
// entry per mesh record, in the order the scene document lists them;
// Materials has one entry per canonical (deduplicated) material (spec's S3:
// "the scene's resolved mesh-handle array has length 2 and both entries
// equal that row's identifier" — duplicate records point at the same handle
// once the remapper has run).
type SceneAsset struct {
	Meshes    []handle.AssetHandle
	Materials []handle.AssetHandle
}

// Variant is the payload an AssetLoadTask carries, matching spec.md §3's
// AssetVariant. It holds exactly one of: nil (the initial "empty" state,
// distinct from EmptyAsset), LoadFailure, EmptyAsset, MaterialAsset,
// MeshAsset, or SceneAsset. original_source's LoadingSceneAsset (a
// partially-built scene plus ECS-specific RuntimeDatabaseArgs) has no
// counterpart here: the in-memory scene-graph traversal an importer does
// while loading is explicitly out of scope (spec §1 Non-goals), so a scene
// importer only ever writes the finished SceneAsset value once its
// sub-awaits complete, never an intermediate representation.
type Variant any

// Kind distinguishes a classified Variant for dispatch, matching the
// destinationRow selection original_source's getAssetOperations performs.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindFailure
	KindEmptyAsset
	KindMaterial
	KindMesh
	KindScene
)

func (k Kind) String() string {
	switch k {
	case KindFailure:
		return "Failure"
	case KindEmptyAsset:
		return "EmptyAsset"
	case KindMaterial:
		return "Material"
	case KindMesh:
		return "Mesh"
	case KindScene:
		return "Scene"
	default:
		return "Empty"
	}
}

// Operations is what Classify returns: enough information for the caller
// to decide whether a chain member fails its chain and, if not, whether it
// has a Succeeded<T> destination to be migrated into. It replaces
// original_source's function-pointer StoreFN — package service holds the
// concrete Succeeded table and does the typed move itself via
// table.Migrate, so no indirection through a stored callback is needed.
type Operations struct {
	Kind Kind
	// IsFailure mirrors AssetOperations.isFailure: true for the initial
	// empty variant (an importer never ran, or left the field untouched)
	// and for an explicit LoadFailure.
	IsFailure bool
	// HasDestination is false for failures and for EmptyAsset: both are
	// skipped during the move loop in update_progress, per spec §4.2's
	// "EmptyAsset ... no destination (skipped during move)".
	HasDestination bool
}

// Classify resolves v's destination intent, matching
// original_source/dof/loader/src/AssetVariant.cpp's getAssetOperations.
func Classify(v Variant) Operations {
	switch v.(type) {
	case nil:
		return Operations{Kind: KindEmpty, IsFailure: true, HasDestination: false}
	case LoadFailure:
		return Operations{Kind: KindFailure, IsFailure: true, HasDestination: false}
	case EmptyAsset:
		return Operations{Kind: KindEmptyAsset, IsFailure: false, HasDestination: false}
	case MaterialAsset:
		return Operations{Kind: KindMaterial, IsFailure: false, HasDestination: true}
	case MeshAsset:
		return Operations{Kind: KindMesh, IsFailure: false, HasDestination: true}
	case SceneAsset:
		return Operations{Kind: KindScene, IsFailure: false, HasDestination: true}
	default:
		// A variant type outside the closed set above is a programming
		// error (an importer wrote something Classify doesn't know about),
		// not a user-facing failure mode -- but Classify itself never
		// panics: an unknown type is classified as a failure with no
		// destination, so its chain fails.
		return Operations{Kind: KindEmpty, IsFailure: true, HasDestination: false}
	}
}

// SucceededRow is the payload stored in a Succeeded<T> table: the typed
// result plus the handles of any child rows created as part of the same
// load. This is spec §3 table 4's ChildListHead column, supplemented from
// original_source/dof/loader/src/AssetDatabase.cpp's
// Relation::HasChildrenRow (see SPEC_FULL.md §12) — every Succeeded<T>
// table carries it, so it lives on the row wrapper rather than on SceneAsset
// alone.
type SucceededRow[T any] struct {
	Asset    T
	Children []handle.AssetHandle
}
