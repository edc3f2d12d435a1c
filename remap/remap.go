// Package remap deduplicates the mesh and material payloads a composite
// import (a scene) produces in one batch, and hands back a function that
// maps each original mesh index to its canonical MeshIndex. This is
// spec.md §4.3, grounded on
// original_source/dof/loader/src/MeshRemapper.cpp's hash-then-verify merge
// loop.
package remap

import (
	"bytes"
	"hash/maphash"

	"github.com/loom-engine/loom/asset"
	"github.com/loom-engine/loom/diagnostics"
)

// quantizeScale matches original_source's hashRound: floating-point
// coordinates are rounded to three decimal places before hashing, so that
// coordinate noise below that precision does not defeat deduplication. The
// asymmetry is deliberate (spec §4.3): hashing is lossy, equality below is
// not.
const quantizeScale = 1000

func quantize(f float64) int64 {
	scaled := f * quantizeScale
	if scaled < 0 {
		return int64(scaled - 0.5)
	}
	return int64(scaled + 0.5)
}

func hashVec2(h *maphash.Hash, v asset.Vec2) {
	writeInt64(h, quantize(v.X))
	writeInt64(h, quantize(v.Y))
}

func writeInt64(h *maphash.Hash, v int64) {
	var buf [8]byte
	u := uint64(v)
	for i := range buf {
		buf[i] = byte(u >> (8 * i))
	}
	h.Write(buf[:])
}

func hashMaterial(seed maphash.Seed, m *asset.MaterialAsset) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	if m == nil {
		// Matches original_source's pointerHash: a null payload always
		// hashes to zero, deferring to equalMaterial for the real check.
		return 0
	}
	t := m.Texture
	writeInt64(&h, int64(t.Width))
	writeInt64(&h, int64(t.Height))
	h.WriteByte(byte(t.SampleMode))
	h.WriteByte(byte(t.Format))
	h.Write(t.Buffer)
	return h.Sum64()
}

func hashMesh(seed maphash.Seed, m asset.MeshAsset) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	writeInt64(&h, int64(m.MaterialIndex))
	for _, v := range m.Vertices {
		hashVec2(&h, v)
	}
	for _, v := range m.TextureCoords {
		hashVec2(&h, v)
	}
	return h.Sum64()
}

// equalMaterial compares exact (unquantized) values. A null payload
// compares equal only to another null, per spec §4.3's edge case.
func equalMaterial(a, b *asset.MaterialAsset) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := a.Texture, b.Texture
	if ta.Width != tb.Width || ta.Height != tb.Height || ta.SampleMode != tb.SampleMode || ta.Format != tb.Format {
		return false
	}
	return bytes.Equal(ta.Buffer, tb.Buffer)
}

func equalMesh(a, b asset.MeshAsset) bool {
	if a.MaterialIndex != b.MaterialIndex {
		return false
	}
	return equalVec2(a.Vertices, b.Vertices) && equalVec2(a.TextureCoords, b.TextureCoords)
}

func equalVec2(a, b []asset.Vec2) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// dedupe runs the hash-then-verify merge described in spec §4.3: compute
// each element's hash, scan prior canonical elements sharing that hash for
// an exact-equality match (ruling out hash collisions), and append on
// miss. Returns the canonical elements and an original-index -> canonical-
// index map.
func dedupe[T any](elements []T, hashOf func(T) uint64, equal func(a, b T) bool) ([]T, []int) {
	result := make([]T, 0, len(elements))
	hashes := make([]uint64, 0, len(elements))
	indexMap := make([]int, len(elements))

	for i, e := range elements {
		h := hashOf(e)
		match := -1
		for j := range result {
			if hashes[j] == h && equal(result[j], e) {
				match = j
				break
			}
		}
		if match >= 0 {
			indexMap[i] = match
		} else {
			indexMap[i] = len(result)
			result = append(result, e)
			hashes = append(hashes, h)
		}
	}
	return result, indexMap
}

// Remapping is the output of Deduplicate: the canonical mesh and material
// lists, plus the mapping from an original mesh index to its canonical
// MeshIndex.
type Remapping struct {
	Materials []*asset.MaterialAsset
	Meshes    []asset.MeshAsset

	meshIndex []asset.MeshIndex
}

// Remap returns the canonical MeshIndex for an original mesh position. It
// is a programming error to call it with an index outside the range
// Deduplicate was built from.
func (r *Remapping) Remap(originalMeshIndex int) asset.MeshIndex {
	diagnostics.AssertTrue(originalMeshIndex >= 0 && originalMeshIndex < len(r.meshIndex), "mesh index out of range for remapping")
	return r.meshIndex[originalMeshIndex]
}

// Deduplicate merges a single composite load's material and mesh payloads.
// Materials are deduplicated first because a mesh's MaterialIndex is part
// of its own identity and must already be canonical before meshes are
// compared (spec §4.3). Empty inputs return an empty Remapping whose
// Remap is the identity mapping vacuously (there are no valid indices to
// call it with).
func Deduplicate(materials []*asset.MaterialAsset, meshes []asset.MeshAsset) *Remapping {
	seed := maphash.MakeSeed()

	dedupedMaterials, materialMap := dedupe(materials,
		func(m *asset.MaterialAsset) uint64 { return hashMaterial(seed, m) },
		equalMaterial,
	)

	canonicalMeshes := make([]asset.MeshAsset, len(meshes))
	for i, m := range meshes {
		canonical := m
		if int(m.MaterialIndex) < len(materialMap) {
			canonical.MaterialIndex = uint32(materialMap[m.MaterialIndex])
		}
		canonicalMeshes[i] = canonical
	}

	dedupedMeshes, meshMap := dedupe(canonicalMeshes,
		func(m asset.MeshAsset) uint64 { return hashMesh(seed, m) },
		equalMesh,
	)

	meshIndex := make([]asset.MeshIndex, len(meshMap))
	for i, canonicalIdx := range meshMap {
		meshIndex[i] = asset.MeshIndex{Index: uint32(canonicalIdx)}
	}

	return &Remapping{
		Materials: dedupedMaterials,
		Meshes:    dedupedMeshes,
		meshIndex: meshIndex,
	}
}
