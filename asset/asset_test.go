package asset

import "testing"

func TestGuessSampleMode(t *testing.T) {
	cases := []struct {
		w, h int
		want TextureSampleMode
	}{
		{1, 1, SnapToNearest},
		{128, 128, SnapToNearest},
		{129, 128, LinearInterpolation},
		{256, 256, LinearInterpolation},
	}
	for _, c := range cases {
		if got := GuessSampleMode(c.w, c.h); got != c.want {
			t.Errorf("GuessSampleMode(%d, %d) = %v, want %v", c.w, c.h, got, c.want)
		}
	}
}

func TestMeshIndexUnset(t *testing.T) {
	if UnsetMeshIndex.IsSet() {
		t.Fatal("UnsetMeshIndex.IsSet() = true, want false")
	}
	set := MeshIndex{Index: 3}
	if !set.IsSet() {
		t.Fatal("MeshIndex{3}.IsSet() = false, want true")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name           string
		v              Variant
		wantKind       Kind
		wantFailure    bool
		wantDestination bool
	}{
		{"initial empty", nil, KindEmpty, true, false},
		{"load failure", LoadFailure{}, KindFailure, true, false},
		{"empty asset", EmptyAsset{}, KindEmptyAsset, false, false},
		{"material", MaterialAsset{}, KindMaterial, false, true},
		{"mesh", MeshAsset{}, KindMesh, false, true},
		{"scene", SceneAsset{}, KindScene, false, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ops := Classify(c.v)
			if ops.Kind != c.wantKind {
				t.Errorf("Kind = %v, want %v", ops.Kind, c.wantKind)
			}
			if ops.IsFailure != c.wantFailure {
				t.Errorf("IsFailure = %v, want %v", ops.IsFailure, c.wantFailure)
			}
			if ops.HasDestination != c.wantDestination {
				t.Errorf("HasDestination = %v, want %v", ops.HasDestination, c.wantDestination)
			}
		})
	}
}

func TestClassifyUnknownVariantIsFailure(t *testing.T) {
	ops := Classify(42)
	if !ops.IsFailure || ops.HasDestination {
		t.Fatalf("Classify(unknown) = %+v, want a failure with no destination", ops)
	}
}
