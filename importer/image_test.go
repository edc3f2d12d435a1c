package importer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/loom-engine/loom/asset"
	"github.com/loom-engine/loom/handle"
	"github.com/loom-engine/loom/idalloc"
	"github.com/loom-engine/loom/location"
	"github.com/loom-engine/loom/task"
)

// gradientPNG renders a deterministic w x h PNG buffer, walking a fixed
// HSV sweep so the fixture never depends on an external asset file.
func gradientPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			hue := 360 * float64(x+y*w) / float64(w*h)
			c := colorful.Hsv(hue, 0.6, 0.9)
			r, g, b := c.RGB255()
			img.Set(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func newTask(alloc *idalloc.Allocator) *task.AssetLoadTask {
	return task.New(handle.New(alloc.Alloc(), handle.NewUsageTracker()))
}

func TestImageImporterSupportsExtension(t *testing.T) {
	im := ImageImporter{}
	for _, ext := range []string{"png", "jpg", "jpeg"} {
		if !im.SupportsExtension(ext) {
			t.Errorf("SupportsExtension(%q) = false, want true", ext)
		}
	}
	for _, ext := range []string{"bmp", "tga", "scene", ""} {
		if im.SupportsExtension(ext) {
			t.Errorf("SupportsExtension(%q) = true, want false", ext)
		}
	}
}

func TestImageImporterDecodesSmallPNGAsSnapToNearest(t *testing.T) {
	alloc := idalloc.New()
	data := gradientPNG(t, 8, 8) // 64 texels, under the 128*128 guess threshold
	tk := newTask(alloc)

	ImageImporter{}.Load(tk, location.LoadRequest{
		Location: location.AssetLocation{Filename: "gradient.png", HasBytes: true},
		Contents: data,
	}, nil)

	mat, ok := tk.Asset.(asset.MaterialAsset)
	if !ok {
		t.Fatalf("tk.Asset = %#v, want asset.MaterialAsset", tk.Asset)
	}
	if mat.Texture.Width != 8 || mat.Texture.Height != 8 {
		t.Fatalf("decoded size = %dx%d, want 8x8", mat.Texture.Width, mat.Texture.Height)
	}
	if mat.Texture.SampleMode != asset.SnapToNearest {
		t.Fatalf("SampleMode = %v, want SnapToNearest", mat.Texture.SampleMode)
	}
	if len(mat.Texture.Buffer) != 8*8*4 {
		t.Fatalf("len(Buffer) = %d, want %d", len(mat.Texture.Buffer), 8*8*4)
	}
}

func TestImageImporterDecodesLargePNGAsLinear(t *testing.T) {
	alloc := idalloc.New()
	data := gradientPNG(t, 200, 100) // 20000 texels, over the 128*128 threshold
	tk := newTask(alloc)

	ImageImporter{}.Load(tk, location.LoadRequest{
		Contents: data,
		Location: location.AssetLocation{Filename: "big.png", HasBytes: true},
	}, nil)

	mat, ok := tk.Asset.(asset.MaterialAsset)
	if !ok {
		t.Fatalf("tk.Asset = %#v, want asset.MaterialAsset", tk.Asset)
	}
	if mat.Texture.SampleMode != asset.LinearInterpolation {
		t.Fatalf("SampleMode = %v, want LinearInterpolation", mat.Texture.SampleMode)
	}
}

func TestImageImporterExplicitSampleModeOverridesGuess(t *testing.T) {
	alloc := idalloc.New()
	data := gradientPNG(t, 200, 100)
	tk := newTask(alloc)

	ImageImporter{SampleMode: SampleSnapToNearest}.Load(tk, location.LoadRequest{
		Contents: data,
		Location: location.AssetLocation{Filename: "big.png", HasBytes: true},
	}, nil)

	mat := tk.Asset.(asset.MaterialAsset)
	if mat.Texture.SampleMode != asset.SnapToNearest {
		t.Fatalf("SampleMode = %v, want explicit SnapToNearest override", mat.Texture.SampleMode)
	}
}

func TestImageImporterCorruptDataIsFailure(t *testing.T) {
	alloc := idalloc.New()
	tk := newTask(alloc)

	ImageImporter{}.Load(tk, location.LoadRequest{
		Contents: []byte("not a real image"),
		Location: location.AssetLocation{Filename: "broken.png", HasBytes: true},
	}, nil)

	if _, ok := tk.Asset.(asset.LoadFailure); !ok {
		t.Fatalf("tk.Asset = %#v, want asset.LoadFailure", tk.Asset)
	}
}

func TestImageImporterMissingFileIsFailure(t *testing.T) {
	alloc := idalloc.New()
	tk := newTask(alloc)

	ImageImporter{}.Load(tk, location.LoadRequest{
		Location: location.AssetLocation{Filename: "/nonexistent/path/does-not-exist.png"},
	}, nil)

	if _, ok := tk.Asset.(asset.LoadFailure); !ok {
		t.Fatalf("tk.Asset = %#v, want asset.LoadFailure", tk.Asset)
	}
}

func TestMaterialFromRawEmptyBufferLeavesVariantUntouched(t *testing.T) {
	v := MaterialFromRaw(RawMaterial{})
	if v != nil {
		t.Fatalf("MaterialFromRaw({}) = %#v, want nil", v)
	}
}
