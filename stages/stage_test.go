package stages

import (
	"errors"
	"testing"

	"github.com/wudi/docprep/raster"
)

// uniformGray builds a w x h Gray8 image filled with v.
func uniformGray(t *testing.T, w, h int, v uint8) *raster.Image {
	t.Helper()
	img, err := raster.New(w, h, raster.Gray8)
	if err != nil {
		t.Fatalf("raster.New(%d, %d) error = %v", w, h, err)
	}
	for y := 0; y < h; y++ {
		row := img.Row(y)
		for x := range row {
			row[x] = v
		}
	}
	return img
}

func pixelsEqual(t *testing.T, a, b *raster.Image) bool {
	t.Helper()
	if a.Width != b.Width || a.Height != b.Height || a.Format != b.Format {
		return false
	}
	bpp := a.Format.BytesPerPixel()
	for y := 0; y < a.Height; y++ {
		ra, rb := a.Row(y), b.Row(y)
		for i := 0; i < a.Width*bpp; i++ {
			if ra[i] != rb[i] {
				return false
			}
		}
	}
	return true
}

func allStages() []Stage {
	return []Stage{
		NewBackgroundWhitening(DefaultWhitenOptions()),
		NewContrastAdjustment(DefaultContrastOptions()),
		NewLineEnhancement(DefaultLineOptions()),
		NewTextEnhancement(DefaultTextOptions()),
		NewNoiseRemoval(DefaultNoiseOptions()),
		NewSkewCorrection(DefaultSkewOptions()),
		NewIlluminationCorrection(DefaultIlluminationOptions()),
	}
}

func TestStagesRejectDegenerateImage(t *testing.T) {
	empty := &raster.Image{Width: 0, Height: 0, Format: raster.Gray8}
	for _, st := range allStages() {
		if _, err := st.Apply(empty); !errors.Is(err, raster.ErrInvalidDimensions) {
			t.Fatalf("%s.Apply(0x0) error = %v, want ErrInvalidDimensions", st.Name(), err)
		}
		if _, err := st.Apply(nil); !errors.Is(err, raster.ErrInvalidDimensions) {
			t.Fatalf("%s.Apply(nil) error = %v, want ErrInvalidDimensions", st.Name(), err)
		}
	}
}

func TestDisabledStagesAreIdentity(t *testing.T) {
	img := uniformGray(t, 32, 32, 90)
	img.Row(10)[5] = 3

	disabled := []Stage{
		NewBackgroundWhitening(WhitenOptions{}),
		NewContrastAdjustment(ContrastOptions{}),
		NewLineEnhancement(LineOptions{}),
		NewTextEnhancement(TextOptions{}),
		NewNoiseRemoval(NoiseOptions{}),
		NewSkewCorrection(SkewOptions{}),
		NewIlluminationCorrection(IlluminationOptions{}),
	}
	for _, st := range disabled {
		if st.Enabled() {
			t.Fatalf("%s: zero options report enabled", st.Name())
		}
		out, err := st.Apply(img)
		if err != nil {
			t.Fatalf("%s.Apply() error = %v", st.Name(), err)
		}
		if !pixelsEqual(t, img, out) {
			t.Fatalf("%s: disabled stage altered pixels", st.Name())
		}
		if &out.Pix[0] == &img.Pix[0] {
			t.Fatalf("%s: disabled stage aliased input buffer", st.Name())
		}
	}
}

func TestStagesNeverMutateInput(t *testing.T) {
	img := uniformGray(t, 64, 64, 180)
	img.Row(32)[10] = 20
	want := img.Clone()

	for _, st := range allStages() {
		if _, err := st.Apply(img); err != nil {
			t.Fatalf("%s.Apply() error = %v", st.Name(), err)
		}
		if !pixelsEqual(t, img, want) {
			t.Fatalf("%s mutated its input", st.Name())
		}
	}
}

func TestStagesPreserveDimensions(t *testing.T) {
	img := uniformGray(t, 40, 30, 200)
	for _, st := range allStages() {
		out, err := st.Apply(img)
		if err != nil {
			t.Fatalf("%s.Apply() error = %v", st.Name(), err)
		}
		if out.Width != img.Width || out.Height != img.Height {
			t.Fatalf("%s changed dimensions: %dx%d, want %dx%d",
				st.Name(), out.Width, out.Height, img.Width, img.Height)
		}
	}
}
