package ocr

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/wudi/docprep/raster"
)

func testRaster(t *testing.T, w, h int) *raster.Image {
	t.Helper()
	img, err := raster.New(w, h, raster.Gray8)
	if err != nil {
		t.Fatalf("raster.New() error = %v", err)
	}
	for y := 0; y < h; y++ {
		row := img.Row(y)
		for x := range row {
			row[x] = byte((x + y) % 251)
		}
	}
	return img
}

func TestInputFromRaster(t *testing.T) {
	img := testRaster(t, 40, 30)
	in, err := InputFromRaster("page-7", img)
	if err != nil {
		t.Fatalf("InputFromRaster() error = %v", err)
	}
	if in.ID != "page-7" {
		t.Fatalf("ID = %q, want %q", in.ID, "page-7")
	}
	if in.Format != ImageFormatPNG {
		t.Fatalf("Format = %q, want %q", in.Format, ImageFormatPNG)
	}
	decoded, err := png.Decode(bytes.NewReader(in.Image))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	b := decoded.Bounds()
	if b.Dx() != 40 || b.Dy() != 30 {
		t.Fatalf("decoded size = %dx%d, want 40x30", b.Dx(), b.Dy())
	}
}

func TestInputFromRasterRejectsInvalid(t *testing.T) {
	if _, err := InputFromRaster("x", nil); err == nil {
		t.Fatal("InputFromRaster(nil) succeeded")
	}
	if _, err := InputFromRaster("x", &raster.Image{}); err == nil {
		t.Fatal("InputFromRaster() on zero image succeeded")
	}
}

func TestInputOptions(t *testing.T) {
	img := testRaster(t, 8, 8)
	meta := map[string]string{"tessedit_pageseg_mode": "6"}
	in, err := InputFromRaster("p", img,
		WithLanguages("eng", "deu"),
		WithDPI(300),
		WithRegion(Region{X: 1, Y: 2, Width: 4, Height: 3}),
		WithMetadata(meta),
	)
	if err != nil {
		t.Fatalf("InputFromRaster() error = %v", err)
	}
	if len(in.Languages) != 2 || in.Languages[0] != "eng" || in.Languages[1] != "deu" {
		t.Fatalf("Languages = %v", in.Languages)
	}
	if in.DPI != 300 {
		t.Fatalf("DPI = %d, want 300", in.DPI)
	}
	if in.Region == nil || in.Region.Width != 4 {
		t.Fatalf("Region = %+v", in.Region)
	}

	// The metadata map is copied, not aliased.
	meta["tessedit_pageseg_mode"] = "3"
	if in.Metadata["tessedit_pageseg_mode"] != "6" {
		t.Fatalf("Metadata aliased caller map: %v", in.Metadata)
	}
}

func TestWithRegionEmptyClears(t *testing.T) {
	in := Input{Region: &Region{Width: 10, Height: 10}}
	WithRegion(Region{})(&in)
	if in.Region != nil {
		t.Fatalf("Region = %+v, want nil", in.Region)
	}
}

func TestWithMetadataEmptyClears(t *testing.T) {
	in := Input{Metadata: map[string]string{"k": "v"}}
	WithMetadata(nil)(&in)
	if in.Metadata != nil {
		t.Fatalf("Metadata = %v, want nil", in.Metadata)
	}
}
