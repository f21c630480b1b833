package ocr

import (
	"testing"

	"github.com/wudi/docprep/raster"
)

func TestHandoffStagesPackedPixels(t *testing.T) {
	img, err := raster.NewWithStride(5, 3, 8, raster.Gray8)
	if err != nil {
		t.Fatalf("raster.NewWithStride() error = %v", err)
	}
	for y := 0; y < 3; y++ {
		row := img.Row(y)
		for x := range row {
			row[x] = byte(10*y + x)
		}
	}

	h, err := NewHandoff(img)
	if err != nil {
		t.Fatalf("NewHandoff() error = %v", err)
	}
	defer h.Close()

	if h.Width != 5 || h.Height != 3 || h.Stride != 5 {
		t.Fatalf("geometry = %dx%d stride %d, want 5x3 stride 5", h.Width, h.Height, h.Stride)
	}
	px := h.Pixels().Bytes()
	if len(px) != 15 {
		t.Fatalf("len(pixels) = %d, want 15", len(px))
	}
	// Rows are repacked without the source padding.
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			if got := px[y*5+x]; got != byte(10*y+x) {
				t.Fatalf("pixel (%d,%d) = %d, want %d", x, y, got, 10*y+x)
			}
		}
	}
}

func TestHandoffDetachTransfersOwnership(t *testing.T) {
	img, err := raster.New(4, 4, raster.RGB24)
	if err != nil {
		t.Fatalf("raster.New() error = %v", err)
	}
	h, err := NewHandoff(img)
	if err != nil {
		t.Fatalf("NewHandoff() error = %v", err)
	}
	buf, err := h.Detach()
	if err != nil {
		t.Fatalf("Detach() error = %v", err)
	}
	// The handoff no longer owns the buffer.
	if err := h.Close(); err == nil {
		t.Fatal("Close() after Detach() succeeded")
	}
	if buf.Len() != 4*4*3 {
		t.Fatalf("Len() = %d, want %d", buf.Len(), 4*4*3)
	}
	if err := buf.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
}

func TestHandoffCloseExactlyOnce(t *testing.T) {
	img, err := raster.New(2, 2, raster.Gray8)
	if err != nil {
		t.Fatalf("raster.New() error = %v", err)
	}
	h, err := NewHandoff(img)
	if err != nil {
		t.Fatalf("NewHandoff() error = %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := h.Close(); err == nil {
		t.Fatal("second Close() succeeded")
	}
}
