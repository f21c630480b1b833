package tesseract

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"os/exec"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/wudi/docprep/ocr"
	"github.com/wudi/docprep/raster"
)

// ensureTesseractAvailable checks that the tesseract binary is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func TestEngineRecognize(t *testing.T) {
	ensureTesseractAvailable(t)

	src := image.NewRGBA(image.Rect(0, 0, 240, 80))
	draw.Draw(src, src.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  src,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 50),
	}
	d.DrawString("Hello Scan")

	img, err := raster.FromImage(src)
	if err != nil {
		t.Fatalf("raster.FromImage() error = %v", err)
	}

	results, err := ocr.RecognizeRasters(context.Background(), New(), []*raster.Image{img},
		ocr.WithLanguages("eng"), ocr.WithDPI(300))
	if err != nil {
		t.Fatalf("RecognizeRasters() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	res := results[0]
	got := strings.ToLower(res.PlainText)
	if !strings.Contains(got, "hello") || !strings.Contains(got, "scan") {
		t.Fatalf("unexpected OCR output: %q", res.PlainText)
	}
	if len(res.Blocks) == 0 || len(res.Blocks[0].Lines) == 0 {
		t.Fatal("expected structured blocks")
	}
	if res.InputID != "image-0" {
		t.Fatalf("unexpected input id: %s", res.InputID)
	}
}

func TestEngineInstalledAsDefault(t *testing.T) {
	if ocr.DefaultEngine().Name() != "tesseract" {
		t.Fatalf("default engine = %q, want tesseract", ocr.DefaultEngine().Name())
	}
}
