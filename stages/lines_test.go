package stages

import (
	"strings"
	"testing"
)

func TestLineEnhancementThickensRuledLine(t *testing.T) {
	img := uniformGray(t, 50, 50, 255)
	for x := 0; x < 50; x++ {
		img.Row(25)[x] = 0
	}

	st := NewLineEnhancement(LineOptions{Enabled: true, Thickness: 3, MinRunLength: 20})
	out, err := st.Apply(img)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	// A 3px band centered on the original line.
	for _, y := range []int{24, 25, 26} {
		for x := 0; x < 50; x++ {
			if got := out.Row(y)[x]; got != 0 {
				t.Fatalf("pixel (%d, %d) = %d, want 0 (band)", x, y, got)
			}
		}
	}
	// Everything else untouched.
	for _, y := range []int{0, 23, 27, 49} {
		for x := 0; x < 50; x++ {
			if got := out.Row(y)[x]; got != 255 {
				t.Fatalf("pixel (%d, %d) = %d, want 255", x, y, got)
			}
		}
	}
}

func TestLineEnhancementLeavesTextBlobsAlone(t *testing.T) {
	img := uniformGray(t, 50, 50, 255)
	// Glyph-sized blob: short runs in both axes.
	for y := 20; y < 25; y++ {
		row := img.Row(y)
		for x := 20; x < 25; x++ {
			row[x] = 0
		}
	}
	want := img.Clone()

	st := NewLineEnhancement(LineOptions{Enabled: true, Thickness: 3, MinRunLength: 20})
	out, err := st.Apply(img)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !pixelsEqual(t, out, want) {
		t.Fatal("blob region was modified")
	}
}

func TestLineEnhancementRejectsBadThickness(t *testing.T) {
	img := uniformGray(t, 8, 8, 255)
	for _, thickness := range []int{0, 10} {
		st := NewLineEnhancement(LineOptions{Enabled: true, Thickness: thickness})
		if _, err := st.Apply(img); err == nil || !strings.Contains(err.Error(), "thickness") {
			t.Fatalf("thickness %d: error = %v, want thickness error", thickness, err)
		}
	}
}
