package raster

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestNewRejectsBadGeometry(t *testing.T) {
	cases := []struct {
		name          string
		width, height int
	}{
		{"zero by zero", 0, 0},
		{"zero width", 0, 10},
		{"zero height", 10, 0},
		{"negative", -1, 10},
		{"oversized axis", maxDimension + 1, 10},
		{"pixel cap", 16384, 8192},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := New(c.width, c.height, Gray8); !errors.Is(err, ErrInvalidDimensions) {
				t.Fatalf("New(%d, %d) error = %v, want ErrInvalidDimensions", c.width, c.height, err)
			}
		})
	}
}

func TestNewWithStrideRejectsShortStride(t *testing.T) {
	if _, err := NewWithStride(10, 10, 29, RGB24); !errors.Is(err, ErrInvalidDimensions) {
		t.Fatalf("stride 29 for rgb24 width 10: error = %v, want ErrInvalidDimensions", err)
	}
}

func TestNewFromBufRejectsShortBuffer(t *testing.T) {
	if _, err := NewFromBuf(make([]byte, 99), 10, 10, 10, Gray8); !errors.Is(err, ErrInvalidDimensions) {
		t.Fatalf("short buffer: error = %v, want ErrInvalidDimensions", err)
	}
}

func TestAccessorsRejectOutOfBounds(t *testing.T) {
	img, err := New(4, 4, Gray8)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, p := range [][2]int{{-1, 0}, {0, -1}, {4, 0}, {0, 4}} {
		if _, err := img.GrayAt(p[0], p[1]); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("GrayAt(%d, %d) error = %v, want ErrOutOfBounds", p[0], p[1], err)
		}
		if err := img.SetGray(p[0], p[1], 1); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("SetGray(%d, %d) error = %v, want ErrOutOfBounds", p[0], p[1], err)
		}
		if _, _, _, err := img.RGBAt(p[0], p[1]); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("RGBAt(%d, %d) error = %v, want ErrOutOfBounds", p[0], p[1], err)
		}
		if err := img.SetRGB(p[0], p[1], 1, 2, 3); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("SetRGB(%d, %d) error = %v, want ErrOutOfBounds", p[0], p[1], err)
		}
	}
}

func TestRGBAccessorsCrossFormat(t *testing.T) {
	rgb, err := New(2, 2, RGB24)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := rgb.SetRGB(1, 1, 10, 20, 30); err != nil {
		t.Fatalf("SetRGB() error = %v", err)
	}
	r, g, b, err := rgb.RGBAt(1, 1)
	if err != nil {
		t.Fatalf("RGBAt() error = %v", err)
	}
	if r != 10 || g != 20 || b != 30 {
		t.Fatalf("RGBAt() = (%d, %d, %d), want (10, 20, 30)", r, g, b)
	}

	gray, err := New(2, 2, Gray8)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	// On a gray plane the triple collapses to luminance.
	if err := gray.SetRGB(0, 0, 255, 0, 0); err != nil {
		t.Fatalf("SetRGB() error = %v", err)
	}
	v, err := gray.GrayAt(0, 0)
	if err != nil {
		t.Fatalf("GrayAt() error = %v", err)
	}
	if want := Luminance(255, 0, 0); v != want {
		t.Fatalf("GrayAt() = %d, want %d", v, want)
	}
	r, g, b, err = gray.RGBAt(0, 0)
	if err != nil {
		t.Fatalf("RGBAt() error = %v", err)
	}
	if r != v || g != v || b != v {
		t.Fatalf("RGBAt() on gray = (%d, %d, %d), want all %d", r, g, b, v)
	}
}

func TestCloneIsDeep(t *testing.T) {
	img, err := New(2, 2, Gray8)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := img.SetGray(0, 0, 100); err != nil {
		t.Fatalf("SetGray() error = %v", err)
	}
	dup := img.Clone()
	if err := dup.SetGray(0, 0, 200); err != nil {
		t.Fatalf("SetGray() error = %v", err)
	}
	v, err := img.GrayAt(0, 0)
	if err != nil {
		t.Fatalf("GrayAt() error = %v", err)
	}
	if v != 100 {
		t.Fatalf("clone aliased original: got %d, want 100", v)
	}
}

func TestLuminanceMatchesRec601(t *testing.T) {
	cases := []struct {
		r, g, b uint8
		want    uint8
	}{
		{0, 0, 0, 0},
		{255, 255, 255, 255},
		{255, 0, 0, 76},
		{0, 255, 0, 150},
		{0, 0, 255, 29},
		{128, 128, 128, 128},
	}
	for _, c := range cases {
		if got := Luminance(c.r, c.g, c.b); got != c.want {
			t.Fatalf("Luminance(%d, %d, %d) = %d, want %d", c.r, c.g, c.b, got, c.want)
		}
	}
}

func TestGray8Conversion(t *testing.T) {
	img, err := New(2, 1, RGB24)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	row := img.Row(0)
	row[0], row[1], row[2] = 255, 0, 0 // red
	row[3], row[4], row[5] = 10, 10, 10

	g := img.Gray8()
	if g.Format != Gray8 {
		t.Fatalf("Format = %v, want Gray8", g.Format)
	}
	if g.Row(0)[0] != 76 || g.Row(0)[1] != 10 {
		t.Fatalf("Gray8 row = %v, want [76 10]", g.Row(0))
	}
}

func TestFromImageToImageRoundTrip(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 3, 2))
	src.SetGray(1, 1, color.Gray{Y: 77})

	img, err := FromImage(src)
	if err != nil {
		t.Fatalf("FromImage() error = %v", err)
	}
	if img.Format != Gray8 {
		t.Fatalf("Format = %v, want Gray8", img.Format)
	}
	back, ok := img.ToImage().(*image.Gray)
	if !ok {
		t.Fatalf("ToImage() = %T, want *image.Gray", img.ToImage())
	}
	if back.GrayAt(1, 1).Y != 77 {
		t.Fatalf("round trip lost pixel: %d", back.GrayAt(1, 1).Y)
	}
}

func TestSubRowsSharesStorage(t *testing.T) {
	img, err := New(2, 4, Gray8)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	sub, err := img.SubRows(1, 3)
	if err != nil {
		t.Fatalf("SubRows() error = %v", err)
	}
	if sub.Height != 2 {
		t.Fatalf("sub.Height = %d, want 2", sub.Height)
	}
	sub.Row(0)[0] = 9
	v, err := img.GrayAt(0, 1)
	if err != nil {
		t.Fatalf("GrayAt() error = %v", err)
	}
	if v != 9 {
		t.Fatal("SubRows did not alias parent storage")
	}

	if _, err := img.SubRows(3, 3); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("empty range error = %v, want ErrOutOfBounds", err)
	}
	if _, err := img.SubRows(0, 5); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("past end error = %v, want ErrOutOfBounds", err)
	}
}

func TestClampRounds(t *testing.T) {
	cases := []struct {
		in   float64
		want uint8
	}{
		{-3, 0},
		{0.4, 0},
		{0.5, 1},
		{127.5, 128},
		{254.49, 254},
		{300, 255},
	}
	for _, c := range cases {
		if got := Clamp(c.in); got != c.want {
			t.Fatalf("Clamp(%g) = %d, want %d", c.in, got, c.want)
		}
	}
}
