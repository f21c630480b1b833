package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// Format identifies the pixel layout of an Image buffer.
type Format int

const (
	// Gray8 stores one luminance byte per pixel.
	Gray8 Format = iota
	// RGB24 stores three bytes per pixel in R, G, B order with no padding
	// between channels.
	RGB24
)

// BytesPerPixel returns the number of bytes a single pixel occupies.
func (f Format) BytesPerPixel() int {
	if f == RGB24 {
		return 3
	}
	return 1
}

func (f Format) String() string {
	switch f {
	case Gray8:
		return "gray8"
	case RGB24:
		return "rgb24"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

const (
	// maxDimension caps width/height to avoid excessive allocations when a
	// caller passes corrupted geometry.
	maxDimension = 32768
	// maxPixels bounds the total pixel count (roughly 64MP) which keeps
	// RGB buffers under 256 MB and prevents resource exhaustion.
	maxPixels int64 = 64 * 1024 * 1024
)

var (
	// ErrInvalidDimensions reports malformed image geometry: non-positive or
	// oversized width/height, a stride smaller than a pixel row, or a pixel
	// buffer shorter than stride*height.
	ErrInvalidDimensions = errors.New("raster: invalid image dimensions")
	// ErrOutOfBounds reports a pixel access outside the image rectangle.
	// Accesses are never silently clamped.
	ErrOutOfBounds = errors.New("raster: pixel access out of bounds")
)

// Image is a decoded raster owned by the caller. The pixel buffer is laid out
// row-major with Stride bytes per row; rows may carry padding beyond
// Width*BytesPerPixel. Stages never mutate an Image they were handed; they
// allocate a fresh Image for their output.
type Image struct {
	Width  int
	Height int
	Stride int
	Format Format
	// Pix holds the pixel data. Invariant, checked at construction:
	// len(Pix) >= Stride*Height and Stride >= Width*Format.BytesPerPixel().
	Pix []byte
}

// New allocates a zeroed image with a packed stride.
func New(width, height int, format Format) (*Image, error) {
	stride := width * format.BytesPerPixel()
	return NewWithStride(width, height, stride, format)
}

// NewWithStride allocates a zeroed image with an explicit row stride.
func NewWithStride(width, height, stride int, format Format) (*Image, error) {
	if err := validateGeometry(width, height, stride, format); err != nil {
		return nil, err
	}
	return &Image{
		Width:  width,
		Height: height,
		Stride: stride,
		Format: format,
		Pix:    make([]byte, stride*height),
	}, nil
}

// NewFromBuf wraps an existing pixel buffer without copying. The buffer must
// satisfy the length invariant for the given geometry.
func NewFromBuf(pix []byte, width, height, stride int, format Format) (*Image, error) {
	if err := validateGeometry(width, height, stride, format); err != nil {
		return nil, err
	}
	if len(pix) < stride*height {
		return nil, fmt.Errorf("%w: buffer %d bytes, need %d", ErrInvalidDimensions, len(pix), stride*height)
	}
	return &Image{Width: width, Height: height, Stride: stride, Format: format, Pix: pix}, nil
}

func validateGeometry(width, height, stride int, format Format) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %d x %d", ErrInvalidDimensions, width, height)
	}
	if width > maxDimension || height > maxDimension {
		return fmt.Errorf("%w: %d x %d exceeds per-axis limit %d", ErrInvalidDimensions, width, height, maxDimension)
	}
	if int64(width)*int64(height) > maxPixels {
		return fmt.Errorf("%w: %d x %d exceeds pixel limit %d", ErrInvalidDimensions, width, height, maxPixels)
	}
	if stride < width*format.BytesPerPixel() {
		return fmt.Errorf("%w: stride %d < row width %d", ErrInvalidDimensions, stride, width*format.BytesPerPixel())
	}
	return nil
}

// Validate re-checks the construction invariants, for images assembled by hand.
func (m *Image) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidDimensions)
	}
	if err := validateGeometry(m.Width, m.Height, m.Stride, m.Format); err != nil {
		return err
	}
	if len(m.Pix) < m.Stride*m.Height {
		return fmt.Errorf("%w: buffer %d bytes, need %d", ErrInvalidDimensions, len(m.Pix), m.Stride*m.Height)
	}
	return nil
}

// Clone returns a deep copy. The copy shares no pixel storage with the
// original.
func (m *Image) Clone() *Image {
	pix := make([]byte, len(m.Pix))
	copy(pix, m.Pix)
	return &Image{Width: m.Width, Height: m.Height, Stride: m.Stride, Format: m.Format, Pix: pix}
}

// Row returns the pixel bytes of row y without bounds checking beyond the
// construction invariant. Hot loops index rows directly; y must be in
// [0, Height).
func (m *Image) Row(y int) []byte {
	off := y * m.Stride
	return m.Pix[off : off+m.Width*m.Format.BytesPerPixel()]
}

// GrayAt returns the luminance of pixel (x, y). RGB pixels are reduced with
// the Rec. 601 weights.
func (m *Image) GrayAt(x, y int) (uint8, error) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0, fmt.Errorf("%w: (%d, %d) in %d x %d", ErrOutOfBounds, x, y, m.Width, m.Height)
	}
	if m.Format == Gray8 {
		return m.Pix[y*m.Stride+x], nil
	}
	i := y*m.Stride + x*3
	return Luminance(m.Pix[i], m.Pix[i+1], m.Pix[i+2]), nil
}

// SetGray writes a luminance value at (x, y). On an RGB24 image all three
// channels receive the value.
func (m *Image) SetGray(x, y int, v uint8) error {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return fmt.Errorf("%w: (%d, %d) in %d x %d", ErrOutOfBounds, x, y, m.Width, m.Height)
	}
	if m.Format == Gray8 {
		m.Pix[y*m.Stride+x] = v
		return nil
	}
	i := y*m.Stride + x*3
	m.Pix[i], m.Pix[i+1], m.Pix[i+2] = v, v, v
	return nil
}

// RGBAt returns the channel values of pixel (x, y). A Gray8 pixel reports its
// value on all three channels.
func (m *Image) RGBAt(x, y int) (r, g, b uint8, err error) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0, 0, 0, fmt.Errorf("%w: (%d, %d) in %d x %d", ErrOutOfBounds, x, y, m.Width, m.Height)
	}
	if m.Format == Gray8 {
		v := m.Pix[y*m.Stride+x]
		return v, v, v, nil
	}
	i := y*m.Stride + x*3
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2], nil
}

// SetRGB writes channel values at (x, y). On a Gray8 image the triple is
// reduced to luminance first.
func (m *Image) SetRGB(x, y int, r, g, b uint8) error {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return fmt.Errorf("%w: (%d, %d) in %d x %d", ErrOutOfBounds, x, y, m.Width, m.Height)
	}
	if m.Format == Gray8 {
		m.Pix[y*m.Stride+x] = Luminance(r, g, b)
		return nil
	}
	i := y*m.Stride + x*3
	m.Pix[i], m.Pix[i+1], m.Pix[i+2] = r, g, b
	return nil
}

// Luminance reduces an RGB triple to a single gray value using the integer
// form of the Rec. 601 weights (0.299, 0.587, 0.114). The fixed-point variant
// avoids a float round-trip per pixel.
func Luminance(r, g, b uint8) uint8 {
	r16 := uint32(r)
	r16 |= r16 << 8
	g16 := uint32(g)
	g16 |= g16 << 8
	b16 := uint32(b)
	b16 |= b16 << 8
	return uint8((19595*r16 + 38470*g16 + 7471*b16 + 1<<15) >> 24)
}

// Gray8 returns the image reduced to single-channel luminance. A Gray8 input
// is deep-copied unchanged.
func (m *Image) Gray8() *Image {
	if m.Format == Gray8 {
		return m.Clone()
	}
	out := &Image{Width: m.Width, Height: m.Height, Stride: m.Width, Format: Gray8, Pix: make([]byte, m.Width*m.Height)}
	for y := 0; y < m.Height; y++ {
		src := m.Row(y)
		dst := out.Row(y)
		for x := 0; x < m.Width; x++ {
			i := x * 3
			dst[x] = Luminance(src[i], src[i+1], src[i+2])
		}
	}
	return out
}

// FromImage converts a decoded stdlib image. Gray sources stay Gray8,
// everything else becomes RGB24.
func FromImage(src image.Image) (*Image, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if g, ok := src.(*image.Gray); ok {
		out, err := New(w, h, Gray8)
		if err != nil {
			return nil, err
		}
		for y := 0; y < h; y++ {
			copy(out.Row(y), g.Pix[(y+b.Min.Y-g.Rect.Min.Y)*g.Stride+(b.Min.X-g.Rect.Min.X):])
		}
		return out, nil
	}
	out, err := New(w, h, RGB24)
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		row := out.Row(y)
		for x := 0; x < w; x++ {
			r, g, bl, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
			i := x * 3
			row[i] = uint8(r >> 8)
			row[i+1] = uint8(g >> 8)
			row[i+2] = uint8(bl >> 8)
		}
	}
	return out, nil
}

// ToImage converts back to a stdlib image for encoding or handoff to
// libraries that consume image.Image.
func (m *Image) ToImage() image.Image {
	if m.Format == Gray8 {
		g := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
		for y := 0; y < m.Height; y++ {
			copy(g.Pix[y*g.Stride:], m.Row(y))
		}
		return g
	}
	rgba := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		src := m.Row(y)
		for x := 0; x < m.Width; x++ {
			i := x * 3
			rgba.SetRGBA(x, y, color.RGBA{src[i], src[i+1], src[i+2], 0xff})
		}
	}
	return rgba
}

// SubRows returns a view of rows [y0, y1) sharing pixel storage with m.
// Callers must not outlive the parent buffer.
func (m *Image) SubRows(y0, y1 int) (*Image, error) {
	if y0 < 0 || y1 > m.Height || y0 >= y1 {
		return nil, fmt.Errorf("%w: rows [%d, %d) in height %d", ErrOutOfBounds, y0, y1, m.Height)
	}
	return &Image{
		Width:  m.Width,
		Height: y1 - y0,
		Stride: m.Stride,
		Format: m.Format,
		Pix:    m.Pix[y0*m.Stride : y1*m.Stride],
	}, nil
}

// Clamp converts a float sample to a stored channel value: clamped to
// [0, 255] and rounded, not truncated.
func Clamp(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
