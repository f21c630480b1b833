package ocr

import (
	"context"

	"github.com/wudi/docprep/nativebuf"
	"github.com/wudi/docprep/raster"
)

// Handoff is a processed image staged in a native buffer for engines that
// consume raw pixels instead of encoded files. The Handoff owns the buffer;
// Close must be called exactly once, on every path including errors.
type Handoff struct {
	buf    *nativebuf.Buffer
	Width  int
	Height int
	// Stride is the packed row width in bytes.
	Stride int
	Format raster.Format
}

// NewHandoff copies img into a native buffer with packed rows.
func NewHandoff(img *raster.Image) (*Handoff, error) {
	buf, err := nativebuf.FromRaster(img)
	if err != nil {
		return nil, err
	}
	return &Handoff{
		buf:    buf,
		Width:  img.Width,
		Height: img.Height,
		Stride: img.Width * img.Format.BytesPerPixel(),
		Format: img.Format,
	}, nil
}

// Pixels returns a non-owning view of the staged pixels. The view is valid
// until Close.
func (h *Handoff) Pixels() nativebuf.View { return h.buf.Borrow() }

// Detach transfers buffer ownership to the caller, who inherits the release
// obligation. The Handoff must not be used afterwards.
func (h *Handoff) Detach() (*nativebuf.Buffer, error) { return h.buf.Transfer() }

// Close releases the staged buffer. Safe to call after a failed Detach but
// not after a successful one.
func (h *Handoff) Close() error { return h.buf.Release() }

// BufferEngine is a recognition provider that reads raw pixel buffers,
// avoiding the encode round-trip. Implementations must not retain the view
// beyond the call.
type BufferEngine interface {
	Name() string
	RecognizeBuffer(ctx context.Context, h *Handoff, opts ...InputOption) (Result, error)
}
