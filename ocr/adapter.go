package ocr

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/wudi/docprep/raster"
)

// InputOption mutates an OCR input under construction.
type InputOption func(*Input)

// WithLanguages sets language hints on the OCR input.
func WithLanguages(langs ...string) InputOption {
	return func(in *Input) { in.Languages = append([]string(nil), langs...) }
}

// WithRegion sets the recognition region on the OCR input.
func WithRegion(region Region) InputOption {
	return func(in *Input) {
		if region.IsEmpty() {
			in.Region = nil
			return
		}
		in.Region = &region
	}
}

// WithDPI overrides the DPI value on the OCR input.
func WithDPI(dpi int) InputOption {
	return func(in *Input) { in.DPI = dpi }
}

// WithMetadata sets provider-specific metadata for the input. The map is
// copied; later caller mutations do not leak into the input.
func WithMetadata(metadata map[string]string) InputOption {
	return func(in *Input) {
		if len(metadata) == 0 {
			in.Metadata = nil
			return
		}
		in.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			in.Metadata[k] = v
		}
	}
}

// InputFromRaster converts a processed raster into an OCR input using PNG
// encoding. The id is echoed back in the result for correlation.
func InputFromRaster(id string, img *raster.Image, opts ...InputOption) (Input, error) {
	if err := img.Validate(); err != nil {
		return Input{}, fmt.Errorf("encode raster: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img.ToImage()); err != nil {
		return Input{}, fmt.Errorf("encode raster: %w", err)
	}
	in := Input{
		ID:     id,
		Image:  buf.Bytes(),
		Format: ImageFormatPNG,
	}
	for _, opt := range opts {
		opt(&in)
	}
	return in, nil
}
