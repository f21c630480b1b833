package stages

import (
	"fmt"

	"github.com/wudi/docprep/raster"
)

// ContrastOptions configures ContrastAdjustment.
type ContrastOptions struct {
	Enabled bool
	// Level is the linear gain applied around mid-gray, valid in
	// [0.5, 3.0]. 1.0 leaves the image unchanged.
	Level float64
}

// DefaultContrastOptions returns the stock configuration (level 1.5).
func DefaultContrastOptions() ContrastOptions {
	return ContrastOptions{Enabled: true, Level: 1.5}
}

// ContrastAdjustment stretches every channel linearly around mid-gray:
// out = clamp((in-128)*level + 128). Intermediate math is floating point and
// the result is rounded before storing.
type ContrastAdjustment struct {
	opts ContrastOptions
}

func NewContrastAdjustment(opts ContrastOptions) *ContrastAdjustment {
	return &ContrastAdjustment{opts: opts}
}

func (s *ContrastAdjustment) Name() string      { return "contrast-adjustment" }
func (s *ContrastAdjustment) Enabled() bool     { return s.opts.Enabled }
func (s *ContrastAdjustment) KernelRadius() int { return 0 }

func (s *ContrastAdjustment) Apply(img *raster.Image) (*raster.Image, error) {
	if err := checkInput(img); err != nil {
		return nil, err
	}
	out := img.Clone()
	if !s.opts.Enabled {
		return out, nil
	}
	if s.opts.Level < 0.5 || s.opts.Level > 3.0 {
		return nil, fmt.Errorf("%s: level %g out of range [0.5, 3.0]", s.Name(), s.opts.Level)
	}
	// One 256-entry lookup table instead of a multiply per channel.
	var lut [256]uint8
	for v := 0; v < 256; v++ {
		lut[v] = raster.Clamp((float64(v)-128)*s.opts.Level + 128)
	}
	bpp := img.Format.BytesPerPixel()
	for y := 0; y < out.Height; y++ {
		row := out.Row(y)
		for i := 0; i < out.Width*bpp; i++ {
			row[i] = lut[row[i]]
		}
	}
	return out, nil
}
