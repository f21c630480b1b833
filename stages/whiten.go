package stages

import "github.com/wudi/docprep/raster"

// WhitenOptions configures BackgroundWhitening.
type WhitenOptions struct {
	Enabled bool
	// Threshold is the luminance at or above which a pixel is forced to
	// white. Higher values whiten more aggressively.
	Threshold uint8
}

// DefaultWhitenOptions returns the stock configuration (threshold 200).
func DefaultWhitenOptions() WhitenOptions {
	return WhitenOptions{Enabled: true, Threshold: 200}
}

// BackgroundWhitening clears light paper tint, bleed-through and scanner haze
// by snapping every pixel at or above the threshold to pure white. Pixels
// below the threshold pass through unchanged, so strokes keep their original
// values.
type BackgroundWhitening struct {
	opts WhitenOptions
}

func NewBackgroundWhitening(opts WhitenOptions) *BackgroundWhitening {
	return &BackgroundWhitening{opts: opts}
}

func (s *BackgroundWhitening) Name() string      { return "background-whitening" }
func (s *BackgroundWhitening) Enabled() bool     { return s.opts.Enabled }
func (s *BackgroundWhitening) KernelRadius() int { return 0 }

func (s *BackgroundWhitening) Apply(img *raster.Image) (*raster.Image, error) {
	if err := checkInput(img); err != nil {
		return nil, err
	}
	out := img.Clone()
	if !s.opts.Enabled {
		return out, nil
	}
	t := s.opts.Threshold
	if img.Format == raster.Gray8 {
		for y := 0; y < out.Height; y++ {
			row := out.Row(y)
			for x, v := range row {
				if v >= t {
					row[x] = 255
				}
			}
		}
		return out, nil
	}
	for y := 0; y < out.Height; y++ {
		row := out.Row(y)
		for x := 0; x < out.Width; x++ {
			i := x * 3
			if raster.Luminance(row[i], row[i+1], row[i+2]) >= t {
				row[i], row[i+1], row[i+2] = 255, 255, 255
			}
		}
	}
	return out, nil
}
