package stages

import (
	"fmt"
	"math"

	"github.com/wudi/docprep/raster"
)

// TextOptions configures TextEnhancement.
type TextOptions struct {
	Enabled bool
	// Level scales how aggressively faint strokes are pulled to black,
	// valid in [0, 100].
	Level int
	// Window is the side of the square neighborhood used for the local
	// mean. Must be odd and >= 3.
	Window int
}

// DefaultTextOptions returns the stock configuration (level 50, window 15).
func DefaultTextOptions() TextOptions {
	return TextOptions{Enabled: true, Level: 50, Window: 15}
}

// TextEnhancement binarizes text adaptively: each pixel is compared against
// k * mean(window) where k rises from 0.5 to 1.0 with Level. Pixels below the
// adaptive threshold become black and pixels well above it white; pixels
// within a narrow band around the threshold are gamma-corrected instead of
// hard-thresholded, which avoids staircase artifacts along stroke borders.
// The output is always Gray8.
type TextEnhancement struct {
	opts TextOptions
}

func NewTextEnhancement(opts TextOptions) *TextEnhancement {
	return &TextEnhancement{opts: opts}
}

func (s *TextEnhancement) Name() string      { return "text-enhancement" }
func (s *TextEnhancement) Enabled() bool     { return s.opts.Enabled }
func (s *TextEnhancement) KernelRadius() int { return s.opts.Window / 2 }

// borderBand is the half-width, in gray levels, of the soft zone around the
// adaptive threshold.
const borderBand = 12.0

func (s *TextEnhancement) Apply(img *raster.Image) (*raster.Image, error) {
	if err := checkInput(img); err != nil {
		return nil, err
	}
	if !s.opts.Enabled {
		return img.Clone(), nil
	}
	if s.opts.Level < 0 || s.opts.Level > 100 {
		return nil, fmt.Errorf("%s: level %d out of range [0, 100]", s.Name(), s.opts.Level)
	}
	if err := oddWindow(s.Name(), s.opts.Window); err != nil {
		return nil, err
	}

	gray := img.Gray8()
	integral := raster.NewIntegral(gray)
	k := 0.5 + float64(s.opts.Level)/100*0.5
	gamma := 1 + float64(s.opts.Level)/100

	out := gray.Clone()
	for y := 0; y < gray.Height; y++ {
		src := gray.Row(y)
		dst := out.Row(y)
		for x := 0; x < gray.Width; x++ {
			mean, _ := integral.MeanStdDevWindow(x, y, s.opts.Window)
			threshold := k * mean
			v := float64(src[x])
			switch {
			case v < threshold-borderBand:
				dst[x] = 0
			case v > threshold+borderBand:
				dst[x] = 255
			default:
				// Soft zone: gamma-push mid-tones toward the
				// nearest extreme instead of a hard cut.
				dst[x] = raster.Clamp(255 * math.Pow(v/255, gamma))
			}
		}
	}
	return out, nil
}
