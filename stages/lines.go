package stages

import (
	"fmt"
	"math"

	"github.com/wudi/docprep/raster"
)

// LineOptions configures LineEnhancement.
type LineOptions struct {
	Enabled bool
	// Thickness is the width, in pixels, at which detected ruled lines are
	// repainted. Valid in [1, 9].
	Thickness int
	// MinRunLength is the shortest run of dark pixels treated as a ruled
	// line rather than a glyph stroke.
	MinRunLength int
}

// DefaultLineOptions returns the stock configuration (thickness 2,
// minimum run 20).
func DefaultLineOptions() LineOptions {
	return LineOptions{Enabled: true, Thickness: 2, MinRunLength: 20}
}

// LineEnhancement reconnects and thickens broken ruled lines (form grids,
// underlines, table borders) so the recognizer can separate fields reliably.
// Candidate pixels come from a Sobel edge response; a pixel is then
// classified as line-like when it sits on a long, thin run of dark pixels.
// Text glyphs produce short runs in both axes and are left untouched, which
// keeps strong strokes from being thickened indefinitely. The line mask is
// closed to bridge gaps and dilated to the requested thickness, and the
// resulting pixels are painted black.
//
// Run classification spans whole rows and columns, so the stage always runs
// on the full image.
type LineEnhancement struct {
	opts LineOptions
}

func NewLineEnhancement(opts LineOptions) *LineEnhancement {
	return &LineEnhancement{opts: opts}
}

func (s *LineEnhancement) Name() string      { return "line-enhancement" }
func (s *LineEnhancement) Enabled() bool     { return s.opts.Enabled }
func (s *LineEnhancement) KernelRadius() int { return s.opts.Thickness + 1 }
func (s *LineEnhancement) WholeImage() bool  { return true }

const (
	// lineDarkThreshold separates ink from paper for run analysis.
	lineDarkThreshold = 160
	// lineEdgeGate is the minimum Sobel magnitude, at the pixel or one of
	// its four neighbors, for a dark pixel to count as a line candidate.
	lineEdgeGate = 64.0
)

func (s *LineEnhancement) Apply(img *raster.Image) (*raster.Image, error) {
	if err := checkInput(img); err != nil {
		return nil, err
	}
	if !s.opts.Enabled {
		return img.Clone(), nil
	}
	if s.opts.Thickness < 1 || s.opts.Thickness > 9 {
		return nil, fmt.Errorf("%s: thickness %d out of range [1, 9]", s.Name(), s.opts.Thickness)
	}
	minRun := s.opts.MinRunLength
	if minRun <= 0 {
		minRun = DefaultLineOptions().MinRunLength
	}

	gray := img.Gray8()
	w, h := gray.Width, gray.Height

	dark := make([]bool, w*h)
	for y := 0; y < h; y++ {
		row := gray.Row(y)
		for x := 0; x < w; x++ {
			dark[y*w+x] = row[x] < lineDarkThreshold
		}
	}
	edge := sobelMagnitude(gray)

	// Run lengths of the dark mask along each axis. A ruled line is a long
	// run in one axis with a small extent in the other; glyph blobs are
	// short in both.
	hrun := make([]int, w*h)
	for y := 0; y < h; y++ {
		x := 0
		for x < w {
			if !dark[y*w+x] {
				x++
				continue
			}
			start := x
			for x < w && dark[y*w+x] {
				x++
			}
			for i := start; i < x; i++ {
				hrun[y*w+i] = x - start
			}
		}
	}
	vrun := make([]int, w*h)
	for x := 0; x < w; x++ {
		y := 0
		for y < h {
			if !dark[y*w+x] {
				y++
				continue
			}
			start := y
			for y < h && dark[y*w+x] {
				y++
			}
			for i := start; i < y; i++ {
				vrun[i*w+x] = y - start
			}
		}
	}

	maxStroke := s.opts.Thickness * 2
	mask := make([]byte, w*h)
	for p := range mask {
		if !dark[p] {
			continue
		}
		lineLike := (hrun[p] >= minRun && vrun[p] <= maxStroke) ||
			(vrun[p] >= minRun && hrun[p] <= maxStroke)
		if lineLike && nearEdge(edge, w, h, p%w, p/w) {
			mask[p] = 255
		}
	}

	mask = closeGray(mask, w, h, s.opts.Thickness)
	mask = dilateGray(mask, w, h, s.opts.Thickness)

	out := img.Clone()
	bpp := img.Format.BytesPerPixel()
	for y := 0; y < h; y++ {
		row := out.Row(y)
		for x := 0; x < w; x++ {
			if mask[y*w+x] == 0 {
				continue
			}
			if bpp == 1 {
				row[x] = 0
			} else {
				i := x * 3
				row[i], row[i+1], row[i+2] = 0, 0, 0
			}
		}
	}
	return out, nil
}

// sobelMagnitude returns the gradient magnitude plane of a Gray8 image. The
// plane is Gaussian-smoothed first so scanner grain does not register as edge
// response.
func sobelMagnitude(gray *raster.Image) []float64 {
	k := kernelSet()
	w, h := gray.Width, gray.Height
	raw := make([]byte, w*h)
	for y := 0; y < h; y++ {
		copy(raw[y*w:], gray.Row(y))
	}
	plane := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			plane[y*w+x] = raster.Clamp(convolve3(raw, w, h, x, y, &k.gauss3))
		}
	}
	mag := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := convolve3(plane, w, h, x, y, &k.sobelGx)
			gy := convolve3(plane, w, h, x, y, &k.sobelGy)
			mag[y*w+x] = math.Hypot(gx, gy)
		}
	}
	return mag
}

func nearEdge(mag []float64, w, h, x, y int) bool {
	if mag[y*w+x] >= lineEdgeGate {
		return true
	}
	if x > 0 && mag[y*w+x-1] >= lineEdgeGate {
		return true
	}
	if x+1 < w && mag[y*w+x+1] >= lineEdgeGate {
		return true
	}
	if y > 0 && mag[(y-1)*w+x] >= lineEdgeGate {
		return true
	}
	if y+1 < h && mag[(y+1)*w+x] >= lineEdgeGate {
		return true
	}
	return false
}
