package stages

import (
	"fmt"

	"github.com/wudi/docprep/raster"
)

// IlluminationOptions configures IlluminationCorrection.
type IlluminationOptions struct {
	Enabled bool
	// ElementSize is the structuring element side for the background
	// estimate. Must be odd and >= 3.
	ElementSize int
	// TileSize is the side of the contrast-equalization tiles, in pixels.
	TileSize int
	// ClipLimit caps each histogram bin at ClipLimit times the uniform
	// bin height before equalization, limiting noise amplification.
	ClipLimit float64
}

// DefaultIlluminationOptions returns the stock configuration
// (element 15, tile 64, clip 3.0).
func DefaultIlluminationOptions() IlluminationOptions {
	return IlluminationOptions{Enabled: true, ElementSize: 15, TileSize: 64, ClipLimit: 3.0}
}

// IlluminationCorrection flattens uneven lighting: a morphological closing
// with the structuring element estimates the low-frequency background (text
// is thinner than the element and gets filled over), the estimate is
// subtracted, and a tiled, clip-limited histogram equalization restores local
// contrast. The stage works on luminance and outputs Gray8.
//
// The equalization tiles span the full image, so the stage always runs on
// the whole image.
type IlluminationCorrection struct {
	opts IlluminationOptions
}

func NewIlluminationCorrection(opts IlluminationOptions) *IlluminationCorrection {
	return &IlluminationCorrection{opts: opts}
}

func (s *IlluminationCorrection) Name() string      { return "illumination-correction" }
func (s *IlluminationCorrection) Enabled() bool     { return s.opts.Enabled }
func (s *IlluminationCorrection) KernelRadius() int { return s.opts.ElementSize / 2 }
func (s *IlluminationCorrection) WholeImage() bool  { return true }

func (s *IlluminationCorrection) Apply(img *raster.Image) (*raster.Image, error) {
	if err := checkInput(img); err != nil {
		return nil, err
	}
	if !s.opts.Enabled {
		return img.Clone(), nil
	}
	if err := oddWindow(s.Name(), s.opts.ElementSize); err != nil {
		return nil, err
	}
	if s.opts.TileSize < 8 {
		return nil, fmt.Errorf("%s: tile size %d must be >= 8", s.Name(), s.opts.TileSize)
	}
	if s.opts.ClipLimit < 1 {
		return nil, fmt.Errorf("%s: clip limit %g must be >= 1", s.Name(), s.opts.ClipLimit)
	}

	gray := img.Gray8()
	w, h := gray.Width, gray.Height
	plane := make([]byte, w*h)
	for y := 0; y < h; y++ {
		copy(plane[y*w:], gray.Row(y))
	}

	// Black top-hat: closing minus original highlights dark detail; the
	// background (paper plus illumination gradient) cancels out.
	background := closeGray(plane, w, h, s.opts.ElementSize)
	flattened := make([]byte, w*h)
	for i := range plane {
		flattened[i] = 255 - (background[i] - plane[i])
	}

	equalized := claheGray(flattened, w, h, s.opts.TileSize, s.opts.ClipLimit)
	out := &raster.Image{Width: w, Height: h, Stride: w, Format: raster.Gray8, Pix: equalized}
	return out, nil
}

// claheGray performs clip-limited adaptive histogram equalization. Each tile
// gets its own clipped-histogram lookup table; pixels are mapped by bilinear
// interpolation between the tables of the four surrounding tile centers, which
// removes visible tile seams.
func claheGray(src []byte, w, h, tile int, clip float64) []byte {
	nx := (w + tile - 1) / tile
	ny := (h + tile - 1) / tile
	luts := make([][256]uint8, nx*ny)

	for ty := 0; ty < ny; ty++ {
		for tx := 0; tx < nx; tx++ {
			x0, y0 := tx*tile, ty*tile
			x1, y1 := x0+tile, y0+tile
			if x1 > w {
				x1 = w
			}
			if y1 > h {
				y1 = h
			}
			var hist [256]int
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					hist[src[y*w+x]]++
				}
			}
			n := (x1 - x0) * (y1 - y0)
			limit := int(clip * float64(n) / 256)
			if limit < 1 {
				limit = 1
			}
			excess := 0
			for v := 0; v < 256; v++ {
				if hist[v] > limit {
					excess += hist[v] - limit
					hist[v] = limit
				}
			}
			// Redistribute clipped mass uniformly.
			share := excess / 256
			rem := excess % 256
			for v := 0; v < 256; v++ {
				hist[v] += share
				if v < rem {
					hist[v]++
				}
			}
			lut := &luts[ty*nx+tx]
			cum := 0
			for v := 0; v < 256; v++ {
				cum += hist[v]
				lut[v] = raster.Clamp(255 * float64(cum) / float64(n))
			}
		}
	}

	out := make([]byte, w*h)
	for y := 0; y < h; y++ {
		// Position relative to tile centers.
		fy := (float64(y) - float64(tile)/2) / float64(tile)
		ty0 := int(fy)
		if fy < 0 {
			ty0 = -1
		}
		wy := fy - float64(ty0)
		ty1 := ty0 + 1
		ty0c, ty1c := clampTile(ty0, ny), clampTile(ty1, ny)
		for x := 0; x < w; x++ {
			fx := (float64(x) - float64(tile)/2) / float64(tile)
			tx0 := int(fx)
			if fx < 0 {
				tx0 = -1
			}
			wx := fx - float64(tx0)
			tx1 := tx0 + 1
			tx0c, tx1c := clampTile(tx0, nx), clampTile(tx1, nx)

			v := src[y*w+x]
			tl := float64(luts[ty0c*nx+tx0c][v])
			tr := float64(luts[ty0c*nx+tx1c][v])
			bl := float64(luts[ty1c*nx+tx0c][v])
			br := float64(luts[ty1c*nx+tx1c][v])
			top := tl + (tr-tl)*wx
			bot := bl + (br-bl)*wx
			out[y*w+x] = raster.Clamp(top + (bot-top)*wy)
		}
	}
	return out
}

func clampTile(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
