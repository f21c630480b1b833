package stages

import (
	"sort"

	"github.com/wudi/docprep/raster"
)

// NoiseOptions configures NoiseRemoval.
type NoiseOptions struct {
	Enabled bool
	// Threshold is the median filter window side in pixels. Must be odd
	// and >= 3. It also bounds speck removal: connected dark components
	// smaller than Threshold*Threshold pixels are erased.
	Threshold int
}

// DefaultNoiseOptions returns the stock configuration (window 3).
func DefaultNoiseOptions() NoiseOptions {
	return NoiseOptions{Enabled: true, Threshold: 3}
}

// NoiseRemoval runs a median filter to kill salt-and-pepper noise, then
// erases connected dark components too small to be characters. The speck
// pass needs global component labeling, so the stage always runs on the
// whole image.
type NoiseRemoval struct {
	opts NoiseOptions
}

func NewNoiseRemoval(opts NoiseOptions) *NoiseRemoval {
	return &NoiseRemoval{opts: opts}
}

func (s *NoiseRemoval) Name() string      { return "noise-removal" }
func (s *NoiseRemoval) Enabled() bool     { return s.opts.Enabled }
func (s *NoiseRemoval) KernelRadius() int { return s.opts.Threshold / 2 }
func (s *NoiseRemoval) WholeImage() bool  { return true }

func (s *NoiseRemoval) Apply(img *raster.Image) (*raster.Image, error) {
	if err := checkInput(img); err != nil {
		return nil, err
	}
	if !s.opts.Enabled {
		return img.Clone(), nil
	}
	if err := oddWindow(s.Name(), s.opts.Threshold); err != nil {
		return nil, err
	}

	out := medianFilter(img, s.opts.Threshold)
	removeSpecks(out, s.opts.Threshold*s.opts.Threshold)
	return out, nil
}

// medianFilter replaces each channel sample with the median of its window,
// clipping the window at image edges.
func medianFilter(img *raster.Image, window int) *raster.Image {
	out := img.Clone()
	bpp := img.Format.BytesPerPixel()
	half := window / 2
	buf := make([]byte, 0, window*window)
	for y := 0; y < img.Height; y++ {
		y0, y1 := y-half, y+half
		if y0 < 0 {
			y0 = 0
		}
		if y1 >= img.Height {
			y1 = img.Height - 1
		}
		dst := out.Row(y)
		for x := 0; x < img.Width; x++ {
			x0, x1 := x-half, x+half
			if x0 < 0 {
				x0 = 0
			}
			if x1 >= img.Width {
				x1 = img.Width - 1
			}
			for c := 0; c < bpp; c++ {
				buf = buf[:0]
				for sy := y0; sy <= y1; sy++ {
					row := img.Row(sy)
					for sx := x0; sx <= x1; sx++ {
						buf = append(buf, row[sx*bpp+c])
					}
				}
				sort.Slice(buf, func(i, j int) bool { return buf[i] < buf[j] })
				dst[x*bpp+c] = buf[len(buf)/2]
			}
		}
	}
	return out
}

// removeSpecks whitens 8-connected dark components smaller than minArea
// pixels, in place. Characters survive because even small glyphs exceed the
// area of isolated noise specks.
func removeSpecks(img *raster.Image, minArea int) {
	w, h := img.Width, img.Height
	bpp := img.Format.BytesPerPixel()
	dark := make([]bool, w*h)
	for y := 0; y < h; y++ {
		row := img.Row(y)
		for x := 0; x < w; x++ {
			var v uint8
			if bpp == 1 {
				v = row[x]
			} else {
				i := x * 3
				v = raster.Luminance(row[i], row[i+1], row[i+2])
			}
			dark[y*w+x] = v < 128
		}
	}

	visited := make([]bool, w*h)
	var stack []int
	component := make([]int, 0, minArea*4)
	for start := 0; start < w*h; start++ {
		if !dark[start] || visited[start] {
			continue
		}
		stack = append(stack[:0], start)
		visited[start] = true
		component = component[:0]
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, p)
			px, py := p%w, p/w
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := px+dx, py+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					n := ny*w + nx
					if dark[n] && !visited[n] {
						visited[n] = true
						stack = append(stack, n)
					}
				}
			}
		}
		if len(component) >= minArea {
			continue
		}
		for _, p := range component {
			row := img.Row(p / w)
			x := p % w
			if bpp == 1 {
				row[x] = 255
			} else {
				i := x * 3
				row[i], row[i+1], row[i+2] = 255, 255, 255
			}
		}
	}
}
