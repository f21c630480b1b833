package stages

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/wudi/docprep/raster"
)

// SkewOptions configures SkewCorrection.
type SkewOptions struct {
	Enabled bool
	// MaxAngle bounds skew detection to [-MaxAngle, +MaxAngle] degrees.
	// Valid in (0, 45].
	MaxAngle float64
}

// DefaultSkewOptions returns the stock configuration (±15 degrees).
func DefaultSkewOptions() SkewOptions {
	return SkewOptions{Enabled: true, MaxAngle: 15}
}

// SkewCorrection straightens tilted scans. The dominant skew angle is found
// with a Hough transform over edge pixels, the image is rotated about its
// center with Catmull-Rom (bicubic-class) resampling, and a sharpening pass
// compensates the interpolation blur. Output dimensions equal input
// dimensions; corners uncovered by the rotation are filled white.
//
// The Hough fit is global, so the stage always runs on the full image. Its
// resampled output is the one stage whose pixels are only reproducible to
// interpolation tolerance rather than bit-exactly across architectures.
type SkewCorrection struct {
	opts SkewOptions
}

func NewSkewCorrection(opts SkewOptions) *SkewCorrection {
	return &SkewCorrection{opts: opts}
}

func (s *SkewCorrection) Name() string      { return "skew-correction" }
func (s *SkewCorrection) Enabled() bool     { return s.opts.Enabled }
func (s *SkewCorrection) KernelRadius() int { return 2 }
func (s *SkewCorrection) WholeImage() bool  { return true }

const (
	// houghStep is the angular resolution of skew detection, in degrees.
	houghStep = 0.25
	// minSkew is the smallest angle worth resampling for.
	minSkew = 0.1
	// houghMaxDim bounds the working size of the edge map fed to the
	// accumulator; larger inputs are decimated first.
	houghMaxDim = 800
)

func (s *SkewCorrection) Apply(img *raster.Image) (*raster.Image, error) {
	if err := checkInput(img); err != nil {
		return nil, err
	}
	if !s.opts.Enabled {
		return img.Clone(), nil
	}
	if s.opts.MaxAngle <= 0 || s.opts.MaxAngle > 45 {
		return nil, fmt.Errorf("%s: max angle %g out of range (0, 45]", s.Name(), s.opts.MaxAngle)
	}

	angle := detectSkew(img.Gray8(), s.opts.MaxAngle)
	if math.Abs(angle) < minSkew {
		return img.Clone(), nil
	}

	rotated := rotate(img, -angle)
	return sharpen(rotated), nil
}

// detectSkew estimates the dominant text-line angle in degrees. For each
// candidate angle, edge pixels are projected onto the axis perpendicular to
// that angle; the true skew concentrates projections into few bins, so the
// angle with the spikiest histogram wins.
func detectSkew(gray *raster.Image, maxAngle float64) float64 {
	factor := 1
	for gray.Width/factor > houghMaxDim || gray.Height/factor > houghMaxDim {
		factor++
	}
	w := gray.Width / factor
	h := gray.Height / factor
	if w < 8 || h < 8 {
		return 0
	}
	plane := make([]byte, w*h)
	for y := 0; y < h; y++ {
		src := gray.Row(y * factor)
		for x := 0; x < w; x++ {
			plane[y*w+x] = src[x*factor]
		}
	}
	small := &raster.Image{Width: w, Height: h, Stride: w, Format: raster.Gray8, Pix: plane}

	mag := sobelMagnitude(small)
	type point struct{ x, y int }
	var points []point
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if mag[y*w+x] >= 128 {
				points = append(points, point{x, y})
			}
		}
	}
	if len(points) < 50 {
		return 0
	}

	diag := int(math.Hypot(float64(w), float64(h))) + 1
	bins := make([]int, 2*diag+1)
	best, bestScore := 0.0, -1.0
	for a := -maxAngle; a <= maxAngle+1e-9; a += houghStep {
		rad := a * math.Pi / 180
		sin, cos := math.Sincos(rad)
		for i := range bins {
			bins[i] = 0
		}
		for _, p := range points {
			rho := float64(p.y)*cos - float64(p.x)*sin
			bins[int(rho)+diag]++
		}
		var score float64
		for _, c := range bins {
			score += float64(c) * float64(c)
		}
		if score > bestScore {
			bestScore = score
			best = a
		}
	}
	return best
}

// rotate resamples img rotated by angle degrees about its center into an
// equally sized white canvas using Catmull-Rom interpolation.
func rotate(img *raster.Image, angle float64) *raster.Image {
	src := img.ToImage()
	bounds := image.Rect(0, 0, img.Width, img.Height)

	var dst xdraw.Image
	if img.Format == raster.Gray8 {
		dst = image.NewGray(bounds)
	} else {
		dst = image.NewRGBA(bounds)
	}
	draw.Draw(dst, bounds, &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	rad := angle * math.Pi / 180
	sin, cos := math.Sincos(rad)
	cx := float64(img.Width) / 2
	cy := float64(img.Height) / 2
	m := f64.Aff3{
		cos, -sin, cx - cos*cx + sin*cy,
		sin, cos, cy - sin*cx - cos*cy,
	}
	xdraw.CatmullRom.Transform(dst, m, src, src.Bounds(), xdraw.Over, nil)

	out, err := raster.FromImage(dst)
	if err != nil {
		// Geometry was validated on the way in; same dimensions out.
		panic(fmt.Sprintf("rotate: %v", err))
	}
	return out
}

// sharpen applies a 3x3 sharpening kernel to every channel plane.
func sharpen(img *raster.Image) *raster.Image {
	k := kernelSet()
	w, h := img.Width, img.Height
	bpp := img.Format.BytesPerPixel()
	out := img.Clone()
	plane := make([]byte, w*h)
	for c := 0; c < bpp; c++ {
		for y := 0; y < h; y++ {
			row := img.Row(y)
			for x := 0; x < w; x++ {
				plane[y*w+x] = row[x*bpp+c]
			}
		}
		for y := 0; y < h; y++ {
			dst := out.Row(y)
			for x := 0; x < w; x++ {
				dst[x*bpp+c] = raster.Clamp(convolve3(plane, w, h, x, y, &k.sharpen3))
			}
		}
	}
	return out
}
