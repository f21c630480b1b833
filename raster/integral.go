package raster

import "math"

// Integral holds summed-area tables of a Gray8 image: one for plain sums and
// one for squared sums, so any rectangular window's mean and standard
// deviation come out in constant time. Tables carry a one-cell zero border so
// window lookups need no special cases at the top-left edge.
type Integral struct {
	width  int
	height int
	sum    []uint64
	sumSq  []uint64
}

// NewIntegral builds the summed-area tables for img. RGB images are reduced
// to luminance first.
func NewIntegral(img *Image) *Integral {
	g := img
	if img.Format != Gray8 {
		g = img.Gray8()
	}
	w, h := g.Width, g.Height
	it := &Integral{
		width:  w,
		height: h,
		sum:    make([]uint64, (w+1)*(h+1)),
		sumSq:  make([]uint64, (w+1)*(h+1)),
	}
	stride := w + 1
	for y := 0; y < h; y++ {
		row := g.Row(y)
		var rowSum, rowSumSq uint64
		for x := 0; x < w; x++ {
			v := uint64(row[x])
			rowSum += v
			rowSumSq += v * v
			i := (y+1)*stride + (x + 1)
			it.sum[i] = it.sum[i-stride] + rowSum
			it.sumSq[i] = it.sumSq[i-stride] + rowSumSq
		}
	}
	return it
}

// WindowSum returns the sum of gray values in the rectangle [x0, x1) x
// [y0, y1), with coordinates clipped to the image.
func (it *Integral) WindowSum(x0, y0, x1, y1 int) (sum uint64, area int) {
	x0, y0, x1, y1 = it.clip(x0, y0, x1, y1)
	if x0 >= x1 || y0 >= y1 {
		return 0, 0
	}
	stride := it.width + 1
	s := it.sum[y1*stride+x1] - it.sum[y0*stride+x1] - it.sum[y1*stride+x0] + it.sum[y0*stride+x0]
	return s, (x1 - x0) * (y1 - y0)
}

// MeanStdDevWindow returns mean and standard deviation of the square window of
// the given size centered at (x, y). Edge windows are clipped, not padded.
func (it *Integral) MeanStdDevWindow(x, y, size int) (mean, stddev float64) {
	half := size / 2
	x0, y0, x1, y1 := it.clip(x-half, y-half, x+half+1, y+half+1)
	if x0 >= x1 || y0 >= y1 {
		return 0, 0
	}
	stride := it.width + 1
	s := it.sum[y1*stride+x1] - it.sum[y0*stride+x1] - it.sum[y1*stride+x0] + it.sum[y0*stride+x0]
	sq := it.sumSq[y1*stride+x1] - it.sumSq[y0*stride+x1] - it.sumSq[y1*stride+x0] + it.sumSq[y0*stride+x0]
	n := float64((x1 - x0) * (y1 - y0))
	mean = float64(s) / n
	variance := float64(sq)/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

func (it *Integral) clip(x0, y0, x1, y1 int) (int, int, int, int) {
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > it.width {
		x1 = it.width
	}
	if y1 > it.height {
		y1 = it.height
	}
	return x0, y0, x1, y1
}
