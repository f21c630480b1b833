package stages

import "sync"

// Precomputed convolution kernels shared by every pipeline run. The table is
// built once under kernelOnce and read-only afterwards, so concurrent strips
// need no locking.
type kernelTable struct {
	sobelGx  [3][3]float64
	sobelGy  [3][3]float64
	gauss3   [3][3]float64
	sharpen3 [3][3]float64
}

var (
	kernelOnce sync.Once
	kernels    *kernelTable
)

func kernelSet() *kernelTable {
	kernelOnce.Do(func() {
		t := &kernelTable{
			sobelGx: [3][3]float64{
				{-1, 0, 1},
				{-2, 0, 2},
				{-1, 0, 1},
			},
			sobelGy: [3][3]float64{
				{-1, -2, -1},
				{0, 0, 0},
				{1, 2, 1},
			},
			sharpen3: [3][3]float64{
				{0, -1, 0},
				{-1, 5, -1},
				{0, -1, 0},
			},
		}
		// Binomial 3x3 Gaussian, normalized to unit sum.
		g := [3]float64{1, 2, 1}
		for y := 0; y < 3; y++ {
			for x := 0; x < 3; x++ {
				t.gauss3[y][x] = g[y] * g[x] / 16
			}
		}
		kernels = t
	})
	return kernels
}

// convolve3 applies a 3x3 kernel at (x, y) on a Gray8 image, replicating edge
// pixels.
func convolve3(g []byte, width, height int, x, y int, k *[3][3]float64) float64 {
	var acc float64
	for dy := -1; dy <= 1; dy++ {
		sy := y + dy
		if sy < 0 {
			sy = 0
		} else if sy >= height {
			sy = height - 1
		}
		row := g[sy*width:]
		for dx := -1; dx <= 1; dx++ {
			sx := x + dx
			if sx < 0 {
				sx = 0
			} else if sx >= width {
				sx = width - 1
			}
			acc += float64(row[sx]) * k[dy+1][dx+1]
		}
	}
	return acc
}
