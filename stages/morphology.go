package stages

// Grayscale morphology over packed Gray8 planes. Dilation takes the maximum
// of the square neighborhood (expands bright regions), erosion the minimum.
// Both clip the kernel at image edges rather than padding.

func dilateGray(src []byte, width, height, kernelSize int) []byte {
	if kernelSize <= 1 {
		out := make([]byte, len(src))
		copy(out, src)
		return out
	}
	out := make([]byte, len(src))
	half := kernelSize / 2
	for y := 0; y < height; y++ {
		y0, y1 := y-half, y+half
		if y0 < 0 {
			y0 = 0
		}
		if y1 >= height {
			y1 = height - 1
		}
		for x := 0; x < width; x++ {
			x0, x1 := x-half, x+half
			if x0 < 0 {
				x0 = 0
			}
			if x1 >= width {
				x1 = width - 1
			}
			maxv := byte(0)
			for sy := y0; sy <= y1; sy++ {
				row := src[sy*width:]
				for sx := x0; sx <= x1; sx++ {
					if row[sx] > maxv {
						maxv = row[sx]
					}
				}
			}
			out[y*width+x] = maxv
		}
	}
	return out
}

func erodeGray(src []byte, width, height, kernelSize int) []byte {
	if kernelSize <= 1 {
		out := make([]byte, len(src))
		copy(out, src)
		return out
	}
	out := make([]byte, len(src))
	half := kernelSize / 2
	for y := 0; y < height; y++ {
		y0, y1 := y-half, y+half
		if y0 < 0 {
			y0 = 0
		}
		if y1 >= height {
			y1 = height - 1
		}
		for x := 0; x < width; x++ {
			x0, x1 := x-half, x+half
			if x0 < 0 {
				x0 = 0
			}
			if x1 >= width {
				x1 = width - 1
			}
			minv := byte(255)
			for sy := y0; sy <= y1; sy++ {
				row := src[sy*width:]
				for sx := x0; sx <= x1; sx++ {
					if row[sx] < minv {
						minv = row[sx]
					}
				}
			}
			out[y*width+x] = minv
		}
	}
	return out
}

// closeGray is dilate-then-erode: fills dark gaps smaller than the
// structuring element.
func closeGray(src []byte, width, height, kernelSize int) []byte {
	return erodeGray(dilateGray(src, width, height, kernelSize), width, height, kernelSize)
}
