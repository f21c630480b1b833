// Package quality inspects document images to classify their scan quality
// and pick a preprocessing preset. All metrics are advisory heuristics; the
// assessor never errors on degenerate pixel statistics.
package quality

import (
	"math"

	"github.com/wudi/docprep/preset"
	"github.com/wudi/docprep/raster"
)

// Metrics summarizes the measurable quality of one image. Values are derived
// per image and never persisted.
type Metrics struct {
	// AverageBrightness is the mean luminance, in [0, 255].
	AverageBrightness float32
	// ContrastRatio is the luminance standard deviation relative to the
	// mean, scaled to a 0-100 range. A flat image scores 0.
	ContrastRatio float32
	// NoiseLevel estimates high-frequency energy as the mean local
	// standard deviation over 3x3 neighborhoods, in [0, 255].
	NoiseLevel float32
	// EstimatedAccuracy is an advisory 0-1 prediction of OCR quality,
	// a weighted mix of the other metrics. It is not a guarantee.
	EstimatedAccuracy float32
}

// noiseSampleTarget caps how many pixels the noise estimate visits; large
// images are subsampled on a grid.
const noiseSampleTarget = 1 << 16

// Assess computes quality metrics for img.
func Assess(img *raster.Image) (Metrics, error) {
	if err := img.Validate(); err != nil {
		return Metrics{}, err
	}
	gray := img.Gray8()
	w, h := gray.Width, gray.Height

	var sum, sumSq float64
	for y := 0; y < h; y++ {
		row := gray.Row(y)
		for _, v := range row {
			f := float64(v)
			sum += f
			sumSq += f * f
		}
	}
	n := float64(w * h)
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}

	var m Metrics
	m.AverageBrightness = float32(mean)
	if mean > 0 {
		// stddev/mean, scaled so that typical document scans land in
		// the same 0-100 band the preset cutoffs are written against.
		m.ContrastRatio = float32(math.Sqrt(variance) / mean * 100)
	}
	m.NoiseLevel = float32(noiseEstimate(gray))
	m.EstimatedAccuracy = estimateAccuracy(m)
	return m, nil
}

// noiseEstimate averages the local standard deviation of 3x3 windows over a
// subsampled grid.
func noiseEstimate(gray *raster.Image) float64 {
	it := raster.NewIntegral(gray)
	w, h := gray.Width, gray.Height
	step := 1
	for (w/step)*(h/step) > noiseSampleTarget {
		step++
	}
	var total float64
	var count int
	for y := 1; y < h-1; y += step {
		for x := 1; x < w-1; x += step {
			_, dev := it.MeanStdDevWindow(x, y, 3)
			total += dev
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// estimateAccuracy combines the raw metrics into an advisory OCR accuracy
// prediction: 0.4 * brightness fit + 0.4 * contrast fit + 0.2 * cleanliness.
// Brightness fit peaks at mid-high luminance (clean white paper with dark
// ink), contrast fit saturates at a ratio of 60, cleanliness decays with
// noise.
func estimateAccuracy(m Metrics) float32 {
	brightness := 1 - math.Abs(float64(m.AverageBrightness)-220)/220
	if brightness < 0 {
		brightness = 0
	}
	contrast := float64(m.ContrastRatio) / 60
	if contrast > 1 {
		contrast = 1
	}
	clean := 1 - float64(m.NoiseLevel)/64
	if clean < 0 {
		clean = 0
	}
	return float32(0.4*brightness + 0.4*contrast + 0.2*clean)
}

// Preset selection cutoffs. Ties resolve to Default.
const (
	fadedBrightnessMin  = 200
	fadedContrastMax    = 50
	poorContrastMax     = 30
	agedNoiseMin        = 24
	rescoreAccuracyGoal = 0.6
)

// SelectPreset picks the preprocessing preset for the measured metrics. The
// rules are deterministic literal cutoffs, checked in order:
//
//	brightness > 200 and contrast < 50 -> faded-document
//	contrast < 30                      -> poor-quality-form
//	noise >= 24                        -> aged-document
//	otherwise                          -> default
func SelectPreset(m Metrics) preset.Name {
	if m.AverageBrightness > fadedBrightnessMin && m.ContrastRatio < fadedContrastMax {
		return preset.ForFadedDocument
	}
	if m.ContrastRatio < poorContrastMax {
		return preset.ForPoorQualityForm
	}
	if m.NoiseLevel >= agedNoiseMin {
		return preset.ForAgedDocument
	}
	return preset.Default
}

// NeedsAnotherPass re-scores a processed image and reports whether a second
// preprocessing pass is likely to help. Advisory only.
func NeedsAnotherPass(processed *raster.Image) (bool, Metrics, error) {
	m, err := Assess(processed)
	if err != nil {
		return false, Metrics{}, err
	}
	return m.EstimatedAccuracy < rescoreAccuracyGoal, m, nil
}
