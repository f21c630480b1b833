package stages

import (
	"fmt"

	"github.com/wudi/docprep/raster"
)

// Stage is one pure transform step in the preprocessing pipeline. Apply never
// mutates its input; it returns a freshly allocated image. A disabled stage
// returns an equivalent deep copy so pipelines can be configured statically
// without branching at call sites.
type Stage interface {
	// Name identifies the stage in errors, logs and traces.
	Name() string
	// Enabled reports whether Apply performs its transform. When false,
	// Apply returns a clone of the input.
	Enabled() bool
	// KernelRadius is the widest neighborhood (in pixels) the stage reads
	// around any output pixel. The pipeline uses the maximum radius across
	// enabled stages to size strip overlap for parallel execution.
	KernelRadius() int
	// Apply runs the transform. Errors indicate violated structural
	// preconditions (bad geometry, bad options); numeric edge cases are
	// handled locally and never surfaced.
	Apply(img *raster.Image) (*raster.Image, error)
}

// WholeImage marks stages whose transform is global (they fit a model over
// the entire image) and therefore cannot run on independent strips. The
// pipeline executes them serially on the full image even when strip
// parallelism is enabled.
type WholeImage interface {
	WholeImage() bool
}

func checkInput(img *raster.Image) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", raster.ErrInvalidDimensions)
	}
	return img.Validate()
}

func oddWindow(name string, size int) error {
	if size < 3 || size%2 == 0 {
		return fmt.Errorf("%s: window size %d must be odd and >= 3", name, size)
	}
	return nil
}
