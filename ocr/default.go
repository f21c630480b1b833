package ocr

import (
	"context"
	"fmt"

	"github.com/wudi/docprep/raster"
)

var defaultEngine Engine = &noopEngine{}

// DefaultEngine returns the library's default OCR engine. Importing the
// tesseract subpackage replaces the initial no-op engine.
func DefaultEngine() Engine {
	return defaultEngine
}

// SetDefaultEngine sets the library's default OCR engine.
func SetDefaultEngine(engine Engine) {
	defaultEngine = engine
}

// RecognizeRasters converts processed rasters to OCR inputs and invokes the
// provided engine. If the engine supports batch operation it is used;
// otherwise calls execute sequentially. IDs are "image-<index>".
func RecognizeRasters(ctx context.Context, engine Engine, imgs []*raster.Image, opts ...InputOption) ([]Result, error) {
	inputs := make([]Input, 0, len(imgs))
	for i, img := range imgs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		in, err := InputFromRaster(fmt.Sprintf("image-%d", i), img, opts...)
		if err != nil {
			return nil, fmt.Errorf("build input %d: %w", i, err)
		}
		inputs = append(inputs, in)
	}
	if b, ok := engine.(BatchEngine); ok {
		return b.RecognizeBatch(ctx, inputs)
	}
	results := make([]Result, 0, len(inputs))
	for _, in := range inputs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		res, err := engine.Recognize(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("recognize %s: %w", in.ID, err)
		}
		results = append(results, res)
	}
	return results, nil
}

type noopEngine struct{}

func (noopEngine) Name() string { return "noop" }

func (noopEngine) Recognize(ctx context.Context, input Input) (Result, error) {
	return Result{InputID: input.ID}, nil
}
