// Package preset holds the versioned catalog of named preprocessing
// configurations, one per known document-quality class. The catalog is
// process-wide and immutable; Build hands out a fresh Pipeline each call so
// callers can never share stage state.
package preset

import (
	"fmt"

	"github.com/wudi/docprep/pipeline"
	"github.com/wudi/docprep/stages"
)

// Name identifies a preset in the catalog.
type Name string

const (
	// Default covers reasonably clean office scans: light background
	// cleanup, moderate contrast, speck removal.
	Default Name = "default"
	// ForFadedDocument targets low-ink or sun-bleached originals where
	// strokes barely separate from paper.
	ForFadedDocument Name = "faded-document"
	// ForPoorQualityForm targets photocopied or faxed forms with broken
	// ruled lines and heavy noise.
	ForPoorQualityForm Name = "poor-quality-form"
	// ForDotMatrixPrint targets impact-printer output whose glyphs are
	// disjoint dot clusters.
	ForDotMatrixPrint Name = "dot-matrix-print"
	// ForAgedDocument targets yellowed paper with uneven illumination and
	// foxing specks.
	ForAgedDocument Name = "aged-document"
	// ForGridBackground targets ledger or graph paper where a printed grid
	// competes with the text.
	ForGridBackground Name = "grid-background"
	// ForWatermarkedDocument targets documents with large light watermarks
	// or stamps behind the text.
	ForWatermarkedDocument Name = "watermarked-document"
)

// catalog maps each preset to its stage builder. Builders construct new
// stage values per call; presets themselves never hold stage instances.
var catalog = map[Name]func() []stages.Stage{
	Default: func() []stages.Stage {
		return []stages.Stage{
			stages.NewBackgroundWhitening(stages.DefaultWhitenOptions()),
			stages.NewContrastAdjustment(stages.DefaultContrastOptions()),
			stages.NewNoiseRemoval(stages.DefaultNoiseOptions()),
		}
	},
	ForFadedDocument: func() []stages.Stage {
		return []stages.Stage{
			stages.NewContrastAdjustment(stages.ContrastOptions{Enabled: true, Level: 2.5}),
			stages.NewTextEnhancement(stages.TextOptions{Enabled: true, Level: 70, Window: 15}),
			stages.NewNoiseRemoval(stages.DefaultNoiseOptions()),
		}
	},
	ForPoorQualityForm: func() []stages.Stage {
		return []stages.Stage{
			stages.NewSkewCorrection(stages.DefaultSkewOptions()),
			stages.NewNoiseRemoval(stages.NoiseOptions{Enabled: true, Threshold: 3}),
			stages.NewLineEnhancement(stages.LineOptions{Enabled: true, Thickness: 2, MinRunLength: 20}),
			stages.NewTextEnhancement(stages.TextOptions{Enabled: true, Level: 60, Window: 15}),
		}
	},
	ForDotMatrixPrint: func() []stages.Stage {
		return []stages.Stage{
			stages.NewContrastAdjustment(stages.ContrastOptions{Enabled: true, Level: 2.0}),
			// A wide window keeps disjoint dots of one glyph under a
			// common local threshold so they merge instead of vanish.
			stages.NewTextEnhancement(stages.TextOptions{Enabled: true, Level: 80, Window: 21}),
		}
	},
	ForAgedDocument: func() []stages.Stage {
		return []stages.Stage{
			stages.NewIlluminationCorrection(stages.DefaultIlluminationOptions()),
			stages.NewBackgroundWhitening(stages.WhitenOptions{Enabled: true, Threshold: 180}),
			stages.NewContrastAdjustment(stages.ContrastOptions{Enabled: true, Level: 2.0}),
			stages.NewNoiseRemoval(stages.NoiseOptions{Enabled: true, Threshold: 3}),
		}
	},
	ForGridBackground: func() []stages.Stage {
		return []stages.Stage{
			stages.NewBackgroundWhitening(stages.WhitenOptions{Enabled: true, Threshold: 170}),
			stages.NewContrastAdjustment(stages.ContrastOptions{Enabled: true, Level: 1.8}),
			stages.NewTextEnhancement(stages.TextOptions{Enabled: true, Level: 55, Window: 15}),
		}
	},
	ForWatermarkedDocument: func() []stages.Stage {
		return []stages.Stage{
			stages.NewBackgroundWhitening(stages.WhitenOptions{Enabled: true, Threshold: 160}),
			stages.NewContrastAdjustment(stages.ContrastOptions{Enabled: true, Level: 2.5}),
			stages.NewTextEnhancement(stages.TextOptions{Enabled: true, Level: 60, Window: 15}),
			stages.NewNoiseRemoval(stages.DefaultNoiseOptions()),
		}
	},
}

// names is the catalog in stable, documented order.
var names = []Name{
	Default,
	ForFadedDocument,
	ForPoorQualityForm,
	ForDotMatrixPrint,
	ForAgedDocument,
	ForGridBackground,
	ForWatermarkedDocument,
}

// Names returns every preset name in stable order.
func Names() []Name {
	return append([]Name(nil), names...)
}

// Valid reports whether name exists in the catalog.
func Valid(name Name) bool {
	_, ok := catalog[name]
	return ok
}

// Build constructs a fresh pipeline for the named preset. Pipeline options
// (workers, logger, failure strategy) pass through unchanged.
func Build(name Name, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	builder, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("preset: unknown name %q", name)
	}
	return pipeline.New(builder(), opts...), nil
}
