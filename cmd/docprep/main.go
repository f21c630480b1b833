// Command docprep preprocesses scanned document images for OCR: it assesses
// scan quality, picks or accepts a preset, runs the stage pipeline, and can
// hand the result straight to the Tesseract engine.
package main

import (
	"fmt"
	"os"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/wudi/docprep/ocr"
	_ "github.com/wudi/docprep/ocr/tesseract"
	"github.com/wudi/docprep/pipeline"
	"github.com/wudi/docprep/preset"
	"github.com/wudi/docprep/quality"
	"github.com/wudi/docprep/raster"
	"github.com/wudi/docprep/recovery"
)

var (
	flagPreset  string
	flagAuto    bool
	flagWorkers int
	flagLenient bool
	flagVerbose bool
	flagLangs   []string
)

func main() {
	root := &cobra.Command{
		Use:           "docprep",
		Short:         "Preprocess scanned document images for OCR",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagPreset, "preset", string(preset.Default), "preset name (see 'docprep presets')")
	root.PersistentFlags().BoolVar(&flagAuto, "auto", false, "pick the preset from measured image quality")
	root.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "strip workers per stage (0 = number of CPUs)")
	root.PersistentFlags().BoolVar(&flagLenient, "lenient", false, "skip failing stages instead of aborting")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log stage progress to stderr")

	root.AddCommand(newProcessCmd(), newAssessCmd(), newOCRCmd(), newPresetsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "docprep:", err)
		os.Exit(1)
	}
}

func newProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process <input> <output>",
		Short: "Run the preprocessing pipeline on one image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := loadRaster(args[0])
			if err != nil {
				return err
			}
			out, _, err := preprocess(cmd, img)
			if err != nil {
				return err
			}
			return imaging.Save(out.ToImage(), args[1])
		},
	}
}

func newAssessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assess <input>",
		Short: "Print quality metrics and the preset they select",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := loadRaster(args[0])
			if err != nil {
				return err
			}
			m, err := quality.Assess(img)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "brightness:  %.1f\n", m.AverageBrightness)
			fmt.Fprintf(w, "contrast:    %.1f\n", m.ContrastRatio)
			fmt.Fprintf(w, "noise:       %.1f\n", m.NoiseLevel)
			fmt.Fprintf(w, "est. accuracy: %.2f\n", m.EstimatedAccuracy)
			fmt.Fprintf(w, "preset:      %s\n", quality.SelectPreset(m))
			return nil
		},
	}
}

func newOCRCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ocr <input>",
		Short: "Preprocess an image and print recognized text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := loadRaster(args[0])
			if err != nil {
				return err
			}
			out, _, err := preprocess(cmd, img)
			if err != nil {
				return err
			}
			var opts []ocr.InputOption
			if len(flagLangs) > 0 {
				opts = append(opts, ocr.WithLanguages(flagLangs...))
			}
			results, err := ocr.RecognizeRasters(cmd.Context(), ocr.DefaultEngine(), []*raster.Image{out}, opts...)
			if err != nil {
				return err
			}
			for _, res := range results {
				fmt.Fprintln(cmd.OutOrStdout(), res.PlainText)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&flagLangs, "lang", nil, "language hints for the OCR engine")
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the preset catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range preset.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func loadRaster(path string) (*raster.Image, error) {
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return raster.FromImage(src)
}

// preprocess resolves the preset (flag or auto-selection), builds the
// pipeline and runs it.
func preprocess(cmd *cobra.Command, img *raster.Image) (*raster.Image, preset.Name, error) {
	name := preset.Name(flagPreset)
	if flagAuto {
		m, err := quality.Assess(img)
		if err != nil {
			return nil, "", err
		}
		name = quality.SelectPreset(m)
		if flagVerbose {
			fmt.Fprintf(os.Stderr, "auto-selected preset %s (brightness %.1f, contrast %.1f, noise %.1f)\n",
				name, m.AverageBrightness, m.ContrastRatio, m.NoiseLevel)
		}
	}

	opts := []pipeline.Option{}
	if flagWorkers > 0 {
		opts = append(opts, pipeline.WithWorkers(flagWorkers))
	}
	if flagLenient {
		opts = append(opts, pipeline.WithStrategy(recovery.NewLenientStrategy()))
	}
	if flagVerbose {
		opts = append(opts, pipeline.WithLogger(stderrLogger{}))
	}

	p, err := preset.Build(name, opts...)
	if err != nil {
		return nil, "", err
	}
	out, err := p.Preprocess(cmd.Context(), img)
	if err != nil {
		return nil, "", err
	}
	return out, name, nil
}
