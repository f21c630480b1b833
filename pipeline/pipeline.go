// Package pipeline runs an ordered sequence of preprocessing stages over a
// raster image, optionally fanning each stage out over horizontal strips.
// From the caller's perspective Preprocess is synchronous and pure: it blocks
// until every stage finished, never mutates its input, and on failure hands
// back the untouched input image alongside the error.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wudi/docprep/observability"
	"github.com/wudi/docprep/raster"
	"github.com/wudi/docprep/recovery"
	"github.com/wudi/docprep/stages"
)

// ErrCanceled reports a caller-requested abort. Cancellation is only honored
// between stages, never mid-stage; the wrapping CanceledError records the
// last stage that completed.
var ErrCanceled = errors.New("pipeline: run canceled")

// CanceledError wraps ErrCanceled with the last completed stage.
type CanceledError struct {
	// LastStage names the stage that finished before the abort; empty when
	// no stage had run yet.
	LastStage string
}

func (e *CanceledError) Error() string {
	if e.LastStage == "" {
		return "pipeline: run canceled before first stage"
	}
	return fmt.Sprintf("pipeline: run canceled after stage %s", e.LastStage)
}

func (e *CanceledError) Unwrap() error { return ErrCanceled }

// StageError reports a stage whose structural preconditions were violated.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// minStripRows is the smallest strip worth dispatching to a worker; below it
// the fan-out overhead outweighs the work.
const minStripRows = 64

// Pipeline executes stages in order. The zero value is not usable; construct
// with New.
type Pipeline struct {
	stages   []stages.Stage
	workers  int
	strategy recovery.Strategy
	logger   observability.Logger
	tracer   observability.Tracer
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithWorkers sets the strip fan-out width. 1 disables parallelism; the
// default is the number of CPUs.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithStrategy sets the failure policy. The default is strict: the first
// stage error aborts the run.
func WithStrategy(s recovery.Strategy) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.strategy = s
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l observability.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithTracer attaches a tracer; a span is opened per run and per stage.
func WithTracer(t observability.Tracer) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.tracer = t
		}
	}
}

// New builds a pipeline over the given stages, which run in slice order.
func New(stageList []stages.Stage, opts ...Option) *Pipeline {
	p := &Pipeline{
		stages:   append([]stages.Stage(nil), stageList...),
		workers:  runtime.GOMAXPROCS(0),
		strategy: recovery.NewStrictStrategy(),
		logger:   observability.NopLogger{},
		tracer:   observability.NopTracer(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stages returns the configured stages in execution order.
func (p *Pipeline) Stages() []stages.Stage {
	return append([]stages.Stage(nil), p.stages...)
}

// Preprocess runs every enabled stage over img and returns the processed
// image. The input is never mutated and the output never aliases it. On
// error the returned image is the original input, so callers can retry with
// different options or fall back to the unprocessed scan.
func (p *Pipeline) Preprocess(ctx context.Context, img *raster.Image) (*raster.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", raster.ErrInvalidDimensions)
	}
	if err := img.Validate(); err != nil {
		return img, err
	}

	ctx, span := p.tracer.StartSpan(ctx, "prep.pipeline")
	defer span.Finish()
	start := time.Now()

	overlap := p.maxKernelRadius()
	current := img
	lastCompleted := ""
	for _, st := range p.stages {
		if !st.Enabled() {
			continue
		}
		if ctx.Err() != nil {
			err := &CanceledError{LastStage: lastCompleted}
			span.SetError(err)
			return img, err
		}

		stageStart := time.Now()
		out, err := p.runStage(ctx, st, current, overlap)
		if err != nil {
			if ctx.Err() != nil {
				cerr := &CanceledError{LastStage: lastCompleted}
				span.SetError(cerr)
				return img, cerr
			}
			serr := &StageError{Stage: st.Name(), Err: err}
			switch p.strategy.OnStageError(st.Name(), err) {
			case recovery.ActionSkip:
				p.logger.Debug("stage skipped", observability.String("stage", st.Name()), observability.Error("err", err))
				continue
			case recovery.ActionWarn:
				p.logger.Warn("stage skipped", observability.String("stage", st.Name()), observability.Error("err", err))
				continue
			default:
				span.SetError(serr)
				return img, serr
			}
		}
		p.logger.Debug("stage complete",
			observability.String("stage", st.Name()),
			observability.Duration(observability.MetricStageTime, time.Since(stageStart)))
		current = out
		lastCompleted = st.Name()
	}

	p.logger.Debug("pipeline complete",
		observability.Duration(observability.MetricPipelineTime, time.Since(start)))
	if current == img {
		// No enabled stage ran; keep the no-alias guarantee.
		return img.Clone(), nil
	}
	return current, nil
}

func (p *Pipeline) maxKernelRadius() int {
	max := 0
	for _, st := range p.stages {
		if st.Enabled() && st.KernelRadius() > max {
			max = st.KernelRadius()
		}
	}
	return max
}

// runStage applies one stage, splitting the image into row strips when the
// stage permits it and the geometry makes it worthwhile.
func (p *Pipeline) runStage(ctx context.Context, st stages.Stage, img *raster.Image, overlap int) (*raster.Image, error) {
	ctx, span := p.tracer.StartSpan(ctx, "prep.stage."+st.Name())
	defer span.Finish()

	strips := p.workers
	if w, ok := st.(stages.WholeImage); ok && w.WholeImage() {
		strips = 1
	}
	if strips > img.Height/minStripRows {
		strips = img.Height / minStripRows
	}
	if strips <= 1 {
		return st.Apply(img)
	}
	span.SetTag(observability.MetricStripCount, strips)

	type stripResult struct {
		out       *raster.Image
		trimStart int
		rows      int
	}
	results := make([]stripResult, strips)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < strips; i++ {
		y0 := i * img.Height / strips
		y1 := (i + 1) * img.Height / strips
		ext0 := y0 - overlap
		if ext0 < 0 {
			ext0 = 0
		}
		ext1 := y1 + overlap
		if ext1 > img.Height {
			ext1 = img.Height
		}
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			view, err := img.SubRows(ext0, ext1)
			if err != nil {
				return err
			}
			out, err := st.Apply(view)
			if err != nil {
				return err
			}
			results[i] = stripResult{out: out, trimStart: y0 - ext0, rows: y1 - y0}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.SetError(err)
		return nil, err
	}

	// Recombine in original row order, trimming the overlap each strip
	// processed beyond its own rows. Strip index order is what guarantees
	// deterministic output regardless of worker completion order.
	format := results[0].out.Format
	out, err := raster.New(img.Width, img.Height, format)
	if err != nil {
		return nil, err
	}
	y := 0
	for _, r := range results {
		if r.out.Width != img.Width || r.out.Format != format {
			return nil, fmt.Errorf("pipeline: inconsistent strip output (%dx%d %v)", r.out.Width, r.out.Height, r.out.Format)
		}
		for row := 0; row < r.rows; row++ {
			copy(out.Row(y), r.out.Row(r.trimStart+row))
			y++
		}
	}
	if y != img.Height {
		return nil, fmt.Errorf("pipeline: assembled %d of %d rows", y, img.Height)
	}
	return out, nil
}
