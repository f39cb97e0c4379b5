package app

import (
	"context"
	"io"
	"math"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"gomix/domain/attribution"
	"gomix/domain/core"
	"gomix/domain/dataset"
	"gomix/internal"
	mmm "gomix/internal/attribution"
	"gomix/internal/demodata"
	"gomix/internal/errors"
	"gomix/ports"
)

// AttributionService runs attribution analyses for the API and CLI. It owns
// run ids, logging, metrics and context handling; the math lives in
// internal/attribution.
type AttributionService struct {
	reader      ports.DatasetReader
	defaults    attribution.Params
	sweepDecays []float64
	logger      *internal.Logger
}

// AttributionOptions configures an AttributionService.
type AttributionOptions struct {
	Defaults    attribution.Params
	SweepDecays []float64
	Logger      *internal.Logger
}

// NewAttributionService creates an attribution service
func NewAttributionService(reader ports.DatasetReader, opts AttributionOptions) *AttributionService {
	if opts.Logger == nil {
		opts.Logger = internal.DefaultLogger
	}
	if len(opts.SweepDecays) == 0 {
		opts.SweepDecays = []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}
	}
	return &AttributionService{
		reader:      reader,
		defaults:    opts.Defaults,
		sweepDecays: append([]float64(nil), opts.SweepDecays...),
		logger:      opts.Logger.With("Attribution"),
	}
}

// Defaults returns the configured model parameters.
func (s *AttributionService) Defaults() attribution.Params { return s.defaults }

// SweepDecays returns the configured decay grid.
func (s *AttributionService) SweepDecays() []float64 {
	return append([]float64(nil), s.sweepDecays...)
}

// Analyze runs the attribution pipeline on an in-memory dataset.
func (s *AttributionService) Analyze(ctx context.Context, ds dataset.Dataset, params attribution.Params) (*attribution.Result, error) {
	start := time.Now()
	runID := core.NewRunID()
	s.logger.Debug("run %s: %d rows, %d columns, decay=%.2f saturation=%t",
		runID, ds.Len(), len(ds.Columns), params.Decay, params.Saturation)

	res, err := withContext(ctx, func() (attribution.Result, error) {
		return mmm.Analyze(ds, params)
	})
	observeAttribution("analyze", start, err)
	if err != nil {
		s.logger.Warn("run %s failed: %v", runID, err)
		return nil, errors.Wrapf(err, "attribution run %s", runID)
	}

	res.RunID = runID
	attributionRowsUsed.Observe(float64(res.UsedRows))
	s.logger.Info("run %s: %d/%d rows, %d channels, R²=%.3f in %s",
		runID, res.UsedRows, res.InputRows, len(res.Roles.Spend), res.Model.R2, time.Since(start))
	if res.Model.Rank < len(res.Model.Features) {
		s.logger.Warn("run %s: design rank %d < %d features, channel split is not identifiable",
			runID, res.Model.Rank, len(res.Model.Features))
	}
	return &res, nil
}

// AnalyzeFile reads a CSV or Excel file from disk and analyses it.
func (s *AttributionService) AnalyzeFile(ctx context.Context, path string, params attribution.Params) (*attribution.Result, error) {
	ds, err := s.reader.ReadFile(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return s.Analyze(ctx, ds, params)
}

// AnalyzeUpload reads an uploaded file, typed by its name, and analyses it.
func (s *AttributionService) AnalyzeUpload(ctx context.Context, r io.Reader, name string, params attribution.Params) (*attribution.Result, error) {
	ds, err := s.reader.ReadNamed(ctx, r, name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read upload %s", name)
	}
	return s.Analyze(ctx, ds, params)
}

// ReadUpload parses an upload without analysing it.
func (s *AttributionService) ReadUpload(ctx context.Context, r io.Reader, name string) (dataset.Dataset, error) {
	ds, err := s.reader.ReadNamed(ctx, r, name)
	if err != nil {
		return dataset.Dataset{}, errors.Wrapf(err, "failed to read upload %s", name)
	}
	return ds, nil
}

// Sweep fits the model once per decay and reports fit quality for each.
// Fits run concurrently, at most GOMAXPROCS at a time. An empty decay list
// uses the configured grid. Every decay is validated before any fit starts.
func (s *AttributionService) Sweep(ctx context.Context, ds dataset.Dataset, decays []float64, saturation bool) (*attribution.SweepResult, error) {
	start := time.Now()
	if len(decays) == 0 {
		decays = s.sweepDecays
	}
	for _, d := range decays {
		if err := (attribution.Params{Decay: d, Saturation: saturation}).Validate(); err != nil {
			observeAttribution("sweep", start, err)
			return nil, err
		}
	}
	roles, err := mmm.ResolveColumns(ds.Columns)
	if err != nil {
		observeAttribution("sweep", start, err)
		return nil, err
	}

	runID := core.NewRunID()
	points := make([]attribution.SweepPoint, len(decays))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, decay := range decays {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			params := attribution.Params{Decay: decay, Saturation: saturation}
			design, err := mmm.BuildDesign(ds, roles, params)
			if err != nil {
				return err
			}
			model, err := mmm.Fit(design)
			if err != nil {
				return err
			}
			points[i] = attribution.SweepPoint{Decay: decay, R2: model.R2, AdjR2: model.AdjR2, Rows: model.N}
			s.logger.Trace("sweep %s: decay=%.2f adj R²=%.4f", runID, decay, model.AdjR2)
			return nil
		})
	}
	err = g.Wait()
	observeAttribution("sweep", start, err)
	if err != nil {
		s.logger.Warn("sweep %s failed: %v", runID, err)
		return nil, errors.Wrapf(err, "decay sweep %s", runID)
	}

	res := &attribution.SweepResult{
		RunID:      runID,
		Saturation: saturation,
		Points:     points,
		BestDecay:  BestDecay(points),
	}
	s.logger.Info("sweep %s: %d decays, best %.2f in %s", runID, len(points), res.BestDecay, time.Since(start))
	return res, nil
}

// BestDecay sorts points by decay and returns the decay with the highest
// adjusted R². Ties go to the smaller decay; NaN is never best.
func BestDecay(points []attribution.SweepPoint) float64 {
	sort.SliceStable(points, func(i, j int) bool { return points[i].Decay < points[j].Decay })
	best, bestScore := 0.0, math.Inf(-1)
	for _, p := range points {
		if p.AdjR2 > bestScore {
			best, bestScore = p.Decay, p.AdjR2
		}
	}
	if math.IsInf(bestScore, -1) && len(points) > 0 {
		return points[0].Decay
	}
	return best
}

// DemoData generates the synthetic demo dataset for a seed.
func (s *AttributionService) DemoData(seed int64) (*demodata.Dataset, error) {
	cfg := demodata.DefaultConfig()
	cfg.Seed = seed
	return demodata.Generate(cfg)
}

// Demo analyses the synthetic demo dataset.
func (s *AttributionService) Demo(ctx context.Context, seed int64, params attribution.Params) (*attribution.Result, error) {
	data, err := s.DemoData(seed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate demo data")
	}
	s.logger.Debug("demo data: seed=%d, %d weeks", seed, len(data.Rows))
	return s.Analyze(ctx, data.Dataset(), params)
}

// withContext runs fn and returns early when ctx ends first. fn keeps
// running to completion in the background; it must not touch shared state.
func withContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn()
		done <- outcome{v, err}
	}()
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case o := <-done:
		return o.value, o.err
	}
}
