package app

import (
	"context"
	"time"

	"gomix/domain/experiment"
	"gomix/internal"
	"gomix/internal/errors"
	power "gomix/internal/experiment"
)

// ExperimentDefaults holds the configured significance, power and geo CV.
type ExperimentDefaults struct {
	Alpha float64
	Power float64
	GeoCV float64
}

// ExperimentService plans A/B and geo tests.
type ExperimentService struct {
	defaults ExperimentDefaults
	logger   *internal.Logger
}

// NewExperimentService creates an experiment design service
func NewExperimentService(defaults ExperimentDefaults, logger *internal.Logger) *ExperimentService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ExperimentService{defaults: defaults, logger: logger.With("Experiment")}
}

// SampleSizeRequest fills alpha and power from the configured defaults.
func (s *ExperimentService) SampleSizeRequest(baseline, mdePct float64) experiment.SampleSizeRequest {
	req := experiment.NewSampleSizeRequest(baseline, mdePct)
	req.Alpha = s.defaults.Alpha
	req.Power = s.defaults.Power
	return req
}

// GeoTestRequest fills alpha, power and cv from the configured defaults.
func (s *ExperimentService) GeoTestRequest(baseline float64, weeks, geosPerArm int) experiment.GeoTestRequest {
	req := experiment.NewGeoTestRequest(baseline, weeks, geosPerArm)
	req.Alpha = s.defaults.Alpha
	req.Power = s.defaults.Power
	req.CV = s.defaults.GeoCV
	return req
}

// SampleSize plans an A/B test.
func (s *ExperimentService) SampleSize(ctx context.Context, req experiment.SampleSizeRequest) (*experiment.SampleSizePlan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	plan, err := power.PlanSampleSize(req)
	experimentCalcTotal.WithLabelValues("ab_sample_size", resultLabel(err)).Inc()
	if err != nil {
		s.logger.Debug("sample size rejected: %v", err)
		return nil, errors.Wrap(err, "sample size")
	}
	s.logger.Info("sample size: baseline=%g mde=%g%% -> %d per group in %s",
		req.Baseline, req.MDEPct, plan.PerGroup, time.Since(start))
	return &plan, nil
}

// GeoMDE plans a geo test.
func (s *ExperimentService) GeoMDE(ctx context.Context, req experiment.GeoTestRequest) (*experiment.GeoTestPlan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	plan, err := power.PlanGeoTest(req)
	experimentCalcTotal.WithLabelValues("geo_mde", resultLabel(err)).Inc()
	if err != nil {
		s.logger.Debug("geo MDE rejected: %v", err)
		return nil, errors.Wrap(err, "geo MDE")
	}
	s.logger.Info("geo MDE: %d weeks x %d geos/arm -> %.2f (%.2f%%) in %s",
		req.Weeks, req.GeosPerArm, plan.Result.MDEAbs, plan.Result.MDEPct, time.Since(start))
	return &plan, nil
}
