package experiment

import (
	"fmt"

	"gomix/domain/core"
	"gomix/domain/experiment"
)

// ABChecklist is the readiness checklist shown with every A/B sample size.
func ABChecklist() []string {
	return []string{
		"Define primary KPI and guardrails",
		"Randomize unit (user/session/geo) and confirm logging",
		"Run a full business cycle (at least 1-2 weeks, covers weekday seasonality)",
		"Avoid peeking; pre-register the decision rule",
	}
}

// GeoTimeline lays out the rollout of a geo-test lasting weeks weeks.
func GeoTimeline(weeks int) ([]experiment.TimelineStep, error) {
	if weeks < 1 {
		return nil, core.NewParameterError("weeks", float64(weeks), ">= 1")
	}
	return []experiment.TimelineStep{
		{Week: "W-2 to W-1", Action: "Select geos, match treatment/control, confirm tracking"},
		{Week: "W0", Action: "Launch spend change in treatment geos only"},
		{Week: fmt.Sprintf("W1–W%d", weeks), Action: "Monitor compliance and guardrails (no decision peeking)"},
		{Week: fmt.Sprintf("W%d", weeks+1), Action: "Analyze lift (DiD/synthetic control), write exec summary"},
	}, nil
}

// PlanSampleSize computes the A/B sample size with its derivation.
func PlanSampleSize(req experiment.SampleSizeRequest) (experiment.SampleSizePlan, error) {
	n, delta, sigma, err := sampleSize(req)
	if err != nil {
		return experiment.SampleSizePlan{}, err
	}
	return experiment.SampleSizePlan{
		Request:        req,
		PerGroup:       n,
		Total:          2 * n,
		AbsoluteEffect: delta,
		Std:            sigma,
		StdDerived:     req.Std == nil,
		Checklist:      ABChecklist(),
	}, nil
}

// PlanGeoTest computes the geo-test MDE with its standard error and timeline.
func PlanGeoTest(req experiment.GeoTestRequest) (experiment.GeoTestPlan, error) {
	res, se, err := geoMDE(req)
	if err != nil {
		return experiment.GeoTestPlan{}, err
	}
	timeline, err := GeoTimeline(req.Weeks)
	if err != nil {
		return experiment.GeoTestPlan{}, err
	}
	return experiment.GeoTestPlan{
		Request:  req,
		Result:   res,
		StdErr:   se,
		Timeline: timeline,
	}, nil
}
