package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomix/domain/core"
	"gomix/domain/experiment"
)

func TestPlanSampleSize(t *testing.T) {
	req := experiment.NewSampleSizeRequest(0.05, 10)
	plan, err := PlanSampleSize(req)
	require.NoError(t, err)

	n, err := SampleSizePerGroup(req)
	require.NoError(t, err)
	assert.Equal(t, n, plan.PerGroup)
	assert.Equal(t, 2*n, plan.Total)
	assert.InDelta(t, 0.005, plan.AbsoluteEffect, 1e-12)
	assert.True(t, plan.StdDerived)
	assert.Len(t, plan.Checklist, 4)
}

func TestPlanGeoTest(t *testing.T) {
	plan, err := PlanGeoTest(experiment.NewGeoTestRequest(100000, 6, 12))
	require.NoError(t, err)

	assert.Positive(t, plan.StdErr)
	require.Len(t, plan.Timeline, 4)
	assert.Equal(t, "W1–W6", plan.Timeline[2].Week)
	assert.Equal(t, "W7", plan.Timeline[3].Week)
}

func TestGeoTimeline_RejectsZeroWeeks(t *testing.T) {
	_, err := GeoTimeline(0)
	assert.True(t, core.IsParameterError(err))
}
