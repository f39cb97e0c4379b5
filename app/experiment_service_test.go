package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomix/internal/errors"
)

func newExperimentService() *ExperimentService {
	return NewExperimentService(ExperimentDefaults{Alpha: 0.1, Power: 0.9, GeoCV: 0.3}, nil)
}

func TestExperimentService_RequestDefaults(t *testing.T) {
	svc := newExperimentService()

	ab := svc.SampleSizeRequest(0.05, 10)
	assert.Equal(t, 0.1, ab.Alpha)
	assert.Equal(t, 0.9, ab.Power)

	geo := svc.GeoTestRequest(1000, 4, 10)
	assert.Equal(t, 0.3, geo.CV)
	assert.Equal(t, 4, geo.Weeks)
}

func TestExperimentService_SampleSize(t *testing.T) {
	svc := newExperimentService()

	plan, err := svc.SampleSize(context.Background(), svc.SampleSizeRequest(0.05, 10))
	require.NoError(t, err)
	assert.Positive(t, plan.PerGroup)
	assert.Equal(t, 2*plan.PerGroup, plan.Total)

	_, err = svc.SampleSize(context.Background(), svc.SampleSizeRequest(0.05, 0))
	assert.Equal(t, errors.CodeParameterDomain, errors.GetCode(err))
}

func TestExperimentService_GeoMDE(t *testing.T) {
	svc := newExperimentService()

	plan, err := svc.GeoMDE(context.Background(), svc.GeoTestRequest(100000, 4, 20))
	require.NoError(t, err)
	assert.Positive(t, plan.Result.MDEAbs)
	assert.Len(t, plan.Timeline, 4)

	_, err = svc.GeoMDE(context.Background(), svc.GeoTestRequest(100000, 0, 20))
	assert.Equal(t, errors.CodeParameterDomain, errors.GetCode(err))
}
