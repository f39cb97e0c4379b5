package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type sampleSizeBody struct {
	Baseline *float64 `json:"baseline"`
	MDEPct   *float64 `json:"mde_pct"`
	Alpha    *float64 `json:"alpha"`
	Power    *float64 `json:"power"`
	Std      *float64 `json:"std"`
}

type geoMDEBody struct {
	Baseline   *float64 `json:"baseline"`
	Weeks      *int     `json:"weeks"`
	GeosPerArm *int     `json:"geos_per_arm"`
	Alpha      *float64 `json:"alpha"`
	Power      *float64 `json:"power"`
	CV         *float64 `json:"cv"`
}

func (s *Server) handleSampleSize(c *gin.Context) {
	var body sampleSizeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.writeError(c, invalidInput("invalid JSON body: "+err.Error()))
		return
	}
	if body.Baseline == nil || body.MDEPct == nil {
		s.writeError(c, invalidInput("baseline and mde_pct are required"))
		return
	}

	req := s.experiments.SampleSizeRequest(*body.Baseline, *body.MDEPct)
	if body.Alpha != nil {
		req.Alpha = *body.Alpha
	}
	if body.Power != nil {
		req.Power = *body.Power
	}
	req.Std = body.Std

	plan, err := s.experiments.SampleSize(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (s *Server) handleGeoMDE(c *gin.Context) {
	var body geoMDEBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.writeError(c, invalidInput("invalid JSON body: "+err.Error()))
		return
	}
	if body.Baseline == nil || body.Weeks == nil || body.GeosPerArm == nil {
		s.writeError(c, invalidInput("baseline, weeks and geos_per_arm are required"))
		return
	}

	req := s.experiments.GeoTestRequest(*body.Baseline, *body.Weeks, *body.GeosPerArm)
	if body.Alpha != nil {
		req.Alpha = *body.Alpha
	}
	if body.Power != nil {
		req.Power = *body.Power
	}
	if body.CV != nil {
		req.CV = *body.CV
	}

	plan, err := s.experiments.GeoMDE(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}
