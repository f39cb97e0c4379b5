package experiment

// SampleSizeRequest holds the inputs of an A/B sample size calculation.
// Std is optional; when nil it is derived from a pooled proportion.
type SampleSizeRequest struct {
	Baseline float64  `json:"baseline"`
	MDEPct   float64  `json:"mde_pct"`
	Alpha    float64  `json:"alpha"`
	Power    float64  `json:"power"`
	Std      *float64 `json:"std,omitempty"`
}

// NewSampleSizeRequest fills alpha=0.05 and power=0.8.
func NewSampleSizeRequest(baseline, mdePct float64) SampleSizeRequest {
	return SampleSizeRequest{Baseline: baseline, MDEPct: mdePct, Alpha: 0.05, Power: 0.8}
}

// SampleSizePlan is a sample size with its derivation and checklist.
type SampleSizePlan struct {
	Request        SampleSizeRequest `json:"request"`
	PerGroup       int               `json:"per_group"`
	Total          int               `json:"total"`
	AbsoluteEffect float64           `json:"absolute_effect"`
	Std            float64           `json:"std"`
	StdDerived     bool              `json:"std_derived"`
	Checklist      []string          `json:"checklist"`
}

// GeoTestRequest holds the inputs of a geo-test MDE calculation.
type GeoTestRequest struct {
	Baseline   float64 `json:"baseline"`
	Weeks      int     `json:"weeks"`
	GeosPerArm int     `json:"geos_per_arm"`
	Alpha      float64 `json:"alpha"`
	Power      float64 `json:"power"`
	CV         float64 `json:"cv"`
}

// NewGeoTestRequest fills alpha=0.05, power=0.8 and cv=0.2.
func NewGeoTestRequest(baseline float64, weeks, geosPerArm int) GeoTestRequest {
	return GeoTestRequest{
		Baseline:   baseline,
		Weeks:      weeks,
		GeosPerArm: geosPerArm,
		Alpha:      0.05,
		Power:      0.8,
		CV:         0.2,
	}
}

// PowerResult is the minimum detectable effect of a geo-test.
type PowerResult struct {
	MDEAbs float64 `json:"mde_abs"`
	MDEPct float64 `json:"mde_pct"`
	Notes  string  `json:"notes"`
}

// TimelineStep is one row of a rollout plan.
type TimelineStep struct {
	Week   string `json:"week"`
	Action string `json:"action"`
}

// GeoTestPlan is an MDE with its standard error and rollout timeline.
type GeoTestPlan struct {
	Request  GeoTestRequest `json:"request"`
	Result   PowerResult    `json:"result"`
	StdErr   float64        `json:"std_err"`
	Timeline []TimelineStep `json:"timeline"`
}
