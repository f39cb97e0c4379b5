// Package experiment computes design parameters for A/B and geo-randomized
// tests from normal-approximation power theory.
package experiment

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"gomix/domain/core"
	"gomix/domain/experiment"
)

// GeoNotes accompanies every geo-test MDE.
const GeoNotes = "Approximation assumes independent geo-week observations with a constant coefficient of variation. " +
	"MDE decreases with more geos and longer duration; lower variability improves sensitivity. " +
	"For production decisions analyse lift with difference-in-differences or synthetic control."

// ZScores returns z_{1-alpha/2} and z_power. Their sum must be positive:
// a level and power that cancel out describe no test at all.
func ZScores(alpha, power float64) (zAlpha, zPower float64, err error) {
	if err := validateLevels(alpha, power); err != nil {
		return 0, 0, err
	}
	zAlpha, zPower = distuv.UnitNormal.Quantile(1-alpha/2), distuv.UnitNormal.Quantile(power)
	if zAlpha+zPower <= 0 {
		return 0, 0, core.NewParameterError("z_alpha+z_power", zAlpha+zPower, "> 0; lower alpha or raise power")
	}
	return zAlpha, zPower, nil
}

// SampleSizePerGroup returns the per-arm sample size needed to detect a
// relative lift of MDEPct percent over Baseline:
//
//	n = ceil((z_{1-α/2} + z_power)² σ² / δ²),  δ = Baseline·MDEPct/100
//
// Without an explicit Std, σ = sqrt(2·p̄(1−p̄)) with p̄ the midpoint of the
// baseline and treated rates, which only makes sense for proportions.
func SampleSizePerGroup(req experiment.SampleSizeRequest) (int, error) {
	n, _, _, err := sampleSize(req)
	return n, err
}

func sampleSize(req experiment.SampleSizeRequest) (n int, delta, sigma float64, err error) {
	zAlpha, zPower, err := ZScores(req.Alpha, req.Power)
	if err != nil {
		return 0, 0, 0, err
	}
	if !(req.Baseline > 0) || math.IsInf(req.Baseline, 0) {
		return 0, 0, 0, core.NewParameterError("baseline", req.Baseline, "> 0")
	}
	if !(req.MDEPct > 0) || math.IsInf(req.MDEPct, 0) {
		return 0, 0, 0, core.NewParameterError("mde_pct", req.MDEPct, "> 0")
	}

	delta = req.Baseline * (req.MDEPct / 100)
	if delta == 0 {
		return 0, 0, 0, core.ErrZeroEffect
	}

	if req.Std != nil {
		sigma = *req.Std
		if !(sigma > 0) || math.IsInf(sigma, 0) {
			return 0, 0, 0, core.NewParameterError("std", sigma, "> 0")
		}
	} else {
		pooled := (req.Baseline + (req.Baseline + delta)) / 2
		if pooled >= 1 {
			return 0, 0, 0, core.NewParameterError("pooled proportion", pooled, "< 1; supply std for non-proportion metrics")
		}
		sigma = math.Sqrt(2 * pooled * (1 - pooled))
	}

	z := zAlpha + zPower
	raw := z * z * sigma * sigma / (delta * delta)
	if math.IsInf(raw, 0) || math.IsNaN(raw) || raw >= math.MaxInt {
		return 0, delta, sigma, core.NewParameterError("required sample size", raw, "representable as int")
	}
	return int(math.Ceil(raw)), delta, sigma, nil
}

// GeoTestMDE returns the minimum detectable effect of a geo-test with
// GeosPerArm regions per arm observed for Weeks weeks:
//
//	se = sqrt(2)·cv·Baseline / sqrt(GeosPerArm·Weeks)
//	mde_abs = (z_{1-α/2} + z_power)·se
func GeoTestMDE(req experiment.GeoTestRequest) (experiment.PowerResult, error) {
	res, _, err := geoMDE(req)
	return res, err
}

func geoMDE(req experiment.GeoTestRequest) (experiment.PowerResult, float64, error) {
	zAlpha, zPower, err := ZScores(req.Alpha, req.Power)
	if err != nil {
		return experiment.PowerResult{}, 0, err
	}
	if math.IsNaN(req.Baseline) || req.Baseline < 0 || math.IsInf(req.Baseline, 0) {
		return experiment.PowerResult{}, 0, core.NewParameterError("baseline", req.Baseline, ">= 0")
	}
	if req.Weeks < 1 {
		return experiment.PowerResult{}, 0, core.NewParameterError("weeks", float64(req.Weeks), ">= 1")
	}
	if req.GeosPerArm < 1 {
		return experiment.PowerResult{}, 0, core.NewParameterError("geos_per_arm", float64(req.GeosPerArm), ">= 1")
	}
	if math.IsNaN(req.CV) || req.CV < 0 || math.IsInf(req.CV, 0) {
		return experiment.PowerResult{}, 0, core.NewParameterError("cv", req.CV, ">= 0")
	}

	std := req.CV * req.Baseline
	se := math.Sqrt2 * std / math.Sqrt(float64(req.GeosPerArm*req.Weeks))
	mdeAbs := (zAlpha + zPower) * se

	mdePct := 0.0
	if req.Baseline > 0 {
		mdePct = 100 * mdeAbs / req.Baseline
	}
	return experiment.PowerResult{MDEAbs: mdeAbs, MDEPct: mdePct, Notes: GeoNotes}, se, nil
}

func validateLevels(alpha, power float64) error {
	if !(alpha > 0 && alpha < 1) {
		return core.NewParameterError("alpha", alpha, "(0,1)")
	}
	if !(power > 0 && power < 1) {
		return core.NewParameterError("power", power, "(0,1)")
	}
	return nil
}
