package risk

import (
	"math"

	"github.com/banshee-data/fall.report/internal/biomech/geometry"
	"github.com/banshee-data/fall.report/internal/biomech/support"
	"github.com/banshee-data/fall.report/internal/config"
	"github.com/banshee-data/fall.report/internal/pose"
)

// Params holds the fusion weights and thresholds.
type Params struct {
	KneeAngleBase       float64 // kneeRisk = max(0, base − effectiveAngle)
	KneeWeight          float64
	StabilityWeight     float64
	EnvWeight           float64
	SpinePoorPenalty    float64 // added after the freefall override, before the clamp
	HandSupportBonusDeg float64 // effective knee angle credit when a hand braces
	HandSupportDistance float64 // wrist-to-knee distance that counts as bracing
}

// ParamsFromTuning builds Params from a loaded TuningConfig.
func ParamsFromTuning(cfg *config.TuningConfig) Params {
	return Params{
		KneeAngleBase:       cfg.GetKneeAngleBase(),
		KneeWeight:          cfg.GetKneeWeight(),
		StabilityWeight:     cfg.GetStabilityWeight(),
		EnvWeight:           cfg.GetEnvWeight(),
		SpinePoorPenalty:    cfg.GetSpinePoorPenalty(),
		HandSupportBonusDeg: cfg.GetHandSupportBonusDeg(),
		HandSupportDistance: cfg.GetHandSupportDistance(),
	}
}

// Inputs carries one frame's signals into the fusion.
type Inputs struct {
	// KneeAngles holds the measured knee angle per leg, degrees.
	KneeAngles [2]float64
	// Support is the leg-support/sitting classification for this frame.
	Support support.Result
	// HandSupport is true when a wrist braces near either knee.
	HandSupport bool
	// Stability is the 0–100 postural stability score.
	Stability float64
	// Spine is the spinal tilt classification.
	Spine geometry.SpineStatus
	// Impact is the vertical impact load factor (≥ 1.0).
	Impact float64
	// Freefall forces the composite to maximum.
	Freefall bool
	// Hazard is the environmental hazard flag (obstacle near the feet).
	Hazard bool
}

// Snapshot is the fused per-frame risk output. Recomputed fresh every
// frame and read-only once emitted.
type Snapshot struct {
	KneeRisk       float64              `json:"knee_risk"`
	StabilityRisk  float64              `json:"stability_risk"`
	EnvRisk        float64              `json:"env_risk"`
	SpineStatus    geometry.SpineStatus `json:"spine_status"`
	ImpactFactor   float64              `json:"impact_factor"`
	EffectiveAngle float64              `json:"effective_angle"`
	CompositeRisk  float64              `json:"composite_risk"`
}

// EffectiveKneeAngle returns the minimum knee angle across supported
// legs only; airborne legs carry no load and are excluded. With no
// supported leg and no seat the subject is not loading either knee, so
// the whole computation defaults to the neutral 180°. Sitting forces the
// neutral angle regardless of the measured flexion — a bent knee on a
// chair is not a loaded knee. A bracing hand credits the angle by
// bonusDeg, capped at neutral.
func EffectiveKneeAngle(angles [2]float64, sup support.Result, handSupport bool, bonusDeg float64) float64 {
	if sup.Sitting {
		return geometry.NeutralAngleDeg
	}

	angle := geometry.NeutralAngleDeg
	found := false
	for l := support.LeftLeg; l <= support.RightLeg; l++ {
		if !sup.Supported(l) {
			continue
		}
		if !found || angles[l] < angle {
			angle = angles[l]
			found = true
		}
	}
	if !found {
		return geometry.NeutralAngleDeg
	}

	if handSupport {
		angle += bonusDeg
		if angle > geometry.NeutralAngleDeg {
			angle = geometry.NeutralAngleDeg
		}
	}
	return angle
}

// HandSupport reports whether either wrist is within maxDistance of
// either knee — the subject bracing their descent on a knee or nearby
// surface, which offloads the joint.
func HandSupport(lms *[pose.NumLandmarks]pose.Landmark, maxDistance float64) bool {
	wrists := [2]int{pose.LeftWrist, pose.RightWrist}
	knees := [2]int{pose.LeftKnee, pose.RightKnee}
	for _, w := range wrists {
		if lms[w].Visibility <= 0 {
			continue
		}
		for _, k := range knees {
			if lms[k].Visibility <= 0 {
				continue
			}
			if lms[w].Point().Dist(lms[k].Point()) <= maxDistance {
				return true
			}
		}
	}
	return false
}

// Fuse combines one frame's signals into a Snapshot. The ordering is
// fixed: weighted sum, freefall override, spine penalty, clamp.
func Fuse(in Inputs, p Params) Snapshot {
	effectiveAngle := EffectiveKneeAngle(in.KneeAngles, in.Support, in.HandSupport, p.HandSupportBonusDeg)

	kneeRisk := math.Max(0, p.KneeAngleBase-effectiveAngle)
	stabilityRisk := clamp(100-in.Stability, 0, 100)
	envRisk := 0.0
	if in.Hazard {
		envRisk = 100
	}

	composite := kneeRisk*p.KneeWeight + stabilityRisk*p.StabilityWeight + envRisk*p.EnvWeight
	if in.Freefall {
		composite = 100
	}
	if in.Spine == geometry.SpinePoor {
		composite += p.SpinePoorPenalty
	}
	composite = clamp(composite, 0, 100)

	return Snapshot{
		KneeRisk:       kneeRisk,
		StabilityRisk:  stabilityRisk,
		EnvRisk:        envRisk,
		SpineStatus:    in.Spine,
		ImpactFactor:   in.Impact,
		EffectiveAngle: effectiveAngle,
		CompositeRisk:  composite,
	}
}

// SafeSnapshot is the output for frames with no usable subject: neutral
// angles, zero risk, upright spine, unit impact. False negatives at this
// layer are preferred to pipeline crashes; escalation belongs upstream.
func SafeSnapshot() Snapshot {
	return Snapshot{
		SpineStatus:    geometry.SpineGood,
		ImpactFactor:   1.0,
		EffectiveAngle: geometry.NeutralAngleDeg,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
