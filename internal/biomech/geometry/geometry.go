package geometry

import (
	"math"

	"github.com/banshee-data/fall.report/internal/pose"
)

// NeutralAngleDeg is the "no stress" joint angle returned whenever an
// angle cannot be measured. A fully extended joint reads 180°, so the
// safe fallback is indistinguishable from a relaxed limb.
const NeutralAngleDeg = 180.0

// minVectorMagnitude rejects zero-length limb vectors before the
// dot-product division.
const minVectorMagnitude = 1e-9

// SpineStatus classifies spinal tilt.
type SpineStatus string

const (
	SpineGood SpineStatus = "good"
	SpinePoor SpineStatus = "poor"
)

// usable reports whether a landmark carries any positional information.
// A nil landmark or one the pose model marked fully invisible is treated
// as missing input.
func usable(l *pose.Landmark) bool {
	return l != nil && l.Visibility > 0
}

// JointAngle returns the angle in degrees at vertex b between the
// vectors b→a and b→c, computed in 3D via the dot-product/arc-cosine
// formula (z contributes when present; 2D inputs simply carry z = 0).
// The result is always in [0, 180]. Missing landmarks or zero-magnitude
// vectors return NeutralAngleDeg.
func JointAngle(a, b, c *pose.Landmark) float64 {
	if !usable(a) || !usable(b) || !usable(c) {
		return NeutralAngleDeg
	}

	ba := a.Point().Sub(b.Point())
	bc := c.Point().Sub(b.Point())

	magBA := ba.Norm()
	magBC := bc.Norm()
	if magBA < minVectorMagnitude || magBC < minVectorMagnitude {
		return NeutralAngleDeg
	}

	dot := ba.X*bc.X + ba.Y*bc.Y + ba.Z*bc.Z
	cos := dot / (magBA * magBC)
	// Floating error can push |cos| fractionally past 1; clamp before acos.
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}

// StabilityScore maps the horizontal deviation between the hip centre
// and the ankle centre to a 0–100 score: zero deviation scores 100, and
// the score falls linearly at deviationGain points per unit of
// normalised deviation, floored at 0. Missing hips or ankles return the
// maximally stable score.
func StabilityScore(lms *[pose.NumLandmarks]pose.Landmark, deviationGain float64) float64 {
	if !usable(&lms[pose.LeftHip]) || !usable(&lms[pose.RightHip]) ||
		!usable(&lms[pose.LeftAnkle]) || !usable(&lms[pose.RightAnkle]) {
		return 100
	}
	hipX := pose.HipCenter(lms).X
	ankleX := pose.AnkleCenter(lms).X
	deviation := math.Abs(hipX - ankleX)
	return math.Max(0, 100-deviation*deviationGain)
}

// SpineTilt returns the angle in degrees between the shoulder-centre →
// hip-centre vector and vertical, in [0, 90]. Missing landmarks or a
// degenerate torso vector return 0 (upright, the safe reading).
func SpineTilt(lms *[pose.NumLandmarks]pose.Landmark) float64 {
	if !usable(&lms[pose.LeftShoulder]) || !usable(&lms[pose.RightShoulder]) ||
		!usable(&lms[pose.LeftHip]) || !usable(&lms[pose.RightHip]) {
		return 0
	}
	shoulder := pose.ShoulderCenter(lms)
	hip := pose.HipCenter(lms)
	dx := math.Abs(hip.X - shoulder.X)
	dy := math.Abs(hip.Y - shoulder.Y)
	if dx < minVectorMagnitude && dy < minVectorMagnitude {
		return 0
	}
	return math.Atan2(dx, dy) * 180 / math.Pi
}

// ClassifySpine maps a tilt angle to a status given the poor-posture
// threshold in degrees.
func ClassifySpine(tiltDeg, poorThresholdDeg float64) SpineStatus {
	if tiltDeg > poorThresholdDeg {
		return SpinePoor
	}
	return SpineGood
}

// ImpactFactor models amplified joint loading on fast descent. dy is the
// hip-centre vertical displacement between consecutive frames (positive
// means downward in image space). At or below dyThreshold the factor is
// exactly 1.0 (no extra load); above it the factor grows linearly with
// slope gain.
func ImpactFactor(dy, dyThreshold, gain float64) float64 {
	if dy <= dyThreshold {
		return 1.0
	}
	return 1.0 + (dy-dyThreshold)*gain
}

// Freefall reports rapid downward motion that is still accelerating:
// accel = dy − previousVelocity must exceed accelThreshold while dy
// itself exceeds dyThreshold. The caller persists dy as the next call's
// previousVelocity.
func Freefall(dy, previousVelocity, accelThreshold, dyThreshold float64) bool {
	accel := dy - previousVelocity
	return accel > accelThreshold && dy > dyThreshold
}

// HipDy returns the hip-centre vertical displacement from the previous
// frame to the current one, and whether it could be computed. Positive
// values are downward motion.
func HipDy(current, previous *[pose.NumLandmarks]pose.Landmark) (float64, bool) {
	if previous == nil {
		return 0, false
	}
	if !usable(&current[pose.LeftHip]) || !usable(&current[pose.RightHip]) ||
		!usable(&previous[pose.LeftHip]) || !usable(&previous[pose.RightHip]) {
		return 0, false
	}
	return pose.HipCenter(current).Y - pose.HipCenter(previous).Y, true
}

// GeometricFall reports a prone posture independent of any risk score:
// the shoulder–hip line lies closer than angleThresholdDeg to horizontal
// AND the hip centre sits below hipYThreshold in the frame (y grows
// downward, so larger y is lower). Both conditions are required; missing
// landmarks report no fall.
func GeometricFall(lms *[pose.NumLandmarks]pose.Landmark, angleThresholdDeg, hipYThreshold float64) bool {
	if !usable(&lms[pose.LeftShoulder]) || !usable(&lms[pose.RightShoulder]) ||
		!usable(&lms[pose.LeftHip]) || !usable(&lms[pose.RightHip]) {
		return false
	}
	shoulder := pose.ShoulderCenter(lms)
	hip := pose.HipCenter(lms)

	dx := math.Abs(hip.X - shoulder.X)
	dy := math.Abs(hip.Y - shoulder.Y)
	if dx < minVectorMagnitude && dy < minVectorMagnitude {
		return false
	}
	angleFromHorizontal := math.Atan2(dy, dx) * 180 / math.Pi

	return angleFromHorizontal < angleThresholdDeg && hip.Y > hipYThreshold
}
