package geometry

import (
	"math"
	"testing"

	"github.com/banshee-data/fall.report/internal/pose"
)

func lm(x, y, z float64) pose.Landmark {
	return pose.Landmark{X: x, Y: y, Z: z, Visibility: 1}
}

// skeleton builds a full landmark array with every joint visible at the
// origin, then applies the given overrides.
func skeleton(overrides map[int]pose.Landmark) [pose.NumLandmarks]pose.Landmark {
	var lms [pose.NumLandmarks]pose.Landmark
	for j := range lms {
		lms[j] = pose.Landmark{Visibility: 1}
	}
	for j, l := range overrides {
		lms[j] = l
	}
	return lms
}

func TestJointAngleRightAngle(t *testing.T) {
	a := lm(1, 0, 0)
	b := lm(0, 0, 0)
	c := lm(0, 1, 0)

	got := JointAngle(&a, &b, &c)
	if math.Abs(got-90) > 1e-9 {
		t.Errorf("expected 90 degrees, got %v", got)
	}
}

func TestJointAngleSymmetricUnderSwap(t *testing.T) {
	a := lm(0.3, 0.1, 0.4)
	b := lm(0.5, 0.5, 0.1)
	c := lm(0.9, 0.2, 0.7)

	if ab, ba := JointAngle(&a, &b, &c), JointAngle(&c, &b, &a); math.Abs(ab-ba) > 1e-12 {
		t.Errorf("angle not symmetric: %v vs %v", ab, ba)
	}
}

func TestJointAngleColinearIsStraight(t *testing.T) {
	a := lm(0, 0, 0)
	b := lm(1, 1, 1)
	c := lm(2, 2, 2)

	got := JointAngle(&a, &b, &c)
	if math.Abs(got-180) > 1e-9 {
		t.Errorf("colinear triple should read 180, got %v", got)
	}
}

func TestJointAngleBounded(t *testing.T) {
	cases := [][3]pose.Landmark{
		{lm(0, 0, 0), lm(1, 0, 0), lm(2, 0, 0)},
		{lm(0, 0, 0), lm(1, 0, 0), lm(0, 0, 0)},
		{lm(0.1, 0.9, 0.3), lm(0.2, 0.2, 0.2), lm(0.8, 0.1, 0.6)},
		{lm(-5, 3, 1), lm(0, 0, 0), lm(5, -3, -1)},
	}
	for i, tc := range cases {
		got := JointAngle(&tc[0], &tc[1], &tc[2])
		if got < 0 || got > 180 {
			t.Errorf("case %d: angle %v out of [0,180]", i, got)
		}
	}
}

func TestJointAngleDegenerateInputs(t *testing.T) {
	a := lm(1, 0, 0)
	b := lm(0, 0, 0)
	invisible := pose.Landmark{X: 1, Y: 1}

	if got := JointAngle(nil, &b, &a); got != NeutralAngleDeg {
		t.Errorf("nil landmark: got %v, want %v", got, NeutralAngleDeg)
	}
	if got := JointAngle(&invisible, &b, &a); got != NeutralAngleDeg {
		t.Errorf("invisible landmark: got %v, want %v", got, NeutralAngleDeg)
	}
	// a coincides with b: zero-magnitude limb vector
	coincident := lm(0, 0, 0)
	if got := JointAngle(&coincident, &b, &a); got != NeutralAngleDeg {
		t.Errorf("zero-magnitude vector: got %v, want %v", got, NeutralAngleDeg)
	}
}

func TestStabilityScoreAlignedIsPerfect(t *testing.T) {
	lms := skeleton(map[int]pose.Landmark{
		pose.LeftHip:    lm(0.45, 0.5, 0),
		pose.RightHip:   lm(0.55, 0.5, 0),
		pose.LeftAnkle:  lm(0.45, 0.9, 0),
		pose.RightAnkle: lm(0.55, 0.9, 0),
	})
	if got := StabilityScore(&lms, 500); got != 100 {
		t.Errorf("aligned hips/ankles should score 100, got %v", got)
	}
}

func TestStabilityScoreMonotoneInDeviation(t *testing.T) {
	score := func(hipX float64) float64 {
		lms := skeleton(map[int]pose.Landmark{
			pose.LeftHip:    lm(hipX, 0.5, 0),
			pose.RightHip:   lm(hipX, 0.5, 0),
			pose.LeftAnkle:  lm(0.5, 0.9, 0),
			pose.RightAnkle: lm(0.5, 0.9, 0),
		})
		return StabilityScore(&lms, 500)
	}

	prev := score(0.5)
	for _, dev := range []float64{0.02, 0.05, 0.1, 0.15, 0.3, 1.0} {
		s := score(0.5 + dev)
		if s > prev {
			t.Errorf("score increased with deviation %v: %v > %v", dev, s, prev)
		}
		if s < 0 {
			t.Errorf("score went negative at deviation %v: %v", dev, s)
		}
		prev = s
	}
}

func TestStabilityScoreMissingLandmarks(t *testing.T) {
	lms := skeleton(map[int]pose.Landmark{
		pose.LeftHip: {X: 0.1, Y: 0.5}, // invisible
	})
	if got := StabilityScore(&lms, 500); got != 100 {
		t.Errorf("missing hip should score 100, got %v", got)
	}
}

func TestSpineTiltAndClassify(t *testing.T) {
	upright := skeleton(map[int]pose.Landmark{
		pose.LeftShoulder:  lm(0.5, 0.2, 0),
		pose.RightShoulder: lm(0.5, 0.2, 0),
		pose.LeftHip:       lm(0.5, 0.5, 0),
		pose.RightHip:      lm(0.5, 0.5, 0),
	})
	if tilt := SpineTilt(&upright); math.Abs(tilt) > 1e-9 {
		t.Errorf("vertical torso should tilt 0, got %v", tilt)
	}

	horizontal := skeleton(map[int]pose.Landmark{
		pose.LeftShoulder:  lm(0.2, 0.5, 0),
		pose.RightShoulder: lm(0.2, 0.5, 0),
		pose.LeftHip:       lm(0.6, 0.5, 0),
		pose.RightHip:      lm(0.6, 0.5, 0),
	})
	if tilt := SpineTilt(&horizontal); math.Abs(tilt-90) > 1e-9 {
		t.Errorf("horizontal torso should tilt 90, got %v", tilt)
	}

	if ClassifySpine(30, 45) != SpineGood {
		t.Error("30 degrees should classify good")
	}
	if ClassifySpine(46, 45) != SpinePoor {
		t.Error("46 degrees should classify poor")
	}
}

func TestImpactFactorThreshold(t *testing.T) {
	for _, dy := range []float64{-1, 0, 0.01, 0.015} {
		if got := ImpactFactor(dy, 0.015, 30); got != 1.0 {
			t.Errorf("dy=%v: expected exactly 1.0, got %v", dy, got)
		}
	}

	prev := 1.0
	for _, dy := range []float64{0.016, 0.02, 0.05, 0.1} {
		got := ImpactFactor(dy, 0.015, 30)
		if got <= prev {
			t.Errorf("impact factor not strictly increasing at dy=%v: %v <= %v", dy, got, prev)
		}
		prev = got
	}
}

func TestFreefall(t *testing.T) {
	// falling fast and accelerating
	if !Freefall(0.05, 0.01, 0.015, 0.02) {
		t.Error("accelerating descent should report freefall")
	}
	// falling fast but constant speed
	if Freefall(0.05, 0.05, 0.015, 0.02) {
		t.Error("constant-speed descent should not report freefall")
	}
	// accelerating but too slow
	if Freefall(0.019, 0.0, 0.015, 0.02) {
		t.Error("slow descent should not report freefall")
	}
}

func TestHipDy(t *testing.T) {
	prev := skeleton(map[int]pose.Landmark{
		pose.LeftHip:  lm(0.5, 0.4, 0),
		pose.RightHip: lm(0.5, 0.4, 0),
	})
	cur := skeleton(map[int]pose.Landmark{
		pose.LeftHip:  lm(0.5, 0.45, 0),
		pose.RightHip: lm(0.5, 0.45, 0),
	})

	dy, ok := HipDy(&cur, &prev)
	if !ok {
		t.Fatal("expected dy to be computable")
	}
	if math.Abs(dy-0.05) > 1e-12 {
		t.Errorf("expected dy 0.05, got %v", dy)
	}

	if _, ok := HipDy(&cur, nil); ok {
		t.Error("nil previous frame should not yield a dy")
	}

	blind := skeleton(map[int]pose.Landmark{
		pose.LeftHip: {X: 0.5, Y: 0.4},
	})
	if _, ok := HipDy(&blind, &prev); ok {
		t.Error("invisible hip should not yield a dy")
	}
}

func TestGeometricFall(t *testing.T) {
	prone := skeleton(map[int]pose.Landmark{
		pose.LeftShoulder:  lm(0.2, 0.72, 0),
		pose.RightShoulder: lm(0.2, 0.72, 0),
		pose.LeftHip:       lm(0.6, 0.75, 0),
		pose.RightHip:      lm(0.6, 0.75, 0),
	})
	if !GeometricFall(&prone, 45, 0.5) {
		t.Error("horizontal torso low in frame should report geometric fall")
	}

	// upright but low in frame: angle condition fails
	standing := skeleton(map[int]pose.Landmark{
		pose.LeftShoulder:  lm(0.5, 0.4, 0),
		pose.RightShoulder: lm(0.5, 0.4, 0),
		pose.LeftHip:       lm(0.5, 0.7, 0),
		pose.RightHip:      lm(0.5, 0.7, 0),
	})
	if GeometricFall(&standing, 45, 0.5) {
		t.Error("upright torso should not report geometric fall")
	}

	// horizontal torso but high in frame: hip condition fails
	elevated := skeleton(map[int]pose.Landmark{
		pose.LeftShoulder:  lm(0.2, 0.3, 0),
		pose.RightShoulder: lm(0.2, 0.3, 0),
		pose.LeftHip:       lm(0.6, 0.32, 0),
		pose.RightHip:      lm(0.6, 0.32, 0),
	})
	if GeometricFall(&elevated, 45, 0.5) {
		t.Error("horizontal torso high in frame should not report geometric fall")
	}
}
