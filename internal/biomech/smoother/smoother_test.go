package smoother

import (
	"testing"

	"github.com/banshee-data/fall.report/internal/pose"
)

func testSmootherParams() SmootherParams {
	return SmootherParams{
		Filter:          testFilterParams(),
		VisibilityFloor: 0.1,
	}
}

func frameAt(x, y float64, visibility float64) *pose.FrameSample {
	frame := &pose.FrameSample{}
	for j := 0; j < pose.NumLandmarks; j++ {
		frame.Image[j] = pose.Landmark{X: x, Y: y, Visibility: visibility}
		frame.World[j] = frame.Image[j]
	}
	return frame
}

func TestSmootherCreatesFiltersLazily(t *testing.T) {
	s := NewPoseSmoother(testSmootherParams())

	if s.Tracked(pose.LeftKnee) {
		t.Fatal("no filters should exist before the first frame")
	}

	// First frame: only the nose is visible.
	frame := frameAt(0.5, 0.5, 0)
	frame.Image[pose.Nose].Visibility = 0.9
	s.Advance(frame)

	if !s.Tracked(pose.Nose) {
		t.Error("visible joint should be tracked after first observation")
	}
	if s.Tracked(pose.LeftKnee) {
		t.Error("invisible joint should not be tracked")
	}

	// Second frame: everything visible, remaining filters appear.
	s.Advance(frameAt(0.5, 0.5, 0.9))
	if !s.Tracked(pose.LeftKnee) {
		t.Error("joint should be tracked once it appears with usable visibility")
	}
}

func TestSmootherTracksMeasurement(t *testing.T) {
	s := NewPoseSmoother(testSmootherParams())
	for i := 0; i < 100; i++ {
		s.Advance(frameAt(0.3, 0.7, 1))
	}

	out := s.Smoothed()
	knee := out[pose.LeftKnee]
	if d := knee.Point().Dist(pose.Point3{X: 0.3, Y: 0.7}); d > 1e-3 {
		t.Errorf("smoothed knee %v away from measurement", d)
	}
	if knee.Visibility != 1 {
		t.Errorf("source visibility should carry through, got %v", knee.Visibility)
	}
}

func TestSmootherCoastsBelowVisibilityFloor(t *testing.T) {
	s := NewPoseSmoother(testSmootherParams())
	for i := 0; i < 50; i++ {
		s.Advance(frameAt(0.5, 0.5, 1))
	}

	// The joint goes occluded with a wild measured position. Below the
	// floor the measurement must be ignored, so the estimate holds.
	before := s.Smoothed()[pose.LeftHip]
	occluded := frameAt(0.99, 0.01, 0.05)
	s.Advance(occluded)
	after := s.Smoothed()[pose.LeftHip]

	if d := after.Point().Dist(before.Point()); d > 0.01 {
		t.Errorf("occluded joint jumped %v toward discarded measurement", d)
	}
	if after.Visibility != 0.05 {
		t.Errorf("coasted joint should report source visibility, got %v", after.Visibility)
	}
}

func TestSmootherCoastExtrapolates(t *testing.T) {
	s := NewPoseSmoother(testSmootherParams())
	// Learn a steady downward drift.
	for i := 0; i < 60; i++ {
		s.Advance(frameAt(0.5, 0.3+float64(i)*0.005, 1))
	}

	before := s.Smoothed()[pose.LeftHip].Y
	s.Coast()
	after := s.Smoothed()[pose.LeftHip]

	if after.Y <= before {
		t.Errorf("coast should extrapolate downward drift: %v -> %v", before, after.Y)
	}
	if after.Visibility != 0 {
		t.Errorf("coasted frame should zero visibility, got %v", after.Visibility)
	}
}

func TestSmootherUnobservedJointsReadMissing(t *testing.T) {
	s := NewPoseSmoother(testSmootherParams())
	frame := frameAt(0.5, 0.5, 0)
	frame.Image[pose.Nose].Visibility = 1
	s.Advance(frame)

	out := s.Smoothed()
	if out[pose.LeftAnkle].Visibility != 0 {
		t.Error("never-observed joint should carry zero visibility")
	}
}

func TestSmootherReset(t *testing.T) {
	s := NewPoseSmoother(testSmootherParams())
	s.Advance(frameAt(0.5, 0.5, 1))
	if !s.Tracked(pose.Nose) {
		t.Fatal("expected tracked joint before reset")
	}

	s.Reset()
	if s.Tracked(pose.Nose) {
		t.Error("reset should discard all filters")
	}

	s.Advance(frameAt(0.2, 0.2, 1))
	got := s.Smoothed()[pose.Nose]
	if got.X != 0.2 || got.Y != 0.2 {
		t.Errorf("rebuilt filter should seed at the new measurement, got %+v", got)
	}
}
