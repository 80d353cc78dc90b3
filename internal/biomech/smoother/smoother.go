package smoother

import (
	"github.com/banshee-data/fall.report/internal/config"
	"github.com/banshee-data/fall.report/internal/pose"
)

// SmootherParams holds configuration for the PoseSmoother.
type SmootherParams struct {
	Filter FilterParams
	// VisibilityFloor is the per-joint visibility below which a frame's
	// measurement is discarded and the joint coasts on its motion model.
	VisibilityFloor float64
}

// SmootherParamsFromTuning builds SmootherParams from a loaded TuningConfig.
func SmootherParamsFromTuning(cfg *config.TuningConfig) SmootherParams {
	return SmootherParams{
		Filter:          FilterParamsFromTuning(cfg),
		VisibilityFloor: cfg.GetVisibilityFloor(),
	}
}

// PoseSmoother owns one JointFilter per joint of the 33-point skeleton.
// Filters are created lazily the first time their joint appears with
// usable visibility, so a partially occluded subject accumulates filters
// as joints come into view. Advance and Coast mutate state; Smoothed and
// Forecast read it. Single-writer by contract — the pipeline runs one
// frame at a time, so no locking is needed here.
type PoseSmoother struct {
	filters [pose.NumLandmarks]*JointFilter
	params  SmootherParams

	// lastVisibility carries through the source visibility for joints
	// that coasted this frame, so consumers can judge estimate quality.
	lastVisibility [pose.NumLandmarks]float64
}

// NewPoseSmoother creates an empty smoother; filters appear on the first
// frame that observes each joint.
func NewPoseSmoother(params SmootherParams) *PoseSmoother {
	return &PoseSmoother{params: params}
}

// Advance runs one frame through all filters: predict every existing
// filter, then update each with its landmark unless the landmark's
// visibility is below the floor (predict-only coasting). Joints seen for
// the first time with usable visibility get a fresh filter seeded at the
// measurement.
func (s *PoseSmoother) Advance(frame *pose.FrameSample) {
	for j := 0; j < pose.NumLandmarks; j++ {
		lm := frame.Image[j]
		s.lastVisibility[j] = lm.Visibility

		if s.filters[j] == nil {
			if lm.Visibility >= s.params.VisibilityFloor {
				s.filters[j] = NewJointFilter(lm.Point(), s.params.Filter)
			}
			continue
		}

		s.filters[j].Predict()
		if lm.Visibility >= s.params.VisibilityFloor {
			s.filters[j].Update(lm.Point())
		}
	}
}

// Coast advances every existing filter in predict-only mode. Used on
// frames where no subject was detected so estimates keep extrapolating
// through the gap.
func (s *PoseSmoother) Coast() {
	for j := 0; j < pose.NumLandmarks; j++ {
		if s.filters[j] != nil {
			s.filters[j].Predict()
			s.lastVisibility[j] = 0
		}
	}
}

// Smoothed returns the current filtered skeleton. Joints never observed
// carry zero visibility and a zero position; consumers treat those as
// missing input.
func (s *PoseSmoother) Smoothed() [pose.NumLandmarks]pose.Landmark {
	var out [pose.NumLandmarks]pose.Landmark
	for j := 0; j < pose.NumLandmarks; j++ {
		if s.filters[j] == nil {
			continue
		}
		p := s.filters[j].Position()
		out[j] = pose.Landmark{X: p.X, Y: p.Y, Z: p.Z, Visibility: s.lastVisibility[j]}
	}
	return out
}

// Forecast returns every tracked joint's position extrapolated steps
// frames ahead. Untracked joints return the zero point. State is not
// mutated; this exists for short-horizon prediction display.
func (s *PoseSmoother) Forecast(steps uint32) [pose.NumLandmarks]pose.Point3 {
	var out [pose.NumLandmarks]pose.Point3
	for j := 0; j < pose.NumLandmarks; j++ {
		if s.filters[j] != nil {
			out[j] = s.filters[j].Forecast(steps)
		}
	}
	return out
}

// Tracked reports whether a filter exists for the given joint index.
func (s *PoseSmoother) Tracked(joint int) bool {
	return joint >= 0 && joint < pose.NumLandmarks && s.filters[joint] != nil
}

// Reset discards all filter state. The next Advance rebuilds filters
// from scratch.
func (s *PoseSmoother) Reset() {
	for j := range s.filters {
		s.filters[j] = nil
		s.lastVisibility[j] = 0
	}
}
