package smoother

import (
	"github.com/banshee-data/fall.report/internal/config"
	"github.com/banshee-data/fall.report/internal/pose"
)

// minInnovationCovariance guards the gain division. With positive noise
// constants the innovation covariance cannot reach zero, but covariance
// drift is clamped here anyway so a degenerate state never produces NaN.
const minInnovationCovariance = 1e-9

// FilterParams holds the noise constants for a JointFilter.
type FilterParams struct {
	ProcessNoise      float64 // covariance inflation per Predict call
	MeasurementNoise  float64 // measurement variance added to the innovation covariance
	InitialCovariance float64 // covariance diagonal at creation
}

// DefaultFilterParams returns filter parameters loaded from the canonical
// tuning defaults file. Panics if the file cannot be found; intended for
// tests and binaries that have already validated config availability.
func DefaultFilterParams() FilterParams {
	return FilterParamsFromTuning(config.MustLoadDefaultConfig())
}

// FilterParamsFromTuning builds FilterParams from a loaded TuningConfig.
func FilterParamsFromTuning(cfg *config.TuningConfig) FilterParams {
	return FilterParams{
		ProcessNoise:      cfg.GetProcessNoise(),
		MeasurementNoise:  cfg.GetMeasurementNoise(),
		InitialCovariance: cfg.GetInitialCovariance(),
	}
}

// JointFilter is a constant-velocity estimator for one 3D joint. The
// state is [x,y,z,vx,vy,vz] with a diagonal error covariance: each axis
// is treated as statistically independent, and the velocity correction
// uses a fixed half-gain coupling instead of a full cross-covariance
// term.
//
// The time base is one unit step per processed frame, not wall-clock dt.
type JointFilter struct {
	pos [3]float64
	vel [3]float64
	// cov is the error covariance diagonal: [0:3] position, [3:6]
	// velocity. Entries are clamped non-negative after every mutation.
	cov    [6]float64
	params FilterParams
}

// NewJointFilter creates a filter seeded at the given measurement with
// zero velocity and the configured initial uncertainty.
func NewJointFilter(initial pose.Point3, params FilterParams) *JointFilter {
	f := &JointFilter{
		pos:    [3]float64{initial.X, initial.Y, initial.Z},
		params: params,
	}
	for i := range f.cov {
		f.cov[i] = params.InitialCovariance
	}
	return f
}

// Predict advances the position by the current velocity (unit time step)
// and inflates every covariance entry by the process noise. Must be
// called once per frame before Update, including frames with no usable
// measurement, so the filter coasts through brief occlusion.
func (f *JointFilter) Predict() {
	for a := 0; a < 3; a++ {
		f.pos[a] += f.vel[a]
	}
	for i := range f.cov {
		f.cov[i] += f.params.ProcessNoise
		if f.cov[i] < 0 {
			f.cov[i] = 0
		}
	}
}

// Update corrects the state with a measurement, one axis at a time.
// The velocity receives half the position gain (the coupling heuristic
// described on the type), and both covariance entries for the axis
// shrink by (1 − gain).
func (f *JointFilter) Update(m pose.Point3) {
	meas := [3]float64{m.X, m.Y, m.Z}
	for a := 0; a < 3; a++ {
		innovation := meas[a] - f.pos[a]
		s := f.cov[a] + f.params.MeasurementNoise
		if s < minInnovationCovariance {
			s = minInnovationCovariance
		}
		gain := f.cov[a] / s

		f.pos[a] += gain * innovation
		f.vel[a] += 0.5 * gain * innovation

		f.cov[a] *= 1 - gain
		f.cov[a+3] *= 1 - gain
		if f.cov[a] < 0 {
			f.cov[a] = 0
		}
		if f.cov[a+3] < 0 {
			f.cov[a+3] = 0
		}
	}
}

// Forecast returns the position extrapolated linearly by velocity × steps.
// State is not mutated.
func (f *JointFilter) Forecast(steps uint32) pose.Point3 {
	n := float64(steps)
	return pose.Point3{
		X: f.pos[0] + f.vel[0]*n,
		Y: f.pos[1] + f.vel[1]*n,
		Z: f.pos[2] + f.vel[2]*n,
	}
}

// Position returns the current position estimate.
func (f *JointFilter) Position() pose.Point3 {
	return pose.Point3{X: f.pos[0], Y: f.pos[1], Z: f.pos[2]}
}

// Velocity returns the current velocity estimate (per frame).
func (f *JointFilter) Velocity() pose.Point3 {
	return pose.Point3{X: f.vel[0], Y: f.vel[1], Z: f.vel[2]}
}

// CovarianceDiagonal returns a copy of the covariance diagonal.
func (f *JointFilter) CovarianceDiagonal() [6]float64 {
	return f.cov
}
