package support

import (
	"math"

	"github.com/banshee-data/fall.report/internal/config"
	"github.com/banshee-data/fall.report/internal/pose"
)

// Leg indexes the two legs in classifier state and results.
type Leg int

const (
	LeftLeg Leg = iota
	RightLeg
	numLegs
)

// Params holds the support classifier thresholds.
type Params struct {
	// ShinLengthFraction scales the grounded band: a foot counts as
	// grounded when its ankle sits within this fraction of the average
	// shin length above the lowest ankle. Recomputed from the current
	// frame so the test is scale-invariant to camera distance.
	ShinLengthFraction float64
	// FootSpeedEpsilon is the per-frame Euclidean foot speed below which
	// a foot counts as still.
	FootSpeedEpsilon float64
	// StabilityFrames is how many consecutive still frames make an
	// elevated foot count as supported (standing on a step or box).
	StabilityFrames int
	// SeatBottomTolerance is the allowed gap between a seat's bottom
	// edge and the lower ankle for the sitting depth-consistency check.
	SeatBottomTolerance float64
}

// ParamsFromTuning builds Params from a loaded TuningConfig.
func ParamsFromTuning(cfg *config.TuningConfig) Params {
	return Params{
		ShinLengthFraction:  cfg.GetShinLengthFraction(),
		FootSpeedEpsilon:    cfg.GetFootSpeedEpsilon(),
		StabilityFrames:     cfg.GetStabilityFrames(),
		SeatBottomTolerance: cfg.GetSeatBottomTolerance(),
	}
}

// LegSupport is the per-leg classification for one frame.
type LegSupport struct {
	Grounded       bool   // ankle within the grounded band of the lowest ankle
	StabilityTimer uint32 // consecutive frames the foot has been still
	Supported      bool   // grounded OR stable-but-elevated
}

// Result is the classifier output for one frame.
type Result struct {
	Legs    [2]LegSupport
	Sitting bool
	// SeatClass names the seat region the subject sits on, if any.
	SeatClass string
}

// Supported reports whether the given leg carries load this frame.
func (r *Result) Supported(leg Leg) bool {
	return r.Legs[leg].Supported
}

// AnySupported reports whether at least one leg carries load.
func (r *Result) AnySupported() bool {
	return r.Legs[LeftLeg].Supported || r.Legs[RightLeg].Supported
}

// Classifier determines leg support and sitting state frame by frame.
type Classifier struct {
	params Params

	prevFoot    [numLegs]pose.Point3
	hasPrevFoot [numLegs]bool
	stillFrames [numLegs]uint32
}

// NewClassifier creates a classifier with the given thresholds.
func NewClassifier(params Params) *Classifier {
	return &Classifier{params: params}
}

// Reset clears stillness timers and previous foot positions. Called when
// the subject is lost so stale frame-to-frame velocities never leak into
// the next appearance.
func (c *Classifier) Reset() {
	for l := Leg(0); l < numLegs; l++ {
		c.hasPrevFoot[l] = false
		c.prevFoot[l] = pose.Point3{}
		c.stillFrames[l] = 0
	}
}

var ankleIndex = [numLegs]int{pose.LeftAnkle, pose.RightAnkle}
var kneeIndex = [numLegs]int{pose.LeftKnee, pose.RightKnee}

// Advance classifies both legs and the sitting state for one frame of
// smoothed landmarks against the current seat regions.
func (c *Classifier) Advance(lms *[pose.NumLandmarks]pose.Landmark, seats []pose.SeatRegion) Result {
	var res Result

	groundBand := c.groundedBand(lms)
	maxAnkleY := math.Max(lms[pose.LeftAnkle].Y, lms[pose.RightAnkle].Y)

	for l := Leg(0); l < numLegs; l++ {
		ankle := lms[ankleIndex[l]]
		foot := ankle.Point()

		// Grounded: within the shin-scaled band above the lowest ankle.
		grounded := false
		if ankle.Visibility > 0 && groundBand > 0 {
			grounded = ankle.Y >= maxAnkleY-groundBand
		}

		// Stable-but-elevated: foot speed below epsilon for more than
		// StabilityFrames consecutive frames.
		if c.hasPrevFoot[l] && ankle.Visibility > 0 {
			if foot.Dist(c.prevFoot[l]) < c.params.FootSpeedEpsilon {
				c.stillFrames[l]++
			} else {
				c.stillFrames[l] = 0
			}
		} else {
			c.stillFrames[l] = 0
		}
		c.prevFoot[l] = foot
		c.hasPrevFoot[l] = ankle.Visibility > 0

		stable := c.stillFrames[l] > uint32(c.params.StabilityFrames)

		res.Legs[l] = LegSupport{
			Grounded:       grounded,
			StabilityTimer: c.stillFrames[l],
			Supported:      grounded || stable,
		}
	}

	res.Sitting, res.SeatClass = c.sitting(lms, seats)
	return res
}

// groundedBand returns the vertical band below which an ankle counts as
// grounded: ShinLengthFraction × the average knee-to-ankle length from
// the current frame. Returns 0 when the shin segments cannot be
// measured, which disables the grounded test for this frame.
func (c *Classifier) groundedBand(lms *[pose.NumLandmarks]pose.Landmark) float64 {
	var total float64
	var n int
	for l := Leg(0); l < numLegs; l++ {
		knee := lms[kneeIndex[l]]
		ankle := lms[ankleIndex[l]]
		if knee.Visibility <= 0 || ankle.Visibility <= 0 {
			continue
		}
		total += knee.Point().Dist(ankle.Point())
		n++
	}
	if n == 0 {
		return 0
	}
	return c.params.ShinLengthFraction * (total / float64(n))
}

// sitting checks the hip centre against each current seat region: the
// hip must fall inside the seat's bounding box AND the seat's bottom
// edge must sit within SeatBottomTolerance of the lower ankle (the
// depth-consistency check that rejects seats at a different distance
// from the camera). Seat regions carry no identity across frames, so a
// flickering detection flickers the sitting state with it.
func (c *Classifier) sitting(lms *[pose.NumLandmarks]pose.Landmark, seats []pose.SeatRegion) (bool, string) {
	if lms[pose.LeftHip].Visibility <= 0 || lms[pose.RightHip].Visibility <= 0 {
		return false, ""
	}
	hip := pose.HipCenter(lms)
	lowerAnkleY := math.Max(lms[pose.LeftAnkle].Y, lms[pose.RightAnkle].Y)

	for _, seat := range seats {
		if !seat.Bbox.Contains(hip.X, hip.Y) {
			continue
		}
		if math.Abs(seat.BottomY-lowerAnkleY) <= c.params.SeatBottomTolerance {
			return true, seat.Class
		}
	}
	return false, ""
}
