package pipeline

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/fall.report/internal/biomech/fallfsm"
	"github.com/banshee-data/fall.report/internal/biomech/geometry"
	"github.com/banshee-data/fall.report/internal/biomech/risk"
	"github.com/banshee-data/fall.report/internal/biomech/smoother"
	"github.com/banshee-data/fall.report/internal/biomech/support"
	"github.com/banshee-data/fall.report/internal/config"
	"github.com/banshee-data/fall.report/internal/pose"
)

// Params holds the full pipeline configuration, flattened from the
// tuning config the way each layer consumes it.
type Params struct {
	Smoother smoother.SmootherParams
	Support  support.Params
	Risk     risk.Params

	// Geometry thresholds
	StabilityDeviationGain float64
	SpinePoorAngleDeg      float64
	ImpactDyThreshold      float64
	ImpactGain             float64
	FreefallAccelThreshold float64
	FreefallDyThreshold    float64
	GeometricFallAngleDeg  float64
	GeometricFallHipY      float64

	// Detection / hazard params
	MinDetectionScore float64
	ObstacleProximity float64

	// Fall confirmation params
	CompositeFallThreshold float64
	FallConfirmFrames      int
}

// DefaultParams returns pipeline parameters loaded from the canonical
// tuning defaults file. Panics if the file cannot be found — intended
// for tests and binaries that have already validated config availability.
func DefaultParams() Params {
	return ParamsFromTuning(config.MustLoadDefaultConfig())
}

// ParamsFromTuning builds Params from a loaded TuningConfig. Use this in
// production code where the TuningConfig is already loaded.
func ParamsFromTuning(cfg *config.TuningConfig) Params {
	return Params{
		Smoother:               smoother.SmootherParamsFromTuning(cfg),
		Support:                support.ParamsFromTuning(cfg),
		Risk:                   risk.ParamsFromTuning(cfg),
		StabilityDeviationGain: cfg.GetStabilityDeviationGain(),
		SpinePoorAngleDeg:      cfg.GetSpinePoorAngleDeg(),
		ImpactDyThreshold:      cfg.GetImpactDyThreshold(),
		ImpactGain:             cfg.GetImpactGain(),
		FreefallAccelThreshold: cfg.GetFreefallAccelThreshold(),
		FreefallDyThreshold:    cfg.GetFreefallDyThreshold(),
		GeometricFallAngleDeg:  cfg.GetGeometricFallAngleDeg(),
		GeometricFallHipY:      cfg.GetGeometricFallHipY(),
		MinDetectionScore:      cfg.GetMinDetectionScore(),
		ObstacleProximity:      cfg.GetObstacleProximity(),
		CompositeFallThreshold: cfg.GetCompositeFallThreshold(),
		FallConfirmFrames:      cfg.GetFallConfirmFrames(),
	}
}

// AlarmEvent is the one-time edge event emitted when a fall is
// confirmed. Event IDs are globally unique so they survive session
// restarts and downstream deduplication.
type AlarmEvent struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	FrameIndex    uint64    `json:"frame_index"`
	Timestamp     time.Time `json:"timestamp"`
	CompositeRisk float64   `json:"composite_risk"`
	Geometric     bool      `json:"geometric"` // prone-posture signal active at confirmation
	TriggerFrames int       `json:"trigger_frames"`
}

// Output is the per-frame result consumed by UI/alerting collaborators.
type Output struct {
	FrameIndex    uint64
	Snapshot      risk.Snapshot
	Support       support.Result
	State         fallfsm.State
	FallCount     int
	GeometricFall bool
	Freefall      bool
	// Alarm is non-nil exactly once: on the frame the fall is confirmed.
	Alarm    *AlarmEvent
	Smoothed [pose.NumLandmarks]pose.Landmark
}

// Session is the per-subject pipeline instance. It owns what used to be
// scattered module-level state in earlier prototypes of this pipeline:
// the previous smoothed frame, the hip velocity baseline, the seat and
// obstacle sets, and the fall counter, all with an explicit lifecycle.
type Session struct {
	id     string
	params Params

	smoother   *smoother.PoseSmoother
	support    *support.Classifier
	fsm        *fallfsm.Machine
	seats      []pose.SeatRegion
	obstacles  []pose.Detection

	prevSmoothed    *[pose.NumLandmarks]pose.Landmark
	prevHipVelocity float64
	hasHipVelocity  bool

	frameIndex   uint64
	lastWallTime time.Time
	meanFrameDt  float64 // EMA of inter-frame wall time, seconds

	// OnAlarm, when non-nil, is invoked synchronously for each confirmed
	// fall, after the Output is assembled.
	OnAlarm func(AlarmEvent)
}

// NewSession creates a pipeline session for one monitored subject.
func NewSession(params Params) *Session {
	return &Session{
		id:       fmt.Sprintf("sess_%s", uuid.NewString()),
		params:   params,
		smoother: smoother.NewPoseSmoother(params.Smoother),
		support:  support.NewClassifier(params.Support),
		fsm:      fallfsm.NewMachine(params.FallConfirmFrames),
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// SetDetections replaces the current seat and obstacle sets from a
// detector delivery in pixel coordinates. The caller throttles detector
// runs; the most recent sets are reused on intermediate frames. Seat
// regions are rebuilt from scratch — no identity persists across
// deliveries, so a flickering detection flickers downstream state.
func (s *Session) SetDetections(dets []pose.Detection, frameWidth, frameHeight int) {
	normalized := pose.NormalizeDetections(dets, frameWidth, frameHeight)
	s.seats = pose.BuildSeatRegions(normalized, s.params.MinDetectionScore)
	s.obstacles = pose.Obstacles(normalized, s.params.MinDetectionScore)
	tracef("detections: %d raw -> %d seats, %d obstacles", len(dets), len(s.seats), len(s.obstacles))
}

// ProcessFrame runs one frame through the full pipeline. A nil frame
// means the subject was not detected: filters coast predict-only and
// every baseline that depends on a present previous frame (fall count,
// hip velocity, foot stillness timers) is reset. The returned Output is
// always well formed — insufficient information degrades to the safe
// reading, never to an error.
func (s *Session) ProcessFrame(frame *pose.FrameSample) Output {
	s.frameIndex++

	if frame == nil {
		return s.coastFrame()
	}

	s.observeFrameTiming(frame.Timestamp)

	s.smoother.Advance(frame)
	smoothed := s.smoother.Smoothed()

	supportRes := s.support.Advance(&smoothed, s.seats)

	kneeAngles := s.kneeAngles(frame, &smoothed)
	stability := geometry.StabilityScore(&smoothed, s.params.StabilityDeviationGain)
	spine := geometry.ClassifySpine(geometry.SpineTilt(&smoothed), s.params.SpinePoorAngleDeg)

	// Hip vertical velocity drives both impact loading and freefall.
	// The dy baseline survives only across consecutive present frames.
	impact := 1.0
	freefall := false
	dy, dyOK := geometry.HipDy(&smoothed, s.prevSmoothed)
	if dyOK {
		impact = geometry.ImpactFactor(dy, s.params.ImpactDyThreshold, s.params.ImpactGain)
		if s.hasHipVelocity {
			freefall = geometry.Freefall(dy, s.prevHipVelocity,
				s.params.FreefallAccelThreshold, s.params.FreefallDyThreshold)
		}
		s.prevHipVelocity = dy
		s.hasHipVelocity = true
	} else {
		s.hasHipVelocity = false
	}

	snap := risk.Fuse(risk.Inputs{
		KneeAngles:  kneeAngles,
		Support:     supportRes,
		HandSupport: risk.HandSupport(&smoothed, s.params.Risk.HandSupportDistance),
		Stability:   stability,
		Spine:       spine,
		Impact:      impact,
		Freefall:    freefall,
		Hazard:      s.hazardNearFeet(&smoothed),
	}, s.params.Risk)

	geoFall := geometry.GeometricFall(&smoothed, s.params.GeometricFallAngleDeg, s.params.GeometricFallHipY)
	falling := geoFall || snap.CompositeRisk >= s.params.CompositeFallThreshold

	prevState := s.fsm.State()
	alarmFired := s.fsm.Advance(falling)
	if state := s.fsm.State(); state != prevState {
		diagf("fall state %s -> %s (count=%d composite=%.1f)", prevState, state, s.fsm.Count(), snap.CompositeRisk)
	}

	out := Output{
		FrameIndex:    s.frameIndex,
		Snapshot:      snap,
		Support:       supportRes,
		State:         s.fsm.State(),
		FallCount:     s.fsm.Count(),
		GeometricFall: geoFall,
		Freefall:      freefall,
		Smoothed:      smoothed,
	}

	if alarmFired {
		ev := AlarmEvent{
			ID:            fmt.Sprintf("fall_%s", uuid.NewString()),
			SessionID:     s.id,
			FrameIndex:    s.frameIndex,
			Timestamp:     frame.Timestamp,
			CompositeRisk: snap.CompositeRisk,
			Geometric:     geoFall,
			TriggerFrames: s.params.FallConfirmFrames,
		}
		out.Alarm = &ev
		opsf("fall confirmed: %s frame=%d composite=%.1f geometric=%v",
			ev.ID, ev.FrameIndex, ev.CompositeRisk, ev.Geometric)
		if s.OnAlarm != nil {
			s.OnAlarm(ev)
		}
	}

	// Retain exactly one previous frame reference for velocity math.
	prev := smoothed
	s.prevSmoothed = &prev

	tracef("frame=%d composite=%.1f knee=%.1f stability=%.1f state=%s",
		s.frameIndex, snap.CompositeRisk, snap.KneeRisk, snap.StabilityRisk, out.State)

	return out
}

// coastFrame handles a frame with no detected subject: predict-only
// filter advance plus reset of every frame-local baseline.
func (s *Session) coastFrame() Output {
	s.smoother.Coast()
	s.support.Reset()
	s.prevSmoothed = nil
	s.hasHipVelocity = false
	s.fsm.Advance(false)

	tracef("frame=%d no subject, coasting", s.frameIndex)

	return Output{
		FrameIndex: s.frameIndex,
		Snapshot:   risk.SafeSnapshot(),
		State:      s.fsm.State(),
		Smoothed:   s.smoother.Smoothed(),
	}
}

// ResetAlarm is the external reset signal from spec'd collaborators: it
// clears the fall counter and releases a Confirmed alarm. Filter state
// is untouched.
func (s *Session) ResetAlarm() {
	s.fsm.Reset()
	diagf("alarm reset, state=%s", s.fsm.State())
}

// Reset performs a full system reset: filters, support timers, velocity
// baselines, detections, and the alarm state.
func (s *Session) Reset() {
	s.smoother.Reset()
	s.support.Reset()
	s.fsm.Reset()
	s.seats = nil
	s.obstacles = nil
	s.prevSmoothed = nil
	s.hasHipVelocity = false
	s.frameIndex = 0
	s.lastWallTime = time.Time{}
	s.meanFrameDt = 0
}

// kneeAngles measures the hip-knee-ankle angle per leg, preferring the
// scale-invariant world landmarks and falling back to the smoothed
// image landmarks when the world triple is unusable for a leg.
func (s *Session) kneeAngles(frame *pose.FrameSample, smoothed *[pose.NumLandmarks]pose.Landmark) [2]float64 {
	hips := [2]int{pose.LeftHip, pose.RightHip}
	knees := [2]int{pose.LeftKnee, pose.RightKnee}
	ankles := [2]int{pose.LeftAnkle, pose.RightAnkle}

	var out [2]float64
	for l := 0; l < 2; l++ {
		world := geometry.JointAngle(&frame.World[hips[l]], &frame.World[knees[l]], &frame.World[ankles[l]])
		if world < geometry.NeutralAngleDeg {
			out[l] = world
			continue
		}
		// NeutralAngleDeg is both "straight leg" and "could not measure";
		// the image-space fallback disambiguates only when the world
		// triple was genuinely missing.
		if frame.World[hips[l]].Visibility > 0 && frame.World[knees[l]].Visibility > 0 && frame.World[ankles[l]].Visibility > 0 {
			out[l] = world
			continue
		}
		out[l] = geometry.JointAngle(&smoothed[hips[l]], &smoothed[knees[l]], &smoothed[ankles[l]])
	}
	return out
}

// hazardNearFeet sets the environmental hazard flag: an obstacle whose
// centre lies in the lower half of the frame within ObstacleProximity of
// either ankle.
func (s *Session) hazardNearFeet(lms *[pose.NumLandmarks]pose.Landmark) bool {
	if len(s.obstacles) == 0 {
		return false
	}
	ankles := []pose.Landmark{lms[pose.LeftAnkle], lms[pose.RightAnkle]}
	for _, obs := range s.obstacles {
		cx, cy := obs.CenterX(), obs.CenterY()
		if cy <= 0.5 {
			continue
		}
		for _, ankle := range ankles {
			if ankle.Visibility <= 0 {
				continue
			}
			dx := ankle.X - cx
			dyy := ankle.Y - cy
			if math.Sqrt(dx*dx+dyy*dyy) <= s.params.ObstacleProximity {
				return true
			}
		}
	}
	return false
}

// observeFrameTiming tracks inter-frame wall time. The motion model
// assumes one unit step per frame, which holds only while the capture
// loop delivers at a steady rate — highly irregular deltas are surfaced
// on the diag stream so tuning sessions can see when the assumption
// breaks down.
func (s *Session) observeFrameTiming(ts time.Time) {
	if ts.IsZero() {
		return
	}
	if !s.lastWallTime.IsZero() {
		dt := ts.Sub(s.lastWallTime).Seconds()
		if dt > 0 {
			if s.meanFrameDt == 0 {
				s.meanFrameDt = dt
			} else {
				if dt > 3*s.meanFrameDt {
					diagf("irregular frame timing: dt=%.0fms mean=%.0fms, unit-step motion model degraded",
						dt*1000, s.meanFrameDt*1000)
				}
				const alpha = 0.1
				s.meanFrameDt = (1-alpha)*s.meanFrameDt + alpha*dt
			}
		}
	}
	s.lastWallTime = ts
}
