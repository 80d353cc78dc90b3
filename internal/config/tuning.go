package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for the fall-risk
// pipeline. All fields are pointers so a partial JSON file merges over
// the built-in defaults; the Get* accessors carry the defaults.
type TuningConfig struct {
	// Joint filter params
	ProcessNoise      *float64 `json:"process_noise,omitempty"`      // covariance inflation per predicted frame
	MeasurementNoise  *float64 `json:"measurement_noise,omitempty"`  // innovation covariance floor contribution
	InitialCovariance *float64 `json:"initial_covariance,omitempty"` // covariance diagonal at filter creation
	VisibilityFloor   *float64 `json:"visibility_floor,omitempty"`   // below this a joint coasts predict-only

	// Support classifier params
	ShinLengthFraction  *float64 `json:"shin_length_fraction,omitempty"`  // grounded band as a fraction of shin length
	FootSpeedEpsilon    *float64 `json:"foot_speed_epsilon,omitempty"`    // per-frame speed below which a foot is still
	StabilityFrames     *int     `json:"stability_frames,omitempty"`      // consecutive still frames for elevated support
	SeatBottomTolerance *float64 `json:"seat_bottom_tolerance,omitempty"` // seat bottom vs ankle depth-consistency band
	MinDetectionScore   *float64 `json:"min_detection_score,omitempty"`   // detector score floor for seats/obstacles

	// Geometry thresholds
	StabilityDeviationGain *float64 `json:"stability_deviation_gain,omitempty"` // hip/ankle deviation → score slope
	SpinePoorAngleDeg      *float64 `json:"spine_poor_angle_deg,omitempty"`     // tilt from vertical classed as poor
	ImpactDyThreshold      *float64 `json:"impact_dy_threshold,omitempty"`      // descent speed before load amplifies
	ImpactGain             *float64 `json:"impact_gain,omitempty"`              // load amplification slope
	FreefallAccelThreshold *float64 `json:"freefall_accel_threshold,omitempty"` // downward acceleration trigger
	FreefallDyThreshold    *float64 `json:"freefall_dy_threshold,omitempty"`    // downward speed trigger
	GeometricFallAngleDeg  *float64 `json:"geometric_fall_angle_deg,omitempty"` // torso below this is near-horizontal
	GeometricFallHipY      *float64 `json:"geometric_fall_hip_y,omitempty"`     // hip below this frame line

	// Risk fusion params
	KneeAngleBase          *float64 `json:"knee_angle_base,omitempty"` // kneeRisk = max(0, base − angle)
	KneeWeight             *float64 `json:"knee_weight,omitempty"`
	StabilityWeight        *float64 `json:"stability_weight,omitempty"`
	EnvWeight              *float64 `json:"env_weight,omitempty"`
	SpinePoorPenalty       *float64 `json:"spine_poor_penalty,omitempty"`       // added after the freefall override
	HandSupportBonusDeg    *float64 `json:"hand_support_bonus_deg,omitempty"`   // effective knee angle credit
	HandSupportDistance    *float64 `json:"hand_support_distance,omitempty"`    // wrist-to-knee distance for support
	ObstacleProximity      *float64 `json:"obstacle_proximity,omitempty"`       // obstacle-to-feet hazard distance
	CompositeFallThreshold *float64 `json:"composite_fall_threshold,omitempty"` // composite at/above counts as falling

	// Fall confirmation params
	FallConfirmFrames *int `json:"fall_confirm_frames,omitempty"` // consecutive fall frames before alarm
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from a file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields omitted
// from the file retain their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath, searching upward from the current directory.
// Panics if the file cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/biomech/*
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that configured values are usable.
func (c *TuningConfig) Validate() error {
	checkUnit := func(name string, v *float64) error {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, *v)
		}
		return nil
	}
	if err := checkUnit("visibility_floor", c.VisibilityFloor); err != nil {
		return err
	}
	if err := checkUnit("min_detection_score", c.MinDetectionScore); err != nil {
		return err
	}
	if err := checkUnit("knee_weight", c.KneeWeight); err != nil {
		return err
	}
	if err := checkUnit("stability_weight", c.StabilityWeight); err != nil {
		return err
	}
	if err := checkUnit("env_weight", c.EnvWeight); err != nil {
		return err
	}
	if c.ProcessNoise != nil && *c.ProcessNoise <= 0 {
		return fmt.Errorf("process_noise must be positive, got %f", *c.ProcessNoise)
	}
	if c.MeasurementNoise != nil && *c.MeasurementNoise <= 0 {
		return fmt.Errorf("measurement_noise must be positive, got %f", *c.MeasurementNoise)
	}
	if c.StabilityFrames != nil && *c.StabilityFrames < 1 {
		return fmt.Errorf("stability_frames must be at least 1, got %d", *c.StabilityFrames)
	}
	if c.FallConfirmFrames != nil && *c.FallConfirmFrames < 1 {
		return fmt.Errorf("fall_confirm_frames must be at least 1, got %d", *c.FallConfirmFrames)
	}
	if c.CompositeFallThreshold != nil && (*c.CompositeFallThreshold < 0 || *c.CompositeFallThreshold > 100) {
		return fmt.Errorf("composite_fall_threshold must be between 0 and 100, got %f", *c.CompositeFallThreshold)
	}
	return nil
}

// Accessors with built-in defaults. The defaults here must match
// config/tuning.defaults.json.

func (c *TuningConfig) GetProcessNoise() float64        { return f64(c.ProcessNoise, 0.001) }
func (c *TuningConfig) GetMeasurementNoise() float64    { return f64(c.MeasurementNoise, 0.01) }
func (c *TuningConfig) GetInitialCovariance() float64   { return f64(c.InitialCovariance, 1.0) }
func (c *TuningConfig) GetVisibilityFloor() float64     { return f64(c.VisibilityFloor, 0.1) }
func (c *TuningConfig) GetShinLengthFraction() float64  { return f64(c.ShinLengthFraction, 0.3) }
func (c *TuningConfig) GetFootSpeedEpsilon() float64    { return f64(c.FootSpeedEpsilon, 0.005) }
func (c *TuningConfig) GetStabilityFrames() int         { return i(c.StabilityFrames, 10) }
func (c *TuningConfig) GetSeatBottomTolerance() float64 { return f64(c.SeatBottomTolerance, 0.1) }
func (c *TuningConfig) GetMinDetectionScore() float64   { return f64(c.MinDetectionScore, 0.5) }

func (c *TuningConfig) GetStabilityDeviationGain() float64 { return f64(c.StabilityDeviationGain, 500) }
func (c *TuningConfig) GetSpinePoorAngleDeg() float64      { return f64(c.SpinePoorAngleDeg, 45) }
func (c *TuningConfig) GetImpactDyThreshold() float64      { return f64(c.ImpactDyThreshold, 0.015) }
func (c *TuningConfig) GetImpactGain() float64             { return f64(c.ImpactGain, 30) }
func (c *TuningConfig) GetFreefallAccelThreshold() float64 { return f64(c.FreefallAccelThreshold, 0.015) }
func (c *TuningConfig) GetFreefallDyThreshold() float64    { return f64(c.FreefallDyThreshold, 0.02) }
func (c *TuningConfig) GetGeometricFallAngleDeg() float64  { return f64(c.GeometricFallAngleDeg, 45) }
func (c *TuningConfig) GetGeometricFallHipY() float64      { return f64(c.GeometricFallHipY, 0.5) }

func (c *TuningConfig) GetKneeAngleBase() float64          { return f64(c.KneeAngleBase, 140) }
func (c *TuningConfig) GetKneeWeight() float64             { return f64(c.KneeWeight, 0.3) }
func (c *TuningConfig) GetStabilityWeight() float64        { return f64(c.StabilityWeight, 0.4) }
func (c *TuningConfig) GetEnvWeight() float64              { return f64(c.EnvWeight, 0.2) }
func (c *TuningConfig) GetSpinePoorPenalty() float64       { return f64(c.SpinePoorPenalty, 15) }
func (c *TuningConfig) GetHandSupportBonusDeg() float64    { return f64(c.HandSupportBonusDeg, 20) }
func (c *TuningConfig) GetHandSupportDistance() float64    { return f64(c.HandSupportDistance, 0.15) }
func (c *TuningConfig) GetObstacleProximity() float64      { return f64(c.ObstacleProximity, 0.2) }
func (c *TuningConfig) GetCompositeFallThreshold() float64 { return f64(c.CompositeFallThreshold, 95) }
func (c *TuningConfig) GetFallConfirmFrames() int          { return i(c.FallConfirmFrames, 60) }

func f64(p *float64, def float64) float64 {
	if p != nil {
		return *p
	}
	return def
}

func i(p *int, def int) int {
	if p != nil {
		return *p
	}
	return def
}
