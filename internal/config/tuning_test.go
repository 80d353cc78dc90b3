package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmptyConfigAccessorsCarryDefaults(t *testing.T) {
	cfg := EmptyTuningConfig()

	if cfg.ProcessNoise != nil {
		t.Errorf("Expected nil ProcessNoise on empty config, got %v", cfg.ProcessNoise)
	}

	// Accessors resolve nil fields to the built-in defaults
	if cfg.GetProcessNoise() != 0.001 {
		t.Errorf("GetProcessNoise() = %f, want 0.001", cfg.GetProcessNoise())
	}
	if cfg.GetMeasurementNoise() != 0.01 {
		t.Errorf("GetMeasurementNoise() = %f, want 0.01", cfg.GetMeasurementNoise())
	}
	if cfg.GetInitialCovariance() != 1.0 {
		t.Errorf("GetInitialCovariance() = %f, want 1.0", cfg.GetInitialCovariance())
	}
	if cfg.GetVisibilityFloor() != 0.1 {
		t.Errorf("GetVisibilityFloor() = %f, want 0.1", cfg.GetVisibilityFloor())
	}
	if cfg.GetStabilityFrames() != 10 {
		t.Errorf("GetStabilityFrames() = %d, want 10", cfg.GetStabilityFrames())
	}
	if cfg.GetKneeAngleBase() != 140 {
		t.Errorf("GetKneeAngleBase() = %f, want 140", cfg.GetKneeAngleBase())
	}
	if cfg.GetCompositeFallThreshold() != 95 {
		t.Errorf("GetCompositeFallThreshold() = %f, want 95", cfg.GetCompositeFallThreshold())
	}
	if cfg.GetFallConfirmFrames() != 60 {
		t.Errorf("GetFallConfirmFrames() = %d, want 60", cfg.GetFallConfirmFrames())
	}
}

func TestLoadTuningConfigPartialMerge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.json")
	content := `{"process_noise": 0.005, "fall_confirm_frames": 30}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("LoadTuningConfig failed: %v", err)
	}

	// Overridden fields
	if cfg.GetProcessNoise() != 0.005 {
		t.Errorf("GetProcessNoise() = %f, want 0.005", cfg.GetProcessNoise())
	}
	if cfg.GetFallConfirmFrames() != 30 {
		t.Errorf("GetFallConfirmFrames() = %d, want 30", cfg.GetFallConfirmFrames())
	}

	// Omitted fields keep their defaults
	if cfg.GetMeasurementNoise() != 0.01 {
		t.Errorf("GetMeasurementNoise() = %f, want default 0.01", cfg.GetMeasurementNoise())
	}
	if cfg.GetStabilityFrames() != 10 {
		t.Errorf("GetStabilityFrames() = %d, want default 10", cfg.GetStabilityFrames())
	}
}

func TestLoadTuningConfigRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	// Wrong extension
	txtPath := filepath.Join(dir, "tuning.txt")
	if err := os.WriteFile(txtPath, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := LoadTuningConfig(txtPath); err == nil {
		t.Error("Expected error for non-json extension")
	}

	// Missing file
	if _, err := LoadTuningConfig(filepath.Join(dir, "absent.json")); err == nil {
		t.Error("Expected error for missing file")
	}

	// Malformed JSON
	badPath := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badPath, []byte(`{not json`), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := LoadTuningConfig(badPath); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestValidateRejectsOutOfRangeValues(t *testing.T) {
	bad := func(mutate func(c *TuningConfig)) *TuningConfig {
		c := EmptyTuningConfig()
		mutate(c)
		return c
	}
	f := func(v float64) *float64 { return &v }
	n := func(v int) *int { return &v }

	cases := []struct {
		name string
		cfg  *TuningConfig
	}{
		{"visibility floor above 1", bad(func(c *TuningConfig) { c.VisibilityFloor = f(1.5) })},
		{"negative min detection score", bad(func(c *TuningConfig) { c.MinDetectionScore = f(-0.1) })},
		{"zero process noise", bad(func(c *TuningConfig) { c.ProcessNoise = f(0) })},
		{"negative measurement noise", bad(func(c *TuningConfig) { c.MeasurementNoise = f(-1) })},
		{"zero stability frames", bad(func(c *TuningConfig) { c.StabilityFrames = n(0) })},
		{"zero fall confirm frames", bad(func(c *TuningConfig) { c.FallConfirmFrames = n(0) })},
		{"fall threshold above 100", bad(func(c *TuningConfig) { c.CompositeFallThreshold = f(150) })},
	}
	for _, tc := range cases {
		if err := tc.cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}

	if err := EmptyTuningConfig().Validate(); err != nil {
		t.Errorf("empty config should validate: %v", err)
	}
}

func TestDefaultsFileMatchesAccessors(t *testing.T) {
	// The canonical defaults file and the accessor defaults must agree;
	// an empty config and a loaded defaults file resolve identically.
	cfg, err := LoadTuningConfig(filepath.Join("..", "..", DefaultConfigPath))
	if err != nil {
		t.Fatalf("Failed to load defaults file: %v", err)
	}
	empty := EmptyTuningConfig()

	if cfg.GetProcessNoise() != empty.GetProcessNoise() {
		t.Errorf("process_noise mismatch: file %f, accessor %f", cfg.GetProcessNoise(), empty.GetProcessNoise())
	}
	if cfg.GetShinLengthFraction() != empty.GetShinLengthFraction() {
		t.Errorf("shin_length_fraction mismatch: file %f, accessor %f", cfg.GetShinLengthFraction(), empty.GetShinLengthFraction())
	}
	if cfg.GetImpactGain() != empty.GetImpactGain() {
		t.Errorf("impact_gain mismatch: file %f, accessor %f", cfg.GetImpactGain(), empty.GetImpactGain())
	}
	if cfg.GetFallConfirmFrames() != empty.GetFallConfirmFrames() {
		t.Errorf("fall_confirm_frames mismatch: file %d, accessor %d", cfg.GetFallConfirmFrames(), empty.GetFallConfirmFrames())
	}
}
