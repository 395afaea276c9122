package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()

	if cfg.ScoreThreshold == nil || *cfg.ScoreThreshold != 0.5 {
		t.Errorf("Expected ScoreThreshold 0.5, got %v", cfg.ScoreThreshold)
	}
	if cfg.PerClassNMS == nil || *cfg.PerClassNMS != false {
		t.Errorf("Expected PerClassNMS false, got %v", cfg.PerClassNMS)
	}
	if cfg.TrackMaxAgeMs == nil || *cfg.TrackMaxAgeMs != 1500 {
		t.Errorf("Expected TrackMaxAgeMs 1500, got %v", cfg.TrackMaxAgeMs)
	}
	if cfg.SecondaryEvery == nil || *cfg.SecondaryEvery != 2 {
		t.Errorf("Expected SecondaryEvery 2, got %v", cfg.SecondaryEvery)
	}

	if cfg.GetTargetFPS() != 15 {
		t.Errorf("GetTargetFPS() = %f, want 15", cfg.GetTargetFPS())
	}
	if cfg.GetTrackMaxAge() != 1500*time.Millisecond {
		t.Errorf("GetTrackMaxAge() = %v, want 1.5s", cfg.GetTrackMaxAge())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestDefaultsFileMatchesBuiltins(t *testing.T) {
	fromFile := MustLoadDefaultConfig()
	if diff := cmp.Diff(DefaultTuningConfig(), fromFile); diff != "" {
		t.Errorf("%s drifted from built-in defaults (-builtin +file):\n%s", DefaultConfigPath, diff)
	}
}

func TestEmptyConfigGetters(t *testing.T) {
	cfg := EmptyTuningConfig()
	if cfg.GetNMSIoUThreshold() != 0.45 {
		t.Errorf("GetNMSIoUThreshold() = %f, want 0.45", cfg.GetNMSIoUThreshold())
	}
	if cfg.GetMaxDetections() != 20 {
		t.Errorf("GetMaxDetections() = %d, want 20", cfg.GetMaxDetections())
	}
	if cfg.GetHorizontalFOV() != 70 || cfg.GetVerticalFOV() != 60 {
		t.Errorf("FOV = %f/%f, want 70/60", cfg.GetHorizontalFOV(), cfg.GetVerticalFOV())
	}
	if cfg.GetSafetyZone() != 1.5 {
		t.Errorf("GetSafetyZone() = %f, want 1.5", cfg.GetSafetyZone())
	}
	if cfg.GetFrameWidth() != 640 || cfg.GetFrameHeight() != 480 {
		t.Errorf("frame = %dx%d, want 640x480", cfg.GetFrameWidth(), cfg.GetFrameHeight())
	}
}

func TestLoadTuningConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "pathsense.json")

	testJSON := `{
  "score_threshold": 0.4,
  "per_class_nms": true,
  "safety_zone": 2.0,
  "track_max_age_ms": 900
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.GetScoreThreshold() != 0.4 {
		t.Errorf("GetScoreThreshold() = %f, want 0.4", cfg.GetScoreThreshold())
	}
	if !cfg.GetPerClassNMS() {
		t.Error("Expected PerClassNMS true")
	}
	if cfg.GetSafetyZone() != 2.0 {
		t.Errorf("GetSafetyZone() = %f, want 2.0", cfg.GetSafetyZone())
	}
	if cfg.GetTrackMaxAge() != 900*time.Millisecond {
		t.Errorf("GetTrackMaxAge() = %v, want 900ms", cfg.GetTrackMaxAge())
	}
	// Omitted fields fall back to defaults.
	if cfg.GetTargetFPS() != 15 {
		t.Errorf("GetTargetFPS() = %f, want default 15", cfg.GetTargetFPS())
	}
}

func TestLoadTuningConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(name, body string) string {
		p := filepath.Join(tmpDir, name)
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"wrong extension", write("cfg.yaml", "{}"), ".json extension"},
		{"missing file", filepath.Join(tmpDir, "absent.json"), "failed to stat"},
		{"bad json", write("bad.json", "{"), "failed to parse"},
		{"out of range", write("range.json", `{"score_threshold": 1.5}`), "score_threshold"},
		{"bad smoothing", write("smooth.json", `{"smoothing_factor": 0}`), "smoothing_factor"},
		{"bad fov", write("fov.json", `{"vertical_fov": 180}`), "vertical_fov"},
		{"bad fps", write("fps.json", `{"target_fps": 0}`), "target_fps"},
		{"too large", write("big.json", `{"pad":"`+strings.Repeat("x", 1<<20)+`"}`), "too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTuningConfig(tt.path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PATHSENSE_SAFETY_ZONE":      "2.5",
		"PATHSENSE_MAX_DETECTIONS":   " 12 ",
		"PATHSENSE_PER_CLASS_NMS":    "true",
		"PATHSENSE_TRACK_MAX_AGE_MS": "2000",
		"UNRELATED":                  "1",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultTuningConfig()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.GetSafetyZone() != 2.5 {
		t.Errorf("GetSafetyZone() = %f, want 2.5", cfg.GetSafetyZone())
	}
	if cfg.GetMaxDetections() != 12 {
		t.Errorf("GetMaxDetections() = %d, want 12", cfg.GetMaxDetections())
	}
	if !cfg.GetPerClassNMS() {
		t.Error("Expected PerClassNMS true")
	}
	if cfg.GetTrackMaxAge() != 2*time.Second {
		t.Errorf("GetTrackMaxAge() = %v, want 2s", cfg.GetTrackMaxAge())
	}
	if cfg.GetScoreThreshold() != 0.5 {
		t.Errorf("untouched field changed: %f", cfg.GetScoreThreshold())
	}
}

func TestApplyEnv_Errors(t *testing.T) {
	tests := map[string]string{
		"PATHSENSE_TARGET_FPS":      "fast",
		"PATHSENSE_SECONDARY_EVERY": "0",
		"PATHSENSE_PER_CLASS_NMS":   "maybe",
		"PATHSENSE_SCORE_THRESHOLD": "2",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			lookup := func(k string) (string, bool) {
				if k == key {
					return val, true
				}
				return "", false
			}
			if err := DefaultTuningConfig().ApplyEnv(lookup); err == nil {
				t.Errorf("%s=%s should fail", key, val)
			}
		})
	}
}
