package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/pathsense.defaults.json"

// EnvPrefix prefixes every environment override understood by ApplyEnv.
const EnvPrefix = "PATHSENSE_"

// TuningConfig is the pipeline configuration. Every field is optional;
// the Get* methods supply defaults for anything left unset, so partial
// files are safe.
type TuningConfig struct {
	// Suppression
	ScoreThreshold  *float64 `json:"score_threshold,omitempty"`
	NMSIoUThreshold *float64 `json:"nms_iou_threshold,omitempty"`
	PerClassNMS     *bool    `json:"per_class_nms,omitempty"`
	MaxDetections   *int     `json:"max_detections,omitempty"`

	// Camera geometry
	HorizontalFOV *float64 `json:"horizontal_fov,omitempty"` // degrees
	VerticalFOV   *float64 `json:"vertical_fov,omitempty"`   // degrees
	FrameWidth    *int     `json:"frame_width,omitempty"`    // used when a frame omits its size
	FrameHeight   *int     `json:"frame_height,omitempty"`

	// Tracking
	SmoothingFactor         *float64 `json:"smoothing_factor,omitempty"`
	TrackMaxAgeMs           *int64   `json:"track_max_age_ms,omitempty"`
	AssociationIoUThreshold *float64 `json:"association_iou_threshold,omitempty"`

	// Foot path
	SafetyZone           *float64 `json:"safety_zone,omitempty"` // metres
	GroundLevelThreshold *float64 `json:"ground_level_threshold,omitempty"`
	DepthFusionTolerance *float64 `json:"depth_fusion_tolerance,omitempty"`

	// Scheduling
	TargetFPS      *float64 `json:"target_fps,omitempty"`
	SecondaryEvery *int     `json:"secondary_every,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// from the built-in defaults.
func DefaultTuningConfig() *TuningConfig {
	var e TuningConfig
	return &TuningConfig{
		ScoreThreshold:          ptrFloat64(e.GetScoreThreshold()),
		NMSIoUThreshold:         ptrFloat64(e.GetNMSIoUThreshold()),
		PerClassNMS:             ptrBool(e.GetPerClassNMS()),
		MaxDetections:           ptrInt(e.GetMaxDetections()),
		HorizontalFOV:           ptrFloat64(e.GetHorizontalFOV()),
		VerticalFOV:             ptrFloat64(e.GetVerticalFOV()),
		FrameWidth:              ptrInt(e.GetFrameWidth()),
		FrameHeight:             ptrInt(e.GetFrameHeight()),
		SmoothingFactor:         ptrFloat64(e.GetSmoothingFactor()),
		TrackMaxAgeMs:           ptrInt64(e.GetTrackMaxAge().Milliseconds()),
		AssociationIoUThreshold: ptrFloat64(e.GetAssociationIoUThreshold()),
		SafetyZone:              ptrFloat64(e.GetSafetyZone()),
		GroundLevelThreshold:    ptrFloat64(e.GetGroundLevelThreshold()),
		DepthFusionTolerance:    ptrFloat64(e.GetDepthFusionTolerance()),
		TargetFPS:               ptrFloat64(e.GetTargetFPS()),
		SecondaryEvery:          ptrInt(e.GetSecondaryEvery()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
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

// MustLoadDefaultConfig loads DefaultConfigPath, searching upward from the
// working directory. Panics if the file cannot be loaded; intended for
// test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/<pkg>/
		"../../../" + DefaultConfigPath, // from cmd/<binary>/ and deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that every set value is in range.
func (c *TuningConfig) Validate() error {
	unit := func(name string, v *float64) error {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, *v)
		}
		return nil
	}
	positive := func(name string, v *float64) error {
		if v != nil && !(*v > 0) {
			return fmt.Errorf("%s must be positive, got %f", name, *v)
		}
		return nil
	}
	for _, err := range []error{
		unit("score_threshold", c.ScoreThreshold),
		unit("nms_iou_threshold", c.NMSIoUThreshold),
		unit("association_iou_threshold", c.AssociationIoUThreshold),
		unit("ground_level_threshold", c.GroundLevelThreshold),
		positive("safety_zone", c.SafetyZone),
		positive("target_fps", c.TargetFPS),
	} {
		if err != nil {
			return err
		}
	}

	if c.SmoothingFactor != nil && (*c.SmoothingFactor <= 0 || *c.SmoothingFactor > 1) {
		return fmt.Errorf("smoothing_factor must be in (0, 1], got %f", *c.SmoothingFactor)
	}
	for name, fov := range map[string]*float64{"horizontal_fov": c.HorizontalFOV, "vertical_fov": c.VerticalFOV} {
		if fov != nil && (*fov <= 0 || *fov >= 180) {
			return fmt.Errorf("%s must be in (0, 180) degrees, got %f", name, *fov)
		}
	}
	if c.MaxDetections != nil && *c.MaxDetections <= 0 {
		return fmt.Errorf("max_detections must be positive, got %d", *c.MaxDetections)
	}
	if c.TrackMaxAgeMs != nil && *c.TrackMaxAgeMs <= 0 {
		return fmt.Errorf("track_max_age_ms must be positive, got %d", *c.TrackMaxAgeMs)
	}
	if c.SecondaryEvery != nil && *c.SecondaryEvery <= 0 {
		return fmt.Errorf("secondary_every must be positive, got %d", *c.SecondaryEvery)
	}
	if c.DepthFusionTolerance != nil && *c.DepthFusionTolerance < 0 {
		return fmt.Errorf("depth_fusion_tolerance must be non-negative, got %f", *c.DepthFusionTolerance)
	}
	if c.FrameWidth != nil && *c.FrameWidth <= 0 {
		return fmt.Errorf("frame_width must be positive, got %d", *c.FrameWidth)
	}
	if c.FrameHeight != nil && *c.FrameHeight <= 0 {
		return fmt.Errorf("frame_height must be positive, got %d", *c.FrameHeight)
	}
	return nil
}

// ApplyEnv overrides fields from PATHSENSE_<JSON_NAME> variables, e.g.
// PATHSENSE_SAFETY_ZONE=2. lookup is normally os.LookupEnv. The result is
// validated.
func (c *TuningConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	floats := map[string]**float64{
		"score_threshold":           &c.ScoreThreshold,
		"nms_iou_threshold":         &c.NMSIoUThreshold,
		"horizontal_fov":            &c.HorizontalFOV,
		"vertical_fov":              &c.VerticalFOV,
		"smoothing_factor":          &c.SmoothingFactor,
		"association_iou_threshold": &c.AssociationIoUThreshold,
		"safety_zone":               &c.SafetyZone,
		"ground_level_threshold":    &c.GroundLevelThreshold,
		"depth_fusion_tolerance":    &c.DepthFusionTolerance,
		"target_fps":                &c.TargetFPS,
	}
	ints := map[string]**int{
		"max_detections":  &c.MaxDetections,
		"frame_width":     &c.FrameWidth,
		"frame_height":    &c.FrameHeight,
		"secondary_every": &c.SecondaryEvery,
	}

	envName := func(key string) string { return EnvPrefix + strings.ToUpper(key) }

	for key, field := range floats {
		if raw, ok := lookup(envName(key)); ok {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", envName(key), err)
			}
			*field = ptrFloat64(v)
		}
	}
	for key, field := range ints {
		if raw, ok := lookup(envName(key)); ok {
			v, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return fmt.Errorf("invalid %s: %w", envName(key), err)
			}
			*field = ptrInt(v)
		}
	}
	if raw, ok := lookup(envName("per_class_nms")); ok {
		v, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", envName("per_class_nms"), err)
		}
		c.PerClassNMS = ptrBool(v)
	}
	if raw, ok := lookup(envName("track_max_age_ms")); ok {
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", envName("track_max_age_ms"), err)
		}
		c.TrackMaxAgeMs = ptrInt64(v)
	}
	return c.Validate()
}

// GetScoreThreshold returns the initial detection score threshold.
func (c *TuningConfig) GetScoreThreshold() float64 {
	if c.ScoreThreshold == nil {
		return 0.5
	}
	return *c.ScoreThreshold
}

// GetNMSIoUThreshold returns the suppression overlap threshold.
func (c *TuningConfig) GetNMSIoUThreshold() float64 {
	if c.NMSIoUThreshold == nil {
		return 0.45
	}
	return *c.NMSIoUThreshold
}

// GetPerClassNMS returns whether suppression runs per class.
func (c *TuningConfig) GetPerClassNMS() bool {
	if c.PerClassNMS == nil {
		return false
	}
	return *c.PerClassNMS
}

// GetMaxDetections returns the cap on detections per frame.
func (c *TuningConfig) GetMaxDetections() int {
	if c.MaxDetections == nil {
		return 20
	}
	return *c.MaxDetections
}

// GetHorizontalFOV returns the horizontal field of view in degrees.
func (c *TuningConfig) GetHorizontalFOV() float64 {
	if c.HorizontalFOV == nil {
		return 70
	}
	return *c.HorizontalFOV
}

// GetVerticalFOV returns the vertical field of view in degrees.
func (c *TuningConfig) GetVerticalFOV() float64 {
	if c.VerticalFOV == nil {
		return 60
	}
	return *c.VerticalFOV
}

// GetFrameWidth returns the fallback frame width in pixels.
func (c *TuningConfig) GetFrameWidth() int {
	if c.FrameWidth == nil {
		return 640
	}
	return *c.FrameWidth
}

// GetFrameHeight returns the fallback frame height in pixels.
func (c *TuningConfig) GetFrameHeight() int {
	if c.FrameHeight == nil {
		return 480
	}
	return *c.FrameHeight
}

// GetSmoothingFactor returns the EMA weight of new samples.
func (c *TuningConfig) GetSmoothingFactor() float64 {
	if c.SmoothingFactor == nil {
		return 0.5
	}
	return *c.SmoothingFactor
}

// GetTrackMaxAge returns how long an unseen track survives.
func (c *TuningConfig) GetTrackMaxAge() time.Duration {
	if c.TrackMaxAgeMs == nil {
		return 1500 * time.Millisecond
	}
	return time.Duration(*c.TrackMaxAgeMs) * time.Millisecond
}

// GetAssociationIoUThreshold returns the minimum IoU to continue a track.
func (c *TuningConfig) GetAssociationIoUThreshold() float64 {
	if c.AssociationIoUThreshold == nil {
		return 0.3
	}
	return *c.AssociationIoUThreshold
}

// GetSafetyZone returns the safety zone radius in metres.
func (c *TuningConfig) GetSafetyZone() float64 {
	if c.SafetyZone == nil {
		return 1.5
	}
	return *c.SafetyZone
}

// GetGroundLevelThreshold returns the minimum box bottom for ground
// obstacles, as a fraction of frame height.
func (c *TuningConfig) GetGroundLevelThreshold() float64 {
	if c.GroundLevelThreshold == nil {
		return 0.4
	}
	return *c.GroundLevelThreshold
}

// GetDepthFusionTolerance returns the depth fusion window in metres.
func (c *TuningConfig) GetDepthFusionTolerance() float64 {
	if c.DepthFusionTolerance == nil {
		return 0.5
	}
	return *c.DepthFusionTolerance
}

// GetTargetFPS returns the governor's target frame rate.
func (c *TuningConfig) GetTargetFPS() float64 {
	if c.TargetFPS == nil {
		return 15
	}
	return *c.TargetFPS
}

// GetSecondaryEvery returns how often secondary consumers run.
func (c *TuningConfig) GetSecondaryEvery() int {
	if c.SecondaryEvery == nil {
		return 2
	}
	return *c.SecondaryEvery
}
