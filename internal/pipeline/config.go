package pipeline

import (
	"github.com/banshee-data/pathsense/internal/alert"
	"github.com/banshee-data/pathsense/internal/config"
	"github.com/banshee-data/pathsense/internal/detect"
	"github.com/banshee-data/pathsense/internal/footpath"
	"github.com/banshee-data/pathsense/internal/geometry"
	"github.com/banshee-data/pathsense/internal/governor"
	"github.com/banshee-data/pathsense/internal/tracks"
)

// Config gathers the per-stage configuration.
type Config struct {
	NMS       detect.NMSConfig // ScoreThreshold is ignored; the governor owns it
	Estimator geometry.Estimator
	Tracks    tracks.Config
	Footpath  footpath.Config
	Governor  governor.Config
	Cooldowns alert.Cooldowns

	// Frame size assumed when a Frame does not carry one.
	FrameWidth  int
	FrameHeight int
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyTuningConfig())
}

// ConfigFromTuning maps a TuningConfig onto the stage configs.
func ConfigFromTuning(t *config.TuningConfig) Config {
	gov := governor.DefaultConfig()
	gov.TargetFPS = t.GetTargetFPS()
	gov.InitialScoreThreshold = t.GetScoreThreshold()
	gov.SecondaryEvery = t.GetSecondaryEvery()

	fp := footpath.DefaultConfig()
	fp.SafetyZone = t.GetSafetyZone()
	fp.GroundLevel = t.GetGroundLevelThreshold()
	fp.DepthFusionTolerance = t.GetDepthFusionTolerance()

	return Config{
		NMS: detect.NMSConfig{
			IoUThreshold:  t.GetNMSIoUThreshold(),
			PerClass:      t.GetPerClassNMS(),
			MaxDetections: t.GetMaxDetections(),
		},
		Estimator: geometry.NewEstimator(t.GetHorizontalFOV(), t.GetVerticalFOV()),
		Tracks: tracks.Config{
			SmoothingFactor:         t.GetSmoothingFactor(),
			AssociationIoUThreshold: t.GetAssociationIoUThreshold(),
			MaxAge:                  t.GetTrackMaxAge(),
		},
		Footpath:    fp,
		Governor:    gov,
		Cooldowns:   alert.DefaultCooldowns(),
		FrameWidth:  t.GetFrameWidth(),
		FrameHeight: t.GetFrameHeight(),
	}
}
