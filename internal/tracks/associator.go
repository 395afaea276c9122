package tracks

import (
	"time"

	"github.com/banshee-data/pathsense/internal/detect"
	"github.com/banshee-data/pathsense/internal/geometry"
)

// Config holds association and smoothing parameters.
type Config struct {
	SmoothingFactor         float64       // EMA weight of the new sample, (0,1]
	AssociationIoUThreshold float64       // minimum IoU to continue a track
	MaxAge                  time.Duration // tracks unseen for longer are dropped
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		SmoothingFactor:         0.5,
		AssociationIoUThreshold: 0.3,
		MaxAge:                  1500 * time.Millisecond,
	}
}

// TrackedDetection is a smoothed detection annotated with its track.
type TrackedDetection struct {
	geometry.NormalizedDetection
	TrackID   int64   `json:"track_id"`
	VelocityX float64 `json:"velocity_x"`
	VelocityY float64 `json:"velocity_y"`
	Hits      int     `json:"hits"`
}

// Associator matches detections to tracks. Relocate, when set, recomputes
// each output's Position from the smoothed box.
type Associator struct {
	Config   Config
	Relocate func(detect.BBox) geometry.Position
}

// NewAssociator returns an Associator with the given config.
func NewAssociator(cfg Config) *Associator {
	return &Associator{Config: cfg}
}

// Update associates one frame of detections with the store and returns
// the detections annotated with track identity, in input order.
//
// Each detection claims the unclaimed same-class track with the highest
// IoU, provided it meets the threshold. Claiming is greedy in detection
// order and ties go to the lower track id. Unmatched detections start new
// tracks. Stale tracks are expired after all detections are processed.
func (a *Associator) Update(s *Store, dets []geometry.NormalizedDetection, now time.Time) []TrackedDetection {
	existing := s.sortedIDs()
	claimed := make(map[int64]bool, len(dets))
	out := make([]TrackedDetection, 0, len(dets))
	alpha := a.Config.SmoothingFactor
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}

	for _, d := range dets {
		var best *Track
		bestIoU := -1.0
		for _, id := range existing {
			if claimed[id] {
				continue
			}
			t := s.tracks[id]
			if !sameClass(t, d) {
				continue
			}
			if iou := detect.IoU(t.Box, d.Box); iou > bestIoU {
				best, bestIoU = t, iou
			}
		}

		var t *Track
		if best != nil && bestIoU >= a.Config.AssociationIoUThreshold {
			t = best
			prev := t.Box
			t.Box = detect.BBox{
				X: ema(alpha, d.Box.X, prev.X),
				Y: ema(alpha, d.Box.Y, prev.Y),
				W: ema(alpha, d.Box.W, prev.W),
				H: ema(alpha, d.Box.H, prev.H),
			}
			t.VelocityX = d.Box.X - prev.X
			t.VelocityY = d.Box.Y - prev.Y
			t.Score = ema(alpha, d.Confidence, t.Score)
			t.Distance = ema(alpha, d.Distance, t.Distance)
			t.LastSeen = now
			t.Hits++
		} else {
			t = s.create(Track{
				Class:     d.Class,
				Label:     d.Label,
				Box:       d.Box,
				Score:     d.Confidence,
				Distance:  d.Distance,
				FirstSeen: now,
				LastSeen:  now,
				Hits:      1,
			})
		}
		claimed[t.ID] = true

		smoothed := d
		smoothed.Box = t.Box
		smoothed.Confidence = t.Score
		smoothed.Distance = t.Distance
		if a.Relocate != nil {
			smoothed.Position = a.Relocate(t.Box)
		}
		out = append(out, TrackedDetection{
			NormalizedDetection: smoothed,
			TrackID:             t.ID,
			VelocityX:           t.VelocityX,
			VelocityY:           t.VelocityY,
			Hits:                t.Hits,
		})
	}

	s.Expire(now, a.Config.MaxAge)
	return out
}

func ema(alpha, sample, previous float64) float64 {
	return alpha*sample + (1-alpha)*previous
}

func sameClass(t *Track, d geometry.NormalizedDetection) bool {
	if t.Class != d.Class {
		return false
	}
	if t.Class == detect.ClassUnknown {
		return t.Label == d.Label
	}
	return true
}
