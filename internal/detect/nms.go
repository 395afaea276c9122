package detect

import (
	"math"
	"sort"
)

// NMSConfig controls non-max suppression.
type NMSConfig struct {
	ScoreThreshold float64 // detections scoring below this are dropped
	IoUThreshold   float64 // overlap at or above this suppresses the weaker box
	PerClass       bool    // suppress only within the same class label
	MaxDetections  int     // output cap; <= 0 means unlimited
}

// IoU returns the intersection-over-union of two axis-aligned boxes.
// It is zero when the boxes do not overlap or either has zero area.
func IoU(a, b BBox) float64 {
	areaA, areaB := a.Area(), b.Area()
	if areaA == 0 || areaB == 0 {
		return 0
	}
	ix := math.Min(a.X+a.W, b.X+b.W) - math.Max(a.X, b.X)
	iy := math.Min(a.Y+a.H, b.Y+b.H) - math.Max(a.Y, b.Y)
	if ix <= 0 || iy <= 0 {
		return 0
	}
	inter := ix * iy
	return inter / (areaA + areaB - inter)
}

type ranked struct {
	det   RawDetection
	index int
}

// Suppress removes duplicate and overlapping detections. Output is
// ordered by descending score; equal scores keep input order.
func Suppress(dets []RawDetection, cfg NMSConfig) []RawDetection {
	candidates := make([]ranked, 0, len(dets))
	for i, d := range dets {
		if d.Score < cfg.ScoreThreshold {
			continue
		}
		candidates = append(candidates, ranked{det: d, index: i})
	}
	sortRanked(candidates)

	var kept []ranked
	if cfg.PerClass {
		groups := make(map[string][]ranked)
		var order []string
		for _, c := range candidates {
			key := classKey(c.det)
			if _, seen := groups[key]; !seen {
				order = append(order, key)
			}
			groups[key] = append(groups[key], c)
		}
		for _, key := range order {
			kept = append(kept, greedy(groups[key], cfg.IoUThreshold, 0)...)
		}
		sortRanked(kept)
		if cfg.MaxDetections > 0 && len(kept) > cfg.MaxDetections {
			kept = kept[:cfg.MaxDetections]
		}
	} else {
		kept = greedy(candidates, cfg.IoUThreshold, cfg.MaxDetections)
	}

	out := make([]RawDetection, len(kept))
	for i, k := range kept {
		out[i] = k.det
	}
	return out
}

// greedy keeps each candidate whose IoU with every already-kept box is
// below the threshold. Candidates must already be sorted.
func greedy(candidates []ranked, iouThreshold float64, limit int) []ranked {
	kept := make([]ranked, 0, len(candidates))
	for _, c := range candidates {
		if limit > 0 && len(kept) >= limit {
			break
		}
		suppressed := false
		for _, k := range kept {
			if IoU(c.det.Box, k.det.Box) >= iouThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, c)
		}
	}
	return kept
}

func sortRanked(r []ranked) {
	sort.SliceStable(r, func(i, j int) bool {
		if r[i].det.Score != r[j].det.Score {
			return r[i].det.Score > r[j].det.Score
		}
		return r[i].index < r[j].index
	})
}

func classKey(d RawDetection) string {
	if d.Class != ClassUnknown {
		return d.Class.String()
	}
	return d.Label
}
