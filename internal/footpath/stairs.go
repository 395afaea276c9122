package footpath

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Stair heuristics.
const (
	MinStepDelta      = 0.15
	MaxStepDelta      = 0.8
	MinStepHeight     = 0.1
	MaxStepHeight     = 0.3
	DefaultStepHeight = 0.18

	bandMaxHeight = 0.15
	bandMinWidth  = 0.15
	bandMinY      = 0.4
	downTopY      = 0.7
)

// StairInfo describes a suspected staircase.
type StairInfo struct {
	Detected   bool    `json:"detected"`
	GoingDown  bool    `json:"going_down"`
	StepCount  int     `json:"step_count"`
	StepHeight float64 `json:"step_height"`
	Distance   float64 `json:"distance"`
	Direction  string  `json:"direction"`
}

// Message is the spoken form of the stair alert.
func (s StairInfo) Message() string {
	way := "up"
	if s.GoingDown {
		way = "down"
	}
	return fmt.Sprintf("Stairs going %s %s, about %d steps", way, s.Direction, s.StepCount)
}

// DetectStairs looks for either a run of obstacles whose successive
// distances differ by a plausible step depth, or for at least two narrow
// horizontal bands low in the frame.
func DetectStairs(obstacles []Obstacle) StairInfo {
	if len(obstacles) < 2 {
		return StairInfo{}
	}
	byDist := make([]Obstacle, len(obstacles))
	copy(byDist, obstacles)
	sort.SliceStable(byDist, func(i, j int) bool { return byDist[i].Distance < byDist[j].Distance })

	run, deltas := longestStepRun(byDist)

	var bands []Obstacle
	for _, o := range byDist {
		if o.Box.H < bandMaxHeight && o.Box.W > bandMinWidth && o.Box.Y > bandMinY {
			bands = append(bands, o)
		}
	}

	var steps []Obstacle
	switch {
	case len(run) >= 2:
		steps = run
	case len(bands) >= 2:
		steps = bands
	default:
		return StairInfo{}
	}

	nearest := steps[0]
	top := nearest.Box.Y
	if len(bands) > 0 {
		top = bands[0].Box.Y
	}

	height := DefaultStepHeight
	if len(run) >= 2 {
		height = math.Max(MinStepHeight, math.Min(MaxStepHeight, stat.Mean(deltas, nil)))
	}

	return StairInfo{
		Detected:   true,
		GoingDown:  top < downTopY,
		StepCount:  len(steps),
		StepHeight: height,
		Distance:   nearest.Distance,
		Direction:  nearest.Direction(),
	}
}

// longestStepRun returns the longest contiguous run of distance-sorted
// obstacles whose successive deltas fall within the step range, and those
// deltas. The earliest run wins ties.
func longestStepRun(sorted []Obstacle) ([]Obstacle, []float64) {
	bestStart, bestLen := 0, 1
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) {
			d := sorted[i].Distance - sorted[i-1].Distance
			if d >= MinStepDelta && d <= MaxStepDelta {
				continue
			}
		}
		if n := i - start; n > bestLen {
			bestStart, bestLen = start, n
		}
		start = i
	}
	if bestLen < 2 {
		return nil, nil
	}
	run := sorted[bestStart : bestStart+bestLen]
	deltas := make([]float64, 0, bestLen-1)
	for i := 1; i < len(run); i++ {
		deltas = append(deltas, run[i].Distance-run[i-1].Distance)
	}
	return run, deltas
}
