// Package report renders a session trace as an interactive HTML page and
// as static PNG plots.
package report

import (
	"time"

	"github.com/banshee-data/pathsense/internal/pipeline"
)

// Point summarises one accepted frame.
type Point struct {
	FrameIndex     uint64
	Seq            uint64
	Time           time.Time
	Latency        time.Duration
	ScoreThreshold float64
	Detections     int
	Warnings       int
	Dispatched     int

	// Nearest is the distance of the closest detection in metres, zero
	// when the frame had none.
	Nearest   float64
	MaxHazard float64
}

// Trace collects frame results for a session. It is not safe for
// concurrent use; feed it from the pipeline observer.
type Trace struct {
	SessionID string
	Points    []Point
}

// NewTrace returns an empty trace for a session.
func NewTrace(sessionID string) *Trace {
	return &Trace{SessionID: sessionID}
}

// Add appends a frame result.
func (t *Trace) Add(r pipeline.Result) {
	p := Point{
		FrameIndex:     r.FrameIndex,
		Seq:            r.Seq,
		Time:           r.Timestamp,
		Latency:        r.Latency,
		ScoreThreshold: r.ScoreThreshold,
		Detections:     len(r.Detections),
		Warnings:       len(r.Analysis.Warnings),
		Dispatched:     len(r.Dispatched),
	}
	if len(r.Detections) > 0 {
		// detections arrive nearest first
		p.Nearest = r.Detections[0].Distance
	}
	for _, d := range r.Detections {
		if d.Hazard.Score > p.MaxHazard {
			p.MaxHazard = d.Hazard.Score
		}
	}
	t.Points = append(t.Points, p)
}

// Len returns the number of frames recorded.
func (t *Trace) Len() int { return len(t.Points) }

// TotalWarnings sums dispatched warnings across the trace.
func (t *Trace) TotalWarnings() int {
	n := 0
	for _, p := range t.Points {
		n += p.Dispatched
	}
	return n
}
