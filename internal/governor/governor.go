// Package governor gates how often frames enter the pipeline. It admits
// at most one frame at a time, enforces a minimum interval derived from
// the target frame rate, drops (never queues) everything else, and drifts
// the detection score threshold in response to measured latency.
package governor

import (
	"sync"
	"time"
)

// Config holds the governor parameters.
type Config struct {
	TargetFPS float64

	// InitialScoreThreshold seeds the adaptive threshold.
	InitialScoreThreshold float64
	MinScoreThreshold     float64
	MaxScoreThreshold     float64

	// Latency above SlowLatency raises the threshold by RaiseStep; below
	// FastLatency lowers it by LowerStep.
	SlowLatency time.Duration
	FastLatency time.Duration
	RaiseStep   float64
	LowerStep   float64

	// SecondaryEvery runs secondary consumers on every Nth accepted frame.
	SecondaryEvery int
}

// DefaultConfig returns the production defaults (15 fps).
func DefaultConfig() Config {
	return Config{
		TargetFPS:             15,
		InitialScoreThreshold: 0.5,
		MinScoreThreshold:     0.3,
		MaxScoreThreshold:     0.6,
		SlowLatency:           150 * time.Millisecond,
		FastLatency:           50 * time.Millisecond,
		RaiseStep:             0.02,
		LowerStep:             0.01,
		SecondaryEvery:        2,
	}
}

// Stats is a point-in-time snapshot of governor counters.
type Stats struct {
	Accepted       uint64        `json:"accepted"`
	Dropped        uint64        `json:"dropped"`
	InFlight       bool          `json:"in_flight"`
	ScoreThreshold float64       `json:"score_threshold"`
	LastLatency    time.Duration `json:"last_latency"`
	MeanLatency    time.Duration `json:"mean_latency"`
}

// Governor is safe for concurrent use; every method takes the same lock.
type Governor struct {
	mu sync.Mutex

	cfg         Config
	minInterval time.Duration

	lastProcess    time.Time
	inFlight       bool
	accepted       uint64
	finished       uint64
	dropped        uint64
	scoreThreshold float64
	lastLatency    time.Duration
	totalLatency   time.Duration
}

// New creates a Governor.
func New(cfg Config) *Governor {
	g := &Governor{cfg: cfg}
	if cfg.TargetFPS > 0 {
		g.minInterval = time.Duration(float64(time.Second) / cfg.TargetFPS)
	}
	if g.cfg.SecondaryEvery <= 0 {
		g.cfg.SecondaryEvery = 1
	}
	g.scoreThreshold = cfg.InitialScoreThreshold
	return g
}

// MinInterval returns the minimum spacing between accepted frames.
func (g *Governor) MinInterval() time.Duration {
	return g.minInterval
}

// TryBegin asks to start a frame at now. It succeeds only when no frame is
// in flight and at least MinInterval has passed since the last accepted
// frame. On success it returns the zero-based index of the accepted frame;
// on refusal the drop counter is incremented.
func (g *Governor) TryBegin(now time.Time) (index uint64, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inFlight || (!g.lastProcess.IsZero() && now.Sub(g.lastProcess) < g.minInterval) {
		g.dropped++
		return 0, false
	}
	g.inFlight = true
	g.lastProcess = now
	index = g.accepted
	g.accepted++
	return index, true
}

// Finish marks the in-flight frame complete and feeds its inference
// latency to the threshold controller.
func (g *Governor) Finish(latency time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.inFlight {
		return
	}
	g.inFlight = false
	g.finished++
	g.lastLatency = latency
	g.totalLatency += latency

	switch {
	case latency > g.cfg.SlowLatency && g.scoreThreshold < g.cfg.MaxScoreThreshold:
		g.scoreThreshold = min(g.cfg.MaxScoreThreshold, g.scoreThreshold+g.cfg.RaiseStep)
	case latency < g.cfg.FastLatency && g.scoreThreshold > g.cfg.MinScoreThreshold:
		g.scoreThreshold = max(g.cfg.MinScoreThreshold, g.scoreThreshold-g.cfg.LowerStep)
	}
}

// Abandon releases the in-flight slot without touching the controller.
func (g *Governor) Abandon() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inFlight = false
}

// IsSecondary reports whether secondary consumers run on this frame.
func (g *Governor) IsSecondary(index uint64) bool {
	return index%uint64(g.cfg.SecondaryEvery) == 0
}

// ScoreThreshold returns the current adaptive detection threshold.
func (g *Governor) ScoreThreshold() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scoreThreshold
}

// Stats returns a snapshot of the counters.
func (g *Governor) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := Stats{
		Accepted:       g.accepted,
		Dropped:        g.dropped,
		InFlight:       g.inFlight,
		ScoreThreshold: g.scoreThreshold,
		LastLatency:    g.lastLatency,
	}
	if g.finished > 0 {
		s.MeanLatency = g.totalLatency / time.Duration(g.finished)
	}
	return s
}

// Reset clears counters, the in-flight flag and the adaptive threshold.
func (g *Governor) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastProcess = time.Time{}
	g.inFlight = false
	g.accepted = 0
	g.finished = 0
	g.dropped = 0
	g.lastLatency = 0
	g.totalLatency = 0
	g.scoreThreshold = g.cfg.InitialScoreThreshold
}
