package alert

import (
	"sync"
	"time"

	"github.com/banshee-data/pathsense/internal/footpath"
	"github.com/banshee-data/pathsense/internal/hazard"
)

// Sink consumes alerts: speech, spatial audio, haptics, companion apps.
type Sink interface {
	Warn(w footpath.Warning) error
	Stairs(s footpath.StairInfo) error
	Surface(s footpath.SurfaceInfo) error
}

// Dispatcher rate-limits a frame's alerts and fans the survivors out to
// every sink. A sink that fails or panics is logged and skipped.
type Dispatcher struct {
	limiter *RateLimiter

	mu     sync.RWMutex
	sinks  []Sink
	counts map[hazard.Level]int
}

// NewDispatcher returns a Dispatcher over the given sinks.
func NewDispatcher(limiter *RateLimiter, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		limiter: limiter,
		sinks:   sinks,
		counts:  make(map[hazard.Level]int),
	}
}

// AddSink attaches another sink.
func (d *Dispatcher) AddSink(s Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, s)
}

// Dispatch sends the analysis' warnings in priority order, then any stair
// and surface alerts, and returns the warnings that were let through.
func (d *Dispatcher) Dispatch(a footpath.Analysis, now time.Time) []footpath.Warning {
	d.mu.Lock()
	defer d.mu.Unlock()

	var sent []footpath.Warning
	for _, w := range a.Warnings {
		if !d.limiter.Allow(LevelKey(w.Level), now) {
			tracef("suppressed %s warning for track %d", w.Level, w.TrackID)
			continue
		}
		sent = append(sent, w)
		d.counts[w.Level]++
		for _, s := range d.sinks {
			deliver(s, "warn", func() error { return s.Warn(w) })
		}
	}

	if a.Stairs.Detected && d.limiter.Allow(KeyStairs, now) {
		diagf("stairs: down=%v steps=%d at %.1fm", a.Stairs.GoingDown, a.Stairs.StepCount, a.Stairs.Distance)
		for _, s := range d.sinks {
			deliver(s, "stairs", func() error { return s.Stairs(a.Stairs) })
		}
	}

	if a.Surface.Uneven && d.limiter.Allow(KeySurface, now) {
		diagf("uneven surface: severity=%s variance=%.3f at %.1fm",
			a.Surface.Severity, a.Surface.Variance, a.Surface.NearestDistance)
		for _, s := range d.sinks {
			deliver(s, "surface", func() error { return s.Surface(a.Surface) })
		}
	}
	return sent
}

func deliver(s Sink, kind string, send func() error) {
	defer func() {
		if r := recover(); r != nil {
			opsf("sink %T %s panicked: %v", s, kind, r)
		}
	}()
	if err := send(); err != nil {
		opsf("sink %T %s failed: %v", s, kind, err)
	}
}

// Counts returns the number of warnings dispatched per level.
func (d *Dispatcher) Counts() map[hazard.Level]int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[hazard.Level]int, len(d.counts))
	for k, v := range d.counts {
		out[k] = v
	}
	return out
}

// Reset clears the limiter windows and counters.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.limiter.Reset()
	clear(d.counts)
}
