package footpath

import (
	"time"

	"github.com/banshee-data/pathsense/internal/detect"
)

// DefaultHistorySize is the number of frames PathHistory retains.
const DefaultHistorySize = 10

// PathSample is the nearest distance per class observed in one frame.
type PathSample struct {
	Time    time.Time
	Nearest map[detect.Class]float64
}

// PathHistory is a fixed-capacity ring buffer of PathSamples.
type PathHistory struct {
	samples []PathSample
	next    int
	full    bool
}

// NewPathHistory returns an empty history holding at most size samples.
func NewPathHistory(size int) *PathHistory {
	if size < 2 {
		size = 2
	}
	return &PathHistory{samples: make([]PathSample, size)}
}

// Add appends a sample, overwriting the oldest once full.
func (h *PathHistory) Add(s PathSample) {
	h.samples[h.next] = s
	h.next = (h.next + 1) % len(h.samples)
	if h.next == 0 {
		h.full = true
	}
}

// Len returns the number of retained samples.
func (h *PathHistory) Len() int {
	if h.full {
		return len(h.samples)
	}
	return h.next
}

// Cap returns the buffer capacity.
func (h *PathHistory) Cap() int { return len(h.samples) }

// Latest returns up to n samples, oldest first.
func (h *PathHistory) Latest(n int) []PathSample {
	if n > h.Len() {
		n = h.Len()
	}
	out := make([]PathSample, 0, n)
	for i := n; i > 0; i-- {
		idx := (h.next - i + len(h.samples)) % len(h.samples)
		out = append(out, h.samples[idx])
	}
	return out
}

// Reset drops all samples.
func (h *PathHistory) Reset() {
	for i := range h.samples {
		h.samples[i] = PathSample{}
	}
	h.next = 0
	h.full = false
}

// ApproachRate returns how fast the nearest object of class c closed in
// between the last two samples, in metres per second. ok is false when
// either sample lacks the class, the samples are not time ordered, or the
// object is not getting closer.
func (h *PathHistory) ApproachRate(c detect.Class) (rate float64, ok bool) {
	last := h.Latest(2)
	if len(last) < 2 {
		return 0, false
	}
	prev, cur := last[0], last[1]
	d0, ok0 := prev.Nearest[c]
	d1, ok1 := cur.Nearest[c]
	dt := cur.Time.Sub(prev.Time).Seconds()
	if !ok0 || !ok1 || dt <= 0 {
		return 0, false
	}
	rate = (d0 - d1) / dt
	if rate <= 0 {
		return 0, false
	}
	return rate, true
}
