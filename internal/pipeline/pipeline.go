package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/pathsense/internal/alert"
	"github.com/banshee-data/pathsense/internal/detect"
	"github.com/banshee-data/pathsense/internal/footpath"
	"github.com/banshee-data/pathsense/internal/geometry"
	"github.com/banshee-data/pathsense/internal/governor"
	"github.com/banshee-data/pathsense/internal/hazard"
	"github.com/banshee-data/pathsense/internal/timeutil"
	"github.com/banshee-data/pathsense/internal/tracks"
)

var (
	// ErrFrameDropped is returned when the governor refuses a frame. The
	// frame has had no effect on any state.
	ErrFrameDropped = errors.New("pipeline: frame dropped")

	// ErrStopped is returned once Stop has been called.
	ErrStopped = errors.New("pipeline: stopped")
)

// State is all cross-frame mutable state. It is guarded by the
// pipeline's mutex and touched only by the single worker.
type State struct {
	Tracks   *tracks.Store
	History  *footpath.PathHistory
	Limiter  *alert.RateLimiter
	Governor *governor.Governor
}

// Result is the outcome of one accepted frame.
type Result struct {
	SessionID      string               `json:"session_id"`
	FrameIndex     uint64               `json:"frame_index"`
	Seq            uint64               `json:"seq"`
	Timestamp      time.Time            `json:"timestamp"`
	Detections     []footpath.Detection `json:"detections"`
	Analysis       footpath.Analysis    `json:"analysis"`
	Secondary      bool                 `json:"secondary"`
	Depth          *footpath.DepthZones `json:"depth,omitempty"`
	Dispatched     []footpath.Warning   `json:"dispatched,omitempty"`
	Latency        time.Duration        `json:"latency"`
	ScoreThreshold float64              `json:"score_threshold"`
	Discarded      int                  `json:"discarded"`
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock injects the clock used for latency and unstamped frames.
func WithClock(c timeutil.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithDepth attaches a depth collaborator consulted on secondary frames.
func WithDepth(d footpath.DepthEstimator) Option {
	return func(p *Pipeline) { p.depth = d }
}

// WithSinks adds alert sinks.
func WithSinks(sinks ...alert.Sink) Option {
	return func(p *Pipeline) { p.sinks = append(p.sinks, sinks...) }
}

// WithObserver registers a callback receiving every Result produced by Run.
func WithObserver(f func(Result)) Option {
	return func(p *Pipeline) { p.observer = f }
}

// Pipeline turns frames into tracked, scored detections and alerts.
type Pipeline struct {
	cfg      Config
	detector detect.Detector
	depth    footpath.DepthEstimator
	clock    timeutil.Clock
	sinks    []alert.Sink
	observer func(Result)

	associator *tracks.Associator
	analyzer   *footpath.Analyzer
	dispatcher *alert.Dispatcher

	sessionID string
	started   time.Time

	mu        sync.Mutex
	state     State
	stopped   bool
	discarded uint64
}

// New builds a Pipeline around a detector.
func New(cfg Config, detector detect.Detector, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:       cfg,
		detector:  detector,
		clock:     timeutil.RealClock{},
		sessionID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.associator = tracks.NewAssociator(cfg.Tracks)
	p.associator.Relocate = cfg.Estimator.Locate
	p.analyzer = footpath.NewAnalyzer(cfg.Footpath)

	p.state = State{
		Tracks:   tracks.NewStore(),
		History:  footpath.NewPathHistory(footpath.DefaultHistorySize),
		Limiter:  alert.NewRateLimiter(cfg.Cooldowns),
		Governor: governor.New(cfg.Governor),
	}
	p.dispatcher = alert.NewDispatcher(p.state.Limiter, p.sinks...)
	p.started = p.clock.Now()
	diagf("session %s started", p.sessionID)
	return p
}

// SessionID identifies this pipeline run.
func (p *Pipeline) SessionID() string { return p.sessionID }

// ProcessFrame runs one frame through every stage. It returns
// ErrFrameDropped when the governor refuses the frame and ErrStopped after
// Stop. Detector and stage failures never surface as errors: they are
// logged and yield an empty or partial Result.
func (p *Pipeline) ProcessFrame(ctx context.Context, frame detect.Frame) (Result, error) {
	if p.Stopped() {
		return Result{}, ErrStopped
	}

	at := frame.Timestamp
	if at.IsZero() {
		at = p.clock.Now()
	}
	gov := p.state.Governor
	index, ok := gov.TryBegin(at)
	if !ok {
		tracef("frame %d dropped by governor", frame.Seq)
		return Result{}, ErrFrameDropped
	}

	width, height := frame.Width, frame.Height
	if width <= 0 || height <= 0 {
		width, height = p.cfg.FrameWidth, p.cfg.FrameHeight
	}

	res := Result{
		SessionID:      p.sessionID,
		FrameIndex:     index,
		Seq:            frame.Seq,
		Timestamp:      at,
		Secondary:      gov.IsSecondary(index),
		ScoreThreshold: gov.ScoreThreshold(),
	}

	// Stateless stages run outside the lock.
	begin := p.clock.Now()
	raw := p.detect(ctx, frame)
	res.Latency = p.clock.Since(begin)

	dets, discarded := p.estimate(raw, width, height, res.ScoreThreshold)
	res.Discarded = discarded
	if res.Secondary && p.depth != nil {
		res.Depth = p.estimateDepth(ctx, frame, dets)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		gov.Abandon()
		return Result{}, ErrStopped
	}
	p.discarded += uint64(discarded)
	p.applyStateful(&res, dets, at)
	gov.Finish(res.Latency)

	tracef("frame %d idx=%d dets=%d warnings=%d latency=%v thr=%.2f",
		frame.Seq, index, len(res.Detections), len(res.Analysis.Warnings), res.Latency, res.ScoreThreshold)
	return res, nil
}

func (p *Pipeline) detect(ctx context.Context, frame detect.Frame) (raw []detect.RawDetection) {
	defer func() {
		if r := recover(); r != nil {
			opsf("detector panic on frame %d: %v", frame.Seq, r)
			raw = nil
		}
	}()
	var err error
	raw, err = p.detector.Detect(ctx, frame)
	if err != nil {
		opsf("detector failed on frame %d: %v", frame.Seq, err)
		return nil
	}
	return raw
}

// estimate sanitises, suppresses and geometrically estimates. These are
// pure functions of the frame.
func (p *Pipeline) estimate(raw []detect.RawDetection, width, height int, threshold float64) (out []geometry.NormalizedDetection, discarded int) {
	defer func() {
		if r := recover(); r != nil {
			opsf("estimation panic: %v", r)
			out = nil
		}
	}()
	var kept []detect.RawDetection
	kept, discarded = detect.Sanitize(raw, width, height)
	nms := p.cfg.NMS
	nms.ScoreThreshold = threshold
	kept = detect.Suppress(kept, nms)

	out = make([]geometry.NormalizedDetection, 0, len(kept))
	for _, d := range kept {
		out = append(out, p.cfg.Estimator.Estimate(d, width, height))
	}
	return out, discarded
}

func (p *Pipeline) estimateDepth(ctx context.Context, frame detect.Frame, dets []geometry.NormalizedDetection) *footpath.DepthZones {
	defer func() {
		if r := recover(); r != nil {
			opsf("depth panic on frame %d: %v", frame.Seq, r)
		}
	}()
	zones, err := p.depth.Estimate(ctx, frame, dets)
	if err != nil {
		diagf("depth unavailable for frame %d: %v", frame.Seq, err)
		return nil
	}
	return &zones
}

// applyStateful associates, scores, analyses and dispatches. The caller
// holds p.mu.
func (p *Pipeline) applyStateful(res *Result, dets []geometry.NormalizedDetection, at time.Time) {
	defer func() {
		if r := recover(); r != nil {
			opsf("stage panic on frame %d: %v", res.Seq, r)
			res.Detections = nil
			res.Analysis = footpath.Analysis{}
			res.Dispatched = nil
		}
	}()

	tracked := p.associator.Update(p.state.Tracks, dets, at)
	scored := make([]footpath.Detection, 0, len(tracked))
	for _, td := range tracked {
		scored = append(scored, footpath.Detection{
			TrackedDetection: td,
			Hazard:           hazard.Score(td.NormalizedDetection),
		})
	}
	sortByDistance(scored)
	res.Detections = scored

	res.Analysis = p.analyzer.Analyze(p.state.History, scored, res.Depth, at)
	if res.Secondary {
		res.Dispatched = p.dispatcher.Dispatch(res.Analysis, at)
	}
}

// sortByDistance orders nearest first; ties go to the higher hazard
// score, then the lower track id.
func sortByDistance(d []footpath.Detection) {
	sort.SliceStable(d, func(i, j int) bool {
		if d[i].Distance != d[j].Distance {
			return d[i].Distance < d[j].Distance
		}
		if d[i].Hazard.Score != d[j].Hazard.Score {
			return d[i].Hazard.Score > d[j].Hazard.Score
		}
		return d[i].TrackID < d[j].TrackID
	})
}

// FrameSource is the pull side of the frame loop. ok is false once the
// source is exhausted.
type FrameSource interface {
	NextFrame(ctx context.Context) (frame detect.Frame, ok bool, err error)
}

// Run pulls frames from src until it is exhausted, ctx is done or Stop is
// called. Dropped frames are skipped, never queued. It returns ctx.Err()
// on cancellation and nil otherwise, unless the source fails.
func (p *Pipeline) Run(ctx context.Context, src FrameSource) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.Stopped() {
			return nil
		}
		frame, ok, err := src.NextFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("next frame: %w", err)
		}
		if !ok {
			return nil
		}
		res, err := p.ProcessFrame(ctx, frame)
		switch {
		case errors.Is(err, ErrFrameDropped):
			continue
		case errors.Is(err, ErrStopped):
			return nil
		case err != nil:
			return err
		}
		if p.observer != nil {
			p.observer(res)
		}
	}
}

// Stop halts the pipeline. It waits for any frame holding the state lock,
// then clears tracks, path history and rate-limit windows. Later calls to
// ProcessFrame return ErrStopped. Stop is idempotent.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.stopped = true
	p.state.Tracks.Reset()
	p.state.History.Reset()
	p.state.Limiter.Reset()
	p.state.Governor.Abandon()
	diagf("session %s stopped", p.sessionID)
}

// Stopped reports whether Stop has been called.
func (p *Pipeline) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// Stats is a snapshot of pipeline counters.
type Stats struct {
	SessionID  string               `json:"session_id"`
	Started    time.Time            `json:"started"`
	Governor   governor.Stats       `json:"governor"`
	Tracks     int                  `json:"tracks"`
	Discarded  uint64               `json:"discarded"`
	Dispatched map[hazard.Level]int `json:"dispatched"`
}

// Stats returns current counters.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		SessionID:  p.sessionID,
		Started:    p.started,
		Governor:   p.state.Governor.Stats(),
		Tracks:     p.state.Tracks.Len(),
		Discarded:  p.discarded,
		Dispatched: p.dispatcher.Counts(),
	}
}
