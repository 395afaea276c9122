package governor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestTryBegin_MinInterval(t *testing.T) {
	t.Parallel()

	g := New(DefaultConfig())
	assert.Equal(t, time.Second/15, g.MinInterval())

	idx, ok := g.TryBegin(t0)
	require.True(t, ok)
	assert.Equal(t, uint64(0), idx)
	g.Finish(80 * time.Millisecond)

	_, ok = g.TryBegin(t0.Add(30 * time.Millisecond))
	assert.False(t, ok, "too soon after the previous frame")

	idx, ok = g.TryBegin(t0.Add(70 * time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, uint64(1), idx)

	s := g.Stats()
	assert.Equal(t, uint64(2), s.Accepted)
	assert.Equal(t, uint64(1), s.Dropped)
}

func TestTryBegin_DropsWhileInFlight(t *testing.T) {
	t.Parallel()

	g := New(DefaultConfig())
	_, ok := g.TryBegin(t0)
	require.True(t, ok)

	_, ok = g.TryBegin(t0.Add(time.Second))
	assert.False(t, ok, "a frame is still in flight")
	assert.True(t, g.Stats().InFlight)

	g.Finish(80 * time.Millisecond)
	_, ok = g.TryBegin(t0.Add(time.Second))
	assert.True(t, ok)
}

func TestTryBegin_ConcurrentCallersAdmitOne(t *testing.T) {
	t.Parallel()

	g := New(Config{TargetFPS: 0, SecondaryEvery: 1})
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := g.TryBegin(t0); ok {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, admitted)
	assert.Equal(t, uint64(31), g.Stats().Dropped)
}

func TestFinish_AdaptsThreshold(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.TargetFPS = 0
	g := New(cfg)

	step := func(latency time.Duration) float64 {
		_, ok := g.TryBegin(t0)
		require.True(t, ok)
		g.Finish(latency)
		return g.ScoreThreshold()
	}

	assert.InDelta(t, 0.52, step(200*time.Millisecond), 1e-9)
	assert.InDelta(t, 0.52, step(100*time.Millisecond), 1e-9, "mid-band latency holds the threshold")
	assert.InDelta(t, 0.51, step(20*time.Millisecond), 1e-9)

	for i := 0; i < 50; i++ {
		step(400 * time.Millisecond)
	}
	assert.InDelta(t, 0.6, g.ScoreThreshold(), 1e-9, "raising saturates at the max")

	for i := 0; i < 100; i++ {
		step(10 * time.Millisecond)
	}
	assert.InDelta(t, 0.3, g.ScoreThreshold(), 1e-9, "lowering saturates at the min")
}

func TestFinish_WithoutBeginIsIgnored(t *testing.T) {
	t.Parallel()

	g := New(DefaultConfig())
	g.Finish(time.Second)
	assert.InDelta(t, 0.5, g.ScoreThreshold(), 1e-9)
	assert.Equal(t, time.Duration(0), g.Stats().LastLatency)
}

func TestIsSecondary(t *testing.T) {
	t.Parallel()

	g := New(DefaultConfig())
	assert.True(t, g.IsSecondary(0))
	assert.False(t, g.IsSecondary(1))
	assert.True(t, g.IsSecondary(2))

	every := New(Config{SecondaryEvery: 0})
	assert.True(t, every.IsSecondary(3))
}

func TestReset(t *testing.T) {
	t.Parallel()

	g := New(DefaultConfig())
	_, _ = g.TryBegin(t0)
	_, _ = g.TryBegin(t0)
	g.Reset()

	s := g.Stats()
	assert.Zero(t, s.Accepted)
	assert.Zero(t, s.Dropped)
	assert.False(t, s.InFlight)
	_, ok := g.TryBegin(t0)
	assert.True(t, ok)
}

func TestStats_MeanLatency(t *testing.T) {
	t.Parallel()

	g := New(Config{SecondaryEvery: 1, InitialScoreThreshold: 0.5, MinScoreThreshold: 0.3, MaxScoreThreshold: 0.6})
	for _, l := range []time.Duration{40, 60, 80} {
		_, ok := g.TryBegin(t0)
		require.True(t, ok)
		g.Finish(l * time.Millisecond)
	}
	assert.Equal(t, 60*time.Millisecond, g.Stats().MeanLatency)
}
