package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/pathsense/internal/hazard"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRateLimiter_PerLevelCooldowns(t *testing.T) {
	t.Parallel()

	cases := []struct {
		key      Key
		cooldown time.Duration
	}{
		{LevelKey(hazard.LevelCritical), 500 * time.Millisecond},
		{LevelKey(hazard.LevelHigh), time.Second},
		{LevelKey(hazard.LevelMedium), 2 * time.Second},
		{LevelKey(hazard.LevelLow), 5 * time.Second},
		{KeyStairs, 3 * time.Second},
		{KeySurface, 4 * time.Second},
	}
	for _, tc := range cases {
		t.Run(string(tc.key), func(t *testing.T) {
			r := NewRateLimiter(DefaultCooldowns())
			assert.True(t, r.Allow(tc.key, t0))
			assert.False(t, r.Allow(tc.key, t0.Add(tc.cooldown-time.Millisecond)))
			assert.True(t, r.Allow(tc.key, t0.Add(tc.cooldown)))
		})
	}
}

func TestRateLimiter_WindowsAreIndependent(t *testing.T) {
	t.Parallel()

	r := NewRateLimiter(DefaultCooldowns())
	assert.True(t, r.Allow(LevelKey(hazard.LevelCritical), t0))
	assert.True(t, r.Allow(LevelKey(hazard.LevelHigh), t0))
	assert.True(t, r.Allow(KeyStairs, t0))
	assert.False(t, r.Allow(LevelKey(hazard.LevelCritical), t0))
}

func TestRateLimiter_Reset(t *testing.T) {
	t.Parallel()

	r := NewRateLimiter(DefaultCooldowns())
	assert.True(t, r.Allow(KeySurface, t0))
	assert.False(t, r.Allow(KeySurface, t0.Add(time.Second)))
	r.Reset()
	assert.True(t, r.Allow(KeySurface, t0.Add(time.Second)))
}
