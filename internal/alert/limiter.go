package alert

import (
	"sync"
	"time"

	"github.com/banshee-data/pathsense/internal/hazard"
)

// Key names one rate-limit window.
type Key string

const (
	KeyStairs  Key = "stairs"
	KeySurface Key = "surface"
)

// LevelKey returns the window shared by all warnings of a hazard level.
func LevelKey(l hazard.Level) Key {
	return Key("level:" + l.String())
}

// Cooldowns is the minimum spacing between alerts on each window.
type Cooldowns struct {
	Critical time.Duration
	High     time.Duration
	Medium   time.Duration
	Low      time.Duration
	Stairs   time.Duration
	Surface  time.Duration
}

// DefaultCooldowns returns the production cooldowns.
func DefaultCooldowns() Cooldowns {
	return Cooldowns{
		Critical: 500 * time.Millisecond,
		High:     1000 * time.Millisecond,
		Medium:   2000 * time.Millisecond,
		Low:      5000 * time.Millisecond,
		Stairs:   3 * time.Second,
		Surface:  4 * time.Second,
	}
}

func (c Cooldowns) forKey(k Key) time.Duration {
	switch k {
	case KeyStairs:
		return c.Stairs
	case KeySurface:
		return c.Surface
	case LevelKey(hazard.LevelCritical):
		return c.Critical
	case LevelKey(hazard.LevelHigh):
		return c.High
	case LevelKey(hazard.LevelMedium):
		return c.Medium
	default:
		return c.Low
	}
}

// RateLimiter admits at most one alert per window per cooldown.
type RateLimiter struct {
	mu        sync.Mutex
	cooldowns Cooldowns
	last      map[Key]time.Time
}

// NewRateLimiter returns an empty limiter.
func NewRateLimiter(c Cooldowns) *RateLimiter {
	return &RateLimiter{cooldowns: c, last: make(map[Key]time.Time)}
}

// Allow reports whether an alert on key may fire at now and, if so,
// starts a new window.
func (r *RateLimiter) Allow(key Key, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if last, ok := r.last[key]; ok && now.Sub(last) < r.cooldowns.forKey(key) {
		return false
	}
	r.last[key] = now
	return true
}

// Reset forgets every open window.
func (r *RateLimiter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.last)
}
