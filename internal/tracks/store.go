package tracks

import (
	"sort"
	"time"

	"github.com/banshee-data/pathsense/internal/detect"
)

// Track is a persistent identity for one object across frames.
type Track struct {
	ID        int64
	Class     detect.Class
	Label     string
	Box       detect.BBox // smoothed, normalised
	Score     float64     // smoothed confidence
	Distance  float64     // smoothed metres
	VelocityX float64     // normalised units per frame
	VelocityY float64
	FirstSeen time.Time
	LastSeen  time.Time
	Hits      int
}

// Store is the arena of live tracks keyed by a monotonically increasing id.
type Store struct {
	tracks map[int64]*Track
	nextID int64

	// Lifetime counters; Reset clears them.
	Created int
	Expired int
}

// NewStore returns an empty Store whose first track id is 1.
func NewStore() *Store {
	return &Store{
		tracks: make(map[int64]*Track),
		nextID: 1,
	}
}

// Reset drops every track and restarts id allocation.
func (s *Store) Reset() {
	s.tracks = make(map[int64]*Track)
	s.nextID = 1
	s.Created = 0
	s.Expired = 0
}

// Len returns the number of live tracks.
func (s *Store) Len() int { return len(s.tracks) }

// Get returns a copy of the track with the given id.
func (s *Store) Get(id int64) (Track, bool) {
	t, ok := s.tracks[id]
	if !ok {
		return Track{}, false
	}
	return *t, true
}

// Tracks returns copies of all live tracks ordered by id.
func (s *Store) Tracks() []Track {
	out := make([]Track, 0, len(s.tracks))
	for _, id := range s.sortedIDs() {
		out = append(out, *s.tracks[id])
	}
	return out
}

// Expire removes tracks not seen for longer than maxAge and returns how
// many were removed.
func (s *Store) Expire(now time.Time, maxAge time.Duration) int {
	removed := 0
	for id, t := range s.tracks {
		if now.Sub(t.LastSeen) > maxAge {
			delete(s.tracks, id)
			removed++
		}
	}
	s.Expired += removed
	return removed
}

func (s *Store) create(t Track) *Track {
	t.ID = s.nextID
	s.nextID++
	stored := &t
	s.tracks[t.ID] = stored
	s.Created++
	return stored
}

// sortedIDs fixes iteration order so association is deterministic.
func (s *Store) sortedIDs() []int64 {
	ids := make([]int64, 0, len(s.tracks))
	for id := range s.tracks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
