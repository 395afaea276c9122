package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pathsense/internal/hazard"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.MigrateUp())
	return s
}

func TestMigrateUp_Idempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.MigrateUp())

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestMigrateVersion_Fresh(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "fresh.db"))
	require.NoError(t, err)
	defer s.Close()

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)
}

func TestRecordAndListSessions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	older := Summary{
		SessionID:      "a0c8d7c4-0000-4000-8000-000000000001",
		Source:         "walk1.jsonl",
		Started:        base,
		Ended:          base.Add(2 * time.Minute),
		FramesAccepted: 1800,
		FramesDropped:  42,
		ScoreThreshold: 0.52,
		MeanLatency:    61 * time.Millisecond,
		Warnings:       map[hazard.Level]int{hazard.LevelCritical: 3, hazard.LevelHigh: 7},
	}
	newer := Summary{
		SessionID:      "a0c8d7c4-0000-4000-8000-000000000002",
		Source:         "live",
		Started:        base.Add(time.Hour),
		Ended:          base.Add(time.Hour + time.Minute),
		FramesAccepted: 900,
		ScoreThreshold: 0.3,
	}
	require.NoError(t, s.RecordSession(ctx, older))
	require.NoError(t, s.RecordSession(ctx, newer))

	got, err := s.Sessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.SessionID, got[0].SessionID)

	want := older
	want.Warnings = map[hazard.Level]int{
		hazard.LevelCritical: 3,
		hazard.LevelHigh:     7,
		hazard.LevelMedium:   0,
		hazard.LevelLow:      0,
	}
	if diff := cmp.Diff(want, got[1]); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}

	limited, err := s.Sessions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRecordSession_Errors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	assert.Error(t, s.RecordSession(ctx, Summary{}))

	sum := Summary{SessionID: "dup", Started: time.Unix(0, 0), Ended: time.Unix(1, 0)}
	require.NoError(t, s.RecordSession(ctx, sum))
	assert.Error(t, s.RecordSession(ctx, sum), "session ids are unique")
}
