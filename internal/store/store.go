// Package store persists one summary row per pipeline session. It never
// records individual detections or frames.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/pathsense/internal/hazard"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Summary describes one finished session.
type Summary struct {
	SessionID      string               `json:"session_id"`
	Source         string               `json:"source"`
	Started        time.Time            `json:"started"`
	Ended          time.Time            `json:"ended"`
	FramesAccepted uint64               `json:"frames_accepted"`
	FramesDropped  uint64               `json:"frames_dropped"`
	ScoreThreshold float64              `json:"score_threshold"`
	MeanLatency    time.Duration        `json:"mean_latency"`
	Warnings       map[hazard.Level]int `json:"warnings"`
}

// Store wraps the sqlite handle.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and applies the
// connection pragmas. Call MigrateUp before use.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// MigrateUp runs all pending migrations. It is a no-op when the schema
// is already current.
func (s *Store) MigrateUp() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	// m is not closed: that would close the shared *sql.DB.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		opsf("migration up failed: %v", err)
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the applied schema version, or 0 when none.
func (s *Store) MigrateVersion() (version uint, dirty bool, err error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// RecordSession inserts a session summary.
func (s *Store) RecordSession(ctx context.Context, sum Summary) error {
	if sum.SessionID == "" {
		return errors.New("record session: empty session id")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (
			session_id, source, started_unix_ns, ended_unix_ns,
			frames_accepted, frames_dropped, score_threshold, mean_latency_ns,
			warnings_critical, warnings_high, warnings_medium, warnings_low
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.SessionID, sum.Source, sum.Started.UnixNano(), sum.Ended.UnixNano(),
		int64(sum.FramesAccepted), int64(sum.FramesDropped), sum.ScoreThreshold, int64(sum.MeanLatency),
		sum.Warnings[hazard.LevelCritical], sum.Warnings[hazard.LevelHigh],
		sum.Warnings[hazard.LevelMedium], sum.Warnings[hazard.LevelLow],
	)
	if err != nil {
		return fmt.Errorf("record session %s: %w", sum.SessionID, err)
	}
	diagf("recorded session %s: %d frames, %d dropped", sum.SessionID, sum.FramesAccepted, sum.FramesDropped)
	return nil
}

// Sessions returns up to limit summaries, most recently started first.
func (s *Store) Sessions(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, source, started_unix_ns, ended_unix_ns,
			frames_accepted, frames_dropped, score_threshold, mean_latency_ns,
			warnings_critical, warnings_high, warnings_medium, warnings_low
		FROM sessions
		ORDER BY started_unix_ns DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum                           Summary
			started, ended, latency       int64
			accepted, dropped             int64
			critical, high, medium, lower int
		)
		if err := rows.Scan(&sum.SessionID, &sum.Source, &started, &ended,
			&accepted, &dropped, &sum.ScoreThreshold, &latency,
			&critical, &high, &medium, &lower); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sum.Started = time.Unix(0, started).UTC()
		sum.Ended = time.Unix(0, ended).UTC()
		sum.FramesAccepted = uint64(accepted)
		sum.FramesDropped = uint64(dropped)
		sum.MeanLatency = time.Duration(latency)
		sum.Warnings = map[hazard.Level]int{
			hazard.LevelCritical: critical,
			hazard.LevelHigh:     high,
			hazard.LevelMedium:   medium,
			hazard.LevelLow:      lower,
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
