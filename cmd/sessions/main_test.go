package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/pathsense/internal/hazard"
	"github.com/banshee-data/pathsense/internal/store"
)

func TestPrintTable(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions := []store.Summary{{
		SessionID:      "3f2a",
		Source:         "walk.jsonl",
		Started:        started,
		Ended:          started.Add(90 * time.Second),
		FramesAccepted: 1200,
		FramesDropped:  37,
		ScoreThreshold: 0.52,
		MeanLatency:    48 * time.Millisecond,
		Warnings:       map[hazard.Level]int{hazard.LevelCritical: 2, hazard.LevelMedium: 5},
	}}

	var buf bytes.Buffer
	if err := printTable(&buf, sessions); err != nil {
		t.Fatalf("printTable: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header + 1:\n%s", len(lines), buf.String())
	}
	fields := strings.Fields(lines[1])
	want := []string{"3f2a", "2026-03-01T12:00:00Z", "1m30s", "walk.jsonl", "1200", "37", "0.52", "48ms", "2", "0", "5"}
	if strings.Join(fields, " ") != strings.Join(want, " ") {
		t.Errorf("row = %v, want %v", fields, want)
	}
}
