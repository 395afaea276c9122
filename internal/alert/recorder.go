package alert

import (
	"sync"

	"github.com/banshee-data/pathsense/internal/footpath"
)

// Recorder is an in-memory Sink.
type Recorder struct {
	mu       sync.Mutex
	warnings []footpath.Warning
	stairs   []footpath.StairInfo
	surfaces []footpath.SurfaceInfo
}

func (r *Recorder) Warn(w footpath.Warning) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, w)
	return nil
}

func (r *Recorder) Stairs(s footpath.StairInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stairs = append(r.stairs, s)
	return nil
}

func (r *Recorder) Surface(s footpath.SurfaceInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surfaces = append(r.surfaces, s)
	return nil
}

// Warnings returns a copy of the recorded warnings.
func (r *Recorder) Warnings() []footpath.Warning {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]footpath.Warning(nil), r.warnings...)
}

// StairEvents returns a copy of the recorded stair alerts.
func (r *Recorder) StairEvents() []footpath.StairInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]footpath.StairInfo(nil), r.stairs...)
}

// SurfaceEvents returns a copy of the recorded surface alerts.
func (r *Recorder) SurfaceEvents() []footpath.SurfaceInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]footpath.SurfaceInfo(nil), r.surfaces...)
}
