// Package haptic drives a vibration wearable over a serial line. Each
// alert becomes one ASCII command terminated by a newline:
//
//	HAPTIC <level> <direction> <pulses>
//	STAIRS <up|down> <steps>
//	SURFACE <severity> <metres>
package haptic

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"

	"github.com/banshee-data/pathsense/internal/footpath"
	"github.com/banshee-data/pathsense/internal/hazard"
	"github.com/banshee-data/pathsense/internal/monitoring"
)

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("haptic: sink closed")

// Porter is the minimal serial port surface the sink needs. It lets
// tests run without hardware.
type Porter interface {
	io.Writer
	io.Closer
}

// Sink is an alert.Sink writing commands to a Porter.
type Sink struct {
	mu     sync.Mutex
	port   Porter
	closed bool
}

// NewSink wraps an already opened port.
func NewSink(port Porter) *Sink {
	return &Sink{port: port}
}

// Open opens the serial device at path.
func Open(path string, opts PortOptions) (*Sink, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, fmt.Errorf("haptic port options: %w", err)
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open haptic port %s: %w", path, err)
	}
	monitoring.Logf("haptic: opened %s at %d baud", path, mode.BaudRate)
	return NewSink(port), nil
}

// Pulses is the vibration count for a level; more urgent is more pulses.
func Pulses(l hazard.Level) int {
	return int(l) + 1
}

func (s *Sink) Warn(w footpath.Warning) error {
	return s.send(fmt.Sprintf("HAPTIC %s %s %d\n", w.Level, w.Direction, Pulses(w.Level)))
}

func (s *Sink) Stairs(st footpath.StairInfo) error {
	way := "up"
	if st.GoingDown {
		way = "down"
	}
	return s.send(fmt.Sprintf("STAIRS %s %d\n", way, st.StepCount))
}

func (s *Sink) Surface(su footpath.SurfaceInfo) error {
	return s.send(fmt.Sprintf("SURFACE %s %.1f\n", su.Severity, su.NearestDistance))
}

func (s *Sink) send(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, err := io.WriteString(s.port, line); err != nil {
		monitoring.Logf("haptic: write failed: %v", err)
		return fmt.Errorf("haptic write: %w", err)
	}
	return nil
}

// Close closes the underlying port. It is safe to call more than once.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.port.Close()
}
