package haptic

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/banshee-data/pathsense/internal/footpath"
	"github.com/banshee-data/pathsense/internal/hazard"
)

type fakePort struct {
	bytes.Buffer
	closed   int
	writeErr error
}

func (f *fakePort) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return f.Buffer.Write(p)
}

func (f *fakePort) Close() error {
	f.closed++
	return nil
}

func TestSink_Commands(t *testing.T) {
	port := &fakePort{}
	s := NewSink(port)

	require.NoError(t, s.Warn(footpath.Warning{Level: hazard.LevelCritical, Direction: "ahead"}))
	require.NoError(t, s.Warn(footpath.Warning{Level: hazard.LevelMedium, Direction: "left"}))
	require.NoError(t, s.Stairs(footpath.StairInfo{Detected: true, GoingDown: true, StepCount: 4}))
	require.NoError(t, s.Stairs(footpath.StairInfo{Detected: true, StepCount: 2}))
	require.NoError(t, s.Surface(footpath.SurfaceInfo{Uneven: true, Severity: hazard.LevelHigh, NearestDistance: 1.3}))

	want := "HAPTIC critical ahead 4\n" +
		"HAPTIC medium left 2\n" +
		"STAIRS down 4\n" +
		"STAIRS up 2\n" +
		"SURFACE high 1.3\n"
	assert.Equal(t, want, port.String())
}

func TestSink_WriteError(t *testing.T) {
	port := &fakePort{writeErr: errors.New("device unplugged")}
	s := NewSink(port)
	err := s.Warn(footpath.Warning{Level: hazard.LevelLow, Direction: "right"})
	require.Error(t, err)
	assert.ErrorIs(t, err, port.writeErr)
}

func TestSink_Close(t *testing.T) {
	port := &fakePort{}
	s := NewSink(port)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, port.closed)
	assert.ErrorIs(t, s.Surface(footpath.SurfaceInfo{}), ErrClosed)
	assert.Empty(t, port.String())
}

func TestPulses(t *testing.T) {
	assert.Equal(t, 1, Pulses(hazard.LevelLow))
	assert.Equal(t, 4, Pulses(hazard.LevelCritical))
}

func TestPortOptions_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		in      PortOptions
		want    PortOptions
		wantErr bool
	}{
		{"defaults", PortOptions{}, PortOptions{BaudRate: DefaultBaudRate, DataBits: 8, StopBits: 1, Parity: "N"}, false},
		{"even parity word", PortOptions{BaudRate: 9600, Parity: " even "}, PortOptions{BaudRate: 9600, DataBits: 8, StopBits: 1, Parity: "E"}, false},
		{"two stop bits", PortOptions{StopBits: 2, Parity: "o"}, PortOptions{BaudRate: DefaultBaudRate, DataBits: 8, StopBits: 2, Parity: "O"}, false},
		{"bad data bits", PortOptions{DataBits: 9}, PortOptions{}, true},
		{"bad stop bits", PortOptions{StopBits: 3}, PortOptions{}, true},
		{"bad parity", PortOptions{Parity: "mark"}, PortOptions{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Normalize()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPortOptions_SerialMode(t *testing.T) {
	mode, err := PortOptions{StopBits: 2, Parity: "E"}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, &serial.Mode{BaudRate: DefaultBaudRate, DataBits: 8, Parity: serial.EvenParity, StopBits: serial.TwoStopBits}, mode)

	_, err = PortOptions{DataBits: 4}.SerialMode()
	assert.Error(t, err)

	_, err = Open("/dev/does-not-exist-haptic", PortOptions{Parity: "X"})
	assert.Error(t, err)
}
