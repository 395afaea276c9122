// Package replay feeds recorded detector output back through the
// pipeline. A log is JSON Lines, one frame per line:
//
//	{"seq":1,"ts_ms":1700000000000,"width":640,"height":480,"detections":[{"class":"car","score":0.85,"bbox":[100,150,200,300]}]}
//
// Blank lines and lines starting with '#' are ignored.
package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/banshee-data/pathsense/internal/detect"
)

const maxLineBytes = 1 << 20

// Record is one line of a replay log.
type Record struct {
	Seq         uint64                `json:"seq"`
	TimestampMs int64                 `json:"ts_ms"`
	Width       int                   `json:"width"`
	Height      int                   `json:"height"`
	Detections  []detect.RawDetection `json:"detections"`
}

// Source is a pipeline FrameSource reading a replay log. The frame's Data
// carries the encoded detections for Detector.
type Source struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
}

// NewSource reads records from r.
func NewSource(r io.Reader) *Source {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	s := &Source{scanner: sc}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Open opens a replay log file.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay %s: %w", path, err)
	}
	return NewSource(f), nil
}

// Close releases the underlying file, if any.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// NextFrame implements pipeline.FrameSource.
func (s *Source) NextFrame(ctx context.Context) (detect.Frame, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return detect.Frame{}, false, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return detect.Frame{}, false, fmt.Errorf("replay line %d: %w", s.line+1, err)
			}
			return detect.Frame{}, false, nil
		}
		s.line++
		text := bytes.TrimSpace(s.scanner.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}

		var rec Record
		if err := json.Unmarshal(text, &rec); err != nil {
			return detect.Frame{}, false, fmt.Errorf("replay line %d: %w", s.line, err)
		}
		data, err := json.Marshal(rec.Detections)
		if err != nil {
			return detect.Frame{}, false, fmt.Errorf("replay line %d: %w", s.line, err)
		}
		frame := detect.Frame{
			Seq:    rec.Seq,
			Width:  rec.Width,
			Height: rec.Height,
			Data:   data,
		}
		if rec.TimestampMs != 0 {
			frame.Timestamp = time.UnixMilli(rec.TimestampMs).UTC()
		}
		return frame, true, nil
	}
}

// Detector decodes the detections a Source packed into Frame.Data.
type Detector struct{}

// Detect implements detect.Detector.
func (Detector) Detect(_ context.Context, frame detect.Frame) ([]detect.RawDetection, error) {
	if len(frame.Data) == 0 {
		return nil, nil
	}
	var dets []detect.RawDetection
	if err := json.Unmarshal(frame.Data, &dets); err != nil {
		return nil, fmt.Errorf("decode frame %d detections: %w", frame.Seq, err)
	}
	return dets, nil
}

// Encode writes one record as a log line.
func Encode(w io.Writer, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
