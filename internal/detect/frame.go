package detect

import (
	"context"
	"time"
)

// Frame is a single captured video frame handed to the Detector.
// Data is opaque to the pipeline; only the adapter interprets it.
type Frame struct {
	Seq       uint64
	Timestamp time.Time
	Width     int
	Height    int
	Data      []byte
}

// Detector is the adapter around the external object-detection model.
// An empty result means no obstacles in the frame, not an error.
type Detector interface {
	Detect(ctx context.Context, frame Frame) ([]RawDetection, error)
}

// DetectorFunc adapts a plain function to the Detector interface.
type DetectorFunc func(ctx context.Context, frame Frame) ([]RawDetection, error)

// Detect calls f(ctx, frame).
func (f DetectorFunc) Detect(ctx context.Context, frame Frame) ([]RawDetection, error) {
	return f(ctx, frame)
}
