package detect

import (
	"encoding/json"
	"fmt"
	"math"
)

// BBox is an axis-aligned box (top-left corner plus size). The same type
// carries pixel boxes in the detect layer and fractional [0,1] boxes from
// the geometry layer onwards.
type BBox struct {
	X float64
	Y float64
	W float64
	H float64
}

// Area returns W*H, or 0 for degenerate boxes.
func (b BBox) Area() float64 {
	if b.W <= 0 || b.H <= 0 {
		return 0
	}
	return b.W * b.H
}

// CenterX returns the horizontal centre of the box.
func (b BBox) CenterX() float64 { return b.X + b.W/2 }

// CenterY returns the vertical centre of the box.
func (b BBox) CenterY() float64 { return b.Y + b.H/2 }

// Bottom returns the y coordinate of the lower edge.
func (b BBox) Bottom() float64 { return b.Y + b.H }

func (b BBox) finite() bool {
	for _, v := range [4]float64{b.X, b.Y, b.W, b.H} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the box as [x, y, w, h], the detector wire format.
func (b BBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{b.X, b.Y, b.W, b.H})
}

// UnmarshalJSON decodes a [x, y, w, h] array.
func (b *BBox) UnmarshalJSON(data []byte) error {
	var v []float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("bbox: %w", err)
	}
	if len(v) != 4 {
		return fmt.Errorf("bbox: expected 4 values, got %d", len(v))
	}
	*b = BBox{X: v[0], Y: v[1], W: v[2], H: v[3]}
	return nil
}

// RawDetection is one {class, score, bbox} triple emitted by the model,
// with the bbox in pixel units of the source frame.
type RawDetection struct {
	Label string  `json:"class"`
	Score float64 `json:"score"`
	Box   BBox    `json:"bbox"`

	// Class is resolved from Label by Sanitize.
	Class Class `json:"-"`
}

// NewRawDetection builds a RawDetection with its Class resolved.
func NewRawDetection(label string, score float64, box BBox) RawDetection {
	return RawDetection{Label: label, Score: score, Box: box, Class: ParseClass(label)}
}

// Sanitize validates raw detections against the frame size. Detections
// with non-finite values, scores outside [0,1], non-positive sizes, or no
// overlap with the frame are discarded; boxes that spill over the frame
// edge are clipped. The input slice is not modified.
func Sanitize(raw []RawDetection, width, height int) (kept []RawDetection, discarded int) {
	fw, fh := float64(width), float64(height)
	kept = make([]RawDetection, 0, len(raw))
	for _, d := range raw {
		if math.IsNaN(d.Score) || d.Score < 0 || d.Score > 1 || !d.Box.finite() {
			discarded++
			continue
		}
		if d.Box.W <= 0 || d.Box.H <= 0 {
			discarded++
			continue
		}
		if width > 0 && height > 0 {
			clipped, ok := clip(d.Box, fw, fh)
			if !ok {
				discarded++
				continue
			}
			d.Box = clipped
		}
		d.Class = ParseClass(d.Label)
		kept = append(kept, d)
	}
	return kept, discarded
}

func clip(b BBox, fw, fh float64) (BBox, bool) {
	x1 := math.Max(0, b.X)
	y1 := math.Max(0, b.Y)
	x2 := math.Min(fw, b.X+b.W)
	y2 := math.Min(fh, b.Y+b.H)
	if x2 <= x1 || y2 <= y1 {
		return BBox{}, false
	}
	return BBox{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}, true
}
