package geometry

import (
	"encoding/json"
	"fmt"

	"github.com/banshee-data/pathsense/internal/detect"
)

// Relative is the coarse horizontal bucket of a detection.
type Relative uint8

const (
	RelativeUnknown Relative = iota
	RelativeLeft
	RelativeCenter
	RelativeRight
)

func (r Relative) String() string {
	switch r {
	case RelativeLeft:
		return "left"
	case RelativeCenter:
		return "center"
	case RelativeRight:
		return "right"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the bucket by name.
func (r Relative) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a bucket name.
func (r *Relative) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "left":
		*r = RelativeLeft
	case "center":
		*r = RelativeCenter
	case "right":
		*r = RelativeRight
	case "unknown", "":
		*r = RelativeUnknown
	default:
		return fmt.Errorf("unknown relative position %q", s)
	}
	return nil
}

// Position locates a detection horizontally in the frame.
type Position struct {
	Relative Relative `json:"relative"`
	AngleDeg float64  `json:"angle_deg"`
	CenterX  float64  `json:"center_x"`
	CenterY  float64  `json:"center_y"`
}

// DistanceSource records which model produced a distance estimate.
type DistanceSource uint8

const (
	DistanceAreaHeuristic DistanceSource = iota
	DistancePinhole
)

// NormalizedDetection is a detection expressed in fractional frame
// coordinates with an estimated distance. It is a value type and is not
// mutated once produced.
type NormalizedDetection struct {
	Class      detect.Class   `json:"-"`
	Label      string         `json:"class"`
	Confidence float64        `json:"confidence"`
	Box        detect.BBox    `json:"bbox"`
	Distance   float64        `json:"distance_m"`
	Source     DistanceSource `json:"-"`
	Position   Position       `json:"position"`
}
