// Package hazard scores how dangerous a detection is to a walking user.
// Scoring is a pure function of the detection; nothing is retained
// between calls.
package hazard

import "fmt"

// Level is a discrete hazard bucket, ordered from least to most severe.
type Level uint8

const (
	LevelLow Level = iota
	LevelMedium
	LevelHigh
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelMedium:
		return "medium"
	case LevelHigh:
		return "high"
	case LevelCritical:
		return "critical"
	default:
		return "low"
	}
}

// Priority maps a level to alert priority: 1 is most urgent.
func (l Level) Priority() int {
	switch l {
	case LevelCritical:
		return 1
	case LevelHigh:
		return 2
	default:
		return 3
	}
}

// Raise returns the next more severe level, saturating at Critical.
func (l Level) Raise() Level {
	if l >= LevelCritical {
		return LevelCritical
	}
	return l + 1
}

// MarshalText encodes the level by name, in values and map keys alike.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a level name.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel parses a level name.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "low":
		return LevelLow, nil
	case "medium":
		return LevelMedium, nil
	case "high":
		return LevelHigh, nil
	case "critical":
		return LevelCritical, nil
	}
	return LevelLow, fmt.Errorf("unknown hazard level %q", s)
}
