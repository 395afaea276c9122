package detect

import "strings"

// Class is the closed set of object classes the pipeline knows how to
// reason about. Anything the model emits outside this set maps to
// ClassUnknown and falls through to the default branches below.
type Class uint8

const (
	ClassUnknown Class = iota
	ClassPerson
	ClassBicycle
	ClassCar
	ClassMotorcycle
	ClassBus
	ClassTruck
	ClassDog
	ClassCat
	ClassHorse
	ClassBench
	ClassChair
	ClassPottedPlant
	ClassFireHydrant
	ClassStopSign
	ClassTrafficLight
	ClassSuitcase
	ClassBackpack
	ClassHandbag
	ClassBottle
	ClassCup
)

var classNames = map[string]Class{
	"person":        ClassPerson,
	"pedestrian":    ClassPerson,
	"bicycle":       ClassBicycle,
	"bike":          ClassBicycle,
	"car":           ClassCar,
	"motorcycle":    ClassMotorcycle,
	"motorbike":     ClassMotorcycle,
	"bus":           ClassBus,
	"truck":         ClassTruck,
	"dog":           ClassDog,
	"cat":           ClassCat,
	"horse":         ClassHorse,
	"bench":         ClassBench,
	"chair":         ClassChair,
	"potted plant":  ClassPottedPlant,
	"pottedplant":   ClassPottedPlant,
	"fire hydrant":  ClassFireHydrant,
	"stop sign":     ClassStopSign,
	"traffic light": ClassTrafficLight,
	"suitcase":      ClassSuitcase,
	"backpack":      ClassBackpack,
	"handbag":       ClassHandbag,
	"bottle":        ClassBottle,
	"cup":           ClassCup,
}

// ParseClass maps a model label to a Class. Matching is case-insensitive
// and tolerant of surrounding whitespace and underscores.
func ParseClass(label string) Class {
	key := strings.ToLower(strings.TrimSpace(label))
	key = strings.ReplaceAll(key, "_", " ")
	if c, ok := classNames[key]; ok {
		return c
	}
	return ClassUnknown
}

// String returns the canonical label for the class.
func (c Class) String() string {
	switch c {
	case ClassPerson:
		return "person"
	case ClassBicycle:
		return "bicycle"
	case ClassCar:
		return "car"
	case ClassMotorcycle:
		return "motorcycle"
	case ClassBus:
		return "bus"
	case ClassTruck:
		return "truck"
	case ClassDog:
		return "dog"
	case ClassCat:
		return "cat"
	case ClassHorse:
		return "horse"
	case ClassBench:
		return "bench"
	case ClassChair:
		return "chair"
	case ClassPottedPlant:
		return "potted plant"
	case ClassFireHydrant:
		return "fire hydrant"
	case ClassStopSign:
		return "stop sign"
	case ClassTrafficLight:
		return "traffic light"
	case ClassSuitcase:
		return "suitcase"
	case ClassBackpack:
		return "backpack"
	case ClassHandbag:
		return "handbag"
	case ClassBottle:
		return "bottle"
	case ClassCup:
		return "cup"
	default:
		return "unknown"
	}
}

// CanonicalHeight returns the typical real-world height of the class in
// metres, used by the pinhole distance model. ok is false when no
// reliable height is known.
func (c Class) CanonicalHeight() (meters float64, ok bool) {
	switch c {
	case ClassPerson:
		return 1.7, true
	case ClassBicycle:
		return 1.0, true
	case ClassCar:
		return 1.45, true
	case ClassMotorcycle:
		return 1.1, true
	case ClassBus:
		return 3.2, true
	case ClassTruck:
		return 3.0, true
	case ClassDog:
		return 0.5, true
	case ClassCat:
		return 0.3, true
	case ClassHorse:
		return 1.6, true
	case ClassBench:
		return 0.85, true
	case ClassChair:
		return 0.9, true
	case ClassPottedPlant:
		return 0.6, true
	case ClassFireHydrant:
		return 0.6, true
	case ClassStopSign:
		return 2.1, true
	case ClassTrafficLight:
		return 3.0, true
	case ClassSuitcase:
		return 0.65, true
	case ClassBackpack:
		return 0.5, true
	case ClassHandbag:
		return 0.3, true
	case ClassBottle:
		return 0.25, true
	case ClassCup:
		return 0.1, true
	default:
		return 0, false
	}
}

// BaseHazard is the per-class starting weight of the hazard score.
func (c Class) BaseHazard() float64 {
	switch c {
	case ClassCar, ClassBus, ClassTruck:
		return 5
	case ClassMotorcycle:
		return 4.5
	case ClassBicycle:
		return 4
	case ClassHorse:
		return 3.5
	case ClassPerson:
		return 3
	case ClassDog:
		return 2.5
	case ClassBench, ClassChair, ClassFireHydrant, ClassPottedPlant:
		return 2
	case ClassSuitcase, ClassBackpack, ClassHandbag:
		return 1.5
	case ClassBottle, ClassCup, ClassCat, ClassStopSign, ClassTrafficLight:
		return 1
	default:
		return 2
	}
}

// IsGroundObstacle reports whether objects of this class stand on the
// walking surface and can be tripped over or walked into.
func (c Class) IsGroundObstacle() bool {
	switch c {
	case ClassPerson, ClassBicycle, ClassCar, ClassMotorcycle, ClassBus, ClassTruck,
		ClassDog, ClassCat, ClassHorse,
		ClassBench, ClassChair, ClassPottedPlant, ClassFireHydrant,
		ClassSuitcase, ClassBackpack, ClassHandbag,
		ClassBottle, ClassCup:
		return true
	default:
		return false
	}
}
