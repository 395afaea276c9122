package detect

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClass(t *testing.T) {
	t.Parallel()

	cases := map[string]Class{
		"person":       ClassPerson,
		"  Car ":       ClassCar,
		"motorbike":    ClassMotorcycle,
		"fire_hydrant": ClassFireHydrant,
		"potted plant": ClassPottedPlant,
		"toaster":      ClassUnknown,
		"":             ClassUnknown,
	}
	for label, want := range cases {
		assert.Equal(t, want, ParseClass(label), "label %q", label)
	}
}

func TestClassTables(t *testing.T) {
	t.Parallel()

	for c := ClassPerson; c <= ClassCup; c++ {
		h, ok := c.CanonicalHeight()
		assert.True(t, ok, "%s should have a canonical height", c)
		assert.Greater(t, h, 0.0)
		assert.Equal(t, c, ParseClass(c.String()), "String/ParseClass round trip for %d", c)
		assert.Greater(t, c.BaseHazard(), 0.0)
	}

	_, ok := ClassUnknown.CanonicalHeight()
	assert.False(t, ok)
	assert.Equal(t, 2.0, ClassUnknown.BaseHazard())
	assert.Equal(t, 5.0, ClassCar.BaseHazard())
	assert.Equal(t, 3.0, ClassPerson.BaseHazard())
	assert.False(t, ClassTrafficLight.IsGroundObstacle())
	assert.True(t, ClassBench.IsGroundObstacle())
	assert.False(t, ClassUnknown.IsGroundObstacle())
}

func TestRawDetectionJSON(t *testing.T) {
	t.Parallel()

	var d RawDetection
	require.NoError(t, json.Unmarshal([]byte(`{"class":"car","score":0.85,"bbox":[100,150,200,300]}`), &d))
	assert.Equal(t, "car", d.Label)
	assert.Equal(t, BBox{100, 150, 200, 300}, d.Box)

	err := json.Unmarshal([]byte(`{"class":"car","score":0.85,"bbox":[1,2,3]}`), &d)
	assert.Error(t, err)
}
