package taxonomy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassLabels(t *testing.T) {
	t.Parallel()

	expected := map[Class]string{
		ClassFalseCopper:  "falsecopper",
		ClassMissingHole:  "missinghole",
		ClassMouseBite:    "mousebite",
		ClassOpenCircuit:  "opencircuit",
		ClassPinhole:      "pinhole",
		ClassScratch:      "scratch",
		ClassShortCircuit: "shortcircuit",
		ClassSpur:         "spur",
	}

	for class, label := range expected {
		assert.Equal(t, label, class.Label())
		assert.True(t, class.Known())
	}
}

func TestClassUnknownIDs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unknown_9", Class(9).Label())
	assert.Equal(t, "unknown_42", Class(42).Label())
	assert.False(t, Class(9).Known())
}

func TestClassDisplay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		class   Class
		display string
	}{
		{ClassMissingHole, "Missinghole"},
		{ClassShortCircuit, "Shortcircuit"},
		{Class(9), "Unknown 9"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.display, tt.class.Display())
	}
}

func TestDisplayLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Short Circuit", DisplayLabel("short_circuit"))
	assert.Equal(t, "Spur", DisplayLabel("spur"))
}

func TestClassFromLabel(t *testing.T) {
	t.Parallel()

	class, err := ClassFromLabel("mousebite")
	require.NoError(t, err)
	assert.Equal(t, ClassMouseBite, class)

	class, err = ClassFromLabel("unknown_11")
	require.NoError(t, err)
	assert.Equal(t, Class(11), class)

	_, err = ClassFromLabel("rust")
	assert.Error(t, err)

	_, err = ClassFromLabel("unknown_eleven")
	assert.Error(t, err)
}

func TestClassJSONRoundTrip(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(ClassPinhole)
	require.NoError(t, err)
	assert.Equal(t, `"pinhole"`, string(data))

	var class Class
	require.NoError(t, json.Unmarshal([]byte(`"unknown_9"`), &class))
	assert.Equal(t, Class(9), class)
}

func TestLabelsIndexedByID(t *testing.T) {
	t.Parallel()

	labels := Labels()
	require.Len(t, labels, NumClasses)
	assert.Equal(t, "falsecopper", labels[0])
	assert.Equal(t, "spur", labels[7])
}
