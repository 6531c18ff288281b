// Package taxonomy defines the PCB defect classes and the normalized
// detection model shared across the inspection pipeline.
package taxonomy

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Class identifies a defect class produced by the detector. The taxonomy is
// closed: ids 0-7 are the known classes, anything else renders as unknown_{id}.
type Class int

const (
	ClassFalseCopper Class = iota
	ClassMissingHole
	ClassMouseBite
	ClassOpenCircuit
	ClassPinhole
	ClassScratch
	ClassShortCircuit
	ClassSpur

	// NumClasses is the number of known defect classes.
	NumClasses = 8
)

// classLabels maps known classes to their wire labels. The ids and labels
// are fixed by the detector's training set and must not be reordered.
var classLabels = map[Class]string{
	ClassFalseCopper:  "falsecopper",
	ClassMissingHole:  "missinghole",
	ClassMouseBite:    "mousebite",
	ClassOpenCircuit:  "opencircuit",
	ClassPinhole:      "pinhole",
	ClassScratch:      "scratch",
	ClassShortCircuit: "shortcircuit",
	ClassSpur:         "spur",
}

// labelClasses is the reverse lookup of classLabels.
var labelClasses = func() map[string]Class {
	m := make(map[string]Class, len(classLabels))
	for class, label := range classLabels {
		m[label] = class
	}
	return m
}()

var titleCaser = cases.Title(language.English)

// Known reports whether the class is part of the fixed taxonomy.
func (c Class) Known() bool {
	_, ok := classLabels[c]
	return ok
}

// Label returns the wire label of the class, or unknown_{id} for ids outside
// the taxonomy.
func (c Class) Label() string {
	if label, ok := classLabels[c]; ok {
		return label
	}
	return fmt.Sprintf("unknown_%d", int(c))
}

// Display returns the human readable form of the class label, with
// underscores replaced by spaces and each word title cased.
func (c Class) Display() string {
	return DisplayLabel(c.Label())
}

// String implements fmt.Stringer.
func (c Class) String() string {
	return c.Label()
}

// DisplayLabel converts a wire label to its display form.
func DisplayLabel(label string) string {
	return titleCaser.String(strings.ReplaceAll(label, "_", " "))
}

// ClassFromLabel resolves a wire label back to a Class. Labels of the form
// unknown_{id} resolve to the embedded id.
func ClassFromLabel(label string) (Class, error) {
	if class, ok := labelClasses[label]; ok {
		return class, nil
	}
	if rest, found := strings.CutPrefix(label, "unknown_"); found {
		id, err := strconv.Atoi(rest)
		if err != nil {
			return 0, fmt.Errorf("malformed unknown class label %q", label)
		}
		return Class(id), nil
	}
	return 0, fmt.Errorf("unknown class label %q", label)
}

// MarshalJSON serializes the class as its wire label.
func (c Class) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Label())
}

// UnmarshalJSON parses a wire label back into a class.
func (c *Class) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	class, err := ClassFromLabel(label)
	if err != nil {
		return err
	}
	*c = class
	return nil
}

// Labels returns the wire labels of all known classes indexed by class id.
func Labels() []string {
	labels := make([]string, NumClasses)
	for class, label := range classLabels {
		labels[int(class)] = label
	}
	return labels
}
