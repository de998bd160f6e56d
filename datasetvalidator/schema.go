package datasetvalidator

import (
	"encoding/json"
	"fmt"
	"math"
)

// Presence describes when a manifest key counts as present
type Presence int

const (
	// PresenceDefined: the key only has to exist; false and null count as present.
	PresenceDefined Presence = iota
	// PresenceTruthy: the key must exist and hold a truthy value.
	// null, false, 0 and "" are falsy; empty objects and arrays are not.
	PresenceTruthy
)

// Kind names the expected JSON type of a manifest key, as used in issue text
type Kind string

const (
	KindField  Kind = "field"
	KindObject Kind = "object"
)

// FieldSpec is one required top-level key of a dataset manifest
type FieldSpec struct {
	Key      string
	Kind     Kind
	Presence Presence
}

// MissingIssue returns the issue text reported when the key is absent
func (f FieldSpec) MissingIssue() string {
	return fmt.Sprintf("Missing %q %s", f.Key, f.Kind)
}

// PresentIn reports whether the key is present in a decoded manifest object.
// A nil map (non-object document) has no keys.
func (f FieldSpec) PresentIn(obj map[string]any) bool {
	value, ok := obj[f.Key]
	if !ok {
		return false
	}
	if f.Presence == PresenceDefined {
		return true
	}
	return truthy(value)
}

// manifestSchema is evaluated in slice order; issue order follows it.
var manifestSchema = []FieldSpec{
	{Key: "labels_are_mece", Kind: KindField, Presence: PresenceDefined},
	{Key: "class_names", Kind: KindObject, Presence: PresenceTruthy},
	{Key: "labels", Kind: KindObject, Presence: PresenceTruthy},
	{Key: "splits", Kind: KindObject, Presence: PresenceTruthy},
}

// ManifestSchema returns the required manifest keys in check order
func ManifestSchema() []FieldSpec {
	fields := make([]FieldSpec, len(manifestSchema))
	copy(fields, manifestSchema)
	return fields
}

// AnnotationHeader is the header row an annotation CSV must contain
const AnnotationHeader = "video_id,timestamp,x,y,behavior"

// AnnotationColumns returns the annotation CSV columns in order
func AnnotationColumns() []string {
	return []string{"video_id", "timestamp", "x", "y", "behavior"}
}

// SplitNames are the partitions a manifest's splits object must define
var SplitNames = []string{"train", "val"}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			// out of range numbers decode to ±Inf, which are truthy
			return true
		}
		return f != 0 && !math.IsNaN(f)
	case float64:
		return v != 0 && !math.IsNaN(v)
	default:
		return true
	}
}
