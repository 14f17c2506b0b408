package migrate

import (
	"encoding/json"
	"fmt"
)

// Version identifies a persisted storage schema.
type Version int

const (
	// V0 maps each date directly to a bare dose count.
	V0 Version = iota

	// V1 maps each date to an object with per-category count fields.
	V1

	// V2 is the current shape: a flat collection of event records behind a
	// schema-version marker.
	V2
)

// CurrentVersion is the schema version written by the local store.
const CurrentVersion = 2

// v1Record is the per-date object of the V1 shape. Counts are pointers so a
// present-but-zero field can be told apart from an absent one.
type v1Record struct {
	SprayCount      *int  `json:"sprayCount,omitempty"`
	ControllerCount *int  `json:"controllerCount,omitempty"`
	Preventive      *bool `json:"preventive,omitempty"`
}

// marker mirrors only the version field of the V2 envelope, enough to detect
// that migration already ran.
type marker struct {
	SchemaVersion int `json:"schema_version"`
}

// Detect classifies a persisted payload as V0, V1, or V2.
//
// The decision is made once here, not scattered through business logic: a V2
// envelope carries the schema_version marker; otherwise the payload must be a
// date-keyed object whose values are bare numbers (V0) or objects (V1). A
// payload mixing both generations is V1, whatever order its values are seen
// in. An empty object is treated as V0, the oldest shape it could be.
func Detect(raw []byte) (Version, error) {
	var m marker
	if err := json.Unmarshal(raw, &m); err == nil && m.SchemaVersion >= CurrentVersion {
		return V2, nil
	}

	var byDate map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byDate); err != nil {
		return 0, fmt.Errorf("detect schema version: %w", err)
	}

	for _, v := range byDate {
		var n float64
		if err := json.Unmarshal(v, &n); err != nil {
			return V1, nil
		}
	}
	return V0, nil
}
