package region

import (
	"errors"
	"fmt"
	"sort"

	"seehuhn.de/go/geom/vec"
)

var (
	ErrUnknownTemplate = errors.New("unknown keypoints definition")
	ErrUnknownLandmark = errors.New("unknown landmark")
)

// Landmark is one named point of a keypoints template.
type Landmark struct {
	Label           string   `yaml:"label"`
	Color           string   `yaml:"color"`
	DefaultPosition vec.Vec2 `yaml:"defaultPosition"`
}

// KeypointsDefinition is a named set of landmarks and the skeleton edges
// drawn between them.
type KeypointsDefinition struct {
	Landmarks   map[string]Landmark `yaml:"landmarks"`
	Connections [][2]string         `yaml:"connections"`
}

// LandmarkIDs returns the landmark ids in sorted order.
func (d KeypointsDefinition) LandmarkIDs() []string {
	ids := make([]string, 0, len(d.Landmarks))
	for id := range d.Landmarks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ConfigurationError reports a keypoints region that does not match the
// configured templates.
type ConfigurationError struct {
	RegionID     string
	DefinitionID string
	LandmarkID   string
	Err          error
}

func (e *ConfigurationError) Error() string {
	if e.LandmarkID != "" {
		return fmt.Sprintf("region %s: %v %q in definition %q", e.RegionID, e.Err, e.LandmarkID, e.DefinitionID)
	}
	return fmt.Sprintf("region %s: %v %q", e.RegionID, e.Err, e.DefinitionID)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ValidateKeypoints checks that k names a known template and only uses
// landmarks that template defines.
func ValidateKeypoints(k Keypoints, defs map[string]KeypointsDefinition) error {
	def, ok := defs[k.DefinitionID]
	if !ok {
		return &ConfigurationError{RegionID: k.ID, DefinitionID: k.DefinitionID, Err: ErrUnknownTemplate}
	}
	ids := make([]string, 0, len(k.Points))
	for id := range k.Points {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, ok := def.Landmarks[id]; !ok {
			return &ConfigurationError{RegionID: k.ID, DefinitionID: k.DefinitionID, LandmarkID: id, Err: ErrUnknownLandmark}
		}
	}
	return nil
}

// Validate runs ValidateKeypoints over every keypoints region in rs and
// returns the failures.
func Validate(rs []Region, defs map[string]KeypointsDefinition) []error {
	var errs []error
	for _, r := range rs {
		k, ok := r.(Keypoints)
		if !ok {
			continue
		}
		if err := ValidateKeypoints(k, defs); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Edge is one drawn skeleton segment.
type Edge struct {
	From, To vec.Vec2
	Color    string
}

// Edges returns the skeleton segments of k whose endpoints are both
// placed. Each edge takes the colour of its first landmark.
func Edges(k Keypoints, def KeypointsDefinition) []Edge {
	var out []Edge
	for _, c := range def.Connections {
		a, okA := k.Points[c[0]]
		b, okB := k.Points[c[1]]
		if !okA || !okB {
			continue
		}
		out = append(out, Edge{From: a, To: b, Color: def.Landmarks[c[0]].Color})
	}
	return out
}

// PlaceKeypoints lays out the template's default positions inside a square
// of side size centred on c.
func PlaceKeypoints(def KeypointsDefinition, c vec.Vec2, size float64) map[string]vec.Vec2 {
	pts := make(map[string]vec.Vec2, len(def.Landmarks))
	for id, lm := range def.Landmarks {
		off := lm.DefaultPosition.Sub(vec.Vec2{X: 0.5, Y: 0.5}).Mul(size)
		pts[id] = ClampPoint(c.Add(off))
	}
	return pts
}
