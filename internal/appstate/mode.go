package appstate

import (
	"maps"

	"seehuhn.de/go/geom/vec"

	"github.com/example/annotator/internal/region"
)

// Mode is the gesture in progress. A nil Mode means the editor is idle.
type Mode interface {
	Name() string
	// Target is the id of the region the gesture works on.
	Target() string
	isMode()
}

// DrawPolygon appends a vertex to the polygon on every click.
type DrawPolygon struct{ RegionID string }

// DrawLine tracks the free end of a line until the next click.
type DrawLine struct{ RegionID string }

// DrawExpandingLine appends expanding-line vertices.
type DrawExpandingLine struct{ RegionID string }

// SetExpandingLineWidth sizes the stroke of a finished expanding line.
type SetExpandingLineWidth struct{ RegionID string }

// MovePolygonPoint drags one polygon vertex.
type MovePolygonPoint struct {
	RegionID   string
	PointIndex int
}

// MoveRegion drags a point, or a box by its centre.
type MoveRegion struct{ RegionID string }

// MoveKeypoint drags one landmark of a keypoints region.
type MoveKeypoint struct {
	RegionID   string
	KeypointID string
}

// ResizeBox drags box edges. Freedom holds -1, 0 or 1 per axis: the left or
// top edge, neither, or the right or bottom edge.
type ResizeBox struct {
	RegionID string
	Freedom  [2]int
	Original region.Rect
	IsNew    bool
	// EditLabelEditorAfter opens the label editor when the drag ends.
	EditLabelEditorAfter bool
}

// RotateBox turns a box about its centre. StartAngle is the pointer angle at
// which the box rotation reads zero.
type RotateBox struct {
	RegionID   string
	StartAngle float64
}

// ResizeKeypoints scales and rotates every landmark about Center. Offsets
// are the landmark positions relative to Center when the gesture began and
// RefDistance the pointer distance they correspond to. A nil RefAngle
// disables rotation.
type ResizeKeypoints struct {
	RegionID    string
	Offsets     map[string]vec.Vec2
	Center      vec.Vec2
	RefDistance float64
	RefAngle    *float64
	IsNew       bool
}

func (DrawPolygon) Name() string           { return "DRAW_POLYGON" }
func (DrawLine) Name() string              { return "DRAW_LINE" }
func (DrawExpandingLine) Name() string     { return "DRAW_EXPANDING_LINE" }
func (SetExpandingLineWidth) Name() string { return "SET_EXPANDING_LINE_WIDTH" }
func (MovePolygonPoint) Name() string      { return "MOVE_POLYGON_POINT" }
func (MoveRegion) Name() string            { return "MOVE_REGION" }
func (MoveKeypoint) Name() string          { return "MOVE_KEYPOINT" }
func (ResizeBox) Name() string             { return "RESIZE_BOX" }
func (RotateBox) Name() string             { return "ROTATE_BOX" }
func (ResizeKeypoints) Name() string       { return "RESIZE_KEYPOINTS" }

func (m DrawPolygon) Target() string           { return m.RegionID }
func (m DrawLine) Target() string              { return m.RegionID }
func (m DrawExpandingLine) Target() string     { return m.RegionID }
func (m SetExpandingLineWidth) Target() string { return m.RegionID }
func (m MovePolygonPoint) Target() string      { return m.RegionID }
func (m MoveRegion) Target() string            { return m.RegionID }
func (m MoveKeypoint) Target() string          { return m.RegionID }
func (m ResizeBox) Target() string             { return m.RegionID }
func (m RotateBox) Target() string             { return m.RegionID }
func (m ResizeKeypoints) Target() string       { return m.RegionID }

func (DrawPolygon) isMode()           {}
func (DrawLine) isMode()              {}
func (DrawExpandingLine) isMode()     {}
func (SetExpandingLineWidth) isMode() {}
func (MovePolygonPoint) isMode()      {}
func (MoveRegion) isMode()            {}
func (MoveKeypoint) isMode()          {}
func (ResizeBox) isMode()             {}
func (RotateBox) isMode()             {}
func (ResizeKeypoints) isMode()       {}

// IsDrawing reports whether m builds a region vertex by vertex.
func IsDrawing(m Mode) bool {
	switch m.(type) {
	case DrawPolygon, DrawLine, DrawExpandingLine, SetExpandingLineWidth:
		return true
	}
	return false
}

// CreatedRegion reports whether cancelling m should delete its target
// because the gesture created it. The width phase of an expanding line
// follows a committed vertex list and is not included.
func CreatedRegion(m Mode) bool {
	switch m := m.(type) {
	case DrawPolygon, DrawLine, DrawExpandingLine:
		return true
	case ResizeBox:
		return m.IsNew
	case ResizeKeypoints:
		return m.IsNew
	}
	return false
}

func cloneMode(m Mode) Mode {
	if rk, ok := m.(ResizeKeypoints); ok {
		rk.Offsets = maps.Clone(rk.Offsets)
		if rk.RefAngle != nil {
			a := *rk.RefAngle
			rk.RefAngle = &a
		}
		return rk
	}
	return m
}
