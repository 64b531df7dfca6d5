package appstate

import (
	"seehuhn.de/go/geom/vec"

	"github.com/example/annotator/internal/region"
)

// Action describes something that happened in the editor. Reducers decide
// how state changes in response.
type Action interface {
	// Type is the wire name of the action, e.g. "MOUSE_DOWN".
	Type() string
	isAction()
}

// Scope names the frame an action applies to. Zero values mean the active
// image or video time.
type Scope struct {
	ImageIndex *int
	Time       *float64
}

// FrameScope returns the scope.
func (s Scope) FrameScope() Scope { return s }

// Scoped is implemented by actions that may address a frame other than the
// active one.
type Scoped interface {
	FrameScope() Scope
}

type (
	SelectImage struct {
		ImageIndex int
	}
	ImageOrVideoLoaded struct {
		NaturalWidth  int
		NaturalHeight int
		Duration      float64
	}
	ChangeRegion struct {
		Scope
		Region region.Region
	}
	RestoreHistory struct{}
	ClosePolygon   struct {
		RegionID string
	}
	SelectRegion struct {
		RegionID string
	}
	BeginMovePoint struct {
		RegionID string
	}
	// BeginBoxTransform starts a box drag. Directions picks the edges as in
	// ResizeBox.Freedom; [0, 0] moves the whole box.
	BeginBoxTransform struct {
		RegionID   string
		Directions [2]int
	}
	BeginMovePolygonPoint struct {
		RegionID   string
		PointIndex int
	}
	BeginMoveKeypoint struct {
		RegionID   string
		KeypointID string
	}
	// AddPolygonPoint inserts Point at PointIndex and starts dragging it.
	AddPolygonPoint struct {
		RegionID   string
		Point      vec.Vec2
		PointIndex int
	}
	MouseMove struct{ X, Y float64 }
	MouseDown struct{ X, Y float64 }
	MouseUp   struct{ X, Y float64 }

	OpenRegionEditor struct {
		RegionID string
	}
	CloseRegionEditor struct {
		RegionID string
	}
	DeleteRegion struct {
		Scope
		RegionID string
	}
	DeleteSelectedRegion struct{}
	// HeaderButtonClicked is a chrome button press. Exit, Done, Save,
	// Complete, Next and Prev are meant for the host and are intercepted
	// before the reducers.
	HeaderButtonClicked struct {
		ButtonName string
	}
	SelectTool struct {
		Tool Tool
	}
	Cancel               struct{}
	SelectClassification struct {
		Cls string
	}
	ClsAdded struct {
		Cls string
	}
	// ChangeImage sets image or keyframe labels. A nil field is left as is.
	ChangeImage struct {
		Cls  *string
		Tags []string
	}
	ChangeVideoTime struct {
		NewTime float64
	}
	ChangeVideoPlaying struct {
		IsPlaying bool
	}
	BeginBoxRotation struct {
		RegionID string
		X, Y     float64
	}
	DeleteKeyframe struct {
		Time float64
	}
	BeginResizeKeypoints struct {
		RegionID string
		X, Y     float64
	}
	CloseExpandingLine struct {
		RegionID string
	}
	// SegmentationResult delivers regions produced by an external segmenter
	// for the frame named by Scope.
	SegmentationResult struct {
		Scope
		Regions []region.Region
	}
)

func (SelectImage) Type() string           { return "SELECT_IMAGE" }
func (ImageOrVideoLoaded) Type() string    { return "IMAGE_OR_VIDEO_LOADED" }
func (ChangeRegion) Type() string          { return "CHANGE_REGION" }
func (RestoreHistory) Type() string        { return "RESTORE_HISTORY" }
func (ClosePolygon) Type() string          { return "CLOSE_POLYGON" }
func (SelectRegion) Type() string          { return "SELECT_REGION" }
func (BeginMovePoint) Type() string        { return "BEGIN_MOVE_POINT" }
func (BeginBoxTransform) Type() string     { return "BEGIN_BOX_TRANSFORM" }
func (BeginMovePolygonPoint) Type() string { return "BEGIN_MOVE_POLYGON_POINT" }
func (BeginMoveKeypoint) Type() string     { return "BEGIN_MOVE_KEYPOINT" }
func (AddPolygonPoint) Type() string       { return "ADD_POLYGON_POINT" }
func (MouseMove) Type() string             { return "MOUSE_MOVE" }
func (MouseDown) Type() string             { return "MOUSE_DOWN" }
func (MouseUp) Type() string               { return "MOUSE_UP" }
func (OpenRegionEditor) Type() string      { return "OPEN_REGION_EDITOR" }
func (CloseRegionEditor) Type() string     { return "CLOSE_REGION_EDITOR" }
func (DeleteRegion) Type() string          { return "DELETE_REGION" }
func (DeleteSelectedRegion) Type() string  { return "DELETE_SELECTED_REGION" }
func (HeaderButtonClicked) Type() string   { return "HEADER_BUTTON_CLICKED" }
func (SelectTool) Type() string            { return "SELECT_TOOL" }
func (Cancel) Type() string                { return "CANCEL" }
func (SelectClassification) Type() string  { return "SELECT_CLASSIFICATION" }
func (ClsAdded) Type() string              { return "ON_CLS_ADDED" }
func (ChangeImage) Type() string           { return "CHANGE_IMAGE" }
func (ChangeVideoTime) Type() string       { return "CHANGE_VIDEO_TIME" }
func (ChangeVideoPlaying) Type() string    { return "CHANGE_VIDEO_PLAYING" }
func (BeginBoxRotation) Type() string      { return "BEGIN_BOX_ROTATION" }
func (DeleteKeyframe) Type() string        { return "DELETE_KEYFRAME" }
func (BeginResizeKeypoints) Type() string  { return "BEGIN_RESIZE_KEYPOINTS" }
func (CloseExpandingLine) Type() string    { return "CLOSE_EXPANDING_LINE" }
func (SegmentationResult) Type() string    { return "SEGMENTATION_RESULT" }

func (SelectImage) isAction()           {}
func (ImageOrVideoLoaded) isAction()    {}
func (ChangeRegion) isAction()          {}
func (RestoreHistory) isAction()        {}
func (ClosePolygon) isAction()          {}
func (SelectRegion) isAction()          {}
func (BeginMovePoint) isAction()        {}
func (BeginBoxTransform) isAction()     {}
func (BeginMovePolygonPoint) isAction() {}
func (BeginMoveKeypoint) isAction()     {}
func (AddPolygonPoint) isAction()       {}
func (MouseMove) isAction()             {}
func (MouseDown) isAction()             {}
func (MouseUp) isAction()               {}
func (OpenRegionEditor) isAction()      {}
func (CloseRegionEditor) isAction()     {}
func (DeleteRegion) isAction()          {}
func (DeleteSelectedRegion) isAction()  {}
func (HeaderButtonClicked) isAction()   {}
func (SelectTool) isAction()            {}
func (Cancel) isAction()                {}
func (SelectClassification) isAction()  {}
func (ClsAdded) isAction()              {}
func (ChangeImage) isAction()           {}
func (ChangeVideoTime) isAction()       {}
func (ChangeVideoPlaying) isAction()    {}
func (BeginBoxRotation) isAction()      {}
func (DeleteKeyframe) isAction()        {}
func (BeginResizeKeypoints) isAction()  {}
func (CloseExpandingLine) isAction()    {}
func (SegmentationResult) isAction()    {}
