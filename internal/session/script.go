package session

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
	"seehuhn.de/go/geom/vec"

	"github.com/example/annotator/internal/appstate"
)

// step is the YAML form of one scripted action. Only the fields the named
// action uses are read.
type step struct {
	Type string `yaml:"type"`

	ImageIndex *int     `yaml:"imageIndex,omitempty"`
	Time       *float64 `yaml:"time,omitempty"`

	RegionID   string    `yaml:"regionId,omitempty"`
	X          float64   `yaml:"x,omitempty"`
	Y          float64   `yaml:"y,omitempty"`
	Directions [2]int    `yaml:"directions,omitempty"`
	PointIndex int       `yaml:"pointIndex,omitempty"`
	KeypointID string    `yaml:"keypointId,omitempty"`
	Point      *vec.Vec2 `yaml:"point,omitempty"`

	ButtonName string   `yaml:"buttonName,omitempty"`
	Tool       string   `yaml:"tool,omitempty"`
	Cls        *string  `yaml:"cls,omitempty"`
	Tags       []string `yaml:"tags,omitempty"`

	NewTime   float64 `yaml:"newTime,omitempty"`
	IsPlaying bool    `yaml:"isPlaying,omitempty"`

	NaturalWidth  int     `yaml:"naturalWidth,omitempty"`
	NaturalHeight int     `yaml:"naturalHeight,omitempty"`
	Duration      float64 `yaml:"duration,omitempty"`

	Region  *RegionValue `yaml:"region,omitempty"`
	Regions RegionList   `yaml:"regions,omitempty"`
}

// ReadScript decodes a YAML list of actions.
func ReadScript(r io.Reader) ([]appstate.Action, error) {
	var steps []step
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&steps); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode script: %w", err)
	}
	out := make([]appstate.Action, 0, len(steps))
	for i, s := range steps {
		a, err := s.action()
		if err != nil {
			return nil, fmt.Errorf("script step %d: %w", i+1, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (s step) scope() appstate.Scope {
	return appstate.Scope{ImageIndex: s.ImageIndex, Time: s.Time}
}

func (s step) action() (appstate.Action, error) {
	switch s.Type {
	case "SELECT_IMAGE":
		if s.ImageIndex == nil {
			return nil, fmt.Errorf("%s needs imageIndex", s.Type)
		}
		return appstate.SelectImage{ImageIndex: *s.ImageIndex}, nil
	case "IMAGE_OR_VIDEO_LOADED":
		return appstate.ImageOrVideoLoaded{NaturalWidth: s.NaturalWidth, NaturalHeight: s.NaturalHeight, Duration: s.Duration}, nil
	case "CHANGE_REGION":
		if s.Region == nil || s.Region.Region == nil {
			return nil, fmt.Errorf("%s needs region", s.Type)
		}
		return appstate.ChangeRegion{Scope: s.scope(), Region: s.Region.Region}, nil
	case "RESTORE_HISTORY":
		return appstate.RestoreHistory{}, nil
	case "CLOSE_POLYGON":
		return appstate.ClosePolygon{RegionID: s.RegionID}, nil
	case "SELECT_REGION":
		return appstate.SelectRegion{RegionID: s.RegionID}, nil
	case "BEGIN_MOVE_POINT":
		return appstate.BeginMovePoint{RegionID: s.RegionID}, nil
	case "BEGIN_BOX_TRANSFORM":
		return appstate.BeginBoxTransform{RegionID: s.RegionID, Directions: s.Directions}, nil
	case "BEGIN_MOVE_POLYGON_POINT":
		return appstate.BeginMovePolygonPoint{RegionID: s.RegionID, PointIndex: s.PointIndex}, nil
	case "BEGIN_MOVE_KEYPOINT":
		return appstate.BeginMoveKeypoint{RegionID: s.RegionID, KeypointID: s.KeypointID}, nil
	case "ADD_POLYGON_POINT":
		if s.Point == nil {
			return nil, fmt.Errorf("%s needs point", s.Type)
		}
		return appstate.AddPolygonPoint{RegionID: s.RegionID, Point: *s.Point, PointIndex: s.PointIndex}, nil
	case "MOUSE_MOVE":
		return appstate.MouseMove{X: s.X, Y: s.Y}, nil
	case "MOUSE_DOWN":
		return appstate.MouseDown{X: s.X, Y: s.Y}, nil
	case "MOUSE_UP":
		return appstate.MouseUp{X: s.X, Y: s.Y}, nil
	case "OPEN_REGION_EDITOR":
		return appstate.OpenRegionEditor{RegionID: s.RegionID}, nil
	case "CLOSE_REGION_EDITOR":
		return appstate.CloseRegionEditor{RegionID: s.RegionID}, nil
	case "DELETE_REGION":
		return appstate.DeleteRegion{Scope: s.scope(), RegionID: s.RegionID}, nil
	case "DELETE_SELECTED_REGION":
		return appstate.DeleteSelectedRegion{}, nil
	case "HEADER_BUTTON_CLICKED":
		return appstate.HeaderButtonClicked{ButtonName: s.ButtonName}, nil
	case "SELECT_TOOL":
		t, ok := appstate.ParseTool(s.Tool)
		if !ok {
			return nil, fmt.Errorf("unknown tool %q", s.Tool)
		}
		return appstate.SelectTool{Tool: t}, nil
	case "CANCEL":
		return appstate.Cancel{}, nil
	case "SELECT_CLASSIFICATION":
		if s.Cls == nil {
			return nil, fmt.Errorf("%s needs cls", s.Type)
		}
		return appstate.SelectClassification{Cls: *s.Cls}, nil
	case "ON_CLS_ADDED":
		if s.Cls == nil {
			return nil, fmt.Errorf("%s needs cls", s.Type)
		}
		return appstate.ClsAdded{Cls: *s.Cls}, nil
	case "CHANGE_IMAGE":
		return appstate.ChangeImage{Cls: s.Cls, Tags: s.Tags}, nil
	case "CHANGE_VIDEO_TIME":
		return appstate.ChangeVideoTime{NewTime: s.NewTime}, nil
	case "CHANGE_VIDEO_PLAYING":
		return appstate.ChangeVideoPlaying{IsPlaying: s.IsPlaying}, nil
	case "BEGIN_BOX_ROTATION":
		return appstate.BeginBoxRotation{RegionID: s.RegionID, X: s.X, Y: s.Y}, nil
	case "DELETE_KEYFRAME":
		if s.Time == nil {
			return nil, fmt.Errorf("%s needs time", s.Type)
		}
		return appstate.DeleteKeyframe{Time: *s.Time}, nil
	case "BEGIN_RESIZE_KEYPOINTS":
		return appstate.BeginResizeKeypoints{RegionID: s.RegionID, X: s.X, Y: s.Y}, nil
	case "CLOSE_EXPANDING_LINE":
		return appstate.CloseExpandingLine{RegionID: s.RegionID}, nil
	case "SEGMENTATION_RESULT":
		return appstate.SegmentationResult{Scope: s.scope(), Regions: s.Regions}, nil
	case "":
		return nil, fmt.Errorf("action without type")
	}
	return nil, fmt.Errorf("unknown action type %q", s.Type)
}
