package reducer

import (
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"seehuhn.de/go/geom/vec"

	"github.com/example/annotator/internal/appstate"
	"github.com/example/annotator/internal/region"
)

func sequentialIDs() Option {
	n := 0
	return WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("r%d", n)
	})
}

func imageState(rs ...region.Region) *appstate.State {
	return appstate.New(
		appstate.WithRegionClasses("car", "person"),
		appstate.WithImages([]appstate.Image{{Src: "a.png", Regions: rs}, {Src: "b.png"}}, 0),
	)
}

func apply(f Func, s *appstate.State, actions ...appstate.Action) *appstate.State {
	for _, a := range actions {
		s = f(s, a)
	}
	return s
}

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestUnknownActionIsNoOp(t *testing.T) {
	s := imageState()
	f := ForState(s)
	for _, a := range []appstate.Action{
		appstate.RestoreHistory{},
		appstate.MouseMove{X: 0.3, Y: 0.3},
		appstate.DeleteRegion{RegionID: "missing"},
		appstate.ChangeVideoTime{NewTime: 3},
	} {
		if got := f(s, a); got != s {
			t.Errorf("%s changed state", a.Type())
		}
	}
}

func TestNewBoxCancelRemovesIt(t *testing.T) {
	s := imageState()
	s = s.With(func(c *appstate.State) { c.SelectedTool = appstate.ToolCreateBox })
	f := ForState(s, sequentialIDs())

	s = apply(f, s, appstate.MouseDown{X: 0.2, Y: 0.2}, appstate.MouseMove{X: 0.4, Y: 0.5})
	m, ok := s.Mode.(appstate.ResizeBox)
	if !ok || !m.IsNew {
		t.Fatalf("expected new box resize, got %#v", s.Mode)
	}
	if len(s.ActiveRegions()) != 1 {
		t.Fatalf("expected the box to exist while drawing")
	}

	s = f(s, appstate.Cancel{})
	if s.Mode != nil {
		t.Errorf("mode not cleared: %#v", s.Mode)
	}
	if n := len(s.ActiveRegions()); n != 0 {
		t.Errorf("new box survived cancel: %d regions", n)
	}
}

func TestExistingBoxCancelKeepsGeometry(t *testing.T) {
	box := region.Box{Base: region.Base{ID: "b"}, X: 0.2, Y: 0.2, W: 0.2, H: 0.2}
	s := imageState(box)
	f := ForState(s)

	s = apply(f, s,
		appstate.BeginBoxTransform{RegionID: "b", Directions: [2]int{1, 1}},
		appstate.MouseMove{X: 0.6, Y: 0.7},
		appstate.Cancel{},
	)
	if s.Mode != nil {
		t.Fatalf("mode not cleared: %#v", s.Mode)
	}
	got, ok := s.FindRegion("b")
	if !ok {
		t.Fatalf("existing box removed by cancel")
	}
	want := region.Box{Base: region.Base{ID: "b"}, X: 0.2, Y: 0.2, W: 0.4, H: 0.5}
	if diff := cmp.Diff(region.Region(want), got, approx); diff != "" {
		t.Errorf("box geometry mismatch (-want +got):\n%s", diff)
	}
}

func TestResizeBoxNeverNegative(t *testing.T) {
	box := region.Box{Base: region.Base{ID: "b"}, X: 0.4, Y: 0.4, W: 0.2, H: 0.2}
	s := imageState(box)
	f := ForState(s)
	s = apply(f, s,
		appstate.BeginBoxTransform{RegionID: "b", Directions: [2]int{1, -1}},
		appstate.MouseMove{X: 0.1, Y: 0.9},
	)
	got, _ := s.FindRegion("b")
	want := region.Box{Base: region.Base{ID: "b"}, X: 0.4, Y: 0.6, W: 0, H: 0}
	if diff := cmp.Diff(region.Region(want), got, approx); diff != "" {
		t.Errorf("box mismatch (-want +got):\n%s", diff)
	}
}

func TestResizeConvergesWithDroppedMoves(t *testing.T) {
	box := region.Box{Base: region.Base{ID: "b"}, X: 0.1, Y: 0.1, W: 0.1, H: 0.1}
	s := imageState(box)
	f := ForState(s)
	begin := appstate.BeginBoxTransform{RegionID: "b", Directions: [2]int{1, 1}}

	many := apply(f, s, begin,
		appstate.MouseMove{X: 0.3, Y: 0.3},
		appstate.MouseMove{X: 0.5, Y: 0.2},
		appstate.MouseMove{X: 0.5, Y: 0.2},
		appstate.MouseUp{X: 0.6, Y: 0.4},
	)
	few := apply(f, s, begin, appstate.MouseUp{X: 0.6, Y: 0.4})
	if diff := cmp.Diff(many.ActiveRegions(), few.ActiveRegions(), approx); diff != "" {
		t.Errorf("gestures diverged (-many +few):\n%s", diff)
	}
}

func TestTinyNewBoxDiscardedOnMouseUp(t *testing.T) {
	s := imageState()
	s = s.With(func(c *appstate.State) { c.SelectedTool = appstate.ToolCreateBox })
	f := ForState(s, sequentialIDs())

	clicked := apply(f, s, appstate.MouseDown{X: 0.5, Y: 0.5}, appstate.MouseUp{X: 0.5005, Y: 0.6})
	if n := len(clicked.ActiveRegions()); n != 0 {
		t.Errorf("click without drag left %d regions", n)
	}

	dragged := apply(f, s, appstate.MouseDown{X: 0.5, Y: 0.5}, appstate.MouseUp{X: 0.6, Y: 0.6})
	r, ok := dragged.FindRegion("r2")
	if !ok {
		t.Fatalf("dragged box missing: %+v", dragged.ActiveRegions())
	}
	if !r.Common().EditingLabels {
		t.Errorf("label editor not opened after drawing")
	}
	if r.Common().Color != region.ColorFor(0) || r.Common().Cls != "car" {
		t.Errorf("new box cls/colour = %q/%q", r.Common().Cls, r.Common().Color)
	}
}

func TestLockedRegionIgnoresBegin(t *testing.T) {
	s := imageState(
		region.Box{Base: region.Base{ID: "b", Locked: true}, W: 0.1, H: 0.1},
		region.Point{Base: region.Base{ID: "p", Locked: true}},
	)
	f := ForState(s)
	for _, a := range []appstate.Action{
		appstate.BeginBoxTransform{RegionID: "b", Directions: [2]int{1, 0}},
		appstate.BeginBoxRotation{RegionID: "b", X: 1, Y: 1},
		appstate.BeginMovePoint{RegionID: "p"},
	} {
		if f(s, a) != s {
			t.Errorf("%s on a locked region changed state", a.Type())
		}
	}
}

func TestMovePointClampsAndCancelKeepsPosition(t *testing.T) {
	s := imageState(region.Point{Base: region.Base{ID: "p"}, X: 0.5, Y: 0.5})
	f := ForState(s)
	s = apply(f, s,
		appstate.BeginMovePoint{RegionID: "p"},
		appstate.MouseMove{X: 1.4, Y: -0.2},
	)
	if _, ok := s.Mode.(appstate.MoveRegion); !ok {
		t.Fatalf("expected move mode, got %#v", s.Mode)
	}
	s = f(s, appstate.Cancel{})
	got, _ := s.FindRegion("p")
	if diff := cmp.Diff(region.Region(region.Point{Base: region.Base{ID: "p"}, X: 1, Y: 0}), got); diff != "" {
		t.Errorf("point mismatch (-want +got):\n%s", diff)
	}
}

func TestMoveWholeBoxRecentres(t *testing.T) {
	s := imageState(region.Box{Base: region.Base{ID: "b"}, W: 0.2, H: 0.2})
	f := ForState(s)
	s = apply(f, s,
		appstate.BeginBoxTransform{RegionID: "b"},
		appstate.MouseMove{X: 0.5, Y: 0.5},
		appstate.MouseUp{X: 0.5, Y: 0.5},
	)
	got, _ := s.FindRegion("b")
	want := region.Box{Base: region.Base{ID: "b"}, X: 0.4, Y: 0.4, W: 0.2, H: 0.2}
	if diff := cmp.Diff(region.Region(want), got, approx); diff != "" {
		t.Errorf("box mismatch (-want +got):\n%s", diff)
	}
	if s.Mode != nil {
		t.Errorf("mode not cleared by mouse up")
	}
}

func TestRotateBox(t *testing.T) {
	s := imageState(region.Box{Base: region.Base{ID: "b"}, X: 0.4, Y: 0.4, W: 0.2, H: 0.2, Rotation: 10})
	f := ForState(s)
	// Pointer starts due right of the centre (0.5, 0.5).
	s = f(s, appstate.BeginBoxRotation{RegionID: "b", X: 0.7, Y: 0.5})
	m, ok := s.Mode.(appstate.RotateBox)
	if !ok || m.StartAngle != -10 {
		t.Fatalf("unexpected mode %#v", s.Mode)
	}
	below := f(s, appstate.MouseMove{X: 0.5, Y: 0.7})
	got, _ := below.FindRegion("b")
	if r := got.(region.Box).Rotation; math.Abs(r-100) > 1e-9 {
		t.Errorf("rotation = %v, want 100", r)
	}
	back := f(below, appstate.MouseMove{X: 0.7, Y: 0.5})
	got, _ = back.FindRegion("b")
	if r := got.(region.Box).Rotation; math.Abs(r-10) > 1e-9 {
		t.Errorf("rotation after full turn = %v, want 10", r)
	}
}

func TestDrawPolygonClosesNearFirstPoint(t *testing.T) {
	s := imageState()
	s = s.With(func(c *appstate.State) { c.SelectedTool = appstate.ToolCreatePolygon })
	f := ForState(s, sequentialIDs())
	s = apply(f, s,
		appstate.MouseDown{X: 0.1, Y: 0.1},
		appstate.MouseUp{X: 0.1, Y: 0.1},
		appstate.MouseDown{X: 0.5, Y: 0.1},
		appstate.MouseMove{X: 0.5, Y: 0.5},
		appstate.MouseDown{X: 0.5, Y: 0.5},
	)
	if _, ok := s.Mode.(appstate.DrawPolygon); !ok {
		t.Fatalf("expected drawing mode, got %#v", s.Mode)
	}
	s = f(s, appstate.MouseDown{X: 0.105, Y: 0.1})
	if s.Mode != nil {
		t.Fatalf("polygon not closed, mode %#v", s.Mode)
	}
	got, _ := s.FindRegion("r1")
	poly := got.(region.Polygon)
	want := []vec.Vec2{{X: 0.1, Y: 0.1}, {X: 0.5, Y: 0.1}, {X: 0.5, Y: 0.5}}
	if diff := cmp.Diff(want, poly.Points); diff != "" || poly.Open {
		t.Errorf("polygon mismatch (open=%v) (-want +got):\n%s", poly.Open, diff)
	}
}

func TestBeginMoveFirstPolygonPointClosesDrawing(t *testing.T) {
	s := imageState()
	s = s.With(func(c *appstate.State) { c.SelectedTool = appstate.ToolCreatePolygon })
	f := ForState(s, sequentialIDs())
	s = apply(f, s,
		appstate.MouseDown{X: 0.1, Y: 0.1},
		appstate.MouseDown{X: 0.3, Y: 0.1},
		appstate.BeginMovePolygonPoint{RegionID: "r1", PointIndex: 0},
	)
	if s.Mode != nil {
		t.Fatalf("expected idle, got %#v", s.Mode)
	}
	if _, ok := s.FindRegion("r1"); !ok {
		t.Fatalf("polygon missing")
	}
}

func TestCancelWhileDrawingDiscardsRegion(t *testing.T) {
	s := imageState()
	s = s.With(func(c *appstate.State) { c.SelectedTool = appstate.ToolCreateLine })
	f := ForState(s, sequentialIDs())
	s = apply(f, s, appstate.MouseDown{X: 0.1, Y: 0.1}, appstate.MouseMove{X: 0.4, Y: 0.4}, appstate.Cancel{})
	if s.Mode != nil || len(s.ActiveRegions()) != 0 {
		t.Errorf("line survived cancel: mode %#v regions %v", s.Mode, s.ActiveRegions())
	}
}

func TestDrawLine(t *testing.T) {
	s := imageState()
	s = s.With(func(c *appstate.State) { c.SelectedTool = appstate.ToolCreateLine })
	f := ForState(s, sequentialIDs())
	s = apply(f, s, appstate.MouseDown{X: 0.1, Y: 0.2}, appstate.MouseMove{X: 0.4, Y: 0.4}, appstate.MouseDown{X: 0.8, Y: 0.9})
	if s.Mode != nil {
		t.Fatalf("line still drawing")
	}
	got, _ := s.FindRegion("r1")
	want := region.Line{X1: 0.1, Y1: 0.2, X2: 0.8, Y2: 0.9}
	l := got.(region.Line)
	l.Base = region.Base{}
	if diff := cmp.Diff(want, l); diff != "" {
		t.Errorf("line mismatch (-want +got):\n%s", diff)
	}
}

func TestDrawExpandingLineWithWidthPhase(t *testing.T) {
	s := imageState()
	s = s.With(func(c *appstate.State) { c.SelectedTool = appstate.ToolCreateExpandingLine })
	f := ForState(s, sequentialIDs())
	s = apply(f, s,
		appstate.MouseDown{X: 0.1, Y: 0.5},
		appstate.MouseMove{X: 0.3, Y: 0.5},
		appstate.MouseDown{X: 0.3, Y: 0.5},
		appstate.MouseDown{X: 0.3005, Y: 0.5},
	)
	if _, ok := s.Mode.(appstate.SetExpandingLineWidth); !ok {
		t.Fatalf("expected width phase, got %#v", s.Mode)
	}
	s = apply(f, s, appstate.MouseMove{X: 0.3, Y: 0.55}, appstate.MouseDown{X: 0.3, Y: 0.54})
	if s.Mode != nil {
		t.Fatalf("expected idle, got %#v", s.Mode)
	}
	got, _ := s.FindRegion("r1")
	l := got.(region.ExpandingLine)
	if len(l.Points) != 2 || l.Unfinished || l.CandidatePoint != nil {
		t.Errorf("line not finalised: %+v", l)
	}
	if math.Abs(l.ExpandingWidth-0.04) > 1e-9 {
		t.Errorf("width = %v, want 0.04", l.ExpandingWidth)
	}
}

func TestCloseExpandingLine(t *testing.T) {
	s := imageState()
	s = s.With(func(c *appstate.State) { c.SelectedTool = appstate.ToolCreateExpandingLine })
	f := ForState(s, sequentialIDs())
	s = apply(f, s,
		appstate.MouseDown{X: 0.1, Y: 0.5},
		appstate.MouseMove{X: 0.3, Y: 0.5},
		appstate.CloseExpandingLine{RegionID: "r1"},
	)
	got, _ := s.FindRegion("r1")
	if l := got.(region.ExpandingLine); s.Mode != nil || l.CandidatePoint != nil || l.Unfinished {
		t.Errorf("expanding line not finalised: mode %#v line %+v", s.Mode, l)
	}
}

func TestCreateOutsideAllowedArea(t *testing.T) {
	s := appstate.New(
		appstate.WithImages([]appstate.Image{{Src: "a.png"}}, 0),
		appstate.WithAllowedArea(region.Rect{X: 0, Y: 0, W: 0.5, H: 0.5}),
		appstate.WithSelectedTool(appstate.ToolCreatePoint),
	)
	f := ForState(s, sequentialIDs())
	if n := len(f(s, appstate.MouseDown{X: 0.8, Y: 0.8}).ActiveRegions()); n != 0 {
		t.Errorf("region created outside the allowed area")
	}
	if n := len(f(s, appstate.MouseDown{X: 0.2, Y: 0.2}).ActiveRegions()); n != 1 {
		t.Errorf("region not created inside the allowed area")
	}
}

func TestKeypointsCreateAndResize(t *testing.T) {
	defs := map[string]region.KeypointsDefinition{
		"human": {Landmarks: map[string]region.Landmark{
			"head": {DefaultPosition: vec.Vec2{X: 0.5, Y: 0}},
			"feet": {DefaultPosition: vec.Vec2{X: 0.5, Y: 1}},
		}},
	}
	s := appstate.New(
		appstate.WithImages([]appstate.Image{{Src: "a.png"}}, 0),
		appstate.WithKeypointDefinitions(defs),
		appstate.WithEnabledTools(appstate.ToolSelect, appstate.ToolCreateKeypoints),
		appstate.WithSelectedTool(appstate.ToolCreateKeypoints),
	)
	f := ForState(s, sequentialIDs())
	s = apply(f, s, appstate.MouseDown{X: 0.5, Y: 0.5}, appstate.MouseMove{X: 0.5, Y: 0.7}, appstate.MouseUp{X: 0.5, Y: 0.7})
	got, _ := s.FindRegion("r1")
	k := got.(region.Keypoints)
	want := map[string]vec.Vec2{"head": {X: 0.5, Y: 0.4}, "feet": {X: 0.5, Y: 0.6}}
	if diff := cmp.Diff(want, k.Points, approx); diff != "" {
		t.Fatalf("new keypoints mismatch (-want +got):\n%s", diff)
	}
	if k.DefinitionID != "human" || s.Mode != nil {
		t.Fatalf("definition %q mode %#v", k.DefinitionID, s.Mode)
	}

	// Dragging from twice the distance scales the skeleton by one half.
	s = apply(f, s,
		appstate.BeginResizeKeypoints{RegionID: "r1", X: 0.5, Y: 0.7},
		appstate.MouseMove{X: 0.5, Y: 0.6},
	)
	got, _ = s.FindRegion("r1")
	want = map[string]vec.Vec2{"head": {X: 0.5, Y: 0.45}, "feet": {X: 0.5, Y: 0.55}}
	if diff := cmp.Diff(want, got.(region.Keypoints).Points, approx); diff != "" {
		t.Errorf("resized keypoints mismatch (-want +got):\n%s", diff)
	}
}

func TestKeypointsPlacedByClickKeepShape(t *testing.T) {
	defs := map[string]region.KeypointsDefinition{
		"human": {Landmarks: map[string]region.Landmark{
			"head": {DefaultPosition: vec.Vec2{X: 0.5, Y: 0}},
			"foot": {DefaultPosition: vec.Vec2{X: 0.5, Y: 1}},
		}},
	}
	s := appstate.New(
		appstate.WithImages([]appstate.Image{{Src: "a.png"}}, 0),
		appstate.WithKeypointDefinitions(defs),
		appstate.WithEnabledTools(appstate.ToolSelect, appstate.ToolCreateKeypoints),
		appstate.WithSelectedTool(appstate.ToolCreateKeypoints),
	)
	f := ForState(s, sequentialIDs())
	s = apply(f, s, appstate.MouseDown{X: 0.5, Y: 0.5}, appstate.MouseUp{X: 0.5, Y: 0.5})
	got, ok := s.FindRegion("r1")
	if !ok || s.Mode != nil {
		t.Fatalf("region found %v, mode %#v", ok, s.Mode)
	}
	want := map[string]vec.Vec2{"head": {X: 0.5, Y: 0.4}, "foot": {X: 0.5, Y: 0.6}}
	if diff := cmp.Diff(want, got.(region.Keypoints).Points, approx); diff != "" {
		t.Fatalf("clicked keypoints mismatch (-want +got):\n%s", diff)
	}

	// The placed skeleton can be resized afterwards.
	s = apply(f, s,
		appstate.BeginResizeKeypoints{RegionID: "r1", X: 0.5, Y: 0.7},
		appstate.MouseMove{X: 0.5, Y: 0.9},
		appstate.MouseUp{X: 0.5, Y: 0.9},
	)
	got, _ = s.FindRegion("r1")
	want = map[string]vec.Vec2{"head": {X: 0.5, Y: 0.3}, "foot": {X: 0.5, Y: 0.7}}
	if diff := cmp.Diff(want, got.(region.Keypoints).Points, approx); diff != "" {
		t.Errorf("resized keypoints mismatch (-want +got):\n%s", diff)
	}
}

func TestMoveKeypoint(t *testing.T) {
	k := region.Keypoints{Base: region.Base{ID: "k"}, DefinitionID: "human", Points: map[string]vec.Vec2{"head": {X: 0.1, Y: 0.1}}}
	s := imageState(k)
	f := ForState(s)
	if f(s, appstate.BeginMoveKeypoint{RegionID: "k", KeypointID: "tail"}) != s {
		t.Errorf("unknown keypoint started a move")
	}
	s = apply(f, s, appstate.BeginMoveKeypoint{RegionID: "k", KeypointID: "head"}, appstate.MouseUp{X: 0.3, Y: 0.4})
	got, _ := s.FindRegion("k")
	if p := got.(region.Keypoints).Points["head"]; p != (vec.Vec2{X: 0.3, Y: 0.4}) {
		t.Errorf("head at %v", p)
	}
}

func TestAddPolygonPointStartsDrag(t *testing.T) {
	poly := region.Polygon{Base: region.Base{ID: "p"}, Points: []vec.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}}
	s := imageState(poly)
	f := ForState(s)
	s = apply(f, s,
		appstate.AddPolygonPoint{RegionID: "p", Point: vec.Vec2{X: 0.5, Y: 0}, PointIndex: 1},
		appstate.MouseMove{X: 0.5, Y: 0.2},
		appstate.MouseUp{X: 0.5, Y: 0.2},
	)
	got, _ := s.FindRegion("p")
	want := []vec.Vec2{{X: 0, Y: 0}, {X: 0.5, Y: 0.2}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	if diff := cmp.Diff(want, got.(region.Polygon).Points); diff != "" {
		t.Errorf("polygon mismatch (-want +got):\n%s", diff)
	}
}

func TestChangeRegionSingleTag(t *testing.T) {
	s := imageState(region.Point{Base: region.Base{ID: "p"}})
	s = s.With(func(c *appstate.State) { c.RegionTagSingleSelection = true })
	f := ForState(s)
	s = f(s, appstate.ChangeRegion{Region: region.Point{Base: region.Base{ID: "p", Cls: "person", Tags: []string{"a", "b"}}}})
	got, _ := s.FindRegion("p")
	if diff := cmp.Diff([]string{"b"}, got.Common().Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	if s.SelectedCls != "person" || got.Common().Color != region.ColorFor(1) {
		t.Errorf("selected cls %q colour %q", s.SelectedCls, got.Common().Color)
	}
}

func TestDeleteRespectsPermission(t *testing.T) {
	s := imageState(region.Point{Base: region.Base{ID: "p", Highlighted: true}})
	f := ForState(s)
	if n := len(f(s, appstate.DeleteSelectedRegion{}).ActiveRegions()); n != 0 {
		t.Errorf("selected region not deleted")
	}
	locked := s.With(func(c *appstate.State) { c.RegionAllowedActions.Remove = false })
	if f(locked, appstate.DeleteRegion{RegionID: "p"}) != locked {
		t.Errorf("delete ignored the remove permission")
	}
}

func TestSelectToolTogglesAndCancels(t *testing.T) {
	s := imageState()
	f := ForState(s)
	if got := f(s, appstate.SelectTool{Tool: appstate.ToolShowTags}); got.ShowTags == s.ShowTags || got.SelectedTool != s.SelectedTool {
		t.Errorf("show-tags should toggle without changing tool")
	}
	s = s.With(func(c *appstate.State) { c.SelectedTool = appstate.ToolCreatePolygon })
	f = ForState(s, sequentialIDs())
	s = apply(f, s, appstate.MouseDown{X: 0.1, Y: 0.1}, appstate.SelectTool{Tool: appstate.ToolCreateBox})
	if s.Mode != nil || len(s.ActiveRegions()) != 0 || s.SelectedTool != appstate.ToolCreateBox {
		t.Errorf("tool change did not cancel drawing: mode %#v tool %s", s.Mode, s.SelectedTool)
	}
	if got := f(s, appstate.SelectTool{Tool: appstate.ToolCreateKeypoints}); got != s {
		t.Errorf("disabled tool selected")
	}
}

func TestSelectAndCancelSelection(t *testing.T) {
	s := imageState(region.Point{Base: region.Base{ID: "a"}}, region.Point{Base: region.Base{ID: "b", Highlighted: true}})
	f := ForState(s)
	s = f(s, appstate.SelectRegion{RegionID: "a"})
	a, _ := s.FindRegion("a")
	b, _ := s.FindRegion("b")
	if !a.Common().Highlighted || !a.Common().EditingLabels || b.Common().Highlighted {
		t.Fatalf("selection not moved: a=%+v b=%+v", a.Common(), b.Common())
	}
	s = f(s, appstate.Cancel{})
	a, _ = s.FindRegion("a")
	if a.Common().EditingLabels || !a.Common().Highlighted {
		t.Fatalf("first cancel should only close the editor: %+v", a.Common())
	}
	s = f(s, appstate.Cancel{})
	a, _ = s.FindRegion("a")
	if a.Common().Highlighted {
		t.Errorf("second cancel should clear the selection")
	}
}

func TestImageDomain(t *testing.T) {
	s := imageState(region.Point{Base: region.Base{ID: "p"}})
	f := ForState(s)

	next := f(s, appstate.HeaderButtonClicked{ButtonName: "Next"})
	if next.Image.SelectedImage != 1 {
		t.Fatalf("next selected %d", next.Image.SelectedImage)
	}
	if f(next, appstate.HeaderButtonClicked{ButtonName: "Next"}) != next {
		t.Errorf("next past the end changed state")
	}
	if f(s, appstate.SelectImage{ImageIndex: 7}) != s {
		t.Errorf("out of range selection changed state")
	}

	cloned := f(s, appstate.HeaderButtonClicked{ButtonName: "Clone"})
	if cloned.Image.SelectedImage != 1 || len(cloned.ActiveRegions()) != 1 {
		t.Errorf("clone did not copy regions forward")
	}

	cls := "outdoor"
	labelled := f(s, appstate.ChangeImage{Cls: &cls, Tags: []string{"day"}})
	im, _ := labelled.Image.Selected()
	if im.Cls != "outdoor" || len(im.Tags) != 1 {
		t.Errorf("image labels not set: %+v", im)
	}

	loaded := f(s, appstate.ImageOrVideoLoaded{NaturalWidth: 640, NaturalHeight: 480})
	im, _ = loaded.Image.Selected()
	if im.PixelSize == nil || *im.PixelSize != (appstate.PixelSize{W: 640, H: 480}) {
		t.Errorf("pixel size not recorded: %+v", im.PixelSize)
	}

	one := 1
	seg := f(s, appstate.SegmentationResult{Scope: appstate.Scope{ImageIndex: &one}, Regions: []region.Region{region.Box{Base: region.Base{ID: "s"}}}})
	if seg.Image.SelectedImage != 0 || len(seg.Image.Images[1].Regions) != 1 {
		t.Errorf("segmentation result not delivered to image 1")
	}
}

func TestVideoDomain(t *testing.T) {
	s := appstate.New(appstate.WithVideo(appstate.VideoAnnotation{Keyframes: map[float64]appstate.Keyframe{
		0: {Regions: []region.Region{region.Point{Base: region.Base{ID: "p"}, X: 0.1, Y: 0.1}}},
		2: {Regions: []region.Region{region.Point{Base: region.Base{ID: "p"}, X: 0.3, Y: 0.1}}},
	}}))
	f := ForState(s)

	s = f(s, appstate.ChangeVideoTime{NewTime: 1})
	got, _ := s.FindRegion("p")
	if diff := cmp.Diff(region.Region(region.Point{Base: region.Base{ID: "p"}, X: 0.2, Y: 0.1}), got, approx); diff != "" {
		t.Errorf("interpolated point mismatch (-want +got):\n%s", diff)
	}
	s = apply(f, s, appstate.BeginMovePoint{RegionID: "p"}, appstate.MouseUp{X: 0.5, Y: 0.5})
	if diff := cmp.Diff([]float64{0, 1, 2}, s.Video.KeyframeTimes()); diff != "" {
		t.Errorf("editing between keyframes should add one (-want +got):\n%s", diff)
	}
	s = f(s, appstate.DeleteKeyframe{Time: 1})
	if diff := cmp.Diff([]float64{0, 2}, s.Video.KeyframeTimes()); diff != "" {
		t.Errorf("keyframe not deleted (-want +got):\n%s", diff)
	}
	s = f(s, appstate.HeaderButtonClicked{ButtonName: "Play"})
	if !s.Video.Playing {
		t.Errorf("play button ignored")
	}
}

func TestCompositionOrderVideoScopedDelete(t *testing.T) {
	s := appstate.New(appstate.WithVideo(appstate.VideoAnnotation{Keyframes: map[float64]appstate.Keyframe{
		0: {Regions: []region.Region{region.Point{Base: region.Base{ID: "p"}}}},
	}}))
	at := 3.0
	del := appstate.DeleteRegion{Scope: appstate.Scope{Time: &at}, RegionID: "p"}

	domainFirst := Combine(Video(), General())(s, del)
	generalFirst := Combine(General(), Video())(s, del)

	if domainFirst.Video.CurrentTime != 3 || generalFirst.Video.CurrentTime != 3 {
		t.Fatalf("both orders should seek to the scoped time")
	}
	if _, ok := domainFirst.FindRegion("p"); ok {
		t.Errorf("domain-first composition did not delete at the scoped time")
	}
	if _, ok := generalFirst.FindRegion("p"); !ok {
		t.Errorf("general-first composition should miss the frame")
	}
	if len(domainFirst.Video.Keyframes[0].Regions) != 1 {
		t.Errorf("delete leaked into the earlier keyframe")
	}
}

func TestCompositionOrderImageScopedDelete(t *testing.T) {
	s := appstate.New(appstate.WithImages([]appstate.Image{
		{Src: "a.png", Regions: []region.Region{region.Point{Base: region.Base{ID: "p"}}}},
		{Src: "b.png", Regions: []region.Region{region.Point{Base: region.Base{ID: "p"}}}},
	}, 0))
	one := 1
	del := appstate.DeleteRegion{Scope: appstate.Scope{ImageIndex: &one}, RegionID: "p"}

	got := ForState(s)(s, del)
	if got.Image.SelectedImage != 1 {
		t.Fatalf("scoped delete did not select image 1")
	}
	if len(got.Image.Images[1].Regions) != 0 || len(got.Image.Images[0].Regions) != 1 {
		t.Errorf("delete applied to the wrong image: %+v", got.Image.Images)
	}
}
