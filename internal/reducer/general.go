package reducer

import (
	"slices"
	"strings"

	"seehuhn.de/go/geom/vec"

	"github.com/example/annotator/internal/appstate"
	"github.com/example/annotator/internal/region"
)

// General returns the stage handling actions common to image and video
// sessions: region editing, the interaction modes, tools and classes.
func General(opts ...Option) Func {
	g := &general{settings: newSettings(opts)}
	return g.reduce
}

type general struct {
	*settings
}

func (g *general) reduce(s *appstate.State, a appstate.Action) *appstate.State {
	if !inScope(s, a) {
		return s
	}
	switch a := a.(type) {
	case appstate.MouseMove:
		return g.mouseMove(s, vec.Vec2{X: a.X, Y: a.Y})
	case appstate.MouseDown:
		return g.mouseDown(s, vec.Vec2{X: a.X, Y: a.Y})
	case appstate.MouseUp:
		return g.mouseUp(s, vec.Vec2{X: a.X, Y: a.Y})
	case appstate.Cancel:
		return cancel(s)
	case appstate.ChangeRegion:
		return g.changeRegion(s, a.Region)
	case appstate.SelectRegion:
		return selectRegion(s, a.RegionID)
	case appstate.OpenRegionEditor:
		return selectRegion(s, a.RegionID)
	case appstate.CloseRegionEditor:
		r, ok := s.FindRegion(a.RegionID)
		if !ok {
			return s
		}
		return s.UpdateRegion(withBase(r, func(b *region.Base) { b.EditingLabels = false }))
	case appstate.BeginMovePoint:
		return beginMovePoint(s, a.RegionID)
	case appstate.BeginBoxTransform:
		return beginBoxTransform(s, a.RegionID, a.Directions)
	case appstate.BeginBoxRotation:
		return beginBoxRotation(s, a.RegionID, vec.Vec2{X: a.X, Y: a.Y})
	case appstate.BeginMovePolygonPoint:
		return beginMovePolygonPoint(s, a.RegionID, a.PointIndex)
	case appstate.AddPolygonPoint:
		return addPolygonPoint(s, a.RegionID, a.Point, a.PointIndex)
	case appstate.BeginMoveKeypoint:
		return beginMoveKeypoint(s, a.RegionID, a.KeypointID)
	case appstate.BeginResizeKeypoints:
		return beginResizeKeypoints(s, a.RegionID, vec.Vec2{X: a.X, Y: a.Y})
	case appstate.ClosePolygon:
		return closePolygon(s, a.RegionID)
	case appstate.CloseExpandingLine:
		if m, ok := s.Mode.(appstate.DrawExpandingLine); ok && m.RegionID == a.RegionID {
			return finishExpandingLine(s, a.RegionID)
		}
		if m, ok := s.Mode.(appstate.SetExpandingLineWidth); ok && m.RegionID == a.RegionID {
			return finishExpandingLine(s, a.RegionID)
		}
		return s
	case appstate.DeleteRegion:
		return deleteRegion(s, a.RegionID)
	case appstate.DeleteSelectedRegion:
		i := slices.IndexFunc(s.ActiveRegions(), func(r region.Region) bool { return r.Common().Highlighted })
		if i < 0 {
			return s
		}
		return deleteRegion(s, s.ActiveRegions()[i].Common().ID)
	case appstate.HeaderButtonClicked:
		switch strings.ToLower(a.ButtonName) {
		case "fullscreen":
			return s.With(func(c *appstate.State) { c.FullScreen = true })
		case "window":
			return s.With(func(c *appstate.State) { c.FullScreen = false })
		case "settings":
			return s.With(func(c *appstate.State) { c.SettingsOpen = !c.SettingsOpen })
		}
		return s
	case appstate.SelectTool:
		return selectTool(s, a.Tool)
	case appstate.SelectClassification:
		if a.Cls == s.SelectedCls {
			return s
		}
		return s.With(func(c *appstate.State) { c.SelectedCls = a.Cls })
	case appstate.ClsAdded:
		if a.Cls == "" || slices.Contains(s.RegionClsList, a.Cls) {
			return s
		}
		return s.With(func(c *appstate.State) {
			c.RegionClsList = append(slices.Clone(c.RegionClsList), a.Cls)
		})
	case appstate.SelectImage, appstate.ImageOrVideoLoaded, appstate.RestoreHistory,
		appstate.ChangeImage, appstate.ChangeVideoTime, appstate.ChangeVideoPlaying,
		appstate.DeleteKeyframe, appstate.SegmentationResult:
		return s
	}
	return s
}

// inScope reports whether a scoped action addresses the active frame.
func inScope(s *appstate.State, a appstate.Action) bool {
	sc, ok := a.(appstate.Scoped)
	if !ok {
		return true
	}
	f := sc.FrameScope()
	if f.ImageIndex != nil && (s.Image == nil || s.Image.SelectedImage != *f.ImageIndex) {
		return false
	}
	if f.Time != nil && (s.Video == nil || s.Video.CurrentTime != *f.Time) {
		return false
	}
	return true
}

func withBase(r region.Region, fn func(*region.Base)) region.Region {
	b := r.Common()
	fn(&b)
	return r.WithCommon(b)
}

// editable returns the region if it exists and is unlocked.
func editable(s *appstate.State, id string) (region.Region, bool) {
	r, ok := s.FindRegion(id)
	if !ok || r.Common().Locked {
		return nil, false
	}
	return r, true
}

// idle cancels the mode in progress, if any.
func idle(s *appstate.State) *appstate.State {
	if s.Mode == nil {
		return s
	}
	return cancel(s)
}

func setMode(s *appstate.State, m appstate.Mode) *appstate.State {
	return s.With(func(c *appstate.State) { c.Mode = m })
}

func clsColor(s *appstate.State, cls string) string {
	return region.ColorFor(slices.Index(s.RegionClsList, cls))
}

func (g *general) changeRegion(s *appstate.State, r region.Region) *appstate.State {
	if r == nil {
		return s
	}
	old, ok := s.FindRegion(r.Common().ID)
	if !ok {
		return s
	}
	b := r.Common()
	if s.RegionTagSingleSelection && len(b.Tags) > 1 {
		b.Tags = b.Tags[len(b.Tags)-1:]
	}
	clsChanged := b.Cls != "" && b.Cls != old.Common().Cls
	if clsChanged {
		b.Color = clsColor(s, b.Cls)
	}
	next := s.UpdateRegion(r.WithCommon(b))
	if clsChanged {
		next = next.With(func(c *appstate.State) { c.SelectedCls = b.Cls })
	}
	return next
}

// selectRegion highlights id and opens its label editor, clearing both
// flags on every other region.
func selectRegion(s *appstate.State, id string) *appstate.State {
	rs := s.ActiveRegions()
	if region.Index(rs, id) < 0 {
		return s
	}
	out := make([]region.Region, len(rs))
	for i, r := range rs {
		on := r.Common().ID == id
		out[i] = withBase(r, func(b *region.Base) {
			b.Highlighted = on
			b.EditingLabels = on
		})
	}
	return s.WithActiveRegions(out)
}

func deleteRegion(s *appstate.State, id string) *appstate.State {
	if !s.RegionAllowedActions.Remove {
		return s
	}
	if _, ok := s.FindRegion(id); !ok {
		return s
	}
	next := s.RemoveRegion(id)
	if s.Mode != nil && s.Mode.Target() == id {
		next = setMode(next, nil)
	}
	return next
}

func selectTool(s *appstate.State, t appstate.Tool) *appstate.State {
	switch t {
	case appstate.ToolShowTags:
		return s.With(func(c *appstate.State) { c.ShowTags = !c.ShowTags })
	case appstate.ToolShowMask:
		return s.With(func(c *appstate.State) { c.ShowMask = !c.ShowMask })
	}
	if !s.IsEnabled(t) {
		return s
	}
	s = idle(s)
	if s.SelectedTool == t {
		return s
	}
	return s.With(func(c *appstate.State) { c.SelectedTool = t })
}

func beginMovePoint(s *appstate.State, id string) *appstate.State {
	r, ok := editable(s, id)
	if _, isPoint := r.(region.Point); !ok || !isPoint {
		return s
	}
	s = idle(s)
	if _, ok := s.FindRegion(id); !ok {
		return s
	}
	return setMode(s, appstate.MoveRegion{RegionID: id})
}

func beginBoxTransform(s *appstate.State, id string, dirs [2]int) *appstate.State {
	r, ok := editable(s, id)
	box, isBox := r.(region.Box)
	if !ok || !isBox {
		return s
	}
	s = idle(s)
	if _, ok := s.FindRegion(id); !ok {
		return s
	}
	if dirs == [2]int{} {
		return setMode(s, appstate.MoveRegion{RegionID: id})
	}
	return setMode(s, appstate.ResizeBox{RegionID: id, Freedom: dirs, Original: box.Rect()})
}

func beginBoxRotation(s *appstate.State, id string, p vec.Vec2) *appstate.State {
	r, ok := editable(s, id)
	box, isBox := r.(region.Box)
	if !ok || !isBox {
		return s
	}
	s = idle(s)
	if _, ok := s.FindRegion(id); !ok {
		return s
	}
	start := region.Angle(box.Rect().Center(), p) - box.Rotation
	return setMode(s, appstate.RotateBox{RegionID: id, StartAngle: start})
}

func beginMovePolygonPoint(s *appstate.State, id string, idx int) *appstate.State {
	r, ok := editable(s, id)
	poly, isPoly := r.(region.Polygon)
	if !ok || !isPoly || idx < 0 || idx >= len(poly.Points) {
		return s
	}
	if m, drawing := s.Mode.(appstate.DrawPolygon); drawing && m.RegionID == id {
		if idx == 0 {
			return closePolygon(s, id)
		}
		return s
	}
	s = idle(s)
	if _, ok := s.FindRegion(id); !ok {
		return s
	}
	return setMode(s, appstate.MovePolygonPoint{RegionID: id, PointIndex: idx})
}

func addPolygonPoint(s *appstate.State, id string, p vec.Vec2, idx int) *appstate.State {
	r, ok := editable(s, id)
	poly, isPoly := r.(region.Polygon)
	if !ok || !isPoly {
		return s
	}
	s = idle(s)
	r, ok = s.FindRegion(id)
	if !ok {
		return s
	}
	poly = r.Clone().(region.Polygon)
	idx = max(0, min(idx, len(poly.Points)))
	poly.Points = slices.Insert(poly.Points, idx, region.ClampPoint(p))
	return setMode(s.UpdateRegion(poly), appstate.MovePolygonPoint{RegionID: id, PointIndex: idx})
}

func beginMoveKeypoint(s *appstate.State, id, kp string) *appstate.State {
	r, ok := editable(s, id)
	k, isKp := r.(region.Keypoints)
	if !ok || !isKp {
		return s
	}
	if _, ok := k.Points[kp]; !ok {
		return s
	}
	s = idle(s)
	if _, ok := s.FindRegion(id); !ok {
		return s
	}
	return setMode(s, appstate.MoveKeypoint{RegionID: id, KeypointID: kp})
}

func beginResizeKeypoints(s *appstate.State, id string, p vec.Vec2) *appstate.State {
	r, ok := editable(s, id)
	k, isKp := r.(region.Keypoints)
	if !ok || !isKp || len(k.Points) == 0 {
		return s
	}
	c := region.EnclosingBox(k).Center()
	d := p.Sub(c).Length()
	if d < minKeypointsRadius {
		return s
	}
	s = idle(s)
	if _, ok := s.FindRegion(id); !ok {
		return s
	}
	offsets := make(map[string]vec.Vec2, len(k.Points))
	for lm, q := range k.Points {
		offsets[lm] = q.Sub(c)
	}
	angle := region.Angle(c, p)
	return setMode(s, appstate.ResizeKeypoints{
		RegionID:    id,
		Offsets:     offsets,
		Center:      c,
		RefDistance: d,
		RefAngle:    &angle,
	})
}

func closePolygon(s *appstate.State, id string) *appstate.State {
	r, ok := s.FindRegion(id)
	poly, isPoly := r.(region.Polygon)
	if !ok || !isPoly {
		return s
	}
	m, drawing := s.Mode.(appstate.DrawPolygon)
	drawing = drawing && m.RegionID == id
	if !drawing && !poly.Open {
		return s
	}
	poly = poly.Clone().(region.Polygon)
	poly.Open = false
	next := s.UpdateRegion(poly)
	if drawing {
		next = setMode(next, nil)
	}
	return next
}

func finishExpandingLine(s *appstate.State, id string) *appstate.State {
	r, ok := s.FindRegion(id)
	l, isLine := r.(region.ExpandingLine)
	if !ok || !isLine {
		return setMode(s, nil)
	}
	return setMode(s.UpdateRegion(l.Finished()), nil)
}

func dist(a, b vec.Vec2) float64 {
	return a.Sub(b).Length()
}
