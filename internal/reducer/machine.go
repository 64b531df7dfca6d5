package reducer

import (
	"slices"

	"seehuhn.de/go/geom/vec"

	"github.com/example/annotator/internal/appstate"
	"github.com/example/annotator/internal/region"
)

const (
	// closeDistance is how near the first vertex a click closes a polygon.
	closeDistance = 0.01
	// widthDistance is how near the last vertex a click ends the vertices
	// of an expanding line.
	widthDistance = 0.002
	// minBoxDrag is the smallest drag that keeps a newly drawn box.
	minBoxDrag = 0.002
	// minKeypointsRadius guards the scale reference of a keypoints resize.
	minKeypointsRadius = 1e-6
	// clickKeypointsSize is the template size used when a keypoints set is
	// placed with a click rather than dragged out.
	clickKeypointsSize = 0.2
)

// mouseMove advances the gesture in progress from the absolute pointer
// position, so dropped or repeated moves converge on the same geometry.
func (g *general) mouseMove(s *appstate.State, p vec.Vec2) *appstate.State {
	p = region.ClampPoint(p)
	if s.Mode == nil {
		return s
	}
	r, ok := s.FindRegion(s.Mode.Target())
	if !ok {
		return s
	}
	switch m := s.Mode.(type) {
	case appstate.MoveRegion:
		return s.UpdateRegion(region.Translate(r, p.X, p.Y))
	case appstate.MovePolygonPoint:
		poly, ok := r.(region.Polygon)
		if !ok || m.PointIndex >= len(poly.Points) {
			return s
		}
		poly = poly.Clone().(region.Polygon)
		poly.Points[m.PointIndex] = p
		return s.UpdateRegion(poly)
	case appstate.MoveKeypoint:
		k, ok := r.(region.Keypoints)
		if !ok {
			return s
		}
		k = k.Clone().(region.Keypoints)
		k.Points[m.KeypointID] = p
		return s.UpdateRegion(k)
	case appstate.ResizeBox:
		box, ok := r.(region.Box)
		if !ok {
			return s
		}
		rect := resize(m.Original, m.Freedom, p)
		box.X, box.Y, box.W, box.H = rect.X, rect.Y, rect.W, rect.H
		return s.UpdateRegion(box)
	case appstate.RotateBox:
		box, ok := r.(region.Box)
		if !ok {
			return s
		}
		box.Rotation = region.NormalizeDegrees(region.Angle(box.Rect().Center(), p) - m.StartAngle)
		return s.UpdateRegion(box)
	case appstate.ResizeKeypoints:
		k, ok := r.(region.Keypoints)
		if !ok {
			return s
		}
		return s.UpdateRegion(transformKeypoints(k, m, p))
	case appstate.DrawPolygon:
		return s
	case appstate.DrawLine:
		l, ok := r.(region.Line)
		if !ok {
			return s
		}
		l.X2, l.Y2 = p.X, p.Y
		return s.UpdateRegion(l)
	case appstate.DrawExpandingLine:
		l, ok := r.(region.ExpandingLine)
		if !ok {
			return s
		}
		l = l.Clone().(region.ExpandingLine)
		l.CandidatePoint = &p
		return s.UpdateRegion(l)
	case appstate.SetExpandingLineWidth:
		l, ok := r.(region.ExpandingLine)
		if !ok || len(l.Points) == 0 {
			return s
		}
		l = l.Clone().(region.ExpandingLine)
		l.ExpandingWidth = dist(p, lastVertex(l))
		return s.UpdateRegion(l)
	}
	return s
}

// resize moves the edges of o selected by freedom to p. An edge never
// crosses the opposite one.
func resize(o region.Rect, freedom [2]int, p vec.Vec2) region.Rect {
	x0, y0, x1, y1 := o.X, o.Y, o.X+o.W, o.Y+o.H
	switch freedom[0] {
	case -1:
		x0 = min(p.X, x1)
	case 1:
		x1 = max(p.X, x0)
	}
	switch freedom[1] {
	case -1:
		y0 = min(p.Y, y1)
	case 1:
		y1 = max(p.Y, y0)
	}
	return region.Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func transformKeypoints(k region.Keypoints, m appstate.ResizeKeypoints, p vec.Vec2) region.Keypoints {
	scale := dist(p, m.Center) / m.RefDistance
	var turn float64
	if m.RefAngle != nil {
		turn = region.Angle(m.Center, p) - *m.RefAngle
	}
	k = k.Clone().(region.Keypoints)
	for id, off := range m.Offsets {
		q := m.Center.Add(off.Mul(scale))
		if turn != 0 {
			q = region.RotateAbout(q, m.Center, turn)
		}
		k.Points[id] = region.ClampPoint(q)
	}
	return k
}

func lastVertex(l region.ExpandingLine) vec.Vec2 {
	last := l.Points[len(l.Points)-1]
	return vec.Vec2{X: last.X, Y: last.Y}
}

func (g *general) mouseDown(s *appstate.State, p vec.Vec2) *appstate.State {
	p = region.ClampPoint(p)
	s = s.With(func(c *appstate.State) { c.PointerDownAt = &p })
	if s.Mode != nil {
		if next, handled := g.drawClick(s, p); handled {
			return next
		}
		s = cancel(s)
		s = s.With(func(c *appstate.State) { c.PointerDownAt = &p })
	}
	return g.create(s, p)
}

// drawClick handles a click while a region is being drawn.
func (g *general) drawClick(s *appstate.State, p vec.Vec2) (*appstate.State, bool) {
	if !appstate.IsDrawing(s.Mode) {
		return s, false
	}
	id := s.Mode.Target()
	r, ok := s.FindRegion(id)
	if !ok {
		return setMode(s, nil), true
	}
	switch s.Mode.(type) {
	case appstate.DrawPolygon:
		poly, ok := r.(region.Polygon)
		if !ok {
			return setMode(s, nil), true
		}
		if len(poly.Points) >= 3 && dist(p, poly.Points[0]) < closeDistance {
			return closePolygon(s, id), true
		}
		poly = poly.Clone().(region.Polygon)
		poly.Points = append(poly.Points, p)
		return s.UpdateRegion(poly), true
	case appstate.DrawLine:
		l, ok := r.(region.Line)
		if !ok {
			return setMode(s, nil), true
		}
		l.X2, l.Y2 = p.X, p.Y
		return setMode(s.UpdateRegion(l), nil), true
	case appstate.DrawExpandingLine:
		l, ok := r.(region.ExpandingLine)
		if !ok {
			return setMode(s, nil), true
		}
		l = l.Clone().(region.ExpandingLine)
		l.CandidatePoint = nil
		if len(l.Points) > 0 && dist(p, lastVertex(l)) < widthDistance {
			return setMode(s.UpdateRegion(l), appstate.SetExpandingLineWidth{RegionID: id}), true
		}
		l.Points = append(l.Points, region.ExpandingPoint{X: p.X, Y: p.Y})
		return s.UpdateRegion(l), true
	case appstate.SetExpandingLineWidth:
		l, ok := r.(region.ExpandingLine)
		if !ok || len(l.Points) == 0 {
			return setMode(s, nil), true
		}
		l = l.Clone().(region.ExpandingLine)
		l.ExpandingWidth = dist(p, lastVertex(l))
		return finishExpandingLine(s.UpdateRegion(l), id), true
	}
	return s, false
}

// create starts a new region for the selected tool. Clicking with the
// select tool on empty canvas clears the selection.
func (g *general) create(s *appstate.State, p vec.Vec2) *appstate.State {
	if s.SelectedTool == appstate.ToolSelect {
		return deselectAll(s)
	}
	if s.AllowedArea != nil && !s.AllowedArea.Contains(p) {
		return s
	}
	base := region.Base{
		ID:          g.newID(),
		Cls:         s.SelectedCls,
		Color:       clsColor(s, s.SelectedCls),
		Highlighted: true,
	}
	var (
		r    region.Region
		mode appstate.Mode
	)
	switch s.SelectedTool {
	case appstate.ToolCreatePoint:
		base.EditingLabels = true
		r = region.Point{Base: base, X: p.X, Y: p.Y}
	case appstate.ToolCreateBox:
		r = region.Box{Base: base, X: p.X, Y: p.Y}
		mode = appstate.ResizeBox{
			RegionID:             base.ID,
			Freedom:              [2]int{1, 1},
			Original:             region.Rect{X: p.X, Y: p.Y},
			IsNew:                true,
			EditLabelEditorAfter: true,
		}
	case appstate.ToolCreatePolygon:
		r = region.Polygon{Base: base, Points: []vec.Vec2{p}, Open: true}
		mode = appstate.DrawPolygon{RegionID: base.ID}
	case appstate.ToolCreateLine:
		r = region.Line{Base: base, X1: p.X, Y1: p.Y, X2: p.X, Y2: p.Y}
		mode = appstate.DrawLine{RegionID: base.ID}
	case appstate.ToolCreateExpandingLine:
		r = region.ExpandingLine{
			Base:       base,
			Points:     []region.ExpandingPoint{{X: p.X, Y: p.Y}},
			Unfinished: true,
		}
		mode = appstate.DrawExpandingLine{RegionID: base.ID}
	case appstate.ToolCreateKeypoints:
		defID, def, ok := firstDefinition(s)
		if !ok {
			return s
		}
		offsets := make(map[string]vec.Vec2, len(def.Landmarks))
		points := make(map[string]vec.Vec2, len(def.Landmarks))
		for id, lm := range def.Landmarks {
			offsets[id] = lm.DefaultPosition.Sub(vec.Vec2{X: 0.5, Y: 0.5})
			points[id] = p
		}
		r = region.Keypoints{Base: base, DefinitionID: defID, Points: points}
		mode = appstate.ResizeKeypoints{
			RegionID:    base.ID,
			Offsets:     offsets,
			Center:      p,
			RefDistance: 1,
			IsNew:       true,
		}
	default:
		return s
	}
	rs := deselect(s.ActiveRegions())
	next := s.WithActiveRegions(append(rs, r))
	if next == s {
		return s
	}
	return setMode(next, mode)
}

func firstDefinition(s *appstate.State) (string, region.KeypointsDefinition, bool) {
	if len(s.KeypointDefinitions) == 0 {
		return "", region.KeypointsDefinition{}, false
	}
	ids := make([]string, 0, len(s.KeypointDefinitions))
	for id := range s.KeypointDefinitions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids[0], s.KeypointDefinitions[ids[0]], true
}

func deselect(rs []region.Region) []region.Region {
	out := make([]region.Region, len(rs))
	for i, r := range rs {
		if b := r.Common(); b.Highlighted || b.EditingLabels {
			r = withBase(r, func(b *region.Base) { b.Highlighted, b.EditingLabels = false, false })
		}
		out[i] = r
	}
	return out
}

func deselectAll(s *appstate.State) *appstate.State {
	if !slices.ContainsFunc(s.ActiveRegions(), func(r region.Region) bool {
		b := r.Common()
		return b.Highlighted || b.EditingLabels
	}) {
		return s
	}
	return s.WithActiveRegions(deselect(s.ActiveRegions()))
}

func (g *general) mouseUp(s *appstate.State, p vec.Vec2) *appstate.State {
	if s.PointerDownAt != nil {
		s = s.With(func(c *appstate.State) { c.PointerDownAt = nil })
	}
	switch m := s.Mode.(type) {
	case appstate.ResizeBox:
		s = g.mouseMove(s, p)
		r, ok := s.FindRegion(m.RegionID)
		box, isBox := r.(region.Box)
		if !ok || !isBox {
			return setMode(s, nil)
		}
		if m.IsNew && (box.W < minBoxDrag || box.H < minBoxDrag) {
			return setMode(s.RemoveRegion(m.RegionID), nil)
		}
		if m.EditLabelEditorAfter {
			s = s.UpdateRegion(withBase(box, func(b *region.Base) { b.EditingLabels = true }))
		}
		return setMode(s, nil)
	case appstate.ResizeKeypoints:
		if m.IsNew && dist(p, m.Center) < minBoxDrag {
			return setMode(placeKeypoints(s, m.RegionID, m.Center), nil)
		}
		return setMode(g.mouseMove(s, p), nil)
	case appstate.MoveRegion, appstate.MovePolygonPoint, appstate.MoveKeypoint,
		appstate.RotateBox:
		return setMode(g.mouseMove(s, p), nil)
	}
	return s
}

// placeKeypoints lays the region's template out around c at
// clickKeypointsSize.
func placeKeypoints(s *appstate.State, id string, c vec.Vec2) *appstate.State {
	r, ok := s.FindRegion(id)
	k, isKeypoints := r.(region.Keypoints)
	if !ok || !isKeypoints {
		return s
	}
	def, ok := s.KeypointDefinitions[k.DefinitionID]
	if !ok {
		return s
	}
	k = k.Clone().(region.Keypoints)
	k.Points = region.PlaceKeypoints(def, c, clickKeypointsSize)
	return s.UpdateRegion(k)
}

// cancel abandons the gesture in progress. Regions the gesture created are
// removed; edits to existing regions stay as last computed. When idle it
// closes open label editors, or failing that clears the selection.
func cancel(s *appstate.State) *appstate.State {
	if s.PointerDownAt != nil {
		s = s.With(func(c *appstate.State) { c.PointerDownAt = nil })
	}
	switch m := s.Mode.(type) {
	case nil:
		rs := s.ActiveRegions()
		if slices.ContainsFunc(rs, func(r region.Region) bool { return r.Common().EditingLabels }) {
			out := make([]region.Region, len(rs))
			for i, r := range rs {
				out[i] = withBase(r, func(b *region.Base) { b.EditingLabels = false })
			}
			return s.WithActiveRegions(out)
		}
		return deselectAll(s)
	case appstate.SetExpandingLineWidth:
		return finishExpandingLine(s, m.RegionID)
	default:
		if appstate.CreatedRegion(m) {
			return setMode(s.RemoveRegion(m.Target()), nil)
		}
		return setMode(s, nil)
	}
}
