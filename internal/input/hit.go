package input

import (
	"math"
	"sort"

	"seehuhn.de/go/geom/vec"

	"github.com/example/annotator/internal/appstate"
	"github.com/example/annotator/internal/region"
)

// boxDirections maps the Corners order to resize freedom.
var boxDirections = [4][2]int{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

// Hit returns the action a select-tool press at p starts, looking at
// regions from the top down. tol is the grab radius in normalized units.
// Alternate selects the secondary gesture: rotation for boxes, scaling for
// keypoints.
func Hit(s *appstate.State, p vec.Vec2, tol float64, alternate bool) (appstate.Action, bool) {
	rs := s.ActiveRegions()
	for i := len(rs) - 1; i >= 0; i-- {
		r := rs[i]
		b := r.Common()
		if b.Hidden {
			continue
		}
		if b.Highlighted && !b.Locked {
			if a, ok := grab(r, p, tol, alternate); ok {
				return a, true
			}
		}
		if covers(r, p, tol) {
			return appstate.SelectRegion{RegionID: b.ID}, true
		}
	}
	return nil, false
}

// grab finds a handle of an editable, highlighted region under p.
func grab(r region.Region, p vec.Vec2, tol float64, alternate bool) (appstate.Action, bool) {
	switch v := r.(type) {
	case region.Point:
		if near(p, vec.Vec2{X: v.X, Y: v.Y}, tol) {
			return appstate.BeginMovePoint{RegionID: v.ID}, true
		}
	case region.Box:
		for i, c := range region.Corners(v) {
			if near(p, c, tol) {
				return appstate.BeginBoxTransform{RegionID: v.ID, Directions: boxDirections[i]}, true
			}
		}
		if v.Rect().Contains(p) {
			if alternate {
				return appstate.BeginBoxRotation{RegionID: v.ID, X: p.X, Y: p.Y}, true
			}
			return appstate.BeginBoxTransform{RegionID: v.ID}, true
		}
	case region.Polygon:
		for i, c := range v.Points {
			if near(p, c, tol) {
				return appstate.BeginMovePolygonPoint{RegionID: v.ID, PointIndex: i}, true
			}
		}
		n := len(v.Points)
		edges := n
		if v.Open {
			edges = n - 1
		}
		for i := 0; i < edges; i++ {
			if segmentDistance(p, v.Points[i], v.Points[(i+1)%n]) <= tol {
				return appstate.AddPolygonPoint{RegionID: v.ID, Point: p, PointIndex: i + 1}, true
			}
		}
	case region.Keypoints:
		ids := make([]string, 0, len(v.Points))
		for id := range v.Points {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			if near(p, v.Points[id], tol) {
				return appstate.BeginMoveKeypoint{RegionID: v.ID, KeypointID: id}, true
			}
		}
		if alternate && region.EnclosingBox(v).Contains(p) {
			return appstate.BeginResizeKeypoints{RegionID: v.ID, X: p.X, Y: p.Y}, true
		}
	}
	return nil, false
}

// covers reports whether p lies on r closely enough to select it.
func covers(r region.Region, p vec.Vec2, tol float64) bool {
	switch v := r.(type) {
	case region.Point:
		return near(p, vec.Vec2{X: v.X, Y: v.Y}, tol)
	case region.Line:
		return segmentDistance(p, vec.Vec2{X: v.X1, Y: v.Y1}, vec.Vec2{X: v.X2, Y: v.Y2}) <= tol
	}
	e := region.EnclosingBox(r)
	e = region.Rect{X: e.X - tol, Y: e.Y - tol, W: e.W + 2*tol, H: e.H + 2*tol}
	return e.Contains(p)
}

func near(a, b vec.Vec2, tol float64) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) <= tol
}

// segmentDistance is the distance from p to the segment ab.
func segmentDistance(p, a, b vec.Vec2) float64 {
	d := b.Sub(a)
	l2 := d.X*d.X + d.Y*d.Y
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*d.X + (p.Y-a.Y)*d.Y) / l2
	t = max(0, min(1, t))
	q := a.Add(d.Mul(t))
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}
