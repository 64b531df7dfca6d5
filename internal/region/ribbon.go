package region

import (
	"math"

	"seehuhn.de/go/geom/vec"
)

// Ribbon returns the outline of an expanding line as a closed polygon: the
// left edge walked forwards, then the candidate point if any, then the
// right edge walked backwards. Each vertex is offset perpendicular to the
// direction between its neighbours by half its width.
func Ribbon(l ExpandingLine) []vec.Vec2 {
	n := len(l.Points)
	if n == 0 {
		if l.CandidatePoint != nil {
			return []vec.Vec2{*l.CandidatePoint}
		}
		return nil
	}
	left := make([]vec.Vec2, n)
	right := make([]vec.Vec2, n)
	for i, p := range l.Points {
		prev := l.Points[max(i-1, 0)]
		next := l.Points[min(i+1, n-1)]
		angle := math.Atan2(prev.X-next.X, prev.Y-next.Y) + math.Pi/2
		if p.Angle != nil {
			angle = *p.Angle
		}
		hw := l.Width() / 2
		if p.Width != nil {
			hw = *p.Width / 2
		}
		off := vec.Vec2{X: math.Sin(angle) * hw, Y: math.Cos(angle) * hw}
		at := vec.Vec2{X: p.X, Y: p.Y}
		left[i] = at.Add(off)
		right[i] = at.Sub(off)
	}
	out := make([]vec.Vec2, 0, 2*n+1)
	out = append(out, left...)
	if l.CandidatePoint != nil {
		out = append(out, *l.CandidatePoint)
	}
	for i := n - 1; i >= 0; i-- {
		out = append(out, right[i])
	}
	return out
}
