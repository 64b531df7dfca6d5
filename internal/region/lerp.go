package region

import "seehuhn.de/go/geom/vec"

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func lerpVec(a, b vec.Vec2, t float64) vec.Vec2 {
	return a.Add(b.Sub(a).Mul(t))
}

// Lerp interpolates the geometry of a towards b at t in [0, 1]. The result
// keeps a's attributes. Regions of different kinds, polygons of different
// lengths, keypoints with different landmark sets and kinds without a
// continuous geometry hold a.
func Lerp(a, b Region, t float64) Region {
	switch a := a.(type) {
	case Point:
		b, ok := b.(Point)
		if !ok {
			break
		}
		a.Base = a.Base.Common()
		a.X, a.Y = lerp(a.X, b.X, t), lerp(a.Y, b.Y, t)
		return a
	case Box:
		b, ok := b.(Box)
		if !ok {
			break
		}
		a.Base = a.Base.Common()
		a.X, a.Y = lerp(a.X, b.X, t), lerp(a.Y, b.Y, t)
		a.W, a.H = lerp(a.W, b.W, t), lerp(a.H, b.H, t)
		a.Rotation = lerp(a.Rotation, b.Rotation, t)
		return a
	case Line:
		b, ok := b.(Line)
		if !ok {
			break
		}
		a.Base = a.Base.Common()
		a.X1, a.Y1 = lerp(a.X1, b.X1, t), lerp(a.Y1, b.Y1, t)
		a.X2, a.Y2 = lerp(a.X2, b.X2, t), lerp(a.Y2, b.Y2, t)
		return a
	case Polygon:
		b, ok := b.(Polygon)
		if !ok || len(a.Points) != len(b.Points) {
			break
		}
		out := a.Clone().(Polygon)
		for i := range out.Points {
			out.Points[i] = lerpVec(a.Points[i], b.Points[i], t)
		}
		return out
	case Keypoints:
		b, ok := b.(Keypoints)
		if !ok || len(a.Points) != len(b.Points) {
			break
		}
		out := a.Clone().(Keypoints)
		for id, p := range a.Points {
			q, ok := b.Points[id]
			if !ok {
				return a.Clone()
			}
			out.Points[id] = lerpVec(p, q, t)
		}
		return out
	}
	return a.Clone()
}
