package region

import (
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// Rect is an axis-aligned rectangle in normalized image coordinates.
type Rect struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() vec.Vec2 {
	return vec.Vec2{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p vec.Vec2) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// EnclosingBox returns the smallest axis-aligned rectangle containing the
// region. Lines and points yield a zero-size box at their start point and
// unsupported kinds yield the zero Rect.
func EnclosingBox(r Region) Rect {
	switch r := r.(type) {
	case Polygon:
		return bounds(r.Points)
	case ExpandingLine:
		pts := make([]vec.Vec2, len(r.Points))
		for i, p := range r.Points {
			pts[i] = vec.Vec2{X: p.X, Y: p.Y}
		}
		return bounds(pts)
	case Keypoints:
		pts := make([]vec.Vec2, 0, len(r.Points))
		for _, p := range r.Points {
			pts = append(pts, p)
		}
		return bounds(pts)
	case Line:
		return Rect{X: r.X1, Y: r.Y1}
	case Box:
		return r.Rect()
	case Point:
		return Rect{X: r.X, Y: r.Y}
	case Pixel:
		return Rect{}
	}
	return Rect{}
}

func bounds(pts []vec.Vec2) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	bb := rect.Rect{LLx: pts[0].X, LLy: pts[0].Y, URx: pts[0].X, URy: pts[0].Y}
	for _, p := range pts[1:] {
		bb.Add(p.X, p.Y)
	}
	return Rect{X: bb.LLx, Y: bb.LLy, W: bb.Dx(), H: bb.Dy()}
}

// Translate moves a point to (x, y) or re-centres a box on (x, y). Other
// kinds are returned unchanged; they are edited vertex by vertex.
func Translate(r Region, x, y float64) Region {
	switch r := r.(type) {
	case Point:
		r.X, r.Y = x, y
		return r
	case Box:
		r.X = x - r.W/2
		r.Y = y - r.H/2
		return r
	}
	return r
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// ClampPoint limits both coordinates of p to [0, 1].
func ClampPoint(p vec.Vec2) vec.Vec2 {
	return vec.Vec2{X: Clamp01(p.X), Y: Clamp01(p.Y)}
}

// NormalizeDegrees maps an angle onto [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg == 0 || deg >= 360 {
		return 0
	}
	return deg
}

// Angle returns the direction from c to p in degrees.
func Angle(c, p vec.Vec2) float64 {
	return math.Atan2(p.Y-c.Y, p.X-c.X) * 180 / math.Pi
}

// RotateAbout rotates p by deg degrees around c. With y pointing down a
// positive angle turns clockwise on screen.
func RotateAbout(p, c vec.Vec2, deg float64) vec.Vec2 {
	x, y := rotationAbout(c, deg).Apply(p.X, p.Y)
	return vec.Vec2{X: x, Y: y}
}

func rotationAbout(c vec.Vec2, deg float64) matrix.Matrix {
	return matrix.Translate(-c.X, -c.Y).RotateDeg(deg).Translate(c.X, c.Y)
}

// Corners returns the box corners clockwise from the top-left, rotated
// about the box centre.
func Corners(b Box) [4]vec.Vec2 {
	c := b.Rect().Center()
	corners := [4]vec.Vec2{
		{X: b.X, Y: b.Y},
		{X: b.X + b.W, Y: b.Y},
		{X: b.X + b.W, Y: b.Y + b.H},
		{X: b.X, Y: b.Y + b.H},
	}
	if b.Rotation == 0 {
		return corners
	}
	m := rotationAbout(c, b.Rotation)
	for i, p := range corners {
		x, y := m.Apply(p.X, p.Y)
		corners[i] = vec.Vec2{X: x, Y: y}
	}
	return corners
}
