// Package region defines the annotation shapes placed over an image and the
// pure geometry derived from them. All coordinates are fractions of the image
// width and height.
package region

import (
	"slices"

	"seehuhn.de/go/geom/vec"
)

// Kind discriminates the Region variants.
type Kind string

const (
	KindPoint         Kind = "point"
	KindBox           Kind = "box"
	KindPolygon       Kind = "polygon"
	KindLine          Kind = "line"
	KindExpandingLine Kind = "expanding-line"
	KindKeypoints     Kind = "keypoints"
	KindPixel         Kind = "pixel"
)

// Base holds the attributes every region carries.
type Base struct {
	ID            string   `yaml:"id"`
	Cls           string   `yaml:"cls,omitempty"`
	Color         string   `yaml:"color,omitempty"`
	Locked        bool     `yaml:"locked,omitempty"`
	Hidden        bool     `yaml:"hidden,omitempty"`
	Highlighted   bool     `yaml:"highlighted,omitempty"`
	EditingLabels bool     `yaml:"editingLabels,omitempty"`
	Tags          []string `yaml:"tags,omitempty"`
	Comment       string   `yaml:"comment,omitempty"`
}

// Common returns a copy of the shared attributes.
func (b Base) Common() Base {
	b.Tags = slices.Clone(b.Tags)
	return b
}

func (Base) isRegion() {}

// Region is one placed annotation. The set of implementations is closed;
// switches over Region should handle every variant declared in this file.
type Region interface {
	Kind() Kind
	Common() Base
	// WithCommon returns a copy of the region with its shared attributes
	// replaced.
	WithCommon(Base) Region
	// Clone returns a deep copy sharing no mutable memory with the receiver.
	Clone() Region
	isRegion()
}

// Point is a single landmark.
type Point struct {
	Base `yaml:",inline"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
}

func (Point) Kind() Kind                 { return KindPoint }
func (p Point) WithCommon(b Base) Region { p.Base = b.Common(); return p }
func (p Point) Clone() Region            { p.Base = p.Base.Common(); return p }

// Box is an axis-aligned rectangle, optionally rotated about its own
// centre by Rotation degrees.
type Box struct {
	Base     `yaml:",inline"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	W        float64 `yaml:"w"`
	H        float64 `yaml:"h"`
	Rotation float64 `yaml:"rotation,omitempty"`
}

func (Box) Kind() Kind                 { return KindBox }
func (b Box) WithCommon(c Base) Region { b.Base = c.Common(); return b }
func (b Box) Clone() Region            { b.Base = b.Base.Common(); return b }

// Rect returns the unrotated geometry of the box.
func (b Box) Rect() Rect { return Rect{X: b.X, Y: b.Y, W: b.W, H: b.H} }

// Polygon is an ordered vertex list. Open polygons are still being drawn or
// are intentionally rendered as polylines.
type Polygon struct {
	Base   `yaml:",inline"`
	Points []vec.Vec2 `yaml:"points"`
	Open   bool       `yaml:"open,omitempty"`
}

func (Polygon) Kind() Kind                 { return KindPolygon }
func (p Polygon) WithCommon(b Base) Region { p.Base = b.Common(); return p }

func (p Polygon) Clone() Region {
	p.Base = p.Base.Common()
	p.Points = slices.Clone(p.Points)
	return p
}

// Line is a segment between two points.
type Line struct {
	Base `yaml:",inline"`
	X1   float64 `yaml:"x1"`
	Y1   float64 `yaml:"y1"`
	X2   float64 `yaml:"x2"`
	Y2   float64 `yaml:"y2"`
}

func (Line) Kind() Kind                 { return KindLine }
func (l Line) WithCommon(b Base) Region { l.Base = b.Common(); return l }
func (l Line) Clone() Region            { l.Base = l.Base.Common(); return l }

// ExpandingPoint is one vertex of an ExpandingLine. Nil Angle and Width
// fall back to the local tangent and the line's ExpandingWidth.
type ExpandingPoint struct {
	X     float64  `yaml:"x"`
	Y     float64  `yaml:"y"`
	Angle *float64 `yaml:"angle,omitempty"`
	Width *float64 `yaml:"width,omitempty"`
}

// DefaultExpandingWidth is the stroke width used when neither a point nor
// the line specifies one.
const DefaultExpandingWidth = 0.005

// ExpandingLine is a polyline whose stroke width varies per vertex.
type ExpandingLine struct {
	Base           `yaml:",inline"`
	Points         []ExpandingPoint `yaml:"points"`
	ExpandingWidth float64          `yaml:"expandingWidth,omitempty"`
	CandidatePoint *vec.Vec2        `yaml:"candidatePoint,omitempty"`
	Unfinished     bool             `yaml:"unfinished,omitempty"`
}

func (ExpandingLine) Kind() Kind                 { return KindExpandingLine }
func (e ExpandingLine) WithCommon(b Base) Region { e.Base = b.Common(); return e }

func (e ExpandingLine) Clone() Region {
	e.Base = e.Base.Common()
	pts := make([]ExpandingPoint, len(e.Points))
	for i, p := range e.Points {
		if p.Angle != nil {
			a := *p.Angle
			p.Angle = &a
		}
		if p.Width != nil {
			w := *p.Width
			p.Width = &w
		}
		pts[i] = p
	}
	if e.Points == nil {
		pts = nil
	}
	e.Points = pts
	if e.CandidatePoint != nil {
		c := *e.CandidatePoint
		e.CandidatePoint = &c
	}
	return e
}

// Width returns the effective stroke width of the line.
func (e ExpandingLine) Width() float64 {
	if e.ExpandingWidth > 0 {
		return e.ExpandingWidth
	}
	return DefaultExpandingWidth
}

// Finished returns a copy with the transient drawing fields removed.
func (e ExpandingLine) Finished() ExpandingLine {
	e = e.Clone().(ExpandingLine)
	e.CandidatePoint = nil
	e.Unfinished = false
	return e
}

// Keypoints places the landmarks of a named template.
type Keypoints struct {
	Base         `yaml:",inline"`
	DefinitionID string              `yaml:"keypointsDefinitionId"`
	Points       map[string]vec.Vec2 `yaml:"points"`
	Open         bool                `yaml:"open,omitempty"`
}

func (Keypoints) Kind() Kind                 { return KindKeypoints }
func (k Keypoints) WithCommon(b Base) Region { k.Base = b.Common(); return k }

func (k Keypoints) Clone() Region {
	k.Base = k.Base.Common()
	if k.Points != nil {
		pts := make(map[string]vec.Vec2, len(k.Points))
		for id, p := range k.Points {
			pts[id] = p
		}
		k.Points = pts
	}
	return k
}

// Pixel is an opaque mask region, either a rectangular cutout of Src or a
// point list. It takes no part in the editing geometry.
type Pixel struct {
	Base   `yaml:",inline"`
	Src    string     `yaml:"src,omitempty"`
	SX     float64    `yaml:"sx,omitempty"`
	SY     float64    `yaml:"sy,omitempty"`
	W      float64    `yaml:"w,omitempty"`
	H      float64    `yaml:"h,omitempty"`
	Points []vec.Vec2 `yaml:"points,omitempty"`
}

func (Pixel) Kind() Kind                 { return KindPixel }
func (p Pixel) WithCommon(b Base) Region { p.Base = b.Common(); return p }

func (p Pixel) Clone() Region {
	p.Base = p.Base.Common()
	p.Points = slices.Clone(p.Points)
	return p
}

// CloneAll deep copies a region list.
func CloneAll(rs []Region) []Region {
	if rs == nil {
		return nil
	}
	out := make([]Region, len(rs))
	for i, r := range rs {
		out[i] = r.Clone()
	}
	return out
}

// Index returns the position of the region with the given id, or -1.
func Index(rs []Region, id string) int {
	return slices.IndexFunc(rs, func(r Region) bool { return r.Common().ID == id })
}

// Find returns the region with the given id.
func Find(rs []Region, id string) (Region, bool) {
	if i := Index(rs, id); i >= 0 {
		return rs[i], true
	}
	return nil, false
}
