package render

import (
	"image"
	"math"

	"seehuhn.de/go/geom/vec"
)

// Viewport places the normalized image square [0,1]x[0,1] on screen.
type Viewport struct {
	// Rect is where the whole image is drawn, in screen pixels.
	Rect image.Rectangle
}

// Fit returns the viewport that shows an imgW x imgH image inside area at
// the largest zoom that keeps it whole, multiplied by zoom and shifted by
// offset screen pixels. The image is anchored at the top-left of area so
// it stays put when the window grows.
func Fit(imgW, imgH int, area image.Rectangle, zoom float64, offset image.Point) Viewport {
	if imgW <= 0 || imgH <= 0 || area.Empty() {
		return Viewport{Rect: area}
	}
	fit := math.Min(float64(area.Dx())/float64(imgW), float64(area.Dy())/float64(imgH))
	if zoom <= 0 {
		zoom = 1
	}
	z := fit * zoom
	w := int(float64(imgW) * z)
	h := int(float64(imgH) * z)
	min := area.Min.Add(offset)
	return Viewport{Rect: image.Rect(min.X, min.Y, min.X+w, min.Y+h)}
}

// ToScreen maps a normalized point to a screen pixel.
func (v Viewport) ToScreen(p vec.Vec2) image.Point {
	return image.Pt(
		v.Rect.Min.X+int(math.Round(p.X*float64(v.Rect.Dx()))),
		v.Rect.Min.Y+int(math.Round(p.Y*float64(v.Rect.Dy()))),
	)
}

// ToImage maps a screen position to normalized image coordinates. The
// result is not clamped; positions outside the image map outside [0,1].
func (v Viewport) ToImage(x, y float64) vec.Vec2 {
	if v.Rect.Empty() {
		return vec.Vec2{}
	}
	return vec.Vec2{
		X: (x - float64(v.Rect.Min.X)) / float64(v.Rect.Dx()),
		Y: (y - float64(v.Rect.Min.Y)) / float64(v.Rect.Dy()),
	}
}

// Contains reports whether the screen position lies over the image.
func (v Viewport) Contains(x, y float64) bool {
	return image.Pt(int(x), int(y)).In(v.Rect)
}

// Scale returns a normalized length as screen pixels along the shorter
// image side.
func (v Viewport) Scale(d float64) float64 {
	return d * float64(min(v.Rect.Dx(), v.Rect.Dy()))
}
