package render

import (
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/example/annotator/internal/region"
)

var (
	regularOnce sync.Once
	regular     *opentype.Font
	regularErr  error
)

// Face returns a Go Regular face of size points, or the 7x13 bitmap face
// when size is zero.
func Face(size float64) (font.Face, error) {
	if size <= 0 {
		return basicfont.Face7x13, nil
	}
	regularOnce.Do(func() { regular, regularErr = opentype.Parse(goregular.TTF) })
	if regularErr != nil {
		return nil, regularErr
	}
	return opentype.NewFace(regular, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
}

// labelText is the class followed by the tags.
func labelText(b region.Base) string {
	parts := make([]string, 0, 1+len(b.Tags))
	if b.Cls != "" {
		parts = append(parts, b.Cls)
	}
	parts = append(parts, b.Tags...)
	return strings.Join(parts, " · ")
}

// drawLabel draws text on a filled plate whose bottom-left corner is at.
// The plate is moved inside dst when it would leave it.
func drawLabel(dst *image.RGBA, at image.Point, text string, face font.Face, bg, fg color.Color) image.Rectangle {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(fg), Face: face}
	w := d.MeasureString(text).Ceil()
	m := face.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()
	plate := image.Rect(at.X, at.Y-ascent-descent-4, at.X+w+6, at.Y)

	b := dst.Bounds()
	if plate.Min.Y < b.Min.Y {
		plate = plate.Add(image.Pt(0, b.Min.Y-plate.Min.Y))
	}
	if plate.Max.X > b.Max.X {
		plate = plate.Add(image.Pt(b.Max.X-plate.Max.X, 0))
	}
	draw.Draw(dst, plate, image.NewUniform(bg), image.Point{}, draw.Over)
	d.Dot = fixed.P(plate.Min.X+3, plate.Min.Y+2+ascent)
	d.DrawString(text)
	return plate
}
