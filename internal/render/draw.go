package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

func setThickPixel(img *image.RGBA, x, y, thick int, col color.Color) {
	r := thick / 2
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			px := x + dx
			py := y + dy
			if image.Pt(px, py).In(img.Bounds()) {
				img.Set(px, py, col)
			}
		}
	}
}

// drawLine is Bresenham with a square pen.
func drawLine(img *image.RGBA, p0, p1 image.Point, col color.Color, thick int) {
	x0, y0, x1, y1 := p0.X, p0.Y, p1.X, p1.Y
	dx := math.Abs(float64(x1 - x0))
	dy := math.Abs(float64(y1 - y0))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		setThickPixel(img, x0, y0, thick, col)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func drawPath(img *image.RGBA, pts []image.Point, closed bool, col color.Color, thick int) {
	for i := 1; i < len(pts); i++ {
		drawLine(img, pts[i-1], pts[i], col, thick)
	}
	if closed && len(pts) > 2 {
		drawLine(img, pts[len(pts)-1], pts[0], col, thick)
	}
}

func drawCircle(img *image.RGBA, c image.Point, r int, col color.Color) {
	x := r
	y := 0
	err := 1 - r
	for x >= y {
		pts := [][2]int{{x, y}, {y, x}, {-y, x}, {-x, y}, {-x, -y}, {-y, -x}, {y, -x}, {x, -y}}
		for _, p := range pts {
			px := c.X + p[0]
			py := c.Y + p[1]
			if image.Pt(px, py).In(img.Bounds()) {
				img.Set(px, py, col)
			}
		}
		y++
		if err < 0 {
			err += 2*y + 1
		} else {
			x--
			err += 2 * (y - x + 1)
		}
	}
}

func drawFilledCircle(img *image.RGBA, c image.Point, r int, col color.Color) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				p := image.Pt(c.X+dx, c.Y+dy)
				if p.In(img.Bounds()) {
					img.Set(p.X, p.Y, col)
				}
			}
		}
	}
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.Color, thick int) {
	drawPath(img, []image.Point{
		rect.Min,
		image.Pt(rect.Max.X-1, rect.Min.Y),
		image.Pt(rect.Max.X-1, rect.Max.Y-1),
		image.Pt(rect.Min.X, rect.Max.Y-1),
	}, true, col, thick)
}

// drawHandle draws a square drag handle centred on c.
func drawHandle(img *image.RGBA, c image.Point, size int, fill, border color.Color) {
	r := image.Rect(c.X-size/2, c.Y-size/2, c.X+size/2+1, c.Y+size/2+1)
	draw.Draw(img, r.Intersect(img.Bounds()), image.NewUniform(fill), image.Point{}, draw.Src)
	drawRect(img, r, border, 1)
}

// drawDashedLine alternates c1 and c2 every dash pixels along an
// axis-aligned segment.
func drawDashedLine(img *image.RGBA, p0, p1 image.Point, dash, thickness int, c1, c2 color.Color) {
	if dash <= 0 {
		dash = 1
	}
	horiz := p0.Y == p1.Y
	length := p1.X - p0.X
	if !horiz {
		length = p1.Y - p0.Y
	}
	step := 1
	if length < 0 {
		length, step = -length, -1
	}
	for i := 0; i <= length; i++ {
		col := c1
		if (i/dash)%2 == 1 {
			col = c2
		}
		for t := 0; t < thickness; t++ {
			if horiz {
				img.Set(p0.X+step*i, p0.Y+t, col)
			} else {
				img.Set(p0.X+t, p0.Y+step*i, col)
			}
		}
	}
}

func drawDashedRect(img *image.RGBA, rect image.Rectangle, dash, thickness int, c1, c2 color.Color) {
	tl, tr := rect.Min, image.Pt(rect.Max.X, rect.Min.Y)
	br, bl := rect.Max, image.Pt(rect.Min.X, rect.Max.Y)
	drawDashedLine(img, tl, tr, dash, thickness, c1, c2)
	drawDashedLine(img, tr, br, dash, thickness, c1, c2)
	drawDashedLine(img, br, bl, dash, thickness, c1, c2)
	drawDashedLine(img, bl, tl, dash, thickness, c1, c2)
}

// drawCheckerboard fills rect of dst with a checkerboard pattern of the given
// colors. size controls the checker square size.
func drawCheckerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.Color) {
	rect = rect.Intersect(dst.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if ((x/size)+(y/size))%2 == 0 {
				dst.Set(x, y, light)
			} else {
				dst.Set(x, y, dark)
			}
		}
	}
}

// fillPolygon composites col over the interior of pts using the nonzero
// winding rule.
func fillPolygon(dst *image.RGBA, pts []image.Point, col color.Color) {
	if len(pts) < 3 {
		return
	}
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	local := func(p image.Point) (float32, float32) {
		x := min(max(p.X-b.Min.X, 0), w)
		y := min(max(p.Y-b.Min.Y, 0), h)
		return float32(x), float32(y)
	}
	z := vector.NewRasterizer(w, h)
	z.DrawOp = draw.Over
	z.MoveTo(local(pts[0]))
	for _, p := range pts[1:] {
		z.LineTo(local(p))
	}
	z.ClosePath()
	z.Draw(dst, b, image.NewUniform(col), image.Point{})
}
