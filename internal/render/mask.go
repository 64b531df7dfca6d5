package render

import (
	"image"
	"image/color"
	"image/draw"
)

// dimOutside darkens area except keep by compositing col through a mask.
// A positive feather softens the mask edge by that many pixels.
func dimOutside(dst *image.RGBA, area, keep image.Rectangle, col color.RGBA, feather int) {
	area = area.Intersect(dst.Bounds())
	if area.Empty() || col.A == 0 {
		return
	}
	mask := image.NewGray(area.Sub(area.Min))
	local := keep.Sub(area.Min)
	for y := 0; y < mask.Rect.Dy(); y++ {
		for x := 0; x < mask.Rect.Dx(); x++ {
			if !image.Pt(x, y).In(local) {
				mask.Pix[y*mask.Stride+x] = 255
			}
		}
	}
	if feather > 0 {
		mask = blurGray(mask, feather)
	}
	draw.DrawMask(dst, area, image.NewUniform(col), image.Point{}, mask, image.Point{}, draw.Over)
}

// blurGray is a separable box blur built on running sums.
func blurGray(src *image.Gray, radius int) *image.Gray {
	if radius <= 0 {
		out := image.NewGray(src.Bounds())
		copy(out.Pix, src.Pix)
		return out
	}
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	tmp := image.NewGray(bounds)
	dst := image.NewGray(bounds)

	box := func(get func(i int) uint8, set func(i int, v uint8), n int) {
		prefix := make([]int, n+1)
		for i := 0; i < n; i++ {
			prefix[i+1] = prefix[i] + int(get(i))
		}
		for i := 0; i < n; i++ {
			lo := max(i-radius, 0)
			hi := min(i+radius, n-1)
			set(i, uint8((prefix[hi+1]-prefix[lo])/(hi-lo+1)))
		}
	}

	for y := 0; y < h; y++ {
		row := y * src.Stride
		box(func(i int) uint8 { return src.Pix[row+i] },
			func(i int, v uint8) { tmp.Pix[y*tmp.Stride+i] = v }, w)
	}
	for x := 0; x < w; x++ {
		box(func(i int) uint8 { return tmp.Pix[i*tmp.Stride+x] },
			func(i int, v uint8) { dst.Pix[i*dst.Stride+x] = v }, h)
	}
	return dst
}
