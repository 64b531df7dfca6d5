// Package render rasterises the regions of the active frame over its image.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"seehuhn.de/go/geom/vec"

	"github.com/example/annotator/internal/appstate"
	"github.com/example/annotator/internal/region"
	"github.com/example/annotator/internal/theme"
)

const pointRadius = 4

// Options controls how regions are drawn. Zero fields take defaults.
type Options struct {
	Theme      *theme.Theme
	Logger     *log.Logger
	Face       font.Face
	LineWidth  int
	HandleSize int
	// Feather softens the edge of the allowed-area dimming.
	Feather int
}

func (o Options) withDefaults() Options {
	if o.Theme == nil {
		o.Theme = theme.Default()
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.Face == nil {
		o.Face, _ = Face(0)
	}
	if o.LineWidth <= 0 {
		o.LineWidth = 2
	}
	if o.HandleSize <= 0 {
		o.HandleSize = 7
	}
	return o
}

// Scene is what gets drawn for one frame.
type Scene struct {
	Regions     []region.Region
	Definitions map[string]region.KeypointsDefinition
	AllowedArea *region.Rect
	ShowTags    bool
	ShowMask    bool
}

// SceneOf extracts the active frame of s.
func SceneOf(s *appstate.State) Scene {
	return Scene{
		Regions:     s.ActiveRegions(),
		Definitions: s.KeypointDefinitions,
		AllowedArea: s.AllowedArea,
		ShowTags:    s.ShowTags,
		ShowMask:    s.ShowMask,
	}
}

// Frame draws bg scaled into view followed by the scene. Keypoint regions
// that do not match their template are skipped, logged and returned.
func Frame(dst *image.RGBA, sc Scene, bg image.Image, view Viewport, opts Options) []error {
	opts = opts.withDefaults()
	th := opts.Theme
	if bg != nil {
		xdraw.ApproxBiLinear.Scale(dst, view.Rect, bg, bg.Bounds(), draw.Over, nil)
	} else {
		drawCheckerboard(dst, view.Rect, 8, th.CheckerLight, th.CheckerDark)
	}

	if a := sc.AllowedArea; a != nil {
		keep := image.Rectangle{
			Min: view.ToScreen(vec.Vec2{X: a.X, Y: a.Y}),
			Max: view.ToScreen(vec.Vec2{X: a.X + a.W, Y: a.Y + a.H}),
		}
		dimOutside(dst, view.Rect, keep, th.Dim, opts.Feather)
	}

	p := painter{dst: dst, view: view, opts: opts, scene: sc}
	var skipped []error
	for _, r := range sc.Regions {
		if r.Common().Hidden {
			continue
		}
		if err := p.region(r); err != nil {
			opts.Logger.Printf("render: skip region %s: %v", r.Common().ID, err)
			skipped = append(skipped, err)
		}
	}
	if sc.ShowTags {
		for _, r := range sc.Regions {
			p.label(r)
		}
	}
	return skipped
}

// Image renders the active frame of s at the natural size of bg. Without
// a background the recorded pixel size is used, or 640x480.
func Image(s *appstate.State, bg image.Image, opts Options) (*image.RGBA, []error) {
	w, h := 640, 480
	switch {
	case bg != nil:
		w, h = bg.Bounds().Dx(), bg.Bounds().Dy()
	case pixelSize(s) != nil:
		ps := pixelSize(s)
		w, h = ps.W, ps.H
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	errs := Frame(dst, SceneOf(s), bg, Viewport{Rect: dst.Bounds()}, opts)
	return dst, errs
}

func pixelSize(s *appstate.State) *appstate.PixelSize {
	if s.Video != nil {
		return s.Video.PixelSize
	}
	if im, ok := s.Image.Selected(); ok {
		return im.PixelSize
	}
	return nil
}

type painter struct {
	dst   *image.RGBA
	view  Viewport
	opts  Options
	scene Scene
}

func (p *painter) screen(pts []vec.Vec2) []image.Point {
	out := make([]image.Point, len(pts))
	for i, v := range pts {
		out[i] = p.view.ToScreen(v)
	}
	return out
}

// fill is col at the theme's fill opacity.
func (p *painter) fill(col color.RGBA) color.Color {
	return color.NRGBA{R: col.R, G: col.G, B: col.B, A: p.opts.Theme.RegionFill.A}
}

// regionColor parses the region's color, falling back to the first
// palette entry.
func regionColor(b region.Base) color.RGBA {
	if c, err := theme.ParseColor(b.Color); err == nil {
		return c
	}
	c, _ := theme.ParseColor(region.ColorFor(0))
	return c
}

func (p *painter) region(r region.Region) error {
	b := r.Common()
	col := regionColor(b)
	width := p.opts.LineWidth
	if b.Highlighted {
		width++
	}
	var handles []image.Point

	switch v := r.(type) {
	case region.Point:
		c := p.view.ToScreen(vec.Vec2{X: v.X, Y: v.Y})
		drawFilledCircle(p.dst, c, pointRadius, col)
		drawCircle(p.dst, c, pointRadius+1, p.opts.Theme.HandleBorder)
		if b.Highlighted {
			drawCircle(p.dst, c, pointRadius+3, p.opts.Theme.Highlight)
		}
	case region.Box:
		c := region.Corners(v)
		pts := p.screen(c[:])
		if p.scene.ShowMask {
			fillPolygon(p.dst, pts, p.fill(col))
		}
		drawPath(p.dst, pts, true, col, width)
		handles = pts
	case region.Polygon:
		pts := p.screen(v.Points)
		if !v.Open && p.scene.ShowMask {
			fillPolygon(p.dst, pts, p.fill(col))
		}
		drawPath(p.dst, pts, !v.Open, col, width)
		handles = pts
	case region.Line:
		pts := p.screen([]vec.Vec2{{X: v.X1, Y: v.Y1}, {X: v.X2, Y: v.Y2}})
		drawLine(p.dst, pts[0], pts[1], col, width)
		handles = pts
	case region.ExpandingLine:
		outline := p.screen(region.Ribbon(v))
		if p.scene.ShowMask {
			fillPolygon(p.dst, outline, p.fill(col))
		}
		drawPath(p.dst, outline, true, col, 1)
		centre := make([]vec.Vec2, 0, len(v.Points)+1)
		for _, pt := range v.Points {
			centre = append(centre, vec.Vec2{X: pt.X, Y: pt.Y})
		}
		if v.CandidatePoint != nil {
			centre = append(centre, *v.CandidatePoint)
		}
		drawPath(p.dst, p.screen(centre), false, col, width)
	case region.Keypoints:
		if err := region.ValidateKeypoints(v, p.scene.Definitions); err != nil {
			return err
		}
		p.keypoints(v, p.scene.Definitions[v.DefinitionID], width)
	case region.Pixel:
		e := region.EnclosingBox(v)
		rect := image.Rectangle{
			Min: p.view.ToScreen(vec.Vec2{X: e.X, Y: e.Y}),
			Max: p.view.ToScreen(vec.Vec2{X: e.X + e.W, Y: e.Y + e.H}),
		}
		drawDashedRect(p.dst, rect, 4, 1, col, p.opts.Theme.HandleBorder)
	default:
		return fmt.Errorf("unsupported region kind %s", r.Kind())
	}

	if b.Highlighted && !b.Locked {
		for _, h := range handles {
			drawHandle(p.dst, h, p.opts.HandleSize, p.opts.Theme.Handle, p.opts.Theme.HandleBorder)
		}
	}
	return nil
}

func (p *painter) keypoints(k region.Keypoints, def region.KeypointsDefinition, width int) {
	for _, e := range region.Edges(k, def) {
		col, err := theme.ParseColor(e.Color)
		if err != nil {
			col = p.opts.Theme.Skeleton
		}
		drawLine(p.dst, p.view.ToScreen(e.From), p.view.ToScreen(e.To), col, width)
	}
	for _, id := range def.LandmarkIDs() {
		pos, ok := k.Points[id]
		if !ok {
			continue
		}
		col, err := theme.ParseColor(def.Landmarks[id].Color)
		if err != nil {
			col = p.opts.Theme.Skeleton
		}
		c := p.view.ToScreen(pos)
		drawFilledCircle(p.dst, c, pointRadius-1, col)
		if k.Highlighted {
			drawCircle(p.dst, c, pointRadius+1, p.opts.Theme.Highlight)
		}
	}
}

func (p *painter) label(r region.Region) {
	b := r.Common()
	text := labelText(b)
	if b.Hidden || text == "" {
		return
	}
	e := region.EnclosingBox(r)
	at := p.view.ToScreen(vec.Vec2{X: e.X, Y: e.Y})
	drawLabel(p.dst, at, text, p.opts.Face, p.opts.Theme.LabelBackground, p.opts.Theme.LabelText)
}
