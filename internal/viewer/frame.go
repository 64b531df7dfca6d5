package viewer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"strings"
	"time"

	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/example/annotator/internal/appstate"
	"github.com/example/annotator/internal/render"
	"github.com/example/annotator/internal/theme"
)

const (
	headerHeight = 24
	statusHeight = 24
	buttonHeight = 24
)

var toolbarWidth = 48

// fitToolbar widens the toolbar so every tool label fits.
func fitToolbar(tools []appstate.Tool) {
	d := &font.Drawer{Face: basicfont.Face7x13}
	for _, t := range tools {
		if w := d.MeasureString(toolLabel(t)).Ceil() + 8; w > toolbarWidth {
			toolbarWidth = w
		}
	}
}

func toolLabel(t appstate.Tool) string {
	return strings.TrimPrefix(string(t), "create-")
}

// canvasRect is the window area left for the image.
func canvasRect(width, height int) image.Rectangle {
	return image.Rect(toolbarWidth, headerHeight, width, height-statusHeight)
}

// toolAt returns the enabled tool whose button contains p.
func toolAt(tools []appstate.Tool, p image.Point) (appstate.Tool, bool) {
	if p.X >= toolbarWidth || p.Y < headerHeight {
		return "", false
	}
	idx := (p.Y - headerHeight) / buttonHeight
	if idx < 0 || idx >= len(tools) {
		return "", false
	}
	return tools[idx], true
}

type paintState struct {
	width, height int
	state         *appstate.State
	bg            image.Image
	view          render.Viewport
	theme         *theme.Theme
	message       string
	messageUntil  time.Time
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState) {
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()
	dst := b.RGBA()

	draw.Draw(dst, dst.Bounds(), image.NewUniform(st.theme.Background), image.Point{}, draw.Src)
	if ctx.Err() != nil {
		return
	}

	canvas := canvasRect(st.width, st.height)
	sub := dst.SubImage(canvas).(*image.RGBA)
	render.Frame(sub, render.SceneOf(st.state), st.bg, st.view, render.Options{Theme: st.theme})
	if ctx.Err() != nil {
		return
	}

	drawHeader(dst, st)
	drawToolbar(dst, st.state, st.theme)
	drawStatus(dst, st)
	if ctx.Err() != nil {
		return
	}

	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}

func drawText(dst *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: basicfont.Face7x13, Dot: fixed.P(x, y)}
	d.DrawString(text)
}

func drawHeader(dst *image.RGBA, st paintState) {
	r := image.Rect(0, 0, st.width, headerHeight)
	draw.Draw(dst, r, image.NewUniform(st.theme.LabelBackground), image.Point{}, draw.Src)
	drawText(dst, 6, 16, headerText(st.state), st.theme.LabelText)
}

// headerText names the frame and the selected class.
func headerText(s *appstate.State) string {
	var parts []string
	switch {
	case s.Video != nil:
		parts = append(parts, fmt.Sprintf("%s @ %.2fs", s.Video.Name, s.Video.CurrentTime))
	case s.Image != nil:
		if im, ok := s.Image.Selected(); ok {
			name := im.Name
			if name == "" {
				name = im.Src
			}
			parts = append(parts, fmt.Sprintf("%s (%d/%d)", name, s.Image.SelectedImage+1, len(s.Image.Images)))
		}
	}
	if s.SelectedCls != "" {
		parts = append(parts, "class: "+s.SelectedCls)
	}
	if s.TaskDescription != "" {
		parts = append(parts, s.TaskDescription)
	}
	return strings.Join(parts, "  |  ")
}

func drawToolbar(dst *image.RGBA, s *appstate.State, th *theme.Theme) {
	for i, t := range s.EnabledTools {
		r := image.Rect(0, headerHeight+i*buttonHeight, toolbarWidth, headerHeight+(i+1)*buttonHeight)
		bg, fg := th.LabelBackground, th.LabelText
		if toolActive(s, t) {
			bg, fg = th.Highlight, th.Handle
		}
		draw.Draw(dst, r.Inset(1), image.NewUniform(bg), image.Point{}, draw.Src)
		drawText(dst, r.Min.X+4, r.Min.Y+16, toolLabel(t), fg)
	}
}

func toolActive(s *appstate.State, t appstate.Tool) bool {
	switch t {
	case appstate.ToolShowTags:
		return s.ShowTags
	case appstate.ToolShowMask:
		return s.ShowMask
	}
	return s.SelectedTool == t
}

func drawStatus(dst *image.RGBA, st paintState) {
	r := image.Rect(0, st.height-statusHeight, st.width, st.height)
	draw.Draw(dst, r, image.NewUniform(st.theme.LabelBackground), image.Point{}, draw.Src)
	text := statusText(st.state)
	if st.message != "" && time.Now().Before(st.messageUntil) {
		text = st.message
	}
	drawText(dst, 6, r.Min.Y+16, text, st.theme.LabelText)
}

func statusText(s *appstate.State) string {
	mode := "idle"
	if s.Mode != nil {
		mode = strings.ToLower(strings.ReplaceAll(s.Mode.Name(), "_", " "))
	}
	text := fmt.Sprintf("%s | %s | %d regions", s.SelectedTool, mode, len(s.ActiveRegions()))
	if n := len(s.History); n > 0 {
		text += fmt.Sprintf(" | undo: %s", s.History[0].Name)
	}
	return text
}
