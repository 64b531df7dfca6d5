// Package input turns window events into editor actions.
package input

import (
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/annotator/internal/appstate"
	"github.com/example/annotator/internal/render"
)

// grabPixels is the handle grab radius on screen.
const grabPixels = 6

// Translator maps pointer and key events to actions for the current state.
type Translator struct {
	Keymap *Keymap
}

// NewTranslator returns a translator using the default bindings.
func NewTranslator() *Translator {
	return &Translator{Keymap: NewKeymap(DefaultBindings())}
}

// Mouse converts a pointer event over view. Presses with the select tool
// start the gesture of the region under the pointer; anything else reaches
// the reducers as a raw pointer action in normalized image coordinates.
func (t *Translator) Mouse(e mouse.Event, view render.Viewport, s *appstate.State) []appstate.Action {
	p := view.ToImage(float64(e.X), float64(e.Y))
	switch e.Direction {
	case mouse.DirNone:
		return []appstate.Action{appstate.MouseMove{X: p.X, Y: p.Y}}
	case mouse.DirPress:
		switch e.Button {
		case mouse.ButtonLeft:
			if !view.Contains(float64(e.X), float64(e.Y)) && !appstate.IsDrawing(s.Mode) {
				return nil
			}
			if s.SelectedTool == appstate.ToolSelect && !appstate.IsDrawing(s.Mode) {
				tol := grabPixels / max(1, view.Scale(1))
				alt := e.Modifiers&(key.ModShift|key.ModAlt) != 0
				if a, ok := Hit(s, p, tol, alt); ok {
					return []appstate.Action{a}
				}
			}
			return []appstate.Action{appstate.MouseDown{X: p.X, Y: p.Y}}
		case mouse.ButtonRight:
			return []appstate.Action{appstate.Cancel{}}
		}
	case mouse.DirRelease:
		if e.Button == mouse.ButtonLeft {
			return []appstate.Action{appstate.MouseUp{X: p.X, Y: p.Y}}
		}
	}
	return nil
}

// Key converts a key press. Releases and unbound keys yield nothing.
func (t *Translator) Key(e key.Event, s *appstate.State) (appstate.Action, bool) {
	if e.Direction == key.DirRelease {
		return nil, false
	}
	b, ok := t.Keymap.Lookup(e)
	if !ok {
		return nil, false
	}
	return b.Action(s)
}
