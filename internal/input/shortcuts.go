package input

import (
	"strings"
	"unicode"

	"golang.org/x/mobile/event/key"

	"github.com/example/annotator/internal/appstate"
)

// KeyShortcut identifies a key press by rune, code and modifiers.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// String formats the shortcut as it is shown in help, such as "ctrl+z".
func (k KeyShortcut) String() string {
	var sb strings.Builder
	if k.Modifiers&key.ModControl != 0 {
		sb.WriteString("ctrl+")
	}
	if k.Modifiers&key.ModAlt != 0 {
		sb.WriteString("alt+")
	}
	if k.Modifiers&key.ModShift != 0 {
		sb.WriteString("shift+")
	}
	switch {
	case k.Rune > ' ' && unicode.IsPrint(k.Rune):
		sb.WriteRune(k.Rune)
	default:
		sb.WriteString(strings.ToLower(strings.TrimPrefix(k.Code.String(), "Code")))
	}
	return sb.String()
}

// KeyboardShortcuts returns the shortcuts associated with a command.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

// Binding is one keyboard command. Action builds the action for the
// current state and reports false when the command does not apply.
type Binding struct {
	Name   string
	Help   string
	Keys   KeyboardShortcuts
	Action func(s *appstate.State) (appstate.Action, bool)
}

func always(a appstate.Action) func(*appstate.State) (appstate.Action, bool) {
	return func(*appstate.State) (appstate.Action, bool) { return a, true }
}

func toolBinding(r rune, t appstate.Tool) Binding {
	return Binding{
		Name: string(t),
		Help: "select the " + string(t) + " tool",
		Keys: shortcutList{{Rune: r, Code: runeCode(r)}},
		Action: func(s *appstate.State) (appstate.Action, bool) {
			if !s.IsEnabled(t) {
				return nil, false
			}
			return appstate.SelectTool{Tool: t}, true
		},
	}
}

func runeCode(r rune) key.Code {
	if r >= 'a' && r <= 'z' {
		return key.CodeA + key.Code(r-'a')
	}
	return key.CodeUnknown
}

// DefaultBindings lists the editor's keyboard commands.
func DefaultBindings() []Binding {
	return []Binding{
		{Name: "cancel", Help: "cancel the current gesture", Keys: shortcutList{{Rune: -1, Code: key.CodeEscape}}, Action: always(appstate.Cancel{})},
		{Name: "undo", Help: "undo the last change", Keys: shortcutList{{Rune: 'z', Code: key.CodeZ, Modifiers: key.ModControl}}, Action: always(appstate.RestoreHistory{})},
		{Name: "delete", Help: "delete the selected region", Keys: shortcutList{
			{Rune: -1, Code: key.CodeDeleteForward},
			{Rune: -1, Code: key.CodeDeleteBackspace},
		}, Action: always(appstate.DeleteSelectedRegion{})},
		{Name: "finish", Help: "finish the polygon or line being drawn", Keys: shortcutList{{Rune: -1, Code: key.CodeReturnEnter}}, Action: finish},
		{Name: "next", Help: "next image", Keys: shortcutList{{Rune: -1, Code: key.CodeRightArrow}}, Action: always(appstate.HeaderButtonClicked{ButtonName: "next"})},
		{Name: "prev", Help: "previous image", Keys: shortcutList{{Rune: -1, Code: key.CodeLeftArrow}}, Action: always(appstate.HeaderButtonClicked{ButtonName: "prev"})},
		{Name: "save", Help: "save and exit", Keys: shortcutList{{Rune: 's', Code: key.CodeS, Modifiers: key.ModControl}}, Action: always(appstate.HeaderButtonClicked{ButtonName: "save"})},
		{Name: "play", Help: "play or pause the video", Keys: shortcutList{{Rune: ' ', Code: key.CodeSpacebar}}, Action: togglePlaying},
		toolBinding('s', appstate.ToolSelect),
		toolBinding('o', appstate.ToolCreatePoint),
		toolBinding('b', appstate.ToolCreateBox),
		toolBinding('p', appstate.ToolCreatePolygon),
		toolBinding('l', appstate.ToolCreateLine),
		toolBinding('e', appstate.ToolCreateExpandingLine),
		toolBinding('k', appstate.ToolCreateKeypoints),
		toolBinding('x', appstate.ToolCreatePixel),
		toolBinding('a', appstate.ToolModifyAllowedArea),
		toolBinding('t', appstate.ToolShowTags),
		toolBinding('m', appstate.ToolShowMask),
	}
}

func finish(s *appstate.State) (appstate.Action, bool) {
	switch m := s.Mode.(type) {
	case appstate.DrawPolygon:
		return appstate.ClosePolygon{RegionID: m.RegionID}, true
	case appstate.DrawExpandingLine:
		return appstate.CloseExpandingLine{RegionID: m.RegionID}, true
	case appstate.SetExpandingLineWidth:
		return appstate.CloseExpandingLine{RegionID: m.RegionID}, true
	}
	return nil, false
}

func togglePlaying(s *appstate.State) (appstate.Action, bool) {
	if s.Video == nil {
		return nil, false
	}
	return appstate.ChangeVideoPlaying{IsPlaying: !s.Video.Playing}, true
}

// Keymap resolves key presses to bindings.
type Keymap struct {
	bindings []Binding
	byKey    map[KeyShortcut]int
}

// NewKeymap indexes bindings by shortcut. Later bindings win on conflict.
func NewKeymap(bindings []Binding) *Keymap {
	km := &Keymap{bindings: bindings, byKey: map[KeyShortcut]int{}}
	for i, b := range bindings {
		if b.Keys == nil {
			continue
		}
		for _, sc := range b.Keys.KeyboardShortcuts() {
			for _, k := range forms(sc) {
				km.byKey[k] = i
			}
		}
	}
	return km
}

// Bindings returns the bindings in declaration order.
func (km *Keymap) Bindings() []Binding { return km.bindings }

// Lookup returns the binding for a key press, matching by key code first
// and by rune second.
func (km *Keymap) Lookup(e key.Event) (Binding, bool) {
	for _, k := range forms(KeyShortcut{Rune: e.Rune, Code: e.Code, Modifiers: e.Modifiers}) {
		if i, ok := km.byKey[k]; ok {
			return km.bindings[i], true
		}
	}
	return Binding{}, false
}

// forms returns the code and rune keys of sc. Shift is dropped so letters
// match in either case.
func forms(sc KeyShortcut) []KeyShortcut {
	mods := sc.Modifiers &^ key.ModShift
	var out []KeyShortcut
	if sc.Code != key.CodeUnknown {
		out = append(out, KeyShortcut{Rune: -1, Code: sc.Code, Modifiers: mods})
	}
	if sc.Rune > ' ' {
		out = append(out, KeyShortcut{Rune: unicode.ToLower(sc.Rune), Modifiers: mods})
	}
	return out
}
