package history

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/example/annotator/internal/appstate"
	"github.com/example/annotator/internal/reducer"
	"github.com/example/annotator/internal/region"
)

var epoch = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func fixedClock() time.Time { return epoch }

func session(rs ...region.Region) *appstate.State {
	return appstate.New(appstate.WithImages([]appstate.Image{{Src: "a.png", Regions: rs}}, 0))
}

func engineFor(s *appstate.State, opts ...Option) *Engine {
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	return New(reducer.ForState(s), opts...)
}

func TestSignificantActionRecordsPriorState(t *testing.T) {
	s := session(
		region.Box{Base: region.Base{ID: "b"}, X: 0.1, Y: 0.1, W: 0.2, H: 0.2},
		region.Point{Base: region.Base{ID: "p"}, X: 0.5, Y: 0.5},
	)
	tests := []struct {
		action appstate.Action
		name   string
	}{
		{appstate.BeginBoxTransform{RegionID: "b", Directions: [2]int{1, 0}}, "Transform/Move Box"},
		{appstate.BeginBoxRotation{RegionID: "b", X: 0.9, Y: 0.2}, "Rotate Box"},
		{appstate.BeginMovePoint{RegionID: "p"}, "Move Point"},
		{appstate.DeleteRegion{RegionID: "p"}, "Delete Region"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := engineFor(s)
			next := e.Reduce(s, tt.action)
			if len(next.History) != 1 {
				t.Fatalf("got %d history entries, want 1", len(next.History))
			}
			h := next.History[0]
			if h.Name != tt.name || !h.Time.Equal(epoch) {
				t.Errorf("entry = %q at %v", h.Name, h.Time)
			}
			if h.State.History != nil {
				t.Errorf("snapshot carries its own history")
			}
			if diff := cmp.Diff(s.WithoutHistory(), h.State); diff != "" {
				t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnchangedOrUnlistedActionsSkipHistory(t *testing.T) {
	s := session(region.Point{Base: region.Base{ID: "p", Locked: true}})
	e := engineFor(s)
	if got := e.Reduce(s, appstate.BeginMovePoint{RegionID: "p"}); len(got.History) != 0 {
		t.Errorf("no-op recorded in history")
	}
	if got := e.Reduce(s, appstate.SelectRegion{RegionID: "p"}); len(got.History) != 0 {
		t.Errorf("unlisted action recorded in history")
	}
}

func TestRestoreIsPop(t *testing.T) {
	s := session(
		region.Point{Base: region.Base{ID: "a"}},
		region.Point{Base: region.Base{ID: "b"}},
	)
	e := engineFor(s)
	one := e.Reduce(s, appstate.DeleteRegion{RegionID: "a"})
	two := e.Reduce(one, appstate.DeleteRegion{RegionID: "b"})
	if len(two.History) != 2 {
		t.Fatalf("history length = %d", len(two.History))
	}

	back := e.Reduce(two, appstate.RestoreHistory{})
	if diff := cmp.Diff(one.ActiveRegions(), back.ActiveRegions()); diff != "" {
		t.Errorf("first undo mismatch (-want +got):\n%s", diff)
	}
	if len(back.History) != 1 {
		t.Errorf("history after undo = %d entries, want 1", len(back.History))
	}
	start := e.Reduce(back, appstate.RestoreHistory{})
	if diff := cmp.Diff(s.WithoutHistory(), start.WithoutHistory()); diff != "" {
		t.Errorf("second undo mismatch (-want +got):\n%s", diff)
	}
	if got := e.Reduce(start, appstate.RestoreHistory{}); got != start {
		t.Errorf("undo with empty history changed state")
	}
}

func TestMalformedEntryIsLogged(t *testing.T) {
	var buf bytes.Buffer
	s := session(region.Point{Base: region.Base{ID: "p"}})
	s.History = []appstate.HistoryEntry{{Time: epoch, Name: "Move Point"}}
	e := engineFor(s, WithLogger(log.New(&buf, "", 0)))

	got := e.Reduce(s, appstate.RestoreHistory{})
	if got != s {
		t.Errorf("malformed restore should return the reducer result")
	}
	if !strings.Contains(buf.String(), "restore failed") {
		t.Errorf("expected a warning, got %q", buf.String())
	}

	buf.Reset()
	s.History[0].State = &appstate.State{AnnotationType: appstate.AnnotationImage}
	if got := e.Reduce(s, appstate.RestoreHistory{}); got != s {
		t.Errorf("snapshot without payload should not be restored")
	}
	if buf.Len() == 0 {
		t.Errorf("expected a warning for a snapshot without payload")
	}
}

func TestSnapshotIndependentOfLiveState(t *testing.T) {
	s := session(region.Polygon{Base: region.Base{ID: "p"}})
	e := engineFor(s)
	next := e.Reduce(s, appstate.DeleteRegion{RegionID: "p"})
	snap := next.History[0].State

	s.Image.Images[0].Regions[0] = region.Point{Base: region.Base{ID: "other"}}
	s.Image.Images[0].Src = "mutated.png"
	if _, ok := snap.Image.Images[0].Regions[0].(region.Polygon); !ok || snap.Image.Images[0].Src != "a.png" {
		t.Errorf("snapshot changed with the live state: %+v", snap.Image.Images[0])
	}
}

func boxSession() *appstate.State {
	s := session(
		region.Box{Base: region.Base{ID: "b"}, X: 0.2, Y: 0.2, W: 0.2, H: 0.2},
		region.Point{Base: region.Base{ID: "p"}, X: 0.5, Y: 0.5},
	)
	return s.With(func(c *appstate.State) { c.SelectedTool = appstate.ToolCreateBox })
}

func script(codes []int) []appstate.Action {
	out := make([]appstate.Action, len(codes))
	for i, c := range codes {
		x := float64(i%10) / 10
		switch c {
		case 0:
			out[i] = appstate.BeginBoxTransform{RegionID: "b", Directions: [2]int{1, 1}}
		case 1:
			out[i] = appstate.MouseMove{X: x, Y: 1 - x}
		case 2:
			out[i] = appstate.MouseUp{X: x, Y: x}
		case 3:
			out[i] = appstate.BeginBoxRotation{RegionID: "b", X: x, Y: 0.9}
		case 4:
			out[i] = appstate.BeginMovePoint{RegionID: "p"}
		case 5:
			out[i] = appstate.MouseDown{X: x, Y: 0.1}
		case 6:
			out[i] = appstate.RestoreHistory{}
		default:
			out[i] = appstate.Cancel{}
		}
	}
	return out
}

func TestHistoryProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("history never exceeds the cap", prop.ForAll(
		func(codes []int) bool {
			s := boxSession()
			e := engineFor(s)
			for _, a := range script(codes) {
				s = e.Reduce(s, a)
				if len(s.History) > MaxEntries {
					return false
				}
				for _, h := range s.History {
					if h.State == nil || h.State.History != nil {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 7)),
	))

	properties.Property("undo reverts a box transform", prop.ForAll(
		func(x, y, w, h float64) bool {
			s := session(region.Box{Base: region.Base{ID: "b"}, X: x, Y: y, W: w, H: h})
			e := engineFor(s)
			moved := e.Reduce(s, appstate.BeginBoxTransform{RegionID: "b", Directions: [2]int{-1, 1}})
			back := e.Reduce(moved, appstate.RestoreHistory{})
			return cmp.Diff(s.WithoutHistory(), back.WithoutHistory()) == ""
		},
		gen.Float64Range(0, 0.5),
		gen.Float64Range(0, 0.5),
		gen.Float64Range(0, 0.5),
		gen.Float64Range(0, 0.5),
	))

	properties.Property("undo reverts a delete", prop.ForAll(
		func(n int) bool {
			rs := make([]region.Region, n)
			for i := range rs {
				rs[i] = region.Point{Base: region.Base{ID: string(rune('a' + i))}, X: float64(i) / 10}
			}
			s := session(rs...)
			e := engineFor(s)
			deleted := e.Reduce(s, appstate.DeleteRegion{RegionID: "a"})
			back := e.Reduce(deleted, appstate.RestoreHistory{})
			return len(deleted.ActiveRegions()) == n-1 &&
				cmp.Diff(s.WithoutHistory(), back.WithoutHistory()) == ""
		},
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}

func TestCapDropsOldest(t *testing.T) {
	s := session(region.Box{Base: region.Base{ID: "b"}, W: 0.1, H: 0.1})
	e := engineFor(s)
	for i := 0; i < MaxEntries+3; i++ {
		s = e.Reduce(s, appstate.BeginBoxTransform{RegionID: "b", Directions: [2]int{1, 0}})
		s = e.Reduce(s, appstate.MouseUp{X: 0.2 + float64(i)/100, Y: 0})
	}
	if len(s.History) != MaxEntries {
		t.Fatalf("history length = %d, want %d", len(s.History), MaxEntries)
	}
	b, _ := region.Find(s.History[0].State.ActiveRegions(), "b")
	if got := b.(region.Box).W; got < 0.2+float64(MaxEntries+1)/100-1e-9 {
		t.Errorf("newest entry should hold the latest geometry, got width %v", got)
	}
}
