package appstate

import (
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/example/annotator/internal/region"
)

func TestNewDefaults(t *testing.T) {
	st := New()
	if st.AnnotationType != AnnotationImage || st.Image == nil || st.Video != nil {
		t.Fatalf("expected empty image session, got %+v", st)
	}
	if st.Image.SelectedImage != -1 {
		t.Errorf("selected image = %d, want -1", st.Image.SelectedImage)
	}
	if st.IsEnabled(ToolCreateKeypoints) {
		t.Errorf("keypoint creation enabled by default")
	}
	for _, tool := range []Tool{ToolSelect, ToolCreateBox, ToolCreatePolygon, ToolCreateExpandingLine, ToolShowMask} {
		if !st.IsEnabled(tool) {
			t.Errorf("%s not enabled by default", tool)
		}
	}
	if st.RegionTagSingleSelection {
		t.Errorf("tag selection should default to multi-select")
	}
	if st.RegionAllowedActions != (RegionAllowedActions{Remove: true, Lock: true, Visibility: true}) {
		t.Errorf("allowed actions = %+v", st.RegionAllowedActions)
	}
	if st.SelectedTool != ToolSelect || !st.ShowTags {
		t.Errorf("unexpected tool %q or show tags %v", st.SelectedTool, st.ShowTags)
	}
}

func TestNewOptions(t *testing.T) {
	st := New(
		WithRegionClasses("cat", "dog"),
		WithVideo(VideoAnnotation{Src: "clip.mp4"}),
		WithShowTags(false),
	)
	if st.AnnotationType != AnnotationVideo || st.Image != nil || st.Video == nil {
		t.Fatalf("expected video session, got %+v", st)
	}
	if st.SelectedCls != "cat" {
		t.Errorf("selected cls = %q, want first class", st.SelectedCls)
	}
	if st.ShowTags {
		t.Errorf("ShowTags option ignored")
	}
	if st.Video.Keyframes == nil {
		t.Errorf("keyframes map not initialised")
	}
}

func TestWithActiveRegionsImage(t *testing.T) {
	st := New(WithImages([]Image{{Src: "a.png"}, {Src: "b.png"}}, 1))
	rs := []region.Region{region.Point{Base: region.Base{ID: "p"}, X: 0.5, Y: 0.5}}
	next := st.WithActiveRegions(rs)
	if next == st {
		t.Fatalf("expected new state")
	}
	if len(st.Image.Images[1].Regions) != 0 {
		t.Fatalf("original state mutated")
	}
	if diff := cmp.Diff(rs, next.ActiveRegions()); diff != "" {
		t.Errorf("active regions mismatch (-want +got):\n%s", diff)
	}
	if len(next.Image.Images[0].Regions) != 0 {
		t.Errorf("regions landed on the wrong image")
	}

	none := New(WithImages([]Image{{Src: "a.png"}}, -1))
	if none.WithActiveRegions(rs) != none {
		t.Errorf("expected no-op without a selected image")
	}
}

func TestImpliedRegionsInterpolates(t *testing.T) {
	kf := map[float64]Keyframe{
		0: {Regions: []region.Region{
			region.Box{Base: region.Base{ID: "b"}, X: 0, Y: 0, W: 0.2, H: 0.2},
			region.Point{Base: region.Base{ID: "held"}, X: 0.1, Y: 0.1},
		}},
		2: {Regions: []region.Region{
			region.Box{Base: region.Base{ID: "b"}, X: 0.4, Y: 0.4, W: 0.2, H: 0.2},
		}},
	}
	got := ImpliedRegions(kf, 1)
	want := []region.Region{
		region.Box{Base: region.Base{ID: "b"}, X: 0.2, Y: 0.2, W: 0.2, H: 0.2},
		region.Point{Base: region.Base{ID: "held"}, X: 0.1, Y: 0.1},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("implied regions mismatch (-want +got):\n%s", diff)
	}
	if len(ImpliedRegions(kf, -1)) != 0 {
		t.Errorf("expected no regions before the first keyframe")
	}
	if diff := cmp.Diff(kf[2].Regions, ImpliedRegions(kf, 5)); diff != "" {
		t.Errorf("regions after the last keyframe should hold (-want +got):\n%s", diff)
	}
}

func TestWithActiveRegionsVideoCreatesKeyframe(t *testing.T) {
	st := New(WithVideo(VideoAnnotation{CurrentTime: 1.5, Keyframes: map[float64]Keyframe{
		0: {Regions: []region.Region{region.Point{Base: region.Base{ID: "p"}}}, Cls: "walk"},
	}}))
	next := st.WithActiveRegions(nil)
	if got := next.Video.KeyframeTimes(); !slices.Equal(got, []float64{0, 1.5}) {
		t.Fatalf("keyframe times = %v", got)
	}
	if _, ok := st.Video.Keyframes[1.5]; ok {
		t.Errorf("original keyframes mutated")
	}
}

func TestWithoutHistoryIsDeep(t *testing.T) {
	st := New(WithImages([]Image{{Src: "a.png", Regions: []region.Region{
		region.Polygon{Base: region.Base{ID: "p", Tags: []string{"x"}}},
	}}}, 0))
	st.History = []HistoryEntry{{Time: time.Unix(0, 0), State: New(), Name: "Delete Region"}}

	snap := st.WithoutHistory()
	if snap.History != nil {
		t.Fatalf("history kept in snapshot")
	}
	snap.Image.Images[0].Src = "changed.png"
	snap.Image.Images[0].Regions[0] = region.Point{}
	if st.Image.Images[0].Src != "a.png" {
		t.Errorf("snapshot shares images with the live state")
	}
	if _, ok := st.Image.Images[0].Regions[0].(region.Polygon); !ok {
		t.Errorf("snapshot shares regions with the live state")
	}

	c := st.Clone()
	if len(c.History) != 1 || c.History[0].State == st.History[0].State {
		t.Errorf("Clone should deep copy history entries")
	}
}
