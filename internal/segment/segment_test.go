package segment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/vec"

	"github.com/example/annotator/internal/appstate"
	"github.com/example/annotator/internal/region"
)

func fakeOllama(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Images []string `json:"images"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(req.Messages) != 1 || len(req.Messages[0].Images) != 1 {
			http.Error(w, "expected one image", http.StatusBadRequest)
			return
		}
		resp := map[string]any{
			"model":   req.Model,
			"message": map[string]string{"role": "assistant", "content": reply},
			"done":    true,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func counter() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("r%d", n)
	}
}

func TestOllamaSegment(t *testing.T) {
	reply := "```json\n" + `{"objects":[
		{"label":"Car","confidence":0.9,"box":{"x":0.1,"y":0.2,"w":0.3,"h":0.4}},
		{"label":"tree","confidence":0.8,"box":{"x":0.5,"y":0.5,"w":0.1,"h":0.1}},
		{"label":"person","confidence":0.2,"box":{"x":0.6,"y":0.6,"w":0.1,"h":0.1}},
	]}` + "\n```"
	srv := fakeOllama(t, reply)
	o, err := NewOllama(srv.URL+"/api/chat", "llava")
	if err != nil {
		t.Fatal(err)
	}
	o.newID = counter()
	o.MinConfidence = 0.5

	got, err := o.Segment(context.Background(), Request{
		Image:   image.NewRGBA(image.Rect(0, 0, 8, 8)),
		Classes: []string{"person", "car"},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []region.Region{
		region.Box{Base: region.Base{ID: "r1", Cls: "car", Color: region.ColorFor(1)}, X: 0.1, Y: 0.2, W: 0.3, H: 0.4},
	}
	if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b float64) bool { return a-b < 1e-9 && b-a < 1e-9 })); diff != "" {
		t.Errorf("regions (-want +got):\n%s", diff)
	}
}

func TestOllamaKeypoints(t *testing.T) {
	srv := fakeOllama(t, `{"objects":[{"label":"person","confidence":1,"box":{"x":40,"y":40,"w":20,"h":20}}]}`)
	o, err := NewOllama(srv.URL, "llava")
	if err != nil {
		t.Fatal(err)
	}
	o.newID = counter()
	def := region.KeypointsDefinition{Landmarks: map[string]region.Landmark{
		"head": {DefaultPosition: vec.Vec2{X: 0.5, Y: 0}},
		"feet": {DefaultPosition: vec.Vec2{X: 0.5, Y: 1}},
	}}
	got, err := o.Segment(context.Background(), Request{
		Image:      image.NewRGBA(image.Rect(0, 0, 100, 100)),
		Keypoints:  "human",
		Definition: def,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d regions", len(got))
	}
	k, ok := got[0].(region.Keypoints)
	if !ok || k.DefinitionID != "human" {
		t.Fatalf("unexpected region %#v", got[0])
	}
	head, feet := k.Points["head"], k.Points["feet"]
	if d := feet.Y - head.Y; d < 0.199 || d > 0.201 {
		t.Errorf("keypoints span %v, want the box height 0.2", d)
	}
}

func TestOllamaBadReply(t *testing.T) {
	srv := fakeOllama(t, "I could not find anything")
	o, err := NewOllama(srv.URL, "llava")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := o.Segment(context.Background(), Request{Image: image.NewRGBA(image.Rect(0, 0, 2, 2))}); err == nil {
		t.Fatal("expected error for prose reply")
	}
	if _, err := o.Segment(context.Background(), Request{}); err == nil {
		t.Fatal("expected error without image")
	}
}

func TestNewOllamaRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"localhost", "://x", ""} {
		if _, err := NewOllama(raw, "m"); err == nil {
			t.Errorf("NewOllama(%q) succeeded", raw)
		}
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct{ in, want string }{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"Sure! {\"a\":[1,2,],} done", `{"a":[1,2]}`},
		{"{\n// note\n\"a\":1 /* x */}", "{\n\n\"a\":1 }"},
	}
	for _, tt := range tests {
		if got := sanitize(tt.in); got != tt.want {
			t.Errorf("sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDispatcher(t *testing.T) {
	idx := 2
	seg := Func(func(ctx context.Context, req Request) ([]region.Region, error) {
		if req.Image == nil {
			return nil, errors.New("no image")
		}
		return []region.Region{region.Point{Base: region.Base{ID: "p"}, X: 0.5, Y: 0.5}}, nil
	})
	d := NewDispatcher(seg, 2, log.New(io.Discard, "", 0))
	ctx := context.Background()
	if !d.Submit(ctx, Request{Scope: appstate.Scope{ImageIndex: &idx}, Image: image.NewRGBA(image.Rect(0, 0, 1, 1))}) {
		t.Fatal("submit refused")
	}
	d.Submit(ctx, Request{})

	done := make(chan []appstate.Action)
	go func() {
		var got []appstate.Action
		for a := range d.Actions() {
			got = append(got, a)
		}
		done <- got
	}()
	d.Close()
	if d.Submit(ctx, Request{}) {
		t.Error("submit accepted after close")
	}

	select {
	case got := <-done:
		if len(got) != 1 {
			t.Fatalf("got %d actions, want 1", len(got))
		}
		res, ok := got[0].(appstate.SegmentationResult)
		if !ok || res.ImageIndex == nil || *res.ImageIndex != 2 || len(res.Regions) != 1 {
			t.Fatalf("unexpected action %#v", got[0])
		}
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not close")
	}
}

func TestDispatcherCancelled(t *testing.T) {
	block := make(chan struct{})
	seg := Func(func(ctx context.Context, req Request) ([]region.Region, error) {
		<-block
		return []region.Region{region.Point{}}, nil
	})
	d := NewDispatcher(seg, 1, log.New(io.Discard, "", 0))
	ctx, cancel := context.WithCancel(context.Background())
	d.Submit(ctx, Request{})
	d.Submit(ctx, Request{})
	cancel()
	close(block)
	d.Close()
	for a := range d.Actions() {
		_ = a
	}
}
