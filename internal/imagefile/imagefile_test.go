package imagefile

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")
	if err := Save(path, solid(4, 3, color.NRGBA{R: 255, A: 255})); err != nil {
		t.Fatal(err)
	}
	img, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Fatalf("bounds = %v", b)
	}
	if r, _, _, _ := img.At(1, 1).RGBA(); r>>8 != 255 {
		t.Errorf("pixel red = %d", r>>8)
	}
}

func TestCache(t *testing.T) {
	dir := t.TempDir()
	if err := Save(filepath.Join(dir, "a.png"), solid(2, 2, color.White)); err != nil {
		t.Fatal(err)
	}
	c := NewCache(dir)
	first, err := c.Get("a.png")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(dir, "a.png")); err != nil {
		t.Fatal(err)
	}
	second, err := c.Get("a.png")
	if err != nil {
		t.Fatalf("cached image reloaded: %v", err)
	}
	if first != second {
		t.Error("cache returned a different image")
	}
	if _, err := c.Get("missing.png"); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := c.Get(""); err == nil {
		t.Error("expected error for empty source")
	}
	if got := c.Resolve("/abs/b.png"); got != "/abs/b.png" {
		t.Errorf("Resolve absolute = %q", got)
	}
	if got := c.Resolve("https://example.com/b.png"); got != "https://example.com/b.png" {
		t.Errorf("Resolve URL = %q", got)
	}
}

func TestLoadURL(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(5, 5, color.Black)); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/img.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	img, err := Load(srv.URL + "/img.png")
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 5 {
		t.Errorf("bounds = %v", img.Bounds())
	}
	if _, err := Load(srv.URL + "/nope.png"); err == nil {
		t.Error("expected error for 404")
	}
}

func TestFit(t *testing.T) {
	big := solid(400, 200, color.White)
	got := Fit(big, 100).Bounds()
	if got.Dx() != 100 || got.Dy() != 50 {
		t.Errorf("Fit bounds = %v", got)
	}
	small := solid(10, 10, color.White)
	if Fit(small, 100) != image.Image(small) {
		t.Error("small image should be returned as is")
	}
}
