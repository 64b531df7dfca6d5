package clipboard

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"runtime"
	"testing"
)

type memory map[format][]byte

func (m memory) write(f format, data []byte) error {
	m[f] = append([]byte(nil), data...)
	return nil
}

func (m memory) read(f format) ([]byte, error) { return m[f], nil }

func useMemory(t *testing.T) memory {
	t.Helper()
	m := memory{}
	prev := current
	current = m
	t.Cleanup(func() { current = prev })
	return m
}

func TestWithoutDisplay(t *testing.T) {
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly":
	default:
		t.Skip("no X11/Wayland clipboard on " + runtime.GOOS)
	}
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	if err := WriteText("regions: []"); !errors.Is(err, errNoDisplay) {
		t.Fatalf("expected errNoDisplay, got %v", err)
	}
}

func TestWriteImage(t *testing.T) {
	m := useMemory(t)
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.RGBA{255, 0, 0, 255})
	if err := WriteImage(img); err != nil {
		t.Fatal(err)
	}
	back, err := png.Decode(bytes.NewReader(m[formatImage]))
	if err != nil {
		t.Fatal(err)
	}
	if r, _, _, _ := back.At(1, 1).RGBA(); r>>8 != 255 {
		t.Errorf("decoded pixel = %v", back.At(1, 1))
	}
}

func TestTextRoundTrip(t *testing.T) {
	useMemory(t)
	if _, err := ReadText(); err == nil {
		t.Error("expected error for empty clipboard")
	}
	if err := WriteText("- type: CANCEL\n"); err != nil {
		t.Fatal(err)
	}
	got, err := ReadText()
	if err != nil || got != "- type: CANCEL\n" {
		t.Errorf("ReadText = %q, %v", got, err)
	}
}
