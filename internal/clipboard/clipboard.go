// Package clipboard publishes rendered annotations and YAML sessions to
// the desktop clipboard.
package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
)

var errNoDisplay = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")

type format int

const (
	formatText format = iota
	formatImage
)

// backend moves raw bytes in and out of one clipboard.
type backend interface {
	write(f format, data []byte) error
	read(f format) ([]byte, error)
}

// current is replaced in tests.
var current backend = system{}

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

// WriteImage publishes img as PNG.
func WriteImage(img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode clipboard image: %w", err)
	}
	return current.write(formatImage, buf.Bytes())
}

// WriteText publishes UTF-8 text, such as a session document.
func WriteText(text string) error {
	return current.write(formatText, []byte(text))
}

// ReadText returns the text on the clipboard. An empty clipboard is an
// error.
func ReadText() (string, error) {
	data, err := current.read(formatText)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("clipboard does not contain text data")
	}
	return string(data), nil
}
