// Package imagefile loads the images and video posters that sessions refer
// to and saves rendered frames.
package imagefile

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// Load decodes src, which is a file path or an http(s) URL. EXIF
// orientation is applied.
func Load(src string) (image.Image, error) {
	if isURL(src) {
		return fetch(src)
	}
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", src, err)
	}
	return img, nil
}

func isURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

func fetch(src string) (image.Image, error) {
	if _, err := url.Parse(src); err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	resp, err := httpClient.Get(src)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", src, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: HTTP %s", src, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", src, err)
	}
	return img, nil
}

// Save encodes img by the extension of path.
func Save(path string, img image.Image) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Fit scales img down so neither side exceeds maxDim. Smaller images are
// returned unchanged.
func Fit(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	if maxDim <= 0 || (b.Dx() <= maxDim && b.Dy() <= maxDim) {
		return img
	}
	return imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
}

// Cache loads each source once. Relative paths resolve against Dir.
type Cache struct {
	Dir string

	mu   sync.Mutex
	imgs map[string]image.Image
	errs map[string]error
}

// NewCache returns an empty cache rooted at dir.
func NewCache(dir string) *Cache {
	return &Cache{Dir: dir, imgs: map[string]image.Image{}, errs: map[string]error{}}
}

// Resolve returns the path or URL src refers to.
func (c *Cache) Resolve(src string) string {
	if isURL(src) || filepath.IsAbs(src) || c.Dir == "" {
		return src
	}
	return filepath.Join(c.Dir, src)
}

// Get returns the decoded image for src. A failed load is remembered and
// not retried.
func (c *Cache) Get(src string) (image.Image, error) {
	if src == "" {
		return nil, fmt.Errorf("no image source")
	}
	c.mu.Lock()
	if img, ok := c.imgs[src]; ok {
		c.mu.Unlock()
		return img, nil
	}
	if err, ok := c.errs[src]; ok {
		c.mu.Unlock()
		return nil, err
	}
	c.mu.Unlock()

	img, err := Load(c.Resolve(src))

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.errs[src] = err
		return nil, err
	}
	c.imgs[src] = img
	return img, nil
}
