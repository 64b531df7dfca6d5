package main

import (
	"flag"
	"fmt"
	"image"
	"path/filepath"

	"github.com/example/annotator/internal/appstate"
	"github.com/example/annotator/internal/clipboard"
	"github.com/example/annotator/internal/imagefile"
	"github.com/example/annotator/internal/render"
)

type renderCmd struct {
	sessionPath string
	output      string
	toClipboard bool
	image       int
	dir         string
	*root
	fs *flag.FlagSet
}

func (c *renderCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func (c *renderCmd) Program() string {
	return c.root.subprogram("render")
}

func parseRenderCmd(args []string, r *root) (*renderCmd, error) {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	c := &renderCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.sessionPath, "session", "", "session document to render")
	fs.StringVar(&c.output, "output", "", "image file to write; the extension selects the format")
	fs.BoolVar(&c.toClipboard, "to-clipboard", false, "copy the rendered image to the clipboard")
	fs.IntVar(&c.image, "image", -1, "index of the image to render (default: the selected image)")
	fs.StringVar(&c.dir, "dir", "", "directory relative image paths resolve against (default: the session's directory)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.sessionPath == "" || fs.NArg() > 0 {
		return nil, &UsageError{of: c}
	}
	if c.output == "" && !c.toClipboard {
		return nil, fmt.Errorf("render needs -output or -to-clipboard")
	}
	if c.dir == "" {
		c.dir = filepath.Dir(c.sessionPath)
	}
	return c, nil
}

func (c *renderCmd) Run() error {
	s, err := c.root.loadSession(c.sessionPath)
	if err != nil {
		return err
	}
	if c.image >= 0 {
		if s.Image == nil || c.image >= len(s.Image.Images) {
			return fmt.Errorf("image %d out of range", c.image)
		}
		idx := c.image
		s = s.With(func(st *appstate.State) { st.Image.SelectedImage = idx })
	}

	bg := c.background(s)
	out, errs := render.Image(s, bg, render.Options{Theme: c.root.theme(), Logger: c.root.log()})
	for _, err := range errs {
		c.root.log().Printf("render: %v", err)
	}

	if c.output != "" {
		if err := imagefile.Save(c.output, out); err != nil {
			return err
		}
		c.root.notifyExport(c.output)
	}
	if c.toClipboard {
		if err := clipboard.WriteImage(out); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		c.root.notifyCopy("rendered frame")
	}
	return nil
}

// background loads the frame image. A missing image renders over a
// checkerboard instead of failing.
func (c *renderCmd) background(s *appstate.State) image.Image {
	var src string
	switch {
	case s.Video != nil:
		src = s.Video.Src
	case s.Image != nil:
		if im, ok := s.Image.Selected(); ok {
			src = im.Src
		}
	}
	if src == "" {
		return nil
	}
	img, err := imagefile.NewCache(c.dir).Get(src)
	if err != nil {
		c.root.log().Printf("render: %v", err)
		return nil
	}
	return img
}
