package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/example/annotator/internal/appstate"
	"github.com/example/annotator/internal/region"
)

type validateCmd struct {
	paths []string
	out   io.Writer
	*root
	fs *flag.FlagSet
}

func (c *validateCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func (c *validateCmd) Program() string {
	return c.root.subprogram("validate")
}

func parseValidateCmd(args []string, r *root) (*validateCmd, error) {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	c := &validateCmd{root: r, fs: fs, out: os.Stdout}
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() == 0 {
		return nil, &UsageError{of: c}
	}
	c.paths = fs.Args()
	return c, nil
}

func (c *validateCmd) Run() error {
	var bad int
	for _, path := range c.paths {
		s, err := c.root.loadSession(path)
		if err != nil {
			return err
		}
		for _, p := range problems(s) {
			fmt.Fprintf(c.out, "%s: %s\n", path, p)
			bad++
		}
	}
	if bad > 0 {
		return fmt.Errorf("%d invalid region(s)", bad)
	}
	return nil
}

// problems lists keypoint configuration errors for every image or
// keyframe of s.
func problems(s *appstate.State) []string {
	var out []string
	report := func(where string, rs []region.Region) {
		for _, err := range region.Validate(rs, s.KeypointDefinitions) {
			out = append(out, fmt.Sprintf("%s: %v", where, err))
		}
	}
	switch {
	case s.Image != nil:
		for i, im := range s.Image.Images {
			report(fmt.Sprintf("image %d", i), im.Regions)
		}
	case s.Video != nil:
		times := make([]float64, 0, len(s.Video.Keyframes))
		for t := range s.Video.Keyframes {
			times = append(times, t)
		}
		sort.Float64s(times)
		for _, t := range times {
			report(fmt.Sprintf("keyframe %g", t), s.Video.Keyframes[t].Regions)
		}
	}
	return out
}
