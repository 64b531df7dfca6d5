package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/annotator/internal/appstate"
	"github.com/example/annotator/internal/imagefile"
	"github.com/example/annotator/internal/input"
	"github.com/example/annotator/internal/segment"
	"github.com/example/annotator/internal/session"
	"github.com/example/annotator/internal/viewer"
)

// annotateCmd represents the annotate subcommand.
type annotateCmd struct {
	path    string
	output  string
	dir     string
	segment bool
	keys    bool
	out     io.Writer
	*root
	fs *flag.FlagSet
}

func (a *annotateCmd) FlagSet() *flag.FlagSet {
	return a.fs
}

func (a *annotateCmd) Program() string {
	return a.root.subprogram("annotate")
}

func parseAnnotateCmd(args []string, r *root) (*annotateCmd, error) {
	fs := flag.NewFlagSet("annotate", flag.ExitOnError)
	a := &annotateCmd{root: r, fs: fs, out: os.Stdout}
	fs.Usage = usageFunc(a)
	fs.StringVar(&a.output, "output", "", "where Save writes the session (default: the input file)")
	fs.StringVar(&a.dir, "dir", "", "directory relative image paths resolve against (default: the session's directory)")
	fs.BoolVar(&a.segment, "segment", false, "enable Ctrl+G segmentation with the configured vision model")
	fs.BoolVar(&a.keys, "keys", false, "list the editor's keyboard shortcuts and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if a.keys {
		return a, nil
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: a}
	}
	a.path = fs.Arg(0)
	if a.output == "" {
		a.output = a.path
	}
	if a.dir == "" {
		a.dir = filepath.Dir(a.path)
	}
	return a, nil
}

func (a *annotateCmd) Run() error {
	if a.keys {
		a.printKeys()
		return nil
	}
	initial, err := a.root.loadSession(a.path)
	if err != nil {
		return err
	}
	logger := a.root.log()

	var onExitErr error
	sess := session.New(initial, session.WithCallbacks(session.Callbacks{
		OnExit: func(s *appstate.State) {
			onExitErr = a.root.writeSession(a.output, s)
			if onExitErr != nil {
				logger.Printf("save: %v", onExitErr)
				return
			}
			logger.Printf("saved %s", a.output)
		},
		OnClassAdded: func(cls string) {
			logger.Printf("class added: %s", cls)
		},
	}))

	opts := []viewer.Option{
		viewer.WithTheme(a.root.theme()),
		viewer.WithImages(imagefile.NewCache(a.dir)),
		viewer.WithLogger(logger),
	}
	if a.root != nil {
		opts = append(opts, viewer.WithNotifier(a.root.notifier))
	}
	if a.segment {
		seg, err := a.segmenter()
		if err != nil {
			return err
		}
		opts = append(opts, viewer.WithSegmenter(seg))
	}
	viewer.New(sess, opts...).Run()
	return onExitErr
}

func (a *annotateCmd) segmenter() (segment.Segmenter, error) {
	if a.root == nil || a.root.config == nil {
		return nil, fmt.Errorf("segmentation needs a configuration")
	}
	c := a.root.config.Segment
	o, err := segment.NewOllama(c.URL, c.Model)
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	if c.Prompt != "" {
		o.Prompt = c.Prompt
	}
	return o, nil
}

func (a *annotateCmd) printKeys() {
	for _, b := range input.NewTranslator().Keymap.Bindings() {
		var keys []string
		for _, k := range b.Keys.KeyboardShortcuts() {
			keys = append(keys, k.String())
		}
		fmt.Fprintf(a.out, "  %-18s %-22s %s\n", b.Name, strings.Join(keys, ", "), b.Help)
	}
}
