package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/annotator/internal/appstate"
	"github.com/example/annotator/internal/clipboard"
	"github.com/example/annotator/internal/history"
	"github.com/example/annotator/internal/session"
)

// replayCmd applies a scripted list of actions to a session without a
// window. Host buttons in the script are logged and otherwise ignored.
type replayCmd struct {
	sessionPath string
	scriptPath  string
	output      string
	toClipboard bool
	*root
	fs *flag.FlagSet
}

func (c *replayCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func (c *replayCmd) Program() string {
	return c.root.subprogram("replay")
}

func parseReplayCmd(args []string, r *root) (*replayCmd, error) {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	c := &replayCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.sessionPath, "session", "", "session document to start from")
	fs.StringVar(&c.scriptPath, "script", "", "YAML list of actions to dispatch, or \"clipboard\" to read it from the clipboard")
	fs.StringVar(&c.output, "output", "-", "where to write the resulting session")
	fs.BoolVar(&c.toClipboard, "to-clipboard", false, "also copy the resulting session to the clipboard")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.sessionPath == "" || c.scriptPath == "" || fs.NArg() > 0 {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *replayCmd) Run() error {
	initial, err := c.root.loadSession(c.sessionPath)
	if err != nil {
		return err
	}
	actions, err := c.readScript()
	if err != nil {
		return err
	}

	logger := c.root.log()
	sess := session.New(initial,
		session.WithCallbacks(session.Callbacks{
			OnExit: func(*appstate.State) { logger.Print("replay: exit button ignored") },
		}),
		session.WithHistoryOptions(history.WithLogger(logger)),
	)
	for _, a := range actions {
		sess.Dispatch(a)
	}
	snap := sess.Snapshot()
	if c.toClipboard {
		var buf bytes.Buffer
		if err := session.Export(snap).Write(&buf); err != nil {
			return err
		}
		if err := clipboard.WriteText(buf.String()); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		c.root.notifyCopy("session")
	}
	return c.root.writeSession(c.output, snap)
}

func (c *replayCmd) readScript() ([]appstate.Action, error) {
	var r io.Reader
	if c.scriptPath == "clipboard" {
		text, err := clipboard.ReadText()
		if err != nil {
			return nil, fmt.Errorf("read clipboard: %w", err)
		}
		r = strings.NewReader(text)
	} else {
		f, err := os.Open(c.scriptPath)
		if err != nil {
			return nil, fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		r = f
	}
	actions, err := session.ReadScript(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.scriptPath, err)
	}
	return actions, nil
}
