package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/example/annotator/internal/config"
)

type configCmd struct {
	*root
	fs  *flag.FlagSet
	out io.Writer
}

func (c *configCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func (c *configCmd) Program() string {
	return c.root.subprogram("config")
}

func parseConfigCmd(args []string, r *root) (*configCmd, error) {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	c := &configCmd{root: r, fs: fs, out: os.Stdout}
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *configCmd) Run() error {
	args := c.fs.Args()
	if len(args) < 1 {
		return &UsageError{of: c}
	}

	loader := config.NewLoader(version, configPathOverride)
	switch args[0] {
	case "path":
		path := loader.Path()
		if path == "" {
			return fmt.Errorf("no config file found; run %s save to create one", c.Program())
		}
		fmt.Fprintln(c.out, path)
		return nil
	case "print":
		fmt.Fprint(c.out, c.current().String())
		return nil
	case "save":
		path, err := loader.Save(c.current())
		if err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Configuration saved to %s\n", path)
		return nil
	default:
		return fmt.Errorf("unknown config command: %s", args[0])
	}
}

func (c *configCmd) current() *config.Config {
	if c.root == nil || c.root.config == nil {
		return config.New()
	}
	return c.root.config
}
