package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/annotator/internal/appstate"
	"github.com/example/annotator/internal/theme"
)

// Annotator holds editor defaults applied to every session.
type Annotator struct {
	EnabledTools       []string
	TagSingleSelection bool
	ShowTags           bool
	AllowComments      bool
	AllowRemove        bool
	AllowLock          bool
	AllowVisibility    bool
}

// Notify holds notification settings.
type Notify struct {
	Export bool
	Copy   bool
}

// Segment configures the automatic segmentation backend.
type Segment struct {
	URL    string
	Model  string
	Prompt string
}

// Config holds the application configuration.
type Config struct {
	Theme     string
	ExportDir string
	Annotator Annotator
	Notify    Notify
	Segment   Segment
	Themes    map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Annotator: Annotator{
			ShowTags:        true,
			AllowRemove:     true,
			AllowLock:       true,
			AllowVisibility: true,
		},
		Segment: Segment{
			URL:   "http://localhost:11434",
			Model: "llava",
		},
		Themes: make(map[string]*theme.Theme),
	}
}

// Options converts the annotator defaults to state options. Tools that
// are not known are reported as an error.
func (c *Config) Options() ([]appstate.Option, error) {
	a := c.Annotator
	opts := []appstate.Option{
		appstate.WithTagSingleSelection(a.TagSingleSelection),
		appstate.WithShowTags(a.ShowTags),
		appstate.WithAllowComments(a.AllowComments),
		appstate.WithRegionAllowedActions(appstate.RegionAllowedActions{
			Remove:     a.AllowRemove,
			Lock:       a.AllowLock,
			Visibility: a.AllowVisibility,
		}),
	}
	if len(a.EnabledTools) > 0 {
		tools := make([]appstate.Tool, 0, len(a.EnabledTools))
		for _, name := range a.EnabledTools {
			t, ok := appstate.ParseTool(name)
			if !ok {
				return nil, fmt.Errorf("[annotator] enabled_tools: unknown tool %q", name)
			}
			tools = append(tools, t)
		}
		opts = append(opts, appstate.WithEnabledTools(tools...))
	}
	return opts, nil
}

// ThemeLoader returns a theme loader that also knows the inline themes.
func (c *Config) ThemeLoader() *theme.Loader {
	l := theme.NewLoader()
	l.Inline = c.Themes
	return l
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.ExportDir != "" {
		fmt.Fprintf(&sb, "export_dir = %s\n", c.ExportDir)
	}
	sb.WriteString("\n")

	a := c.Annotator
	sb.WriteString("[annotator]\n")
	if len(a.EnabledTools) > 0 {
		fmt.Fprintf(&sb, "enabled_tools = %s\n", strings.Join(a.EnabledTools, ","))
	}
	fmt.Fprintf(&sb, "tag_single_selection = %v\n", a.TagSingleSelection)
	fmt.Fprintf(&sb, "show_tags = %v\n", a.ShowTags)
	fmt.Fprintf(&sb, "allow_comments = %v\n", a.AllowComments)
	fmt.Fprintf(&sb, "allow_remove = %v\n", a.AllowRemove)
	fmt.Fprintf(&sb, "allow_lock = %v\n", a.AllowLock)
	fmt.Fprintf(&sb, "allow_visibility = %v\n", a.AllowVisibility)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "export = %v\n", c.Notify.Export)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	sb.WriteString("[segment]\n")
	fmt.Fprintf(&sb, "url = %s\n", c.Segment.URL)
	fmt.Fprintf(&sb, "model = %s\n", c.Segment.Model)
	if c.Segment.Prompt != "" {
		fmt.Fprintf(&sb, "prompt = %q\n", c.Segment.Prompt)
	}
	sb.WriteString("\n")

	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, f := range t.Fields() {
			fmt.Fprintf(&sb, "%s: %s\n", f.Name, theme.Hex(f.Color))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
