package session

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/example/annotator/internal/appstate"
	"github.com/example/annotator/internal/region"
)

var (
	// ErrNoPayload is returned when a document has neither images nor a video.
	ErrNoPayload = errors.New("session needs images or a video")
	// ErrTwoPayloads is returned when a document has both.
	ErrTwoPayloads = errors.New("session has both images and a video")
)

// Document is the YAML form of a session: the construction bundle plus
// the image or video payload.
type Document struct {
	TaskDescription          string                                `yaml:"taskDescription,omitempty"`
	RegionClsList            []string                              `yaml:"regionClsList,omitempty"`
	RegionTagList            []string                              `yaml:"regionTagList,omitempty"`
	RegionTagSingleSelection bool                                  `yaml:"regionTagSingleSelection,omitempty"`
	ImageClsList             []string                              `yaml:"imageClsList,omitempty"`
	ImageTagList             []string                              `yaml:"imageTagList,omitempty"`
	EnabledTools             []string                              `yaml:"enabledTools,omitempty"`
	SelectedTool             string                                `yaml:"selectedTool,omitempty"`
	SelectedCls              string                                `yaml:"selectedCls,omitempty"`
	ShowTags                 *bool                                 `yaml:"showTags,omitempty"`
	AllowComments            bool                                  `yaml:"allowComments,omitempty"`
	AllowedArea              *region.Rect                          `yaml:"allowedArea,omitempty"`
	RegionAllowedActions     *AllowedActions                       `yaml:"regionAllowedActions,omitempty"`
	KeypointDefinitions      map[string]region.KeypointsDefinition `yaml:"keypointDefinitions,omitempty"`

	Images        []ImageDoc `yaml:"images,omitempty"`
	SelectedImage *int       `yaml:"selectedImage,omitempty"`
	Video         *VideoDoc  `yaml:"video,omitempty"`
}

// AllowedActions mirrors appstate.RegionAllowedActions. Missing keys keep
// the permissive default.
type AllowedActions struct {
	Remove     *bool `yaml:"remove,omitempty"`
	Lock       *bool `yaml:"lock,omitempty"`
	Visibility *bool `yaml:"visibility,omitempty"`
}

// ImageDoc is one image of a document.
type ImageDoc struct {
	Src          string     `yaml:"src"`
	ThumbnailSrc string     `yaml:"thumbnailSrc,omitempty"`
	Name         string     `yaml:"name,omitempty"`
	FrameTime    *float64   `yaml:"frameTime,omitempty"`
	Cls          string     `yaml:"cls,omitempty"`
	Tags         []string   `yaml:"tags,omitempty"`
	Regions      RegionList `yaml:"regions,omitempty"`
}

// VideoDoc is the video payload of a document.
type VideoDoc struct {
	Src         string                  `yaml:"src"`
	Name        string                  `yaml:"name,omitempty"`
	CurrentTime float64                 `yaml:"currentTime,omitempty"`
	Duration    float64                 `yaml:"duration,omitempty"`
	Keyframes   map[float64]KeyframeDoc `yaml:"keyframes,omitempty"`
}

// KeyframeDoc is one keyframe of a video payload.
type KeyframeDoc struct {
	Cls     string     `yaml:"cls,omitempty"`
	Tags    []string   `yaml:"tags,omitempty"`
	Regions RegionList `yaml:"regions,omitempty"`
}

// ReadDocument decodes a YAML session document.
func ReadDocument(r io.Reader) (*Document, error) {
	var d Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &d, nil
}

// Write encodes d as YAML.
func (d *Document) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return enc.Close()
}

// Options converts d to state construction options.
func (d *Document) Options() ([]appstate.Option, error) {
	switch {
	case len(d.Images) == 0 && d.Video == nil:
		return nil, ErrNoPayload
	case len(d.Images) > 0 && d.Video != nil:
		return nil, ErrTwoPayloads
	}
	opts := []appstate.Option{
		appstate.WithTaskDescription(d.TaskDescription),
		appstate.WithRegionClasses(d.RegionClsList...),
		appstate.WithRegionTags(d.RegionTagList...),
		appstate.WithTagSingleSelection(d.RegionTagSingleSelection),
		appstate.WithImageClasses(d.ImageClsList...),
		appstate.WithImageTags(d.ImageTagList...),
		appstate.WithAllowComments(d.AllowComments),
	}
	if len(d.EnabledTools) > 0 {
		tools := make([]appstate.Tool, 0, len(d.EnabledTools))
		for _, name := range d.EnabledTools {
			t, ok := appstate.ParseTool(name)
			if !ok {
				return nil, fmt.Errorf("enabledTools: unknown tool %q", name)
			}
			tools = append(tools, t)
		}
		opts = append(opts, appstate.WithEnabledTools(tools...))
	}
	if d.SelectedTool != "" {
		t, ok := appstate.ParseTool(d.SelectedTool)
		if !ok {
			return nil, fmt.Errorf("selectedTool: unknown tool %q", d.SelectedTool)
		}
		opts = append(opts, appstate.WithSelectedTool(t))
	}
	if d.SelectedCls != "" {
		cls := d.SelectedCls
		opts = append(opts, func(s *appstate.State) { s.SelectedCls = cls })
	}
	if d.ShowTags != nil {
		opts = append(opts, appstate.WithShowTags(*d.ShowTags))
	}
	if d.AllowedArea != nil {
		opts = append(opts, appstate.WithAllowedArea(*d.AllowedArea))
	}
	if a := d.RegionAllowedActions; a != nil {
		perm := appstate.RegionAllowedActions{
			Remove:     boolOr(a.Remove, true),
			Lock:       boolOr(a.Lock, true),
			Visibility: boolOr(a.Visibility, true),
		}
		opts = append(opts, appstate.WithRegionAllowedActions(perm))
	}
	if len(d.KeypointDefinitions) > 0 {
		opts = append(opts, appstate.WithKeypointDefinitions(maps.Clone(d.KeypointDefinitions)))
	}

	if d.Video != nil {
		v := appstate.VideoAnnotation{
			Src:         d.Video.Src,
			Name:        d.Video.Name,
			CurrentTime: d.Video.CurrentTime,
			Duration:    d.Video.Duration,
			Keyframes:   make(map[float64]appstate.Keyframe, len(d.Video.Keyframes)),
		}
		for t, k := range d.Video.Keyframes {
			v.Keyframes[t] = appstate.Keyframe{
				Regions: region.CloneAll(k.Regions),
				Cls:     k.Cls,
				Tags:    slices.Clone(k.Tags),
			}
		}
		return append(opts, appstate.WithVideo(v)), nil
	}

	images := make([]appstate.Image, len(d.Images))
	for i, im := range d.Images {
		images[i] = appstate.Image{
			Src:          im.Src,
			ThumbnailSrc: im.ThumbnailSrc,
			Name:         im.Name,
			FrameTime:    im.FrameTime,
			Cls:          im.Cls,
			Tags:         slices.Clone(im.Tags),
			Regions:      region.CloneAll(im.Regions),
		}
	}
	selected := 0
	if d.SelectedImage != nil {
		selected = *d.SelectedImage
	}
	return append(opts, appstate.WithImages(images, selected)), nil
}

// State builds the initial state for d. Extra options are applied after
// the document's own.
func (d *Document) State(extra ...appstate.Option) (*appstate.State, error) {
	opts, err := d.Options()
	if err != nil {
		return nil, err
	}
	return appstate.New(append(opts, extra...)...), nil
}

// Export converts a state back to a document. History and interaction
// state are not part of the document.
func Export(s *appstate.State) *Document {
	show := s.ShowTags
	perm := s.RegionAllowedActions
	d := &Document{
		TaskDescription:          s.TaskDescription,
		RegionClsList:            slices.Clone(s.RegionClsList),
		RegionTagList:            slices.Clone(s.RegionTagList),
		RegionTagSingleSelection: s.RegionTagSingleSelection,
		ImageClsList:             slices.Clone(s.ImageClsList),
		ImageTagList:             slices.Clone(s.ImageTagList),
		SelectedTool:             string(s.SelectedTool),
		SelectedCls:              s.SelectedCls,
		ShowTags:                 &show,
		AllowComments:            s.AllowComments,
		KeypointDefinitions:      s.KeypointDefinitions,
		RegionAllowedActions: &AllowedActions{
			Remove:     &perm.Remove,
			Lock:       &perm.Lock,
			Visibility: &perm.Visibility,
		},
	}
	for _, t := range s.EnabledTools {
		d.EnabledTools = append(d.EnabledTools, string(t))
	}
	if s.AllowedArea != nil {
		a := *s.AllowedArea
		d.AllowedArea = &a
	}
	switch {
	case s.Image != nil:
		sel := s.Image.SelectedImage
		d.SelectedImage = &sel
		for _, im := range s.Image.Images {
			d.Images = append(d.Images, ImageDoc{
				Src:          im.Src,
				ThumbnailSrc: im.ThumbnailSrc,
				Name:         im.Name,
				FrameTime:    im.FrameTime,
				Cls:          im.Cls,
				Tags:         slices.Clone(im.Tags),
				Regions:      RegionList(region.CloneAll(im.Regions)),
			})
		}
	case s.Video != nil:
		v := &VideoDoc{
			Src:         s.Video.Src,
			Name:        s.Video.Name,
			CurrentTime: s.Video.CurrentTime,
			Duration:    s.Video.Duration,
			Keyframes:   make(map[float64]KeyframeDoc, len(s.Video.Keyframes)),
		}
		for t, k := range s.Video.Keyframes {
			v.Keyframes[t] = KeyframeDoc{
				Cls:     k.Cls,
				Tags:    slices.Clone(k.Tags),
				Regions: RegionList(region.CloneAll(k.Regions)),
			}
		}
		d.Video = v
	}
	return d
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
