// Package appstate defines the annotation editor state, the interaction
// modes and the actions that drive it. Every State is treated as immutable:
// transitions build a new value and share untouched substructure with the
// old one.
package appstate

import (
	"slices"
	"time"

	"seehuhn.de/go/geom/vec"

	"github.com/example/annotator/internal/region"
)

// AnnotationType discriminates the image and video extensions of State.
type AnnotationType string

const (
	AnnotationImage AnnotationType = "image"
	AnnotationVideo AnnotationType = "video"
)

// Tool identifies an editor tool.
type Tool string

const (
	ToolSelect              Tool = "select"
	ToolPan                 Tool = "pan"
	ToolZoom                Tool = "zoom"
	ToolCreatePoint         Tool = "create-point"
	ToolCreateBox           Tool = "create-box"
	ToolCreatePolygon       Tool = "create-polygon"
	ToolCreatePixel         Tool = "create-pixel"
	ToolCreateExpandingLine Tool = "create-expanding-line"
	ToolCreateKeypoints     Tool = "create-keypoints"
	ToolModifyAllowedArea   Tool = "modify-allowed-area"
	ToolCreateLine          Tool = "create-line"
	ToolShowTags            Tool = "show-tags"
	ToolShowMask            Tool = "show-mask"
)

var allTools = []Tool{
	ToolSelect, ToolPan, ToolZoom, ToolCreatePoint, ToolCreateBox,
	ToolCreatePolygon, ToolCreatePixel, ToolCreateExpandingLine,
	ToolCreateKeypoints, ToolModifyAllowedArea, ToolCreateLine,
	ToolShowTags, ToolShowMask,
}

// AllTools returns every known tool.
func AllTools() []Tool { return slices.Clone(allTools) }

// DefaultEnabledTools returns every tool except keypoint creation.
func DefaultEnabledTools() []Tool {
	return slices.DeleteFunc(AllTools(), func(t Tool) bool { return t == ToolCreateKeypoints })
}

// ParseTool reports whether name is a known tool.
func ParseTool(name string) (Tool, bool) {
	t := Tool(name)
	return t, slices.Contains(allTools, t)
}

// RegionAllowedActions lists what the user may do to existing regions.
type RegionAllowedActions struct {
	Remove     bool
	Lock       bool
	Visibility bool
}

// PixelSize is the natural size of a loaded image or video.
type PixelSize struct {
	W, H int
}

// Image is one entry of an image annotation session.
type Image struct {
	Src          string
	ThumbnailSrc string
	Name         string
	Regions      []region.Region
	PixelSize    *PixelSize
	FrameTime    *float64
	Cls          string
	Tags         []string
}

func (im Image) clone() Image {
	im.Regions = region.CloneAll(im.Regions)
	im.Tags = slices.Clone(im.Tags)
	if im.PixelSize != nil {
		ps := *im.PixelSize
		im.PixelSize = &ps
	}
	if im.FrameTime != nil {
		ft := *im.FrameTime
		im.FrameTime = &ft
	}
	return im
}

// ImageAnnotation is the image extension of State. SelectedImage is -1 when
// nothing is selected.
type ImageAnnotation struct {
	Images        []Image
	SelectedImage int
	LabelImages   bool
}

// Selected returns the selected image, if any.
func (ia *ImageAnnotation) Selected() (Image, bool) {
	if ia == nil || ia.SelectedImage < 0 || ia.SelectedImage >= len(ia.Images) {
		return Image{}, false
	}
	return ia.Images[ia.SelectedImage], true
}

// Keyframe holds the regions and frame-level labels stored at one time.
type Keyframe struct {
	Regions []region.Region
	Cls     string
	Tags    []string
}

func (k Keyframe) clone() Keyframe {
	k.Regions = region.CloneAll(k.Regions)
	k.Tags = slices.Clone(k.Tags)
	return k
}

// VideoAnnotation is the video extension of State.
type VideoAnnotation struct {
	Src         string
	Name        string
	CurrentTime float64
	Playing     bool
	Duration    float64
	PixelSize   *PixelSize
	Keyframes   map[float64]Keyframe
}

// HistoryEntry is one undo snapshot. State never carries a history of its
// own.
type HistoryEntry struct {
	Time  time.Time
	State *State
	Name  string
}

// State is the whole editor state. Exactly one of Image and Video is set,
// matching AnnotationType.
type State struct {
	AnnotationType AnnotationType
	SelectedTool   Tool
	SelectedCls    string
	Mode           Mode

	TaskDescription          string
	AllowedArea              *region.Rect
	RegionClsList            []string
	RegionTagList            []string
	RegionTagSingleSelection bool
	RegionAllowedActions     RegionAllowedActions
	ImageClsList             []string
	ImageTagList             []string
	EnabledTools             []Tool
	KeypointDefinitions      map[string]region.KeypointsDefinition
	AllowComments            bool

	ShowTags     bool
	ShowMask     bool
	FullScreen   bool
	SettingsOpen bool

	// PointerDownAt is the normalized position of the last MOUSE_DOWN while
	// the button is held.
	PointerDownAt *vec.Vec2

	History []HistoryEntry

	Image *ImageAnnotation
	Video *VideoAnnotation
}

// Option modifies a State during construction.
type Option func(*State)

// WithTaskDescription sets the instructions shown to the annotator.
func WithTaskDescription(s string) Option { return func(st *State) { st.TaskDescription = s } }

// WithRegionClasses sets the classification vocabulary for regions.
func WithRegionClasses(cls ...string) Option {
	return func(st *State) { st.RegionClsList = slices.Clone(cls) }
}

// WithRegionTags sets the tag vocabulary for regions.
func WithRegionTags(tags ...string) Option {
	return func(st *State) { st.RegionTagList = slices.Clone(tags) }
}

// WithTagSingleSelection restricts regions to at most one tag.
func WithTagSingleSelection(single bool) Option {
	return func(st *State) { st.RegionTagSingleSelection = single }
}

// WithImageClasses sets the image-level classification vocabulary.
func WithImageClasses(cls ...string) Option {
	return func(st *State) { st.ImageClsList = slices.Clone(cls) }
}

// WithImageTags sets the image-level tag vocabulary.
func WithImageTags(tags ...string) Option {
	return func(st *State) { st.ImageTagList = slices.Clone(tags) }
}

// WithEnabledTools limits the available tools.
func WithEnabledTools(tools ...Tool) Option {
	return func(st *State) { st.EnabledTools = slices.Clone(tools) }
}

// WithSelectedTool sets the initially selected tool.
func WithSelectedTool(t Tool) Option { return func(st *State) { st.SelectedTool = t } }

// WithKeypointDefinitions registers the keypoint templates.
func WithKeypointDefinitions(defs map[string]region.KeypointsDefinition) Option {
	return func(st *State) { st.KeypointDefinitions = defs }
}

// WithAllowedArea restricts region creation to r.
func WithAllowedArea(r region.Rect) Option {
	return func(st *State) { st.AllowedArea = &r }
}

// WithRegionAllowedActions overrides the region permissions.
func WithRegionAllowedActions(a RegionAllowedActions) Option {
	return func(st *State) { st.RegionAllowedActions = a }
}

// WithShowTags sets whether region tags are shown. Hosts pass a stored
// preference through here.
func WithShowTags(show bool) Option { return func(st *State) { st.ShowTags = show } }

// WithAllowComments enables free-text region comments.
func WithAllowComments(allow bool) Option { return func(st *State) { st.AllowComments = allow } }

// WithImages makes the session an image annotation over images. selected
// may be -1.
func WithImages(images []Image, selected int) Option {
	return func(st *State) {
		st.AnnotationType = AnnotationImage
		st.Video = nil
		if selected >= len(images) {
			selected = -1
		}
		st.Image = &ImageAnnotation{Images: images, SelectedImage: selected}
	}
}

// WithVideo makes the session a video annotation.
func WithVideo(v VideoAnnotation) Option {
	return func(st *State) {
		st.AnnotationType = AnnotationVideo
		st.Image = nil
		if v.Keyframes == nil {
			v.Keyframes = map[float64]Keyframe{}
		}
		st.Video = &v
	}
}

// New creates the initial State. Unless overridden every tool but keypoint
// creation is enabled, tags may be multi-selected, all region actions are
// permitted and the session is an empty image annotation.
func New(opts ...Option) *State {
	st := &State{
		AnnotationType:       AnnotationImage,
		SelectedTool:         ToolSelect,
		EnabledTools:         DefaultEnabledTools(),
		RegionAllowedActions: RegionAllowedActions{Remove: true, Lock: true, Visibility: true},
		ShowTags:             true,
		ShowMask:             true,
		Image:                &ImageAnnotation{SelectedImage: -1},
	}
	for _, o := range opts {
		o(st)
	}
	if len(st.RegionClsList) > 0 && st.SelectedCls == "" {
		st.SelectedCls = st.RegionClsList[0]
	}
	if st.Image != nil && (len(st.ImageClsList) > 0 || len(st.ImageTagList) > 0) {
		st.Image.LabelImages = true
	}
	return st
}

// With returns a shallow copy of s after applying fn to it.
func (s *State) With(fn func(*State)) *State {
	c := *s
	fn(&c)
	return &c
}

// IsEnabled reports whether tool t may be selected.
func (s *State) IsEnabled(t Tool) bool {
	return slices.Contains(s.EnabledTools, t)
}

// Clone returns a deep copy of s, history included.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := s.WithoutHistory()
	if s.History != nil {
		c.History = make([]HistoryEntry, len(s.History))
		for i, h := range s.History {
			h.State = h.State.WithoutHistory()
			c.History[i] = h
		}
	}
	return c
}

// WithoutHistory returns a deep copy of s with its history removed.
func (s *State) WithoutHistory() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.History = nil
	c.Mode = cloneMode(s.Mode)
	if s.AllowedArea != nil {
		a := *s.AllowedArea
		c.AllowedArea = &a
	}
	if s.PointerDownAt != nil {
		p := *s.PointerDownAt
		c.PointerDownAt = &p
	}
	c.RegionClsList = slices.Clone(s.RegionClsList)
	c.RegionTagList = slices.Clone(s.RegionTagList)
	c.ImageClsList = slices.Clone(s.ImageClsList)
	c.ImageTagList = slices.Clone(s.ImageTagList)
	c.EnabledTools = slices.Clone(s.EnabledTools)
	if s.KeypointDefinitions != nil {
		c.KeypointDefinitions = make(map[string]region.KeypointsDefinition, len(s.KeypointDefinitions))
		for id, d := range s.KeypointDefinitions {
			lm := make(map[string]region.Landmark, len(d.Landmarks))
			for k, v := range d.Landmarks {
				lm[k] = v
			}
			c.KeypointDefinitions[id] = region.KeypointsDefinition{
				Landmarks:   lm,
				Connections: slices.Clone(d.Connections),
			}
		}
	}
	if s.Image != nil {
		ia := *s.Image
		if s.Image.Images != nil {
			ia.Images = make([]Image, len(s.Image.Images))
			for i, im := range s.Image.Images {
				ia.Images[i] = im.clone()
			}
		}
		c.Image = &ia
	}
	if s.Video != nil {
		v := *s.Video
		if s.Video.PixelSize != nil {
			ps := *s.Video.PixelSize
			v.PixelSize = &ps
		}
		if s.Video.Keyframes != nil {
			v.Keyframes = make(map[float64]Keyframe, len(s.Video.Keyframes))
			for t, k := range s.Video.Keyframes {
				v.Keyframes[t] = k.clone()
			}
		}
		c.Video = &v
	}
	return &c
}
