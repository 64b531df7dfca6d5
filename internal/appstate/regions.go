package appstate

import (
	"maps"
	"slices"

	"github.com/example/annotator/internal/region"
)

// ActiveRegions returns the regions of the selected image or of the current
// video time. Between keyframes the regions are interpolated from the
// surrounding keyframes. The returned slice must not be modified.
func (s *State) ActiveRegions() []region.Region {
	switch s.AnnotationType {
	case AnnotationImage:
		if im, ok := s.Image.Selected(); ok {
			return im.Regions
		}
	case AnnotationVideo:
		if s.Video != nil {
			return ImpliedRegions(s.Video.Keyframes, s.Video.CurrentTime)
		}
	}
	return nil
}

// WithActiveRegions returns a copy of s whose active image or video time
// holds rs. Writing at a video time without a keyframe creates one. When no
// image is selected s is returned unchanged.
func (s *State) WithActiveRegions(rs []region.Region) *State {
	switch s.AnnotationType {
	case AnnotationImage:
		if _, ok := s.Image.Selected(); !ok {
			return s
		}
		ia := *s.Image
		ia.Images = slices.Clone(ia.Images)
		ia.Images[ia.SelectedImage].Regions = rs
		return s.With(func(c *State) { c.Image = &ia })
	case AnnotationVideo:
		if s.Video == nil {
			return s
		}
		v := *s.Video
		v.Keyframes = maps.Clone(v.Keyframes)
		if v.Keyframes == nil {
			v.Keyframes = map[float64]Keyframe{}
		}
		kf := v.Keyframes[v.CurrentTime]
		kf.Regions = rs
		v.Keyframes[v.CurrentTime] = kf
		return s.With(func(c *State) { c.Video = &v })
	}
	return s
}

// UpdateRegion replaces the active region with r's id. It returns s when no
// such region exists.
func (s *State) UpdateRegion(r region.Region) *State {
	rs := s.ActiveRegions()
	i := region.Index(rs, r.Common().ID)
	if i < 0 {
		return s
	}
	out := slices.Clone(rs)
	out[i] = r
	return s.WithActiveRegions(out)
}

// RemoveRegion drops the active region with the given id.
func (s *State) RemoveRegion(id string) *State {
	rs := s.ActiveRegions()
	i := region.Index(rs, id)
	if i < 0 {
		return s
	}
	return s.WithActiveRegions(slices.Delete(slices.Clone(rs), i, i+1))
}

// FindRegion looks up an active region.
func (s *State) FindRegion(id string) (region.Region, bool) {
	return region.Find(s.ActiveRegions(), id)
}

// KeyframeTimes returns the keyframe times in ascending order.
func (v *VideoAnnotation) KeyframeTimes() []float64 {
	if v == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(v.Keyframes))
}

// ImpliedRegions returns the regions visible at time t. An exact keyframe
// wins. Otherwise regions of the previous keyframe are interpolated towards
// the matching region of the next one; regions absent from the next
// keyframe are held.
func ImpliedRegions(keyframes map[float64]Keyframe, t float64) []region.Region {
	if kf, ok := keyframes[t]; ok {
		return kf.Regions
	}
	var prev, next *float64
	for kt := range keyframes {
		if kt < t && (prev == nil || kt > *prev) {
			prev = &kt
		}
		if kt > t && (next == nil || kt < *next) {
			next = &kt
		}
	}
	if prev == nil {
		return nil
	}
	before := keyframes[*prev].Regions
	if next == nil {
		return before
	}
	after := keyframes[*next].Regions
	frac := (t - *prev) / (*next - *prev)
	out := make([]region.Region, len(before))
	for i, r := range before {
		if o, ok := region.Find(after, r.Common().ID); ok {
			out[i] = region.Lerp(r, o, frac)
		} else {
			out[i] = r
		}
	}
	return out
}
