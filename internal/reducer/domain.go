package reducer

import (
	"maps"
	"slices"
	"strings"

	"github.com/example/annotator/internal/appstate"
	"github.com/example/annotator/internal/region"
)

// Image returns the domain stage for image sessions.
func Image() Func { return reduceImage }

// Video returns the domain stage for video sessions.
func Video() Func { return reduceVideo }

func reduceImage(s *appstate.State, a appstate.Action) *appstate.State {
	if s.Image == nil {
		return s
	}
	switch a := a.(type) {
	case appstate.SelectImage:
		return selectImage(s, a.ImageIndex)
	case appstate.ChangeRegion, appstate.DeleteRegion:
		if i := a.(appstate.Scoped).FrameScope().ImageIndex; i != nil {
			return selectImage(s, *i)
		}
		return s
	case appstate.SegmentationResult:
		i := s.Image.SelectedImage
		if a.ImageIndex != nil {
			i = *a.ImageIndex
		}
		return updateImage(s, i, func(im *appstate.Image) {
			im.Regions = append(slices.Clone(im.Regions), region.CloneAll(a.Regions)...)
		})
	case appstate.ImageOrVideoLoaded:
		return updateImage(s, s.Image.SelectedImage, func(im *appstate.Image) {
			im.PixelSize = &appstate.PixelSize{W: a.NaturalWidth, H: a.NaturalHeight}
		})
	case appstate.ChangeImage:
		return updateImage(s, s.Image.SelectedImage, func(im *appstate.Image) {
			if a.Cls != nil {
				im.Cls = *a.Cls
			}
			if a.Tags != nil {
				im.Tags = slices.Clone(a.Tags)
			}
		})
	case appstate.HeaderButtonClicked:
		cur := s.Image.SelectedImage
		switch strings.ToLower(a.ButtonName) {
		case "next":
			return selectImage(s, cur+1)
		case "prev":
			return selectImage(s, cur-1)
		case "clone":
			return cloneToNext(s)
		}
	}
	return s
}

func selectImage(s *appstate.State, i int) *appstate.State {
	if i < 0 || i >= len(s.Image.Images) || i == s.Image.SelectedImage {
		return s
	}
	s = idle(s)
	ia := *s.Image
	ia.SelectedImage = i
	return s.With(func(c *appstate.State) { c.Image = &ia })
}

func updateImage(s *appstate.State, i int, fn func(*appstate.Image)) *appstate.State {
	if i < 0 || i >= len(s.Image.Images) {
		return s
	}
	ia := *s.Image
	ia.Images = slices.Clone(ia.Images)
	fn(&ia.Images[i])
	return s.With(func(c *appstate.State) { c.Image = &ia })
}

// cloneToNext copies the selected image's regions onto the next image when
// that image has none, then selects it.
func cloneToNext(s *appstate.State) *appstate.State {
	cur := s.Image.SelectedImage
	im, ok := s.Image.Selected()
	if !ok || cur+1 >= len(s.Image.Images) {
		return s
	}
	s = idle(s)
	if len(s.Image.Images[cur+1].Regions) == 0 {
		s = updateImage(s, cur+1, func(next *appstate.Image) {
			next.Regions = region.CloneAll(im.Regions)
		})
	}
	return selectImage(s, cur+1)
}

func reduceVideo(s *appstate.State, a appstate.Action) *appstate.State {
	if s.Video == nil {
		return s
	}
	switch a := a.(type) {
	case appstate.ChangeVideoTime:
		return seek(s, a.NewTime)
	case appstate.ChangeRegion, appstate.DeleteRegion:
		if t := a.(appstate.Scoped).FrameScope().Time; t != nil {
			return seek(s, *t)
		}
		return s
	case appstate.ChangeVideoPlaying:
		return setPlaying(s, a.IsPlaying)
	case appstate.HeaderButtonClicked:
		switch strings.ToLower(a.ButtonName) {
		case "play":
			return setPlaying(s, true)
		case "pause":
			return setPlaying(s, false)
		}
	case appstate.DeleteKeyframe:
		if _, ok := s.Video.Keyframes[a.Time]; !ok {
			return s
		}
		return updateVideo(s, func(v *appstate.VideoAnnotation) {
			v.Keyframes = maps.Clone(v.Keyframes)
			delete(v.Keyframes, a.Time)
		})
	case appstate.ImageOrVideoLoaded:
		return updateVideo(s, func(v *appstate.VideoAnnotation) {
			v.PixelSize = &appstate.PixelSize{W: a.NaturalWidth, H: a.NaturalHeight}
			v.Duration = a.Duration
		})
	case appstate.ChangeImage:
		return updateKeyframe(s, s.Video.CurrentTime, func(k *appstate.Keyframe) {
			if a.Cls != nil {
				k.Cls = *a.Cls
			}
			if a.Tags != nil {
				k.Tags = slices.Clone(a.Tags)
			}
		})
	case appstate.SegmentationResult:
		t := s.Video.CurrentTime
		if a.Time != nil {
			t = *a.Time
		}
		return updateKeyframe(s, t, func(k *appstate.Keyframe) {
			k.Regions = append(slices.Clone(k.Regions), region.CloneAll(a.Regions)...)
		})
	}
	return s
}

func seek(s *appstate.State, t float64) *appstate.State {
	if t < 0 || t == s.Video.CurrentTime {
		return s
	}
	s = idle(s)
	return updateVideo(s, func(v *appstate.VideoAnnotation) { v.CurrentTime = t })
}

func setPlaying(s *appstate.State, playing bool) *appstate.State {
	if s.Video.Playing == playing {
		return s
	}
	return updateVideo(s, func(v *appstate.VideoAnnotation) { v.Playing = playing })
}

func updateVideo(s *appstate.State, fn func(*appstate.VideoAnnotation)) *appstate.State {
	v := *s.Video
	fn(&v)
	return s.With(func(c *appstate.State) { c.Video = &v })
}

// updateKeyframe edits the keyframe at t, materialising it from the
// interpolated regions when it does not exist yet.
func updateKeyframe(s *appstate.State, t float64, fn func(*appstate.Keyframe)) *appstate.State {
	return updateVideo(s, func(v *appstate.VideoAnnotation) {
		kf, ok := v.Keyframes[t]
		if !ok {
			kf.Regions = region.CloneAll(appstate.ImpliedRegions(v.Keyframes, t))
		}
		fn(&kf)
		v.Keyframes = maps.Clone(v.Keyframes)
		if v.Keyframes == nil {
			v.Keyframes = map[float64]appstate.Keyframe{}
		}
		v.Keyframes[t] = kf
	})
}
