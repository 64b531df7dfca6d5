// Package reducer implements the editor's state transitions. A Func never
// mutates its input; it returns the same pointer when an action changes
// nothing.
package reducer

import (
	"github.com/google/uuid"

	"github.com/example/annotator/internal/appstate"
)

// Func computes the state that follows an action.
type Func func(*appstate.State, appstate.Action) *appstate.State

// Combine runs domain first and hands its result to general. The domain
// stage selects the image or video time an action addresses so the general
// stage edits the right frame.
func Combine(domain, general Func) Func {
	return func(s *appstate.State, a appstate.Action) *appstate.State {
		return general(domain(s, a), a)
	}
}

// ForState returns the composed reducer matching the session kind of s.
func ForState(s *appstate.State, opts ...Option) Func {
	g := General(opts...)
	if s.AnnotationType == appstate.AnnotationVideo {
		return Combine(Video(), g)
	}
	return Combine(Image(), g)
}

type settings struct {
	newID func() string
}

// Option configures the general reducer.
type Option func(*settings)

// WithIDGenerator replaces the generator used for new region ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *settings) { s.newID = fn }
}

func newSettings(opts []Option) *settings {
	s := &settings{newID: uuid.NewString}
	for _, o := range opts {
		o(s)
	}
	return s
}
