// Package session holds the live editor state behind a mutex and routes
// actions through the history engine. Chrome buttons meant for the host
// are turned into callbacks instead of reaching the reducers.
package session

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/example/annotator/internal/appstate"
	"github.com/example/annotator/internal/history"
	"github.com/example/annotator/internal/reducer"
)

// Callbacks receive history-free deep copies of the state. Nil callbacks
// are skipped.
type Callbacks struct {
	// OnExit runs for the Exit, Done, Save and Complete buttons.
	OnExit func(*appstate.State)
	// OnNext and OnPrev take over the Next and Prev buttons when set.
	// Otherwise the buttons reach the reducers and move between images.
	OnNext func(*appstate.State)
	OnPrev func(*appstate.State)
	// OnClassAdded runs when the user creates a new class.
	OnClassAdded func(cls string)
}

// Session is safe for concurrent use.
type Session struct {
	mu     sync.Mutex
	state  *appstate.State
	reduce reducer.Func
	cb     Callbacks

	updateCh chan struct{}
}

// Option configures a Session.
type Option func(*config)

type config struct {
	cb         Callbacks
	reducerOps []reducer.Option
	historyOps []history.Option
}

// WithCallbacks sets the host callbacks.
func WithCallbacks(cb Callbacks) Option { return func(c *config) { c.cb = cb } }

// WithReducerOptions passes options to the reducer stages.
func WithReducerOptions(opts ...reducer.Option) Option {
	return func(c *config) { c.reducerOps = append(c.reducerOps, opts...) }
}

// WithHistoryOptions passes options to the history engine.
func WithHistoryOptions(opts ...history.Option) Option {
	return func(c *config) { c.historyOps = append(c.historyOps, opts...) }
}

// New starts a session at initial. The reducer stack is chosen once from
// the initial annotation type.
func New(initial *appstate.State, opts ...Option) *Session {
	var c config
	for _, o := range opts {
		o(&c)
	}
	engine := history.New(reducer.ForState(initial, c.reducerOps...), c.historyOps...)
	return &Session{
		state:    initial,
		reduce:   engine.Func(),
		cb:       c.cb,
		updateCh: make(chan struct{}, 1),
	}
}

// State returns the current state. Callers must not modify it.
func (s *Session) State() *appstate.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a deep copy of the current state without history.
func (s *Session) Snapshot() *appstate.State {
	return s.State().WithoutHistory()
}

// Updates signals after every dispatch that changed the state. Signals
// coalesce.
func (s *Session) Updates() <-chan struct{} { return s.updateCh }

// Dispatch applies a and returns the resulting state.
func (s *Session) Dispatch(a appstate.Action) *appstate.State {
	switch a := a.(type) {
	case appstate.HeaderButtonClicked:
		if fn := s.hostButton(a.ButtonName); fn != nil {
			snap := s.Snapshot()
			fn(snap)
			return s.State()
		}
	}

	s.mu.Lock()
	prev := s.state
	s.state = s.reduce(prev, a)
	next := s.state
	s.mu.Unlock()

	if next != prev {
		select {
		case s.updateCh <- struct{}{}:
		default:
		}
	}
	if c, ok := a.(appstate.ClsAdded); ok && s.cb.OnClassAdded != nil &&
		!slices.Contains(prev.RegionClsList, c.Cls) && slices.Contains(next.RegionClsList, c.Cls) {
		s.cb.OnClassAdded(c.Cls)
	}
	return next
}

func (s *Session) hostButton(name string) func(*appstate.State) {
	switch strings.ToLower(name) {
	case "exit", "done", "save", "complete":
		return s.cb.OnExit
	case "next":
		return s.cb.OnNext
	case "prev":
		return s.cb.OnPrev
	}
	return nil
}

// Feed dispatches actions from ch until it closes or ctx is done. It is
// how asynchronous results such as segmentations enter the session.
func (s *Session) Feed(ctx context.Context, ch <-chan appstate.Action) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case a, ok := <-ch:
			if !ok {
				return nil
			}
			s.Dispatch(a)
		}
	}
}
