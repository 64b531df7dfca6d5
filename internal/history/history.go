// Package history adds bounded undo to a reducer.
package history

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/annotator/internal/appstate"
	"github.com/example/annotator/internal/reducer"
)

// MaxEntries is the number of snapshots kept.
const MaxEntries = 9

// ErrMalformedEntry reports a history entry without a usable snapshot.
var ErrMalformedEntry = errors.New("history entry has no state")

var labels = map[string]string{
	appstate.BeginBoxTransform{}.Type(): "Transform/Move Box",
	appstate.BeginBoxRotation{}.Type():  "Rotate Box",
	appstate.BeginMovePoint{}.Type():    "Move Point",
	appstate.DeleteRegion{}.Type():      "Delete Region",
}

// Label returns the history name recorded for an action kind and whether
// that kind is recorded at all.
func Label(actionType string) (string, bool) {
	name, ok := labels[actionType]
	if !ok {
		return actionType, false
	}
	return name, true
}

// Engine wraps a reducer with undo snapshots.
type Engine struct {
	next   reducer.Func
	now    func() time.Time
	logger *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used to stamp entries.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithLogger sets the logger used for restore failures.
func WithLogger(l *log.Logger) Option { return func(e *Engine) { e.logger = l } }

// New wraps next.
func New(next reducer.Func, opts ...Option) *Engine {
	e := &Engine{next: next, now: time.Now, logger: log.Default()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Reduce applies a to s. Recorded actions that change the state push a
// snapshot of s; RESTORE_HISTORY pops the newest snapshot.
func (e *Engine) Reduce(s *appstate.State, a appstate.Action) *appstate.State {
	next := e.next(s, a)
	if _, ok := a.(appstate.RestoreHistory); ok {
		if len(s.History) == 0 {
			return next
		}
		restored, err := restore(next)
		if err != nil {
			e.logger.Printf("history: restore failed: %v", err)
			return next
		}
		return restored
	}
	name, recorded := Label(a.Type())
	if !recorded || next == s {
		return next
	}
	entry := appstate.HistoryEntry{Time: e.now(), State: s.WithoutHistory(), Name: name}
	hist := make([]appstate.HistoryEntry, 0, min(len(next.History)+1, MaxEntries))
	hist = append(hist, entry)
	for _, h := range next.History {
		if len(hist) == MaxEntries {
			break
		}
		hist = append(hist, h)
	}
	return next.With(func(c *appstate.State) { c.History = hist })
}

// Func adapts the engine to the reducer signature.
func (e *Engine) Func() reducer.Func { return e.Reduce }

func restore(s *appstate.State) (*appstate.State, error) {
	if len(s.History) == 0 {
		return nil, ErrMalformedEntry
	}
	head := s.History[0]
	if head.State == nil {
		return nil, ErrMalformedEntry
	}
	if head.State.AnnotationType == appstate.AnnotationImage && head.State.Image == nil ||
		head.State.AnnotationType == appstate.AnnotationVideo && head.State.Video == nil {
		return nil, fmt.Errorf("%w: snapshot lacks its %s payload", ErrMalformedEntry, head.State.AnnotationType)
	}
	restored := head.State.WithoutHistory()
	restored.History = s.History[1:]
	return restored, nil
}
