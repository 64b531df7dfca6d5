// Package viewer is the desktop window of the editor. It paints the session
// state and feeds window events back to it as actions.
package viewer

import (
	"context"
	"image"
	"log"
	"sync"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/annotator/internal/appstate"
	"github.com/example/annotator/internal/clipboard"
	"github.com/example/annotator/internal/imagefile"
	"github.com/example/annotator/internal/input"
	"github.com/example/annotator/internal/notify"
	"github.com/example/annotator/internal/render"
	"github.com/example/annotator/internal/segment"
	"github.com/example/annotator/internal/session"
	"github.com/example/annotator/internal/theme"
)

// frameDropThreshold is how many paints in a row may be cancelled before
// one is allowed to finish.
const frameDropThreshold = 10

// segmentMaxDim bounds the frame size sent to the segmenter.
const segmentMaxDim = 1024

// Viewer shows one session in a window.
type Viewer struct {
	sess       *session.Session
	images     *imagefile.Cache
	theme      *theme.Theme
	translator *input.Translator
	segmenter  segment.Segmenter
	notifier   *notify.Notifier
	logger     *log.Logger

	onClose   func()
	closeOnce sync.Once
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithTheme sets the overlay colors.
func WithTheme(t *theme.Theme) Option { return func(v *Viewer) { v.theme = t } }

// WithImages sets where frame images are loaded from.
func WithImages(c *imagefile.Cache) Option { return func(v *Viewer) { v.images = c } }

// WithSegmenter enables Ctrl+G, which asks seg for regions on the frame.
func WithSegmenter(seg segment.Segmenter) Option { return func(v *Viewer) { v.segmenter = seg } }

// WithNotifier reports clipboard copies on the desktop.
func WithNotifier(n *notify.Notifier) Option { return func(v *Viewer) { v.notifier = n } }

// WithLogger sets the logger. The default is the standard logger.
func WithLogger(l *log.Logger) Option { return func(v *Viewer) { v.logger = l } }

// WithOnClose registers a callback invoked once when the window closes.
func WithOnClose(fn func()) Option { return func(v *Viewer) { v.onClose = fn } }

// New returns a viewer for sess.
func New(sess *session.Session, opts ...Option) *Viewer {
	v := &Viewer{
		sess:       sess,
		images:     imagefile.NewCache(""),
		theme:      theme.Default(),
		translator: input.NewTranslator(),
		logger:     log.Default(),
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Run executes the UI loop using shiny's driver. It returns when the
// window closes.
func (v *Viewer) Run() { driver.Main(v.Main) }

func (v *Viewer) notifyClose() {
	v.closeOnce.Do(func() {
		if v.onClose != nil {
			v.onClose()
		}
	})
}

// background returns the image behind the active frame, or nil.
// stopSegmentation cancels requests still in flight before waiting for the
// dispatcher, so closing the window does not wait on the detector.
func stopSegmentation(cancel context.CancelFunc, d *segment.Dispatcher) {
	cancel()
	d.Close()
}

func (v *Viewer) background(s *appstate.State) image.Image {
	src := ""
	switch {
	case s.Video != nil:
		src = s.Video.Src
	case s.Image != nil:
		if im, ok := s.Image.Selected(); ok {
			src = im.Src
		}
	}
	if src == "" {
		return nil
	}
	img, err := v.images.Get(src)
	if err != nil {
		v.logger.Printf("viewer: %v", err)
		return nil
	}
	return img
}

// reportLoaded tells the session the natural size of a frame the first
// time it is shown.
func (v *Viewer) reportLoaded(s *appstate.State, bg image.Image) {
	if bg == nil {
		return
	}
	var known bool
	switch {
	case s.Video != nil:
		known = s.Video.PixelSize != nil
	case s.Image != nil:
		im, ok := s.Image.Selected()
		known = !ok || im.PixelSize != nil
	}
	if known {
		return
	}
	b := bg.Bounds()
	v.sess.Dispatch(appstate.ImageOrVideoLoaded{NaturalWidth: b.Dx(), NaturalHeight: b.Dy()})
}

// frameScope names the active frame for asynchronous results.
func frameScope(s *appstate.State) appstate.Scope {
	if s.Video != nil {
		t := s.Video.CurrentTime
		return appstate.Scope{Time: &t}
	}
	if s.Image != nil {
		i := s.Image.SelectedImage
		return appstate.Scope{ImageIndex: &i}
	}
	return appstate.Scope{}
}

func segmentRequest(s *appstate.State, bg image.Image) segment.Request {
	req := segment.Request{
		Scope:   frameScope(s),
		Image:   imagefile.Fit(bg, segmentMaxDim),
		Classes: s.RegionClsList,
	}
	if s.SelectedTool == appstate.ToolCreateKeypoints {
		for id, def := range s.KeypointDefinitions {
			if req.Keypoints == "" || id < req.Keypoints {
				req.Keypoints, req.Definition = id, def
			}
		}
	}
	return req
}

func (v *Viewer) Main(s screen.Screen) {
	st := v.sess.State()
	bg := v.background(st)
	v.reportLoaded(st, bg)
	fitToolbar(st.EnabledTools)

	width, height := 1024, 768
	if bg != nil {
		b := bg.Bounds()
		width = min(max(b.Dx()+toolbarWidth, 640), 1600)
		height = min(max(b.Dy()+headerHeight+statusHeight, 480), 1000)
	}
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: "Annotator"})
	if err != nil {
		log.Fatalf("new window: %v", err)
	}
	defer w.Release()
	defer v.notifyClose()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		for {
			select {
			case <-v.sess.Updates():
				w.Send(paint.Event{})
			case <-ctx.Done():
				return
			}
		}
	}()

	var dispatcher *segment.Dispatcher
	if v.segmenter != nil {
		dispatcher = segment.NewDispatcher(v.segmenter, 1, v.logger)
		go func() {
			if err := v.sess.Feed(ctx, dispatcher.Actions()); err != nil && ctx.Err() == nil {
				v.logger.Printf("segment feed: %v", err)
			}
		}()
		defer stopSegmentation(cancel, dispatcher)
	}

	var (
		zoom         = 1.0
		offset       image.Point
		panning      bool
		panStart     image.Point
		panOffset    image.Point
		message      string
		messageUntil time.Time
	)
	say := func(msg string) {
		message = msg
		messageUntil = time.Now().Add(2 * time.Second)
		v.logger.Print(msg)
		w.Send(paint.Event{})
	}
	view := func() render.Viewport {
		if bg == nil {
			c := canvasRect(width, height)
			side := min(c.Dx(), c.Dy())
			return render.Fit(side, side, c, zoom, offset)
		}
		return render.Fit(bg.Bounds().Dx(), bg.Bounds().Dy(), canvasRect(width, height), zoom, offset)
	}
	dispatch := func(a appstate.Action) {
		next := v.sess.Dispatch(a)
		if nb := v.background(next); nb != bg {
			bg = nb
			zoom, offset = 1, image.Point{}
			v.reportLoaded(next, bg)
		}
	}

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	defer close(paintCh)
	go func() {
		for ps := range paintCh {
			pctx, pcancel := context.WithCancel(ctx)
			paintMu.Lock()
			paintCancel = pcancel
			paintMu.Unlock()
			drawFrame(pctx, s, w, ps)
			paintMu.Lock()
			paintCancel = nil
			if pctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			pcancel()
		}
	}()

	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return
			}
		case size.Event:
			width, height = e.WidthPx, e.HeightPx
			w.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			ps := paintState{
				width:        width,
				height:       height,
				state:        v.sess.State(),
				bg:           bg,
				view:         view(),
				theme:        v.theme,
				message:      message,
				messageUntil: messageUntil,
			}
			select {
			case paintCh <- ps:
			default:
				<-paintCh
				paintCh <- ps
			}
		case mouse.Event:
			p := image.Pt(int(e.X), int(e.Y))
			cur := v.sess.State()
			if e.Direction == mouse.DirPress && e.Button == mouse.ButtonLeft {
				if t, ok := toolAt(cur.EnabledTools, p); ok {
					dispatch(appstate.SelectTool{Tool: t})
					continue
				}
			}
			switch {
			case e.Button == mouse.ButtonWheelUp && e.Direction == mouse.DirPress:
				zoom *= 1.25
				w.Send(paint.Event{})
				continue
			case e.Button == mouse.ButtonWheelDown && e.Direction == mouse.DirPress:
				zoom = max(zoom/1.25, 0.1)
				w.Send(paint.Event{})
				continue
			case e.Button == mouse.ButtonMiddle && e.Direction == mouse.DirPress:
				panning, panStart, panOffset = true, p, offset
				continue
			case e.Button == mouse.ButtonMiddle && e.Direction == mouse.DirRelease:
				panning = false
				continue
			case panning && e.Direction == mouse.DirNone:
				offset = panOffset.Add(p.Sub(panStart))
				w.Send(paint.Event{})
				continue
			}
			for _, a := range v.translator.Mouse(e, view(), cur) {
				dispatch(a)
			}
		case key.Event:
			if e.Direction != key.DirPress {
				continue
			}
			ctrl := e.Modifiers&key.ModControl != 0
			switch {
			case e.Code == key.CodeQ && ctrl:
				return
			case e.Code == key.CodeEqualSign || e.Rune == '+':
				zoom *= 1.25
				w.Send(paint.Event{})
				continue
			case e.Code == key.CodeHyphenMinus:
				zoom = max(zoom/1.25, 0.1)
				w.Send(paint.Event{})
				continue
			case e.Code == key.Code0:
				zoom, offset = 1, image.Point{}
				w.Send(paint.Event{})
				continue
			case e.Code == key.CodeC && ctrl:
				v.copyFrame(bg, say)
				continue
			case e.Code == key.CodeG && ctrl:
				if dispatcher == nil || bg == nil {
					say("segmentation unavailable")
					continue
				}
				dispatcher.Submit(ctx, segmentRequest(v.sess.State(), bg))
				say("segmenting frame")
				continue
			}
			if a, ok := v.translator.Key(e, v.sess.State()); ok {
				dispatch(a)
			}
		}
	}
}

// copyFrame renders the active frame at its natural size to the clipboard.
func (v *Viewer) copyFrame(bg image.Image, say func(string)) {
	img, _ := render.Image(v.sess.State(), bg, render.Options{Theme: v.theme, Logger: v.logger})
	if err := clipboard.WriteImage(img); err != nil {
		say("copy failed: " + err.Error())
		return
	}
	if v.notifier != nil {
		v.notifier.Copy("frame")
	}
	say("copied frame to clipboard")
}
