// Package segment proposes regions for a frame using an external detector
// and feeds them back to the editor as SEGMENTATION_RESULT actions.
package segment

import (
	"context"
	"image"
	"log"
	"sync"

	"github.com/example/annotator/internal/appstate"
	"github.com/example/annotator/internal/region"
)

// Request asks for regions on one frame.
type Request struct {
	// Scope names the frame the regions belong to.
	Scope appstate.Scope
	Image image.Image
	// Classes restricts detections to these labels when not empty.
	Classes []string
	// Keypoints, when set, turns every detection into a keypoints region
	// of that definition placed inside the detected box.
	Keypoints  string
	Definition region.KeypointsDefinition
}

// Segmenter detects regions in an image.
type Segmenter interface {
	Segment(ctx context.Context, req Request) ([]region.Region, error)
}

// Func adapts a function to Segmenter.
type Func func(ctx context.Context, req Request) ([]region.Region, error)

func (f Func) Segment(ctx context.Context, req Request) ([]region.Region, error) { return f(ctx, req) }

// Dispatcher runs requests in the background, at most workers at a time,
// and delivers the results on Actions.
type Dispatcher struct {
	seg    Segmenter
	logger *log.Logger
	out    chan appstate.Action
	sem    chan struct{}
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewDispatcher returns a dispatcher over seg. A nil logger uses the
// standard logger.
func NewDispatcher(seg Segmenter, workers int, logger *log.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{
		seg:    seg,
		logger: logger,
		out:    make(chan appstate.Action, workers),
		sem:    make(chan struct{}, workers),
	}
}

// Actions returns the channel results are delivered on. It is closed by
// Close once every submitted request has finished.
func (d *Dispatcher) Actions() <-chan appstate.Action { return d.out }

// Submit queues req. Failures are logged and produce no action. It
// reports false after Close.
func (d *Dispatcher) Submit(ctx context.Context, req Request) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.wg.Add(1)
	go d.run(ctx, req)
	return true
}

func (d *Dispatcher) run(ctx context.Context, req Request) {
	defer d.wg.Done()
	select {
	case d.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}
	regions, err := d.seg.Segment(ctx, req)
	<-d.sem
	if err != nil {
		d.logger.Printf("segment: %v", err)
		return
	}
	if len(regions) == 0 {
		return
	}
	select {
	case d.out <- appstate.SegmentationResult{Scope: req.Scope, Regions: regions}:
	case <-ctx.Done():
	}
}

// Close stops accepting requests, waits for running ones and closes the
// Actions channel.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
	close(d.out)
}
