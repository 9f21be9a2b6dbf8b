package pet

import (
	"time"

	"github.com/sethgrid/pixelpaws/internal/clock"
)

// pointerTracker polls the global pointer on its own cadence. It is not tied
// to any pose, so pose changes never cancel it.
type pointerTracker struct {
	c      *Controller
	src    PointerSource
	handle clock.Handle
	last   Position
}

func newPointerTracker(c *Controller) *pointerTracker {
	t := &pointerTracker{c: c}
	if src, ok := c.win.(PointerSource); ok {
		t.src = src
	}
	return t
}

func (t *pointerTracker) start() {
	t.stop()
	t.poll()
}

func (t *pointerTracker) stop() {
	if t.handle != nil {
		t.handle.Cancel()
		t.handle = nil
	}
}

func (t *pointerTracker) poll() {
	if t.src != nil {
		t.last = t.src.PointerPosition()
	}
	t.handle = t.c.clock.AfterFunc(time.Duration(t.c.tuning.PointerPoll), t.poll)
}
