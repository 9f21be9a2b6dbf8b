// Package clock provides the cooperative time source the pet controller runs
// on: one goroutine owns all state, timers and frame callbacks are delivered
// on that goroutine, and other goroutines hand work over with Post.
package clock

import (
	"context"
	"sync/atomic"
	"time"
)

// DefaultFrameInterval is roughly 60 frames per second.
const DefaultFrameInterval = 16 * time.Millisecond

// Handle cancels a pending timer or frame callback. A canceled callback never
// runs, even if its deadline has already passed.
type Handle interface {
	Cancel()
}

// Scheduler is what the controller needs from a clock.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Handle
	RequestFrame(fn func()) Handle
}

// Poster hands a function to the goroutine that owns the scheduler.
type Poster interface {
	Post(fn func())
}

type task struct {
	fn       func()
	canceled atomic.Bool
	timer    *time.Timer
}

func (t *task) Cancel() {
	t.canceled.Store(true)
	if t.timer != nil {
		t.timer.Stop()
	}
}

// Loop is the real-time Scheduler. Every callback runs on the goroutine that
// called Run.
type Loop struct {
	frameInterval time.Duration
	posts         chan func()
	done          chan struct{}
	frames        []*task
}

// NewLoop creates a loop ticking frames at frameInterval.
func NewLoop(frameInterval time.Duration) *Loop {
	if frameInterval <= 0 {
		frameInterval = DefaultFrameInterval
	}
	return &Loop{
		frameInterval: frameInterval,
		posts:         make(chan func(), 64),
		done:          make(chan struct{}),
	}
}

func (l *Loop) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules fn on the loop goroutine after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Handle {
	t := &task{fn: fn}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if !t.canceled.Load() {
				t.fn()
			}
		})
	})
	return t
}

// RequestFrame runs fn once on the next frame tick. Must be called from the
// loop goroutine.
func (l *Loop) RequestFrame(fn func()) Handle {
	t := &task{fn: fn}
	l.frames = append(l.frames, t)
	return t
}

// Post queues fn for the loop goroutine. It drops fn once the loop stopped.
func (l *Loop) Post(fn func()) {
	select {
	case l.posts <- fn:
	case <-l.done:
	}
}

// Run drives the loop until ctx is canceled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.frameInterval)
	defer ticker.Stop()
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-l.posts:
			fn()
		case <-ticker.C:
			l.runFrame()
		}
	}
}

func (l *Loop) runFrame() {
	frames := l.frames
	l.frames = nil
	for _, t := range frames {
		if !t.canceled.Load() {
			t.fn()
		}
	}
}
