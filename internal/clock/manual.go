package clock

import (
	"sort"
	"time"
)

type manualTimer struct {
	task
	at  time.Time
	seq int
}

// Manual is a deterministic Scheduler for tests. Time only moves through
// Advance and Step, and callbacks run on the caller's goroutine.
type Manual struct {
	now           time.Time
	frameInterval time.Duration
	lastFrame     time.Time
	seq           int
	timers        []*manualTimer
	frames        []*task
}

// NewManual creates a manual clock starting at start.
func NewManual(start time.Time, frameInterval time.Duration) *Manual {
	if frameInterval <= 0 {
		frameInterval = DefaultFrameInterval
	}
	return &Manual{
		now:           start,
		frameInterval: frameInterval,
		lastFrame:     start,
	}
}

func (m *Manual) Now() time.Time {
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, fn func()) Handle {
	m.seq++
	t := &manualTimer{at: m.now.Add(d), seq: m.seq}
	t.fn = fn
	m.timers = append(m.timers, t)
	return t
}

func (m *Manual) RequestFrame(fn func()) Handle {
	t := &task{fn: fn}
	m.frames = append(m.frames, t)
	return t
}

// Post runs fn immediately.
func (m *Manual) Post(fn func()) {
	fn()
}

// Step advances to the next frame tick and runs any timers due before it.
func (m *Manual) Step() {
	m.Advance(m.lastFrame.Add(m.frameInterval).Sub(m.now))
}

// Advance moves time forward by d, firing timers and frames in order.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		m.prune()
		nextFrame := m.lastFrame.Add(m.frameInterval)
		var next *manualTimer
		if len(m.timers) > 0 {
			next = m.timers[0]
		}

		if next != nil && !next.at.After(nextFrame) {
			if next.at.After(target) {
				break
			}
			m.timers = m.timers[1:]
			if next.at.After(m.now) {
				m.now = next.at
			}
			next.fn()
			continue
		}

		if nextFrame.After(target) {
			break
		}
		m.now = nextFrame
		m.lastFrame = nextFrame
		frames := m.frames
		m.frames = nil
		for _, t := range frames {
			if !t.canceled.Load() {
				t.fn()
			}
		}
	}
	m.now = target
}

// PendingTimers counts timers that have not fired or been canceled.
func (m *Manual) PendingTimers() int {
	m.prune()
	return len(m.timers)
}

// PendingFrames counts frame callbacks waiting for the next tick.
func (m *Manual) PendingFrames() int {
	n := 0
	for _, t := range m.frames {
		if !t.canceled.Load() {
			n++
		}
	}
	return n
}

func (m *Manual) prune() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.canceled.Load() {
			live = append(live, t)
		}
	}
	m.timers = live
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].at.Equal(m.timers[j].at) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].at.Before(m.timers[j].at)
	})
}
