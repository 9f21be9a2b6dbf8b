// Package pet drives the on-screen character: the pose state machine, the
// autonomous behavior scheduler, the motion integrator and the pointer
// interactions that preempt it.
//
// A Controller is not safe for concurrent use. Every method must be called
// from the goroutine that runs its clock.
package pet

import (
	"log"
	"math/rand"
	"time"

	"github.com/sethgrid/pixelpaws/internal/clock"
)

// Options configures a Controller. Zero values pick sensible defaults.
type Options struct {
	Tuning Tuning
	Assets Assets
	Rand   *rand.Rand
	Logger *log.Logger
}

// Controller owns the character: its pose, position and interaction state.
type Controller struct {
	clock  clock.Scheduler
	win    Window
	sprite Sprite
	tuning Tuning
	rng    *rand.Rand
	logger *log.Logger

	assets   Assets
	pose     Pose
	pos      Position
	target   Position
	work     Size
	mirrored bool
	visible  bool

	guard      Guard
	fair       Fairness
	dragOffset Position
	dragOrigin Position

	// timer and frame belong to the current pose and die with it.
	timer clock.Handle
	frame clock.Handle

	pointer *pointerTracker
}

// New wires a controller to its clock and host. Call Start to bring it on
// screen.
func New(c clock.Scheduler, win Window, sprite Sprite, opts Options) *Controller {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	ctrl := &Controller{
		clock:   c,
		win:     win,
		sprite:  sprite,
		tuning:  opts.Tuning.WithDefaults(),
		rng:     rng,
		logger:  logger,
		assets:  opts.Assets,
		visible: true,
	}
	ctrl.pointer = newPointerTracker(ctrl)
	return ctrl
}

// Start places the character at a random spot in the work area and hands
// control to the scheduler. The first behavior is always a walk.
func (c *Controller) Start() {
	c.work = Size{Width: DefaultWorkWidth, Height: DefaultWorkHeight}
	if ws, ok := c.win.(WorkAreaSizer); ok {
		if size := ws.WorkAreaSize(); size.Width > 0 && size.Height > 0 {
			c.work = size
		}
	}
	c.pos = c.randomPoint()
	c.place()

	c.pointer.start()
	c.enterPose(Idle)
	c.fair.MustWalkNext = true
	c.scheduleNext()
}

// Stop cancels every pending callback, including pointer polling.
func (c *Controller) Stop() {
	c.cancelPending()
	c.pointer.stop()
}

// Pose returns the active pose.
func (c *Controller) Pose() Pose {
	return c.pose
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Pose:         c.pose,
		Position:     c.pos,
		Target:       c.target,
		Pointer:      c.pointer.last,
		WorkArea:     c.work,
		Mirrored:     c.mirrored,
		Visible:      c.visible,
		Guard:        c.guard,
		Fairness:     c.fair,
		Asset:        c.assets.Ref(c.pose),
		PendingTimer: c.timer != nil,
		PendingFrame: c.frame != nil,
	}
}

// enterPose is the single transition point. It cancels whatever the previous
// pose left pending before showing the new one.
func (c *Controller) enterPose(p Pose) {
	leavingJump := c.pose == Jump && p != Jump
	c.cancelPending()
	if leavingJump {
		// The arc draws above c.pos without moving it.
		c.place()
	}
	c.pose = p
	if p != Jump && p != Land {
		c.guard.Jumping = false
	}
	c.guard.Chasing = p == Run
	c.show()
}

func (c *Controller) cancelPending() {
	if c.timer != nil {
		c.timer.Cancel()
		c.timer = nil
	}
	if c.frame != nil {
		c.frame.Cancel()
		c.frame = nil
	}
}

func (c *Controller) show() {
	ref := c.assets.Ref(c.pose)
	if err := c.sprite.SetAsset(c.pose, ref); err != nil {
		c.logger.Printf("failed to load %s asset %q: %v", c.pose, ref, err)
	}
}

// after arms the pose timer. The handle is cleared before fn runs so fn can
// enter a new pose freely.
func (c *Controller) after(d time.Duration, fn func()) {
	c.timer = c.clock.AfterFunc(d, func() {
		c.timer = nil
		fn()
	})
}

// nextFrame arms the pose frame callback.
func (c *Controller) nextFrame(fn func()) {
	c.frame = c.clock.RequestFrame(func() {
		c.frame = nil
		fn()
	})
}

func (c *Controller) place() {
	c.win.SetPosition(c.pos.X, c.pos.Y)
}

func (c *Controller) setMirrored(m bool) {
	if m == c.mirrored {
		return
	}
	c.mirrored = m
	c.sprite.SetMirrored(m)
}

func (c *Controller) randomPoint() Position {
	maxX := c.work.Width - c.tuning.SpriteWidth
	maxY := c.work.Height - c.tuning.SpriteHeight
	if maxX < 0 {
		maxX = 0
	}
	if maxY < 0 {
		maxY = 0
	}
	return Position{X: c.rng.Float64() * maxX, Y: c.rng.Float64() * maxY}
}

// ReloadAssets applies new references over the current ones and swaps the
// visible asset in place without touching the interaction state.
func (c *Controller) ReloadAssets(a Assets) {
	c.assets = c.assets.Merge(a)
	c.show()
}

// SetVisible shows or hides the host window.
func (c *Controller) SetVisible(visible bool) {
	c.visible = visible
	if vt, ok := c.win.(VisibilityToggler); ok {
		vt.SetVisible(visible)
	}
}

// SetPanelOpen switches the control panel on or off. While it is open the
// scheduler stays quiet and the window is sized for the panel.
func (c *Controller) SetPanelOpen(open bool) {
	if open == c.guard.PanelOpen {
		return
	}
	c.guard.PanelOpen = open
	if open {
		c.guard.Dragging = false
		c.enterPose(Idle)
		c.resize(c.tuning.PanelWidth, c.tuning.PanelHeight)
		c.setInteractive()
		return
	}
	c.resize(c.tuning.SpriteWidth, c.tuning.SpriteHeight)
	if tr, ok := c.win.(TransparencyRestorer); ok {
		tr.RestoreTransparency()
	}
	c.enterPose(Idle)
	c.scheduleNext()
}

func (c *Controller) resize(w, h float64) {
	if r, ok := c.win.(Resizer); ok {
		r.Resize(w, h)
	}
}

func (c *Controller) setInteractive() {
	if t, ok := c.win.(MouseEventToggler); ok {
		t.SetIgnoreMouseEvents(false, false)
	}
}
