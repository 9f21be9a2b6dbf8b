package pet

import (
	"math"
	"time"
)

// PointerDown starts tracking a possible drag. screen is the pointer in
// screen coordinates.
func (c *Controller) PointerDown(screen Position) {
	if c.guard.Dragging || c.guard.PanelOpen {
		return
	}
	// Dragging owns the position from here on, so any motion loop or jump
	// sequence stops.
	switch c.pose {
	case Walk, Run, Jump, Land:
		c.enterPose(Idle)
	}
	c.guard.Dragging = true
	c.guard.DragMoved = false
	c.dragOffset = Position{X: screen.X - c.pos.X, Y: screen.Y - c.pos.Y}
	c.dragOrigin = c.pos
	c.setInteractive()
}

// PointerMove follows the pointer while dragging. The pose only switches to
// Lifted once the drag has travelled past the threshold, so a click-and-hold
// does not flicker.
func (c *Controller) PointerMove(screen Position) {
	if !c.guard.Dragging {
		return
	}
	next := Position{X: screen.X - c.dragOffset.X, Y: screen.Y - c.dragOffset.Y}
	moved := math.Abs(next.X-c.dragOrigin.X) + math.Abs(next.Y-c.dragOrigin.Y)
	if !c.guard.DragMoved && moved >= c.tuning.DragThreshold {
		c.guard.DragMoved = true
		c.enterPose(Lifted)
	}
	c.pos = next
	c.place()
}

// PointerUp drops the character and resumes the scheduler.
func (c *Controller) PointerUp() {
	if !c.guard.Dragging {
		return
	}
	c.guard.Dragging = false
	c.setInteractive()
	c.enterPose(Idle)
	c.scheduleNext()
}

// Click jumps and then chases the pointer. Clicks that ended a drag, clicks
// during a jump and clicks on the open panel are ignored.
func (c *Controller) Click() {
	if c.guard.DragMoved || c.guard.Jumping || c.guard.Dragging || c.guard.PanelOpen {
		return
	}
	c.jumpThenChase(time.Duration(c.tuning.ChaseDuration))
}

func (c *Controller) jumpThenChase(chase time.Duration) {
	c.enterPose(Jump)
	c.guard.Jumping = true

	baseY := c.pos.Y
	start := c.clock.Now()
	duration := time.Duration(c.tuning.JumpDuration)
	height := c.tuning.JumpHeight

	var step func()
	step = func() {
		t := float64(c.clock.Now().Sub(start)) / float64(duration)
		if t < 1 {
			c.win.SetPosition(c.pos.X, baseY+JumpOffset(t, height))
			c.nextFrame(step)
			return
		}
		c.pos.Y = baseY
		c.place()
		c.enterPose(Land)
		c.after(time.Duration(c.tuning.LandDuration), func() {
			c.startChase(chase)
		})
	}
	c.nextFrame(step)
}

func (c *Controller) startChase(d time.Duration) {
	c.enterPose(Run)
	c.guard.ChaseUntil = c.clock.Now().Add(d)
	c.nextFrame(c.stepChase)
}

func (c *Controller) caught() {
	c.enterPose(Attack)
	c.after(time.Duration(c.tuning.AttackDelay), func() {
		c.enterPose(Idle)
		c.fair.MustWalkNext = true
		c.scheduleNext()
	})
}
