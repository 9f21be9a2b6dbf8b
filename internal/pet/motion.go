package pet

import "math"

// StepToward moves from toward to by speed along the straight line between
// them. It also returns the distance that remained before the move.
func StepToward(from, to Position, speed float64) (Position, float64) {
	dx := to.X - from.X
	dy := to.Y - from.Y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return from, 0
	}
	return Position{
		X: from.X + dx/dist*speed,
		Y: from.Y + dy/dist*speed,
	}, dist
}

// JumpOffset is the vertical offset of the jump arc at progress t in [0, 1]:
// zero at both ends and -height at the midpoint.
func JumpOffset(t, height float64) float64 {
	if t <= 0 || t >= 1 {
		return 0
	}
	return -height * math.Sin(math.Pi*t)
}

func (c *Controller) startWalk(target Position) {
	c.target = target
	c.enterPose(Walk)
	c.nextFrame(c.stepWalk)
}

// stepWalk runs once per frame while walking. It snaps onto the target once
// less than one frame of travel remains so the walk never oscillates.
func (c *Controller) stepWalk() {
	if c.pose != Walk {
		return
	}
	speed := c.tuning.WalkSpeed
	next, dist := StepToward(c.pos, c.target, speed)
	if dist < speed {
		c.pos = c.target
		c.place()
		c.enterPose(Idle)
		c.scheduleNext()
		return
	}
	c.setMirrored(c.target.X-c.pos.X < 0)
	c.pos = next
	c.place()
	c.nextFrame(c.stepWalk)
}

func (c *Controller) center() Position {
	return Position{
		X: c.pos.X + c.tuning.SpriteWidth/2,
		Y: c.pos.Y + c.tuning.SpriteHeight/2,
	}
}

// stepChase runs once per frame while chasing the live pointer.
func (c *Controller) stepChase() {
	if !c.guard.Chasing {
		return
	}
	if c.clock.Now().After(c.guard.ChaseUntil) {
		c.enterPose(Idle)
		c.fair.MustWalkNext = true
		c.scheduleNext()
		return
	}

	speed := c.tuning.ChaseSpeed
	center := c.center()
	pointer := c.pointer.last
	next, dist := StepToward(center, pointer, speed)
	if dist <= speed {
		c.caught()
		return
	}
	c.setMirrored(pointer.X-center.X < 0)
	c.pos.X += next.X - center.X
	c.pos.Y += next.Y - center.Y
	c.place()
	c.nextFrame(c.stepChase)
}
