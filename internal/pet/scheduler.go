package pet

import "time"

// scheduleNext arms the next autonomous behavior. It does nothing while the
// user is dragging, the character is chasing or the panel is open.
func (c *Controller) scheduleNext() {
	if c.guard.Suppressed() {
		return
	}
	delay := c.randomDelay()
	if !c.fair.FirstBehaviorTaken {
		c.fair.FirstBehaviorTaken = true
		delay = time.Duration(c.tuning.FirstDelay)
	}
	if c.timer != nil {
		c.timer.Cancel()
	}
	c.after(delay, c.decide)
}

func (c *Controller) randomDelay() time.Duration {
	lo := time.Duration(c.tuning.MinDelay)
	hi := time.Duration(c.tuning.MaxDelay)
	return lo + time.Duration(c.rng.Float64()*float64(hi-lo))
}

// decide picks walk, sit or lie down. A pending forced walk wins over the
// draw.
func (c *Controller) decide() {
	if c.guard.Suppressed() {
		return
	}
	r := c.rng.Float64()
	switch {
	case c.fair.MustWalkNext || r < walkChance:
		c.fair.MustWalkNext = false
		c.startWalk(c.randomPoint())
	case r < sitChance:
		c.rest(Sit, time.Duration(c.tuning.SitDuration))
	default:
		c.rest(LieDown, time.Duration(c.tuning.LieDuration))
	}
}

func (c *Controller) rest(p Pose, d time.Duration) {
	c.enterPose(p)
	c.fair.MustWalkNext = true
	c.after(d, func() {
		c.enterPose(Idle)
		c.scheduleNext()
	})
}
