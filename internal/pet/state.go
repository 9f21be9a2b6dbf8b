package pet

import (
	"time"
)

// Guard is the interaction state that sits beside the pose. Dragging and
// Chasing are never both true.
type Guard struct {
	Dragging   bool
	DragMoved  bool
	Chasing    bool
	ChaseUntil time.Time
	Jumping    bool
	PanelOpen  bool
}

// Suppressed reports whether autonomous scheduling must stand down.
func (g Guard) Suppressed() bool {
	return g.Dragging || g.Chasing || g.PanelOpen
}

// Fairness keeps the scheduler from resting twice in a row.
type Fairness struct {
	MustWalkNext       bool
	FirstBehaviorTaken bool
}

// Snapshot is a copy of the controller state for status displays and tests.
type Snapshot struct {
	Pose         Pose
	Position     Position
	Target       Position
	Pointer      Position
	WorkArea     Size
	Mirrored     bool
	Visible      bool
	Guard        Guard
	Fairness     Fairness
	Asset        string
	PendingTimer bool
	PendingFrame bool
}

// Walking mirrors the pose; it is true only in Walk.
func (s Snapshot) Walking() bool {
	return s.Pose == Walk
}
