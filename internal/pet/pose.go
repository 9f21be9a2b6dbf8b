package pet

import "fmt"

// Pose is the animation the character is currently showing. Exactly one is
// active at a time.
type Pose int

const (
	Idle Pose = iota
	Walk
	Run
	Lifted
	Attack
	Sit
	LieDown
	Jump
	Land

	poseCount
)

var poseNames = [poseCount]string{
	Idle:    "idle",
	Walk:    "walk",
	Run:     "run",
	Lifted:  "lifted",
	Attack:  "attack",
	Sit:     "sit",
	LieDown: "liedown",
	Jump:    "jump",
	Land:    "land",
}

// Poses lists every pose in declaration order.
func Poses() []Pose {
	out := make([]Pose, 0, poseCount)
	for p := Idle; p < poseCount; p++ {
		out = append(out, p)
	}
	return out
}

// String returns the manifest key for the pose.
func (p Pose) String() string {
	if p < 0 || p >= poseCount {
		return fmt.Sprintf("pose(%d)", int(p))
	}
	return poseNames[p]
}

// ParsePose maps a manifest key back to a pose.
func ParsePose(name string) (Pose, error) {
	for p := Idle; p < poseCount; p++ {
		if poseNames[p] == name {
			return p, nil
		}
	}
	return Idle, fmt.Errorf("unknown pose %q", name)
}

// Resting reports whether the pose is one of the timed rest poses.
func (p Pose) Resting() bool {
	return p == Sit || p == LieDown
}

// Assets holds one asset reference per pose.
type Assets [poseCount]string

// Ref returns the reference for p.
func (a Assets) Ref(p Pose) string {
	if p < 0 || p >= poseCount {
		return ""
	}
	return a[p]
}

// Merge returns a copy of a with every non-empty reference of b applied.
func (a Assets) Merge(b Assets) Assets {
	for i, ref := range b {
		if ref != "" {
			a[i] = ref
		}
	}
	return a
}

// Complete reports whether every pose has a reference.
func (a Assets) Complete() bool {
	for _, ref := range a {
		if ref == "" {
			return false
		}
	}
	return true
}
