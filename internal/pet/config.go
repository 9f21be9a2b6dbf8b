package pet

import (
	"fmt"
	"time"
)

const (
	DefaultSpriteSize    = 128
	DefaultPanelWidth    = 360
	DefaultPanelHeight   = 480
	DefaultFirstDelay    = 400 * time.Millisecond
	DefaultMinDelay      = 1200 * time.Millisecond
	DefaultMaxDelay      = 3000 * time.Millisecond
	DefaultSitDuration   = time.Minute
	DefaultLieDuration   = time.Minute
	DefaultJumpDuration  = 600 * time.Millisecond
	DefaultJumpHeight    = 24
	DefaultLandDuration  = 400 * time.Millisecond
	DefaultAttackDelay   = 700 * time.Millisecond
	DefaultChaseDuration = 5 * time.Second
	DefaultWalkSpeed     = 2
	DefaultChaseSpeed    = 5
	DefaultDragThreshold = 8
	DefaultPointerPoll   = 16 * time.Millisecond
	DefaultWorkWidth     = 1920
	DefaultWorkHeight    = 1080
)

// The behavior mix is fixed: walk 60%, sit 20%, lie down 20%.
const (
	walkChance = 0.6
	sitChance  = 0.8
)

// Duration is a time.Duration that reads and writes as "1.5s" in config files.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// Tuning holds the timing and distance knobs of the behavior engine. Zero
// fields fall back to the defaults above.
type Tuning struct {
	SpriteWidth   float64  `toml:"spriteWidth,omitempty"`
	SpriteHeight  float64  `toml:"spriteHeight,omitempty"`
	PanelWidth    float64  `toml:"panelWidth,omitempty"`
	PanelHeight   float64  `toml:"panelHeight,omitempty"`
	FirstDelay    Duration `toml:"firstDelay,omitempty"`
	MinDelay      Duration `toml:"minDelay,omitempty"`
	MaxDelay      Duration `toml:"maxDelay,omitempty"`
	SitDuration   Duration `toml:"sitDuration,omitempty"`
	LieDuration   Duration `toml:"lieDuration,omitempty"`
	JumpDuration  Duration `toml:"jumpDuration,omitempty"`
	JumpHeight    float64  `toml:"jumpHeight,omitempty"`
	LandDuration  Duration `toml:"landDuration,omitempty"`
	AttackDelay   Duration `toml:"attackDelay,omitempty"`
	ChaseDuration Duration `toml:"chaseDuration,omitempty"`
	WalkSpeed     float64  `toml:"walkSpeed,omitempty"`
	ChaseSpeed    float64  `toml:"chaseSpeed,omitempty"`
	DragThreshold float64  `toml:"dragThreshold,omitempty"`
	PointerPoll   Duration `toml:"pointerPoll,omitempty"`
}

// WithDefaults fills every zero field.
func (t Tuning) WithDefaults() Tuning {
	setF := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	setD := func(v *Duration, def time.Duration) {
		if *v <= 0 {
			*v = Duration(def)
		}
	}

	setF(&t.SpriteWidth, DefaultSpriteSize)
	setF(&t.SpriteHeight, DefaultSpriteSize)
	setF(&t.PanelWidth, DefaultPanelWidth)
	setF(&t.PanelHeight, DefaultPanelHeight)
	setD(&t.FirstDelay, DefaultFirstDelay)
	setD(&t.MinDelay, DefaultMinDelay)
	setD(&t.MaxDelay, DefaultMaxDelay)
	setD(&t.SitDuration, DefaultSitDuration)
	setD(&t.LieDuration, DefaultLieDuration)
	setD(&t.JumpDuration, DefaultJumpDuration)
	setF(&t.JumpHeight, DefaultJumpHeight)
	setD(&t.LandDuration, DefaultLandDuration)
	setD(&t.AttackDelay, DefaultAttackDelay)
	setD(&t.ChaseDuration, DefaultChaseDuration)
	setF(&t.WalkSpeed, DefaultWalkSpeed)
	setF(&t.ChaseSpeed, DefaultChaseSpeed)
	setF(&t.DragThreshold, DefaultDragThreshold)
	setD(&t.PointerPoll, DefaultPointerPoll)

	if t.MaxDelay < t.MinDelay {
		t.MaxDelay = t.MinDelay
	}
	return t
}
