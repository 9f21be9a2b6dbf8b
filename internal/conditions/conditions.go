package conditions

import (
	"github.com/sethgrid/pixelpaws/internal/pet"
)

type Condition string

const (
	CondHidden    Condition = "hidden"
	CondPanelOpen Condition = "panel-open"
	CondDragged   Condition = "dragged"
	CondJumping   Condition = "jumping"
	CondChasing   Condition = "chasing"
	CondPouncing  Condition = "pouncing"
	CondWalking   Condition = "walking"
	CondResting   Condition = "resting"
	CondRestless  Condition = "restless"
	CondIdle      Condition = "idle"
)

type DerivedStatus struct {
	Conditions map[Condition]bool
	Primary    Condition
	AllOrdered []Condition
}

func DeriveStatus(s pet.Snapshot) DerivedStatus {
	conds := make(map[Condition]bool)
	var allOrdered []Condition
	add := func(c Condition) {
		if !conds[c] {
			conds[c] = true
			allOrdered = append(allOrdered, c)
		}
	}

	// Priority 1: hidden
	if !s.Visible {
		add(CondHidden)
	}

	// Priority 2: panel-open
	if s.Guard.PanelOpen {
		add(CondPanelOpen)
	}

	// Priority 3: interaction
	if s.Guard.Dragging {
		add(CondDragged)
	}
	if s.Guard.Jumping {
		add(CondJumping)
	}
	if s.Guard.Chasing {
		add(CondChasing)
	}
	if s.Pose == pet.Attack {
		add(CondPouncing)
	}

	// Priority 4: autonomous behavior
	if s.Walking() {
		add(CondWalking)
	}
	if s.Pose.Resting() {
		add(CondResting)
	}
	if s.Fairness.MustWalkNext {
		add(CondRestless)
	}

	if len(allOrdered) == 0 {
		add(CondIdle)
	}

	return DerivedStatus{
		Conditions: conds,
		Primary:    allOrdered[0],
		AllOrdered: allOrdered,
	}
}

// FormatConditions formats a slice of conditions into a comma-separated string.
// Returns "idle" if the slice is empty.
// Special handling: if "panel-open" is present, all other conditions are ignored
// except "hidden", which is appended as "and hidden".
func FormatConditions(conds []Condition) string {
	if len(conds) == 0 {
		return "idle"
	}

	hasPanel := false
	hidden := false
	for _, c := range conds {
		if c == CondPanelOpen {
			hasPanel = true
		}
		if c == CondHidden {
			hidden = true
		}
	}

	if hasPanel {
		if hidden {
			return "panel-open and hidden"
		}
		return "panel-open"
	}

	var parts []string
	for _, c := range conds {
		if c == CondHidden {
			continue
		}
		parts = append(parts, string(c))
	}

	if len(parts) == 0 {
		return "hidden"
	}

	result := parts[0]
	for i := 1; i < len(parts); i++ {
		result += ", " + parts[i]
	}
	if hidden {
		result += " and hidden"
	}
	return result
}
