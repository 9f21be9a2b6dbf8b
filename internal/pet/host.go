package pet

// Position is a point in screen coordinates.
type Position struct {
	X float64
	Y float64
}

// Size is a width and height in screen coordinates.
type Size struct {
	Width  float64
	Height float64
}

// Window is the only host capability the controller cannot run without.
// Everything else is discovered through the optional interfaces below and
// silently skipped when the host does not provide it.
type Window interface {
	SetPosition(x, y float64)
}

type WorkAreaSizer interface {
	WorkAreaSize() Size
}

type PointerSource interface {
	PointerPosition() Position
}

type MouseEventToggler interface {
	SetIgnoreMouseEvents(ignore, forward bool)
}

type Resizer interface {
	Resize(width, height float64)
}

type TransparencyRestorer interface {
	RestoreTransparency()
}

type VisibilityToggler interface {
	SetVisible(visible bool)
}

// Sprite displays the asset for a pose. SetAsset returns an error when the
// reference cannot be loaded; the pose stays set regardless.
type Sprite interface {
	SetAsset(p Pose, ref string) error
	SetMirrored(mirrored bool)
}
