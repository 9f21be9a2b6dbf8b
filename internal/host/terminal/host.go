// Package terminal hosts the pet on a tcell screen. Every character cell
// stands for CellWidth by CellHeight screen pixels, so the controller keeps
// working in pixel coordinates.
package terminal

import (
	"context"
	"fmt"
	"log"

	"github.com/gdamore/tcell/v2"
	"github.com/sethgrid/pixelpaws/internal/art"
	"github.com/sethgrid/pixelpaws/internal/clock"
	"github.com/sethgrid/pixelpaws/internal/conditions"
	"github.com/sethgrid/pixelpaws/internal/pet"
)

const (
	CellWidth  = 8
	CellHeight = 16
)

// Input is the part of the controller the event pump drives.
type Input interface {
	PointerDown(screen pet.Position)
	PointerMove(screen pet.Position)
	PointerUp()
	Click()
	SetPanelOpen(open bool)
	Snapshot() pet.Snapshot
}

type Options struct {
	Sound  Sounder
	Logger *log.Logger
	// PanelText is drawn inside the control panel.
	PanelText func() []string
}

// Host implements the window and sprite capabilities on a terminal. Apart
// from construction, every method runs on the clock goroutine; the event
// pump posts its work there.
type Host struct {
	screen    tcell.Screen
	sound     Sounder
	logger    *log.Logger
	panelText func() []string
	input     Input

	pos      pet.Position
	size     pet.Size
	pointer  pet.Position
	pose     pet.Pose
	mirrored bool
	visible  bool

	pressed       bool
	pressOnSprite bool
}

var (
	_ pet.Window               = (*Host)(nil)
	_ pet.WorkAreaSizer        = (*Host)(nil)
	_ pet.PointerSource        = (*Host)(nil)
	_ pet.MouseEventToggler    = (*Host)(nil)
	_ pet.Resizer              = (*Host)(nil)
	_ pet.TransparencyRestorer = (*Host)(nil)
	_ pet.VisibilityToggler    = (*Host)(nil)
	_ pet.Sprite               = (*Host)(nil)
)

// New wraps an initialized screen.
func New(screen tcell.Screen, opts Options) *Host {
	h := &Host{
		screen:    screen,
		sound:     opts.Sound,
		logger:    opts.Logger,
		panelText: opts.PanelText,
		visible:   true,
	}
	if h.sound == nil {
		h.sound = silent{}
	}
	if h.logger == nil {
		h.logger = log.Default()
	}
	h.size = SpriteSize()
	return h
}

// SpriteSize is the pixel size of the largest pose frame.
func SpriteSize() pet.Size {
	w, hgt := art.Bounds()
	return pet.Size{Width: float64(w * CellWidth), Height: float64(hgt * CellHeight)}
}

// Attach lets the status line read the controller.
func (h *Host) Attach(in Input) {
	h.input = in
}

func (h *Host) SetPosition(x, y float64) {
	h.pos = pet.Position{X: x, Y: y}
	h.draw()
}

// WorkAreaSize leaves the bottom row for the status line.
func (h *Host) WorkAreaSize() pet.Size {
	w, hgt := h.screen.Size()
	if hgt > 1 {
		hgt--
	}
	return pet.Size{Width: float64(w * CellWidth), Height: float64(hgt * CellHeight)}
}

func (h *Host) PointerPosition() pet.Position {
	return h.pointer
}

// SetIgnoreMouseEvents is a no-op: a terminal always delivers the mouse.
func (h *Host) SetIgnoreMouseEvents(ignore, forward bool) {}

func (h *Host) Resize(width, height float64) {
	h.size = pet.Size{Width: width, Height: height}
	h.draw()
}

func (h *Host) RestoreTransparency() {
	h.screen.Sync()
	h.draw()
}

func (h *Host) SetVisible(visible bool) {
	h.visible = visible
	h.draw()
}

// SetAsset switches the drawn frame. The reference itself is only checked
// for presence since frames are built in.
func (h *Host) SetAsset(p pet.Pose, ref string) error {
	h.pose = p
	if p == pet.Attack {
		h.sound.Chirp()
	}
	h.draw()
	if ref == "" {
		return fmt.Errorf("no asset for pose %s", p)
	}
	return nil
}

func (h *Host) SetMirrored(mirrored bool) {
	h.mirrored = mirrored
	h.draw()
}

func (h *Host) cellOf(p pet.Position) (int, int) {
	return int(p.X) / CellWidth, int(p.Y) / CellHeight
}

// hit reports whether cell (x, y) lies on the sprite.
func (h *Host) hit(x, y int) bool {
	if !h.visible {
		return false
	}
	col, row := h.cellOf(h.pos)
	w, hgt := art.Bounds()
	return x >= col && x < col+w && y >= row && y < row+hgt
}

func (h *Host) panelOpen() bool {
	sprite := SpriteSize()
	return h.size.Width > sprite.Width || h.size.Height > sprite.Height
}

func (h *Host) draw() {
	h.screen.Clear()
	width, height := h.screen.Size()

	if h.visible {
		col, row := h.cellOf(h.pos)
		if h.panelOpen() {
			h.drawPanel(col, row)
		} else {
			style := tcell.StyleDefault.Foreground(tcell.ColorYellow)
			for dy, line := range art.Lines(art.PoseArt(h.pose), h.mirrored) {
				// Blank cells stay see-through.
				for dx, r := range []rune(line) {
					if r != ' ' {
						h.screen.SetContent(col+dx, row+dy, r, nil, style)
					}
				}
			}
		}
	}

	if height > 0 {
		status := "pixelpaws"
		if h.input != nil {
			s := conditions.DeriveStatus(h.input.Snapshot())
			status = "pixelpaws: " + conditions.FormatConditions(s.AllOrdered)
		}
		status += "   [p] panel  [q] quit"
		if len(status) > width {
			status = status[:width]
		}
		h.drawText(0, height-1, status, tcell.StyleDefault.Reverse(true))
	}
	h.screen.Show()
}

func (h *Host) drawPanel(col, row int) {
	cols := int(h.size.Width) / CellWidth
	rows := int(h.size.Height) / CellHeight
	style := tcell.StyleDefault.Foreground(tcell.ColorAqua)
	for x := col; x < col+cols; x++ {
		h.screen.SetContent(x, row, '─', nil, style)
		h.screen.SetContent(x, row+rows-1, '─', nil, style)
	}
	for y := row; y < row+rows; y++ {
		h.screen.SetContent(col, y, '│', nil, style)
		h.screen.SetContent(col+cols-1, y, '│', nil, style)
	}
	h.screen.SetContent(col, row, '┌', nil, style)
	h.screen.SetContent(col+cols-1, row, '┐', nil, style)
	h.screen.SetContent(col, row+rows-1, '└', nil, style)
	h.screen.SetContent(col+cols-1, row+rows-1, '┘', nil, style)

	lines := []string{"PixelPaws control panel", ""}
	if h.panelText != nil {
		lines = append(lines, h.panelText()...)
	}
	for i, line := range lines {
		if i >= rows-2 {
			break
		}
		if limit := cols - 4; len(line) > limit && limit > 0 {
			line = line[:limit]
		}
		h.drawText(col+2, row+1+i, line, tcell.StyleDefault)
	}
}

func (h *Host) drawText(x, y int, text string, style tcell.Style) {
	for i, r := range []rune(text) {
		h.screen.SetContent(x+i, y, r, nil, style)
	}
}

// Run pumps terminal events into the controller until the user quits or ctx
// ends. Input is handed to the clock goroutine through poster.
func (h *Host) Run(ctx context.Context, poster clock.Poster, in Input) error {
	h.screen.EnableMouse()
	poster.Post(func() {
		h.Attach(in)
		h.draw()
	})

	events := make(chan tcell.Event, 64)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := h.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if quit := h.dispatch(ev, poster, in); quit {
				h.logger.Printf("terminal host: quit requested")
				return nil
			}
		}
	}
}

func (h *Host) dispatch(ev tcell.Event, poster clock.Poster, in Input) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
			return true
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
			return true
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'p':
			poster.Post(func() {
				in.SetPanelOpen(!in.Snapshot().Guard.PanelOpen)
				h.draw()
			})
		}
	case *tcell.EventMouse:
		x, y := ev.Position()
		pressed := ev.Buttons()&tcell.Button1 != 0
		poster.Post(func() { h.handleMouse(x, y, pressed, in) })
	case *tcell.EventResize:
		poster.Post(func() {
			h.screen.Sync()
			h.draw()
		})
	}
	return false
}

// handleMouse turns button-1 transitions into pointer calls. Presses that
// start off the sprite are ignored until released.
func (h *Host) handleMouse(x, y int, pressed bool, in Input) {
	h.pointer = pet.Position{
		X: float64(x*CellWidth + CellWidth/2),
		Y: float64(y*CellHeight + CellHeight/2),
	}
	switch {
	case pressed && !h.pressed:
		h.pressed = true
		h.pressOnSprite = h.hit(x, y)
		if h.pressOnSprite {
			in.PointerDown(h.pointer)
		}
	case pressed && h.pressOnSprite:
		in.PointerMove(h.pointer)
	case !pressed && h.pressed:
		if h.pressOnSprite {
			in.PointerUp()
			in.Click()
		}
		h.pressed = false
		h.pressOnSprite = false
	}
}
