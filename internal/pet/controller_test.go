package pet

import (
	"errors"
	"io"
	"log"
	"math/rand"
	"testing"
	"time"

	"github.com/sethgrid/pixelpaws/internal/clock"
)

type fakeHost struct {
	positions []Position
	poses     []Pose
	refs      []string
	mirrored  bool
	visible   bool
	pointer   Position
	work      Size
	resized   []Size
	restored  int
	ignores   int
	failRef   string
}

func (h *fakeHost) SetPosition(x, y float64) {
	h.positions = append(h.positions, Position{X: x, Y: y})
}

func (h *fakeHost) WorkAreaSize() Size             { return h.work }
func (h *fakeHost) PointerPosition() Position      { return h.pointer }
func (h *fakeHost) SetIgnoreMouseEvents(_, _ bool) { h.ignores++ }
func (h *fakeHost) Resize(w, hh float64)           { h.resized = append(h.resized, Size{w, hh}) }
func (h *fakeHost) RestoreTransparency()           { h.restored++ }
func (h *fakeHost) SetVisible(v bool)              { h.visible = v }
func (h *fakeHost) SetMirrored(m bool)             { h.mirrored = m }

func (h *fakeHost) SetAsset(p Pose, ref string) error {
	h.poses = append(h.poses, p)
	h.refs = append(h.refs, ref)
	if h.failRef != "" && ref == h.failRef {
		return errors.New("not found")
	}
	return nil
}

func (h *fakeHost) last() Position {
	return h.positions[len(h.positions)-1]
}

func (h *fakeHost) count(p Pose) int {
	n := 0
	for _, q := range h.poses {
		if q == p {
			n++
		}
	}
	return n
}

func testAssets(prefix string) Assets {
	var a Assets
	for _, p := range Poses() {
		a[p] = prefix + p.String() + ".gif"
	}
	return a
}

func newTestController(t *testing.T, tuning Tuning, seed int64) (*Controller, *clock.Manual, *fakeHost) {
	t.Helper()
	clk := clock.NewManual(time.Unix(1700000000, 0), 16*time.Millisecond)
	host := &fakeHost{work: Size{Width: 1920, Height: 1080}}
	ctrl := New(clk, host, host, Options{
		Tuning: tuning,
		Assets: testAssets("a/"),
		Rand:   rand.New(rand.NewSource(seed)),
		Logger: log.New(io.Discard, "", 0),
	})
	ctrl.work = host.work
	return ctrl, clk, host
}

func TestStartWalksFirst(t *testing.T) {
	ctrl, clk, host := newTestController(t, Tuning{}, 1)
	ctrl.Start()

	if ctrl.Pose() != Idle {
		t.Fatalf("pose after Start = %v, want idle", ctrl.Pose())
	}
	if len(host.positions) != 1 {
		t.Fatalf("expected the initial placement, got %d positions", len(host.positions))
	}

	clk.Advance(DefaultFirstDelay - time.Millisecond)
	if ctrl.Pose() != Idle {
		t.Fatalf("pose before first delay = %v, want idle", ctrl.Pose())
	}
	clk.Advance(time.Millisecond)
	if ctrl.Pose() != Walk {
		t.Fatalf("pose after first delay = %v, want walk", ctrl.Pose())
	}
	snap := ctrl.Snapshot()
	if !snap.Walking() || snap.Fairness.MustWalkNext || !snap.Fairness.FirstBehaviorTaken {
		t.Errorf("unexpected snapshot after first walk: %+v", snap)
	}
}

func TestFirstDelayOnlyOnce(t *testing.T) {
	ctrl, clk, _ := newTestController(t, Tuning{}, 2)
	ctrl.enterPose(Idle)
	ctrl.scheduleNext()
	clk.Advance(DefaultFirstDelay)
	if ctrl.Pose() == Idle {
		t.Fatal("first behavior did not fire after the short delay")
	}

	ctrl.enterPose(Idle)
	ctrl.scheduleNext()
	clk.Advance(DefaultMinDelay - time.Millisecond)
	if ctrl.Pose() != Idle {
		t.Errorf("second behavior fired before the minimum delay, pose = %v", ctrl.Pose())
	}
}

func TestEnterPoseCancelsPending(t *testing.T) {
	ctrl, clk, _ := newTestController(t, Tuning{}, 3)
	ctrl.startWalk(Position{X: 500, Y: 500})
	if clk.PendingFrames() != 1 {
		t.Fatalf("PendingFrames = %d, want 1", clk.PendingFrames())
	}
	ctrl.rest(Sit, time.Second)
	if clk.PendingFrames() != 0 {
		t.Errorf("walk frame survived a pose change")
	}
	if clk.PendingTimers() != 1 {
		t.Errorf("PendingTimers = %d, want 1", clk.PendingTimers())
	}
	ctrl.enterPose(Lifted)
	if clk.PendingTimers() != 0 {
		t.Errorf("sit timer survived a pose change")
	}
}

func TestNeverTwoLoopsAtOnce(t *testing.T) {
	tuning := Tuning{
		MinDelay:      Duration(time.Millisecond),
		MaxDelay:      Duration(5 * time.Millisecond),
		SitDuration:   Duration(30 * time.Millisecond),
		LieDuration:   Duration(30 * time.Millisecond),
		ChaseDuration: Duration(200 * time.Millisecond),
	}
	ctrl, clk, host := newTestController(t, tuning, 4)
	host.work = Size{Width: 400, Height: 300}
	ctrl.Start()

	for i := 0; i < 3000; i++ {
		if i%500 == 250 {
			ctrl.Click()
		}
		clk.Step()
		snap := ctrl.Snapshot()
		if snap.PendingTimer && snap.PendingFrame {
			t.Fatalf("step %d: pose %v has both a timer and a frame pending", i, snap.Pose)
		}
		if clk.PendingFrames() > 1 {
			t.Fatalf("step %d: %d frame callbacks pending", i, clk.PendingFrames())
		}
		if snap.Guard.Dragging && snap.Guard.Chasing {
			t.Fatalf("step %d: dragging and chasing at once", i)
		}
	}
}

func TestReloadAssetsSwapsCurrentPose(t *testing.T) {
	ctrl, _, host := newTestController(t, Tuning{}, 5)
	ctrl.rest(Sit, time.Minute)

	next := testAssets("b/")
	next[Jump] = ""
	ctrl.ReloadAssets(next)

	if got := host.refs[len(host.refs)-1]; got != "b/sit.gif" {
		t.Errorf("displayed asset = %q, want b/sit.gif", got)
	}
	if ctrl.Pose() != Sit {
		t.Errorf("reload changed pose to %v", ctrl.Pose())
	}
	if got := ctrl.assets.Ref(Jump); got != "a/jump.gif" {
		t.Errorf("missing reference replaced: jump = %q", got)
	}
	if !ctrl.Snapshot().PendingTimer {
		t.Error("reload canceled the rest timer")
	}
}

func TestAssetLoadFailureKeepsPose(t *testing.T) {
	ctrl, _, host := newTestController(t, Tuning{}, 6)
	host.failRef = "a/lifted.gif"
	ctrl.enterPose(Lifted)
	if ctrl.Pose() != Lifted {
		t.Errorf("pose = %v, want lifted", ctrl.Pose())
	}
	if got := ctrl.Snapshot().Asset; got != "a/lifted.gif" {
		t.Errorf("asset = %q, want the unreachable reference", got)
	}
}

func TestPanelSuppressesScheduler(t *testing.T) {
	ctrl, clk, host := newTestController(t, Tuning{}, 7)
	ctrl.Start()
	ctrl.SetPanelOpen(true)

	clk.Advance(time.Minute)
	if ctrl.Pose() != Idle {
		t.Fatalf("pose with panel open = %v, want idle", ctrl.Pose())
	}
	if len(host.resized) != 1 || host.resized[0] != (Size{DefaultPanelWidth, DefaultPanelHeight}) {
		t.Errorf("resized = %v, want the panel size", host.resized)
	}

	ctrl.SetPanelOpen(false)
	if host.restored != 1 {
		t.Errorf("RestoreTransparency called %d times, want 1", host.restored)
	}
	clk.Advance(DefaultMaxDelay)
	if ctrl.Pose() == Idle {
		t.Error("scheduler did not resume after the panel closed")
	}
}

func TestPanelIgnoresClickAndDrag(t *testing.T) {
	ctrl, clk, host := newTestController(t, Tuning{}, 9)
	host.pointer = Position{20, 20}
	ctrl.Start()
	ctrl.SetPanelOpen(true)
	anchor := ctrl.pos

	ctrl.PointerDown(Position{anchor.X + 5, anchor.Y + 5})
	ctrl.PointerMove(Position{anchor.X + 80, anchor.Y + 80})
	ctrl.PointerUp()
	ctrl.Click()
	clk.Advance(1100 * time.Millisecond)

	if ctrl.Pose() != Idle {
		t.Errorf("pose with panel open = %v, want idle", ctrl.Pose())
	}
	if ctrl.guard.Chasing || ctrl.guard.Jumping || ctrl.guard.Dragging {
		t.Errorf("guard = %+v, want no interaction while the panel is open", ctrl.guard)
	}
	if got := clk.PendingFrames(); got != 0 {
		t.Errorf("PendingFrames = %d, want 0", got)
	}
	if ctrl.pos != anchor || host.last() != anchor {
		t.Errorf("panel moved from %v to %v (window %v)", anchor, ctrl.pos, host.last())
	}
	if got := host.count(Jump); got != 0 {
		t.Errorf("entered jump %d times, want 0", got)
	}
}

func TestPanelMidJumpRestoresWindow(t *testing.T) {
	ctrl, clk, host := newTestController(t, Tuning{}, 10)
	ctrl.pos = Position{100, 500}
	ctrl.enterPose(Idle)

	ctrl.Click()
	clk.Advance(300 * time.Millisecond)
	if host.last().Y >= 500 {
		t.Fatalf("window y mid-jump = %v, want above 500", host.last().Y)
	}

	ctrl.SetPanelOpen(true)
	if host.last() != ctrl.pos {
		t.Errorf("window = %v, want the controller position %v", host.last(), ctrl.pos)
	}
	if ctrl.pos.Y != 500 {
		t.Errorf("y = %v, want the baseline", ctrl.pos.Y)
	}
}

type bareWindow struct {
	last Position
}

func (w *bareWindow) SetPosition(x, y float64) { w.last = Position{x, y} }

type bareSprite struct{}

func (bareSprite) SetAsset(Pose, string) error { return nil }
func (bareSprite) SetMirrored(bool)            {}

func TestMissingCapabilitiesAreSkipped(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0), 16*time.Millisecond)
	win := &bareWindow{}
	ctrl := New(clk, win, bareSprite{}, Options{Rand: rand.New(rand.NewSource(8))})
	ctrl.Start()

	if ctrl.work != (Size{DefaultWorkWidth, DefaultWorkHeight}) {
		t.Errorf("work area = %v, want the default", ctrl.work)
	}
	ctrl.SetVisible(false)
	ctrl.SetPanelOpen(true)
	ctrl.SetPanelOpen(false)
	ctrl.PointerDown(Position{X: win.last.X + 1, Y: win.last.Y + 1})
	ctrl.PointerUp()
	clk.Advance(10 * time.Second)
	ctrl.Stop()
}
