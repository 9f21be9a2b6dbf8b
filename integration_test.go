package main

import (
	"context"
	"io"
	"log"
	"math/rand"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/sethgrid/pixelpaws/internal/art"
	"github.com/sethgrid/pixelpaws/internal/clock"
	"github.com/sethgrid/pixelpaws/internal/host/terminal"
	"github.com/sethgrid/pixelpaws/internal/pet"
	"github.com/sethgrid/pixelpaws/internal/remote"
	"github.com/sethgrid/pixelpaws/internal/remotesync"
	"github.com/sethgrid/pixelpaws/internal/server"
	serverstorage "github.com/sethgrid/pixelpaws/internal/server/storage"
	"github.com/sethgrid/pixelpaws/internal/server/storage/sqlite"
	"github.com/sethgrid/pixelpaws/internal/storage"
)

const testToken = "integration-token"

var quiet = log.New(io.Discard, "", 0)

// startBackend serves the real handler over a temp SQLite database.
func startBackend(t *testing.T) (*httptest.Server, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "backend.db"))
	if err != nil {
		t.Fatalf("Failed to open backend store: %v", err)
	}
	srv := httptest.NewServer(server.NewHandler(store, testToken, quiet))
	t.Cleanup(func() {
		srv.Close()
		_ = store.Close()
	})
	return srv, store
}

func putCat(t *testing.T, store *sqlite.Store, id string, skip ...pet.Pose) {
	t.Helper()
	files := make(map[string]string)
	for _, p := range pet.Poses() {
		files[p.String()] = id + "_" + p.String() + ".gif"
	}
	for _, p := range skip {
		delete(files, p.String())
	}
	err := store.PutCharacter(context.Background(), serverstorage.Character{
		ID:      id,
		BaseURL: "https://cdn.test/cats/" + id,
		Version: "v2",
		Files:   files,
	})
	if err != nil {
		t.Fatalf("Failed to store cat %s: %v", id, err)
	}
}

func writeConfig(t *testing.T, cfg storage.Config) *storage.Store {
	t.Helper()
	s := storage.NewStore(filepath.Join(t.TempDir(), ".pixelpaws", "config.toml"))
	if err := s.Save(cfg); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
	return s
}

func newTerminalPet(t *testing.T, clk clock.Scheduler, assets pet.Assets) (*pet.Controller, *terminal.Host) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Failed to init screen: %v", err)
	}
	screen.SetSize(80, 25)
	t.Cleanup(screen.Fini)

	host := terminal.New(screen, terminal.Options{Logger: quiet})
	sprite := terminal.SpriteSize()
	ctrl := pet.New(clk, host, host, pet.Options{
		Tuning: pet.Tuning{SpriteWidth: sprite.Width, SpriteHeight: sprite.Height},
		Assets: assets,
		Rand:   rand.New(rand.NewSource(7)),
		Logger: quiet,
	})
	host.Attach(ctrl)
	return ctrl, host
}

func TestRemoteStateDrivesTerminalPet(t *testing.T) {
	srv, store := startBackend(t)
	putCat(t, store, "02")
	cfgStore := writeConfig(t, storage.Config{APIBase: srv.URL, APIToken: testToken, DeviceID: "desk-1"})

	clk := clock.NewManual(time.Unix(0, 0), 0)
	ctrl, _ := newTerminalPet(t, clk, art.Bundled(""))
	ctrl.Start()
	clk.Advance(pet.DefaultFirstDelay)

	if got := ctrl.Pose(); got != pet.Walk {
		t.Fatalf("Expected first behavior to be walk, got %s", got)
	}
	if asset := ctrl.Snapshot().Asset; !strings.HasPrefix(asset, "catset_assets/") {
		t.Fatalf("Expected bundled asset before sync, got %q", asset)
	}

	ctx := context.Background()
	client := remote.New(srv.URL, testToken, nil)
	hidden, sel := false, "02"
	if _, err := client.PatchDeviceState(ctx, "desk-1", remote.StatePatch{Visible: &hidden, SelectedCatID: &sel}); err != nil {
		t.Fatalf("Failed to patch device: %v", err)
	}

	syncer := remotesync.New(cfgStore, clk, ctrl, remotesync.Options{Logger: quiet})
	syncer.Tick(ctx)

	snap := ctrl.Snapshot()
	if snap.Visible {
		t.Error("Expected pet to be hidden after sync")
	}
	want := "https://cdn.test/cats/02/02_" + snap.Pose.String() + ".gif"
	if snap.Asset != want {
		t.Errorf("Expected asset %q, got %q", want, snap.Asset)
	}
	cfg, err := cfgStore.Load()
	if err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}
	if cfg.SelectedCatID != "02" {
		t.Errorf("Expected selection 02 to be saved, got %q", cfg.SelectedCatID)
	}

	// Hiding never pauses the behavior engine.
	clk.Advance(5 * time.Second)
	if !ctrl.Snapshot().PendingTimer && !ctrl.Snapshot().PendingFrame {
		t.Error("Expected behavior engine to keep running while hidden")
	}

	shown := true
	if _, err := client.PatchDeviceState(ctx, "desk-1", remote.StatePatch{Visible: &shown}); err != nil {
		t.Fatalf("Failed to patch device: %v", err)
	}
	syncer.Tick(ctx)
	if !ctrl.Snapshot().Visible {
		t.Error("Expected pet to be visible again")
	}
}

func TestStartupAssetsFallBackPerPose(t *testing.T) {
	srv, store := startBackend(t)
	putCat(t, store, "03", pet.Land)
	cfgStore := writeConfig(t, storage.Config{APIBase: srv.URL, APIToken: testToken, DeviceID: "desk-2", SelectedCatID: "03"})

	syncer := remotesync.New(cfgStore, clock.NewManual(time.Unix(0, 0), 0), nil, remotesync.Options{Logger: quiet})
	bundled := art.Bundled("")
	assets := syncer.InitialAssets(context.Background(), bundled)

	for _, p := range pet.Poses() {
		got := assets.Ref(p)
		if p == pet.Land {
			if got != bundled.Ref(pet.Land) {
				t.Errorf("Expected land to keep bundled ref %q, got %q", bundled.Ref(pet.Land), got)
			}
			continue
		}
		if want := "https://cdn.test/cats/03/03_" + p.String() + ".gif"; got != want {
			t.Errorf("Pose %s: expected %q, got %q", p, want, got)
		}
	}
}

func TestStartupWithoutBackendUsesBundledSet(t *testing.T) {
	cfgStore := writeConfig(t, storage.Config{SelectedCatID: "02"})
	syncer := remotesync.New(cfgStore, clock.NewManual(time.Unix(0, 0), 0), nil, remotesync.Options{Logger: quiet})

	bundled := art.Bundled("")
	if got := syncer.InitialAssets(context.Background(), bundled); got != bundled {
		t.Errorf("Expected bundled assets, got %v", got)
	}
	if !bundled.Complete() {
		t.Error("Expected bundled set to cover every pose")
	}
}

func TestPanelPausesAndResumesBehavior(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0), 0)
	ctrl, _ := newTerminalPet(t, clk, art.Bundled(""))
	ctrl.Start()
	clk.Advance(pet.DefaultFirstDelay)

	ctrl.SetPanelOpen(true)
	if got := ctrl.Pose(); got != pet.Idle {
		t.Fatalf("Expected idle while panel is open, got %s", got)
	}
	clk.Advance(30 * time.Second)
	if got := ctrl.Pose(); got != pet.Idle {
		t.Errorf("Expected scheduler to stay quiet with panel open, got %s", got)
	}

	ctrl.SetPanelOpen(false)
	clk.Advance(pet.DefaultMaxDelay + time.Second)
	if got := ctrl.Pose(); got == pet.Idle && !ctrl.Snapshot().PendingTimer {
		t.Error("Expected scheduler to resume after panel closed")
	}
}
