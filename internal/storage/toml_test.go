package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sethgrid/pixelpaws/internal/pet"
)

func TestLoadMissingUsesEnv(t *testing.T) {
	t.Setenv("PIXELPAWS_API_BASE", "http://api.test")
	t.Setenv("PIXELPAWS_API_TOKEN", "secret")
	t.Setenv("PIXELPAWS_WEB_BASE", "http://web.test")

	s := NewStore(filepath.Join(t.TempDir(), "config.toml"))
	cfg, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBase != "http://api.test" || cfg.APIToken != "secret" {
		t.Errorf("Load() = %+v, want env defaults", cfg)
	}
}

func TestSaveLoadKeepsWholeDocument(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nested", "config.toml"))
	tuning := pet.Tuning{WalkSpeed: 3, SitDuration: pet.Duration(30 * time.Second)}
	want := Config{
		APIBase:       "http://api.test",
		APIToken:      "secret",
		SelectedCatID: "01",
		DeviceID:      "dev-1",
		WebBase:       "http://web.test",
		Behavior:      &tuning,
	}
	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := s.SetSelectedCat("02"); err != nil {
		t.Fatalf("SetSelectedCat: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.SelectedCatID != "02" {
		t.Errorf("SelectedCatID = %q, want %q", got.SelectedCatID, "02")
	}
	if got.APIBase != want.APIBase || got.APIToken != want.APIToken || got.DeviceID != want.DeviceID || got.WebBase != want.WebBase {
		t.Errorf("SetSelectedCat dropped fields: %+v", got)
	}
	if got.Behavior == nil || got.Behavior.WalkSpeed != 3 || time.Duration(got.Behavior.SitDuration) != 30*time.Second {
		t.Errorf("Behavior = %+v, want overrides kept", got.Behavior)
	}
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("apiBase = [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(path).Load(); err == nil {
		t.Error("Load() accepted malformed TOML")
	}
}

func TestEnsureDeviceIDIsStable(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "config.toml"))
	first, err := s.EnsureDeviceID()
	if err != nil {
		t.Fatalf("EnsureDeviceID: %v", err)
	}
	if first == "" {
		t.Fatal("EnsureDeviceID returned an empty id")
	}
	second, err := s.EnsureDeviceID()
	if err != nil {
		t.Fatalf("EnsureDeviceID: %v", err)
	}
	if first != second {
		t.Errorf("EnsureDeviceID = %q then %q, want stable", first, second)
	}
}

func TestControlURL(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		expected string
	}{
		{name: "no web base", cfg: Config{DeviceID: "d"}, expected: ""},
		{name: "no device", cfg: Config{WebBase: "http://web"}, expected: ""},
		{name: "trailing slash", cfg: Config{WebBase: "http://web/", DeviceID: "d1"}, expected: "http://web/?device=d1"},
		{name: "escaped id", cfg: Config{WebBase: "http://web", DeviceID: "a b"}, expected: "http://web/?device=a+b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.ControlURL(); got != tt.expected {
				t.Errorf("ControlURL() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestConfigSet(t *testing.T) {
	var cfg Config
	for _, key := range []string{"apiBase", "apiToken", "selectedCatId", "deviceId", "webBase"} {
		if err := cfg.Set(key, "v-"+key); err != nil {
			t.Errorf("Set(%q) = %v", key, err)
		}
	}
	if cfg.SelectedCatID != "v-selectedCatId" || cfg.WebBase != "v-webBase" {
		t.Errorf("Set did not assign fields: %+v", cfg)
	}
	if err := cfg.Set("nope", "x"); err == nil || !strings.Contains(err.Error(), "nope") {
		t.Errorf("Set(nope) = %v, want unknown key error", err)
	}
}
