package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"github.com/sethgrid/pixelpaws/internal/pet"
)

// Config is the local persisted document. It is always read and written as a
// whole.
type Config struct {
	APIBase       string      `toml:"apiBase"`
	APIToken      string      `toml:"apiToken"`
	SelectedCatID string      `toml:"selectedCatId"`
	DeviceID      string      `toml:"deviceId"`
	WebBase       string      `toml:"webBase"`
	Behavior      *pet.Tuning `toml:"behavior,omitempty"`
}

// envDefaults seeds a config that has never been written.
type envDefaults struct {
	APIBase  string `env:"PIXELPAWS_API_BASE"`
	APIToken string `env:"PIXELPAWS_API_TOKEN"`
	WebBase  string `env:"PIXELPAWS_WEB_BASE"`
}

// Tuning returns the behavior overrides with defaults applied.
func (c Config) Tuning() pet.Tuning {
	if c.Behavior == nil {
		return pet.Tuning{}.WithDefaults()
	}
	return c.Behavior.WithDefaults()
}

// ControlURL links to the web control panel for this device, or "" without
// a web base.
func (c Config) ControlURL() string {
	base := strings.TrimSpace(c.WebBase)
	if base == "" || c.DeviceID == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/?device=" + url.QueryEscape(c.DeviceID)
}

// Store reads and writes the config document at Path.
type Store struct {
	Path string
}

func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load reads the document. A missing file yields env defaults.
func (s *Store) Load() (Config, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return defaultConfig()
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes the whole document.
func (s *Store) Save(cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(s.Path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Update loads, applies fn and saves.
func (s *Store) Update(fn func(*Config) error) (Config, error) {
	cfg, err := s.Load()
	if err != nil {
		return Config{}, err
	}
	if err := fn(&cfg); err != nil {
		return Config{}, err
	}
	if err := s.Save(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetSelectedCat persists a new character selection.
func (s *Store) SetSelectedCat(id string) error {
	_, err := s.Update(func(cfg *Config) error {
		cfg.SelectedCatID = id
		return nil
	})
	return err
}

// EnsureDeviceID returns the persisted device id, generating and saving one
// the first time.
func (s *Store) EnsureDeviceID() (string, error) {
	cfg, err := s.Load()
	if err != nil {
		return "", err
	}
	if cfg.DeviceID != "" {
		return cfg.DeviceID, nil
	}
	cfg.DeviceID = uuid.NewString()
	if err := s.Save(cfg); err != nil {
		return "", err
	}
	return cfg.DeviceID, nil
}

// Set assigns one field by its document key.
func (c *Config) Set(key, value string) error {
	switch key {
	case "apiBase":
		c.APIBase = value
	case "apiToken":
		c.APIToken = value
	case "selectedCatId":
		c.SelectedCatID = value
	case "deviceId":
		c.DeviceID = value
	case "webBase":
		c.WebBase = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

func defaultConfig() (Config, error) {
	var d envDefaults
	if err := env.Parse(&d); err != nil {
		return Config{}, fmt.Errorf("failed to parse env: %w", err)
	}
	return Config{
		APIBase:  d.APIBase,
		APIToken: d.APIToken,
		WebBase:  d.WebBase,
	}, nil
}
