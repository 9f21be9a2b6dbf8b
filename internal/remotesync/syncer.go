// Package remotesync keeps the local pet in step with its remote device
// state: visibility and which character is shown.
package remotesync

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/sethgrid/pixelpaws/internal/art"
	"github.com/sethgrid/pixelpaws/internal/clock"
	"github.com/sethgrid/pixelpaws/internal/health"
	"github.com/sethgrid/pixelpaws/internal/pet"
	"github.com/sethgrid/pixelpaws/internal/remote"
	"github.com/sethgrid/pixelpaws/internal/storage"
)

const (
	DefaultInterval        = 3 * time.Second
	DefaultRetryInterval   = 2 * time.Second
	DefaultRequestTimeout  = 5 * time.Second
	DefaultManifestTimeout = 1500 * time.Millisecond
	DefaultStartupTimeout  = 1200 * time.Millisecond
)

// ConfigSource is the local config document. It is re-read on every tick so
// credentials changed on disk apply without a restart.
type ConfigSource interface {
	Load() (storage.Config, error)
	SetSelectedCat(id string) error
}

// Applier receives remote changes. Calls arrive through the Poster.
type Applier interface {
	SetVisible(visible bool)
	ReloadAssets(a pet.Assets)
}

type Options struct {
	HTTP            *http.Client
	Logger          *log.Logger
	Interval        time.Duration
	RetryInterval   time.Duration
	RequestTimeout  time.Duration
	ManifestTimeout time.Duration
}

// Syncer polls the backend and forwards changes to the controller.
type Syncer struct {
	cfg     ConfigSource
	poster  clock.Poster
	applier Applier
	http    *http.Client
	logger  *log.Logger

	interval        time.Duration
	retryInterval   time.Duration
	requestTimeout  time.Duration
	manifestTimeout time.Duration

	mu       sync.Mutex
	manifest *art.Manifest
}

func New(cfg ConfigSource, poster clock.Poster, applier Applier, opts Options) *Syncer {
	s := &Syncer{
		cfg:             cfg,
		poster:          poster,
		applier:         applier,
		http:            opts.HTTP,
		logger:          opts.Logger,
		interval:        opts.Interval,
		retryInterval:   opts.RetryInterval,
		requestTimeout:  opts.RequestTimeout,
		manifestTimeout: opts.ManifestTimeout,
	}
	if s.http == nil {
		s.http = &http.Client{}
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.retryInterval <= 0 {
		s.retryInterval = DefaultRetryInterval
	}
	if s.requestTimeout <= 0 {
		s.requestTimeout = DefaultRequestTimeout
	}
	if s.manifestTimeout <= 0 {
		s.manifestTimeout = DefaultManifestTimeout
	}
	return s
}

// Run waits until the config is ready, registers the device once, then ticks
// immediately and on every interval until ctx ends.
func (s *Syncer) Run(ctx context.Context) error {
	cfg, ok := s.waitReady(ctx)
	if !ok {
		return nil
	}
	s.register(ctx, cfg)

	s.Tick(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

func (s *Syncer) waitReady(ctx context.Context) (storage.Config, bool) {
	for {
		cfg, err := s.cfg.Load()
		if err != nil {
			s.logger.Printf("sync: %v", err)
		} else if report := health.CheckSync(cfg.APIBase, cfg.APIToken, cfg.DeviceID); report.Ready() {
			return cfg, true
		}

		t := time.NewTimer(s.retryInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return storage.Config{}, false
		case <-t.C:
		}
	}
}

// register upserts the device row so the backend knows about it.
func (s *Syncer) register(ctx context.Context, cfg storage.Config) {
	visible := true
	sel := cfg.SelectedCatID
	rctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()
	client := remote.New(cfg.APIBase, cfg.APIToken, s.http)
	if _, err := client.PatchDeviceState(rctx, cfg.DeviceID, remote.StatePatch{Visible: &visible, SelectedCatID: &sel}); err != nil {
		s.logger.Printf("sync: register device: %v", err)
	}
}

// Tick reconciles once. Failures are logged and the previous state kept.
func (s *Syncer) Tick(ctx context.Context) {
	if err := s.tick(ctx); err != nil {
		s.logger.Printf("sync: %v", err)
	}
}

func (s *Syncer) tick(ctx context.Context) error {
	cfg, err := s.cfg.Load()
	if err != nil {
		return err
	}
	if !health.CheckSync(cfg.APIBase, cfg.APIToken, cfg.DeviceID).Ready() {
		return nil
	}
	client := remote.New(cfg.APIBase, cfg.APIToken, s.http)

	rctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	state, err := client.DeviceState(rctx, cfg.DeviceID)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to fetch device state: %w", err)
	}

	if state.Visible != nil {
		visible := *state.Visible
		s.poster.Post(func() { s.applier.SetVisible(visible) })
	}

	if state.SelectedCatID == "" || state.SelectedCatID == cfg.SelectedCatID {
		return nil
	}
	if err := s.cfg.SetSelectedCat(state.SelectedCatID); err != nil {
		return fmt.Errorf("failed to save selection: %w", err)
	}
	s.Invalidate()

	mctx, cancel := context.WithTimeout(ctx, s.manifestTimeout)
	defer cancel()
	m, err := s.LoadManifest(mctx, client, state.SelectedCatID)
	if err != nil {
		return fmt.Errorf("failed to load manifest for %s: %w", state.SelectedCatID, err)
	}
	assets := art.Resolve(m, pet.Assets{})
	s.poster.Post(func() { s.applier.ReloadAssets(assets) })
	return nil
}

// LoadManifest returns the cached manifest for catID or fetches it.
func (s *Syncer) LoadManifest(ctx context.Context, client *remote.Client, catID string) (art.Manifest, error) {
	s.mu.Lock()
	if s.manifest != nil && s.manifest.CharacterID == catID {
		m := *s.manifest
		s.mu.Unlock()
		return m, nil
	}
	s.mu.Unlock()

	m, err := client.Manifest(ctx, catID)
	if err != nil {
		return art.Manifest{}, err
	}
	s.mu.Lock()
	s.manifest = &m
	s.mu.Unlock()
	return m, nil
}

// Invalidate drops the cached manifest.
func (s *Syncer) Invalidate() {
	s.mu.Lock()
	s.manifest = nil
	s.mu.Unlock()
}

// InitialAssets resolves start-up references for the configured character,
// falling back to the bundled set when the backend is unset or slow.
func (s *Syncer) InitialAssets(ctx context.Context, fallback pet.Assets) pet.Assets {
	cfg, err := s.cfg.Load()
	if err != nil || cfg.APIBase == "" || cfg.SelectedCatID == "" {
		return fallback
	}
	client := remote.New(cfg.APIBase, cfg.APIToken, s.http)
	mctx, cancel := context.WithTimeout(ctx, DefaultStartupTimeout)
	defer cancel()
	m, err := s.LoadManifest(mctx, client, cfg.SelectedCatID)
	if err != nil {
		s.logger.Printf("sync: start-up manifest: %v", err)
		return fallback
	}
	return art.Resolve(m, fallback)
}
