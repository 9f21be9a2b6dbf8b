package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sethgrid/pixelpaws/internal/server/storage/sqlite"
)

// Config is read from the environment; cobra flags may override it.
type Config struct {
	Addr              string        `env:"PIXELPAWS_ADDR" envDefault:"127.0.0.1:8000"`
	DBPath            string        `env:"PIXELPAWS_DB" envDefault:"pixelpaws.db"`
	Token             string        `env:"PIXELPAWS_TOKEN"`
	SeedPath          string        `env:"PIXELPAWS_SEED"`
	ReadHeaderTimeout time.Duration `env:"PIXELPAWS_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout   time.Duration `env:"PIXELPAWS_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// ParseEnv loads Config from environment variables.
func ParseEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Server hosts the backend API on top of a SQLite store.
type Server struct {
	cfg        Config
	store      *sqlite.Store
	httpServer *http.Server
	logger     *log.Logger
}

// New opens the store, applies the seed file if any and builds the HTTP
// server. Close releases the store.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 5 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if cfg.SeedPath != "" {
		n, err := SeedFile(ctx, store, cfg.SeedPath)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		logger.Printf("seeded %d characters from %s", n, cfg.SeedPath)
	}

	return &Server{
		cfg:    cfg,
		store:  store,
		logger: logger,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewHandler(store, cfg.Token, logger),
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
	}, nil
}

// ListenAndServe binds the configured address and serves until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs on ln until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	serveErr := make(chan error, 1)
	s.logger.Printf("backend listening on %s", ln.Addr())
	go func() {
		serveErr <- s.httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases the store.
func (s *Server) Close() error {
	if s == nil {
		return nil
	}
	return s.store.Close()
}
