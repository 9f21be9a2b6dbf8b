package server

import (
	"context"
	"fmt"
	"os"

	"github.com/sethgrid/pixelpaws/internal/server/storage"
	"gopkg.in/yaml.v3"
)

// SeedCharacter is one entry of a YAML seed file.
type SeedCharacter struct {
	ID      string            `yaml:"id"`
	BaseURL string            `yaml:"baseUrl"`
	Version string            `yaml:"version"`
	Files   map[string]string `yaml:"files"`
}

// Seed is the YAML seed document.
type Seed struct {
	Characters []SeedCharacter `yaml:"characters"`
}

// LoadSeed reads and parses a seed file.
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for i, c := range seed.Characters {
		if c.ID == "" {
			return Seed{}, fmt.Errorf("seed character %d has no id", i)
		}
	}
	return seed, nil
}

// SeedFile upserts every character from the seed file at path in file order.
func SeedFile(ctx context.Context, store storage.CharacterStore, path string) (int, error) {
	seed, err := LoadSeed(path)
	if err != nil {
		return 0, err
	}
	for _, c := range seed.Characters {
		if err := store.PutCharacter(ctx, storage.Character{
			ID:      c.ID,
			BaseURL: c.BaseURL,
			Version: c.Version,
			Files:   c.Files,
		}); err != nil {
			return 0, fmt.Errorf("failed to seed %s: %w", c.ID, err)
		}
	}
	return len(seed.Characters), nil
}
