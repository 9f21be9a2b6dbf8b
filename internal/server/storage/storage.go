// Package storage defines persistence contracts for the device and character
// backend.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrUnknownCharacter indicates a device selection names a character that
	// does not exist.
	ErrUnknownCharacter = errors.New("unknown character")
)

// Character is one selectable character and its per-pose asset files.
type Character struct {
	ID      string
	BaseURL string
	Version string
	Files   map[string]string
}

// Device is the remote state for one installation.
type Device struct {
	ID            string
	Visible       bool
	SelectedCatID string
	UpdatedAt     time.Time
}

// DevicePatch changes only the fields that are set. A SelectedCatID pointing
// at "" clears the selection.
type DevicePatch struct {
	Visible       *bool
	SelectedCatID *string
}

// DeviceStore persists device state.
type DeviceStore interface {
	GetDevice(ctx context.Context, id string) (Device, error)
	PatchDevice(ctx context.Context, id string, patch DevicePatch) (Device, error)
}

// CharacterStore persists the character catalog.
type CharacterStore interface {
	ListCharacters(ctx context.Context) ([]Character, error)
	GetCharacter(ctx context.Context, id string) (Character, error)
	PutCharacter(ctx context.Context, c Character) error
}

// Store is everything the HTTP handlers need.
type Store interface {
	DeviceStore
	CharacterStore
}
