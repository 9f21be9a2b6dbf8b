// Package sqlite provides a SQLite-backed device and character store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethgrid/pixelpaws/internal/server/storage"
	"github.com/sethgrid/pixelpaws/internal/server/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists devices and characters in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ storage.Store = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database at path and applies embedded migrations. The
// default character is seeded by a migration.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer keeps pragmas and transactions on a single connection.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// GetDevice returns one device by id.
func (s *Store) GetDevice(ctx context.Context, id string) (storage.Device, error) {
	if err := ctx.Err(); err != nil {
		return storage.Device{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.Device{}, fmt.Errorf("device id is required")
	}
	return getDevice(ctx, s.sqlDB, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getDevice(ctx context.Context, q queryRower, id string) (storage.Device, error) {
	var (
		d         storage.Device
		visible   int
		selected  sql.NullString
		updatedAt int64
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, visible, selected_cat_id, updated_at FROM devices WHERE id = ?`, id,
	).Scan(&d.ID, &visible, &selected, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Device{}, storage.ErrNotFound
		}
		return storage.Device{}, fmt.Errorf("get device: %w", err)
	}
	d.Visible = visible != 0
	d.SelectedCatID = selected.String
	d.UpdatedAt = fromMillis(updatedAt)
	return d, nil
}

// PatchDevice creates the device if needed and applies the set fields.
func (s *Store) PatchDevice(ctx context.Context, id string, patch storage.DevicePatch) (storage.Device, error) {
	if err := ctx.Err(); err != nil {
		return storage.Device{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.Device{}, fmt.Errorf("device id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.Device{}, fmt.Errorf("begin patch device: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := getDevice(ctx, tx, id)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return storage.Device{}, err
	}
	current.ID = id

	if patch.Visible != nil {
		current.Visible = *patch.Visible
	}
	if patch.SelectedCatID != nil {
		sel := strings.TrimSpace(*patch.SelectedCatID)
		if sel != "" {
			var found int
			err := tx.QueryRowContext(ctx, `SELECT 1 FROM characters WHERE id = ?`, sel).Scan(&found)
			if errors.Is(err, sql.ErrNoRows) {
				return storage.Device{}, storage.ErrUnknownCharacter
			}
			if err != nil {
				return storage.Device{}, fmt.Errorf("check character: %w", err)
			}
		}
		current.SelectedCatID = sel
	}
	current.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	var selected sql.NullString
	if current.SelectedCatID != "" {
		selected = sql.NullString{String: current.SelectedCatID, Valid: true}
	}
	visible := 0
	if current.Visible {
		visible = 1
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO devices (id, visible, selected_cat_id, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   visible = excluded.visible,
		   selected_cat_id = excluded.selected_cat_id,
		   updated_at = excluded.updated_at`,
		id, visible, selected, toMillis(current.UpdatedAt),
	); err != nil {
		return storage.Device{}, fmt.Errorf("patch device: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return storage.Device{}, fmt.Errorf("commit patch device: %w", err)
	}
	return current, nil
}

// ListCharacters returns every character in insertion order.
func (s *Store) ListCharacters(ctx context.Context) ([]storage.Character, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, base_url, version FROM characters ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	var out []storage.Character
	for rows.Next() {
		var c storage.Character
		if err := rows.Scan(&c.ID, &c.BaseURL, &c.Version); err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate characters: %w", err)
	}
	return out, nil
}

// GetCharacter returns one character with its files.
func (s *Store) GetCharacter(ctx context.Context, id string) (storage.Character, error) {
	if err := ctx.Err(); err != nil {
		return storage.Character{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.Character{}, fmt.Errorf("character id is required")
	}

	var c storage.Character
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, base_url, version FROM characters WHERE id = ?`, id,
	).Scan(&c.ID, &c.BaseURL, &c.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Character{}, storage.ErrNotFound
		}
		return storage.Character{}, fmt.Errorf("get character: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT pose, file FROM character_files WHERE character_id = ?`, id)
	if err != nil {
		return storage.Character{}, fmt.Errorf("get character files: %w", err)
	}
	defer rows.Close()

	c.Files = make(map[string]string)
	for rows.Next() {
		var pose, file string
		if err := rows.Scan(&pose, &file); err != nil {
			return storage.Character{}, fmt.Errorf("scan character file: %w", err)
		}
		c.Files[pose] = file
	}
	if err := rows.Err(); err != nil {
		return storage.Character{}, fmt.Errorf("iterate character files: %w", err)
	}
	return c, nil
}

// PutCharacter inserts or replaces a character and all of its files.
func (s *Store) PutCharacter(ctx context.Context, c storage.Character) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" {
		return fmt.Errorf("character id is required")
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("base url is required")
	}
	if c.Version == "" {
		c.Version = "1"
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put character: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO characters (id, base_url, version) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET base_url = excluded.base_url, version = excluded.version`,
		c.ID, c.BaseURL, c.Version,
	); err != nil {
		return fmt.Errorf("put character: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM character_files WHERE character_id = ?`, c.ID); err != nil {
		return fmt.Errorf("clear character files: %w", err)
	}
	for pose, file := range c.Files {
		if strings.TrimSpace(file) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO character_files (character_id, pose, file) VALUES (?, ?, ?)`,
			c.ID, pose, file,
		); err != nil {
			return fmt.Errorf("put character file %s: %w", pose, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put character: %w", err)
	}
	return nil
}
