// Package remote talks to the device-state and character backend.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethgrid/pixelpaws/internal/art"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const maxResponseBytes = 1 << 20

var (
	// ErrNotFound is returned for a 404 from the backend.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned for a 401 or 403 from the backend.
	ErrUnauthorized = errors.New("unauthorized")
)

// DeviceState is the remote state of one device. Visible is nil when the
// response did not carry a JSON boolean.
type DeviceState struct {
	Visible       *bool
	SelectedCatID string
}

// StatePatch is a partial update. Nil fields are not sent; a SelectedCatID
// pointing at "" is sent as null.
type StatePatch struct {
	Visible       *bool
	SelectedCatID *string
}

// CatalogEntry is one selectable character.
type CatalogEntry struct {
	ID      string
	Version string
}

// Catalog lists characters in backend order.
type Catalog struct {
	Entries []CatalogEntry
}

func (c Catalog) IDs() []string {
	ids := make([]string, 0, len(c.Entries))
	for _, e := range c.Entries {
		ids = append(ids, e.ID)
	}
	return ids
}

func (c Catalog) Lookup(id string) (CatalogEntry, bool) {
	for _, e := range c.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

// Client calls the backend under Base with an optional bearer Token.
type Client struct {
	Base  string
	Token string
	HTTP  *http.Client
}

// New returns a client. A nil httpClient gets a 10s timeout; per-call
// deadlines come from the context.
func New(base, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{Base: strings.TrimRight(base, "/"), Token: token, HTTP: httpClient}
}

func (c *Client) devicePath(deviceID string) string {
	return "/v1/devices/" + url.PathEscape(deviceID) + "/state"
}

// DeviceState fetches the state of deviceID.
func (c *Client) DeviceState(ctx context.Context, deviceID string) (DeviceState, error) {
	body, err := c.do(ctx, http.MethodGet, c.devicePath(deviceID), nil)
	if err != nil {
		return DeviceState{}, err
	}
	return parseDeviceState(body), nil
}

// PatchDeviceState sends a partial update and returns the resulting state.
func (c *Client) PatchDeviceState(ctx context.Context, deviceID string, patch StatePatch) (DeviceState, error) {
	payload, err := patchBody(patch)
	if err != nil {
		return DeviceState{}, err
	}
	body, err := c.do(ctx, http.MethodPatch, c.devicePath(deviceID), payload)
	if err != nil {
		return DeviceState{}, err
	}
	return parseDeviceState(body), nil
}

// Manifest fetches the pose files of one character.
func (c *Client) Manifest(ctx context.Context, catID string) (art.Manifest, error) {
	body, err := c.do(ctx, http.MethodGet, "/v1/cats/"+url.PathEscape(catID)+"/manifest", nil)
	if err != nil {
		return art.Manifest{}, err
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return art.Manifest{}, fmt.Errorf("manifest for %s is not an object", catID)
	}

	base := doc.Get("baseUrl")
	if !base.Exists() {
		base = doc.Get("baseAssetUrl")
	}
	m := art.Manifest{
		CharacterID: catID,
		BaseURL:     base.String(),
		Version:     doc.Get("version").String(),
		Files:       make(map[string]string),
	}
	doc.Get("files").ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.String {
			m.Files[key.String()] = value.String()
		}
		return true
	})
	return m, nil
}

// Catalog lists the characters the backend offers.
func (c *Client) Catalog(ctx context.Context) (Catalog, error) {
	body, err := c.do(ctx, http.MethodGet, "/v1/cats", nil)
	if err != nil {
		return Catalog{}, err
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsArray() {
		return Catalog{}, errors.New("catalog is not an array")
	}
	var cat Catalog
	for _, item := range doc.Array() {
		id := item.Get("id").String()
		if id == "" {
			continue
		}
		cat.Entries = append(cat.Entries, CatalogEntry{ID: id, Version: item.Get("version").String()})
	}
	return cat, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if c.Base == "" {
		return nil, errors.New("api base is not configured")
	}
	var body io.Reader
	if payload != nil {
		body = strings.NewReader(string(payload))
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%s %s: response is not valid JSON", method, path)
	}
	return data, nil
}

func parseDeviceState(body []byte) DeviceState {
	doc := gjson.ParseBytes(body)
	var s DeviceState
	if v := doc.Get("visible"); v.Type == gjson.True || v.Type == gjson.False {
		b := v.Bool()
		s.Visible = &b
	}
	sel := doc.Get("selectedCatId")
	if !sel.Exists() || sel.Type == gjson.Null {
		sel = doc.Get("selectedCharacterId")
	}
	if sel.Type == gjson.String {
		s.SelectedCatID = sel.String()
	}
	return s
}

func patchBody(p StatePatch) ([]byte, error) {
	body := []byte("{}")
	var err error
	if p.Visible != nil {
		if body, err = sjson.SetBytes(body, "visible", *p.Visible); err != nil {
			return nil, fmt.Errorf("failed to encode patch: %w", err)
		}
	}
	if p.SelectedCatID != nil {
		var v any
		if *p.SelectedCatID != "" {
			v = *p.SelectedCatID
		}
		if body, err = sjson.SetBytes(body, "selectedCatId", v); err != nil {
			return nil, fmt.Errorf("failed to encode patch: %w", err)
		}
	}
	return body, nil
}
