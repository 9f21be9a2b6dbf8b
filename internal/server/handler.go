// Package server is the reference backend: device state, the character
// catalog and per-character manifests over HTTP.
package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/sethgrid/pixelpaws/internal/server/storage"
	"github.com/tidwall/gjson"
)

const maxBodyBytes = 64 << 10

type deviceStateResponse struct {
	Visible       bool    `json:"visible"`
	SelectedCatID *string `json:"selectedCatId"`
}

type catalogEntryResponse struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

// manifestResponse carries the base under both names clients read.
type manifestResponse struct {
	BaseURL      string            `json:"baseUrl"`
	BaseAssetURL string            `json:"baseAssetUrl"`
	Version      string            `json:"version"`
	Files        map[string]string `json:"files"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type handler struct {
	store  storage.Store
	token  string
	logger *log.Logger
}

// NewHandler routes the /v1 API onto store. A non-empty token requires every
// /v1 request to carry it as a bearer token.
func NewHandler(store storage.Store, token string, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.Default()
	}
	h := &handler{store: store, token: token, logger: logger}

	api := http.NewServeMux()
	api.HandleFunc("GET /v1/devices/{id}/state", h.getDeviceState)
	api.HandleFunc("PATCH /v1/devices/{id}/state", h.patchDeviceState)
	api.HandleFunc("GET /v1/cats", h.listCats)
	api.HandleFunc("GET /v1/cats/{id}/manifest", h.getManifest)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("/v1/", h.requireToken(api))
	return mux
}

func (h *handler) requireToken(next http.Handler) http.Handler {
	if h.token == "" {
		return next
	}
	want := []byte("Bearer " + h.token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get("Authorization"))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) getDeviceState(w http.ResponseWriter, r *http.Request) {
	device, err := h.store.GetDevice(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusOK, deviceStateResponse{})
		return
	}
	if err != nil {
		h.internalError(w, "get device", err)
		return
	}
	writeJSON(w, http.StatusOK, toStateResponse(device))
}

func (h *handler) patchDeviceState(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	patch, err := parsePatch(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	device, err := h.store.PatchDevice(r.Context(), r.PathValue("id"), patch)
	if errors.Is(err, storage.ErrUnknownCharacter) {
		writeError(w, http.StatusNotFound, "cat not found")
		return
	}
	if err != nil {
		h.internalError(w, "patch device", err)
		return
	}
	writeJSON(w, http.StatusOK, toStateResponse(device))
}

// parsePatch reads a partial device state. Absent keys are left alone and a
// null selection clears it.
func parsePatch(body []byte) (storage.DevicePatch, error) {
	var patch storage.DevicePatch
	if !gjson.ValidBytes(body) {
		return patch, errors.New("body is not valid JSON")
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return patch, errors.New("body must be a JSON object")
	}

	if v := doc.Get("visible"); v.Exists() {
		if v.Type != gjson.True && v.Type != gjson.False {
			return patch, errors.New("visible must be a boolean")
		}
		b := v.Bool()
		patch.Visible = &b
	}

	sel := doc.Get("selectedCatId")
	if !sel.Exists() {
		sel = doc.Get("selectedCharacterId")
	}
	if sel.Exists() {
		switch sel.Type {
		case gjson.Null:
			empty := ""
			patch.SelectedCatID = &empty
		case gjson.String:
			s := strings.TrimSpace(sel.String())
			patch.SelectedCatID = &s
		default:
			return patch, errors.New("selectedCatId must be a string or null")
		}
	}
	return patch, nil
}

func (h *handler) listCats(w http.ResponseWriter, r *http.Request) {
	cats, err := h.store.ListCharacters(r.Context())
	if err != nil {
		h.internalError(w, "list cats", err)
		return
	}
	out := make([]catalogEntryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, catalogEntryResponse{ID: c.ID, Version: c.Version})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) getManifest(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetCharacter(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "cat not found")
		return
	}
	if err != nil {
		h.internalError(w, "get manifest", err)
		return
	}
	files := c.Files
	if files == nil {
		files = map[string]string{}
	}
	writeJSON(w, http.StatusOK, manifestResponse{BaseURL: c.BaseURL, BaseAssetURL: c.BaseURL, Version: c.Version, Files: files})
}

func (h *handler) internalError(w http.ResponseWriter, op string, err error) {
	h.logger.Printf("%s: %v", op, err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func toStateResponse(d storage.Device) deviceStateResponse {
	resp := deviceStateResponse{Visible: d.Visible}
	if d.SelectedCatID != "" {
		sel := d.SelectedCatID
		resp.SelectedCatID = &sel
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
