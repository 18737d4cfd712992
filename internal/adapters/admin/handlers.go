package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// Service is the project surface the admin API edits.
type Service interface {
	UnitIDs() []string
	GetConfig(ctx context.Context, id string) (*domain.ConfigView, bool, error)
	SetConfig(ctx context.Context, id string, patch map[string]any, mode domain.ConfigMode) (bool, error)
	ClearConfigPreview(ctx context.Context, id string) (bool, error)
	FlushConfig(ctx context.Context) (int, error)
	UnitHash(ctx context.Context, id string) (domain.ContentHash, bool, error)
}

// UnitsResponse lists the registered units.
type UnitsResponse struct {
	Units []string `json:"units"`
}

// HashResponse reports a unit's current hash. Hash is empty when the unit is
// uncacheable.
type HashResponse struct {
	ID        string `json:"id"`
	Hash      string `json:"hash,omitempty"`
	Cacheable bool   `json:"cacheable"`
}

// FlushResponse reports how many config stores were written.
type FlushResponse struct {
	Stores int `json:"stores"`
}

type handler struct {
	svc    Service
	logger ports.Logger
}

func (h *handler) listUnits(w http.ResponseWriter, _ *http.Request) {
	ids := h.svc.UnitIDs()
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, UnitsResponse{Units: ids})
}

func (h *handler) getConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, ok, err := h.svc.GetConfig(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	if !ok {
		notFound(w, domain.ErrConfigTargetUnknown.Error()+": "+id)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handler) putConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	mode, err := domain.ParseConfigMode(r.URL.Query().Get("mode"))
	if err != nil {
		badRequest(w, err.Error()+": "+r.URL.Query().Get("mode"))
		return
	}

	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		badRequest(w, "request body must be a JSON object")
		return
	}
	if patch == nil {
		patch = map[string]any{}
	}

	ok, err := h.svc.SetConfig(r.Context(), id, patch, mode)
	if err != nil {
		h.fail(w, err)
		return
	}
	if !ok {
		h.unknownOrNoStore(w, id)
		return
	}

	view, _, err := h.svc.GetConfig(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handler) clearPreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := h.svc.ClearConfigPreview(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	if !ok {
		h.unknownOrNoStore(w, id)
		return
	}

	view, _, err := h.svc.GetConfig(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handler) flushConfig(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.FlushConfig(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FlushResponse{Stores: n})
}

func (h *handler) getHash(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	hash, ok, err := h.svc.UnitHash(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	resp := HashResponse{ID: id, Cacheable: ok}
	if ok {
		resp.Hash = hash.Hex()
	}
	writeJSON(w, http.StatusOK, resp)
}

// unknownOrNoStore distinguishes a missing unit from a unit that has no
// config store to write to.
func (h *handler) unknownOrNoStore(w http.ResponseWriter, id string) {
	for _, known := range h.svc.UnitIDs() {
		if known == id {
			conflict(w, domain.ErrNoConfigStore.Error()+": "+id)
			return
		}
	}
	notFound(w, domain.ErrConfigTargetUnknown.Error()+": "+id)
}

func (h *handler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrUnitNotFound) || errors.Is(err, domain.ErrConfigTargetUnknown) {
		notFound(w, err.Error())
		return
	}
	if h.logger != nil {
		h.logger.Error(err)
	}
	internalServerError(w, err.Error())
}
