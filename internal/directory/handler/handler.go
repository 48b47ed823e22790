// Package handler serves the read-only district/community directory the
// wizard's locality selectors are populated from.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"jiran/internal/directory/store"
	id "jiran/pkg/domain"
	dErrors "jiran/pkg/domain-errors"
	"jiran/pkg/platform/httputil"
	"jiran/pkg/platform/sentinel"
)

// Handler exposes directory lookups.
type Handler struct {
	directory store.Store
	logger    *slog.Logger
}

// New creates the directory handler.
func New(directory store.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{directory: directory, logger: logger}
}

// Register mounts the directory routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/directory", func(r chi.Router) {
		r.Get("/districts", h.handleListDistricts)
		r.Get("/districts/{districtID}/communities", h.handleListCommunities)
	})
}

func (h *Handler) handleListDistricts(w http.ResponseWriter, r *http.Request) {
	districts, err := h.directory.ListDistricts(r.Context())
	if err != nil {
		h.logger.Error("failed to list districts", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list districts"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, districts)
}

func (h *Handler) handleListCommunities(w http.ResponseWriter, r *http.Request) {
	districtID, err := id.ParseDistrictID(chi.URLParam(r, "districtID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if _, err := h.directory.FindDistrict(r.Context(), districtID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeNotFound, "district not found"))
			return
		}
		h.logger.Error("failed to load district", "district_id", districtID, "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load district"))
		return
	}

	communities, err := h.directory.ListCommunities(r.Context(), districtID)
	if err != nil {
		h.logger.Error("failed to list communities", "district_id", districtID, "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list communities"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, communities)
}
