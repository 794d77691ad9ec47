package handler

import (
	"net/http"

	"github.com/szhou/travelog/internal/auth"
	"github.com/szhou/travelog/internal/model"
	"github.com/szhou/travelog/internal/repository"
	"github.com/szhou/travelog/internal/service"
)

// MapHandler serves the shared map view: everything public, plus the
// viewer's own entries when a session is present.
type MapHandler struct {
	photos    *service.PhotoService
	locations *service.LocationService
}

func NewMapHandler(photos *service.PhotoService, locations *service.LocationService) *MapHandler {
	return &MapHandler{photos: photos, locations: locations}
}

type mapResponse struct {
	Photos    []model.Photo         `json:"photos"`
	Locations []model.LocationIndex `json:"locations"`
}

// Get serves GET /api/map. The route runs under OptionalAuth: anonymous
// viewers get only public entries.
func (h *MapHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	photos, err := h.photos.ListPublic(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	locations, err := h.locations.ListPublic(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	if sess, ok := auth.SessionFromContext(ctx); ok {
		own, err := h.photos.List(ctx, sess.UserID, repository.PhotoListOptions{})
		if err != nil {
			writeError(w, err)
			return
		}
		photos = mergePhotos(photos, own)

		ownLocs, err := h.locations.List(ctx, sess.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		locations = mergeLocations(locations, ownLocs)
	}

	writeJSON(w, http.StatusOK, mapResponse{Photos: photos, Locations: locations})
}

// A viewer's own public entries appear in both lists; keep one copy.

func mergePhotos(base, extra []model.Photo) []model.Photo {
	seen := make(map[string]bool, len(base))
	for _, p := range base {
		seen[p.ID] = true
	}
	for _, p := range extra {
		if !seen[p.ID] {
			base = append(base, p)
		}
	}
	return base
}

func mergeLocations(base, extra []model.LocationIndex) []model.LocationIndex {
	seen := make(map[string]bool, len(base))
	for _, l := range base {
		seen[l.ID] = true
	}
	for _, l := range extra {
		if !seen[l.ID] {
			base = append(base, l)
		}
	}
	return base
}
